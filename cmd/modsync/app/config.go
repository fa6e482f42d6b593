package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/git-pkgs/modsync/client"
)

// Defaults.
const (
	DefaultHost        = "github"
	DefaultOrg         = "GTNewHorizons"
	DefaultManifest    = "gtnh-modpack.json"
	DefaultOutput      = "updated_mods.json"
	DefaultConcurrency = 8
	DefaultTimeout     = 30 * time.Second
	defaultTokenFile   = ".github_personal_token"
)

// Config holds the application configuration loaded from flags,
// environment variables, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	ConfigFile string

	// Upstream
	Host      string
	BaseURL   string
	Org       string
	Token     string
	TokenFile string
	Timeout   time.Duration

	// Run
	Manifest    string
	Output      string
	Concurrency int
	DryRun      bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	v *viper.Viper
}

// flag name -> config key
var flagKeys = map[string]string{
	"verbose":     "verbose",
	"quiet":       "quiet",
	"no-color":    "no_color",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"host":        "host",
	"base-url":    "base_url",
	"org":         "org",
	"token-file":  "token_file",
	"timeout":     "timeout",
	"manifest":    "manifest",
	"output":      "output",
	"concurrency": "concurrency",
	"dry-run":     "dry_run",
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (bound in BindFlags)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.modsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig("")
}

func loadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MODSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".modsync")
		// Missing config file is fine.
		_ = v.ReadInConfig()
	}

	c := &Config{v: v}
	c.refresh()
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("org", DefaultOrg)
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("token_file", filepath.Join(home, defaultTokenFile))
	}
}

// bindEnv binds the unprefixed variables modsync shares with other tools.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"token":      {"GITHUB_TOKEN", "GH_TOKEN", "GITEA_TOKEN"},
		"log_level":  {"LOG_LEVEL"},
		"log_format": {"LOG_FORMAT"},
		"log_output": {"LOG_OUTPUT"},
		"no_color":   {"NO_COLOR"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// BindFlags makes changed flags take precedence over every other source.
func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	if c.v == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := c.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	c.refresh()
	return nil
}

// ReadFile merges the given config file, keeping flags and environment on top.
func (c *Config) ReadFile(path string) error {
	if c.v == nil {
		return nil
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	c.refresh()
	return nil
}

func (c *Config) refresh() {
	v := c.v
	c.Verbose = v.GetBool("verbose")
	c.Quiet = v.GetBool("quiet")
	c.NoColor = v.GetString("no_color") != "" && v.GetString("no_color") != "false"
	c.ConfigFile = v.ConfigFileUsed()

	c.Host = v.GetString("host")
	c.BaseURL = v.GetString("base_url")
	c.Org = v.GetString("org")
	c.Token = v.GetString("token")
	c.TokenFile = v.GetString("token_file")
	c.Timeout = v.GetDuration("timeout")

	c.Manifest = v.GetString("manifest")
	c.Output = v.GetString("output")
	c.Concurrency = v.GetInt("concurrency")
	c.DryRun = v.GetBool("dry_run")

	c.LogLevel = v.GetString("log_level")
	c.LogFormat = v.GetString("log_format")
	c.LogOutput = v.GetString("log_output")
}

// TokenSource returns the credential chain: environment token first, then
// the token file.
func (c *Config) TokenSource() client.TokenSource {
	return client.ChainTokens(
		client.StaticToken(strings.TrimSpace(c.Token)),
		client.FileToken(c.TokenFile),
	)
}
