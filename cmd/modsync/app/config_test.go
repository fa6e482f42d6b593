package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := testEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, config.Host)
	assert.Equal(t, DefaultOrg, config.Org)
	assert.Equal(t, DefaultManifest, config.Manifest)
	assert.Equal(t, DefaultOutput, config.Output)
	assert.Equal(t, DefaultConcurrency, config.Concurrency)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	assert.Equal(t, filepath.Join(dir, ".github_personal_token"), config.TokenFile)
	assert.Equal(t, "auto", config.LogFormat)
}

func TestConfigEnvironmentVariables(t *testing.T) {
	testEnv(t)
	t.Setenv("MODSYNC_ORG", "SomeOrg")
	t.Setenv("MODSYNC_CONCURRENCY", "3")
	t.Setenv("GH_TOKEN", "from-gh")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "SomeOrg", config.Org)
	assert.Equal(t, 3, config.Concurrency)
	assert.Equal(t, "from-gh", config.Token)
}

func TestConfigPrecedence(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "modsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("org: FileOrg\nmanifest: file.json\ntimeout: 5s\n"), 0o644))
	t.Setenv("MODSYNC_MANIFEST", "env.json")

	config, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, config.ReadFile(path))

	assert.Equal(t, "FileOrg", config.Org)
	assert.Equal(t, "env.json", config.Manifest)
	assert.Equal(t, 5*time.Second, config.Timeout)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("org", "", "")
	flags.String("manifest", "", "")
	require.NoError(t, flags.Parse([]string{"--org", "FlagOrg"}))
	require.NoError(t, config.BindFlags(flags))

	assert.Equal(t, "FlagOrg", config.Org)
	assert.Equal(t, "env.json", config.Manifest)
}

func TestTokenSource(t *testing.T) {
	dir := testEnv(t)
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("from-file\n"), 0o600))

	config := &Config{TokenFile: tokenFile}
	tok, err := config.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, "from-file", tok)

	config.Token = "from-env"
	tok, err = config.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default", Config{}, "info"},
		{"verbose", Config{Verbose: true}, "debug"},
		{"quiet", Config{Quiet: true}, "warn"},
		{"both", Config{Verbose: true, Quiet: true}, "warn"},
		{"explicit wins", Config{LogLevel: "ERROR", Verbose: true}, "error"},
		{"invalid", Config{LogLevel: "loud"}, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}
