// Package app wires configuration, logging and the upstream source into the
// modsync commands.
package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/git-pkgs/modsync/client"
	"github.com/git-pkgs/modsync/internal/core"

	// Register the github and gitea sources.
	_ "github.com/git-pkgs/modsync/all"
)

// App holds the dependencies shared by all commands.
type App struct {
	version string
	config  *Config
	logger  *zerolog.Logger
	out     io.Writer

	mu     sync.Mutex
	client *client.Client
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// New creates an App with configuration loaded from the environment,
// .env files and the config file.
func New(version string, opts ...Option) (*App, error) {
	a := &App{version: version, out: os.Stdout}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	a.config = config

	logger := NewLogger(config)
	a.logger = &logger

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput sets where reports are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithClient sets the HTTP client used to reach the upstream host.
func WithClient(c *client.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Client returns the HTTP client, creating it on first use.
func (a *App) Client() *client.Client {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		a.client = client.NewClient(
			client.WithTimeout(a.config.Timeout),
			client.WithUserAgentOption("modsync/"+a.version),
			client.WithTokenSource(a.config.TokenSource()),
		)
	}
	return a.client
}

// Source returns the configured upstream host.
func (a *App) Source() (core.Source, error) {
	return core.New(a.config.Host, a.config.BaseURL, a.Client())
}

// ContextWithSignals creates a context that is cancelled on SIGINT or SIGTERM.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
