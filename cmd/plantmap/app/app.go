// Package app provides the application context and dependency management
// for the plantmap CLI. It centralizes configuration, logging and the
// lazily opened plantmap client.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/store"
)

// App represents the plantmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// out replaces stdout and stderr for commands when set
	out io.Writer

	// cancel releases the per-command deadline set in setupCommand
	cancel context.CancelFunc

	// Plantmap client (lazy-initialized, singleton)
	mu       sync.RWMutex
	plantmap plantmap.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Plantmap returns the plantmap client, opening it lazily on first use.
// This is thread-safe and ensures only one instance is created.
func (a *App) Plantmap() (plantmap.Client, error) {
	a.mu.RLock()
	if a.plantmap != nil {
		pm := a.plantmap
		a.mu.RUnlock()
		return pm, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.plantmap != nil {
		return a.plantmap, nil
	}

	pm, err := plantmap.New(a.buildPlantmapOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "plantmap", "", err)
	}

	a.plantmap = pm
	return pm, nil
}

// Shutdown waits for pending cache writes and closes the local store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	pm := a.plantmap
	a.plantmap = nil
	a.mu.Unlock()

	if pm == nil {
		return nil
	}
	if err := pm.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close plantmap during shutdown")
		return err
	}
	return nil
}

// buildPlantmapOptions constructs plantmap options from the app configuration.
func (a *App) buildPlantmapOptions() []plantmap.Option {
	opts := []plantmap.Option{
		plantmap.WithDataDir(a.config.DataDir),
		plantmap.WithStoreDriver(store.Driver(a.config.StoreDriver)),
		plantmap.WithPerenualAPIKey(a.config.PerenualAPIKey),
		plantmap.WithPerenualBaseURL(a.config.PerenualBaseURL),
		plantmap.WithPlantbookBaseURL(a.config.PlantbookBaseURL),
		plantmap.WithLogger(a.logger),
	}

	if a.config.PlantbookClientID != "" || a.config.PlantbookClientSecret != "" {
		opts = append(opts, plantmap.WithPlantbookCredentials(a.config.PlantbookClientID, a.config.PlantbookClientSecret))
	}
	if a.config.HTTPTimeout > 0 {
		opts = append(opts, plantmap.WithHTTPTimeout(a.config.HTTPTimeout))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

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

// WithPlantmap sets a custom plantmap client (useful for testing).
func WithPlantmap(pm plantmap.Client) Option {
	return func(a *App) error {
		a.plantmap = pm
		return nil
	}
}

// WithOutput sends command output to w instead of stdout and stderr.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
