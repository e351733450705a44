// Package app provides the application context and dependency management
// for the astronauts CLI. It centralizes configuration, logging and the
// record store, and hands them to commands through application.Application.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/astronauts/cmd/application"
	"github.com/agentstation/astronauts/internal/store"
	"github.com/agentstation/astronauts/pkg/astronauts"
	"github.com/agentstation/astronauts/pkg/errors"
)

// App represents the astronauts application with all its dependencies.
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

	// Record store (lazy-initialized, singleton)
	mu    sync.RWMutex
	store *store.Store
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// The app is initialized with configuration from the environment, .env
// files and the config file, then customized by opts.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
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

// Store returns the record store, seeding it on first use from the
// configured fixtures file or the embedded fixtures.
// This is thread-safe and ensures only one store is created.
func (a *App) Store() (*store.Store, error) {
	a.mu.RLock()
	if a.store != nil {
		st := a.store
		a.mu.RUnlock()
		return st, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.store != nil {
		return a.store, nil
	}

	records, err := a.seed()
	if err != nil {
		return nil, errors.WrapResource("load", "fixtures", a.config.FixturesPath, err)
	}

	st, err := store.New(store.WithSeed(records))
	if err != nil {
		return nil, errors.WrapResource("create", "store", "", err)
	}

	a.logger.Debug().
		Int("records", st.Len()).
		Str("fixtures", a.fixturesSource()).
		Msg("Store seeded")

	a.store = st
	return st, nil
}

// Seed returns the records the store is seeded with.
func (a *App) Seed() ([]astronauts.Astronaut, error) {
	return a.seed()
}

func (a *App) seed() ([]astronauts.Astronaut, error) {
	if a.config.FixturesPath != "" {
		return astronauts.LoadFixtures(a.config.FixturesPath)
	}
	return astronauts.Fixtures()
}

func (a *App) fixturesSource() string {
	if a.config.FixturesPath != "" {
		return a.config.FixturesPath
	}
	return "embedded"
}

// Shutdown performs graceful shutdown of the application.
// The store is in-memory only, so there is nothing to flush.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	st := a.store
	a.mu.RUnlock()

	if st != nil {
		a.logger.Debug().Int("records", st.Len()).Msg("Discarding in-memory store")
	}
	return nil
}

// Option configures an App.
type Option func(*App) error

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigError("app", "config cannot be nil", nil)
		}
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
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

// WithStore sets a pre-built store instead of seeding one.
func WithStore(st *store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}
