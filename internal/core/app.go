package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/vrsandeep/tome-go/internal/assets"
	"github.com/vrsandeep/tome-go/internal/config"
	"github.com/vrsandeep/tome-go/internal/db"
	"github.com/vrsandeep/tome-go/internal/events"
	"github.com/vrsandeep/tome-go/internal/jobs"
	"github.com/vrsandeep/tome-go/internal/state"
	"github.com/vrsandeep/tome-go/internal/stealth"
)

// App holds the core components of the application shared between the
// HTTP server, the download workers and the background jobs.
type App struct {
	config     *config.Config
	db         *sql.DB
	hub        *events.Hub
	jobManager *jobs.JobManager
	stateStore *state.Store
	limiter    *stealth.Limiter
	version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running
// migrations and building the resume state store.
func New(version string) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	stateStore, err := state.New(cfg.State.Path)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}

	profile, ok := stealth.ProfileByName(cfg.Stealth.Profile)
	if !ok {
		database.Close()
		return nil, fmt.Errorf("unknown stealth profile %q", cfg.Stealth.Profile)
	}

	app := &App{
		config:     cfg,
		db:         database,
		hub:        events.NewHub(),
		stateStore: stateStore,
		limiter:    stealth.NewLimiter(profile),
		version:    version,
	}
	app.jobManager = jobs.NewManager(app)

	log.Println("Core application setup complete.")
	return app, nil
}

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) Config() *config.Config       { return a.config }
func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) Hub() *events.Hub             { return a.hub }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }
func (a *App) StateStore() *state.Store     { return a.stateStore }
func (a *App) Limiter() *stealth.Limiter    { return a.limiter }
func (a *App) Version() string              { return a.version }

// NewForTesting assembles an App from pre-built components. Tests use
// it with an in-memory database and temp-backed state store.
func NewForTesting(cfg *config.Config, database *sql.DB, stateStore *state.Store, limiter *stealth.Limiter) *App {
	app := &App{
		config:     cfg,
		db:         database,
		hub:        events.NewHub(),
		stateStore: stateStore,
		limiter:    limiter,
		version:    "test",
	}
	app.jobManager = jobs.NewManager(app)
	return app
}
