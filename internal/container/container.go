package container

import (
	"context"
	"strings"

	"karyoscore/adapters/sqlstore"
	"karyoscore/app"
	"karyoscore/internal"
	"karyoscore/internal/config"
	"karyoscore/internal/errors"
	"karyoscore/internal/metrics"
	"karyoscore/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB         // nil when history is disabled
	Metrics *metrics.Metrics // nil when metrics are disabled

	// Repositories (data access layer)
	Runs ports.RunRepository

	// Services
	Analysis *app.AnalysisService
	Batches  *app.BatchService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: NewLogger(cfg.Log),
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}
	c.initServices()
	return c, nil
}

// NewLogger builds the application logger from the log settings
func NewLogger(cfg config.LogConfig) *internal.Logger {
	level := internal.ParseLogLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return internal.NewJSONLogger(level)
	}
	return internal.NewLogger(level)
}

// InitWithDatabase opens the run history database when it is enabled and
// rewires the services to persist runs
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled {
		c.Logger.Info("Run history disabled")
		return nil
	}

	db, err := sqlstore.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to initialize run history")
	}
	c.DB = db
	c.Runs = sqlstore.NewRunRepository(db)
	c.initServices()

	c.Logger.Info("Run history stored in %s database", c.Config.Database.Driver)
	return nil
}

func (c *Container) initServices() {
	c.Analysis = app.NewAnalysisService(c.Logger, c.Metrics)
	c.Batches = app.NewBatchService(c.Analysis, c.Runs, app.BatchOptions{
		Workers: c.Config.Batch.Workers,
		MaxRows: c.Config.Batch.MaxRows,
	}, c.Logger, c.Metrics)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	defer c.Logger.Sync()

	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
