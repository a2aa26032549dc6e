package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/terrapulse/impact-service/app/modules/auth"
	"github.com/terrapulse/impact-service/app/modules/impact"
	impactevents "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/events"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"github.com/terrapulse/impact-service/app/shared/observability"
	"github.com/terrapulse/impact-service/config"
)

// App wires the service's modules together.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      *impactevents.Bus
	AuthModule    *auth.Module
	ImpactModule  *impact.Module

	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewApp initializes the application with the necessary services and
// configuration. Without a Postgres DSN the impact store is in memory.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger
	app := &App{Config: cfg, Observability: obs, logger: logger}

	if cfg.Postgres.DSN != "" {
		db, err := openDB(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		app.DB = db
	} else {
		logger.WarnContext(ctx, "No Postgres DSN configured, using in-memory storage")
	}

	bus, err := impactevents.New(ctx, cfg.NATS.URL, logger)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	app.EventBus = bus

	app.AuthModule = auth.NewModule(ctx, cfg, obs)

	impactModule, err := impact.NewImpactModule(ctx, cfg, obs, app.DB, bus, app.AuthModule.SessionMiddleware())
	if err != nil {
		_ = bus.Close()
		app.closeDB()
		return nil, fmt.Errorf("failed to initialize impact module: %w", err)
	}
	app.ImpactModule = impactModule

	return app, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// HealthCheck reports whether the storage and queue are reachable.
func (app *App) HealthCheck(ctx context.Context) error {
	if app.DB != nil {
		if err := app.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := app.ImpactModule.HealthCheck(ctx); err != nil {
		return fmt.Errorf("impact queue: %w", err)
	}
	return nil
}

// Close releases every resource the app holds, in reverse start order.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	if app.ImpactModule != nil {
		if err := app.ImpactModule.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.logger.Error("Failed to close event bus", attr.Error(err))
			errs = append(errs, err)
		}
	}
	if err := app.closeDB(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *App) closeDB() error {
	if app.DB == nil {
		return nil
	}
	if err := app.DB.Close(); err != nil {
		app.logger.Error("Error closing database connection", attr.Error(err))
		return err
	}
	return nil
}
