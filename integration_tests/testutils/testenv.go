package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/terrapulse/impact-service/config"
	"github.com/terrapulse/impact-service/integration_tests/containers"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DB            *bun.DB
	Config        *config.Config
}

// NewTestEnvironment starts Postgres and NATS, migrates the schema and
// returns a config pointing at both.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(ctx)
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	if err := env.setupContainers(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setupContainers(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgConnStr)))
	env.DB = bun.NewDB(sqlDB, pgdialect.New())

	if err := RunMigrations(ctx, env.DB, pgConnStr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"*"},
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		Impact: config.ImpactConfig{
			Timezone:           "UTC",
			PersistenceTimeout: 5 * time.Second,
			ActivityPageSize:   20,
			GuestTTL:           time.Hour,
			Roster:             config.DefaultRoster(),
		},
	}
	return nil
}

// Reset clears every table between tests.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	if err := CleanupDatabase(env.Ctx, env.DB); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// Cleanup tears down all resources created for testing
func (env *TestEnvironment) Cleanup() {
	if env.CancelContext != nil {
		env.CancelContext()
	}
	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Error closing DB: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}
