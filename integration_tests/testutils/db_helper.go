package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	impactqueue "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/queue"
	impactmigrations "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories/migrations"
)

// impactTables lists every table the impact migrations create.
var impactTables = []string{"activities", "user_stats", "user_badges", "profiles"}

// RunMigrations applies the River schema and then the impact migrations.
func RunMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	if _, err := impactqueue.Migrate(ctx, pgConnStr); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}

	migrator := migrate.NewMigrator(db, impactmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run impact migrations: %w", err)
	}
	if group.IsZero() {
		log.Println("No impact migrations to run")
	} else {
		log.Printf("Ran impact migrations group #%d", group.ID)
	}
	return nil
}

// CleanupRiverJobs deletes all jobs from the River queue
func CleanupRiverJobs(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, "DELETE FROM river_job")
	return err
}

// CleanupDatabase truncates the impact tables and the job queue.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(impactTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	if err := CleanupRiverJobs(ctx, db); err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to cleanup river jobs: %w", err)
		}
	}
	return nil
}
