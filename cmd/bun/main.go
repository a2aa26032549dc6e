package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	impactqueue "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/queue"
	impactmigrations "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories/migrations"
	"github.com/terrapulse/impact-service/config"
)

// schema is one migration set, applied in declaration order.
type schema struct {
	name     string
	migrator *migrate.Migrator
}

type migrationTool struct {
	schemas []schema
	dsn     string
}

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatal("postgres dsn is not configured (set DATABASE_URL)")
	}

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN))), pgdialect.New())
	defer db.Close()

	tool := &migrationTool{
		schemas: []schema{
			{name: "impact", migrator: migrate.NewMigrator(db, impactmigrations.Migrations)},
		},
		dsn: cfg.Postgres.DSN,
	}

	cliApp := &cli.App{
		Name:     "bun",
		Usage:    "manage the impact database schema",
		Commands: []*cli.Command{tool.command()},
	}
	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

func (t *migrationTool) command() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{Name: "init", Usage: "create migration tables", Action: t.init},
			{Name: "migrate", Usage: "apply pending migrations, including the job queue schema", Action: t.migrate},
			{Name: "river", Usage: "apply only the job queue schema", Action: func(c *cli.Context) error {
				return t.migrateRiver(c.Context)
			}},
			{Name: "rollback", Usage: "roll back the last migration group", Action: t.rollback},
			{Name: "status", Usage: "print migrations status", Action: t.status},
			{Name: "create_go", Usage: "create a Go migration: create_go <schema> <name...>", Action: t.createGo},
			{Name: "create_sql", Usage: "create up/down SQL migrations: create_sql <schema> <name...>", Action: t.createSQL},
		},
	}
}

// each runs fn for every schema and stops at the first error.
func (t *migrationTool) each(fn func(s schema) error) error {
	for _, s := range t.schemas {
		if err := fn(s); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (t *migrationTool) init(c *cli.Context) error {
	return t.each(func(s schema) error {
		fmt.Printf("[%s] creating migration tables\n", s.name)
		return s.migrator.Init(c.Context)
	})
}

func (t *migrationTool) migrate(c *cli.Context) error {
	if err := t.migrateRiver(c.Context); err != nil {
		return err
	}
	return t.each(func(s schema) error {
		if err := s.migrator.Lock(c.Context); err != nil {
			return err
		}
		defer func() { _ = s.migrator.Unlock(c.Context) }()

		group, err := s.migrator.Migrate(c.Context)
		if err != nil {
			return err
		}
		if group.IsZero() {
			fmt.Printf("[%s] up to date\n", s.name)
		} else {
			fmt.Printf("[%s] migrated to %s\n", s.name, group)
		}
		return nil
	})
}

func (t *migrationTool) migrateRiver(ctx context.Context) error {
	applied, err := impactqueue.Migrate(ctx, t.dsn)
	if err != nil {
		return err
	}
	fmt.Printf("[river] applied %d migration(s)\n", applied)
	return nil
}

func (t *migrationTool) rollback(c *cli.Context) error {
	// Roll back in reverse so dependent schemas go first.
	for i := len(t.schemas) - 1; i >= 0; i-- {
		s := t.schemas[i]
		group, err := s.migrator.Rollback(c.Context)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if group.IsZero() {
			fmt.Printf("[%s] nothing to roll back\n", s.name)
		} else {
			fmt.Printf("[%s] rolled back %s\n", s.name, group)
		}
	}
	return nil
}

func (t *migrationTool) status(c *cli.Context) error {
	return t.each(func(s schema) error {
		ms, err := s.migrator.MigrationsWithStatus(c.Context)
		if err != nil {
			return err
		}
		fmt.Printf("[%s] %s\n  applied:   %s\n  unapplied: %s\n", s.name, ms, ms.Applied(), ms.Unapplied())
		return nil
	})
}

func (t *migrationTool) createGo(c *cli.Context) error {
	s, name, err := t.target(c)
	if err != nil {
		return err
	}
	mf, err := s.migrator.CreateGoMigration(c.Context, name)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] created %s (%s)\n", s.name, mf.Name, mf.Path)
	return nil
}

func (t *migrationTool) createSQL(c *cli.Context) error {
	s, name, err := t.target(c)
	if err != nil {
		return err
	}
	files, err := s.migrator.CreateSQLMigrations(c.Context, name)
	if err != nil {
		return err
	}
	for _, mf := range files {
		fmt.Printf("[%s] created %s (%s)\n", s.name, mf.Name, mf.Path)
	}
	return nil
}

// target reads "<schema> <name words...>" from the command arguments.
func (t *migrationTool) target(c *cli.Context) (schema, string, error) {
	want := c.Args().First()
	name := strings.Join(c.Args().Tail(), "_")
	if name == "" {
		return schema{}, "", fmt.Errorf("migration name is required")
	}
	for _, s := range t.schemas {
		if s.name == want {
			return s, name, nil
		}
	}
	return schema{}, "", fmt.Errorf("unknown schema %q", want)
}
