package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/terrapulse/impact-service/app"
	"github.com/terrapulse/impact-service/app/modules/auth"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"github.com/terrapulse/impact-service/app/shared/observability"
	"github.com/terrapulse/impact-service/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "terrapulse",
		Usage: "environmental impact scoring service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			obs, err := observability.Init(ctx, config.ToObsConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to initialize observability: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = obs.Shutdown(shutdownCtx)
			}()

			obs.Logger.InfoContext(ctx, "Starting TerraPulse impact service",
				attr.String("environment", cfg.Observability.Environment),
				attr.String("addr", cfg.HTTP.Addr),
			)

			application, err := app.NewApp(ctx, cfg, obs)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			return application.Start(ctx)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "sign a bearer token for a user",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "display name claim"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (defaults to auth.token_ttl)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: terrapulse token <user-id>", 2)
			}

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ttl := c.Duration("ttl")
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}

			authModule := auth.NewModule(c.Context, cfg, observability.NewNoop())
			tok, err := authModule.GetService().IssueToken(c.Context, c.Args().First(), c.String("name"), ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, tok.Token)
			fmt.Fprintf(c.App.ErrWriter, "expires %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
