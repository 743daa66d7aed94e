package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lifeos/internal"
	pkgconfig "github.com/starford/lifeos/pkg/config"
)

type runner func(ctx context.Context, opts ...internal.Option) error

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if id := cmd.String("user"); id != "" {
		cfg.Remote.UserID = id
	}
	return cfg, nil
}

func action(run runner, extra ...internal.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := append([]internal.Option{internal.WithConfig(cfg)}, extra...)
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "lifeos",
		Usage:  "Personal dashboard for meals, workouts, expenses, coffee and memos backed by a spreadsheet",
		Action: action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User to log in as at start, overrides remote.user_id",
				Sources: cli.EnvVars("LIFEOS_USER_ID"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the dashboard HTTP API, event stream and photo inbox",
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the dashboard as MCP tools over stdio",
				Action: action(internal.RunMCP, internal.WithLogOutput(os.Stderr)),
			},
			{
				Name:   "sheet-stub",
				Usage:  "Serve a local SQLite-backed stand-in for the spreadsheet endpoint",
				Action: action(internal.RunStub),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
