// Package main implements the entry point for the account API server,
// which manages users' accounts and processes balance use and cancel
// requests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "",
		"run a migration command (up, down, status, version, reset) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrate); err != nil {
		log.Printf("account-api: %v", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and either executes a migration
// command or serves HTTP until ctx is canceled.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("lock_driver", cfg.Lock.Driver),
		slog.String("events_driver", cfg.Events.Driver))

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, l, migrateCmd)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// runMigrations executes a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, l *slog.Logger, command string) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations require the postgres database driver, got %q", cfg.Database.Driver)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			l.Error("failed to close database connection", slog.String("error", closeErr.Error()))
		}
	}()

	if err := postgres.Migrate(ctx, db, command, l); err != nil {
		return err
	}
	l.Info("migration command completed", slog.String("command", command))
	return nil
}
