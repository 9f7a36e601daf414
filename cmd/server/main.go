// Package main implements the entry point for the sortlab API server,
// which manages card-sorting studies, collects participant results, and
// computes similarity, clustering, and agreement analytics over them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sortlab/sortlab-api/internal/config"
	"github.com/sortlab/sortlab-api/internal/platform/logger"
	"github.com/sortlab/sortlab-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		fmt.Fprintf(os.Stderr, "sortlab-api: %v\n", err)
		os.Exit(1)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if migrateCmd != "" {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("error closing database connection", "error", err)
			}
		}()
		return postgres.RunMigrations(db, migrateCmd)
	}

	if err := postgres.RunMigrations(db, "up"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
