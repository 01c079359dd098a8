package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/taskql/config"
	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/pkg/retry"
	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/storage/postgres"
	"github.com/c360/taskql/storage/sqlite"
)

// openStore builds the backend named by cfg.Driver.
func openStore(cfg config.DatabaseConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(postgres.Config{
			User:           cfg.User,
			Password:       cfg.Password,
			Host:           cfg.Host,
			Port:           cfg.Port,
			Database:       cfg.Database,
			SSLMode:        cfg.SSLMode,
			ConnectTimeout: cfg.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.NewStore(sqlite.Config{Path: cfg.Path}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "main", "openStore",
			fmt.Sprintf("unknown driver %q", cfg.Driver))
	}
}

// prepareStore opens the store, optionally creates the table, and checks
// that it is reachable. An unreachable store is logged, not fatal: every
// operation connects on its own and reports failures to its caller.
func prepareStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (storage.Store, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.InitSchema {
		// The database may still be starting, e.g. under docker compose.
		policy := retry.Startup()
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("Store not ready, retrying", "attempt", attempt, "delay", delay, "error", err)
		}
		err := retry.Do(ctx, policy, store.EnsureSchema)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		logger.Info("Task table ready", "driver", cfg.Driver)
	}

	if err := store.Ping(ctx); err != nil {
		logger.Warn("Store not reachable at start-up", "driver", cfg.Driver, "error", err)
	}

	return store, nil
}
