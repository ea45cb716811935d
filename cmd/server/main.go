// Command server runs the codecraft HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/codecraft/internal/config"
	"github.com/sakif/codecraft/internal/executor"
	"github.com/sakif/codecraft/internal/executor/docker"
	"github.com/sakif/codecraft/internal/executor/piston"
	"github.com/sakif/codecraft/internal/repository/postgres"
	"github.com/sakif/codecraft/internal/repository/sqlite"
	"github.com/sakif/codecraft/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	exec, closeExec, err := openExecutor(cfg, logger)
	if err != nil {
		store.Close()
		return err
	}
	defer closeExec()

	srv, err := server.New(cfg, store, exec, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	return srv.Start()
}

func openStore(ctx context.Context, cfg *config.Config) (server.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqlite.New(ctx, cfg.DBPath)
	}
}

// openExecutor builds the configured backend. A Docker daemon that cannot be
// reached leaves the server running without server-side execution.
func openExecutor(cfg *config.Config, logger *slog.Logger) (executor.Executor, func(), error) {
	noop := func() {}

	switch cfg.Executor {
	case config.ExecutorPiston:
		return piston.New(cfg.PistonURL, cfg.PistonTimeout), noop, nil

	case config.ExecutorDocker:
		d, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker executor unavailable; /api/execute will return 502",
				slog.String("error", err.Error()),
			)
			return nil, noop, nil
		}
		return d, func() { d.Close() }, nil

	default:
		logger.Info("server-side execution disabled")
		return nil, noop, nil
	}
}
