package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sortinghat/internal/config"
	"github.com/JonMunkholm/sortinghat/internal/core"
	_ "github.com/JonMunkholm/sortinghat/internal/core/classifiers" // Register classifier backends
	"github.com/JonMunkholm/sortinghat/internal/database"
	"github.com/JonMunkholm/sortinghat/internal/logging"
	"github.com/JonMunkholm/sortinghat/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"classifier", cfg.Inference.Classifier,
		"inference_max_concurrent", cfg.Inference.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"database", cfg.Database.URL != "",
	)
	logger.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	var store core.RunStore = core.NewMemoryRunStore(cfg.Inference.HistorySize)
	if cfg.Database.URL != "" {
		pool, err := connect(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := database.NewRunStore(pool)
		if err := runs.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		store = runs
	} else {
		logger.Info("DATABASE_URL not set, keeping run history in memory", "capacity", cfg.Inference.HistorySize)
	}

	service := core.NewService(store, cfg.ServiceConfig(), logger)

	for _, b := range core.Backends() {
		logger.Debug("classifier registered", "name", b.Name)
	}
	logger.Info("classifiers registered", "count", core.BackendCount())

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active inferences to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			logger.Info("waiting for inferences to complete", "active", status.Active)
			if err := service.WaitForInferences(shutdownCtx); err != nil {
				logger.Warn("inferences did not complete in time", "error", err)
			} else {
				logger.Info("all inferences completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// connect opens and verifies the connection pool.
func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
