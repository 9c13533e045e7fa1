// Package main is the entrypoint for the acrasync API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/acrasync/internal/api"
	"github.com/kiranshivaraju/acrasync/internal/api/handler"
	mw "github.com/kiranshivaraju/acrasync/internal/api/middleware"
	"github.com/kiranshivaraju/acrasync/internal/api/response"
	"github.com/kiranshivaraju/acrasync/internal/app"
	"github.com/kiranshivaraju/acrasync/internal/cache"
	"github.com/kiranshivaraju/acrasync/internal/config"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/internal/syncer"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app.SetupLogger(slog.LevelInfo)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app.SetupLogger(cfg.Log.Level)
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"spreadsheet", cfg.Sheets.SpreadsheetID,
		"redmine_project", cfg.Redmine.ProjectID,
		"sync_interval", cfg.Sync.Interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	components, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	if err := components.Tracker.Ping(ctx); err != nil {
		slog.Warn("redmine unreachable at startup", "error", err)
	}

	pgStore := store.NewPostgresStore(pool)
	runner := syncer.NewRunner(components.Syncer(), pgStore, redisCache, syncer.RunnerOptions{
		LockKey: cache.SyncLockKey(cfg.Sheets.SpreadsheetID),
		Timeout: cfg.Sync.Timeout,
	})
	if cfg.Sync.Interval > 0 {
		go runner.Schedule(ctx, cfg.Sync.Interval)
	}

	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RequestsPerMinute),

		HealthHandler:      healthHandler(pgStore, redisCache),
		TriggerSync:        handler.NewTriggerSyncHandler(runner),
		ListRuns:           handler.NewListRunsHandler(pgStore),
		GetRun:             handler.NewGetRunHandler(pgStore),
		GetRunStatus:       handler.NewGetRunStatusHandler(redisCache, pgStore),
		PreviewDescription: handler.NewPreviewHandler(components.Codec, components.Hasher),
		CreateKey:          handler.NewCreateKeyHandler(pgStore),
		ListKeys:           handler.NewListKeysHandler(pgStore),
		RevokeKey:          handler.NewRevokeKeyHandler(pgStore),
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] != "ok" || checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
