// Package main is the entry point for the clipshare server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
	"github.com/abdul-hamid-achik/clipshare/internal/config"
	"github.com/abdul-hamid-achik/clipshare/internal/database"
	"github.com/abdul-hamid-achik/clipshare/internal/expiry"
	"github.com/abdul-hamid-achik/clipshare/internal/handlers"
	"github.com/abdul-hamid-achik/clipshare/internal/logging"
	"github.com/abdul-hamid-achik/clipshare/internal/metrics"
	"github.com/abdul-hamid-achik/clipshare/internal/services"
	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.Security.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting clipshare",
		"version", version,
		"env", cfg.Security.Environment,
		"backend", cfg.Storage.Backend,
		"utc_offset", cfg.Time.UTCOffset.String(),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.HealthCheck{}

	// Storage media
	var entriesMedium, secretsMedium store.Medium
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL")
		db, dbErr := database.New(ctx, &cfg.Storage)
		if dbErr != nil {
			return fmt.Errorf("failed to connect to database: %w", dbErr)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL")

		entriesMedium = store.NewPostgresMedium(db.Pool, store.EntriesCollection)
		secretsMedium = store.NewPostgresMedium(db.Pool, store.SecretsCollection)
		checks["database"] = db.Ping
	default:
		entriesMedium = store.NewFileMedium(filepath.Join(cfg.Storage.Dir, store.EntriesCollection+".json"))
		secretsMedium = store.NewFileMedium(filepath.Join(cfg.Storage.Dir, store.SecretsCollection+".json"))
	}
	checks["store"] = func(ctx context.Context) error {
		_, err := entriesMedium.Read(ctx)
		return err
	}

	records := store.NewRecordStore(entriesMedium, logger)
	secrets := store.NewPasswordStore(secretsMedium, cfg.Security.SecretKey, logger)
	if err := records.Ensure(ctx); err != nil {
		return fmt.Errorf("failed to initialize entries store: %w", err)
	}
	if err := secrets.Ensure(ctx); err != nil {
		return fmt.Errorf("failed to initialize secrets store: %w", err)
	}

	// Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		logger.Info("connecting to Redis")
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opt.MaxRetries = cfg.Redis.MaxRetries
		opt.PoolSize = cfg.Redis.PoolSize
		opt.MinIdleConns = cfg.Redis.MinIdleConns
		redisClient = redis.NewClient(opt)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
		logger.Info("connected to Redis")
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn("redis not configured, request rate limiting disabled")
	}

	// Initialize services
	clock := civiltime.New(cfg.Time.UTCOffset)
	reconciler := expiry.New(records, secrets, cfg.Expiry.Grace, logger)
	clipService := services.NewClipService(records, secrets, reconciler, clock, services.ClipOptions{
		DefaultTTL: cfg.Expiry.DefaultTTL,
		MaxTTL:     cfg.Expiry.MaxTTL,
	}, logger)

	// Create router
	deps := &handlers.Dependencies{
		Config:      cfg,
		Redis:       redisClient,
		Logger:      logger,
		ClipService: clipService,
		Checks:      checks,
	}

	router := handlers.NewRouter(deps)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Sweep on a timer so expired entries go away without traffic.
	go func() {
		ticker := time.NewTicker(cfg.Security.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				clipService.Cleanup(ctx)
			}
		}
	}()

	// Start metrics collector (every 30 seconds)
	go metrics.StartCollector(ctx, clipService, 30*time.Second)

	// Start server in goroutine
	go func() {
		logger.Info("server listening",
			"addr", cfg.ServerAddr(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
