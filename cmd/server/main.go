package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/config"
	httpDelivery "github.com/virtualbasket/backend/internal/delivery/http"
	"github.com/virtualbasket/backend/internal/domain"
	"github.com/virtualbasket/backend/internal/infrastructure/cache"
	"github.com/virtualbasket/backend/internal/infrastructure/catalog"
	"github.com/virtualbasket/backend/internal/infrastructure/logging"
	"github.com/virtualbasket/backend/internal/usecase"
)

// snapshotCache is a cache backend the server has to close on shutdown
type snapshotCache interface {
	domain.CacheRepository
	io.Closer
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server terminated")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog_driver", cfg.Database.Driver).
		Str("cache_type", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting Virtual Basket backend v1.0.0")

	startupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Initialize infrastructure dependencies
	store, err := catalog.Open(startupCtx, catalog.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		CatalogFile:  cfg.Database.CatalogFile,
		CatalogURL:   cfg.Database.CatalogURL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		QueryTimeout: cfg.Database.QueryTimeout,
		RateLimit:    cfg.Database.CatalogRateLimit,
		Burst:        cfg.Database.CatalogBurst,
	}, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	snapshots, err := newSnapshotCache(startupCtx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer snapshots.Close()

	// Initialize usecase layer
	basketService := usecase.NewBasketService(store, snapshots, usecase.BasketServiceConfig{
		SnapshotTTL:        cfg.Cache.TTL,
		CandidateLimit:     cfg.Matching.CandidateLimit,
		MinScore:           cfg.Matching.MinScore,
		FallbackScore:      cfg.Matching.FallbackScore,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger)

	logger.Info().
		Int("candidate_limit", cfg.Matching.CandidateLimit).
		Int("min_score", cfg.Matching.MinScore).
		Int("fallback_score", cfg.Matching.FallbackScore).
		Bool("debug", cfg.Matching.EnableDebugLogging).
		Msg("matching configured")

	handler := httpDelivery.NewHandler(basketService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// newSnapshotCache builds the cache backend named by cfg.Type
func newSnapshotCache(ctx context.Context, cfg config.CacheConfig) (snapshotCache, error) {
	switch cfg.Type {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL})
	default:
		return cache.NewMemoryCacheWithCleanup(time.Minute), nil
	}
}
