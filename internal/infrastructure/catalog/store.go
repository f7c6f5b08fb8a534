package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
)

// Config selects and configures a catalog backend
type Config struct {
	Driver       string // mysql, postgres, sqlite, file or http
	DSN          string
	CatalogFile  string
	CatalogURL   string
	MaxOpenConns int
	QueryTimeout time.Duration
	RateLimit    float64 // http fetches per second; 0 means unlimited
	Burst        int
}

// Store is a catalog source that holds resources
type Store interface {
	domain.CatalogRepository
	Close() error
}

// Open builds the catalog backend named by cfg.Driver
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case "mysql", "postgres", "sqlite":
		return OpenSQL(ctx, SQLConfig{
			Driver:       cfg.Driver,
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			QueryTimeout: cfg.QueryTimeout,
		}, logger)
	case "file":
		fs, err := NewFileStore(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		return nopCloser{fs}, nil
	case "http":
		return nopCloser{NewHTTPStore(HTTPConfig{
			URL:       cfg.CatalogURL,
			Timeout:   cfg.QueryTimeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		}, logger)}, nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}
}

// nopCloser adapts a catalog without resources to Store
type nopCloser struct {
	domain.CatalogRepository
}

func (nopCloser) Close() error { return nil }
