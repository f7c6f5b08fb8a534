package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes so memory and Redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogRepository supplies the product catalog. FetchSnapshot is called once
// per basket request; the returned slice must not be mutated by the caller.
type CatalogRepository interface {
	FetchSnapshot(ctx context.Context) ([]Product, error)
}
