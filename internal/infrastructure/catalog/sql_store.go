package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	// Registered database/sql drivers: "mysql", "pgx" and "sqlite"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/virtualbasket/backend/internal/domain"
)

// productQuery reads the whole catalog in one round trip. It avoids bind
// parameters so the same text runs on MySQL, PostgreSQL and SQLite.
const productQuery = `
SELECT p.product_id, p.product_name, p.description, p.price, p.stock,
       p.color, c.category_name, p.image_url
FROM products p
LEFT JOIN categories c ON c.category_id = p.category_id
ORDER BY p.product_id`

const defaultQueryTimeout = 5 * time.Second

// sqlDriverNames maps configured driver names to registered database/sql drivers
var sqlDriverNames = map[string]string{
	"mysql":    "mysql",
	"postgres": "pgx",
	"sqlite":   "sqlite",
}

// SQLConfig holds relational catalog configuration
type SQLConfig struct {
	Driver       string // mysql, postgres or sqlite
	DSN          string
	MaxOpenConns int
	QueryTimeout time.Duration
}

// SQLStore reads catalog snapshots from a relational database
type SQLStore struct {
	db           *sql.DB
	queryTimeout time.Duration
	logger       zerolog.Logger
}

// OpenSQL opens a database handle for the configured driver and pings it
func OpenSQL(ctx context.Context, cfg SQLConfig, logger zerolog.Logger) (*SQLStore, error) {
	driver, ok := sqlDriverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	store := NewSQLStore(db, cfg.QueryTimeout, logger)

	pingCtx, cancel := context.WithTimeout(ctx, store.queryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrCatalogUnavailable, cfg.Driver, err)
	}

	return store, nil
}

// NewSQLStore wraps an existing database handle
func NewSQLStore(db *sql.DB, queryTimeout time.Duration, logger zerolog.Logger) *SQLStore {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &SQLStore{
		db:           db,
		queryTimeout: queryTimeout,
		logger:       logger.With().Str("component", "catalog_sql").Logger(),
	}
}

// FetchSnapshot implements domain.CatalogRepository
func (s *SQLStore) FetchSnapshot(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, productQuery)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var r productRow
		if err := rows.Scan(r.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, mapToProduct(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	s.logger.Debug().Int("products", len(products)).Msg("catalog snapshot loaded")
	return normalizeProducts(products), nil
}

// Close releases the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}
