package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/virtualbasket/backend/internal/domain"
)

// maxCatalogBytes bounds how much of a remote catalog response is read
const maxCatalogBytes = 32 << 20

// HTTPConfig holds remote catalog configuration
type HTTPConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // fetches per second; 0 means unlimited
	Burst     int
}

// HTTPStore fetches catalog snapshots from a remote product service that
// serves the catalog as JSON (a product list or {"products": [...]})
type HTTPStore struct {
	httpClient  *http.Client
	url         string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// NewHTTPStore creates a new remote catalog client
func NewHTTPStore(cfg HTTPConfig, logger zerolog.Logger) *HTTPStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPStore{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:         cfg.URL,
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      logger.With().Str("component", "catalog_http").Logger(),
	}
}

// FetchSnapshot implements domain.CatalogRepository. A failed fetch is
// reported once; retrying is left to the caller.
func (s *HTTPStore) FetchSnapshot(ctx context.Context) ([]domain.Product, error) {
	// Wait for rate limiter
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "VirtualBasket/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Str("url", s.url).Msg("catalog service error")
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	s.logger.Debug().Int("products", len(products)).Msg("remote catalog loaded")
	return products, nil
}

// decodeProducts accepts a bare JSON array or an object with a products field
func decodeProducts(body []byte) ([]domain.Product, error) {
	var list []domain.Product
	if err := json.Unmarshal(body, &list); err == nil {
		return normalizeProducts(list), nil
	}

	var doc struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return normalizeProducts(doc.Products), nil
}
