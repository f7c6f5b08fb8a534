package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
)

// Messages returned to the caller alongside a (partial) result
const (
	MessageNotUnderstood = "Sorry, we could not understand your request. Try something like \"1 white shirt, 1 black pant, 1 pair of sneakers\"."
	MessagePartialMatch  = "Could not find matching products for all items. Check individual suggestions below."
)

// catalogSnapshotKey is the cache key of the serialized catalog snapshot
const catalogSnapshotKey = "catalog:snapshot:v1"

// BasketServiceConfig holds configuration for the basket service
type BasketServiceConfig struct {
	SnapshotTTL        time.Duration // 0 disables snapshot caching
	CandidateLimit     int
	MinScore           int
	FallbackScore      int
	EnableDebugLogging bool
}

// BasketService runs the basket pipeline: segment, match, bundle
type BasketService struct {
	catalog         domain.CatalogRepository
	cache           domain.CacheRepository
	segmenter       *Segmenter
	matchingService *MatchingService
	synthesizer     *ComboSynthesizer
	snapshotTTL     time.Duration
	logger          zerolog.Logger
}

// NewBasketService creates a new basket service with dependencies.
// cache may be nil, in which case every request reads the catalog directly.
func NewBasketService(
	catalog domain.CatalogRepository,
	cache domain.CacheRepository,
	config BasketServiceConfig,
	logger zerolog.Logger,
) *BasketService {
	return &BasketService{
		catalog:   catalog,
		cache:     cache,
		segmenter: NewSegmenter(logger, config.EnableDebugLogging),
		matchingService: NewMatchingService(MatchConfig{
			CandidateLimit:     config.CandidateLimit,
			MinScore:           config.MinScore,
			FallbackScore:      config.FallbackScore,
			EnableDebugLogging: config.EnableDebugLogging,
		}, logger),
		synthesizer: NewComboSynthesizer(),
		snapshotTTL: config.SnapshotTTL,
		logger:      logger.With().Str("component", "basket").Logger(),
	}
}

// ParseBasket parses free text and builds suggestions and combos for it.
// Flow: segment -> fetch catalog snapshot -> match candidates -> build combos
func (s *BasketService) ParseBasket(ctx context.Context, text string) (*domain.BasketResult, error) {
	items := s.segmenter.Segment(text)

	result := &domain.BasketResult{
		ParsedItems:         items,
		Suggestions:         []domain.Suggestion{},
		Combos:              []domain.Combo{},
		TotalItemsRequested: len(items),
	}

	if len(items) == 0 {
		result.Message = MessageNotUnderstood
		return result, nil
	}

	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.matchingService.MatchCandidates(ctx, items, catalog)
	if err != nil {
		return nil, err
	}
	result.Suggestions = suggestions
	result.TotalItemsFound = len(suggestions)

	// Bundles need a candidate for every requested item
	if len(suggestions) == len(items) {
		result.Combos = s.synthesizer.BuildCombos(suggestions)
	} else {
		result.Message = MessagePartialMatch
	}

	s.logger.Info().
		Int("requested", result.TotalItemsRequested).
		Int("found", result.TotalItemsFound).
		Int("combos", len(result.Combos)).
		Msg("basket parsed")

	return result, nil
}

// MatchPhrases resolves each phrase to its single best product
func (s *BasketService) MatchPhrases(ctx context.Context, phrases []string) ([]domain.PhraseMatch, error) {
	if len(phrases) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.matchingService.MatchBestPerPhrase(ctx, phrases, catalog)
}

// SplitPhrases splits a basket sentence into phrases for MatchPhrases
func (s *BasketService) SplitPhrases(text string) []string {
	return s.matchingService.Preprocessor().SplitPhrases(text)
}

// snapshot returns the catalog for one request, from cache when fresh
func (s *BasketService) snapshot(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.getFromCache(ctx); ok {
		return cached, nil
	}

	products, err := s.catalog.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if err := s.setInCache(ctx, products); err != nil {
		// Caching is an optimisation; the request still succeeds
		s.logger.Warn().Err(err).Msg("failed to cache catalog snapshot")
	}

	return products, nil
}

// getFromCache retrieves the catalog snapshot from cache
func (s *BasketService) getFromCache(ctx context.Context) ([]domain.Product, bool) {
	if s.cache == nil || s.snapshotTTL <= 0 {
		return nil, false
	}

	data, err := s.cache.Get(ctx, catalogSnapshotKey)
	if err != nil {
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable catalog snapshot")
		return nil, false
	}
	return products, true
}

// setInCache stores the catalog snapshot in cache
func (s *BasketService) setInCache(ctx context.Context, products []domain.Product) error {
	if s.cache == nil || s.snapshotTTL <= 0 {
		return nil
	}

	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, catalogSnapshotKey, data, s.snapshotTTL)
}
