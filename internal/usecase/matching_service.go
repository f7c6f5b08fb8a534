package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
)

// Single-best scoring weights
const (
	weightTypeMatch      = 3 // inferred product type equals the requested type
	weightTermInName     = 2 // otherwise, a search term appears in the product name
	weightExactColor     = 2 // product color resolves to the requested color
	weightFuzzyColorName = 1 // requested color named (or nearly named) in the product name
	weightInStock        = 1 // at least one unit available
)

// Matching defaults
const (
	defaultCandidateLimit = 8
	defaultMinScore       = 3
	defaultFallbackScore  = 1
	fuzzyEditDistance     = 1
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	CandidateLimit     int
	MinScore           int
	FallbackScore      int
	EnableDebugLogging bool
}

// MatchingService resolves parsed basket items against a catalog snapshot.
// It has two deliberately separate modes: MatchCandidates lets a product serve
// several items and bundles, MatchBestPerPhrase consumes each product once.
type MatchingService struct {
	candidateLimit     int
	minScore           int
	fallbackScore      int
	enableDebugLogging bool
	preprocessor       *QueryPreprocessor
	logger             zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger zerolog.Logger) *MatchingService {
	limit := config.CandidateLimit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	minScore := config.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}

	fallback := config.FallbackScore
	if fallback <= 0 || fallback > minScore {
		fallback = defaultFallbackScore
	}

	return &MatchingService{
		candidateLimit:     limit,
		minScore:           minScore,
		fallbackScore:      fallback,
		enableDebugLogging: config.EnableDebugLogging,
		preprocessor:       NewQueryPreprocessor(logger, config.EnableDebugLogging),
		logger:             logger.With().Str("component", "matcher").Logger(),
	}
}

// Preprocessor exposes the phrase preprocessor used by the single-best mode
func (s *MatchingService) Preprocessor() *QueryPreprocessor {
	return s.preprocessor
}

// MatchCandidates builds the ranked candidate list for every parsed item.
// Items without a single in-stock candidate are left out of the result.
func (s *MatchingService) MatchCandidates(
	ctx context.Context,
	items []domain.ParsedItem,
	catalog []domain.Product,
) ([]domain.Suggestion, error) {
	suggestions := make([]domain.Suggestion, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := s.candidatesFor(item, catalog)

		if s.enableDebugLogging {
			s.logger.Debug().
				Str("type", item.Type).
				Str("color", item.Color).
				Int("candidates", len(candidates)).
				Msg("candidates resolved")
		}

		if len(candidates) == 0 {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{Item: item, Products: candidates})
	}

	return suggestions, nil
}

// candidatesFor filters the catalog for one item, cheapest first, capped
func (s *MatchingService) candidatesFor(item domain.ParsedItem, catalog []domain.Product) []domain.Product {
	terms := item.SearchTerms
	if len(terms) == 0 {
		terms = searchTermsFor(item.Type)
	}

	var matched []domain.Product
	for _, p := range catalog {
		if !p.InStock() {
			continue
		}
		if !nameContainsAny(p.Name, terms) {
			continue
		}
		if item.Color != "" && normalizeProductColor(p.Color) != item.Color {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Price != matched[j].Price {
			return matched[i].Price < matched[j].Price
		}
		return matched[i].ID < matched[j].ID
	})

	if len(matched) > s.candidateLimit {
		matched = matched[:s.candidateLimit]
	}
	return matched
}

// MatchBestPerPhrase picks the single best product for each phrase. A product
// accepted for one phrase is not offered to later phrases. Phrases with no
// acceptable product are reported with a nil Product, never dropped.
func (s *MatchingService) MatchBestPerPhrase(
	ctx context.Context,
	phrases []string,
	catalog []domain.Product,
) ([]domain.PhraseMatch, error) {
	used := make(map[int]bool)
	results := make([]domain.PhraseMatch, 0, len(phrases))

	for _, phrase := range phrases {
		query := s.preprocessor.PreprocessPhrase(phrase)

		bestIdx := -1
		highestScore := -1

		for i, p := range catalog {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			if used[i] {
				continue
			}

			score := s.calculateMatchScore(query, p)

			if s.enableDebugLogging {
				s.logger.Debug().
					Str("phrase", query.request.Phrase).
					Str("product", p.Name).
					Int("score", score).
					Msg("scored product")
			}

			if score > highestScore {
				highestScore = score
				bestIdx = i
			}
		}

		match := domain.PhraseMatch{Request: query.request}

		switch {
		case bestIdx >= 0 && highestScore >= s.minScore:
			match.Product, match.Score = productPtr(catalog[bestIdx]), highestScore
		case bestIdx >= 0 && highestScore >= s.fallbackScore:
			match.Product, match.Score = productPtr(catalog[bestIdx]), highestScore
			match.LowConfidence = true
		default:
			if highestScore > 0 {
				match.Score = highestScore
			}
		}

		if match.Product != nil {
			used[bestIdx] = true
		}

		if s.enableDebugLogging {
			event := s.logger.Debug().Str("phrase", query.request.Phrase).Int("score", match.Score)
			if match.Product != nil {
				event = event.Int64("product_id", match.Product.ID).Bool("low_confidence", match.LowConfidence)
			}
			event.Msg("best match")
		}

		results = append(results, match)
	}

	return results, nil
}

// calculateMatchScore scores one product against a preprocessed phrase:
//   - +3 when the product name resolves to the requested type
//   - +2 otherwise, when any search term appears in the product name
//   - +2 when the product color resolves to the requested color
//   - +1 when the requested color is (nearly) named in the product name
//   - +1 when the product is in stock
func (s *MatchingService) calculateMatchScore(query phraseQuery, p domain.Product) int {
	score := 0

	if query.request.Type != "" {
		if inferred, ok := CanonicalType(p.Name); ok && inferred == query.request.Type {
			score += weightTypeMatch
		} else if nameContainsAny(p.Name, query.terms) {
			score += weightTermInName
		}
	} else if nameContainsAny(p.Name, query.terms) {
		score += weightTermInName
	}

	if query.request.Color != "" {
		if normalizeProductColor(p.Color) == query.request.Color {
			score += weightExactColor
		}
		if fuzzyColorInName(query.request.Color, p.Name) {
			score += weightFuzzyColorName
		}
	}

	if p.InStock() {
		score += weightInStock
	}

	return score
}

// normalizeProductColor lowercases a catalog color, strips spaces and resolves
// it through the color lexicon, keeping the stripped form when unknown
func normalizeProductColor(color string) string {
	stripped := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(color), " ", ""))
	if stripped == "" {
		return ""
	}
	if key, ok := CanonicalColor(color); ok {
		return key
	}
	return stripped
}

// nameContainsAny reports whether the product name contains any term, case-insensitively
func nameContainsAny(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// fuzzyColorInName reports whether a synonym of color appears in the name, or a
// name token is within a small edit distance of the color key ("blak" ~ "black")
func fuzzyColorInName(color, name string) bool {
	tokens := tokenize(name)
	padded := " " + strings.Join(tokens, " ") + " "

	for _, surface := range colorLexicon.synonyms(color) {
		if strings.Contains(padded, " "+surface+" ") {
			return true
		}
	}
	for _, tok := range tokens {
		if fuzzyTokenMatch(tok, color, fuzzyEditDistance) {
			return true
		}
	}
	return false
}

// productPtr returns a pointer to a copy so results never alias the snapshot
func productPtr(p domain.Product) *domain.Product {
	return &p
}

// tokenize splits a string into normalized lowercase tokens
func tokenize(s string) []string {
	return strings.Fields(normalizePhrase(s))
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	// Quick length check - if lengths differ by more than threshold, can't match
	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
