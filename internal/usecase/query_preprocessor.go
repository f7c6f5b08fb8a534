package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
)

// Compiled regex patterns for query preprocessing
var (
	// Splits a basket sentence into phrases: "1 shirt, 2 belts and a cap"
	phraseSeparatorPattern = regexp.MustCompile(`\s*(?:[,;\n\r]+|\band\b|\bplus\b|&|\+)\s*`)

	// Matches a leading quantity like "2", "2x", "3 pcs"
	leadingQuantityPattern = regexp.MustCompile(`^\s*(\d+)\s*(?:x\b|pcs?\b|pieces?\b)?\s*`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are filler words that never name a product
var queryNoiseWords = map[string]bool{
	// Articles and fillers
	"a": true, "an": true, "the": true, "some": true, "one": true,
	"of": true, "for": true, "with": true, "me": true, "my": true,

	// Request phrasing
	"i": true, "want": true, "need": true, "looking": true, "buy": true,
	"get": true, "please": true, "also": true, "would": true, "like": true,

	// Packaging and counting
	"pair": true, "pairs": true, "pcs": true, "piece": true, "pieces": true,
	"set": true, "unit": true, "units": true,

	// Vague marketing terms
	"new": true, "nice": true, "good": true, "best": true, "cheap": true,
	"premium": true, "quality": true, "stylish": true,
}

// phraseQuery is a preprocessed single-best request
type phraseQuery struct {
	request domain.PhraseRequest
	core    string   // phrase without quantity, noise and color words
	terms   []string // substrings looked up in product names
}

// QueryPreprocessor splits and cleans free-text phrases for the single-best matcher
type QueryPreprocessor struct {
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger zerolog.Logger, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
		logger:             logger.With().Str("component", "preprocessor").Logger(),
	}
}

// SplitPhrases splits a basket sentence into trimmed, non-empty phrases
func (p *QueryPreprocessor) SplitPhrases(text string) []string {
	parts := phraseSeparatorPattern.Split(text, -1)

	phrases := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(multiSpacePattern.ReplaceAllString(part, " "))
		if part != "" {
			phrases = append(phrases, part)
		}
	}
	return phrases
}

// PreprocessPhrase extracts quantity, item type and color from one phrase
func (p *QueryPreprocessor) PreprocessPhrase(phrase string) phraseQuery {
	original := strings.TrimSpace(phrase)
	q := phraseQuery{
		request: domain.PhraseRequest{Phrase: original, Quantity: 1},
	}

	// Step 1: Lift a leading quantity off the phrase
	rest := original
	if m := leadingQuantityPattern.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			q.request.Quantity = n
		}
		rest = rest[len(m[0]):]
	}

	// Step 2: Normalize and drop filler words
	cleaned := p.removeNoiseWords(normalizePhrase(rest))

	// Step 3: Resolve type and color through the lexicons
	if itemType, ok := CanonicalType(cleaned); ok {
		q.request.Type = itemType
	}
	if color, ok := CanonicalColor(cleaned); ok {
		q.request.Color = color
		cleaned = stripSurfaces(cleaned, colorLexicon.synonyms(color))
	}
	q.core = cleaned

	// Step 4: Known types search by their rule terms, unknown ones by the bare phrase
	if terms := searchTermsFor(q.request.Type); len(terms) > 0 {
		q.terms = terms
	} else if q.core != "" {
		q.terms = []string{q.core}
	}

	if p.enableDebugLogging {
		p.logger.Debug().
			Str("input", original).
			Str("type", q.request.Type).
			Str("color", q.request.Color).
			Int("quantity", q.request.Quantity).
			Str("core", q.core).
			Msg("phrase preprocessed")
	}

	return q
}

// removeNoiseWords removes filler words from a normalized phrase
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	var kept []string
	for _, word := range strings.Fields(s) {
		if !queryNoiseWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// stripSurfaces removes whole-word occurrences of any surface from a normalized phrase
func stripSurfaces(s string, surfaces []string) string {
	padded := " " + s + " "
	for _, surface := range surfaces {
		needle := " " + surface + " "
		for strings.Contains(padded, needle) {
			padded = strings.ReplaceAll(padded, needle, " ")
		}
	}
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(padded, " "))
}
