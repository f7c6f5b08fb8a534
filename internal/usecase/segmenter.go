package usecase

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/virtualbasket/backend/internal/domain"
)

// AttemptOutcome tags what the segmenter did with one regexp match
type AttemptOutcome int

const (
	// AttemptAccepted means the span was claimed by the rule
	AttemptAccepted AttemptOutcome = iota
	// AttemptRejectedOverlap means an earlier, more specific rule already claimed part of the span
	AttemptRejectedOverlap
)

// String implements fmt.Stringer
func (o AttemptOutcome) String() string {
	if o == AttemptAccepted {
		return "accepted"
	}
	return "rejected_overlap"
}

// MatchAttempt records one rule match found while scanning the text
type MatchAttempt struct {
	Rule    string
	Span    domain.Span
	Text    string
	Outcome AttemptOutcome
	Item    domain.ParsedItem // zero unless Outcome is AttemptAccepted
}

// Segmenter turns free text into parsed basket items using an ordered rule list.
// It holds no mutable state and is safe for concurrent use.
type Segmenter struct {
	rules              []*PatternRule
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewSegmenter creates a segmenter over the default rule set
func NewSegmenter(logger zerolog.Logger, enableDebugLogging bool) *Segmenter {
	s, err := NewSegmenterWithRules(defaultRules, logger, enableDebugLogging)
	if err != nil {
		// The default table is static; a failure here is a programming error.
		panic(err)
	}
	return s
}

// NewSegmenterWithRules creates a segmenter over a custom rule set
func NewSegmenterWithRules(rules []PatternRule, logger zerolog.Logger, enableDebugLogging bool) (*Segmenter, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Segmenter{
		rules:              compiled,
		enableDebugLogging: enableDebugLogging,
		logger:             logger.With().Str("component", "segmenter").Logger(),
	}, nil
}

// Rules returns the compiled rules in evaluation order
func (s *Segmenter) Rules() []*PatternRule {
	return append([]*PatternRule(nil), s.rules...)
}

// Segment extracts requested items from text. Unintelligible or empty input
// yields an empty slice, never an error.
func (s *Segmenter) Segment(text string) []domain.ParsedItem {
	attempts := s.Attempts(text)

	var accepted []domain.ParsedItem
	for _, a := range attempts {
		if a.Outcome == AttemptAccepted {
			accepted = append(accepted, a.Item)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Span.Start < accepted[j].Span.Start
	})

	return dedupeItems(accepted)
}

// Attempts runs every rule over text and reports each match, accepted or not
func (s *Segmenter) Attempts(text string) []MatchAttempt {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := cases.Lower(language.Und).String(text)

	var (
		attempts []MatchAttempt
		claimed  []domain.Span
	)

	for _, rule := range s.rules {
		for _, loc := range rule.pattern.FindAllStringSubmatchIndex(normalized, -1) {
			span := domain.Span{Start: loc[0], End: loc[1]}
			attempt := MatchAttempt{
				Rule: rule.Type,
				Span: span,
				Text: normalized[span.Start:span.End],
			}

			if overlapsAny(span, claimed) {
				attempt.Outcome = AttemptRejectedOverlap
				attempts = append(attempts, attempt)
				if s.enableDebugLogging {
					s.logger.Debug().Str("rule", rule.Type).Str("text", attempt.Text).Msg("match rejected by overlap")
				}
				continue
			}

			claimed = append(claimed, span)
			attempt.Outcome = AttemptAccepted
			attempt.Item = buildItem(rule, normalized, loc, span)
			attempts = append(attempts, attempt)

			if s.enableDebugLogging {
				s.logger.Debug().
					Str("rule", rule.Type).
					Str("text", attempt.Text).
					Int("quantity", attempt.Item.Quantity).
					Str("color", attempt.Item.Color).
					Msg("match accepted")
			}
		}
	}

	return attempts
}

// buildItem extracts quantity and color from an accepted match
func buildItem(rule *PatternRule, text string, loc []int, span domain.Span) domain.ParsedItem {
	item := domain.ParsedItem{
		Type:        rule.Type,
		Quantity:    parseQuantity(submatch(text, loc, rule.qtyIndex)),
		SearchTerms: rule.SearchTerms,
		Noun:        rule.CanonicalNoun(),
		Span:        span,
	}

	rawColor := submatch(text, loc, rule.colorIndex)
	if rawColor != "" && !rule.isQualifier(rawColor) {
		if color, ok := CanonicalColor(rawColor); ok {
			item.Color = color
		}
	}

	return item
}

// submatch returns capture group idx of a FindStringSubmatchIndex result,
// or "" when the group is missing or did not participate in the match
func submatch(text string, loc []int, idx int) string {
	if idx <= 0 || 2*idx+1 >= len(loc) {
		return ""
	}
	start, end := loc[2*idx], loc[2*idx+1]
	if start < 0 || end < start || end > len(text) {
		return ""
	}
	return text[start:end]
}

// parseQuantity parses the quantity group, defaulting to 1
func parseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// overlapsAny reports whether span intersects any claimed span
func overlapsAny(span domain.Span, claimed []domain.Span) bool {
	for _, c := range claimed {
		if span.Overlaps(c) {
			return true
		}
	}
	return false
}

// dedupeItems keeps the first item for each (type, color) pair
func dedupeItems(items []domain.ParsedItem) []domain.ParsedItem {
	type key struct{ itemType, color string }

	seen := make(map[key]bool, len(items))
	out := make([]domain.ParsedItem, 0, len(items))
	for _, item := range items {
		k := key{item.Type, item.Color}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}
