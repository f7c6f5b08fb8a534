package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/virtualbasket/backend/internal/domain"
)

// MaxCombos bounds how many bundles one request can return
const MaxCombos = 5

// comboKind describes one bundle strategy
type comboKind struct {
	name     string
	badge    string
	trailer  string
	minCount int                                // some item needs at least this many candidates
	pick     func(itemIndex, candidates int) int // candidate index for one item
}

// comboKinds are evaluated in this fixed order; later kinds lose price ties
var comboKinds = []comboKind{
	{
		name:     "Budget Combo",
		badge:    "Best Value",
		trailer:  "The most affordable way to complete your list.",
		minCount: 1,
		pick:     func(_, _ int) int { return 0 },
	},
	{
		name:     "Alternative Combo",
		badge:    "Alternative",
		trailer:  "A different take on the same list.",
		minCount: 2,
		pick:     func(_, n int) int { return min(1, n-1) },
	},
	{
		name:     "Premium Combo",
		badge:    "Premium",
		trailer:  "Upgraded picks for a more polished look.",
		minCount: 3,
		pick:     func(_, n int) int { return min(2, n-1) },
	},
	{
		name:     "Variety Combo",
		badge:    "Variety",
		trailer:  "A mix of price points across your items.",
		minCount: 4,
		pick:     func(i, n int) int { return i % min(n, 4) },
	},
	{
		name:     "Mid-Range Combo",
		badge:    "Balanced",
		trailer:  "A balance between price and quality.",
		minCount: 2,
		pick: func(_, n int) int {
			switch {
			case n >= 5:
				return 2
			case n >= 2:
				return 1
			default:
				return 0
			}
		},
	},
}

// midRangeName is only built once at least two bundles exist
const midRangeName = "Mid-Range Combo"

// ComboSynthesizer builds ranked bundles from per-item candidate lists.
// It is stateless and safe for concurrent use.
type ComboSynthesizer struct{}

// NewComboSynthesizer creates a combo synthesizer
func NewComboSynthesizer() *ComboSynthesizer {
	return &ComboSynthesizer{}
}

// BuildCombos builds up to MaxCombos bundles sorted by ascending total price.
// Every suggestion must carry at least one candidate; otherwise no bundle can
// be formed and the result is empty.
func (c *ComboSynthesizer) BuildCombos(suggestions []domain.Suggestion) []domain.Combo {
	if len(suggestions) == 0 {
		return []domain.Combo{}
	}
	for _, s := range suggestions {
		if len(s.Products) == 0 {
			return []domain.Combo{}
		}
	}

	combos := make([]domain.Combo, 0, MaxCombos)
	seenTotals := make(map[int64]bool, MaxCombos)

	for _, kind := range comboKinds {
		if len(combos) >= MaxCombos {
			break
		}
		if !anyHasAtLeast(suggestions, kind.minCount) {
			continue
		}
		if kind.name == midRangeName && len(combos) < 2 {
			continue
		}

		combo := buildCombo(kind, suggestions)
		cents := toCents(combo.TotalPrice)
		if seenTotals[cents] {
			continue
		}
		seenTotals[cents] = true
		combos = append(combos, combo)
	}

	sort.SliceStable(combos, func(i, j int) bool {
		return toCents(combos[i].TotalPrice) < toCents(combos[j].TotalPrice)
	})

	return combos
}

// buildCombo picks one product per suggestion according to kind
func buildCombo(kind comboKind, suggestions []domain.Suggestion) domain.Combo {
	items := make([]domain.Product, 0, len(suggestions))
	parts := make([]string, 0, len(suggestions))
	var cents int64

	for i, s := range suggestions {
		idx := kind.pick(i, len(s.Products))
		if idx < 0 || idx >= len(s.Products) {
			idx = 0
		}
		p := s.Products[idx]
		items = append(items, p)
		cents += toCents(p.Price) * int64(max(s.Item.Quantity, 1))
		parts = append(parts, strings.TrimSpace(p.Color+" "+p.Name))
	}

	return domain.Combo{
		Name:        kind.name,
		Items:       items,
		TotalPrice:  float64(cents) / 100,
		Description: strings.Join(parts, ", ") + ". " + kind.trailer,
		Badge:       kind.badge,
	}
}

// anyHasAtLeast reports whether some suggestion has at least n candidates
func anyHasAtLeast(suggestions []domain.Suggestion, n int) bool {
	for _, s := range suggestions {
		if len(s.Products) >= n {
			return true
		}
	}
	return false
}

// toCents converts a price to integer cents so totals compare exactly
func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
