package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// itemTypeSynonyms maps each canonical item type to the surface phrases that name it
var itemTypeSynonyms = map[string][]string{
	"shirt":        {"shirt", "shirts", "formal shirt", "casual shirt", "dress shirt", "polo", "polos"},
	"tshirt":       {"t shirt", "t shirts", "tshirt", "tshirts", "tee shirt", "tees"},
	"pant":         {"pant", "pants", "jeans", "jean", "trouser", "trousers", "chino", "chinos", "joggers", "khakis"},
	"shorts":       {"shorts", "bermuda shorts"},
	"jacket":       {"jacket", "jackets", "blazer", "blazers", "coat", "coats", "hoodie", "hoodies"},
	"belt":         {"belt", "belts"},
	"bag":          {"bag", "bags", "handbag", "handbags", "tote", "totes", "sling bag", "duffel bag"},
	"laptop_bag":   {"laptop bag", "laptop bags", "laptop sleeve", "laptop case", "messenger bag"},
	"backpack":     {"backpack", "backpacks", "rucksack", "school bag", "school bags"},
	"watch":        {"watch", "watches", "wristwatch", "wristwatches", "analog watch"},
	"smartwatch":   {"smartwatch", "smartwatches", "smart watch", "smart watches", "fitness band", "fitness tracker"},
	"sunglasses":   {"sunglasses", "sunglass", "shades", "aviators"},
	"wallet":       {"wallet", "wallets", "card holder", "billfold"},
	"earbuds":      {"earbuds", "earbud", "earphones", "earphone", "airpods", "tws"},
	"headphones":   {"headphones", "headphone", "headset", "headsets"},
	"speaker":      {"speaker", "speakers", "bluetooth speaker", "soundbar"},
	"sneakers":     {"sneakers", "sneaker", "running shoes", "running shoe", "sports shoes", "sport shoes", "trainers"},
	"formal_shoes": {"formal shoes", "formal shoe", "dress shoes", "oxfords", "loafers", "derby shoes"},
	"shoes":        {"shoes", "shoe", "footwear"},
	"cap":          {"cap", "caps", "hat", "hats", "beanie"},
}

// colorSynonyms maps each canonical color to the surface phrases that name it
var colorSynonyms = map[string][]string{
	"black":  {"black", "jet black", "onyx"},
	"white":  {"white", "off white", "ivory", "snow white"},
	"blue":   {"blue", "light blue", "sky blue", "royal blue", "dark blue", "navy", "navy blue", "denim", "indigo", "teal"},
	"brown":  {"brown", "tan", "camel", "chocolate", "coffee", "dark brown"},
	"grey":   {"grey", "gray", "charcoal", "ash", "light grey", "dark grey", "slate"},
	"silver": {"silver", "metallic", "chrome"},
	"gold":   {"gold", "golden", "rose gold"},
	"red":    {"red", "maroon", "burgundy", "wine", "crimson"},
	"green":  {"green", "olive", "olive green", "mint", "dark green"},
	"beige":  {"beige", "khaki", "cream", "sand"},
	"pink":   {"pink", "hot pink", "baby pink", "rose"},
	"yellow": {"yellow", "mustard"},
	"orange": {"orange", "rust"},
	"purple": {"purple", "violet", "lavender"},
}

var (
	typeLexicon  = newLexicon("item type", itemTypeSynonyms)
	colorLexicon = newLexicon("color", colorSynonyms)
)

// lexiconEntry is one surface phrase and the key it resolves to
type lexiconEntry struct {
	surface string // normalized, single spaces
	compact string // surface without spaces
	key     string
}

// lexicon is an immutable surface -> canonical key table.
// Entries are ordered longest first so multi-word synonyms win over single tokens.
type lexicon struct {
	entries []lexiconEntry
	keys    []string
}

// newLexicon builds a lexicon and panics when one surface, spaced or
// collapsed, maps to two keys. Spelling variants that collapse to the same
// form ("smart watch", "smartwatch") are all kept so both stay matchable on
// word boundaries.
func newLexicon(name string, table map[string][]string) *lexicon {
	keyByCompact := make(map[string]string)
	seenSurface := make(map[string]bool)
	l := &lexicon{}

	for key, surfaces := range table {
		l.keys = append(l.keys, key)
		for _, s := range surfaces {
			surface := normalizePhrase(s)
			compact := strings.ReplaceAll(surface, " ", "")
			if prev, ok := keyByCompact[compact]; ok && prev != key {
				panic(fmt.Sprintf("%s lexicon: %q maps to both %q and %q", name, s, prev, key))
			}
			keyByCompact[compact] = key
			if seenSurface[surface] {
				continue
			}
			seenSurface[surface] = true
			l.entries = append(l.entries, lexiconEntry{surface: surface, compact: compact, key: key})
		}
	}

	sort.Strings(l.keys)
	sort.Slice(l.entries, func(i, j int) bool {
		a, b := l.entries[i], l.entries[j]
		if len(a.compact) != len(b.compact) {
			return len(a.compact) > len(b.compact)
		}
		if a.compact != b.compact {
			return a.compact < b.compact
		}
		return a.surface < b.surface
	})

	return l
}

// lookup returns the key of the longest surface phrase found in the phrase.
// A surface matches either on word boundaries ("light blue") or as a single
// space-collapsed token ("lightblue").
func (l *lexicon) lookup(phrase string) (string, bool) {
	norm := normalizePhrase(phrase)
	if norm == "" {
		return "", false
	}

	padded := " " + norm + " "
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(norm) {
		tokens[tok] = true
	}
	tokens[strings.ReplaceAll(norm, " ", "")] = true

	for _, e := range l.entries {
		if strings.Contains(padded, " "+e.surface+" ") || tokens[e.compact] {
			return e.key, true
		}
	}
	return "", false
}

// synonyms returns every normalized surface that resolves to key
func (l *lexicon) synonyms(key string) []string {
	var out []string
	for _, e := range l.entries {
		if e.key == key {
			out = append(out, e.surface)
		}
	}
	return out
}

// CanonicalType resolves a phrase such as "Slim Fit Jeans" to its item type key ("pant")
func CanonicalType(phrase string) (string, bool) {
	return typeLexicon.lookup(phrase)
}

// CanonicalColor resolves a phrase such as "Light Blue" or "lightblue" to its color key ("blue")
func CanonicalColor(phrase string) (string, bool) {
	return colorLexicon.lookup(phrase)
}

// ItemTypes lists every recognised item type key, sorted
func ItemTypes() []string {
	return append([]string(nil), typeLexicon.keys...)
}

// Colors lists every recognised color key, sorted
func Colors() []string {
	return append([]string(nil), colorLexicon.keys...)
}

// normalizePhrase case-folds, strips punctuation and collapses whitespace
func normalizePhrase(s string) string {
	folded := cases.Fold().String(s)
	cleaned := punctuationRegex.ReplaceAllString(folded, " ")
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
