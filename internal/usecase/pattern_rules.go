package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Capture group names shared by every rule pattern
const (
	qtyGroupName   = "qty"
	colorGroupName = "color"
)

// Pattern fragments. Every rule pattern is built as
// \b [quantity] [article] [pair of] [color] [qualifier] noun \b
const (
	quantityFragment = `(?:(?P<qty>\d+)\s*(?:x\s+|pcs?\s+|pieces?\s+)?)?`
	articleFragment  = `(?:(?:an?|one|some)\s+)?`
	pairFragment     = `(?:pairs?\s+of\s+)?`
	colorFragment    = `(?:(?P<color>(?:(?:light|dark|navy|sky|royal|off|jet|olive|rose|baby|hot)[\s-]?)?[a-z]+)\s+)?`
)

// PatternRule recognises one item type in free text
type PatternRule struct {
	Type        string
	Nouns       []string // surface nouns the pattern accepts; the first is canonical
	SearchTerms []string // case-insensitive substrings looked up in product names
	Priority    int      // lower is more specific and runs first
	Qualifiers  []string // words in the color slot that modify the type and are not colors

	pattern    *regexp.Regexp
	qtyIndex   int
	colorIndex int
	qualifiers map[string]bool
}

// compile builds the rule's regular expression from its nouns
func (r *PatternRule) compile() {
	nouns := append([]string(nil), r.Nouns...)
	sort.SliceStable(nouns, func(i, j int) bool { return len(nouns[i]) > len(nouns[j]) })

	alternatives := make([]string, 0, len(nouns))
	for _, noun := range nouns {
		words := strings.Fields(noun)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `[\s-]+`))
	}

	expr := `\b` + quantityFragment + articleFragment + pairFragment + colorFragment +
		qualifierFragment(r.Qualifiers) + `(?:` + strings.Join(alternatives, "|") + `)\b`
	r.pattern = regexp.MustCompile(expr)
	r.qtyIndex = r.pattern.SubexpIndex(qtyGroupName)
	r.colorIndex = r.pattern.SubexpIndex(colorGroupName)

	r.qualifiers = make(map[string]bool, len(r.Qualifiers))
	for _, q := range r.Qualifiers {
		r.qualifiers[q] = true
	}
}

// qualifierFragment matches one optional qualifier between the color and the
// noun, as in "black formal shirt". Empty when the rule has no qualifiers.
func qualifierFragment(qualifiers []string) string {
	if len(qualifiers) == 0 {
		return ""
	}

	words := append([]string(nil), qualifiers...)
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })

	alternatives := make([]string, 0, len(words))
	for _, q := range words {
		parts := strings.Fields(q)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		alternatives = append(alternatives, strings.Join(parts, `[\s-]+`))
	}
	return `(?:(?:` + strings.Join(alternatives, "|") + `)[\s-]+)?`
}

// isQualifier reports whether a raw color-slot token is one of this rule's qualifier words
func (r *PatternRule) isQualifier(token string) bool {
	return r.qualifiers[strings.TrimSpace(token)]
}

// CanonicalNoun is the noun used when rendering a parsed item back to text
func (r *PatternRule) CanonicalNoun() string {
	if len(r.Nouns) == 0 {
		return strings.ReplaceAll(r.Type, "_", " ")
	}
	return r.Nouns[0]
}

// defaultRules is the shared rule set for every basket request.
// Compound rules must carry a lower priority number than the plain rule they contain.
var defaultRules = []PatternRule{
	{
		Type:        "laptop_bag",
		Nouns:       []string{"laptop bag", "laptop bags", "laptop sleeve", "laptop case", "messenger bag"},
		SearchTerms: []string{"laptop bag", "laptop sleeve", "laptop case", "messenger bag"},
		Priority:    10,
	},
	{
		Type:        "formal_shoes",
		Nouns:       []string{"formal shoes", "formal shoe", "dress shoes", "derby shoes", "oxfords", "loafers"},
		SearchTerms: []string{"formal shoe", "oxford", "loafer", "derby"},
		Priority:    11,
		Qualifiers:  []string{"leather", "patent"},
	},
	{
		Type:        "sneakers",
		Nouns:       []string{"sneakers", "sneaker", "running shoes", "running shoe", "sports shoes", "sport shoes", "trainers"},
		SearchTerms: []string{"sneaker", "running shoe", "sports shoe", "trainer"},
		Priority:    12,
		Qualifiers:  []string{"canvas", "casual", "high", "low"},
	},
	{
		Type:        "smartwatch",
		Nouns:       []string{"smartwatch", "smartwatches", "smart watch", "smart watches", "fitness band", "fitness tracker"},
		SearchTerms: []string{"smartwatch", "smart watch", "fitness band"},
		Priority:    13,
	},
	{
		Type:        "tshirt",
		Nouns:       []string{"t shirt", "t shirts", "tshirt", "tshirts", "tee shirt", "tees"},
		SearchTerms: []string{"t-shirt", "tshirt", "t shirt"},
		Priority:    14,
		Qualifiers:  []string{"graphic", "printed", "plain", "oversized"},
	},
	{
		Type:        "backpack",
		Nouns:       []string{"backpack", "backpacks", "rucksack", "school bag", "school bags"},
		SearchTerms: []string{"backpack", "rucksack", "school bag"},
		Priority:    15,
		Qualifiers:  []string{"laptop", "travel", "hiking"},
	},
	{
		Type:        "earbuds",
		Nouns:       []string{"earbuds", "earbud", "earphones", "earphone", "airpods", "tws"},
		SearchTerms: []string{"earbud", "earphone", "airpods", "tws"},
		Priority:    16,
		Qualifiers:  []string{"wireless", "bluetooth"},
	},
	{
		Type:        "headphones",
		Nouns:       []string{"headphones", "headphone", "headset", "headsets"},
		SearchTerms: []string{"headphone", "headset"},
		Priority:    17,
		Qualifiers:  []string{"wireless", "bluetooth", "gaming"},
	},
	{
		Type:        "sunglasses",
		Nouns:       []string{"sunglasses", "sunglass", "shades", "aviators"},
		SearchTerms: []string{"sunglass", "shades", "aviator"},
		Priority:    18,
		Qualifiers:  []string{"polarized", "aviator"},
	},
	{
		Type:        "shorts",
		Nouns:       []string{"shorts", "bermuda shorts"},
		SearchTerms: []string{"shorts"},
		Priority:    19,
		Qualifiers:  []string{"denim", "cargo", "gym"},
	},
	{
		Type:        "jacket",
		Nouns:       []string{"jacket", "jackets", "blazer", "blazers", "coat", "coats", "hoodie", "hoodies"},
		SearchTerms: []string{"jacket", "blazer", "coat", "hoodie"},
		Priority:    20,
		Qualifiers:  []string{"denim", "leather", "bomber", "puffer", "rain"},
	},
	{
		Type:        "shirt",
		Nouns:       []string{"shirt", "shirts", "polo", "polos"},
		SearchTerms: []string{"shirt", "polo"},
		Priority:    30,
		Qualifiers:  []string{"formal", "casual", "dress", "linen", "denim", "flannel", "smart"},
	},
	{
		Type:        "pant",
		Nouns:       []string{"pant", "pants", "jeans", "jean", "trousers", "trouser", "chinos", "chino", "joggers", "khakis"},
		SearchTerms: []string{"pant", "jean", "trouser", "chino", "jogger"},
		Priority:    31,
		Qualifiers:  []string{"formal", "cargo", "denim", "track", "skinny"},
	},
	{
		Type:        "belt",
		Nouns:       []string{"belt", "belts"},
		SearchTerms: []string{"belt"},
		Priority:    32,
		Qualifiers:  []string{"leather", "formal", "casual"},
	},
	{
		Type:        "watch",
		Nouns:       []string{"watch", "watches", "wristwatch", "wristwatches"},
		SearchTerms: []string{"watch"},
		Priority:    40,
		Qualifiers:  []string{"smart", "analog", "digital", "sports"},
	},
	{
		Type:        "wallet",
		Nouns:       []string{"wallet", "wallets", "card holder", "billfold"},
		SearchTerms: []string{"wallet", "card holder"},
		Priority:    41,
		Qualifiers:  []string{"leather", "slim"},
	},
	{
		Type:        "speaker",
		Nouns:       []string{"speaker", "speakers", "soundbar"},
		SearchTerms: []string{"speaker", "soundbar"},
		Priority:    42,
		Qualifiers:  []string{"bluetooth", "portable", "wireless", "smart"},
	},
	{
		Type:        "cap",
		Nouns:       []string{"cap", "caps", "hat", "hats", "beanie"},
		SearchTerms: []string{"cap", "hat", "beanie"},
		Priority:    43,
		Qualifiers:  []string{"baseball", "sun"},
	},
	{
		Type:        "bag",
		Nouns:       []string{"bag", "bags", "handbag", "handbags", "tote", "totes"},
		SearchTerms: []string{"bag", "tote"},
		Priority:    50,
		Qualifiers:  []string{"laptop", "school", "travel", "sling", "gym", "duffel", "messenger"},
	},
	{
		Type:        "shoes",
		Nouns:       []string{"shoes", "shoe", "footwear"},
		SearchTerms: []string{"shoe"},
		Priority:    60,
		Qualifiers:  []string{"formal", "running", "sports", "sport", "casual", "canvas", "dress", "derby"},
	},
}

// compileRules copies, compiles and orders rules by ascending priority.
// Duplicate priorities are rejected so evaluation order is total.
func compileRules(rules []PatternRule) ([]*PatternRule, error) {
	compiled := make([]*PatternRule, 0, len(rules))
	priorities := make(map[int]string, len(rules))

	for i := range rules {
		r := rules[i]
		if r.Type == "" || len(r.Nouns) == 0 {
			return nil, fmt.Errorf("rule %d: type and nouns are required", i)
		}
		if other, ok := priorities[r.Priority]; ok {
			return nil, fmt.Errorf("rules %q and %q share priority %d", other, r.Type, r.Priority)
		}
		priorities[r.Priority] = r.Type
		r.compile()
		compiled = append(compiled, &r)
	}

	sort.Slice(compiled, func(i, j int) bool { return compiled[i].Priority < compiled[j].Priority })
	return compiled, nil
}

// searchTermsByType indexes the default rules' search terms by item type
var searchTermsByType = func() map[string][]string {
	m := make(map[string][]string, len(defaultRules))
	for _, r := range defaultRules {
		m[r.Type] = r.SearchTerms
	}
	return m
}()

// searchTermsFor returns the catalog search terms of an item type
func searchTermsFor(itemType string) []string {
	return searchTermsByType[itemType]
}
