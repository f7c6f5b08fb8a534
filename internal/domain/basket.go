package domain

import (
	"fmt"
	"strings"
)

// Span is a half-open [Start, End) byte interval of the normalized input text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// ParsedItem is one requested item recognised in free text
type ParsedItem struct {
	Type        string   `json:"type"`
	Quantity    int      `json:"quantity"`
	Color       string   `json:"color,omitempty"` // empty when no color was requested
	SearchTerms []string `json:"-"`
	Noun        string   `json:"-"` // canonical surface noun of the matching rule
	Span        Span     `json:"-"`
}

// Phrase renders the item back into a canonical phrase such as "1 white shirt"
func (p ParsedItem) Phrase() string {
	noun := p.Noun
	if noun == "" {
		noun = strings.ReplaceAll(p.Type, "_", " ")
	}
	if p.Color == "" {
		return fmt.Sprintf("%d %s", p.Quantity, noun)
	}
	return fmt.Sprintf("%d %s %s", p.Quantity, p.Color, noun)
}

// Suggestion is the ranked candidate list for one parsed item, cheapest first
type Suggestion struct {
	Item     ParsedItem `json:"item"`
	Products []Product  `json:"products"`
}

// Combo is one complete bundle: exactly one product per requested item
type Combo struct {
	Name        string    `json:"name"`
	Items       []Product `json:"items"`
	TotalPrice  float64   `json:"total_price"`
	Description string    `json:"description"`
	Badge       string    `json:"badge"`
}

// BasketResult is everything the parse endpoint returns for one request
type BasketResult struct {
	ParsedItems         []ParsedItem `json:"parsed_items"`
	Suggestions         []Suggestion `json:"suggestions"`
	Combos              []Combo      `json:"combos"`
	TotalItemsRequested int          `json:"total_items_requested"`
	TotalItemsFound     int          `json:"total_items_found"`
	Message             string       `json:"message,omitempty"`
}

// PhraseRequest is what the single-best matcher understood from one phrase
type PhraseRequest struct {
	Phrase   string `json:"phrase"`
	Type     string `json:"type,omitempty"`
	Color    string `json:"color,omitempty"`
	Quantity int    `json:"quantity"`
}

// PhraseMatch is the single-best result for one phrase. Product is nil when
// nothing in the catalog scored high enough.
type PhraseMatch struct {
	Request       PhraseRequest `json:"request"`
	Product       *Product      `json:"product"`
	Score         int           `json:"score"`
	LowConfidence bool          `json:"low_confidence"`
}

// Matched reports whether a product was found for the phrase
func (m PhraseMatch) Matched() bool {
	return m.Product != nil
}
