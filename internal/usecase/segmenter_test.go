package usecase

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
)

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	return NewSegmenter(zerolog.Nop(), false)
}

func TestSegment(t *testing.T) {
	s := newTestSegmenter(t)

	type want struct {
		itemType string
		color    string
		quantity int
	}

	testCases := []struct {
		name  string
		input string
		want  []want
	}{
		{
			name:  "full basket in text order",
			input: "1 white shirt, 1 black pant, 1 pair of sneakers, 1 backpack",
			want: []want{
				{"shirt", "white", 1},
				{"pant", "black", 1},
				{"sneakers", "", 1},
				{"backpack", "", 1},
			},
		},
		{
			name:  "compound type wins over plain type",
			input: "1 laptop bag",
			want:  []want{{"laptop_bag", "", 1}},
		},
		{
			name:  "pair of defaults quantity to one",
			input: "a pair of shoes",
			want:  []want{{"shoes", "", 1}},
		},
		{
			name:  "qualifier between color and noun",
			input: "2 black formal shirts",
			want:  []want{{"shirt", "black", 2}},
		},
		{
			name:  "qualifiers keep quantity and color across rules",
			input: "1 black laptop backpack, 2 brown leather belts and 2 blue denim jeans",
			want: []want{
				{"backpack", "black", 1},
				{"belt", "brown", 2},
				{"pant", "blue", 2},
			},
		},
		{
			name:  "plural noun with quantity",
			input: "3 black belts",
			want:  []want{{"belt", "black", 3}},
		},
		{
			name:  "multiplier suffix and shaded color",
			input: "2x light blue shirts",
			want:  []want{{"shirt", "blue", 2}},
		},
		{
			name:  "uppercase input",
			input: "2 NAVY JEANS",
			want:  []want{{"pant", "blue", 2}},
		},
		{
			name:  "hyphenated compound noun",
			input: "1 red t-shirt",
			want:  []want{{"tshirt", "red", 1}},
		},
		{
			name:  "qualifier is not a color",
			input: "1 formal shirt",
			want:  []want{{"shirt", "", 1}},
		},
		{
			name:  "qualifier table is per rule",
			input: "1 denim jacket and 1 denim cap",
			want: []want{
				{"jacket", "", 1},
				{"cap", "blue", 1},
			},
		},
		{
			name:  "unknown color word is dropped",
			input: "1 cotton shirt",
			want:  []want{{"shirt", "", 1}},
		},
		{
			name:  "zero quantity becomes one",
			input: "0 black caps",
			want:  []want{{"cap", "black", 1}},
		},
		{
			name:  "exact duplicates collapse",
			input: "1 white shirt, 1 white shirt",
			want:  []want{{"shirt", "white", 1}},
		},
		{
			name:  "first duplicate wins",
			input: "1 white shirt, 3 white shirts",
			want:  []want{{"shirt", "white", 1}},
		},
		{
			name:  "same type different colors kept",
			input: "1 white shirt and 1 black shirt",
			want: []want{
				{"shirt", "white", 1},
				{"shirt", "black", 1},
			},
		},
		{
			name:  "unintelligible text",
			input: "hello there",
			want:  nil,
		},
		{
			name:  "empty text",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \n\t",
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Segment(tc.input)
			if got == nil {
				t.Fatal("Segment returned nil, want non-nil slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Segment(%q) returned %d items (%+v), want %d", tc.input, len(got), got, len(tc.want))
			}
			for i, w := range tc.want {
				if got[i].Type != w.itemType || got[i].Color != w.color || got[i].Quantity != w.quantity {
					t.Errorf("item %d = {%s %q %d}, want {%s %q %d}",
						i, got[i].Type, got[i].Color, got[i].Quantity, w.itemType, w.color, w.quantity)
				}
			}
		})
	}
}

func TestSegmentIsIdempotentOverPhrases(t *testing.T) {
	s := newTestSegmenter(t)

	inputs := []string{
		"1 white shirt, 1 black pant, 1 pair of sneakers, 1 backpack",
		"2 laptop bags and 1 red t-shirt",
		"3 formal shoes, 1 brown belt, 1 grey smartwatch",
	}

	for _, input := range inputs {
		for _, item := range s.Segment(input) {
			phrase := item.Phrase()
			again := s.Segment(phrase)
			if len(again) != 1 {
				t.Fatalf("Segment(%q) returned %d items, want 1", phrase, len(again))
			}
			got := again[0]
			if got.Type != item.Type || got.Color != item.Color || got.Quantity != item.Quantity {
				t.Errorf("round trip of %q = {%s %q %d}, want {%s %q %d}",
					phrase, got.Type, got.Color, got.Quantity, item.Type, item.Color, item.Quantity)
			}
		}
	}
}

func TestAttempts(t *testing.T) {
	s := newTestSegmenter(t)

	t.Run("records overlap rejection", func(t *testing.T) {
		attempts := s.Attempts("1 laptop bag")
		if len(attempts) != 2 {
			t.Fatalf("got %d attempts, want 2: %+v", len(attempts), attempts)
		}
		if attempts[0].Rule != "laptop_bag" || attempts[0].Outcome != AttemptAccepted {
			t.Errorf("first attempt = %s/%s, want laptop_bag/accepted", attempts[0].Rule, attempts[0].Outcome)
		}
		if attempts[1].Rule != "bag" || attempts[1].Outcome != AttemptRejectedOverlap {
			t.Errorf("second attempt = %s/%s, want bag/rejected_overlap", attempts[1].Rule, attempts[1].Outcome)
		}
	})

	t.Run("accepted spans are disjoint", func(t *testing.T) {
		inputs := []string{
			"1 laptop bag, 2 running shoes and a smart watch",
			"1 red t-shirt, 1 school bag, 1 white shirt",
			"2 formal shoes, 1 pair of shoes, 1 bag",
		}
		for _, input := range inputs {
			var spans []domain.Span
			for _, a := range s.Attempts(input) {
				if a.Outcome == AttemptAccepted {
					spans = append(spans, a.Span)
				}
			}
			for i := range spans {
				for j := i + 1; j < len(spans); j++ {
					if spans[i].Overlaps(spans[j]) {
						t.Errorf("%q: spans %v and %v overlap", input, spans[i], spans[j])
					}
				}
			}
		}
	})

	t.Run("blank input has no attempts", func(t *testing.T) {
		if attempts := s.Attempts("  "); attempts != nil {
			t.Errorf("got %v, want nil", attempts)
		}
	})
}

func TestNewSegmenterWithRules(t *testing.T) {
	t.Run("priority decides which rule claims the text", func(t *testing.T) {
		rules := []PatternRule{
			{Type: "generic", Nouns: []string{"bag"}, Priority: 2},
			{Type: "special", Nouns: []string{"tote bag"}, Priority: 1},
		}
		s, err := NewSegmenterWithRules(rules, zerolog.Nop(), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items := s.Segment("1 tote bag")
		if len(items) != 1 || items[0].Type != "special" {
			t.Errorf("got %+v, want a single special item", items)
		}

		rules[0].Priority, rules[1].Priority = 1, 2
		s, err = NewSegmenterWithRules(rules, zerolog.Nop(), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items = s.Segment("1 tote bag")
		if len(items) != 1 || items[0].Type != "generic" {
			t.Errorf("got %+v, want a single generic item", items)
		}
	})

	t.Run("rejects duplicate priorities", func(t *testing.T) {
		rules := []PatternRule{
			{Type: "a", Nouns: []string{"a"}, Priority: 1},
			{Type: "b", Nouns: []string{"b"}, Priority: 1},
		}
		if _, err := NewSegmenterWithRules(rules, zerolog.Nop(), false); err == nil {
			t.Error("expected error for duplicate priority")
		}
	})

	t.Run("rejects rule without nouns", func(t *testing.T) {
		rules := []PatternRule{{Type: "a", Priority: 1}}
		if _, err := NewSegmenterWithRules(rules, zerolog.Nop(), false); err == nil {
			t.Error("expected error for missing nouns")
		}
	})

	t.Run("does not mutate the caller's rules", func(t *testing.T) {
		rules := []PatternRule{{Type: "a", Nouns: []string{"a"}, Priority: 1}}
		if _, err := NewSegmenterWithRules(rules, zerolog.Nop(), false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rules[0].pattern != nil {
			t.Error("caller's rule was compiled in place")
		}
	})
}

func TestParseQuantity(t *testing.T) {
	testCases := map[string]int{
		"":    1,
		"0":   1,
		"1":   1,
		"12":  12,
		"abc": 1,
	}
	for in, want := range testCases {
		if got := parseQuantity(in); got != want {
			t.Errorf("parseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}
