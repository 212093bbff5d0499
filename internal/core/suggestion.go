// Package core defines the essential data structures that form the backbone
// of the correction pipeline. These types are deliberately free of transport
// and storage concerns so that every pipeline stage can be implemented and
// tested against plain values.
package core

import "fmt"

// Category identifies one correction pass over a chunk of thesis text.
type Category string

const (
	CategoryGrammar  Category = "grammar"
	CategoryStyle    Category = "style"
	CategoryClarity  Category = "clarity"
	CategoryAcademic Category = "academic"
)

// AllCategories returns every supported correction category in pass order.
func AllCategories() []Category {
	return []Category{CategoryGrammar, CategoryStyle, CategoryClarity, CategoryAcademic}
}

// ParseCategory validates a user-supplied category name.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryGrammar, CategoryStyle, CategoryClarity, CategoryAcademic:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q (valid: grammar, style, clarity, academic)", s)
}

// Span is a half-open byte range [Start, End) into the normalized document text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

// Suggestion is one proposed edit returned by the LLM. OriginalText is a
// verbatim substring the model claims exists in the chunk it was shown; the
// model does not return offsets, so Position stays nil until the matcher
// locates the text in the source document. The matcher has exclusive mutation
// rights over Position; every other consumer treats a Suggestion as read-only.
type Suggestion struct {
	OriginalText  string   `json:"original_text"`
	SuggestedText string   `json:"suggested_text"`
	Reason        string   `json:"reason"`
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`

	// Position is the resolved location in the document text, assigned by
	// the matcher. Suggestions that cannot be located are dropped, never
	// forced onto a wrong location.
	Position *Span `json:"-"`

	// ChunkIndex records which chunk produced this suggestion. The matcher
	// uses it to bound its search region.
	ChunkIndex int `json:"-"`
}

// Validate checks the invariants every suggestion must satisfy before it
// enters the pipeline.
func (s *Suggestion) Validate() error {
	if s.OriginalText == "" {
		return fmt.Errorf("suggestion has empty original_text")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %.2f outside [0,1]", s.Confidence)
	}
	if _, err := ParseCategory(string(s.Category)); err != nil {
		return err
	}
	return nil
}
