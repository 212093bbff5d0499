package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestionValidate(t *testing.T) {
	tests := []struct {
		name       string
		suggestion Suggestion
		wantErr    bool
	}{
		{
			name: "valid",
			suggestion: Suggestion{
				OriginalText:  "eine Large Language Model",
				SuggestedText: "ein Large Language Model",
				Reason:        "Falscher Artikel",
				Category:      CategoryGrammar,
				Confidence:    0.9,
			},
			wantErr: false,
		},
		{
			name: "empty original text",
			suggestion: Suggestion{
				Category:   CategoryStyle,
				Confidence: 0.5,
			},
			wantErr: true,
		},
		{
			name: "confidence above one",
			suggestion: Suggestion{
				OriginalText: "Fehler",
				Category:     CategoryGrammar,
				Confidence:   1.2,
			},
			wantErr: true,
		},
		{
			name: "negative confidence",
			suggestion: Suggestion{
				OriginalText: "Fehler",
				Category:     CategoryGrammar,
				Confidence:   -0.1,
			},
			wantErr: true,
		},
		{
			name: "unknown category",
			suggestion: Suggestion{
				OriginalText: "Fehler",
				Category:     Category("spelling"),
				Confidence:   0.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.suggestion.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{Start: 10, End: 20}

	assert.True(t, a.Overlaps(Span{Start: 15, End: 25}))
	assert.True(t, a.Overlaps(Span{Start: 0, End: 11}))
	assert.False(t, a.Overlaps(Span{Start: 20, End: 30}), "touching spans do not overlap")
	assert.False(t, a.Overlaps(Span{Start: 0, End: 10}))
}

func TestChunkSearchRegion(t *testing.T) {
	c := DocumentChunk{StartOffset: 100, EndOffset: 200, OverlapChars: 20}
	assert.Equal(t, Span{Start: 80, End: 200}, c.SearchRegion())
	assert.Equal(t, Span{Start: 100, End: 200}, c.Span())
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("academic")
	assert.NoError(t, err)
	assert.Equal(t, CategoryAcademic, got)

	_, err = ParseCategory("typo")
	assert.Error(t, err)
}
