package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

func wholeText(text string) core.Span {
	return core.Span{Start: 0, End: len(text)}
}

func TestLocateExact(t *testing.T) {
	text := "Der Hund rennt schnell über die Wiese."
	needle := "rennt schnell"
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryGrammar, Confidence: 0.9}

	m := New(DefaultThreshold, nil)
	result := m.Locate(s, text, wholeText(text))

	require.NotNil(t, result)
	assert.Equal(t, core.MatchExact, result.Strategy)
	assert.Equal(t, 100, result.Score)

	start := strings.Index(text, needle)
	assert.Equal(t, core.Span{Start: start, End: start + len(needle)}, result.Span)
	assert.Equal(t, needle, text[result.Span.Start:result.Span.End])

	require.NotNil(t, s.Position)
	assert.Equal(t, result.Span, *s.Position)
}

func TestLocateExactPrefersFirstOccurrenceInRegion(t *testing.T) {
	text := "Die Methode zeigt Schwächen. Die Methode zeigt Schwächen."
	needle := "Die Methode"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryStyle, Confidence: 0.8}
	result := m.Locate(s, text, wholeText(text))

	require.NotNil(t, result)
	assert.Equal(t, 0, result.Span.Start)
}

func TestLocateExactUniqueOccurrenceOutsideRegion(t *testing.T) {
	text := "Einleitung und Überblick. Die Quantisierung der Messreihe erfolgt später."
	needle := "Quantisierung der Messreihe"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryClarity, Confidence: 0.8}
	// Region covers only the first sentence; the needle occurs once, later.
	result := m.Locate(s, text, core.Span{Start: 0, End: 20})

	require.NotNil(t, result)
	assert.Equal(t, core.MatchExact, result.Strategy)
	assert.Equal(t, needle, text[result.Span.Start:result.Span.End])
}

func TestLocateNormalizedWhitespace(t *testing.T) {
	text := "Die Arbeit zeigt,  dass\tdie Methode gut funktioniert."
	needle := "zeigt, dass die Methode"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryGrammar, Confidence: 0.9}
	result := m.Locate(s, text, wholeText(text))

	require.NotNil(t, result)
	assert.Equal(t, core.MatchNormalized, result.Strategy)
	assert.Equal(t, 100, result.Score)

	located := text[result.Span.Start:result.Span.End]
	assert.True(t, strings.HasPrefix(located, "zeigt,"))
	assert.True(t, strings.HasSuffix(located, "Methode"))
}

func TestLocateNormalizedQuoteFolding(t *testing.T) {
	text := "Er nannte es „besonders wichtig“ für die Studie."
	needle := `nannte es "besonders wichtig"`

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryAcademic, Confidence: 0.9}
	result := m.Locate(s, text, wholeText(text))

	require.NotNil(t, result)
	assert.Equal(t, core.MatchNormalized, result.Strategy)

	located := text[result.Span.Start:result.Span.End]
	assert.True(t, strings.HasPrefix(located, "nannte"))
	assert.True(t, strings.Contains(located, "wichtig"))
}

func TestLocateFuzzyTypo(t *testing.T) {
	text := "Die Untersuchung der Messergebnisse zeigt deutliche Abweichungen."
	// The model dropped one letter from "Messergebnisse".
	needle := "Untersuchung der Messergebnise zeigt"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryGrammar, Confidence: 0.9}
	result := m.Locate(s, text, wholeText(text))

	require.NotNil(t, result)
	assert.NotEqual(t, core.MatchExact, result.Strategy)
	assert.GreaterOrEqual(t, result.Score, DefaultThreshold)
	assert.Contains(t, text[result.Span.Start:result.Span.End], "Messergebnisse")
}

func TestLocateUnmatchedReturnsNil(t *testing.T) {
	text := "Kurzer Absatz über Hunde."
	needle := "Dieser Satz handelt von Quantenphysik und existiert nirgendwo"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryClarity, Confidence: 0.9}
	result := m.Locate(s, text, wholeText(text))

	assert.Nil(t, result)
	assert.Nil(t, s.Position)
}

func TestLocateEmptyNeedle(t *testing.T) {
	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: "   ", Category: core.CategoryStyle, Confidence: 0.5}
	assert.Nil(t, m.Locate(s, "irgendein Text", wholeText("irgendein Text")))
}

func TestLocateClampsRegion(t *testing.T) {
	text := "Der Hund rennt schnell."
	needle := "rennt"

	m := New(DefaultThreshold, nil)
	s := &core.Suggestion{OriginalText: needle, Category: core.CategoryGrammar, Confidence: 0.9}
	result := m.Locate(s, text, core.Span{Start: -50, End: len(text) + 50})

	require.NotNil(t, result)
	assert.Equal(t, needle, text[result.Span.Start:result.Span.End])
}

func TestNewFallsBackToDefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(0, nil).threshold)
	assert.Equal(t, DefaultThreshold, New(101, nil).threshold)
	assert.Equal(t, 70, New(70, nil).threshold)
}
