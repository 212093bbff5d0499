package analyzer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validResponse = `{"suggestions":[{"original_text":"rennt schnell","suggested_text":"läuft schnell","reason":"Wortwahl","category":"grammar","confidence":0.9}]}`

func TestParseResponsePlainJSON(t *testing.T) {
	suggestions, err := parseResponse(validResponse, core.CategoryGrammar, 2, discardLogger())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, "rennt schnell", s.OriginalText)
	assert.Equal(t, "läuft schnell", s.SuggestedText)
	assert.Equal(t, core.CategoryGrammar, s.Category)
	assert.Equal(t, 0.9, s.Confidence)
	assert.Equal(t, 2, s.ChunkIndex)
	assert.Nil(t, s.Position)
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	raw := "```json\n" + validResponse + "\n```"
	suggestions, err := parseResponse(raw, core.CategoryGrammar, 0, discardLogger())
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestParseResponseToleratesPreamble(t *testing.T) {
	raw := "Hier ist das Ergebnis:\n" + validResponse + "\nViel Erfolg!"
	suggestions, err := parseResponse(raw, core.CategoryGrammar, 0, discardLogger())
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestParseResponseEmptySuggestions(t *testing.T) {
	suggestions, err := parseResponse(`{"suggestions":[]}`, core.CategoryStyle, 0, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestParseResponseMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"kein JSON hier",
		`{"suggestions":`,
		`{"suggestions": "not a list"}`,
	} {
		_, err := parseResponse(raw, core.CategoryGrammar, 0, discardLogger())
		assert.ErrorIs(t, err, ErrMalformedResponse, "input %q", raw)
	}
}

func TestParseResponseSkipsInvalidEntries(t *testing.T) {
	raw := `{"suggestions":[
		{"original_text":"","suggested_text":"x","reason":"leer","category":"grammar","confidence":0.5},
		{"original_text":"ok","suggested_text":"besser","reason":"gut","category":"grammar","confidence":5.0},
		{"original_text":"bleibt","suggested_text":"auch","reason":"valide","category":"grammar","confidence":0.7}
	]}`
	suggestions, err := parseResponse(raw, core.CategoryGrammar, 0, discardLogger())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "bleibt", suggestions[0].OriginalText)
}

func TestParseResponsePassCategoryWins(t *testing.T) {
	raw := `{"suggestions":[{"original_text":"x","suggested_text":"y","reason":"z","category":"style","confidence":0.8}]}`
	suggestions, err := parseResponse(raw, core.CategoryClarity, 0, discardLogger())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, core.CategoryClarity, suggestions[0].Category)
}

func TestStripJSONFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence(`{"a":1}`))
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject(`vorher {"a":1} nachher`))
	assert.Equal(t, "", extractJSONObject("kein Objekt"))
	assert.Equal(t, "", extractJSONObject("} {"))
}
