package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	n := normalize("ein\t Wort  und\n\nnoch eins")
	assert.Equal(t, "ein Wort und noch eins", n.text)
}

func TestNormalizeFoldsQuotes(t *testing.T) {
	n := normalize("„Zitat“ und ‚mehr‘ und «noch» eins")
	assert.Equal(t, `"Zitat" und 'mehr' und "noch" eins`, n.text)
}

func TestNormalizeSpanForRoundTrip(t *testing.T) {
	src := "Die  Arbeit \t zeigt„viel“"
	n := normalize(src)

	idx := strings.Index(n.text, "Arbeit")
	require.GreaterOrEqual(t, idx, 0)
	start, end := n.spanFor(idx, idx+len("Arbeit"))
	assert.Equal(t, "Arbeit", src[start:end])

	// A span covering a folded quote maps back over the original rune.
	idx = strings.Index(n.text, `"viel"`)
	require.GreaterOrEqual(t, idx, 0)
	start, end = n.spanFor(idx, idx+len(`"viel"`))
	assert.Equal(t, "„viel“", src[start:end])
}

func TestNormalizeSpanForCollapsedRun(t *testing.T) {
	src := "a   b"
	n := normalize(src)
	require.Equal(t, "a b", n.text)

	// The single normalized space expands back over the whole whitespace run.
	start, end := n.spanFor(0, 3)
	assert.Equal(t, 0, start)
	assert.Equal(t, len(src), end)
}

func TestNormalizeSpanForInvalid(t *testing.T) {
	n := normalize("abc")
	start, end := n.spanFor(2, 2)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestNormalizeFlat(t *testing.T) {
	assert.Equal(t, "x y", normalizeFlat("  x \t y \n"))
	assert.Equal(t, `"a"`, normalizeFlat("„a“"))
	assert.Equal(t, "", normalizeFlat("   "))
}
