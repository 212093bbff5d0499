package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// quoteFold maps typographic quote variants to their ASCII equivalents so an
// LLM that straightens quotes still matches the source text.
var quoteFold = map[rune]rune{
	'„': '"',  // „
	'“': '"',  // “
	'”': '"',  // ”
	'«': '"',  // «
	'»': '"',  // »
	'‘': '\'', // ‘
	'’': '\'', // ’
	'‚': '\'', // ‚
	'‹': '\'', // ‹
	'›': '\'', // ›
}

// normalized is a whitespace-collapsed, quote-folded rendering of a source
// string together with per-byte maps back into the original: starts[i] is the
// original byte offset of the rune that produced normalized byte i, ends[i]
// the offset just past it.
type normalized struct {
	text   string
	starts []int
	ends   []int
}

// normalize collapses runs of whitespace (including non-breaking spaces) to a
// single plain space and folds typographic quotes, keeping the byte maps
// needed to translate match positions back to source offsets.
func normalize(s string) normalized {
	var b strings.Builder
	starts := make([]int, 0, len(s))
	ends := make([]int, 0, len(s))

	emit := func(r rune, origStart, origEnd int) {
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		b.Write(buf[:n])
		for i := 0; i < n; i++ {
			starts = append(starts, origStart)
			ends = append(ends, origEnd)
		}
	}

	inSpace := false
	spaceStart := 0
	for i, r := range s {
		size := utf8.RuneLen(r)
		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				spaceStart = i
			}
			continue
		}
		if inSpace {
			emit(' ', spaceStart, i)
			inSpace = false
		}
		if folded, ok := quoteFold[r]; ok {
			emit(folded, i, i+size)
			continue
		}
		emit(r, i, i+size)
	}
	if inSpace {
		emit(' ', spaceStart, len(s))
	}

	return normalized{text: b.String(), starts: starts, ends: ends}
}

// spanFor translates a match [i, j) in the normalized text back to a byte
// span in the original string.
func (n normalized) spanFor(i, j int) (int, int) {
	if i >= j || j > len(n.starts) {
		return 0, 0
	}
	return n.starts[i], n.ends[j-1]
}

// normalizeFlat is the map-free variant used for needles, where only the
// folded text matters. Leading and trailing whitespace is dropped.
func normalizeFlat(s string) string {
	return strings.TrimSpace(normalize(s).text)
}
