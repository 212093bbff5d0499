package matcher

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// Strategy attempts to locate a suggestion's original text inside a candidate
// region of the document. Implementations return the located span, a score on
// the 0-100 scale, and whether a candidate was produced at all; the matcher
// applies the acceptance threshold.
type Strategy interface {
	Name() core.MatchStrategy
	TryMatch(text string, region core.Span, needle string) (core.Span, int, bool)
}

// exactStrategy finds the needle verbatim: first occurrence inside the
// region, or a unique occurrence anywhere in the document.
type exactStrategy struct{}

func (exactStrategy) Name() core.MatchStrategy { return core.MatchExact }

func (exactStrategy) TryMatch(text string, region core.Span, needle string) (core.Span, int, bool) {
	slice := text[region.Start:region.End]
	if idx := strings.Index(slice, needle); idx >= 0 {
		start := region.Start + idx
		return core.Span{Start: start, End: start + len(needle)}, 100, true
	}

	// Outside the region only a unique occurrence is trustworthy.
	first := strings.Index(text, needle)
	if first < 0 {
		return core.Span{}, 0, false
	}
	if strings.Index(text[first+1:], needle) >= 0 {
		return core.Span{}, 0, false
	}
	return core.Span{Start: first, End: first + len(needle)}, 100, true
}

// normalizedStrategy retries the exact match after collapsing whitespace and
// folding typographic quotes on both sides, mapping the hit back to source
// offsets.
type normalizedStrategy struct{}

func (normalizedStrategy) Name() core.MatchStrategy { return core.MatchNormalized }

func (normalizedStrategy) TryMatch(text string, region core.Span, needle string) (core.Span, int, bool) {
	n := normalize(text[region.Start:region.End])
	needleN := normalizeFlat(needle)
	if needleN == "" {
		return core.Span{}, 0, false
	}
	idx := strings.Index(n.text, needleN)
	if idx < 0 {
		return core.Span{}, 0, false
	}
	start, end := n.spanFor(idx, idx+len(needleN))
	return core.Span{Start: region.Start + start, End: region.Start + end}, 100, true
}

// scorerFunc computes a similarity score between the needle and one candidate
// window.
type scorerFunc func(needle, window string) int

// windowStrategy slides word-aligned windows of approximately the needle's
// length across the region and keeps the best-scoring one. Ties go to the
// window closest to the region start.
type windowStrategy struct {
	name   core.MatchStrategy
	scorer scorerFunc
}

func (s windowStrategy) Name() core.MatchStrategy { return s.name }

func (s windowStrategy) TryMatch(text string, region core.Span, needle string) (core.Span, int, bool) {
	words := wordSpans(text, region)
	if len(words) == 0 {
		return core.Span{}, 0, false
	}

	needleWords := len(strings.Fields(needle))
	if needleWords == 0 {
		return core.Span{}, 0, false
	}

	bestScore := -1
	var bestSpan core.Span
	for width := max(1, needleWords-2); width <= needleWords+2; width++ {
		for i := 0; i+width <= len(words); i++ {
			span := core.Span{Start: words[i].Start, End: words[i+width-1].End}
			score := s.scorer(needle, text[span.Start:span.End])
			if score > bestScore || (score == bestScore && span.Start < bestSpan.Start) {
				bestScore = score
				bestSpan = span
			}
		}
	}
	if bestScore < 0 {
		return core.Span{}, 0, false
	}
	return bestSpan, bestScore, true
}

// wordSpans lists the byte spans of whitespace-separated words inside region.
func wordSpans(text string, region core.Span) []core.Span {
	var spans []core.Span
	slice := text[region.Start:region.End]
	inWord := false
	start := 0
	for i := 0; i < len(slice); i++ {
		if isSpace(slice[i]) {
			if inWord {
				spans = append(spans, core.Span{Start: region.Start + start, End: region.Start + i})
				inWord = false
			}
			continue
		}
		if !inWord {
			inWord = true
			start = i
		}
	}
	if inWord {
		spans = append(spans, core.Span{Start: region.Start + start, End: region.End})
	}
	return spans
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// cascade returns the fixed strategy order, cheapest and most precise first.
func cascade() []Strategy {
	return []Strategy{
		exactStrategy{},
		normalizedStrategy{},
		windowStrategy{name: core.MatchPartialRatio, scorer: func(n, w string) int { return fuzzy.PartialRatio(n, w) }},
		windowStrategy{name: core.MatchTokenSort, scorer: func(n, w string) int { return fuzzy.TokenSortRatio(n, w) }},
		windowStrategy{name: core.MatchTokenSet, scorer: func(n, w string) int { return fuzzy.TokenSetRatio(n, w) }},
		windowStrategy{name: core.MatchWeighted, scorer: func(n, w string) int { return fuzzy.WRatio(n, w) }},
	}
}
