// Package matcher relocates LLM suggestions inside the source document. The
// model returns original_text as a bare substring with no reliable offset,
// possibly differing from the source by whitespace, quote variants or minor
// paraphrase noise, so location is resolved by a fixed cascade of strategies
// from cheapest and most precise to most permissive, short-circuiting on the
// first acceptable match. A suggestion that no strategy can place above the
// acceptance threshold is dropped, never forced onto a wrong location.
package matcher

import (
	"log/slog"
	"strings"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// DefaultThreshold is the empirically tuned acceptance score. Treat it as a
// starting point for calibration, not an optimum.
const DefaultThreshold = 85

// Matcher locates suggestions in the document text.
type Matcher struct {
	threshold  int
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a Matcher with the standard strategy cascade.
func New(threshold int, logger *slog.Logger) *Matcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{threshold: threshold, strategies: cascade(), logger: logger}
}

// Locate resolves the suggestion's original text to a span within text. The
// search is bounded to region (the originating chunk plus its overlap), both
// for performance and to avoid false positives in unrelated parts of the
// document; only the exact strategy may look further, and then only for a
// unique occurrence. Returns nil when no strategy clears the threshold.
// Locate assigns Suggestion.Position on success; it is the only component
// with mutation rights over it.
func (m *Matcher) Locate(s *core.Suggestion, text string, region core.Span) *core.MatchResult {
	needle := strings.TrimSpace(s.OriginalText)
	if needle == "" {
		return nil
	}

	region = clamp(region, len(text))
	if region.Len() <= 0 {
		return nil
	}

	for _, strategy := range m.strategies {
		span, score, ok := strategy.TryMatch(text, region, needle)
		if !ok || score < m.threshold {
			continue
		}
		s.Position = &span
		m.logger.Debug("suggestion located",
			"strategy", strategy.Name(),
			"score", score,
			"start", span.Start,
			"end", span.End,
		)
		return &core.MatchResult{
			Suggestion: s,
			Span:       span,
			Strategy:   strategy.Name(),
			Score:      score,
		}
	}

	m.logger.Debug("suggestion unmatched, dropping",
		"category", s.Category,
		"original_text_len", len(s.OriginalText),
	)
	return nil
}

func clamp(region core.Span, n int) core.Span {
	if region.Start < 0 {
		region.Start = 0
	}
	if region.End > n {
		region.End = n
	}
	return region
}
