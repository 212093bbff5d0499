package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// ErrMalformedResponse marks an LLM reply whose overall shape is not the
// expected suggestions object. The affected (chunk, category) pass is counted
// as failed; the run continues.
var ErrMalformedResponse = errors.New("malformed LLM response")

// responsePayload mirrors the JSON contract the prompts demand.
type responsePayload struct {
	Suggestions []suggestionPayload `json:"suggestions"`
}

type suggestionPayload struct {
	OriginalText  string  `json:"original_text"`
	SuggestedText string  `json:"suggested_text"`
	Reason        string  `json:"reason"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
}

// parseResponse decodes an LLM reply into validated suggestions. The overall
// document must be valid JSON (code fences and pre/postamble are tolerated);
// individual malformed entries are logged and skipped rather than aborting
// the pass, since one bad entry should not cost the chunk its good ones.
func parseResponse(raw string, category core.Category, chunkIdx int, logger *slog.Logger) ([]core.Suggestion, error) {
	body := extractJSONObject(stripJSONFence(raw))
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	suggestions := make([]core.Suggestion, 0, len(payload.Suggestions))
	for i, entry := range payload.Suggestions {
		s := core.Suggestion{
			OriginalText:  strings.TrimSpace(entry.OriginalText),
			SuggestedText: strings.TrimSpace(entry.SuggestedText),
			Reason:        strings.TrimSpace(entry.Reason),
			Category:      category,
			Confidence:    entry.Confidence,
			ChunkIndex:    chunkIdx,
		}
		// Models occasionally echo a different category; the pass category
		// wins, but a recognizable echo is kept for the log.
		if entry.Category != "" && entry.Category != string(category) {
			logger.Debug("model returned divergent category, keeping pass category",
				"returned", entry.Category,
				"pass", category,
			)
		}
		if err := s.Validate(); err != nil {
			logger.Warn("discarding malformed suggestion entry",
				"index", i,
				"chunk", chunkIdx,
				"category", category,
				"error", err,
			)
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

// stripJSONFence removes ```json ... ``` wrapping that some LLMs add around
// their output.
func stripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```") {
		idx := strings.Index(trimmed, "\n")
		if idx < 0 {
			return s
		}
		inner := trimmed[idx+1:]
		if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
			inner = inner[:lastFence]
		}
		return strings.TrimSpace(inner)
	}
	return s
}

// extractJSONObject cuts the outermost {...} out of a reply that may carry
// conversational pre- or postamble.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
