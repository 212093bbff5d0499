package core

import "time"

// Stage identifies a pipeline phase for progress reporting. Stages are
// reported in declaration order; callers must not assume uniform timing since
// the analyzing stage dominates wall-clock time.
type Stage string

const (
	StageParsing     Stage = "parsing"
	StageChunking    Stage = "chunking"
	StageAnalyzing   Stage = "analyzing"
	StageFormatting  Stage = "formatting"
	StageIntegrating Stage = "integrating"
	StageFinalizing  Stage = "finalizing"
)

// ProgressFunc receives the current stage, an overall percent complete
// (0-100, monotonically non-decreasing) and a short human-readable message.
// Implementations must be fast; the pipeline calls them inline.
type ProgressFunc func(stage Stage, percent int, message string)

// ProcessingResult summarizes one document-correction run. The counts obey
// CommentsInserted <= CommentsAttempted <= SuggestionsMatched <=
// SuggestionsGenerated for every run.
type ProcessingResult struct {
	RunID   string
	Success bool

	SuggestionsGenerated int
	SuggestionsMatched   int
	CommentsAttempted    int
	CommentsInserted     int

	// FailedPasses counts (chunk, category) analyzer passes that were
	// skipped after exhausting retries or returned an unparseable response.
	FailedPasses int

	Duration time.Duration
	Err      error
}

// IntegrationRate returns the ratio of inserted to attempted comments,
// or 1.0 when nothing was attempted.
func (r ProcessingResult) IntegrationRate() float64 {
	if r.CommentsAttempted == 0 {
		return 1.0
	}
	return float64(r.CommentsInserted) / float64(r.CommentsAttempted)
}

// DurationSeconds is a convenience for callers that report flat JSON.
func (r ProcessingResult) DurationSeconds() float64 { return r.Duration.Seconds() }
