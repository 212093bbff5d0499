package core

// MatchStrategy names the cascade step that located a suggestion.
type MatchStrategy string

const (
	MatchExact        MatchStrategy = "exact"
	MatchNormalized   MatchStrategy = "normalized"
	MatchPartialRatio MatchStrategy = "partial-ratio"
	MatchTokenSort    MatchStrategy = "token-sort"
	MatchTokenSet     MatchStrategy = "token-set"
	MatchWeighted     MatchStrategy = "weighted"
)

// MatchResult is the resolved location of a suggestion's original text in the
// source document. Score is on the fuzzywuzzy 0-100 scale; results below the
// acceptance threshold are never produced. Transient, not persisted.
type MatchResult struct {
	Suggestion *Suggestion
	Span       Span
	Strategy   MatchStrategy
	Score      int
}
