// Package analyzer sends document chunks to the LLM, one pass per correction
// category, and turns the structured JSON replies into validated suggestions.
// Transient API errors are retried with bounded exponential backoff; a pass
// that exhausts its retries or returns an unparseable reply is skipped and
// counted, never aborting the whole document.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// promptData is what a category prompt template sees.
type promptData struct {
	Text string
}

// Analyzer runs the multi-pass chunk analysis.
type Analyzer struct {
	gen        Generator
	prompts    *PromptManager
	provider   ModelProvider
	categories []core.Category

	workers     int
	maxRetries  int
	backoffBase time.Duration

	// cache is a pure optimization keyed by pass content; the analyzer is
	// fully functional without one.
	cache *gocache.Cache

	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache injects a response cache. Entries are keyed by a hash of
// provider, category and chunk text.
func WithCache(c *gocache.Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithMaxRetries sets how often a transient API failure is retried.
func WithMaxRetries(n int) Option {
	return func(a *Analyzer) { a.maxRetries = n }
}

// WithBackoffBase overrides the first retry delay.
func WithBackoffBase(d time.Duration) Option {
	return func(a *Analyzer) { a.backoffBase = d }
}

// New creates an Analyzer.
func New(gen Generator, prompts *PromptManager, provider string, categories []core.Category, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if gen == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if prompts == nil {
		return nil, errors.New("prompt manager cannot be nil")
	}
	if len(categories) == 0 {
		return nil, errors.New("at least one category is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		gen:         gen,
		prompts:     prompts,
		provider:    ModelProvider(provider),
		categories:  categories,
		workers:     4,
		maxRetries:  3,
		backoffBase: time.Second,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	// At least one attempt is always made; a retry count below one would turn
	// every pass into an instant failure.
	if a.maxRetries < 1 {
		a.maxRetries = 1
	}
	return a, nil
}

// AnalyzeAll fans all (chunk, category) passes out over the worker pool and
// returns the merged, deduplicated suggestions in document order together
// with the number of failed passes. onPass, if non-nil, is called after every
// completed pass with (done, total). A cancelled context yields the partial
// results gathered so far plus the context error.
func (a *Analyzer) AnalyzeAll(ctx context.Context, chunks []core.DocumentChunk, onPass func(done, total int)) ([]core.Suggestion, int, error) {
	tasks := make([]task, 0, len(chunks)*len(a.categories))
	for chunkIdx, chunk := range chunks {
		for _, category := range a.categories {
			tasks = append(tasks, task{
				index:    len(tasks),
				chunkIdx: chunkIdx,
				category: category,
				chunk:    chunk,
			})
		}
	}

	total := len(tasks)
	var done atomic.Int64
	fn := func(ctx context.Context, t task) ([]core.Suggestion, error) {
		suggestions, err := a.analyzeOne(ctx, t)
		if onPass != nil {
			onPass(int(done.Add(1)), total)
		}
		return suggestions, err
	}

	results := newPool(a.workers, a.logger).run(ctx, tasks, fn)

	var merged []core.Suggestion
	failed := 0
	for _, r := range results {
		if r.err != nil {
			if !errors.Is(r.err, context.Canceled) && !errors.Is(r.err, context.DeadlineExceeded) {
				failed++
				a.logger.Warn("analyzer pass failed, skipping",
					"chunk", r.task.chunkIdx,
					"category", r.task.category,
					"error", r.err,
				)
			}
			continue
		}
		merged = append(merged, r.suggestions...)
	}

	return dedupe(merged, chunks), failed, ctx.Err()
}

// analyzeOne renders the category prompt for a chunk, calls the LLM with
// retries and decodes the reply.
func (a *Analyzer) analyzeOne(ctx context.Context, t task) ([]core.Suggestion, error) {
	prompt, err := a.prompts.Render(string(t.category), a.provider, promptData{Text: t.chunk.Text})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	key := a.cacheKey(t.category, t.chunk.Text)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			a.logger.Debug("analyzer cache hit", "chunk", t.chunkIdx, "category", t.category)
			return parseResponse(cached.(string), t.category, t.chunkIdx, a.logger)
		}
	}

	raw, err := a.generateWithRetry(ctx, prompt, t)
	if err != nil {
		return nil, err
	}

	suggestions, err := parseResponse(raw, t.category, t.chunkIdx, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Set(key, raw, gocache.DefaultExpiration)
	}
	return suggestions, nil
}

// generateWithRetry retries transient API failures with bounded exponential
// backoff. The context is honored during backoff sleeps; in-flight calls run
// to completion.
func (a *Analyzer) generateWithRetry(ctx context.Context, prompt string, t task) (string, error) {
	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		raw, err := a.gen.Generate(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt+1 < a.maxRetries {
			delay := a.backoffBase << attempt
			a.logger.Warn("LLM call failed, retrying",
				"chunk", t.chunkIdx,
				"category", t.category,
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return "", fmt.Errorf("LLM call failed after %d attempts: %w", a.maxRetries, lastErr)
}

func (a *Analyzer) cacheKey(category core.Category, text string) string {
	h := sha256.New()
	h.Write([]byte(string(a.provider)))
	h.Write([]byte{0})
	h.Write([]byte(string(category)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// dedupe merges duplicate suggestions: identical original text whose source
// chunk regions (including overlap) intersect collapse into the entry with
// the higher confidence, even across categories, since two comments pinned to
// the same words are reviewer noise.
func dedupe(suggestions []core.Suggestion, chunks []core.DocumentChunk) []core.Suggestion {
	kept := make(map[string][]int, len(suggestions))
	result := make([]core.Suggestion, 0, len(suggestions))

	for _, s := range suggestions {
		dup := -1
		for _, idx := range kept[s.OriginalText] {
			other := result[idx]
			if chunks[s.ChunkIndex].SearchRegion().Overlaps(chunks[other.ChunkIndex].SearchRegion()) {
				dup = idx
				break
			}
		}
		if dup >= 0 {
			if s.Confidence > result[dup].Confidence {
				result[dup] = s
			}
			continue
		}
		kept[s.OriginalText] = append(kept[s.OriginalText], len(result))
		result = append(result, s)
	}
	return result
}
