// Package pipeline orchestrates one document-correction run: parse, chunk,
// analyze, match, format, integrate. Data flows strictly left to right; each
// run is a fresh object graph with no cross-run state. Callers (CLI, web
// layers) interact through Process and a progress callback only.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/m2ix4i/korrekturtool/internal/analyzer"
	"github.com/m2ix4i/korrekturtool/internal/chunker"
	"github.com/m2ix4i/korrekturtool/internal/config"
	"github.com/m2ix4i/korrekturtool/internal/core"
	"github.com/m2ix4i/korrekturtool/internal/docx"
	"github.com/m2ix4i/korrekturtool/internal/formatter"
	"github.com/m2ix4i/korrekturtool/internal/logger"
	"github.com/m2ix4i/korrekturtool/internal/matcher"
)

// Stage weight bands for overall progress. Analysis dominates wall-clock
// time, so it gets the widest band.
var stageBands = map[core.Stage][2]int{
	core.StageParsing:     {0, 5},
	core.StageChunking:    {5, 10},
	core.StageAnalyzing:   {10, 70},
	core.StageFormatting:  {70, 80},
	core.StageIntegrating: {80, 95},
	core.StageFinalizing:  {95, 100},
}

// Options adjusts a single Process call.
type Options struct {
	// DryRun performs analysis and matching but writes no output document.
	DryRun bool
	// Progress receives stage updates; nil disables reporting.
	Progress core.ProgressFunc
	// OnSuggestion, if set, receives every matched suggestion (used by the
	// CLI to print a dry-run report).
	OnSuggestion func(core.MatchResult, core.FormattedComment)
}

// Processor wires the pipeline components for repeated Process calls.
type Processor struct {
	cfg        *config.Config
	analyzer   *analyzer.Analyzer
	matcher    *matcher.Matcher
	formatter  *formatter.Formatter
	integrator *docx.Integrator
	logger     *slog.Logger
}

// New builds a Processor from configuration and a generator. The cache is
// injected here when enabled; the pipeline is fully functional without one.
func New(cfg *config.Config, gen analyzer.Generator, log *slog.Logger) (*Processor, error) {
	if log == nil {
		log = slog.Default()
	}

	prompts, err := analyzer.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	opts := []analyzer.Option{
		analyzer.WithWorkers(cfg.MaxWorkers),
		analyzer.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.CacheEnabled {
		opts = append(opts, analyzer.WithCache(gocache.New(30*time.Minute, 10*time.Minute)))
	}

	a, err := analyzer.New(gen, prompts, cfg.LLMProvider, cfg.Categories, logger.ForComponent(log, "analyzer"), opts...)
	if err != nil {
		return nil, err
	}

	f, err := formatter.New(cfg.CommentAuthor)
	if err != nil {
		return nil, fmt.Errorf("build formatter: %w", err)
	}

	return &Processor{
		cfg:        cfg,
		analyzer:   a,
		matcher:    matcher.New(cfg.MatchThreshold, logger.ForComponent(log, "matcher")),
		formatter:  f,
		integrator: docx.NewIntegrator(logger.ForComponent(log, "integrator")),
		logger:     log,
	}, nil
}

// Process corrects one document. The input file is never mutated; the output
// is written only after all stages complete, so cancellation cannot leave a
// corrupt artifact. Fatal errors are returned inside the result with
// Success=false; per-unit failures (one pass, one suggestion, one comment)
// are converted into counts.
func (p *Processor) Process(ctx context.Context, inputPath, outputPath string, opts Options) core.ProcessingResult {
	start := time.Now()
	result := core.ProcessingResult{RunID: uuid.NewString()}
	report := newProgressReporter(opts.Progress)

	fail := func(err error) core.ProcessingResult {
		result.Success = false
		result.Err = err
		result.Duration = time.Since(start)
		p.logger.Error("processing failed", "run_id", result.RunID, "error", err)
		return result
	}

	p.logger.Info("starting correction run",
		"run_id", result.RunID,
		"input", inputPath,
		"categories", p.cfg.Categories,
		"dry_run", opts.DryRun,
	)

	// Parsing.
	report.update(core.StageParsing, 0, "Dokument wird gelesen")
	doc, err := docx.Parse(inputPath)
	if err != nil {
		return fail(err)
	}
	report.update(core.StageParsing, 100, fmt.Sprintf("%d Absätze gelesen", len(doc.Blocks)))

	// Chunking.
	report.update(core.StageChunking, 0, "Text wird aufgeteilt")
	ch, err := chunker.New(p.cfg.MaxChunkChars, p.cfg.OverlapChars, logger.ForComponent(p.logger, "chunker"))
	if err != nil {
		return fail(err)
	}
	chunks, err := ch.Chunk(doc.Text, doc.Blocks)
	if err != nil {
		return fail(err)
	}
	report.update(core.StageChunking, 100, fmt.Sprintf("%d Abschnitte", len(chunks)))

	// Analyzing.
	report.update(core.StageAnalyzing, 0, "Text wird analysiert")
	suggestions, failedPasses, err := p.analyzer.AnalyzeAll(ctx, chunks, func(done, total int) {
		report.update(core.StageAnalyzing, done*100/total, fmt.Sprintf("Durchgang %d/%d", done, total))
	})
	result.SuggestionsGenerated = len(suggestions)
	result.FailedPasses = failedPasses
	if err != nil {
		return fail(fmt.Errorf("analysis cancelled: %w", err))
	}

	// Matching and formatting share the formatting band.
	report.update(core.StageFormatting, 0, "Fundstellen werden zugeordnet")
	anchors := p.matchAndFormat(doc, chunks, suggestions, opts)
	result.SuggestionsMatched = len(anchors)
	report.update(core.StageFormatting, 100, fmt.Sprintf("%d von %d Vorschlägen zugeordnet", len(anchors), len(suggestions)))

	if opts.DryRun {
		result.CommentsAttempted = 0
		result.CommentsInserted = 0
		result.Success = true
		result.Duration = time.Since(start)
		report.update(core.StageFinalizing, 100, "Testlauf abgeschlossen, keine Datei geschrieben")
		return result
	}

	// Integrating.
	report.update(core.StageIntegrating, 0, "Kommentare werden eingefügt")
	integration, err := p.integrator.Integrate(doc, anchors, outputPath)
	if integration != nil {
		result.CommentsAttempted = integration.Attempted
		result.CommentsInserted = integration.Succeeded
	}
	if err != nil {
		return fail(err)
	}
	report.update(core.StageIntegrating, 100, fmt.Sprintf("%d Kommentare eingefügt", integration.Succeeded))

	report.update(core.StageFinalizing, 100, "Fertig")
	result.Success = true
	result.Duration = time.Since(start)
	p.logger.Info("correction run finished",
		"run_id", result.RunID,
		"generated", result.SuggestionsGenerated,
		"matched", result.SuggestionsMatched,
		"inserted", result.CommentsInserted,
		"failed_passes", result.FailedPasses,
		"duration", result.Duration,
	)
	return result
}

// matchAndFormat locates every suggestion, formats the accepted ones and
// returns anchors sorted by document position, which also fixes the comment
// ID assignment order for reproducible output.
func (p *Processor) matchAndFormat(doc *docx.Document, chunks []core.DocumentChunk, suggestions []core.Suggestion, opts Options) []docx.Anchor {
	var anchors []docx.Anchor
	for i := range suggestions {
		s := &suggestions[i]
		region := chunks[s.ChunkIndex].SearchRegion()
		match := p.matcher.Locate(s, doc.Text, region)
		if match == nil {
			continue
		}
		comment := p.formatter.Format(s)
		if opts.OnSuggestion != nil {
			opts.OnSuggestion(*match, comment)
		}
		anchors = append(anchors, docx.Anchor{Match: *match, Comment: comment})
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].Match.Span.Start != anchors[j].Match.Span.Start {
			return anchors[i].Match.Span.Start < anchors[j].Match.Span.Start
		}
		return anchors[i].Match.Span.End < anchors[j].Match.Span.End
	})
	return anchors
}

// progressReporter translates per-stage percentages into the overall 0-100
// scale and keeps the reported value monotonic.
type progressReporter struct {
	cb   core.ProgressFunc
	last int
}

func newProgressReporter(cb core.ProgressFunc) *progressReporter {
	return &progressReporter{cb: cb}
}

func (r *progressReporter) update(stage core.Stage, stagePercent int, message string) {
	if r.cb == nil {
		return
	}
	band := stageBands[stage]
	overall := band[0] + (band[1]-band[0])*clampPercent(stagePercent)/100
	if overall < r.last {
		overall = r.last
	}
	r.last = overall
	r.cb(stage, overall, message)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
