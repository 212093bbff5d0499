package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/m2ix4i/korrekturtool/internal/analyzer"
	"github.com/m2ix4i/korrekturtool/internal/config"
	"github.com/m2ix4i/korrekturtool/internal/core"
	"github.com/m2ix4i/korrekturtool/internal/logger"
	"github.com/m2ix4i/korrekturtool/internal/pipeline"
)

var (
	verbose        bool
	dryRun         bool
	outputPath     string
	flagCategories string
	flagThreshold  int
	flagAuthor     string
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var correctCmd = &cobra.Command{
	Use:   "correct [thesis.docx]",
	Short: "Analyze a German thesis and insert correction suggestions as Word comments",
	Long: `Analyze a German thesis and insert correction suggestions as Word comments.

The correct command parses the DOCX file, splits the text at sentence and
paragraph boundaries, runs one LLM pass per correction category over every
chunk, relocates each suggestion in the source text and writes the result as
native review comments into a copy of the document.

Examples:
  korrekturtool correct thesis.docx
  korrekturtool correct --categories grammar,style --output reviewed.docx thesis.docx
  korrekturtool correct --dry-run --verbose thesis.docx`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	correctCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with per-stage progress")
	correctCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze and match but do not write an output document")
	correctCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default: <input>_korrigiert.docx)")
	correctCmd.Flags().StringVar(&flagCategories, "categories", "", "Comma-separated correction categories (overrides config)")
	correctCmd.Flags().IntVar(&flagThreshold, "threshold", 0, "Fuzzy match acceptance threshold 1-100 (overrides config)")
	correctCmd.Flags().StringVar(&flagAuthor, "author", "", "Comment author name (overrides config)")
	rootCmd.AddCommand(correctCmd)
}

func runCorrect(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputPath := args[0]
	overallStart := time.Now()

	titleColor.Println("📝 Korrekturtool - Thesis Correction")
	dimColor.Printf("   Input: %s\n\n", inputPath)

	cfg, err := loadRunConfig(inputPath)
	if err != nil {
		return err
	}

	out := outputPath
	if out == "" {
		out = defaultOutputPath(inputPath)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel.String(),
		Format: cfg.LogFormat,
		Output: "stderr",
	}, nil)

	model, err := analyzer.NewModel(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w\n\nTip: Check LLM_PROVIDER and that the service is reachable", err)
	}

	processor, err := pipeline.New(cfg, analyzer.NewGoframeGenerator(model), log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	opts := pipeline.Options{
		DryRun:   dryRun,
		Progress: newProgressPrinter(verbose).update,
	}
	if dryRun {
		opts.OnSuggestion = printSuggestion
	}

	result := processor.Process(ctx, inputPath, out, opts)

	if verbose {
		dimColor.Printf("\n⏱  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}
	printSummary(result, out)

	if !result.Success {
		return result.Err
	}
	return nil
}

// loadRunConfig layers configuration: env/.env base, korrektur.yml sidecar
// next to the document, then explicit CLI flags on top.
func loadRunConfig(inputPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dc, err := config.LoadDocConfig(inputPath)
	switch {
	case err == nil:
		if err := cfg.Apply(dc); err != nil {
			return nil, err
		}
		dimColor.Println("   Using korrektur.yml overrides")
	case errors.Is(err, config.ErrDocConfigNotFound):
		// No sidecar, keep defaults.
	default:
		return nil, err
	}

	if flagCategories != "" {
		var categories []core.Category
		for _, name := range strings.Split(flagCategories, ",") {
			category, err := core.ParseCategory(strings.TrimSpace(name))
			if err != nil {
				return nil, err
			}
			categories = append(categories, category)
		}
		cfg.Categories = categories
	}
	if flagThreshold > 0 {
		cfg.MatchThreshold = flagThreshold
	}
	if flagAuthor != "" {
		cfg.CommentAuthor = flagAuthor
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_korrigiert" + ext
}

// progressPrinter renders pipeline progress. In verbose mode every update is
// printed; otherwise only stage transitions are shown.
type progressPrinter struct {
	verbose   bool
	lastStage core.Stage
}

func newProgressPrinter(verbose bool) *progressPrinter {
	return &progressPrinter{verbose: verbose}
}

func (p *progressPrinter) update(stage core.Stage, percent int, message string) {
	if p.verbose {
		dimColor.Printf("   [%3d%%] %-12s %s\n", percent, stage, message)
		return
	}
	if stage != p.lastStage {
		p.lastStage = stage
		infoColor.Printf("%s...\n", stageLabel(stage))
	}
}

func stageLabel(stage core.Stage) string {
	switch stage {
	case core.StageParsing:
		return "Reading document"
	case core.StageChunking:
		return "Splitting text"
	case core.StageAnalyzing:
		return "Analyzing"
	case core.StageFormatting:
		return "Locating suggestions"
	case core.StageIntegrating:
		return "Inserting comments"
	case core.StageFinalizing:
		return "Finishing"
	default:
		return string(stage)
	}
}

func printSuggestion(match core.MatchResult, comment core.FormattedComment) {
	fmt.Println()
	printCategoryBadge(match.Suggestion.Category)
	boldColor.Printf(" %q", match.Suggestion.OriginalText)
	dimColor.Printf("  [%s, score %d]\n", match.Strategy, match.Score)
	infoColor.Printf("%s\n", comment.Text)
}

func printCategoryBadge(category core.Category) {
	switch category {
	case core.CategoryGrammar:
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" %s ", category)
	case core.CategoryStyle:
		color.New(color.BgYellow, color.FgBlack).Printf(" %s ", category)
	case core.CategoryClarity:
		color.New(color.BgBlue, color.FgWhite).Printf(" %s ", category)
	case core.CategoryAcademic:
		color.New(color.BgGreen, color.FgWhite).Printf(" %s ", category)
	default:
		color.New(color.BgWhite, color.FgBlack).Printf(" %s ", category)
	}
}

func printSummary(result core.ProcessingResult, out string) {
	separator := strings.Repeat("═", 60)

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("📋 CORRECTION SUMMARY")
	titleColor.Println(separator)
	fmt.Println()

	infoColor.Printf("   Run ID:               %s\n", result.RunID)
	infoColor.Printf("   Suggestions:          %d generated, %d located\n",
		result.SuggestionsGenerated, result.SuggestionsMatched)
	if !dryRun {
		infoColor.Printf("   Comments inserted:    %d of %d\n",
			result.CommentsInserted, result.CommentsAttempted)
		infoColor.Printf("   Integration rate:     %.0f%%\n", result.IntegrationRate()*100)
	}
	if result.FailedPasses > 0 {
		warnColor.Printf("   Failed passes:        %d\n", result.FailedPasses)
	}
	infoColor.Printf("   Duration:             %s\n", result.Duration.Round(time.Millisecond))

	fmt.Println()
	switch {
	case !result.Success:
		errorColor.Printf("❌ Failed: %v\n", result.Err)
	case dryRun:
		successColor.Println("✅ Dry run complete, no file written")
	default:
		successColor.Printf("✅ Written to %s\n", out)
	}
}
