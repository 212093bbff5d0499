package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/m2ix4i/korrekturtool/internal/config"
)

// Generator produces a completion for a prompt. The analyzer depends on this
// narrow interface so tests can substitute a stub for the real model client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// goframeGenerator adapts a goframe llms.Model to the Generator interface.
type goframeGenerator struct {
	model llms.Model
}

// NewGoframeGenerator wraps a goframe model.
func NewGoframeGenerator(model llms.Model) Generator {
	return &goframeGenerator{model: model}
}

func (g *goframeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for Ollama
// requests. Local models can take a while per chunk, so the defaults are too
// tight.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}

// NewModel constructs the configured generator LLM.
func NewModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	if cfg.LLMProvider == "gemini" {
		logger.Info("using Gemini as generator", "model", cfg.GeneratorModelName)
		return gemini.New(ctx,
			gemini.WithModel(cfg.GeneratorModelName),
			gemini.WithAPIKey(cfg.GeminiAPIKey),
		)
	}

	logger.Info("using Ollama as generator", "model", cfg.GeneratorModelName, "host", cfg.OllamaHost)
	model, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaHost),
		ollama.WithModel(cfg.GeneratorModelName),
		ollama.WithHTTPClient(newOllamaHTTPClient()),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama model: %w", err)
	}
	return model, nil
}
