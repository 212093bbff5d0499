package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

func validConfig() *Config {
	return &Config{
		LLMProvider:        "ollama",
		OllamaHost:         "http://localhost:11434",
		GeneratorModelName: "gemma3:latest",
		MaxWorkers:         4,
		MaxRetries:         3,
		MaxChunkChars:      4000,
		OverlapChars:       200,
		MatchThreshold:     85,
		Categories:         core.AllCategories(),
		CommentAuthor:      "Korrekturtool",
		LogLevel:           slog.LevelInfo,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"gemini without key", func(c *Config) { c.LLMProvider = "gemini" }, true},
		{"gemini with key", func(c *Config) { c.LLMProvider = "gemini"; c.GeminiAPIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "openai" }, true},
		{"threshold too high", func(c *Config) { c.MatchThreshold = 101 }, true},
		{"overlap exceeds chunk size", func(c *Config) { c.OverlapChars = 5000 }, true},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }, true},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, true},
		{"no categories", func(c *Config) { c.Categories = nil }, true},
		{"empty author", func(c *Config) { c.CommentAuthor = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDocConfig(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "thesis.docx")

	t.Run("missing sidecar", func(t *testing.T) {
		_, err := LoadDocConfig(docPath)
		assert.ErrorIs(t, err, ErrDocConfigNotFound)
	})

	t.Run("valid sidecar", func(t *testing.T) {
		sidecar := filepath.Join(dir, "korrektur.yml")
		content := "categories:\n  - grammar\n  - academic\nmatch_threshold: 90\ncomment_author: Gutachterin\n"
		require.NoError(t, os.WriteFile(sidecar, []byte(content), 0600))

		dc, err := LoadDocConfig(docPath)
		require.NoError(t, err)
		assert.Equal(t, []string{"grammar", "academic"}, dc.Categories)
		assert.Equal(t, 90, dc.MatchThreshold)
		assert.Equal(t, "Gutachterin", dc.CommentAuthor)
	})

	t.Run("broken yaml", func(t *testing.T) {
		sidecar := filepath.Join(dir, "korrektur.yml")
		require.NoError(t, os.WriteFile(sidecar, []byte(":\n  - ["), 0600))

		_, err := LoadDocConfig(docPath)
		assert.ErrorIs(t, err, ErrDocConfigParsing)
	})
}

func TestConfigApply(t *testing.T) {
	cfg := validConfig()
	err := cfg.Apply(&DocConfig{
		Categories:     []string{"grammar"},
		MatchThreshold: 92,
		CommentAuthor:  "Betreuer",
	})
	require.NoError(t, err)

	assert.Equal(t, []core.Category{core.CategoryGrammar}, cfg.Categories)
	assert.Equal(t, 92, cfg.MatchThreshold)
	assert.Equal(t, "Betreuer", cfg.CommentAuthor)
	// untouched fields keep their defaults
	assert.Equal(t, 4000, cfg.MaxChunkChars)

	t.Run("invalid category rejected", func(t *testing.T) {
		cfg := validConfig()
		err := cfg.Apply(&DocConfig{Categories: []string{"spelling"}})
		assert.Error(t, err)
	})

	t.Run("nil sidecar is a no-op", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Apply(nil))
		assert.Equal(t, core.AllCategories(), cfg.Categories)
	})
}
