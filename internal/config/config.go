// Package config loads the application configuration from environment
// variables and an optional .env file, plus a per-document korrektur.yml
// sidecar with run-specific overrides.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// Config holds the application's configuration values.
type Config struct {
	LLMProvider        string
	OllamaHost         string
	GeneratorModelName string
	GeminiAPIKey       string

	MaxWorkers     int
	MaxRetries     int
	MaxChunkChars  int
	OverlapChars   int
	MatchThreshold int

	Categories    []core.Category
	CommentAuthor string
	CacheEnabled  bool

	LogLevel  slog.Level
	LogFormat string
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("LLM_PROVIDER", "ollama")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("GENERATOR_MODEL_NAME", "gemma3:latest")
	viper.SetDefault("MAX_WORKERS", 4)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("MAX_CHUNK_CHARS", 4000)
	viper.SetDefault("OVERLAP_CHARS", 200)
	viper.SetDefault("MATCH_THRESHOLD", 85)
	viper.SetDefault("CATEGORIES", "grammar,style,clarity,academic")
	viper.SetDefault("COMMENT_AUTHOR", "Korrekturtool")
	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Debug("no .env file found, relying on environment", "error", err)
		}
	}
	viper.AutomaticEnv()

	cfg := &Config{
		LLMProvider:        viper.GetString("LLM_PROVIDER"),
		OllamaHost:         viper.GetString("OLLAMA_HOST"),
		GeneratorModelName: viper.GetString("GENERATOR_MODEL_NAME"),
		GeminiAPIKey:       viper.GetString("GEMINI_API_KEY"),
		MaxWorkers:         viper.GetInt("MAX_WORKERS"),
		MaxRetries:         viper.GetInt("MAX_RETRIES"),
		MaxChunkChars:      viper.GetInt("MAX_CHUNK_CHARS"),
		OverlapChars:       viper.GetInt("OVERLAP_CHARS"),
		MatchThreshold:     viper.GetInt("MATCH_THRESHOLD"),
		CommentAuthor:      viper.GetString("COMMENT_AUTHOR"),
		CacheEnabled:       viper.GetBool("CACHE_ENABLED"),
		LogFormat:          viper.GetString("LOG_FORMAT"),
	}

	// Special handling for Gemini generator model name.
	if cfg.LLMProvider == "gemini" {
		geminiModel := viper.GetString("GEMINI_GENERATOR_MODEL_NAME")
		if geminiModel != "" {
			cfg.GeneratorModelName = geminiModel
		} else {
			cfg.GeneratorModelName = "gemini-2.5-flash"
		}
	}

	categories, err := parseCategories(viper.GetString("CATEGORIES"))
	if err != nil {
		return nil, err
	}
	cfg.Categories = categories

	cfg.LogLevel = parseLogLevel(viper.GetString("LOG_LEVEL"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is called by LoadConfig and
// again after sidecar overrides are applied.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "ollama":
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST must be set when LLM_PROVIDER is ollama")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set when LLM_PROVIDER is gemini")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (valid: ollama, gemini)", c.LLMProvider)
	}

	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be in [0,100], got %d", c.MatchThreshold)
	}
	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("MAX_CHUNK_CHARS must be positive, got %d", c.MaxChunkChars)
	}
	if c.OverlapChars < 0 || c.OverlapChars >= c.MaxChunkChars {
		return fmt.Errorf("OVERLAP_CHARS must be in [0, MAX_CHUNK_CHARS), got %d", c.OverlapChars)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one correction category must be configured")
	}
	if c.CommentAuthor == "" {
		return fmt.Errorf("COMMENT_AUTHOR cannot be empty")
	}
	return nil
}

func parseCategories(s string) ([]core.Category, error) {
	var categories []core.Category
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, err := core.ParseCategory(part)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", s)
		return slog.LevelInfo
	}
}
