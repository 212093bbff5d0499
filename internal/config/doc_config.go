package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

var (
	ErrDocConfigNotFound = errors.New("document config file not found")
	ErrDocConfigParsing  = errors.New("document config parsing failed")
)

// DocConfig represents the structure of an optional korrektur.yml sidecar
// placed next to the input document. It carries per-thesis overrides; zero
// values mean "keep the application default".
type DocConfig struct {
	Categories     []string `yaml:"categories"`
	MatchThreshold int      `yaml:"match_threshold"`
	CommentAuthor  string   `yaml:"comment_author"`
	MaxChunkChars  int      `yaml:"max_chunk_chars"`
	OverlapChars   int      `yaml:"overlap_chars"`
}

// LoadDocConfig loads and parses the korrektur.yml file from the directory
// containing the input document.
func LoadDocConfig(docPath string) (*DocConfig, error) {
	configPath := filepath.Join(filepath.Dir(docPath), "korrektur.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDocConfigNotFound
		}
		return nil, fmt.Errorf("failed to read korrektur.yml: %w", err)
	}

	dc := &DocConfig{}
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocConfigParsing, err)
	}
	return dc, nil
}

// Apply merges sidecar overrides into the application config and re-validates
// the result.
func (c *Config) Apply(dc *DocConfig) error {
	if dc == nil {
		return nil
	}
	if len(dc.Categories) > 0 {
		var categories []core.Category
		for _, name := range dc.Categories {
			category, err := core.ParseCategory(name)
			if err != nil {
				return fmt.Errorf("korrektur.yml: %w", err)
			}
			categories = append(categories, category)
		}
		c.Categories = categories
	}
	if dc.MatchThreshold > 0 {
		c.MatchThreshold = dc.MatchThreshold
	}
	if dc.CommentAuthor != "" {
		c.CommentAuthor = dc.CommentAuthor
	}
	if dc.MaxChunkChars > 0 {
		c.MaxChunkChars = dc.MaxChunkChars
	}
	if dc.OverlapChars > 0 {
		c.OverlapChars = dc.OverlapChars
	}
	return c.Validate()
}
