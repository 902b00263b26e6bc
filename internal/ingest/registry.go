package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all listing sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig tunes how the content-extraction service renders a page.
type FetchConfig struct {
	WaitMS          int   `yaml:"wait_ms,omitempty"`
	OnlyMainContent *bool `yaml:"only_main_content,omitempty"`
}

// SourceConfig defines a single listing site.
type SourceConfig struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	BaseURL    string      `yaml:"base_url"`    // origin used to absolutize relative links
	ListingURL string      `yaml:"listing_url"` // page handed to the fetcher
	Parser     string      `yaml:"parser"`
	Enabled    bool        `yaml:"enabled"`
	Fetch      FetchConfig `yaml:"fetch,omitempty"`
}

// LoadRegistry reads the sources file at path, or the embedded default
// when path is empty. ${VAR} references are expanded from the environment.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	for i, src := range reg.Sources {
		if src.ID == "" || src.ListingURL == "" || src.Parser == "" {
			return nil, fmt.Errorf("registry entry %d: id, listing_url and parser are required", i)
		}
	}

	return &reg, nil
}

// Enabled returns the sources that should be scraped, in file order.
func (r *Registry) Enabled() []SourceConfig {
	var out []SourceConfig
	for _, src := range r.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

func (r *Registry) Get(id string) (SourceConfig, bool) {
	for _, src := range r.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return SourceConfig{}, false
}
