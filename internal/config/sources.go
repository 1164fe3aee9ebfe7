package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/newscrawler/internal/model"
)

// SourceEntry is one source in a source import file.
type SourceEntry struct {
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
	Name     string `yaml:"name"`
	Info     string `yaml:"info,omitempty"`

	// Active defaults to true when omitted.
	Active *bool `yaml:"active,omitempty"`
}

// SourceFile represents a YAML file of sources for `sources add --file`.
//
//	sources:
//	  - url: https://news.example/
//	    language: en
//	    name: Example News
type SourceFile struct {
	Sources []SourceEntry `yaml:"sources"`
}

// LoadSourceFile reads a source import file.
func LoadSourceFile(path string) (*SourceFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var sf SourceFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &sf, nil
}

// ToSources converts the entries into validated sources.
// Unknown language codes fall back to simplified Chinese.
func (sf *SourceFile) ToSources() ([]model.Source, error) {
	sources := make([]model.Source, 0, len(sf.Sources))
	for i, e := range sf.Sources {
		lang, _ := model.ParseLanguage(e.Language)
		active := true
		if e.Active != nil {
			active = *e.Active
		}

		src := model.Source{
			URL:      e.URL,
			Language: lang,
			Name:     e.Name,
			Info:     e.Info,
			Active:   active,
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i+1, e.URL, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
