package model

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidSourceURL is returned when a source URL is not an absolute http(s) URL.
var ErrInvalidSourceURL = errors.New("invalid source URL: must be an absolute http or https URL")

// ErrEmptySourceName is returned when a source has no display name.
var ErrEmptySourceName = errors.New("invalid source: name must not be empty")

// Source is a configured website to crawl.
// Sources are read-only inside a crawl cycle; identity is the URL.
type Source struct {
	// URL is the homepage (or section page) that lists article links.
	URL string `json:"url" yaml:"url"`

	// Language selects the extraction prompt and tag vocabulary.
	Language Language `json:"language" yaml:"language"`

	// Name is the display name persisted with every article from this source.
	Name string `json:"name" yaml:"name"`

	// Info is free-form metadata kept alongside the source. The crawler never interprets it.
	Info string `json:"info,omitempty" yaml:"info,omitempty"`

	// Active reports whether the source takes part in crawl cycles.
	Active bool `json:"active" yaml:"active"`
}

// Validate checks that the source can be crawled.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptySourceName
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidSourceURL
	}
	return nil
}
