package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO date layout used for publish dates.
const DateLayout = "2006-01-02"

// TagSeparator joins validated tags into the persisted tags column.
const TagSeparator = ", "

// ExtractedArticle is the validated result of content extraction for one URL.
// It only lives while that URL is processed and is never partially persisted.
type ExtractedArticle struct {
	// Title is the article headline.
	Title string `json:"title"`

	// Summary is a short summary of at most four sentences.
	Summary string `json:"summary"`

	// Tags contains categories from the language's controlled vocabulary,
	// in canonical casing and first-seen order without duplicates.
	Tags []string `json:"tags"`

	// PublishDate is the ISO date (YYYY-MM-DD) or empty when the page had none.
	PublishDate string `json:"publish_date"`

	// IsRelevant is the oracle's relevance judgment.
	IsRelevant bool `json:"is_relevant"`
}

// PersistedArticle is the row written to the article store.
// The URL is unique across all persisted articles.
type PersistedArticle struct {
	Language Language `json:"language"`
	Source   string   `json:"source"`
	Date     string   `json:"date"`

	// Content holds the summary, not the full article body.
	Content string `json:"content"`

	URL   string `json:"url"`
	Title string `json:"title"`

	// Tags is the comma-joined controlled vocabulary.
	Tags string `json:"tags"`
}

// NewPersistedArticle builds the store row for an accepted article.
// A missing publish date is filled with now's date; this only happens
// at persistence time, never during extraction.
func NewPersistedArticle(article *ExtractedArticle, source Source, articleURL string, now time.Time) *PersistedArticle {
	date := strings.TrimSpace(article.PublishDate)
	if date == "" {
		date = now.Format(DateLayout)
	}

	return &PersistedArticle{
		Language: source.Language,
		Source:   source.Name,
		Date:     date,
		Content:  article.Summary,
		URL:      articleURL,
		Title:    article.Title,
		Tags:     strings.Join(article.Tags, TagSeparator),
	}
}

// SplitTags reverses the join applied to the persisted tags column.
func SplitTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
