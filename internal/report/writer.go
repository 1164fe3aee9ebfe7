package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
)

// Writer defines the interface for report output.
// Implementations write crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs a cycle report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CycleReport) (int, error)

	// WriteHistory outputs a list of stored cycle summaries, newest first.
	WriteHistory(records []database.CycleRecord) (int, error)

	// WriteArticles outputs stored articles.
	WriteArticles(articles []model.PersistedArticle) (int, error)

	// WriteSources outputs the source registry.
	WriteSources(sources []model.Source) (int, error)
}

// Format names an output format.
type Format string

const (
	// FormatText is the human-readable terminal format.
	FormatText Format = "text"
	// FormatJSON is the machine-readable format.
	FormatJSON Format = "json"
	// FormatMarkdown is the shareable Markdown format.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat converts a format name into a Format. Empty means text;
// "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or markdown)", ErrUnknownFormat, s)
	}
}

// New creates the Writer for the format. version is embedded in JSON output.
func New(format Format, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CycleReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(records []database.CycleRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(records) })
}

// WriteArticles outputs the articles to all configured Writers.
func (m *MultiWriter) WriteArticles(articles []model.PersistedArticle) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteArticles(articles) })
}

// WriteSources outputs the sources to all configured Writers.
func (m *MultiWriter) WriteSources(sources []model.Source) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSources(sources) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for all human-readable timestamps.
const timeLayout = "2006-01-02 15:04:05 MST"

// cycleStatus summarizes how a cycle ended.
func cycleStatus(cancelled bool, errMsg string) string {
	switch {
	case errMsg != "":
		return "ERROR - " + errMsg
	case cancelled:
		return "CANCELLED (partial results)"
	default:
		return "Complete"
	}
}

// sourceStatus summarizes how a source ended.
func sourceStatus(s *model.SourceReport) string {
	switch {
	case s.Failed():
		return "FAILED"
	case s.Cancelled:
		return "CANCELLED"
	case s.Skipped != "":
		return "SKIPPED"
	default:
		return "OK"
	}
}

// activeText renders the active flag of a source.
func activeText(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
