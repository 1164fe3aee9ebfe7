package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
)

// JSONWriter renders cycle reports, history, articles and sources as JSON
// for scripts and dashboards. Lists are always arrays, never null.
//
// HTML escaping is disabled so article URLs with query strings stay
// readable ("&" instead of "\u0026").
type JSONWriter struct {
	baseWriter

	// prefix and indent are passed to json.Encoder.SetIndent.
	// An empty indent keeps the output on one line.
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the cycle report.
func (w *JSONWriter) Write(report *model.CycleReport) (int, error) {
	return w.encode(report)
}

// WriteHistory outputs the cycle records as an array.
func (w *JSONWriter) WriteHistory(records []database.CycleRecord) (int, error) {
	return w.encode(orEmpty(records))
}

// WriteArticles outputs the articles as an array.
func (w *JSONWriter) WriteArticles(articles []model.PersistedArticle) (int, error) {
	return w.encode(orEmpty(articles))
}

// WriteSources outputs the sources as an array.
func (w *JSONWriter) WriteSources(sources []model.Source) (int, error) {
	return w.encode(orEmpty(sources))
}

// encode writes v followed by a newline in a single call to the output.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" || w.prefix != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// orEmpty turns a nil slice into an empty one so it encodes as [].
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// JSONReport is the document written by `run --format json` and by the
// serve report files: the cycle plus the crawler version and precomputed
// totals, so consumers need not re-aggregate per-source counters.
type JSONReport struct {
	Version string             `json:"version"`
	Report  *model.CycleReport `json:"report"`
	Totals  model.CycleTotals  `json:"totals"`
}

// NewJSONReport wraps report with version and totals.
func NewJSONReport(report *model.CycleReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Totals:  report.Totals(),
	}
}

// FullJSONWriter is a JSONWriter whose Write emits a JSONReport.
// History, articles and sources are written unchanged.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping reports with version.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the cycle report wrapped in a JSONReport.
func (w *FullJSONWriter) Write(report *model.CycleReport) (int, error) {
	return w.encode(NewJSONReport(report, w.version))
}
