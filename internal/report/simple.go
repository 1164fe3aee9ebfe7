package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Cron and systemd logs keep it readable
type SimpleWriter struct {
	baseWriter

	// verbose lists rejected and failed URLs, not only accepted articles.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with every URL outcome.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the cycle report in human-readable format.
func (w *SimpleWriter) Write(report *model.CycleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeTotals(&sb, report)
	w.writeSources(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with cycle information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CycleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      NEWSCRAWLER CYCLE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Cycle:     %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", report.Duration()))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", cycleStatus(report.Cancelled, report.Error)))
	sb.WriteString("\n")
}

// writeTotals writes the aggregated counters.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, report *model.CycleReport) {
	t := report.Totals()

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  SOURCES:     %d (%d failed)\n", t.Sources, t.FailedSources))
	sb.WriteString(fmt.Sprintf("  DISCOVERED:  %d\n", t.Discovered))
	sb.WriteString(fmt.Sprintf("  NEW:         %d\n", t.New))
	sb.WriteString(fmt.Sprintf("  ACCEPTED:    %d\n", t.Accepted))
	sb.WriteString(fmt.Sprintf("  REJECTED:    %d\n", t.Rejected))
	sb.WriteString(fmt.Sprintf("  FAILED:      %d\n", t.Failed))
	sb.WriteString("\n")
}

// writeSources writes one block per source.
func (w *SimpleWriter) writeSources(sb *strings.Builder, report *model.CycleReport) {
	if len(report.Sources) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, s := range report.Sources {
		sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n", sourceStatus(s), s.Source.Name, s.Source.URL))
		sb.WriteString(fmt.Sprintf("  discovered %d, new %d, accepted %d, rejected %d, failed %d\n",
			s.Discovered, s.New,
			s.Count(model.OutcomeAccepted), s.Count(model.OutcomeRejected), s.Count(model.OutcomeFailed)))

		if s.Error != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", s.Error))
		}
		if s.Skipped != "" {
			sb.WriteString(fmt.Sprintf("  skipped: %s\n", s.Skipped))
		}

		for _, o := range s.Outcomes {
			w.writeOutcome(sb, o)
		}
		sb.WriteString("\n")
	}
}

// writeOutcome writes a single URL outcome. Only accepted articles are
// listed unless verbose is set.
func (w *SimpleWriter) writeOutcome(sb *strings.Builder, o model.URLOutcome) {
	switch o.Status {
	case model.OutcomeAccepted:
		sb.WriteString(fmt.Sprintf("  [+] %s\n", o.Title))
		sb.WriteString(fmt.Sprintf("      %s\n", o.URL))
		if len(o.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("      tags: %s\n", strings.Join(o.Tags, model.TagSeparator)))
		}
	case model.OutcomeRejected:
		if w.verbose {
			sb.WriteString(fmt.Sprintf("  [-] %s: %s\n", o.URL, o.Reason))
		}
	case model.OutcomeFailed:
		if w.verbose {
			sb.WriteString(fmt.Sprintf("  [x] %s: %s\n", o.URL, o.Reason))
		}
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteHistory outputs the cycle history as a table.
func (w *SimpleWriter) WriteHistory(records []database.CycleRecord) (int, error) {
	if len(records) == 0 {
		return io.WriteString(w.output, "No crawl cycles recorded.\n")
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ID,
			r.StartedAt.Format(timeLayout),
			r.Duration().String(),
			strconv.Itoa(r.Totals.Sources),
			strconv.Itoa(r.Totals.New),
			strconv.Itoa(r.Totals.Accepted),
			strconv.Itoa(r.Totals.Rejected),
			strconv.Itoa(r.Totals.Failed),
			cycleStatus(r.Cancelled, r.Error),
		}
	}

	return w.renderTable(
		[]string{"ID", "STARTED", "DURATION", "SOURCES", "NEW", "ACCEPTED", "REJECTED", "FAILED", "STATUS"},
		rows,
	)
}

// WriteArticles outputs stored articles as a table.
func (w *SimpleWriter) WriteArticles(articles []model.PersistedArticle) (int, error) {
	if len(articles) == 0 {
		return io.WriteString(w.output, "No articles stored.\n")
	}

	rows := make([][]string, len(articles))
	for i, a := range articles {
		rows[i] = []string{
			a.Date,
			string(a.Language),
			a.Source,
			truncateString(a.Title, 60),
			a.Tags,
			a.URL,
		}
	}

	return w.renderTable([]string{"DATE", "LANG", "SOURCE", "TITLE", "TAGS", "URL"}, rows)
}

// WriteSources outputs the source registry as a table.
func (w *SimpleWriter) WriteSources(sources []model.Source) (int, error) {
	if len(sources) == 0 {
		return io.WriteString(w.output, "No sources registered.\n")
	}

	rows := make([][]string, len(sources))
	for i, s := range sources {
		rows[i] = []string{s.Name, string(s.Language), activeText(s.Active), s.URL}
	}

	return w.renderTable([]string{"NAME", "LANG", "ACTIVE", "URL"}, rows)
}

// renderTable renders a borderless table and returns the bytes written.
func (w *SimpleWriter) renderTable(header []string, rows [][]string) (int, error) {
	var sb strings.Builder

	table := tablewriter.NewTable(&sb,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return 0, fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render table: %w", err)
	}

	return io.WriteString(w.output, sb.String())
}
