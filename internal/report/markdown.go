package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
)

// MarkdownWriter renders documents as GitHub-flavored Markdown, for cycle
// reports pasted into issues or kept next to the serve report files.
// Cycle reports carry a mermaid pie chart of article outcomes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter returns a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the cycle report: header, totals chart, one section per source.
func (w *MarkdownWriter) Write(report *model.CycleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeTotals(md, report)
	w.writeSources(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with cycle information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CycleReport) {
	md.H1("Crawl Cycle Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Cycle", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Duration", report.Duration().String()},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(report *model.CycleReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

// writeTotals writes the aggregated counters, the outcome chart and an alert.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, report *model.CycleReport) {
	t := report.Totals()

	md.H2("Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Sources", strconv.Itoa(t.Sources)},
			{"Failed sources", strconv.Itoa(t.FailedSources)},
			{"Discovered URLs", strconv.Itoa(t.Discovered)},
			{"New URLs", strconv.Itoa(t.New)},
			{"🟢 Accepted", strconv.Itoa(t.Accepted)},
			{"⚪ Rejected", strconv.Itoa(t.Rejected)},
			{"🔴 Failed", strconv.Itoa(t.Failed)},
		},
	})
	md.PlainText("")

	if t.Accepted+t.Rejected+t.Failed > 0 {
		w.writePieChart(md, t)
	}

	w.writeAlert(md, report, t)
}

// writePieChart writes a mermaid pie chart of URL outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, t model.CycleTotals) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcomes"),
		piechart.WithShowData(true),
	)

	if t.Accepted > 0 {
		chart.LabelAndIntValue("Accepted", uint64(t.Accepted))
	}
	if t.Rejected > 0 {
		chart.LabelAndIntValue("Rejected", uint64(t.Rejected))
	}
	if t.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(t.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert for the cycle outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CycleReport, t model.CycleTotals) {
	switch {
	case report.Error != "":
		md.Cautionf("The cycle could not run: %s", report.Error)
	case report.Cancelled:
		md.Cautionf("The cycle was cancelled after %d source(s).", t.Sources)
	case t.FailedSources > 0:
		md.Warningf("%d source(s) failed. Their homepages could not be fetched.", t.FailedSources)
	case t.Failed > 0:
		md.Importantf("%d URL(s) failed to fetch, extract or persist.", t.Failed)
	case t.Accepted == 0:
		md.Note("No new articles were stored in this cycle.")
	default:
		md.Tip(strconv.Itoa(t.Accepted) + " new article(s) stored.")
	}
	md.PlainText("")
}

// writeSources writes one section per source.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *model.CycleReport) {
	md.H2("Sources")
	md.PlainText("")

	if len(report.Sources) == 0 {
		md.PlainText("No sources were crawled.")
		md.PlainText("")
		return
	}

	for _, s := range report.Sources {
		md.H3(s.Source.Name + " (" + sourceStatus(s) + ")")
		md.PlainText("")
		md.PlainTextf("%s · discovered %d · new %d", s.Source.URL, s.Discovered, s.New)
		md.PlainText("")

		if s.Error != "" {
			md.Warningf("Source failed: %s", s.Error)
			md.PlainText("")
		}
		if s.Skipped != "" {
			md.PlainTextf("Skipped: %s", s.Skipped)
			md.PlainText("")
		}

		if len(s.Outcomes) > 0 {
			w.writeOutcomesTable(md, s.Outcomes)
		}
	}
}

// writeOutcomesTable writes a table of URL outcomes.
func (w *MarkdownWriter) writeOutcomesTable(md *markdown.Markdown, outcomes []model.URLOutcome) {
	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		detail := o.Reason
		if o.Status == model.OutcomeAccepted {
			detail = o.Title
			if len(o.Tags) > 0 {
				detail += " [" + strings.Join(o.Tags, model.TagSeparator) + "]"
			}
		}
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			string(o.Status),
			truncateString(o.URL, 60),
			truncateString(detail, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "URL", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by newscrawler*")
}

// WriteHistory outputs the cycle history as a Markdown table.
func (w *MarkdownWriter) WriteHistory(records []database.CycleRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Crawl History")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No crawl cycles recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			"`" + r.ID + "`",
			r.StartedAt.Format(timeLayout),
			r.Duration().String(),
			strconv.Itoa(r.Totals.Sources),
			strconv.Itoa(r.Totals.New),
			strconv.Itoa(r.Totals.Accepted),
			strconv.Itoa(r.Totals.Failed),
			cycleStatus(r.Cancelled, r.Error),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Cycle", "Started", "Duration", "Sources", "New", "Accepted", "Failed", "Status"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// tagCodes renders tags as inline code spans separated by spaces.
func tagCodes(tags []string) string {
	codes := make([]string, len(tags))
	for i, tag := range tags {
		codes[i] = markdown.Code(tag)
	}
	return strings.Join(codes, " ")
}

// WriteArticles outputs stored articles as a Markdown list with summaries.
func (w *MarkdownWriter) WriteArticles(articles []model.PersistedArticle) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Articles")
	md.PlainText("")

	if len(articles) == 0 {
		md.PlainText("No articles stored.")
		return len(md.String()), md.Build()
	}

	for _, a := range articles {
		md.H3(a.Title)
		md.PlainText("")
		md.PlainTextf("%s · %s · %s", a.Date, a.Source, tagCodes(model.SplitTags(a.Tags)))
		md.PlainText("")
		md.PlainText(a.Content)
		md.PlainText("")
		md.PlainText(a.URL)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// WriteSources outputs the source registry as a Markdown table.
func (w *MarkdownWriter) WriteSources(sources []model.Source) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Sources")
	md.PlainText("")

	if len(sources) == 0 {
		md.PlainText("No sources registered.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(sources))
	for i, s := range sources {
		rows[i] = []string{s.Name, string(s.Language), activeText(s.Active), s.URL}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name", "Language", "Active", "URL"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}
