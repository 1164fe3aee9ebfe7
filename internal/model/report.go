package model

import "time"

// OutcomeStatus classifies what happened to a single discovered URL.
type OutcomeStatus string

const (
	// OutcomeAccepted means the article was extracted, validated and persisted.
	OutcomeAccepted OutcomeStatus = "accepted"

	// OutcomeRejected means extraction produced no article: the page was
	// irrelevant, carried no valid tag, or lacked a title or summary.
	// This is a normal outcome, not an error.
	OutcomeRejected OutcomeStatus = "rejected"

	// OutcomeFailed means fetching, extraction or persistence failed.
	OutcomeFailed OutcomeStatus = "failed"
)

// URLOutcome records the result of processing one new URL.
type URLOutcome struct {
	URL    string        `json:"url"`
	Status OutcomeStatus `json:"status"`

	// Title is set for accepted articles.
	Title string `json:"title,omitempty"`

	// Tags is set for accepted articles.
	Tags []string `json:"tags,omitempty"`

	// Reason explains a rejection or failure.
	Reason string `json:"reason,omitempty"`
}

// SourceReport collects everything observed while crawling one source
// during one cycle. Steps of the per-source pipeline fill it in.
type SourceReport struct {
	Source Source `json:"source"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Discovered is the number of normalized URLs returned by discovery.
	Discovered int `json:"discovered"`

	// New is the number of discovered URLs not yet in the article store.
	New int `json:"new"`

	// Outcomes holds one entry per processed new URL, in processing order.
	Outcomes []URLOutcome `json:"outcomes,omitempty"`

	// Skipped explains why the source stopped early without failing,
	// for example "no URLs discovered" or "no new URLs".
	Skipped string `json:"skipped,omitempty"`

	// Error is set when the source was aborted, for example because its
	// homepage could not be fetched.
	Error string `json:"error,omitempty"`

	// Cancelled is set when the cycle was cancelled while this source ran.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewSourceReport creates an empty report for the source.
func NewSourceReport(source Source, now time.Time) *SourceReport {
	return &SourceReport{
		Source:    source,
		StartedAt: now,
		Outcomes:  make([]URLOutcome, 0),
	}
}

// AddOutcome appends a URL outcome.
func (r *SourceReport) AddOutcome(outcome URLOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// Count returns the number of outcomes with the given status.
func (r *SourceReport) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether the source was aborted.
func (r *SourceReport) Failed() bool {
	return r.Error != ""
}

// Duration returns how long the source took.
func (r *SourceReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CycleReport summarizes one full pass over all active sources.
type CycleReport struct {
	// ID identifies the cycle in logs and in the history table.
	ID string `json:"id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Sources holds one report per source, in registry order.
	Sources []*SourceReport `json:"sources"`

	// Cancelled is set when the cycle stopped before visiting every source.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error is set when the cycle could not start, for example because the
	// source registry was unreachable.
	Error string `json:"error,omitempty"`
}

// NewCycleReport creates an empty cycle report.
func NewCycleReport(id string, now time.Time) *CycleReport {
	return &CycleReport{
		ID:        id,
		StartedAt: now,
		Sources:   make([]*SourceReport, 0),
	}
}

// AddSource appends a finished source report.
func (c *CycleReport) AddSource(r *SourceReport) {
	c.Sources = append(c.Sources, r)
}

// Duration returns how long the cycle took.
func (c *CycleReport) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}

// CycleTotals aggregates the per-source counters of a cycle.
type CycleTotals struct {
	Sources       int `json:"sources"`
	FailedSources int `json:"failed_sources"`
	Discovered    int `json:"discovered"`
	New           int `json:"new"`
	Accepted      int `json:"accepted"`
	Rejected      int `json:"rejected"`
	Failed        int `json:"failed"`
}

// Totals aggregates counters across all sources.
func (c *CycleReport) Totals() CycleTotals {
	t := CycleTotals{Sources: len(c.Sources)}
	for _, s := range c.Sources {
		if s.Failed() {
			t.FailedSources++
		}
		t.Discovered += s.Discovered
		t.New += s.New
		t.Accepted += s.Count(OutcomeAccepted)
		t.Rejected += s.Count(OutcomeRejected)
		t.Failed += s.Count(OutcomeFailed)
	}
	return t
}
