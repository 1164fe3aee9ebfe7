package model

import (
	"testing"
	"time"
)

// TestCycleReportTotals tests aggregation across source reports.
func TestCycleReportTotals(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	cycle := NewCycleReport("cycle-1", start)

	first := NewSourceReport(Source{Name: "A"}, start)
	first.Discovered = 5
	first.New = 3
	first.AddOutcome(URLOutcome{URL: "https://a.example/1", Status: OutcomeAccepted})
	first.AddOutcome(URLOutcome{URL: "https://a.example/2", Status: OutcomeRejected})
	first.AddOutcome(URLOutcome{URL: "https://a.example/3", Status: OutcomeFailed})
	cycle.AddSource(first)

	second := NewSourceReport(Source{Name: "B"}, start)
	second.Error = "fetch homepage: timeout"
	cycle.AddSource(second)

	cycle.FinishedAt = start.Add(90 * time.Second)

	got := cycle.Totals()
	want := CycleTotals{
		Sources:       2,
		FailedSources: 1,
		Discovered:    5,
		New:           3,
		Accepted:      1,
		Rejected:      1,
		Failed:        1,
	}
	if got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}

	if cycle.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", cycle.Duration())
	}
}

// TestSourceReportDuration tests duration before and after completion.
func TestSourceReportDuration(t *testing.T) {
	t.Parallel()

	start := time.Now()
	r := NewSourceReport(Source{Name: "A"}, start)
	if r.Duration() != 0 {
		t.Errorf("expected zero duration before finish, got %v", r.Duration())
	}

	r.FinishedAt = start.Add(time.Second)
	if r.Duration() != time.Second {
		t.Errorf("expected 1s, got %v", r.Duration())
	}
	if r.Failed() {
		t.Error("report without error should not be failed")
	}
}
