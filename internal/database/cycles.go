package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/newscrawler/internal/model"
)

// CycleRecord summarizes a stored crawl cycle without loading the full report.
type CycleRecord struct {
	// ID is the cycle identifier.
	ID string `json:"id"`

	// StartedAt and FinishedAt bound the cycle.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Totals are the aggregated counts of the cycle.
	Totals model.CycleTotals `json:"totals"`

	// Cancelled reports whether the cycle was interrupted.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error is set when the cycle could not run, for example because the
	// source registry was unreachable.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the cycle ran.
func (r CycleRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveCycle stores a finished cycle report.
func (s *Store) SaveCycle(ctx context.Context, report *model.CycleReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle report: %w", err)
	}

	totals := report.Totals()
	query := s.rebind(`
	INSERT INTO crawl_cycles (id, started_at, finished_at, sources, failed_sources,
		discovered, new_urls, accepted, rejected, failed, cancelled, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		totals.Sources,
		totals.FailedSources,
		totals.Discovered,
		totals.New,
		totals.Accepted,
		totals.Rejected,
		totals.Failed,
		report.Cancelled,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}
	return nil
}

// ListCycles returns up to limit cycles, newest first.
func (s *Store) ListCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := s.rebind(`
	SELECT id, started_at, finished_at, sources, failed_sources,
		discovered, new_urls, accepted, rejected, failed, cancelled, error
	FROM crawl_cycles
	ORDER BY started_at DESC
	LIMIT ?
	`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	records := make([]CycleRecord, 0, limit)
	for rows.Next() {
		var (
			rec      CycleRecord
			started  string
			finished sql.NullString
			errText  sql.NullString
		)
		err := rows.Scan(
			&rec.ID,
			&started,
			&finished,
			&rec.Totals.Sources,
			&rec.Totals.FailedSources,
			&rec.Totals.Discovered,
			&rec.Totals.New,
			&rec.Totals.Accepted,
			&rec.Totals.Rejected,
			&rec.Totals.Failed,
			&rec.Cancelled,
			&errText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished.String)
		rec.Error = errText.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetCycle loads the full report of a stored cycle.
func (s *Store) GetCycle(ctx context.Context, id string) (*model.CycleReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT report_json FROM crawl_cycles WHERE id = ?"), id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}

	var report model.CycleReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse cycle report: %w", err)
	}
	return &report, nil
}
