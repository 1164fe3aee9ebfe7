package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/newscrawler/internal/model"
)

// ListActiveSources returns the active sources in registry order.
// Unknown language codes fall back to simplified Chinese.
func (s *Store) ListActiveSources(ctx context.Context) ([]model.Source, error) {
	return s.listSources(ctx, true)
}

// ListSources returns all registered sources, active or not, in registry order.
func (s *Store) ListSources(ctx context.Context) ([]model.Source, error) {
	return s.listSources(ctx, false)
}

// listSources queries the registry.
func (s *Store) listSources(ctx context.Context, activeOnly bool) ([]model.Source, error) {
	query := `
	SELECT url, language, source_name, info, is_active
	FROM news_sources
	`
	args := make([]any, 0, 1)
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := make([]model.Source, 0)
	for rows.Next() {
		var (
			src  model.Source
			lang string
			info sql.NullString
		)
		if err := rows.Scan(&src.URL, &lang, &src.Name, &info, &src.Active); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.Language, _ = model.ParseLanguage(lang)
		src.Info = info.String
		sources = append(sources, src)
	}

	return sources, rows.Err()
}

// AddSource registers a new source. It returns ErrDuplicateSource when the
// URL is already registered.
func (s *Store) AddSource(ctx context.Context, src model.Source) error {
	if err := src.Validate(); err != nil {
		return err
	}

	query := s.rebind(`
	INSERT INTO news_sources (url, language, source_name, info, is_active)
	VALUES (?, ?, ?, ?, ?)
	`)

	var info sql.NullString
	if src.Info != "" {
		info = sql.NullString{String: src.Info, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query, src.URL, string(src.Language), src.Name, info, src.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, src.URL)
		}
		return fmt.Errorf("failed to add source: %w", err)
	}
	return nil
}

// SetSourceActive enables or disables the source with the given URL.
func (s *Store) SetSourceActive(ctx context.Context, sourceURL string, active bool) error {
	query := s.rebind("UPDATE news_sources SET is_active = ? WHERE url = ?")

	result, err := s.db.ExecContext(ctx, query, active, sourceURL)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	if n == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		exists, err := s.sourceExists(ctx, sourceURL)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, sourceURL)
		}
	}
	return nil
}

// sourceExists reports whether a source with the URL is registered.
func (s *Store) sourceExists(ctx context.Context, sourceURL string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM news_sources WHERE url = ?"), sourceURL).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to look up source: %w", err)
	}
	return count > 0, nil
}
