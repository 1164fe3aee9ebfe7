package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/newscrawler/internal/model"
)

// Existing returns the subset of urls already present in the news table.
// Callers bound len(urls); the Deduplicator sends at most 50 at a time.
func (s *Store) Existing(ctx context.Context, urls []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(urls) == 0 {
		return found, nil
	}

	query := s.rebind("SELECT url FROM news WHERE url IN (" + placeholders(len(urls)) + ")")
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		found[u] = struct{}{}
	}

	return found, rows.Err()
}

// Insert stores an accepted article. Failures are returned as
// *PersistenceError; a URL that is already stored wraps ErrDuplicateURL.
func (s *Store) Insert(ctx context.Context, article *model.PersistedArticle) error {
	query := s.rebind(`
	INSERT INTO news (language, source, date, content, url, title, news_type)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		string(article.Language),
		article.Source,
		article.Date,
		article.Content,
		article.URL,
		article.Title,
		article.Tags,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &PersistenceError{URL: article.URL, Err: fmt.Errorf("%w: %w", ErrDuplicateURL, err)}
		}
		return &PersistenceError{URL: article.URL, Err: err}
	}

	return nil
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// RecentArticles returns up to limit stored articles, newest first.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]model.PersistedArticle, error) {
	if limit <= 0 {
		limit = 20
	}

	query := s.rebind(`
	SELECT language, source, date, content, url, title, news_type
	FROM news
	ORDER BY id DESC
	LIMIT ?
	`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.PersistedArticle, 0, limit)
	for rows.Next() {
		var (
			a        model.PersistedArticle
			lang     string
			content  sql.NullString
			title    sql.NullString
			newsType sql.NullString
		)
		if err := rows.Scan(&lang, &a.Source, &a.Date, &content, &a.URL, &title, &newsType); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.Language = model.Language(lang)
		a.Content = content.String
		a.Title = title.String
		a.Tags = newsType.String
		articles = append(articles, a)
	}

	return articles, rows.Err()
}
