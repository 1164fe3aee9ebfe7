package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/newscrawler/internal/crawler"
	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/extractor"
	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/retry"
)

// DefaultPacing is the pause between two article URLs of a source.
const DefaultPacing = time.Second

// Skip reasons recorded in SourceReport.Skipped.
const (
	SkipNoURLs    = "no URLs discovered"
	SkipNoNewURLs = "no new URLs"
)

// PageFetcher returns the text of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// URLDiscoverer lists candidate article URLs found on a homepage.
type URLDiscoverer interface {
	DiscoverURLs(ctx context.Context, page string) ([]string, error)
}

// URLFilter drops URLs that are already stored.
type URLFilter interface {
	FilterNew(ctx context.Context, urls []string) ([]string, error)
}

// ArticleExtractor judges an article page.
type ArticleExtractor interface {
	Extract(ctx context.Context, page string, lang model.Language) (extractor.Result, error)
}

// ArticleWriter persists accepted articles.
type ArticleWriter interface {
	Insert(ctx context.Context, article *model.PersistedArticle) error
}

// cleanPage returns the cleaned page, or the raw page when it cannot be parsed.
func cleanPage(page string, logger *slog.Logger) string {
	cleaned, err := crawler.Clean(page)
	if err != nil {
		logger.Debug("failed to clean page, using raw text", "error", err)
		return page
	}
	return cleaned
}

// FetchHomepageStep downloads the source homepage.
// A failed fetch aborts the source.
type FetchHomepageStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchHomepageStep creates a homepage step.
func NewFetchHomepageStep(fetcher PageFetcher, logger *slog.Logger) *FetchHomepageStep {
	return &FetchHomepageStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *FetchHomepageStep) Name() string {
	return "fetch_homepage"
}

// Do executes the step.
func (s *FetchHomepageStep) Do(ctx context.Context, run *Run) error {
	page, err := s.fetcher.Fetch(ctx, run.Source.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch homepage: %w", err)
	}

	run.Homepage = cleanPage(page, s.logger)
	s.logger.Debug("homepage fetched",
		"source", run.Source.Name,
		"bytes", len(page),
		"cleaned_bytes", len(run.Homepage),
	)
	return nil
}

// DiscoverStep asks the oracle for article URLs and resolves them against
// the source origin. An oracle failure counts as nothing discovered.
type DiscoverStep struct {
	oracle URLDiscoverer
	logger *slog.Logger
}

// NewDiscoverStep creates a discovery step.
func NewDiscoverStep(oracle URLDiscoverer, logger *slog.Logger) *DiscoverStep {
	return &DiscoverStep{oracle: oracle, logger: logger}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover_urls"
}

// Do executes the step.
func (s *DiscoverStep) Do(ctx context.Context, run *Run) error {
	raw, err := s.oracle.DiscoverURLs(ctx, run.Homepage)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("url discovery failed",
			"source", run.Source.Name,
			"error", err,
		)
		raw = nil
	}

	run.Discovered = crawler.Normalize(raw, run.Source.URL)
	run.Report.Discovered = len(run.Discovered)

	if len(run.Discovered) == 0 {
		run.Report.Skipped = SkipNoURLs
		return ErrSkipSource
	}

	s.logger.Info("urls discovered",
		"source", run.Source.Name,
		"count", len(run.Discovered),
	)
	return nil
}

// DedupStep keeps only URLs that are not stored yet.
type DedupStep struct {
	filter URLFilter
	logger *slog.Logger
}

// NewDedupStep creates a deduplication step.
func NewDedupStep(filter URLFilter, logger *slog.Logger) *DedupStep {
	return &DedupStep{filter: filter, logger: logger}
}

// Name returns the step name.
func (s *DedupStep) Name() string {
	return "dedup"
}

// Do executes the step.
func (s *DedupStep) Do(ctx context.Context, run *Run) error {
	fresh, err := s.filter.FilterNew(ctx, run.Discovered)
	if err != nil {
		return err
	}

	run.Fresh = fresh
	run.Report.New = len(fresh)

	if len(fresh) == 0 {
		run.Report.Skipped = SkipNoNewURLs
		return ErrSkipSource
	}
	return nil
}

// ProcessArticlesStep fetches, extracts and persists every new URL in order.
// A failure on one URL is recorded and never stops the remaining URLs.
type ProcessArticlesStep struct {
	fetcher   PageFetcher
	extractor ArticleExtractor
	store     ArticleWriter
	pacing    time.Duration
	sleep     retry.Sleeper
	now       func() time.Time
	logger    *slog.Logger
}

// ProcessOption configures a ProcessArticlesStep.
type ProcessOption func(*ProcessArticlesStep)

// WithPacing sets the pause between two URLs.
func WithPacing(d time.Duration) ProcessOption {
	return func(s *ProcessArticlesStep) {
		s.pacing = d
	}
}

// WithPacingSleeper replaces the pause implementation. Useful for tests.
func WithPacingSleeper(sleep retry.Sleeper) ProcessOption {
	return func(s *ProcessArticlesStep) {
		s.sleep = sleep
	}
}

// WithProcessClock sets the clock used to date articles without a publish date.
func WithProcessClock(now func() time.Time) ProcessOption {
	return func(s *ProcessArticlesStep) {
		s.now = now
	}
}

// WithProcessLogger sets the logger.
func WithProcessLogger(logger *slog.Logger) ProcessOption {
	return func(s *ProcessArticlesStep) {
		s.logger = logger
	}
}

// NewProcessArticlesStep creates the article processing step.
func NewProcessArticlesStep(fetcher PageFetcher, ext ArticleExtractor, store ArticleWriter, opts ...ProcessOption) *ProcessArticlesStep {
	s := &ProcessArticlesStep{
		fetcher:   fetcher,
		extractor: ext,
		store:     store,
		pacing:    DefaultPacing,
		sleep:     retry.Sleep,
		now:       time.Now,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProcessArticlesStep) Name() string {
	return "process_articles"
}

// Do executes the step. Only cancellation ends it early.
func (s *ProcessArticlesStep) Do(ctx context.Context, run *Run) error {
	for i, articleURL := range run.Fresh {
		if i > 0 && s.pacing > 0 {
			if err := s.sleep(ctx, s.pacing); err != nil {
				return err
			}
		}

		outcome, err := s.process(ctx, run.Source, articleURL)
		if err != nil {
			return err
		}
		run.Report.AddOutcome(outcome)
	}

	s.logger.Info("source processed",
		"source", run.Source.Name,
		"new", len(run.Fresh),
		"accepted", run.Report.Count(model.OutcomeAccepted),
		"rejected", run.Report.Count(model.OutcomeRejected),
		"failed", run.Report.Count(model.OutcomeFailed),
	)
	return nil
}

// process handles one URL. The returned error is always ctx.Err().
func (s *ProcessArticlesStep) process(ctx context.Context, source model.Source, articleURL string) (model.URLOutcome, error) {
	logger := s.logger.With("source", source.Name, "url", articleURL)

	page, err := s.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.URLOutcome{}, ctxErr
		}
		logger.Warn("failed to fetch article", "error", err)
		return failed(articleURL, err), nil
	}

	result, err := s.extractor.Extract(ctx, cleanPage(page, logger), source.Language)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.URLOutcome{}, ctxErr
		}
		logger.Error("failed to extract article", "error", err)
		return failed(articleURL, err), nil
	}

	if !result.Accepted() {
		logger.Debug("article rejected", "reason", result.Reason)
		return model.URLOutcome{URL: articleURL, Status: model.OutcomeRejected, Reason: result.Reason}, nil
	}

	article := model.NewPersistedArticle(result.Article, source, articleURL, s.now())
	if err := s.store.Insert(ctx, article); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.URLOutcome{}, ctxErr
		}
		if errors.Is(err, database.ErrDuplicateURL) {
			logger.Warn("article already stored", "error", err)
		} else {
			logger.Error("failed to save article", "error", err)
		}
		return failed(articleURL, err), nil
	}

	logger.Info("article saved",
		"title", article.Title,
		"date", article.Date,
		"tags", article.Tags,
	)
	return model.URLOutcome{
		URL:    articleURL,
		Status: model.OutcomeAccepted,
		Title:  article.Title,
		Tags:   result.Article.Tags,
	}, nil
}

// failed builds a failure outcome.
func failed(articleURL string, err error) model.URLOutcome {
	return model.URLOutcome{URL: articleURL, Status: model.OutcomeFailed, Reason: err.Error()}
}
