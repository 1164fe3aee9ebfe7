package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/oracle"
	"github.com/nao1215/newscrawler/internal/retry"
)

// Default extractor settings.
const (
	// DefaultAttempts is the number of two-strategy attempts per page.
	DefaultAttempts = 3

	// DefaultBackoffUnit is multiplied by 2^attempt between failed attempts.
	DefaultBackoffUnit = time.Second

	// DefaultIncompleteWait is the pause before retrying an answer that
	// lacked a title or summary.
	DefaultIncompleteWait = time.Second
)

// Oracle is the part of the content oracle the extractor needs.
type Oracle interface {
	ExtractContent(ctx context.Context, page string, lang model.Language) (map[string]any, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of extracting one page.
// Exactly one of Article and Reason is set.
type Result struct {
	// Article is the accepted article.
	Article *model.ExtractedArticle

	// Reason explains why a parsed answer was not accepted.
	Reason string
}

// Accepted reports whether the page produced an article.
func (r Result) Accepted() bool {
	return r.Article != nil
}

// strategy produces a raw answer for one page.
type strategy struct {
	name string
	run  func(ctx context.Context, page string, lang model.Language) (map[string]any, error)
}

// Extractor runs the oracle against article pages and validates the answers.
//
// Design decision: We model the structured and raw calls as an ordered list
// of strategies inside one retry loop because:
//  1. Each strategy fails independently with an ordinary error
//  2. The loop owns all waiting and counting
//  3. A new strategy is one more entry in the list
type Extractor struct {
	oracle         Oracle
	strategies     []strategy
	attempts       int
	backoffUnit    time.Duration
	incompleteWait time.Duration
	sleep          retry.Sleeper
	logger         *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAttempts sets the number of attempts. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(e *Extractor) {
		if n >= 1 {
			e.attempts = n
		}
	}
}

// WithBackoffUnit sets the unit multiplied by 2^attempt between failed attempts.
func WithBackoffUnit(d time.Duration) Option {
	return func(e *Extractor) {
		e.backoffUnit = d
	}
}

// WithIncompleteWait sets the pause before retrying an incomplete answer.
func WithIncompleteWait(d time.Duration) Option {
	return func(e *Extractor) {
		e.incompleteWait = d
	}
}

// WithSleeper replaces the wait between attempts. Useful for tests.
func WithSleeper(s retry.Sleeper) Option {
	return func(e *Extractor) {
		e.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor backed by o.
func New(o Oracle, opts ...Option) *Extractor {
	e := &Extractor{
		oracle:         o,
		attempts:       DefaultAttempts,
		backoffUnit:    DefaultBackoffUnit,
		incompleteWait: DefaultIncompleteWait,
		sleep:          retry.Sleep,
		logger:         slog.Default(),
	}
	e.strategies = []strategy{
		{name: "structured", run: e.structured},
		{name: "raw", run: e.raw},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract judges one article page.
//
// It returns an accepted article, or a Result with a rejection reason when
// the answer was incomplete, irrelevant, or carried no valid tag. An error
// wrapping ErrExhausted is returned when no attempt produced a parsable
// answer; ctx.Err() is returned when ctx is done.
func (e *Extractor) Extract(ctx context.Context, page string, lang model.Language) (Result, error) {
	var lastErr error

	for attempt := range e.attempts {
		last := attempt == e.attempts-1

		fields, err := e.runStrategies(ctx, page, lang, attempt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			lastErr = err
			if last {
				break
			}
			if err := e.sleep(ctx, e.backoffUnit*time.Duration(1<<attempt)); err != nil {
				return Result{}, err
			}
			continue
		}

		article := Repair(fields, lang)

		if article.Title == "" || article.Summary == "" {
			e.logger.Warn("extracted content is missing required fields",
				"attempt", attempt+1,
				"attempts", e.attempts,
				"has_title", article.Title != "",
				"has_summary", article.Summary != "",
			)
			if last {
				return Result{Reason: ReasonIncomplete}, nil
			}
			if err := e.sleep(ctx, e.incompleteWait); err != nil {
				return Result{}, err
			}
			continue
		}

		if !article.IsRelevant {
			e.logger.Debug("article filtered as not relevant", "title", article.Title)
			return Result{Reason: ReasonNotRelevant}, nil
		}

		if len(article.Tags) == 0 {
			e.logger.Debug("article filtered for having no valid tags", "title", article.Title)
			return Result{Reason: ReasonNoTags}, nil
		}

		if article.PublishDate == "" {
			e.logger.Debug("no publish date extracted, current date will be used on save", "title", article.Title)
		}

		return Result{Article: &article}, nil
	}

	e.logger.Error("all extraction attempts failed", "attempts", e.attempts, "error", lastErr)
	return Result{}, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, e.attempts, lastErr)
}

// runStrategies tries each strategy in order and returns the first answer.
// The returned error is the last strategy's error.
func (e *Extractor) runStrategies(ctx context.Context, page string, lang model.Language, attempt int) (map[string]any, error) {
	var lastErr error
	for _, s := range e.strategies {
		fields, err := s.run(ctx, page, lang)
		if err == nil {
			return fields, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		e.logger.Warn("extraction strategy failed",
			"strategy", s.name,
			"attempt", attempt+1,
			"attempts", e.attempts,
			"error", err,
		)
	}
	return nil, lastErr
}

// structured asks the oracle for a JSON object directly.
func (e *Extractor) structured(ctx context.Context, page string, lang model.Language) (map[string]any, error) {
	return e.oracle.ExtractContent(ctx, page, lang)
}

// raw sends the formatted instruction as a plain prompt and repairs the answer.
func (e *Extractor) raw(ctx context.Context, page string, lang model.Language) (map[string]any, error) {
	text, err := e.oracle.Complete(ctx, oracle.FormatExtractionPrompt(lang, page))
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(CleanJSONResponse(text)), &fields); err != nil {
		return nil, &oracle.ExtractionError{Op: "repair", Err: errors.Join(oracle.ErrMalformedResponse, err)}
	}
	if fields == nil {
		return nil, &oracle.ExtractionError{Op: "repair", Err: oracle.ErrMalformedResponse}
	}
	return fields, nil
}
