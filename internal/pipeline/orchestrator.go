package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/retry"
)

// SourceRegistry lists the sources to crawl.
type SourceRegistry interface {
	ListActiveSources(ctx context.Context) ([]model.Source, error)
}

// CycleRecorder stores finished cycle reports.
type CycleRecorder interface {
	SaveCycle(ctx context.Context, report *model.CycleReport) error
}

// Collaborators are the services the per-source steps call.
type Collaborators struct {
	Fetcher   PageFetcher
	Oracle    URLDiscoverer
	Dedup     URLFilter
	Extractor ArticleExtractor
	Store     ArticleWriter
}

// Orchestrator runs crawl cycles over all active sources.
//
// Design decision: We construct one Orchestrator with all collaborators and
// hand it to the scheduler and the shutdown path instead of keeping a
// package-level crawler because:
// 1. Tests build as many independent orchestrators as they need
// 2. The serve command owns its lifecycle explicitly
// 3. The overlap guard lives next to the state it protects
type Orchestrator struct {
	registry SourceRegistry
	deps     Collaborators
	history  CycleRecorder
	pacing   time.Duration
	sleep    retry.Sleeper
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	// running guards against overlapping cycles.
	running sync.Mutex
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithHistory records every finished cycle.
func WithHistory(history CycleRecorder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history = history
	}
}

// WithCyclePacing sets the pause between two article URLs.
func WithCyclePacing(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pacing = d
	}
}

// WithCycleSleeper replaces the pacing pause. Useful for tests.
func WithCycleSleeper(sleep retry.Sleeper) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithClock sets the clock used for report timestamps and article dates.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator sets the cycle ID generator.
func WithIDGenerator(newID func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(registry SourceRegistry, deps Collaborators, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		deps:     deps,
		pacing:   DefaultPacing,
		sleep:    retry.Sleep,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// RunCycle crawls every active source once, in registry order.
//
// It returns ErrCycleInProgress when another cycle is running. An error is
// also returned when the source registry cannot be read or ctx is cancelled;
// the report is returned in both cases. Source and URL failures are only
// recorded in the report.
func (o *Orchestrator) RunCycle(ctx context.Context) (*model.CycleReport, error) {
	if !o.running.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer o.running.Unlock()

	report := model.NewCycleReport(o.newID(), o.now())
	logger := o.logger.With("cycle", report.ID)
	logger.Info("crawl cycle started")

	sources, err := o.registry.ListActiveSources(ctx)
	if err != nil {
		report.Error = err.Error()
		o.finish(ctx, report, logger)
		return report, fmt.Errorf("failed to list active sources: %w", err)
	}

	logger.Info("active sources loaded", "count", len(sources))

	for i, source := range sources {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		logger.Info("crawling source",
			"source", source.Name,
			"url", source.URL,
			"language", source.Language,
			"index", i+1,
			"total", len(sources),
		)

		sourceReport := o.crawlSource(ctx, source, logger)
		report.AddSource(sourceReport)

		if sourceReport.Cancelled {
			report.Cancelled = true
			break
		}
	}

	o.finish(ctx, report, logger)

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// crawlSource runs the per-source pipeline. Errors end up in the report.
func (o *Orchestrator) crawlSource(ctx context.Context, source model.Source, logger *slog.Logger) *model.SourceReport {
	report := model.NewSourceReport(source, o.now())
	run := NewRun(source, report)

	_ = o.sourcePipeline(logger).Execute(ctx, run) //nolint:errcheck // recorded in report

	report.FinishedAt = o.now()

	if report.Failed() {
		logger.Warn("source failed",
			"source", source.Name,
			"error", report.Error,
			"duration", report.Duration(),
		)
	}
	return report
}

// sourcePipeline builds the steps for one source.
func (o *Orchestrator) sourcePipeline(logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchHomepageStep(o.deps.Fetcher, logger),
		NewDiscoverStep(o.deps.Oracle, logger),
		NewDedupStep(o.deps.Dedup, logger),
		NewProcessArticlesStep(o.deps.Fetcher, o.deps.Extractor, o.deps.Store,
			WithPacing(o.pacing),
			WithPacingSleeper(o.sleep),
			WithProcessClock(o.now),
			WithProcessLogger(logger),
		),
	)
	return p
}

// finish stamps, logs and records the cycle. The history is written even
// when ctx is already cancelled.
func (o *Orchestrator) finish(ctx context.Context, report *model.CycleReport, logger *slog.Logger) {
	report.FinishedAt = o.now()
	totals := report.Totals()

	logger.Info("crawl cycle finished",
		"sources", totals.Sources,
		"failed_sources", totals.FailedSources,
		"discovered", totals.Discovered,
		"new", totals.New,
		"accepted", totals.Accepted,
		"rejected", totals.Rejected,
		"failed", totals.Failed,
		"cancelled", report.Cancelled,
		"duration", report.Duration(),
	)

	if o.history == nil {
		return
	}
	if err := o.history.SaveCycle(context.WithoutCancel(ctx), report); err != nil {
		logger.Error("failed to record crawl cycle", "error", err)
	}
}
