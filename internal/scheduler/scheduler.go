package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/pipeline"
)

// Default trigger time.
const (
	DefaultHour   = 4
	DefaultMinute = 0
)

// ErrInvalidTime is returned for an hour outside 0-23 or a minute outside 0-59.
var ErrInvalidTime = errors.New("invalid schedule time")

// Runner runs one crawl cycle.
type Runner interface {
	RunCycle(ctx context.Context) (*model.CycleReport, error)
}

// Scheduler runs a crawl cycle every day at a fixed time, and optionally
// once right after Start.
type Scheduler struct {
	runner         Runner
	hour           int
	minute         int
	runImmediately bool
	location       *time.Location
	onReport       func(*model.CycleReport)
	logger         *slog.Logger

	cron     *cron.Cron
	schedule cron.Schedule

	// startup is the run-immediately cycle, wrapped like the cron jobs so a
	// panic is logged instead of ending the process.
	startup cron.Job

	// ctx is handed to every cycle; Stop cancels it once the grace period ends.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTime sets the daily trigger time.
func WithTime(hour, minute int) Option {
	return func(s *Scheduler) {
		s.hour = hour
		s.minute = minute
	}
}

// WithRunImmediately runs one cycle as soon as the scheduler starts.
func WithRunImmediately(run bool) Option {
	return func(s *Scheduler) {
		s.runImmediately = run
	}
}

// WithLocation sets the time zone of the trigger time. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithReportHook is called with the report of every finished cycle.
func WithReportHook(fn func(*model.CycleReport)) Option {
	return func(s *Scheduler) {
		s.onReport = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a Scheduler for runner.
func New(runner Runner, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		runner:   runner,
		hour:     DefaultHour,
		minute:   DefaultMinute,
		location: time.Local,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.hour < 0 || s.hour > 23 || s.minute < 0 || s.minute > 59 {
		return nil, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, s.hour, s.minute)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(s.Spec())
	if err != nil {
		return nil, fmt.Errorf("failed to parse cron expression: %w", err)
	}
	s.schedule = schedule

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(s.Spec(), s.trigger); err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	s.startup = cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(s.trigger))

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Spec returns the cron expression of the daily trigger.
func (s *Scheduler) Spec() string {
	return fmt.Sprintf("%d %d * * *", s.minute, s.hour)
}

// NextRun returns the first trigger time after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Start begins scheduling. It does not block.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		"schedule", s.Spec(),
		"next_run", s.NextRun(time.Now()).Format(time.RFC3339),
		"run_immediately", s.runImmediately,
	)

	if s.runImmediately {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.startup.Run()
		}()
	}
}

// Stop stops scheduling new cycles and waits for a running cycle to finish.
// When ctx ends first, the running cycle is cancelled and Stop still waits
// for it to return; ctx.Err() is returned in that case.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("grace period over, cancelling running cycle")
		err = ctx.Err()
		s.cancel()
		<-done
	}
	s.cancel()

	s.logger.Info("scheduler stopped")
	return err
}

// Run starts the scheduler, blocks until ctx is done and then stops it,
// giving a running cycle up to grace to finish.
func (s *Scheduler) Run(ctx context.Context, grace time.Duration) error {
	s.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// trigger runs one cycle.
func (s *Scheduler) trigger() {
	started := time.Now()
	s.logger.Info("crawl cycle triggered", "at", started.Format(time.RFC3339))

	report, err := s.runner.RunCycle(s.ctx)
	switch {
	case errors.Is(err, pipeline.ErrCycleInProgress):
		s.logger.Warn("previous crawl cycle still running, trigger skipped")
		return
	case errors.Is(err, context.Canceled):
		s.logger.Warn("crawl cycle cancelled")
	case err != nil:
		s.logger.Error("crawl cycle failed", "error", err)
	}

	if report != nil && s.onReport != nil {
		s.onReport(report)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

// Info logs routine cron messages at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error logs cron errors, including recovered panics.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
