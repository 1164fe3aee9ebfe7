package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/newscrawler/internal/model"
)

// Run carries the state of one source through the pipeline.
// Steps read what earlier steps left and fill in their own part.
type Run struct {
	// Source is the source being crawled.
	Source model.Source

	// Report collects counters and per-URL outcomes.
	Report *model.SourceReport

	// Homepage is the cleaned homepage text.
	Homepage string

	// Discovered holds the normalized article URLs in discovery order.
	Discovered []string

	// Fresh holds the discovered URLs that are not stored yet.
	Fresh []string

	// Performed lists the names of the steps that ran.
	Performed []string
}

// NewRun creates a Run for the source.
func NewRun(source model.Source, report *model.SourceReport) *Run {
	return &Run{
		Source:    source,
		Report:    report,
		Performed: make([]string, 0),
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the Run
// accumulated by previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry their collaborators
// 2. It provides a Name() method for logging and debugging
// 3. Tests can substitute a single step
type Step interface {
	// Do executes the pipeline step.
	// Returning ErrSkipSource stops the pipeline quietly; any other error
	// aborts the source and is recorded in its report.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs the steps of one source in order. The first failing step
// aborts the source; its error is copied into the source report so the
// cycle can continue with the next source.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}

// Execute runs the steps against run.
//
// Cancellation is checked between steps; steps watch ctx themselves while
// they run. A cancelled run is marked in the report and ctx.Err() is
// returned. ErrSkipSource ends the run without error.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return p.interrupted(run, step, err)
		}

		p.logger.Debug("executing step", "step", step.Name(), "source", run.Source.Name)

		err := step.Do(ctx, run)
		run.Performed = append(run.Performed, step.Name())

		switch {
		case err == nil:
		case errors.Is(err, ErrSkipSource):
			p.logger.Info("source skipped",
				"step", step.Name(),
				"source", run.Source.Name,
				"reason", run.Report.Skipped,
			)
			return nil
		case ctx.Err() != nil:
			return p.interrupted(run, step, ctx.Err())
		default:
			p.logger.Error("step failed",
				"step", step.Name(),
				"source", run.Source.Name,
				"error", err,
			)
			run.Report.Error = err.Error()
			return err
		}
	}
	return nil
}

// interrupted marks run as cancelled and returns err.
func (p *Pipeline) interrupted(run *Run, step Step, err error) error {
	p.logger.Warn("source interrupted",
		"step", step.Name(),
		"source", run.Source.Name,
		"reason", err,
	)
	run.Report.Cancelled = true
	return err
}
