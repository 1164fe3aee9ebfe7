package pipeline

import "errors"

// Sentinel errors for the pipeline package.
var (
	// ErrSkipSource is returned by a step that found nothing left to do for
	// the source. The pipeline stops without recording an error.
	ErrSkipSource = errors.New("nothing left to do for source")

	// ErrCycleInProgress is returned by RunCycle while another cycle is running.
	ErrCycleInProgress = errors.New("crawl cycle already in progress")
)
