package extractor

import "errors"

// ErrExhausted is returned when every attempt failed to produce a parsable answer.
// The last strategy error is wrapped alongside it.
var ErrExhausted = errors.New("extraction attempts exhausted")

// Rejection reasons reported in Result.Reason.
const (
	// ReasonIncomplete means the answer had no title or no summary.
	ReasonIncomplete = "missing title or summary"

	// ReasonNotRelevant means the oracle judged the article irrelevant.
	ReasonNotRelevant = "not relevant"

	// ReasonNoTags means no tag survived vocabulary validation.
	ReasonNoTags = "no valid tags"
)
