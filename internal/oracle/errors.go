package oracle

import (
	"errors"
	"fmt"
)

// Sentinel errors for the oracle package.
var (
	// ErrMissingAPIKey indicates the client was created without credentials.
	ErrMissingAPIKey = errors.New("oracle API key is required")

	// ErrMalformedResponse indicates the model output could not be parsed.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrEmptyResponse indicates the endpoint returned no choices or no content.
	ErrEmptyResponse = errors.New("empty oracle response")

	// ErrAPIStatus indicates the endpoint answered with a non-200 status.
	ErrAPIStatus = errors.New("oracle API error")
)

// ExtractionError is returned when the oracle cannot produce a usable answer.
// Op names the request that failed ("discover", "extract" or "complete").
type ExtractionError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
