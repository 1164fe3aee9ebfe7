package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for the crawler package.
var (
	// ErrInvalidURL indicates the URL cannot be requested.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnexpectedStatus indicates the server answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// NetworkError is returned by Fetcher for timeouts, connection failures and
// non-200 responses. StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a fetch error is transient.
// Network errors are retryable; cancellation and invalid URLs are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidURL) {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var opErr net.Error
	return errors.As(err, &opErr)
}
