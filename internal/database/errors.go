package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for the database package.
var (
	// ErrUnsupportedDriver indicates an unknown database driver name.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrDuplicateURL indicates an article with the same URL is already stored.
	ErrDuplicateURL = errors.New("article URL already stored")

	// ErrDuplicateSource indicates a source with the same URL is already registered.
	ErrDuplicateSource = errors.New("source already registered")

	// ErrSourceNotFound indicates no source has the given URL.
	ErrSourceNotFound = errors.New("source not found")

	// ErrCycleNotFound indicates no crawl cycle has the given ID.
	ErrCycleNotFound = errors.New("crawl cycle not found")
)

// PersistenceError is returned when an article cannot be written.
// The article is dropped; the caller logs it and carries on.
type PersistenceError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist article %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
