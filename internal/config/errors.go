package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() before any crawl cycle
// runs. All of them are fatal.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Missing values are appended with fmt.Errorf.
var (
	// ErrMissingAPIKey is returned when no oracle API key is configured.
	ErrMissingAPIKey = errors.New("missing oracle API key: set DASHSCOPE_API_KEY or oracle.api_key")

	// ErrMissingDatabase is returned when a server database lacks connection parameters.
	ErrMissingDatabase = errors.New("missing database parameters")

	// ErrUnsupportedDriver is returned for a database driver other than sqlite, mysql or postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrInvalidSchedule is returned for a trigger time outside 00:00-23:59
	// or an unknown time zone.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrInvalidPacing is returned when the pause between URLs is negative.
	ErrInvalidPacing = errors.New("invalid pacing: must be non-negative")

	// ErrInvalidRetry is returned for negative retry counts or delays,
	// a backoff factor below 1, or fewer than one extraction attempt.
	ErrInvalidRetry = errors.New("invalid retry settings")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidEnv is returned when an environment variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
