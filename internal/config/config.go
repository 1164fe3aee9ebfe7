package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/newscrawler/internal/crawler"
	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/dedup"
	"github.com/nao1215/newscrawler/internal/extractor"
	"github.com/nao1215/newscrawler/internal/oracle"
	"github.com/nao1215/newscrawler/internal/retry"
)

// Default configuration values that are not owned by another package.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "newscrawler"

	// DefaultHour and DefaultMinute are the daily trigger time.
	DefaultHour   = 4
	DefaultMinute = 0

	// DefaultPacing is the pause between two article URLs of a source.
	DefaultPacing = time.Second

	// DefaultShutdownGrace is how long a running cycle may continue after
	// a stop signal before it is cancelled.
	DefaultShutdownGrace = 2 * time.Minute

	// DefaultLogFormat is the log handler used when none is configured.
	DefaultLogFormat = "text"
)

// Config holds all configuration options of the crawler.
// It is populated by Load (defaults, YAML file, .env files, environment)
// and then by CLI flags, and passed down explicitly.
//
// Design decision: We group options into nested structs that mirror the
// YAML file because:
// 1. Each component receives only its own section
// 2. The YAML file stays readable as the option count grows
// 3. Environment overrides map onto one field each
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Retry    RetryConfig    `yaml:"retry"`

	// LogFormat selects the log handler: "text" or "json".
	LogFormat string `yaml:"log_format"`

	// Verbose enables debug logging. Set from the --verbose flag only.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was read from, if any.
	ConfigFilePath string `yaml:"-"`
}

// DatabaseConfig selects and addresses the article store.
type DatabaseConfig struct {
	// Driver is sqlite, mysql or postgres.
	Driver string `yaml:"driver"`

	// Dir is the SQLite database directory.
	// Defaults to the XDG data directory (~/.local/share/newscrawler on Linux).
	Dir string `yaml:"dir"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	// SSLMode is passed to PostgreSQL.
	SSLMode string `yaml:"sslmode"`
}

// OracleConfig configures the content oracle.
type OracleConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxPageChars int           `yaml:"max_page_chars"`
}

// ScheduleConfig configures the daily trigger.
type ScheduleConfig struct {
	Hour           int    `yaml:"hour"`
	Minute         int    `yaml:"minute"`
	RunImmediately bool   `yaml:"run_immediately"`
	Timezone       string `yaml:"timezone"`

	// ShutdownGrace is how long a running cycle may finish after a stop signal.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// CrawlConfig configures fetching and pacing.
type CrawlConfig struct {
	// Pacing is the pause between two article URLs of a source.
	Pacing time.Duration `yaml:"pacing"`

	// FetchTimeout bounds a single page request attempt.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	UserAgent   string `yaml:"user_agent"`
	MaxBodySize int64  `yaml:"max_body_size"`

	// DedupBatchSize bounds the number of URLs in one existence query.
	DedupBatchSize int `yaml:"dedup_batch_size"`
}

// RetryConfig configures retries of fetches and extractions.
type RetryConfig struct {
	FetchMaxRetries    int           `yaml:"fetch_max_retries"`
	FetchInitialDelay  time.Duration `yaml:"fetch_initial_delay"`
	FetchBackoffFactor float64       `yaml:"fetch_backoff_factor"`

	ExtractionAttempts    int           `yaml:"extraction_attempts"`
	ExtractionBackoffUnit time.Duration `yaml:"extraction_backoff_unit"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, trigger
// hour). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: string(database.DriverSQLite),
			Dir:    XDGDataDir(),
		},
		Oracle: OracleConfig{
			BaseURL:      oracle.DefaultBaseURL,
			Model:        oracle.DefaultModel,
			Timeout:      oracle.DefaultTimeout,
			MaxPageChars: oracle.DefaultMaxPageChars,
		},
		Schedule: ScheduleConfig{
			Hour:           DefaultHour,
			Minute:         DefaultMinute,
			RunImmediately: true,
			ShutdownGrace:  DefaultShutdownGrace,
		},
		Crawl: CrawlConfig{
			Pacing:         DefaultPacing,
			FetchTimeout:   crawler.DefaultTimeout,
			UserAgent:      crawler.DefaultUserAgent,
			MaxBodySize:    crawler.DefaultMaxBodySize,
			DedupBatchSize: dedup.DefaultBatchSize,
		},
		Retry: RetryConfig{
			FetchMaxRetries:       retry.DefaultMaxRetries,
			FetchInitialDelay:     retry.DefaultInitialDelay,
			FetchBackoffFactor:    retry.DefaultBackoffFactor,
			ExtractionAttempts:    extractor.DefaultAttempts,
			ExtractionBackoffUnit: extractor.DefaultBackoffUnit,
		},
		LogFormat: DefaultLogFormat,
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// On Linux: ~/.local/share/newscrawler
// On macOS: ~/Library/Application Support/newscrawler
// On Windows: %LOCALAPPDATA%\newscrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the crawler.
// On Linux: ~/.config/newscrawler
// On macOS: ~/Library/Application Support/newscrawler
// On Windows: %APPDATA%\newscrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast before any crawl cycle runs. The first problem
// found is returned; missing database parameters are listed together.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Oracle.APIKey) == "" {
		return ErrMissingAPIKey
	}

	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 || c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("%w: trigger time %02d:%02d", ErrInvalidSchedule, c.Schedule.Hour, c.Schedule.Minute)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Crawl.Pacing < 0 {
		return ErrInvalidPacing
	}

	if c.Crawl.FetchTimeout <= 0 || c.Oracle.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Crawl.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	r := c.Retry
	switch {
	case r.FetchMaxRetries < 0:
		return fmt.Errorf("%w: fetch_max_retries must be non-negative", ErrInvalidRetry)
	case r.FetchInitialDelay < 0:
		return fmt.Errorf("%w: fetch_initial_delay must be non-negative", ErrInvalidRetry)
	case r.FetchBackoffFactor < 1:
		return fmt.Errorf("%w: fetch_backoff_factor must be at least 1", ErrInvalidRetry)
	case r.ExtractionAttempts < 1:
		return fmt.Errorf("%w: extraction_attempts must be at least 1", ErrInvalidRetry)
	case r.ExtractionBackoffUnit < 0:
		return fmt.Errorf("%w: extraction_backoff_unit must be non-negative", ErrInvalidRetry)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// ValidateDatabase checks the driver and its required parameters.
// Commands that only read the store validate this section alone.
func (c *Config) ValidateDatabase() error {
	driver, err := database.ParseDriver(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}

	var missing []string
	if driver == database.DriverSQLite {
		if strings.TrimSpace(c.Database.Dir) == "" {
			missing = append(missing, "database.dir")
		}
	} else {
		if strings.TrimSpace(c.Database.Host) == "" {
			missing = append(missing, "DB_HOST")
		}
		if strings.TrimSpace(c.Database.User) == "" {
			missing = append(missing, "DB_USERNAME")
		}
		if strings.TrimSpace(c.Database.Name) == "" {
			missing = append(missing, "DB_DATABASE")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDatabase, strings.Join(missing, ", "))
	}
	return nil
}

// Location returns the time zone of the trigger time.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q", ErrInvalidSchedule, c.Schedule.Timezone)
	}
	return loc, nil
}

// DatabaseOptions converts the database section into store options.
func (c *Config) DatabaseOptions() (database.Options, error) {
	driver, err := database.ParseDriver(c.Database.Driver)
	if err != nil {
		return database.Options{}, err
	}

	opts := database.DefaultOptions()
	opts.Driver = driver
	opts.Dir = c.Database.Dir
	opts.Host = c.Database.Host
	opts.Port = c.Database.Port
	opts.User = c.Database.User
	opts.Password = c.Database.Password
	opts.Name = c.Database.Name
	opts.SSLMode = c.Database.SSLMode
	return opts, nil
}

// FetchPolicy converts the retry section into the page fetch policy.
func (c *Config) FetchPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:    c.Retry.FetchMaxRetries,
		InitialDelay:  c.Retry.FetchInitialDelay,
		BackoffFactor: c.Retry.FetchBackoffFactor,
		Retryable:     crawler.IsRetryable,
	}
}
