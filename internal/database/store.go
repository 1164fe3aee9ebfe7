package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names a supported database backend.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a driver name to a Driver. "postgresql" and "pg" are
// accepted for PostgreSQL, "sqlite3" for SQLite.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mysql":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}

// DefaultPort returns the conventional port of a server driver, or 0 for SQLite.
func (d Driver) DefaultPort() int {
	switch d {
	case DriverMySQL:
		return 3306
	case DriverPostgres:
		return 5432
	default:
		return 0
	}
}

// sqliteFileName is the database file created inside Options.Dir.
const sqliteFileName = "newscrawler.db"

// Options configures the Store.
type Options struct {
	// Driver selects the backend.
	Driver Driver

	// Dir is the directory of the SQLite database file.
	Dir string

	// CreateIfNotExists creates the SQLite directory and file if missing.
	CreateIfNotExists bool

	// EnableWAL enables SQLite Write-Ahead Logging.
	EnableWAL bool

	// Host, Port, User, Password and Name address a MySQL or PostgreSQL server.
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is passed to PostgreSQL as sslmode. Defaults to "disable".
	SSLMode string

	// MaxOpenConns limits the pool for server drivers.
	MaxOpenConns int
}

// DefaultOptions returns options for a local SQLite database.
func DefaultOptions() Options {
	return Options{
		Driver:            DriverSQLite,
		CreateIfNotExists: true,
		EnableWAL:         true,
		MaxOpenConns:      5,
	}
}

// DSN returns the driver-specific data source name.
func (o Options) DSN() (string, error) {
	switch o.Driver {
	case DriverSQLite, "":
		mode := "rw"
		if o.CreateIfNotExists {
			mode = "rwc"
		}
		return filepath.Join(o.Dir, sqliteFileName) + "?mode=" + mode, nil

	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = o.User
		cfg.Passwd = o.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.port()))
		cfg.DBName = o.Name
		cfg.ParseTime = true
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		return cfg.FormatDSN(), nil

	case DriverPostgres:
		sslMode := o.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(o.User, o.Password),
			Host:     net.JoinHostPort(o.Host, strconv.Itoa(o.port())),
			Path:     "/" + o.Name,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return u.String(), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
}

// port returns the configured port or the driver default.
func (o Options) port() int {
	if o.Port > 0 {
		return o.Port
	}
	return o.Driver.DefaultPort()
}

// Store is the article store, source registry and cycle history.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to the database described by opts and creates missing tables.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}

	if opts.Driver == DriverSQLite {
		if err := prepareSQLiteDir(opts); err != nil {
			return nil, err
		}
	}

	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(opts.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite only supports one writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxOpen := opts.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 5
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, driver: opts.Driver}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite && opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// prepareSQLiteDir creates or checks the SQLite directory.
func prepareSQLiteDir(opts Options) error {
	if opts.Dir == "" {
		return errors.New("sqlite database directory is required")
	}

	if !opts.CreateIfNotExists {
		dbPath := filepath.Join(opts.Dir, sqliteFileName)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return fmt.Errorf("failed to check database path: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(opts.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the backend in use.
func (s *Store) Driver() Driver {
	return s.driver
}

// createTables creates the tables and indexes that don't exist yet.
// MySQL has no CREATE INDEX IF NOT EXISTS, so an index that is already
// there is skipped by its error code.
func (s *Store) createTables(ctx context.Context) error {
	for _, stmt := range schema(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil && !isDuplicateIndex(err) {
			return err
		}
	}
	return nil
}

// schema returns the CREATE statements for a driver, one statement each.
func schema(driver Driver) []string {
	switch driver {
	case DriverMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS news (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				language VARCHAR(16) NOT NULL,
				source VARCHAR(255) NOT NULL,
				date VARCHAR(10) NOT NULL,
				content TEXT,
				url VARCHAR(768) NOT NULL,
				title VARCHAR(1024),
				news_type VARCHAR(255),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			) DEFAULT CHARSET=utf8mb4`,
			// Separate from CREATE TABLE so a news table created by an
			// earlier deployment gets the index too.
			`CREATE UNIQUE INDEX uq_news_url ON news (url)`,
			`CREATE TABLE IF NOT EXISTS news_sources (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				url VARCHAR(768) NOT NULL,
				language VARCHAR(16) NOT NULL,
				source_name VARCHAR(255) NOT NULL,
				info TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			) DEFAULT CHARSET=utf8mb4`,
			`CREATE UNIQUE INDEX uq_news_sources_url ON news_sources (url)`,
			`CREATE TABLE IF NOT EXISTS crawl_cycles (
				id VARCHAR(36) PRIMARY KEY,
				started_at VARCHAR(40) NOT NULL,
				finished_at VARCHAR(40),
				sources INT NOT NULL DEFAULT 0,
				failed_sources INT NOT NULL DEFAULT 0,
				discovered INT NOT NULL DEFAULT 0,
				new_urls INT NOT NULL DEFAULT 0,
				accepted INT NOT NULL DEFAULT 0,
				rejected INT NOT NULL DEFAULT 0,
				failed INT NOT NULL DEFAULT 0,
				cancelled BOOLEAN NOT NULL DEFAULT FALSE,
				error TEXT,
				report_json MEDIUMTEXT NOT NULL
			) DEFAULT CHARSET=utf8mb4`,
		}

	case DriverPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS news (
				id BIGSERIAL PRIMARY KEY,
				language TEXT NOT NULL,
				source TEXT NOT NULL,
				date TEXT NOT NULL,
				content TEXT,
				url TEXT NOT NULL,
				title TEXT,
				news_type TEXT,
				created_at TIMESTAMPTZ DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_news_url ON news(url)`,
			`CREATE TABLE IF NOT EXISTS news_sources (
				id BIGSERIAL PRIMARY KEY,
				url TEXT NOT NULL UNIQUE,
				language TEXT NOT NULL,
				source_name TEXT NOT NULL,
				info TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE TABLE IF NOT EXISTS crawl_cycles (
				id TEXT PRIMARY KEY,
				started_at TEXT NOT NULL,
				finished_at TEXT,
				sources INTEGER NOT NULL DEFAULT 0,
				failed_sources INTEGER NOT NULL DEFAULT 0,
				discovered INTEGER NOT NULL DEFAULT 0,
				new_urls INTEGER NOT NULL DEFAULT 0,
				accepted INTEGER NOT NULL DEFAULT 0,
				rejected INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				cancelled BOOLEAN NOT NULL DEFAULT FALSE,
				error TEXT,
				report_json TEXT NOT NULL
			)`,
		}

	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS news (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				language TEXT NOT NULL,
				source TEXT NOT NULL,
				date TEXT NOT NULL,
				content TEXT,
				url TEXT NOT NULL,
				title TEXT,
				news_type TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_news_url ON news(url)`,
			`CREATE TABLE IF NOT EXISTS news_sources (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				url TEXT NOT NULL UNIQUE,
				language TEXT NOT NULL,
				source_name TEXT NOT NULL,
				info TEXT,
				is_active BOOLEAN NOT NULL DEFAULT 1
			)`,
			`CREATE TABLE IF NOT EXISTS crawl_cycles (
				id TEXT PRIMARY KEY,
				started_at TEXT NOT NULL,
				finished_at TEXT,
				sources INTEGER NOT NULL DEFAULT 0,
				failed_sources INTEGER NOT NULL DEFAULT 0,
				discovered INTEGER NOT NULL DEFAULT 0,
				new_urls INTEGER NOT NULL DEFAULT 0,
				accepted INTEGER NOT NULL DEFAULT 0,
				rejected INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				cancelled BOOLEAN NOT NULL DEFAULT 0,
				error TEXT,
				report_json TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_crawl_cycles_started ON crawl_cycles(started_at)`,
		}
	}
}

// rebind rewrites '?' placeholders to '$1', '$2', ... for PostgreSQL.
// Queries in this package never contain literal question marks.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// isUniqueViolation reports whether err is a unique constraint violation
// from any supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isDuplicateIndex reports whether err is MySQL's ER_DUP_KEYNAME.
func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1061
}

// timestampLayout is how cycle timestamps are stored. Fixed width UTC text
// sorts chronologically on every backend.
const timestampLayout = "2006-01-02T15:04:05Z"

// formatTimestamp renders t for storage; the zero time is stored as "".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be read back.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
