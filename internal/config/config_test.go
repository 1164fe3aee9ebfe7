package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail if they drift.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default trigger is 04:00 and runs at startup", func(t *testing.T) {
		t.Parallel()
		if cfg.Schedule.Hour != 4 || cfg.Schedule.Minute != 0 {
			t.Errorf("expected 04:00, got %02d:%02d", cfg.Schedule.Hour, cfg.Schedule.Minute)
		}
		if !cfg.Schedule.RunImmediately {
			t.Error("expected RunImmediately to be true")
		}
	})

	t.Run("default database is sqlite in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.Database.Driver != "sqlite" {
			t.Errorf("expected sqlite, got %q", cfg.Database.Driver)
		}
		if cfg.Database.Dir != XDGDataDir() {
			t.Errorf("expected %q, got %q", XDGDataDir(), cfg.Database.Dir)
		}
	})

	t.Run("default oracle model is qwen-plus-latest", func(t *testing.T) {
		t.Parallel()
		if cfg.Oracle.Model != "qwen-plus-latest" {
			t.Errorf("expected qwen-plus-latest, got %q", cfg.Oracle.Model)
		}
		if cfg.Oracle.APIKey != "" {
			t.Error("expected no default API key")
		}
	})

	t.Run("default pacing is 1 second", func(t *testing.T) {
		t.Parallel()
		if cfg.Crawl.Pacing != time.Second {
			t.Errorf("expected 1s, got %v", cfg.Crawl.Pacing)
		}
		if cfg.Crawl.FetchTimeout != 30*time.Second {
			t.Errorf("expected 30s fetch timeout, got %v", cfg.Crawl.FetchTimeout)
		}
	})

	t.Run("default retry settings", func(t *testing.T) {
		t.Parallel()
		want := RetryConfig{
			FetchMaxRetries:       3,
			FetchInitialDelay:     2 * time.Second,
			FetchBackoffFactor:    2,
			ExtractionAttempts:    3,
			ExtractionBackoffUnit: time.Second,
		}
		if cfg.Retry != want {
			t.Errorf("Retry = %+v, want %+v", cfg.Retry, want)
		}
	})
}

// validConfig returns a minimal valid configuration.
// Tests can modify specific fields to test validation rules.
func validConfig() *Config {
	cfg := NewConfig()
	cfg.Oracle.APIKey = "sk-test"
	cfg.Database.Dir = "/tmp/newscrawler"
	return cfg
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"missing api key", func(c *Config) { c.Oracle.APIKey = "  " }, ErrMissingAPIKey},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, ErrUnsupportedDriver},
		{"sqlite without dir", func(c *Config) { c.Database.Dir = "" }, ErrMissingDatabase},
		{"mysql without parameters", func(c *Config) { c.Database.Driver = "mysql" }, ErrMissingDatabase},
		{
			"complete postgres",
			func(c *Config) {
				c.Database = DatabaseConfig{Driver: "postgres", Host: "db", User: "crawler", Name: "news"}
			},
			nil,
		},
		{"hour out of range", func(c *Config) { c.Schedule.Hour = 24 }, ErrInvalidSchedule},
		{"minute out of range", func(c *Config) { c.Schedule.Minute = -1 }, ErrInvalidSchedule},
		{"unknown timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, ErrInvalidSchedule},
		{"known timezone", func(c *Config) { c.Schedule.Timezone = "UTC" }, nil},
		{"negative pacing", func(c *Config) { c.Crawl.Pacing = -time.Second }, ErrInvalidPacing},
		{"zero pacing is valid", func(c *Config) { c.Crawl.Pacing = 0 }, nil},
		{"zero fetch timeout", func(c *Config) { c.Crawl.FetchTimeout = 0 }, ErrInvalidTimeout},
		{"zero oracle timeout", func(c *Config) { c.Oracle.Timeout = 0 }, ErrInvalidTimeout},
		{"negative body size", func(c *Config) { c.Crawl.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative retries", func(c *Config) { c.Retry.FetchMaxRetries = -1 }, ErrInvalidRetry},
		{"backoff factor below one", func(c *Config) { c.Retry.FetchBackoffFactor = 0.5 }, ErrInvalidRetry},
		{"zero extraction attempts", func(c *Config) { c.Retry.ExtractionAttempts = 0 }, ErrInvalidRetry},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("missing database parameters are listed", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Database = DatabaseConfig{Driver: "mysql", Host: "db"}

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"DB_USERNAME", "DB_DATABASE"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %q", want, err.Error())
			}
		}
		if strings.Contains(err.Error(), "DB_HOST") {
			t.Errorf("DB_HOST is set and should not be listed: %q", err.Error())
		}
	})
}

// TestLoadFile tests merging a YAML file into the defaults.
func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("overrides only the fields present", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
database:
  driver: postgres
  host: db.internal
  port: 6543
  user: crawler
  name: news
oracle:
  model: qwen-max
schedule:
  hour: 6
  minute: 30
  run_immediately: false
  timezone: Asia/Hong_Kong
crawl:
  pacing: 2s
retry:
  fetch_max_retries: 5
log_format: json
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg := NewConfig()
		if err := cfg.LoadFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Database.Driver != "postgres" || cfg.Database.Port != 6543 || cfg.Database.Host != "db.internal" {
			t.Errorf("unexpected database section %+v", cfg.Database)
		}
		if cfg.Oracle.Model != "qwen-max" {
			t.Errorf("expected qwen-max, got %q", cfg.Oracle.Model)
		}
		if cfg.Oracle.BaseURL == "" {
			t.Error("unset fields should keep their defaults")
		}
		if cfg.Schedule.Hour != 6 || cfg.Schedule.Minute != 30 || cfg.Schedule.RunImmediately {
			t.Errorf("unexpected schedule %+v", cfg.Schedule)
		}
		if cfg.Crawl.Pacing != 2*time.Second {
			t.Errorf("expected 2s pacing, got %v", cfg.Crawl.Pacing)
		}
		if cfg.Retry.FetchMaxRetries != 5 || cfg.Retry.ExtractionAttempts != 3 {
			t.Errorf("unexpected retry section %+v", cfg.Retry)
		}
		if cfg.LogFormat != "json" || cfg.ConfigFilePath != path {
			t.Errorf("unexpected top-level fields %q %q", cfg.LogFormat, cfg.ConfigFilePath)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		err := NewConfig().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("schedule: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if err := NewConfig().LoadFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestLoad tests the explicit path handling of Load.
func TestLoad(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

// TestApplyEnv tests environment overrides.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	lookup := func(env map[string]string) LookupFunc {
		return func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}
	}

	t.Run("overrides fields", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(lookup(map[string]string{
			"DB_TYPE":           "mysql",
			"DB_HOST":           "db.internal",
			"DB_PORT":           "3307",
			"DB_USERNAME":       "crawler",
			"DB_PASSWORD":       "s3cret",
			"DB_DATABASE":       "news",
			"DASHSCOPE_API_KEY": "sk-abc",
			"ORACLE_MODEL":      "qwen-turbo",
			"CRAWL_HOUR":        "5",
			"CRAWL_MINUTE":      "15",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := DatabaseConfig{
			Driver:   "mysql",
			Dir:      XDGDataDir(),
			Host:     "db.internal",
			Port:     3307,
			User:     "crawler",
			Password: "s3cret",
			Name:     "news",
		}
		if cfg.Database != want {
			t.Errorf("Database = %+v, want %+v", cfg.Database, want)
		}
		if cfg.Oracle.APIKey != "sk-abc" || cfg.Oracle.Model != "qwen-turbo" {
			t.Errorf("unexpected oracle section %+v", cfg.Oracle)
		}
		if cfg.Schedule.Hour != 5 || cfg.Schedule.Minute != 15 {
			t.Errorf("unexpected schedule %+v", cfg.Schedule)
		}
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ApplyEnv(lookup(map[string]string{"ORACLE_MODEL": "", "CRAWL_HOUR": ""})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Oracle.Model != "qwen-plus-latest" || cfg.Schedule.Hour != 4 {
			t.Error("empty variables should not override defaults")
		}
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()

		err := NewConfig().ApplyEnv(lookup(map[string]string{"DB_PORT": "abc"}))
		if !errors.Is(err, ErrInvalidEnv) {
			t.Errorf("expected ErrInvalidEnv, got %v", err)
		}
	})
}

// TestLoadEnvFiles tests .env loading. Not parallel: it changes the process environment.
func TestLoadEnvFiles(t *testing.T) {
	const key = "NEWSCRAWLER_TEST_ENV_FILE_KEY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	if err := LoadEnvFiles(filepath.Join(dir, ".env.dev"), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}

// TestFindConfigFile tests configuration file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "none.yaml")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestXDGDirs tests the XDG directory helpers.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q should end with %q", name, dir, AppName)
		}
	}
}

// TestConversions tests the helpers that build component settings.
func TestConversions(t *testing.T) {
	t.Parallel()

	t.Run("database options", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Database = DatabaseConfig{Driver: "pg", Host: "db", Port: 5433, User: "u", Password: "p", Name: "news", SSLMode: "require"}

		opts, err := cfg.DatabaseOptions()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Driver != database.DriverPostgres || opts.Port != 5433 || opts.SSLMode != "require" {
			t.Errorf("unexpected options %+v", opts)
		}
		if !opts.CreateIfNotExists {
			t.Error("expected store defaults to be kept")
		}
	})

	t.Run("fetch policy", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Retry.FetchMaxRetries = 1
		p := cfg.FetchPolicy()
		if p.MaxRetries != 1 || p.InitialDelay != 2*time.Second || p.BackoffFactor != 2 || p.Retryable == nil {
			t.Errorf("unexpected policy %+v", p)
		}
	})

	t.Run("location", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		loc, err := cfg.Location()
		if err != nil || loc != time.Local {
			t.Errorf("expected local time zone, got %v %v", loc, err)
		}
	})
}

// TestSourceFile tests the source import file.
func TestSourceFile(t *testing.T) {
	t.Parallel()

	t.Run("loads and converts entries", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sources.yaml")
		content := `
sources:
  - url: https://news.example/
    language: en
    name: Example News
  - url: https://hk.example/
    language: zh-HK
    name: HK Daily
    info: weekly digest
    active: false
  - url: https://cn.example/
    language: fr
    name: CN Daily
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		sf, err := LoadSourceFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sources, err := sf.ToSources()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.Source{
			{URL: "https://news.example/", Language: model.LanguageEnglish, Name: "Example News", Active: true},
			{URL: "https://hk.example/", Language: model.LanguageTraditionalChinese, Name: "HK Daily", Info: "weekly digest", Active: false},
			{URL: "https://cn.example/", Language: model.LanguageSimplifiedChinese, Name: "CN Daily", Active: true},
		}
		if len(sources) != len(want) {
			t.Fatalf("expected %d sources, got %d", len(want), len(sources))
		}
		for i := range want {
			if sources[i] != want[i] {
				t.Errorf("source %d = %+v, want %+v", i, sources[i], want[i])
			}
		}
	})

	t.Run("invalid entry is reported with its position", func(t *testing.T) {
		t.Parallel()

		sf := &SourceFile{Sources: []SourceEntry{{URL: "news.example", Name: "X"}}}
		_, err := sf.ToSources()
		if !errors.Is(err, model.ErrInvalidSourceURL) {
			t.Errorf("expected ErrInvalidSourceURL, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "source 1") {
			t.Errorf("expected position in %q", err.Error())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadSourceFile(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}
