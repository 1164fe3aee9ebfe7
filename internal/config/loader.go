package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "newscrawler.yaml"

// DefaultEnvFiles are the .env files loaded by Load, in order.
// Variables already set in the process environment are never overwritten.
var DefaultEnvFiles = []string{".env.dev", ".env"}

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from defaults, the YAML file, .env files
// and the process environment, in increasing precedence.
//
// An explicit configPath that does not exist is an error; when configPath
// is empty a missing file is silently ignored.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	if err := LoadEnvFiles(DefaultEnvFiles...); err != nil {
		return nil, err
	}

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile merges a YAML configuration file into c. Fields missing from
// the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.ConfigFilePath = path
	return nil
}

// LoadEnvFiles loads .env files into the process environment.
// Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for newscrawler.yaml in the current directory
// 3. Look for newscrawler.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// ApplyEnv overrides fields with environment variables:
// DB_TYPE, DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD, DB_DATABASE,
// DASHSCOPE_API_KEY, ORACLE_BASE_URL, ORACLE_MODEL, CRAWL_HOUR and CRAWL_MINUTE.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"DB_TYPE", &c.Database.Driver},
		{"DB_HOST", &c.Database.Host},
		{"DB_USERNAME", &c.Database.User},
		{"DB_PASSWORD", &c.Database.Password},
		{"DB_DATABASE", &c.Database.Name},
		{"DASHSCOPE_API_KEY", &c.Oracle.APIKey},
		{"ORACLE_BASE_URL", &c.Oracle.BaseURL},
		{"ORACLE_MODEL", &c.Oracle.Model},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_PORT", &c.Database.Port},
		{"CRAWL_HOUR", &c.Schedule.Hour},
		{"CRAWL_MINUTE", &c.Schedule.Minute},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidEnv, i.key, v)
		}
		*i.dst = n
	}

	return nil
}
