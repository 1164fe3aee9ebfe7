package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/newscrawler/internal/config"
)

func TestNewInitCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	if cmd.Use != "init" {
		t.Errorf("Use = %q, want init", cmd.Use)
	}

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{name: "output", shorthand: "o", def: config.DefaultConfigFile},
		{name: "force", shorthand: "f", def: "false"},
		{name: "sources", def: "false"},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.name)
		if f == nil {
			t.Errorf("--%s is not defined", tt.name)
			continue
		}
		if f.Shorthand != tt.shorthand || f.DefValue != tt.def {
			t.Errorf("--%s: shorthand %q default %q, want %q %q",
				tt.name, f.Shorthand, f.DefValue, tt.shorthand, tt.def)
		}
	}
}

// runInit executes the init command with args.
func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "newscrawler.yaml")
		out, err := runInit(t, "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Created configuration file: "+outputPath) {
			t.Errorf("unexpected output %q", out)
		}

		cfg := config.NewConfig()
		if err := cfg.LoadFile(outputPath); err != nil {
			t.Fatalf("template does not load: %v", err)
		}

		defaults := config.NewConfig()
		if cfg.Schedule != defaults.Schedule {
			t.Errorf("template schedule %+v differs from defaults %+v", cfg.Schedule, defaults.Schedule)
		}
		if cfg.Crawl.Pacing != defaults.Crawl.Pacing || cfg.Crawl.DedupBatchSize != defaults.Crawl.DedupBatchSize {
			t.Errorf("template crawl section %+v differs from defaults %+v", cfg.Crawl, defaults.Crawl)
		}
		if cfg.Retry != defaults.Retry {
			t.Errorf("template retry section %+v differs from defaults %+v", cfg.Retry, defaults.Retry)
		}
	})

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "etc", "newscrawler", "newscrawler.yaml")
		if _, err := runInit(t, "-o", outputPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(outputPath); err != nil {
			t.Errorf("expected config file: %v", err)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "newscrawler.yaml")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := runInit(t, "-o", outputPath)
		if err == nil {
			t.Fatal("expected error for existing file")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "existing" {
			t.Error("existing file was modified")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "newscrawler.yaml")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "database:") {
			t.Error("expected template content after overwrite")
		}
	})

	t.Run("writes an importable source file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		out, err := runInit(t, "-o", filepath.Join(dir, "newscrawler.yaml"), "--sources")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sourcesPath := filepath.Join(dir, "sources.yaml")
		if !strings.Contains(out, "Created source file: "+sourcesPath) {
			t.Errorf("unexpected output %q", out)
		}

		sf, err := config.LoadSourceFile(sourcesPath)
		if err != nil {
			t.Fatalf("source template does not load: %v", err)
		}
		sources, err := sf.ToSources()
		if err != nil {
			t.Fatalf("source template is invalid: %v", err)
		}
		if len(sources) != 3 {
			t.Fatalf("expected 3 sources, got %d", len(sources))
		}
		if sources[2].Active {
			t.Error("expected the last example source to be inactive")
		}
	})
}
