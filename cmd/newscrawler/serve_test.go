package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/newscrawler/internal/config"
	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/report"
)

func testCycle() *model.CycleReport {
	started := time.Date(2026, 3, 14, 4, 0, 5, 0, time.UTC)
	cycle := model.NewCycleReport("7f0c1d9e-2b7a-4c55-9a1e-3f0f2d6c8b11", started)

	src := model.NewSourceReport(model.Source{
		URL:      "https://news.example.com/",
		Language: model.LanguageEnglish,
		Name:     "Example News",
		Active:   true,
	}, started)
	src.Discovered = 1
	src.New = 1
	src.AddOutcome(model.URLOutcome{
		URL:    "https://news.example.com/a/1",
		Status: model.OutcomeAccepted,
		Title:  "Budget approved",
		Tags:   []string{"Legislation"},
	})
	src.FinishedAt = started.Add(time.Minute)
	cycle.AddSource(src)
	cycle.FinishedAt = started.Add(time.Minute)
	return cycle
}

func TestReportFileName(t *testing.T) {
	t.Parallel()

	cycle := testCycle()

	tests := []struct {
		format report.Format
		want   string
	}{
		{report.FormatText, "cycle-20260314-040005-7f0c1d9e.txt"},
		{report.FormatJSON, "cycle-20260314-040005-7f0c1d9e.json"},
		{report.FormatMarkdown, "cycle-20260314-040005-7f0c1d9e.md"},
		{report.Format("other"), "cycle-20260314-040005-7f0c1d9e.txt"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			if got := reportFileName(tt.format, cycle); got != tt.want {
				t.Errorf("reportFileName() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("short ID is kept", func(t *testing.T) {
		t.Parallel()
		c := model.NewCycleReport("abc", cycle.StartedAt)
		if got := reportFileName(report.FormatJSON, c); got != "cycle-20260314-040005-abc.json" {
			t.Errorf("unexpected name %q", got)
		}
	})
}

func TestSaveCycleReport(t *testing.T) {
	t.Parallel()

	t.Run("writes a JSON report", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "reports")
		path, err := saveCycleReport(dir, report.FormatJSON, testCycle())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("expected report in %s, got %s", dir, path)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON report: %v", err)
		}
		if got.Totals.Accepted != 1 {
			t.Errorf("expected 1 accepted article, got %d", got.Totals.Accepted)
		}
	})

	t.Run("writes a markdown report", func(t *testing.T) {
		t.Parallel()

		path, err := saveCycleReport(t.TempDir(), report.FormatMarkdown, testCycle())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Crawl Cycle Report") {
			t.Errorf("unexpected markdown report:\n%s", data)
		}
	})

	t.Run("fails when the directory is a file", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "reports")
		if err := os.WriteFile(file, nil, 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := saveCycleReport(file, report.FormatText, testCycle()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestApplyServeFlags(t *testing.T) {
	t.Parallel()

	t.Run("keeps configuration without flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewServeCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		cfg.Schedule.Hour = 6
		cfg.Schedule.RunImmediately = false

		if err := applyServeFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Schedule.Hour != 6 || cfg.Schedule.RunImmediately {
			t.Errorf("flag defaults overrode the configuration: %+v", cfg.Schedule)
		}
	})

	t.Run("overrides with set flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewServeCmd()
		err := cmd.ParseFlags([]string{
			"--hour", "22",
			"--minute", "30",
			"--timezone", "Asia/Hong_Kong",
			"--run-immediately=false",
			"--shutdown-grace", "30s",
		})
		if err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		if err := applyServeFlags(cmd, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := config.ScheduleConfig{
			Hour:           22,
			Minute:         30,
			RunImmediately: false,
			Timezone:       "Asia/Hong_Kong",
			ShutdownGrace:  30 * time.Second,
		}
		if cfg.Schedule != want {
			t.Errorf("Schedule = %+v, want %+v", cfg.Schedule, want)
		}
	})
}

func TestServeCmdRejectsInvalidSchedule(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:1")

	_, err := execute(t, "serve", "--hour", "25", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for invalid hour")
	}
	if !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("unexpected error: %v", err)
	}
}
