package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "newscrawler" {
			t.Errorf("expected use 'newscrawler', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{name: "verbose", shorthand: "v", defValue: "false"},
			{name: "config", shorthand: "c", defValue: ""},
			{name: "log-format", shorthand: "", defValue: ""},
		}
		for _, tt := range tests {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"run", "serve", "sources", "history", "articles", "init", "version"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
		}
	})
}

func TestNewSourcesCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSourcesCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"list", "add", "enable", "disable"} {
		if !names[want] {
			t.Errorf("expected sources %s subcommand", want)
		}
	}
}

func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	flagsWithShort := map[string]string{
		"format": "f",
		"output": "o",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}

	if got := cmd.Flags().Lookup("format").DefValue; got != "text" {
		t.Errorf("expected default format 'text', got %q", got)
	}
}

func TestRunCmdRejectsUnknownFormat(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:1")

	_, err := execute(t, "run", "--format", "xml", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}
