package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format is a log output format.
type Format string

const (
	// FormatText writes logfmt-style key=value lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for a format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseFormat accepts "text" or "json" in any case. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Level is Debug when verbose and Info otherwise. Cycle progress is logged
// at Info, so a server without --verbose still records every cycle.
func Level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger returns a masking logger writing format to w.
func NewLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return newLogger(w, f, verbose), nil
}

// NewSecureLogger returns a masking text logger.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(w, FormatText, verbose)
}

// NewSecureJSONLogger returns a masking JSON logger.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(w, FormatJSON, verbose)
}

func newLogger(w io.Writer, f Format, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(verbose)}

	var h slog.Handler
	if f == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewSecureHandler(h))
}
