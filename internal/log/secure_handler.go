package log

import (
	"context"
	"log/slog"
)

// SecureHandler is an slog.Handler that masks credentials (see redact)
// and forwards the record to the handler it wraps.
//
// Design decision: Masking lives in a handler rather than in a logger type
// so that packages keep accepting a plain *slog.Logger and the output
// format stays a separate choice (text or JSON).
type SecureHandler struct {
	next slog.Handler
}

var _ slog.Handler = (*SecureHandler)(nil)

// NewSecureHandler wraps next. A nil next falls back to the default
// logger's handler.
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled defers to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle rebuilds the record with masked attributes.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redact(a))
		return true
	})

	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	masked.AddAttrs(attrs...)
	return h.next.Handle(ctx, masked)
}

// WithAttrs masks attrs once, when they are bound to the logger.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(redactAll(attrs))}
}

// WithGroup defers to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}
