package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error keys err under "error"; a nil error is recorded as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that drops every record. Components fall back to
// it when constructed without a logger.
func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with component, e.g. "archive" or
// "translation". A nil logger yields a tagged no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// Degradation defaults for WARN records that omit a hint or an impact.
const (
	defaultWarnHint   = "check logs for details"
	defaultWarnImpact = "operation continued with reduced state"
)

// WarnWithContext records a degraded-but-continuing condition. Every record
// carries event_type, error_hint and impact; attrs may override the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	ensure := func(key, value string) {
		if !slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == key }) {
			attrs = append(attrs, String(key, value))
		}
	}
	ensure(FieldEventType, eventType)
	ensure(FieldErrorHint, defaultWarnHint)
	ensure(FieldImpact, defaultWarnImpact)
	logger.Warn(msg, attrsToArgs(attrs)...)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h discardHandler) WithGroup(string) slog.Handler { return h }
