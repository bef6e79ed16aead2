package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. It is the default so that library code stays silent
// until an application opts in with SetLogger.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(nopHandler{}))
}

// SetLogger sets the fallback logger used by engine components that were not given one explicitly.
// Passing nil restores the silent default.
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger.Store(l)
}

// Logger returns the fallback logger.
//
// Returns:
//   - *slog.Logger: the current fallback logger (never nil)
func Logger() *slog.Logger {
	return logger.Load()
}
