// Package audit provides the append-only structured event trail.
//
// Every dispatch, skip, provider attempt and consumer state transition is
// one JSON line in the event log. The log is the only user-visible signal
// when all providers fail, so writes must never panic or block delivery;
// an unwritable log degrades to stderr-only logging.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ParseLevel maps a config level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// teeHandler forwards records to every wrapped handler.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}

// NewLogger builds the process logger: a text handler on stderr at the
// configured level plus a JSON handler appending to the audit log at
// debug level. The returned close func releases the log file.
//
// If the audit file cannot be opened the logger still works on stderr;
// audio delivery never depends on the trail being writable.
func NewLogger(level slog.Level, auditPath string) (*slog.Logger, func()) {
	stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	file, err := openAppend(auditPath)
	if err != nil {
		logger := slog.New(stderr)
		logger.Warn("audit log unavailable", "path", auditPath, "error", err)
		return logger, func() {}
	}

	trail := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(&teeHandler{handlers: []slog.Handler{stderr, trail}})
	return logger, func() { _ = file.Close() }
}

func openAppend(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
}
