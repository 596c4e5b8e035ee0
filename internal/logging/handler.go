// Package logging builds the daemon's slog.Logger per spec.md §6's
// environment variables: JSON in production, text in development, with
// LOG_STDOUT optionally duplicating output to a second handler. This
// generalizes the teacher's single-handler wiring in cmd/api/main.go to
// support more than one destination.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// New builds the daemon's root logger. production selects the JSON handler
// (matching the teacher's ENV=="production" check); debug elevates the
// level. The primary handler always writes to stdout. In production,
// logStdout adds a second text handler that also writes to stdout, so each
// record appears once as JSON and once as text; in development logStdout
// has no effect.
func New(production, debug, logStdout bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var primary slog.Handler
	if production {
		primary = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		primary = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	if !logStdout || !production {
		// Development already logs to stdout as text; a JSON production
		// logger is the only case where LOG_STDOUT adds something new.
		return slog.New(primary)
	}

	secondary := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(&multiHandler{handlers: []slog.Handler{primary, secondary}})
}

// multiHandler fans every record out to each of its handlers. It is not
// itself bound to any particular output — callers provide already-configured
// handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
