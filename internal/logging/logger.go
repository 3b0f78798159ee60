// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the component-tagged structured logger used
// across logvigil. It wraps log/slog rather than a wholesale
// third-party framework: every call site needs exactly
// logger.Info(msg, "k", v, ...) / logger.WithComponent(name), which is
// the slog.Logger shape verbatim, so there is nothing a heavier
// dependency would buy here (see DESIGN.md).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is a thin wrapper around *slog.Logger that tags every record
// with a "component" attribute and exposes the handful of levels
// logvigil's action dispatcher and main loop actually use.
type Logger struct {
	base *slog.Logger
}

var (
	mu         sync.RWMutex
	defaultLog = New(Options{})
)

// Options configures the default/root logger.
type Options struct {
	// Verbose enables info-level output; without it only warnings and
	// errors are emitted (mirrors -v/-V on the command line).
	Verbose bool
	// Debug additionally attaches variable-binding context to action
	// failures (mirrors -d).
	Debug bool
	// Syslog, if non-nil, receives a copy of every record in addition
	// to stderr.
	Syslog io.Writer
}

// New builds a root Logger per Options.
func New(opts Options) *Logger {
	level := slog.LevelWarn
	if opts.Verbose || opts.Debug {
		level = slog.LevelInfo
	}
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}
	if opts.Syslog != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Syslog, &slog.HandlerOptions{Level: level}))
	}

	return &Logger{base: slog.New(fanoutHandler(handlers))}
}

// SetDefault replaces the package-level default logger, e.g. after
// config load resolves -v/-s/-d flags.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLog = l
}

// Default returns the package-level default logger.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLog
}

// WithComponent returns a child logger tagging every record with the
// given component name, e.g. logging.Default().WithComponent("engine").
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{base: l.base.With("component", name)}
}

// With returns a child logger with the given key/value pairs attached
// to every subsequent record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

// fanoutHandler broadcasts each record to every handler in turn (e.g.
// stderr and a syslog sink) while reporting the weakest Enabled level
// so callers only pay for computing attributes once.
type fanout struct {
	handlers []slog.Handler
}

func fanoutHandler(handlers []slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &fanout{handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
