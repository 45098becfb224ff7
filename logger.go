package stlindex

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with stlindex-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithSource adds the input name to the logger.
func (l *Logger) WithSource(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", name),
	}
}

// WithWorkers adds the worker count to the logger.
func (l *Logger) WithWorkers(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("workers", n),
	}
}

// LogLoad logs a finished load.
func (l *Logger) LogLoad(ctx context.Context, name string, stats *Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"source", name,
			"elapsed", stats.Elapsed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "load completed",
		"source", name,
		"triangles", stats.Triangles,
		"unique_vertices", stats.Unique,
		"chunks", stats.Chunks,
		"elapsed", stats.Elapsed,
	)
}

// LogPhase logs one pipeline phase.
func (l *Logger) LogPhase(ctx context.Context, phase string, d time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "phase aborted",
			"phase", phase,
			"duration", d,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "phase completed",
		"phase", phase,
		"duration", d,
	)
}
