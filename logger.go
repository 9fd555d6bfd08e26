package vptree

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with tree-specific helpers so that build, search
// and persistence records share consistent field names.
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
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// LogBuild logs the completion of tree construction.
func (l *Logger) LogBuild(ctx context.Context, s BuildStats) {
	l.DebugContext(ctx, "tree built",
		"points", s.Points,
		"dimension", s.Dims,
		"nodes", s.Nodes,
		"leaves", s.Leaves,
		"depth", s.Depth,
		"duration", s.Duration,
	)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, kind string, queries, k int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"kind", kind,
			"queries", queries,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"kind", kind,
		"queries", queries,
		"k", k,
		"duration", elapsed,
	)
}

// LogSave logs a persistence write.
func (l *Logger) LogSave(ctx context.Context, bytes int64, compression CompressionType, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tree save failed",
			"compression", compression.String(),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "tree saved",
		"bytes", bytes,
		"compression", compression.String(),
	)
}

// LogLoad logs a persistence read. repaired is the number of parent links the
// load fix-up pass had to correct.
func (l *Logger) LogLoad(ctx context.Context, bytes int64, repaired int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tree load failed",
			"error", err,
		)
		return
	}
	if repaired > 0 {
		l.WarnContext(ctx, "repaired parent links while loading tree",
			"repaired", repaired,
		)
	}
	l.InfoContext(ctx, "tree loaded",
		"bytes", bytes,
	)
}
