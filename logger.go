package topomap

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with map-specific context.
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

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithOrbit adds an orbit field to the logger.
func (l *Logger) WithOrbit(orbit Orbit) *Logger {
	return &Logger{
		Logger: l.Logger.With("orbit", orbit.String()),
	}
}

// LogCompact logs a compaction of one orbit container.
func (l *Logger) LogCompact(ctx context.Context, orbit Orbit, before, after uint32, d time.Duration) {
	l.WithOrbit(orbit).DebugContext(ctx, "container compacted",
		"max_size_before", before,
		"max_size_after", after,
		"duration", d,
	)
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, format string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"format", format,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "map saved",
			"format", format,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, format string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"format", format,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "map loaded",
			"format", format,
			"bytes", bytes,
		)
	}
}

// LogParallel logs the end of a parallel traversal.
func (l *Logger) LogParallel(ctx context.Context, orbit Orbit, workers, cells int, d time.Duration) {
	l.WithOrbit(orbit).DebugContext(ctx, "parallel traversal completed",
		"workers", workers,
		"cells", cells,
		"duration", d,
	)
}
