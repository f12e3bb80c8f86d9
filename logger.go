package gltfx

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with transform-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithMesh adds a mesh name field to the logger.
func (l *Logger) WithMesh(name string) *Logger {
	return &Logger{Logger: l.Logger.With("mesh", name)}
}

// WithSemantic adds an attribute semantic field to the logger.
func (l *Logger) WithSemantic(semantic string) *Logger {
	return &Logger{Logger: l.Logger.With("semantic", semantic)}
}

// WithTolerance adds a tolerance field to the logger.
func (l *Logger) WithTolerance(tolerance float64) *Logger {
	return &Logger{Logger: l.Logger.With("tolerance", tolerance)}
}

// LogTransform logs a completed pipeline stage.
func (l *Logger) LogTransform(ctx context.Context, name string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transform failed",
			"transform", name,
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "transform completed",
			"transform", name,
			"duration", duration,
		)
	}
}

// LogWeldPrimitive logs the outcome of welding one primitive.
func (l *Logger) LogWeldPrimitive(ctx context.Context, srcVertexCount, dstVertexCount int, avgNeighborIters float64) {
	l.DebugContext(ctx, "primitive welded",
		"src_vertices", srcVertexCount,
		"dst_vertices", dstVertexCount,
		"avg_neighbor_iters", avgNeighborIters,
	)
}

// LogWeldSkip logs a primitive left unchanged by weld.
func (l *Logger) LogWeldSkip(ctx context.Context, reason string) {
	l.DebugContext(ctx, "primitive skipped", "reason", reason)
}

// LogDedup logs the outcome of an accessor dedup pass.
func (l *Logger) LogDedup(ctx context.Context, before, after int) {
	l.DebugContext(ctx, "accessors deduplicated",
		"before", before,
		"after", after,
	)
}
