package gltfx

import "log/slog"

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	parallelism int
}

// Option configures Pipeline behavior.
type Option func(*options)

// WithLogger configures structured logging for pipeline stages.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for pipeline stages.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithParallelism bounds how many primitives a transform may process
// concurrently. Primitives share no mutable state during welding, so
// documents with many primitives scale close to linearly until memory
// bandwidth dominates. Values below 1 mean sequential (the default).
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		parallelism: 1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}
	return o
}
