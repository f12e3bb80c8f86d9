package gltfx

import (
	"context"
	"time"

	"github.com/xlsfs/glTF-Transform/core"
)

// Transform mutates a document in place. Transforms are applied through a
// Pipeline (or Apply), which supplies logging, metrics and scheduling
// context.
type Transform interface {
	// Name identifies the transform for logs and for pipeline scheduling
	// decisions (e.g. weld skips its trailing dedup when a dedup stage is
	// already pending).
	Name() string
	// Transform applies the mutation. It either completes or leaves a
	// well-formed document behind; configuration errors are reported before
	// any mutation.
	Transform(ctx context.Context, doc *core.Document) error
}

// Pipeline applies a sequence of transforms to documents.
type Pipeline struct {
	opts options
}

// NewPipeline creates a Pipeline.
func NewPipeline(optFns ...Option) *Pipeline {
	return &Pipeline{opts: applyOptions(optFns)}
}

// Run applies the transforms to doc in order. The first failure aborts the
// run; earlier stages remain applied.
func (p *Pipeline) Run(ctx context.Context, doc *core.Document, transforms ...Transform) error {
	for i, t := range transforms {
		pending := make([]string, 0, len(transforms)-i-1)
		for _, rest := range transforms[i+1:] {
			pending = append(pending, rest.Name())
		}
		stageCtx := withRuntime(ctx, &runtime{
			logger:      p.opts.logger,
			metrics:     p.opts.metrics,
			parallelism: p.opts.parallelism,
			pending:     pending,
		})

		start := time.Now()
		err := t.Transform(stageCtx, doc)
		duration := time.Since(start)

		p.opts.metrics.RecordTransform(t.Name(), duration, err)
		p.opts.logger.LogTransform(ctx, t.Name(), duration, err)
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Apply runs the transforms with default pipeline settings.
func Apply(ctx context.Context, doc *core.Document, transforms ...Transform) error {
	return NewPipeline().Run(ctx, doc, transforms...)
}

// runtime carries per-stage execution context from the pipeline into a
// transform. Transforms invoked directly (outside a pipeline) see defaults.
type runtime struct {
	logger      *Logger
	metrics     MetricsCollector
	parallelism int
	pending     []string
}

type runtimeKey struct{}

func withRuntime(ctx context.Context, rt *runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func runtimeFrom(ctx context.Context) *runtime {
	if rt, ok := ctx.Value(runtimeKey{}).(*runtime); ok {
		return rt
	}
	return &runtime{
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		parallelism: 1,
	}
}

// transformPending reports whether a stage with the given name is scheduled
// later in the current pipeline run.
func transformPending(ctx context.Context, name string) bool {
	for _, pending := range runtimeFrom(ctx).pending {
		if pending == name {
			return true
		}
	}
	return false
}
