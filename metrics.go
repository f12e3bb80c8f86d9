package gltfx

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordTransform is called after each pipeline stage.
	// duration is the total time taken, err is nil if successful.
	RecordTransform(name string, duration time.Duration, err error)

	// RecordWeldPrimitive is called after each primitive weld.
	// srcVertexCount/dstVertexCount are the vertex counts before and after,
	// avgNeighborIters is the mean number of grid candidates examined per
	// unique vertex.
	RecordWeldPrimitive(srcVertexCount, dstVertexCount int, avgNeighborIters float64, duration time.Duration)

	// RecordDedup is called after each accessor dedup pass.
	// before/after are the accessor counts around the pass.
	RecordDedup(before, after int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransform(string, time.Duration, error)           {}
func (NoopMetricsCollector) RecordWeldPrimitive(int, int, float64, time.Duration)   {}
func (NoopMetricsCollector) RecordDedup(int, int, time.Duration)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	TransformCount      atomic.Int64
	TransformErrors     atomic.Int64
	TransformTotalNanos atomic.Int64

	WeldPrimitiveCount atomic.Int64
	WeldSrcVertices    atomic.Int64
	WeldDstVertices    atomic.Int64

	DedupCount   atomic.Int64
	DedupRemoved atomic.Int64
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(_ string, duration time.Duration, err error) {
	b.TransformCount.Add(1)
	b.TransformTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransformErrors.Add(1)
	}
}

// RecordWeldPrimitive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWeldPrimitive(srcVertexCount, dstVertexCount int, _ float64, _ time.Duration) {
	b.WeldPrimitiveCount.Add(1)
	b.WeldSrcVertices.Add(int64(srcVertexCount))
	b.WeldDstVertices.Add(int64(dstVertexCount))
}

// RecordDedup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDedup(before, after int, _ time.Duration) {
	b.DedupCount.Add(1)
	b.DedupRemoved.Add(int64(before - after))
}

// Stats is a snapshot of BasicMetricsCollector state.
type Stats struct {
	TransformCount  int64
	TransformErrors int64
	TransformAvgNanos int64

	WeldPrimitiveCount int64
	WeldSrcVertices    int64
	WeldDstVertices    int64

	DedupCount   int64
	DedupRemoved int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() Stats {
	s := Stats{
		TransformCount:     b.TransformCount.Load(),
		TransformErrors:    b.TransformErrors.Load(),
		WeldPrimitiveCount: b.WeldPrimitiveCount.Load(),
		WeldSrcVertices:    b.WeldSrcVertices.Load(),
		WeldDstVertices:    b.WeldDstVertices.Load(),
		DedupCount:         b.DedupCount.Load(),
		DedupRemoved:       b.DedupRemoved.Load(),
	}
	if s.TransformCount > 0 {
		s.TransformAvgNanos = b.TransformTotalNanos.Load() / s.TransformCount
	}
	return s
}
