package gltfx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gltfx "github.com/xlsfs/glTF-Transform"
	"github.com/xlsfs/glTF-Transform/core"
	"github.com/xlsfs/glTF-Transform/testutil"
)

func weldQuad(t *testing.T, attrs ...testutil.Attribute) (*core.Document, *core.Primitive) {
	t.Helper()
	doc := core.NewDocument()
	base := []testutil.Attribute{{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.QuadPositions(),
	}}
	prim := testutil.BuildPrimitive(doc, "quad", append(base, attrs...)...)
	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))
	return doc, prim
}

func indexValues(t *testing.T, prim *core.Primitive) []int {
	t.Helper()
	indices := prim.Indices()
	require.NotNil(t, indices)
	out := make([]int, indices.Count())
	for i, v := range indices.Array() {
		out[i] = int(v)
	}
	return out
}

func TestWeldQuad(t *testing.T) {
	_, prim := weldQuad(t)

	assert.Equal(t, 4, prim.VertexCount())
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, indexValues(t, prim))

	// Compacted positions keep first-occurrence order.
	pos := prim.Attribute(core.SemanticPosition)
	assert.Equal(t, []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}, pos.Array())
}

func TestWeldNormalsTolerance(t *testing.T) {
	t.Run("beyond threshold blocks merge", func(t *testing.T) {
		// Vertices 0 and 3 share a position but disagree on normal x by 0.6,
		// beyond the fixed 0.5 threshold. Vertices 2 and 4 agree exactly.
		_, prim := weldQuad(t, testutil.Attribute{
			Semantic: core.SemanticNormal,
			Type:     core.Vec3,
			Data: []float32{
				0, 0, 1,
				0, 0, 1,
				0, 0, 1,
				0.6, 0, 0.8,
				0, 0, 1,
				0, 0, 1,
			},
		})
		assert.Equal(t, 5, prim.VertexCount())
	})

	t.Run("within threshold merges", func(t *testing.T) {
		_, prim := weldQuad(t, testutil.Attribute{
			Semantic: core.SemanticNormal,
			Type:     core.Vec3,
			Data: []float32{
				0, 0, 1,
				0, 0, 1,
				0, 0, 1,
				0.4, 0, 0.9,
				0, 0, 1,
				0, 0, 1,
			},
		})
		assert.Equal(t, 4, prim.VertexCount())
	})
}

func TestWeldJointsExact(t *testing.T) {
	// Skinning joint indices only merge when identical: vertices 0 and 3
	// differ by a single joint index and must stay apart.
	_, prim := weldQuad(t, testutil.Attribute{
		Semantic: core.SemanticJoints,
		Type:     core.Vec4,
		Data: []float32{
			1, 0, 0, 0,
			1, 0, 0, 0,
			1, 0, 0, 0,
			2, 0, 0, 0,
			1, 0, 0, 0,
			1, 0, 0, 0,
		},
	})
	assert.Equal(t, 5, prim.VertexCount())
}

func TestWeldPointsUntouched(t *testing.T) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "points", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.QuadPositions(),
	})
	prim.SetMode(core.ModePoints)

	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

	assert.Nil(t, prim.Indices())
	assert.Equal(t, 6, prim.VertexCount())
}

func TestWeldZeroTolerance(t *testing.T) {
	doc := core.NewDocument()
	buf := doc.CreateBuffer("geometry.bin")
	prim := testutil.BuildPrimitive(doc, "quad", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.QuadPositions(),
	})
	prim.Attribute(core.SemanticPosition).SetBuffer(buf)

	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld(func(o *gltfx.WeldOptions) {
		o.Tolerance = 0
	})))

	// No merging, just an identity index buffer sharing the position buffer.
	assert.Equal(t, 6, prim.VertexCount())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, indexValues(t, prim))
	assert.Equal(t, core.ComponentUnsignedShort, prim.Indices().ComponentType())
	assert.Same(t, buf, prim.Indices().Buffer())
}

func TestWeldOverwriteFalse(t *testing.T) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "tri", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.Duplicate([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, 1),
	})
	indices := testutil.IndexAccessor(doc, 0, 1, 2)
	prim.SetIndices(indices)

	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld(func(o *gltfx.WeldOptions) {
		o.Overwrite = false
	})))

	assert.Same(t, indices, prim.Indices())
	assert.Equal(t, 6, prim.VertexCount())
}

func TestWeldUnreferencedVerticesDropped(t *testing.T) {
	// Indexed primitive referencing 3 of 6 vertices: welding compacts to the
	// referenced set even when nothing merges.
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "tri", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data: []float32{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			5, 5, 5,
			6, 6, 6,
			7, 7, 7,
		},
	})
	prim.SetIndices(testutil.IndexAccessor(doc, 0, 1, 2))

	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

	assert.Equal(t, 3, prim.VertexCount())
	assert.Equal(t, []int{0, 1, 2}, indexValues(t, prim))
}

func TestWeldIdempotent(t *testing.T) {
	doc, prim := weldQuad(t)

	first := indexValues(t, prim)
	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

	assert.Equal(t, 4, prim.VertexCount())
	assert.Equal(t, first, indexValues(t, prim))
}

func TestWeldToleranceMonotonic(t *testing.T) {
	rng := testutil.NewRNG(42)
	grid := testutil.GridPositions(5, 5, 1)
	positions := append(grid, rng.Jitter(grid, 0.0005)...)

	weldAt := func(tolerance float64) int {
		doc := core.NewDocument()
		prim := testutil.BuildPrimitive(doc, "grid", testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     positions,
		})
		require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld(func(o *gltfx.WeldOptions) {
			o.Tolerance = tolerance
		})))
		return prim.VertexCount()
	}

	loose := weldAt(0.01)
	tight := weldAt(1e-6)
	assert.Equal(t, 25, loose, "every jittered duplicate merges with its grid point")
	assert.LessOrEqual(t, loose, tight)
	assert.LessOrEqual(t, tight, 50)
}

func TestWeldInvalidTolerance(t *testing.T) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "quad", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.QuadPositions(),
	})

	err := gltfx.Apply(context.Background(), doc, gltfx.Weld(func(o *gltfx.WeldOptions) {
		o.Tolerance = 0.2
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, gltfx.ErrInvalidConfig)
	var tolErr *gltfx.ErrInvalidTolerance
	assert.ErrorAs(t, err, &tolErr)
	assert.Equal(t, 0.2, tolErr.Tolerance)

	// Rejected before any mutation.
	assert.Nil(t, prim.Indices())
	assert.Equal(t, 6, prim.VertexCount())
}

func TestWeldMorphTargets(t *testing.T) {
	t.Run("mismatched deltas block merge", func(t *testing.T) {
		doc := core.NewDocument()
		prim := testutil.BuildPrimitive(doc, "morph", testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     testutil.QuadPositions(),
		})
		// Vertices 0 and 3 coincide in the base mesh but separate under the
		// morph target; vertices 2 and 4 stay together everywhere.
		deltas := make([]float32, 18)
		deltas[3*3+1] = 0.5
		target := prim.CreateTarget("open")
		target.SetAttribute(core.SemanticPosition, doc.CreateAccessor("").
			SetType(core.Vec3).
			SetComponentType(core.ComponentFloat).
			SetArray(deltas))

		require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

		assert.Equal(t, 5, prim.VertexCount())
		// Target attributes are compacted in lockstep with the base mesh.
		assert.Equal(t, 5, target.Attribute(core.SemanticPosition).Count())
	})

	t.Run("matching deltas merge", func(t *testing.T) {
		doc := core.NewDocument()
		prim := testutil.BuildPrimitive(doc, "morph", testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     testutil.QuadPositions(),
		})
		target := prim.CreateTarget("open")
		target.SetAttribute(core.SemanticPosition, doc.CreateAccessor("").
			SetType(core.Vec3).
			SetComponentType(core.ComponentFloat).
			SetArray(make([]float32, 18)))

		require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

		assert.Equal(t, 4, prim.VertexCount())
		assert.Equal(t, 4, target.Attribute(core.SemanticPosition).Count())
	})
}

func TestWeldConstantCustomAttribute(t *testing.T) {
	// A constant custom attribute has zero range; the resolver falls back to
	// a range of 1 so the attribute never blocks merging.
	_, prim := weldQuad(t, testutil.Attribute{
		Semantic: "_INTENSITY",
		Type:     core.Scalar,
		Data:     []float32{7, 7, 7, 7, 7, 7},
	})
	assert.Equal(t, 4, prim.VertexCount())
}

func TestWeldMissingPosition(t *testing.T) {
	doc := core.NewDocument()
	testutil.BuildPrimitive(doc, "broken", testutil.Attribute{
		Semantic: core.SemanticNormal,
		Type:     core.Vec3,
		Data:     []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
	})

	err := gltfx.Apply(context.Background(), doc, gltfx.Weld())
	var posErr *gltfx.ErrMissingPosition
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, "broken", posErr.Mesh)
}

func TestWeldDisposesReplacedAccessors(t *testing.T) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "quad", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     testutil.QuadPositions(),
	})
	before := prim.Attribute(core.SemanticPosition)

	require.NoError(t, gltfx.Apply(context.Background(), doc, gltfx.Weld()))

	assert.True(t, before.Disposed())
	for _, a := range doc.Accessors() {
		assert.False(t, a.Disposed())
	}
}

func TestWeldSkipsTrailingDedupWhenPending(t *testing.T) {
	run := func(transforms ...gltfx.Transform) gltfx.Stats {
		doc := core.NewDocument()
		testutil.BuildPrimitive(doc, "quad", testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     testutil.QuadPositions(),
		})
		metrics := &gltfx.BasicMetricsCollector{}
		pipe := gltfx.NewPipeline(gltfx.WithMetricsCollector(metrics))
		require.NoError(t, pipe.Run(context.Background(), doc, transforms...))
		return metrics.GetStats()
	}

	alone := run(gltfx.Weld())
	assert.Equal(t, int64(1), alone.DedupCount, "weld runs its own trailing dedup")

	chained := run(gltfx.Weld(), gltfx.Dedup())
	assert.Equal(t, int64(1), chained.DedupCount, "trailing dedup yields to the pending stage")
}

func TestWeldParallel(t *testing.T) {
	doc := core.NewDocument()
	prims := make([]*core.Primitive, 8)
	for i := range prims {
		prims[i] = testutil.BuildPrimitive(doc, "quad", testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     testutil.QuadPositions(),
		})
	}

	pipe := gltfx.NewPipeline(gltfx.WithParallelism(4))
	require.NoError(t, pipe.Run(context.Background(), doc, gltfx.Weld()))

	for _, prim := range prims {
		assert.Equal(t, 4, prim.VertexCount())
	}
}

func TestWeldRejectsNonVec3Position(t *testing.T) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "flat", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec2,
		Data:     []float32{0, 0, 1, 0, 1, 1},
	})

	err := gltfx.Apply(context.Background(), doc, gltfx.Weld())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VEC3")
	assert.Nil(t, prim.Indices(), "rejected primitive is left untouched")
}
