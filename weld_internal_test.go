package gltfx

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlsfs/glTF-Transform/core"
)

func TestResolveTolerance(t *testing.T) {
	doc := core.NewDocument()

	t.Run("fixed semantics", func(t *testing.T) {
		a := doc.CreateAccessor("").SetType(core.Vec3).SetArray([]float32{0, 0, 1})
		assert.Equal(t, 0.5, resolveTolerance(core.SemanticNormal, a, 0.01))
		assert.Equal(t, 0.5, resolveTolerance(core.SemanticTangent, a, 0.01))
		assert.Equal(t, 0.01, resolveTolerance("COLOR_0", a, 0.01))
		assert.Equal(t, 0.0001, resolveTolerance("TEXCOORD_1", a, 0.01))
		assert.Equal(t, 0.0, resolveTolerance("JOINTS_0", a, 0.01))
		assert.Equal(t, 0.01, resolveTolerance("WEIGHTS_0", a, 0.01))
	})

	t.Run("scaled by value range", func(t *testing.T) {
		a := doc.CreateAccessor("").SetType(core.Vec3).SetArray([]float32{
			0, 0, 0,
			2, 1, 0,
		})
		assert.InDelta(t, 0.02, resolveTolerance(core.SemanticPosition, a, 0.01), 1e-12)
	})

	t.Run("degenerate range falls back to one", func(t *testing.T) {
		a := doc.CreateAccessor("").SetType(core.Scalar).SetArray([]float32{7, 7, 7})
		assert.InDelta(t, 0.01, resolveTolerance("_INTENSITY", a, 0.01), 1e-12)
	})

	t.Run("epsilon floor", func(t *testing.T) {
		a := doc.CreateAccessor("").SetType(core.Scalar).SetArray([]float32{0, 1})
		got := resolveTolerance("_X", a, 1e-300)
		assert.Equal(t, epsilonTolerance, got)
		assert.Positive(t, got)
	})
}

func TestQuantizeCoord(t *testing.T) {
	assert.Equal(t, float32(0), quantizeCoord(0.49, 1))
	assert.Equal(t, float32(1), quantizeCoord(0.5, 1)) // half rounds away from zero
	assert.Equal(t, float32(1), quantizeCoord(1.49, 1))
	assert.Equal(t, float32(-1), quantizeCoord(-0.5, 1))
	assert.InDelta(t, 0.004, quantizeCoord(0.0041, 0.002), 1e-9)
}

func TestNeighborKeys(t *testing.T) {
	w := &welder{cellSize: 1}
	p := mgl32.Vec3{0.2, 0.2, 0.2}
	keys := w.neighborKeys(p)

	distinct := make(map[cellKey]int)
	for _, k := range keys {
		distinct[k]++
	}
	// The half-cell perturbations reach the two candidate cells per axis.
	assert.Len(t, distinct, 8)
	assert.Contains(t, distinct, w.cellKeyAt(p))
	for k := range distinct {
		for _, c := range []float32{k.x, k.y, k.z} {
			assert.Contains(t, []float32{0, 1}, c)
		}
	}
}

func TestIndexComponentType(t *testing.T) {
	assert.Equal(t, core.ComponentUnsignedShort, indexComponentType(0))
	assert.Equal(t, core.ComponentUnsignedShort, indexComponentType(65535))
	assert.Equal(t, core.ComponentUnsignedInt, indexComponentType(65536))
}

func TestCheckVertexLimit(t *testing.T) {
	assert.NoError(t, checkVertexLimit("m", MaxWeldVertexCount))

	err := checkVertexLimit("m", MaxWeldVertexCount+1)
	var limit *ErrTooManyVertices
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "m", limit.Mesh)
	assert.Equal(t, MaxWeldVertexCount+1, limit.VertexCount)
}
