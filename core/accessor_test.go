package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorElementRoundTrip(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateAccessor("uv").SetType(Vec2).SetArray([]float32{0, 1, 2, 3, 4, 5})

	assert.Equal(t, 3, a.Count())
	assert.Equal(t, 2, a.ElementSize())

	scratch := make([]float32, 2)
	assert.Equal(t, []float32{2, 3}, a.Element(1, scratch))

	a.SetElement(1, []float32{9, 9})
	assert.Equal(t, []float32{9, 9}, a.Element(1, scratch))
}

func TestAccessorMinMax(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateAccessor("p").SetType(Vec3).SetArray([]float32{
		-1, 5, 0,
		2, -3, 0,
		0, 0, 7,
	})

	assert.Equal(t, []float32{-1, -3, 0}, a.MinNormalized(nil))
	assert.Equal(t, []float32{2, 5, 7}, a.MaxNormalized(nil))

	t.Run("empty accessor folds to zero", func(t *testing.T) {
		empty := doc.CreateAccessor("").SetType(Vec2)
		assert.Equal(t, []float32{0, 0}, empty.MinNormalized(nil))
	})
}

func TestAccessorParentTracking(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateAccessor("shared").SetType(Vec3).SetArray([]float32{1, 2, 3})
	prim := doc.CreateMesh("m").CreatePrimitive()

	assert.Empty(t, a.ListParents())

	prim.SetAttribute(SemanticPosition, a)
	prim.SetAttribute(SemanticNormal, a)
	require.Len(t, a.ListParents(), 1)

	// Removing one of two slots keeps the parent registered.
	prim.SetAttribute(SemanticNormal, nil)
	assert.Len(t, a.ListParents(), 1)

	prim.SetAttribute(SemanticPosition, nil)
	assert.Empty(t, a.ListParents())
}

func TestAccessorDispose(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateAccessor("doomed").SetType(Vec3).SetArray([]float32{1, 2, 3})
	prim := doc.CreateMesh("m").CreatePrimitive()
	prim.SetAttribute(SemanticPosition, a)

	a.Dispose()

	assert.True(t, a.Disposed())
	assert.Nil(t, prim.Attribute(SemanticPosition))
	assert.Empty(t, doc.Accessors())

	// Idempotent.
	a.Dispose()
	assert.Empty(t, doc.Accessors())
}

func TestAccessorClone(t *testing.T) {
	doc := NewDocument()
	buf := doc.CreateBuffer("bin")
	a := doc.CreateAccessor("orig").
		SetType(Vec2).
		SetComponentType(ComponentUnsignedShort).
		SetNormalized(true).
		SetBuffer(buf).
		SetArray([]float32{1, 2, 3, 4})

	c := a.Clone()

	assert.Equal(t, a.Name(), c.Name())
	assert.Equal(t, a.Type(), c.Type())
	assert.Equal(t, a.ComponentType(), c.ComponentType())
	assert.Equal(t, a.Normalized(), c.Normalized())
	assert.Same(t, buf, c.Buffer())
	assert.Equal(t, a.Array(), c.Array())
	assert.Empty(t, c.ListParents())

	// Deep copy of the data.
	c.SetElement(0, []float32{9, 9})
	assert.Equal(t, []float32{1, 2}, a.Element(0, nil))
}
