package core

import "encoding/json"

// Mesh is a named set of primitives.
type Mesh struct {
	doc        *Document
	name       string
	primitives []*Primitive

	// Weights are the default morph-target weights, passed through as-is.
	Weights []float64
	// Extras is the raw glTF extras object, passed through as-is.
	Extras json.RawMessage
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// SetName sets the mesh name.
func (m *Mesh) SetName(name string) *Mesh {
	m.name = name
	return m
}

// CreatePrimitive appends a new primitive in TRIANGLES mode.
func (m *Mesh) CreatePrimitive() *Primitive {
	p := &Primitive{doc: m.doc, mode: ModeTriangles}
	m.primitives = append(m.primitives, p)
	return p
}

// Primitives returns the mesh's primitives in order.
func (m *Mesh) Primitives() []*Primitive {
	out := make([]*Primitive, len(m.primitives))
	copy(out, m.primitives)
	return out
}
