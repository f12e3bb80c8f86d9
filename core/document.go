package core

import (
	"encoding/json"
	"sync"
)

// Document is the root of a glTF object graph.
//
// Entity lists are append-ordered; indices into them are only assigned at
// serialization time, so transforms may dispose entities freely without
// leaving holes.
type Document struct {
	mu sync.Mutex

	buffers    []*Buffer
	accessors  []*Accessor
	meshes     []*Mesh
	skins      []*Skin
	animations []*Animation

	// raw holds top-level glTF sections this toolkit does not model
	// (nodes, scenes, materials, textures, ...). They are carried through
	// reads and writes byte for byte.
	raw map[string]json.RawMessage
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{raw: make(map[string]json.RawMessage)}
}

// CreateBuffer creates a buffer entity with the given URI ("" for the
// binary chunk of a GLB container).
func (d *Document) CreateBuffer(uri string) *Buffer {
	b := &Buffer{doc: d, uri: uri}
	d.mu.Lock()
	d.buffers = append(d.buffers, b)
	d.mu.Unlock()
	return b
}

// CreateAccessor creates an empty accessor attached to the document.
func (d *Document) CreateAccessor(name string) *Accessor {
	a := &Accessor{
		doc:      d,
		name:     name,
		elemType: Scalar,
		compType: ComponentFloat,
		parents:  make(map[Parent]int),
	}
	d.mu.Lock()
	d.accessors = append(d.accessors, a)
	d.mu.Unlock()
	return a
}

// CreateMesh creates a mesh entity.
func (d *Document) CreateMesh(name string) *Mesh {
	m := &Mesh{doc: d, name: name}
	d.mu.Lock()
	d.meshes = append(d.meshes, m)
	d.mu.Unlock()
	return m
}

// CreateSkin creates a skin entity.
func (d *Document) CreateSkin(name string) *Skin {
	s := &Skin{doc: d, name: name}
	d.mu.Lock()
	d.skins = append(d.skins, s)
	d.mu.Unlock()
	return s
}

// CreateAnimation creates an animation entity.
func (d *Document) CreateAnimation(name string) *Animation {
	a := &Animation{doc: d, name: name}
	d.mu.Lock()
	d.animations = append(d.animations, a)
	d.mu.Unlock()
	return a
}

// Buffers returns a snapshot of the document's buffers.
func (d *Document) Buffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Buffer, len(d.buffers))
	copy(out, d.buffers)
	return out
}

// Accessors returns a snapshot of the document's accessors.
func (d *Document) Accessors() []*Accessor {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Accessor, len(d.accessors))
	copy(out, d.accessors)
	return out
}

// Meshes returns a snapshot of the document's meshes.
func (d *Document) Meshes() []*Mesh {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Mesh, len(d.meshes))
	copy(out, d.meshes)
	return out
}

// Skins returns a snapshot of the document's skins.
func (d *Document) Skins() []*Skin {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Skin, len(d.skins))
	copy(out, d.skins)
	return out
}

// Animations returns a snapshot of the document's animations.
func (d *Document) Animations() []*Animation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Animation, len(d.animations))
	copy(out, d.animations)
	return out
}

// Raw returns an unmodeled top-level glTF section by key, or nil.
func (d *Document) Raw(key string) json.RawMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw[key]
}

// SetRaw stores an unmodeled top-level glTF section for pass-through.
func (d *Document) SetRaw(key string, value json.RawMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if value == nil {
		delete(d.raw, key)
		return
	}
	d.raw[key] = value
}

// RawKeys returns the keys of all pass-through sections.
func (d *Document) RawKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.raw))
	for k := range d.raw {
		keys = append(keys, k)
	}
	return keys
}

func (d *Document) removeAccessor(a *Accessor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, acc := range d.accessors {
		if acc == a {
			d.accessors = append(d.accessors[:i], d.accessors[i+1:]...)
			return
		}
	}
}
