package core

import "github.com/go-gl/mathgl/mgl32"

type attributeSlot struct {
	semantic string
	accessor *Accessor
}

// Primitive is an ordered set of vertex attributes sharing a common vertex
// count, with an optional index accessor, a draw mode and zero or more morph
// targets.
type Primitive struct {
	doc        *Document
	name       string
	mode       Mode
	attributes []attributeSlot
	indices    *Accessor
	targets    []*MorphTarget

	// MaterialIndex is a pass-through reference into the document's raw
	// materials section; transforms never touch materials.
	MaterialIndex *int
}

// Name returns the primitive's name.
func (p *Primitive) Name() string { return p.name }

// Mode returns the draw mode.
func (p *Primitive) Mode() Mode { return p.mode }

// SetMode sets the draw mode.
func (p *Primitive) SetMode(m Mode) *Primitive {
	p.mode = m
	return p
}

// Indices returns the index accessor, or nil for non-indexed geometry.
func (p *Primitive) Indices() *Accessor { return p.indices }

// SetIndices sets or clears (nil) the index accessor.
func (p *Primitive) SetIndices(a *Accessor) *Primitive {
	attachRef(p, p.indices, a)
	p.indices = a
	return p
}

// Attribute returns the accessor bound to semantic, or nil.
func (p *Primitive) Attribute(semantic string) *Accessor {
	for _, slot := range p.attributes {
		if slot.semantic == semantic {
			return slot.accessor
		}
	}
	return nil
}

// SetAttribute binds an accessor to a semantic, replacing any previous
// binding. A nil accessor removes the semantic.
func (p *Primitive) SetAttribute(semantic string, a *Accessor) *Primitive {
	for i, slot := range p.attributes {
		if slot.semantic == semantic {
			attachRef(p, slot.accessor, a)
			if a == nil {
				p.attributes = append(p.attributes[:i], p.attributes[i+1:]...)
			} else {
				p.attributes[i].accessor = a
			}
			return p
		}
	}
	if a == nil {
		return p
	}
	attachRef(p, nil, a)
	p.attributes = append(p.attributes, attributeSlot{semantic: semantic, accessor: a})
	return p
}

// Semantics returns the attribute semantics in binding order.
func (p *Primitive) Semantics() []string {
	out := make([]string, len(p.attributes))
	for i, slot := range p.attributes {
		out[i] = slot.semantic
	}
	return out
}

// Attributes returns the attribute accessors in binding order.
func (p *Primitive) Attributes() []*Accessor {
	out := make([]*Accessor, len(p.attributes))
	for i, slot := range p.attributes {
		out[i] = slot.accessor
	}
	return out
}

// VertexCount returns the shared vertex count of the attribute set, or 0 for
// a primitive with no attributes.
func (p *Primitive) VertexCount() int {
	if len(p.attributes) == 0 {
		return 0
	}
	return p.attributes[0].accessor.Count()
}

// CreateTarget appends a new, empty morph target.
func (p *Primitive) CreateTarget(name string) *MorphTarget {
	t := &MorphTarget{doc: p.doc, name: name}
	p.targets = append(p.targets, t)
	return t
}

// Targets returns the primitive's morph targets in order.
func (p *Primitive) Targets() []*MorphTarget {
	out := make([]*MorphTarget, len(p.targets))
	copy(out, p.targets)
	return out
}

// Swap replaces every reference to old (attributes and indices, not morph
// targets) with new. Implements Parent.
func (p *Primitive) Swap(old, new *Accessor) bool {
	if old == nil {
		return false
	}
	changed := false
	kept := p.attributes[:0]
	for _, slot := range p.attributes {
		if slot.accessor == old {
			attachRef(p, old, new)
			changed = true
			if new == nil {
				continue
			}
			slot.accessor = new
		}
		kept = append(kept, slot)
	}
	p.attributes = kept
	if p.indices == old {
		attachRef(p, old, new)
		p.indices = new
		changed = true
	}
	return changed
}

// Bounds returns the axis-aligned bounding box of the POSITION attribute.
// The zero box is returned when the primitive has no position data.
func (p *Primitive) Bounds() (min, max mgl32.Vec3) {
	pos := p.Attribute(SemanticPosition)
	if pos == nil || pos.Count() == 0 || pos.ElementSize() < 3 {
		return min, max
	}
	lo := pos.MinNormalized(nil)
	hi := pos.MaxNormalized(nil)
	return mgl32.Vec3{lo[0], lo[1], lo[2]}, mgl32.Vec3{hi[0], hi[1], hi[2]}
}

// MorphTarget holds per-vertex deltas parallel to its owning primitive's base
// attributes. It carries only attribute bindings; indexing and draw mode come
// from the primitive.
type MorphTarget struct {
	doc        *Document
	name       string
	attributes []attributeSlot
}

// Name returns the target's name.
func (t *MorphTarget) Name() string { return t.name }

// Attribute returns the accessor bound to semantic, or nil.
func (t *MorphTarget) Attribute(semantic string) *Accessor {
	for _, slot := range t.attributes {
		if slot.semantic == semantic {
			return slot.accessor
		}
	}
	return nil
}

// SetAttribute binds an accessor to a semantic. A nil accessor removes it.
func (t *MorphTarget) SetAttribute(semantic string, a *Accessor) *MorphTarget {
	for i, slot := range t.attributes {
		if slot.semantic == semantic {
			attachRef(t, slot.accessor, a)
			if a == nil {
				t.attributes = append(t.attributes[:i], t.attributes[i+1:]...)
			} else {
				t.attributes[i].accessor = a
			}
			return t
		}
	}
	if a == nil {
		return t
	}
	attachRef(t, nil, a)
	t.attributes = append(t.attributes, attributeSlot{semantic: semantic, accessor: a})
	return t
}

// Semantics returns the target's semantics in binding order.
func (t *MorphTarget) Semantics() []string {
	out := make([]string, len(t.attributes))
	for i, slot := range t.attributes {
		out[i] = slot.semantic
	}
	return out
}

// Swap replaces every reference to old with new. Implements Parent.
func (t *MorphTarget) Swap(old, new *Accessor) bool {
	if old == nil {
		return false
	}
	changed := false
	kept := t.attributes[:0]
	for _, slot := range t.attributes {
		if slot.accessor == old {
			attachRef(t, old, new)
			changed = true
			if new == nil {
				continue
			}
			slot.accessor = new
		}
		kept = append(kept, slot)
	}
	t.attributes = kept
	return changed
}
