package core

import "encoding/json"

// Skin models the accessor-referencing part of a glTF skin. Joint and
// skeleton node indices are passed through untouched; only the
// inverse-bind-matrices accessor participates in graph bookkeeping, so
// accessor-rewriting transforms keep skins consistent.
type Skin struct {
	doc  *Document
	name string
	ibm  *Accessor

	Joints   []int
	Skeleton *int
	Extras   json.RawMessage
}

// Name returns the skin name.
func (s *Skin) Name() string { return s.name }

// InverseBindMatrices returns the IBM accessor, or nil.
func (s *Skin) InverseBindMatrices() *Accessor { return s.ibm }

// SetInverseBindMatrices sets or clears (nil) the IBM accessor.
func (s *Skin) SetInverseBindMatrices(a *Accessor) *Skin {
	attachRef(s, s.ibm, a)
	s.ibm = a
	return s
}

// Swap replaces a reference to old with new. Implements Parent.
func (s *Skin) Swap(old, new *Accessor) bool {
	if old == nil || s.ibm != old {
		return false
	}
	attachRef(s, old, new)
	s.ibm = new
	return true
}

// Animation models the accessor-referencing part of a glTF animation.
// Channels are passed through untouched (they reference samplers and nodes,
// neither of which transforms reorder); sampler input/output accessors
// participate in graph bookkeeping.
type Animation struct {
	doc      *Document
	name     string
	samplers []*AnimationSampler

	Channels json.RawMessage
	Extras   json.RawMessage
}

// Name returns the animation name.
func (a *Animation) Name() string { return a.name }

// CreateSampler appends a new sampler.
func (a *Animation) CreateSampler() *AnimationSampler {
	s := &AnimationSampler{doc: a.doc}
	a.samplers = append(a.samplers, s)
	return s
}

// Samplers returns the animation's samplers in order.
func (a *Animation) Samplers() []*AnimationSampler {
	out := make([]*AnimationSampler, len(a.samplers))
	copy(out, a.samplers)
	return out
}

// AnimationSampler pairs a keyframe-time input accessor with a value output
// accessor.
type AnimationSampler struct {
	doc    *Document
	input  *Accessor
	output *Accessor

	Interpolation string
}

// Input returns the keyframe-time accessor, or nil.
func (s *AnimationSampler) Input() *Accessor { return s.input }

// SetInput sets or clears (nil) the keyframe-time accessor.
func (s *AnimationSampler) SetInput(a *Accessor) *AnimationSampler {
	attachRef(s, s.input, a)
	s.input = a
	return s
}

// Output returns the keyframe-value accessor, or nil.
func (s *AnimationSampler) Output() *Accessor { return s.output }

// SetOutput sets or clears (nil) the keyframe-value accessor.
func (s *AnimationSampler) SetOutput(a *Accessor) *AnimationSampler {
	attachRef(s, s.output, a)
	s.output = a
	return s
}

// Swap replaces references to old with new. Implements Parent.
func (s *AnimationSampler) Swap(old, new *Accessor) bool {
	if old == nil {
		return false
	}
	changed := false
	if s.input == old {
		attachRef(s, old, new)
		s.input = new
		changed = true
	}
	if s.output == old {
		attachRef(s, old, new)
		s.output = new
		changed = true
	}
	return changed
}
