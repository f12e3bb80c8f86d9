package core

// Parent is a property that can hold references to accessors. Swap replaces
// every reference to old with new and reports whether anything changed;
// a nil new clears the reference.
type Parent interface {
	Swap(old, new *Accessor) bool
}

// Accessor is a typed numeric buffer with count elements of
// ElementType.Components() components each.
//
// Element data is held as normalized float32 values regardless of the storage
// component type; quantization back to the storage type happens at
// serialization time. Identity is by pointer: an accessor may be shared by
// any number of primitives, morph targets, skins and animation samplers, and
// it tracks those owners so callers can implement conditional disposal.
type Accessor struct {
	doc        *Document
	name       string
	elemType   ElementType
	compType   ComponentType
	normalized bool
	buffer     *Buffer
	data       []float32
	parents    map[Parent]int
	disposed   bool
}

// Name returns the accessor's name.
func (a *Accessor) Name() string { return a.name }

// SetName sets the accessor's name.
func (a *Accessor) SetName(name string) *Accessor {
	a.name = name
	return a
}

// Type returns the element type.
func (a *Accessor) Type() ElementType { return a.elemType }

// SetType sets the element type.
func (a *Accessor) SetType(t ElementType) *Accessor {
	a.elemType = t
	return a
}

// ComponentType returns the storage component type.
func (a *Accessor) ComponentType() ComponentType { return a.compType }

// SetComponentType sets the storage component type.
func (a *Accessor) SetComponentType(c ComponentType) *Accessor {
	a.compType = c
	return a
}

// Normalized reports whether integer storage is normalized to [0,1] or [-1,1].
func (a *Accessor) Normalized() bool { return a.normalized }

// SetNormalized sets the normalized flag.
func (a *Accessor) SetNormalized(normalized bool) *Accessor {
	a.normalized = normalized
	return a
}

// Buffer returns the buffer entity this accessor's storage belongs to.
func (a *Accessor) Buffer() *Buffer { return a.buffer }

// SetBuffer assigns the accessor to a buffer entity. New accessors created by
// a transform typically share the buffer of the accessor they replace, so the
// output file keeps its original buffer layout.
func (a *Accessor) SetBuffer(b *Buffer) *Accessor {
	a.buffer = b
	return a
}

// ElementSize returns the number of components per element.
func (a *Accessor) ElementSize() int { return a.elemType.Components() }

// Count returns the number of elements.
func (a *Accessor) Count() int {
	size := a.ElementSize()
	if size == 0 {
		return 0
	}
	return len(a.data) / size
}

// Array returns the backing element data. The slice is owned by the accessor;
// callers that need to mutate it use SetArray with a fresh slice instead.
func (a *Accessor) Array() []float32 { return a.data }

// SetArray replaces the backing element data.
func (a *Accessor) SetArray(data []float32) *Accessor {
	a.data = data
	return a
}

// Element copies element i into out and returns it. A nil or short out is
// reallocated; passing a scratch slice avoids per-call allocation.
func (a *Accessor) Element(i int, out []float32) []float32 {
	size := a.ElementSize()
	if cap(out) < size {
		out = make([]float32, size)
	}
	out = out[:size]
	copy(out, a.data[i*size:(i+1)*size])
	return out
}

// SetElement overwrites element i with v.
func (a *Accessor) SetElement(i int, v []float32) {
	size := a.ElementSize()
	copy(a.data[i*size:(i+1)*size], v[:size])
}

// MinNormalized computes the per-component minimum over all elements in
// normalized space. A nil or short out is reallocated.
func (a *Accessor) MinNormalized(out []float32) []float32 {
	return a.fold(out, func(acc, v float32) bool { return v < acc })
}

// MaxNormalized computes the per-component maximum over all elements in
// normalized space. A nil or short out is reallocated.
func (a *Accessor) MaxNormalized(out []float32) []float32 {
	return a.fold(out, func(acc, v float32) bool { return v > acc })
}

func (a *Accessor) fold(out []float32, better func(acc, v float32) bool) []float32 {
	size := a.ElementSize()
	if cap(out) < size {
		out = make([]float32, size)
	}
	out = out[:size]
	count := a.Count()
	for c := 0; c < size; c++ {
		if count == 0 {
			out[c] = 0
			continue
		}
		acc := a.data[c]
		for i := 1; i < count; i++ {
			if v := a.data[i*size+c]; better(acc, v) {
				acc = v
			}
		}
		out[c] = acc
	}
	return out
}

// Clone creates a new accessor in the same document with copied data and the
// same type, component type, normalized flag and buffer assignment. The clone
// has no parents.
func (a *Accessor) Clone() *Accessor {
	clone := a.doc.CreateAccessor(a.name)
	clone.elemType = a.elemType
	clone.compType = a.compType
	clone.normalized = a.normalized
	clone.buffer = a.buffer
	clone.data = make([]float32, len(a.data))
	copy(clone.data, a.data)
	return clone
}

// ListParents returns the properties currently referencing this accessor.
func (a *Accessor) ListParents() []Parent {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	out := make([]Parent, 0, len(a.parents))
	for p := range a.parents {
		out = append(out, p)
	}
	return out
}

// Disposed reports whether Dispose has been called.
func (a *Accessor) Disposed() bool { return a.disposed }

// Dispose removes the accessor from its document and clears any remaining
// parent references. It is idempotent.
func (a *Accessor) Dispose() {
	if a.disposed {
		return
	}
	a.disposed = true
	for _, p := range a.ListParents() {
		p.Swap(a, nil)
	}
	a.doc.removeAccessor(a)
	a.data = nil
}

// attach records p as a parent. A property referencing the same accessor
// through several slots (e.g. two semantics) is counted once per slot.
func (a *Accessor) attach(p Parent) {
	a.doc.mu.Lock()
	a.parents[p]++
	a.doc.mu.Unlock()
}

func (a *Accessor) detach(p Parent) {
	a.doc.mu.Lock()
	if n := a.parents[p]; n > 1 {
		a.parents[p] = n - 1
	} else {
		delete(a.parents, p)
	}
	a.doc.mu.Unlock()
}

// attachRef swaps a reference slot from old to new, maintaining parent counts.
func attachRef(p Parent, old, new *Accessor) {
	if old == new {
		return
	}
	if old != nil {
		old.detach(p)
	}
	if new != nil {
		new.attach(p)
	}
}
