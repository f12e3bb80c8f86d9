package testutil

import (
	"math/rand"
	"sync"

	"github.com/xlsfs/glTF-Transform/core"
)

// RNG encapsulates a random number generator and its seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// Jitter returns a copy of data with uniform noise in [-amplitude, amplitude]
// added to every component.
func (r *RNG) Jitter(data []float32, amplitude float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = v + (r.rand.Float32()*2-1)*amplitude
	}
	return out
}

// QuadPositions returns POSITION data for a non-indexed unit quad drawn as
// two triangles. Of the 6 vertices only 4 are distinct: the shared diagonal
// (0,0,0)-(1,1,0) appears in both triangles.
func QuadPositions() []float32 {
	return []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
}

// GridPositions returns nx*ny vertices laid out on an axis-aligned grid in
// the z=0 plane with the given spacing. All vertices are distinct.
func GridPositions(nx, ny int, spacing float32) []float32 {
	out := make([]float32, 0, nx*ny*3)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			out = append(out, float32(x)*spacing, float32(y)*spacing, 0)
		}
	}
	return out
}

// Duplicate appends n extra copies of the element data to itself, producing
// vertex data where every element appears n+1 times.
func Duplicate(data []float32, n int) []float32 {
	out := make([]float32, 0, len(data)*(n+1))
	for i := 0; i <= n; i++ {
		out = append(out, data...)
	}
	return out
}

// Attribute describes one vertex attribute binding for BuildPrimitive.
type Attribute struct {
	Semantic string
	Type     core.ElementType
	Data     []float32
}

// BuildPrimitive creates a mesh named name with a single TRIANGLES primitive
// and binds the given attributes in order. Attribute accessors store float
// components and share no buffer.
func BuildPrimitive(doc *core.Document, name string, attrs ...Attribute) *core.Primitive {
	prim := doc.CreateMesh(name).CreatePrimitive()
	for _, a := range attrs {
		acc := doc.CreateAccessor(a.Semantic).
			SetType(a.Type).
			SetComponentType(core.ComponentFloat).
			SetArray(a.Data)
		prim.SetAttribute(a.Semantic, acc)
	}
	return prim
}

// IndexAccessor creates an unsigned-short scalar accessor holding the given
// index values.
func IndexAccessor(doc *core.Document, indices ...int) *core.Accessor {
	data := make([]float32, len(indices))
	for i, v := range indices {
		data[i] = float32(v)
	}
	return doc.CreateAccessor("").
		SetType(core.Scalar).
		SetComponentType(core.ComponentUnsignedShort).
		SetArray(data)
}
