package gltfx

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/xlsfs/glTF-Transform/core"
)

const (
	// MaxWeldTolerance bounds WeldOptions.Tolerance.
	MaxWeldTolerance = 0.1
	// DefaultWeldTolerance merges vertices within one ten-thousandth of the
	// attribute's value range.
	DefaultWeldTolerance = 1e-4
	// MaxWeldVertexCount is the largest per-primitive vertex count welding
	// accepts. Index data is held as float32, which represents integers
	// exactly only up to 2^24.
	MaxWeldVertexCount = 1 << 24
)

// Fixed thresholds for semantics with bounded, unit-independent ranges.
// Everything else scales with the attribute's own data range.
const (
	toleranceNormal   = 0.5 // [-1,1] range, tolerant of normalization error
	toleranceColor    = 0.01
	toleranceTexCoord = 0.0001
	toleranceJoints   = 0.0 // skinning indices merge only on exact match
	toleranceWeights  = 0.01
)

// epsilonTolerance floors every resolved scaling tolerance: a tolerance of
// exactly zero would make the grid cell size zero.
var epsilonTolerance = math.Nextafter(1, 2) - 1

// WeldOptions configures the Weld transform.
type WeldOptions struct {
	// Tolerance is the fraction of an attribute's value range within which
	// two values count as equal. Must be in [0, MaxWeldTolerance].
	//
	// Zero is special: no vertices merge at all, and the only effect is that
	// non-indexed primitives gain an identity index buffer.
	Tolerance float64
	// Overwrite controls whether already-indexed primitives are rewelded.
	// When false, indexed primitives are left untouched.
	Overwrite bool
}

// DefaultWeldOptions are the options used by Weld() without overrides.
var DefaultWeldOptions = WeldOptions{
	Tolerance: DefaultWeldTolerance,
	Overwrite: true,
}

// Weld returns a transform that merges vertices which are numerically
// indistinguishable within per-semantic tolerances, and rebuilds each
// primitive's attribute and index buffers to the reduced vertex count.
//
// Primitives in POINTS mode are never welded. After all primitives are
// processed the document's accessors are deduplicated, unless a "dedup"
// stage is already pending later in the surrounding pipeline.
func Weld(optFns ...func(o *WeldOptions)) Transform {
	opts := DefaultWeldOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &weldTransform{opts: opts}
}

type weldTransform struct {
	opts WeldOptions
}

func (t *weldTransform) Name() string { return "weld" }

func (t *weldTransform) Transform(ctx context.Context, doc *core.Document) error {
	if t.opts.Tolerance < 0 || t.opts.Tolerance > MaxWeldTolerance {
		return &ErrInvalidTolerance{Tolerance: t.opts.Tolerance}
	}

	rt := runtimeFrom(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.parallelism)
	for _, mesh := range doc.Meshes() {
		for _, prim := range mesh.Primitives() {
			g.Go(func() error {
				return weldPrimitive(gctx, rt, doc, mesh, prim, t.opts)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Welding collapses many attribute buffers to identical content; the
	// exact-equality dedup pass merges them. Skip it when the caller already
	// scheduled one later in the same pipeline.
	if !transformPending(ctx, "dedup") {
		return Dedup().Transform(ctx, doc)
	}
	return nil
}

func weldPrimitive(ctx context.Context, rt *runtime, doc *core.Document, mesh *core.Mesh, prim *core.Primitive, opts WeldOptions) error {
	logger := rt.logger.WithMesh(mesh.Name())

	if prim.Mode() == core.ModePoints {
		logger.LogWeldSkip(ctx, "points mode")
		return nil
	}
	if prim.Indices() != nil && !opts.Overwrite {
		logger.LogWeldSkip(ctx, "already indexed")
		return nil
	}
	if err := checkVertexLimit(mesh.Name(), prim.VertexCount()); err != nil {
		return err
	}
	if opts.Tolerance == 0 {
		return indexPrimitive(doc, prim)
	}

	if prim.Attribute(core.SemanticPosition) == nil {
		return &ErrMissingPosition{Mesh: mesh.Name()}
	}

	start := time.Now()
	w, err := newWelder(prim, opts.Tolerance)
	if err != nil {
		return err
	}
	avgIters := w.match()
	if err := w.compact(doc); err != nil {
		return err
	}

	logger.WithTolerance(w.positionTolerance).LogWeldPrimitive(ctx, w.srcVertexCount, len(w.repr), avgIters)
	rt.metrics.RecordWeldPrimitive(w.srcVertexCount, len(w.repr), avgIters, time.Since(start))
	return nil
}

// indexPrimitive gives a non-indexed primitive a trivial identity index
// buffer, sharing the position attribute's backing buffer allocation. It is
// the whole of the tolerance==0 path: a pure "make indexed" operation.
func indexPrimitive(doc *core.Document, prim *core.Primitive) error {
	if prim.Indices() != nil {
		return nil
	}
	n := prim.VertexCount()
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	indices := doc.CreateAccessor("").
		SetType(core.Scalar).
		SetComponentType(indexComponentType(n)).
		SetArray(data)
	if pos := prim.Attribute(core.SemanticPosition); pos != nil {
		indices.SetBuffer(pos.Buffer())
	}
	prim.SetIndices(indices)
	return nil
}

func indexComponentType(vertexCount int) core.ComponentType {
	if vertexCount > math.MaxUint16 {
		return core.ComponentUnsignedInt
	}
	return core.ComponentUnsignedShort
}

// checkVertexLimit rejects, before any mutation, primitives whose index
// values would lose exactness in float32 storage.
func checkVertexLimit(meshName string, vertexCount int) error {
	if vertexCount > MaxWeldVertexCount {
		return &ErrTooManyVertices{Mesh: meshName, VertexCount: vertexCount}
	}
	return nil
}

// resolveTolerance turns the global fractional tolerance into a concrete
// per-semantic threshold. Bounded, unit-independent semantics use fixed
// constants; everything else (POSITION, custom attributes) scales with the
// attribute's own value range.
func resolveTolerance(semantic string, a *core.Accessor, tolerance float64) float64 {
	switch {
	case semantic == core.SemanticNormal || semantic == core.SemanticTangent:
		return toleranceNormal
	case strings.HasPrefix(semantic, "COLOR_"):
		return toleranceColor
	case strings.HasPrefix(semantic, "TEXCOORD_"):
		return toleranceTexCoord
	case strings.HasPrefix(semantic, "JOINTS_"):
		return toleranceJoints
	case strings.HasPrefix(semantic, "WEIGHTS_"):
		return toleranceWeights
	default:
		lo := a.MinNormalized(nil)
		hi := a.MaxNormalized(nil)
		var rangeMin, rangeMax float64
		for c := range lo {
			if c == 0 || float64(lo[c]) < rangeMin {
				rangeMin = float64(lo[c])
			}
			if c == 0 || float64(hi[c]) > rangeMax {
				rangeMax = float64(hi[c])
			}
		}
		valueRange := rangeMax - rangeMin
		if valueRange == 0 {
			// Constant attribute: a zero-width tolerance would keep every
			// distinct vertex apart on an axis that carries no information.
			valueRange = 1
		}
		return math.Max(tolerance*valueRange, epsilonTolerance)
	}
}

// weldAttribute is one attribute participating in vertex identity: a base
// semantic or a morph-target semantic.
type weldAttribute struct {
	accessor  *core.Accessor
	tolerance float64
	scratchA  []float32
	scratchB  []float32
}

// attributeOwner is the shared surface of Primitive and MorphTarget that the
// compactor rebuilds attributes through.
type attributeOwner interface {
	Semantics() []string
	Attribute(semantic string) *core.Accessor
	Swap(old, new *core.Accessor) bool
}

// welder holds the per-primitive working state: tolerance table, spatial
// grid, merge map and write map. All of it is discarded when the call
// returns.
type welder struct {
	prim           *core.Primitive
	position       *core.Accessor
	srcVertexCount int

	// uniques are the vertex indices actually referenced by the primitive,
	// ascending. Indices that reference the same vertex are collapsed before
	// any welding happens.
	uniques []uint32

	attrs             []weldAttribute
	positionTolerance float64
	cellSize          float32
	cells             map[cellKey][]uint32

	// weldMap maps each unique vertex to its canonical representative
	// (itself if unmerged); writeMap maps it to its compacted output slot.
	weldMap  []uint32
	writeMap []uint32
	// repr maps each compacted slot back to the first original vertex of its
	// merge class, in ascending original order.
	repr []uint32
}

func newWelder(prim *core.Primitive, tolerance float64) (*welder, error) {
	position := prim.Attribute(core.SemanticPosition)
	if position.Type() != core.Vec3 {
		return nil, fmt.Errorf("gltfx: POSITION accessor is %s, welding requires VEC3", position.Type())
	}
	srcVertexCount := position.Count()

	w := &welder{
		prim:           prim,
		position:       position,
		srcVertexCount: srcVertexCount,
		cells:          make(map[cellKey][]uint32),
		weldMap:        make([]uint32, srcVertexCount),
		writeMap:       make([]uint32, srcVertexCount),
	}
	for i := range w.weldMap {
		w.weldMap[i] = uint32(i)
	}

	if indices := prim.Indices(); indices != nil {
		seen := roaring.New()
		for _, v := range indices.Array() {
			idx := uint32(v)
			if int(idx) >= srcVertexCount {
				return nil, fmt.Errorf("gltfx: index value %d out of range [0, %d)", idx, srcVertexCount)
			}
			seen.Add(idx)
		}
		w.uniques = seen.ToArray()
	} else {
		w.uniques = make([]uint32, srcVertexCount)
		for i := range w.uniques {
			w.uniques[i] = uint32(i)
		}
	}

	collect := func(owner attributeOwner) error {
		for _, semantic := range owner.Semantics() {
			a := owner.Attribute(semantic)
			if a.Count() != srcVertexCount {
				return fmt.Errorf("gltfx: %w: attribute %s has %d elements, primitive has %d vertices",
					errInvariant, semantic, a.Count(), srcVertexCount)
			}
			w.attrs = append(w.attrs, weldAttribute{
				accessor:  a,
				tolerance: resolveTolerance(semantic, a, tolerance),
				scratchA:  make([]float32, a.ElementSize()),
				scratchB:  make([]float32, a.ElementSize()),
			})
		}
		return nil
	}
	if err := collect(prim); err != nil {
		return nil, err
	}
	for _, target := range prim.Targets() {
		if err := collect(target); err != nil {
			return nil, err
		}
	}

	w.positionTolerance = resolveTolerance(core.SemanticPosition, position, tolerance)
	w.cellSize = float32(w.positionTolerance)

	// All unique vertices enter the grid up front; the matcher filters
	// candidates down to previously-accepted canonicals by index order.
	for _, a := range w.uniques {
		key := w.cellKeyAt(w.positionOf(a))
		w.cells[key] = append(w.cells[key], a)
	}
	return w, nil
}

func (w *welder) positionOf(v uint32) mgl32.Vec3 {
	data := w.position.Array()
	return mgl32.Vec3{data[v*3], data[v*3+1], data[v*3+2]}
}

// cellKey identifies a grid cell by its three quantized coordinates.
type cellKey struct {
	x, y, z float32
}

func (w *welder) cellKeyAt(p mgl32.Vec3) cellKey {
	return cellKey{
		quantizeCoord(p[0], w.cellSize),
		quantizeCoord(p[1], w.cellSize),
		quantizeCoord(p[2], w.cellSize),
	}
}

// quantizeCoord snaps a coordinate to its cell identity: round the
// single-precision quotient to the nearest integer, scale back up. The
// division must stay in float32; promoting it to float64 changes which cell
// a point lands in right at tolerance boundaries.
func quantizeCoord(v, cellSize float32) float32 {
	return float32(math.Round(float64(v/cellSize))) * cellSize
}

// neighborKeys enumerates the cells of the 27-cell neighborhood by shifting
// the query point into each adjacent half-cell before quantizing. Coinciding
// keys are kept: deduplicating them costs more than the repeat map lookups
// they cause.
func (w *welder) neighborKeys(p mgl32.Vec3) [27]cellKey {
	half := w.cellSize / 2
	offsets := [3]float32{-half, 0, half}
	var keys [27]cellKey
	n := 0
	for _, dx := range offsets {
		for _, dy := range offsets {
			for _, dz := range offsets {
				keys[n] = w.cellKeyAt(mgl32.Vec3{p[0] + dx, p[1] + dy, p[2] + dz})
				n++
			}
		}
	}
	return keys
}

// match processes unique vertices in ascending original order, greedily
// merging each into the first acceptable canonical found in its grid
// neighborhood. Returns the mean number of candidates examined per vertex.
func (w *welder) match() (avgNeighborIters float64) {
	var iters uint64
	var next uint32
	for _, a := range w.uniques {
		keys := w.neighborKeys(w.positionOf(a))
		matched := false
	search:
		for _, key := range keys {
			for _, j := range w.cells[key] {
				iters++
				b := w.weldMap[j]
				// Only previously-accepted canonicals are eligible: later
				// vertices still map to themselves and would invert the
				// processing order.
				if b >= a {
					continue
				}
				if w.matches(a, b) {
					w.weldMap[a] = b
					matched = true
					break search
				}
			}
		}
		if matched {
			w.writeMap[a] = w.writeMap[w.weldMap[a]]
		} else {
			w.weldMap[a] = a
			w.writeMap[a] = next
			w.repr = append(w.repr, a)
			next++
		}
	}
	if len(w.uniques) > 0 {
		avgNeighborIters = float64(iters) / float64(len(w.uniques))
	}
	return avgNeighborIters
}

// matches reports whether vertices a and b agree on every base and
// morph-target semantic within that semantic's tolerance. The test is a
// conjunction of component-wise max-absolute-difference checks, not an
// aggregate distance.
func (w *welder) matches(a, b uint32) bool {
	for i := range w.attrs {
		at := &w.attrs[i]
		ea := at.accessor.Element(int(a), at.scratchA)
		eb := at.accessor.Element(int(b), at.scratchB)
		for c := range ea {
			if math.Abs(float64(ea[c])-float64(eb[c])) > at.tolerance {
				return false
			}
		}
	}
	return true
}

// compact rewrites the index buffer through writeMap and rebuilds every base
// and morph-target attribute to the reduced vertex count. Old accessors are
// swapped out and disposed once nothing references them.
func (w *welder) compact(doc *core.Document) error {
	dstVertexCount := len(w.repr)

	// Index buffer: values are remapped, length stays the draw-element count.
	srcIndices := w.prim.Indices()
	var drawCount int
	if srcIndices != nil {
		drawCount = srcIndices.Count()
	} else {
		drawCount = w.srcVertexCount
	}
	indexData := make([]float32, drawCount)
	for k := 0; k < drawCount; k++ {
		src := uint32(k)
		if srcIndices != nil {
			src = uint32(srcIndices.Array()[k])
		}
		dst := w.writeMap[src]
		if int(dst) >= dstVertexCount {
			return fmt.Errorf("gltfx: %w: compacted index %d outside [0, %d)", errInvariant, dst, dstVertexCount)
		}
		indexData[k] = float32(dst)
	}
	dstIndices := doc.CreateAccessor("").
		SetType(core.Scalar).
		SetComponentType(indexComponentType(dstVertexCount)).
		SetArray(indexData)
	if srcIndices != nil {
		dstIndices.SetName(srcIndices.Name())
		dstIndices.SetBuffer(srcIndices.Buffer())
	} else if pos := w.prim.Attribute(core.SemanticPosition); pos != nil {
		dstIndices.SetBuffer(pos.Buffer())
	}
	w.prim.SetIndices(dstIndices)
	if srcIndices != nil && len(srcIndices.ListParents()) == 0 {
		srcIndices.Dispose()
	}

	// Attribute buffers, base then morph targets. An accessor shared between
	// owners is rebuilt once and swapped everywhere.
	rebuilt := make(map[*core.Accessor]*core.Accessor)
	compacted := make(map[*core.Accessor]bool)
	owners := []attributeOwner{w.prim}
	for _, target := range w.prim.Targets() {
		owners = append(owners, target)
	}
	for _, owner := range owners {
		for _, semantic := range owner.Semantics() {
			src := owner.Attribute(semantic)
			// Swap rewrites every slot bound to the same accessor, so a later
			// semantic may already hold a compacted replacement.
			if compacted[src] {
				continue
			}
			dst, ok := rebuilt[src]
			if !ok {
				dst = w.rebuildAttribute(doc, src, dstVertexCount)
				rebuilt[src] = dst
				compacted[dst] = true
			}
			owner.Swap(src, dst)
			if len(src.ListParents()) == 0 {
				src.Dispose()
			}
		}
	}
	return nil
}

// rebuildAttribute allocates a compacted copy of src with dstVertexCount
// elements. Each output slot holds the data of its merge class's first
// original vertex; later members are guaranteed attribute-equal within
// tolerance, so first-write-wins is deterministic and valid.
func (w *welder) rebuildAttribute(doc *core.Document, src *core.Accessor, dstVertexCount int) *core.Accessor {
	size := src.ElementSize()
	srcData := src.Array()
	out := make([]float32, dstVertexCount*size)
	for slot, origin := range w.repr {
		copy(out[slot*size:(slot+1)*size], srcData[int(origin)*size:(int(origin)+1)*size])
	}
	return doc.CreateAccessor(src.Name()).
		SetType(src.Type()).
		SetComponentType(src.ComponentType()).
		SetNormalized(src.Normalized()).
		SetBuffer(src.Buffer()).
		SetArray(out)
}
