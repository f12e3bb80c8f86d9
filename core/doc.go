// Package core implements the glTF document object graph.
//
// A Document owns flat lists of entities (buffers, accessors, meshes, skins,
// animations). Entities reference each other by pointer, and every accessor
// tracks the set of properties that reference it. That parent tracking is what
// makes safe bulk buffer replacement possible: a transform that swaps an
// accessor out of one primitive must not free storage another primitive still
// depends on.
//
// # Ownership discipline
//
//   - Setting an accessor on a primitive, morph target, skin or animation
//     sampler attaches that property as a parent of the accessor.
//   - Replacing or clearing the reference detaches it.
//   - Dispose removes an accessor from the document and from any remaining
//     parents. Callers normally check ListParents first and dispose only
//     orphans.
//
// All graph mutations (entity creation, attach/detach, dispose) are guarded by
// a per-document mutex, so independent primitives may be transformed
// concurrently.
package core
