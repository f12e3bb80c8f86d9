package gltfx

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/xlsfs/glTF-Transform/core"
	"github.com/xlsfs/glTF-Transform/internal/hash"
)

// Dedup returns a transform that merges accessors with identical logical
// content: same element type, storage component type, normalized flag and
// element data. All references to a duplicate are redirected to the first
// accessor seen with that content, and the duplicate is disposed.
//
// Equality is exact. Near-duplicates within a tolerance are Weld's job;
// dedup only collapses what welding (or authoring tools) left byte-equal.
func Dedup() Transform {
	return &dedupTransform{}
}

type dedupTransform struct{}

func (t *dedupTransform) Name() string { return "dedup" }

func (t *dedupTransform) Transform(ctx context.Context, doc *core.Document) error {
	rt := runtimeFrom(ctx)
	start := time.Now()

	accessors := doc.Accessors()
	before := len(accessors)

	// Digest buckets narrow the field; exact comparison decides. A digest
	// collision only costs one extra element-wise compare.
	buckets := make(map[uint32][]*core.Accessor, len(accessors))
	for _, a := range accessors {
		key := accessorDigest(a)
		var canonical *core.Accessor
		for _, c := range buckets[key] {
			if accessorsEqual(a, c) {
				canonical = c
				break
			}
		}
		if canonical == nil {
			buckets[key] = append(buckets[key], a)
			continue
		}
		for _, p := range a.ListParents() {
			p.Swap(a, canonical)
		}
		a.Dispose()
	}

	after := len(doc.Accessors())
	rt.logger.LogDedup(ctx, before, after)
	rt.metrics.RecordDedup(before, after, time.Since(start))
	return nil
}

func accessorDigest(a *core.Accessor) uint32 {
	h := hash.NewCRC32C()
	var word [4]byte

	binary.LittleEndian.PutUint32(word[:], uint32(a.Type()))
	h.Write(word[:])
	binary.LittleEndian.PutUint32(word[:], uint32(a.ComponentType()))
	h.Write(word[:])
	if a.Normalized() {
		word = [4]byte{1}
	} else {
		word = [4]byte{}
	}
	h.Write(word[:])

	for _, v := range a.Array() {
		binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
		h.Write(word[:])
	}
	return h.Sum32()
}

func accessorsEqual(a, b *core.Accessor) bool {
	if a.Type() != b.Type() || a.ComponentType() != b.ComponentType() || a.Normalized() != b.Normalized() {
		return false
	}
	da, db := a.Array(), b.Array()
	if len(da) != len(db) {
		return false
	}
	for i := range da {
		// Bit equality, so 0 and -0 stay distinct and NaN payloads compare
		// consistently with the digest.
		if math.Float32bits(da[i]) != math.Float32bits(db[i]) {
			return false
		}
	}
	return true
}
