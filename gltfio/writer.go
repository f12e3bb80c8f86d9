package gltfio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/xlsfs/glTF-Transform/blobstore"
	"github.com/xlsfs/glTF-Transform/codec"
	"github.com/xlsfs/glTF-Transform/core"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Codec encodes the JSON chunk. Defaults to codec.Default.
	Codec codec.Codec
	// Store receives external buffer payloads in .gltf form. WriteFile
	// defaults to a LocalStore rooted at the output directory when nil.
	Store blobstore.BlobStore
	// Generator is written into asset.generator.
	Generator string
	// Logger receives debug notices. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Writer serializes a core.Document to glTF or GLB.
type Writer struct {
	opts WriterOptions
}

// NewWriter creates a Writer.
func NewWriter(optFns ...func(o *WriterOptions)) *Writer {
	opts := WriterOptions{
		Codec:     codec.Default,
		Generator: "glTF-Transform",
		Logger:    slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Writer{opts: opts}
}

// WriteFile writes the document to path. The container form follows the
// extension: .glb is binary, anything else is JSON; a .gz suffix wraps the
// output in gzip.
func (w *Writer) WriteFile(ctx context.Context, doc *core.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var dst io.Writer = f
	name := path
	if strings.HasSuffix(name, ".gz") {
		zw := gzip.NewWriter(f)
		defer zw.Close()
		dst = zw
		name = strings.TrimSuffix(name, ".gz")
	}

	if strings.EqualFold(filepath.Ext(name), ".glb") {
		return w.WriteGLB(ctx, doc, dst)
	}

	store := w.opts.Store
	if store == nil {
		store = blobstore.NewLocalStore(filepath.Dir(path))
	}
	return w.writeJSON(ctx, doc, dst, store)
}

// WriteGLB writes the document as a binary GLB container. All buffers merge
// into the single binary chunk.
func (w *Writer) WriteGLB(ctx context.Context, doc *core.Document, dst io.Writer) error {
	top, blobs, err := w.build(doc, true)
	if err != nil {
		return err
	}
	var bin []byte
	if len(blobs) > 0 {
		bin = blobs[0]
	}

	jsonChunk, err := w.opts.Codec.Marshal(top)
	if err != nil {
		return fmt.Errorf("gltfio: encode document: %w", err)
	}
	jsonChunk = pad(jsonChunk, 0x20)
	bin = pad(bin, 0x00)

	total := 12 + 8 + len(jsonChunk)
	if len(bin) > 0 {
		total += 8 + len(bin)
	}

	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:], glbMagic)
	binary.LittleEndian.PutUint32(header[4:], glbVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(total))
	if _, err := dst.Write(header[:]); err != nil {
		return err
	}
	if err := writeChunk(dst, glbChunkJSON, jsonChunk); err != nil {
		return err
	}
	if len(bin) > 0 {
		if err := writeChunk(dst, glbChunkBIN, bin); err != nil {
			return err
		}
	}
	w.opts.Logger.DebugContext(ctx, "document written",
		"form", "glb",
		"json_bytes", len(jsonChunk),
		"bin_bytes", len(bin),
	)
	return nil
}

// WriteJSON writes the document as .gltf JSON. Buffers with a URI are written
// through the configured store; buffers without one embed as data URIs.
func (w *Writer) WriteJSON(ctx context.Context, doc *core.Document, dst io.Writer) error {
	return w.writeJSON(ctx, doc, dst, w.opts.Store)
}

func (w *Writer) writeJSON(ctx context.Context, doc *core.Document, dst io.Writer, store blobstore.BlobStore) error {
	top, blobs, err := w.build(doc, false)
	if err != nil {
		return err
	}

	bufferSection, _ := top["buffers"].([]bufferJSON)
	for i := range bufferSection {
		uri := bufferSection[i].URI
		if uri == "" {
			bufferSection[i].URI = encodeDataURI(blobs[i])
			continue
		}
		if store == nil {
			return fmt.Errorf("gltfio: no blob store configured for external buffer %q", uri)
		}
		if err := store.Put(ctx, uri, blobs[i]); err != nil {
			return fmt.Errorf("gltfio: write buffer %q: %w", uri, err)
		}
	}

	out, err := w.opts.Codec.Marshal(top)
	if err != nil {
		return fmt.Errorf("gltfio: encode document: %w", err)
	}
	if _, err := dst.Write(out); err != nil {
		return err
	}
	w.opts.Logger.DebugContext(ctx, "document written",
		"form", "gltf",
		"buffers", len(bufferSection),
	)
	return nil
}

// build packs accessor data into buffer blobs and assembles the top-level
// JSON object. In binary mode everything lands in one unnamed buffer.
func (w *Writer) build(doc *core.Document, binaryForm bool) (map[string]any, [][]byte, error) {
	accessors := doc.Accessors()
	accIndex := make(map[*core.Accessor]int, len(accessors))
	for i, a := range accessors {
		accIndex[a] = i
	}

	bufferEnts := doc.Buffers()
	bufIndex := make(map[*core.Buffer]int, len(bufferEnts))
	var bufferSection []bufferJSON
	if binaryForm || len(bufferEnts) == 0 {
		bufferSection = []bufferJSON{{}}
	} else {
		bufferSection = make([]bufferJSON, len(bufferEnts))
		for i, b := range bufferEnts {
			bufIndex[b] = i
			bufferSection[i] = bufferJSON{URI: b.URI(), Name: b.Name()}
		}
	}
	blobs := make([][]byte, len(bufferSection))

	// An accessor's buffer-view target depends on how primitives use it.
	// Conflicting uses degrade to no target at all.
	targets := make(map[*core.Accessor]int)
	mark := func(a *core.Accessor, t int) {
		if cur, ok := targets[a]; ok && cur != t {
			targets[a] = targetMixed
			return
		}
		targets[a] = t
	}
	for _, mesh := range doc.Meshes() {
		for _, prim := range mesh.Primitives() {
			for _, a := range prim.Attributes() {
				mark(a, targetArrayBuffer)
			}
			if idx := prim.Indices(); idx != nil {
				mark(idx, targetElementArrayBuffer)
			}
		}
	}

	var viewSection []bufferViewJSON
	accessorSection := make([]accessorJSON, len(accessors))
	for i, a := range accessors {
		def := accessorJSON{
			ComponentType: int(a.ComponentType()),
			Normalized:    a.Normalized(),
			Count:         a.Count(),
			Type:          a.Type().String(),
			Name:          a.Name(),
		}
		if a.Count() > 0 {
			def.Min, def.Max = storageMinMax(a)

			payload := encodeElements(a.Array(), a.ComponentType(), a.Normalized())
			bufIdx := 0
			if !binaryForm {
				if b := a.Buffer(); b != nil {
					bufIdx = bufIndex[b]
				}
			}
			// Accessor alignment: offsets must be multiples of the component size.
			blobs[bufIdx] = pad(blobs[bufIdx], 0x00)
			view := bufferViewJSON{
				Buffer:     bufIdx,
				ByteOffset: len(blobs[bufIdx]),
				ByteLength: len(payload),
			}
			if t, ok := targets[a]; ok && t != targetMixed {
				view.Target = t
			}
			blobs[bufIdx] = append(blobs[bufIdx], payload...)
			viewIdx := len(viewSection)
			viewSection = append(viewSection, view)
			def.BufferView = &viewIdx
		}
		accessorSection[i] = def
	}
	for i := range bufferSection {
		bufferSection[i].ByteLength = len(blobs[i])
	}

	meshSection := make([]meshJSON, 0, len(doc.Meshes()))
	for _, mesh := range doc.Meshes() {
		md := meshJSON{
			Name:    mesh.Name(),
			Weights: mesh.Weights,
			Extras:  mesh.Extras,
		}
		for _, prim := range mesh.Primitives() {
			pd := primitiveJSON{
				Attributes: make(map[string]int),
				Material:   prim.MaterialIndex,
			}
			for _, semantic := range prim.Semantics() {
				pd.Attributes[semantic] = accIndex[prim.Attribute(semantic)]
			}
			if idx := prim.Indices(); idx != nil {
				n := accIndex[idx]
				pd.Indices = &n
			}
			if m := int(prim.Mode()); m != int(core.ModeTriangles) {
				pd.Mode = &m
			}
			for _, target := range prim.Targets() {
				td := make(map[string]int)
				for _, semantic := range target.Semantics() {
					td[semantic] = accIndex[target.Attribute(semantic)]
				}
				pd.Targets = append(pd.Targets, td)
			}
			md.Primitives = append(md.Primitives, pd)
		}
		meshSection = append(meshSection, md)
	}

	top := map[string]any{
		"asset": assetJSON{Version: "2.0", Generator: w.opts.Generator},
	}
	top["buffers"] = bufferSection
	if len(viewSection) > 0 {
		top["bufferViews"] = viewSection
	}
	if len(accessorSection) > 0 {
		top["accessors"] = accessorSection
	}
	if len(meshSection) > 0 {
		top["meshes"] = meshSection
	}

	if skins := doc.Skins(); len(skins) > 0 {
		section := make([]skinJSON, len(skins))
		for i, skin := range skins {
			sd := skinJSON{
				Joints:   skin.Joints,
				Skeleton: skin.Skeleton,
				Name:     skin.Name(),
				Extras:   skin.Extras,
			}
			if ibm := skin.InverseBindMatrices(); ibm != nil {
				n := accIndex[ibm]
				sd.InverseBindMatrices = &n
			}
			section[i] = sd
		}
		top["skins"] = section
	}

	if anims := doc.Animations(); len(anims) > 0 {
		section := make([]animationJSON, len(anims))
		for i, anim := range anims {
			ad := animationJSON{
				Channels: anim.Channels,
				Name:     anim.Name(),
				Extras:   anim.Extras,
			}
			for _, s := range anim.Samplers() {
				ad.Samplers = append(ad.Samplers, animationSamplerJSON{
					Input:         accIndex[s.Input()],
					Output:        accIndex[s.Output()],
					Interpolation: s.Interpolation,
				})
			}
			section[i] = ad
		}
		top["animations"] = section
	}

	for _, key := range doc.RawKeys() {
		if !modeledKeys[key] {
			top[key] = doc.Raw(key)
		}
	}

	// An all-empty buffer list confuses validators; drop it entirely.
	if len(bufferSection) == 1 && bufferSection[0].ByteLength == 0 && bufferSection[0].URI == "" {
		delete(top, "buffers")
	}

	return top, blobs, nil
}

func writeChunk(dst io.Writer, kind uint32, payload []byte) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[4:], kind)
	if _, err := dst.Write(header[:]); err != nil {
		return err
	}
	_, err := dst.Write(payload)
	return err
}

// pad extends data to a 4-byte boundary with the given filler.
func pad(data []byte, filler byte) []byte {
	for len(data)%4 != 0 {
		data = append(data, filler)
	}
	return data
}
