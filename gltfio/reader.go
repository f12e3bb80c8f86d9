package gltfio

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/xlsfs/glTF-Transform/blobstore"
	"github.com/xlsfs/glTF-Transform/codec"
	"github.com/xlsfs/glTF-Transform/core"
)

// GLB container constants.
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Codec decodes the JSON chunk. Defaults to codec.Default.
	Codec codec.Codec
	// Store resolves external buffer URIs. ReadFile defaults to a LocalStore
	// rooted at the document's directory when nil.
	Store blobstore.BlobStore
	// Limiter throttles external buffer fetches. Nil disables throttling.
	Limiter *rate.Limiter
	// Logger receives debug notices. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Reader parses glTF and GLB documents into a core.Document.
type Reader struct {
	opts ReaderOptions
}

// NewReader creates a Reader.
func NewReader(optFns ...func(o *ReaderOptions)) *Reader {
	opts := ReaderOptions{
		Codec:  codec.Default,
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reader{opts: opts}
}

// ReadFile reads a .gltf, .glb or gzip-wrapped document from disk. External
// buffer URIs resolve relative to the file's directory unless the reader was
// configured with an explicit store.
func (r *Reader) ReadFile(ctx context.Context, path string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	store := r.opts.Store
	if store == nil {
		store = blobstore.NewLocalStore(filepath.Dir(path))
	}
	return r.parse(ctx, data, store)
}

// Read reads a document from src. External buffer URIs require a configured
// store.
func (r *Reader) Read(ctx context.Context, src io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return r.parse(ctx, data, r.opts.Store)
}

func (r *Reader) parse(ctx context.Context, data []byte, store blobstore.BlobStore) (*core.Document, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gltfio: gzip: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("gltfio: gzip: %w", err)
		}
	}

	var jsonChunk, binChunk []byte
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		var err error
		if jsonChunk, binChunk, err = splitGLB(data); err != nil {
			return nil, err
		}
	} else {
		jsonChunk = data
	}

	res := &resolver{store: store, limiter: r.opts.Limiter, bin: binChunk}
	return r.decode(ctx, jsonChunk, res)
}

// splitGLB separates a GLB container into its JSON and binary chunks.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, fmt.Errorf("gltfio: truncated GLB header")
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != glbVersion {
		return nil, nil, fmt.Errorf("gltfio: unsupported GLB version %d", v)
	}
	total := binary.LittleEndian.Uint32(data[8:])
	if int(total) > len(data) {
		return nil, nil, fmt.Errorf("gltfio: GLB length %d exceeds input of %d bytes", total, len(data))
	}

	off := 12
	for off+8 <= int(total) {
		length := int(binary.LittleEndian.Uint32(data[off:]))
		kind := binary.LittleEndian.Uint32(data[off+4:])
		off += 8
		if off+length > int(total) {
			return nil, nil, fmt.Errorf("gltfio: GLB chunk exceeds container")
		}
		switch kind {
		case glbChunkJSON:
			jsonChunk = data[off : off+length]
		case glbChunkBIN:
			binChunk = data[off : off+length]
		}
		off += length
	}
	if jsonChunk == nil {
		return nil, nil, fmt.Errorf("gltfio: GLB container has no JSON chunk")
	}
	return jsonChunk, binChunk, nil
}

func (r *Reader) decode(ctx context.Context, jsonChunk []byte, res *resolver) (*core.Document, error) {
	var top map[string]json.RawMessage
	if err := r.opts.Codec.Unmarshal(jsonChunk, &top); err != nil {
		return nil, fmt.Errorf("gltfio: parse document: %w", err)
	}

	var asset assetJSON
	if raw, ok := top["asset"]; ok {
		if err := r.opts.Codec.Unmarshal(raw, &asset); err != nil {
			return nil, fmt.Errorf("gltfio: parse asset: %w", err)
		}
	}
	if !strings.HasPrefix(asset.Version, "2.") {
		return nil, fmt.Errorf("gltfio: unsupported glTF version %q", asset.Version)
	}

	doc := core.NewDocument()

	var bufferDefs []bufferJSON
	if err := r.section(top, "buffers", &bufferDefs); err != nil {
		return nil, err
	}
	buffers := make([]*core.Buffer, len(bufferDefs))
	bufferData := make([][]byte, len(bufferDefs))
	for i, def := range bufferDefs {
		uri := def.URI
		if strings.HasPrefix(uri, "data:") {
			// Inline payloads are re-embedded on write; the entity keeps no URI.
			uri = ""
		}
		buffers[i] = doc.CreateBuffer(uri).SetName(def.Name)
		data, err := res.resolve(ctx, def.URI)
		if err != nil {
			return nil, err
		}
		if len(data) < def.ByteLength {
			return nil, fmt.Errorf("gltfio: buffer %d: have %d bytes, declared %d", i, len(data), def.ByteLength)
		}
		bufferData[i] = data
	}

	var viewDefs []bufferViewJSON
	if err := r.section(top, "bufferViews", &viewDefs); err != nil {
		return nil, err
	}

	var accessorDefs []accessorJSON
	if err := r.section(top, "accessors", &accessorDefs); err != nil {
		return nil, err
	}
	accessors := make([]*core.Accessor, len(accessorDefs))
	for i, def := range accessorDefs {
		a, err := r.decodeAccessor(doc, def, viewDefs, buffers, bufferData)
		if err != nil {
			return nil, fmt.Errorf("gltfio: accessor %d: %w", i, err)
		}
		accessors[i] = a
	}

	accessorAt := func(idx int, what string) (*core.Accessor, error) {
		if idx < 0 || idx >= len(accessors) {
			return nil, fmt.Errorf("gltfio: %s references accessor %d of %d", what, idx, len(accessors))
		}
		return accessors[idx], nil
	}

	var meshDefs []meshJSON
	if err := r.section(top, "meshes", &meshDefs); err != nil {
		return nil, err
	}
	for _, def := range meshDefs {
		mesh := doc.CreateMesh(def.Name)
		mesh.Weights = def.Weights
		mesh.Extras = def.Extras
		for _, pd := range def.Primitives {
			prim := mesh.CreatePrimitive()
			if pd.Mode != nil {
				prim.SetMode(core.Mode(*pd.Mode))
			}
			prim.MaterialIndex = pd.Material
			for _, semantic := range sortedSemantics(pd.Attributes) {
				a, err := accessorAt(pd.Attributes[semantic], "primitive attribute")
				if err != nil {
					return nil, err
				}
				prim.SetAttribute(semantic, a)
			}
			if pd.Indices != nil {
				a, err := accessorAt(*pd.Indices, "primitive indices")
				if err != nil {
					return nil, err
				}
				prim.SetIndices(a)
			}
			for _, td := range pd.Targets {
				target := prim.CreateTarget("")
				for _, semantic := range sortedSemantics(td) {
					a, err := accessorAt(td[semantic], "morph target attribute")
					if err != nil {
						return nil, err
					}
					target.SetAttribute(semantic, a)
				}
			}
		}
	}

	var skinDefs []skinJSON
	if err := r.section(top, "skins", &skinDefs); err != nil {
		return nil, err
	}
	for _, def := range skinDefs {
		skin := doc.CreateSkin(def.Name)
		skin.Joints = def.Joints
		skin.Skeleton = def.Skeleton
		skin.Extras = def.Extras
		if def.InverseBindMatrices != nil {
			a, err := accessorAt(*def.InverseBindMatrices, "skin")
			if err != nil {
				return nil, err
			}
			skin.SetInverseBindMatrices(a)
		}
	}

	var animDefs []animationJSON
	if err := r.section(top, "animations", &animDefs); err != nil {
		return nil, err
	}
	for _, def := range animDefs {
		anim := doc.CreateAnimation(def.Name)
		anim.Channels = def.Channels
		anim.Extras = def.Extras
		for _, sd := range def.Samplers {
			sampler := anim.CreateSampler()
			sampler.Interpolation = sd.Interpolation
			in, err := accessorAt(sd.Input, "animation sampler input")
			if err != nil {
				return nil, err
			}
			out, err := accessorAt(sd.Output, "animation sampler output")
			if err != nil {
				return nil, err
			}
			sampler.SetInput(in)
			sampler.SetOutput(out)
		}
	}

	for key, raw := range top {
		if !modeledKeys[key] {
			doc.SetRaw(key, raw)
		}
	}

	r.opts.Logger.DebugContext(ctx, "document parsed",
		"buffers", len(bufferDefs),
		"accessors", len(accessorDefs),
		"meshes", len(meshDefs),
	)
	return doc, nil
}

func (r *Reader) section(top map[string]json.RawMessage, key string, v any) error {
	raw, ok := top[key]
	if !ok {
		return nil
	}
	if err := r.opts.Codec.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("gltfio: parse %s: %w", key, err)
	}
	return nil
}

func (r *Reader) decodeAccessor(doc *core.Document, def accessorJSON, views []bufferViewJSON, buffers []*core.Buffer, bufferData [][]byte) (*core.Accessor, error) {
	if def.Sparse != nil {
		return nil, fmt.Errorf("sparse accessors are not supported")
	}
	elemType, err := core.ParseElementType(def.Type)
	if err != nil {
		return nil, err
	}
	compType := core.ComponentType(def.ComponentType)
	if !compType.Valid() {
		return nil, fmt.Errorf("unknown component type %d", def.ComponentType)
	}

	a := doc.CreateAccessor(def.Name).
		SetType(elemType).
		SetComponentType(compType).
		SetNormalized(def.Normalized)

	if def.BufferView == nil {
		// Zero-initialized per the glTF specification.
		a.SetArray(make([]float32, def.Count*elemType.Components()))
		return a, nil
	}
	if *def.BufferView < 0 || *def.BufferView >= len(views) {
		return nil, fmt.Errorf("buffer view %d out of range", *def.BufferView)
	}
	view := views[*def.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(bufferData) {
		return nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	raw := bufferData[view.Buffer]
	if view.ByteOffset+view.ByteLength > len(raw) {
		return nil, fmt.Errorf("buffer view range [%d:%d] exceeds buffer of %d bytes", view.ByteOffset, view.ByteOffset+view.ByteLength, len(raw))
	}
	viewBytes := raw[view.ByteOffset : view.ByteOffset+view.ByteLength]

	stride := 0
	if view.ByteStride != nil {
		stride = *view.ByteStride
	}
	data, err := decodeElements(viewBytes, compType, def.Normalized, def.Count, elemType.Components(), def.ByteOffset, stride)
	if err != nil {
		return nil, err
	}
	a.SetArray(data)
	a.SetBuffer(buffers[view.Buffer])
	return a, nil
}

// sortedSemantics orders attribute semantics deterministically: the standard
// semantics first, then custom ones alphabetically.
func sortedSemantics(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := semanticRank(out[i]), semanticRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

func semanticRank(s string) int {
	switch {
	case s == core.SemanticPosition:
		return 0
	case s == core.SemanticNormal:
		return 1
	case s == core.SemanticTangent:
		return 2
	case strings.HasPrefix(s, "TEXCOORD_"):
		return 3
	case strings.HasPrefix(s, "COLOR_"):
		return 4
	case strings.HasPrefix(s, "JOINTS_"):
		return 5
	case strings.HasPrefix(s, "WEIGHTS_"):
		return 6
	default:
		return 7
	}
}
