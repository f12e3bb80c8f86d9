package gltfio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlsfs/glTF-Transform/core"
	"github.com/xlsfs/glTF-Transform/gltfio"
	"github.com/xlsfs/glTF-Transform/testutil"
)

// buildTriangle assembles a one-triangle document with positions, normals
// and a ushort index buffer.
func buildTriangle() (*core.Document, *core.Primitive) {
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "tri",
		testutil.Attribute{
			Semantic: core.SemanticPosition,
			Type:     core.Vec3,
			Data:     []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		},
		testutil.Attribute{
			Semantic: core.SemanticNormal,
			Type:     core.Vec3,
			Data:     []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		},
	)
	prim.SetIndices(testutil.IndexAccessor(doc, 0, 1, 2))
	return doc, prim
}

func TestGLBRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc, _ := buildTriangle()

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteGLB(ctx, doc, &buf))

	// GLB magic "glTF".
	assert.Equal(t, []byte("glTF"), buf.Bytes()[:4])

	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	meshes := got.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, "tri", meshes[0].Name())

	prims := meshes[0].Primitives()
	require.Len(t, prims, 1)
	prim := prims[0]
	assert.Equal(t, core.ModeTriangles, prim.Mode())
	assert.Equal(t, []string{core.SemanticPosition, core.SemanticNormal}, prim.Semantics())
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, prim.Attribute(core.SemanticPosition).Array())

	indices := prim.Indices()
	require.NotNil(t, indices)
	assert.Equal(t, core.ComponentUnsignedShort, indices.ComponentType())
	assert.Equal(t, []float32{0, 1, 2}, indices.Array())
}

func TestJSONRoundTripEmbeddedBuffers(t *testing.T) {
	ctx := context.Background()
	doc, _ := buildTriangle()

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteJSON(ctx, doc, &buf))

	// Without buffer entities everything embeds as a data URI; reading back
	// needs no blob store.
	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	prim := got.Meshes()[0].Primitives()[0]
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, prim.Attribute(core.SemanticPosition).Array())
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, prim.Attribute(core.SemanticNormal).Array())
}

func TestWriteFileGzip(t *testing.T) {
	ctx := context.Background()
	doc, _ := buildTriangle()

	path := filepath.Join(t.TempDir(), "tri.gltf.gz")
	require.NoError(t, gltfio.NewWriter().WriteFile(ctx, doc, path))

	// Output is actually gzip-compressed.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])

	got, err := gltfio.NewReader().ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Meshes()[0].Primitives()[0].VertexCount())
}

func TestExternalBufferRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	doc, _ := buildTriangle()
	buf := doc.CreateBuffer("geometry.bin")
	for _, a := range doc.Accessors() {
		a.SetBuffer(buf)
	}

	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, gltfio.NewWriter().WriteFile(ctx, doc, path))

	payload, err := os.ReadFile(filepath.Join(dir, "geometry.bin"))
	require.NoError(t, err)
	assert.NotEmpty(t, payload)

	got, err := gltfio.NewReader().ReadFile(ctx, path)
	require.NoError(t, err)
	gotPrim := got.Meshes()[0].Primitives()[0]
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, gotPrim.Attribute(core.SemanticPosition).Array())
	assert.Equal(t, "geometry.bin", gotPrim.Attribute(core.SemanticPosition).Buffer().URI())
}

func TestRawSectionPassthrough(t *testing.T) {
	ctx := context.Background()
	doc, prim := buildTriangle()
	material := 0
	prim.MaterialIndex = &material
	doc.SetRaw("materials", json.RawMessage(`[{"name":"red"}]`))
	doc.SetRaw("nodes", json.RawMessage(`[{"mesh":0}]`))
	doc.SetRaw("scenes", json.RawMessage(`[{"nodes":[0]}]`))

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteGLB(ctx, doc, &buf))
	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.JSONEq(t, `[{"name":"red"}]`, string(got.Raw("materials")))
	assert.JSONEq(t, `[{"mesh":0}]`, string(got.Raw("nodes")))
	assert.JSONEq(t, `[{"nodes":[0]}]`, string(got.Raw("scenes")))
	require.NotNil(t, got.Meshes()[0].Primitives()[0].MaterialIndex)
	assert.Equal(t, 0, *got.Meshes()[0].Primitives()[0].MaterialIndex)
}

func TestNormalizedColorRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := core.NewDocument()
	prim := testutil.BuildPrimitive(doc, "m", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
	})
	colors := doc.CreateAccessor("").
		SetType(core.Vec4).
		SetComponentType(core.ComponentUnsignedByte).
		SetNormalized(true).
		SetArray([]float32{
			1, 0, 0, 1,
			0, 0.5, 0, 1,
			0, 0, 0.25, 1,
		})
	prim.SetAttribute(core.SemanticColor, colors)

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteGLB(ctx, doc, &buf))
	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	c := got.Meshes()[0].Primitives()[0].Attribute(core.SemanticColor)
	require.NotNil(t, c)
	assert.Equal(t, core.ComponentUnsignedByte, c.ComponentType())
	assert.True(t, c.Normalized())
	for i, want := range colors.Array() {
		// One quantization step of slack for 8-bit storage.
		assert.InDelta(t, want, c.Array()[i], 1.0/255)
	}
}

func TestMorphTargetRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc, prim := buildTriangle()
	deltas := []float32{0, 0.1, 0, 0, 0.2, 0, 0, 0.3, 0}
	target := prim.CreateTarget("")
	target.SetAttribute(core.SemanticPosition, doc.CreateAccessor("").
		SetType(core.Vec3).
		SetComponentType(core.ComponentFloat).
		SetArray(deltas))

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteGLB(ctx, doc, &buf))
	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	targets := got.Meshes()[0].Primitives()[0].Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, deltas, targets[0].Attribute(core.SemanticPosition).Array())
}

func TestSkinAndAnimationRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc, _ := buildTriangle()

	ibm := doc.CreateAccessor("ibm").SetType(core.Mat4).SetArray(make([]float32, 16))
	skin := doc.CreateSkin("rig")
	skin.Joints = []int{0, 1}
	skin.SetInverseBindMatrices(ibm)

	input := doc.CreateAccessor("t").SetType(core.Scalar).SetArray([]float32{0, 1})
	output := doc.CreateAccessor("v").SetType(core.Vec3).SetArray(make([]float32, 6))
	anim := doc.CreateAnimation("idle")
	anim.Channels = json.RawMessage(`[{"sampler":0,"target":{"node":0,"path":"translation"}}]`)
	sampler := anim.CreateSampler()
	sampler.Interpolation = "LINEAR"
	sampler.SetInput(input)
	sampler.SetOutput(output)

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteGLB(ctx, doc, &buf))
	got, err := gltfio.NewReader().Read(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	skins := got.Skins()
	require.Len(t, skins, 1)
	assert.Equal(t, []int{0, 1}, skins[0].Joints)
	require.NotNil(t, skins[0].InverseBindMatrices())
	assert.Equal(t, core.Mat4, skins[0].InverseBindMatrices().Type())

	anims := got.Animations()
	require.Len(t, anims, 1)
	samplers := anims[0].Samplers()
	require.Len(t, samplers, 1)
	assert.Equal(t, "LINEAR", samplers[0].Interpolation)
	assert.Equal(t, []float32{0, 1}, samplers[0].Input().Array())
	assert.JSONEq(t, `[{"sampler":0,"target":{"node":0,"path":"translation"}}]`, string(anims[0].Channels))
}

func TestWriterOmitsTargetForDualUseAccessor(t *testing.T) {
	ctx := context.Background()
	doc := core.NewDocument()

	// One accessor bound as a custom attribute in the first primitive and as
	// the index buffer of the second.
	shared := doc.CreateAccessor("shared").
		SetType(core.Scalar).
		SetComponentType(core.ComponentUnsignedShort).
		SetArray([]float32{0, 1, 2})

	first := testutil.BuildPrimitive(doc, "tagged", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
	})
	first.SetAttribute("_ID", shared)

	second := testutil.BuildPrimitive(doc, "indexed", testutil.Attribute{
		Semantic: core.SemanticPosition,
		Type:     core.Vec3,
		Data:     []float32{0, 0, 1, 1, 0, 1, 0, 1, 1},
	})
	second.SetIndices(shared)

	var buf bytes.Buffer
	require.NoError(t, gltfio.NewWriter().WriteJSON(ctx, doc, &buf))

	var out struct {
		Accessors []struct {
			Name       string `json:"name"`
			BufferView *int   `json:"bufferView"`
		} `json:"accessors"`
		BufferViews []map[string]any `json:"bufferViews"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	for _, a := range out.Accessors {
		require.NotNil(t, a.BufferView, a.Name)
		target, ok := out.BufferViews[*a.BufferView]["target"]
		switch a.Name {
		case "shared":
			assert.False(t, ok, "dual-use accessor must carry no target hint")
		case core.SemanticPosition:
			require.True(t, ok)
			assert.EqualValues(t, 34962, target)
		}
	}
}

func TestReaderRejectsSparseAccessors(t *testing.T) {
	payload := `{
		"asset": {"version": "2.0"},
		"accessors": [{
			"componentType": 5126,
			"count": 3,
			"type": "SCALAR",
			"sparse": {"count": 1}
		}]
	}`
	_, err := gltfio.NewReader().Read(context.Background(), bytes.NewReader([]byte(payload)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sparse")
}

func TestReaderRejectsUnsupportedVersion(t *testing.T) {
	payload := `{"asset": {"version": "1.0"}}`
	_, err := gltfio.NewReader().Read(context.Background(), bytes.NewReader([]byte(payload)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}
