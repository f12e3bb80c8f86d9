package gltfio

import "encoding/json"

// JSON mirror structs for the subset of glTF 2.0 the toolkit models.
// Everything else stays json.RawMessage and round-trips untouched.

type assetJSON struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

type bufferJSON struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	Name       string `json:"name,omitempty"`
}

type bufferViewJSON struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride *int   `json:"byteStride,omitempty"`
	Target     int    `json:"target,omitempty"`
	Name       string `json:"name,omitempty"`
}

type accessorJSON struct {
	BufferView    *int            `json:"bufferView,omitempty"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Normalized    bool            `json:"normalized,omitempty"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Min           []float64       `json:"min,omitempty"`
	Max           []float64       `json:"max,omitempty"`
	Sparse        json.RawMessage `json:"sparse,omitempty"`
	Name          string          `json:"name,omitempty"`
}

type primitiveJSON struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
}

type meshJSON struct {
	Primitives []primitiveJSON `json:"primitives"`
	Weights    []float64       `json:"weights,omitempty"`
	Name       string          `json:"name,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

type skinJSON struct {
	InverseBindMatrices *int            `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int            `json:"skeleton,omitempty"`
	Joints              []int           `json:"joints"`
	Name                string          `json:"name,omitempty"`
	Extras              json.RawMessage `json:"extras,omitempty"`
}

type animationSamplerJSON struct {
	Input         int    `json:"input"`
	Interpolation string `json:"interpolation,omitempty"`
	Output        int    `json:"output"`
}

type animationJSON struct {
	Channels json.RawMessage        `json:"channels"`
	Samplers []animationSamplerJSON `json:"samplers"`
	Name     string                 `json:"name,omitempty"`
	Extras   json.RawMessage        `json:"extras,omitempty"`
}

// Buffer-view targets.
const (
	targetArrayBuffer        = 34962
	targetElementArrayBuffer = 34963

	// targetMixed marks an accessor referenced both as an attribute and as
	// indices; its view is emitted without a target hint.
	targetMixed = -1
)

// modeledKeys are the top-level sections decoded into the core graph; every
// other key is preserved raw.
var modeledKeys = map[string]bool{
	"asset":       true,
	"buffers":     true,
	"bufferViews": true,
	"accessors":   true,
	"meshes":      true,
	"skins":       true,
	"animations":  true,
}
