package core

import "fmt"

// Standard attribute semantics defined by glTF 2.0. Custom semantics
// (prefixed "_") are passed through untouched.
const (
	SemanticPosition = "POSITION"
	SemanticNormal   = "NORMAL"
	SemanticTangent  = "TANGENT"
	SemanticTexCoord = "TEXCOORD_0"
	SemanticColor    = "COLOR_0"
	SemanticJoints   = "JOINTS_0"
	SemanticWeights  = "WEIGHTS_0"
)

// ElementType is the per-element shape of an accessor.
type ElementType int

const (
	Scalar ElementType = iota
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
)

// Components returns the number of components per element.
func (t ElementType) Components() int {
	switch t {
	case Scalar:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	case Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

func (t ElementType) String() string {
	switch t {
	case Scalar:
		return "SCALAR"
	case Vec2:
		return "VEC2"
	case Vec3:
		return "VEC3"
	case Vec4:
		return "VEC4"
	case Mat2:
		return "MAT2"
	case Mat3:
		return "MAT3"
	case Mat4:
		return "MAT4"
	default:
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
}

// ParseElementType parses a glTF accessor type string.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "SCALAR":
		return Scalar, nil
	case "VEC2":
		return Vec2, nil
	case "VEC3":
		return Vec3, nil
	case "VEC4":
		return Vec4, nil
	case "MAT2":
		return Mat2, nil
	case "MAT3":
		return Mat3, nil
	case "MAT4":
		return Mat4, nil
	default:
		return 0, fmt.Errorf("core: unknown accessor type %q", s)
	}
}

// ComponentType is the glTF storage component type of an accessor.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// ByteSize returns the storage size of one component in bytes.
func (c ComponentType) ByteSize() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// Valid reports whether c is a component type defined by glTF 2.0.
func (c ComponentType) Valid() bool {
	return c.ByteSize() != 0
}

// Mode is the primitive draw mode.
type Mode int

const (
	ModePoints Mode = iota
	ModeLines
	ModeLineLoop
	ModeLineStrip
	ModeTriangles
	ModeTriangleStrip
	ModeTriangleFan
)

func (m Mode) String() string {
	switch m {
	case ModePoints:
		return "POINTS"
	case ModeLines:
		return "LINES"
	case ModeLineLoop:
		return "LINE_LOOP"
	case ModeLineStrip:
		return "LINE_STRIP"
	case ModeTriangles:
		return "TRIANGLES"
	case ModeTriangleStrip:
		return "TRIANGLE_STRIP"
	case ModeTriangleFan:
		return "TRIANGLE_FAN"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
