package gltfio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xlsfs/glTF-Transform/core"
)

// maxExactIndex is the largest integer float32 represents exactly. Unsigned
// int components (index data) above it cannot survive the float32 in-memory
// form and are rejected at decode time.
const maxExactIndex = 1 << 24

// decodeElements reads count elements of elemSize components from view,
// converting the storage component type to normalized float32 values.
// byteStride is the distance between element starts (0 means tightly packed).
func decodeElements(view []byte, compType core.ComponentType, normalized bool, count, elemSize, byteOffset, byteStride int) ([]float32, error) {
	compSize := compType.ByteSize()
	if compSize == 0 {
		return nil, fmt.Errorf("gltfio: unknown component type %d", int(compType))
	}
	stride := byteStride
	if stride == 0 {
		stride = elemSize * compSize
	}
	need := byteOffset + (count-1)*stride + elemSize*compSize
	if count == 0 {
		need = byteOffset
	}
	if need > len(view) {
		return nil, fmt.Errorf("gltfio: accessor range [%d:%d] exceeds buffer view of %d bytes", byteOffset, need, len(view))
	}

	out := make([]float32, count*elemSize)
	for i := 0; i < count; i++ {
		base := byteOffset + i*stride
		for c := 0; c < elemSize; c++ {
			raw := view[base+c*compSize:]
			if compType == core.ComponentUnsignedInt {
				if v := binary.LittleEndian.Uint32(raw); v > maxExactIndex {
					return nil, fmt.Errorf("gltfio: unsigned int component value %d exceeds the exact float32 range [0, %d]", v, maxExactIndex)
				}
			}
			out[i*elemSize+c] = decodeComponent(raw, compType, normalized)
		}
	}
	return out, nil
}

func decodeComponent(raw []byte, compType core.ComponentType, normalized bool) float32 {
	switch compType {
	case core.ComponentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(raw))
	case core.ComponentUnsignedByte:
		v := float32(raw[0])
		if normalized {
			return v / 255
		}
		return v
	case core.ComponentByte:
		v := float32(int8(raw[0]))
		if normalized {
			return max32(v/127, -1)
		}
		return v
	case core.ComponentUnsignedShort:
		v := float32(binary.LittleEndian.Uint16(raw))
		if normalized {
			return v / 65535
		}
		return v
	case core.ComponentShort:
		v := float32(int16(binary.LittleEndian.Uint16(raw)))
		if normalized {
			return max32(v/32767, -1)
		}
		return v
	case core.ComponentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(raw))
	default:
		return 0
	}
}

// encodeElements converts normalized float32 data back to the storage
// component type, tightly packed, little endian.
func encodeElements(data []float32, compType core.ComponentType, normalized bool) []byte {
	compSize := compType.ByteSize()
	out := make([]byte, len(data)*compSize)
	for i, v := range data {
		encodeComponent(out[i*compSize:], v, compType, normalized)
	}
	return out
}

func encodeComponent(dst []byte, v float32, compType core.ComponentType, normalized bool) {
	switch compType {
	case core.ComponentFloat:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	case core.ComponentUnsignedByte:
		dst[0] = byte(quantize(v, 255, normalized))
	case core.ComponentByte:
		dst[0] = byte(int8(quantize(v, 127, normalized)))
	case core.ComponentUnsignedShort:
		binary.LittleEndian.PutUint16(dst, uint16(quantize(v, 65535, normalized)))
	case core.ComponentShort:
		binary.LittleEndian.PutUint16(dst, uint16(int16(quantize(v, 32767, normalized))))
	case core.ComponentUnsignedInt:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}

// quantize maps a normalized value back to integer storage, or rounds a raw
// integer value that was held in float form.
func quantize(v float32, scale float64, normalized bool) int64 {
	f := float64(v)
	if normalized {
		f *= scale
	}
	return int64(math.Round(f))
}

// storageMinMax computes an accessor's min/max in storage space, for the
// accessor JSON min/max fields.
func storageMinMax(a *core.Accessor) (minVals, maxVals []float64) {
	size := a.ElementSize()
	lo := a.MinNormalized(nil)
	hi := a.MaxNormalized(nil)
	minVals = make([]float64, size)
	maxVals = make([]float64, size)
	for c := 0; c < size; c++ {
		minVals[c] = toStorage(lo[c], a.ComponentType(), a.Normalized())
		maxVals[c] = toStorage(hi[c], a.ComponentType(), a.Normalized())
	}
	return minVals, maxVals
}

func toStorage(v float32, compType core.ComponentType, normalized bool) float64 {
	switch compType {
	case core.ComponentFloat:
		return float64(v)
	case core.ComponentUnsignedByte:
		return float64(quantize(v, 255, normalized))
	case core.ComponentByte:
		return float64(quantize(v, 127, normalized))
	case core.ComponentUnsignedShort:
		return float64(quantize(v, 65535, normalized))
	case core.ComponentShort:
		return float64(quantize(v, 32767, normalized))
	case core.ComponentUnsignedInt:
		return float64(quantize(v, 1, false))
	default:
		return float64(v)
	}
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
