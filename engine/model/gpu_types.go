package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSize is the packed size of a GPUVertex in bytes.
const GPUVertexSize = 64

// GPUVertex is the interleaved layout of a single display vertex.
// Size: 64 bytes, tightly packed with no padding, so a []GPUVertex can be viewed as bytes directly.
type GPUVertex struct {
	Position [3]float32 // offset  0: world-space position (12 bytes)
	Normal   [3]float32 // offset 12: unit normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: planar UV derived from the bounds (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent (xyz) + handedness (w) (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex into a little-endian 64-byte buffer.
//
// Returns:
//   - []byte: the serialized vertex
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	fields := [16]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Normal[0], g.Normal[1], g.Normal[2],
		g.TexCoord[0], g.TexCoord[1],
		g.Color[0], g.Color[1], g.Color[2], g.Color[3],
		g.Tangent[0], g.Tangent[1], g.Tangent[2], g.Tangent[3],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// UnmarshalGPUVertex decodes one vertex from a little-endian buffer written by Marshal.
//
// Parameters:
//   - buf: at least GPUVertexSize bytes
//
// Returns:
//   - GPUVertex: the decoded vertex
func UnmarshalGPUVertex(buf []byte) GPUVertex {
	var f [16]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return GPUVertex{
		Position: [3]float32{f[0], f[1], f[2]},
		Normal:   [3]float32{f[3], f[4], f[5]},
		TexCoord: [2]float32{f[6], f[7]},
		Color:    [4]float32{f[8], f[9], f[10], f[11]},
		Tangent:  [4]float32{f[12], f[13], f[14], f[15]},
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius around a center point.
//
// Parameters:
//   - vertices: the vertex data
//   - center: the sphere center
//
// Returns:
//   - float32: the maximum distance from center across all vertices
func ComputeBoundingRadius(vertices []GPUVertex, center [3]float32) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		dx := v.Position[0] - center[0]
		dy := v.Position[1] - center[1]
		dz := v.Position[2] - center[2]
		maxDistSq = max(maxDistSq, dx*dx+dy*dy+dz*dz)
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
