package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertex is the packed representation of a single static mesh vertex.
// Size: 64 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// GPUVertexElements is the vertex layout matching GPUVertex.
var GPUVertexElements = []graphics.VertexElement{
	{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition},
	{Type: graphics.TypeVector3, Semantic: graphics.SemanticNormal},
	{Type: graphics.TypeVector2, Semantic: graphics.SemanticTexCoord},
	{Type: graphics.TypeVector4, Semantic: graphics.SemanticColor},
	{Type: graphics.TypeVector4, Semantic: graphics.SemanticTangent},
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 64)
	g.marshalInto(buf)
	return buf
}

func (g *GPUVertex) marshalInto(buf []byte) {
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
}

// MarshalVertices packs a vertex slice into one contiguous byte buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices) * 64 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*64)
	for i := range vertices {
		vertices[i].marshalInto(buf[i*64:])
	}
	return buf
}

// ComputeBoundingBox returns the box enclosing every vertex position.
//
// Parameters:
//   - vertices: the vertex data to compute the bounds from
//
// Returns:
//   - common.BoundingBox: the bounds, undefined for an empty slice
func ComputeBoundingBox(vertices []GPUVertex) common.BoundingBox {
	var box common.BoundingBox
	for _, v := range vertices {
		box.MergePoint(mgl32.Vec3(v.Position))
	}
	return box
}
