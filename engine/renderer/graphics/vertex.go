package graphics

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// VertexElementType is the data type of one vertex attribute.
type VertexElementType uint8

const (
	TypeInt VertexElementType = iota
	TypeFloat
	TypeVector2
	TypeVector3
	TypeVector4
	TypeUByte4
	TypeUByte4Norm
)

// Size returns the attribute size in bytes.
func (t VertexElementType) Size() uint32 {
	switch t {
	case TypeVector2:
		return 8
	case TypeVector3:
		return 12
	case TypeVector4:
		return 16
	default:
		return 4
	}
}

// ToWGPU maps the attribute type to a wgpu vertex format.
func (t VertexElementType) ToWGPU() wgpu.VertexFormat {
	switch t {
	case TypeInt:
		return wgpu.VertexFormatSint32
	case TypeFloat:
		return wgpu.VertexFormatFloat32
	case TypeVector2:
		return wgpu.VertexFormatFloat32x2
	case TypeVector3:
		return wgpu.VertexFormatFloat32x3
	case TypeVector4:
		return wgpu.VertexFormatFloat32x4
	case TypeUByte4:
		return wgpu.VertexFormatUint8x4
	case TypeUByte4Norm:
		return wgpu.VertexFormatUnorm8x4
	default:
		return wgpu.VertexFormatUndefined
	}
}

// VertexElementSemantic is the meaning of a vertex attribute.
type VertexElementSemantic uint8

const (
	SemanticPosition VertexElementSemantic = iota
	SemanticNormal
	SemanticBinormal
	SemanticTangent
	SemanticTexCoord
	SemanticColor
	SemanticBlendWeights
	SemanticBlendIndices
	SemanticObjectIndex
)

// VertexElement describes one attribute of a vertex buffer.
type VertexElement struct {
	Type        VertexElementType
	Semantic    VertexElementSemantic
	Index       uint8
	PerInstance bool
	// Offset is filled in by NewVertexBuffer.
	Offset uint32
}

// Hash returns a hash of every field of the element.
func (e VertexElement) Hash() uint32 {
	var hash uint32
	common.CombineHash(&hash, uint32(e.Type))
	common.CombineHash(&hash, uint32(e.Semantic))
	common.CombineHash(&hash, uint32(e.Index))
	common.CombineHash(&hash, common.HashBool(e.PerInstance))
	common.CombineHash(&hash, e.Offset)
	return hash
}

// ElementsHash hashes an ordered list of vertex elements.
func ElementsHash(elements []VertexElement) uint32 {
	var hash uint32
	common.CombineHash(&hash, uint32(len(elements)))
	for _, e := range elements {
		common.CombineHash(&hash, e.Hash())
	}
	return hash
}

var resourceIDs atomic.Uint32

func nextResourceID() uint32 {
	return resourceIDs.Add(1)
}

// VertexBuffer is CPU-side vertex data plus its layout. Backends upload the data
// lazily and re-upload when Version changes.
type VertexBuffer struct {
	id          uint32
	elements    []VertexElement
	vertexSize  uint32
	vertexCount uint32
	data        []byte
	dynamic     bool
	version     uint32
}

// NewVertexBuffer creates a vertex buffer with the given layout. Element offsets are
// assigned in order.
//
// Parameters:
//   - elements: the attribute layout of one vertex
//   - data: packed vertex data, may be nil for dynamic buffers filled later
//   - dynamic: whether the contents change frequently
//
// Returns:
//   - *VertexBuffer: the new buffer
func NewVertexBuffer(elements []VertexElement, data []byte, dynamic bool) *VertexBuffer {
	vb := &VertexBuffer{
		id:       nextResourceID(),
		elements: make([]VertexElement, len(elements)),
		dynamic:  dynamic,
	}
	var offset uint32
	for i, e := range elements {
		e.Offset = offset
		offset += e.Type.Size()
		vb.elements[i] = e
	}
	vb.vertexSize = offset
	vb.SetData(data)
	return vb
}

// SetData replaces the vertex data and bumps the version.
func (vb *VertexBuffer) SetData(data []byte) {
	vb.data = data
	if vb.vertexSize > 0 {
		vb.vertexCount = uint32(len(data)) / vb.vertexSize
	}
	vb.version++
}

func (vb *VertexBuffer) ID() uint32                { return vb.id }
func (vb *VertexBuffer) Elements() []VertexElement { return vb.elements }
func (vb *VertexBuffer) VertexSize() uint32        { return vb.vertexSize }
func (vb *VertexBuffer) VertexCount() uint32       { return vb.vertexCount }
func (vb *VertexBuffer) Data() []byte              { return vb.data }
func (vb *VertexBuffer) Dynamic() bool             { return vb.dynamic }
func (vb *VertexBuffer) Version() uint32           { return vb.version }

// IndexBuffer is CPU-side index data.
type IndexBuffer struct {
	id      uint32
	large   bool
	count   uint32
	data    []byte
	dynamic bool
	version uint32
}

// NewIndexBuffer creates an index buffer. Large buffers use 32-bit indices,
// otherwise 16-bit.
func NewIndexBuffer(data []byte, large, dynamic bool) *IndexBuffer {
	ib := &IndexBuffer{id: nextResourceID(), large: large, dynamic: dynamic}
	ib.SetData(data)
	return ib
}

// NewIndexBuffer32 packs 32-bit indices into a new index buffer.
func NewIndexBuffer32(indices []uint32) *IndexBuffer {
	return NewIndexBuffer(append([]byte(nil), common.SliceToBytes(indices)...), true, false)
}

// NewIndexBuffer16 packs 16-bit indices into a new index buffer.
func NewIndexBuffer16(indices []uint16) *IndexBuffer {
	return NewIndexBuffer(append([]byte(nil), common.SliceToBytes(indices)...), false, false)
}

// SetData replaces the index data and bumps the version.
func (ib *IndexBuffer) SetData(data []byte) {
	ib.data = data
	ib.count = uint32(len(data)) / ib.IndexSize()
	ib.version++
}

// IndexSize returns 4 for 32-bit indices and 2 otherwise.
func (ib *IndexBuffer) IndexSize() uint32 {
	if ib.large {
		return 4
	}
	return 2
}

func (ib *IndexBuffer) ID() uint32      { return ib.id }
func (ib *IndexBuffer) Large() bool     { return ib.large }
func (ib *IndexBuffer) Count() uint32   { return ib.count }
func (ib *IndexBuffer) Data() []byte    { return ib.data }
func (ib *IndexBuffer) Dynamic() bool   { return ib.dynamic }
func (ib *IndexBuffer) Version() uint32 { return ib.version }

// IndexType is the index format of a pipeline.
type IndexType uint8

const (
	IndexNone IndexType = iota
	Index16
	Index32
)

// IndexTypeOf returns the pipeline index type for ib, IndexNone for nil.
func IndexTypeOf(ib *IndexBuffer) IndexType {
	switch {
	case ib == nil:
		return IndexNone
	case ib.large:
		return Index32
	default:
		return Index16
	}
}
