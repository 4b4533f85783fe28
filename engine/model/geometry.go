package model

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// Geometry is one drawable range of vertex and index data. A geometry may read
// from several vertex buffers; their elements are merged into one input layout.
type Geometry struct {
	vertexBuffers []*graphics.VertexBuffer
	indexBuffer   *graphics.IndexBuffer
	primitiveType graphics.PrimitiveType
	indexStart    uint32
	indexCount    uint32
	vertexStart   uint32
	vertexCount   uint32
	lodDistance   float32
	boundingBox   common.BoundingBox
}

// NewGeometry creates a geometry drawing every index of ib, or every vertex of the
// first vertex buffer when ib is nil.
//
// Parameters:
//   - primitiveType: the topology to draw
//   - ib: the index buffer, may be nil
//   - vbs: one or more vertex buffers
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry(primitiveType graphics.PrimitiveType, ib *graphics.IndexBuffer, vbs ...*graphics.VertexBuffer) *Geometry {
	g := &Geometry{
		vertexBuffers: vbs,
		indexBuffer:   ib,
		primitiveType: primitiveType,
	}
	if ib != nil {
		g.indexCount = ib.Count()
	}
	if len(vbs) > 0 && vbs[0] != nil {
		g.vertexCount = vbs[0].VertexCount()
	}
	return g
}

// SetDrawRange restricts drawing to a sub-range of the buffers.
func (g *Geometry) SetDrawRange(indexStart, indexCount, vertexStart, vertexCount uint32) {
	g.indexStart = indexStart
	g.indexCount = indexCount
	g.vertexStart = vertexStart
	g.vertexCount = vertexCount
}

func (g *Geometry) SetLodDistance(d float32)              { g.lodDistance = d }
func (g *Geometry) SetBoundingBox(b common.BoundingBox)   { g.boundingBox = b }
func (g *Geometry) VertexBuffers() []*graphics.VertexBuffer { return g.vertexBuffers }
func (g *Geometry) IndexBuffer() *graphics.IndexBuffer      { return g.indexBuffer }
func (g *Geometry) PrimitiveType() graphics.PrimitiveType   { return g.primitiveType }
func (g *Geometry) IndexStart() uint32                      { return g.indexStart }
func (g *Geometry) IndexCount() uint32                      { return g.indexCount }
func (g *Geometry) VertexStart() uint32                     { return g.vertexStart }
func (g *Geometry) VertexCount() uint32                     { return g.vertexCount }
func (g *Geometry) LodDistance() float32                    { return g.lodDistance }
func (g *Geometry) BoundingBox() common.BoundingBox         { return g.boundingBox }

// IsEmpty reports whether there is nothing to draw.
func (g *Geometry) IsEmpty() bool {
	if g == nil || len(g.vertexBuffers) == 0 {
		return true
	}
	if g.indexBuffer != nil {
		return g.indexCount == 0
	}
	return g.vertexCount == 0
}

// VertexElements returns the elements of every vertex buffer in binding order.
func (g *Geometry) VertexElements() []graphics.VertexElement {
	var out []graphics.VertexElement
	for _, vb := range g.vertexBuffers {
		if vb != nil {
			out = append(out, vb.Elements()...)
		}
	}
	return out
}

// HasElement reports whether any vertex buffer provides semantic.
func (g *Geometry) HasElement(semantic graphics.VertexElementSemantic) bool {
	for _, vb := range g.vertexBuffers {
		if vb == nil {
			continue
		}
		for _, e := range vb.Elements() {
			if e.Semantic == semantic {
				return true
			}
		}
	}
	return false
}

// PipelineStateHash hashes the parts of the geometry that feed pipeline creation:
// the vertex layout, the primitive type and the index type. Cached pipeline
// states are invalidated when it changes.
func (g *Geometry) PipelineStateHash() uint32 {
	var hash uint32
	for _, vb := range g.vertexBuffers {
		if vb != nil {
			common.CombineHash(&hash, graphics.ElementsHash(vb.Elements()))
		}
	}
	common.CombineHash(&hash, uint32(g.primitiveType))
	common.CombineHash(&hash, uint32(graphics.IndexTypeOf(g.indexBuffer)))
	return hash
}

// Draw binds the buffers and issues the draw call on gfx.
func (g *Geometry) Draw(gfx graphics.Graphics) {
	if g.IsEmpty() {
		return
	}
	gfx.SetVertexBuffers(g.vertexBuffers)
	if g.indexBuffer != nil {
		gfx.SetIndexBuffer(g.indexBuffer)
		gfx.DrawIndexed(g.indexStart, g.indexCount, g.vertexStart)
		return
	}
	gfx.SetIndexBuffer(nil)
	gfx.Draw(g.vertexStart, g.vertexCount)
}
