package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModelFromMeshes(t *testing.T) {
	m := BuildModel(&ImportedModel{
		Name:   "boxes",
		Meshes: []ImportedMesh{NewBoxMesh(mgl32.Vec3{2, 2, 2}), NewPlaneMesh(10)},
	})

	require.Equal(t, 2, m.NumGeometries())
	assert.Len(t, m.Materials(), 2)

	box := m.Geometry(0, 0)
	require.NotNil(t, box)
	assert.Equal(t, uint32(36), box.IndexCount())
	assert.Equal(t, uint32(24), box.VertexCount())
	assert.Equal(t, uint32(64), box.VertexBuffers()[0].VertexSize())

	bounds := m.BoundingBox()
	assert.InDelta(t, -5, bounds.Min[0], 1e-5)
	assert.InDelta(t, 5, bounds.Max[0], 1e-5)
	assert.InDelta(t, 1, bounds.Max[1], 1e-5)

	assert.Nil(t, m.Geometry(5, 0))
	assert.Same(t, box, m.Geometry(0, 3), "LOD index clamps to the last level")
}

func TestGeometryPipelineStateHash(t *testing.T) {
	mesh := NewPlaneMesh(1)
	vb := graphics.NewVertexBuffer(GPUVertexElements, MarshalVertices(mesh.Vertices), false)
	a := NewGeometry(graphics.TriangleList, graphics.NewIndexBuffer32(mesh.Indices), vb)
	b := NewGeometry(graphics.TriangleList, graphics.NewIndexBuffer32(mesh.Indices), vb)
	c := NewGeometry(graphics.TriangleList, graphics.NewIndexBuffer16([]uint16{0, 1, 2}), vb)
	d := NewGeometry(graphics.LineList, nil, vb)

	assert.Equal(t, a.PipelineStateHash(), b.PipelineStateHash())
	assert.NotEqual(t, a.PipelineStateHash(), c.PipelineStateHash())
	assert.NotEqual(t, a.PipelineStateHash(), d.PipelineStateHash())
	assert.True(t, a.HasElement(graphics.SemanticTangent))
	assert.False(t, a.HasElement(graphics.SemanticBlendWeights))
}

func TestGeometryDraw(t *testing.T) {
	mesh := NewBoxMesh(mgl32.Vec3{1, 1, 1})
	vb := graphics.NewVertexBuffer(GPUVertexElements, MarshalVertices(mesh.Vertices), false)
	g := NewGeometry(graphics.TriangleList, graphics.NewIndexBuffer32(mesh.Indices), vb)
	g.SetDrawRange(6, 12, 0, 24)
	assert.Equal(t, uint32(6), g.IndexStart())
	assert.Zero(t, g.VertexStart())

	rec := graphics.NewRecorder()
	g.Draw(rec)
	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, graphics.OpDrawIndexed, calls[2].Op)
	assert.Equal(t, uint32(6), calls[2].Start)
	assert.Equal(t, uint32(12), calls[2].Count)

	var empty *Geometry
	assert.True(t, empty.IsEmpty())
}
