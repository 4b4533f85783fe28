package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTriangle() *model.Geometry {
	vb := graphics.NewVertexBuffer([]graphics.VertexElement{{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition}}, make([]byte, 36), false)
	return model.NewGeometry(graphics.TriangleList, nil, vb)
}

func newTestState() *graphics.PipelineState {
	return graphics.NewPipelineState(graphics.DefaultPipelineStateDesc(), nil)
}

func TestQueueReplaysCommandsInOrder(t *testing.T) {
	q := NewDrawCommandQueue()
	target := graphics.NewRenderTexture("rt", 64, 64, graphics.FormatRGBA8)
	state := newTestState()
	tri := newTriangle()

	q.SetRenderTarget(target, nil)
	q.SetViewport(common.NewIntRect(0, 0, 64, 64))
	q.Clear(graphics.ClearColor, mgl32.Vec4{}, 1, 0)
	q.SetPipelineState(state)
	require.True(t, q.BeginShaderParameterGroup(graphics.GroupCamera, true))
	q.AddShaderParameter("CameraPos", []float32{1, 2, 3})
	q.CommitShaderParameterGroup(graphics.GroupCamera)
	q.SetTexture(graphics.TextureDiffuse, nil)
	q.DrawGeometry(tri)

	rec := graphics.NewRecorder()
	q.Execute(rec)

	var ops []graphics.Op
	for _, c := range rec.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []graphics.Op{
		graphics.OpSetRenderTarget,
		graphics.OpSetViewport,
		graphics.OpClear,
		graphics.OpSetPipelineState,
		graphics.OpSetShaderParameters,
		graphics.OpSetTexture,
		graphics.OpSetVertexBuffers,
		graphics.OpSetIndexBuffer,
		graphics.OpDraw,
	}, ops)

	params := rec.Calls()[4]
	assert.Equal(t, graphics.GroupCamera, params.Group)
	require.Len(t, params.Params, 1)
	assert.Equal(t, "CameraPos", params.Params[0].Name)
	assert.Equal(t, []float32{1, 2, 3, 0}, params.Params[0].Data)
	assert.Equal(t, 1, q.NumDraws())
}

func TestQueueSetsPipelineStateOnlyOnChange(t *testing.T) {
	q := NewDrawCommandQueue()
	a, b := newTestState(), newTestState()
	tri := newTriangle()

	for _, s := range []*graphics.PipelineState{a, a, b, b, a} {
		q.SetPipelineState(s)
		q.DrawGeometry(tri)
	}
	rec := graphics.NewRecorder()
	q.Execute(rec)

	assert.Equal(t, 5, rec.Count(graphics.OpDraw))
	assert.Equal(t, 3, rec.Count(graphics.OpSetPipelineState))
}

func TestQueueDropsUndrawableCommandsButKeepsUpdates(t *testing.T) {
	q := NewDrawCommandQueue()
	tri := newTriangle()

	q.SetPipelineState(nil)
	q.BeginShaderParameterGroup(graphics.GroupObject, true)
	q.AddShaderParameter("Model", []float32{1})
	q.CommitShaderParameterGroup(graphics.GroupObject)
	q.DrawGeometry(tri)
	q.SetPipelineState(newTestState())
	q.DrawGeometry(model.NewGeometry(graphics.TriangleList, nil))
	q.DrawGeometry(tri)

	rec := graphics.NewRecorder()
	q.Execute(rec)
	assert.Equal(t, 1, rec.Count(graphics.OpDraw))
	assert.Equal(t, 1, rec.ParameterUploads(graphics.GroupObject))
}

func TestQueueGroupProtocol(t *testing.T) {
	q := NewDrawCommandQueue()
	assert.False(t, q.BeginShaderParameterGroup(graphics.GroupZone, false))
	assert.Panics(t, func() { q.CommitShaderParameterGroup(graphics.GroupZone) })

	require.True(t, q.BeginShaderParameterGroup(graphics.GroupZone, true))
	assert.Panics(t, func() { q.BeginShaderParameterGroup(graphics.GroupLight, true) })
	q.CommitShaderParameterGroup(graphics.GroupZone)
	assert.Equal(t, 1, q.NumParameterGroups())

	q.Reset()
	assert.Zero(t, q.NumParameterGroups())
	assert.Zero(t, q.NumCommands())
	assert.Zero(t, q.Parameters().Storage().NumParameters())
}
