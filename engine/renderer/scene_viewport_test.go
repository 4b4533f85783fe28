package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/stretchr/testify/assert"
)

func TestViewportDefaultsToWholeTarget(t *testing.T) {
	v := NewSceneViewport(graphics.NewRecorder(graphics.WithBackbufferSize(800, 600)))

	v.BeginFrame(nil, Viewport{Camera: camera.NewCamera()})
	assert.Equal(t, common.NewIntRect(0, 0, 800, 600), v.ViewportRect())
	v.EndFrame()

	target := graphics.NewRenderTexture("rt", 256, 128, graphics.FormatRGBA8)
	v.BeginFrame(target, Viewport{Camera: camera.NewCamera()})
	assert.Equal(t, common.NewIntRect(0, 0, 256, 128), v.ViewportRect())
	assert.Same(t, target, v.RenderTarget())
	v.EndFrame()

	rect := common.NewIntRect(10, 20, 100, 50)
	v.BeginFrame(target, Viewport{Camera: camera.NewCamera(), Rect: rect})
	assert.Equal(t, rect, v.ViewportRect())
	v.EndFrame()
}

func TestViewportFlipsTexturesOnOpenGL(t *testing.T) {
	target := graphics.NewRenderTexture("rt", 64, 64, graphics.FormatRGBA8)
	cam := camera.NewCamera()

	gl := NewSceneViewport(graphics.NewRecorder(graphics.WithAPI(graphics.APIOpenGL)))
	gl.BeginFrame(target, Viewport{Camera: cam})
	assert.True(t, cam.FlipVertical())
	assert.True(t, cam.ReverseCulling())
	gl.EndFrame()
	assert.False(t, cam.FlipVertical())

	gl.BeginFrame(nil, Viewport{Camera: cam})
	assert.False(t, cam.FlipVertical(), "the backbuffer is never flipped")
	gl.EndFrame()

	wgpu := NewSceneViewport(graphics.NewRecorder())
	wgpu.BeginFrame(target, Viewport{Camera: cam})
	assert.False(t, cam.FlipVertical())
	wgpu.EndFrame()
}

func TestViewportInvalidatesOnStateChange(t *testing.T) {
	v := NewSceneViewport(graphics.NewRecorder())
	cam := camera.NewCamera()

	v.BeginFrame(nil, Viewport{Camera: cam})
	assert.False(t, v.ArePipelineStatesInvalidated(), "first frame has nothing to invalidate")
	v.EndFrame()

	v.BeginFrame(nil, Viewport{Camera: cam})
	assert.False(t, v.ArePipelineStatesInvalidated())
	v.EndFrame()

	cam.SetFlipVertical(true)
	v.BeginFrame(nil, Viewport{Camera: cam})
	assert.True(t, v.ArePipelineStatesInvalidated())
	v.EndFrame()

	v.BeginFrame(nil, Viewport{Camera: cam})
	assert.False(t, v.ArePipelineStatesInvalidated())
	v.EndFrame()
}

func TestViewportRecordsOutputTarget(t *testing.T) {
	gfx := graphics.NewRecorder()
	v := NewSceneViewport(gfx)
	q := NewDrawCommandQueue()

	v.BeginFrame(nil, Viewport{Camera: camera.NewCamera(), Rect: common.NewIntRect(0, 0, 320, 240)})
	v.SetOutputRenderTarget(q)
	v.EndFrame()
	q.Execute(gfx)

	calls := gfx.Calls()
	if assert.Len(t, calls, 2) {
		assert.Equal(t, graphics.OpSetRenderTarget, calls[0].Op)
		assert.Nil(t, calls[0].Color)
		assert.Equal(t, graphics.OpSetViewport, calls[1].Op)
		assert.Equal(t, common.NewIntRect(0, 0, 320, 240), calls[1].Rect)
	}
}
