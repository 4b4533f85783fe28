package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// Viewport is what a ViewRenderer draws: a scene seen through a camera into a
// rectangle of the output. An empty Rect covers the whole output.
type Viewport struct {
	Scene  scene.Scene
	Camera camera.Camera
	Rect   common.IntRect
}

// SceneViewport tracks the output target of one view across frames and detects the
// changes that make cached pipeline states obsolete.
type SceneViewport struct {
	gfx graphics.Graphics

	renderTarget *graphics.Texture
	viewportRect common.IntRect
	camera       camera.Camera

	flipped      bool
	hash         uint32
	previousHash uint32
	invalidated  bool
}

// NewSceneViewport creates a viewport drawing through gfx. Panics if gfx is nil.
func NewSceneViewport(gfx graphics.Graphics) *SceneViewport {
	if gfx == nil {
		panic("renderer: scene viewport requires a non-nil Graphics")
	}
	return &SceneViewport{gfx: gfx}
}

// BeginFrame selects the output of the frame. On OpenGL, drawing into a texture
// toggles the camera's vertical flip until EndFrame so textures come out upright.
//
// Parameters:
//   - renderTarget: the color target, nil for the backbuffer
//   - viewport: the view, its empty Rect selects the whole target
func (v *SceneViewport) BeginFrame(renderTarget *graphics.Texture, viewport Viewport) {
	v.renderTarget = renderTarget
	v.camera = viewport.Camera

	targetSize := v.gfx.BackbufferSize()
	if renderTarget != nil {
		targetSize = renderTarget.Size()
	}
	v.viewportRect = viewport.Rect
	if v.viewportRect.IsZero() {
		v.viewportRect = common.NewIntRect(0, 0, targetSize.X, targetSize.Y)
	}

	v.flipped = false
	if v.gfx.IsOpenGL() && renderTarget != nil && v.camera != nil {
		v.camera.SetFlipVertical(!v.camera.FlipVertical())
		v.flipped = true
	}

	var hash uint32
	if v.camera != nil {
		common.CombineHash(&hash, common.HashBool(v.camera.FlipVertical()))
	}
	common.CombineHash(&hash, common.HashBool(v.gfx.ConstantBuffersEnabled()))
	v.previousHash = v.hash
	v.hash = hash
	v.invalidated = v.previousHash != 0 && v.previousHash != v.hash
}

// EndFrame undoes the flip applied by BeginFrame.
func (v *SceneViewport) EndFrame() {
	if v.flipped && v.camera != nil {
		v.camera.SetFlipVertical(!v.camera.FlipVertical())
	}
	v.flipped = false
}

// ArePipelineStatesInvalidated reports whether the viewport state changed since the
// previous frame in a way that affects pipeline states.
func (v *SceneViewport) ArePipelineStatesInvalidated() bool { return v.invalidated }

// SetOutputRenderTarget records the frame output and viewport as the current target
// of queue.
func (v *SceneViewport) SetOutputRenderTarget(queue *DrawCommandQueue) {
	queue.SetRenderTarget(v.renderTarget, nil)
	queue.SetViewport(v.viewportRect)
}

func (v *SceneViewport) RenderTarget() *graphics.Texture { return v.renderTarget }
func (v *SceneViewport) ViewportRect() common.IntRect    { return v.viewportRect }
