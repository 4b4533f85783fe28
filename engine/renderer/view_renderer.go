package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/batch"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/workqueue"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrViewportUndefined is returned by Render when no valid viewport was defined.
var ErrViewportUndefined = errors.New("renderer: viewport is not defined")

// Define failures. Each wraps ErrViewportUndefined.
var (
	ErrNoScene  = fmt.Errorf("%w: no scene", ErrViewportUndefined)
	ErrNoCamera = fmt.Errorf("%w: no camera", ErrViewportUndefined)
	ErrNoOctree = fmt.Errorf("%w: no octree", ErrViewportUndefined)
)

// ViewRenderer renders one viewport per frame: it collects the visible drawables,
// batches them through a SceneBatchCollector and submits the batches in the
// shadow, base and light stages.
type ViewRenderer struct {
	gfx        graphics.Graphics
	settings   config.RendererSettings
	queue      workqueue.WorkQueue
	profiler   *profiler.Profiler
	clearColor mgl32.Vec4

	collector  *batch.SceneBatchCollector
	batches    *BatchRenderer
	factory    *PipelineStateFactory
	shadowMaps *ShadowMapAllocator
	viewport   *SceneViewport
	commands   *DrawCommandQueue
	passes     []batch.ScenePassDescription

	defined      Viewport
	isDefined    bool
	renderTarget *graphics.Texture
	frame        scene.FrameInfo
	stats        RenderStats
}

var _ batch.Callback = &ViewRenderer{}

// NewViewRenderer creates a view renderer drawing through gfx. Panics if gfx is nil
// or the configured scene passes are invalid.
//
// Parameters:
//   - gfx: the graphics device
//   - options: functional options to configure the view renderer
//
// Returns:
//   - *ViewRenderer: the new view renderer
func NewViewRenderer(gfx graphics.Graphics, options ...ViewRendererBuilderOption) *ViewRenderer {
	if gfx == nil {
		panic("renderer: view renderer requires a non-nil Graphics")
	}
	v := &ViewRenderer{
		gfx:        gfx,
		settings:   config.Default(),
		clearColor: common.ColorBlack,
	}
	for _, opt := range options {
		opt(v)
	}

	passes, err := ScenePassesFromSettings(v.settings.Passes)
	if err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}
	v.passes = passes

	if v.queue == nil {
		workers := v.settings.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		v.queue = workqueue.NewWorkQueue(workers)
	}

	v.factory = NewPipelineStateFactory(gfx)
	v.shadowMaps = NewShadowMapAllocator(v.settings.ShadowAtlasSize)
	v.viewport = NewSceneViewport(gfx)
	v.commands = NewDrawCommandQueue()
	v.collector = batch.NewSceneBatchCollector(v.queue,
		batch.WithMaxPixelLights(v.settings.MaxPixelLights),
		batch.WithMaterialQuality(v.settings.MaterialQuality),
		batch.WithOpenGL(gfx.IsOpenGL()),
	)
	v.batches = NewBatchRenderer(v.collector, WithOpenGLProjection(gfx.IsOpenGL()))
	return v
}

// ScenePassesFromSettings converts configured passes into scene pass descriptions.
//
// Parameters:
//   - settings: the configured passes
//
// Returns:
//   - []batch.ScenePassDescription: the validated descriptions
//   - error: error naming the first invalid pass
func ScenePassesFromSettings(settings []config.PassSettings) ([]batch.ScenePassDescription, error) {
	if len(settings) == 0 {
		return batch.DefaultScenePasses(), nil
	}
	passes := make([]batch.ScenePassDescription, 0, len(settings))
	for i, s := range settings {
		t, err := batch.ParseScenePassType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i, err)
		}
		desc := batch.ScenePassDescription{
			Type:                    t,
			UnlitBasePassName:       s.UnlitBase,
			LitBasePassName:         s.LitBase,
			AdditionalLightPassName: s.AdditionalLight,
		}
		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("pass %d: %w", i, err)
		}
		passes = append(passes, desc)
	}
	return passes, nil
}

// Define selects the viewport rendered by the following frames. An invalid viewport
// is logged and leaves the renderer undefined, so frames are skipped.
//
// Parameters:
//   - viewport: the scene, camera and rectangle to render
//
// Returns:
//   - error: error if the scene, camera or octree is missing
func (v *ViewRenderer) Define(viewport Viewport) error {
	v.isDefined = false
	var err error
	switch {
	case viewport.Scene == nil:
		err = ErrNoScene
	case viewport.Camera == nil:
		err = ErrNoCamera
	case viewport.Scene.Octree() == nil:
		err = fmt.Errorf("%w: scene %q", ErrNoOctree, viewport.Scene.Name())
	}
	if err != nil {
		slog.Error("view definition failed, frames will be skipped", "err", err)
		return err
	}
	v.defined = viewport
	v.isDefined = true
	return nil
}

// Viewport returns the viewport set by the last successful Define.
func (v *ViewRenderer) Viewport() Viewport { return v.defined }

// IsDefined reports whether the last Define succeeded.
func (v *ViewRenderer) IsDefined() bool { return v.isDefined }

// SetRenderTarget selects the color texture the view renders into, nil for the
// backbuffer.
func (v *ViewRenderer) SetRenderTarget(target *graphics.Texture) { v.renderTarget = target }

// Update stores the timing of the next frame and fills in the viewport fields.
//
// Parameters:
//   - frame: frame number and timing; camera, octree and view rectangle are
//     taken from the defined viewport
func (v *ViewRenderer) Update(frame scene.FrameInfo) {
	v.frame = frame
	if !v.isDefined {
		return
	}
	v.frame.Scene = v.defined.Scene
	v.frame.Camera = v.defined.Camera
	v.frame.Octree = v.defined.Scene.Octree()
}

// Render records and executes the whole frame of the defined viewport.
//
// Returns:
//   - error: ErrViewportUndefined when Define did not succeed, or a collector error
func (v *ViewRenderer) Render() error {
	if !v.isDefined {
		return ErrViewportUndefined
	}

	v.viewport.BeginFrame(v.renderTarget, v.defined)
	defer v.viewport.EndFrame()
	if v.viewport.ArePipelineStatesInvalidated() {
		slog.Debug("viewport changed, dropping cached pipeline states")
		v.collector.InvalidatePipelineStates()
	}

	v.frame.ViewRect = v.viewport.ViewportRect()
	v.frame.ViewSize = v.frame.ViewRect.Size()

	drawables := batch.CollectDrawables(v.frame.Octree, v.frame.Camera, scene.DrawableAny)
	if err := v.collector.BeginFrame(v.frame, v, v.passes); err != nil {
		return fmt.Errorf("failed to begin batch collection: %w", err)
	}
	v.shadowMaps.BeginFrame()
	v.collector.ProcessVisibleDrawables(drawables)
	v.collector.ProcessVisibleLights()
	v.collector.CollectSceneBatches()

	v.commands.Reset()
	v.stats = RenderStats{}
	if v.settings.DrawShadows {
		v.stats.Add(v.batches.RenderShadowBatches(v.commands))
	}

	v.viewport.SetOutputRenderTarget(v.commands)
	v.commands.Clear(graphics.ClearColor|graphics.ClearDepth|graphics.ClearStencil, v.clearColor, 1, 0)
	for i := 0; i < v.collector.NumPasses(); i++ {
		v.stats.Add(v.batches.RenderBaseBatches(v.commands, i))
		v.stats.Add(v.batches.RenderLightBatches(v.commands, i))
	}
	v.commands.Execute(v.gfx)

	if v.profiler != nil {
		v.profiler.AddViewStats(profiler.ViewStats{
			Geometries:    len(v.collector.VisibleGeometries()),
			Lights:        len(v.collector.VisibleLights()),
			ShadowBatches: v.stats.ShadowBatches,
			BaseBatches:   v.stats.BaseBatches,
			LightBatches:  v.stats.LightBatches,
			DrawCalls:     v.commands.NumDraws(),
		})
	}
	return nil
}

// Stats returns what the last Render submitted.
func (v *ViewRenderer) Stats() RenderStats { return v.stats }

// Collector exposes the batch collector of the view.
func (v *ViewRenderer) Collector() *batch.SceneBatchCollector { return v.collector }

// HasShadow reports whether l renders shadows this frame: shadows must be enabled
// globally and on the light, the light must matter and not be fully lit through,
// it must be within its shadow distance and point lights need backend support.
func (v *ViewRenderer) HasShadow(l light.Light) bool {
	if !v.settings.DrawShadows || !l.CastShadows() {
		return false
	}
	if l.Importance() == light.ImportanceNotImportant || l.ShadowIntensity() >= 1 {
		return false
	}
	if l.Type() != light.LightTypeDirectional {
		shadowDistance := l.ShadowDistance()
		if shadowDistance <= 0 {
			shadowDistance = v.settings.ShadowDistance
		}
		if shadowDistance > 0 && v.frame.Camera != nil && v.frame.Camera.Distance(l.Position()) > shadowDistance {
			return false
		}
	}
	if l.Type() == light.LightTypePoint && (!v.settings.PointLightShadows || !v.gfx.SupportsPointShadows()) {
		return false
	}
	return true
}

// GetTemporaryShadowMap allocates a shadow atlas region for this frame. Failures
// are logged and disable the shadow.
func (v *ViewRenderer) GetTemporaryShadowMap(size common.IntVector2) light.ShadowMap {
	m, err := v.shadowMaps.Allocate(size)
	if err != nil {
		slog.Warn("shadow map allocation failed", "width", size.X, "height", size.Y, "err", err)
		return light.ShadowMap{}
	}
	return m
}

// CreateScenePipelineState delegates to the pipeline state factory.
func (v *ViewRenderer) CreateScenePipelineState(key pipeline.SceneKey, ctx pipeline.SceneContext) *graphics.PipelineState {
	return v.factory.CreateScenePipelineState(key, ctx)
}
