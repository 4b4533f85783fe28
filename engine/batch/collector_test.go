package batch

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/workqueue"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCallback struct {
	shadows    bool
	created    int
	shadowMaps []common.IntVector2
	contexts   []pipeline.SceneContext
}

func (c *testCallback) HasShadow(l light.Light) bool { return c.shadows && l.CastShadows() }

func (c *testCallback) GetTemporaryShadowMap(size common.IntVector2) light.ShadowMap {
	c.shadowMaps = append(c.shadowMaps, size)
	return light.ShadowMap{
		Texture: graphics.NewRenderTexture("shadow", 2048, 2048, graphics.FormatDepth32F),
		Region:  common.NewIntRect(0, 0, size.X, size.Y),
	}
}

func (c *testCallback) CreateScenePipelineState(key pipeline.SceneKey, ctx pipeline.SceneContext) *graphics.PipelineState {
	c.created++
	c.contexts = append(c.contexts, ctx)
	return graphics.NewPipelineState(graphics.DefaultPipelineStateDesc(), nil)
}

func newTestGeometry() *model.Geometry {
	vb := graphics.NewVertexBuffer([]graphics.VertexElement{{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition}}, make([]byte, 36), false)
	return model.NewGeometry(graphics.TriangleList, nil, vb)
}

func newBatchedGeometry(center mgl32.Vec3, mat material.Material) *scene.DrawableBase {
	d := scene.NewDrawableBase(scene.DrawableGeometry)
	h := mgl32.Vec3{1, 1, 1}
	d.SetWorldBoundingBox(common.NewBoundingBox(center.Sub(h), center.Add(h)))
	d.SetCastShadows(true)
	d.SetBatches([]scene.SourceBatch{{Geometry: newTestGeometry(), Material: mat}})
	return d
}

type collectorFixture struct {
	octree    *scene.Octree
	camera    camera.Camera
	collector *SceneBatchCollector
	callback  *testCallback
}

func newCollectorFixture(drawables ...scene.Drawable) *collectorFixture {
	octree := scene.NewOctree(1000, 4)
	for _, d := range drawables {
		octree.Insert(d)
	}
	return &collectorFixture{
		octree:    octree,
		camera:    camera.NewCamera(camera.WithClip(0.1, 100)),
		collector: NewSceneBatchCollector(workqueue.NewWorkQueue(2)),
		callback:  &testCallback{},
	}
}

func (f *collectorFixture) run(t *testing.T) {
	t.Helper()
	frame := scene.FrameInfo{Camera: f.camera, Octree: f.octree}
	require.NoError(t, f.collector.BeginFrame(frame, f.callback, DefaultScenePasses()))
	f.collector.ProcessVisibleDrawables(CollectDrawables(f.octree, f.camera, scene.DrawableAny))
	f.collector.ProcessVisibleLights()
	f.collector.CollectSceneBatches()
}

func newShadowedSpot() light.Light {
	return light.NewLight(light.LightTypeSpot,
		light.WithPosition(0, 10, 20),
		light.WithDirection(0, -1, 0),
		light.WithRange(15),
		light.WithSpotCone(60, 1),
		light.WithCastShadows(true),
	)
}

func TestCollectorUnlitGeometryWithoutLights(t *testing.T) {
	f := newCollectorFixture(newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil))
	f.run(t)

	require.Len(t, f.collector.BaseBatches(0), 1)
	b := f.collector.BaseBatches(0)[0]
	assert.Equal(t, material.PassBase, b.Pass.Name())
	assert.False(t, b.LitBase)
	assert.NotNil(t, b.PipelineState)
	assert.Same(t, material.Default(), b.Material)
	assert.Empty(t, f.collector.LightBatches(0))
	assert.Empty(t, f.collector.BaseBatches(1))
	assert.Empty(t, f.collector.VisibleLights())
	assert.Nil(t, f.collector.MainLight())
	assert.Equal(t, 1, f.callback.created)
}

func TestCollectorShadowsDisabled(t *testing.T) {
	f := newCollectorFixture(newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil), newShadowedSpot())
	f.run(t)

	require.Len(t, f.collector.VisibleLights(), 1)
	assert.Zero(t, f.collector.VisibleLights()[0].NumSplits())
	assert.Empty(t, f.collector.ShadowBatches(0, 0))
	assert.Empty(t, f.callback.shadowMaps)

	// The spot is not a main light, so the base stays unlit and the light is additive.
	require.Len(t, f.collector.BaseBatches(0), 1)
	assert.Equal(t, material.PassBase, f.collector.BaseBatches(0)[0].Pass.Name())
	require.Len(t, f.collector.LightBatches(0), 1)
	lb := f.collector.LightBatches(0)[0]
	assert.Equal(t, material.PassLight, lb.Pass.Name())
	assert.Equal(t, 0, lb.LightIndex)
	assert.NotNil(t, lb.PipelineState)
}

func TestCollectorShadowsEnabled(t *testing.T) {
	geometry := newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil)
	f := newCollectorFixture(geometry, newShadowedSpot())
	f.callback.shadows = true
	f.run(t)

	require.Len(t, f.collector.VisibleLights(), 1)
	sl := f.collector.VisibleLights()[0]
	require.True(t, sl.HasShadow())
	require.Equal(t, 1, sl.NumSplits())
	assert.Equal(t, []common.IntVector2{{X: light.SplitSize, Y: light.SplitSize}}, f.callback.shadowMaps)

	shadows := f.collector.ShadowBatches(0, 0)
	require.Len(t, shadows, 1)
	assert.Same(t, geometry, shadows[0].Drawable)
	assert.Equal(t, material.PassShadow, shadows[0].Pass.Name())
	assert.NotNil(t, shadows[0].PipelineState)

	var shadowContexts int
	for _, ctx := range f.callback.contexts {
		if ctx.ShadowPass {
			shadowContexts++
			assert.Same(t, sl, ctx.Light)
		}
	}
	assert.Equal(t, 1, shadowContexts)
}

func TestCollectorShadowDistanceCullsCasters(t *testing.T) {
	geometry := newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil)
	geometry.SetShadowDistance(5)
	f := newCollectorFixture(geometry, newShadowedSpot())
	f.callback.shadows = true
	f.run(t)

	require.Equal(t, 1, f.collector.VisibleLights()[0].NumSplits())
	assert.Empty(t, f.collector.ShadowBatches(0, 0))
	assert.Len(t, f.collector.BaseBatches(0), 1)
}

func TestCollectorMainLightUsesLitBase(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(0, -1, 1))
	f := newCollectorFixture(newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil), sun)
	f.run(t)

	require.NotNil(t, f.collector.MainLight())
	assert.Same(t, sun, f.collector.MainLight().Light())
	require.Len(t, f.collector.BaseBatches(0), 1)
	b := f.collector.BaseBatches(0)[0]
	assert.True(t, b.LitBase)
	assert.Equal(t, material.PassLitBase, b.Pass.Name())
	assert.Empty(t, f.collector.LightBatches(0))
}

func TestCollectorReusesPipelineStatesAcrossFrames(t *testing.T) {
	f := newCollectorFixture(newBatchedGeometry(mgl32.Vec3{0, 0, 20}, nil), newShadowedSpot())
	f.run(t)
	created := f.callback.created
	require.Positive(t, created)

	f.run(t)
	assert.Equal(t, created, f.callback.created)

	f.collector.InvalidatePipelineStates()
	f.run(t)
	assert.Equal(t, 2*created, f.callback.created)
}

func TestCollectorSortsBaseBatchesByPipelineStateThenMaterial(t *testing.T) {
	matA := material.NewMaterial(material.WithName("a"))
	matB := material.NewMaterial(material.WithName("b"))
	var drawables []scene.Drawable
	for i := 0; i < 6; i++ {
		mat := matA
		if i%2 == 0 {
			mat = matB
		}
		drawables = append(drawables, newBatchedGeometry(mgl32.Vec3{float32(i), 0, 20}, mat))
	}
	f := newCollectorFixture(drawables...)
	f.run(t)

	sorted := f.collector.SortedBaseBatches(0)
	require.Len(t, sorted, 6)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.PipelineState.ID() == cur.PipelineState.ID() {
			assert.LessOrEqual(t, prev.Material.ID(), cur.Material.ID())
		} else {
			assert.Less(t, prev.PipelineState.ID(), cur.PipelineState.ID())
		}
	}
}

func TestCollectorBeginFrameValidates(t *testing.T) {
	f := newCollectorFixture()
	frame := scene.FrameInfo{Camera: f.camera, Octree: f.octree}

	assert.Error(t, f.collector.BeginFrame(scene.FrameInfo{}, f.callback, nil))
	assert.Error(t, f.collector.BeginFrame(frame, nil, nil))
	assert.Error(t, f.collector.BeginFrame(frame, f.callback, []ScenePassDescription{{Type: ScenePassForwardLitBase, LitBasePassName: "litbase"}}))
	assert.NoError(t, f.collector.BeginFrame(frame, f.callback, DefaultScenePasses()))
}

func TestSetMaxPixelLightsClamps(t *testing.T) {
	c := NewSceneBatchCollector(workqueue.NewWorkQueue(1), WithMaxPixelLights(10))
	assert.Equal(t, MaxPixelLights, c.MaxPixelLights())
	c.SetMaxPixelLights(-1)
	assert.Zero(t, c.MaxPixelLights())
	assert.Panics(t, func() { NewSceneBatchCollector(nil) })
}

func TestFindTechniqueHonoursQualityAndLod(t *testing.T) {
	high := material.NewUnlitTechnique(false)
	low := material.NewLitSolidTechnique(false)
	far := material.NewUnlitTechnique(true)
	mat := material.NewMaterial(
		material.WithTechnique(high, 3, 0),
		material.WithTechnique(low, 0, 0),
		material.WithTechnique(far, 0, 0),
	)
	d := scene.NewDrawableBase(scene.DrawableGeometry)

	c := NewSceneBatchCollector(workqueue.NewWorkQueue(1))
	assert.Same(t, low, c.findTechnique(d, mat))

	c = NewSceneBatchCollector(workqueue.NewWorkQueue(1), WithMaterialQuality(3))
	assert.Same(t, high, c.findTechnique(d, mat))

	lod := material.NewMaterial(
		material.WithTechnique(high, 0, 100),
		material.WithTechnique(far, 0, 200),
	)
	// Nothing matches a zero LOD distance, so the last entry is the fallback.
	assert.Same(t, far, c.findTechnique(d, lod))
}
