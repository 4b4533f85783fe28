package light

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDrawableData struct {
	mu      sync.Mutex
	visible map[int]bool
	zRanges map[int]common.ZRange
	updated map[int]bool
}

func newTestDrawableData() *testDrawableData {
	return &testDrawableData{
		visible: map[int]bool{},
		zRanges: map[int]common.ZRange{},
		updated: map[int]bool{},
	}
}

func (d *testDrawableData) IsVisibleGeometry(index int) bool { return d.visible[index] }
func (d *testDrawableData) ZRange(index int) common.ZRange   { return d.zRanges[index] }

func (d *testDrawableData) MarkUpdated(index int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.updated[index]
	d.updated[index] = true
	return was
}

func newTestGeometry(center mgl32.Vec3, halfSize float32) *scene.DrawableBase {
	d := scene.NewDrawableBase(scene.DrawableGeometry)
	h := mgl32.Vec3{halfSize, halfSize, halfSize}
	d.SetWorldBoundingBox(common.NewBoundingBox(center.Sub(h), center.Add(h)))
	d.SetCastShadows(true)
	return d
}

func TestDirectionalLitGeometriesFilterByLightMask(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithLightMask(0x1))
	lit := newTestGeometry(mgl32.Vec3{0, 0, 10}, 1)
	lit.SetLightMask(0x3)
	unlit := newTestGeometry(mgl32.Vec3{0, 0, 10}, 1)
	unlit.SetLightMask(0x2)

	sl := NewSceneLight(l)
	sl.BeginFrame(false)
	sl.UpdateLitGeometriesAndShadowCasters(&ProcessContext{
		Frame:             scene.FrameInfo{Camera: camera.NewCamera()},
		VisibleGeometries: []scene.Drawable{lit, unlit},
		Data:              newTestDrawableData(),
	})

	require.Len(t, sl.LitGeometries(), 1)
	assert.Same(t, lit, sl.LitGeometries()[0])
	assert.Zero(t, sl.NumSplits())
}

func TestFinalizeShadowMapDropsShadowWithoutCasters(t *testing.T) {
	l := NewLight(LightTypePoint, WithCastShadows(true), WithPosition(0, 0, 10))
	sl := NewSceneLight(l)
	sl.BeginFrame(true)
	withShadowHash := sl.PipelineStateHash()

	sl.UpdateLitGeometriesAndShadowCasters(&ProcessContext{
		Frame:       scene.FrameInfo{Camera: camera.NewCamera()},
		SceneZRange: common.NewZRange(5, 15),
		Data:        newTestDrawableData(),
	})
	assert.Equal(t, MaxLightSplits, sl.NumSplits())

	sl.FinalizeShadowMap()
	assert.False(t, sl.HasShadow())
	assert.Equal(t, common.IntVector2{}, sl.ShadowMapSize())
	assert.NotEqual(t, withShadowHash, sl.PipelineStateHash())
}

func TestDirectionalCascadeSplitsFollowCamera(t *testing.T) {
	cascade := DefaultCascadeParameters()
	cascade.Splits = [MaxCascadeSplits]float32{10, 30, 500}
	l := NewLight(LightTypeDirectional, WithDirection(0, -1, 1), WithShadowCascade(cascade))
	cam := camera.NewCamera(camera.WithClip(0.1, 100))

	sl := NewSceneLight(l)
	sl.BeginFrame(true)
	sl.UpdateLitGeometriesAndShadowCasters(&ProcessContext{
		Frame:       scene.FrameInfo{Camera: cam},
		SceneZRange: common.NewZRange(1, 50),
		Data:        newTestDrawableData(),
	})

	// The third split is clamped to the camera far clip.
	require.Equal(t, 3, sl.NumSplits())
	assert.Equal(t, common.NewZRange(0.1, 10), sl.Split(0).ZRange())
	assert.Equal(t, common.NewZRange(10, 30), sl.Split(1).ZRange())
	assert.Equal(t, common.NewZRange(30, 100), sl.Split(2).ZRange())
	for i := 0; i < sl.NumSplits(); i++ {
		assert.True(t, sl.Split(i).Camera().Orthographic())
	}
}

func TestSpotLightShadowPipeline(t *testing.T) {
	octree := scene.NewOctree(1000, 4)
	geometry := newTestGeometry(mgl32.Vec3{0, 0, 20}, 1)
	octree.Insert(geometry)

	l := NewLight(LightTypeSpot,
		WithPosition(0, 10, 20),
		WithDirection(0, -1, 0),
		WithRange(15),
		WithSpotCone(60, 1),
		WithCastShadows(true),
	)
	cam := camera.NewCamera(camera.WithClip(0.1, 100))
	data := newTestDrawableData()
	data.visible[geometry.DrawableIndex()] = true
	data.zRanges[geometry.DrawableIndex()] = common.NewZRange(19, 21)

	sl := NewSceneLight(l)
	sl.BeginFrame(true)
	sl.UpdateLitGeometriesAndShadowCasters(&ProcessContext{
		Frame:             scene.FrameInfo{Camera: cam, Octree: octree},
		SceneZRange:       common.NewZRange(19, 21),
		VisibleGeometries: []scene.Drawable{geometry},
		Data:              data,
	})

	require.Len(t, sl.LitGeometries(), 1)
	require.Equal(t, 1, sl.NumSplits())
	require.Len(t, sl.ShadowCasters(0), 1)
	// Primary processing did not mark the caster, so the light queues it for update.
	assert.Len(t, sl.CastersToUpdate(), 1)

	sl.FinalizeShadowMap()
	require.True(t, sl.HasShadow())
	assert.Equal(t, common.IntVector2{X: SplitSize, Y: SplitSize}, sl.ShadowMapSize())

	tex := graphics.NewRenderTexture("shadow", 1024, 1024, graphics.FormatDepth32F)
	sl.SetShadowMap(ShadowMap{Texture: tex, Region: common.NewIntRect(0, 0, 512, 512)})
	assert.Equal(t, common.NewIntRect(0, 0, 512, 512), sl.Split(0).ShadowMap().Region)

	sl.FinalizeShaderParameters(cam, 0.5)
	params := sl.ShaderParameters()
	assert.InDelta(t, spotCutoff(60), params.Cutoff, 1e-6)
	assert.InDelta(t, 1.0/15, params.InvRange, 1e-6)
	assert.Equal(t, mgl32.Vec2{1.0 / 1024, 1.0 / 1024}, params.ShadowMapInvSize)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 0}, params.ShadowIntensity)

	// The geometry center lands inside the shadow map viewport.
	coords := params.ShadowMatrices[0].Mul4x1(mgl32.Vec4{0, 0.5, 20, 1})
	u, v := coords[0]/coords[3], coords[1]/coords[3]
	assert.InDelta(t, 0.25, u, 0.05)
	assert.InDelta(t, 0.25, v, 0.05)
}

func TestSetShadowMapWithoutTextureRemovesShadow(t *testing.T) {
	l := NewLight(LightTypeSpot, WithCastShadows(true))
	sl := NewSceneLight(l)
	sl.BeginFrame(true)

	sl.SetShadowMap(ShadowMap{})
	assert.False(t, sl.HasShadow())
	assert.Zero(t, sl.NumSplits())
}

func TestLightFade(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(0, 0, 15), WithFade(10, 20))
	l.UpdateBatches(scene.FrameInfo{Camera: camera.NewCamera()})
	assert.InDelta(t, 0.5, lightFade(l), 1e-4)

	sl := NewSceneLight(l)
	sl.BeginFrame(false)
	sl.FinalizeShaderParameters(camera.NewCamera(), 0)
	assert.InDelta(t, 0.5, sl.ShaderParameters().Color[0], 1e-4)
	assert.Equal(t, float32(-2), sl.ShaderParameters().Cutoff)

	dir := NewLight(LightTypeDirectional, WithFade(10, 20))
	assert.Equal(t, float32(1), lightFade(dir))
}

func TestPipelineStateHashTracksLightSettings(t *testing.T) {
	a := NewSceneLight(NewLight(LightTypePoint))
	b := NewSceneLight(NewLight(LightTypePoint, WithSpecularIntensity(0)))
	c := NewSceneLight(NewLight(LightTypeSpot))
	same := NewSceneLight(NewLight(LightTypePoint))

	assert.NotEqual(t, a.PipelineStateHash(), b.PipelineStateHash())
	assert.NotEqual(t, a.PipelineStateHash(), c.PipelineStateHash())
	assert.Equal(t, a.PipelineStateHash(), same.PipelineStateHash())
}
