package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)

	assert.Equal(t, LightTypePoint, l.Type())
	assert.Equal(t, "point", l.Type().String())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, l.EffectiveColor())
	assert.Equal(t, float32(DefaultRange), l.Range())
	assert.False(t, l.CastShadows())
	assert.Equal(t, ImportanceDefault, l.Importance())
	assert.Equal(t, scene.DrawableLight, l.Flags())
	assert.Equal(t, 1, l.NumShadowSplits())
	assert.Equal(t, l.LightMask(), l.EffectiveLightMask())

	masked := NewLight(LightTypeSpot, WithLightMask(0x4))
	assert.Equal(t, uint32(0x4), masked.EffectiveLightMask())
}

func TestNegativeBrightnessKeepsSpecularPositive(t *testing.T) {
	l := NewLight(LightTypePoint, WithBrightness(-2), WithSpecularIntensity(0.5))

	assert.Equal(t, mgl32.Vec3{-2, -2, -2}, l.EffectiveColor())
	assert.InDelta(t, 1.0, l.EffectiveSpecularIntensity(), 1e-6)
}

func TestPointLightBoundsFollowRange(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(1, 2, 3), WithRange(5))

	box := l.WorldBoundingBox()
	assert.Equal(t, mgl32.Vec3{-4, -3, -2}, box.Min)
	assert.Equal(t, mgl32.Vec3{6, 7, 8}, box.Max)

	l.SetRange(1)
	assert.Equal(t, mgl32.Vec3{0, 1, 2}, l.WorldBoundingBox().Min)
}

func TestDirectionalLightCoversEverything(t *testing.T) {
	l := NewLight(LightTypeDirectional)

	box := l.WorldBoundingBox()
	assert.Equal(t, float32(-common.LargeValue), box.Min[0])
	assert.Equal(t, float32(common.LargeValue), box.Max[2])
}

func TestSpotLightFrustumPointsAlongDirection(t *testing.T) {
	l := NewLight(LightTypeSpot, WithDirection(0, -1, 0), WithRange(10), WithSpotCone(60, 1))

	assert.InDelta(t, -1.0, l.Direction()[1], 1e-5)
	f := l.Frustum()
	assert.Equal(t, common.Inside, f.IsInsideSphere(common.Sphere{Center: mgl32.Vec3{0, -5, 0}, Radius: 0.1}))
	assert.Equal(t, common.Outside, f.IsInsideSphere(common.Sphere{Center: mgl32.Vec3{0, 5, 0}, Radius: 0.1}))
}

func TestLightDistanceUsesPosition(t *testing.T) {
	l := NewLight(LightTypeSpot, WithPosition(0, 0, 10), WithDirection(0, 0, 1))

	l.UpdateBatches(scene.FrameInfo{Camera: camera.NewCamera()})
	assert.InDelta(t, 10.0, l.Distance(), 1e-4)

	dir := NewLight(LightTypeDirectional)
	dir.UpdateBatches(scene.FrameInfo{Camera: camera.NewCamera()})
	assert.Zero(t, dir.Distance())
}

func TestSpotCutoff(t *testing.T) {
	assert.InDelta(t, 0.70710678, spotCutoff(90), 1e-5)
	assert.InDelta(t, 1.0, spotCutoff(0), 1e-6)
}

func TestCascadeParametersNumSplits(t *testing.T) {
	tests := []struct {
		name   string
		splits [MaxCascadeSplits]float32
		want   int
		rng    float32
	}{
		{name: "two increasing", splits: [MaxCascadeSplits]float32{10, 20}, want: 2, rng: 20},
		{name: "decreasing stops", splits: [MaxCascadeSplits]float32{10, 5, 30}, want: 1, rng: 10},
		{name: "all four", splits: [MaxCascadeSplits]float32{5, 10, 20, 40}, want: 4, rng: 40},
		{name: "empty", want: 1, rng: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CascadeParameters{Splits: tt.splits}
			assert.Equal(t, tt.want, c.NumSplits())
			assert.Equal(t, tt.rng, c.ShadowRange())
		})
	}
}

func TestShadowMapSplit(t *testing.T) {
	tex := graphics.NewRenderTexture("shadow", 2048, 2048, graphics.FormatDepth32F)
	m := ShadowMap{Texture: tex, Region: common.NewIntRect(1024, 0, 1024, 1024)}

	s := m.Split(3, splitsGridSize(4))
	require.True(t, s.IsValid())
	assert.Equal(t, common.NewIntRect(1536, 512, 512, 512), s.Region)

	s = m.Split(4, splitsGridSize(6))
	assert.Equal(t, common.NewIntRect(1024+341, 512, 341, 512), s.Region)

	assert.False(t, ShadowMap{}.Split(0, splitsGridSize(1)).IsValid())
}

func TestSplitsGridSize(t *testing.T) {
	assert.Equal(t, common.IntVector2{X: 1, Y: 1}, splitsGridSize(1))
	assert.Equal(t, common.IntVector2{X: 2, Y: 1}, splitsGridSize(2))
	assert.Equal(t, common.IntVector2{X: 2, Y: 2}, splitsGridSize(3))
	assert.Equal(t, common.IntVector2{X: 3, Y: 2}, splitsGridSize(6))
}
