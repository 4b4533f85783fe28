package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewMatrixPutsForwardOnPositiveZ(t *testing.T) {
	c := NewCamera(
		WithPosition(mgl32.Vec3{0, 0, -10}),
		WithLookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
	)
	p := common.TransformPoint(c.View(), mgl32.Vec3{0, 0, 5})
	assert.InDelta(t, 15, p[2], 1e-4)
	assert.InDelta(t, 0, p[0], 1e-4)
}

func TestFrustumFollowsCamera(t *testing.T) {
	c := NewCamera(
		WithPosition(mgl32.Vec3{100, 0, 0}),
		WithLookAt(mgl32.Vec3{200, 0, 0}, mgl32.Vec3{0, 1, 0}),
		WithClip(1, 50),
	)
	f := c.Frustum()
	assert.Equal(t, common.Inside, f.IsInsideSphere(common.Sphere{Center: mgl32.Vec3{120, 0, 0}, Radius: 1}))
	assert.Equal(t, common.Outside, f.IsInsideSphere(common.Sphere{Center: mgl32.Vec3{80, 0, 0}, Radius: 1}))
	assert.Equal(t, common.Outside, f.IsInsideSphere(common.Sphere{Center: mgl32.Vec3{170, 0, 0}, Radius: 1}))
}

func TestSplitFrustumIsClampedToClipRange(t *testing.T) {
	c := NewCamera(WithClip(1, 50))
	split := c.SplitFrustum(0, 1000)
	assert.InDelta(t, 1, split.Vertices[0][2], 1e-5)
	assert.InDelta(t, 50, split.Vertices[4][2], 1e-5)
}

func TestDistancePerspectiveAndOrtho(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, 5, c.Distance(mgl32.Vec3{3, 0, 4}), 1e-5)

	c.SetOrthographic(true)
	assert.InDelta(t, 4, c.Distance(mgl32.Vec3{3, 0, 4}), 1e-5)
}

func TestLodDistanceScalesWithZoom(t *testing.T) {
	c := NewCamera(WithZoom(2))
	assert.Equal(t, float32(2), c.Zoom())
	assert.InDelta(t, 5, c.LodDistance(20, 2, 1), 1e-5)

	c.SetZoom(0)
	assert.Greater(t, c.Zoom(), float32(0))
}

func TestReverseCulling(t *testing.T) {
	c := NewCamera()
	assert.False(t, c.ReverseCulling())
	c.SetFlipVertical(true)
	assert.True(t, c.ReverseCulling())
	c.SetReflection(true, common.Plane{Normal: mgl32.Vec3{0, 1, 0}})
	assert.False(t, c.ReverseCulling())
}

func TestGPUProjectionRemapsDepthForOpenGL(t *testing.T) {
	c := NewCamera(WithClip(1, 100))
	near := c.GPUProjection(true).Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	far := c.GPUProjection(true).Mul4x1(mgl32.Vec4{0, 0, 100, 1})
	assert.InDelta(t, -1, near[2]/near[3], 1e-4)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)

	d3d := c.GPUProjection(false).Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.InDelta(t, 0, d3d[2]/d3d[3], 1e-4)
}

func TestFrustumSizeFlipsWithVerticalFlip(t *testing.T) {
	c := NewCamera(WithFov(90), WithClip(1, 10))
	near, far := c.FrustumSize()
	assert.InDelta(t, 1, near[1], 1e-5)
	assert.InDelta(t, 10, far[1], 1e-4)

	c.SetFlipVertical(true)
	_, far = c.FrustumSize()
	assert.InDelta(t, -10, far[1], 1e-4)
}
