package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxMergeFromUndefined(t *testing.T) {
	var b BoundingBox
	assert.False(t, b.Defined)

	b.MergePoint(mgl32.Vec3{1, 2, 3})
	b.MergePoint(mgl32.Vec3{-1, 5, 0})
	assert.True(t, b.Defined)
	assert.Equal(t, mgl32.Vec3{-1, 2, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 5, 3}, b.Max)

	b.Merge(BoundingBox{})
	assert.Equal(t, mgl32.Vec3{-1, 2, 0}, b.Min)
}

func TestBoundingBoxTransformed(t *testing.T) {
	b := NewBoundingBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	moved := b.Transformed(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1)))
	assert.InDelta(t, 8, moved.Min[0], 1e-5)
	assert.InDelta(t, 12, moved.Max[0], 1e-5)
	assert.InDelta(t, -1, moved.Min[1], 1e-5)
}

func TestBoundingBoxClip(t *testing.T) {
	a := NewBoundingBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	a.Clip(NewBoundingBox(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{6, 6, 6}))
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, a.Min)
	assert.Equal(t, mgl32.Vec3{4, 4, 4}, a.Max)

	a.Clip(NewBoundingBox(mgl32.Vec3{10, 10, 10}, mgl32.Vec3{11, 11, 11}))
	assert.False(t, a.Defined)
}

func TestFrustumPerspectiveContainment(t *testing.T) {
	var f Frustum
	f.DefinePerspective(90, 1, 1, 1, 100, mgl32.Ident4())

	inFront := NewBoundingBox(mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 11})
	behind := NewBoundingBox(mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9})
	straddling := NewBoundingBox(mgl32.Vec3{-1, -1, 99}, mgl32.Vec3{1, 1, 101})

	assert.Equal(t, Inside, f.IsInsideBox(inFront))
	assert.Equal(t, Outside, f.IsInsideBox(behind))
	assert.Equal(t, Intersects, f.IsInsideBox(straddling))
	assert.Equal(t, Inside, f.IsInsideSphere(Sphere{Center: mgl32.Vec3{0, 0, 50}, Radius: 1}))
	assert.Equal(t, Outside, f.IsInsideSphere(Sphere{Center: mgl32.Vec3{0, 0, -5}, Radius: 1}))
}

func TestFrustumMirroredTransformKeepsPlanesInward(t *testing.T) {
	var f Frustum
	f.DefineOrtho(10, 1, 1, 0, 10, mgl32.Scale3D(-1, 1, 1))
	assert.Equal(t, Inside, f.IsInsideSphere(Sphere{Center: mgl32.Vec3{0, 0, 5}, Radius: 1}))
}

func TestExtractFrustumFromMatrixMatchesDefinedFrustum(t *testing.T) {
	proj := PerspectiveLH(60, 1.5, 1, 0.5, 50, mgl32.Vec2{})
	extracted := ExtractFrustumFromMatrix(proj)

	var defined Frustum
	defined.DefinePerspective(60, 1.5, 1, 0.5, 50, mgl32.Ident4())

	points := []mgl32.Vec3{{0, 0, 10}, {0, 0, 60}, {100, 0, 10}, {0, 0, 0.1}}
	for _, p := range points {
		s := Sphere{Center: p, Radius: 0.01}
		assert.Equal(t, defined.IsInsideSphere(s), extracted.IsInsideSphere(s), "point %v", p)
	}
}

func TestZRangeMergeIgnoresInvalid(t *testing.T) {
	var r ZRange
	assert.False(t, r.IsValid())

	r = r.Merge(NewZRange(2, 5))
	r = r.Merge(ZRange{})
	r = r.Merge(NewZRange(5, 2))
	assert.Equal(t, NewZRange(2, 5), r)

	r = r.Merge(NewZRange(1, 3))
	assert.Equal(t, NewZRange(1, 5), r)

	assert.True(t, r.Intersects(NewZRange(4, 8)))
	assert.False(t, r.Intersects(NewZRange(6, 8)))
	assert.False(t, r.Intersect(NewZRange(6, 8)).IsValid())
}

func TestCombineHashIsOrderSensitive(t *testing.T) {
	var a, b uint32
	CombineHash(&a, 1)
	CombineHash(&a, 2)
	CombineHash(&b, 2)
	CombineHash(&b, 1)
	assert.NotEqual(t, a, b)
}

func TestColorToUint32(t *testing.T) {
	assert.Equal(t, uint32(0xff0000ff), ColorToUint32(mgl32.Vec4{1, 0, 0, 1}))
	assert.Equal(t, PackRGBA(255, 0, 0, 255), ColorToUint32(mgl32.Vec4{1, 0, 0, 1}))
	assert.True(t, IsBlack(ColorBlack))
	assert.False(t, IsBlack(ColorWhite))
}

func TestLookRotationFacesDirection(t *testing.T) {
	q := LookRotation(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	forward := q.Rotate(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, forward[0], 1e-5)
	assert.InDelta(t, 0, forward[2], 1e-5)
}

func TestClipFrustumByBox(t *testing.T) {
	var f Frustum
	f.DefineOrtho(10, 1, 1, 0, 10, mgl32.Ident4())

	// A box fully inside the frustum keeps its own corners.
	inner := NewBoundingBox(mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 4})
	clipped := BoundingBoxFromPoints(ClipFrustumByBox(f, inner)...)
	assert.InDelta(t, -1, clipped.Min[0], 1e-4)
	assert.InDelta(t, 4, clipped.Max[2], 1e-4)

	// A box straddling the far plane is cut at z = 10.
	straddling := NewBoundingBox(mgl32.Vec3{-1, -1, 8}, mgl32.Vec3{1, 1, 20})
	clipped = BoundingBoxFromPoints(ClipFrustumByBox(f, straddling)...)
	assert.InDelta(t, 8, clipped.Min[2], 1e-4)
	assert.InDelta(t, 10, clipped.Max[2], 1e-4)

	// Disjoint volumes produce nothing.
	far := NewBoundingBox(mgl32.Vec3{50, 50, 50}, mgl32.Vec3{60, 60, 60})
	assert.Empty(t, ClipFrustumByBox(f, far))
}

func TestBoundingBoxProjected(t *testing.T) {
	proj := PerspectiveLH(90, 1, 1, 1, 100, mgl32.Vec2{})
	box := NewBoundingBox(mgl32.Vec3{-1, -1, 10}, mgl32.Vec3{1, 1, 10})
	projected := box.Projected(proj)
	assert.InDelta(t, -0.1, projected.Min[0], 1e-4)
	assert.InDelta(t, 0.1, projected.Max[1], 1e-4)
}

func TestBoundingSphere(t *testing.T) {
	s := BoundingSphere([]mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}})
	assert.Equal(t, mgl32.Vec3{}, s.Center)
	assert.InDelta(t, 1, s.Radius, 1e-6)
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, s.BoundingBox().Min)
}

func TestDecomposeTRSRoundTrip(t *testing.T) {
	cases := []mgl32.Vec3{
		{0, 0, 0},
		{30, 0, 0},
		{10, -45, 60},
		{-120, 20, 170},
	}
	for _, angles := range cases {
		rot := mgl32.AnglesToQuat(mgl32.DegToRad(angles[0]), mgl32.DegToRad(angles[1]), mgl32.DegToRad(angles[2]), mgl32.XYZ)
		m := TransformFromTRS(mgl32.Vec3{1, 2, 3}, rot, mgl32.Vec3{2, 3, 4})

		pos, euler, scale := DecomposeTRS(m)
		assert.True(t, pos.ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-4))
		assert.True(t, scale.ApproxEqualThreshold(mgl32.Vec3{2, 3, 4}, 1e-4))

		back := mgl32.AnglesToQuat(mgl32.DegToRad(euler[0]), mgl32.DegToRad(euler[1]), mgl32.DegToRad(euler[2]), mgl32.XYZ)
		assert.True(t, back.Mat4().ApproxEqualThreshold(rot.Mat4(), 1e-4), "angles %v gave %v", angles, euler)
	}
}

func TestAlignUpAndCoalesce(t *testing.T) {
	assert.Equal(t, uint64(16), AlignUp(uint64(12), 16))
	assert.Equal(t, uint32(32), AlignUp(uint32(32), 16))
	assert.Equal(t, 7, AlignUp(7, 0))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Zero(t, Coalesce(0, 0))
}
