package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: n·p + d = 0.
// Frustum planes are oriented so that the positive half-space is inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// PlaneFromPoints builds the plane through three points with counter-clockwise winding.
func PlaneFromPoints(v0, v1, v2 mgl32.Vec3) Plane {
	normal := v1.Sub(v0).Cross(v2.Sub(v0))
	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	}
	return Plane{Normal: normal, D: -normal.Dot(v0)}
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents the six planes and eight corners of a view volume.
// Vertices 0-3 are the near plane (right-top, right-bottom, left-bottom,
// left-top), 4-7 the far plane in the same order.
type Frustum struct {
	Planes   [6]Plane // Near, Left, Right, Top, Bottom, Far
	Vertices [8]mgl32.Vec3
}

// FrustumPlane indices for clarity
const (
	FrustumNear   = 0
	FrustumLeft   = 1
	FrustumRight  = 2
	FrustumTop    = 3
	FrustumBottom = 4
	FrustumFar    = 5
)

// DefinePerspective sets the frustum of a perspective camera.
//
// Parameters:
//   - fov: vertical field of view in degrees
//   - aspect: width/height ratio
//   - zoom: zoom factor
//   - near: near clip distance
//   - far: far clip distance
//   - transform: camera world transform
func (f *Frustum) DefinePerspective(fov, aspect, zoom, near, far float32, transform mgl32.Mat4) {
	near = max(near, 0)
	far = max(far, near)
	halfViewSize := float32(math.Tan(float64(mgl32.DegToRad(fov))*0.5)) / zoom

	nearY := near * halfViewSize
	farY := far * halfViewSize
	f.DefineCorners(
		mgl32.Vec3{nearY * aspect, nearY, near},
		mgl32.Vec3{farY * aspect, farY, far},
		transform,
	)
}

// DefineOrtho sets the frustum of an orthographic camera.
//
// Parameters:
//   - orthoSize: full vertical extent of the view volume
//   - aspect: width/height ratio
//   - zoom: zoom factor
//   - near: near clip distance
//   - far: far clip distance
//   - transform: camera world transform
func (f *Frustum) DefineOrtho(orthoSize, aspect, zoom, near, far float32, transform mgl32.Mat4) {
	near = max(near, 0)
	far = max(far, near)
	halfViewSize := orthoSize * 0.5 / zoom
	f.DefineCorners(
		mgl32.Vec3{halfViewSize * aspect, halfViewSize, near},
		mgl32.Vec3{halfViewSize * aspect, halfViewSize, far},
		transform,
	)
}

// DefineCorners sets the frustum from the right-top corners of its near and far planes.
func (f *Frustum) DefineCorners(nearCorner, farCorner mgl32.Vec3, transform mgl32.Mat4) {
	f.Vertices[0] = TransformPoint(transform, nearCorner)
	f.Vertices[1] = TransformPoint(transform, mgl32.Vec3{nearCorner[0], -nearCorner[1], nearCorner[2]})
	f.Vertices[2] = TransformPoint(transform, mgl32.Vec3{-nearCorner[0], -nearCorner[1], nearCorner[2]})
	f.Vertices[3] = TransformPoint(transform, mgl32.Vec3{-nearCorner[0], nearCorner[1], nearCorner[2]})
	f.Vertices[4] = TransformPoint(transform, farCorner)
	f.Vertices[5] = TransformPoint(transform, mgl32.Vec3{farCorner[0], -farCorner[1], farCorner[2]})
	f.Vertices[6] = TransformPoint(transform, mgl32.Vec3{-farCorner[0], -farCorner[1], farCorner[2]})
	f.Vertices[7] = TransformPoint(transform, mgl32.Vec3{-farCorner[0], farCorner[1], farCorner[2]})
	f.UpdatePlanes()
}

// DefineBox sets the frustum to an oriented box given in local space.
func (f *Frustum) DefineBox(box BoundingBox, transform mgl32.Mat4) {
	f.Vertices[0] = TransformPoint(transform, mgl32.Vec3{box.Max[0], box.Max[1], box.Min[2]})
	f.Vertices[1] = TransformPoint(transform, mgl32.Vec3{box.Max[0], box.Min[1], box.Min[2]})
	f.Vertices[2] = TransformPoint(transform, mgl32.Vec3{box.Min[0], box.Min[1], box.Min[2]})
	f.Vertices[3] = TransformPoint(transform, mgl32.Vec3{box.Min[0], box.Max[1], box.Min[2]})
	f.Vertices[4] = TransformPoint(transform, mgl32.Vec3{box.Max[0], box.Max[1], box.Max[2]})
	f.Vertices[5] = TransformPoint(transform, mgl32.Vec3{box.Max[0], box.Min[1], box.Max[2]})
	f.Vertices[6] = TransformPoint(transform, mgl32.Vec3{box.Min[0], box.Min[1], box.Max[2]})
	f.Vertices[7] = TransformPoint(transform, mgl32.Vec3{box.Min[0], box.Max[1], box.Max[2]})
	f.UpdatePlanes()
}

// UpdatePlanes recomputes the planes from the vertices. Planes built from a mirrored
// transform come out inverted and are flipped back.
func (f *Frustum) UpdatePlanes() {
	v := &f.Vertices
	f.Planes[FrustumNear] = PlaneFromPoints(v[2], v[1], v[0])
	f.Planes[FrustumLeft] = PlaneFromPoints(v[3], v[7], v[6])
	f.Planes[FrustumRight] = PlaneFromPoints(v[1], v[5], v[4])
	f.Planes[FrustumTop] = PlaneFromPoints(v[0], v[4], v[7])
	f.Planes[FrustumBottom] = PlaneFromPoints(v[6], v[5], v[1])
	f.Planes[FrustumFar] = PlaneFromPoints(v[5], v[6], v[7])

	if f.Planes[FrustumNear].Distance(v[5]) < 0 {
		for i := range f.Planes {
			f.Planes[i].Normal = f.Planes[i].Normal.Mul(-1)
			f.Planes[i].D = -f.Planes[i].D
		}
	}
}

// Transformed returns the frustum moved by transform m.
func (f Frustum) Transformed(m mgl32.Mat4) Frustum {
	var out Frustum
	for i, v := range f.Vertices {
		out.Vertices[i] = TransformPoint(m, v)
	}
	out.UpdatePlanes()
	return out
}

// BoundingBox returns the axis-aligned box of the frustum corners.
func (f Frustum) BoundingBox() BoundingBox {
	return BoundingBoxFromPoints(f.Vertices[:]...)
}

// IsInsideBox tests an axis-aligned box against the frustum.
func (f Frustum) IsInsideBox(box BoundingBox) Intersection {
	if !box.Defined {
		return Outside
	}
	center := box.Center()
	edge := box.HalfSize()
	allInside := true
	for _, p := range f.Planes {
		dist := p.Normal.Dot(center) + p.D
		absDist := AbsVec3(p.Normal).Dot(edge)
		if dist < -absDist {
			return Outside
		}
		if dist < absDist {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsInsideSphere tests a sphere against the frustum.
func (f Frustum) IsInsideSphere(s Sphere) Intersection {
	allInside := true
	for _, p := range f.Planes {
		dist := p.Distance(s.Center)
		if dist < -s.Radius {
			return Outside
		}
		if dist < s.Radius {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix
// whose clip-space depth range is [0, 1]. Uses the Gribb/Hartmann method. Only the
// planes are filled in; the vertices are left zero.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	set := func(i int, v mgl32.Vec4) {
		n := v.Vec3()
		l := n.Len()
		if l > 0 {
			n = n.Mul(1 / l)
			f.Planes[i] = Plane{Normal: n, D: v[3] / l}
			return
		}
		f.Planes[i] = Plane{Normal: n, D: v[3]}
	}

	set(FrustumLeft, r3.Add(r0))
	set(FrustumRight, r3.Sub(r0))
	set(FrustumBottom, r3.Add(r1))
	set(FrustumTop, r3.Sub(r1))
	set(FrustumNear, r2)
	set(FrustumFar, r3.Sub(r2))
	return f
}
