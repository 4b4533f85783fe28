package common

import "github.com/go-gl/mathgl/mgl32"

var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Corners returns the eight corners of the box in the same order as frustum vertices:
// min-Z face first.
func (b BoundingBox) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
	}
}

// Projected returns the box enclosing the corners of b projected by m with the
// perspective divide applied. Corners with w close to zero are clamped.
func (b BoundingBox) Projected(m mgl32.Mat4) BoundingBox {
	if !b.Defined {
		return b
	}
	var out BoundingBox
	for _, c := range b.Corners() {
		v := m.Mul4x1(c.Vec4(1))
		w := v[3]
		if mgl32.Abs(w) < Epsilon {
			w = Epsilon
		}
		out.MergePoint(v.Vec3().Mul(1 / w))
	}
	return out
}

func (b BoundingBox) containsPoint(p mgl32.Vec3, eps float32) bool {
	return p[0] >= b.Min[0]-eps && p[0] <= b.Max[0]+eps &&
		p[1] >= b.Min[1]-eps && p[1] <= b.Max[1]+eps &&
		p[2] >= b.Min[2]-eps && p[2] <= b.Max[2]+eps
}

func (f Frustum) containsPoint(p mgl32.Vec3, eps float32) bool {
	for _, plane := range f.Planes {
		if plane.Distance(p) < -eps {
			return false
		}
	}
	return true
}

// ClipFrustumByBox returns the vertices of the convex intersection of f and box. The
// result is empty when they do not overlap.
//
// Every vertex of the intersection of two convex solids is either a vertex of one
// solid inside the other or an edge of one crossing a face of the other, so the set
// is gathered from those three sources.
//
// Parameters:
//   - f: the frustum
//   - box: the clipping box
//
// Returns:
//   - []mgl32.Vec3: the intersection vertices, possibly with duplicates
func ClipFrustumByBox(f Frustum, box BoundingBox) []mgl32.Vec3 {
	if !box.Defined {
		return nil
	}
	eps := LargeEpsilon * max(1, box.Size().Len())
	var points []mgl32.Vec3

	for _, v := range f.Vertices {
		if box.containsPoint(v, eps) {
			points = append(points, v)
		}
	}
	corners := box.Corners()
	for _, c := range corners {
		if f.containsPoint(c, eps) {
			points = append(points, c)
		}
	}

	// Frustum edges against the six box faces.
	for _, e := range boxEdges {
		a, b := f.Vertices[e[0]], f.Vertices[e[1]]
		d := b.Sub(a)
		for axis := 0; axis < 3; axis++ {
			if mgl32.Abs(d[axis]) < Epsilon {
				continue
			}
			for _, bound := range [2]float32{box.Min[axis], box.Max[axis]} {
				t := (bound - a[axis]) / d[axis]
				if t < 0 || t > 1 {
					continue
				}
				if p := a.Add(d.Mul(t)); box.containsPoint(p, eps) {
					points = append(points, p)
				}
			}
		}
	}

	// Box edges against the six frustum planes.
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		for _, plane := range f.Planes {
			da, db := plane.Distance(a), plane.Distance(b)
			if (da < 0) == (db < 0) {
				continue
			}
			t := da / (da - db)
			if p := a.Add(b.Sub(a).Mul(t)); f.containsPoint(p, eps) {
				points = append(points, p)
			}
		}
	}
	return points
}

// BoundingSphere returns a sphere enclosing every point, centered on their bounding
// box.
func BoundingSphere(points []mgl32.Vec3) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}
	center := BoundingBoxFromPoints(points...).Center()
	var radius float32
	for _, p := range points {
		radius = max(radius, p.Sub(center).Len())
	}
	return Sphere{Center: center, Radius: radius}
}

// BoundingBox returns the axis-aligned box enclosing the sphere.
func (s Sphere) BoundingBox() BoundingBox {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return NewBoundingBox(s.Center.Sub(r), s.Center.Add(r))
}
