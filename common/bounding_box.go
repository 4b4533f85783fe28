package common

import "github.com/go-gl/mathgl/mgl32"

// Intersection is the result of a containment test against a volume.
type Intersection int

const (
	// Outside means the tested volume lies completely outside.
	Outside Intersection = iota
	// Intersects means the tested volume straddles the boundary.
	Intersects
	// Inside means the tested volume lies completely inside.
	Inside
)

// BoundingBox is an axis-aligned box. The zero value is undefined and absorbs the
// first merged point or box.
type BoundingBox struct {
	Min     mgl32.Vec3
	Max     mgl32.Vec3
	Defined bool
}

// NewBoundingBox returns a defined box spanning min to max.
func NewBoundingBox(min, max mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max, Defined: true}
}

// BoundingBoxFromPoints returns the smallest box containing every point.
func BoundingBoxFromPoints(points ...mgl32.Vec3) BoundingBox {
	var b BoundingBox
	for _, p := range points {
		b.MergePoint(p)
	}
	return b
}

// MergePoint grows the box to contain p.
func (b *BoundingBox) MergePoint(p mgl32.Vec3) {
	if !b.Defined {
		b.Min, b.Max, b.Defined = p, p, true
		return
	}
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// Merge grows the box to contain other. Undefined boxes are ignored.
func (b *BoundingBox) Merge(other BoundingBox) {
	if !other.Defined {
		return
	}
	if !b.Defined {
		*b = other
		return
	}
	b.Min = MinVec3(b.Min, other.Min)
	b.Max = MaxVec3(b.Max, other.Max)
}

// Clip shrinks the box to its intersection with other. If they do not overlap the
// result is undefined.
func (b *BoundingBox) Clip(other BoundingBox) {
	if !b.Defined || !other.Defined {
		*b = BoundingBox{}
		return
	}
	b.Min = MaxVec3(b.Min, other.Min)
	b.Max = MinVec3(b.Max, other.Max)
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2] {
		*b = BoundingBox{}
	}
}

func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Max.Add(b.Min).Mul(0.5)
}

func (b BoundingBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BoundingBox) HalfSize() mgl32.Vec3 {
	return b.Size().Mul(0.5)
}

// Transformed returns the axis-aligned box enclosing b after transform m.
func (b BoundingBox) Transformed(m mgl32.Mat4) BoundingBox {
	if !b.Defined {
		return b
	}
	center := TransformPoint(m, b.Center())
	edge := b.HalfSize()
	newEdge := mgl32.Vec3{
		mgl32.Abs(m.At(0, 0))*edge[0] + mgl32.Abs(m.At(0, 1))*edge[1] + mgl32.Abs(m.At(0, 2))*edge[2],
		mgl32.Abs(m.At(1, 0))*edge[0] + mgl32.Abs(m.At(1, 1))*edge[1] + mgl32.Abs(m.At(1, 2))*edge[2],
		mgl32.Abs(m.At(2, 0))*edge[0] + mgl32.Abs(m.At(2, 1))*edge[1] + mgl32.Abs(m.At(2, 2))*edge[2],
	}
	return NewBoundingBox(center.Sub(newEdge), center.Add(newEdge))
}

// IsInside tests whether other is inside, intersecting or outside b.
func (b BoundingBox) IsInside(other BoundingBox) Intersection {
	if !b.Defined || !other.Defined {
		return Outside
	}
	if other.Max[0] < b.Min[0] || other.Min[0] > b.Max[0] ||
		other.Max[1] < b.Min[1] || other.Min[1] > b.Max[1] ||
		other.Max[2] < b.Min[2] || other.Min[2] > b.Max[2] {
		return Outside
	}
	if other.Min[0] < b.Min[0] || other.Max[0] > b.Max[0] ||
		other.Min[1] < b.Min[1] || other.Max[1] > b.Max[1] ||
		other.Min[2] < b.Min[2] || other.Max[2] > b.Max[2] {
		return Intersects
	}
	return Inside
}

// IsInsideSphere tests a sphere against the box.
func (b BoundingBox) IsInsideSphere(s Sphere) Intersection {
	if !b.Defined {
		return Outside
	}
	var distSquared float32
	for i := 0; i < 3; i++ {
		if s.Center[i] < b.Min[i] {
			d := s.Center[i] - b.Min[i]
			distSquared += d * d
		} else if s.Center[i] > b.Max[i] {
			d := s.Center[i] - b.Max[i]
			distSquared += d * d
		}
	}
	if distSquared >= s.Radius*s.Radius {
		return Outside
	}
	if s.Center[0]-s.Radius < b.Min[0] || s.Center[0]+s.Radius > b.Max[0] ||
		s.Center[1]-s.Radius < b.Min[1] || s.Center[1]+s.Radius > b.Max[1] ||
		s.Center[2]-s.Radius < b.Min[2] || s.Center[2]+s.Radius > b.Max[2] {
		return Intersects
	}
	return Inside
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// IsInsideBox tests whether box b is inside, intersecting or outside the sphere.
func (s Sphere) IsInsideBox(b BoundingBox) Intersection {
	if !b.Defined {
		return Outside
	}
	radiusSquared := s.Radius * s.Radius
	var distSquared float32
	for i := 0; i < 3; i++ {
		if s.Center[i] < b.Min[i] {
			d := s.Center[i] - b.Min[i]
			distSquared += d * d
		} else if s.Center[i] > b.Max[i] {
			d := s.Center[i] - b.Max[i]
			distSquared += d * d
		}
	}
	if distSquared >= radiusSquared {
		return Outside
	}

	// Farthest corner decides full containment.
	var farSquared float32
	for i := 0; i < 3; i++ {
		d := max(mgl32.Abs(s.Center[i]-b.Min[i]), mgl32.Abs(s.Center[i]-b.Max[i]))
		farSquared += d * d
	}
	if farSquared >= radiusSquared {
		return Intersects
	}
	return Inside
}
