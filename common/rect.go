package common

import "math"

// IntVector2 is an integer 2D size or position.
type IntVector2 struct {
	X, Y int
}

// Len returns the Euclidean length as a float, used to order shadow map requests.
func (v IntVector2) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// IntRect is an integer rectangle with exclusive Right and Bottom edges.
type IntRect struct {
	Left, Top, Right, Bottom int
}

// NewIntRect builds a rectangle from a position and a size.
func NewIntRect(x, y, width, height int) IntRect {
	return IntRect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r IntRect) Width() int {
	return r.Right - r.Left
}

func (r IntRect) Height() int {
	return r.Bottom - r.Top
}

func (r IntRect) Size() IntVector2 {
	return IntVector2{X: r.Width(), Y: r.Height()}
}

// IsZero reports whether every edge is zero.
func (r IntRect) IsZero() bool {
	return r == IntRect{}
}

// Overlaps reports whether two rectangles share any area.
func (r IntRect) Overlaps(other IntRect) bool {
	return r.Left < other.Right && other.Left < r.Right && r.Top < other.Bottom && other.Top < r.Bottom
}
