package common

// ZRange is a min/max range of view-space depth. The zero value is undefined.
type ZRange struct {
	Min, Max float32
	defined  bool
}

// NewZRange returns a defined range.
func NewZRange(min, max float32) ZRange {
	return ZRange{Min: min, Max: max, defined: true}
}

// IsValid reports whether the range is defined and not inverted.
func (r ZRange) IsValid() bool {
	return r.defined && r.Min <= r.Max
}

// Merge returns the union of r and other. Invalid operands are ignored.
func (r ZRange) Merge(other ZRange) ZRange {
	if !other.IsValid() {
		return r
	}
	if !r.IsValid() {
		return other
	}
	return NewZRange(min(r.Min, other.Min), max(r.Max, other.Max))
}

// Intersect returns the overlap of r and other, which may be invalid.
func (r ZRange) Intersect(other ZRange) ZRange {
	if !r.IsValid() || !other.IsValid() {
		return ZRange{}
	}
	return NewZRange(max(r.Min, other.Min), min(r.Max, other.Max))
}

// Intersects reports whether both ranges are valid and overlap.
func (r ZRange) Intersects(other ZRange) bool {
	return r.IsValid() && other.IsValid() && r.Min <= other.Max && other.Min <= r.Max
}
