package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// LargeValue marks "infinite" extents such as skybox bounds and unset distances.
	LargeValue float32 = 100000000.0

	// Epsilon is the default tolerance for float comparisons.
	Epsilon float32 = 0.000001

	// LargeEpsilon is a coarser tolerance used for clamping ratios and distances.
	LargeEpsilon float32 = 0.00005
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// AbsVec3 returns the component-wise absolute value of v.
func AbsVec3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{mgl32.Abs(v[0]), mgl32.Abs(v[1]), mgl32.Abs(v[2])}
}

// MinVec3 returns the component-wise minimum of a and b.
func MinVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// MaxVec3 returns the component-wise maximum of a and b.
func MaxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// TransformPoint applies the affine transform m to point p.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformVector applies the rotation/scale part of m to direction v.
func TransformVector(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// Translation returns the translation column of an affine transform.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// PerspectiveLH builds a left-handed perspective projection mapping depth to [0, 1]
// with the camera looking along +Z.
//
// Parameters:
//   - fovY: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width/height)
//   - zoom: zoom factor (1 = none)
//   - near: near clip distance
//   - far: far clip distance
//   - offset: projection offset in normalized units
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveLH(fovY, aspect, zoom, near, far float32, offset mgl32.Vec2) mgl32.Mat4 {
	h := (1.0 / float32(math.Tan(float64(mgl32.DegToRad(fovY))*0.5))) * zoom
	w := h / aspect
	q := far / (far - near)
	r := -q * near

	var m mgl32.Mat4
	m.Set(0, 0, w)
	m.Set(0, 2, offset[0]*2)
	m.Set(1, 1, h)
	m.Set(1, 2, offset[1]*2)
	m.Set(2, 2, q)
	m.Set(2, 3, r)
	m.Set(3, 2, 1)
	return m
}

// OrthoLH builds a left-handed orthographic projection mapping depth to [0, 1].
//
// Parameters:
//   - orthoSize: full vertical extent of the view volume
//   - aspect: viewport aspect ratio (width/height)
//   - zoom: zoom factor (1 = none)
//   - far: far clip distance, the near plane is at zero
//   - offset: projection offset in normalized units
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func OrthoLH(orthoSize, aspect, zoom, far float32, offset mgl32.Vec2) mgl32.Mat4 {
	h := (1.0 / (orthoSize * 0.5)) * zoom
	w := h / aspect

	var m mgl32.Mat4
	m.Set(0, 0, w)
	m.Set(0, 3, offset[0]*2)
	m.Set(1, 1, h)
	m.Set(1, 3, offset[1]*2)
	m.Set(2, 2, 1/far)
	m.Set(3, 3, 1)
	return m
}

// TransformFromTRS composes translation, rotation and scale into one affine transform.
func TransformFromTRS(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// LookRotation returns the rotation that turns +Z towards direction and +Y towards up
// as far as possible. A zero direction yields the identity.
func LookRotation(direction, up mgl32.Vec3) mgl32.Quat {
	if direction.Len() < Epsilon {
		return mgl32.QuatIdent()
	}
	forward := direction.Normalize()
	right := up.Cross(forward)
	if right.Len() < Epsilon {
		// direction is parallel to up, pick any perpendicular axis
		right = mgl32.Vec3{1, 0, 0}.Cross(forward)
		if right.Len() < Epsilon {
			right = mgl32.Vec3{0, 0, 1}.Cross(forward)
		}
	}
	right = right.Normalize()
	newUp := forward.Cross(right)
	basis := mgl32.Mat3{
		right[0], right[1], right[2],
		newUp[0], newUp[1], newUp[2],
		forward[0], forward[1], forward[2],
	}
	return mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}

// DecomposeTRS splits an affine transform without shear into translation, XYZ euler
// angles in degrees and scale. The angles reproduce the rotation through
// mgl32.AnglesToQuat(x, y, z, mgl32.XYZ).
//
// Parameters:
//   - m: the transform
//
// Returns:
//   - mgl32.Vec3: the translation
//   - mgl32.Vec3: the euler angles in degrees
//   - mgl32.Vec3: the scale
func DecomposeTRS(m mgl32.Mat4) (position, euler, scale mgl32.Vec3) {
	position = Translation(m)
	var cols [3]mgl32.Vec3
	for i := range cols {
		cols[i] = m.Col(i).Vec3()
		scale[i] = cols[i].Len()
		if scale[i] > Epsilon {
			cols[i] = cols[i].Mul(1 / scale[i])
		}
	}
	// a mirrored basis keeps a positive determinant by negating one axis
	if cols[0].Cross(cols[1]).Dot(cols[2]) < 0 {
		scale[0] = -scale[0]
		cols[0] = cols[0].Mul(-1)
	}
	r := mgl32.Mat3FromCols(cols[0], cols[1], cols[2])

	sy := mgl32.Clamp(r.At(0, 2), -1, 1)
	y := float32(math.Asin(float64(sy)))
	var x, z float32
	if math.Abs(float64(sy)) < 1-1e-6 {
		x = float32(math.Atan2(float64(-r.At(1, 2)), float64(r.At(2, 2))))
		z = float32(math.Atan2(float64(-r.At(0, 1)), float64(r.At(0, 0))))
	} else {
		x = float32(math.Atan2(float64(r.At(2, 1)), float64(r.At(1, 1))))
	}
	euler = mgl32.Vec3{mgl32.RadToDeg(x), mgl32.RadToDeg(y), mgl32.RadToDeg(z)}
	return position, euler, scale
}
