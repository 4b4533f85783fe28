package camera

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a function that configures a Camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's world-space position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(p mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = p
	}
}

// WithRotation sets the camera's world-space orientation.
//
// Parameters:
//   - q: the rotation
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's rotation
func WithRotation(q mgl32.Quat) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotation = q.Normalize()
	}
}

// WithLookAt orients the camera towards target. Apply it after WithPosition.
//
// Parameters:
//   - target: the world-space point to face
//   - up: the world up vector
//
// Returns:
//   - CameraBuilderOption: a function that orients the camera
func WithLookAt(target, up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotation = common.LookRotation(target.Sub(c.position), up)
	}
}

// WithFov sets the camera's vertical field of view in degrees.
//
// Parameters:
//   - fov: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClip sets the near and far clip distances.
//
// Parameters:
//   - near: near clip distance
//   - far: far clip distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip range
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithOrthographic switches the camera to an orthographic projection of the given
// vertical size.
//
// Parameters:
//   - size: vertical extent of the view volume
//
// Returns:
//   - CameraBuilderOption: a function that enables orthographic projection
func WithOrthographic(size float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orthographic = true
		c.orthoSize = size
	}
}

// WithViewMask sets the mask matched against drawable view masks.
//
// Parameters:
//   - mask: the view mask
//
// Returns:
//   - CameraBuilderOption: a function that sets the view mask
func WithViewMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewMask = mask
	}
}

func WithFlipVertical(flip bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.flipVertical = flip
	}
}

func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = zoom
	}
}
