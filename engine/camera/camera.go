package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultNear is the default near clip distance.
	DefaultNear float32 = 0.1
	// DefaultFar is the default far clip distance.
	DefaultFar float32 = 1000
	// DefaultFov is the default vertical field of view in degrees.
	DefaultFov float32 = 45
	// DefaultOrthoSize is the default vertical extent of orthographic cameras.
	DefaultOrthoSize float32 = 20
)

type cameraImpl struct {
	mu *sync.RWMutex

	position mgl32.Vec3
	rotation mgl32.Quat

	fov              float32
	aspect           float32
	zoom             float32
	near             float32
	far              float32
	orthographic     bool
	orthoSize        float32
	projectionOffset mgl32.Vec2
	viewMask         uint32

	flipVertical    bool
	useReflection   bool
	reflectionPlane common.Plane
}

// Camera defines the interface for a scene camera.
//
// The camera uses a left-handed convention: it looks along its local +Z axis and
// view-space depth is positive in front of it. All getters are safe to call from
// worker goroutines while no setter runs concurrently.
type Camera interface {
	// Position returns the world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position
	Position() mgl32.Vec3

	// Rotation returns the world-space orientation.
	//
	// Returns:
	//   - mgl32.Quat: the camera rotation
	Rotation() mgl32.Quat

	// Direction returns the world-space forward vector.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized view direction
	Direction() mgl32.Vec3

	// WorldTransform returns the camera node transform without reflection.
	//
	// Returns:
	//   - mgl32.Mat4: rotation and translation of the camera
	WorldTransform() mgl32.Mat4

	// EffectiveWorldTransform returns the world transform with the reflection plane
	// applied when reflection is enabled.
	//
	// Returns:
	//   - mgl32.Mat4: the effective transform
	EffectiveWorldTransform() mgl32.Mat4

	// View returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the inverse of the effective world transform
	View() mgl32.Mat4

	// Projection returns the projection matrix with depth in [0, 1], including the
	// vertical flip when enabled.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// GPUProjection returns the projection matrix in the clip-space convention of the
	// backend. OpenGL-style backends map depth to [-1, 1].
	//
	// Parameters:
	//   - openGL: whether the backend uses OpenGL clip space
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix for shader upload
	GPUProjection(openGL bool) mgl32.Mat4

	// Frustum returns the world-space view frustum.
	//
	// Returns:
	//   - common.Frustum: the frustum
	Frustum() common.Frustum

	// SplitFrustum returns the world-space frustum clipped to [near, far] view depth.
	// Used for cascaded shadow splits.
	//
	// Parameters:
	//   - near: near distance, clamped to the camera near clip
	//   - far: far distance, clamped to the camera far clip
	//
	// Returns:
	//   - common.Frustum: the split frustum
	SplitFrustum(near, far float32) common.Frustum

	// ViewSpaceSplitFrustum is SplitFrustum expressed in the coordinate space given by
	// transform instead of world space.
	//
	// Parameters:
	//   - near: near distance
	//   - far: far distance
	//   - transform: transform applied to the view-space frustum
	//
	// Returns:
	//   - common.Frustum: the transformed split frustum
	ViewSpaceSplitFrustum(near, far float32, transform mgl32.Mat4) common.Frustum

	// FrustumSize returns the right-top corners of the near and far planes in view space.
	//
	// Returns:
	//   - near: near plane corner
	//   - far: far plane corner
	FrustumSize() (near, far mgl32.Vec3)

	// Distance returns the distance used for draw-distance and LOD decisions: the
	// Euclidean distance for perspective cameras and the view depth for orthographic ones.
	//
	// Parameters:
	//   - worldPos: the point to measure
	//
	// Returns:
	//   - float32: the distance
	Distance(worldPos mgl32.Vec3) float32

	// LodDistance converts a distance into the LOD distance used for geometry LOD and
	// technique selection, accounting for object scale, LOD bias and zoom.
	//
	// Parameters:
	//   - distance: distance from Distance
	//   - scale: largest world scale axis of the object
	//   - bias: per-object LOD bias
	//
	// Returns:
	//   - float32: the LOD distance
	LodDistance(distance, scale, bias float32) float32

	// ReverseCulling reports whether triangle winding is reversed, which is the case
	// when exactly one of vertical flip and reflection is active.
	//
	// Returns:
	//   - bool: true if cull modes must be swapped
	ReverseCulling() bool

	Fov() float32
	Aspect() float32
	Zoom() float32
	Near() float32
	Far() float32
	Orthographic() bool
	OrthoSize() float32
	ViewMask() uint32
	FlipVertical() bool
	UseReflection() bool

	SetPosition(p mgl32.Vec3)
	SetRotation(q mgl32.Quat)
	SetFov(fov float32)
	SetAspect(aspect float32)
	SetZoom(zoom float32)
	SetNearClip(near float32)
	SetFarClip(far float32)
	SetOrthographic(ortho bool)
	SetOrthoSize(size float32)
	SetViewMask(mask uint32)
	SetFlipVertical(flip bool)
	SetProjectionOffset(offset mgl32.Vec2)

	// SetOrthoSizeXY sets both orthographic extents, deriving the aspect ratio.
	//
	// Parameters:
	//   - width: horizontal extent
	//   - height: vertical extent
	SetOrthoSizeXY(width, height float32)

	// SetReflection enables or disables mirroring about plane.
	//
	// Parameters:
	//   - enabled: whether reflection is active
	//   - plane: world-space reflection plane
	SetReflection(enabled bool, plane common.Plane)

	// LookAt rotates the camera to face target.
	//
	// Parameters:
	//   - target: world-space point to look at
	//   - up: world up vector
	LookAt(target, up mgl32.Vec3)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera at the origin looking along +Z.
//
// Parameters:
//   - options: functional options for the camera
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.RWMutex{},
		rotation:  mgl32.QuatIdent(),
		fov:       DefaultFov,
		aspect:    1,
		zoom:      1,
		near:      DefaultNear,
		far:       DefaultFar,
		orthoSize: DefaultOrthoSize,
		viewMask:  ^uint32(0),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *cameraImpl) Rotation() mgl32.Quat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

func (c *cameraImpl) Direction() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation.Rotate(mgl32.Vec3{0, 0, 1})
}

func (c *cameraImpl) WorldTransform() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.worldTransform()
}

func (c *cameraImpl) EffectiveWorldTransform() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.effectiveWorldTransform()
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.effectiveWorldTransform().Inv()
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projection()
}

func (c *cameraImpl) GPUProjection(openGL bool) mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := c.projection()
	if !openGL {
		return p
	}
	// Remap depth from [0, 1] to [-1, 1]: z' = 2z - w.
	for col := 0; col < 4; col++ {
		p.Set(2, col, 2*p.At(2, col)-p.At(3, col))
	}
	return p
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.splitFrustum(c.near, c.far, c.effectiveWorldTransform())
}

func (c *cameraImpl) SplitFrustum(near, far float32) common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.splitFrustum(near, far, c.effectiveWorldTransform())
}

func (c *cameraImpl) ViewSpaceSplitFrustum(near, far float32, transform mgl32.Mat4) common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.splitFrustum(near, far, transform)
}

func (c *cameraImpl) FrustumSize() (mgl32.Vec3, mgl32.Vec3) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	near := mgl32.Vec3{0, 0, c.near}
	far := mgl32.Vec3{0, 0, c.far}
	if c.orthographic {
		halfViewSize := c.orthoSize * 0.5 / c.zoom
		near[1], far[1] = halfViewSize, halfViewSize
	} else {
		halfViewSize := float32(math.Tan(float64(mgl32.DegToRad(c.fov))*0.5)) / c.zoom
		near[1] = c.near * halfViewSize
		far[1] = c.far * halfViewSize
	}
	near[0] = near[1] * c.aspect
	far[0] = far[1] * c.aspect
	if c.flipVertical {
		near[1], far[1] = -near[1], -far[1]
	}
	return near, far
}

func (c *cameraImpl) Distance(worldPos mgl32.Vec3) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.orthographic {
		return worldPos.Sub(c.position).Len()
	}
	view := c.effectiveWorldTransform().Inv()
	return mgl32.Abs(common.TransformPoint(view, worldPos)[2])
}

func (c *cameraImpl) LodDistance(distance, scale, bias float32) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := max(bias*scale*c.zoom, common.Epsilon)
	if !c.orthographic {
		return distance / d
	}
	return c.orthoSize / d
}

func (c *cameraImpl) ReverseCulling() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flipVertical != c.useReflection
}

func (c *cameraImpl) Fov() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aspect
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

func (c *cameraImpl) Near() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.far
}

func (c *cameraImpl) Orthographic() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthographic
}

func (c *cameraImpl) OrthoSize() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthoSize
}

func (c *cameraImpl) ViewMask() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewMask
}

func (c *cameraImpl) FlipVertical() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flipVertical
}

func (c *cameraImpl) UseReflection() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.useReflection
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

func (c *cameraImpl) SetRotation(q mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = q.Normalize()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = mgl32.Clamp(fov, 0, 160)
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = max(aspect, common.Epsilon)
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = max(zoom, common.Epsilon)
}

func (c *cameraImpl) SetNearClip(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = max(near, common.Epsilon)
}

func (c *cameraImpl) SetFarClip(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = max(far, common.Epsilon)
}

func (c *cameraImpl) SetOrthographic(ortho bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthographic = ortho
}

func (c *cameraImpl) SetOrthoSize(size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = size
}

func (c *cameraImpl) SetOrthoSizeXY(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = height
	c.aspect = width / height
}

func (c *cameraImpl) SetViewMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMask = mask
}

func (c *cameraImpl) SetFlipVertical(flip bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flipVertical = flip
}

func (c *cameraImpl) SetProjectionOffset(offset mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectionOffset = offset
}

func (c *cameraImpl) SetReflection(enabled bool, plane common.Plane) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useReflection = enabled
	c.reflectionPlane = plane
}

func (c *cameraImpl) LookAt(target, up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = common.LookRotation(target.Sub(c.position), up)
}

func (c *cameraImpl) worldTransform() mgl32.Mat4 {
	return mgl32.Translate3D(c.position[0], c.position[1], c.position[2]).Mul4(c.rotation.Mat4())
}

func (c *cameraImpl) effectiveWorldTransform() mgl32.Mat4 {
	world := c.worldTransform()
	if !c.useReflection {
		return world
	}
	return reflectionMatrix(c.reflectionPlane).Mul4(world)
}

func (c *cameraImpl) projection() mgl32.Mat4 {
	var p mgl32.Mat4
	if c.orthographic {
		p = common.OrthoLH(c.orthoSize, c.aspect, c.zoom, c.far, c.projectionOffset)
	} else {
		p = common.PerspectiveLH(c.fov, c.aspect, c.zoom, c.near, c.far, c.projectionOffset)
	}
	if c.flipVertical {
		p = mgl32.Scale3D(1, -1, 1).Mul4(p)
	}
	return p
}

func (c *cameraImpl) splitFrustum(near, far float32, transform mgl32.Mat4) common.Frustum {
	near = max(near, c.near)
	far = min(far, c.far)
	if far < near {
		far = near
	}

	var f common.Frustum
	if c.orthographic {
		f.DefineOrtho(c.orthoSize, c.aspect, c.zoom, near, far, transform)
	} else {
		f.DefinePerspective(c.fov, c.aspect, c.zoom, near, far, transform)
	}
	return f
}

// reflectionMatrix returns the affine mirror transform about plane p.
func reflectionMatrix(p common.Plane) mgl32.Mat4 {
	n := p.Normal
	return mgl32.Mat4{
		-2*n[0]*n[0] + 1, -2*n[1]*n[0], -2*n[2]*n[0], 0,
		-2*n[0]*n[1], -2*n[1]*n[1] + 1, -2*n[2]*n[1], 0,
		-2*n[0]*n[2], -2*n[1]*n[2], -2*n[2]*n[2] + 1, 0,
		-2 * n[0] * p.D, -2 * n[1] * p.D, -2 * n[2] * p.D, 1,
	}
}
