package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with distance and is clipped by its frustum.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Importance controls whether a light may be demoted to vertex lighting and whether
// it may cast shadows.
type Importance uint8

const (
	// ImportanceDefault lights compete for pixel light slots by penalty.
	ImportanceDefault Importance = iota
	// ImportanceImportant lights are always pixel lights.
	ImportanceImportant
	// ImportanceNotImportant lights never cast shadows.
	ImportanceNotImportant
)

const (
	// DefaultRange is the range of new point and spot lights.
	DefaultRange float32 = 10
	// DefaultFov is the spot cone angle in degrees.
	DefaultFov float32 = 30
	// DefaultShadowNearFarRatio is the spot/point shadow camera near clip relative to range.
	DefaultShadowNearFarRatio float32 = 0.002
	// DefaultShadowMaxExtrusion caps how far directional shadow cameras back off.
	DefaultShadowMaxExtrusion float32 = 1000

	minNearClip float32 = 0.01
)

// Light is a scene drawable that emits light and may cast shadows. It is found by
// the view's frustum query through the DrawableLight flag.
//
// Lights use the same orientation convention as cameras: the light shines along its
// local +Z axis. Setters must not run while a frame is being rendered.
type Light interface {
	scene.Drawable

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	Position() mgl32.Vec3

	// SetPosition moves the light and refreshes its world bounds.
	//
	// Parameters:
	//   - p: world position
	SetPosition(p mgl32.Vec3)

	Rotation() mgl32.Quat
	SetRotation(q mgl32.Quat)

	// Direction returns the normalized direction the light shines along.
	Direction() mgl32.Vec3

	// SetDirection rotates the light to shine along dir.
	//
	// Parameters:
	//   - dir: direction, need not be normalized
	SetDirection(dir mgl32.Vec3)

	// WorldTransform returns the unscaled transform of the light.
	WorldTransform() mgl32.Mat4

	Color() mgl32.Vec3
	SetColor(c mgl32.Vec3)
	Brightness() float32
	SetBrightness(b float32)

	// EffectiveColor returns color multiplied by brightness.
	EffectiveColor() mgl32.Vec3

	// EffectiveLightMask returns the mask used to match lit geometry. Visibility and
	// light assignment must use it instead of LightMask.
	EffectiveLightMask() uint32

	SpecularIntensity() float32
	SetSpecularIntensity(s float32)

	// EffectiveSpecularIntensity returns specular intensity multiplied by the
	// absolute brightness.
	EffectiveSpecularIntensity() float32

	// IntensityDivisor returns the summed effective color used to normalize light
	// penalties. It is always positive.
	IntensityDivisor() float32

	Range() float32
	SetRange(r float32)
	Fov() float32
	SetFov(fov float32)
	AspectRatio() float32
	SetAspectRatio(aspect float32)
	Radius() float32
	Length() float32
	SetVolume(radius, length float32)

	// FadeDistance is the camera distance at which the light starts fading out; it
	// is fully faded at the draw distance.
	FadeDistance() float32
	SetFadeDistance(d float32)

	// Frustum returns the spot light volume in world space.
	//
	// Returns:
	//   - common.Frustum: the spot frustum
	Frustum() common.Frustum

	Importance() Importance
	SetImportance(i Importance)
	PerVertex() bool
	SetPerVertex(enabled bool)
	ShapeTexture() *graphics.Texture
	SetShapeTexture(t *graphics.Texture)

	ShadowIntensity() float32
	SetShadowIntensity(i float32)
	ShadowFadeDistance() float32
	SetShadowFadeDistance(d float32)
	ShadowBias() graphics.BiasParameters
	SetShadowBias(b graphics.BiasParameters)
	ShadowCascade() CascadeParameters
	SetShadowCascade(c CascadeParameters)
	ShadowFocus() FocusParameters
	SetShadowFocus(f FocusParameters)
	ShadowNearFarRatio() float32
	SetShadowNearFarRatio(r float32)
	ShadowMaxExtrusion() float32
	SetShadowMaxExtrusion(e float32)

	// NumShadowSplits returns how many cascade splits a directional light uses, 1 for
	// other light types.
	NumShadowSplits() int

	SetEnabled(enabled bool)
	SetCastShadows(enabled bool)
	SetDrawDistance(distance float32)
	SetShadowDistance(distance float32)
	SetLightMask(mask uint32)
	SetViewMask(mask uint32)
}

type lightImpl struct {
	*scene.DrawableBase

	mu *sync.RWMutex

	lightType  LightType
	position   mgl32.Vec3
	rotation   mgl32.Quat
	color      mgl32.Vec3
	brightness float32
	specular   float32
	lightRange float32
	fov        float32
	aspect     float32
	radius     float32
	length     float32
	fadeDist   float32
	importance Importance
	perVertex  bool
	shapeTex   *graphics.Texture
	frustum    common.Frustum
	shadowInt  float32
	shadowFade float32
	bias       graphics.BiasParameters
	cascade    CascadeParameters
	focus      FocusParameters
	nearFar    float32
	maxExtrude float32
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied. Lights start white, pointing along +Z, without
// shadows.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		DrawableBase: scene.NewDrawableBase(scene.DrawableLight),
		mu:           &sync.RWMutex{},
		lightType:    lightType,
		rotation:     mgl32.QuatIdent(),
		color:        mgl32.Vec3{1, 1, 1},
		brightness:   1,
		specular:     1,
		lightRange:   DefaultRange,
		fov:          DefaultFov,
		aspect:       1,
		bias:         DefaultBiasParameters(),
		cascade:      DefaultCascadeParameters(),
		focus:        DefaultFocusParameters(),
		nearFar:      DefaultShadowNearFarRatio,
		maxExtrude:   DefaultShadowMaxExtrusion,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.updateWorldBounds()
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.mu.Lock()
	l.position = p
	l.mu.Unlock()
	l.updateWorldBounds()
}

func (l *lightImpl) Rotation() mgl32.Quat {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rotation
}

func (l *lightImpl) SetRotation(q mgl32.Quat) {
	l.mu.Lock()
	l.rotation = q.Normalize()
	l.mu.Unlock()
	l.updateWorldBounds()
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rotation.Rotate(mgl32.Vec3{0, 0, 1})
}

func (l *lightImpl) SetDirection(dir mgl32.Vec3) {
	l.SetRotation(common.LookRotation(dir, mgl32.Vec3{0, 1, 0}))
}

func (l *lightImpl) WorldTransform() mgl32.Mat4 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.worldTransform()
}

func (l *lightImpl) worldTransform() mgl32.Mat4 {
	return mgl32.Translate3D(l.position[0], l.position[1], l.position[2]).Mul4(l.rotation.Mat4())
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) Brightness() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

func (l *lightImpl) SetBrightness(b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.brightness = b
}

func (l *lightImpl) EffectiveColor() mgl32.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color.Mul(l.brightness)
}

// EffectiveLightMask equals LightMask: lights have no baked mode that would mask them out.
func (l *lightImpl) EffectiveLightMask() uint32 {
	return l.LightMask()
}

func (l *lightImpl) SpecularIntensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.specular
}

func (l *lightImpl) SetSpecularIntensity(s float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specular = max(s, 0)
}

func (l *lightImpl) EffectiveSpecularIntensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.specular * mgl32.Abs(l.brightness)
}

func (l *lightImpl) IntensityDivisor() float32 {
	c := l.EffectiveColor()
	return max(c[0]+c[1]+c[2], 0) + common.Epsilon
}

func (l *lightImpl) Range() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lightRange
}

func (l *lightImpl) SetRange(r float32) {
	l.mu.Lock()
	l.lightRange = max(r, 0)
	l.mu.Unlock()
	l.updateWorldBounds()
}

func (l *lightImpl) Fov() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fov
}

func (l *lightImpl) SetFov(fov float32) {
	l.mu.Lock()
	l.fov = mgl32.Clamp(fov, 0, 180)
	l.mu.Unlock()
	l.updateWorldBounds()
}

func (l *lightImpl) AspectRatio() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.aspect
}

func (l *lightImpl) SetAspectRatio(aspect float32) {
	l.mu.Lock()
	l.aspect = max(aspect, common.Epsilon)
	l.mu.Unlock()
	l.updateWorldBounds()
}

func (l *lightImpl) Radius() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.radius
}

func (l *lightImpl) Length() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.length
}

func (l *lightImpl) SetVolume(radius, length float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.radius = max(radius, 0)
	l.length = max(length, 0)
}

func (l *lightImpl) FadeDistance() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fadeDist
}

func (l *lightImpl) SetFadeDistance(d float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fadeDist = max(d, 0)
}

func (l *lightImpl) Frustum() common.Frustum {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frustum
}

func (l *lightImpl) Importance() Importance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.importance
}

func (l *lightImpl) SetImportance(i Importance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.importance = i
}

func (l *lightImpl) PerVertex() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.perVertex
}

func (l *lightImpl) SetPerVertex(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perVertex = enabled
}

func (l *lightImpl) ShapeTexture() *graphics.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shapeTex
}

func (l *lightImpl) SetShapeTexture(t *graphics.Texture) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shapeTex = t
}

func (l *lightImpl) ShadowIntensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shadowInt
}

func (l *lightImpl) SetShadowIntensity(i float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shadowInt = mgl32.Clamp(i, 0, 1)
}

func (l *lightImpl) ShadowFadeDistance() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shadowFade
}

func (l *lightImpl) SetShadowFadeDistance(d float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shadowFade = max(d, 0)
}

func (l *lightImpl) ShadowBias() graphics.BiasParameters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bias
}

func (l *lightImpl) SetShadowBias(b graphics.BiasParameters) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bias = b
}

func (l *lightImpl) ShadowCascade() CascadeParameters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cascade
}

func (l *lightImpl) SetShadowCascade(c CascadeParameters) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cascade = c.validated()
}

func (l *lightImpl) ShadowFocus() FocusParameters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.focus
}

func (l *lightImpl) SetShadowFocus(f FocusParameters) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.focus = f.validated()
}

func (l *lightImpl) ShadowNearFarRatio() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nearFar
}

func (l *lightImpl) SetShadowNearFarRatio(r float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nearFar = mgl32.Clamp(r, 0, 0.5)
}

func (l *lightImpl) ShadowMaxExtrusion() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.maxExtrude
}

func (l *lightImpl) SetShadowMaxExtrusion(e float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxExtrude = max(e, 0)
}

func (l *lightImpl) NumShadowSplits() int {
	if l.lightType != LightTypeDirectional {
		return 1
	}
	return l.ShadowCascade().NumSplits()
}

// UpdateBatches refreshes the camera distance. Directional lights have no position
// and keep a zero distance.
func (l *lightImpl) UpdateBatches(frame scene.FrameInfo) {
	if l.lightType == LightTypeDirectional || frame.Camera == nil {
		return
	}
	l.SetDistance(frame.Camera.Distance(l.Position()))
}

// updateWorldBounds recomputes the spot frustum and the world bounding box the octree
// indexes the light by.
func (l *lightImpl) updateWorldBounds() {
	l.mu.Lock()
	var box common.BoundingBox
	switch l.lightType {
	case LightTypeDirectional:
		large := mgl32.Vec3{common.LargeValue, common.LargeValue, common.LargeValue}
		box = common.NewBoundingBox(large.Mul(-1), large)
	case LightTypePoint:
		box = common.Sphere{Center: l.position, Radius: l.lightRange}.BoundingBox()
	case LightTypeSpot:
		l.frustum.DefinePerspective(l.fov, l.aspect, 1, minNearClip, max(l.lightRange, minNearClip), l.worldTransform())
		box = l.frustum.BoundingBox()
	}
	l.mu.Unlock()
	l.SetWorldBoundingBox(box)
}

// spotCutoff returns the cosine of half the spot cone angle.
func spotCutoff(fov float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(fov)) * 0.5))
}
