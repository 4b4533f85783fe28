package light

import (
	"math"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ShaderParameters are the light uniforms of one frame.
type ShaderParameters struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	InvRange  float32

	ShadowMatrices [MaxCascadeSplits]mgl32.Mat4
	// SpotMatrix projects world positions onto the shape texture of spot lights.
	SpotMatrix mgl32.Mat4

	// Color is the faded effective color with negative brightness folded into
	// subtractive blending.
	Color             mgl32.Vec3
	SpecularIntensity float32
	Radius            float32
	Length            float32

	ShadowCubeAdjust  mgl32.Vec4
	ShadowDepthFade   mgl32.Vec4
	ShadowIntensity   mgl32.Vec4
	ShadowMapInvSize  mgl32.Vec2
	ShadowSplits      mgl32.Vec4
	NormalOffsetScale mgl32.Vec4

	// Cutoff and InvCutoff shape the spot cone for vertex lighting.
	Cutoff    float32
	InvCutoff float32
}

// DrawableData is the per-viewport drawable state a light reads while collecting lit
// geometries and shadow casters. Implementations must be safe for concurrent use by
// lights processed on different workers.
type DrawableData interface {
	// IsVisibleGeometry reports whether the drawable passed primary visibility.
	IsVisibleGeometry(index int) bool
	// ZRange returns the view-space depth range computed during primary processing.
	ZRange(index int) common.ZRange
	// MarkUpdated flags the drawable as updated for this frame and reports whether it
	// already was.
	MarkUpdated(index int) bool
}

// ProcessContext carries the frame state lights are processed against.
type ProcessContext struct {
	Frame             scene.FrameInfo
	SceneZRange       common.ZRange
	VisibleGeometries []scene.Drawable
	Data              DrawableData
	// OpenGL selects clip-space conventions for shadow matrices.
	OpenGL bool
}

var cubeFaceDirections = [MaxLightSplits]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// ShadowSplit is one shadow camera of a light: a directional cascade, the spot
// frustum or a point light cube face.
type ShadowSplit struct {
	camera    camera.Camera
	casters   []scene.Drawable
	casterBox common.BoundingBox
	zRange    common.ZRange
	shadowMap ShadowMap
}

func (p *ShadowSplit) Camera() camera.Camera           { return p.camera }
func (p *ShadowSplit) ShadowCasters() []scene.Drawable { return p.casters }
func (p *ShadowSplit) ZRange() common.ZRange           { return p.zRange }
func (p *ShadowSplit) ShadowMap() ShadowMap            { return p.shadowMap }

// resetCamera returns the split camera, creating it on first use, reset to a unit
// zoom perspective camera.
func (p *ShadowSplit) resetCamera() camera.Camera {
	if p.camera == nil {
		p.camera = camera.NewCamera()
	}
	p.camera.SetOrthographic(false)
	p.camera.SetZoom(1)
	return p.camera
}

func (p *ShadowSplit) setupDirectional(l Light, cullCamera camera.Camera, litGeometries []scene.Drawable,
	sceneZRange common.ZRange, data DrawableData) {
	c := p.camera
	focus := l.ShadowFocus()
	extrusion := min(cullCamera.Far(), l.ShadowMaxExtrusion())

	c.SetPosition(cullCamera.Position().Sub(l.Direction().Mul(extrusion)))
	c.SetRotation(l.Rotation())

	splitZRange := p.zRange
	if focus.Focus {
		if focused := sceneZRange.Intersect(p.zRange); focused.IsValid() {
			splitZRange = focused
		}
	}

	splitFrustum := cullCamera.SplitFrustum(splitZRange.Min, splitZRange.Max)
	volume := splitFrustum.Vertices[:]
	if focus.Focus {
		var litBox common.BoundingBox
		for _, d := range litGeometries {
			if data.ZRange(d.DrawableIndex()).Intersects(splitZRange) {
				litBox.Merge(d.WorldBoundingBox())
			}
		}
		// An empty clip keeps the whole split volume.
		if clipped := common.ClipFrustumByBox(splitFrustum, litBox); len(clipped) > 0 {
			volume = clipped
		}
	}

	lightView := c.View()
	lightSpace := make([]mgl32.Vec3, len(volume))
	for i, v := range volume {
		lightSpace[i] = common.TransformPoint(lightView, v)
	}
	var shadowBox common.BoundingBox
	if focus.NonUniform {
		shadowBox = common.BoundingBoxFromPoints(lightSpace...)
	} else {
		shadowBox = common.BoundingSphere(lightSpace).BoundingBox()
	}

	c.SetOrthographic(true)
	c.SetAspect(1)
	c.SetNearClip(0)
	c.SetFarClip(shadowBox.Max[2])

	// The viewport is unknown until the shadow map is allocated, so no texel snapping yet.
	p.shadowMap.Region = common.IntRect{}
	p.quantize(focus, shadowBox)
}

// quantize sizes and centers a directional shadow camera on viewBox, given in light
// view space, snapping to whole texels once the shadow map region is known.
func (p *ShadowSplit) quantize(focus FocusParameters, viewBox common.BoundingBox) {
	c := p.camera
	width := float32(p.shadowMap.Region.Width())

	center := mgl32.Vec2{(viewBox.Min[0] + viewBox.Max[0]) * 0.5, (viewBox.Min[1] + viewBox.Max[1]) * 0.5}
	size := mgl32.Vec2{viewBox.Max[0] - viewBox.Min[0], viewBox.Max[1] - viewBox.Min[1]}

	quantizeSize := func(s float32) float32 {
		steps := float32(math.Ceil(math.Sqrt(float64(s / focus.Quantize))))
		return max(steps*steps*focus.Quantize, focus.MinView)
	}
	if focus.NonUniform {
		size[0] = quantizeSize(size[0])
		size[1] = quantizeSize(size[1])
	} else if focus.Focus {
		size[0] = quantizeSize(max(size[0], size[1]))
		size[1] = size[0]
	}
	size[0] = max(size[0], common.Epsilon)
	size[1] = max(size[1], common.Epsilon)
	c.SetOrthoSizeXY(size[0], size[1])

	rot := c.Rotation()
	c.SetPosition(c.Position().Add(rot.Rotate(mgl32.Vec3{center[0], center[1], 0})))

	if width > 0 {
		viewPos := rot.Inverse().Rotate(c.Position())
		// The one texel border of the region is not sampled.
		invActualSize := 1 / (width - 2)
		texelX, texelY := size[0]*invActualSize, size[1]*invActualSize
		snap := mgl32.Vec3{
			-float32(math.Mod(float64(viewPos[0]), float64(texelX))),
			-float32(math.Mod(float64(viewPos[1]), float64(texelY))),
			0,
		}
		c.SetPosition(c.Position().Add(rot.Rotate(snap)))
	}
}

// finalizeCamera adjusts the shadow camera once casters and the shadow map region
// are known.
func (p *ShadowSplit) finalizeCamera(l Light, openGL bool) {
	c := p.camera
	focus := l.ShadowFocus()
	width := float32(p.shadowMap.Region.Width())

	switch l.Type() {
	case LightTypeDirectional:
		halfY := c.OrthoSize() * 0.5
		halfX := c.Aspect() * halfY
		p.quantize(focus, common.NewBoundingBox(mgl32.Vec3{-halfX, -halfY, 0}, mgl32.Vec3{halfX, halfY, 0}))
	case LightTypeSpot:
		if focus.Focus && p.casterBox.Defined {
			viewSizeX := max(mgl32.Abs(p.casterBox.Min[0]), mgl32.Abs(p.casterBox.Max[0]))
			viewSizeY := max(mgl32.Abs(p.casterBox.Min[1]), mgl32.Abs(p.casterBox.Max[1]))
			viewSize := max(viewSizeX, viewSizeY)
			// The caster box is in projection space, scale the quantization to match.
			invOrthoSize := 1 / c.OrthoSize()
			quantize := focus.Quantize * invOrthoSize
			minView := focus.MinView * invOrthoSize
			viewSize = max(float32(math.Ceil(float64(viewSize/quantize)))*quantize, minView)
			if viewSize < 1 {
				c.SetZoom(1 / viewSize)
			}
		}
	}

	// Zoom out to keep filtering off the region border. Cube faces need a wider
	// margin so samples never cross into the neighbouring face.
	if c.Zoom() >= 1 && width > 0 {
		border := float32(2)
		if l.Type() == LightTypePoint {
			border = 4
			if openGL {
				border = 3
			}
		}
		c.SetZoom(c.Zoom() * ((width - border) / width))
	}
}

// shadowMatrix maps world positions to shadow map texture coordinates and depth.
func (p *ShadowSplit) shadowMatrix(subPixelOffset float32, openGL bool) mgl32.Mat4 {
	if !p.shadowMap.IsValid() {
		return mgl32.Ident4()
	}
	viewport := p.shadowMap.Region
	texW := float32(p.shadowMap.Texture.Width())
	texH := float32(p.shadowMap.Texture.Height())

	offset := mgl32.Vec3{float32(viewport.Left) / texW, float32(viewport.Top) / texH, 0}
	scale := mgl32.Vec3{0.5 * float32(viewport.Width()) / texW, 0.5 * float32(viewport.Height()) / texH, 1}
	offset[0] += scale[0]
	offset[1] += scale[1]

	if openGL {
		offset[2] = 0.5
		scale[2] = 0.5
		offset[1] = 1 - offset[1]
	} else {
		scale[1] = -scale[1]
	}

	offset[0] -= subPixelOffset / texW
	offset[1] -= subPixelOffset / texH

	texAdjust := mgl32.Translate3D(offset[0], offset[1], offset[2]).Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
	return texAdjust.Mul4(p.camera.GPUProjection(openGL)).Mul4(p.camera.View())
}

// SceneLight is the per-frame state of one visible light: lit geometries, shadow
// splits with their casters, the shadow map and the shader parameters.
//
// UpdateLitGeometriesAndShadowCasters may run on a worker goroutine; every other
// method runs on the rendering goroutine.
type SceneLight struct {
	light Light

	hasShadow     bool
	shadowMapSize common.IntVector2
	openGL        bool

	litGeometries []scene.Drawable
	tempCasters   []scene.Drawable
	toUpdate      []scene.Drawable

	splits    [MaxLightSplits]ShadowSplit
	numSplits int

	shadowMap ShadowMap
	params    ShaderParameters

	pipelineHash atomic.Uint32
}

// NewSceneLight wraps a light for per-frame processing. Panics on a nil light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - *SceneLight: the scene light
func NewSceneLight(l Light) *SceneLight {
	if l == nil {
		panic("light: NewSceneLight requires a non-nil Light")
	}
	s := &SceneLight{light: l}
	s.updatePipelineStateHash()
	return s
}

func (s *SceneLight) Light() Light                    { return s.light }
func (s *SceneLight) HasShadow() bool                 { return s.hasShadow }
func (s *SceneLight) ShadowMap() ShadowMap            { return s.shadowMap }
func (s *SceneLight) NumSplits() int                  { return s.numSplits }
func (s *SceneLight) Split(i int) *ShadowSplit        { return &s.splits[i] }
func (s *SceneLight) LitGeometries() []scene.Drawable { return s.litGeometries }
func (s *SceneLight) ShaderParameters() *ShaderParameters {
	return &s.params
}

// ShadowCasters returns the casters of split i.
func (s *SceneLight) ShadowCasters(i int) []scene.Drawable {
	return s.splits[i].casters
}

// CastersToUpdate returns shadow casters that were not updated by primary processing
// and still need UpdateBatches this frame.
func (s *SceneLight) CastersToUpdate() []scene.Drawable {
	return s.toUpdate
}

// ShadowMapSize returns the requested shadow map size, zero without shadows.
func (s *SceneLight) ShadowMapSize() common.IntVector2 {
	if !s.hasShadow {
		return common.IntVector2{}
	}
	return s.shadowMapSize
}

// PipelineStateHash returns the hash of light state that affects pipeline states.
// Safe for concurrent use.
func (s *SceneLight) PipelineStateHash() uint32 {
	return s.pipelineHash.Load()
}

func (s *SceneLight) updatePipelineStateHash() {
	l := s.light
	bias := l.ShadowBias()
	var hash uint32
	hash |= uint32(l.Type()) & 0x3
	hash |= uint32(common.HashBool(s.hasShadow)) << 2
	hash |= uint32(common.HashBool(l.ShapeTexture() != nil)) << 3
	hash |= uint32(common.HashBool(l.SpecularIntensity() > 0)) << 4
	hash |= uint32(common.HashBool(bias.NormalOffset > 0)) << 5
	common.CombineHash(&hash, common.HashFloat(bias.ConstantBias))
	common.CombineHash(&hash, common.HashFloat(bias.SlopeScaledBias))
	s.pipelineHash.Store(hash)
}

// BeginFrame clears the previous frame and records whether the light may cast
// shadows this frame.
//
// Parameters:
//   - hasShadow: whether shadows are enabled for the light
func (s *SceneLight) BeginFrame(hasShadow bool) {
	s.litGeometries = s.litGeometries[:0]
	s.tempCasters = s.tempCasters[:0]
	s.toUpdate = s.toUpdate[:0]
	for i := range s.splits {
		s.splits[i].casters = s.splits[i].casters[:0]
		s.splits[i].shadowMap = ShadowMap{}
	}
	s.numSplits = 0
	s.shadowMap = ShadowMap{}
	s.hasShadow = hasShadow
	s.updatePipelineStateHash()
}

// UpdateLitGeometriesAndShadowCasters collects the geometries the light affects and,
// for shadowed lights, sets up the shadow cameras and their casters.
//
// Parameters:
//   - ctx: the frame state
func (s *SceneLight) UpdateLitGeometriesAndShadowCasters(ctx *ProcessContext) {
	s.openGL = ctx.OpenGL
	s.collectLitGeometries(ctx)
	if !s.hasShadow {
		return
	}

	s.setupShadowCameras(ctx)
	cullCamera := ctx.Frame.Camera
	frustum := cullCamera.Frustum()
	lightType := s.light.Type()

	for i := 0; i < s.numSplits; i++ {
		split := &s.splits[i]
		split.casters = split.casters[:0]
		shadowFrustum := split.camera.Frustum()

		// Cube faces outside the view cast nothing visible.
		if lightType == LightTypePoint && frustum.IsInsideBox(shadowFrustum.BoundingBox()) == common.Outside {
			continue
		}
		if lightType == LightTypeDirectional {
			if !ctx.SceneZRange.Intersects(split.zRange) {
				continue
			}
			s.tempCasters = s.queryDirectionalCasters(ctx, shadowFrustum)
		}
		s.processShadowCasters(ctx, s.tempCasters, i)
	}
}

func (s *SceneLight) collectLitGeometries(ctx *ProcessContext) {
	l := s.light
	lightMask := l.EffectiveLightMask()

	if l.Type() == LightTypeDirectional {
		for _, d := range ctx.VisibleGeometries {
			if d.LightMask()&lightMask != 0 {
				s.litGeometries = append(s.litGeometries, d)
			}
		}
		return
	}

	octree := ctx.Frame.Octree
	if octree == nil {
		return
	}
	viewMask := ctx.Frame.Camera.ViewMask()
	var candidates []scene.Drawable
	if l.Type() == LightTypeSpot {
		candidates = octree.QueryFrustum(s.tempCasters[:0], l.Frustum(), scene.DrawableGeometry, viewMask)
	} else {
		sphere := common.Sphere{Center: l.Position(), Radius: l.Range()}
		candidates = octree.QuerySphere(s.tempCasters[:0], sphere, scene.DrawableGeometry, viewMask)
	}

	// The query result is reused in place as the caster candidate list.
	casters := candidates[:0]
	for _, d := range candidates {
		if ctx.Data.IsVisibleGeometry(d.DrawableIndex()) && d.LightMask()&lightMask != 0 {
			s.litGeometries = append(s.litGeometries, d)
		}
		if s.hasShadow && d.CastShadows() && d.ShadowMask()&lightMask != 0 {
			casters = append(casters, d)
		}
	}
	s.tempCasters = casters
}

func (s *SceneLight) queryDirectionalCasters(ctx *ProcessContext, shadowFrustum common.Frustum) []scene.Drawable {
	if ctx.Frame.Octree == nil {
		return s.tempCasters[:0]
	}
	lightMask := s.light.EffectiveLightMask()
	found := ctx.Frame.Octree.QueryFrustum(s.tempCasters[:0], shadowFrustum, scene.DrawableGeometry, ctx.Frame.Camera.ViewMask())
	casters := found[:0]
	for _, d := range found {
		if d.CastShadows() && d.ShadowMask()&lightMask != 0 {
			casters = append(casters, d)
		}
	}
	return casters
}

func (s *SceneLight) setupShadowCameras(ctx *ProcessContext) {
	l := s.light
	cullCamera := ctx.Frame.Camera

	switch l.Type() {
	case LightTypeDirectional:
		cascade := l.ShadowCascade()
		nearSplit := cullCamera.Near()
		farClip := cullCamera.Far()

		s.numSplits = 0
		for i := 0; i < l.NumShadowSplits(); i++ {
			if nearSplit > farClip {
				break
			}
			farSplit := min(farClip, cascade.Splits[i])
			if farSplit <= nearSplit {
				break
			}
			split := &s.splits[i]
			split.resetCamera()
			split.zRange = common.NewZRange(nearSplit, farSplit)
			split.setupDirectional(l, cullCamera, s.litGeometries, ctx.SceneZRange, ctx.Data)

			nearSplit = farSplit
			s.numSplits++
		}

	case LightTypeSpot:
		c := s.splits[0].resetCamera()
		c.SetPosition(l.Position())
		c.SetRotation(l.Rotation())
		c.SetNearClip(l.ShadowNearFarRatio() * l.Range())
		c.SetFarClip(l.Range())
		c.SetFov(l.Fov())
		c.SetAspect(l.AspectRatio())
		s.numSplits = 1

	case LightTypePoint:
		// Faces are aligned to the world axes regardless of the light rotation.
		for i, dir := range cubeFaceDirections {
			c := s.splits[i].resetCamera()
			c.SetPosition(l.Position())
			c.SetRotation(common.LookRotation(dir, mgl32.Vec3{0, 1, 0}))
			c.SetNearClip(l.ShadowNearFarRatio() * l.Range())
			c.SetFarClip(l.Range())
			c.SetFov(90)
			c.SetAspect(1)
		}
		s.numSplits = MaxLightSplits
	}
}

func (s *SceneLight) processShadowCasters(ctx *ProcessContext, drawables []scene.Drawable, splitIndex int) {
	l := s.light
	lightType := l.Type()
	lightMask := l.EffectiveLightMask()
	cullCamera := ctx.Frame.Camera

	split := &s.splits[splitIndex]
	shadowCamera := split.camera
	shadowFrustum := shadowCamera.Frustum()
	lightView := shadowCamera.View()
	lightProj := shadowCamera.Projection()
	split.casterBox = common.BoundingBox{}

	// Directional splits only see the part of the view inside their own depth range,
	// so casters are not rendered into splits they cannot shadow.
	zRange := ctx.SceneZRange
	if lightType == LightTypeDirectional {
		zRange = zRange.Intersect(split.zRange)
	}
	if !zRange.IsValid() {
		return
	}
	lightViewFrustum := cullCamera.SplitFrustum(zRange.Min, zRange.Max).Transformed(lightView)
	if lightViewFrustum.Vertices[0] == lightViewFrustum.Vertices[4] {
		return
	}
	lightViewFrustumBox := lightViewFrustum.BoundingBox()
	focusedSpot := lightType == LightTypeSpot && l.ShadowFocus().Focus

	for _, d := range drawables {
		if !d.CastShadows() || d.ShadowMask()&lightMask == 0 {
			continue
		}
		worldBox := d.WorldBoundingBox()
		if lightType == LightTypePoint && shadowFrustum.IsInsideBox(worldBox) == common.Outside {
			continue
		}

		if !ctx.Data.MarkUpdated(d.DrawableIndex()) {
			s.toUpdate = append(s.toUpdate, d)
		}

		lightViewBox := worldBox.Transformed(lightView)
		if !s.isShadowCasterVisible(ctx, d, lightViewBox, shadowCamera, lightViewFrustum, lightViewFrustumBox) {
			continue
		}
		if focusedSpot {
			split.casterBox.Merge(lightViewBox.Projected(lightProj))
		}
		split.casters = append(split.casters, d)
	}
}

func (s *SceneLight) isShadowCasterVisible(ctx *ProcessContext, d scene.Drawable, lightViewBox common.BoundingBox,
	shadowCamera camera.Camera, lightViewFrustum common.Frustum, lightViewFrustumBox common.BoundingBox) bool {
	if shadowCamera.Orthographic() {
		// Extrude the caster up to the far edge of the view volume.
		lightViewBox.Max[2] = max(lightViewBox.Max[2], lightViewFrustumBox.Max[2])
		return lightViewFrustum.IsInsideBox(lightViewBox) != common.Outside
	}

	// A visible caster always has a visible shadow.
	if ctx.Data.IsVisibleGeometry(d.DrawableIndex()) {
		return true
	}

	// Extrude along the ray from the light through the caster; the box grows with
	// distance because of the perspective.
	center := lightViewBox.Center()
	extrusion := shadowCamera.Far()
	originalDistance := mgl32.Clamp(center.Len(), common.Epsilon, extrusion)
	sizeFactor := extrusion / originalDistance

	newCenter := center.Normalize().Mul(extrusion)
	newHalfSize := lightViewBox.Size().Mul(sizeFactor * 0.5)
	lightViewBox.Merge(common.NewBoundingBox(newCenter.Sub(newHalfSize), newCenter.Add(newHalfSize)))
	return lightViewFrustum.IsInsideBox(lightViewBox) != common.Outside
}

// FinalizeShadowMap drops the shadow when no split found a caster and computes the
// shadow map size the light requests.
func (s *SceneLight) FinalizeShadowMap() {
	if !s.hasShadow {
		return
	}
	hasCasters := false
	for i := 0; i < s.numSplits; i++ {
		if len(s.splits[i].casters) > 0 {
			hasCasters = true
			break
		}
	}
	if !hasCasters {
		s.hasShadow = false
		s.updatePipelineStateHash()
		return
	}
	grid := splitsGridSize(s.numSplits)
	s.shadowMapSize = common.IntVector2{X: SplitSize * grid.X, Y: SplitSize * grid.Y}
}

// SetShadowMap assigns the allocated shadow map and finalizes the split cameras. A
// shadow map without texture means allocation failed and removes the shadow.
//
// Parameters:
//   - m: the allocated region
func (s *SceneLight) SetShadowMap(m ShadowMap) {
	if !m.IsValid() {
		s.numSplits = 0
		s.hasShadow = false
		s.updatePipelineStateHash()
		return
	}
	s.shadowMap = m
	grid := splitsGridSize(s.numSplits)
	for i := 0; i < s.numSplits; i++ {
		split := &s.splits[i]
		split.shadowMap = m.Split(i, grid)
		split.finalizeCamera(s.light, s.openGL)
	}
}

// FinalizeShaderParameters computes the light uniforms for the frame.
//
// Parameters:
//   - cullCamera: the view camera
//   - subPixelOffset: shadow sampling offset in texels
func (s *SceneLight) FinalizeShaderParameters(cullCamera camera.Camera, subPixelOffset float32) {
	l := s.light
	lightType := l.Type()
	p := &s.params

	p.Position = l.Position()
	p.Direction = l.Rotation().Rotate(mgl32.Vec3{0, 0, -1})
	p.InvRange = 0
	if lightType != LightTypeDirectional {
		p.InvRange = 1 / max(l.Range(), common.Epsilon)
	}
	p.Radius = l.Radius()
	p.Length = l.Length()

	// Negative lights use subtractive blending, so the color is kept positive.
	fade := lightFade(l)
	p.Color = common.AbsVec3(l.EffectiveColor()).Mul(fade)
	p.SpecularIntensity = fade * l.EffectiveSpecularIntensity()

	if lightType == LightTypeSpot {
		p.Cutoff = spotCutoff(l.Fov())
		p.InvCutoff = 1 / (1 - p.Cutoff)
		p.SpotMatrix = s.spotMatrix()
	} else {
		p.Cutoff = -2
		p.InvCutoff = 1
		p.SpotMatrix = mgl32.Ident4()
	}

	if !s.shadowMap.IsValid() || s.numSplits == 0 {
		return
	}

	switch lightType {
	case LightTypeDirectional:
		for i := 0; i < min(s.numSplits, MaxCascadeSplits); i++ {
			p.ShadowMatrices[i] = s.splits[i].shadowMatrix(subPixelOffset, s.openGL)
		}
	case LightTypeSpot:
		p.ShadowMatrices[0] = s.splits[0].shadowMatrix(subPixelOffset, s.openGL)
	case LightTypePoint:
		// Point shadows sample by direction, the matrix only rotates into light space.
		p.ShadowMatrices[0] = l.Rotation().Mat4()
	}
	p.ShadowCubeAdjust = mgl32.Vec4{}

	{
		// Point shadows read the depth parameters, directional shadows the fade range.
		shadowCamera := s.splits[0].camera
		nearClip := shadowCamera.Near()
		farClip := shadowCamera.Far()
		q := farClip / (farClip - nearClip)
		r := -q * nearClip

		cascade := l.ShadowCascade()
		viewFar := cullCamera.Far()
		shadowRange := cascade.ShadowRange()
		fadeStart := cascade.FadeStart * shadowRange / viewFar
		fadeEnd := shadowRange / viewFar
		p.ShadowDepthFade = mgl32.Vec4{q, r, fadeStart, 1 / (fadeEnd - fadeStart)}
	}

	intensity := l.ShadowIntensity()
	fadeStart := l.ShadowFadeDistance()
	fadeEnd := l.ShadowDistance()
	if fadeStart > 0 && fadeEnd > 0 && fadeEnd > fadeStart {
		intensity = common.Lerp(intensity, 1, mgl32.Clamp((l.Distance()-fadeStart)/(fadeEnd-fadeStart), 0, 1))
	}
	p.ShadowIntensity = mgl32.Vec4{1 - intensity, intensity, 0, 0}

	p.ShadowMapInvSize = mgl32.Vec2{
		1 / float32(s.shadowMap.Texture.Width()),
		1 / float32(s.shadowMap.Texture.Height()),
	}

	viewFar := cullCamera.Far()
	p.ShadowSplits = mgl32.Vec4{common.LargeValue, common.LargeValue, common.LargeValue, common.LargeValue}
	for i := 0; i < 3 && i+1 < s.numSplits; i++ {
		p.ShadowSplits[i] = s.splits[i].zRange.Max / viewFar
	}

	p.NormalOffsetScale = mgl32.Vec4{}
	if normalOffset := l.ShadowBias().NormalOffset; normalOffset > 0 {
		// Scale the offset with the width of the shadow camera view.
		if lightType != LightTypeDirectional {
			c := s.splits[0].camera
			p.NormalOffsetScale[0] = 2 * float32(math.Tan(float64(mgl32.DegToRad(c.Fov()))*0.5)) * c.Far()
		} else {
			for i := 0; i < min(s.numSplits, 4); i++ {
				p.NormalOffsetScale[i] = s.splits[i].camera.OrthoSize()
			}
		}
		p.NormalOffsetScale = p.NormalOffsetScale.Mul(normalOffset)
	}
}

// spotMatrix projects world positions into the shape texture of a spot light.
func (s *SceneLight) spotMatrix() mgl32.Mat4 {
	l := s.light
	spotView := l.WorldTransform().Inv()

	h := 1 / float32(math.Tan(float64(mgl32.DegToRad(l.Fov()))*0.5))
	w := h / l.AspectRatio()
	var spotProj mgl32.Mat4
	spotProj.Set(0, 0, w)
	spotProj.Set(1, 1, h)
	spotProj.Set(2, 2, 1/max(l.Range(), common.Epsilon))
	spotProj.Set(3, 2, 1)

	texAdjust := mgl32.Translate3D(0.5, 0.5, 0).Mul4(mgl32.Scale3D(0.5, -0.5, 1))
	if s.openGL {
		texAdjust = mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
	}
	return texAdjust.Mul4(spotProj).Mul4(spotView)
}

// lightFade returns the distance fade of point and spot lights between the fade and
// draw distances.
func lightFade(l Light) float32 {
	fadeStart := l.FadeDistance()
	fadeEnd := l.DrawDistance()
	if l.Type() != LightTypeDirectional && fadeEnd > 0 && fadeStart > 0 && fadeStart < fadeEnd {
		return min(1-(l.Distance()-fadeStart)/(fadeEnd-fadeStart), 1)
	}
	return 1
}
