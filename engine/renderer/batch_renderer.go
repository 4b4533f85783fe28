package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/batch"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Shader parameter names uploaded by the BatchRenderer.
const (
	ParamDeltaTime   = "DeltaTime"
	ParamElapsedTime = "ElapsedTime"

	ParamCameraPos        = "CameraPos"
	ParamViewInv          = "ViewInv"
	ParamView             = "View"
	ParamNearClip         = "NearClip"
	ParamFarClip          = "FarClip"
	ParamDepthMode        = "DepthMode"
	ParamDepthReconstruct = "DepthReconstruct"
	ParamFrustumSize      = "FrustumSize"
	ParamViewProj         = "ViewProj"

	ParamAmbientColor = "AmbientColor"
	ParamFogColor     = "FogColor"
	ParamFogParams    = "FogParams"

	ParamModel = "Model"

	ParamLightPos          = "LightPos"
	ParamLightDir          = "LightDir"
	ParamLightColor        = "LightColor"
	ParamLightRad          = "LightRad"
	ParamShadowCubeAdjust  = "ShadowCubeAdjust"
	ParamShadowDepthFade   = "ShadowDepthFade"
	ParamShadowIntensity   = "ShadowIntensity"
	ParamShadowMapInvSize  = "ShadowMapInvSize"
	ParamShadowSplits      = "ShadowSplits"
	ParamLightMatrices     = "LightMatrices"
	ParamNormalOffsetScale = "NormalOffsetScale"
	ParamVertexLights      = "VertexLights"
)

// RenderStats counts what one BatchRenderer stage submitted.
type RenderStats struct {
	ShadowBatches int
	BaseBatches   int
	LightBatches  int
	// Skipped counts batches dropped for lacking a pipeline state.
	Skipped int
}

// Add accumulates other into s.
func (s *RenderStats) Add(other RenderStats) {
	s.ShadowBatches += other.ShadowBatches
	s.BaseBatches += other.BaseBatches
	s.LightBatches += other.LightBatches
	s.Skipped += other.Skipped
}

// Total returns the number of drawn batches.
func (s RenderStats) Total() int { return s.ShadowBatches + s.BaseBatches + s.LightBatches }

type lightKey struct {
	light          *light.SceneLight
	vertexLightsID uint32
}

type objectKey struct {
	drawable scene.Drawable
	index    int
}

// BatchRenderer turns the batches of a SceneBatchCollector into draw commands.
// Each parameter group is only re-uploaded when its source differs from the one of
// the previous draw; material textures are rebound on material change only.
type BatchRenderer struct {
	collector   *batch.SceneBatchCollector
	openGL      bool
	defaultZone *scene.Zone

	frameSent    bool
	lastCamera   camera.Camera
	lastZone     *scene.Zone
	lastLight    lightKey
	lightSent    bool
	lastMaterial material.Material
	lastMatHash  uint32
	lastObject   objectKey
	objectSent   bool
	lastShadow   *graphics.Texture

	vertexLights [batch.MaxVertexLights * 3]mgl32.Vec4
	matrices     [light.MaxCascadeSplits]mgl32.Mat4
	floats       []float32
}

// NewBatchRenderer creates a renderer for the batches of collector. Panics if
// collector is nil.
//
// Parameters:
//   - collector: the collector batches are read from
//   - options: functional options to configure the renderer
//
// Returns:
//   - *BatchRenderer: the new renderer
func NewBatchRenderer(collector *batch.SceneBatchCollector, options ...BatchRendererBuilderOption) *BatchRenderer {
	if collector == nil {
		panic("renderer: batch collector is nil")
	}
	r := &BatchRenderer{
		collector:   collector,
		defaultZone: scene.NewDefaultZone(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// resetState forgets every uploaded group so the next draw sends all of them.
func (r *BatchRenderer) resetState() {
	r.frameSent = false
	r.lastCamera = nil
	r.lastZone = nil
	r.lastLight = lightKey{}
	r.lightSent = false
	r.lastMaterial = nil
	r.lastMatHash = 0
	r.lastObject = objectKey{}
	r.objectSent = false
	r.lastShadow = nil
}

// RenderShadowBatches records every shadow split of every visible light: the split
// region of the shadow atlas becomes the viewport, its depth is cleared and the
// split's shadow batches are drawn with the split camera.
//
// Parameters:
//   - queue: the queue to record into
//
// Returns:
//   - RenderStats: what was submitted
func (r *BatchRenderer) RenderShadowBatches(queue *DrawCommandQueue) RenderStats {
	var stats RenderStats
	for lightIndex, sl := range r.collector.VisibleLights() {
		if !sl.HasShadow() {
			continue
		}
		for split := 0; split < sl.NumSplits(); split++ {
			s := sl.Split(split)
			shadowMap := s.ShadowMap()
			batches := r.collector.ShadowBatches(lightIndex, split)
			if !shadowMap.IsValid() || len(batches) == 0 {
				continue
			}
			bindShadowMap(queue, shadowMap)

			r.resetState()
			for i := range batches {
				if r.drawBatch(queue, &batches[i], s.Camera(), nil, nil) {
					stats.ShadowBatches++
				} else {
					stats.Skipped++
				}
			}
		}
	}
	return stats
}

// RenderBaseBatches records the sorted base batches of scene pass passIndex with the
// frame camera. Lit-base batches are drawn with the main light; vertex lights of
// each drawable ride along in the light group.
//
// Parameters:
//   - queue: the queue to record into
//   - passIndex: the scene pass
//
// Returns:
//   - RenderStats: what was submitted
func (r *BatchRenderer) RenderBaseBatches(queue *DrawCommandQueue, passIndex int) RenderStats {
	var stats RenderStats
	cam := r.collector.Frame().Camera
	mainLight := r.collector.MainLight()

	r.resetState()
	for _, b := range r.collector.SortedBaseBatches(passIndex) {
		var sl *light.SceneLight
		if b.LitBase {
			sl = mainLight
		}
		vertexLights := r.collector.VertexLights(b.Drawable.DrawableIndex())
		if r.drawBatch(queue, b, cam, sl, vertexLights) {
			stats.BaseBatches++
		} else {
			stats.Skipped++
		}
	}
	return stats
}

// RenderLightBatches records the sorted additive light batches of scene pass
// passIndex with the frame camera.
//
// Parameters:
//   - queue: the queue to record into
//   - passIndex: the scene pass
//
// Returns:
//   - RenderStats: what was submitted
func (r *BatchRenderer) RenderLightBatches(queue *DrawCommandQueue, passIndex int) RenderStats {
	var stats RenderStats
	cam := r.collector.Frame().Camera
	lights := r.collector.VisibleLights()

	r.resetState()
	for _, b := range r.collector.SortedLightBatches(passIndex) {
		if b.LightIndex < 0 || b.LightIndex >= len(lights) {
			stats.Skipped++
			continue
		}
		if r.drawBatch(queue, &b.BaseSceneBatch, cam, lights[b.LightIndex], nil) {
			stats.LightBatches++
		} else {
			stats.Skipped++
		}
	}
	return stats
}

func (r *BatchRenderer) drawBatch(queue *DrawCommandQueue, b *batch.BaseSceneBatch, cam camera.Camera,
	sl *light.SceneLight, vertexLights []batch.LightEntry) bool {
	if b.PipelineState == nil || b.Geometry.IsEmpty() {
		return false
	}
	queue.SetPipelineState(b.PipelineState)

	if queue.BeginShaderParameterGroup(graphics.GroupFrame, !r.frameSent) {
		frame := r.collector.Frame()
		queue.AddShaderParameter(ParamDeltaTime, []float32{frame.TimeStep})
		queue.AddShaderParameter(ParamElapsedTime, []float32{frame.ElapsedTime})
		queue.CommitShaderParameterGroup(graphics.GroupFrame)
		r.frameSent = true
	}

	if queue.BeginShaderParameterGroup(graphics.GroupCamera, cam != r.lastCamera) {
		r.addCameraParameters(queue, cam)
		queue.CommitShaderParameterGroup(graphics.GroupCamera)
		r.lastCamera = cam
	}

	zone := b.Drawable.Zone()
	if zone == nil {
		zone = r.defaultZone
	}
	if queue.BeginShaderParameterGroup(graphics.GroupZone, zone != r.lastZone) {
		queue.AddShaderParameter(ParamAmbientColor, zone.AmbientColor[:])
		queue.AddShaderParameter(ParamFogColor, zone.FogColor[:])
		fog := zone.FogParameters(cam.Far())
		queue.AddShaderParameter(ParamFogParams, fog[:])
		queue.CommitShaderParameterGroup(graphics.GroupZone)
		r.lastZone = zone
	}

	key := lightKey{light: sl, vertexLightsID: vertexLightsHash(vertexLights)}
	if queue.BeginShaderParameterGroup(graphics.GroupLight, !r.lightSent || key != r.lastLight) {
		r.addLightParameters(queue, sl, vertexLights)
		queue.CommitShaderParameterGroup(graphics.GroupLight)
		r.lastLight = key
		r.lightSent = true
		if sl != nil {
			var shadowTex *graphics.Texture
			if sl.HasShadow() {
				shadowTex = sl.ShadowMap().Texture
			}
			if shadowTex != r.lastShadow {
				queue.SetTexture(graphics.TextureShadowMap, shadowTex)
				r.lastShadow = shadowTex
			}
			if shape := sl.Light().ShapeTexture(); shape != nil {
				queue.SetTexture(graphics.TextureLightShape, shape)
			}
		}
	}

	mat := b.Material
	matHash := mat.ShaderParameterHash()
	materialChanged := mat != r.lastMaterial
	if queue.BeginShaderParameterGroup(graphics.GroupMaterial, materialChanged || matHash != r.lastMatHash) {
		for _, p := range mat.ShaderParameters() {
			queue.AddShaderParameter(p.Name, p.Data)
		}
		queue.CommitShaderParameterGroup(graphics.GroupMaterial)
		if materialChanged {
			for unit := graphics.TextureUnit(0); unit < graphics.MaxTextureUnits; unit++ {
				if unit == graphics.TextureShadowMap || unit == graphics.TextureLightShape {
					continue
				}
				queue.SetTexture(unit, mat.Texture(unit))
			}
		}
		r.lastMaterial = mat
		r.lastMatHash = matHash
	}

	object := objectKey{drawable: b.Drawable, index: b.SourceBatchIndex}
	if queue.BeginShaderParameterGroup(graphics.GroupObject, !r.objectSent || object != r.lastObject) {
		model := b.SourceBatch().WorldTransform
		queue.AddShaderParameter(ParamModel, model[:])
		queue.CommitShaderParameterGroup(graphics.GroupObject)
		r.lastObject = object
		r.objectSent = true
	}

	queue.DrawGeometry(b.Geometry)
	return true
}

func (r *BatchRenderer) addCameraParameters(queue *DrawCommandQueue, cam camera.Camera) {
	view := cam.View()
	viewInv := cam.EffectiveWorldTransform()
	viewProj := cam.GPUProjection(r.openGL).Mul4(view)
	near, far := cam.Near(), cam.Far()
	pos := cam.Position()

	var depthMode mgl32.Vec4
	if cam.Orthographic() {
		depthMode[0] = 1
		if r.openGL {
			depthMode[2], depthMode[3] = 0.5, 0.5
		} else {
			depthMode[2] = 1
		}
	} else {
		depthMode[3] = 1 / far
	}

	depthReconstruct := mgl32.Vec4{far / (far - near), -near / (far - near), 0, 1}
	if cam.Orthographic() {
		depthReconstruct[2], depthReconstruct[3] = 1, 0
	}
	_, farSize := cam.FrustumSize()

	queue.AddShaderParameter(ParamCameraPos, pos[:])
	queue.AddShaderParameter(ParamViewInv, viewInv[:])
	queue.AddShaderParameter(ParamView, view[:])
	queue.AddShaderParameter(ParamNearClip, []float32{near})
	queue.AddShaderParameter(ParamFarClip, []float32{far})
	queue.AddShaderParameter(ParamDepthMode, depthMode[:])
	queue.AddShaderParameter(ParamDepthReconstruct, depthReconstruct[:])
	queue.AddShaderParameter(ParamFrustumSize, farSize[:])
	queue.AddShaderParameter(ParamViewProj, viewProj[:])
}

func (r *BatchRenderer) addLightParameters(queue *DrawCommandQueue, sl *light.SceneLight, vertexLights []batch.LightEntry) {
	if sl != nil {
		p := sl.ShaderParameters()
		lightPos := p.Position.Vec4(p.InvRange)
		lightColor := p.Color.Vec4(p.SpecularIntensity)
		lightRad := mgl32.Vec4{p.Radius, p.Length, 0, 0}

		queue.AddShaderParameter(ParamLightPos, lightPos[:])
		queue.AddShaderParameter(ParamLightDir, p.Direction[:])
		queue.AddShaderParameter(ParamLightColor, lightColor[:])
		queue.AddShaderParameter(ParamLightRad, lightRad[:])
		queue.AddShaderParameter(ParamShadowCubeAdjust, p.ShadowCubeAdjust[:])
		queue.AddShaderParameter(ParamShadowDepthFade, p.ShadowDepthFade[:])
		queue.AddShaderParameter(ParamShadowIntensity, p.ShadowIntensity[:])
		queue.AddShaderParameter(ParamShadowMapInvSize, p.ShadowMapInvSize[:])
		queue.AddShaderParameter(ParamShadowSplits, p.ShadowSplits[:])
		queue.AddShaderParameter(ParamNormalOffsetScale, p.NormalOffsetScale[:])
		queue.AddShaderParameter(ParamLightMatrices, r.lightMatrices(sl, p))
	}

	lights := r.collector.VisibleLights()
	clear(r.vertexLights[:])
	for i, entry := range vertexLights {
		if i >= batch.MaxVertexLights || entry.Index >= len(lights) {
			break
		}
		p := lights[entry.Index].ShaderParameters()
		r.vertexLights[i*3] = p.Color.Vec4(p.InvRange)
		r.vertexLights[i*3+1] = p.Direction.Vec4(p.Cutoff)
		r.vertexLights[i*3+2] = p.Position.Vec4(p.InvCutoff)
	}
	queue.AddShaderParameter(ParamVertexLights, r.vec4Floats(r.vertexLights[:]))
}

// lightMatrices packs the matrices a pixel light samples with: every cascade for
// directional lights, the shape projection followed by the shadow projection for
// spot lights and the shape projection for point lights.
func (r *BatchRenderer) lightMatrices(sl *light.SceneLight, p *light.ShaderParameters) []float32 {
	n := 0
	switch sl.Light().Type() {
	case light.LightTypeDirectional:
		n = copy(r.matrices[:], p.ShadowMatrices[:])
	case light.LightTypeSpot:
		r.matrices[0] = p.SpotMatrix
		r.matrices[1] = p.ShadowMatrices[0]
		n = 2
	default:
		r.matrices[0] = p.SpotMatrix
		n = 1
	}
	r.floats = r.floats[:0]
	for _, m := range r.matrices[:n] {
		r.floats = append(r.floats, m[:]...)
	}
	return r.floats
}

// vec4Floats flattens vs into the renderer scratch buffer. The storage copies the
// values, so the buffer is reused by the next call.
func (r *BatchRenderer) vec4Floats(vs []mgl32.Vec4) []float32 {
	r.floats = r.floats[:0]
	for _, v := range vs {
		r.floats = append(r.floats, v[:]...)
	}
	return r.floats
}

func vertexLightsHash(entries []batch.LightEntry) uint32 {
	var hash uint32
	for _, e := range entries {
		common.CombineHash(&hash, uint32(e.Index)+1)
	}
	return hash
}
