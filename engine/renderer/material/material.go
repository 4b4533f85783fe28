package material

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// Shader parameter names every material carries.
const (
	ParamDiffColor     = "MatDiffColor"
	ParamEmissiveColor = "MatEmissiveColor"
	ParamSpecColor     = "MatSpecColor"
	ParamRoughness     = "Roughness"
	ParamMetallic      = "Metallic"
)

var nextMaterialID atomic.Uint32

// TechniqueEntry is one technique candidate of a material. Candidates are tried in
// order; an entry applies when the material quality and the drawable's LOD distance
// reach its thresholds.
type TechniqueEntry struct {
	Technique    *Technique
	QualityLevel int
	LodDistance  float32
}

// material is the implementation of the Material interface.
type material struct {
	mu *sync.RWMutex

	id             uint32
	name           string
	techniques     []TechniqueEntry
	parameters     []graphics.ShaderParameterValue
	textures       [graphics.MaxTextureUnits]*graphics.Texture
	cullMode       graphics.CullMode
	shadowCullMode graphics.CullMode
	fillMode       graphics.FillMode
	depthBias      graphics.BiasParameters
	vertexDefines  string
	pixelDefines   string

	pipelineHash  atomic.Uint32
	parameterHash atomic.Uint32
}

// Material defines the interface for a render material: technique candidates, shader
// parameters, textures and the rasterizer state it imposes on its batches.
//
// Setters are meant for load time and between frames. PipelineStateHash and
// ShaderParameterHash are safe to call from batch workers at any time; a changed
// pipeline hash invalidates cached pipeline states built from the material.
type Material interface {
	// ID returns a process-unique identifier used to order batches.
	//
	// Returns:
	//   - uint32: the material id
	ID() uint32

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Techniques returns the technique candidates in priority order.
	//
	// Returns:
	//   - []TechniqueEntry: the candidates
	Techniques() []TechniqueEntry

	// SetTechniques replaces the technique candidates.
	//
	// Parameters:
	//   - entries: the candidates in priority order
	SetTechniques(entries ...TechniqueEntry)

	// ShaderParameters returns the material shader parameters in insertion order.
	//
	// Returns:
	//   - []graphics.ShaderParameterValue: the parameters
	ShaderParameters() []graphics.ShaderParameterValue

	// SetShaderParameter adds or replaces a shader parameter. Values are vec4-padded
	// by the renderer when uploaded.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the parameter components
	SetShaderParameter(name string, value ...float32)

	// ShaderParameterHash returns a hash of every shader parameter and texture.
	//
	// Returns:
	//   - uint32: the hash
	ShaderParameterHash() uint32

	// Texture returns the texture bound to unit, or nil.
	//
	// Parameters:
	//   - unit: the texture unit
	//
	// Returns:
	//   - *graphics.Texture: the texture or nil
	Texture(unit graphics.TextureUnit) *graphics.Texture

	// SetTexture binds a texture to unit. Out of range units are ignored.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - tex: the texture, nil to unbind
	SetTexture(unit graphics.TextureUnit, tex *graphics.Texture)

	CullMode() graphics.CullMode
	ShadowCullMode() graphics.CullMode
	FillMode() graphics.FillMode
	DepthBias() graphics.BiasParameters

	// SetRenderState replaces the rasterizer state of the material.
	//
	// Parameters:
	//   - cull: cull mode for color passes
	//   - shadowCull: cull mode for the shadow pass
	//   - fill: fill mode
	//   - bias: constant and slope-scaled depth bias
	SetRenderState(cull, shadowCull graphics.CullMode, fill graphics.FillMode, bias graphics.BiasParameters)

	// ShaderDefines returns the vertex and pixel shader defines added to every pass.
	//
	// Returns:
	//   - string: vertex shader defines
	//   - string: pixel shader defines
	ShaderDefines() (vs, ps string)

	// SetShaderDefines replaces the material shader defines.
	//
	// Parameters:
	//   - vs: vertex shader defines
	//   - ps: pixel shader defines
	SetShaderDefines(vs, ps string)

	// PipelineStateHash returns the hash of everything the material contributes to a
	// pipeline state.
	//
	// Returns:
	//   - uint32: the hash
	PipelineStateHash() uint32
}

var _ Material = &material{}

// NewMaterial creates a new Material with the default lit solid technique, a white
// diffuse color and counter-clockwise culling.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:             &sync.RWMutex{},
		id:             nextMaterialID.Add(1),
		cullMode:       graphics.CullCCW,
		shadowCullMode: graphics.CullCCW,
		fillMode:       graphics.FillSolid,
	}
	m.setParameter(ParamDiffColor, 1, 1, 1, 1)
	m.setParameter(ParamEmissiveColor, 0, 0, 0)
	m.setParameter(ParamSpecColor, 0, 0, 0, 1)
	m.setParameter(ParamRoughness, 1)
	m.setParameter(ParamMetallic, 0)

	for _, opt := range options {
		opt(m)
	}
	if len(m.techniques) == 0 {
		m.techniques = []TechniqueEntry{{Technique: NewLitSolidTechnique(m.textures[graphics.TextureDiffuse] != nil)}}
	}
	m.updatePipelineHash()
	m.updateParameterHash()
	return m
}

var (
	defaultMaterial     Material
	defaultMaterialOnce sync.Once
)

// Default returns the shared material used for source batches without one.
//
// Returns:
//   - Material: the default material
func Default() Material {
	defaultMaterialOnce.Do(func() {
		defaultMaterial = NewMaterial(WithName("Default"))
	})
	return defaultMaterial
}

func (m *material) ID() uint32   { return m.id }
func (m *material) Name() string { return m.name }

func (m *material) Techniques() []TechniqueEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.techniques
}

func (m *material) SetTechniques(entries ...TechniqueEntry) {
	m.mu.Lock()
	m.techniques = entries
	m.mu.Unlock()
}

func (m *material) ShaderParameters() []graphics.ShaderParameterValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parameters
}

func (m *material) SetShaderParameter(name string, value ...float32) {
	m.mu.Lock()
	m.setParameter(name, value...)
	m.mu.Unlock()
	m.updateParameterHash()
}

// setParameter copies the parameter slice so readers holding the old one are not
// affected.
func (m *material) setParameter(name string, value ...float32) {
	data := append([]float32(nil), value...)
	params := make([]graphics.ShaderParameterValue, 0, len(m.parameters)+1)
	replaced := false
	for _, p := range m.parameters {
		if p.Name == name {
			p.Data = data
			replaced = true
		}
		params = append(params, p)
	}
	if !replaced {
		params = append(params, graphics.ShaderParameterValue{Name: name, Data: data})
	}
	m.parameters = params
}

func (m *material) ShaderParameterHash() uint32 {
	return m.parameterHash.Load()
}

func (m *material) Texture(unit graphics.TextureUnit) *graphics.Texture {
	if unit >= graphics.MaxTextureUnits {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.textures[unit]
}

func (m *material) SetTexture(unit graphics.TextureUnit, tex *graphics.Texture) {
	if unit >= graphics.MaxTextureUnits {
		return
	}
	m.mu.Lock()
	m.textures[unit] = tex
	m.mu.Unlock()
	m.updateParameterHash()
}

func (m *material) CullMode() graphics.CullMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cullMode
}

func (m *material) ShadowCullMode() graphics.CullMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shadowCullMode
}

func (m *material) FillMode() graphics.FillMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fillMode
}

func (m *material) DepthBias() graphics.BiasParameters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.depthBias
}

func (m *material) SetRenderState(cull, shadowCull graphics.CullMode, fill graphics.FillMode, bias graphics.BiasParameters) {
	m.mu.Lock()
	m.cullMode = cull
	m.shadowCullMode = shadowCull
	m.fillMode = fill
	m.depthBias = bias
	m.mu.Unlock()
	m.updatePipelineHash()
}

func (m *material) ShaderDefines() (vs, ps string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vertexDefines, m.pixelDefines
}

func (m *material) SetShaderDefines(vs, ps string) {
	m.mu.Lock()
	m.vertexDefines = vs
	m.pixelDefines = ps
	m.mu.Unlock()
	m.updatePipelineHash()
}

func (m *material) PipelineStateHash() uint32 {
	return m.pipelineHash.Load()
}

func (m *material) updatePipelineHash() {
	m.mu.RLock()
	var hash uint32
	common.CombineHash(&hash, uint32(m.cullMode))
	common.CombineHash(&hash, uint32(m.shadowCullMode))
	common.CombineHash(&hash, uint32(m.fillMode))
	common.CombineHash(&hash, m.depthBias.Hash())
	common.CombineHash(&hash, common.HashString(m.vertexDefines))
	common.CombineHash(&hash, common.HashString(m.pixelDefines))
	m.mu.RUnlock()
	m.pipelineHash.Store(hash)
}

func (m *material) updateParameterHash() {
	m.mu.RLock()
	var hash uint32
	for _, p := range m.parameters {
		common.CombineHash(&hash, common.HashString(p.Name))
		for _, v := range p.Data {
			common.CombineHash(&hash, common.HashFloat(v))
		}
	}
	for unit, tex := range m.textures {
		if tex != nil {
			common.CombineHash(&hash, uint32(unit))
			common.CombineHash(&hash, tex.ID())
		}
	}
	m.mu.RUnlock()
	m.parameterHash.Store(hash)
}
