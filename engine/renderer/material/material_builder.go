package material

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.setParameter(ParamDiffColor, color[:]...)
	}
}

// WithEmissiveColor is an option builder that sets the emissive RGB color of the material.
//
// Parameters:
//   - color: the emissive color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissiveColor(color [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.setParameter(ParamEmissiveColor, color[:]...)
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.setParameter(ParamMetallic, metallic)
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.setParameter(ParamRoughness, roughness)
	}
}

// WithShaderParameter is an option builder that adds a custom shader parameter.
//
// Parameters:
//   - name: the parameter name
//   - value: the parameter components
//
// Returns:
//   - MaterialBuilderOption: a function that applies the parameter to a material
func WithShaderParameter(name string, value ...float32) MaterialBuilderOption {
	return func(m *material) {
		m.setParameter(name, value...)
	}
}

// WithTexture is an option builder that binds a texture to a unit.
//
// Parameters:
//   - unit: the texture unit
//   - tex: the texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(unit graphics.TextureUnit, tex *graphics.Texture) MaterialBuilderOption {
	return func(m *material) {
		if unit < graphics.MaxTextureUnits {
			m.textures[unit] = tex
		}
	}
}

// WithTechnique is an option builder that appends a technique candidate.
//
// Parameters:
//   - tech: the technique
//   - qualityLevel: the minimum material quality for this candidate
//   - lodDistance: the minimum LOD distance for this candidate
//
// Returns:
//   - MaterialBuilderOption: a function that appends the candidate to a material
func WithTechnique(tech *Technique, qualityLevel int, lodDistance float32) MaterialBuilderOption {
	return func(m *material) {
		m.techniques = append(m.techniques, TechniqueEntry{Technique: tech, QualityLevel: qualityLevel, LodDistance: lodDistance})
	}
}

// WithCullMode is an option builder that sets the cull modes for color and shadow passes.
//
// Parameters:
//   - cull: cull mode for color passes
//   - shadowCull: cull mode for the shadow pass
//
// Returns:
//   - MaterialBuilderOption: a function that applies the cull option to a material
func WithCullMode(cull, shadowCull graphics.CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.cullMode = cull
		m.shadowCullMode = shadowCull
	}
}

// WithFillMode is an option builder that sets the polygon fill mode.
//
// Parameters:
//   - fill: the fill mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the fill option to a material
func WithFillMode(fill graphics.FillMode) MaterialBuilderOption {
	return func(m *material) {
		m.fillMode = fill
	}
}

// WithDepthBias is an option builder that sets the constant and slope-scaled depth bias.
//
// Parameters:
//   - bias: the bias parameters, NormalOffset is ignored
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bias option to a material
func WithDepthBias(bias graphics.BiasParameters) MaterialBuilderOption {
	return func(m *material) {
		m.depthBias = bias
	}
}

// WithShaderDefines is an option builder that sets the material shader defines.
//
// Parameters:
//   - vs: vertex shader defines
//   - ps: pixel shader defines
//
// Returns:
//   - MaterialBuilderOption: a function that applies the defines to a material
func WithShaderDefines(vs, ps string) MaterialBuilderOption {
	return func(m *material) {
		m.vertexDefines = vs
		m.pixelDefines = ps
	}
}
