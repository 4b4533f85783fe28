package material

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// PassBuilderOption is a function that configures a pass.
type PassBuilderOption func(*Pass)

// WithShaders sets the vertex and pixel shader names of a pass.
func WithShaders(vs, ps string) PassBuilderOption {
	return func(p *Pass) {
		p.vertexShader = vs
		p.pixelShader = ps
	}
}

// WithDefines sets the vertex and pixel shader defines of a pass.
func WithDefines(vs, ps string) PassBuilderOption {
	return func(p *Pass) {
		p.vertexDefines = vs
		p.pixelDefines = ps
	}
}

func WithBlendMode(mode graphics.BlendMode) PassBuilderOption {
	return func(p *Pass) {
		p.blendMode = mode
	}
}

func WithDepthTest(mode graphics.CompareMode) PassBuilderOption {
	return func(p *Pass) {
		p.depthTest = mode
	}
}

func WithDepthWrite(enabled bool) PassBuilderOption {
	return func(p *Pass) {
		p.depthWrite = enabled
	}
}

func WithAlphaToCoverage(enabled bool) PassBuilderOption {
	return func(p *Pass) {
		p.alphaToCoverage = enabled
	}
}

func WithLightingMode(mode LightingMode) PassBuilderOption {
	return func(p *Pass) {
		p.lightingMode = mode
	}
}

// WithDesktopOnly marks a pass as requiring desktop-class hardware.
func WithDesktopOnly(desktopOnly bool) PassBuilderOption {
	return func(p *Pass) {
		p.desktopOnly = desktopOnly
	}
}
