package pipeline

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// DescBuilderOption is a functional option applied to a PipelineStateDesc by NewDesc.
type DescBuilderOption func(*graphics.PipelineStateDesc)

// NewDesc builds a pipeline state description from the defaults of
// graphics.DefaultPipelineStateDesc and computes its hash.
//
// Parameters:
//   - opts: a variadic list of DescBuilderOption functions
//
// Returns:
//   - graphics.PipelineStateDesc: the hashed description
func NewDesc(opts ...DescBuilderOption) graphics.PipelineStateDesc {
	desc := graphics.DefaultPipelineStateDesc()
	for _, opt := range opts {
		opt(&desc)
	}
	desc.RecalculateHash()
	return desc
}

// WithVertexElements sets the vertex layout.
//
// Parameters:
//   - elements: the merged vertex elements of every vertex buffer
//
// Returns:
//   - DescBuilderOption: a function that sets the vertex layout
func WithVertexElements(elements []graphics.VertexElement) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.VertexElements = elements
	}
}

// WithShaders sets the vertex and pixel shaders.
//
// Parameters:
//   - vs: the vertex shader variation
//   - ps: the pixel shader variation
//
// Returns:
//   - DescBuilderOption: a function that sets both shaders
func WithShaders(vs, ps *graphics.ShaderVariation) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.VertexShader = vs
		d.PixelShader = ps
	}
}

// WithPrimitive sets the primitive topology and index format.
//
// Parameters:
//   - primitiveType: the primitive topology
//   - indexType: the index format, IndexNone for non-indexed geometry
//
// Returns:
//   - DescBuilderOption: a function that sets the input assembly state
func WithPrimitive(primitiveType graphics.PrimitiveType, indexType graphics.IndexType) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.PrimitiveType = primitiveType
		d.IndexType = indexType
	}
}

// WithDepth sets the depth test and depth write.
//
// Parameters:
//   - write: whether depth is written
//   - mode: the depth comparison
//
// Returns:
//   - DescBuilderOption: a function that sets the depth state
func WithDepth(write bool, mode graphics.CompareMode) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.DepthWrite = write
		d.DepthMode = mode
	}
}

// WithStencil enables the stencil test.
//
// Parameters:
//   - mode: the stencil comparison
//   - pass: the operation when both stencil and depth pass
//   - ref: the reference value
//
// Returns:
//   - DescBuilderOption: a function that enables stencil testing
func WithStencil(mode graphics.CompareMode, pass graphics.StencilOp, ref uint32) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.StencilEnabled = true
		d.StencilMode = mode
		d.StencilPass = pass
		d.StencilRef = ref
	}
}

// WithColorWrite sets whether color is written.
//
// Parameters:
//   - enabled: false for depth-only passes
//
// Returns:
//   - DescBuilderOption: a function that sets the color write state
func WithColorWrite(enabled bool) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.ColorWrite = enabled
	}
}

// WithBlendMode sets the blend mode.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - DescBuilderOption: a function that sets the blend mode
func WithBlendMode(mode graphics.BlendMode) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.BlendMode = mode
	}
}

// WithAlphaToCoverage sets whether alpha to coverage is used.
//
// Parameters:
//   - enabled: true to enable alpha to coverage
//
// Returns:
//   - DescBuilderOption: a function that sets alpha to coverage
func WithAlphaToCoverage(enabled bool) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.AlphaToCoverage = enabled
	}
}

// WithRasterizer sets the fill and cull modes.
//
// Parameters:
//   - fill: the polygon fill mode
//   - cull: the face culling mode
//
// Returns:
//   - DescBuilderOption: a function that sets the rasterizer state
func WithRasterizer(fill graphics.FillMode, cull graphics.CullMode) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.FillMode = fill
		d.CullMode = cull
	}
}

// WithDepthBias sets the constant and slope-scaled depth bias.
//
// Parameters:
//   - bias: the bias parameters
//
// Returns:
//   - DescBuilderOption: a function that sets the depth bias
func WithDepthBias(bias graphics.BiasParameters) DescBuilderOption {
	return func(d *graphics.PipelineStateDesc) {
		d.ConstantDepthBias = bias.ConstantBias
		d.SlopeScaledDepthBias = bias.SlopeScaledBias
	}
}
