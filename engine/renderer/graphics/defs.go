// Package graphics is the GPU abstraction the batching core and the UI bridge draw through.
// It defines render state enums, resource descriptions, the pipeline state description
// used as a cache key and the Graphics device interface.
package graphics

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// BlendMode selects how fragment colors combine with the render target.
type BlendMode uint8

const (
	BlendReplace BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendAlpha
	BlendAddAlpha
	BlendPremulAlpha
	BlendInvDestAlpha
	BlendSubtract
	BlendSubtractAlpha
)

// CompareMode is a depth or stencil comparison function.
type CompareMode uint8

const (
	CompareAlways CompareMode = iota
	CompareEqual
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
)

// CullMode names the winding that gets culled.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullCCW
	CullCW
)

// Flipped returns the opposite winding. CullNone stays CullNone.
func (c CullMode) Flipped() CullMode {
	switch c {
	case CullCCW:
		return CullCW
	case CullCW:
		return CullCCW
	default:
		return c
	}
}

// FillMode selects triangle rasterization.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
	FillPoint
)

// StencilOp is an operation applied to the stencil buffer.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilRef
	StencilIncr
	StencilDecr
)

// PrimitiveType is the topology of a draw call.
type PrimitiveType uint8

const (
	TriangleList PrimitiveType = iota
	LineList
	PointList
	TriangleStrip
	LineStrip
)

// TextureFormat is the pixel format of a texture.
type TextureFormat uint8

const (
	FormatRGBA8 TextureFormat = iota
	FormatR8
	FormatRGBA16F
	FormatDepth32F
	FormatDepth24Stencil8
)

// IsDepth reports whether the format is a depth(-stencil) format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32F || f == FormatDepth24Stencil8
}

// BytesPerPixel returns the size of one texel, or 0 for depth formats.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8:
		return 4
	case FormatR8:
		return 1
	case FormatRGBA16F:
		return 8
	default:
		return 0
	}
}

// ToWGPU maps the blend mode to a wgpu blend state. BlendReplace returns nil,
// which disables blending on the color target.
func (b BlendMode) ToWGPU() *wgpu.BlendState {
	component := func(src, dst wgpu.BlendFactor, op wgpu.BlendOperation) wgpu.BlendComponent {
		return wgpu.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: op}
	}
	switch b {
	case BlendAdd:
		c := component(wgpu.BlendFactorOne, wgpu.BlendFactorOne, wgpu.BlendOperationAdd)
		return &wgpu.BlendState{Color: c, Alpha: c}
	case BlendMultiply:
		c := component(wgpu.BlendFactorDst, wgpu.BlendFactorZero, wgpu.BlendOperationAdd)
		return &wgpu.BlendState{Color: c, Alpha: c}
	case BlendAlpha:
		return &wgpu.BlendState{
			Color: component(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOneMinusSrcAlpha, wgpu.BlendOperationAdd),
			Alpha: component(wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha, wgpu.BlendOperationAdd),
		}
	case BlendAddAlpha:
		return &wgpu.BlendState{
			Color: component(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOne, wgpu.BlendOperationAdd),
			Alpha: component(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOne, wgpu.BlendOperationAdd),
		}
	case BlendPremulAlpha:
		c := component(wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha, wgpu.BlendOperationAdd)
		return &wgpu.BlendState{Color: c, Alpha: c}
	case BlendInvDestAlpha:
		c := component(wgpu.BlendFactorOneMinusDstAlpha, wgpu.BlendFactorDstAlpha, wgpu.BlendOperationAdd)
		return &wgpu.BlendState{Color: c, Alpha: c}
	case BlendSubtract:
		c := component(wgpu.BlendFactorOne, wgpu.BlendFactorOne, wgpu.BlendOperationReverseSubtract)
		return &wgpu.BlendState{Color: c, Alpha: c}
	case BlendSubtractAlpha:
		c := component(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOne, wgpu.BlendOperationReverseSubtract)
		return &wgpu.BlendState{Color: c, Alpha: c}
	default:
		return nil
	}
}

// ToWGPU maps the comparison to a wgpu compare function.
func (c CompareMode) ToWGPU() wgpu.CompareFunction {
	switch c {
	case CompareEqual:
		return wgpu.CompareFunctionEqual
	case CompareNotEqual:
		return wgpu.CompareFunctionNotEqual
	case CompareLess:
		return wgpu.CompareFunctionLess
	case CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case CompareGreater:
		return wgpu.CompareFunctionGreater
	case CompareGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

// ToWGPU maps the cull mode to a wgpu front face and cull mode pair. The culled
// winding is always expressed as the back face.
func (c CullMode) ToWGPU() (wgpu.FrontFace, wgpu.CullMode) {
	switch c {
	case CullCCW:
		return wgpu.FrontFaceCW, wgpu.CullModeBack
	case CullCW:
		return wgpu.FrontFaceCCW, wgpu.CullModeBack
	default:
		return wgpu.FrontFaceCCW, wgpu.CullModeNone
	}
}

// ToWGPU maps the stencil operation to wgpu.
func (s StencilOp) ToWGPU() wgpu.StencilOperation {
	switch s {
	case StencilZero:
		return wgpu.StencilOperationZero
	case StencilRef:
		return wgpu.StencilOperationReplace
	case StencilIncr:
		return wgpu.StencilOperationIncrementWrap
	case StencilDecr:
		return wgpu.StencilOperationDecrementWrap
	default:
		return wgpu.StencilOperationKeep
	}
}

// ToWGPU maps the primitive type to a wgpu topology.
func (p PrimitiveType) ToWGPU() wgpu.PrimitiveTopology {
	switch p {
	case LineList:
		return wgpu.PrimitiveTopologyLineList
	case PointList:
		return wgpu.PrimitiveTopologyPointList
	case TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case LineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

// ToWGPU maps the texture format to wgpu.
func (f TextureFormat) ToWGPU() wgpu.TextureFormat {
	switch f {
	case FormatR8:
		return wgpu.TextureFormatR8Unorm
	case FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case FormatDepth32F:
		return wgpu.TextureFormatDepth32Float
	case FormatDepth24Stencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

// BiasParameters are depth bias settings shared by materials and shadowed lights.
// NormalOffset is only used by lights.
type BiasParameters struct {
	ConstantBias    float32
	SlopeScaledBias float32
	NormalOffset    float32
}

// Hash combines the bias values into a pipeline hash.
func (b BiasParameters) Hash() uint32 {
	var hash uint32
	common.CombineHash(&hash, common.HashFloat(b.ConstantBias))
	common.CombineHash(&hash, common.HashFloat(b.SlopeScaledBias))
	common.CombineHash(&hash, common.HashFloat(b.NormalOffset))
	return hash
}
