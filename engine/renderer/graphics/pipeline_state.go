package graphics

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// PipelineStateDesc is a value description of the complete fixed-function and shader
// state of a draw call. It is the key of the pipeline state cache: identical
// descriptions must map to the same PipelineState.
//
// Call RecalculateHash after filling the fields; Hash and Equal rely on it.
type PipelineStateDesc struct {
	VertexElements []VertexElement

	VertexShader *ShaderVariation
	PixelShader  *ShaderVariation

	PrimitiveType PrimitiveType
	IndexType     IndexType

	DepthWrite       bool
	DepthMode        CompareMode
	StencilEnabled   bool
	StencilMode      CompareMode
	StencilPass      StencilOp
	StencilFail      StencilOp
	StencilDepthFail StencilOp
	StencilRef       uint32
	CompareMask      uint32
	WriteMask        uint32

	ColorWrite      bool
	BlendMode       BlendMode
	AlphaToCoverage bool

	FillMode             FillMode
	CullMode             CullMode
	ConstantDepthBias    float32
	SlopeScaledDepthBias float32

	hash uint32
}

// DefaultPipelineStateDesc returns a description with opaque, depth-tested,
// back-face culled defaults. Shaders and vertex layout must still be set.
func DefaultPipelineStateDesc() PipelineStateDesc {
	return PipelineStateDesc{
		DepthWrite:  true,
		DepthMode:   CompareLessEqual,
		StencilMode: CompareAlways,
		CompareMask: 0xff,
		WriteMask:   0xff,
		ColorWrite:  true,
		CullMode:    CullCCW,
	}
}

// RecalculateHash hashes every field and caches the result. A zero hash is
// reserved for "not computed" and is replaced by 1.
func (d *PipelineStateDesc) RecalculateHash() {
	hash := ElementsHash(d.VertexElements)

	common.CombineHash(&hash, d.VertexShader.Hash())
	common.CombineHash(&hash, d.PixelShader.Hash())

	common.CombineHash(&hash, uint32(d.PrimitiveType))
	common.CombineHash(&hash, uint32(d.IndexType))

	common.CombineHash(&hash, common.HashBool(d.DepthWrite))
	common.CombineHash(&hash, uint32(d.DepthMode))
	common.CombineHash(&hash, common.HashBool(d.StencilEnabled))
	common.CombineHash(&hash, uint32(d.StencilMode))
	common.CombineHash(&hash, uint32(d.StencilPass))
	common.CombineHash(&hash, uint32(d.StencilFail))
	common.CombineHash(&hash, uint32(d.StencilDepthFail))
	common.CombineHash(&hash, d.StencilRef)
	common.CombineHash(&hash, d.CompareMask)
	common.CombineHash(&hash, d.WriteMask)

	common.CombineHash(&hash, common.HashBool(d.ColorWrite))
	common.CombineHash(&hash, uint32(d.BlendMode))
	common.CombineHash(&hash, common.HashBool(d.AlphaToCoverage))

	common.CombineHash(&hash, uint32(d.FillMode))
	common.CombineHash(&hash, uint32(d.CullMode))
	common.CombineHash(&hash, common.HashFloat(d.ConstantDepthBias))
	common.CombineHash(&hash, common.HashFloat(d.SlopeScaledDepthBias))

	if hash == 0 {
		hash = 1
	}
	d.hash = hash
}

// Hash returns the cached hash, zero if RecalculateHash was never called.
func (d *PipelineStateDesc) Hash() uint32 {
	return d.hash
}

// IsValid reports whether both shaders are present.
func (d *PipelineStateDesc) IsValid() bool {
	return d.VertexShader != nil && d.PixelShader != nil
}

// Equal compares hashes first and then every field.
func (d *PipelineStateDesc) Equal(other *PipelineStateDesc) bool {
	if d.hash != other.hash {
		return false
	}
	return slices.Equal(d.VertexElements, other.VertexElements) &&
		d.VertexShader == other.VertexShader &&
		d.PixelShader == other.PixelShader &&
		d.PrimitiveType == other.PrimitiveType &&
		d.IndexType == other.IndexType &&
		d.DepthWrite == other.DepthWrite &&
		d.DepthMode == other.DepthMode &&
		d.StencilEnabled == other.StencilEnabled &&
		d.StencilMode == other.StencilMode &&
		d.StencilPass == other.StencilPass &&
		d.StencilFail == other.StencilFail &&
		d.StencilDepthFail == other.StencilDepthFail &&
		d.StencilRef == other.StencilRef &&
		d.CompareMask == other.CompareMask &&
		d.WriteMask == other.WriteMask &&
		d.ColorWrite == other.ColorWrite &&
		d.BlendMode == other.BlendMode &&
		d.AlphaToCoverage == other.AlphaToCoverage &&
		d.FillMode == other.FillMode &&
		d.CullMode == other.CullMode &&
		d.ConstantDepthBias == other.ConstantDepthBias &&
		d.SlopeScaledDepthBias == other.SlopeScaledDepthBias
}

// Clone returns a copy that owns its vertex element slice.
func (d *PipelineStateDesc) Clone() PipelineStateDesc {
	out := *d
	out.VertexElements = slices.Clone(d.VertexElements)
	return out
}

// PipelineState is a created GPU pipeline. Handle holds the backend object.
type PipelineState struct {
	id     uint32
	desc   PipelineStateDesc
	Handle any
}

// NewPipelineState wraps a backend pipeline object. Backends call this from
// Graphics.CreatePipelineState.
func NewPipelineState(desc PipelineStateDesc, handle any) *PipelineState {
	return &PipelineState{id: nextResourceID(), desc: desc, Handle: handle}
}

// ID returns a process-unique id, used to order batches by pipeline state.
func (p *PipelineState) ID() uint32 {
	if p == nil {
		return 0
	}
	return p.id
}

func (p *PipelineState) Desc() *PipelineStateDesc { return &p.desc }

// ShaderHash combines the hashes of both shaders.
func (p *PipelineState) ShaderHash() uint32 {
	var hash uint32
	common.CombineHash(&hash, p.desc.VertexShader.Hash())
	common.CombineHash(&hash, p.desc.PixelShader.Hash())
	return hash
}
