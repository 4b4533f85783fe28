package graphics

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDesc(r *Recorder) PipelineStateDesc {
	desc := DefaultPipelineStateDesc()
	desc.VertexElements = []VertexElement{
		{Type: TypeVector3, Semantic: SemanticPosition},
		{Type: TypeVector3, Semantic: SemanticNormal, Offset: 12},
	}
	desc.VertexShader = r.GetShader(VertexShader, "LitSolid", "PERPIXEL")
	desc.PixelShader = r.GetShader(PixelShader, "LitSolid", "PERPIXEL DIRLIGHT")
	desc.RecalculateHash()
	return desc
}

func TestPipelineStateDescHashAndEquality(t *testing.T) {
	r := NewRecorder()
	a := testDesc(r)
	b := testDesc(r)

	assert.NotZero(t, a.Hash())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.Equal(&b))

	b.CullMode = CullCW
	b.RecalculateHash()
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(&b))
}

func TestPipelineStateDescValidity(t *testing.T) {
	desc := DefaultPipelineStateDesc()
	assert.False(t, desc.IsValid())

	r := NewRecorder()
	_, err := r.CreatePipelineState(desc)
	assert.Error(t, err)

	desc = testDesc(r)
	assert.True(t, desc.IsValid())
	state, err := r.CreatePipelineState(desc)
	require.NoError(t, err)
	assert.Equal(t, desc.Hash(), state.Desc().Hash())
	assert.NotZero(t, state.ID())
	assert.Equal(t, 1, r.PipelineStatesCreated())
}

func TestRecorderInternsShaders(t *testing.T) {
	r := NewRecorder()
	a := r.GetShader(VertexShader, "Basic", "VERTEXCOLOR")
	b := r.GetShader(VertexShader, "Basic", "VERTEXCOLOR")
	c := r.GetShader(PixelShader, "Basic", "VERTEXCOLOR")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestRecorderShaderSourceFailure(t *testing.T) {
	r := NewRecorder(WithShaderSource(func(typ ShaderType, name, defines string) (string, error) {
		if name == "Missing" {
			return "", errors.New("not found")
		}
		return "// " + name, nil
	}))

	assert.Nil(t, r.GetShader(VertexShader, "Missing", ""))
	s := r.GetShader(VertexShader, "Basic", "")
	require.NotNil(t, s)
	assert.Equal(t, "// Basic", s.Source())
}

func TestRecorderCountsCalls(t *testing.T) {
	r := NewRecorder()
	r.SetShaderParameters(GroupCamera, []ShaderParameterValue{{Name: "View", Data: []float32{1, 2}}})
	r.SetShaderParameters(GroupObject, nil)
	r.DrawIndexed(0, 36, 0)

	assert.Equal(t, 1, r.ParameterUploads(GroupCamera))
	assert.Equal(t, 1, r.Count(OpDrawIndexed))
	calls := r.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []float32{1, 2}, calls[0].Params[0].Data)

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestVertexBufferLayout(t *testing.T) {
	vb := NewVertexBuffer([]VertexElement{
		{Type: TypeVector3, Semantic: SemanticPosition},
		{Type: TypeUByte4Norm, Semantic: SemanticColor},
		{Type: TypeVector2, Semantic: SemanticTexCoord},
	}, make([]byte, 24*3), false)

	assert.Equal(t, uint32(24), vb.VertexSize())
	assert.Equal(t, uint32(3), vb.VertexCount())
	assert.Equal(t, uint32(12), vb.Elements()[1].Offset)
	assert.Equal(t, uint32(16), vb.Elements()[2].Offset)
	assert.Equal(t, uint32(1), vb.Version())

	ib := NewIndexBuffer16([]uint16{0, 1, 2})
	assert.Equal(t, uint32(3), ib.Count())
	assert.Equal(t, Index16, IndexTypeOf(ib))
	assert.Equal(t, IndexNone, IndexTypeOf(nil))
}

func TestStateMappings(t *testing.T) {
	assert.Nil(t, BlendReplace.ToWGPU())
	require.NotNil(t, BlendAdd.ToWGPU())
	assert.Equal(t, wgpu.BlendFactorOne, BlendAdd.ToWGPU().Color.DstFactor)

	front, cull := CullCCW.ToWGPU()
	assert.Equal(t, wgpu.FrontFaceCW, front)
	assert.Equal(t, wgpu.CullModeBack, cull)
	_, cull = CullNone.ToWGPU()
	assert.Equal(t, wgpu.CullModeNone, cull)

	assert.Equal(t, CullCW, CullCCW.Flipped())
	assert.Equal(t, CullNone, CullNone.Flipped())
	assert.Equal(t, wgpu.CompareFunctionLessEqual, CompareLessEqual.ToWGPU())
	assert.True(t, FormatDepth32F.IsDepth())
}
