package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexBufferLayoutsSplitsBuffers(t *testing.T) {
	vertex := graphics.NewVertexBuffer([]graphics.VertexElement{
		{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition},
		{Type: graphics.TypeVector3, Semantic: graphics.SemanticNormal},
		{Type: graphics.TypeVector2, Semantic: graphics.SemanticTexCoord},
	}, nil, false)
	instance := graphics.NewVertexBuffer([]graphics.VertexElement{
		{Type: graphics.TypeVector4, Semantic: graphics.SemanticTexCoord, Index: 4, PerInstance: true},
	}, nil, true)
	elements := append(append([]graphics.VertexElement{}, vertex.Elements()...), instance.Elements()...)

	inputs := []shader.VertexInput{
		{Name: "texcoord", Location: 2},
		{Name: "position", Location: 0},
		{Name: "texcoord4", Location: 3},
	}
	layouts, err := vertexBufferLayouts(elements, inputs)
	require.NoError(t, err)
	require.Len(t, layouts, 2)

	assert.Equal(t, uint64(32), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
	require.Len(t, layouts[0].Attributes, 2)
	assert.Equal(t, uint32(0), layouts[0].Attributes[0].ShaderLocation)
	assert.Equal(t, uint64(24), layouts[0].Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[1].Format)

	assert.Equal(t, uint64(16), layouts[1].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layouts[1].StepMode)
	require.Len(t, layouts[1].Attributes, 1)
	assert.Equal(t, uint32(3), layouts[1].Attributes[0].ShaderLocation)
}

func TestVertexBufferLayoutsMissingInput(t *testing.T) {
	elements := graphics.NewVertexBuffer([]graphics.VertexElement{
		{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition},
	}, nil, false).Elements()

	_, err := vertexBufferLayouts(elements, []shader.VertexInput{{Name: "normal", Location: 1}})
	assert.ErrorContains(t, err, "normal")

	_, err = vertexBufferLayouts(elements, []shader.VertexInput{{Name: "bogus", Location: 1}})
	assert.ErrorContains(t, err, "bogus")
}

const groupsVertexSource = `
struct Camera { viewProj: mat4x4<f32> }
struct Object { model: mat4x4<f32> }
@group(0) @binding(0) var<uniform> camera: Camera;
@group(2) @binding(0) var<uniform> object: Object;

struct VertexInput { @location(0) position: vec3<f32> }

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return camera.viewProj * object.model * vec4<f32>(in.position, 1.0);
}
`

const groupsPixelSource = `
struct Material { matDiffColor: vec4<f32> }
@group(1) @binding(0) var<uniform> material: Material;
@group(1) @binding(1) var diffuseMap: texture_2d<f32>;
@group(1) @binding(2) var diffuseSampler: sampler;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return material.matDiffColor * textureSample(diffuseMap, diffuseSampler, vec2<f32>(0.0));
}
`

func TestPipelineGroupsMapsBindings(t *testing.T) {
	vs, err := shader.Reflect(groupsVertexSource, graphics.VertexShader)
	require.NoError(t, err)
	fs, err := shader.Reflect(groupsPixelSource, graphics.PixelShader)
	require.NoError(t, err)

	groups, err := pipelineGroups(vs, fs)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	require.Len(t, groups[0].uniforms, 1)
	assert.Equal(t, graphics.GroupCamera, groups[0].uniforms[0].paramGroup)

	require.Len(t, groups[1].uniforms, 1)
	assert.Equal(t, graphics.GroupMaterial, groups[1].uniforms[0].paramGroup)
	require.Len(t, groups[1].resources, 2)
	assert.Equal(t, graphics.TextureDiffuse, groups[1].resources[0].unit)
	assert.False(t, groups[1].resources[0].sampler)
	assert.True(t, groups[1].resources[1].sampler)
	assert.Equal(t, []uint32{0}, groups[1].provider.DynamicBindings())

	assert.Equal(t, graphics.GroupObject, groups[2].uniforms[0].paramGroup)
}

func TestPipelineGroupsRejectsUnknownNames(t *testing.T) {
	vs, err := shader.Reflect(groupsVertexSource, graphics.VertexShader)
	require.NoError(t, err)
	fs, err := shader.Reflect(`
@group(1) @binding(1) var mysteryMap: texture_2d<f32>;
@fragment
fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`, graphics.PixelShader)
	require.NoError(t, err)

	_, err = pipelineGroups(vs, fs)
	assert.ErrorContains(t, err, "mysteryMap")
}

func TestSamplerUnit(t *testing.T) {
	unit, ok := samplerUnit("shadowSampler")
	require.True(t, ok)
	assert.Equal(t, graphics.TextureShadowMap, unit)

	unit, ok = samplerUnit("diffuseMapSampler")
	require.True(t, ok)
	assert.Equal(t, graphics.TextureDiffuse, unit)

	_, ok = samplerUnit("diffuseMap")
	assert.False(t, ok)
}

func TestClampRect(t *testing.T) {
	size := common.IntVector2{X: 100, Y: 50}
	assert.Equal(t, common.NewIntRect(0, 0, 100, 50), clampRect(common.NewIntRect(-10, -10, 200, 200), size))
	assert.Equal(t, common.NewIntRect(10, 10, 20, 20), clampRect(common.NewIntRect(10, 10, 20, 20), size))

	r := clampRect(common.IntRect{Left: 90, Top: 10, Right: 80, Bottom: 5}, size)
	assert.Equal(t, 0, r.Width())
	assert.Equal(t, 0, r.Height())
}

func TestPadded(t *testing.T) {
	assert.Len(t, padded([]byte{1, 2, 3, 4}), 4)
	p := padded([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, p)
}
