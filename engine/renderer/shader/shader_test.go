package shader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefines(t *testing.T) {
	defines := ParseDefines("  SKINNED NUMLIGHTS=4  DIFFMAP NUMLIGHTS=2 =bad")

	assert.Equal(t, ShaderDefines{{"SKINNED", ""}, {"NUMLIGHTS", "2"}, {"DIFFMAP", ""}}, defines)
	assert.True(t, defines.Has("DIFFMAP"))
	assert.False(t, defines.Has("NORMALMAP"))
	v, ok := defines.Value("NUMLIGHTS")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, "SKINNED NUMLIGHTS=2 DIFFMAP", defines.String())
	assert.Empty(t, ParseDefines(""))
}

func TestParseShaderVersion(t *testing.T) {
	v, err := ParseShaderVersion("gles3")
	require.NoError(t, err)
	assert.Equal(t, GLES3, v)

	_, err = ParseShaderVersion("metal")
	assert.Error(t, err)
}

func TestProcessGLSLPrependsHeaderAndDefines(t *testing.T) {
	fsys := fstest.MapFS{
		"LitSolid.glsl":        {Data: []byte("#include \"Uniforms.glsl\"\nvoid main() {}\n")},
		"Uniforms.glsl":        {Data: []byte("#include <Common/Samplers.glsl>\nuniform vec4 cMatDiffColor;\n")},
		"Common/Samplers.glsl": {Data: []byte("uniform sampler2D sDiffMap;\n")},
	}
	pp := NewPreProcessor(fsys)

	res, err := pp.Process("LitSolid", graphics.PixelShader, GL3, ParseDefines("DIFFMAP NUMLIGHTS=4"))
	require.NoError(t, err)

	lines := strings.Split(res.Source, "\n")
	assert.Equal(t, "#version 150", lines[0])
	assert.Equal(t, "#define COMPILEPS", lines[1])
	assert.Equal(t, "#define GL3", lines[2])
	assert.Equal(t, "#define DIFFMAP", lines[3])
	assert.Equal(t, "#define NUMLIGHTS 4", lines[4])
	assert.Contains(t, res.Source, "uniform sampler2D sDiffMap;")
	assert.Less(t, strings.Index(res.Source, "sDiffMap"), strings.Index(res.Source, "void main"))
	assert.Equal(t, []string{"LitSolid.glsl", "Uniforms.glsl", "Common/Samplers.glsl"}, res.Files)
}

func TestProcessVersionHeaders(t *testing.T) {
	fsys := fstest.MapFS{"Basic.glsl": {Data: []byte("void main() {}\n")}}
	pp := NewPreProcessor(fsys)

	for version, header := range map[ShaderVersion]string{
		DX11:  "#version 450",
		GL2:   "#version 120",
		GLES2: "#version 100",
		GLES3: "#version 300 es",
	} {
		res, err := pp.Process("Basic", graphics.VertexShader, version, nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Source, header+"\n#define COMPILEVS\n"), version.String())
	}
}

func TestProcessDetectsIncludeCycle(t *testing.T) {
	fsys := fstest.MapFS{
		"A.glsl": {Data: []byte("#include \"B.glsl\"\n")},
		"B.glsl": {Data: []byte("#include \"A.glsl\"\n")},
	}
	_, err := NewPreProcessor(fsys).Process("A", graphics.VertexShader, GL3, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestProcessMissingFile(t *testing.T) {
	_, err := NewPreProcessor(fstest.MapFS{}).Process("Missing", graphics.VertexShader, GL3, nil)
	assert.Error(t, err)
}

func TestProcessWGSLEvaluatesConditionals(t *testing.T) {
	source := `#ifdef COMPILEVS
fn vs_only() {}
#else
fn ps_only() {}
#endif
#if defined(DIFFMAP) && !defined(ALPHAMASK)
fn diffuse() {}
#elif defined(ALPHAMASK)
fn masked() {}
#endif
#ifndef NORMALMAP
fn flat_normal() {}
#endif
#define LOCAL
#if LOCAL || 0
fn local() {}
#endif
`
	fsys := fstest.MapFS{"LitSolid.wgsl": {Data: []byte(source)}}
	res, err := NewPreProcessor(fsys).Process("LitSolid", graphics.PixelShader, WGSL, ParseDefines("DIFFMAP NUMLIGHTS=4 SCALE=0.5"))
	require.NoError(t, err)

	assert.Contains(t, res.Source, "const NUMLIGHTS: i32 = 4;")
	assert.Contains(t, res.Source, "const SCALE: f32 = 0.5;")
	assert.NotContains(t, res.Source, "vs_only")
	assert.Contains(t, res.Source, "ps_only")
	assert.Contains(t, res.Source, "diffuse")
	assert.NotContains(t, res.Source, "masked")
	assert.Contains(t, res.Source, "flat_normal")
	assert.Contains(t, res.Source, "local")
	assert.NotContains(t, res.Source, "#")
}

func TestEvaluateConditionalsRejectsUnbalancedBlocks(t *testing.T) {
	_, err := evaluateConditionals("#ifdef A\nfoo\n", nil)
	assert.Error(t, err)
	_, err = evaluateConditionals("#endif\n", nil)
	assert.Error(t, err)
	_, err = evaluateConditionals("#ifdef A\n#else\n#else\n#endif\n", nil)
	assert.Error(t, err)
}

func TestEvaluateConditionalsNested(t *testing.T) {
	source := "#ifdef A\n#ifdef B\nab\n#else\na\n#endif\n#else\n#ifdef B\nb\n#endif\nnone\n#endif\n"

	out, err := evaluateConditionals(source, ParseDefines("A"))
	require.NoError(t, err)
	assert.Equal(t, "a\n", out)

	out, err = evaluateConditionals(source, ParseDefines("B"))
	require.NoError(t, err)
	assert.Equal(t, "b\nnone\n", out)
}

func TestShaderCacheCachesPerVariation(t *testing.T) {
	fsys := fstest.MapFS{
		"Basic.glsl":     {Data: []byte("#include \"Common.glsl\"\nvoid main() {}\n")},
		"Common.glsl":    {Data: []byte("// common\n")},
		"Unrelated.glsl": {Data: []byte("void main() {}\n")},
	}
	var invalidated []string
	cache := NewShaderCache(fsys, WithInvalidateCallback(func(files []string) {
		invalidated = append(invalidated, files...)
	}))
	ctx := context.Background()

	first, err := cache.GetShaderSource(ctx, "Basic", graphics.VertexShader, GL3, ParseDefines("A"))
	require.NoError(t, err)
	_, err = cache.GetShaderSource(ctx, "Basic", graphics.VertexShader, GL3, ParseDefines("A"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.GetShaderSource(ctx, "Basic", graphics.PixelShader, GL3, ParseDefines("A"))
	require.NoError(t, err)
	_, err = cache.GetShaderSource(ctx, "Basic", graphics.VertexShader, GL3, ParseDefines("B"))
	require.NoError(t, err)
	_, err = cache.GetShaderSource(ctx, "Unrelated", graphics.VertexShader, GL3, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cache.Len())
	assert.Contains(t, first, "#define A")

	assert.Equal(t, 3, cache.Invalidate("Common.glsl"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, []string{"Common.glsl"}, invalidated)

	cache.InvalidateAll()
	assert.Zero(t, cache.Len())
}

func TestShaderCacheWatchFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"lib/Common.glsl": {Data: []byte("// common\n")},
		"Basic.glsl":      {Data: []byte("#include \"lib/Common.glsl\"\nvoid main() {}\n")},
	}
	cache := NewShaderCache(fsys, WithWatchFilter("**.glsl")).(*shaderCache)
	_, err := cache.GetShaderSource(context.Background(), "Basic", graphics.VertexShader, GL3, nil)
	require.NoError(t, err)

	assert.Zero(t, cache.fileChanged("lib/Common.glsl.swp"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, cache.fileChanged("lib/Common.glsl"))
	assert.Zero(t, cache.Len())

	assert.Panics(t, func() { WithWatchFilter("[") })
}

type fakeConverter struct {
	calls int
	err   error
}

func (f *fakeConverter) ConvertGLSLToHLSL(_ context.Context, stage graphics.ShaderType, source string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "// hlsl " + stage.String() + "\n" + source, nil
}

func TestShaderCacheConvertsDX11(t *testing.T) {
	fsys := fstest.MapFS{"Basic.glsl": {Data: []byte("void main() {}\n")}}
	conv := &fakeConverter{}
	cache := NewShaderCache(fsys, WithConverter(conv))

	source, err := cache.GetShaderSource(context.Background(), "Basic", graphics.PixelShader, DX11, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(source, "// hlsl PS\n#version 450\n"))

	_, err = cache.GetShaderSource(context.Background(), "Basic", graphics.PixelShader, DX11, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, conv.calls)
}

func TestShaderCacheDoesNotCacheFailures(t *testing.T) {
	fsys := fstest.MapFS{"Basic.glsl": {Data: []byte("void main() {}\n")}}
	conv := &fakeConverter{err: errors.New("syntax error")}
	cache := NewShaderCache(fsys, WithConverter(conv))

	_, err := cache.GetShaderSource(context.Background(), "Basic", graphics.VertexShader, DX11, nil)
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	_, err = NewShaderCache(fsys).GetShaderSource(context.Background(), "Basic", graphics.VertexShader, DX11, nil)
	assert.Error(t, err)
}

func TestConverterRunsBothTools(t *testing.T) {
	var commands [][]string
	conv := NewShaderConverter(
		WithTempDir(t.TempDir()),
		WithGLSLangCommand(`glslangValidator -G -S {stage} -o "{output}" {input}`),
		WithCommandRunner(func(_ context.Context, name string, args []string) ([]byte, error) {
			commands = append(commands, append([]string{name}, args...))
			output := args[len(args)-2]
			if name == "spirv-cross" {
				return nil, os.WriteFile(output, []byte("float4 main() : SV_Target { return 1; }"), 0o644)
			}
			return nil, os.WriteFile(output, []byte{0x03, 0x02, 0x23, 0x07}, 0o644)
		}),
	)

	hlsl, err := conv.ConvertGLSLToHLSL(context.Background(), graphics.PixelShader, "#version 450\nvoid main() {}\n")
	require.NoError(t, err)
	assert.Contains(t, hlsl, "SV_Target")

	require.Len(t, commands, 2)
	assert.Equal(t, "glslangValidator", commands[0][0])
	assert.Equal(t, "frag", commands[0][3])
	assert.Equal(t, "shader.spv", filepath.Base(commands[0][5]))
	assert.Equal(t, "shader.frag", filepath.Base(commands[0][6]))
	assert.Equal(t, []string{"spirv-cross", "--hlsl", "--shader-model", "50"}, commands[1][:4])
}

func TestConverterWrapsToolOutput(t *testing.T) {
	conv := NewShaderConverter(
		WithTempDir(t.TempDir()),
		WithCommandRunner(func(context.Context, string, []string) ([]byte, error) {
			return []byte("ERROR: 0:2: 'foo' : undeclared identifier\n"), errors.New("exit status 2")
		}),
	)

	_, err := conv.ConvertGLSLToHLSL(context.Background(), graphics.VertexShader, "void main() {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glslangValidator failed")
	assert.Contains(t, err.Error(), "undeclared identifier")
}

func TestConverterRejectsBadCommandLine(t *testing.T) {
	conv := NewShaderConverter(WithTempDir(t.TempDir()), WithGLSLangCommand(`glslangValidator "unterminated`))
	_, err := conv.ConvertGLSLToHLSL(context.Background(), graphics.VertexShader, "void main() {}")
	assert.Error(t, err)
}

const reflectSource = `
struct VertexInput {
    @location(0) position: vec3f,
    @location(2) texcoord0: vec2f,
    @location(1) normal: vec3f,
}

struct VertexOutput {
    @builtin(position) clip: vec4f,
    @location(0) uv: vec2f,
}

struct CameraUniforms {
    viewProj: mat4x4f,
    cameraPos: vec3f,
    nearClip: f32,
    depthMode: vec4f,
}

struct ObjectUniforms {
    model: mat4x4f,
    skinMatrices: array<mat4x4f, 4>,
    tint: vec3f,
}

@group(0) @binding(1) var<uniform> camera: CameraUniforms;
@group(0) @binding(5) var<uniform> object: ObjectUniforms;
@group(1) @binding(0) var diffuseMap: texture_2d<f32>;
@group(1) @binding(1) var diffuseMapSampler: sampler;
@group(1) @binding(2) var shadowMap: texture_depth_2d;

/* unused block
@vertex fn commented() {}
*/
@vertex
fn vs_main(input: VertexInput, @builtin(instance_index) instance: u32) -> VertexOutput {
    var out: VertexOutput;
    return out;
}

@fragment
fn ps_main(in: VertexOutput) -> @location(0) vec4f {
    return vec4f(1.0);
}
`

func TestReflectVertexStage(t *testing.T) {
	r, err := Reflect(reflectSource, graphics.VertexShader)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", r.EntryPoint)
	require.Len(t, r.VertexInputs, 3)
	assert.Equal(t, "position", r.VertexInputs[0].Name)
	assert.Equal(t, "normal", r.VertexInputs[1].Name)
	assert.Equal(t, uint32(2), r.VertexInputs[2].Location)

	cam, ok := r.UniformBlock("camera")
	require.True(t, ok)
	assert.Equal(t, uint64(96), cam.Size)
	require.Len(t, cam.Members, 4)
	assert.Equal(t, uint64(64), cam.Members[1].Offset)
	assert.Equal(t, uint64(76), cam.Members[2].Offset)
	assert.Equal(t, uint64(80), cam.Members[3].Offset)

	obj, ok := r.UniformBlock("object")
	require.True(t, ok)
	assert.Equal(t, uint64(64), obj.Members[1].Offset)
	assert.Equal(t, uint64(256), obj.Members[1].Size)
	assert.Equal(t, uint64(320), obj.Members[2].Offset)
	assert.Equal(t, uint64(336), obj.Size)

	require.Len(t, r.Textures, 2)
	require.Len(t, r.Samplers, 1)
	assert.Len(t, r.BindGroupLayouts[0].Entries, 2)
	assert.Equal(t, uint32(1), r.BindGroupLayouts[0].Entries[0].Binding)
	assert.Len(t, r.BindGroupLayouts[1].Entries, 3)
}

func TestReflectFragmentStage(t *testing.T) {
	r, err := Reflect(reflectSource, graphics.PixelShader)
	require.NoError(t, err)
	assert.Equal(t, "ps_main", r.EntryPoint)
	assert.Empty(t, r.VertexInputs)

	_, err = Reflect("fn helper() {}", graphics.PixelShader)
	assert.Error(t, err)
}

func TestReflectionNameMappings(t *testing.T) {
	g, ok := ParameterGroupOf("camera")
	assert.True(t, ok)
	assert.Equal(t, graphics.GroupCamera, g)
	_, ok = ParameterGroupOf("bones")
	assert.False(t, ok)

	unit, ok := TextureUnitOf("shadowMap")
	assert.True(t, ok)
	assert.Equal(t, graphics.TextureShadowMap, unit)

	sem, index, ok := SemanticOf("texcoord1")
	assert.True(t, ok)
	assert.Equal(t, graphics.SemanticTexCoord, sem)
	assert.Equal(t, uint8(1), index)
	_, _, ok = SemanticOf("bogus")
	assert.False(t, ok)
}
