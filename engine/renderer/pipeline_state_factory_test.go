package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneKey(mat material.Material, passName string, geometryType scene.GeometryType) pipeline.SceneKey {
	tech := mat.Techniques()[0].Technique
	return pipeline.SceneKey{
		GeometryType: geometryType,
		Geometry:     newTriangle(),
		Material:     mat,
		Pass:         tech.Pass(passName),
	}
}

func TestFactoryLightDefines(t *testing.T) {
	gfx := graphics.NewRecorder()
	f := NewPipelineStateFactory(gfx)
	mat := material.NewMaterial()

	spot := light.NewSceneLight(light.NewLight(light.LightTypeSpot, light.WithSpecularIntensity(0)))
	spot.BeginFrame(true)

	desc, ok := f.Describe(sceneKey(mat, material.PassLight, scene.GeometrySkinned), pipeline.SceneContext{
		Light:           spot,
		NumVertexLights: 2,
		Camera:          camera.NewCamera(),
	})
	require.True(t, ok)

	vs := shader.ParseDefines(desc.VertexShader.Defines())
	ps := shader.ParseDefines(desc.PixelShader.Defines())
	for _, name := range []string{"SPOTLIGHT", "PERPIXEL", "SHADOW", "USE_CBUFFERS"} {
		assert.True(t, vs.Has(name), "vs %s", name)
		assert.True(t, ps.Has(name), "ps %s", name)
	}
	assert.True(t, vs.Has("SKINNED"))
	value, _ := vs.Value("NUMVERTEXLIGHTS")
	assert.Equal(t, "2", value)
	assert.False(t, ps.Has("SPECULAR"))
	assert.False(t, ps.Has("DIRLIGHT"))

	assert.Equal(t, graphics.BlendAdd, desc.BlendMode)
	assert.Equal(t, graphics.CompareEqual, desc.DepthMode)
	assert.False(t, desc.DepthWrite)
	assert.Equal(t, graphics.CullCCW, desc.CullMode)
}

func TestFactoryUnlitBatchHasNoLightDefines(t *testing.T) {
	f := NewPipelineStateFactory(graphics.NewRecorder(graphics.WithConstantBuffers(false)))
	desc, ok := f.Describe(sceneKey(material.NewMaterial(), material.PassBase, scene.GeometryStatic), pipeline.SceneContext{})
	require.True(t, ok)

	vs := shader.ParseDefines(desc.VertexShader.Defines())
	ps := shader.ParseDefines(desc.PixelShader.Defines())
	assert.False(t, vs.Has("PERPIXEL"))
	assert.False(t, vs.Has("USE_CBUFFERS"))
	assert.False(t, vs.Has("NUMVERTEXLIGHTS"))
	assert.True(t, ps.Has("AMBIENT"))
	assert.Equal(t, newTriangle().VertexElements(), desc.VertexElements)
}

func TestFactoryFlipsCullingForReversedCameras(t *testing.T) {
	f := NewPipelineStateFactory(graphics.NewRecorder())
	key := sceneKey(material.NewMaterial(material.WithCullMode(graphics.CullCW, graphics.CullNone)), material.PassBase, scene.GeometryStatic)

	normal, _ := f.Describe(key, pipeline.SceneContext{Camera: camera.NewCamera()})
	flipped, _ := f.Describe(key, pipeline.SceneContext{Camera: camera.NewCamera(camera.WithFlipVertical(true))})

	assert.Equal(t, graphics.CullCW, normal.CullMode)
	assert.Equal(t, graphics.CullCCW, flipped.CullMode)
}

func TestFactoryShadowPassUsesShadowCullAndLightBias(t *testing.T) {
	f := NewPipelineStateFactory(graphics.NewRecorder())
	bias := graphics.BiasParameters{ConstantBias: 0.001, SlopeScaledBias: 2}
	sl := light.NewSceneLight(light.NewLight(light.LightTypeDirectional, light.WithShadowBias(bias)))
	sl.BeginFrame(true)
	mat := material.NewMaterial(material.WithCullMode(graphics.CullCCW, graphics.CullNone))

	desc, ok := f.Describe(sceneKey(mat, material.PassShadow, scene.GeometryStatic), pipeline.SceneContext{
		ShadowPass: true,
		Light:      sl,
		Camera:     camera.NewCamera(camera.WithFlipVertical(true)),
	})
	require.True(t, ok)
	assert.Equal(t, graphics.CullNone, desc.CullMode)
	assert.False(t, desc.ColorWrite)
	assert.True(t, desc.DepthWrite)
	assert.InDelta(t, 0.001, desc.ConstantDepthBias, 1e-9)
	assert.InDelta(t, 2, desc.SlopeScaledDepthBias, 1e-9)
	assert.False(t, shader.ParseDefines(desc.PixelShader.Defines()).Has("DIRLIGHT"))
}

func TestFactorySharesStatesForEqualDescriptions(t *testing.T) {
	gfx := graphics.NewRecorder()
	f := NewPipelineStateFactory(gfx)
	mat := material.NewMaterial()
	key := sceneKey(mat, material.PassBase, scene.GeometryStatic)

	first := f.CreateScenePipelineState(key, pipeline.SceneContext{})
	key.Geometry = newTriangle()
	second := f.CreateScenePipelineState(key, pipeline.SceneContext{})

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, gfx.PipelineStatesCreated())
}

func TestFactoryMissingShaderYieldsNil(t *testing.T) {
	gfx := graphics.NewRecorder(graphics.WithShaderSource(func(graphics.ShaderType, string, string) (string, error) {
		return "", assert.AnError
	}))
	f := NewPipelineStateFactory(gfx)
	assert.Nil(t, f.CreateScenePipelineState(sceneKey(material.NewMaterial(), material.PassBase, scene.GeometryStatic), pipeline.SceneContext{}))
}
