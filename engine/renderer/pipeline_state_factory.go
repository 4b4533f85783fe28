package renderer

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// PipelineStateFactory is the default strategy creating scene pipeline states. The
// resulting description depends only on the key and the context; equal
// descriptions share one state through the PipelineStateCache.
type PipelineStateFactory struct {
	gfx   graphics.Graphics
	cache pipeline.PipelineStateCache
}

var _ pipeline.SceneFactory = &PipelineStateFactory{}

// NewPipelineStateFactory creates a factory compiling through gfx. Panics if gfx is
// nil.
//
// Parameters:
//   - gfx: the graphics device shaders and states are created on
//
// Returns:
//   - *PipelineStateFactory: the new factory
func NewPipelineStateFactory(gfx graphics.Graphics) *PipelineStateFactory {
	if gfx == nil {
		panic("renderer: pipeline state factory requires a non-nil Graphics")
	}
	return &PipelineStateFactory{gfx: gfx, cache: pipeline.NewPipelineStateCache(gfx)}
}

// Cache returns the description-level cache behind the factory.
func (f *PipelineStateFactory) Cache() pipeline.PipelineStateCache { return f.cache }

// CreateScenePipelineState builds the description of a scene batch and returns the
// cached state for it, or nil when the shaders cannot be loaded or creation fails.
func (f *PipelineStateFactory) CreateScenePipelineState(key pipeline.SceneKey, ctx pipeline.SceneContext) *graphics.PipelineState {
	desc, ok := f.Describe(key, ctx)
	if !ok {
		return nil
	}
	return f.cache.GetPipelineState(desc)
}

// Describe derives the pipeline state description of a scene batch.
//
// Parameters:
//   - key: the batch key with geometry, material and pass
//   - ctx: the light, camera and pass kind of the batch
//
// Returns:
//   - graphics.PipelineStateDesc: the description with its hash computed
//   - bool: false if a shader variation could not be loaded
func (f *PipelineStateFactory) Describe(key pipeline.SceneKey, ctx pipeline.SceneContext) (graphics.PipelineStateDesc, bool) {
	pass, mat, geometry := key.Pass, key.Material, key.Geometry
	vsDefines, psDefines := f.defines(key, ctx)

	vsName, psName := pass.Shaders()
	vs := f.gfx.GetShader(graphics.VertexShader, vsName, vsDefines.String())
	ps := f.gfx.GetShader(graphics.PixelShader, psName, psDefines.String())
	if vs == nil || ps == nil {
		return graphics.PipelineStateDesc{}, false
	}

	opts := []pipeline.DescBuilderOption{
		pipeline.WithVertexElements(geometry.VertexElements()),
		pipeline.WithShaders(vs, ps),
		pipeline.WithPrimitive(geometry.PrimitiveType(), graphics.IndexTypeOf(geometry.IndexBuffer())),
	}

	if ctx.ShadowPass {
		bias := light.DefaultBiasParameters()
		if ctx.Light != nil {
			bias = ctx.Light.Light().ShadowBias()
		}
		opts = append(opts,
			pipeline.WithDepth(true, graphics.CompareLessEqual),
			pipeline.WithColorWrite(false),
			pipeline.WithBlendMode(graphics.BlendReplace),
			pipeline.WithRasterizer(mat.FillMode(), mat.ShadowCullMode()),
			pipeline.WithDepthBias(bias),
		)
	} else {
		cull := mat.CullMode()
		if ctx.Camera != nil && ctx.Camera.ReverseCulling() {
			cull = cull.Flipped()
		}
		opts = append(opts,
			pipeline.WithDepth(pass.DepthWrite(), pass.DepthTestMode()),
			pipeline.WithColorWrite(true),
			pipeline.WithBlendMode(pass.BlendMode()),
			pipeline.WithAlphaToCoverage(pass.AlphaToCoverage()),
			pipeline.WithRasterizer(mat.FillMode(), cull),
			pipeline.WithDepthBias(mat.DepthBias()),
		)
	}
	return pipeline.NewDesc(opts...), true
}

// defines composes the pass, material, geometry and light defines of both stages.
func (f *PipelineStateFactory) defines(key pipeline.SceneKey, ctx pipeline.SceneContext) (vs, ps shader.ShaderDefines) {
	passVS, passPS := key.Pass.Defines()
	matVS, matPS := key.Material.ShaderDefines()
	vs = shader.ParseDefines(passVS + " " + matVS)
	ps = shader.ParseDefines(passPS + " " + matPS)

	both := func(name, value string) {
		vs = vs.With(name, value)
		ps = ps.With(name, value)
	}

	if f.gfx.ConstantBuffersEnabled() {
		both("USE_CBUFFERS", "")
	}

	switch key.GeometryType {
	case scene.GeometrySkinned:
		vs = vs.With("SKINNED", "")
	case scene.GeometryInstanced:
		vs = vs.With("INSTANCED", "")
	case scene.GeometryBillboard:
		vs = vs.With("BILLBOARD", "")
	}

	if ctx.ShadowPass {
		return vs, ps
	}

	if ctx.NumVertexLights > 0 {
		vs = vs.With("NUMVERTEXLIGHTS", strconv.Itoa(ctx.NumVertexLights))
	}

	if ctx.Light == nil {
		return vs, ps
	}
	l := ctx.Light.Light()
	both("PERPIXEL", "")
	switch l.Type() {
	case light.LightTypeDirectional:
		both("DIRLIGHT", "")
	case light.LightTypeSpot:
		both("SPOTLIGHT", "")
	default:
		both("POINTLIGHT", "")
	}
	if ctx.Light.HasShadow() {
		both("SHADOW", "")
		if l.ShadowBias().NormalOffset > 0 {
			vs = vs.With("NORMALOFFSET", "")
		}
	}
	if l.ShapeTexture() != nil {
		ps = ps.With("SHAPETEXTURE", "")
	}
	if l.EffectiveSpecularIntensity() > 0 {
		ps = ps.With("SPECULAR", "")
	}
	return vs, ps
}
