package ui

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() ([]Vertex, []int32) {
	white := [4]uint8{255, 255, 255, 255}
	return []Vertex{
		{Position: mgl32.Vec2{0, 0}, Color: white, TexCoord: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec2{10, 0}, Color: white, TexCoord: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec2{10, 10}, Color: white, TexCoord: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec2{0, 10}, Color: [4]uint8{1, 2, 3, 4}, TexCoord: mgl32.Vec2{0, 1}},
	}, []int32{0, 1, 2, 0, 2, 3}
}

func lastCall(t *testing.T, gfx *graphics.Recorder, op graphics.Op) graphics.RecordedCall {
	t.Helper()
	calls := gfx.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Op == op {
			return calls[i]
		}
	}
	require.FailNow(t, "call not recorded", "op %d", op)
	return graphics.RecordedCall{}
}

func lastParams(t *testing.T, gfx *graphics.Recorder, group graphics.ShaderParameterGroup) []graphics.ShaderParameterValue {
	t.Helper()
	calls := gfx.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Op == graphics.OpSetShaderParameters && calls[i].Group == group {
			return calls[i].Params
		}
	}
	require.FailNow(t, "group not uploaded", "group %s", group)
	return nil
}

func TestRmlRendererCompiledGeometry(t *testing.T) {
	gfx := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	h := r.CompileGeometry(vertices, indices, TextureHandle{})
	require.False(t, h.IsZero())
	assert.Equal(t, 1, r.NumGeometries())

	r.RenderCompiledGeometry(h, mgl32.Vec2{5, 7})
	r.RenderCompiledGeometry(h, mgl32.Vec2{5, 7})
	assert.Equal(t, 2, gfx.Count(graphics.OpDrawIndexed))
	assert.Equal(t, 1, gfx.PipelineStatesCreated())
	assert.Equal(t, uint32(6), lastCall(t, gfx, graphics.OpDrawIndexed).Count)

	vb := lastCall(t, gfx, graphics.OpSetVertexBuffers).VertexBuffers[0]
	assert.Equal(t, uint32(16), vb.VertexSize())
	assert.Equal(t, uint32(4), vb.VertexCount())
	// fourth vertex color packed as ABGR
	assert.Equal(t, []byte{1, 2, 3, 4}, vb.Data()[3*16+12:3*16+16])

	desc := lastCall(t, gfx, graphics.OpSetPipelineState).PipelineState.Desc()
	assert.Equal(t, graphics.BlendAlpha, desc.BlendMode)
	assert.Equal(t, graphics.CullCW, desc.CullMode)
	assert.Equal(t, graphics.CompareAlways, desc.DepthMode)
	assert.False(t, desc.DepthWrite)
	assert.False(t, desc.StencilEnabled)
	assert.True(t, desc.ColorWrite)
	assert.Equal(t, "VERTEXCOLOR", desc.VertexShader.Defines())
	assert.Equal(t, "Basic", desc.PixelShader.Name())

	model := lastParams(t, gfx, graphics.GroupObject)[0]
	assert.Equal(t, "Model", model.Name)
	assert.Equal(t, float32(5), model.Data[12])
	assert.Equal(t, float32(7), model.Data[13])

	diff := lastParams(t, gfx, graphics.GroupMaterial)[0]
	assert.Equal(t, []float32{1, 1, 1, 1}, diff.Data)

	r.ReleaseCompiledGeometry(h)
	assert.Zero(t, r.NumGeometries())
	gfx.Reset()
	r.RenderCompiledGeometry(h, mgl32.Vec2{})
	assert.Zero(t, gfx.Count(graphics.OpDrawIndexed), "released handles draw nothing")
}

func TestRmlRendererRejectsStaleAndForeignHandles(t *testing.T) {
	gfx := graphics.NewRecorder()
	r := NewRmlRenderer(gfx)
	other := NewRmlRenderer(gfx)
	vertices, indices := quad()

	old := r.CompileGeometry(vertices, indices, TextureHandle{})
	r.ReleaseCompiledGeometry(old)
	fresh := r.CompileGeometry(vertices, indices, TextureHandle{})
	require.False(t, fresh.IsZero())

	r.RenderCompiledGeometry(old, mgl32.Vec2{})
	assert.Zero(t, gfx.Count(graphics.OpDrawIndexed))

	foreign := other.CompileGeometry(vertices, indices, TextureHandle{})
	r.RenderCompiledGeometry(foreign, mgl32.Vec2{})
	r.ReleaseCompiledGeometry(foreign)
	assert.Zero(t, gfx.Count(graphics.OpDrawIndexed))
	assert.Equal(t, 1, other.NumGeometries())

	tex, err := other.GenerateTexture(make([]byte, 4), common.IntVector2{X: 1, Y: 1})
	require.NoError(t, err)
	assert.True(t, r.CompileGeometry(vertices, indices, tex).IsZero(), "texture from another renderer")

	assert.True(t, r.CompileGeometry(nil, nil, TextureHandle{}).IsZero())
	assert.True(t, r.CompileGeometry(vertices, []int32{0, 1, 9}, TextureHandle{}).IsZero())
}

func TestRmlRendererTexturedGeometry(t *testing.T) {
	gfx := graphics.NewRecorder()
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	_, err := r.GenerateTexture(make([]byte, 3), common.IntVector2{X: 1, Y: 1})
	assert.Error(t, err)

	tex, err := r.GenerateTexture(make([]byte, 2*2*4), common.IntVector2{X: 2, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumTextures())

	r.RenderGeometry(vertices, indices, tex, mgl32.Vec2{})
	vb := lastCall(t, gfx, graphics.OpSetVertexBuffers).VertexBuffers[0]
	assert.Equal(t, uint32(24), vb.VertexSize())

	desc := lastCall(t, gfx, graphics.OpSetPipelineState).PipelineState.Desc()
	assert.Equal(t, "DIFFMAP VERTEXCOLOR", desc.VertexShader.Defines())
	assert.Equal(t, "DIFFMAP VERTEXCOLOR", desc.PixelShader.Defines())
	bound := lastCall(t, gfx, graphics.OpSetTexture)
	assert.Equal(t, graphics.TextureDiffuse, bound.Unit)
	gen, err := r.Texture(tex)
	require.NoError(t, err)
	assert.Same(t, gen, bound.Texture)

	alpha := r.AddTexture(graphics.NewTexture2D("glyphs", 2, 2, graphics.FormatR8, make([]byte, 4)))
	r.RenderGeometry(vertices, indices, alpha, mgl32.Vec2{})
	desc = lastCall(t, gfx, graphics.OpSetPipelineState).PipelineState.Desc()
	assert.Equal(t, "ALPHAMAP VERTEXCOLOR", desc.PixelShader.Defines())

	r.ReleaseTexture(tex)
	r.ReleaseTexture(TextureHandle{})
	assert.Equal(t, 1, r.NumTextures())
	_, err = r.Texture(tex)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestRmlRendererReleasedTextureSkipsCompiledGeometry(t *testing.T) {
	gfx := graphics.NewRecorder()
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	tex, err := r.GenerateTexture(make([]byte, 4), common.IntVector2{X: 1, Y: 1})
	require.NoError(t, err)
	h := r.CompileGeometry(vertices, indices, tex)
	require.False(t, h.IsZero())

	r.ReleaseTexture(tex)
	r.RenderCompiledGeometry(h, mgl32.Vec2{})
	assert.Zero(t, gfx.Count(graphics.OpDrawIndexed))
}

func TestRmlRendererProjectionAndScissor(t *testing.T) {
	gfx := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	r.SetScissorRegion(10, 20, 30, 40)
	r.EnableScissorRegion(true)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})

	proj := lastParams(t, gfx, graphics.GroupCamera)[0]
	assert.Equal(t, "ViewProj", proj.Name)
	assert.InDelta(t, 2.0/800, proj.Data[0], 1e-7)
	assert.InDelta(t, -2.0/600, proj.Data[5], 1e-7)
	assert.Equal(t, float32(-1), proj.Data[12])
	assert.Equal(t, float32(1), proj.Data[13])

	scissor := lastCall(t, gfx, graphics.OpSetScissor)
	assert.True(t, scissor.Enabled)
	assert.Equal(t, common.IntRect{Left: 10, Top: 20, Right: 40, Bottom: 60}, scissor.Rect)

	r.SetScale(2)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})
	proj = lastParams(t, gfx, graphics.GroupCamera)[0]
	assert.InDelta(t, 4.0/800, proj.Data[0], 1e-7)
	assert.Equal(t, common.IntRect{Left: 20, Top: 40, Right: 80, Bottom: 120}, lastCall(t, gfx, graphics.OpSetScissor).Rect)

	r.EnableScissorRegion(false)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})
	assert.False(t, lastCall(t, gfx, graphics.OpSetScissor).Enabled)
}

func TestRmlRendererFlipsOpenGLRenderTargets(t *testing.T) {
	gfx := graphics.NewRecorder(graphics.WithAPI(graphics.APIOpenGL))
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	r.SetRenderTarget(graphics.NewRenderTexture("ui", 100, 50, graphics.FormatRGBA8))
	r.SetScissorRegion(0, 5, 20, 10)
	r.EnableScissorRegion(true)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})

	proj := lastParams(t, gfx, graphics.GroupCamera)[0]
	assert.InDelta(t, 2.0/100, proj.Data[0], 1e-7)
	assert.InDelta(t, 2.0/50, proj.Data[5], 1e-7)
	assert.Equal(t, float32(-1), proj.Data[13])
	assert.Equal(t, common.IntRect{Left: 0, Top: 35, Right: 20, Bottom: 45}, lastCall(t, gfx, graphics.OpSetScissor).Rect)

	r.SetRenderTarget(nil)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})
	proj = lastParams(t, gfx, graphics.GroupCamera)[0]
	assert.Less(t, proj.Data[5], float32(0), "backbuffer is not flipped")
}

func TestRmlRendererSetTransform(t *testing.T) {
	gfx := graphics.NewRecorder()
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()

	scale := mgl32.Scale3D(2, 2, 1)
	r.SetTransform(&scale)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{3, 4})
	model := lastParams(t, gfx, graphics.GroupObject)[0].Data
	assert.Equal(t, float32(2), model[0])
	assert.Equal(t, float32(6), model[12])
	assert.Equal(t, float32(8), model[13])

	r.SetTransform(nil)
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{3, 4})
	model = lastParams(t, gfx, graphics.GroupObject)[0].Data
	assert.Equal(t, float32(1), model[0])
	assert.Equal(t, float32(3), model[12])
}

func TestRmlRendererLoadTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	fsys := fstest.MapFS{"images/logo.png": {Data: buf.Bytes()}, "doc.rml": {Data: []byte("<rml/>")}}

	r := NewRmlRenderer(graphics.NewRecorder(), WithRendererFS(fsys), WithMaxTextureSize(16))
	h, size, err := r.LoadTexture("images/logo.png")
	require.NoError(t, err)
	assert.False(t, h.IsZero())
	assert.Equal(t, common.IntVector2{X: 16, Y: 8}, size)

	_, _, err = r.LoadTexture("doc.rml")
	assert.ErrorIs(t, err, common.ErrNotAnImage)
	_, _, err = r.LoadTexture("missing.png")
	assert.Error(t, err)

	_, _, err = NewRmlRenderer(graphics.NewRecorder()).LoadTexture("images/logo.png")
	assert.Error(t, err, "no file system")
}

func TestRmlRendererMissingShaderSkipsDraw(t *testing.T) {
	gfx := graphics.NewRecorder(graphics.WithShaderSource(func(graphics.ShaderType, string, string) (string, error) {
		return "", assert.AnError
	}))
	r := NewRmlRenderer(gfx)
	vertices, indices := quad()
	r.RenderGeometry(vertices, indices, TextureHandle{}, mgl32.Vec2{})
	assert.Zero(t, gfx.Count(graphics.OpDrawIndexed))
}

func TestNewRmlRendererPanicsWithoutGraphics(t *testing.T) {
	assert.Panics(t, func() { NewRmlRenderer(nil) })
}
