package ui

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	colorVertexElements = []graphics.VertexElement{
		{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition},
		{Type: graphics.TypeUByte4Norm, Semantic: graphics.SemanticColor},
	}
	texturedVertexElements = []graphics.VertexElement{
		{Type: graphics.TypeVector3, Semantic: graphics.SemanticPosition},
		{Type: graphics.TypeUByte4Norm, Semantic: graphics.SemanticColor},
		{Type: graphics.TypeVector2, Semantic: graphics.SemanticTexCoord},
	}
)

// compiledGeometry is geometry uploaded once and drawn many times.
type compiledGeometry struct {
	vertices *graphics.VertexBuffer
	indices  *graphics.IndexBuffer
	texture  TextureHandle
}

// uiTexture is a texture owned by the renderer.
type uiTexture struct {
	texture *graphics.Texture
	source  string
}

// shaderSet is one vertex/pixel shader combination of the UI.
type shaderSet struct {
	vs, ps *graphics.ShaderVariation
}

// RmlRenderer implements RenderInterface on top of graphics.Graphics. Geometry is
// drawn with alpha blending, no depth test and clockwise culling into the current
// render target. Every method runs on the rendering goroutine.
type RmlRenderer struct {
	mu *sync.Mutex

	gfx     graphics.Graphics
	logger  *slog.Logger
	states  pipeline.PipelineStateCache
	files   fs.FS
	elapsed func() float64

	geometries *handleTable[*compiledGeometry]
	textures   *handleTable[*uiTexture]

	renderTarget   *graphics.Texture
	scale          float32
	maxTextureSize int
	scissorEnabled bool
	scissor        common.IntRect
	transform      mgl32.Mat4

	shaders map[string]*graphics.ShaderVariation
}

var _ RenderInterface = &RmlRenderer{}

// NewRmlRenderer creates a renderer drawing through gfx. Panics if gfx is nil.
//
// Parameters:
//   - gfx: the graphics device
//   - options: functional options to configure the renderer
//
// Returns:
//   - *RmlRenderer: the new renderer
func NewRmlRenderer(gfx graphics.Graphics, options ...RmlRendererBuilderOption) *RmlRenderer {
	if gfx == nil {
		panic("ui: RmlRenderer requires a non-nil Graphics")
	}
	r := &RmlRenderer{
		mu:         &sync.Mutex{},
		gfx:        gfx,
		logger:     slog.Default(),
		elapsed:    func() float64 { return 0 },
		geometries: newHandleTable[*compiledGeometry](),
		textures:   newHandleTable[*uiTexture](),
		scale:      1,
		transform:  mgl32.Ident4(),
		shaders:    make(map[string]*graphics.ShaderVariation),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.states == nil {
		r.states = pipeline.NewPipelineStateCache(gfx)
	}
	return r
}

// SetRenderTarget selects the texture the UI renders into, nil for the backbuffer.
func (r *RmlRenderer) SetRenderTarget(target *graphics.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderTarget = target
}

// SetScale sets the factor UI coordinates are multiplied by to get pixels.
func (r *RmlRenderer) SetScale(scale float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scale > 0 {
		r.scale = scale
	}
}

// NumGeometries returns the number of live compiled geometries.
func (r *RmlRenderer) NumGeometries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geometries.len()
}

// NumTextures returns the number of live textures.
func (r *RmlRenderer) NumTextures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textures.len()
}

// Texture resolves a texture handle.
//
// Parameters:
//   - h: the handle
//
// Returns:
//   - *graphics.Texture: the texture
//   - error: ErrInvalidHandle for stale or foreign handles
func (r *RmlRenderer) Texture(h TextureHandle) (*graphics.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.textures.get(h.h)
	if err != nil {
		return nil, err
	}
	return t.texture, nil
}

func (r *RmlRenderer) CompileGeometry(vertices []Vertex, indices []int32, texture TextureHandle) GeometryHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	geometry, err := r.compile(vertices, indices, texture)
	if err != nil {
		r.logger.Warn("ui: cannot compile geometry", "err", err)
		return GeometryHandle{}
	}
	return GeometryHandle{h: r.geometries.insert(geometry)}
}

func (r *RmlRenderer) RenderCompiledGeometry(geometry GeometryHandle, translation mgl32.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.geometries.get(geometry.h)
	if err != nil {
		r.logger.Warn("ui: render of unknown geometry", "handle", geometry, "err", err)
		return
	}
	r.render(g, translation)
}

func (r *RmlRenderer) ReleaseCompiledGeometry(geometry GeometryHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.geometries.remove(geometry.h); err != nil {
		r.logger.Warn("ui: release of unknown geometry", "handle", geometry, "err", err)
	}
}

// RenderGeometry compiles into fresh buffers and draws immediately. The buffers are
// not kept; the device drops them once they stay unused.
func (r *RmlRenderer) RenderGeometry(vertices []Vertex, indices []int32, texture TextureHandle, translation mgl32.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()

	geometry, err := r.compile(vertices, indices, texture)
	if err != nil {
		r.logger.Warn("ui: cannot render geometry", "err", err)
		return
	}
	r.render(geometry, translation)
}

func (r *RmlRenderer) EnableScissorRegion(enable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scissorEnabled = enable
}

func (r *RmlRenderer) SetScissorRegion(x, y, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scissor = common.NewIntRect(x, y, width, height)
}

// LoadTexture decodes an image file from the renderer's file system.
func (r *RmlRenderer) LoadTexture(source string) (TextureHandle, common.IntVector2, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.files == nil {
		return TextureHandle{}, common.IntVector2{}, fmt.Errorf("ui: no file system to load %s from", source)
	}
	imported := &common.ImportedTexture{Name: source, Path: source, FS: r.files}
	staging, err := imported.Decode(r.maxTextureSize)
	if err != nil {
		r.logger.Warn("ui: cannot load texture", "source", source, "err", err)
		return TextureHandle{}, common.IntVector2{}, err
	}
	tex := graphics.NewTextureFromStaging(source, staging)
	h := r.textures.insert(&uiTexture{texture: tex, source: source})
	return TextureHandle{h: h}, tex.Size(), nil
}

// GenerateTexture creates a texture from tightly packed RGBA pixels, as the
// middleware does for font atlases.
func (r *RmlRenderer) GenerateTexture(pixels []byte, size common.IntVector2) (TextureHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if size.X <= 0 || size.Y <= 0 || len(pixels) != size.X*size.Y*4 {
		return TextureHandle{}, fmt.Errorf("ui: %d bytes do not form a %dx%d RGBA image", len(pixels), size.X, size.Y)
	}
	data := make([]byte, len(pixels))
	copy(data, pixels)
	tex := graphics.NewTexture2D("UIGenerated", size.X, size.Y, graphics.FormatRGBA8, data)
	return TextureHandle{h: r.textures.insert(&uiTexture{texture: tex})}, nil
}

// AddTexture makes an engine texture, such as a render target, usable by documents.
//
// Parameters:
//   - tex: the texture
//
// Returns:
//   - TextureHandle: the handle, zero if tex is nil
func (r *RmlRenderer) AddTexture(tex *graphics.Texture) TextureHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tex == nil {
		return TextureHandle{}
	}
	return TextureHandle{h: r.textures.insert(&uiTexture{texture: tex, source: tex.Name()})}
}

func (r *RmlRenderer) ReleaseTexture(texture TextureHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if texture.IsZero() {
		return
	}
	if _, err := r.textures.remove(texture.h); err != nil {
		r.logger.Warn("ui: release of unknown texture", "handle", texture, "err", err)
	}
}

// SetTransform sets the matrix applied to geometry after its translation; nil
// restores the identity.
func (r *RmlRenderer) SetTransform(transform *mgl32.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transform == nil {
		r.transform = mgl32.Ident4()
		return
	}
	r.transform = *transform
}

// Release drops every geometry and texture.
func (r *RmlRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.geometries = newHandleTable[*compiledGeometry]()
	r.textures = newHandleTable[*uiTexture]()
	r.states.Clear()
}

// compile packs vertices as x, y, 0, ABGR color and, for textured geometry, u, v.
func (r *RmlRenderer) compile(vertices []Vertex, indices []int32, texture TextureHandle) (*compiledGeometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("ui: empty geometry")
	}
	textured := !texture.IsZero()
	if textured {
		if _, err := r.textures.get(texture.h); err != nil {
			return nil, fmt.Errorf("%w: %s", err, texture)
		}
	}

	elements := colorVertexElements
	stride := 16
	if textured {
		elements = texturedVertexElements
		stride = 24
	}
	data := make([]byte, len(vertices)*stride)
	for i, v := range vertices {
		o := i * stride
		binary.LittleEndian.PutUint32(data[o:], math.Float32bits(v.Position.X()))
		binary.LittleEndian.PutUint32(data[o+4:], math.Float32bits(v.Position.Y()))
		binary.LittleEndian.PutUint32(data[o+8:], 0)
		binary.LittleEndian.PutUint32(data[o+12:], common.PackRGBA(v.Color[0], v.Color[1], v.Color[2], v.Color[3]))
		if textured {
			binary.LittleEndian.PutUint32(data[o+16:], math.Float32bits(v.TexCoord.X()))
			binary.LittleEndian.PutUint32(data[o+20:], math.Float32bits(v.TexCoord.Y()))
		}
	}

	idx := make([]uint32, len(indices))
	for i, index := range indices {
		if index < 0 || int(index) >= len(vertices) {
			return nil, fmt.Errorf("ui: index %d out of range of %d vertices", index, len(vertices))
		}
		idx[i] = uint32(index)
	}

	return &compiledGeometry{
		vertices: graphics.NewVertexBuffer(elements, data, false),
		indices:  graphics.NewIndexBuffer32(idx),
		texture:  texture,
	}, nil
}

// projection maps UI pixels to clip space: scale (2/w, -2/h) and offset (-1, 1),
// flipped vertically on OpenGL when rendering into a texture.
func (r *RmlRenderer) projection(viewSize common.IntVector2) mgl32.Mat4 {
	scale := mgl32.Vec2{2 / float32(viewSize.X), -2 / float32(viewSize.Y)}
	offset := mgl32.Vec2{-1, 1}
	if r.renderTarget != nil && r.gfx.IsOpenGL() {
		scale[1], offset[1] = -scale[1], -offset[1]
	}
	p := mgl32.Ident4()
	p.Set(0, 0, scale.X()*r.scale)
	p.Set(0, 3, offset.X())
	p.Set(1, 1, scale.Y()*r.scale)
	p.Set(1, 3, offset.Y())
	return p
}

// scissorRect scales the scissor region to pixels, flipping it on OpenGL render targets.
func (r *RmlRenderer) scissorRect(viewSize common.IntVector2) common.IntRect {
	s := common.IntRect{
		Left:   int(float32(r.scissor.Left) * r.scale),
		Top:    int(float32(r.scissor.Top) * r.scale),
		Right:  int(float32(r.scissor.Right) * r.scale),
		Bottom: int(float32(r.scissor.Bottom) * r.scale),
	}
	if r.renderTarget != nil && r.gfx.IsOpenGL() {
		s.Top, s.Bottom = viewSize.Y-s.Bottom, viewSize.Y-s.Top
	}
	return s
}

func (r *RmlRenderer) shader(typ graphics.ShaderType, defines string) *graphics.ShaderVariation {
	key := typ.String() + " " + defines
	if s, ok := r.shaders[key]; ok {
		return s
	}
	s := r.gfx.GetShader(typ, "Basic", defines)
	if s == nil {
		r.logger.Error("ui: missing shader", "type", typ, "defines", defines)
	}
	r.shaders[key] = s
	return s
}

// shaderSetFor selects the Basic shader variation: vertex color only, diffuse
// texture, or alpha texture for single channel (font) textures.
func (r *RmlRenderer) shaderSetFor(tex *graphics.Texture) shaderSet {
	if tex == nil {
		return shaderSet{
			vs: r.shader(graphics.VertexShader, "VERTEXCOLOR"),
			ps: r.shader(graphics.PixelShader, "VERTEXCOLOR"),
		}
	}
	set := shaderSet{vs: r.shader(graphics.VertexShader, "DIFFMAP VERTEXCOLOR")}
	if tex.Format() == graphics.FormatR8 {
		set.ps = r.shader(graphics.PixelShader, "ALPHAMAP VERTEXCOLOR")
	} else {
		set.ps = r.shader(graphics.PixelShader, "DIFFMAP VERTEXCOLOR")
	}
	return set
}

func (r *RmlRenderer) render(g *compiledGeometry, translation mgl32.Vec2) {
	var tex *graphics.Texture
	if !g.texture.IsZero() {
		t, err := r.textures.get(g.texture.h)
		if err != nil {
			r.logger.Warn("ui: geometry texture was released", "handle", g.texture)
			return
		}
		tex = t.texture
	}

	shaders := r.shaderSetFor(tex)
	if shaders.vs == nil || shaders.ps == nil {
		return
	}
	state := r.states.GetPipelineState(pipeline.NewDesc(
		pipeline.WithVertexElements(g.vertices.Elements()),
		pipeline.WithShaders(shaders.vs, shaders.ps),
		pipeline.WithPrimitive(graphics.TriangleList, graphics.IndexTypeOf(g.indices)),
		pipeline.WithBlendMode(graphics.BlendAlpha),
		pipeline.WithColorWrite(true),
		pipeline.WithRasterizer(graphics.FillSolid, graphics.CullCW),
		pipeline.WithDepth(false, graphics.CompareAlways),
	))
	if state == nil {
		return
	}

	viewSize := r.gfx.BackbufferSize()
	if r.renderTarget != nil {
		viewSize = r.renderTarget.Size()
	}
	if viewSize.X <= 0 || viewSize.Y <= 0 {
		return
	}

	model := r.transform.Mul4(mgl32.Translate3D(translation.X(), translation.Y(), 0))
	projection := r.projection(viewSize)
	elapsed := float32(r.elapsed())
	diffColor := common.ColorWhite

	r.gfx.SetPipelineState(state)
	r.gfx.SetShaderParameters(graphics.GroupFrame, []graphics.ShaderParameterValue{
		{Name: "ElapsedTime", Data: []float32{elapsed}},
	})
	r.gfx.SetShaderParameters(graphics.GroupCamera, []graphics.ShaderParameterValue{
		{Name: "ViewProj", Data: projection[:]},
	})
	r.gfx.SetShaderParameters(graphics.GroupMaterial, []graphics.ShaderParameterValue{
		{Name: "MatDiffColor", Data: diffColor[:]},
	})
	r.gfx.SetShaderParameters(graphics.GroupObject, []graphics.ShaderParameterValue{
		{Name: "Model", Data: model[:]},
	})
	r.gfx.SetTexture(graphics.TextureDiffuse, tex)
	r.gfx.SetVertexBuffers([]*graphics.VertexBuffer{g.vertices})
	r.gfx.SetIndexBuffer(g.indices)
	r.gfx.SetScissor(r.scissorEnabled, r.scissorRect(viewSize))
	r.gfx.DrawIndexed(0, g.indices.Count(), 0)
}
