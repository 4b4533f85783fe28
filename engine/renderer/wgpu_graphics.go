package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA)
// of the backbuffer. Render textures are always single-sampled.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

const (
	defaultUniformArenaSize = 4 << 20
	backbufferDepthFormat   = wgpu.TextureFormatDepth24PlusStencil8
)

// passTarget is the attachment set of the render pass being recorded.
type passTarget struct {
	color *graphics.Texture
	depth *graphics.Texture
}

// isBackbuffer reports whether the target is the surface plus its default depth buffer.
func (t passTarget) isBackbuffer() bool {
	return t.color == nil && t.depth == nil
}

// boundGroup remembers the last bind group set on a group index to skip redundant calls.
type boundGroup struct {
	group   *wgpu.BindGroup
	offsets []uint32
}

type wgpuGraphics struct {
	mu     *sync.Mutex
	logger *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	forceFallback bool
	width, height int

	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	shaders    shader.ShaderCache
	variations map[variationKey]*graphics.ShaderVariation
	reflection map[*graphics.ShaderVariation]*shader.Reflection

	textures      map[uint32]*gpuTexture
	vertexBuffers map[uint32]*gpuBuffer
	indexBuffers  map[uint32]*gpuBuffer
	pipelines     []*wgpuPipeline
	whiteTexture  *graphics.Texture

	arena         *uniformArena
	arenaBuffer   *wgpu.Buffer
	arenaSize     uint64
	arenaGen      uint64
	pendingWrites []bind_group_provider.BufferWrite

	// frame state
	frame        uint64
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	clearedBack  bool

	target         passTarget
	viewport       common.IntRect
	scissor        common.IntRect
	scissorEnabled bool

	pipeline      *wgpuPipeline
	boundPipeline *wgpu.RenderPipeline
	boundGroups   map[uint32]boundGroup
	groupValues   [graphics.MaxShaderParameterGroups][]graphics.ShaderParameterValue
	groupVersions [graphics.MaxShaderParameterGroups]uint64
	units         [graphics.MaxTextureUnits]*graphics.Texture
	vertexBufs    []*graphics.VertexBuffer
	indexBuf      *graphics.IndexBuffer
}

// WGPUGraphics is the WebGPU implementation of graphics.Graphics. Besides the device
// interface it owns the presentation surface.
type WGPUGraphics interface {
	graphics.Graphics

	// Resize reconfigures the surface and the backbuffer attachments.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode, effective on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release releases every GPU resource owned by the device.
	Release()
}

var _ WGPUGraphics = &wgpuGraphics{}

// NewWGPUGraphics creates the WebGPU device for a window surface. The calling goroutine
// is locked to its OS thread, so every later call must come from the same goroutine.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the window
//   - shaders: the cache WGSL sources are loaded from
//   - options: functional options to configure the device
//
// Returns:
//   - WGPUGraphics: the device
func NewWGPUGraphics(surfaceDescriptor *wgpu.SurfaceDescriptor, shaders shader.ShaderCache, options ...WGPUGraphicsOption) WGPUGraphics {
	if shaders == nil {
		panic("shader cache must not be nil")
	}
	runtime.LockOSThread()

	g := &wgpuGraphics{
		mu:            &sync.Mutex{},
		logger:        slog.Default(),
		presentMode:   wgpu.PresentModeImmediate,
		sampleCount:   MSAA4x,
		shaders:       shaders,
		variations:    make(map[variationKey]*graphics.ShaderVariation),
		reflection:    make(map[*graphics.ShaderVariation]*shader.Reflection),
		textures:      make(map[uint32]*gpuTexture),
		vertexBuffers: make(map[uint32]*gpuBuffer),
		indexBuffers:  make(map[uint32]*gpuBuffer),
		boundGroups:   make(map[uint32]boundGroup),
		arenaSize:     defaultUniformArenaSize,
		whiteTexture:  graphics.NewTexture2D("White", 1, 1, graphics.FormatRGBA8, []byte{255, 255, 255, 255}),
	}
	for _, option := range options {
		option(g)
	}

	g.instance = wgpu.CreateInstance(nil)
	g.surface = g.instance.CreateSurface(surfaceDescriptor)

	adapter, err := g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: g.forceFallback,
		CompatibleSurface:    g.surface,
	})
	if err != nil {
		panic(err)
	}
	g.adapter = adapter

	// one bind group per parameter group plus textures
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		panic(err)
	}
	g.device = device
	g.queue = device.GetQueue()

	g.arena = newUniformArena(g.arenaSize)
	if err := g.createArenaBuffer(); err != nil {
		panic(err)
	}
	return g
}

func (g *wgpuGraphics) API() graphics.API            { return graphics.APIWebGPU }
func (g *wgpuGraphics) IsOpenGL() bool               { return false }
func (g *wgpuGraphics) SupportsPointShadows() bool   { return true }
func (g *wgpuGraphics) ConstantBuffersEnabled() bool { return true }

func (g *wgpuGraphics) BackbufferSize() common.IntVector2 {
	return common.IntVector2{X: g.width, Y: g.height}
}

func (g *wgpuGraphics) SetPresentMode(mode PresentMode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		g.presentMode = wgpu.PresentModeFifo
	default:
		g.presentMode = wgpu.PresentModeImmediate
	}
}

func (g *wgpuGraphics) Resize(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	g.width, g.height = width, height

	capabilities := g.surface.GetCapabilities(g.adapter)
	g.surfaceFormat = capabilities.Formats[0]
	g.alphaMode = capabilities.AlphaModes[0]
	g.surface.Configure(g.adapter, g.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      g.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: g.presentMode,
		AlphaMode:   g.alphaMode,
	})

	g.releaseBackbufferAttachments()
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	var err error
	if g.sampleCount > 1 {
		g.msaaTexture, err = g.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   uint32(g.sampleCount),
			Dimension:     wgpu.TextureDimension2D,
			Format:        g.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		if g.msaaView, err = g.msaaTexture.CreateView(nil); err != nil {
			panic(err)
		}
	}

	g.depthTexture, err = g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   uint32(g.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        backbufferDepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	if g.depthView, err = g.depthTexture.CreateView(nil); err != nil {
		panic(err)
	}
	g.logger.Debug("surface configured", "width", width, "height", height, "format", g.surfaceFormat)
}

func (g *wgpuGraphics) releaseBackbufferAttachments() {
	for _, v := range []*wgpu.TextureView{g.msaaView, g.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{g.msaaTexture, g.depthTexture} {
		if t != nil {
			t.Release()
		}
	}
	g.msaaView, g.depthView, g.msaaTexture, g.depthTexture = nil, nil, nil, nil
}

func (g *wgpuGraphics) GetShader(typ graphics.ShaderType, name, defines string) *graphics.ShaderVariation {
	key := variationKey{typ: typ, name: name, defines: defines}
	if v, ok := g.variations[key]; ok {
		return v
	}

	source, err := g.shaders.GetShaderSource(context.Background(), name, typ, shader.WGSL, shader.ParseDefines(defines))
	if err != nil {
		g.logger.Error("failed to load shader", "name", name, "stage", typ, "defines", defines, "error", err)
		g.variations[key] = nil
		return nil
	}
	reflection, err := shader.Reflect(source, typ)
	if err != nil {
		g.logger.Error("failed to reflect shader", "name", name, "stage", typ, "defines", defines, "error", err)
		g.variations[key] = nil
		return nil
	}

	v := graphics.NewShaderVariation(typ, name, defines, source)
	g.variations[key] = v
	g.reflection[v] = reflection
	return v
}

func (g *wgpuGraphics) CreatePipelineState(desc graphics.PipelineStateDesc) (*graphics.PipelineState, error) {
	p, err := g.newPipeline(desc)
	if err != nil {
		return nil, err
	}
	g.pipelines = append(g.pipelines, p)
	return graphics.NewPipelineState(desc, p), nil
}

func (g *wgpuGraphics) BeginFrame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if g.width == 0 || g.height == 0 {
		return fmt.Errorf("surface is not configured")
	}

	if g.arena.Overflowed() {
		if err := g.growArena(g.arenaSize * 2); err != nil {
			return err
		}
	}
	g.arena.Reset()

	surfaceTexture, err := g.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	g.frame++
	g.encoder = encoder
	g.frameSurface = surfaceTexture
	g.frameView = view
	g.clearedBack = false
	g.target = passTarget{}
	g.viewport = common.NewIntRect(0, 0, g.width, g.height)
	g.scissorEnabled = false
	g.pipeline = nil
	return nil
}

func (g *wgpuGraphics) EndFrame() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.encoder == nil {
		return
	}
	// the surface must be written at least once per frame
	if !g.clearedBack && g.pass == nil {
		g.target = passTarget{}
		g.beginPass(graphics.ClearColor|graphics.ClearDepth|graphics.ClearStencil, mgl32.Vec4{0, 0, 0, 1}, 1, 0)
	}
	g.endPass()

	if data := g.arena.Bytes(); len(data) > 0 {
		g.pendingWrites = append(g.pendingWrites, bind_group_provider.BufferWrite{Buffer: g.arenaBuffer, Data: data})
	}
	for _, w := range g.pendingWrites {
		g.queue.WriteBuffer(w.Buffer, w.Offset, padded(w.Data))
	}
	g.pendingWrites = g.pendingWrites[:0]

	commandBuffer, err := g.encoder.Finish(nil)
	if err != nil {
		g.logger.Error("failed to finish frame", "error", err)
	} else {
		g.queue.Submit(commandBuffer)
		commandBuffer.Release()
		g.surface.Present()
	}

	g.encoder.Release()
	g.encoder = nil
	g.frameView.Release()
	g.frameView = nil
	g.frameSurface.Release()
	g.frameSurface = nil
	g.purgeStale()
}

func (g *wgpuGraphics) SetRenderTarget(color, depth *graphics.Texture) {
	t := passTarget{color: color, depth: depth}
	if t == g.target {
		return
	}
	g.endPass()
	g.target = t
	size := g.targetSize()
	g.viewport = common.NewIntRect(0, 0, size.X, size.Y)
	g.scissorEnabled = false
}

func (g *wgpuGraphics) SetViewport(rect common.IntRect) {
	g.viewport = clampRect(rect, g.targetSize())
	if g.pass != nil {
		g.applyViewport()
	}
}

func (g *wgpuGraphics) SetScissor(enabled bool, rect common.IntRect) {
	g.scissorEnabled = enabled
	g.scissor = clampRect(rect, g.targetSize())
	if g.pass != nil {
		g.applyScissor()
	}
}

// Clear starts a new render pass on the current target whose load operations clear the
// selected attachments.
func (g *wgpuGraphics) Clear(flags graphics.ClearFlags, color mgl32.Vec4, depth float32, stencil uint32) {
	if g.encoder == nil {
		return
	}
	g.endPass()
	g.beginPass(flags, color, depth, stencil)
}

func (g *wgpuGraphics) SetPipelineState(state *graphics.PipelineState) {
	if state == nil {
		g.pipeline = nil
		return
	}
	p, ok := state.Handle.(*wgpuPipeline)
	if !ok {
		g.logger.Error("pipeline state was not created by this device", "id", state.ID())
		g.pipeline = nil
		return
	}
	g.pipeline = p
}

func (g *wgpuGraphics) SetShaderParameters(group graphics.ShaderParameterGroup, params []graphics.ShaderParameterValue) {
	if group >= graphics.MaxShaderParameterGroups {
		return
	}
	values := g.groupValues[group][:0]
	for _, p := range params {
		values = append(values, graphics.ShaderParameterValue{Name: p.Name, Data: append([]float32(nil), p.Data...)})
	}
	g.groupValues[group] = values
	g.groupVersions[group]++
}

func (g *wgpuGraphics) SetTexture(unit graphics.TextureUnit, tex *graphics.Texture) {
	if unit < graphics.MaxTextureUnits {
		g.units[unit] = tex
	}
}

func (g *wgpuGraphics) SetVertexBuffers(buffers []*graphics.VertexBuffer) {
	g.vertexBufs = append(g.vertexBufs[:0], buffers...)
}

func (g *wgpuGraphics) SetIndexBuffer(ib *graphics.IndexBuffer) {
	g.indexBuf = ib
}

func (g *wgpuGraphics) Draw(vertexStart, vertexCount uint32) {
	if vertexCount == 0 || !g.prepareDraw(graphics.IndexNone) {
		return
	}
	g.pass.Draw(vertexCount, 1, vertexStart, 0)
}

func (g *wgpuGraphics) DrawIndexed(indexStart, indexCount, baseVertex uint32) {
	if indexCount == 0 || g.indexBuf == nil {
		return
	}
	if !g.prepareDraw(graphics.IndexTypeOf(g.indexBuf)) {
		return
	}
	buf, err := g.uploadBuffer(g.indexBuffers, g.indexBuf.ID(), g.indexBuf.Version(), g.indexBuf.Data(), wgpu.BufferUsageIndex, "Index Buffer")
	if err != nil {
		g.logger.Error("failed to upload index buffer", "error", err)
		return
	}
	format := wgpu.IndexFormatUint16
	if g.indexBuf.Large() {
		format = wgpu.IndexFormatUint32
	}
	g.pass.SetIndexBuffer(buf, format, 0, wgpu.WholeSize)
	g.pass.DrawIndexed(indexCount, 1, indexStart, int32(baseVertex), 0)
}

// prepareDraw opens a pass if needed and binds the pipeline, vertex buffers and bind
// groups of the current state. It reports false when the draw must be skipped.
func (g *wgpuGraphics) prepareDraw(indexType graphics.IndexType) bool {
	if g.encoder == nil || g.pipeline == nil {
		return false
	}
	if g.pass == nil {
		g.beginPass(0, mgl32.Vec4{}, 1, 0)
	}

	rp, err := g.pipeline.variant(g, g.targetKey(), indexType)
	if err != nil {
		g.logger.Error("failed to create render pipeline", "error", err)
		return false
	}
	if rp != g.boundPipeline {
		g.pass.SetPipeline(rp)
		g.boundPipeline = rp
		clear(g.boundGroups)
		if g.pipeline.desc.StencilEnabled {
			g.pass.SetStencilReference(g.pipeline.desc.StencilRef)
		}
	}

	for i, vb := range g.vertexBufs {
		buf, err := g.uploadBuffer(g.vertexBuffers, vb.ID(), vb.Version(), vb.Data(), wgpu.BufferUsageVertex, "Vertex Buffer")
		if err != nil {
			g.logger.Error("failed to upload vertex buffer", "error", err)
			return false
		}
		g.pass.SetVertexBuffer(uint32(i), buf, 0, wgpu.WholeSize)
	}

	for _, pg := range g.pipeline.groups {
		bg, offsets, ok := g.bindGroup(pg)
		if !ok {
			return false
		}
		if prev, ok := g.boundGroups[pg.provider.Group()]; ok && prev.group == bg && equalOffsets(prev.offsets, offsets) {
			continue
		}
		g.pass.SetBindGroup(pg.provider.Group(), bg, offsets)
		g.boundGroups[pg.provider.Group()] = boundGroup{group: bg, offsets: offsets}
	}
	return true
}

// bindGroup packs the uniform blocks of one group into the arena and returns the bind
// group for the currently bound textures along with its dynamic offsets.
func (g *wgpuGraphics) bindGroup(pg *pipelineGroup) (*wgpu.BindGroup, []uint32, bool) {
	offsets := make([]uint32, 0, len(pg.uniforms))
	for _, u := range pg.uniforms {
		off, ok := g.arena.Pack(g.groupVersions[u.paramGroup]<<8|uint64(u.paramGroup), u.block, g.groupValues[u.paramGroup])
		if !ok {
			g.logger.Warn("uniform arena full, draw skipped", "size", g.arenaSize)
			return nil, nil, false
		}
		offsets = append(offsets, off)
	}

	key := g.arenaGen
	textures := make([]*gpuTexture, len(pg.resources))
	for i, r := range pg.resources {
		tex := g.units[r.unit]
		if tex == nil || tex == g.target.color || tex == g.target.depth {
			tex = g.whiteTexture
			if r.depth {
				// an unbound depth texture cannot be substituted
				return nil, nil, false
			}
		}
		gt, err := g.gpuTexture(tex)
		if err != nil {
			g.logger.Error("failed to upload texture", "name", tex.Name(), "error", err)
			return nil, nil, false
		}
		textures[i] = gt
		key = key*31 + uint64(tex.ID())<<8 + uint64(gt.generation)
	}

	bg, err := pg.provider.BindGroup(key, func() []wgpu.BindGroupEntry {
		entries := make([]wgpu.BindGroupEntry, 0, len(pg.uniforms)+len(pg.resources))
		for _, u := range pg.uniforms {
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: u.binding,
				Buffer:  g.arenaBuffer,
				Size:    bind_group_provider.AlignUp(u.block.Size, 16),
			})
		}
		for i, r := range pg.resources {
			if r.sampler {
				entries = append(entries, wgpu.BindGroupEntry{Binding: r.binding, Sampler: textures[i].sampler})
			} else {
				entries = append(entries, wgpu.BindGroupEntry{Binding: r.binding, TextureView: textures[i].view})
			}
		}
		return entries
	})
	if err != nil {
		g.logger.Error("failed to create bind group", "error", err)
		return nil, nil, false
	}
	return bg, offsets, true
}

// beginPass starts a render pass on the current target. Attachments selected by flags
// are cleared, the others keep their contents.
func (g *wgpuGraphics) beginPass(flags graphics.ClearFlags, color mgl32.Vec4, depth float32, stencil uint32) {
	desc := &wgpu.RenderPassDescriptor{}
	loadOp := func(f graphics.ClearFlags) wgpu.LoadOp {
		if flags&f != 0 {
			return wgpu.LoadOpClear
		}
		return wgpu.LoadOpLoad
	}

	var depthView *wgpu.TextureView
	hasStencil := false
	switch {
	case g.target.isBackbuffer():
		attachment := wgpu.RenderPassColorAttachment{
			View:       g.frameView,
			LoadOp:     loadOp(graphics.ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3])},
		}
		if g.sampleCount > 1 {
			attachment.View = g.msaaView
			attachment.ResolveTarget = g.frameView
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{attachment}
		depthView = g.depthView
		hasStencil = true
		g.clearedBack = true
	default:
		if g.target.color != nil {
			gt, err := g.gpuTexture(g.target.color)
			if err != nil {
				g.logger.Error("failed to create render target", "name", g.target.color.Name(), "error", err)
				return
			}
			desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
				View:       gt.view,
				LoadOp:     loadOp(graphics.ClearColor),
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3])},
			}}
		}
		if g.target.depth != nil {
			gt, err := g.gpuTexture(g.target.depth)
			if err != nil {
				g.logger.Error("failed to create depth target", "name", g.target.depth.Name(), "error", err)
				return
			}
			depthView = gt.view
			hasStencil = g.target.depth.Format() == graphics.FormatDepth24Stencil8
		}
	}

	if depthView != nil {
		attachment := &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     loadOp(graphics.ClearDepth),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: depth,
		}
		if hasStencil {
			attachment.StencilLoadOp = loadOp(graphics.ClearStencil)
			attachment.StencilStoreOp = wgpu.StoreOpStore
			attachment.StencilClearValue = stencil
		}
		desc.DepthStencilAttachment = attachment
	}

	g.pass = g.encoder.BeginRenderPass(desc)
	g.boundPipeline = nil
	clear(g.boundGroups)
	g.applyViewport()
	g.applyScissor()
}

func (g *wgpuGraphics) endPass() {
	if g.pass == nil {
		return
	}
	g.pass.End()
	g.pass = nil
	g.boundPipeline = nil
}

func (g *wgpuGraphics) applyViewport() {
	r := g.viewport
	if r.IsZero() {
		return
	}
	g.pass.SetViewport(float32(r.Left), float32(r.Top), float32(r.Width()), float32(r.Height()), 0, 1)
}

func (g *wgpuGraphics) applyScissor() {
	r := common.NewIntRect(0, 0, g.targetSize().X, g.targetSize().Y)
	if g.scissorEnabled {
		r = g.scissor
	}
	g.pass.SetScissorRect(uint32(r.Left), uint32(r.Top), uint32(r.Width()), uint32(r.Height()))
}

// targetSize returns the size of the current attachments.
func (g *wgpuGraphics) targetSize() common.IntVector2 {
	switch {
	case g.target.color != nil:
		return g.target.color.Size()
	case g.target.depth != nil:
		return g.target.depth.Size()
	default:
		return common.IntVector2{X: g.width, Y: g.height}
	}
}

// targetKey describes the attachment formats pipelines must be compiled for.
func (g *wgpuGraphics) targetKey() targetKey {
	switch {
	case g.target.isBackbuffer():
		return targetKey{color: g.surfaceFormat, depth: backbufferDepthFormat, samples: uint32(g.sampleCount)}
	default:
		k := targetKey{samples: 1}
		if g.target.color != nil {
			k.color = g.target.color.Format().ToWGPU()
		}
		if g.target.depth != nil {
			k.depth = g.target.depth.Format().ToWGPU()
		}
		return k
	}
}

func (g *wgpuGraphics) createArenaBuffer() error {
	buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Arena",
		Size:  g.arenaSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create uniform arena: %w", err)
	}
	g.arenaBuffer = buf
	g.arenaGen++
	return nil
}

// growArena replaces the arena buffer. Bind groups referencing the old buffer are dropped.
func (g *wgpuGraphics) growArena(size uint64) error {
	old := g.arenaBuffer
	g.arenaSize = size
	if err := g.createArenaBuffer(); err != nil {
		return err
	}
	old.Release()
	g.arena.Grow(size)
	for _, p := range g.pipelines {
		for _, pg := range p.groups {
			pg.provider.Invalidate()
		}
	}
	g.logger.Info("uniform arena grown", "size", size)
	return nil
}

func (g *wgpuGraphics) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.pipelines {
		p.release()
	}
	g.pipelines = nil
	for id, t := range g.textures {
		t.release()
		delete(g.textures, id)
	}
	for _, cache := range []map[uint32]*gpuBuffer{g.vertexBuffers, g.indexBuffers} {
		for id, b := range cache {
			b.buffer.Release()
			delete(cache, id)
		}
	}
	if g.arenaBuffer != nil {
		g.arenaBuffer.Release()
		g.arenaBuffer = nil
	}
	g.releaseBackbufferAttachments()
	g.device.Release()
	g.adapter.Release()
	g.surface.Release()
	g.instance.Release()
}

func equalOffsets(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
