package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// depthBiasScale converts a normalized constant depth bias to depth buffer units.
const depthBiasScale = 1 << 24

// staleFrames is how many frames an unused buffer or texture survives.
const staleFrames = 120

type variationKey struct {
	typ     graphics.ShaderType
	name    string
	defines string
}

// targetKey is the attachment configuration a render pipeline variant is compiled for.
type targetKey struct {
	color   wgpu.TextureFormat
	depth   wgpu.TextureFormat
	samples uint32
	index   graphics.IndexType
}

type gpuTexture struct {
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	sampler    *wgpu.Sampler
	version    uint32
	generation uint32
	width      int
	height     int
	format     graphics.TextureFormat
	lastUsed   uint64
}

func (t *gpuTexture) release() {
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	t.sampler, t.view, t.texture = nil, nil, nil
}

type gpuBuffer struct {
	buffer   *wgpu.Buffer
	size     uint64
	version  uint32
	lastUsed uint64
}

// pipelineUniform is a uniform block binding fed by a parameter group.
type pipelineUniform struct {
	binding    uint32
	paramGroup graphics.ShaderParameterGroup
	block      *shader.UniformBlock
}

// pipelineResource is a texture or sampler binding fed by a texture unit.
type pipelineResource struct {
	binding uint32
	unit    graphics.TextureUnit
	sampler bool
	depth   bool
}

type pipelineGroup struct {
	provider  bind_group_provider.BindGroupProvider
	uniforms  []pipelineUniform
	resources []pipelineResource
}

// wgpuPipeline is the backend handle of a graphics.PipelineState. Render pipelines are
// compiled lazily per attachment configuration.
type wgpuPipeline struct {
	desc          graphics.PipelineStateDesc
	label         string
	vs, fs        *wgpu.ShaderModule
	vsEntry       string
	fsEntry       string
	layout        *wgpu.PipelineLayout
	groups        []*pipelineGroup
	vertexLayouts []wgpu.VertexBufferLayout
	variants      map[targetKey]*wgpu.RenderPipeline
}

func (g *wgpuGraphics) newPipeline(desc graphics.PipelineStateDesc) (*wgpuPipeline, error) {
	vsRefl := g.reflection[desc.VertexShader]
	fsRefl := g.reflection[desc.PixelShader]
	if vsRefl == nil || fsRefl == nil {
		return nil, fmt.Errorf("pipeline shaders were not loaded by this device")
	}

	label := desc.VertexShader.Name() + " " + desc.VertexShader.Defines()
	vertexLayouts, err := vertexBufferLayouts(desc.VertexElements, vsRefl.VertexInputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	groups, err := pipelineGroups(vsRefl, fsRefl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	p := &wgpuPipeline{
		desc:          desc.Clone(),
		label:         label,
		vsEntry:       vsRefl.EntryPoint,
		fsEntry:       fsRefl.EntryPoint,
		vertexLayouts: vertexLayouts,
		variants:      make(map[targetKey]*wgpu.RenderPipeline),
	}

	if p.vs, err = g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + " VS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.VertexShader.Source()},
	}); err != nil {
		return nil, fmt.Errorf("%s: failed to create vertex shader module: %w", label, err)
	}
	if p.fs, err = g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + " PS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.PixelShader.Source()},
	}); err != nil {
		p.release()
		return nil, fmt.Errorf("%s: failed to create pixel shader module: %w", label, err)
	}

	layouts := make([]*wgpu.BindGroupLayout, len(groups))
	for i, pg := range groups {
		entries := pg.provider.Entries()
		layout, err := g.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, i),
			Entries: entries,
		})
		if err != nil {
			p.release()
			return nil, fmt.Errorf("%s: failed to create bind group layout for group %d: %w", label, i, err)
		}
		layouts[i] = layout
		pg.provider = bind_group_provider.NewBindGroupProvider(uint32(i),
			wgpu.BindGroupLayoutDescriptor{Entries: entries},
			bind_group_provider.WithLabel(fmt.Sprintf("%s group %d", label, i)),
			bind_group_provider.WithBindGroupLayout(layout),
			bind_group_provider.WithBindGroupFactory(g.device.CreateBindGroup),
			bind_group_provider.WithMaxCached(256),
		)
	}
	p.groups = groups

	if p.layout, err = g.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	}); err != nil {
		p.release()
		return nil, fmt.Errorf("%s: failed to create pipeline layout: %w", label, err)
	}
	return p, nil
}

// variant returns the render pipeline compiled for the attachment configuration,
// compiling it on first use.
func (p *wgpuPipeline) variant(g *wgpuGraphics, key targetKey, indexType graphics.IndexType) (*wgpu.RenderPipeline, error) {
	strip := p.desc.PrimitiveType == graphics.TriangleStrip || p.desc.PrimitiveType == graphics.LineStrip
	if strip {
		key.index = indexType
	}
	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}

	frontFace, cullMode := p.desc.CullMode.ToWGPU()
	primitive := wgpu.PrimitiveState{
		Topology:  p.desc.PrimitiveType.ToWGPU(),
		FrontFace: frontFace,
		CullMode:  cullMode,
	}
	switch {
	case strip && key.index == graphics.Index16:
		primitive.StripIndexFormat = wgpu.IndexFormatUint16
	case strip && key.index == graphics.Index32:
		primitive.StripIndexFormat = wgpu.IndexFormatUint32
	}
	if p.desc.FillMode != graphics.FillSolid {
		g.logger.Debug("fill mode is not supported, drawing solid", "pipeline", p.label)
	}

	fragment := &wgpu.FragmentState{Module: p.fs, EntryPoint: p.fsEntry}
	if key.color != wgpu.TextureFormatUndefined {
		writeMask := wgpu.ColorWriteMaskAll
		if !p.desc.ColorWrite {
			writeMask = wgpu.ColorWriteMask(0)
		}
		fragment.Targets = []wgpu.ColorTargetState{{
			Format:    key.color,
			Blend:     p.desc.BlendMode.ToWGPU(),
			WriteMask: writeMask,
		}}
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.vs,
			EntryPoint: p.vsEntry,
			Buffers:    p.vertexLayouts,
		},
		Fragment:  fragment,
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count:                  key.samples,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: p.desc.AlphaToCoverage && key.color != wgpu.TextureFormatUndefined,
		},
	}
	if key.depth != wgpu.TextureFormatUndefined {
		desc.DepthStencil = p.depthStencilState(key.depth)
	}

	rp, err := g.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.label, err)
	}
	p.variants[key] = rp
	return rp, nil
}

func (p *wgpuPipeline) depthStencilState(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	state := &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   p.desc.DepthWrite,
		DepthCompare:        p.desc.DepthMode.ToWGPU(),
		StencilFront:        keep,
		StencilBack:         keep,
		DepthBias:           int32(p.desc.ConstantDepthBias * depthBiasScale),
		DepthBiasSlopeScale: p.desc.SlopeScaledDepthBias,
	}
	if p.desc.StencilEnabled && format == wgpu.TextureFormatDepth24PlusStencil8 {
		face := wgpu.StencilFaceState{
			Compare:     p.desc.StencilMode.ToWGPU(),
			FailOp:      p.desc.StencilFail.ToWGPU(),
			DepthFailOp: p.desc.StencilDepthFail.ToWGPU(),
			PassOp:      p.desc.StencilPass.ToWGPU(),
		}
		state.StencilFront = face
		state.StencilBack = face
		state.StencilReadMask = p.desc.CompareMask
		state.StencilWriteMask = p.desc.WriteMask
	}
	return state
}

func (p *wgpuPipeline) release() {
	for key, rp := range p.variants {
		rp.Release()
		delete(p.variants, key)
	}
	for _, pg := range p.groups {
		pg.provider.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	if p.vs != nil {
		p.vs.Release()
	}
	if p.fs != nil {
		p.fs.Release()
	}
}

// pipelineGroups merges the bindings of both stages into one pipelineGroup per group
// index. Group indices without bindings get an empty group, as pipeline layouts
// cannot have holes.
func pipelineGroups(vs, fs *shader.Reflection) ([]*pipelineGroup, error) {
	merged := bind_group_provider.MergeLayouts(vs.BindGroupLayouts, fs.BindGroupLayouts)
	count := 0
	for g := range merged {
		count = max(count, int(g)+1)
	}

	uniforms := make(map[[2]uint32]shader.UniformBlock)
	for _, refl := range []*shader.Reflection{vs, fs} {
		for _, u := range refl.Uniforms {
			uniforms[[2]uint32{u.Group, u.Binding}] = u
		}
	}
	resources := make(map[[2]uint32]pipelineResource)
	for _, refl := range []*shader.Reflection{vs, fs} {
		for _, t := range refl.Textures {
			unit, ok := shader.TextureUnitOf(t.Name)
			if !ok {
				return nil, fmt.Errorf("texture %q does not name a texture unit", t.Name)
			}
			resources[[2]uint32{t.Group, t.Binding}] = pipelineResource{
				binding: t.Binding,
				unit:    unit,
				depth:   strings.HasPrefix(t.Type, "texture_depth"),
			}
		}
		for _, s := range refl.Samplers {
			unit, ok := samplerUnit(s.Name)
			if !ok {
				return nil, fmt.Errorf("sampler %q does not name a texture unit", s.Name)
			}
			resources[[2]uint32{s.Group, s.Binding}] = pipelineResource{binding: s.Binding, unit: unit, sampler: true}
		}
	}

	groups := make([]*pipelineGroup, count)
	for i := range groups {
		desc := merged[uint32(i)]
		pg := &pipelineGroup{provider: bind_group_provider.NewBindGroupProvider(uint32(i), desc)}
		for _, e := range pg.provider.Entries() {
			key := [2]uint32{uint32(i), e.Binding}
			if u, ok := uniforms[key]; ok {
				group, ok := shader.ParameterGroupOf(u.Name)
				if !ok {
					return nil, fmt.Errorf("uniform block %q does not name a parameter group", u.Name)
				}
				block := u
				pg.uniforms = append(pg.uniforms, pipelineUniform{binding: e.Binding, paramGroup: group, block: &block})
				continue
			}
			if r, ok := resources[key]; ok {
				pg.resources = append(pg.resources, r)
			}
		}
		groups[i] = pg
	}
	return groups, nil
}

// samplerUnit maps a sampler variable such as "diffuseSampler" or "diffuseMapSampler"
// to the unit of the texture it samples.
func samplerUnit(name string) (graphics.TextureUnit, bool) {
	base, ok := strings.CutSuffix(name, "Sampler")
	if !ok {
		return 0, false
	}
	if !strings.HasSuffix(base, "Map") {
		base += "Map"
	}
	return shader.TextureUnitOf(base)
}

// vertexBufferLayouts builds one layout per vertex buffer of elements, which hold the
// elements of every buffer in binding order. A buffer starts at each element with
// offset zero. Every shader input must be provided by an element.
func vertexBufferLayouts(elements []graphics.VertexElement, inputs []shader.VertexInput) ([]wgpu.VertexBufferLayout, error) {
	var layouts []wgpu.VertexBufferLayout
	slotOf := make([]int, len(elements))
	for i, e := range elements {
		if i == 0 || e.Offset == 0 {
			mode := wgpu.VertexStepModeVertex
			if e.PerInstance {
				mode = wgpu.VertexStepModeInstance
			}
			layouts = append(layouts, wgpu.VertexBufferLayout{StepMode: mode})
		}
		slot := len(layouts) - 1
		slotOf[i] = slot
		layouts[slot].ArrayStride = max(layouts[slot].ArrayStride, uint64(e.Offset+e.Type.Size()))
	}

	for _, in := range inputs {
		sem, index, ok := shader.SemanticOf(in.Name)
		if !ok {
			return nil, fmt.Errorf("vertex input %q has no known semantic", in.Name)
		}
		found := false
		for i, e := range elements {
			if e.Semantic != sem || e.Index != index {
				continue
			}
			slot := slotOf[i]
			layouts[slot].Attributes = append(layouts[slot].Attributes, wgpu.VertexAttribute{
				Format:         e.Type.ToWGPU(),
				Offset:         uint64(e.Offset),
				ShaderLocation: in.Location,
			})
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("vertex input %q is not provided by the geometry", in.Name)
		}
	}
	for i := range layouts {
		sort.Slice(layouts[i].Attributes, func(a, b int) bool {
			return layouts[i].Attributes[a].ShaderLocation < layouts[i].Attributes[b].ShaderLocation
		})
	}
	return layouts, nil
}

// gpuTexture returns the GPU copy of tex, creating or re-uploading it when tex changed.
func (g *wgpuGraphics) gpuTexture(tex *graphics.Texture) (*gpuTexture, error) {
	gt := g.textures[tex.ID()]
	if gt != nil && gt.version == tex.Version() {
		gt.lastUsed = g.frame
		return gt, nil
	}

	if gt == nil || gt.width != tex.Width() || gt.height != tex.Height() || gt.format != tex.Format() {
		var generation uint32
		if gt != nil {
			generation = gt.generation + 1
			gt.release()
		}
		usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
		if tex.IsRenderTarget() {
			usage = wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment
		}
		texture, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     tex.Name(),
			Usage:     usage,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              uint32(tex.Width()),
				Height:             uint32(tex.Height()),
				DepthOrArrayLayers: 1,
			},
			Format:        tex.Format().ToWGPU(),
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create texture %s: %w", tex.Name(), err)
		}
		view, err := texture.CreateView(nil)
		if err != nil {
			texture.Release()
			return nil, fmt.Errorf("failed to create texture view %s: %w", tex.Name(), err)
		}
		gt = &gpuTexture{
			texture:    texture,
			view:       view,
			generation: generation,
			width:      tex.Width(),
			height:     tex.Height(),
			format:     tex.Format(),
		}
		g.textures[tex.ID()] = gt
	}

	if pixels := tex.Pixels(); len(pixels) > 0 && !tex.IsRenderTarget() {
		bpp := uint32(tex.Format().BytesPerPixel())
		g.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: gt.texture, Aspect: wgpu.TextureAspectAll},
			pixels,
			&wgpu.TextureDataLayout{
				BytesPerRow:  uint32(tex.Width()) * bpp,
				RowsPerImage: uint32(tex.Height()),
			},
			&wgpu.Extent3D{Width: uint32(tex.Width()), Height: uint32(tex.Height()), DepthOrArrayLayers: 1},
		)
	}

	if gt.sampler != nil {
		gt.sampler.Release()
	}
	sampler, err := g.createSampler(tex)
	if err != nil {
		return nil, err
	}
	gt.sampler = sampler
	gt.generation++
	gt.version = tex.Version()
	gt.lastUsed = g.frame
	return gt, nil
}

func (g *wgpuGraphics) createSampler(tex *graphics.Texture) (*wgpu.Sampler, error) {
	s := tex.Sampler()
	desc := &wgpu.SamplerDescriptor{
		Label:         tex.Name() + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMaxClamp:   32,
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	}
	if tex.Format().IsDepth() {
		desc.AddressModeU = wgpu.AddressModeClampToEdge
		desc.AddressModeV = wgpu.AddressModeClampToEdge
		desc.AddressModeW = wgpu.AddressModeClampToEdge
		desc.MipmapFilter = wgpu.MipmapFilterModeNearest
		desc.Compare = common.Coalesce(s.Compare, wgpu.CompareFunctionLessEqual)
	}
	sampler, err := g.device.CreateSampler(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler for %s: %w", tex.Name(), err)
	}
	return sampler, nil
}

// uploadBuffer returns the GPU copy of a vertex or index buffer, re-uploading it when
// its version changed. The GPU buffer only grows.
func (g *wgpuGraphics) uploadBuffer(cache map[uint32]*gpuBuffer, id, version uint32, data []byte, usage wgpu.BufferUsage, label string) (*wgpu.Buffer, error) {
	b := cache[id]
	if b != nil && b.version == version {
		b.lastUsed = g.frame
		return b.buffer, nil
	}

	write := bind_group_provider.BufferWrite{Data: padded(data)}
	size := max(write.End(), 4)
	if b == nil || b.size < size {
		if b != nil {
			b.buffer.Release()
		}
		buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", strings.ToLower(label), err)
		}
		b = &gpuBuffer{buffer: buf, size: size}
		cache[id] = b
	}
	write.Buffer = b.buffer
	if len(write.Data) > 0 {
		g.queue.WriteBuffer(write.Buffer, write.Offset, write.Data)
	}
	b.version = version
	b.lastUsed = g.frame
	return b.buffer, nil
}

// purgeStale releases buffers and textures not used for staleFrames frames.
func (g *wgpuGraphics) purgeStale() {
	if g.frame < staleFrames {
		return
	}
	limit := g.frame - staleFrames
	for _, cache := range []map[uint32]*gpuBuffer{g.vertexBuffers, g.indexBuffers} {
		for id, b := range cache {
			if b.lastUsed < limit {
				b.buffer.Release()
				delete(cache, id)
			}
		}
	}
	for id, t := range g.textures {
		if t.lastUsed < limit {
			t.release()
			delete(g.textures, id)
		}
	}
}

// padded returns data extended with zeros to a multiple of four bytes, as required by
// queue writes.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, bind_group_provider.AlignUp(uint64(len(data)), 4))
	copy(out, data)
	return out
}

// clampRect clips rect to a target of the given size.
func clampRect(rect common.IntRect, size common.IntVector2) common.IntRect {
	r := common.IntRect{
		Left:   min(max(rect.Left, 0), size.X),
		Top:    min(max(rect.Top, 0), size.Y),
		Right:  min(max(rect.Right, 0), size.X),
		Bottom: min(max(rect.Bottom, 0), size.Y),
	}
	if r.Right < r.Left {
		r.Right = r.Left
	}
	if r.Bottom < r.Top {
		r.Bottom = r.Top
	}
	return r
}
