package graphics

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// API identifies the rendering backend behind a Graphics device. It drives
// backend-specific conventions such as clip-space depth and render target flipping.
type API uint8

const (
	APIWebGPU API = iota
	APIOpenGL
	APIDirect3D11
)

// ClearFlags selects which attachments Clear touches.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// Graphics is the GPU device the renderer draws through. Every method is called
// from the rendering goroutine only.
type Graphics interface {
	// API returns the backend kind.
	//
	// Returns:
	//   - API: the backend kind
	API() API

	// IsOpenGL reports whether clip-space depth is [-1, 1] and render targets are
	// addressed bottom-up.
	//
	// Returns:
	//   - bool: true on OpenGL-like backends
	IsOpenGL() bool

	// SupportsPointShadows reports whether point light (cube) shadows can be rendered.
	//
	// Returns:
	//   - bool: true if point light shadows are supported
	SupportsPointShadows() bool

	// ConstantBuffersEnabled reports whether shader parameters are uploaded as
	// uniform blocks per group rather than individual uniforms.
	//
	// Returns:
	//   - bool: true if constant buffers are used
	ConstantBuffersEnabled() bool

	// BackbufferSize returns the size of the default render target.
	//
	// Returns:
	//   - common.IntVector2: width and height in pixels
	BackbufferSize() common.IntVector2

	// GetShader returns the interned shader variation for a resource name and a
	// space-separated define list, or nil if the shader cannot be loaded.
	//
	// Parameters:
	//   - typ: the shader stage
	//   - name: the shader resource name without extension
	//   - defines: space-separated defines, "NAME" or "NAME=VALUE"
	//
	// Returns:
	//   - *ShaderVariation: the variation or nil
	GetShader(typ ShaderType, name, defines string) *ShaderVariation

	// CreatePipelineState compiles a pipeline for desc.
	//
	// Parameters:
	//   - desc: a valid description with its hash computed
	//
	// Returns:
	//   - *PipelineState: the created pipeline
	//   - error: error if the backend rejects the description
	CreatePipelineState(desc PipelineStateDesc) (*PipelineState, error)

	// BeginFrame starts recording a frame.
	//
	// Returns:
	//   - error: error if the frame cannot start (e.g. the surface is lost)
	BeginFrame() error

	// EndFrame submits and presents the recorded frame.
	EndFrame()

	// SetRenderTarget selects the attachments of subsequent draws. With both nil the
	// backbuffer and its default depth buffer are used; a nil color with a depth
	// texture renders depth only (shadow maps); a color texture with a nil depth has
	// no depth attachment.
	SetRenderTarget(color, depth *Texture)

	SetViewport(rect common.IntRect)
	Clear(flags ClearFlags, color mgl32.Vec4, depth float32, stencil uint32)
	SetPipelineState(state *PipelineState)

	// SetShaderParameters uploads every parameter of one group. The Data slices are
	// only valid during the call.
	//
	// Parameters:
	//   - group: the parameter group being uploaded
	//   - params: the values in upload order
	SetShaderParameters(group ShaderParameterGroup, params []ShaderParameterValue)

	SetTexture(unit TextureUnit, tex *Texture)
	SetVertexBuffers(buffers []*VertexBuffer)
	SetIndexBuffer(ib *IndexBuffer)
	Draw(vertexStart, vertexCount uint32)
	DrawIndexed(indexStart, indexCount, baseVertex uint32)
	SetScissor(enabled bool, rect common.IntRect)
}
