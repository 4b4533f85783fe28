package graphics

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Op names a recorded device call.
type Op uint8

const (
	OpBeginFrame Op = iota
	OpEndFrame
	OpSetRenderTarget
	OpSetViewport
	OpClear
	OpSetPipelineState
	OpSetShaderParameters
	OpSetTexture
	OpSetVertexBuffers
	OpSetIndexBuffer
	OpDraw
	OpDrawIndexed
	OpSetScissor
)

// RecordedCall is one call captured by the Recorder. Only the fields relevant to
// Op are set.
type RecordedCall struct {
	Op            Op
	Color         *Texture
	Depth         *Texture
	Rect          common.IntRect
	ClearFlags    ClearFlags
	PipelineState *PipelineState
	Group         ShaderParameterGroup
	Params        []ShaderParameterValue
	Unit          TextureUnit
	Texture       *Texture
	VertexBuffers []*VertexBuffer
	IndexBuffer   *IndexBuffer
	Start, Count  uint32
	BaseVertex    uint32
	Enabled       bool
}

type shaderKey struct {
	typ     ShaderType
	name    string
	defines string
}

// Recorder is a headless Graphics device that records every call. It backs tests
// and offline demos; pipeline states and shaders are created without a GPU.
type Recorder struct {
	mu *sync.Mutex

	api            API
	pointShadows   bool
	cbuffers       bool
	backbuffer     common.IntVector2
	shaderSource   func(typ ShaderType, name, defines string) (string, error)
	pipelineFailer func(desc PipelineStateDesc) error

	shaders        map[shaderKey]*ShaderVariation
	pipelineStates int
	calls          []RecordedCall
}

var _ Graphics = &Recorder{}

// NewRecorder creates a recording device. By default it reports the WebGPU API,
// point shadow support, constant buffers and a 1280x720 backbuffer.
//
// Parameters:
//   - options: functional options to configure the recorder
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder(options ...RecorderBuilderOption) *Recorder {
	r := &Recorder{
		mu:           &sync.Mutex{},
		api:          APIWebGPU,
		pointShadows: true,
		cbuffers:     true,
		backbuffer:   common.IntVector2{X: 1280, Y: 720},
		shaders:      make(map[shaderKey]*ShaderVariation),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Recorder) API() API                          { return r.api }
func (r *Recorder) IsOpenGL() bool                    { return r.api == APIOpenGL }
func (r *Recorder) SupportsPointShadows() bool        { return r.pointShadows }
func (r *Recorder) ConstantBuffersEnabled() bool      { return r.cbuffers }
func (r *Recorder) BackbufferSize() common.IntVector2 { return r.backbuffer }

func (r *Recorder) GetShader(typ ShaderType, name, defines string) *ShaderVariation {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := shaderKey{typ: typ, name: name, defines: defines}
	if s, ok := r.shaders[key]; ok {
		return s
	}
	var source string
	if r.shaderSource != nil {
		var err error
		source, err = r.shaderSource(typ, name, defines)
		if err != nil {
			r.shaders[key] = nil
			return nil
		}
	}
	s := NewShaderVariation(typ, name, defines, source)
	r.shaders[key] = s
	return s
}

func (r *Recorder) CreatePipelineState(desc PipelineStateDesc) (*PipelineState, error) {
	if !desc.IsValid() {
		return nil, fmt.Errorf("pipeline state requires vertex and pixel shaders")
	}
	if r.pipelineFailer != nil {
		if err := r.pipelineFailer(desc); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	r.pipelineStates++
	r.mu.Unlock()
	return NewPipelineState(desc.Clone(), nil), nil
}

func (r *Recorder) record(call RecordedCall) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *Recorder) BeginFrame() error {
	r.record(RecordedCall{Op: OpBeginFrame})
	return nil
}

func (r *Recorder) EndFrame() {
	r.record(RecordedCall{Op: OpEndFrame})
}

func (r *Recorder) SetRenderTarget(color, depth *Texture) {
	r.record(RecordedCall{Op: OpSetRenderTarget, Color: color, Depth: depth})
}

func (r *Recorder) SetViewport(rect common.IntRect) {
	r.record(RecordedCall{Op: OpSetViewport, Rect: rect})
}

func (r *Recorder) Clear(flags ClearFlags, color mgl32.Vec4, depth float32, stencil uint32) {
	r.record(RecordedCall{Op: OpClear, ClearFlags: flags})
}

func (r *Recorder) SetPipelineState(state *PipelineState) {
	r.record(RecordedCall{Op: OpSetPipelineState, PipelineState: state})
}

func (r *Recorder) SetShaderParameters(group ShaderParameterGroup, params []ShaderParameterValue) {
	copied := make([]ShaderParameterValue, len(params))
	for i, p := range params {
		copied[i] = ShaderParameterValue{Name: p.Name, Data: slices.Clone(p.Data)}
	}
	r.record(RecordedCall{Op: OpSetShaderParameters, Group: group, Params: copied})
}

func (r *Recorder) SetTexture(unit TextureUnit, tex *Texture) {
	r.record(RecordedCall{Op: OpSetTexture, Unit: unit, Texture: tex})
}

func (r *Recorder) SetVertexBuffers(buffers []*VertexBuffer) {
	r.record(RecordedCall{Op: OpSetVertexBuffers, VertexBuffers: slices.Clone(buffers)})
}

func (r *Recorder) SetIndexBuffer(ib *IndexBuffer) {
	r.record(RecordedCall{Op: OpSetIndexBuffer, IndexBuffer: ib})
}

func (r *Recorder) Draw(vertexStart, vertexCount uint32) {
	r.record(RecordedCall{Op: OpDraw, Start: vertexStart, Count: vertexCount})
}

func (r *Recorder) DrawIndexed(indexStart, indexCount, baseVertex uint32) {
	r.record(RecordedCall{Op: OpDrawIndexed, Start: indexStart, Count: indexCount, BaseVertex: baseVertex})
}

func (r *Recorder) SetScissor(enabled bool, rect common.IntRect) {
	r.record(RecordedCall{Op: OpSetScissor, Enabled: enabled, Rect: rect})
}

// Calls returns a copy of every call recorded since the last Reset.
func (r *Recorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Count returns how many calls of op were recorded since the last Reset.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ParameterUploads returns how many times group was uploaded since the last Reset.
func (r *Recorder) ParameterUploads(group ShaderParameterGroup) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == OpSetShaderParameters && c.Group == group {
			n++
		}
	}
	return n
}

// PipelineStatesCreated returns the number of successful CreatePipelineState calls.
func (r *Recorder) PipelineStatesCreated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineStates
}

// Reset drops recorded calls. Interned shaders and the pipeline counter are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = r.calls[:0]
}
