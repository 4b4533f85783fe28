package graphics

import "github.com/Carmen-Shannon/oxy-render/common"

// RecorderBuilderOption is a functional option used to configure a Recorder during construction.
type RecorderBuilderOption func(*Recorder)

// WithAPI sets the backend kind the recorder reports.
//
// Parameters:
//   - api: the API to report
//
// Returns:
//   - RecorderBuilderOption: a function that sets the reported API
func WithAPI(api API) RecorderBuilderOption {
	return func(r *Recorder) {
		r.api = api
	}
}

// WithPointShadows sets whether the recorder reports point light shadow support.
//
// Parameters:
//   - supported: true if point light shadows are supported
//
// Returns:
//   - RecorderBuilderOption: a function that sets point shadow support
func WithPointShadows(supported bool) RecorderBuilderOption {
	return func(r *Recorder) {
		r.pointShadows = supported
	}
}

// WithConstantBuffers sets whether the recorder reports constant buffer usage.
//
// Parameters:
//   - enabled: true if constant buffers are used
//
// Returns:
//   - RecorderBuilderOption: a function that sets constant buffer usage
func WithConstantBuffers(enabled bool) RecorderBuilderOption {
	return func(r *Recorder) {
		r.cbuffers = enabled
	}
}

// WithBackbufferSize sets the reported backbuffer size.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RecorderBuilderOption: a function that sets the backbuffer size
func WithBackbufferSize(width, height int) RecorderBuilderOption {
	return func(r *Recorder) {
		r.backbuffer = common.IntVector2{X: width, Y: height}
	}
}

// WithShaderSource sets the function used to produce shader source. An error from
// it makes GetShader return nil for that variation.
//
// Parameters:
//   - fn: the source loader
//
// Returns:
//   - RecorderBuilderOption: a function that sets the shader source loader
func WithShaderSource(fn func(typ ShaderType, name, defines string) (string, error)) RecorderBuilderOption {
	return func(r *Recorder) {
		r.shaderSource = fn
	}
}

// WithPipelineStateFailure makes CreatePipelineState fail whenever fn returns an error.
//
// Parameters:
//   - fn: inspects the description and returns an error to reject it
//
// Returns:
//   - RecorderBuilderOption: a function that installs the failure hook
func WithPipelineStateFailure(fn func(desc PipelineStateDesc) error) RecorderBuilderOption {
	return func(r *Recorder) {
		r.pipelineFailer = fn
	}
}
