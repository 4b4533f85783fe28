package ui

import (
	"io/fs"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
)

// RmlRendererBuilderOption is a functional option for configuring an RmlRenderer.
type RmlRendererBuilderOption func(*RmlRenderer)

// WithRendererFS sets the file system LoadTexture reads images from.
//
// Parameters:
//   - fsys: the file system
//
// Returns:
//   - RmlRendererBuilderOption: the option function
func WithRendererFS(fsys fs.FS) RmlRendererBuilderOption {
	return func(r *RmlRenderer) {
		r.files = fsys
	}
}

// WithMaxTextureSize downscales loaded images so neither side exceeds size. Zero
// disables the limit.
func WithMaxTextureSize(size int) RmlRendererBuilderOption {
	return func(r *RmlRenderer) {
		if size >= 0 {
			r.maxTextureSize = size
		}
	}
}

// WithPipelineStateCache shares a pipeline state cache with other renderers.
func WithPipelineStateCache(cache pipeline.PipelineStateCache) RmlRendererBuilderOption {
	return func(r *RmlRenderer) {
		r.states = cache
	}
}

// WithElapsedTime sets the clock uploaded as the ElapsedTime shader parameter.
func WithElapsedTime(elapsed func() float64) RmlRendererBuilderOption {
	return func(r *RmlRenderer) {
		if elapsed != nil {
			r.elapsed = elapsed
		}
	}
}

// WithRmlRendererLogger sets the logger for invalid handles and failed loads.
func WithRmlRendererLogger(logger *slog.Logger) RmlRendererBuilderOption {
	return func(r *RmlRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
