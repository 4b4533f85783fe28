package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/workqueue"
	"github.com/go-gl/mathgl/mgl32"
)

// ViewRendererBuilderOption is a functional option applied to a ViewRenderer during construction via NewViewRenderer.
type ViewRendererBuilderOption func(*ViewRenderer)

// WithSettings replaces the default renderer settings.
//
// Parameters:
//   - settings: validated renderer settings
//
// Returns:
//   - ViewRendererBuilderOption: a function that applies the settings option to a ViewRenderer
func WithSettings(settings config.RendererSettings) ViewRendererBuilderOption {
	return func(v *ViewRenderer) {
		v.settings = settings
	}
}

// WithWorkQueue shares an existing worker queue instead of creating one sized from the settings.
//
// Parameters:
//   - queue: the worker queue
//
// Returns:
//   - ViewRendererBuilderOption: a function that applies the work queue option to a ViewRenderer
func WithWorkQueue(queue workqueue.WorkQueue) ViewRendererBuilderOption {
	return func(v *ViewRenderer) {
		v.queue = queue
	}
}

// WithProfiler reports per-view statistics to p after every frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - ViewRendererBuilderOption: a function that applies the profiler option to a ViewRenderer
func WithProfiler(p *profiler.Profiler) ViewRendererBuilderOption {
	return func(v *ViewRenderer) {
		v.profiler = p
	}
}

// WithClearColor sets the color the output is cleared to before the base pass.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - ViewRendererBuilderOption: a function that applies the clear color option to a ViewRenderer
func WithClearColor(color mgl32.Vec4) ViewRendererBuilderOption {
	return func(v *ViewRenderer) {
		v.clearColor = color
	}
}
