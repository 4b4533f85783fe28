package renderer

import (
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/engine/event"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithEventBus connects the renderer to an event bus: it resizes on screen mode events
// and publishes RenderUpdate and EndAllViewsRender every frame.
//
// Parameters:
//   - bus: the event bus
//
// Returns:
//   - RendererBuilderOption: a function that applies the event bus option to a renderer
func WithEventBus(bus event.Bus) RendererBuilderOption {
	return func(r *renderer) {
		r.bus = bus
	}
}

// WithViews registers views in render order.
//
// Parameters:
//   - views: the views to render each frame
//
// Returns:
//   - RendererBuilderOption: a function that applies the views option to a renderer
func WithViews(views ...*ViewRenderer) RendererBuilderOption {
	return func(r *renderer) {
		for _, v := range views {
			if v != nil && !slices.Contains(r.views, v) {
				r.views = append(r.views, v)
			}
		}
	}
}

// WithRendererLogger sets the logger failed views are reported to.
//
// Parameters:
//   - logger: the logger, slog.Default() when not set
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithRendererLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
