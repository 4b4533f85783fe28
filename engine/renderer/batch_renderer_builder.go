package renderer

import "github.com/Carmen-Shannon/oxy-render/engine/scene"

// BatchRendererBuilderOption is a functional option applied to a BatchRenderer during construction via NewBatchRenderer.
type BatchRendererBuilderOption func(*BatchRenderer)

// WithDefaultZone sets the zone used for drawables that are not inside any zone.
//
// Parameters:
//   - zone: the fallback zone, ignored when nil
//
// Returns:
//   - BatchRendererBuilderOption: a function that applies the default zone option to a BatchRenderer
func WithDefaultZone(zone *scene.Zone) BatchRendererBuilderOption {
	return func(r *BatchRenderer) {
		if zone != nil {
			r.defaultZone = zone
		}
	}
}

// WithOpenGLProjection selects OpenGL clip-space conventions for camera matrices and depth mode.
//
// Parameters:
//   - openGL: true for [-1, 1] clip-space depth
//
// Returns:
//   - BatchRendererBuilderOption: a function that applies the projection option to a BatchRenderer
func WithOpenGLProjection(openGL bool) BatchRendererBuilderOption {
	return func(r *BatchRenderer) {
		r.openGL = openGL
	}
}
