package batch

import "github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"

// CollectorBuilderOption is a functional option for configuring a SceneBatchCollector.
type CollectorBuilderOption func(*SceneBatchCollector)

// WithMaxPixelLights sets the pixel light budget per drawable.
//
// Parameters:
//   - n: the budget, clamped to [0, MaxPixelLights]
//
// Returns:
//   - CollectorBuilderOption: a function that sets the budget
func WithMaxPixelLights(n int) CollectorBuilderOption {
	return func(c *SceneBatchCollector) {
		c.SetMaxPixelLights(n)
	}
}

// WithMaterialQuality sets the quality level techniques are selected for.
//
// Parameters:
//   - quality: the material quality
//
// Returns:
//   - CollectorBuilderOption: a function that sets the quality
func WithMaterialQuality(quality int) CollectorBuilderOption {
	return func(c *SceneBatchCollector) {
		c.materialQuality = quality
	}
}

// WithOpenGL selects OpenGL clip-space conventions for shadow matrices.
//
// Parameters:
//   - openGL: whether the backend is OpenGL
//
// Returns:
//   - CollectorBuilderOption: a function that sets the flag
func WithOpenGL(openGL bool) CollectorBuilderOption {
	return func(c *SceneBatchCollector) {
		c.openGL = openGL
	}
}

// WithPipelineStateCache shares a scene pipeline state cache, e.g. between views of
// the same viewport.
//
// Parameters:
//   - cache: the cache
//
// Returns:
//   - CollectorBuilderOption: a function that sets the cache
func WithPipelineStateCache(cache *pipeline.ScenePipelineStateCache) CollectorBuilderOption {
	return func(c *SceneBatchCollector) {
		if cache != nil {
			c.pipelineStates = cache
		}
	}
}
