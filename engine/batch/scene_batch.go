package batch

import (
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// BaseSceneBatch is one source batch of a drawable drawn with one material pass.
// Shadow batches use the same type.
type BaseSceneBatch struct {
	Drawable         scene.Drawable
	SourceBatchIndex int
	GeometryType     scene.GeometryType
	Geometry         *model.Geometry
	Material         material.Material
	Pass             *material.Pass
	// LitBase is set when the base pass also applies the main light.
	LitBase bool
	// PipelineState is nil when creation failed; such batches are not drawn.
	PipelineState *graphics.PipelineState

	drawableHash uint32
	lightHash    uint32
}

// SourceBatch returns the drawable's source batch the scene batch was made from.
func (b *BaseSceneBatch) SourceBatch() *scene.SourceBatch {
	return &b.Drawable.Batches()[b.SourceBatchIndex]
}

// key is the pipeline cache key the batch was looked up with.
func (b *BaseSceneBatch) key() pipeline.SceneKey {
	return pipeline.SceneKey{
		DrawableHash: b.drawableHash,
		LightHash:    b.lightHash,
		GeometryType: b.GeometryType,
		Geometry:     b.Geometry,
		Material:     b.Material,
		Pass:         b.Pass,
	}
}

// LightSceneBatch is a base batch drawn additively for one pixel light.
type LightSceneBatch struct {
	BaseSceneBatch
	// LightIndex indexes the collector's visible lights.
	LightIndex int
}

func materialID(m material.Material) uint32 {
	if m == nil {
		return 0
	}
	return m.ID()
}

func newBaseSceneBatch(d scene.Drawable, sourceBatchIndex int, pass *material.Pass, drawableHash, lightHash uint32) BaseSceneBatch {
	src := &d.Batches()[sourceBatchIndex]
	mat := src.Material
	if mat == nil {
		mat = material.Default()
	}
	return BaseSceneBatch{
		Drawable:         d,
		SourceBatchIndex: sourceBatchIndex,
		GeometryType:     src.GeometryType,
		Geometry:         src.Geometry,
		Material:         mat,
		Pass:             pass,
		drawableHash:     drawableHash,
		lightHash:        lightHash,
	}
}
