package model

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model.
type ModelBuilderOption func(*model)

// WithName sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry appends a geometry slot. Pass several geometries to provide LOD
// levels ordered by increasing LOD distance.
//
// Parameters:
//   - lods: the LOD levels of the slot, at least one
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithGeometry(lods ...*Geometry) ModelBuilderOption {
	return func(m *model) {
		if len(lods) == 0 {
			return
		}
		m.geometries = append(m.geometries, lods)
	}
}

// WithBoundingBox overrides the bounds computed from the geometries.
//
// Parameters:
//   - box: the model-space bounds
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithBoundingBox(box common.BoundingBox) ModelBuilderOption {
	return func(m *model) {
		m.boundingBox = box
	}
}

// WithMaterials sets the default material of each slot, in slot order.
//
// Parameters:
//   - mats: the materials
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithMaterials(mats ...material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = mats
	}
}
