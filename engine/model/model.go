package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// model is the implementation of the Model interface.
type model struct {
	mu *sync.RWMutex

	name        string
	geometries  [][]*Geometry // [slot][lod]
	materials   []material.Material
	boundingBox common.BoundingBox
}

// Model defines the interface for a loaded 3D model.
// A Model is a set of geometry slots, each with one or more LOD levels ordered by
// increasing LOD distance, plus a default material per slot. Drawables reference a
// Model and produce one source batch per slot.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// NumGeometries returns the number of geometry slots.
	//
	// Returns:
	//   - int: the slot count
	NumGeometries() int

	// Geometry returns the LOD level of a slot, clamped to the available levels.
	// Returns nil for an invalid slot.
	//
	// Parameters:
	//   - slot: the geometry slot
	//   - lod: the LOD level
	//
	// Returns:
	//   - *Geometry: the geometry or nil
	Geometry(slot, lod int) *Geometry

	// LodLevels returns every LOD level of a slot.
	//
	// Parameters:
	//   - slot: the geometry slot
	//
	// Returns:
	//   - []*Geometry: LOD levels ordered by increasing LOD distance
	LodLevels(slot int) []*Geometry

	// BoundingBox returns the model-space bounds of every geometry.
	//
	// Returns:
	//   - common.BoundingBox: the bounds
	BoundingBox() common.BoundingBox

	// Materials returns the default material of every slot. Entries may be nil.
	//
	// Returns:
	//   - []material.Material: one material per slot
	Materials() []material.Material

	// SetMaterial replaces the default material of a slot. Out of range slots are ignored.
	//
	// Parameters:
	//   - slot: the geometry slot
	//   - m: the material
	SetMaterial(slot int, m material.Material)
}

var _ Model = &model{}

// NewModel creates a new Model configured by options.
//
// Parameters:
//   - options: functional options to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{mu: &sync.RWMutex{}}
	for _, opt := range options {
		opt(m)
	}
	if !m.boundingBox.Defined {
		for _, lods := range m.geometries {
			for _, g := range lods {
				m.boundingBox.Merge(g.BoundingBox())
			}
		}
	}
	for len(m.materials) < len(m.geometries) {
		m.materials = append(m.materials, nil)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) NumGeometries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.geometries)
}

func (m *model) Geometry(slot, lod int) *Geometry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if slot < 0 || slot >= len(m.geometries) || len(m.geometries[slot]) == 0 {
		return nil
	}
	lods := m.geometries[slot]
	return lods[min(max(lod, 0), len(lods)-1)]
}

func (m *model) LodLevels(slot int) []*Geometry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if slot < 0 || slot >= len(m.geometries) {
		return nil
	}
	return m.geometries[slot]
}

func (m *model) BoundingBox() common.BoundingBox {
	return m.boundingBox
}

func (m *model) Materials() []material.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.materials
}

func (m *model) SetMaterial(slot int, mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot >= 0 && slot < len(m.materials) {
		m.materials[slot] = mat
	}
}

// BuildModel uploads an imported model into vertex and index buffers, one
// geometry slot per mesh. Materials are assigned by the caller.
//
// Parameters:
//   - imported: the importer output
//
// Returns:
//   - Model: the new model
func BuildModel(imported *ImportedModel) Model {
	opts := []ModelBuilderOption{WithName(imported.Name)}
	for _, mesh := range imported.Meshes {
		vb := graphics.NewVertexBuffer(GPUVertexElements, MarshalVertices(mesh.Vertices), false)
		var ib *graphics.IndexBuffer
		if len(mesh.Indices) > 0 {
			ib = graphics.NewIndexBuffer32(mesh.Indices)
		}
		g := NewGeometry(graphics.TriangleList, ib, vb)
		g.SetBoundingBox(ComputeBoundingBox(mesh.Vertices))
		opts = append(opts, WithGeometry(g))
	}
	return NewModel(opts...)
}
