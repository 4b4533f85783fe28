package model

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// ImportedModel represents a 3D model loaded from an external format.
// This is the universal format that importers (glTF, ...) produce.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains all mesh data (may have multiple meshes/submeshes).
	Meshes []ImportedMesh

	// Materials are referenced by ImportedMesh.MaterialIndex.
	Materials []ImportedMaterial
}

// ImportedMesh represents a single mesh primitive within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials, -1 for none.
	MaterialIndex int
}

// AlphaMode is how a material treats the alpha channel.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// ImportedMaterial holds the material properties found in a model file.
type ImportedMaterial struct {
	Name string

	BaseColor [4]float32
	Emissive  [3]float32
	Metallic  float32
	Roughness float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool

	DiffuseTexture  *common.ImportedTexture
	NormalTexture   *common.ImportedTexture
	EmissiveTexture *common.ImportedTexture
}
