package loader

import (
	"context"
	"io"
	"io/fs"

	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is a scene node that places one imported mesh in the world.
type Node struct {
	// Name is the node name from the file, or a generated one.
	Name string

	// Mesh indexes ImportedScene.Models and Asset.Models.
	Mesh int

	// World is the node transform with all parents applied.
	World mgl32.Mat4
}

// ImportedScene is the format-independent result of a backend import. Mesh material
// indices refer to Materials, which are shared by all models.
type ImportedScene struct {
	Name      string
	Models    []model.ImportedModel
	Materials []model.ImportedMaterial
	Nodes     []Node
}

// loaderBackend defines the generic interface for importing model files.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Import reads a model file from disk. External resources resolve relative to the
	// file's directory.
	//
	// Parameters:
	//   - ctx: cancels the import
	//   - path: the file path to load
	//
	// Returns:
	//   - *ImportedScene: the imported meshes, materials and nodes
	//   - error: error if loading fails
	Import(ctx context.Context, path string) (*ImportedScene, error)

	// ImportReader reads a model from a stream.
	//
	// Parameters:
	//   - ctx: cancels the import
	//   - r: the reader providing model data, text or binary
	//   - fsys: resolves external resources, may be nil
	//
	// Returns:
	//   - *ImportedScene: the imported meshes, materials and nodes
	//   - error: error if loading fails
	ImportReader(ctx context.Context, r io.Reader, fsys fs.FS) (*ImportedScene, error)
}
