package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/qmuntal/gltf"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	convertHandedness bool
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - convertHandedness: mirror the right-handed glTF data into the engine's left-handed space
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(convertHandedness bool) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{convertHandedness: convertHandedness}
}

func (b *gltfLoaderBackendImpl) Import(ctx context.Context, path string) (*ImportedScene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return b.importDocument(ctx, name, doc, os.DirFS(filepath.Dir(path)))
}

func (b *gltfLoaderBackendImpl) ImportReader(ctx context.Context, r io.Reader, fsys fs.FS) (*ImportedScene, error) {
	doc := gltf.NewDocument()
	var dec *gltf.Decoder
	if fsys != nil {
		dec = gltf.NewDecoderFS(r, fsys)
	} else {
		dec = gltf.NewDecoder(r)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF: %w", err)
	}
	return b.importDocument(ctx, "", doc, fsys)
}

// importDocument converts a decoded document. Meshes become one imported model each,
// with a mesh per triangle primitive.
func (b *gltfLoaderBackendImpl) importDocument(ctx context.Context, name string, doc *gltf.Document, fsys fs.FS) (*ImportedScene, error) {
	scene := &ImportedScene{Name: name}

	textures := make([]*common.ImportedTexture, len(doc.Textures))
	for i := range doc.Textures {
		tex, err := gltfTexture(doc, i, fsys)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		textures[i] = tex
	}

	scene.Materials = make([]model.ImportedMaterial, len(doc.Materials))
	for i, gm := range doc.Materials {
		scene.Materials[i] = gltfMaterial(gm, i, textures)
	}

	scene.Models = make([]model.ImportedModel, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		im := model.ImportedModel{Name: gm.Name}
		if im.Name == "" {
			im.Name = fmt.Sprintf("mesh%d", mi)
		}
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			mesh, err := readPrimitive(doc, prim, b.convertHandedness)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			mesh.Name = fmt.Sprintf("%s.%d", im.Name, pi)
			im.Meshes = append(im.Meshes, mesh)
		}
		scene.Models[mi] = im
	}

	scene.Nodes = gltfNodes(doc, b.convertHandedness)
	return scene, nil
}
