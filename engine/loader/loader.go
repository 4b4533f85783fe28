package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/game_object"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"golang.org/x/sync/errgroup"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// ErrUnsupportedFormat is returned for a file extension no backend reads.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Asset is a loaded model file: one model per mesh, the shared materials and the
// nodes placing the meshes.
type Asset struct {
	Name      string
	Models    []model.Model
	Materials []material.Material
	Nodes     []Node
}

// Instantiate creates a game object for every node of the asset.
//
// Parameters:
//   - options: extra options applied to every game object after its model and transform
//
// Returns:
//   - []game_object.GameObject: one game object per node
func (a *Asset) Instantiate(options ...game_object.GameObjectBuilderOption) []game_object.GameObject {
	objects := make([]game_object.GameObject, 0, len(a.Nodes))
	for _, n := range a.Nodes {
		if n.Mesh < 0 || n.Mesh >= len(a.Models) {
			continue
		}
		pos, euler, scale := common.DecomposeTRS(n.World)
		opts := []game_object.GameObjectBuilderOption{
			game_object.WithModel(a.Models[n.Mesh]),
			game_object.WithPosition(pos[0], pos[1], pos[2]),
			game_object.WithRotation(euler[0], euler[1], euler[2]),
			game_object.WithScale(scale[0], scale[1], scale[2]),
		}
		objects = append(objects, game_object.NewGameObject(append(opts, options...)...))
	}
	return objects
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	logger         *slog.Logger
	maxTextureSize int
	handedness     bool

	assetCache map[string]*Asset

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching 3D models.
// It abstracts the file format behind a backend and manages a cache of previously
// loaded assets.
type Loader interface {
	// Load imports a model file and caches the result by path. A cached asset is
	// returned without reading the file again.
	//
	// Parameters:
	//   - ctx: cancels the import and texture decoding
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: ErrUnsupportedFormat for unknown extensions, or the import error
	Load(ctx context.Context, path string) (*Asset, error)

	// LoadReader imports a model from a stream and caches it by the given name.
	//
	// Parameters:
	//   - ctx: cancels the import and texture decoding
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing glTF or GLB data
	//   - fsys: resolves external buffers and images, may be nil
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if loading fails
	LoadReader(ctx context.Context, name string, r io.Reader, fsys fs.FS) (*Asset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	Get(name string) *Asset

	// Assets returns a copy of the asset cache.
	Assets() map[string]*Asset

	// Remove drops an asset from the cache.
	Remove(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		logger:     slog.Default(),
		handedness: true,
		assetCache: make(map[string]*Asset),
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.handedness)
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}
	return l
}

func (l *loader) Load(ctx context.Context, path string) (*Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	imported, err := l.backend.Import(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(ctx, path, imported)
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader, fsys fs.FS) (*Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.ImportReader(ctx, r, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if imported.Name == "" {
		imported.Name = name
	}
	return l.store(ctx, name, imported)
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		out[k] = v
	}
	return out
}

func (l *loader) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.assetCache, name)
}

// store builds the asset and caches it. When two loads of the same key race, the
// first stored asset wins.
func (l *loader) store(ctx context.Context, key string, imported *ImportedScene) (*Asset, error) {
	asset, err := l.buildAsset(ctx, imported)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.assetCache[key]; ok {
		return existing, nil
	}
	l.assetCache[key] = asset
	return asset, nil
}

// buildAsset turns an imported scene into GPU-ready models with materials assigned
// per geometry slot.
func (l *loader) buildAsset(ctx context.Context, imported *ImportedScene) (*Asset, error) {
	textures, err := l.decodeTextures(ctx, imported.Materials)
	if err != nil {
		return nil, err
	}

	asset := &Asset{Name: imported.Name, Nodes: imported.Nodes}
	asset.Materials = make([]material.Material, len(imported.Materials))
	for i, im := range imported.Materials {
		asset.Materials[i] = buildMaterial(im, textures)
	}

	var fallback material.Material
	asset.Models = make([]model.Model, len(imported.Models))
	for i := range imported.Models {
		im := &imported.Models[i]
		m := model.BuildModel(im)
		for slot, mesh := range im.Meshes {
			if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(asset.Materials) {
				m.SetMaterial(slot, asset.Materials[mesh.MaterialIndex])
				continue
			}
			if fallback == nil {
				fallback = material.NewMaterial(
					material.WithName("Default"),
					material.WithTechnique(material.NewLitSolidTechnique(false), 0, 0),
				)
			}
			m.SetMaterial(slot, fallback)
		}
		asset.Models[i] = m
	}
	return asset, nil
}

// decodeTextures decodes every distinct texture referenced by the materials in
// parallel. A texture that fails to decode is logged and left out.
func (l *loader) decodeTextures(ctx context.Context, mats []model.ImportedMaterial) (map[*common.ImportedTexture]*graphics.Texture, error) {
	var unique []*common.ImportedTexture
	seen := make(map[*common.ImportedTexture]bool)
	for _, m := range mats {
		for _, t := range []*common.ImportedTexture{m.DiffuseTexture, m.NormalTexture, m.EmissiveTexture} {
			if t != nil && !seen[t] {
				seen[t] = true
				unique = append(unique, t)
			}
		}
	}

	decoded := make([]*graphics.Texture, len(unique))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			staging, err := t.Decode(l.maxTextureSize)
			if err != nil {
				l.logger.Warn("texture skipped", "texture", common.Coalesce(t.Path, t.Name), "error", err)
				return nil
			}
			tex := graphics.NewTextureFromStaging(t.Name, staging)
			if t.SamplerData != nil {
				tex.SetSampler(*t.SamplerData)
			}
			decoded[i] = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[*common.ImportedTexture]*graphics.Texture, len(unique))
	for i, t := range unique {
		if decoded[i] != nil {
			out[t] = decoded[i]
		}
	}
	return out, nil
}

// buildMaterial maps an imported PBR material onto a technique. Blended materials
// use the lit alpha technique, everything else the lit solid one.
func buildMaterial(im model.ImportedMaterial, textures map[*common.ImportedTexture]*graphics.Texture) material.Material {
	diffuse := textures[im.DiffuseTexture]
	normal := textures[im.NormalTexture]
	emissive := textures[im.EmissiveTexture]

	opts := []material.MaterialBuilderOption{
		material.WithName(im.Name),
		material.WithBaseColor(im.BaseColor),
		material.WithEmissiveColor(im.Emissive),
		material.WithMetallic(im.Metallic),
		material.WithRoughness(im.Roughness),
	}

	var vsDefines, psDefines []string
	if im.AlphaMode == model.AlphaBlend {
		opts = append(opts, material.WithTechnique(material.NewLitAlphaTechnique(), 0, 0))
	} else {
		opts = append(opts, material.WithTechnique(material.NewLitSolidTechnique(diffuse != nil), 0, 0))
	}
	if im.AlphaMode == model.AlphaMask {
		psDefines = append(psDefines, "ALPHAMASK")
		opts = append(opts, material.WithShaderParameter("MatAlphaCutoff", im.AlphaCutoff))
	}
	if diffuse != nil {
		opts = append(opts, material.WithTexture(graphics.TextureDiffuse, diffuse))
	}
	if normal != nil {
		vsDefines = append(vsDefines, "NORMALMAP")
		psDefines = append(psDefines, "NORMALMAP")
		opts = append(opts, material.WithTexture(graphics.TextureNormal, normal))
	}
	if emissive != nil {
		psDefines = append(psDefines, "EMISSIVEMAP")
		opts = append(opts, material.WithTexture(graphics.TextureEmissive, emissive))
	}
	if len(vsDefines) > 0 || len(psDefines) > 0 {
		opts = append(opts, material.WithShaderDefines(strings.Join(vsDefines, " "), strings.Join(psDefines, " ")))
	}
	if im.DoubleSided {
		opts = append(opts, material.WithCullMode(graphics.CullNone, graphics.CullNone))
	}
	return material.NewMaterial(opts...)
}
