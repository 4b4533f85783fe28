package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// triangleDoc builds a document with one triangle placed by a parent and a child node.
func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 1}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Materials = []*gltf.Material{{
		Name: "Red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 1},
		},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "Root", Translation: [3]float64{1, 2, 3}, Children: []int{1}},
		{Name: "Child", Translation: [3]float64{0, 0, 5}, Mesh: gltf.Index(0)},
	}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func importDoc(t *testing.T, doc *gltf.Document, mirror bool) *ImportedScene {
	t.Helper()
	b := newGLTFLoaderBackend(mirror).(*gltfLoaderBackendImpl)
	scene, err := b.importDocument(context.Background(), "test", doc, nil)
	require.NoError(t, err)
	return scene
}

func TestImportMirrorsIntoEngineSpace(t *testing.T) {
	scene := importDoc(t, triangleDoc(), true)

	require.Len(t, scene.Models, 1)
	require.Len(t, scene.Models[0].Meshes, 1)
	mesh := scene.Models[0].Meshes[0]
	assert.Equal(t, "Tri.0", mesh.Name)
	assert.Equal(t, 0, mesh.MaterialIndex)
	assert.Equal(t, []uint32{0, 2, 1}, mesh.Indices)
	assert.Equal(t, [3]float32{0, 1, -1}, mesh.Vertices[2].Position)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, mesh.Vertices[0].Color)

	n := mgl32.Vec3(mesh.Vertices[0].Normal)
	assert.True(t, n.ApproxEqualThreshold(mgl32.Vec3{0, -0.70710677, -0.70710677}, 1e-5), "normal %v", n)

	require.Len(t, scene.Nodes, 1)
	assert.Equal(t, "Child", scene.Nodes[0].Name)
	assert.True(t, common.Translation(scene.Nodes[0].World).ApproxEqualThreshold(mgl32.Vec3{1, 2, -8}, 1e-5))
}

func TestImportWithoutConversionKeepsData(t *testing.T) {
	scene := importDoc(t, triangleDoc(), false)

	mesh := scene.Models[0].Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.Equal(t, [3]float32{0, 1, 1}, mesh.Vertices[2].Position)
	assert.True(t, common.Translation(scene.Nodes[0].World).ApproxEqualThreshold(mgl32.Vec3{1, 2, 8}, 1e-5))
}

func TestImportRejectsPrimitiveWithoutPositions(t *testing.T) {
	doc := triangleDoc()
	doc.Meshes[0].Primitives[0].Attributes = map[string]int{}

	b := newGLTFLoaderBackend(true).(*gltfLoaderBackendImpl)
	_, err := b.importDocument(context.Background(), "test", doc, nil)
	assert.ErrorIs(t, err, ErrNoPositions)
}

func TestImportMaterialProperties(t *testing.T) {
	doc := triangleDoc()
	doc.Materials[0].AlphaMode = gltf.AlphaBlend
	doc.Materials[0].DoubleSided = true
	doc.Materials[0].EmissiveFactor = [3]float64{0.5, 0.25, 0}

	scene := importDoc(t, doc, true)
	require.Len(t, scene.Materials, 1)
	m := scene.Materials[0]
	assert.Equal(t, "Red", m.Name)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, m.BaseColor)
	assert.Equal(t, [3]float32{0.5, 0.25, 0}, m.Emissive)
	assert.Equal(t, model.AlphaBlend, m.AlphaMode)
	assert.True(t, m.DoubleSided)

	l := NewLoader(BackendTypeGLTF).(*loader)
	asset, err := l.store(context.Background(), "tri", scene)
	require.NoError(t, err)
	mat := asset.Models[0].Materials()[0]
	require.NotNil(t, mat)
	assert.Equal(t, "NoTextureAlpha", mat.Techniques()[0].Technique.Name())
	assert.Equal(t, graphics.CullNone, mat.CullMode())
	assert.Same(t, asset.Materials[0], mat)
}

func TestLoaderDecodesEmbeddedTextures(t *testing.T) {
	doc := triangleDoc()
	doc.Images = []*gltf.Image{{URI: pngDataURI(t, 8, 4)}}
	doc.Samplers = []*gltf.Sampler{{MagFilter: gltf.MagNearest, WrapS: gltf.WrapClampToEdge}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0), Sampler: gltf.Index(0)}}
	doc.Materials[0].PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: 0}

	l := NewLoader(BackendTypeGLTF, WithMaxTextureSize(4)).(*loader)
	asset, err := l.store(context.Background(), "tri", importDoc(t, doc, true))
	require.NoError(t, err)

	mat := asset.Materials[0]
	assert.Equal(t, "Diff", mat.Techniques()[0].Technique.Name())
	tex := mat.Texture(graphics.TextureDiffuse)
	require.NotNil(t, tex)
	assert.Equal(t, 4, tex.Width())
	assert.Equal(t, 2, tex.Height())
	assert.Equal(t, wgpu.FilterModeNearest, tex.Sampler().MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, tex.Sampler().AddressModeU)
	assert.Equal(t, wgpu.AddressModeRepeat, tex.Sampler().AddressModeV)
}

func TestLoaderSkipsUndecodableTexture(t *testing.T) {
	doc := triangleDoc()
	doc.Images = []*gltf.Image{{URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials[0].PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: 0}

	l := NewLoader(BackendTypeGLTF).(*loader)
	asset, err := l.store(context.Background(), "tri", importDoc(t, doc, true))
	require.NoError(t, err)
	assert.Nil(t, asset.Materials[0].Texture(graphics.TextureDiffuse))
	assert.Equal(t, "NoTexture", asset.Materials[0].Techniques()[0].Technique.Name())
}

func TestLoaderAssignsFallbackMaterial(t *testing.T) {
	doc := triangleDoc()
	doc.Meshes[0].Primitives[0].Material = nil

	l := NewLoader(BackendTypeGLTF).(*loader)
	asset, err := l.store(context.Background(), "tri", importDoc(t, doc, true))
	require.NoError(t, err)
	mat := asset.Models[0].Materials()[0]
	require.NotNil(t, mat)
	assert.Equal(t, "Default", mat.Name())
}

func TestAssetInstantiate(t *testing.T) {
	doc := triangleDoc()
	doc.Nodes[1].Scale = [3]float64{2, 2, 2}

	l := NewLoader(BackendTypeGLTF).(*loader)
	asset, err := l.store(context.Background(), "tri", importDoc(t, doc, true))
	require.NoError(t, err)

	objects := asset.Instantiate()
	require.Len(t, objects, 1)
	obj := objects[0]
	assert.Same(t, asset.Models[0], obj.Model())
	assert.True(t, obj.Position().ApproxEqualThreshold(mgl32.Vec3{1, 2, -8}, 1e-4))
	assert.True(t, obj.Scale().ApproxEqualThreshold(mgl32.Vec3{2, 2, 2}, 1e-4))
	assert.True(t, obj.WorldTransform().ApproxEqualThreshold(asset.Nodes[0].World, 1e-4))
}

func TestLoaderCache(t *testing.T) {
	cached := &Asset{Name: "cached"}
	l := NewLoader(BackendTypeGLTF, WithAsset("a.glb", cached))

	got, err := l.Load(context.Background(), "a.glb")
	require.NoError(t, err)
	assert.Same(t, cached, got)
	assert.Len(t, l.Assets(), 1)

	l.Remove("a.glb")
	assert.Nil(t, l.Get("a.glb"))

	_, err = l.Load(context.Background(), "model.obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewLoaderPanicsOnUnknownBackend(t *testing.T) {
	assert.Panics(t, func() { NewLoader(LoaderBackendType(42)) })
}
