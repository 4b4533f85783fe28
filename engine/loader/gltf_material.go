package loader

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfMaterial converts a glTF PBR material. Texture indices outside textures are
// ignored.
func gltfMaterial(gm *gltf.Material, index int, textures []*common.ImportedTexture) model.ImportedMaterial {
	lookup := func(i int) *common.ImportedTexture {
		if i >= 0 && i < len(textures) {
			return textures[i]
		}
		return nil
	}

	m := model.ImportedMaterial{
		Name:        gm.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		AlphaCutoff: float32(gm.AlphaCutoffOrDefault()),
		DoubleSided: gm.DoubleSided,
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("material%d", index)
	}
	for i, c := range gm.EmissiveFactor {
		m.Emissive[i] = float32(c)
	}

	switch gm.AlphaMode {
	case gltf.AlphaMask:
		m.AlphaMode = model.AlphaMask
	case gltf.AlphaBlend:
		m.AlphaMode = model.AlphaBlend
	default:
		m.AlphaMode = model.AlphaOpaque
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		for i, c := range pbr.BaseColorFactorOrDefault() {
			m.BaseColor[i] = float32(c)
		}
		m.Metallic = float32(pbr.MetallicFactorOrDefault())
		m.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			m.DiffuseTexture = lookup(pbr.BaseColorTexture.Index)
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		m.NormalTexture = lookup(*gm.NormalTexture.Index)
	}
	if gm.EmissiveTexture != nil {
		m.EmissiveTexture = lookup(gm.EmissiveTexture.Index)
	}
	return m
}

// gltfTexture resolves a texture to encoded image bytes or a file path. Images in a
// buffer view or a data URI are read now; external files are read when decoded.
//
// Parameters:
//   - doc: the decoded document
//   - index: the texture index
//   - fsys: resolves external image files, may be nil
//
// Returns:
//   - *common.ImportedTexture: the texture, nil when it has no image source
//   - error: error if embedded data cannot be read
func gltfTexture(doc *gltf.Document, index int, fsys fs.FS) (*common.ImportedTexture, error) {
	tex := doc.Textures[index]
	if tex.Source == nil {
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", *tex.Source)
	}
	img := doc.Images[*tex.Source]

	result := &common.ImportedTexture{
		Name:     img.Name,
		MimeType: img.MimeType,
	}
	if result.Name == "" {
		result.Name = fmt.Sprintf("image%d", *tex.Source)
	}
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		result.SamplerData = gltfSampler(doc.Samplers[*tex.Sampler])
	}

	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = data
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		result.Data = data
	case img.URI != "":
		uri, err := url.PathUnescape(img.URI)
		if err != nil {
			uri = img.URI
		}
		result.Path = path.Clean(uri)
		result.FS = fsys
	default:
		return nil, nil
	}
	return result, nil
}

// gltfSampler converts a glTF sampler. Unset fields keep the glTF defaults of linear
// filtering and repeat wrapping.
func gltfSampler(s *gltf.Sampler) *common.SamplerStagingData {
	result := &common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		MaxAnisotropy: 1,
	}

	if s.MagFilter == gltf.MagNearest {
		result.MagFilter = wgpu.FilterModeNearest
	}

	switch s.MinFilter {
	case gltf.MinNearest:
		result.MinFilter = wgpu.FilterModeNearest
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gltf.MinLinear:
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gltf.MinNearestMipMapNearest:
		result.MinFilter = wgpu.FilterModeNearest
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gltf.MinLinearMipMapNearest:
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gltf.MinNearestMipMapLinear:
		result.MinFilter = wgpu.FilterModeNearest
	}

	result.AddressModeU = gltfWrap(s.WrapS)
	result.AddressModeV = gltfWrap(s.WrapT)
	return result
}

func gltfWrap(wrap gltf.WrappingMode) wgpu.AddressMode {
	switch wrap {
	case gltf.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
