// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	"io/fs"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel
	// unless Format says otherwise.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format is the GPU format of Pixels. The zero value means RGBA8 unorm.
	Format wgpu.TextureFormat
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// ImportedTexture represents encoded image data extracted from a model file or requested
// by the UI. For embedded images the Data field holds the encoded bytes; otherwise Path
// names a file inside FS.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// FS is the file system Path is resolved against.
	FS fs.FS

	// Data contains raw image bytes for embedded textures.
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// SamplerData holds GPU sampler parameters extracted from the model file.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to RGBA staging data. PNG, JPEG, GIF, BMP, TIFF and WebP
// are supported; images larger than maxSize on either axis are downscaled to fit.
//
// Parameters:
//   - maxSize: the largest allowed width or height, 0 for no limit
//
// Returns:
//   - TextureStagingData: raw RGBA pixel data and its size
//   - error: error if the source is missing or decoding fails
func (t *ImportedTexture) Decode(maxSize int) (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, fmt.Errorf("texture is nil")
	}

	data := t.Data
	switch {
	case len(data) > 0:
	case t.Path != "" && t.FS != nil:
		var err error
		data, err = fs.ReadFile(t.FS, t.Path)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", t.Path, err)
		}
	default:
		return TextureStagingData{}, fmt.Errorf("texture has neither data nor path")
	}

	img, mime, err := DecodeImage(data)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture %s: %w", Coalesce(t.Path, t.Name), err)
	}
	if t.MimeType == "" {
		t.MimeType = mime
	}
	return ImageToStaging(FitImage(img, maxSize)), nil
}

// ImageToStaging converts any image to tightly packed RGBA staging data.
func ImageToStaging(img image.Image) TextureStagingData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Format: wgpu.TextureFormatRGBA8Unorm,
	}
}
