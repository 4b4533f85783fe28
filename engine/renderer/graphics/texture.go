package graphics

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// TextureUnit is the binding slot a texture is sampled from.
type TextureUnit uint8

const (
	TextureDiffuse TextureUnit = iota
	TextureNormal
	TextureSpecular
	TextureEmissive
	TextureEnvironment
	TextureLightRamp
	TextureLightShape
	TextureShadowMap
	MaxTextureUnits
)

// Texture is a 2D texture. Pixel data stays CPU-side until a backend uploads it;
// render targets carry no pixel data.
type Texture struct {
	id           uint32
	name         string
	width        int
	height       int
	format       TextureFormat
	pixels       []byte
	renderTarget bool
	sampler      common.SamplerStagingData
	version      uint32
}

// NewTexture2D creates a sampled texture from pixel data in format.
func NewTexture2D(name string, width, height int, format TextureFormat, pixels []byte) *Texture {
	t := &Texture{
		id:     nextResourceID(),
		name:   name,
		width:  width,
		height: height,
		format: format,
	}
	t.SetData(pixels)
	return t
}

// NewRenderTexture creates a texture usable as a color or depth attachment.
func NewRenderTexture(name string, width, height int, format TextureFormat) *Texture {
	return &Texture{
		id:           nextResourceID(),
		name:         name,
		width:        width,
		height:       height,
		format:       format,
		renderTarget: true,
		version:      1,
	}
}

// NewTextureFromStaging wraps decoded RGBA staging data.
func NewTextureFromStaging(name string, data common.TextureStagingData) *Texture {
	return NewTexture2D(name, int(data.Width), int(data.Height), FormatRGBA8, data.Pixels)
}

// SetData replaces the pixel data and bumps the version.
func (t *Texture) SetData(pixels []byte) {
	t.pixels = pixels
	t.version++
}

// SetSampler replaces the sampler description.
func (t *Texture) SetSampler(s common.SamplerStagingData) {
	t.sampler = s
	t.version++
}

func (t *Texture) ID() uint32                         { return t.id }
func (t *Texture) Name() string                       { return t.name }
func (t *Texture) Width() int                         { return t.width }
func (t *Texture) Height() int                        { return t.height }
func (t *Texture) Size() common.IntVector2            { return common.IntVector2{X: t.width, Y: t.height} }
func (t *Texture) Format() TextureFormat              { return t.format }
func (t *Texture) Pixels() []byte                     { return t.pixels }
func (t *Texture) IsRenderTarget() bool               { return t.renderTarget }
func (t *Texture) Sampler() common.SamplerStagingData { return t.sampler }
func (t *Texture) Version() uint32                    { return t.version }
