package light

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// MaxCascadeSplits is the number of directional light cascades.
const MaxCascadeSplits = 4

// MaxLightSplits is the number of shadow cameras a light can have, one per cube face
// for point lights.
const MaxLightSplits = 6

// SplitSize is the edge length in texels of one shadow split.
const SplitSize = 512

// DefaultShadowFadeStart is the fraction of the shadow range at which directional
// shadows start fading out.
const DefaultShadowFadeStart float32 = 0.8

// CascadeParameters configure directional light shadow cascades. Splits holds the far
// distance of each cascade; a split at or below the previous one ends the cascade.
type CascadeParameters struct {
	Splits         [MaxCascadeSplits]float32
	FadeStart      float32
	BiasAutoAdjust float32
}

// DefaultCascadeParameters returns a single cascade covering the whole view.
func DefaultCascadeParameters() CascadeParameters {
	return CascadeParameters{
		Splits:         [MaxCascadeSplits]float32{common.LargeValue},
		FadeStart:      DefaultShadowFadeStart,
		BiasAutoAdjust: 1,
	}
}

// NumSplits returns the number of increasing, positive splits.
func (c CascadeParameters) NumSplits() int {
	n := 0
	var last float32
	for _, s := range c.Splits {
		if s <= last {
			break
		}
		last = s
		n++
	}
	return max(n, 1)
}

// ShadowRange returns the far distance of the last split.
func (c CascadeParameters) ShadowRange() float32 {
	var r float32
	for i := 0; i < c.NumSplits(); i++ {
		r = max(r, c.Splits[i])
	}
	return r
}

func (c CascadeParameters) validated() CascadeParameters {
	for i := range c.Splits {
		c.Splits[i] = max(c.Splits[i], 0)
	}
	c.FadeStart = min(max(c.FadeStart, common.Epsilon), 1)
	c.BiasAutoAdjust = max(c.BiasAutoAdjust, 0)
	return c
}

// FocusParameters control how directional and spot shadow cameras are fitted to the
// visible scene.
type FocusParameters struct {
	// Focus shrinks the shadow camera to the lit geometry.
	Focus bool
	// NonUniform allows different horizontal and vertical extents.
	NonUniform bool
	// AutoSize is kept for parity with light settings; sizing is always automatic.
	AutoSize bool
	// Quantize is the step the view size is snapped to.
	Quantize float32
	// MinView is the smallest allowed view size.
	MinView float32
}

// DefaultFocusParameters returns focused, non-uniform, auto-sized parameters.
func DefaultFocusParameters() FocusParameters {
	return FocusParameters{Focus: true, NonUniform: true, AutoSize: true, Quantize: 0.5, MinView: 3}
}

func (f FocusParameters) validated() FocusParameters {
	f.Quantize = max(f.Quantize, 0.001)
	f.MinView = max(f.MinView, 0)
	return f
}

// DefaultBiasParameters returns the shadow depth bias lights start with.
func DefaultBiasParameters() graphics.BiasParameters {
	return graphics.BiasParameters{ConstantBias: 0.0002, SlopeScaledBias: 0.5}
}

// ShadowMap is a region of a shadow atlas page. The zero value means no shadow map.
type ShadowMap struct {
	Texture *graphics.Texture
	Region  common.IntRect
}

// IsValid reports whether the shadow map has a texture.
func (m ShadowMap) IsValid() bool {
	return m.Texture != nil
}

// Split returns the grid cell of split i when the region is divided into grid
// columns and rows, filled row by row.
//
// Parameters:
//   - i: split index
//   - grid: number of columns and rows
//
// Returns:
//   - ShadowMap: the sub-region, on the same texture
func (m ShadowMap) Split(i int, grid common.IntVector2) ShadowMap {
	if !m.IsValid() || grid.X <= 0 || grid.Y <= 0 {
		return ShadowMap{}
	}
	w := m.Region.Width() / grid.X
	h := m.Region.Height() / grid.Y
	col := i % grid.X
	row := i / grid.X
	return ShadowMap{
		Texture: m.Texture,
		Region:  common.NewIntRect(m.Region.Left+col*w, m.Region.Top+row*h, w, h),
	}
}

// splitsGridSize returns the atlas grid the splits of a light are laid out in.
func splitsGridSize(numSplits int) common.IntVector2 {
	switch {
	case numSplits <= 1:
		return common.IntVector2{X: 1, Y: 1}
	case numSplits == 2:
		return common.IntVector2{X: 2, Y: 1}
	case numSplits < 6:
		return common.IntVector2{X: 2, Y: 2}
	default:
		return common.IntVector2{X: 3, Y: 2}
	}
}
