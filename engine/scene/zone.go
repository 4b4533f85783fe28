package scene

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Zone is a box volume that defines ambient light and fog for the drawables inside it.
// When zones overlap the one with the highest priority wins.
type Zone struct {
	Name         string
	Box          common.BoundingBox
	Priority     int
	ZoneMask     uint32
	AmbientColor mgl32.Vec4
	FogColor     mgl32.Vec4
	FogStart     float32
	FogEnd       float32
}

// NewDefaultZone returns the zone used when no other zone contains a point: infinite
// bounds, dim ambient light and fog starting at 250 units.
//
// Returns:
//   - *Zone: the zone
func NewDefaultZone() *Zone {
	return &Zone{
		Name:         "Default",
		Box:          common.NewBoundingBox(mgl32.Vec3{-common.LargeValue, -common.LargeValue, -common.LargeValue}, mgl32.Vec3{common.LargeValue, common.LargeValue, common.LargeValue}),
		Priority:     -1 << 31,
		ZoneMask:     DefaultMask,
		AmbientColor: mgl32.Vec4{0.1, 0.1, 0.1, 1},
		FogColor:     common.ColorBlack,
		FogStart:     250,
		FogEnd:       1000,
	}
}

// Contains reports whether point lies inside the zone box.
func (z *Zone) Contains(point mgl32.Vec3) bool {
	return point[0] >= z.Box.Min[0] && point[0] <= z.Box.Max[0] &&
		point[1] >= z.Box.Min[1] && point[1] <= z.Box.Max[1] &&
		point[2] >= z.Box.Min[2] && point[2] <= z.Box.Max[2]
}

// FogParameters returns the fog shader parameter for a camera far clip:
// (fogEnd/far, far/(fogEnd-fogStart), 0, 0). Fog distances are clamped to the far clip
// and fogStart stays strictly below fogEnd.
//
// Parameters:
//   - farClip: the camera far clip distance
//
// Returns:
//   - mgl32.Vec4: the FogParams value
func (z *Zone) FogParameters(farClip float32) mgl32.Vec4 {
	fogStart := min(z.FogStart, farClip)
	fogEnd := min(z.FogEnd, farClip)
	if fogStart >= fogEnd*(1-common.LargeEpsilon) {
		fogStart = fogEnd * (1 - common.LargeEpsilon)
	}
	fogRange := max(fogEnd-fogStart, common.Epsilon)
	return mgl32.Vec4{fogEnd / farClip, farClip / fogRange, 0, 0}
}
