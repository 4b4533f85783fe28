package common

import "github.com/go-gl/mathgl/mgl32"

var (
	ColorBlack = mgl32.Vec4{0, 0, 0, 1}
	ColorWhite = mgl32.Vec4{1, 1, 1, 1}
)

// IsBlack reports whether the RGB channels of c are zero within Epsilon.
func IsBlack(c mgl32.Vec4) bool {
	return mgl32.Abs(c[0]) < Epsilon && mgl32.Abs(c[1]) < Epsilon && mgl32.Abs(c[2]) < Epsilon
}

// ColorToUint32 packs an RGBA color as a0b0g0r0 bytes, the vertex color layout the UI
// shaders read.
func ColorToUint32(c mgl32.Vec4) uint32 {
	r := uint32(mgl32.Clamp(c[0], 0, 1)*255 + 0.5)
	g := uint32(mgl32.Clamp(c[1], 0, 1)*255 + 0.5)
	b := uint32(mgl32.Clamp(c[2], 0, 1)*255 + 0.5)
	a := uint32(mgl32.Clamp(c[3], 0, 1)*255 + 0.5)
	return a<<24 | b<<16 | g<<8 | r
}

// PackRGBA packs 8-bit channels the same way as ColorToUint32.
func PackRGBA(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}
