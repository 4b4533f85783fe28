package batch

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
)

const (
	// MaxPixelLights caps the pixel lights of one drawable, important lights aside.
	MaxPixelLights = 4
	// MaxVertexLights caps the vertex lights of one drawable.
	MaxVertexLights = 4
)

// LightEntry is one light affecting a drawable.
type LightEntry struct {
	Penalty float32
	// Index indexes the collector's visible lights.
	Index     int
	important bool
	perVertex bool
}

// DrawableLightAccumulator collects the lights affecting one drawable and splits
// them into pixel and vertex lights. Lights are accumulated one at a time, so no
// locking is needed as long as a drawable is touched by one worker per light.
type DrawableLightAccumulator struct {
	entries      []LightEntry
	pixel        []LightEntry
	vertex       []LightEntry
	numImportant int
}

// Reset drops the accumulated lights, keeping capacity.
func (a *DrawableLightAccumulator) Reset() {
	a.entries = a.entries[:0]
	a.pixel = a.pixel[:0]
	a.vertex = a.vertex[:0]
	a.numImportant = 0
}

// Accumulate records a light with its penalty; lower penalties win.
//
// Parameters:
//   - index: the light index
//   - penalty: the light's penalty for this drawable
//   - importance: the light importance
//   - perVertex: the light may only be applied per vertex
func (a *DrawableLightAccumulator) Accumulate(index int, penalty float32, importance light.Importance, perVertex bool) {
	important := importance == light.ImportanceImportant && !perVertex
	if important {
		a.numImportant++
	}
	a.entries = append(a.entries, LightEntry{Penalty: penalty, Index: index, important: important, perVertex: perVertex})
}

// Finalize sorts the lights by penalty and splits them. Important lights are always
// pixel lights; the remaining pixel slots up to max(maxPixelLights, important
// count) go to the lowest penalties; the next MaxVertexLights become vertex lights.
//
// Parameters:
//   - maxPixelLights: the pixel light budget
func (a *DrawableLightAccumulator) Finalize(maxPixelLights int) {
	slices.SortStableFunc(a.entries, func(x, y LightEntry) int {
		return cmp.Compare(x.Penalty, y.Penalty)
	})

	numPixel := max(maxPixelLights, a.numImportant)
	freeSlots := numPixel - a.numImportant
	a.pixel = a.pixel[:0]
	a.vertex = a.vertex[:0]
	for _, e := range a.entries {
		switch {
		case e.important:
			a.pixel = append(a.pixel, e)
		case !e.perVertex && freeSlots > 0:
			a.pixel = append(a.pixel, e)
			freeSlots--
		case len(a.vertex) < MaxVertexLights:
			a.vertex = append(a.vertex, e)
		}
	}
}

// PixelLights returns the pixel lights in penalty order. Valid after Finalize.
func (a *DrawableLightAccumulator) PixelLights() []LightEntry { return a.pixel }

// VertexLights returns the vertex lights in penalty order. Valid after Finalize.
func (a *DrawableLightAccumulator) VertexLights() []LightEntry { return a.vertex }

// NumLights returns the number of accumulated lights.
func (a *DrawableLightAccumulator) NumLights() int { return len(a.entries) }

// LightPenalty scores a light for a drawable at distance. The main light always
// wins.
//
// Parameters:
//   - isMainLight: the light is the frame's main directional light
//   - distance: the light's distance to the drawable
//   - intensityDivisor: the light's brightness measure
//
// Returns:
//   - float32: the penalty
func LightPenalty(isMainLight bool, distance, intensityDivisor float32) float32 {
	if isMainLight {
		return -common.LargeValue
	}
	return max(distance, common.LargeEpsilon) / max(intensityDivisor, common.LargeEpsilon)
}
