package batch

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// DrawableTraits are per-frame flags of a drawable within one viewport.
type DrawableTraits uint32

const (
	// DrawableVisible marks a geometry that passed primary visibility and its draw
	// distance check.
	DrawableVisible DrawableTraits = 1 << iota
	// ForwardLit marks a geometry with at least one batch that takes forward lights.
	ForwardLit
)

// DrawableCachePerWorker is the output of one worker range during primary
// processing.
type DrawableCachePerWorker struct {
	VisibleGeometries []scene.Drawable
	VisibleLights     []light.Light
	ZRange            common.ZRange
}

func (w *DrawableCachePerWorker) reset() {
	clear(w.VisibleGeometries)
	clear(w.VisibleLights)
	w.VisibleGeometries = w.VisibleGeometries[:0]
	w.VisibleLights = w.VisibleLights[:0]
	w.ZRange = common.ZRange{}
}

// DrawableCachePerViewport holds transient per-drawable state of one viewport,
// indexed by drawable index. Traits and updated flags are atomic so workers may
// touch any index; each Z range is written only by the worker owning its drawable.
type DrawableCachePerViewport struct {
	traits  []atomic.Uint32
	updated []atomic.Bool
	zRanges []common.ZRange
	workers []DrawableCachePerWorker

	geometries []scene.Drawable
	lights     []light.Light
}

var _ light.DrawableData = &DrawableCachePerViewport{}

// NewDrawableCachePerViewport creates an empty cache. Call Reset before use.
func NewDrawableCachePerViewport() *DrawableCachePerViewport {
	return &DrawableCachePerViewport{}
}

// Reset sizes the cache for numDrawables drawables and numWorkers worker slots and
// clears all state. Backing storage is reused when its capacity suffices.
//
// Parameters:
//   - numDrawables: total drawable count of the scene
//   - numWorkers: number of per-worker slots
func (c *DrawableCachePerViewport) Reset(numDrawables, numWorkers int) {
	numWorkers = max(numWorkers, 1)

	if cap(c.traits) < numDrawables {
		c.traits = make([]atomic.Uint32, numDrawables)
		c.updated = make([]atomic.Bool, numDrawables)
		c.zRanges = make([]common.ZRange, numDrawables)
	} else {
		c.traits = c.traits[:numDrawables]
		c.updated = c.updated[:numDrawables]
		c.zRanges = c.zRanges[:numDrawables]
		for i := range c.traits {
			c.traits[i].Store(0)
			c.updated[i].Store(false)
		}
		clear(c.zRanges)
	}

	if cap(c.workers) < numWorkers {
		workers := make([]DrawableCachePerWorker, numWorkers)
		copy(workers, c.workers)
		c.workers = workers
	}
	c.workers = c.workers[:numWorkers]
	for i := range c.workers {
		c.workers[i].reset()
	}
}

// NumDrawables returns the drawable count the cache was reset for.
func (c *DrawableCachePerViewport) NumDrawables() int { return len(c.traits) }

// NumWorkers returns the number of worker slots.
func (c *DrawableCachePerViewport) NumWorkers() int { return len(c.workers) }

// Worker returns the cache of worker slot i.
func (c *DrawableCachePerViewport) Worker(i int) *DrawableCachePerWorker { return &c.workers[i] }

// Traits returns the traits of the drawable at index.
func (c *DrawableCachePerViewport) Traits(index int) DrawableTraits {
	return DrawableTraits(c.traits[index].Load())
}

// AddTraits sets traits on the drawable at index.
func (c *DrawableCachePerViewport) AddTraits(index int, traits DrawableTraits) {
	c.traits[index].Or(uint32(traits))
}

// HasTraits reports whether all of traits are set on the drawable at index.
func (c *DrawableCachePerViewport) HasTraits(index int, traits DrawableTraits) bool {
	return DrawableTraits(c.traits[index].Load())&traits == traits
}

// IsVisibleGeometry reports whether the drawable at index is a visible geometry.
func (c *DrawableCachePerViewport) IsVisibleGeometry(index int) bool {
	return index >= 0 && index < len(c.traits) && c.HasTraits(index, DrawableVisible)
}

// ZRange returns the view-space depth range stored for the drawable at index.
func (c *DrawableCachePerViewport) ZRange(index int) common.ZRange {
	if index < 0 || index >= len(c.zRanges) {
		return common.ZRange{}
	}
	return c.zRanges[index]
}

// SetZRange stores the depth range of the drawable at index.
func (c *DrawableCachePerViewport) SetZRange(index int, r common.ZRange) {
	c.zRanges[index] = r
}

// MarkUpdated flags the drawable at index as updated for the frame and reports
// whether it already was. Out of range indices report true so callers skip them.
func (c *DrawableCachePerViewport) MarkUpdated(index int) bool {
	if index < 0 || index >= len(c.updated) {
		return true
	}
	return c.updated[index].Swap(true)
}

// IsUpdated reports whether the drawable at index was updated this frame.
func (c *DrawableCachePerViewport) IsUpdated(index int) bool {
	return index >= 0 && index < len(c.updated) && c.updated[index].Load()
}

// Merge concatenates the per-worker results in worker order and unions their Z
// ranges. The returned slices are owned by the cache and valid until the next Reset
// or Merge.
//
// Returns:
//   - []scene.Drawable: the visible geometries
//   - []light.Light: the visible lights
//   - common.ZRange: the scene Z range, invalid when nothing finite is visible
func (c *DrawableCachePerViewport) Merge() ([]scene.Drawable, []light.Light, common.ZRange) {
	clear(c.geometries)
	clear(c.lights)
	c.geometries = c.geometries[:0]
	c.lights = c.lights[:0]

	var zRange common.ZRange
	for i := range c.workers {
		w := &c.workers[i]
		c.geometries = append(c.geometries, w.VisibleGeometries...)
		c.lights = append(c.lights, w.VisibleLights...)
		zRange = zRange.Merge(w.ZRange)
	}
	return c.geometries, c.lights, zRange
}
