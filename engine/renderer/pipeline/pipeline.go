package pipeline

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

// cacheEntry is one created (or failed) pipeline state. Failed creations are kept
// with a nil state so a broken description is reported once, not every frame.
type cacheEntry struct {
	desc  graphics.PipelineStateDesc
	state *graphics.PipelineState
}

// pipelineStateCache is the implementation of the PipelineStateCache interface.
type pipelineStateCache struct {
	mu *sync.RWMutex

	gfx graphics.Graphics
	// buckets groups entries by description hash; collisions are resolved with
	// PipelineStateDesc.Equal.
	buckets map[uint32][]*cacheEntry
	created int
}

// PipelineStateCache deduplicates pipeline states: equal descriptions always yield
// the same *graphics.PipelineState. Safe for concurrent use, although creation
// happens on the goroutine that owns the graphics device.
type PipelineStateCache interface {
	// GetPipelineState returns the cached state for desc, creating it on a miss.
	//
	// Parameters:
	//   - desc: the description; its hash is computed if missing
	//
	// Returns:
	//   - *graphics.PipelineState: the state, or nil if desc is invalid or creation failed
	GetPipelineState(desc graphics.PipelineStateDesc) *graphics.PipelineState

	// Len returns the number of cached descriptions, failed ones included.
	//
	// Returns:
	//   - int: the number of entries
	Len() int

	// Clear drops every cached state.
	Clear()
}

var _ PipelineStateCache = &pipelineStateCache{}

// NewPipelineStateCache creates a cache that creates states through gfx. Panics if
// gfx is nil.
//
// Parameters:
//   - gfx: the graphics device
//
// Returns:
//   - PipelineStateCache: the new cache
func NewPipelineStateCache(gfx graphics.Graphics) PipelineStateCache {
	if gfx == nil {
		panic("pipeline: NewPipelineStateCache requires a non-nil Graphics")
	}
	return &pipelineStateCache{
		mu:      &sync.RWMutex{},
		gfx:     gfx,
		buckets: make(map[uint32][]*cacheEntry),
	}
}

func (c *pipelineStateCache) GetPipelineState(desc graphics.PipelineStateDesc) *graphics.PipelineState {
	if !desc.IsValid() {
		return nil
	}
	if desc.Hash() == 0 {
		desc.RecalculateHash()
	}

	c.mu.RLock()
	entry := c.find(&desc)
	c.mu.RUnlock()
	if entry != nil {
		return entry.state
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry = c.find(&desc); entry != nil {
		return entry.state
	}

	state, err := c.gfx.CreatePipelineState(desc)
	if err != nil {
		slog.Error("pipeline state creation failed",
			"vs", desc.VertexShader.Name(), "vsDefines", desc.VertexShader.Defines(),
			"ps", desc.PixelShader.Name(), "psDefines", desc.PixelShader.Defines(),
			"err", err)
		state = nil
	} else {
		c.created++
	}
	hash := desc.Hash()
	c.buckets[hash] = append(c.buckets[hash], &cacheEntry{desc: desc.Clone(), state: state})
	return state
}

// find must be called with the lock held.
func (c *pipelineStateCache) find(desc *graphics.PipelineStateDesc) *cacheEntry {
	for _, e := range c.buckets[desc.Hash()] {
		if e.desc.Equal(desc) {
			return e
		}
	}
	return nil
}

func (c *pipelineStateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, bucket := range c.buckets {
		n += len(bucket)
	}
	return n
}

func (c *pipelineStateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.buckets)
}
