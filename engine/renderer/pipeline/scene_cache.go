package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// SceneKey identifies the pipeline state of one scene batch.
type SceneKey struct {
	// DrawableHash is the drawable pipeline hash, combined with anything else the
	// collector varies per drawable such as the vertex light count.
	DrawableHash uint32
	// LightHash is the SceneLight pipeline hash, zero for unlit batches.
	LightHash    uint32
	GeometryType scene.GeometryType
	Geometry     *model.Geometry
	Material     material.Material
	Pass         *material.Pass
}

// SceneContext is everything beyond the key a factory needs to create the state.
type SceneContext struct {
	ShadowPass       bool
	Drawable         scene.Drawable
	SourceBatchIndex int
	// Light is the per-pixel light of the batch, nil for unlit batches.
	Light           *light.SceneLight
	NumVertexLights int
	Camera          camera.Camera
}

// SceneFactory creates pipeline states for scene batches. The renderer provides the
// default implementation; it must be a pure function of key and context.
type SceneFactory interface {
	CreateScenePipelineState(key SceneKey, ctx SceneContext) *graphics.PipelineState
}

type sceneEntry struct {
	state        *graphics.PipelineState
	geometryHash uint32
	materialHash uint32
	passHash     uint32
	invalidated  atomic.Bool
}

// isStale reports whether the geometry, material or pass changed since the state
// was created.
func (e *sceneEntry) isStale(key SceneKey) bool {
	return e.geometryHash != key.Geometry.PipelineStateHash() ||
		e.materialHash != key.Material.PipelineStateHash() ||
		e.passHash != key.Pass.PipelineStateHash()
}

// ScenePipelineStateCache caches the pipeline state of every scene batch by
// SceneKey. Get may run concurrently on workers; GetOrCreate and Invalidate must
// run on the goroutine that owns the graphics device.
type ScenePipelineStateCache struct {
	mu      *sync.RWMutex
	entries map[SceneKey]*sceneEntry
}

// NewScenePipelineStateCache creates an empty cache.
func NewScenePipelineStateCache() *ScenePipelineStateCache {
	return &ScenePipelineStateCache{
		mu:      &sync.RWMutex{},
		entries: make(map[SceneKey]*sceneEntry),
	}
}

// Get returns the cached state, or nil on a miss. An entry whose geometry, material
// or pass hash changed is flagged invalid and reported as a miss, so the caller
// resolves it through GetOrCreate.
//
// Parameters:
//   - key: the batch key
//
// Returns:
//   - *graphics.PipelineState: the cached state or nil
func (c *ScenePipelineStateCache) Get(key SceneKey) *graphics.PipelineState {
	c.mu.RLock()
	entry := c.entries[key]
	c.mu.RUnlock()
	if entry == nil || entry.invalidated.Load() {
		return nil
	}
	if entry.isStale(key) {
		entry.invalidated.Store(true)
		return nil
	}
	return entry.state
}

// GetOrCreate returns the cached state, creating it through factory when missing
// or invalidated.
//
// Parameters:
//   - key: the batch key
//   - ctx: the creation context
//   - factory: the state factory
//
// Returns:
//   - *graphics.PipelineState: the state, nil if creation failed
func (c *ScenePipelineStateCache) GetOrCreate(key SceneKey, ctx SceneContext, factory SceneFactory) *graphics.PipelineState {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.entries[key]
	if entry != nil && !entry.invalidated.Load() && !entry.isStale(key) {
		return entry.state
	}

	entry = &sceneEntry{
		state:        factory.CreateScenePipelineState(key, ctx),
		geometryHash: key.Geometry.PipelineStateHash(),
		materialHash: key.Material.PipelineStateHash(),
		passHash:     key.Pass.PipelineStateHash(),
	}
	c.entries[key] = entry
	return entry.state
}

// Invalidate drops every entry, e.g. when the viewport's pipeline-relevant state
// changes.
func (c *ScenePipelineStateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached entries.
func (c *ScenePipelineStateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
