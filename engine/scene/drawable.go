package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawableFlags classify drawables for spatial queries.
type DrawableFlags uint8

const (
	DrawableGeometry DrawableFlags = 1 << iota
	DrawableLight

	DrawableAny DrawableFlags = 0xff
)

// DefaultMask is the view, light, shadow and zone mask drawables start with.
const DefaultMask uint32 = 0xffffffff

// GeometryType selects the vertex shader variant a source batch needs.
type GeometryType uint8

const (
	GeometryStatic GeometryType = iota
	GeometrySkinned
	GeometryInstanced
	GeometryBillboard
)

// SourceBatch is one geometry/material pair a drawable submits.
type SourceBatch struct {
	// Distance from the camera, refreshed by UpdateBatches.
	Distance float32
	Geometry *model.Geometry
	// Material may be nil, in which case the default material is used.
	Material       material.Material
	WorldTransform mgl32.Mat4
	GeometryType   GeometryType
}

// FrameInfo is the per-frame, per-view information passed to drawables.
type FrameInfo struct {
	FrameNumber uint32
	TimeStep    float32
	ElapsedTime float32
	ViewSize    common.IntVector2
	ViewRect    common.IntRect
	Camera      camera.Camera
	Octree      *Octree
	Scene       Scene
}

// Drawable is a renderable scene object. The scene owns drawables; the batching code
// only references them through this interface.
//
// DrawableIndex is assigned by the Octree and stays stable for the duration of a
// frame, so per-frame caches can be indexed by it directly. UpdateBatches may be
// called from worker goroutines, at most once per drawable per frame.
type Drawable interface {
	ID() uint64
	SetID(id uint64)

	Flags() DrawableFlags

	// DrawableIndex returns the dense index assigned by the octree, or -1.
	//
	// Returns:
	//   - int: the index
	DrawableIndex() int

	// SetDrawableIndex is called by the octree when the drawable is inserted or moved
	// within the dense drawable list.
	//
	// Parameters:
	//   - index: the new index, -1 when removed
	SetDrawableIndex(index int)

	Enabled() bool
	WorldBoundingBox() common.BoundingBox

	// DrawDistance is the maximum camera distance the drawable is rendered at; 0 means
	// unlimited.
	DrawDistance() float32
	// ShadowDistance is the maximum camera distance the drawable casts shadows at; 0
	// means unlimited.
	ShadowDistance() float32
	// Distance is the camera distance computed by the last UpdateBatches.
	Distance() float32
	LodDistance() float32

	// UpdateBatches refreshes distances, LOD levels and source batches for the frame.
	//
	// Parameters:
	//   - frame: the frame being rendered
	UpdateBatches(frame FrameInfo)

	// Batches returns the source batches produced by the last UpdateBatches.
	//
	// Returns:
	//   - []SourceBatch: the batches, owned by the drawable
	Batches() []SourceBatch

	ViewMask() uint32
	LightMask() uint32
	ShadowMask() uint32
	ZoneMask() uint32
	CastShadows() bool

	// Zone returns the zone the drawable was last assigned to, or nil.
	Zone() *Zone
	SetZone(z *Zone)

	// PipelineStateHash returns the hash of drawable state that affects pipeline
	// states, e.g. skinning layout.
	PipelineStateHash() uint32
}

// DrawableBase implements the bookkeeping part of Drawable. Concrete drawables embed
// it and override UpdateBatches when they need more than distance updates.
type DrawableBase struct {
	mu *sync.RWMutex

	id           uint64
	flags        DrawableFlags
	index        atomic.Int32
	enabled      atomic.Bool
	worldBox     common.BoundingBox
	drawDistance float32
	shadowDist   float32
	distance     float32
	lodDistance  float32
	lodBias      float32
	viewMask     uint32
	lightMask    uint32
	shadowMask   uint32
	zoneMask     uint32
	castShadows  bool
	zone         *Zone
	pipelineHash uint32
	batches      []SourceBatch
}

// NewDrawableBase returns an enabled DrawableBase with default masks and no batches.
//
// Parameters:
//   - flags: the drawable classification
//
// Returns:
//   - *DrawableBase: the base to embed
func NewDrawableBase(flags DrawableFlags) *DrawableBase {
	d := &DrawableBase{
		mu:         &sync.RWMutex{},
		flags:      flags,
		lodBias:    1,
		viewMask:   DefaultMask,
		lightMask:  DefaultMask,
		shadowMask: DefaultMask,
		zoneMask:   DefaultMask,
	}
	d.index.Store(-1)
	d.enabled.Store(true)
	return d
}

func (d *DrawableBase) ID() uint64           { return d.id }
func (d *DrawableBase) SetID(id uint64)      { d.id = id }
func (d *DrawableBase) Flags() DrawableFlags { return d.flags }
func (d *DrawableBase) DrawableIndex() int   { return int(d.index.Load()) }
func (d *DrawableBase) SetDrawableIndex(index int) {
	d.index.Store(int32(index))
}

func (d *DrawableBase) Enabled() bool             { return d.enabled.Load() }
func (d *DrawableBase) SetEnabled(enabled bool)   { d.enabled.Store(enabled) }
func (d *DrawableBase) DrawDistance() float32     { return d.drawDistance }
func (d *DrawableBase) ShadowDistance() float32   { return d.shadowDist }
func (d *DrawableBase) Distance() float32         { return d.distance }
func (d *DrawableBase) LodDistance() float32      { return d.lodDistance }
func (d *DrawableBase) ViewMask() uint32          { return d.viewMask }
func (d *DrawableBase) LightMask() uint32         { return d.lightMask }
func (d *DrawableBase) ShadowMask() uint32        { return d.shadowMask }
func (d *DrawableBase) ZoneMask() uint32          { return d.zoneMask }
func (d *DrawableBase) CastShadows() bool         { return d.castShadows }
func (d *DrawableBase) PipelineStateHash() uint32 { return d.pipelineHash }
func (d *DrawableBase) Batches() []SourceBatch    { return d.batches }

func (d *DrawableBase) WorldBoundingBox() common.BoundingBox {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.worldBox
}

// SetWorldBoundingBox replaces the world bounds. The octree picks up the change on its
// next Update.
func (d *DrawableBase) SetWorldBoundingBox(box common.BoundingBox) {
	d.mu.Lock()
	d.worldBox = box
	d.mu.Unlock()
}

func (d *DrawableBase) Zone() *Zone {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.zone
}

func (d *DrawableBase) SetZone(z *Zone) {
	d.mu.Lock()
	d.zone = z
	d.mu.Unlock()
}

func (d *DrawableBase) SetDrawDistance(distance float32)   { d.drawDistance = distance }
func (d *DrawableBase) SetShadowDistance(distance float32) { d.shadowDist = distance }
func (d *DrawableBase) SetLodBias(bias float32)            { d.lodBias = max(bias, common.Epsilon) }
func (d *DrawableBase) SetViewMask(mask uint32)            { d.viewMask = mask }
func (d *DrawableBase) SetLightMask(mask uint32)           { d.lightMask = mask }
func (d *DrawableBase) SetShadowMask(mask uint32)          { d.shadowMask = mask }
func (d *DrawableBase) SetZoneMask(mask uint32)            { d.zoneMask = mask }
func (d *DrawableBase) SetCastShadows(enabled bool)        { d.castShadows = enabled }
func (d *DrawableBase) SetPipelineStateHash(hash uint32)   { d.pipelineHash = hash }

// SetDistance overrides the camera distance for drawables whose reference point is
// not the center of their bounds.
func (d *DrawableBase) SetDistance(distance float32) { d.distance = distance }

// SetBatches replaces the source batches.
func (d *DrawableBase) SetBatches(batches []SourceBatch) {
	d.batches = batches
}

// UpdateBatches computes the camera distance of the bounding box center and copies it
// into every source batch.
func (d *DrawableBase) UpdateBatches(frame FrameInfo) {
	d.UpdateDistance(frame, 1)
	for i := range d.batches {
		d.batches[i].Distance = d.distance
	}
}

// UpdateDistance refreshes Distance and LodDistance from the frame camera.
//
// Parameters:
//   - frame: the frame being rendered
//   - scale: largest world scale axis, used for the LOD distance
func (d *DrawableBase) UpdateDistance(frame FrameInfo, scale float32) {
	if frame.Camera == nil {
		return
	}
	center := d.WorldBoundingBox().Center()
	d.distance = frame.Camera.Distance(center)
	d.lodDistance = frame.Camera.LodDistance(d.distance, scale, d.lodBias)
}
