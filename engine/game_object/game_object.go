package game_object

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	*scene.DrawableBase

	tmu *sync.RWMutex

	mdl           model.Model
	materials     []material.Material
	attachedLight light.Light
	geometryType  scene.GeometryType

	position      mgl32.Vec3
	rotation      [3]float32 // euler degrees
	rotationSpeed [3]float32 // degrees per second
	scale         mgl32.Vec3
	world         mgl32.Mat4
}

// GameObject is a transformable scene drawable that renders a Model: one source
// batch per geometry slot, with the LOD level chosen from the camera distance each
// frame. An attached light follows the object's position.
type GameObject interface {
	scene.Drawable
	scene.Updatable

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// SetModel replaces the model and rebuilds the source batches.
	//
	// Parameters:
	//   - m: the model
	SetModel(m model.Model)

	// Material returns the material override of a slot, or the model's default.
	//
	// Parameters:
	//   - slot: the geometry slot
	//
	// Returns:
	//   - material.Material: the material, may be nil
	Material(slot int) material.Material

	// SetMaterial overrides the material of a slot for this object only.
	//
	// Parameters:
	//   - slot: the geometry slot
	//   - m: the material
	SetMaterial(slot int, m material.Material)

	SetEnabled(enabled bool)

	Position() mgl32.Vec3
	Rotation() (rx, ry, rz float32)
	RotationSpeed() (rx, ry, rz float32)
	Scale() mgl32.Vec3
	WorldTransform() mgl32.Mat4

	SetPosition(x, y, z float32)
	SetRotation(rx, ry, rz float32)
	SetRotationSpeed(rx, ry, rz float32)
	SetScale(sx, sy, sz float32)

	// Light returns the attached light, or nil.
	Light() light.Light

	// SetLight attaches a light that follows the object's position.
	//
	// Parameters:
	//   - l: the light, nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject using the provided functional options.
// Objects start enabled with unit scale.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		DrawableBase: scene.NewDrawableBase(scene.DrawableGeometry),
		tmu:          &sync.RWMutex{},
		scale:        mgl32.Vec3{1, 1, 1},
	}
	for _, option := range options {
		option(obj)
	}
	obj.updateTransform()
	obj.rebuildBatches()
	return obj
}

func (g *gameObject) Model() model.Model {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.mdl
}

func (g *gameObject) SetModel(m model.Model) {
	g.tmu.Lock()
	g.mdl = m
	g.tmu.Unlock()
	g.updateTransform()
	g.rebuildBatches()
}

func (g *gameObject) Material(slot int) material.Material {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.material(slot)
}

func (g *gameObject) material(slot int) material.Material {
	if slot >= 0 && slot < len(g.materials) && g.materials[slot] != nil {
		return g.materials[slot]
	}
	if g.mdl == nil {
		return nil
	}
	if mats := g.mdl.Materials(); slot >= 0 && slot < len(mats) {
		return mats[slot]
	}
	return nil
}

func (g *gameObject) SetMaterial(slot int, m material.Material) {
	if slot < 0 {
		return
	}
	g.tmu.Lock()
	for len(g.materials) <= slot {
		g.materials = append(g.materials, nil)
	}
	g.materials[slot] = m
	g.tmu.Unlock()
	g.rebuildBatches()
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.position
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) RotationSpeed() (rx, ry, rz float32) {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.rotationSpeed[0], g.rotationSpeed[1], g.rotationSpeed[2]
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.scale
}

func (g *gameObject) WorldTransform() mgl32.Mat4 {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.world
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.tmu.Lock()
	g.position = mgl32.Vec3{x, y, z}
	g.tmu.Unlock()
	g.updateTransform()
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.tmu.Lock()
	g.rotation = [3]float32{rx, ry, rz}
	g.tmu.Unlock()
	g.updateTransform()
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.tmu.Lock()
	defer g.tmu.Unlock()
	g.rotationSpeed = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.tmu.Lock()
	g.scale = mgl32.Vec3{sx, sy, sz}
	g.tmu.Unlock()
	g.updateTransform()
}

func (g *gameObject) Light() light.Light {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.tmu.Lock()
	g.attachedLight = l
	g.tmu.Unlock()
	if l != nil {
		l.SetPosition(g.Position())
	}
}

// Update applies the rotation speed.
func (g *gameObject) Update(timeStep float32) {
	g.tmu.Lock()
	speed := g.rotationSpeed
	if speed == [3]float32{} {
		g.tmu.Unlock()
		return
	}
	for i := range g.rotation {
		g.rotation[i] += speed[i] * timeStep
	}
	g.tmu.Unlock()
	g.updateTransform()
}

// UpdateBatches picks the LOD level of every slot from the LOD distance and refreshes
// batch distances and transforms.
func (g *gameObject) UpdateBatches(frame scene.FrameInfo) {
	g.tmu.RLock()
	defer g.tmu.RUnlock()

	s := g.scale
	g.UpdateDistance(frame, max(mgl32.Abs(s[0]), mgl32.Abs(s[1]), mgl32.Abs(s[2])))
	batches := g.Batches()
	if g.mdl == nil {
		return
	}
	lodDistance := g.LodDistance()
	for slot := range batches {
		if slot >= g.mdl.NumGeometries() {
			break
		}
		lods := g.mdl.LodLevels(slot)
		lod := 0
		for i := 1; i < len(lods); i++ {
			if lodDistance <= lods[i].LodDistance() {
				break
			}
			lod = i
		}
		batches[slot].Geometry = g.mdl.Geometry(slot, lod)
		batches[slot].Distance = g.Distance()
		batches[slot].WorldTransform = g.world
	}
}

func (g *gameObject) updateTransform() {
	g.tmu.Lock()
	rot := mgl32.AnglesToQuat(
		mgl32.DegToRad(g.rotation[0]),
		mgl32.DegToRad(g.rotation[1]),
		mgl32.DegToRad(g.rotation[2]),
		mgl32.XYZ,
	)
	g.world = common.TransformFromTRS(g.position, rot, g.scale)
	var box common.BoundingBox
	if g.mdl != nil {
		box = g.mdl.BoundingBox().Transformed(g.world)
	}
	pos := g.position
	l := g.attachedLight
	g.tmu.Unlock()

	g.SetWorldBoundingBox(box)
	if l != nil {
		l.SetPosition(pos)
	}
}

func (g *gameObject) rebuildBatches() {
	g.tmu.RLock()
	defer g.tmu.RUnlock()
	if g.mdl == nil {
		g.SetBatches(nil)
		return
	}
	batches := make([]scene.SourceBatch, g.mdl.NumGeometries())
	for slot := range batches {
		batches[slot] = scene.SourceBatch{
			Geometry:       g.mdl.Geometry(slot, 0),
			Material:       g.material(slot),
			WorldTransform: g.world,
			GeometryType:   g.geometryType,
		}
	}
	g.SetBatches(batches)
}
