package game_object

import (
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetID(id)
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetEnabled(enabled)
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithMaterial overrides the material of one geometry slot.
//
// Parameters:
//   - slot: the geometry slot
//   - m: the material
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the material
func WithMaterial(slot int, m material.Material) GameObjectBuilderOption {
	return func(obj *gameObject) {
		if slot < 0 {
			return
		}
		for len(obj.materials) <= slot {
			obj.materials = append(obj.materials, nil)
		}
		obj.materials[slot] = m
	}
}

// WithPosition sets the initial position of the GameObject.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = mgl32.Vec3{x, y, z}
	}
}

// WithScale sets the initial scale of the GameObject.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithRotation sets the initial rotation of the GameObject in degrees.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = [3]float32{rx, ry, rz}
	}
}

// WithRotationSpeed sets the rotation speed of the GameObject in degrees per second.
// Scene.Update applies it.
//
// Parameters:
//   - rx: the x rotation speed
//   - ry: the y rotation speed
//   - rz: the z rotation speed
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation speed
func WithRotationSpeed(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotationSpeed = [3]float32{rx, ry, rz}
	}
}

// WithLight attaches a Light to the GameObject. The light follows the object's
// position whenever the object moves.
//
// Parameters:
//   - l: the Light to attach
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the attached light
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.attachedLight = l
	}
}

// WithCastShadows sets whether the object is rendered into shadow maps.
//
// Parameters:
//   - enabled: true to cast shadows
//
// Returns:
//   - GameObjectBuilderOption: functional option to set shadow casting
func WithCastShadows(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetCastShadows(enabled)
	}
}

// WithDrawDistance sets the maximum camera distance the object is drawn at, 0 for
// unlimited.
//
// Parameters:
//   - distance: the draw distance
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the draw distance
func WithDrawDistance(distance float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetDrawDistance(distance)
	}
}

// WithShadowDistance sets the maximum camera distance the object casts shadows at, 0
// for unlimited.
//
// Parameters:
//   - distance: the shadow distance
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the shadow distance
func WithShadowDistance(distance float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetShadowDistance(distance)
	}
}

// WithMasks sets the view, light and shadow masks.
//
// Parameters:
//   - viewMask: cameras whose view mask does not intersect this skip the object
//   - lightMask: lights whose light mask does not intersect this skip the object
//   - shadowMask: shadowed lights whose light mask does not intersect this skip it as caster
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the masks
func WithMasks(viewMask, lightMask, shadowMask uint32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.SetViewMask(viewMask)
		obj.SetLightMask(lightMask)
		obj.SetShadowMask(shadowMask)
	}
}

// WithGeometryType sets the geometry type of every source batch.
//
// Parameters:
//   - t: the geometry type
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the geometry type
func WithGeometryType(t scene.GeometryType) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.geometryType = t
	}
}
