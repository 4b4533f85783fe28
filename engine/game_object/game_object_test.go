package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBox() model.Model {
	return model.BuildModel(&model.ImportedModel{
		Name:   "box",
		Meshes: []model.ImportedMesh{model.NewBoxMesh(mgl32.Vec3{2, 2, 2})},
	})
}

func TestWorldBoundsFollowTransform(t *testing.T) {
	obj := NewGameObject(WithModel(newBox()), WithPosition(0, 0, 20))
	box := obj.WorldBoundingBox()
	require.True(t, box.Defined)
	assert.InDelta(t, 19, box.Min[2], 1e-4)
	assert.InDelta(t, 21, box.Max[2], 1e-4)

	obj.SetScale(2, 2, 2)
	box = obj.WorldBoundingBox()
	assert.InDelta(t, 18, box.Min[2], 1e-4)
	assert.InDelta(t, 22, box.Max[2], 1e-4)

	assert.False(t, NewGameObject().WorldBoundingBox().Defined)
}

func TestMaterialOverrideRebuildsBatches(t *testing.T) {
	obj := NewGameObject(WithModel(newBox()), WithGeometryType(scene.GeometryInstanced))
	require.Len(t, obj.Batches(), 1)
	assert.Equal(t, scene.GeometryInstanced, obj.Batches()[0].GeometryType)

	red := material.NewMaterial(material.WithName("Red"))
	obj.SetMaterial(0, red)
	assert.Same(t, red, obj.Material(0))
	assert.Same(t, red, obj.Batches()[0].Material)

	obj.SetMaterial(-1, red)
	assert.Nil(t, obj.Material(3))
}

func TestUpdateAppliesRotationSpeed(t *testing.T) {
	obj := NewGameObject(WithModel(newBox()), WithRotationSpeed(0, 90, 0))
	obj.Update(0.5)
	obj.Update(0.5)
	_, ry, _ := obj.Rotation()
	assert.InDelta(t, 90, ry, 1e-4)

	forward := obj.WorldTransform().Mul4x1(mgl32.Vec4{0, 0, 1, 0})
	assert.InDelta(t, 1, mgl32.Abs(forward[0]), 1e-4)
	assert.InDelta(t, 0, forward[2], 1e-4)
}

func TestUpdateBatchesRefreshesDistance(t *testing.T) {
	obj := NewGameObject(WithModel(newBox()), WithPosition(0, 0, 20))
	obj.UpdateBatches(scene.FrameInfo{Camera: camera.NewCamera()})

	assert.InDelta(t, 20, obj.Distance(), 1e-3)
	batch := obj.Batches()[0]
	assert.InDelta(t, 20, batch.Distance, 1e-3)
	assert.NotNil(t, batch.Geometry)
	assert.Equal(t, obj.WorldTransform(), batch.WorldTransform)
}

func TestAttachedLightFollowsPosition(t *testing.T) {
	l := light.NewLight(light.LightTypePoint)
	obj := NewGameObject(WithLight(l), WithPosition(1, 2, 3))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position())

	obj.SetPosition(4, 5, 6)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, l.Position())
	assert.Same(t, l, obj.Light())
}
