package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/game_object"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoxScene(t *testing.T, withSpot bool) scene.Scene {
	t.Helper()
	box := model.BuildModel(&model.ImportedModel{
		Name:   "box",
		Meshes: []model.ImportedMesh{model.NewBoxMesh(mgl32.Vec3{2, 2, 2})},
	})
	s := scene.NewScene("view", camera.NewCamera(camera.WithClip(0.1, 100)), scene.WithOctree(1000, 4))
	s.Add(game_object.NewGameObject(
		game_object.WithModel(box),
		game_object.WithPosition(0, 0, 20),
		game_object.WithCastShadows(true),
	))
	if withSpot {
		s.Add(light.NewLight(light.LightTypeSpot,
			light.WithPosition(0, 10, 20),
			light.WithDirection(0, -1, 0),
			light.WithRange(15),
			light.WithSpotCone(60, 1),
			light.WithCastShadows(true),
		))
	}
	return s
}

// newSunScene places boxes sharing one material along +Z, lit by a single
// directional light.
func newSunScene(t *testing.T, boxes int) scene.Scene {
	t.Helper()
	box := model.BuildModel(&model.ImportedModel{
		Name:   "box",
		Meshes: []model.ImportedMesh{model.NewBoxMesh(mgl32.Vec3{2, 2, 2})},
	})
	shared := material.NewMaterial(material.WithName("Shared"))
	s := scene.NewScene("sun", camera.NewCamera(camera.WithClip(0.1, 100)), scene.WithOctree(1000, 4))
	for i := 0; i < boxes; i++ {
		s.Add(game_object.NewGameObject(
			game_object.WithModel(box),
			game_object.WithMaterial(0, shared),
			game_object.WithPosition(float32(i*3)-float32(boxes-1)*1.5, 0, 20),
			game_object.WithCastShadows(true),
		))
	}
	s.Add(light.NewLight(light.LightTypeDirectional,
		light.WithDirection(0, -1, 1),
		light.WithCastShadows(true),
	))
	return s
}

func renderOnce(t *testing.T, rec *graphics.Recorder, v *ViewRenderer, s scene.Scene) {
	t.Helper()
	require.NoError(t, v.Define(Viewport{Scene: s, Camera: s.Camera()}))
	require.NoError(t, rec.BeginFrame())
	v.Update(scene.FrameInfo{FrameNumber: 1, TimeStep: 0.016})
	require.NoError(t, v.Render())
	rec.EndFrame()
}

func TestViewRendererWithoutShadows(t *testing.T) {
	rec := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	settings := config.Default()
	settings.DrawShadows = false
	v := NewViewRenderer(rec, WithSettings(settings))

	renderOnce(t, rec, v, newBoxScene(t, true))

	stats := v.Stats()
	assert.Equal(t, 1, stats.BaseBatches)
	assert.Equal(t, 1, stats.LightBatches)
	assert.Zero(t, stats.ShadowBatches)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, 2, rec.Count(graphics.OpDrawIndexed))
}

func TestViewRendererWithShadows(t *testing.T) {
	rec := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	v := NewViewRenderer(rec)

	renderOnce(t, rec, v, newBoxScene(t, true))

	require.Len(t, v.Collector().VisibleLights(), 1)
	sl := v.Collector().VisibleLights()[0]
	require.True(t, sl.HasShadow())
	assert.Equal(t, 1, sl.NumSplits())
	assert.Len(t, v.Collector().ShadowBatches(0, 0), 1)
	assert.Equal(t, 1, v.Stats().ShadowBatches)
	assert.Equal(t, 1, v.Stats().BaseBatches)
}

func TestViewRendererDirectionalLightWithoutShadows(t *testing.T) {
	rec := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	settings := config.Default()
	settings.DrawShadows = false
	v := NewViewRenderer(rec, WithSettings(settings))

	renderOnce(t, rec, v, newSunScene(t, 1))

	require.NotNil(t, v.Collector().MainLight())
	assert.False(t, v.Collector().MainLight().HasShadow())
	base := v.Collector().BaseBatches(0)
	require.Len(t, base, 1)
	assert.True(t, base[0].LitBase)
	assert.Empty(t, v.Collector().LightBatches(0))
	assert.Zero(t, v.Stats().ShadowBatches)
	assert.Equal(t, 1, v.Stats().BaseBatches)
}

func TestViewRendererDirectionalLightWithShadows(t *testing.T) {
	rec := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	v := NewViewRenderer(rec)

	renderOnce(t, rec, v, newSunScene(t, 1))

	require.Len(t, v.Collector().VisibleLights(), 1)
	sun := v.Collector().VisibleLights()[0]
	assert.Same(t, sun, v.Collector().MainLight())
	require.True(t, sun.HasShadow())
	assert.Equal(t, 1, sun.NumSplits())
	assert.Len(t, v.Collector().ShadowBatches(0, 0), 1)
	assert.Equal(t, 1, v.Stats().ShadowBatches)
	require.Len(t, v.Collector().BaseBatches(0), 1)
	assert.True(t, v.Collector().BaseBatches(0)[0].LitBase)
}

func TestViewRendererUploadsUnchangedGroupsOnce(t *testing.T) {
	rec := graphics.NewRecorder(graphics.WithBackbufferSize(800, 600))
	settings := config.Default()
	settings.DrawShadows = false
	v := NewViewRenderer(rec, WithSettings(settings))

	renderOnce(t, rec, v, newSunScene(t, 4))

	require.Len(t, v.Collector().BaseBatches(0), 4)
	for _, group := range []graphics.ShaderParameterGroup{
		graphics.GroupFrame, graphics.GroupCamera, graphics.GroupZone, graphics.GroupLight, graphics.GroupMaterial,
	} {
		assert.Equal(t, 1, rec.ParameterUploads(group), "group %s", group)
	}
	assert.Equal(t, 4, rec.ParameterUploads(graphics.GroupObject))
	assert.Equal(t, 4, rec.Count(graphics.OpDrawIndexed))
	assert.Equal(t, 1, rec.PipelineStatesCreated())
}

func TestViewRendererSkyboxKeepsZRange(t *testing.T) {
	rec := graphics.NewRecorder()
	v := NewViewRenderer(rec)
	s := newBoxScene(t, false)

	sky := scene.NewDrawableBase(scene.DrawableGeometry)
	huge := mgl32.Vec3{common.LargeValue, common.LargeValue, common.LargeValue}
	sky.SetWorldBoundingBox(common.NewBoundingBox(huge.Mul(-1), huge))
	s.Add(sky)

	renderOnce(t, rec, v, s)

	assert.Len(t, v.Collector().VisibleGeometries(), 2)
	zRange := v.Collector().SceneZRange()
	require.True(t, zRange.IsValid())
	assert.InDelta(t, 19, zRange.Min, 1e-3)
	assert.InDelta(t, 21, zRange.Max, 1e-3)
}

func TestViewRendererDefineValidates(t *testing.T) {
	v := NewViewRenderer(graphics.NewRecorder())
	s := scene.NewScene("s", camera.NewCamera())

	assert.ErrorIs(t, v.Define(Viewport{Camera: s.Camera()}), ErrNoScene)
	assert.ErrorIs(t, v.Define(Viewport{Scene: s}), ErrNoCamera)
	assert.ErrorIs(t, v.Define(Viewport{Scene: s}), ErrViewportUndefined)
	assert.False(t, v.IsDefined())
	assert.ErrorIs(t, v.Render(), ErrViewportUndefined)

	require.NoError(t, v.Define(Viewport{Scene: s, Camera: s.Camera()}))
	assert.True(t, v.IsDefined())
	assert.Same(t, s, v.Viewport().Scene)
}

func TestNewViewRendererRejectsBadPasses(t *testing.T) {
	settings := config.Default()
	settings.Passes = []config.PassSettings{{Type: "deferred"}}
	assert.Panics(t, func() { NewViewRenderer(graphics.NewRecorder(), WithSettings(settings)) })
	assert.Panics(t, func() { NewViewRenderer(nil) })
}
