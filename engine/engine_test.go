package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/event"
	"github.com/Carmen-Shannon/oxy-render/engine/game_object"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFrameOrder(t *testing.T) {
	bus := event.NewBus()
	rec := graphics.NewRecorder()
	var order []event.Type
	for _, typ := range []event.Type{event.TypeBeginFrame, event.TypeUpdate, event.TypePostUpdate, event.TypeRenderUpdate, event.TypeEndAllViewsRender} {
		bus.Subscribe(typ, func(e event.Event) {
			order = append(order, e.Type())
			assert.Equal(t, uint32(1), e.(event.Frame).FrameNumber)
		})
	}

	e := NewEngine(WithEventBus(bus), WithRenderer(renderer.NewRenderer(rec, renderer.WithEventBus(bus))))
	require.NoError(t, e.RunFrame(0.016))

	assert.Equal(t, []event.Type{
		event.TypeBeginFrame, event.TypeUpdate, event.TypePostUpdate,
		event.TypeRenderUpdate, event.TypeEndAllViewsRender,
	}, order)
	assert.Equal(t, uint32(1), e.FrameNumber())
	assert.Equal(t, 1, rec.Count(graphics.OpBeginFrame))
}

func TestRunFrameUpdatesActiveScenesOnly(t *testing.T) {
	spinning := game_object.NewGameObject(game_object.WithRotationSpeed(0, 90, 0))
	idle := game_object.NewGameObject(game_object.WithRotationSpeed(0, 90, 0))

	active := scene.NewScene("active", camera.NewCamera(), scene.WithActive(true))
	active.Add(spinning)
	inactive := scene.NewScene("inactive", camera.NewCamera())
	inactive.Add(idle)

	e := NewEngine(WithScene(0, active), WithScene(1, inactive))
	require.NoError(t, e.RunFrame(0.5))

	_, ry, _ := spinning.Rotation()
	assert.InDelta(t, 45, ry, 1e-4)
	_, ry, _ = idle.Rotation()
	assert.Zero(t, ry)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	bus := event.NewBus()
	r := renderer.NewRenderer(graphics.NewRecorder(), renderer.WithEventBus(bus))
	e := NewEngine(WithEventBus(bus), WithRenderer(r))
	e.SetRenderCallback(func(float32) {
		if e.FrameNumber() >= 3 {
			e.Quit()
		}
	})

	e.Run()

	assert.GreaterOrEqual(t, e.FrameNumber(), uint32(3))
	assert.False(t, bus.HasSubscribers(event.TypeScreenMode), "renderer released on shutdown")
}

func TestSceneRegistry(t *testing.T) {
	s := scene.NewScene("main", camera.NewCamera())
	e := NewEngine()
	assert.NotNil(t, e.Events())

	e.AddScene(3, s)
	assert.Same(t, s, e.Scene(3))
	assert.Len(t, e.Scenes(), 1)

	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
}
