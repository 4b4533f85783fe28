package event

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCallsHandlersInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(TypeKeyDown, func(e Event) { got = append(got, "first") })
	b.Subscribe(TypeKeyDown, func(e Event) {
		k, ok := e.(Key)
		require.True(t, ok)
		assert.Equal(t, common.KeyEnter, k.Key)
		got = append(got, "second")
	})
	b.Subscribe(TypeKeyUp, func(e Event) { got = append(got, "up") })

	b.Publish(Key{Down: true, Key: common.KeyEnter})
	assert.Equal(t, []string{"first", "second"}, got)

	b.Publish(Key{Key: common.KeyEnter})
	assert.Equal(t, []string{"first", "second", "up"}, got)
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	s := b.Subscribe(TypePostUpdate, func(Event) { calls++ })
	assert.True(t, b.HasSubscribers(TypePostUpdate))
	assert.Equal(t, TypePostUpdate, s.Type())

	b.Publish(Frame{Kind: TypePostUpdate, TimeStep: 0.016})
	b.Unsubscribe(s)
	b.Unsubscribe(s)
	b.Publish(Frame{Kind: TypePostUpdate})

	assert.Equal(t, 1, calls)
	assert.False(t, b.HasSubscribers(TypePostUpdate))
}

func TestSubscribeDuringPublishTakesEffectNextTime(t *testing.T) {
	b := NewBus()
	late := 0
	b.Subscribe(TypeScreenMode, func(Event) {
		b.Subscribe(TypeScreenMode, func(Event) { late++ })
	})

	b.Publish(ScreenMode{Width: 800, Height: 600})
	assert.Equal(t, 0, late)
	b.Publish(ScreenMode{Width: 800, Height: 600})
	assert.Equal(t, 1, late)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, TypeMouseButtonDown, MouseButton{Down: true}.Type())
	assert.Equal(t, TypeMouseButtonUp, MouseButton{}.Type())
	assert.Equal(t, TypeTouchMove, Touch{Phase: TypeTouchMove}.Type())
	assert.Equal(t, TypeEndAllViewsRender, Frame{Kind: TypeEndAllViewsRender}.Type())
	assert.Equal(t, "EndAllViewsRender", TypeEndAllViewsRender.String())
	assert.Equal(t, "Unknown", Type(999).String())
}

func TestSubscribePanicsOnNilHandler(t *testing.T) {
	assert.Panics(t, func() { NewBus().Subscribe(TypeKeyDown, nil) })
}
