package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/event"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	gfx    graphics.Graphics
	bus    event.Bus
	logger *slog.Logger

	views      []*ViewRenderer
	screenMode event.Subscription
	subscribed bool
}

// Renderer draws every registered view into the backbuffer once per frame and
// publishes the frame events other systems, such as the UI, hook into.
//
// A frame runs: BeginFrame, the RenderUpdate event, Update and Render of every view
// in registration order, the EndAllViewsRender event with the backbuffer bound, and
// EndFrame.
type Renderer interface {
	// Graphics returns the device the renderer draws through.
	//
	// Returns:
	//   - graphics.Graphics: the device
	Graphics() graphics.Graphics

	// AddView appends a view to the render order. Adding a view twice is a no-op.
	//
	// Parameters:
	//   - v: the view to render each frame
	AddView(v *ViewRenderer)

	// RemoveView removes a view from the render order.
	//
	// Parameters:
	//   - v: the view to remove
	RemoveView(v *ViewRenderer)

	// Views returns a copy of the render order.
	//
	// Returns:
	//   - []*ViewRenderer: the views in render order
	Views() []*ViewRenderer

	// Resize resizes the backbuffer when the device supports it and updates the
	// aspect ratio of every full-target view camera.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// RenderFrame renders every view. Views that fail are logged and skipped; the
	// frame is still presented.
	//
	// Parameters:
	//   - frame: frame number and timing passed to every view
	//
	// Returns:
	//   - error: error if the device could not begin the frame
	RenderFrame(frame scene.FrameInfo) error

	// Release unsubscribes from the event bus. The device is owned by the caller.
	Release()
}

var _ Renderer = &renderer{}

type resizer interface {
	Resize(width, height int)
}

// NewRenderer creates a Renderer drawing through gfx. When an event bus is given the
// renderer resizes on screen mode events and publishes the frame events. Panics if gfx is nil.
//
// Parameters:
//   - gfx: the graphics device
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(gfx graphics.Graphics, options ...RendererBuilderOption) Renderer {
	if gfx == nil {
		panic("renderer: renderer requires a non-nil Graphics")
	}
	r := &renderer{
		mu:     &sync.Mutex{},
		gfx:    gfx,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(r)
	}

	if r.bus != nil {
		r.screenMode = r.bus.Subscribe(event.TypeScreenMode, func(e event.Event) {
			mode := e.(event.ScreenMode)
			r.Resize(mode.Width, mode.Height)
		})
		r.subscribed = true
	}
	return r
}

func (r *renderer) Graphics() graphics.Graphics {
	return r.gfx
}

func (r *renderer) AddView(v *ViewRenderer) {
	if v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.views, v) {
		r.views = append(r.views, v)
	}
}

func (r *renderer) RemoveView(v *ViewRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = slices.DeleteFunc(r.views, func(existing *ViewRenderer) bool { return existing == v })
}

func (r *renderer) Views() []*ViewRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.views)
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if rs, ok := r.gfx.(resizer); ok {
		rs.Resize(width, height)
	}
	for _, v := range r.Views() {
		vp := v.Viewport()
		if v.IsDefined() && vp.Rect.IsZero() && vp.Camera != nil {
			vp.Camera.SetAspect(float32(width) / float32(height))
		}
	}
}

func (r *renderer) RenderFrame(frame scene.FrameInfo) error {
	if err := r.gfx.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	r.publish(event.TypeRenderUpdate, frame)

	for _, v := range r.Views() {
		v.Update(frame)
		if err := v.Render(); err != nil {
			if !errors.Is(err, ErrViewportUndefined) {
				r.logger.Error("view render failed", "frame", frame.FrameNumber, "err", err)
			}
		}
	}

	if r.bus != nil && r.bus.HasSubscribers(event.TypeEndAllViewsRender) {
		size := r.gfx.BackbufferSize()
		r.gfx.SetRenderTarget(nil, nil)
		r.gfx.SetViewport(common.NewIntRect(0, 0, size.X, size.Y))
		r.publish(event.TypeEndAllViewsRender, frame)
	}

	r.gfx.EndFrame()
	return nil
}

func (r *renderer) Release() {
	if r.subscribed {
		r.bus.Unsubscribe(r.screenMode)
		r.subscribed = false
	}
}

func (r *renderer) publish(t event.Type, frame scene.FrameInfo) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(event.Frame{Kind: t, FrameNumber: frame.FrameNumber, TimeStep: frame.TimeStep})
}
