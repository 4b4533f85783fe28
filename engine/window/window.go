package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/event"
	"github.com/cogentcore/webgpu/wgpu"
)

// Cursor selects the shape of the system mouse cursor.
type Cursor uint8

const (
	CursorArrow Cursor = iota
	CursorText
	CursorCross
	CursorHand
	CursorResizeHorizontal
	CursorResizeVertical
)

// Window provides platform windowing and publishes its input to an event bus.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// Events returns the bus input, screen mode and drop events are published to.
	//
	// Returns:
	//   - event.Bus: the event bus
	Events() event.Bus

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ClipboardText returns the text on the system clipboard, or "" if it holds no text.
	//
	// Returns:
	//   - string: the clipboard text
	ClipboardText() string

	// SetClipboardText places text on the system clipboard.
	//
	// Parameters:
	//   - text: the text to copy
	SetClipboardText(text string)

	// SetCursor changes the shape of the mouse cursor over the window.
	//
	// Parameters:
	//   - cursor: the cursor shape
	SetCursor(cursor Cursor)

	// SetMouseGrabbed hides the cursor and locks it to the window, for camera controls.
	//
	// Parameters:
	//   - grabbed: true to grab the mouse
	SetMouseGrabbed(grabbed bool)

	// IsMouseGrabbed reports whether the mouse is grabbed.
	IsMouseGrabbed() bool

	// IsMouseVisible reports whether the system cursor is shown.
	IsMouseVisible() bool

	// MousePosition returns the last cursor position in window pixels.
	//
	// Returns:
	//   - int: the x position
	//   - int: the y position
	MousePosition() (int, int)

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// PollEvents processes pending window messages once without blocking.
	//
	// Returns:
	//   - bool: false once the window has been closed
	PollEvents() bool

	// Width returns the current window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state and the input state events are built from.
type engineWindow struct {
	mu sync.RWMutex

	// title is the window title displayed in the title bar.
	title string

	// maxWidth is the maximum allowed window width during resize.
	maxWidth int

	// maxHeight is the maximum allowed window height during resize.
	maxHeight int

	// minWidth is the minimum allowed window width during resize.
	minWidth int

	// minHeight is the minimum allowed window height during resize.
	minHeight int

	// width is the current window client area width in pixels.
	width int

	// height is the current window client area height in pixels.
	height int

	// closeOnEscape closes the window when Escape is pressed.
	closeOnEscape bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	bus   event.Bus
	input inputState
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options and publishes an initial
// screen mode event with the framebuffer size.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:         "Default Window Title",
		maxWidth:      1600,
		maxHeight:     1200,
		minWidth:      600,
		minHeight:     200,
		width:         1280,
		height:        720,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.bus == nil {
		w.bus = event.NewBus()
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	w.bus.Publish(event.ScreenMode{Width: w.width, Height: w.height})
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) Events() event.Bus {
	return w.bus
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) ClipboardText() string {
	return platformClipboardText(w)
}

func (w *engineWindow) SetClipboardText(text string) {
	platformSetClipboardText(w, text)
}

func (w *engineWindow) SetCursor(cursor Cursor) {
	platformSetCursor(w, cursor)
}

func (w *engineWindow) SetMouseGrabbed(grabbed bool) {
	w.mu.Lock()
	w.input.grabbed = grabbed
	w.mu.Unlock()
	platformSetMouseGrabbed(w, grabbed)
}

func (w *engineWindow) IsMouseGrabbed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.input.grabbed
}

func (w *engineWindow) IsMouseVisible() bool {
	return !w.IsMouseGrabbed()
}

func (w *engineWindow) MousePosition() (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.input.x, w.input.y
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.height
}

// resize stores the framebuffer size and publishes a screen mode event.
func (w *engineWindow) resize(width, height int) {
	w.mu.Lock()
	w.width = width
	w.height = height
	w.mu.Unlock()
	w.bus.Publish(event.ScreenMode{Width: width, Height: height})
}

// publish builds an event from the input state under the lock and publishes it
// outside of it, so handlers may query the window.
func (w *engineWindow) publish(build func(s *inputState) event.Event) {
	w.mu.Lock()
	e := build(&w.input)
	w.mu.Unlock()
	if e != nil {
		w.bus.Publish(e)
	}
}
