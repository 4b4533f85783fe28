package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/event"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	cursors map[Cursor]*glfw.Cursor
	running bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		cursors: make(map[Cursor]*glfw.Cursor),
		running: true,
	}
	w.internalWindow = gw

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if w.closeOnEscape && key == glfw.KeyEscape && action == glfw.Press {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		w.publish(func(s *inputState) event.Event {
			return s.key(common.Key(key), scancode, action != glfw.Release, action == glfw.Repeat, qualifiersFromGLFW(mods))
		})
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCharCallback
	win.SetCharCallback(func(_ *glfw.Window, char rune) {
		w.bus.Publish(textInput(char))
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetScrollCallback
	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		w.publish(func(s *inputState) event.Event {
			return s.wheel(yoff)
		})
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetMouseButtonCallback
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		w.publish(func(s *inputState) event.Event {
			return s.mouseButton(mouseButtonFromGLFW(button), action == glfw.Press, qualifiersFromGLFW(mods))
		})
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCursorPosCallback
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		w.publish(func(s *inputState) event.Event {
			return s.move(int(xpos), int(ypos))
		})
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetDropCallback
	win.SetDropCallback(func(_ *glfw.Window, names []string) {
		for _, name := range names {
			w.bus.Publish(event.DropFile{FileName: name})
		}
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// The renderer requires pixel dimensions for correct surface configuration.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resize(width, height)
	})

	// Update stored dimensions to reflect actual framebuffer size (may differ from requested on high-DPI).
	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// qualifiersFromGLFW converts GLFW modifier bits.
func qualifiersFromGLFW(mods glfw.ModifierKey) common.Qualifiers {
	var q common.Qualifiers
	if mods&glfw.ModShift != 0 {
		q |= common.QualShift
	}
	if mods&glfw.ModControl != 0 {
		q |= common.QualCtrl
	}
	if mods&glfw.ModAlt != 0 {
		q |= common.QualAlt
	}
	if mods&glfw.ModSuper != 0 {
		q |= common.QualSuper
	}
	return q
}

// mouseButtonFromGLFW converts a GLFW button, 0 for buttons without a mapping.
func mouseButtonFromGLFW(button glfw.MouseButton) common.MouseButton {
	switch button {
	case glfw.MouseButtonLeft:
		return common.MouseButtonLeft
	case glfw.MouseButtonRight:
		return common.MouseButtonRight
	case glfw.MouseButtonMiddle:
		return common.MouseButtonMiddle
	case glfw.MouseButton4:
		return common.MouseButtonX1
	case glfw.MouseButton5:
		return common.MouseButtonX2
	}
	return 0
}

// standardCursorFromCursor maps a cursor shape to the GLFW standard cursor.
func standardCursorFromCursor(cursor Cursor) glfw.StandardCursor {
	switch cursor {
	case CursorText:
		return glfw.IBeamCursor
	case CursorCross:
		return glfw.CrosshairCursor
	case CursorHand:
		return glfw.HandCursor
	case CursorResizeHorizontal:
		return glfw.HResizeCursor
	case CursorResizeVertical:
		return glfw.VResizeCursor
	}
	return glfw.ArrowCursor
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	gw := w.internalWindow.(*glfwWindow)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformClipboardText(w *engineWindow) string {
	if w.internalWindow == nil {
		return ""
	}
	return w.internalWindow.(*glfwWindow).window.GetClipboardString()
}

func platformSetClipboardText(w *engineWindow, text string) {
	if w.internalWindow == nil {
		return
	}
	w.internalWindow.(*glfwWindow).window.SetClipboardString(text)
}

// platformSetCursor sets a standard cursor, creating each shape once.
func platformSetCursor(w *engineWindow, cursor Cursor) {
	if w.internalWindow == nil {
		return
	}
	gw := w.internalWindow.(*glfwWindow)
	c, ok := gw.cursors[cursor]
	if !ok {
		c = glfw.CreateStandardCursor(standardCursorFromCursor(cursor))
		gw.cursors[cursor] = c
	}
	gw.window.SetCursor(c)
}

func platformSetMouseGrabbed(w *engineWindow, grabbed bool) {
	if w.internalWindow == nil {
		return
	}
	mode := glfw.CursorNormal
	if grabbed {
		mode = glfw.CursorDisabled
	}
	w.internalWindow.(*glfwWindow).window.SetInputMode(glfw.CursorMode, mode)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
//
// Parameters:
//   - w: the engineWindow to check
//
// Returns:
//   - bool: true if the window is still running
func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
	for _, c := range gw.cursors {
		c.Destroy()
	}
	gw.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
