package ui

import (
	"io/fs"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// UIBuilderOption is a functional option for configuring a UI.
type UIBuilderOption func(*UI)

// WithGraphics sets the device the UI renders through. The UI initializes once the
// device reports a non-empty backbuffer.
//
// Parameters:
//   - gfx: the graphics device
//
// Returns:
//   - UIBuilderOption: the option function
func WithGraphics(gfx graphics.Graphics) UIBuilderOption {
	return func(u *UI) {
		u.gfx = gfx
	}
}

// WithWindow uses the window for mouse state, clipboard and cursor shape.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - UIBuilderOption: the option function
func WithWindow(w window.Window) UIBuilderOption {
	return func(u *UI) {
		if w == nil {
			return
		}
		u.input = w
		u.platform = w
	}
}

// WithInputState sets where the UI reads mouse grab and visibility from.
func WithInputState(input InputState) UIBuilderOption {
	return func(u *UI) {
		u.input = input
	}
}

// WithPlatform sets the clipboard and cursor provider of the system interface.
func WithPlatform(platform Platform) UIBuilderOption {
	return func(u *UI) {
		u.platform = platform
	}
}

// WithFS sets the file system documents, fonts and images are loaded from. Without
// it the UI starts with an empty in-memory file system.
func WithFS(fsys fs.FS) UIBuilderOption {
	return func(u *UI) {
		u.files = fsys
	}
}

// WithFontFaces registers fonts with the middleware during initialization.
func WithFontFaces(fonts ...FontFace) UIBuilderOption {
	return func(u *UI) {
		u.fonts = append(u.fonts, fonts...)
	}
}

// WithDropFileHandler sets the callback for files dropped on the window.
func WithDropFileHandler(handler DropFileHandler) UIBuilderOption {
	return func(u *UI) {
		u.onDrop = handler
	}
}

// WithScale sets the initial UI scale. Non-positive values are ignored.
func WithScale(scale float32) UIBuilderOption {
	return func(u *UI) {
		if scale > 0 {
			u.scale = scale
		}
	}
}

// WithRenderTarget renders the UI into a texture instead of the backbuffer.
func WithRenderTarget(target *graphics.Texture) UIBuilderOption {
	return func(u *UI) {
		u.renderTarget = target
	}
}

// WithRendererOptions passes options to the RmlRenderer created on initialization.
func WithRendererOptions(options ...RmlRendererBuilderOption) UIBuilderOption {
	return func(u *UI) {
		u.rendererOpts = append(u.rendererOpts, options...)
	}
}

// WithSystemOptions passes options to the RmlSystem created on initialization.
func WithSystemOptions(options ...RmlSystemBuilderOption) UIBuilderOption {
	return func(u *UI) {
		u.systemOpts = append(u.systemOpts, options...)
	}
}

// WithLogger sets the logger of the UI and the interfaces it creates.
func WithLogger(logger *slog.Logger) UIBuilderOption {
	return func(u *UI) {
		if logger != nil {
			u.logger = logger
		}
	}
}
