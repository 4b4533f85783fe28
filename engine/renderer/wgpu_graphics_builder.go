package renderer

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUGraphicsOption is a functional option applied to the WebGPU device during construction via NewWGPUGraphics.
type WGPUGraphicsOption func(*wgpuGraphics)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUGraphicsOption: a function that applies the present mode option to the device
func WithPresentMode(mode PresentMode) WGPUGraphicsOption {
	return func(g *wgpuGraphics) {
		if mode == PresentModeVSync {
			g.presentMode = wgpu.PresentModeFifo
		} else {
			g.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the backbuffer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff or MSAA4x)
//
// Returns:
//   - WGPUGraphicsOption: a function that applies the MSAA option to the device
func WithMSAA(count MSAASampleCount) WGPUGraphicsOption {
	return func(g *wgpuGraphics) {
		g.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUGraphicsOption: a function that applies the force software renderer option to the device
func WithForceSoftwareRenderer(force bool) WGPUGraphicsOption {
	return func(g *wgpuGraphics) {
		g.forceFallback = force
	}
}

// WithUniformArenaSize sets the initial size in bytes of the per-frame uniform buffer.
// The buffer doubles after a frame that ran out of space.
//
// Parameters:
//   - size: the size in bytes
//
// Returns:
//   - WGPUGraphicsOption: a function that applies the arena size option to the device
func WithUniformArenaSize(size uint64) WGPUGraphicsOption {
	return func(g *wgpuGraphics) {
		if size > 0 {
			g.arenaSize = size
		}
	}
}

// WithGraphicsLogger sets the logger device errors are reported to.
//
// Parameters:
//   - logger: the logger, slog.Default() when not set
//
// Returns:
//   - WGPUGraphicsOption: a function that applies the logger option to the device
func WithGraphicsLogger(logger *slog.Logger) WGPUGraphicsOption {
	return func(g *wgpuGraphics) {
		if logger != nil {
			g.logger = logger
		}
	}
}
