package shader

import (
	"fmt"

	"github.com/gobwas/glob"
)

// CacheBuilderOption is a functional option for configuring a ShaderCache.
type CacheBuilderOption func(*shaderCache)

// WithConverter sets the converter DX11 sources go through.
//
// Parameters:
//   - conv: the converter
//
// Returns:
//   - CacheBuilderOption: a function that sets the converter
func WithConverter(conv ShaderConverter) CacheBuilderOption {
	return func(c *shaderCache) {
		c.converter = conv
	}
}

// WithInvalidateCallback sets a function called after a file change dropped cached
// sources, so the device can drop the shader variations built from them.
//
// Parameters:
//   - fn: receives the changed files
//
// Returns:
//   - CacheBuilderOption: a function that sets the callback
func WithInvalidateCallback(fn func(files []string)) CacheBuilderOption {
	return func(c *shaderCache) {
		c.onInvalidate = fn
	}
}

// WithWatchFilter limits Watch to files whose slash-separated path relative to the
// watched directory matches pattern, e.g. "**.wgsl". Panics if pattern is invalid.
//
// Parameters:
//   - pattern: a glob where "*" stops at "/" and "**" does not
//
// Returns:
//   - CacheBuilderOption: a function that sets the filter
func WithWatchFilter(pattern string) CacheBuilderOption {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		panic(fmt.Sprintf("shader: invalid watch filter %q: %v", pattern, err))
	}
	return func(c *shaderCache) {
		c.watchFilter = g
	}
}
