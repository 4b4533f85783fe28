package shader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

type cacheKey struct {
	name    string
	stage   graphics.ShaderType
	version ShaderVersion
	defines string
}

type cacheEntry struct {
	source string
	files  []string
}

// shaderCache is the implementation of the ShaderCache interface.
type shaderCache struct {
	mu *sync.RWMutex

	preProcessor PreProcessor
	converter    ShaderConverter
	entries      map[cacheKey]*cacheEntry
	onInvalidate func(files []string)
	watchFilter  glob.Glob
}

// ShaderCache produces and caches final shader sources per (name, stage, version,
// defines).
type ShaderCache interface {
	// GetShaderSource returns the final source of a shader variation. DX11 sources are
	// converted to HLSL.
	//
	// Parameters:
	//   - ctx: cancels the conversion tools
	//   - name: the resource name without extension
	//   - stage: the shader stage
	//   - version: the target shading language
	//   - defines: the variation defines
	//
	// Returns:
	//   - string: the source
	//   - error: error if pre-processing or conversion fails; failures are not cached
	GetShaderSource(ctx context.Context, name string, stage graphics.ShaderType, version ShaderVersion, defines ShaderDefines) (string, error)

	// Invalidate drops every cached source that read file.
	//
	// Parameters:
	//   - file: a path relative to the shader file system
	//
	// Returns:
	//   - int: the number of dropped entries
	Invalidate(file string) int

	// InvalidateAll drops every cached source.
	InvalidateAll()

	// Len returns the number of cached sources.
	Len() int

	// Watch invalidates entries whenever a file under dir changes, until ctx is done.
	// dir must be the on-disk directory the shader file system was opened from.
	//
	// Parameters:
	//   - ctx: stops watching when done
	//   - dir: the shader directory
	//
	// Returns:
	//   - error: error if the watcher cannot be created
	Watch(ctx context.Context, dir string) error
}

var _ ShaderCache = &shaderCache{}

// NewShaderCache creates a cache over the shader files in fsys. Panics if fsys is nil.
//
// Parameters:
//   - fsys: the shader file system
//   - options: functional options to configure the cache
//
// Returns:
//   - ShaderCache: the new cache
func NewShaderCache(fsys fs.FS, options ...CacheBuilderOption) ShaderCache {
	c := &shaderCache{
		mu:           &sync.RWMutex{},
		preProcessor: NewPreProcessor(fsys),
		entries:      make(map[cacheKey]*cacheEntry),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *shaderCache) GetShaderSource(ctx context.Context, name string, stage graphics.ShaderType, version ShaderVersion, defines ShaderDefines) (string, error) {
	key := cacheKey{name: name, stage: stage, version: version, defines: defines.String()}

	c.mu.RLock()
	entry := c.entries[key]
	c.mu.RUnlock()
	if entry != nil {
		return entry.source, nil
	}

	res, err := c.preProcessor.Process(name, stage, version, defines)
	if err != nil {
		return "", err
	}
	source := res.Source
	if version == DX11 {
		if c.converter == nil {
			return "", fmt.Errorf("shader: %s: DX11 sources need a ShaderConverter", name)
		}
		source, err = c.converter.ConvertGLSLToHLSL(ctx, stage, source)
		if err != nil {
			return "", fmt.Errorf("shader: %s %s: %w", name, stage, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.entries[key]; existing != nil {
		return existing.source, nil
	}
	c.entries[key] = &cacheEntry{source: source, files: res.Files}
	return source, nil
}

func (c *shaderCache) Invalidate(file string) int {
	file = filepath.ToSlash(filepath.Clean(file))
	c.mu.Lock()
	dropped := 0
	for key, entry := range c.entries {
		if slices.Contains(entry.files, file) {
			delete(c.entries, key)
			dropped++
		}
	}
	c.mu.Unlock()

	if dropped > 0 && c.onInvalidate != nil {
		c.onInvalidate([]string{file})
	}
	return dropped
}

func (c *shaderCache) InvalidateAll() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *shaderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *shaderCache) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shader: failed to create watcher: %w", err)
	}
	if err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	}); err != nil {
		watcher.Close()
		return fmt.Errorf("shader: failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				rel, err := filepath.Rel(dir, ev.Name)
				if err != nil {
					continue
				}
				if n := c.fileChanged(rel); n > 0 {
					slog.Info("shader source changed", "file", rel, "invalidated", n)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("shader watcher error", "dir", dir, "err", err)
			}
		}
	}()
	return nil
}

// fileChanged invalidates a changed file unless the watch filter rejects it.
func (c *shaderCache) fileChanged(rel string) int {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if c.watchFilter != nil && !c.watchFilter.Match(rel) {
		return 0
	}
	return c.Invalidate(rel)
}
