package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicWGSL = `#ifdef DIFFMAP
@group(1) @binding(0) var diffuse: texture_2d<f32>;
#endif
@fragment fn main() {}
`

func writeShaderDir(t *testing.T) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Basic.wgsl"), []byte(basicWGSL), 0o644))
	cfg = filepath.Join(dir, "renderer.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[shaders]\ndirectory = \""+filepath.ToSlash(dir)+"\"\nversion = \"wgsl\"\n"), 0o644))
	return dir, cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvertWritesVariationToStdout(t *testing.T) {
	_, cfg := writeShaderDir(t)

	out, err := run(t, "convert", "Basic", "--config", cfg, "--stage", "ps", "-D", "DIFFMAP")
	require.NoError(t, err)
	assert.Contains(t, out, "var diffuse")
	assert.Contains(t, out, "fn main")

	out, err = run(t, "convert", "Basic", "--config", cfg, "--stage", "ps")
	require.NoError(t, err)
	assert.NotContains(t, out, "var diffuse")
}

func TestConvertWritesOutputFile(t *testing.T) {
	dir, cfg := writeShaderDir(t)
	target := filepath.Join(dir, "out.wgsl")

	_, err := run(t, "convert", "Basic", "--config", cfg, "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fn main")
}

func TestConvertRejectsBadInput(t *testing.T) {
	_, cfg := writeShaderDir(t)

	_, err := run(t, "convert", "Basic", "--config", cfg, "--stage", "gs")
	assert.ErrorContains(t, err, "unknown shader stage")

	_, err = run(t, "convert", "Basic", "--config", cfg, "--version", "metal")
	assert.ErrorContains(t, err, "unknown shader version")

	_, err = run(t, "convert", "Missing", "--config", cfg)
	assert.Error(t, err)

	_, err = run(t, "convert", "Basic", "--config", filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err, "an explicit settings file must exist")
}

func TestMissingDefaultConfigUsesDefaults(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	dir, _ := writeShaderDir(t)
	out, err := run(t, "convert", "Basic", "--dir", dir, "--stage", "ps")
	require.NoError(t, err)
	assert.Contains(t, out, "fn main")
}

func TestWatcherConvertsBothStages(t *testing.T) {
	fsys := fstest.MapFS{"Basic.wgsl": {Data: []byte(basicWGSL)}}
	outDir := t.TempDir()
	w := &watcher{
		cache:   shader.NewShaderCache(fsys),
		names:   []string{"Basic", "Missing"},
		version: shader.WGSL,
		outDir:  outDir,
		logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}

	err := w.convertAll(context.Background())
	assert.Error(t, err, "the missing shader is reported")
	assert.FileExists(t, filepath.Join(outDir, "Basic.vs.wgsl"))
	assert.FileExists(t, filepath.Join(outDir, "Basic.ps.wgsl"))
}
