// Package config loads renderer settings from TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// PassSettings describes one scene pass by type name and material pass names.
type PassSettings struct {
	// Type is one of "unlit", "forward-lit-base" or "forward-unlit-base".
	Type            string `toml:"type"`
	UnlitBase       string `toml:"unlit_base"`
	LitBase         string `toml:"lit_base"`
	AdditionalLight string `toml:"additional_light"`
}

// ShaderSettings locates shader sources and the cross-compiler tools.
type ShaderSettings struct {
	// Directory holding shader sources.
	Directory string `toml:"directory"`
	// Version is one of "dx11", "gl2", "gl3", "gles2", "gles3" or "wgsl".
	Version string `toml:"version"`
	// Watch enables reloading when files under Directory change.
	Watch bool `toml:"watch"`
	// GLSLCommand is the GLSL to SPIR-V command line; {stage}, {input} and {output}
	// are substituted.
	GLSLCommand string `toml:"glsl_command"`
	// HLSLCommand is the SPIR-V to HLSL command line; {input} and {output} are substituted.
	HLSLCommand string `toml:"hlsl_command"`
}

// RendererSettings is the top-level renderer configuration.
type RendererSettings struct {
	Workers            int            `toml:"workers"`
	DrawShadows        bool           `toml:"draw_shadows"`
	PointLightShadows  bool           `toml:"point_light_shadows"`
	ShadowAtlasSize    int            `toml:"shadow_atlas_size"`
	ShadowDistance     float32        `toml:"shadow_distance"`
	MaxPixelLights     int            `toml:"max_pixel_lights"`
	MaterialQuality    int            `toml:"material_quality"`
	ConstantBuffers    bool           `toml:"constant_buffers"`
	UIScale            float32        `toml:"ui_scale"`
	ProfilerIntervalMS int            `toml:"profiler_interval_ms"`
	Passes             []PassSettings `toml:"passes"`
	Shaders            ShaderSettings `toml:"shaders"`
}

var (
	// ErrInvalidSettings is wrapped by every Validate failure.
	ErrInvalidSettings = errors.New("invalid renderer settings")
)

// Default returns the settings used when no file is given.
//
// Returns:
//   - RendererSettings: defaults with one forward-lit-base pass
func Default() RendererSettings {
	return RendererSettings{
		Workers:            0,
		DrawShadows:        true,
		PointLightShadows:  true,
		ShadowAtlasSize:    2048,
		MaxPixelLights:     1,
		MaterialQuality:    2,
		UIScale:            1,
		ProfilerIntervalMS: 1000,
		Passes: []PassSettings{
			{Type: "forward-lit-base", UnlitBase: "base", LitBase: "litbase", AdditionalLight: "light"},
		},
		Shaders: ShaderSettings{
			Directory:   "shaders",
			Version:     "wgsl",
			GLSLCommand: "glslangValidator -V -S {stage} -o {output} {input}",
			HLSLCommand: "spirv-cross --hlsl --shader-model 50 --output {output} {input}",
		},
	}
}

// Load reads settings from a TOML file, starting from Default.
//
// Parameters:
//   - path: file to read
//
// Returns:
//   - RendererSettings: the decoded and validated settings
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (RendererSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RendererSettings{}, fmt.Errorf("failed to read renderer settings %s: %w", path, err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return RendererSettings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads settings from r, starting from Default. Unknown keys are rejected.
//
// Parameters:
//   - r: TOML input
//
// Returns:
//   - RendererSettings: the decoded and validated settings
//   - error: an error if decoding or validation fails
func Decode(r io.Reader) (RendererSettings, error) {
	s := Default()
	// Passes listed in the file replace the default pass instead of extending it.
	defaultPasses := s.Passes
	s.Passes = nil

	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return RendererSettings{}, fmt.Errorf("failed to decode renderer settings: %w", err)
	}
	if s.Passes == nil {
		s.Passes = defaultPasses
	}
	if err := s.Validate(); err != nil {
		return RendererSettings{}, err
	}
	return s, nil
}

// Encode writes s as TOML.
func (s RendererSettings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Validate checks value ranges and pass types.
func (s RendererSettings) Validate() error {
	if s.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidSettings)
	}
	if s.ShadowAtlasSize <= 0 || s.ShadowAtlasSize&(s.ShadowAtlasSize-1) != 0 {
		return fmt.Errorf("%w: shadow_atlas_size %d is not a power of two", ErrInvalidSettings, s.ShadowAtlasSize)
	}
	if s.MaxPixelLights < 0 || s.MaxPixelLights > 4 {
		return fmt.Errorf("%w: max_pixel_lights %d out of range [0, 4]", ErrInvalidSettings, s.MaxPixelLights)
	}
	if s.UIScale <= 0 {
		return fmt.Errorf("%w: ui_scale must be positive", ErrInvalidSettings)
	}
	for i, p := range s.Passes {
		switch p.Type {
		case "unlit", "forward-lit-base", "forward-unlit-base":
		default:
			return fmt.Errorf("%w: pass %d has unknown type %q", ErrInvalidSettings, i, p.Type)
		}
	}
	switch s.Shaders.Version {
	case "dx11", "gl2", "gl3", "gles2", "gles3", "wgsl":
	default:
		return fmt.Errorf("%w: unknown shader version %q", ErrInvalidSettings, s.Shaders.Version)
	}
	return nil
}
