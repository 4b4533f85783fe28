package shader

import (
	"fmt"
	"strings"
)

// ShaderVersion is the shading language flavour sources are generated for.
type ShaderVersion uint8

const (
	// DX11 sources are written as GLSL 450 and converted to HLSL shader model 5.
	DX11 ShaderVersion = iota
	GL2
	GL3
	GLES2
	GLES3
	// WGSL sources are used by the WebGPU backend. Conditionals are evaluated by the
	// pre-processor because WGSL has none.
	WGSL
)

var versionNames = [...]string{
	DX11:  "DX11",
	GL2:   "GL2",
	GL3:   "GL3",
	GLES2: "GLES2",
	GLES3: "GLES3",
	WGSL:  "WGSL",
}

func (v ShaderVersion) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	return fmt.Sprintf("ShaderVersion(%d)", v)
}

// ParseShaderVersion parses a version name such as "GL3", case-insensitively.
//
// Parameters:
//   - s: the version name
//
// Returns:
//   - ShaderVersion: the version
//   - error: error if the name is unknown
func ParseShaderVersion(s string) (ShaderVersion, error) {
	for i, name := range versionNames {
		if strings.EqualFold(s, name) {
			return ShaderVersion(i), nil
		}
	}
	return 0, fmt.Errorf("shader: unknown shader version %q", s)
}

// Extension returns the source file extension, including the dot.
func (v ShaderVersion) Extension() string {
	if v == WGSL {
		return ".wgsl"
	}
	return ".glsl"
}

// header returns the #version line sources start with, empty for WGSL.
func (v ShaderVersion) header() string {
	switch v {
	case DX11:
		return "#version 450"
	case GL2:
		return "#version 120"
	case GL3:
		return "#version 150"
	case GLES2:
		return "#version 100"
	case GLES3:
		return "#version 300 es"
	default:
		return ""
	}
}

// Define is one pre-processor define. An empty Value defines the name only.
type Define struct {
	Name  string
	Value string
}

// ShaderDefines is an ordered list of defines. Order is kept so equal define
// strings produce identical sources.
type ShaderDefines []Define

// ParseDefines parses a space-separated define list such as "SKINNED NUMLIGHTS=4".
// A repeated name keeps its first position and takes the last value.
//
// Parameters:
//   - s: the define list
//
// Returns:
//   - ShaderDefines: the parsed defines
func ParseDefines(s string) ShaderDefines {
	var defines ShaderDefines
	for _, field := range strings.Fields(s) {
		name, value, _ := strings.Cut(field, "=")
		if name == "" {
			continue
		}
		defines = defines.With(name, value)
	}
	return defines
}

// With returns the defines with name set to value, replacing an existing value.
func (d ShaderDefines) With(name, value string) ShaderDefines {
	for i := range d {
		if d[i].Name == name {
			d[i].Value = value
			return d
		}
	}
	return append(d, Define{Name: name, Value: value})
}

// Has reports whether name is defined.
func (d ShaderDefines) Has(name string) bool {
	_, ok := d.Value(name)
	return ok
}

// Value returns the value of name and whether it is defined.
func (d ShaderDefines) Value(name string) (string, bool) {
	for _, def := range d {
		if def.Name == name {
			return def.Value, true
		}
	}
	return "", false
}

// String formats the defines the way ParseDefines reads them.
func (d ShaderDefines) String() string {
	var sb strings.Builder
	for i, def := range d {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(def.Name)
		if def.Value != "" {
			sb.WriteByte('=')
			sb.WriteString(def.Value)
		}
	}
	return sb.String()
}
