package graphics

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// ShaderType is the pipeline stage of a shader.
type ShaderType uint8

const (
	VertexShader ShaderType = iota
	PixelShader
)

func (t ShaderType) String() string {
	if t == VertexShader {
		return "VS"
	}
	return "PS"
}

// ShaderVariation is one compiled permutation of a shader program: a resource name
// plus a define string. Variations are interned by the backend, so pointer
// identity equals (type, name, defines) identity.
type ShaderVariation struct {
	id      uint32
	typ     ShaderType
	name    string
	defines string
	source  string
	hash    uint32
}

// NewShaderVariation creates a variation holding already prepared source code.
func NewShaderVariation(typ ShaderType, name, defines, source string) *ShaderVariation {
	hash := common.HashString(name)
	common.CombineHash(&hash, common.HashString(defines))
	common.CombineHash(&hash, uint32(typ))
	return &ShaderVariation{
		id:      nextResourceID(),
		typ:     typ,
		name:    name,
		defines: defines,
		source:  source,
		hash:    hash,
	}
}

func (s *ShaderVariation) ID() uint32       { return s.id }
func (s *ShaderVariation) Type() ShaderType { return s.typ }
func (s *ShaderVariation) Name() string     { return s.name }
func (s *ShaderVariation) Defines() string  { return s.defines }
func (s *ShaderVariation) Source() string   { return s.source }

// Hash returns a hash of type, name and defines.
func (s *ShaderVariation) Hash() uint32 {
	if s == nil {
		return 0
	}
	return s.hash
}

// ShaderParameterGroup partitions shader uniforms by update frequency. Each group
// maps to its own uniform block so it can be re-uploaded independently.
type ShaderParameterGroup uint8

const (
	GroupFrame ShaderParameterGroup = iota
	GroupCamera
	GroupZone
	GroupLight
	GroupMaterial
	GroupObject
	GroupCustom
	MaxShaderParameterGroups
)

func (g ShaderParameterGroup) String() string {
	switch g {
	case GroupFrame:
		return "Frame"
	case GroupCamera:
		return "Camera"
	case GroupZone:
		return "Zone"
	case GroupLight:
		return "Light"
	case GroupMaterial:
		return "Material"
	case GroupObject:
		return "Object"
	default:
		return "Custom"
	}
}

// ShaderParameterValue is one named uniform value. Data is a view into storage
// owned by the caller and is only valid for the duration of the upload call.
type ShaderParameterValue struct {
	Name string
	Data []float32
}
