package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformMember is one field of a uniform block.
type UniformMember struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// UniformBlock is a var<uniform> binding. Block variables named after a parameter
// group ("frame", "camera", "zone", "light", "material", "object", "custom") receive
// that group's parameters, matched to members by name.
type UniformBlock struct {
	Name    string
	Group   uint32
	Binding uint32
	Type    string
	Size    uint64
	Members []UniformMember
}

// ResourceBinding is a texture or sampler binding.
type ResourceBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Type    string
}

// VertexInput is one @location field of the vertex input struct.
type VertexInput struct {
	Name     string
	Location uint32
	Format   wgpu.VertexFormat
}

// Reflection describes the interface of one WGSL entry point.
type Reflection struct {
	Stage        graphics.ShaderType
	EntryPoint   string
	Uniforms     []UniformBlock
	Textures     []ResourceBinding
	Samplers     []ResourceBinding
	VertexInputs []VertexInput
	// BindGroupLayouts holds one descriptor per group index, entries sorted by binding.
	BindGroupLayouts map[uint32]wgpu.BindGroupLayoutDescriptor
}

// typeLayout is the WGSL size and alignment of a type.
type typeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

var (
	structBlockRegex   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex      = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex       = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldRegex         = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)
	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)\s*\(`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	bindingDeclRegex   = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

var vertexFormats = map[string]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

// primitiveLayouts follows the WGSL alignment and size table.
var primitiveLayouts = map[string]typeLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4}, "bool": {4, 4},
	"vec2f": {8, 8}, "vec2<f32>": {8, 8}, "vec2i": {8, 8}, "vec2<i32>": {8, 8}, "vec2u": {8, 8}, "vec2<u32>": {8, 8},
	"vec3f": {12, 16}, "vec3<f32>": {12, 16}, "vec3i": {12, 16}, "vec3<i32>": {12, 16}, "vec3u": {12, 16}, "vec3<u32>": {12, 16},
	"vec4f": {16, 16}, "vec4<f32>": {16, 16}, "vec4i": {16, 16}, "vec4<i32>": {16, 16}, "vec4u": {16, 16}, "vec4<u32>": {16, 16},
	"mat3x3f": {48, 16}, "mat3x3<f32>": {48, 16},
	"mat3x4f": {48, 16}, "mat3x4<f32>": {48, 16},
	"mat4x3f": {64, 16}, "mat4x3<f32>": {64, 16},
	"mat4x4f": {64, 16}, "mat4x4<f32>": {64, 16},
}

var sampledTextureDims = map[string]wgpu.TextureViewDimension{
	"texture_2d":             wgpu.TextureViewDimension2D,
	"texture_2d_array":       wgpu.TextureViewDimension2DArray,
	"texture_3d":             wgpu.TextureViewDimension3D,
	"texture_cube":           wgpu.TextureViewDimensionCube,
	"texture_depth_2d":       wgpu.TextureViewDimension2D,
	"texture_depth_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_depth_cube":     wgpu.TextureViewDimensionCube,
}

// Reflect parses the bindings, uniform layouts and vertex inputs of a pre-processed
// WGSL source for one stage.
//
// Parameters:
//   - source: the WGSL source
//   - stage: the stage whose entry point is reflected
//
// Returns:
//   - *Reflection: the reflected interface
//   - error: error if the stage has no entry point or a uniform type cannot be laid out
func Reflect(source string, stage graphics.ShaderType) (*Reflection, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	layouts := computeStructLayouts(structs)

	r := &Reflection{Stage: stage, BindGroupLayouts: make(map[uint32]wgpu.BindGroupLayoutDescriptor)}
	visibility := wgpu.ShaderStageFragment
	if stage == graphics.VertexShader {
		visibility = wgpu.ShaderStageVertex
		m := vertexEntryRegex.FindStringSubmatchIndex(cleaned)
		if m == nil {
			return nil, fmt.Errorf("shader: no @vertex entry point")
		}
		r.EntryPoint = cleaned[m[2]:m[3]]
		r.VertexInputs = vertexInputs(parameterList(cleaned[m[1]:]), structs)
	} else {
		m := fragmentEntryRegex.FindStringSubmatch(cleaned)
		if m == nil {
			return nil, fmt.Errorf("shader: no @fragment entry point")
		}
		r.EntryPoint = m[1]
	}

	entries := make(map[uint32][]wgpu.BindGroupLayoutEntry)
	for _, m := range bindingDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		addressSpace, name, typeName := strings.TrimSpace(m[3]), m[4], strings.TrimSpace(m[5])
		rb := ResourceBinding{Name: name, Group: uint32(group), Binding: uint32(binding), Type: typeName}
		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}

		switch {
		case addressSpace == "uniform":
			block, err := uniformBlock(rb, structs, layouts)
			if err != nil {
				return nil, err
			}
			r.Uniforms = append(r.Uniforms, block)
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = block.Size
		case addressSpace != "":
			return nil, fmt.Errorf("shader: %s: unsupported address space %q", name, addressSpace)
		case typeName == "sampler":
			r.Samplers = append(r.Samplers, rb)
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		case typeName == "sampler_comparison":
			r.Samplers = append(r.Samplers, rb)
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		case strings.HasPrefix(typeName, "texture_"):
			r.Textures = append(r.Textures, rb)
			base, _, _ := strings.Cut(typeName, "<")
			entry.Texture.ViewDimension = sampledTextureDims[base]
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			if strings.HasPrefix(base, "texture_depth_") {
				entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			}
		default:
			return nil, fmt.Errorf("shader: %s: unsupported binding type %q", name, typeName)
		}
		entries[uint32(group)] = append(entries[uint32(group)], entry)
	}
	for g, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		r.BindGroupLayouts[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return r, nil
}

// UniformBlock returns the uniform block bound to variable name.
func (r *Reflection) UniformBlock(name string) (UniformBlock, bool) {
	for _, b := range r.Uniforms {
		if b.Name == name {
			return b, true
		}
	}
	return UniformBlock{}, false
}

// ParameterGroupOf maps a uniform block variable name to its parameter group.
func ParameterGroupOf(blockName string) (graphics.ShaderParameterGroup, bool) {
	for g := graphics.GroupFrame; g < graphics.MaxShaderParameterGroups; g++ {
		if strings.EqualFold(g.String(), blockName) {
			return g, true
		}
	}
	return 0, false
}

// TextureUnitOf maps a texture variable name such as "diffuseMap" to its unit.
func TextureUnitOf(name string) (graphics.TextureUnit, bool) {
	switch name {
	case "diffuseMap":
		return graphics.TextureDiffuse, true
	case "normalMap":
		return graphics.TextureNormal, true
	case "specularMap":
		return graphics.TextureSpecular, true
	case "emissiveMap":
		return graphics.TextureEmissive, true
	case "environmentMap":
		return graphics.TextureEnvironment, true
	case "lightRampMap":
		return graphics.TextureLightRamp, true
	case "lightShapeMap":
		return graphics.TextureLightShape, true
	case "shadowMap":
		return graphics.TextureShadowMap, true
	}
	return 0, false
}

// SemanticOf maps a vertex input field name such as "texcoord1" to its semantic and
// semantic index.
func SemanticOf(name string) (graphics.VertexElementSemantic, uint8, bool) {
	base := strings.TrimRight(name, "0123456789")
	var index uint8
	if digits := name[len(base):]; digits != "" {
		n, err := strconv.ParseUint(digits, 10, 8)
		if err != nil {
			return 0, 0, false
		}
		index = uint8(n)
	}
	switch base {
	case "position":
		return graphics.SemanticPosition, index, true
	case "normal":
		return graphics.SemanticNormal, index, true
	case "binormal":
		return graphics.SemanticBinormal, index, true
	case "tangent":
		return graphics.SemanticTangent, index, true
	case "texcoord":
		return graphics.SemanticTexCoord, index, true
	case "color":
		return graphics.SemanticColor, index, true
	case "blendWeights":
		return graphics.SemanticBlendWeights, index, true
	case "blendIndices":
		return graphics.SemanticBlendIndices, index, true
	case "objectIndex":
		return graphics.SemanticObjectIndex, index, true
	}
	return 0, 0, false
}

// parameterList returns the text up to the parenthesis closing an already opened
// parameter list.
func parameterList(s string) string {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return s
}

// vertexInputs resolves the @location fields of the vertex entry point, either
// declared directly as parameters or through an input struct.
func vertexInputs(params string, structs []parsedStruct) []VertexInput {
	var inputs []VertexInput
	for _, f := range parseFields(params) {
		if f.isBuiltin {
			continue
		}
		if f.location >= 0 {
			if vf, ok := vertexFormats[f.typeName]; ok {
				inputs = append(inputs, VertexInput{Name: f.name, Location: uint32(f.location), Format: vf.format})
			}
			continue
		}
		for _, s := range structs {
			if s.name != f.typeName {
				continue
			}
			for _, sf := range s.fields {
				if sf.location < 0 || sf.isBuiltin {
					continue
				}
				if vf, ok := vertexFormats[sf.typeName]; ok {
					inputs = append(inputs, VertexInput{Name: sf.name, Location: uint32(sf.location), Format: vf.format})
				}
			}
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs
}

func uniformBlock(rb ResourceBinding, structs []parsedStruct, layouts map[string]typeLayout) (UniformBlock, error) {
	block := UniformBlock{Name: rb.Name, Group: rb.Group, Binding: rb.Binding, Type: rb.Type}
	for _, s := range structs {
		if s.name != rb.Type {
			continue
		}
		layout, ok := layouts[s.name]
		if !ok {
			return UniformBlock{}, fmt.Errorf("shader: %s: cannot lay out struct %s", rb.Name, s.name)
		}
		block.Size = layout.size
		var offset uint64
		for _, f := range s.fields {
			fl, _ := resolveLayout(f.typeName, layouts)
			offset = common.AlignUp(offset, fl.align)
			block.Members = append(block.Members, UniformMember{Name: f.name, Type: f.typeName, Offset: offset, Size: fl.size})
			offset += fl.size
		}
		return block, nil
	}
	if l, ok := primitiveLayouts[rb.Type]; ok {
		block.Size = common.AlignUp(l.size, 16)
		block.Members = []UniformMember{{Name: rb.Name, Type: rb.Type, Size: l.size}}
		return block, nil
	}
	return UniformBlock{}, fmt.Errorf("shader: %s: unknown uniform type %s", rb.Name, rb.Type)
}

// resolveLayout handles primitives, known structs and fixed-size arrays. Uniform
// array elements are padded to 16 bytes.
func resolveLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return typeLayout{}, false
	}
	elem, countStr, ok := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	if !ok {
		return typeLayout{}, false
	}
	el, ok := resolveLayout(strings.TrimSpace(elem), known)
	if !ok {
		return typeLayout{}, false
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	align := max(el.align, 16)
	return typeLayout{size: count * common.AlignUp(el.size, align), align: align}, true
}

// computeStructLayouts resolves struct layouts in dependency order; structs that
// reference unknown types are left out.
func computeStructLayouts(structs []parsedStruct) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, s := range remaining {
			if l, ok := structLayout(s, resolved); ok {
				resolved[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

func structLayout(s parsedStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range s.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := resolveLayout(f.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = common.AlignUp(offset, fl.align) + fl.size
		maxAlign = max(maxAlign, fl.align)
	}
	return typeLayout{size: common.AlignUp(offset, maxAlign), align: maxAlign}, true
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{name: m[1], fields: parseFields(m[2])})
	}
	return structs
}

func parseFields(body string) []parsedField {
	var fields []parsedField
	for _, part := range splitAtTopLevelCommas(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field := parsedField{location: -1, isBuiltin: builtinRegex.MatchString(part)}
		if m := locationRegex.FindStringSubmatch(part); m != nil {
			field.location, _ = strconv.Atoi(m[1])
		}
		m := fieldRegex.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		field.name, field.typeName = m[1], strings.TrimSpace(m[2])
		fields = append(fields, field)
	}
	return fields
}

// splitAtTopLevelCommas splits on commas outside angle brackets, so array<T, N>
// stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
