package renderer

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderParameterDesc locates one parameter inside a ShaderParameterStorage.
type ShaderParameterDesc struct {
	Name string
	// Instance is the instance the parameter belongs to, zero for group parameters.
	Instance uint32
	// Offset is the first vec4 of the value.
	Offset uint32
	// Size is the value size in vec4 units.
	Size uint32
}

// ShaderParameterStorage is an append-only store of shader parameter values packed
// in vec4 units. Matrices are stored column by column, the layout the shaders read.
type ShaderParameterStorage struct {
	data   []float32
	params []ShaderParameterDesc
}

// NewShaderParameterStorage creates an empty storage.
func NewShaderParameterStorage() *ShaderParameterStorage {
	return &ShaderParameterStorage{}
}

// Reset drops every parameter, keeping capacity.
func (s *ShaderParameterStorage) Reset() {
	s.data = s.data[:0]
	s.params = s.params[:0]
}

// NextParameterOffset returns the index the next added parameter will get.
func (s *ShaderParameterStorage) NextParameterOffset() uint32 { return uint32(len(s.params)) }

// NumParameters returns the number of stored parameters.
func (s *ShaderParameterStorage) NumParameters() int { return len(s.params) }

// Parameter returns the descriptor of parameter i.
func (s *ShaderParameterStorage) Parameter(i int) ShaderParameterDesc { return s.params[i] }

// Data returns the value of parameter i. The slice aliases the storage and is only
// valid until the next Reset.
func (s *ShaderParameterStorage) Data(i int) []float32 {
	p := s.params[i]
	from := int(p.Offset) * 4
	return s.data[from : from+int(p.Size)*4]
}

// add reserves size vec4s for a new parameter and returns them zeroed.
func (s *ShaderParameterStorage) add(name string, instance uint32, size int) []float32 {
	offset := len(s.data) / 4
	s.params = append(s.params, ShaderParameterDesc{
		Name:     name,
		Instance: instance,
		Offset:   uint32(offset),
		Size:     uint32(size),
	})
	n := len(s.data)
	s.data = slices.Grow(s.data, size*4)[:n+size*4]
	clear(s.data[n:])
	return s.data[n:]
}

func (s *ShaderParameterStorage) AddFloat(name string, instance uint32, v float32) {
	s.add(name, instance, 1)[0] = v
}

func (s *ShaderParameterStorage) AddVec2(name string, instance uint32, v mgl32.Vec2) {
	copy(s.add(name, instance, 1), v[:])
}

func (s *ShaderParameterStorage) AddVec3(name string, instance uint32, v mgl32.Vec3) {
	copy(s.add(name, instance, 1), v[:])
}

func (s *ShaderParameterStorage) AddVec4(name string, instance uint32, v mgl32.Vec4) {
	copy(s.add(name, instance, 1), v[:])
}

// AddMat3 stores the three columns of m, each padded to a vec4.
func (s *ShaderParameterStorage) AddMat3(name string, instance uint32, m mgl32.Mat3) {
	dst := s.add(name, instance, 3)
	for col := 0; col < 3; col++ {
		copy(dst[col*4:col*4+3], m[col*3:col*3+3])
	}
}

// AddMat3x4 stores the top three rows of an affine transform. Shaders read them as
// the columns of a 4x3 matrix and multiply row vectors by it.
func (s *ShaderParameterStorage) AddMat3x4(name string, instance uint32, m mgl32.Mat4) {
	dst := s.add(name, instance, 3)
	for row := 0; row < 3; row++ {
		r := m.Row(row)
		copy(dst[row*4:row*4+4], r[:])
	}
}

// AddMat4 stores the four columns of m.
func (s *ShaderParameterStorage) AddMat4(name string, instance uint32, m mgl32.Mat4) {
	copy(s.add(name, instance, 4), m[:])
}

// AddMat4Array stores consecutive matrices as one parameter.
func (s *ShaderParameterStorage) AddMat4Array(name string, instance uint32, ms []mgl32.Mat4) {
	dst := s.add(name, instance, 4*len(ms))
	for i, m := range ms {
		copy(dst[i*16:], m[:])
	}
}

// AddVec4Array stores consecutive vec4s as one parameter.
func (s *ShaderParameterStorage) AddVec4Array(name string, instance uint32, vs []mgl32.Vec4) {
	dst := s.add(name, instance, len(vs))
	for i, v := range vs {
		copy(dst[i*4:], v[:])
	}
}

// AddData stores raw floats padded to whole vec4s.
func (s *ShaderParameterStorage) AddData(name string, instance uint32, data []float32) {
	copy(s.add(name, instance, (len(data)+3)/4), data)
}
