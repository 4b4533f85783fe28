package renderer

import "github.com/go-gl/mathgl/mgl32"

// GroupDesc locates one committed parameter group: its own parameters followed by
// the instances added to it.
type GroupDesc struct {
	ParamOffset    uint32
	NumParams      uint32
	InstanceOffset uint32
	NumInstances   uint32
}

// InstanceDesc locates the parameters of one instance.
type InstanceDesc struct {
	ParamOffset uint32
	NumParams   uint32
}

// ParameterAccumulator builds parameter groups on top of a ShaderParameterStorage.
// Group parameters are added before the instances of the group; every commit seals
// a descriptor and restarts at the next storage position.
type ParameterAccumulator struct {
	storage   *ShaderParameterStorage
	instances []InstanceDesc

	groupOffset    uint32
	groupParams    uint32
	instanceStart  uint32
	instanceOffset uint32
	instanceParams uint32
}

// NewParameterAccumulator creates an accumulator writing into storage. Panics if
// storage is nil.
//
// Parameters:
//   - storage: the backing storage
//
// Returns:
//   - *ParameterAccumulator: the new accumulator
func NewParameterAccumulator(storage *ShaderParameterStorage) *ParameterAccumulator {
	if storage == nil {
		panic("renderer: parameter storage is nil")
	}
	return &ParameterAccumulator{storage: storage}
}

// Storage returns the backing storage.
func (a *ParameterAccumulator) Storage() *ShaderParameterStorage { return a.storage }

// Reset clears the storage and every descriptor, keeping capacity.
func (a *ParameterAccumulator) Reset() {
	a.storage.Reset()
	a.instances = a.instances[:0]
	a.restartGroup()
}

func (a *ParameterAccumulator) restartGroup() {
	next := a.storage.NextParameterOffset()
	a.groupOffset = next
	a.groupParams = 0
	a.instanceStart = uint32(len(a.instances))
	a.instanceOffset = next
	a.instanceParams = 0
}

// AddGroupParameter adds a parameter shared by the whole group. Panics when
// instances were already added to the group.
//
// Parameters:
//   - name: the parameter name
//   - data: the value, padded to whole vec4s
func (a *ParameterAccumulator) AddGroupParameter(name string, data []float32) {
	if a.instanceParams > 0 || uint32(len(a.instances)) > a.instanceStart {
		panic("renderer: group parameter added after instance parameters")
	}
	a.storage.AddData(name, 0, data)
	a.groupParams++
	a.instanceOffset = a.storage.NextParameterOffset()
}

// AddGroupVec4 adds a vec4 group parameter.
func (a *ParameterAccumulator) AddGroupVec4(name string, v mgl32.Vec4) {
	a.AddGroupParameter(name, v[:])
}

// AddGroupMat4 adds a matrix group parameter.
func (a *ParameterAccumulator) AddGroupMat4(name string, m mgl32.Mat4) {
	a.AddGroupParameter(name, m[:])
}

// AddInstanceParameter adds a parameter to the instance being built.
//
// Parameters:
//   - name: the parameter name
//   - data: the value, padded to whole vec4s
func (a *ParameterAccumulator) AddInstanceParameter(name string, data []float32) {
	instance := uint32(len(a.instances)) - a.instanceStart
	a.storage.AddData(name, instance, data)
	a.instanceParams++
}

// CommitInstance seals the instance being built.
//
// Returns:
//   - InstanceDesc: the sealed instance
func (a *ParameterAccumulator) CommitInstance() InstanceDesc {
	desc := InstanceDesc{ParamOffset: a.instanceOffset, NumParams: a.instanceParams}
	a.instances = append(a.instances, desc)
	a.instanceOffset = a.storage.NextParameterOffset()
	a.instanceParams = 0
	return desc
}

// CommitGroup seals the group and starts the next one.
//
// Returns:
//   - GroupDesc: the sealed group
func (a *ParameterAccumulator) CommitGroup() GroupDesc {
	desc := GroupDesc{
		ParamOffset:    a.groupOffset,
		NumParams:      a.groupParams,
		InstanceOffset: a.instanceStart,
		NumInstances:   uint32(len(a.instances)) - a.instanceStart,
	}
	a.restartGroup()
	return desc
}

// Instance returns instance descriptor i.
func (a *ParameterAccumulator) Instance(i uint32) InstanceDesc { return a.instances[i] }
