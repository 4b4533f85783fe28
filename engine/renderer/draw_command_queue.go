package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
)

type drawOp uint8

const (
	drawOpDraw drawOp = iota
	drawOpRenderTarget
	drawOpViewport
	drawOpClear
	drawOpScissor
)

type groupUpdate struct {
	group graphics.ShaderParameterGroup
	desc  GroupDesc
}

type textureUpdate struct {
	unit    graphics.TextureUnit
	texture *graphics.Texture
}

// drawCommand is one recorded command. Parameter and texture updates issued before
// a draw are stored as ranges into the queue-wide update slices.
type drawCommand struct {
	op drawOp

	pipelineState *graphics.PipelineState
	geometry      *model.Geometry
	groupFrom     int
	groupTo       int
	textureFrom   int
	textureTo     int

	color, depth *graphics.Texture
	rect         common.IntRect
	clearFlags   graphics.ClearFlags
	clearColor   mgl32.Vec4
	clearDepth   float32
	clearStencil uint32
	scissor      bool
}

// DrawCommandQueue records draw calls together with the state changes they need and
// replays them on a Graphics device. Commands are recorded on one goroutine; the
// queue is reused across frames without reallocating.
type DrawCommandQueue struct {
	params   *ParameterAccumulator
	commands []drawCommand
	groups   []groupUpdate
	textures []textureUpdate

	pendingState    *graphics.PipelineState
	pendingGroups   int
	pendingTextures int
	openGroup       bool

	scratch []graphics.ShaderParameterValue
}

// NewDrawCommandQueue creates an empty queue.
func NewDrawCommandQueue() *DrawCommandQueue {
	return &DrawCommandQueue{params: NewParameterAccumulator(NewShaderParameterStorage())}
}

// Reset drops every recorded command and parameter, keeping capacity.
func (q *DrawCommandQueue) Reset() {
	q.params.Reset()
	q.commands = q.commands[:0]
	q.groups = q.groups[:0]
	q.textures = q.textures[:0]
	q.pendingState = nil
	q.pendingGroups = 0
	q.pendingTextures = 0
	q.openGroup = false
}

// NumCommands returns the number of recorded commands, draws included.
func (q *DrawCommandQueue) NumCommands() int { return len(q.commands) }

// NumDraws returns the number of recorded draw calls.
func (q *DrawCommandQueue) NumDraws() int {
	n := 0
	for i := range q.commands {
		if q.commands[i].op == drawOpDraw {
			n++
		}
	}
	return n
}

// NumParameterGroups returns how many parameter groups were committed.
func (q *DrawCommandQueue) NumParameterGroups() int { return len(q.groups) }

// Parameters exposes the accumulator parameter values are written into.
func (q *DrawCommandQueue) Parameters() *ParameterAccumulator { return q.params }

func (q *DrawCommandQueue) SetRenderTarget(color, depth *graphics.Texture) {
	q.commands = append(q.commands, drawCommand{op: drawOpRenderTarget, color: color, depth: depth})
}

func (q *DrawCommandQueue) SetViewport(rect common.IntRect) {
	q.commands = append(q.commands, drawCommand{op: drawOpViewport, rect: rect})
}

func (q *DrawCommandQueue) SetScissor(enabled bool, rect common.IntRect) {
	q.commands = append(q.commands, drawCommand{op: drawOpScissor, scissor: enabled, rect: rect})
}

func (q *DrawCommandQueue) Clear(flags graphics.ClearFlags, color mgl32.Vec4, depth float32, stencil uint32) {
	q.commands = append(q.commands, drawCommand{
		op:           drawOpClear,
		clearFlags:   flags,
		clearColor:   color,
		clearDepth:   depth,
		clearStencil: stencil,
	})
}

// SetPipelineState selects the pipeline state of the following draws.
func (q *DrawCommandQueue) SetPipelineState(state *graphics.PipelineState) {
	q.pendingState = state
}

// BeginShaderParameterGroup starts collecting values for group. Returns false when
// the group was neither marked different nor ever uploaded, in which case the caller
// skips adding values. Panics when another group is still open.
//
// Parameters:
//   - group: the parameter group
//   - different: whether the values changed since the last commit of the group
//
// Returns:
//   - bool: true if values should be added
func (q *DrawCommandQueue) BeginShaderParameterGroup(group graphics.ShaderParameterGroup, different bool) bool {
	if q.openGroup {
		panic("renderer: shader parameter group already open")
	}
	if !different {
		return false
	}
	q.openGroup = true
	return true
}

// AddShaderParameter adds a value to the open group.
func (q *DrawCommandQueue) AddShaderParameter(name string, data []float32) {
	q.params.AddGroupParameter(name, data)
}

// CommitShaderParameterGroup seals the open group. The values are uploaded right
// before the next draw.
func (q *DrawCommandQueue) CommitShaderParameterGroup(group graphics.ShaderParameterGroup) {
	if !q.openGroup {
		panic("renderer: no shader parameter group open")
	}
	q.openGroup = false
	q.groups = append(q.groups, groupUpdate{group: group, desc: q.params.CommitGroup()})
	q.pendingGroups++
}

// SetTexture binds tex to unit for the following draws.
func (q *DrawCommandQueue) SetTexture(unit graphics.TextureUnit, tex *graphics.Texture) {
	q.textures = append(q.textures, textureUpdate{unit: unit, texture: tex})
	q.pendingTextures++
}

// DrawGeometry records a draw of g with the pending state. Empty geometries and
// draws without a pipeline state are dropped, but their pending updates carry over
// to the next draw.
func (q *DrawCommandQueue) DrawGeometry(g *model.Geometry) {
	if g.IsEmpty() || q.pendingState == nil {
		return
	}
	q.commands = append(q.commands, drawCommand{
		op:            drawOpDraw,
		pipelineState: q.pendingState,
		geometry:      g,
		groupFrom:     len(q.groups) - q.pendingGroups,
		groupTo:       len(q.groups),
		textureFrom:   len(q.textures) - q.pendingTextures,
		textureTo:     len(q.textures),
	})
	q.pendingGroups = 0
	q.pendingTextures = 0
}

// Execute replays the queue on gfx. Pipeline states are only set when they change
// between consecutive draws.
//
// Parameters:
//   - gfx: the device to draw on
func (q *DrawCommandQueue) Execute(gfx graphics.Graphics) {
	var current *graphics.PipelineState
	storage := q.params.Storage()

	for i := range q.commands {
		cmd := &q.commands[i]
		switch cmd.op {
		case drawOpRenderTarget:
			gfx.SetRenderTarget(cmd.color, cmd.depth)
			current = nil
		case drawOpViewport:
			gfx.SetViewport(cmd.rect)
		case drawOpScissor:
			gfx.SetScissor(cmd.scissor, cmd.rect)
		case drawOpClear:
			gfx.Clear(cmd.clearFlags, cmd.clearColor, cmd.clearDepth, cmd.clearStencil)
		case drawOpDraw:
			if cmd.pipelineState != current {
				gfx.SetPipelineState(cmd.pipelineState)
				current = cmd.pipelineState
			}
			for _, u := range q.groups[cmd.groupFrom:cmd.groupTo] {
				q.scratch = q.scratch[:0]
				for p := u.desc.ParamOffset; p < u.desc.ParamOffset+u.desc.NumParams; p++ {
					q.scratch = append(q.scratch, graphics.ShaderParameterValue{
						Name: storage.Parameter(int(p)).Name,
						Data: storage.Data(int(p)),
					})
				}
				gfx.SetShaderParameters(u.group, q.scratch)
			}
			for _, t := range q.textures[cmd.textureFrom:cmd.textureTo] {
				gfx.SetTexture(t.unit, t.texture)
			}
			cmd.geometry.Draw(gfx)
		}
	}
}
