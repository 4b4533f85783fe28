package renderer

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// uniformOffsetAlignment is minUniformBufferOffsetAlignment of the WebGPU default limits.
const uniformOffsetAlignment = 256

// arenaKey identifies one packed block: a parameter group version laid out for one
// reflected uniform block.
type arenaKey struct {
	version uint64
	block   *shader.UniformBlock
}

// uniformArena stages every uniform block of a frame in one CPU buffer. Blocks are
// addressed through dynamic offsets, so a parameter group is packed once per layout
// and version no matter how many draws use it.
type uniformArena struct {
	data     []byte
	capacity uint64
	offsets  map[arenaKey]uint32
	overflow bool
}

func newUniformArena(capacity uint64) *uniformArena {
	return &uniformArena{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
		offsets:  make(map[arenaKey]uint32),
	}
}

// Reset empties the arena for a new frame.
func (a *uniformArena) Reset() {
	a.data = a.data[:0]
	a.overflow = false
	clear(a.offsets)
}

// Grow raises the capacity. Only valid between frames.
func (a *uniformArena) Grow(capacity uint64) {
	if capacity <= a.capacity {
		return
	}
	a.capacity = capacity
	a.data = make([]byte, 0, capacity)
	clear(a.offsets)
}

// Pack returns the offset of params laid out as block, packing them on first use for
// this version.
//
// Parameters:
//   - version: the version of the parameter group, bumped on every upload
//   - block: the reflected uniform block layout
//   - params: the parameter values
//
// Returns:
//   - uint32: the dynamic offset of the packed block
//   - bool: false if the arena is full
func (a *uniformArena) Pack(version uint64, block *shader.UniformBlock, params []graphics.ShaderParameterValue) (uint32, bool) {
	key := arenaKey{version: version, block: block}
	if off, ok := a.offsets[key]; ok {
		return off, true
	}

	offset := bind_group_provider.AlignUp(uint64(len(a.data)), uniformOffsetAlignment)
	size := bind_group_provider.AlignUp(block.Size, 16)
	if offset+size > a.capacity {
		a.overflow = true
		return 0, false
	}
	a.data = a.data[:offset+size]
	dst := a.data[offset : offset+size]
	clear(dst)
	writeUniformBlock(dst, block, params)

	a.offsets[key] = uint32(offset)
	return uint32(offset), true
}

// Bytes returns the staged data.
func (a *uniformArena) Bytes() []byte {
	return a.data
}

// Overflowed reports whether a Pack call failed this frame.
func (a *uniformArena) Overflowed() bool {
	return a.overflow
}

// writeUniformBlock copies every parameter whose name matches a member into dst.
// Names match case-insensitively. mat3x3 columns are padded to 16 bytes.
func writeUniformBlock(dst []byte, block *shader.UniformBlock, params []graphics.ShaderParameterValue) {
	for _, m := range block.Members {
		for _, p := range params {
			if !strings.EqualFold(m.Name, p.Name) {
				continue
			}
			out := dst[m.Offset : m.Offset+m.Size]
			if strings.HasPrefix(m.Type, "mat3x3") {
				for col := 0; col < 3 && col*3+2 < len(p.Data); col++ {
					putFloats(out[col*16:], p.Data[col*3:col*3+3])
				}
			} else {
				putFloats(out, p.Data)
			}
			break
		}
	}
}

// putFloats writes as many little-endian floats of src as fit into dst.
func putFloats(dst []byte, src []float32) {
	n := min(len(dst)/4, len(src))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(src[i]))
	}
}
