package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a single GPU buffer write operation at a given byte offset.
type BufferWrite struct {
	Buffer *wgpu.Buffer
	Offset uint64
	Data   []byte
}

// End returns the offset one past the last written byte.
func (w BufferWrite) End() uint64 {
	return w.Offset + uint64(len(w.Data))
}

// AlignUp rounds value up to a multiple of alignment, which must be a power of two.
//
// Parameters:
//   - value: the value to round
//   - alignment: the power of two alignment
//
// Returns:
//   - uint64: the aligned value
func AlignUp(value, alignment uint64) uint64 {
	return common.AlignUp(value, alignment)
}
