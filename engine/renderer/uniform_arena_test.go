package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatAt(b []byte, off uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func objectBlock() *shader.UniformBlock {
	return &shader.UniformBlock{
		Name: "object",
		Size: 112,
		Members: []shader.UniformMember{
			{Name: "model", Type: "mat4x4<f32>", Offset: 0, Size: 64},
			{Name: "normalMatrix", Type: "mat3x3<f32>", Offset: 64, Size: 48},
		},
	}
}

func TestUniformArenaPacksOncePerVersion(t *testing.T) {
	a := newUniformArena(4096)
	block := objectBlock()
	params := []graphics.ShaderParameterValue{{Name: "Model", Data: []float32{1, 2, 3, 4}}}

	off1, ok := a.Pack(1, block, params)
	require.True(t, ok)
	off2, ok := a.Pack(1, block, params)
	require.True(t, ok)
	assert.Equal(t, off1, off2)

	off3, ok := a.Pack(2, block, params)
	require.True(t, ok)
	assert.Equal(t, uint32(256), off3)
	assert.Equal(t, float32(3), floatAt(a.Bytes(), 8))
}

func TestUniformArenaPadsMat3Columns(t *testing.T) {
	a := newUniformArena(4096)
	block := objectBlock()
	params := []graphics.ShaderParameterValue{{Name: "NormalMatrix", Data: []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}}}

	off, ok := a.Pack(1, block, params)
	require.True(t, ok)
	b := a.Bytes()[off:]
	assert.Equal(t, float32(1), floatAt(b, 64))
	assert.Equal(t, float32(3), floatAt(b, 72))
	assert.Equal(t, float32(0), floatAt(b, 76))
	assert.Equal(t, float32(4), floatAt(b, 80))
	assert.Equal(t, float32(9), floatAt(b, 104))
}

func TestUniformArenaOverflow(t *testing.T) {
	a := newUniformArena(300)
	block := objectBlock()

	_, ok := a.Pack(1, block, nil)
	require.True(t, ok)
	_, ok = a.Pack(2, block, nil)
	assert.False(t, ok)
	assert.True(t, a.Overflowed())

	a.Reset()
	assert.False(t, a.Overflowed())
	assert.Empty(t, a.Bytes())

	a.Grow(1024)
	_, ok = a.Pack(1, block, nil)
	require.True(t, ok)
	_, ok = a.Pack(2, block, nil)
	assert.True(t, ok)
}
