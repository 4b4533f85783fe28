package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShadowAllocationsNeverOverlap(t *testing.T) {
	a := NewShadowMapAllocator(1024)
	sizes := []common.IntVector2{{X: 512, Y: 512}, {X: 256, Y: 256}, {X: 512, Y: 256}, {X: 1024, Y: 512}, {X: 512, Y: 512}, {X: 768, Y: 768}}

	var maps []light.ShadowMap
	for _, size := range sizes {
		m, err := a.Allocate(size)
		require.NoError(t, err)
		require.True(t, m.IsValid())
		assert.Equal(t, size, m.Region.Size())
		assert.LessOrEqual(t, m.Region.Right, 1024)
		assert.LessOrEqual(t, m.Region.Bottom, 1024)
		maps = append(maps, m)
	}
	for i := range maps {
		for j := i + 1; j < len(maps); j++ {
			if maps[i].Texture == maps[j].Texture {
				assert.False(t, maps[i].Region.Overlaps(maps[j].Region), "allocations %d and %d overlap", i, j)
			}
		}
	}
	assert.Greater(t, a.NumPages(), 1)
}

func TestShadowAllocatorPacksRowByRow(t *testing.T) {
	a := NewShadowMapAllocator(1024)
	first, _ := a.Allocate(common.IntVector2{X: 512, Y: 512})
	second, _ := a.Allocate(common.IntVector2{X: 512, Y: 256})
	third, _ := a.Allocate(common.IntVector2{X: 256, Y: 256})

	assert.Equal(t, common.NewIntRect(0, 0, 512, 512), first.Region)
	assert.Equal(t, common.NewIntRect(512, 0, 512, 256), second.Region)
	assert.Equal(t, common.NewIntRect(0, 512, 256, 256), third.Region)
	assert.Same(t, first.Texture, third.Texture)
	assert.Equal(t, graphics.FormatDepth32F, first.Texture.Format())
}

func TestShadowAllocatorReusesPagesAcrossFrames(t *testing.T) {
	a := NewShadowMapAllocator(0)
	assert.Equal(t, DefaultShadowAtlasSize, a.AtlasSize())

	first, err := a.Allocate(common.IntVector2{X: 2048, Y: 2048})
	require.NoError(t, err)
	a.BeginFrame()
	again, err := a.Allocate(common.IntVector2{X: 512, Y: 512})
	require.NoError(t, err)

	assert.Same(t, first.Texture, again.Texture)
	assert.Equal(t, common.NewIntRect(0, 0, 512, 512), again.Region)
	assert.Equal(t, 1, a.NumPages())
}

func TestShadowAllocatorRejectsOversizedRequests(t *testing.T) {
	a := NewShadowMapAllocator(512)
	_, err := a.Allocate(common.IntVector2{X: 1024, Y: 256})
	assert.ErrorIs(t, err, ErrShadowMapTooLarge)
	_, err = a.Allocate(common.IntVector2{})
	assert.Error(t, err)
	assert.Zero(t, a.NumPages())
}

func TestShadowAllocatorBind(t *testing.T) {
	a := NewShadowMapAllocator(512)
	m, err := a.Allocate(common.IntVector2{X: 256, Y: 256})
	require.NoError(t, err)

	q := NewDrawCommandQueue()
	require.NoError(t, a.Bind(q, m))
	assert.Equal(t, 3, q.NumCommands())

	rec := graphics.NewRecorder()
	q.Execute(rec)
	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Nil(t, calls[0].Color)
	assert.Same(t, m.Texture, calls[0].Depth)
	assert.Equal(t, m.Region, calls[1].Rect)
	assert.Equal(t, graphics.ClearDepth, calls[2].ClearFlags)

	foreign := light.ShadowMap{Texture: graphics.NewRenderTexture("other", 512, 512, graphics.FormatDepth32F)}
	assert.Error(t, a.Bind(q, foreign))
	assert.Error(t, a.Bind(q, light.ShadowMap{}))
}
