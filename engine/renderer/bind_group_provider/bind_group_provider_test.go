package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 2, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
		{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 1, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}},
	}}
}

func countingFactory(calls *int) BindGroupFactory {
	return func(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
		*calls++
		return &wgpu.BindGroup{}, nil
	}
}

func TestNewBindGroupProviderSortsAndMarksDynamic(t *testing.T) {
	p := NewBindGroupProvider(3, testLayout())

	entries := p.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, uint32(1), entries[1].Binding)
	assert.Equal(t, uint32(2), entries[2].Binding)
	assert.True(t, entries[0].Buffer.HasDynamicOffset)
	assert.Equal(t, []uint32{0}, p.DynamicBindings())
	assert.Equal(t, uint32(3), p.Group())
	assert.Equal(t, "Bind Group 3", p.Label())
}

func TestBindGroupCachesByKey(t *testing.T) {
	calls, builds := 0, 0
	p := NewBindGroupProvider(0, testLayout(),
		WithBindGroupFactory(countingFactory(&calls)),
		WithReleaseFunc(func(*wgpu.BindGroup) {}),
	)
	build := func() []wgpu.BindGroupEntry {
		builds++
		return nil
	}

	a, err := p.BindGroup(1, build)
	require.NoError(t, err)
	b, err := p.BindGroup(1, build)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, builds)

	_, err = p.BindGroup(2, build)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	p.Invalidate()
	assert.Equal(t, 0, p.Len())
}

func TestBindGroupEvictsOldest(t *testing.T) {
	calls := 0
	var released int
	p := NewBindGroupProvider(0, testLayout(),
		WithBindGroupFactory(countingFactory(&calls)),
		WithReleaseFunc(func(*wgpu.BindGroup) { released++ }),
		WithMaxCached(2),
	)
	for key := uint64(1); key <= 3; key++ {
		_, err := p.BindGroup(key, func() []wgpu.BindGroupEntry { return nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 1, released)

	// key 1 was evicted and is created again
	_, err := p.BindGroup(1, func() []wgpu.BindGroupEntry { return nil })
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestBindGroupErrors(t *testing.T) {
	p := NewBindGroupProvider(0, testLayout())
	_, err := p.BindGroup(1, func() []wgpu.BindGroupEntry { return nil })
	assert.Error(t, err)

	p = NewBindGroupProvider(0, testLayout(), WithBindGroupFactory(func(*wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
		return nil, errors.New("boom")
	}))
	_, err = p.BindGroup(1, func() []wgpu.BindGroupEntry { return nil })
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 0, p.Len())
}

func TestMergeLayouts(t *testing.T) {
	vs := map[uint32]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	fs := map[uint32]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
	}

	merged := MergeLayouts(vs, fs)
	require.Len(t, merged, 2)
	g0 := merged[0].Entries
	require.Len(t, g0, 2)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g0[0].Visibility)
	assert.Equal(t, uint32(1), g0[1].Binding)
	assert.Len(t, merged[1].Entries, 1)
}

func TestBufferWriteEnd(t *testing.T) {
	w := BufferWrite{Offset: 256, Data: make([]byte, 12)}
	assert.Equal(t, uint64(268), w.End())
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), AlignUp(0, 256))
	assert.Equal(t, uint64(256), AlignUp(1, 256))
	assert.Equal(t, uint64(256), AlignUp(256, 256))
	assert.Equal(t, uint64(512), AlignUp(257, 256))
}
