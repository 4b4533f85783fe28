package bind_group_provider

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupFactory creates a bind group against a layout. The WebGPU backend passes
// a closure over Device.CreateBindGroup.
type BindGroupFactory func(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// group is the bind group index this provider serves.
	group uint32

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// bindGroupLayout is the GPU bind group layout shared by every cached bind group.
	bindGroupLayout *wgpu.BindGroupLayout
	// entries are the layout entries, sorted by binding.
	entries []wgpu.BindGroupLayoutEntry
	// bindGroups caches created bind groups keyed by the identity of their resources.
	bindGroups map[uint64]*wgpu.BindGroup
	// order records insertion order so the oldest bind group is evicted first.
	order []uint64
	// maxCached bounds the cache, 0 means unbounded.
	maxCached int

	create  BindGroupFactory
	release func(*wgpu.BindGroup)
}

// BindGroupProvider owns one bind group index of a pipeline layout and caches the bind
// groups created against it. Uniform entries use dynamic offsets, so a cached bind
// group only depends on the textures and samplers it references; callers derive the
// cache key from those resources.
//
// Usage pattern:
//  1. The backend creates the layout from the reflected shader bindings
//  2. The backend creates a provider for the layout with NewBindGroupProvider
//  3. On every draw the backend calls BindGroup with a key of the bound resources
//  4. The provider creates the bind group on a cache miss and returns the cached one otherwise
type BindGroupProvider interface {
	// Release releases every cached bind group and the layout.
	Release()

	// Label returns the debug label for this provider.
	// Used for debugging and profiling purposes.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index this provider serves.
	//
	// Returns:
	//   - uint32: the group index
	Group() uint32

	// BindGroupLayout returns the GPU layout of the group.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil if none was supplied
	BindGroupLayout() *wgpu.BindGroupLayout

	// Entries returns the layout entries sorted by binding.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutEntry: the layout entries
	Entries() []wgpu.BindGroupLayoutEntry

	// DynamicBindings returns the bindings that take a dynamic offset, in the order
	// SetBindGroup expects the offsets.
	//
	// Returns:
	//   - []uint32: the binding numbers
	DynamicBindings() []uint32

	// BindGroup returns the bind group cached under key, creating it from the entries
	// returned by build on a miss.
	//
	// Parameters:
	//   - key: the identity of the bound resources
	//   - build: returns the bind group entries, only called on a cache miss
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	//   - error: error if creation fails
	BindGroup(key uint64, build func() []wgpu.BindGroupEntry) (*wgpu.BindGroup, error)

	// Invalidate releases every cached bind group, e.g. after a referenced buffer was
	// recreated.
	Invalidate()

	// Len returns the number of cached bind groups.
	//
	// Returns:
	//   - int: the cache size
	Len() int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for one bind group index. Uniform buffer
// entries of the layout are switched to dynamic offsets.
//
// Parameters:
//   - group: the bind group index
//   - descriptor: the layout descriptor, entries in any order
//   - options: functional options to configure the provider
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(group uint32, descriptor wgpu.BindGroupLayoutDescriptor, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:      fmt.Sprintf("Bind Group %d", group),
		group:      group,
		entries:    sortedEntries(descriptor.Entries),
		bindGroups: make(map[uint64]*wgpu.BindGroup),
		release:    func(bg *wgpu.BindGroup) { bg.Release() },
	}
	for i := range p.entries {
		if p.entries[i].Buffer.Type == wgpu.BufferBindingTypeUniform {
			p.entries[i].Buffer.HasDynamicOffset = true
		}
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	p.Invalidate()
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() uint32 {
	return p.group
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupLayoutEntry {
	return p.entries
}

func (p *bindGroupProvider) DynamicBindings() []uint32 {
	var out []uint32
	for _, e := range p.entries {
		if e.Buffer.HasDynamicOffset {
			out = append(out, e.Binding)
		}
	}
	return out
}

func (p *bindGroupProvider) BindGroup(key uint64, build func() []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	if bg, ok := p.bindGroups[key]; ok {
		return bg, nil
	}
	if p.create == nil {
		return nil, fmt.Errorf("%s: no bind group factory", p.label)
	}

	bg, err := p.create(&wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.bindGroupLayout,
		Entries: build(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create bind group: %w", p.label, err)
	}

	if p.maxCached > 0 && len(p.order) >= p.maxCached {
		oldest := p.order[0]
		p.order = p.order[1:]
		if old := p.bindGroups[oldest]; old != nil {
			p.release(old)
		}
		delete(p.bindGroups, oldest)
	}
	p.bindGroups[key] = bg
	p.order = append(p.order, key)
	return bg, nil
}

func (p *bindGroupProvider) Invalidate() {
	for key, bg := range p.bindGroups {
		if bg != nil {
			p.release(bg)
		}
		delete(p.bindGroups, key)
	}
	p.order = p.order[:0]
}

func (p *bindGroupProvider) Len() int {
	return len(p.bindGroups)
}

// sortedEntries copies entries sorted by binding.
func sortedEntries(entries []wgpu.BindGroupLayoutEntry) []wgpu.BindGroupLayoutEntry {
	out := make([]wgpu.BindGroupLayoutEntry, len(entries))
	copy(out, entries)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Binding < out[j-1].Binding; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// MergeLayouts merges the per-group layout descriptors of two shader stages. A binding
// present in both stages gets the union of their visibilities.
//
// Parameters:
//   - a: the layouts of the first stage, keyed by group index
//   - b: the layouts of the second stage, keyed by group index
//
// Returns:
//   - map[uint32]wgpu.BindGroupLayoutDescriptor: the merged layouts, entries sorted by binding
func MergeLayouts(a, b map[uint32]wgpu.BindGroupLayoutDescriptor) map[uint32]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[uint32]wgpu.BindGroupLayoutDescriptor, len(a)+len(b))
	for g, desc := range a {
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: sortedEntries(desc.Entries)}
	}
	for g, desc := range b {
		existing, ok := merged[g]
		if !ok {
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: sortedEntries(desc.Entries)}
			continue
		}
		for _, e := range desc.Entries {
			found := false
			for i := range existing.Entries {
				if existing.Entries[i].Binding == e.Binding {
					existing.Entries[i].Visibility |= e.Visibility
					found = true
					break
				}
			}
			if !found {
				existing.Entries = append(existing.Entries, e)
			}
		}
		existing.Entries = sortedEntries(existing.Entries)
		merged[g] = existing
	}
	return merged
}
