package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithLabel sets the debug label for this provider.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BindGroupProviderOption: a function that sets the label for this provider
func WithLabel(label string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.label = label
	}
}

// WithBindGroupLayout sets the GPU layout cached bind groups are created against.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithBindGroupFactory sets the function that creates bind groups on a cache miss.
//
// Parameters:
//   - create: the bind group factory
//
// Returns:
//   - BindGroupProviderOption: a function that sets the factory for this provider
func WithBindGroupFactory(create BindGroupFactory) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.create = create
	}
}

// WithReleaseFunc replaces how evicted bind groups are released.
//
// Parameters:
//   - release: called for every bind group leaving the cache
//
// Returns:
//   - BindGroupProviderOption: a function that sets the release function for this provider
func WithReleaseFunc(release func(*wgpu.BindGroup)) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.release = release
	}
}

// WithMaxCached bounds the number of cached bind groups. The oldest entry is evicted
// when the bound is reached.
//
// Parameters:
//   - n: the maximum cache size, 0 for unbounded
//
// Returns:
//   - BindGroupProviderOption: a function that sets the cache bound for this provider
func WithMaxCached(n int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.maxCached = n
	}
}
