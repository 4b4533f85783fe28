package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options. Drawables passed through options are
// queued and added once the octree exists.
type SceneBuilderOption func(s *scene, pending *[]Drawable)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene, _ *[]Drawable) {
		s.active = active
	}
}

// WithDrawables adds initial drawables to the scene.
// Drawables without IDs will be assigned new IDs.
//
// Parameters:
//   - drawables: the drawables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawables(drawables ...Drawable) SceneBuilderOption {
	return func(_ *scene, pending *[]Drawable) {
		*pending = append(*pending, drawables...)
	}
}

// WithOctree sets the size and depth of the spatial index. Defaults to
// DefaultOctreeSize and DefaultOctreeLevels.
//
// Parameters:
//   - size: edge length of the root octant
//   - levels: subdivision depth
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOctree(size float32, levels int) SceneBuilderOption {
	return func(s *scene, _ *[]Drawable) {
		s.octree = NewOctree(size, levels)
	}
}

// WithZones registers initial zones.
//
// Parameters:
//   - zones: the zones
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithZones(zones ...*Zone) SceneBuilderOption {
	return func(s *scene, _ *[]Drawable) {
		s.zones = append(s.zones, zones...)
	}
}

// WithDefaultZone replaces the zone used where no other zone applies.
//
// Parameters:
//   - z: the zone, ignored when nil
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDefaultZone(z *Zone) SceneBuilderOption {
	return func(s *scene, _ *[]Drawable) {
		if z != nil {
			s.defaultZone = z
		}
	}
}
