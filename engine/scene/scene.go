package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Updatable is implemented by drawables that animate themselves once per scene update.
type Updatable interface {
	Update(timeStep float32)
}

// Scene owns a set of drawables, the octree indexing them, the zones and the camera
// views render from. Scenes can be hot-swapped via the Active flag to switch between
// levels. Thread-safe for concurrent access, but Update must not overlap with a frame
// being rendered.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Octree returns the spatial index of the scene.
	Octree() *Octree

	// Add registers a drawable, assigning an ID if it has none, and inserts it into the
	// octree.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - uint64: the drawable ID
	Add(d Drawable) uint64

	// Get returns the drawable with the given ID, or nil.
	//
	// Parameters:
	//   - id: the drawable ID
	//
	// Returns:
	//   - Drawable: the drawable or nil
	Get(id uint64) Drawable

	// Remove unregisters a drawable. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the drawable ID
	Remove(id uint64)

	// Clear removes every drawable.
	Clear()

	// Count returns the number of registered drawables.
	Count() int

	// Lights returns every registered drawable flagged as a light.
	//
	// Returns:
	//   - []Drawable: the lights
	Lights() []Drawable

	// AddZone registers a zone.
	//
	// Parameters:
	//   - z: the zone
	AddZone(z *Zone)

	// RemoveZone unregisters a zone.
	//
	// Parameters:
	//   - z: the zone
	RemoveZone(z *Zone)

	// DefaultZone returns the zone used where no other zone applies.
	DefaultZone() *Zone

	// ZoneAt returns the highest priority zone containing point whose zone mask
	// intersects mask, or the default zone.
	//
	// Parameters:
	//   - point: world position
	//   - mask: zone mask of the querying drawable
	//
	// Returns:
	//   - *Zone: the zone
	ZoneAt(point mgl32.Vec3, mask uint32) *Zone

	// AmbientColor returns the ambient color of the default zone.
	AmbientColor() [3]float32

	// SetAmbientColor sets the ambient color of the default zone.
	//
	// Parameters:
	//   - color: RGB ambient color
	SetAmbientColor(color [3]float32)

	// Update advances every Updatable drawable by timeStep, reinserts moved drawables
	// into the octree and reassigns zones.
	//
	// Parameters:
	//   - timeStep: seconds since the last update
	Update(timeStep float32)
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]Drawable
	nextID   uint64

	cam         camera.Camera
	octree      *Octree
	zones       []*Zone
	defaultZone *Zone
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera. The camera is required and
// NewScene panics if it is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		cam:         cam,
		registry:    make(map[uint64]Drawable),
		nextID:      1,
		defaultZone: NewDefaultZone(),
	}

	var pending []Drawable
	for _, option := range options {
		option(s, &pending)
	}
	if s.octree == nil {
		s.octree = NewOctree(DefaultOctreeSize, DefaultOctreeLevels)
	}
	for _, d := range pending {
		s.Add(d)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Octree() *Octree {
	return s.octree
}

func (s *scene) Add(d Drawable) uint64 {
	s.mu.Lock()
	if d.ID() == 0 {
		d.SetID(s.nextID)
		s.nextID++
	} else if d.ID() >= s.nextID {
		s.nextID = d.ID() + 1
	}
	s.registry[d.ID()] = d
	d.SetZone(s.zoneAt(d.WorldBoundingBox().Center(), d.ZoneMask()))
	s.mu.Unlock()

	s.octree.Insert(d)
	return d.ID()
}

func (s *scene) Get(id uint64) Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	d, exists := s.registry[id]
	if exists {
		delete(s.registry, id)
	}
	s.mu.Unlock()

	if exists {
		s.octree.Remove(d)
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	drawables := make([]Drawable, 0, len(s.registry))
	for _, d := range s.registry {
		drawables = append(drawables, d)
	}
	s.registry = make(map[uint64]Drawable)
	s.mu.Unlock()

	for _, d := range drawables {
		s.octree.Remove(d)
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Lights() []Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lights []Drawable
	for _, d := range s.registry {
		if d.Flags()&DrawableLight != 0 {
			lights = append(lights, d)
		}
	}
	return lights
}

func (s *scene) AddZone(z *Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append(s.zones, z)
}

func (s *scene) RemoveZone(z *Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.zones {
		if existing == z {
			s.zones = append(s.zones[:i], s.zones[i+1:]...)
			return
		}
	}
}

func (s *scene) DefaultZone() *Zone {
	return s.defaultZone
}

func (s *scene) ZoneAt(point mgl32.Vec3, mask uint32) *Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoneAt(point, mask)
}

func (s *scene) zoneAt(point mgl32.Vec3, mask uint32) *Zone {
	var best *Zone
	for _, z := range s.zones {
		if z.ZoneMask&mask == 0 || !z.Contains(point) {
			continue
		}
		if best == nil || z.Priority > best.Priority {
			best = z
		}
	}
	if best == nil {
		return s.defaultZone
	}
	return best
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.defaultZone.AmbientColor
	return [3]float32{c[0], c[1], c[2]}
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultZone.AmbientColor = mgl32.Vec4{color[0], color[1], color[2], 1}
}

func (s *scene) Update(timeStep float32) {
	for _, d := range s.octree.AllDrawables() {
		if u, ok := d.(Updatable); ok && d.Enabled() {
			u.Update(timeStep)
		}
	}
	s.octree.Update()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.octree.AllDrawables() {
		d.SetZone(s.zoneAt(d.WorldBoundingBox().Center(), d.ZoneMask()))
	}
}
