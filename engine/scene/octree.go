package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultOctreeSize is the edge length of the root octant.
	DefaultOctreeSize float32 = 2000
	// DefaultOctreeLevels is the subdivision depth.
	DefaultOctreeLevels = 8
)

// octant is one node of the loose octree. Its culling box is twice the size of its
// nominal box, so a drawable fits a child when it is no larger than the child and its
// center lies inside it.
type octant struct {
	center     mgl32.Vec3
	halfSize   float32
	cullingBox common.BoundingBox
	level      int
	parent     *octant
	children   [8]*octant
	drawables  []Drawable
	numNested  int
}

func newOctant(center mgl32.Vec3, halfSize float32, level int, parent *octant) *octant {
	loose := mgl32.Vec3{halfSize * 2, halfSize * 2, halfSize * 2}
	return &octant{
		center:     center,
		halfSize:   halfSize,
		cullingBox: common.NewBoundingBox(center.Sub(loose), center.Add(loose)),
		level:      level,
		parent:     parent,
	}
}

func (o *octant) childIndex(p mgl32.Vec3) int {
	index := 0
	if p[0] >= o.center[0] {
		index |= 1
	}
	if p[1] >= o.center[1] {
		index |= 2
	}
	if p[2] >= o.center[2] {
		index |= 4
	}
	return index
}

func (o *octant) child(index int) *octant {
	if o.children[index] == nil {
		h := o.halfSize * 0.5
		o.children[index] = newOctant(o.center.Add(childOffset(index, h)), h, o.level+1, o)
	}
	return o.children[index]
}

func childOffset(index int, h float32) mgl32.Vec3 {
	offset := mgl32.Vec3{-h, -h, -h}
	if index&1 != 0 {
		offset[0] = h
	}
	if index&2 != 0 {
		offset[1] = h
	}
	if index&4 != 0 {
		offset[2] = h
	}
	return offset
}

func (o *octant) remove(d Drawable) {
	for i, existing := range o.drawables {
		if existing == d {
			last := len(o.drawables) - 1
			o.drawables[i] = o.drawables[last]
			o.drawables[last] = nil
			o.drawables = o.drawables[:last]
			for p := o; p != nil; p = p.parent {
				p.numNested--
			}
			return
		}
	}
}

func (o *octant) add(d Drawable) {
	o.drawables = append(o.drawables, d)
	for p := o; p != nil; p = p.parent {
		p.numNested++
	}
}

type octreeEntry struct {
	node *octant
	box  common.BoundingBox
}

// Octree is the loose octree spatial index of a scene. Besides spatial queries it owns
// the dense drawable list: every inserted drawable gets the next DrawableIndex and
// removal swaps the last drawable into the freed slot, so indices stay contiguous.
//
// Queries take a read lock and may run concurrently. Insert, Remove and Update must
// not overlap with a frame being rendered.
type Octree struct {
	mu *sync.RWMutex

	root      *octant
	maxLevels int
	all       []Drawable
	entries   map[Drawable]*octreeEntry
}

// NewOctree creates an octree centered on the origin.
//
// Parameters:
//   - size: edge length of the root octant
//   - levels: subdivision depth, at least 1
//
// Returns:
//   - *Octree: the octree
func NewOctree(size float32, levels int) *Octree {
	return &Octree{
		mu:        &sync.RWMutex{},
		root:      newOctant(mgl32.Vec3{}, size*0.5, 0, nil),
		maxLevels: max(levels, 1),
		entries:   make(map[Drawable]*octreeEntry),
	}
}

// Insert adds a drawable and assigns its DrawableIndex. Inserting twice is a no-op.
func (t *Octree) Insert(d Drawable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[d]; ok {
		return
	}
	d.SetDrawableIndex(len(t.all))
	t.all = append(t.all, d)
	box := d.WorldBoundingBox()
	node := t.place(box)
	node.add(d)
	t.entries[d] = &octreeEntry{node: node, box: box}
}

// Remove drops a drawable. The last drawable in the dense list takes over its index.
func (t *Octree) Remove(d Drawable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[d]
	if !ok {
		return
	}
	entry.node.remove(d)
	delete(t.entries, d)

	index := d.DrawableIndex()
	last := len(t.all) - 1
	if index >= 0 && index <= last {
		if index != last {
			moved := t.all[last]
			t.all[index] = moved
			moved.SetDrawableIndex(index)
		}
		t.all[last] = nil
		t.all = t.all[:last]
	}
	d.SetDrawableIndex(-1)
}

// Update reinserts drawables whose world bounding box changed since they were placed.
//
// Returns:
//   - int: the number of drawables moved
func (t *Octree) Update() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	moved := 0
	for _, d := range t.all {
		entry := t.entries[d]
		box := d.WorldBoundingBox()
		if box == entry.box {
			continue
		}
		entry.box = box
		node := t.place(box)
		if node != entry.node {
			entry.node.remove(d)
			node.add(d)
			entry.node = node
		}
		moved++
	}
	return moved
}

// place finds the smallest octant whose loose bounds fit box.
func (t *Octree) place(box common.BoundingBox) *octant {
	node := t.root
	if !box.Defined {
		return node
	}
	center := box.Center()
	size := box.Size()
	boxSize := max(size[0], size[1], size[2])
	for node.level < t.maxLevels-1 && boxSize <= node.halfSize {
		h := node.halfSize * 0.5
		index := node.childIndex(center)
		childCenter := node.center.Add(childOffset(index, h))
		loose := mgl32.Vec3{h * 2, h * 2, h * 2}
		if common.NewBoundingBox(childCenter.Sub(loose), childCenter.Add(loose)).IsInside(box) != common.Inside {
			break
		}
		node = node.child(index)
	}
	return node
}

// AllDrawables returns the dense drawable list indexed by DrawableIndex. The slice is
// owned by the octree and valid until the next Insert or Remove.
//
// Returns:
//   - []Drawable: every drawable
func (t *Octree) AllDrawables() []Drawable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.all
}

// NumDrawables returns the size of the dense drawable list.
func (t *Octree) NumDrawables() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.all)
}

// QueryFrustum appends enabled drawables intersecting frustum that match flags and
// viewMask.
//
// Parameters:
//   - dst: slice to append to, may be nil
//   - frustum: the query volume
//   - flags: drawable classes to include
//   - viewMask: drawables whose view mask does not intersect this are skipped
//
// Returns:
//   - []Drawable: dst with the matches appended
func (t *Octree) QueryFrustum(dst []Drawable, frustum common.Frustum, flags DrawableFlags, viewMask uint32) []Drawable {
	return t.query(dst, frustum.IsInsideBox, flags, viewMask)
}

// QuerySphere appends enabled drawables intersecting sphere that match flags and mask.
func (t *Octree) QuerySphere(dst []Drawable, sphere common.Sphere, flags DrawableFlags, viewMask uint32) []Drawable {
	return t.query(dst, sphere.IsInsideBox, flags, viewMask)
}

// QueryBox appends enabled drawables intersecting box that match flags and mask.
func (t *Octree) QueryBox(dst []Drawable, box common.BoundingBox, flags DrawableFlags, viewMask uint32) []Drawable {
	return t.query(dst, box.IsInside, flags, viewMask)
}

func (t *Octree) query(dst []Drawable, test func(common.BoundingBox) common.Intersection, flags DrawableFlags, viewMask uint32) []Drawable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.collect(dst, t.root, test, flags, viewMask, false)
}

func (t *Octree) collect(dst []Drawable, node *octant, test func(common.BoundingBox) common.Intersection, flags DrawableFlags, viewMask uint32, inside bool) []Drawable {
	if node.numNested == 0 {
		return dst
	}
	if !inside && node != t.root {
		switch test(node.cullingBox) {
		case common.Outside:
			return dst
		case common.Inside:
			inside = true
		}
	}
	for _, d := range node.drawables {
		if d.Flags()&flags == 0 || d.ViewMask()&viewMask == 0 || !d.Enabled() {
			continue
		}
		if inside || test(d.WorldBoundingBox()) != common.Outside {
			dst = append(dst, d)
		}
	}
	for _, c := range node.children {
		if c != nil {
			dst = t.collect(dst, c, test, flags, viewMask, inside)
		}
	}
	return dst
}
