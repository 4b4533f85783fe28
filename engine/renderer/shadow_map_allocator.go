package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultShadowAtlasSize is the edge length of a shadow atlas page.
const DefaultShadowAtlasSize = 2048

// ErrShadowMapTooLarge is returned for shadow map requests that cannot fit one atlas page.
var ErrShadowMapTooLarge = errors.New("renderer: shadow map does not fit an atlas page")

type atlasPage struct {
	texture   *graphics.Texture
	x, y      int
	rowHeight int
}

func (p *atlasPage) reset() {
	p.x, p.y, p.rowHeight = 0, 0, 0
}

// allocate bump-packs a w x h region left to right, starting a new row when the
// current one is full.
func (p *atlasPage) allocate(w, h, size int) (common.IntRect, bool) {
	if p.x+w > size {
		p.x = 0
		p.y += p.rowHeight
		p.rowHeight = 0
	}
	if p.y+h > size {
		return common.IntRect{}, false
	}
	rect := common.NewIntRect(p.x, p.y, w, h)
	p.x += w
	p.rowHeight = max(p.rowHeight, h)
	return rect, true
}

// ShadowMapAllocator hands out regions of depth atlas pages for the shadow maps of
// one frame. Pages survive across frames and are reset by BeginFrame.
type ShadowMapAllocator struct {
	mu *sync.Mutex

	atlasSize int
	pages     []*atlasPage
	used      int
}

// NewShadowMapAllocator creates an allocator with pages of atlasSize texels per
// edge; non-positive sizes use DefaultShadowAtlasSize.
//
// Parameters:
//   - atlasSize: the page edge length
//
// Returns:
//   - *ShadowMapAllocator: the new allocator
func NewShadowMapAllocator(atlasSize int) *ShadowMapAllocator {
	if atlasSize <= 0 {
		atlasSize = DefaultShadowAtlasSize
	}
	return &ShadowMapAllocator{mu: &sync.Mutex{}, atlasSize: atlasSize}
}

// AtlasSize returns the page edge length.
func (a *ShadowMapAllocator) AtlasSize() int { return a.atlasSize }

// NumPages returns the number of pages created so far.
func (a *ShadowMapAllocator) NumPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

// BeginFrame releases every allocation of the previous frame.
func (a *ShadowMapAllocator) BeginFrame() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pages {
		p.reset()
	}
	a.used = 0
}

// Allocate reserves a size.X x size.Y region. Regions of one frame never overlap.
//
// Parameters:
//   - size: the requested region size
//
// Returns:
//   - light.ShadowMap: the region and its atlas texture
//   - error: error if the size is empty or larger than a page
func (a *ShadowMapAllocator) Allocate(size common.IntVector2) (light.ShadowMap, error) {
	if size.X <= 0 || size.Y <= 0 || size.X > a.atlasSize || size.Y > a.atlasSize {
		return light.ShadowMap{}, fmt.Errorf("%w: %dx%d in %d", ErrShadowMapTooLarge, size.X, size.Y, a.atlasSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.used; i++ {
		if rect, ok := a.pages[i].allocate(size.X, size.Y, a.atlasSize); ok {
			return light.ShadowMap{Texture: a.pages[i].texture, Region: rect}, nil
		}
	}

	if a.used == len(a.pages) {
		name := fmt.Sprintf("ShadowAtlas%d", len(a.pages))
		a.pages = append(a.pages, &atlasPage{
			texture: graphics.NewRenderTexture(name, a.atlasSize, a.atlasSize, graphics.FormatDepth32F),
		})
		slog.Debug("shadow atlas page created", "page", name, "size", a.atlasSize)
	}
	page := a.pages[a.used]
	a.used++
	rect, _ := page.allocate(size.X, size.Y, a.atlasSize)
	return light.ShadowMap{Texture: page.texture, Region: rect}, nil
}

// Bind records the shadow map as depth-only render target, restricts the viewport
// to its region and clears the region depth.
//
// Parameters:
//   - queue: the queue to record into
//   - m: a shadow map returned by Allocate
//
// Returns:
//   - error: error if the shadow map does not belong to this allocator
func (a *ShadowMapAllocator) Bind(queue *DrawCommandQueue, m light.ShadowMap) error {
	if !m.IsValid() {
		return fmt.Errorf("shadow map has no texture")
	}
	a.mu.Lock()
	owned := false
	for _, p := range a.pages {
		if p.texture == m.Texture {
			owned = true
			break
		}
	}
	a.mu.Unlock()
	if !owned {
		return fmt.Errorf("shadow map %q is not an atlas page of this allocator", m.Texture.Name())
	}
	bindShadowMap(queue, m)
	return nil
}

func bindShadowMap(queue *DrawCommandQueue, m light.ShadowMap) {
	queue.SetRenderTarget(nil, m.Texture)
	queue.SetViewport(m.Region)
	queue.Clear(graphics.ClearDepth, mgl32.Vec4{}, 1, 0)
}
