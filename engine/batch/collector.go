package batch

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/workqueue"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMaterialQuality selects the highest quality technique entries.
const DefaultMaterialQuality = 2

// Callback is implemented by the view that owns the collector.
type Callback interface {
	pipeline.SceneFactory

	// HasShadow reports whether the light renders shadows this frame.
	HasShadow(l light.Light) bool
	// GetTemporaryShadowMap allocates a shadow map region for the frame. An invalid
	// map disables the light's shadow.
	GetTemporaryShadowMap(size common.IntVector2) light.ShadowMap
}

type scenePassData struct {
	desc ScenePassDescription
	// intermediate is filled per worker slot by ProcessVisibleDrawables.
	intermediate [][]intermediateBatch

	workerBase  [][]BaseSceneBatch
	workerLight [][]LightSceneBatch

	baseBatches  []BaseSceneBatch
	lightBatches []LightSceneBatch
	sortedBase   []*BaseSceneBatch
	sortedLight  []*LightSceneBatch
}

func (p *scenePassData) reset(numWorkers int) {
	p.intermediate = resizeSlots(p.intermediate, numWorkers)
	p.workerBase = resizeSlots(p.workerBase, numWorkers)
	p.workerLight = resizeSlots(p.workerLight, numWorkers)
	p.baseBatches = p.baseBatches[:0]
	p.lightBatches = p.lightBatches[:0]
	p.sortedBase = p.sortedBase[:0]
	p.sortedLight = p.sortedLight[:0]
}

// resizeSlots returns n empty per-worker slices, keeping their capacity.
func resizeSlots[T any](slots [][]T, n int) [][]T {
	if cap(slots) < n {
		grown := make([][]T, n)
		copy(grown, slots)
		slots = grown
	}
	slots = slots[:n]
	for i := range slots {
		clear(slots[i])
		slots[i] = slots[i][:0]
	}
	return slots
}

type lightData struct {
	scene         *light.SceneLight
	shadowBatches [light.MaxLightSplits][]BaseSceneBatch
}

// SceneBatchCollector turns the visible drawables of one view into sorted scene,
// light and shadow batches. A frame runs BeginFrame, ProcessVisibleDrawables,
// ProcessVisibleLights and CollectSceneBatches in that order on one goroutine; the
// heavy lifting is spread over the work queue.
type SceneBatchCollector struct {
	queue          workqueue.WorkQueue
	pipelineStates *pipeline.ScenePipelineStateCache
	drawables      *DrawableCachePerViewport

	maxPixelLights  int
	materialQuality int
	openGL          bool

	frame    scene.FrameInfo
	callback Callback
	passes   []*scenePassData

	visibleGeometries []scene.Drawable
	sceneZRange       common.ZRange
	lights            []*lightData
	sceneLights       []*light.SceneLight
	lightCache        map[light.Light]*lightData
	prevLightCache    map[light.Light]*lightData
	mainLightIndex    int
	accumulators      []DrawableLightAccumulator
	castersToUpdate   []scene.Drawable
}

// NewSceneBatchCollector creates a collector running its parallel stages on queue.
// Panics if queue is nil.
//
// Parameters:
//   - queue: the worker queue
//   - options: functional options to configure the collector
//
// Returns:
//   - *SceneBatchCollector: the new collector
func NewSceneBatchCollector(queue workqueue.WorkQueue, options ...CollectorBuilderOption) *SceneBatchCollector {
	if queue == nil {
		panic("batch: work queue is nil")
	}
	c := &SceneBatchCollector{
		queue:           queue,
		pipelineStates:  pipeline.NewScenePipelineStateCache(),
		drawables:       NewDrawableCachePerViewport(),
		maxPixelLights:  1,
		materialQuality: DefaultMaterialQuality,
		lightCache:      make(map[light.Light]*lightData),
		prevLightCache:  make(map[light.Light]*lightData),
		mainLightIndex:  -1,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetMaxPixelLights sets the pixel light budget per drawable.
//
// Parameters:
//   - n: the budget, clamped to [0, MaxPixelLights]
func (c *SceneBatchCollector) SetMaxPixelLights(n int) {
	c.maxPixelLights = min(max(n, 0), MaxPixelLights)
}

// MaxPixelLights returns the pixel light budget per drawable.
func (c *SceneBatchCollector) MaxPixelLights() int { return c.maxPixelLights }

// InvalidatePipelineStates drops every cached scene pipeline state.
func (c *SceneBatchCollector) InvalidatePipelineStates() { c.pipelineStates.Invalidate() }

// PipelineStates returns the scene pipeline state cache.
func (c *SceneBatchCollector) PipelineStates() *pipeline.ScenePipelineStateCache {
	return c.pipelineStates
}

// DrawableCache returns the per-viewport drawable cache of the current frame.
func (c *SceneBatchCollector) DrawableCache() *DrawableCachePerViewport { return c.drawables }

// BeginFrame starts collecting a frame.
//
// Parameters:
//   - frame: the frame being rendered; Camera and Octree must be set
//   - callback: the owning view
//   - passes: the scene passes to collect batches for
//
// Returns:
//   - error: error if the frame is incomplete or a pass description is invalid
func (c *SceneBatchCollector) BeginFrame(frame scene.FrameInfo, callback Callback, passes []ScenePassDescription) error {
	if frame.Camera == nil || frame.Octree == nil {
		return fmt.Errorf("batch: frame needs a camera and an octree")
	}
	if callback == nil {
		return fmt.Errorf("batch: callback is nil")
	}
	for i, desc := range passes {
		if err := desc.Validate(); err != nil {
			return fmt.Errorf("batch: scene pass %d: %w", i, err)
		}
	}

	c.frame = frame
	c.callback = callback
	numWorkers := max(c.queue.NumWorkers(), 1)
	numDrawables := frame.Octree.NumDrawables()

	for len(c.passes) < len(passes) {
		c.passes = append(c.passes, &scenePassData{})
	}
	c.passes = c.passes[:len(passes)]
	for i, p := range c.passes {
		p.desc = passes[i]
		p.reset(numWorkers)
	}

	c.drawables.Reset(numDrawables, numWorkers)
	if cap(c.accumulators) < numDrawables {
		c.accumulators = make([]DrawableLightAccumulator, numDrawables)
	}
	c.accumulators = c.accumulators[:numDrawables]

	c.visibleGeometries = nil
	c.sceneZRange = common.ZRange{}
	clear(c.lights)
	c.lights = c.lights[:0]
	clear(c.sceneLights)
	c.sceneLights = c.sceneLights[:0]
	c.mainLightIndex = -1
	clear(c.castersToUpdate)
	c.castersToUpdate = c.castersToUpdate[:0]
	return nil
}

// ProcessVisibleDrawables runs primary processing over the visibility query result,
// then resolves the technique and scene pass batches of every visible geometry.
//
// Parameters:
//   - drawables: the visibility query result
func (c *SceneBatchCollector) ProcessVisibleDrawables(drawables []scene.Drawable) {
	ProcessPrimaryDrawables(c.queue, c.drawables, drawables, c.frame)

	geometries, lights, zRange := c.drawables.Merge()
	c.visibleGeometries = geometries
	c.sceneZRange = zRange
	c.setVisibleLights(lights)

	workqueue.ForEachRange(c.queue, len(geometries), func(slot, from, to int) {
		for _, d := range geometries[from:to] {
			c.processVisibleGeometry(slot, d)
		}
	})
}

func (c *SceneBatchCollector) processVisibleGeometry(slot int, d scene.Drawable) {
	index := d.DrawableIndex()
	c.accumulators[index].Reset()

	forwardLit := false
	for i, src := range d.Batches() {
		if src.Geometry == nil {
			continue
		}
		mat := src.Material
		if mat == nil {
			mat = material.Default()
		}
		tech := c.findTechnique(d, mat)
		if tech == nil {
			continue
		}
		for _, p := range c.passes {
			passes := resolvePasses(&p.desc, tech)
			base, additional := passes.intermediate(p.desc.Type)
			if base == nil {
				continue
			}
			ib := intermediateBatch{
				drawable:         d,
				sourceBatchIndex: i,
				basePass:         base,
				additionalPass:   additional,
			}
			if p.desc.Type == ScenePassForwardLitBase && additional != nil {
				ib.unlitBasePass = passes.unlitBase
			}
			p.intermediate[slot] = append(p.intermediate[slot], ib)
			if additional != nil {
				forwardLit = true
			}
		}
	}
	if forwardLit {
		c.drawables.AddTraits(index, ForwardLit)
	}
}

// findTechnique returns the first supported technique entry matching the material
// quality and the drawable's LOD distance, falling back to the last entry.
func (c *SceneBatchCollector) findTechnique(d scene.Drawable, mat material.Material) *material.Technique {
	entries := mat.Techniques()
	switch len(entries) {
	case 0:
		return nil
	case 1:
		return entries[0].Technique
	}
	lodDistance := d.LodDistance()
	for _, entry := range entries {
		tech := entry.Technique
		if tech == nil || !tech.IsSupported() || c.materialQuality < entry.QualityLevel {
			continue
		}
		if lodDistance >= entry.LodDistance {
			return tech
		}
	}
	return entries[len(entries)-1].Technique
}

// setVisibleLights maps the visible lights to their SceneLight, reusing the ones
// seen last frame.
func (c *SceneBatchCollector) setVisibleLights(lights []light.Light) {
	c.prevLightCache, c.lightCache = c.lightCache, c.prevLightCache
	clear(c.lightCache)
	for _, l := range lights {
		ld := c.prevLightCache[l]
		if ld == nil {
			ld = &lightData{scene: light.NewSceneLight(l)}
		}
		c.lightCache[l] = ld
		c.lights = append(c.lights, ld)
	}
}

// ProcessVisibleLights updates every visible light, allocates shadow maps, collects
// shadow batches and assigns forward lights to the visible geometries.
func (c *SceneBatchCollector) ProcessVisibleLights() {
	for _, ld := range c.lights {
		ld.scene.BeginFrame(c.callback.HasShadow(ld.scene.Light()))
	}

	ctx := &light.ProcessContext{
		Frame:             c.frame,
		SceneZRange:       c.sceneZRange,
		VisibleGeometries: c.visibleGeometries,
		Data:              c.drawables,
		OpenGL:            c.openGL,
	}
	for _, ld := range c.lights {
		c.queue.AddWorkItem(func() {
			ld.scene.UpdateLitGeometriesAndShadowCasters(ctx)
		})
	}
	c.queue.Complete()

	for _, ld := range c.lights {
		ld.scene.FinalizeShadowMap()
	}

	// Larger shadow maps are allocated first so they pack better.
	slices.SortStableFunc(c.lights, func(a, b *lightData) int {
		sa, sb := a.scene.ShadowMapSize(), b.scene.ShadowMapSize()
		return cmp.Compare(sb.X*sb.X+sb.Y*sb.Y, sa.X*sa.X+sa.Y*sa.Y)
	})
	for _, ld := range c.lights {
		c.sceneLights = append(c.sceneLights, ld.scene)
		if size := ld.scene.ShadowMapSize(); size.X > 0 && size.Y > 0 {
			ld.scene.SetShadowMap(c.callback.GetTemporaryShadowMap(size))
		}
		ld.scene.FinalizeShaderParameters(c.frame.Camera, 0)
	}

	for _, ld := range c.lights {
		c.castersToUpdate = append(c.castersToUpdate, ld.scene.CastersToUpdate()...)
	}
	workqueue.ForEachRange(c.queue, len(c.castersToUpdate), func(_, from, to int) {
		for _, d := range c.castersToUpdate[from:to] {
			d.UpdateBatches(c.frame)
		}
	})

	c.collectShadowBatches()
	c.mainLightIndex = c.findMainLight()
	c.accumulateForwardLighting()
}

func (c *SceneBatchCollector) collectShadowBatches() {
	for _, ld := range c.lights {
		for i := range ld.shadowBatches {
			clear(ld.shadowBatches[i])
			ld.shadowBatches[i] = ld.shadowBatches[i][:0]
		}
		for split := 0; split < ld.scene.NumSplits(); split++ {
			c.queue.AddWorkItem(func() {
				c.collectSplitShadowBatches(ld, split)
			})
		}
	}
	c.queue.Complete()

	for _, ld := range c.lights {
		for split := 0; split < ld.scene.NumSplits(); split++ {
			batches := ld.shadowBatches[split]
			for i := range batches {
				b := &batches[i]
				if b.PipelineState != nil {
					continue
				}
				b.PipelineState = c.pipelineStates.GetOrCreate(b.key(), pipeline.SceneContext{
					ShadowPass:       true,
					Drawable:         b.Drawable,
					SourceBatchIndex: b.SourceBatchIndex,
					Light:            ld.scene,
					Camera:           ld.scene.Split(split).Camera(),
				}, c.callback)
			}
		}
	}
}

func (c *SceneBatchCollector) collectSplitShadowBatches(ld *lightData, split int) {
	lightHash := ld.scene.PipelineStateHash()
	dst := ld.shadowBatches[split]
	for _, d := range ld.scene.Split(split).ShadowCasters() {
		maxShadowDistance := d.ShadowDistance()
		if drawDistance := d.DrawDistance(); drawDistance > 0 && (maxShadowDistance <= 0 || drawDistance < maxShadowDistance) {
			maxShadowDistance = drawDistance
		}
		if maxShadowDistance > 0 && d.Distance() > maxShadowDistance {
			continue
		}

		drawableHash := d.PipelineStateHash()
		for i, src := range d.Batches() {
			if src.Geometry == nil {
				continue
			}
			mat := src.Material
			if mat == nil {
				mat = material.Default()
			}
			tech := c.findTechnique(d, mat)
			if tech == nil {
				continue
			}
			pass := tech.SupportedPass(material.PassShadow)
			if pass == nil {
				continue
			}
			b := newBaseSceneBatch(d, i, pass, drawableHash, lightHash)
			b.PipelineState = c.pipelineStates.Get(b.key())
			dst = append(dst, b)
		}
	}
	ld.shadowBatches[split] = dst
}

// findMainLight picks the brightest directional light, -1 if there is none.
func (c *SceneBatchCollector) findMainLight() int {
	best, bestScore := -1, float32(0)
	for i, ld := range c.lights {
		l := ld.scene.Light()
		if l.Type() != light.LightTypeDirectional || l.PerVertex() {
			continue
		}
		if score := l.IntensityDivisor(); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// accumulateForwardLighting runs lights one after another so each drawable's
// accumulator has a single writer at a time.
func (c *SceneBatchCollector) accumulateForwardLighting() {
	for i, ld := range c.lights {
		l := ld.scene.Light()
		isMain := i == c.mainLightIndex
		lit := ld.scene.LitGeometries()
		workqueue.ForEachRange(c.queue, len(lit), func(_, from, to int) {
			for _, d := range lit[from:to] {
				index := d.DrawableIndex()
				if !c.drawables.HasTraits(index, ForwardLit) {
					continue
				}
				penalty := LightPenalty(isMain, lightDistance(l, d.WorldBoundingBox()), l.IntensityDivisor())
				c.accumulators[index].Accumulate(i, penalty, l.Importance(), l.PerVertex())
			}
		})
	}

	geometries := c.visibleGeometries
	workqueue.ForEachRange(c.queue, len(geometries), func(_, from, to int) {
		for _, d := range geometries[from:to] {
			index := d.DrawableIndex()
			if c.drawables.HasTraits(index, ForwardLit) {
				c.accumulators[index].Finalize(c.maxPixelLights)
			}
		}
	})
}

// lightDistance is zero for directional lights, otherwise the distance from the
// light position to the closest point of box.
func lightDistance(l light.Light, box common.BoundingBox) float32 {
	if l.Type() == light.LightTypeDirectional || !box.Defined {
		return 0
	}
	p := l.Position()
	closest := mgl32.Vec3{
		mgl32.Clamp(p[0], box.Min[0], box.Max[0]),
		mgl32.Clamp(p[1], box.Min[1], box.Max[1]),
		mgl32.Clamp(p[2], box.Min[2], box.Max[2]),
	}
	return p.Sub(closest).Len()
}

// CollectSceneBatches builds the base and light batches of every scene pass, then
// resolves pipeline state misses and sorts the batches.
func (c *SceneBatchCollector) CollectSceneBatches() {
	for _, p := range c.passes {
		for slot := range p.intermediate {
			if len(p.intermediate[slot]) == 0 {
				continue
			}
			c.queue.AddWorkItem(func() {
				c.collectPassBatches(p, slot)
			})
		}
	}
	c.queue.Complete()

	for _, p := range c.passes {
		for slot := range p.workerBase {
			p.baseBatches = append(p.baseBatches, p.workerBase[slot]...)
			p.lightBatches = append(p.lightBatches, p.workerLight[slot]...)
		}
		c.resolvePassBatches(p)
		c.sortPassBatches(p)
	}
}

func (c *SceneBatchCollector) collectPassBatches(p *scenePassData, slot int) {
	var mainLightHash uint32
	if c.mainLightIndex >= 0 {
		mainLightHash = c.lights[c.mainLightIndex].scene.PipelineStateHash()
	}

	base := p.workerBase[slot]
	lit := p.workerLight[slot]
	for _, ib := range p.intermediate[slot] {
		d := ib.drawable
		drawableHash := d.PipelineStateHash()
		if ib.additionalPass == nil {
			b := newBaseSceneBatch(d, ib.sourceBatchIndex, ib.basePass, drawableHash, 0)
			b.PipelineState = c.pipelineStates.Get(b.key())
			base = append(base, b)
			continue
		}

		acc := &c.accumulators[d.DrawableIndex()]
		pixelLights := acc.PixelLights()
		hasLitBase := p.desc.Type == ScenePassForwardLitBase &&
			len(pixelLights) > 0 && pixelLights[0].Index == c.mainLightIndex

		baseHash := drawableHash
		common.CombineHash(&baseHash, uint32(len(acc.VertexLights())))
		basePass := ib.basePass
		var baseLightHash uint32
		if hasLitBase {
			baseLightHash = mainLightHash
		} else if ib.unlitBasePass != nil {
			basePass = ib.unlitBasePass
		}
		b := newBaseSceneBatch(d, ib.sourceBatchIndex, basePass, baseHash, baseLightHash)
		b.LitBase = hasLitBase
		b.PipelineState = c.pipelineStates.Get(b.key())
		base = append(base, b)

		first := 0
		if hasLitBase {
			first = 1
		}
		for _, e := range pixelLights[first:] {
			lb := LightSceneBatch{
				BaseSceneBatch: newBaseSceneBatch(d, ib.sourceBatchIndex, ib.additionalPass, drawableHash, c.lights[e.Index].scene.PipelineStateHash()),
				LightIndex:     e.Index,
			}
			lb.PipelineState = c.pipelineStates.Get(lb.key())
			lit = append(lit, lb)
		}
	}
	p.workerBase[slot] = base
	p.workerLight[slot] = lit
}

func (c *SceneBatchCollector) resolvePassBatches(p *scenePassData) {
	for i := range p.baseBatches {
		b := &p.baseBatches[i]
		if b.PipelineState != nil {
			continue
		}
		ctx := pipeline.SceneContext{
			Drawable:         b.Drawable,
			SourceBatchIndex: b.SourceBatchIndex,
			Camera:           c.frame.Camera,
		}
		if b.LitBase {
			ctx.Light = c.lights[c.mainLightIndex].scene
		}
		if p.desc.Type != ScenePassUnlit && c.drawables.HasTraits(b.Drawable.DrawableIndex(), ForwardLit) {
			ctx.NumVertexLights = len(c.accumulators[b.Drawable.DrawableIndex()].VertexLights())
		}
		b.PipelineState = c.pipelineStates.GetOrCreate(b.key(), ctx, c.callback)
	}
	for i := range p.lightBatches {
		b := &p.lightBatches[i]
		if b.PipelineState != nil {
			continue
		}
		b.PipelineState = c.pipelineStates.GetOrCreate(b.key(), pipeline.SceneContext{
			Drawable:         b.Drawable,
			SourceBatchIndex: b.SourceBatchIndex,
			Light:            c.lights[b.LightIndex].scene,
			Camera:           c.frame.Camera,
		}, c.callback)
	}
}

func (c *SceneBatchCollector) sortPassBatches(p *scenePassData) {
	for i := range p.baseBatches {
		p.sortedBase = append(p.sortedBase, &p.baseBatches[i])
	}
	slices.SortStableFunc(p.sortedBase, func(a, b *BaseSceneBatch) int {
		return cmp.Or(
			cmp.Compare(a.PipelineState.ID(), b.PipelineState.ID()),
			cmp.Compare(materialID(a.Material), materialID(b.Material)),
		)
	})

	for i := range p.lightBatches {
		p.sortedLight = append(p.sortedLight, &p.lightBatches[i])
	}
	slices.SortStableFunc(p.sortedLight, func(a, b *LightSceneBatch) int {
		return cmp.Or(
			cmp.Compare(a.LightIndex, b.LightIndex),
			cmp.Compare(a.PipelineState.ID(), b.PipelineState.ID()),
			cmp.Compare(materialID(a.Material), materialID(b.Material)),
		)
	})
}

// Frame returns the frame being collected.
func (c *SceneBatchCollector) Frame() scene.FrameInfo { return c.frame }

// SceneZRange returns the union depth range of the finite visible geometries.
func (c *SceneBatchCollector) SceneZRange() common.ZRange { return c.sceneZRange }

// VisibleGeometries returns the geometries that passed primary processing.
func (c *SceneBatchCollector) VisibleGeometries() []scene.Drawable { return c.visibleGeometries }

// VisibleLights returns the visible lights, sorted by shadow map size once
// ProcessVisibleLights has run. Light batch and vertex light indices refer to this
// order.
func (c *SceneBatchCollector) VisibleLights() []*light.SceneLight { return c.sceneLights }

// MainLightIndex returns the index of the main directional light, -1 if none.
func (c *SceneBatchCollector) MainLightIndex() int { return c.mainLightIndex }

// MainLight returns the main directional light, nil if none.
func (c *SceneBatchCollector) MainLight() *light.SceneLight {
	if c.mainLightIndex < 0 {
		return nil
	}
	return c.lights[c.mainLightIndex].scene
}

// NumPasses returns the number of scene passes of the frame.
func (c *SceneBatchCollector) NumPasses() int { return len(c.passes) }

// Pass returns the description of scene pass i.
func (c *SceneBatchCollector) Pass(i int) ScenePassDescription { return c.passes[i].desc }

// BaseBatches returns the base batches of scene pass i in collection order.
func (c *SceneBatchCollector) BaseBatches(pass int) []BaseSceneBatch {
	return c.passes[pass].baseBatches
}

// SortedBaseBatches returns the base batches of scene pass i ordered by pipeline
// state, then material.
func (c *SceneBatchCollector) SortedBaseBatches(pass int) []*BaseSceneBatch {
	return c.passes[pass].sortedBase
}

// LightBatches returns the light batches of scene pass i in collection order.
func (c *SceneBatchCollector) LightBatches(pass int) []LightSceneBatch {
	return c.passes[pass].lightBatches
}

// SortedLightBatches returns the light batches of scene pass i ordered by light,
// pipeline state, then material.
func (c *SceneBatchCollector) SortedLightBatches(pass int) []*LightSceneBatch {
	return c.passes[pass].sortedLight
}

// VertexLights returns the vertex lights of the drawable at index, nil when it is
// not forward lit.
func (c *SceneBatchCollector) VertexLights(drawableIndex int) []LightEntry {
	if drawableIndex < 0 || drawableIndex >= len(c.accumulators) || !c.drawables.HasTraits(drawableIndex, ForwardLit) {
		return nil
	}
	return c.accumulators[drawableIndex].VertexLights()
}

// PixelLights returns the pixel lights of the drawable at index, nil when it is not
// forward lit.
func (c *SceneBatchCollector) PixelLights(drawableIndex int) []LightEntry {
	if drawableIndex < 0 || drawableIndex >= len(c.accumulators) || !c.drawables.HasTraits(drawableIndex, ForwardLit) {
		return nil
	}
	return c.accumulators[drawableIndex].PixelLights()
}

// ShadowBatches returns the shadow batches of one split of a visible light.
func (c *SceneBatchCollector) ShadowBatches(lightIndex, split int) []BaseSceneBatch {
	return c.lights[lightIndex].shadowBatches[split]
}
