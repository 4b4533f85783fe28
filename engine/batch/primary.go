package batch

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/workqueue"
	"github.com/go-gl/mathgl/mgl32"
)

// CollectDrawables queries the drawables inside the camera frustum.
//
// Parameters:
//   - octree: the spatial index
//   - cam: the culling camera
//   - flags: drawable classes to include
//
// Returns:
//   - []scene.Drawable: the drawables, nil when octree or cam is nil
func CollectDrawables(octree *scene.Octree, cam camera.Camera, flags scene.DrawableFlags) []scene.Drawable {
	if octree == nil || cam == nil {
		return nil
	}
	return octree.QueryFrustum(nil, cam.Frustum(), flags, cam.ViewMask())
}

// ProcessPrimaryDrawables updates the drawables found by the visibility query and
// sorts them into visible geometries and lights, one worker slot per range. The
// cache must have been Reset for the scene's drawable count and at least
// queue.NumWorkers() slots.
//
// Parameters:
//   - queue: the worker queue
//   - cache: the viewport cache receiving the results
//   - drawables: the visibility query result
//   - frame: the frame being rendered; its camera supplies the view matrix
func ProcessPrimaryDrawables(queue workqueue.WorkQueue, cache *DrawableCachePerViewport, drawables []scene.Drawable, frame scene.FrameInfo) {
	if frame.Camera == nil {
		return
	}
	view := frame.Camera.View()
	workqueue.ForEachRange(queue, len(drawables), func(slot, from, to int) {
		worker := cache.Worker(slot)
		for _, d := range drawables[from:to] {
			processPrimaryDrawable(cache, worker, d, frame, view)
		}
	})
}

func processPrimaryDrawable(cache *DrawableCachePerViewport, worker *DrawableCachePerWorker, d scene.Drawable, frame scene.FrameInfo, view mgl32.Mat4) {
	index := d.DrawableIndex()
	if index < 0 || index >= cache.NumDrawables() {
		return
	}
	if cache.MarkUpdated(index) {
		return
	}
	d.UpdateBatches(frame)

	if drawDistance := d.DrawDistance(); drawDistance > 0 && d.Distance() > drawDistance {
		return
	}

	flags := d.Flags()
	if flags&scene.DrawableGeometry != 0 {
		cache.AddTraits(index, DrawableVisible)
		zRange := DrawableZRange(view, d.WorldBoundingBox())
		cache.SetZRange(index, zRange)
		if zRange.Min != common.LargeValue || zRange.Max != common.LargeValue {
			worker.ZRange = worker.ZRange.Merge(zRange)
		}
		worker.VisibleGeometries = append(worker.VisibleGeometries, d)
		return
	}

	if flags&scene.DrawableLight != 0 {
		l, ok := d.(light.Light)
		if !ok {
			return
		}
		c := l.EffectiveColor()
		if common.IsBlack(c.Vec4(1)) || l.EffectiveLightMask() == 0 {
			return
		}
		worker.VisibleLights = append(worker.VisibleLights, l)
	}
}

// DrawableZRange projects a world box onto the view-space Z axis. Boxes whose half
// size reaches LargeValue are treated as infinite and get {LargeValue, LargeValue}.
//
// Parameters:
//   - view: the camera view matrix
//   - box: the world bounding box
//
// Returns:
//   - common.ZRange: the depth range
func DrawableZRange(view mgl32.Mat4, box common.BoundingBox) common.ZRange {
	halfSize := box.HalfSize()
	if halfSize.LenSqr() >= common.LargeValue*common.LargeValue {
		return common.NewZRange(common.LargeValue, common.LargeValue)
	}
	viewZ := mgl32.Vec3{view.At(2, 0), view.At(2, 1), view.At(2, 2)}
	absViewZ := mgl32.Vec3{mgl32.Abs(viewZ[0]), mgl32.Abs(viewZ[1]), mgl32.Abs(viewZ[2])}

	center := box.Center().Dot(viewZ) + view.At(2, 3)
	edge := absViewZ.Dot(halfSize)
	return common.NewZRange(center-edge, center+edge)
}
