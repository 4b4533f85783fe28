// Package workqueue runs per-frame CPU work on a persistent worker pool and lets the
// caller block until every submitted item has finished.
package workqueue

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// workQueue is the implementation of the WorkQueue interface.
type workQueue struct {
	pool    worker.DynamicWorkerPool
	workers int
	nextID  atomic.Int64
	wg      sync.WaitGroup
}

// WorkQueue executes fire-and-forget work items and provides a barrier.
//
// Items run to completion and are never cancelled. AddWorkItem and Complete must be
// called from the same goroutine; items themselves may run on any worker.
type WorkQueue interface {
	// NumWorkers returns the number of workers items are spread over. Callers use it
	// to size per-worker scratch slots.
	//
	// Returns:
	//   - int: the worker count, at least 1
	NumWorkers() int

	// AddWorkItem schedules fn. With a single worker fn runs inline before
	// AddWorkItem returns.
	//
	// Parameters:
	//   - fn: the work to run
	AddWorkItem(fn func())

	// Complete blocks until every item added since the last Complete has finished.
	Complete()
}

var _ WorkQueue = &workQueue{}

// NewWorkQueue creates a WorkQueue backed by a pool of the given size.
// A non-positive size selects max(NumCPU-1, 1) workers.
//
// Parameters:
//   - workers: number of pool workers
//
// Returns:
//   - WorkQueue: the queue
func NewWorkQueue(workers int) WorkQueue {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	q := &workQueue{workers: workers}
	if workers > 1 {
		// Queue size of 256 leaves headroom for several items per worker per stage.
		q.pool = worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	}
	return q
}

func (q *workQueue) NumWorkers() int {
	return q.workers
}

func (q *workQueue) AddWorkItem(fn func()) {
	if q.pool == nil {
		fn()
		return
	}

	q.wg.Add(1)
	q.pool.SubmitTask(worker.Task{
		ID: int(q.nextID.Add(1)),
		Do: func() (any, error) {
			defer q.wg.Done()
			fn()
			return nil, nil
		},
	})
}

func (q *workQueue) Complete() {
	// A WaitGroup is the per-frame barrier; the pool's own Wait blocks until workers
	// idle-exit which does not suit frame-rate workloads.
	q.wg.Wait()
}

// ForEachRange splits [0, n) into one contiguous range per worker, runs fn on each
// range and waits for all of them. fn receives the range index, which doubles as the
// caller's per-worker slot.
//
// Parameters:
//   - q: the queue to run on
//   - n: number of elements
//   - fn: range callback, from inclusive and to exclusive
func ForEachRange(q WorkQueue, n int, fn func(slot, from, to int)) {
	for slot, r := range PartitionRanges(n, q.NumWorkers()) {
		q.AddWorkItem(func() {
			fn(slot, r[0], r[1])
		})
	}
	q.Complete()
}

// PartitionRanges returns the ranges ForEachRange dispatches. Each worker i gets
// [i*perItem, min((i+1)*perItem, n)) with perItem = ceil(n/workers). Ranges that
// would start at or past n are dropped, so the last range may be short but never
// empty or out of bounds.
//
// Parameters:
//   - n: number of elements
//   - workers: number of workers
//
// Returns:
//   - [][2]int: half-open ranges in index order
func PartitionRanges(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers = max(workers, 1)
	perItem := (n + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for i := 0; i < workers; i++ {
		from := i * perItem
		if from >= n {
			break
		}
		to := min((i+1)*perItem, n)
		ranges = append(ranges, [2]int{from, to})
	}
	return ranges
}
