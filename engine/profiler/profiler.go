package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// ViewStats is what one view submitted in one frame.
type ViewStats struct {
	Geometries    int
	Lights        int
	ShadowBatches int
	BaseBatches   int
	LightBatches  int
	DrawCalls     int
}

// Batches returns the number of batches of every stage.
func (s ViewStats) Batches() int { return s.ShadowBatches + s.BaseBatches + s.LightBatches }

func (s *ViewStats) add(other ViewStats) {
	s.Geometries += other.Geometries
	s.Lights += other.Lights
	s.ShadowBatches += other.ShadowBatches
	s.BaseBatches += other.BaseBatches
	s.LightBatches += other.LightBatches
	s.DrawCalls += other.DrawCalls
}

// Profiler tracks frame rate, memory and batch statistics. Stats are logged and
// reset at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	views     int
	viewStats ViewStats
	last      ViewStats
}

// NewProfiler creates a new Profiler logging every interval; a non-positive
// interval defaults to 1 second.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// AddViewStats accumulates the statistics of one rendered view. Safe for concurrent use.
//
// Parameters:
//   - stats: what the view submitted
func (p *Profiler) AddViewStats(stats ViewStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views++
	p.viewStats.add(stats)
	p.last = stats
}

// LastViewStats returns the statistics of the most recently added view.
func (p *Profiler) LastViewStats() ViewStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average batches and draw calls per frame, heap usage,
// allocation rate, GC count/pause times and total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	frames := float64(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Views: %.1f | Batches: %.1f (shadow %.1f, base %.1f, light %.1f) | Draws: %.1f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, float64(p.views)/frames,
		float64(p.viewStats.Batches())/frames, float64(p.viewStats.ShadowBatches)/frames,
		float64(p.viewStats.BaseBatches)/frames, float64(p.viewStats.LightBatches)/frames,
		float64(p.viewStats.DrawCalls)/frames,
		allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.views = 0
	p.viewStats = ViewStats{}
	return true
}
