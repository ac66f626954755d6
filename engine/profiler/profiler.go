package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// Profiler tracks frame rate, render submission and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// Submission totals since the last report.
	entries      int
	stateChanges int
	visits       int
	frameTime    time.Duration

	lastDriverAllocations int
	last                  Report
}

// Report is the summary logged at each update interval.
type Report struct {
	FPS             float64
	AvgEntries      float64
	AvgStateChanges float64
	AvgVisits       float64
	AvgFrameTime    time.Duration
	// NewDriverAllocations counts buffers the pool created since the previous report.
	NewDriverAllocations int
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		memStats:       runtime.MemStats{},
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with that frame's statistics.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average queue entries, state changes and visits per frame,
// new pool driver allocations, heap usage, allocation rate and GC count/pause times.
//
// Parameters:
//   - stats: the frame statistics returned by Scene.RenderFrame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats scene.FrameStats) bool {
	p.frameCount++
	p.entries += stats.Traversal.Entries
	p.stateChanges += stats.Traversal.GroupChanges + stats.Traversal.PassChanges
	p.visits += stats.Traversal.Visits
	p.frameTime += stats.Duration

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	frames := float64(p.frameCount)
	report := Report{
		FPS:                  frames / elapsed.Seconds(),
		AvgEntries:           float64(p.entries) / frames,
		AvgStateChanges:      float64(p.stateChanges) / frames,
		AvgVisits:            float64(p.visits) / frames,
		AvgFrameTime:         p.frameTime / time.Duration(p.frameCount),
		NewDriverAllocations: stats.Pool.DriverAllocations - p.lastDriverAllocations,
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Frame: %s | Entries: %.1f | State changes: %.1f | Visits: %.1f | New buffers: %d",
		report.FPS, report.AvgFrameTime, report.AvgEntries, report.AvgStateChanges, report.AvgVisits, report.NewDriverAllocations)
	log.Printf("[Profiler] Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.last = report
	p.frameCount = 0
	p.entries = 0
	p.stateChanges = 0
	p.visits = 0
	p.frameTime = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastDriverAllocations = stats.Pool.DriverAllocations
	return true
}

// Last returns the most recently logged report.
//
// Returns:
//   - Report: the last report, zero before the first
func (p *Profiler) Last() Report {
	return p.last
}
