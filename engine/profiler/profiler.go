package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer"
	"github.com/charmbracelet/log"
)

// Report is the summary of one profiling interval.
type Report struct {
	FPS           float64
	Frames        int
	Draws         int
	SkippedMeshes int
	Reallocations int
	HeapMB        float64
	AllocRateMB   float64
	GCCount       uint32
	MaxPauseUs    uint64
}

// Profiler tracks frame rate, renderer counters and memory statistics.
// Outputs a report to the log at a configurable interval.
type Profiler struct {
	logger         *log.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount    int
	draws         int
	skipped       int
	reallocations int

	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is logged. Non-positive values keep the one second default.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(l *log.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now, used by tests to step time manually.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - opts: a variadic list of options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         common.Logger().WithPrefix("profiler"),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame after Execute with the renderer's stats.
// Logs a report when the update interval has elapsed.
//
// Parameters:
//   - stats: the counters of the frame just rendered
//
// Returns:
//   - Report: the report of the interval that just ended
//   - bool: true if a report was logged this tick, false otherwise
func (p *Profiler) Tick(stats renderer.FrameStats) (Report, bool) {
	p.frameCount++
	p.draws += stats.Draws
	p.skipped += stats.SkippedMeshes
	p.reallocations += stats.Reallocations

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	gcCount := p.memStats.NumGC

	// PauseNs is a circular buffer of the last 256 GC pauses
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	r := Report{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		Frames:        p.frameCount,
		Draws:         p.draws,
		SkippedMeshes: p.skipped,
		Reallocations: p.reallocations,
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:   float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:       gcCount,
		MaxPauseUs:    maxPauseUs,
	}
	p.logger.Info("frame stats",
		"fps", r.FPS,
		"draws", r.Draws,
		"skipped", r.SkippedMeshes,
		"reallocs", r.Reallocations,
		"heap_mb", r.HeapMB,
		"alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"max_pause_us", r.MaxPauseUs,
	)

	p.frameCount = 0
	p.draws = 0
	p.skipped = 0
	p.reallocations = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r, true
}
