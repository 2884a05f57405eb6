package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	clock := time.Unix(0, 0)
	p := NewProfiler(
		WithInterval(time.Second),
		WithLogger(log.New(&out)),
		WithClock(func() time.Time { return clock }),
	)

	frame := renderer.FrameStats{Draws: 3, SkippedMeshes: 1, Reallocations: 1}
	for i := 0; i < 9; i++ {
		clock = clock.Add(100 * time.Millisecond)
		_, logged := p.Tick(frame)
		assert.False(t, logged)
	}
	assert.Zero(t, out.Len())

	clock = clock.Add(100 * time.Millisecond)
	report, logged := p.Tick(frame)
	require.True(t, logged)
	assert.Equal(t, 10, report.Frames)
	assert.InDelta(t, 10.0, report.FPS, 1e-9)
	assert.Equal(t, 30, report.Draws)
	assert.Equal(t, 10, report.SkippedMeshes)
	assert.Equal(t, 10, report.Reallocations)
	assert.Contains(t, out.String(), "frame stats")

	// counters restart with the next interval
	clock = clock.Add(2 * time.Second)
	report, logged = p.Tick(renderer.FrameStats{Draws: 1})
	require.True(t, logged)
	assert.Equal(t, 1, report.Frames)
	assert.Equal(t, 1, report.Draws)
	assert.InDelta(t, 0.5, report.FPS, 1e-9)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
