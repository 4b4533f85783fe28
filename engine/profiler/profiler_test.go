package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerAccumulatesViewStats(t *testing.T) {
	p := NewProfiler(time.Hour)
	p.AddViewStats(ViewStats{Geometries: 3, BaseBatches: 2, DrawCalls: 2})
	p.AddViewStats(ViewStats{ShadowBatches: 1, LightBatches: 4, DrawCalls: 5})

	assert.Equal(t, ViewStats{ShadowBatches: 1, LightBatches: 4, DrawCalls: 5}, p.LastViewStats())
	assert.Equal(t, 5, p.LastViewStats().Batches())
	assert.False(t, p.Tick())
}

func TestProfilerLogsAfterInterval(t *testing.T) {
	p := NewProfiler(time.Nanosecond)
	p.AddViewStats(ViewStats{BaseBatches: 1})
	time.Sleep(time.Millisecond)
	assert.True(t, p.Tick())
	assert.Equal(t, ViewStats{}, p.viewStats)
	assert.Zero(t, p.views)
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}
