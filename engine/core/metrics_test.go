package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverageAndFPS(t *testing.T) {
	MetricsReset()
	t.Cleanup(MetricsReset)

	// 40 frames of 25ms add up to one second.
	for i := 0; i < 41; i++ {
		MetricsUpdate(0.025)
	}
	fps, avg := MetricsFrame()
	assert.InDelta(t, 40.0, fps, 1.0)
	assert.InDelta(t, 25.0, avg, 0.001)
}

func TestMetricsAverageIsNotCumulative(t *testing.T) {
	MetricsReset()
	t.Cleanup(MetricsReset)

	for i := 0; i < int(AVG_COUNT)*3; i++ {
		MetricsUpdate(0.010)
	}
	assert.InDelta(t, 10.0, MetricsFrameTime(), 0.001)
}

func TestClockMeasuresElapsed(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	first := c.Elapsed()
	assert.Greater(t, first, 0.0)

	c.Stop()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	assert.Equal(t, first, c.Elapsed())
}
