package optimizer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestUpdateMetricsOutsideWindow(t *testing.T) {
	o := New(newFakeIntersection(nil), config.Default())
	assert.False(t, o.UpdateMetrics())
	assert.Empty(t, o.Samples())

	_, ok := o.Report()
	assert.False(t, ok)
}

func TestMetricsWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	target := newFakeIntersection(map[geometry.Direction]int{north: 4, south: 2, east: 0, west: 0})
	rec := &recorder{}
	o := New(target, config.Default(), WithRand(testRand(1)), WithClock(clock.Now), WithObserver(rec))

	_, err := o.StartOptimizationCycle(context.Background(), 2*time.Minute)
	require.NoError(t, err)

	assert.True(t, o.UpdateMetrics())

	clock.Advance(10 * time.Second)
	target.passing[north] = 3
	target.passing[east] = 2
	assert.True(t, o.UpdateMetrics())

	clock.Advance(110 * time.Second)
	target.passing[north] = 13
	target.passing[east] = 3
	assert.False(t, o.UpdateMetrics(), "the window closes at the time limit")
	assert.False(t, o.Active())
	assert.False(t, o.UpdateMetrics())

	samples := o.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, 0, samples[0].VehiclesPassed)
	assert.Equal(t, 0.0, samples[0].FlowRate)
	assert.Equal(t, 5, samples[1].VehiclesPassed)
	assert.InDelta(t, 0.5, samples[1].FlowRate, 1e-9)
	assert.InDelta(t, 0.1, samples[2].FlowRate, 1e-9)

	report, ok := o.Report()
	require.True(t, ok)
	require.Len(t, rec.reports, 1)
	assert.Equal(t, report, rec.reports[0])

	assert.Equal(t, 16, report.TotalVehiclesPassed)
	assert.InDelta(t, 8.0, report.EfficiencyPerMinute, 1e-9)
	assert.InDelta(t, 0.5, report.MaxFlowRate, 1e-9)
	assert.Equal(t, 120.0, report.TimeLimit)
	assert.Equal(t, map[geometry.Direction]int{north: 30, south: 30, east: 30, west: 30}, report.InitialTimes)
	assert.Equal(t, 4, report.Demand[north])
	assert.NotEmpty(t, report.FitnessHistory)
	assert.Equal(t, report.BestFitness, report.FitnessHistory[len(report.FitnessHistory)-1])

	data, err := report.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded["optimal_times"], "N")
	assert.Len(t, decoded["samples"], 3)
}

func TestAverageWait(t *testing.T) {
	counts := map[geometry.Direction]int{north: 4, south: 2, east: 0, west: 1}
	greens := map[geometry.Direction]int{north: 40, south: 20, east: 30, west: 30}
	states := map[geometry.Direction]signal.State{
		north: signal.Red,
		south: signal.Yellow,
		east:  signal.Red,
		west:  signal.Green,
	}

	// (20*4 + 10*2 + 0*1) / 7
	assert.InDelta(t, 100.0/7, averageWait(counts, greens, states), 1e-9)
	assert.Equal(t, 0.0, averageWait(nil, greens, states))
}
