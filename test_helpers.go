package crossway

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex        sync.RWMutex
	LightChanges []LightChangeEvent
	Cycles       []CycleEvent
	Passed       []PassEvent
	Conflicts    []ConflictEvent
	Errors       []error
}

type LightChangeEvent struct {
	Direction geometry.Direction
	From      signal.State
	To        signal.State
	Timer     float64
}

type CycleEvent struct {
	Cycle   int
	Passing map[geometry.Direction]int
}

type PassEvent struct {
	Vehicle   *actor.Vehicle
	Direction geometry.Direction
}

type ConflictEvent struct {
	A      *actor.Vehicle
	B      *actor.Vehicle
	Policy config.ConflictPolicy
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.LightChanges = append(o.LightChanges, LightChangeEvent{Direction: d, From: from, To: to, Timer: timer})
}

func (o *TestObserver) OnCycleComplete(cycle int, passing map[geometry.Direction]int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Cycles = append(o.Cycles, CycleEvent{Cycle: cycle, Passing: passing})
}

func (o *TestObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Passed = append(o.Passed, PassEvent{Vehicle: v, Direction: d})
}

func (o *TestObserver) OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Conflicts = append(o.Conflicts, ConflictEvent{A: a, B: b, Policy: policy})
}

func (o *TestObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// Reset clears every captured event
func (o *TestObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.LightChanges = nil
	o.Cycles = nil
	o.Passed = nil
	o.Conflicts = nil
	o.Errors = nil
}

func (o *TestObserver) LightChangeCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.LightChanges)
}

// GreenOrder returns the approaches in the order they turned green
func (o *TestObserver) GreenOrder() []geometry.Direction {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	var order []geometry.Direction
	for _, change := range o.LightChanges {
		if change.To == signal.Green {
			order = append(order, change.Direction)
		}
	}
	return order
}

func (o *TestObserver) LastLightChange() *LightChangeEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.LightChanges) == 0 {
		return nil
	}
	return &o.LightChanges[len(o.LightChanges)-1]
}

// Test intersection builders

// CreateTestIntersection creates an intersection with a seeded random source
func CreateTestIntersection(t *testing.T, cfg *config.Config, seed uint64, opts ...Option) *Intersection {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed+1)))}, opts...)
	in, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("Failed to create intersection: %v", err)
	}
	return in
}

// CreateTestVehicle creates a vehicle with a fixed route and spawn offset
func CreateTestVehicle(t *testing.T, cfg *config.Config, initial, final geometry.Direction, offset float64) *actor.Vehicle {
	t.Helper()
	v, err := actor.NewVehicle(cfg, initial, final, offset)
	if err != nil {
		t.Fatalf("Failed to create vehicle %s->%s: %v", initial, final, err)
	}
	return v
}

// RunLights drives the light cycle one timer unit per call from from to limit
// and returns the last timer value used.
func RunLights(in *Intersection, from, limit float64, stop func() bool) float64 {
	timer := from
	for ; timer <= limit; timer++ {
		in.CheckLightsState(timer)
		if stop != nil && stop() {
			break
		}
	}
	return timer
}

// RunUpdates calls Update until done returns true or limit ticks have run.
// It returns the number of ticks executed.
func RunUpdates(in *Intersection, limit int, done func() bool) int {
	for i := 1; i <= limit; i++ {
		in.Update()
		if done != nil && done() {
			return i
		}
	}
	return limit
}

// Test assertions and utilities

// AssertLightState checks the aspect of the light of approach d
func AssertLightState(t *testing.T, in *Intersection, d geometry.Direction, expected signal.State) {
	t.Helper()
	if state := in.Light(d).State(); state != expected {
		t.Errorf("Expected %s light to be %s, got %s", d, expected, state)
	}
}

// AssertPedestrianGroup checks both crossing legs grouped with approach d
func AssertPedestrianGroup(t *testing.T, in *Intersection, d geometry.Direction, expected signal.State) {
	t.Helper()
	for _, leg := range geometry.CrossingLegs(d) {
		p, ok := in.PedestrianLight(leg)
		if !ok {
			t.Errorf("Expected a pedestrian light for leg %s", leg)
			continue
		}
		if p.State() != expected {
			t.Errorf("Expected pedestrian light %s to be %s, got %s", leg, expected, p.State())
		}
	}
}

// AssertStopped checks the decision applied to a vehicle on the last tick
func AssertStopped(t *testing.T, v *actor.Vehicle, expected bool) {
	t.Helper()
	if v.IsStopped() != expected {
		t.Errorf("Expected vehicle %s stopped=%v, decision was %s", v.ID, expected, v.Decision())
	}
}
