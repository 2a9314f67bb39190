package observers

import (
	"sync"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// MetricsObserver collects counters about the intersection and the optimizer
type MetricsObserver struct {
	lightChanges     map[string]int
	aspectTime       map[geometry.Direction]map[signal.State]float64
	lastChange       map[geometry.Direction]lightMark
	passed           map[geometry.Direction]int
	conflicts        map[config.ConflictPolicy]int
	cycles           int
	generations      int
	bestFitness      float64
	applied          int
	errorCount       int
	machineEntries   map[string]int
	transitionCounts map[string]int
	mutex            sync.RWMutex
}

type lightMark struct {
	state signal.State
	timer float64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{}
	o.reset()
	return o
}

func (o *MetricsObserver) reset() {
	o.lightChanges = make(map[string]int)
	o.aspectTime = make(map[geometry.Direction]map[signal.State]float64)
	o.lastChange = make(map[geometry.Direction]lightMark)
	o.passed = make(map[geometry.Direction]int)
	o.conflicts = make(map[config.ConflictPolicy]int)
	o.cycles = 0
	o.generations = 0
	o.bestFitness = 0
	o.applied = 0
	o.errorCount = 0
	o.machineEntries = make(map[string]int)
	o.transitionCounts = make(map[string]int)
}

// OnLightChange records the change and the time spent in the previous aspect
func (o *MetricsObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.lightChanges[string(from)+"->"+string(to)]++
	if mark, ok := o.lastChange[d]; ok && mark.state == from {
		if o.aspectTime[d] == nil {
			o.aspectTime[d] = make(map[signal.State]float64)
		}
		o.aspectTime[d][from] += timer - mark.timer
	}
	o.lastChange[d] = lightMark{state: to, timer: timer}
}

// OnCycleComplete records cycle metrics
func (o *MetricsObserver) OnCycleComplete(cycle int, passing map[geometry.Direction]int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.cycles++
	// the lights restart their timers with the new cycle
	o.lastChange = make(map[geometry.Direction]lightMark)
}

// OnVehiclePassed records stop-line crossings
func (o *MetricsObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.passed[d]++
}

// OnConflict records turning conflicts per policy
func (o *MetricsObserver) OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.conflicts[policy]++
}

// OnGeneration records search progress
func (o *MetricsObserver) OnGeneration(generation int, best, generationBest float64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.generations++
	o.bestFitness = best
}

// OnApplied records a timing write-back
func (o *MetricsObserver) OnApplied(times map[geometry.Direction]int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.applied++
}

// OnError records error metrics
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// OnTransition records light machine transitions; attach it with
// TrafficLight.AddObserver
func (o *MetricsObserver) OnTransition(from string, to string, event string, ctx signal.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.transitionCounts[from+"->"+to]++
}

// OnStateEnter records light machine state entries
func (o *MetricsObserver) OnStateEnter(state string, ctx signal.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.machineEntries[state]++
}

// GetLightChangeCounts returns the number of times each aspect change occurred
func (o *MetricsObserver) GetLightChangeCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int)
	for change, count := range o.lightChanges {
		result[change] = count
	}
	return result
}

// GetAspectTime returns the timer units each approach spent in each aspect
func (o *MetricsObserver) GetAspectTime(d geometry.Direction) map[signal.State]float64 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[signal.State]float64)
	for state, spent := range o.aspectTime[d] {
		result[state] = spent
	}
	return result
}

// GetPassedCounts returns the vehicles counted per approach
func (o *MetricsObserver) GetPassedCounts() map[geometry.Direction]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[geometry.Direction]int)
	for d, count := range o.passed {
		result[d] = count
	}
	return result
}

// GetConflictCounts returns the turning conflicts per policy
func (o *MetricsObserver) GetConflictCounts() map[config.ConflictPolicy]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[config.ConflictPolicy]int)
	for policy, count := range o.conflicts {
		result[policy] = count
	}
	return result
}

// GetTransitionCounts returns the light machine transitions seen
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int)
	for transition, count := range o.transitionCounts {
		result[transition] = count
	}
	return result
}

// GetStateEntryCounts returns the light machine state entries seen
func (o *MetricsObserver) GetStateEntryCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int)
	for state, count := range o.machineEntries {
		result[state] = count
	}
	return result
}

func (o *MetricsObserver) GetCycleCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.cycles
}

func (o *MetricsObserver) GetGenerationCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.generations
}

func (o *MetricsObserver) GetBestFitness() float64 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.bestFitness
}

func (o *MetricsObserver) GetAppliedCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.applied
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.reset()
}
