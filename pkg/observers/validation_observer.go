package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// ValidationObserver checks the light cycle of an intersection: every change
// must follow an allowed aspect sequence and at most one approach may show a
// non-red aspect at a time.
type ValidationObserver struct {
	allowedTransitions map[signal.State]map[signal.State]bool
	states             map[geometry.Direction]signal.State
	served             map[geometry.Direction]bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates a validator preloaded with the
// red, yellow, green, yellow, red sequence
func NewValidationObserver() *ValidationObserver {
	o := &ValidationObserver{
		allowedTransitions: make(map[signal.State]map[signal.State]bool),
		states:             make(map[geometry.Direction]signal.State),
		served:             make(map[geometry.Direction]bool),
		violations:         make([]string, 0),
	}
	o.AddAllowedTransition(signal.Red, signal.Yellow)
	o.AddAllowedTransition(signal.Yellow, signal.Green)
	o.AddAllowedTransition(signal.Green, signal.Yellow)
	o.AddAllowedTransition(signal.Yellow, signal.Red)
	return o
}

// AddAllowedTransition adds an allowed transition
func (o *ValidationObserver) AddAllowedTransition(from, to signal.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[signal.State]bool)
	}

	o.allowedTransitions[from][to] = true
}

func (o *ValidationObserver) addViolation(format string, args ...interface{}) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnLightChange validates the aspect sequence and the single lit approach
func (o *ValidationObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.allowedTransitions[from][to] {
		o.addViolation("Invalid transition of %s from '%s' to '%s' at %.1f", d, from, to, timer)
	}
	if known, ok := o.states[d]; ok && known != from {
		o.addViolation("Light %s left '%s' but was last seen '%s'", d, from, known)
	}
	o.states[d] = to
	if to == signal.Green {
		o.served[d] = true
	}

	if to != signal.Red {
		for other, state := range o.states {
			if other != d && state != signal.Red {
				o.addViolation("Lights %s and %s are both lit at %.1f", d, other, timer)
			}
		}
	}
}

// OnCycleComplete validates that every approach was served
func (o *ValidationObserver) OnCycleComplete(cycle int, passing map[geometry.Direction]int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	for _, d := range geometry.Directions {
		if !o.served[d] {
			o.addViolation("Cycle %d completed without serving %s", cycle, d)
		}
	}
	o.served = make(map[geometry.Direction]bool)
}

func (o *ValidationObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	if v.InitialDirection() != d {
		o.mutex.Lock()
		defer o.mutex.Unlock()
		o.addViolation("Vehicle %s from %s counted on %s", v.ID, v.InitialDirection(), d)
	}
}

// OnConflict treats conflicts under the strict policy as violations
func (o *ValidationObserver) OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {
	if policy != config.ConflictStrict {
		return
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.addViolation("Hard conflict between %s and %s", a.ID, b.ID)
}

// OnError records errors as violations
func (o *ValidationObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.addViolation("Error occurred: %v", err)
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnservedApproaches returns the approaches not yet green in the running cycle
func (o *ValidationObserver) GetUnservedApproaches() []geometry.Direction {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unserved []geometry.Direction
	for _, d := range geometry.Directions {
		if !o.served[d] {
			unserved = append(unserved, d)
		}
	}
	return unserved
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.states = make(map[geometry.Direction]signal.State)
	o.served = make(map[geometry.Direction]bool)
	o.violations = make([]string, 0)
}
