package crossway

import (
	"fmt"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// Observer represents an entity that observes the intersection
type Observer interface {
	// OnLightChange is called when a traffic light changes aspect
	OnLightChange(d geometry.Direction, from, to signal.State, timer float64)

	// OnCycleComplete is called when every light has served its green. passing
	// holds the vehicles counted per approach during the cycle.
	OnCycleComplete(cycle int, passing map[geometry.Direction]int)

	// OnVehiclePassed is called when a vehicle crosses the stop line of its approach
	OnVehiclePassed(v *actor.Vehicle, d geometry.Direction)

	// OnConflict is called when two turning vehicles come too close
	OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnError is called when an error occurs during a tick
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

func (o *BaseObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {}

func (o *BaseObserver) OnCycleComplete(cycle int, passing map[geometry.Direction]int) {}

func (o *BaseObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {}

func (o *BaseObserver) OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {}

func (o *BaseObserver) OnError(err error) {}

// ObserverManager fans notifications out to observers. A panicking observer is
// reported through OnError and never breaks the tick.
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	return len(om.observers)
}

func (om *ObserverManager) each(method string, fn func(Observer)) {
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// NotifyLightChange notifies all observers of a light changing aspect
func (om *ObserverManager) NotifyLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	om.each("OnLightChange", func(o Observer) {
		o.OnLightChange(d, from, to, timer)
	})
}

// NotifyCycleComplete notifies all observers of a completed cycle
func (om *ObserverManager) NotifyCycleComplete(cycle int, passing map[geometry.Direction]int) {
	om.each("OnCycleComplete", func(o Observer) {
		o.OnCycleComplete(cycle, passing)
	})
}

// NotifyVehiclePassed notifies all observers of a counted vehicle
func (om *ObserverManager) NotifyVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	om.each("OnVehiclePassed", func(o Observer) {
		o.OnVehiclePassed(v, d)
	})
}

// NotifyConflict notifies all observers of a turning conflict
func (om *ObserverManager) NotifyConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {
	om.each("OnConflict", func(o Observer) {
		o.OnConflict(a, b, policy)
	})
}

// NotifyError notifies all observers of errors
func (om *ObserverManager) NotifyError(err error) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer func() { recover() }()
				extObs.OnError(err)
			}()
		}
	}
}
