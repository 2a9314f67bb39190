package signal

import "fmt"

// Observer is notified about state changes of a machine
type Observer interface {
	// OnTransition is called after a transition has fired
	OnTransition(from string, to string, event string, ctx Context)

	// OnStateEnter is called when entering a state
	OnStateEnter(state string, ctx Context)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnEventRejected is called when no enabled transition handles an event
	OnEventRejected(event string, reason string, ctx Context)

	// OnError is called when a guard, action or observer fails
	OnError(err error, ctx Context)
}

// BaseObserver provides no-op implementations of every observer method
type BaseObserver struct{}

func (o *BaseObserver) OnTransition(from string, to string, event string, ctx Context) {}

func (o *BaseObserver) OnStateEnter(state string, ctx Context) {}

func (o *BaseObserver) OnEventRejected(event string, reason string, ctx Context) {}

func (o *BaseObserver) OnError(err error, ctx Context) {}

// ObserverManager fans notifications out to observers; a panicking observer
// is reported through OnError and never breaks the machine.
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

func (om *ObserverManager) each(method string, ctx Context, fn func(Observer)) {
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r), ctx)
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// NotifyTransition notifies all observers of a state transition
func (om *ObserverManager) NotifyTransition(from string, to string, event string, ctx Context) {
	om.each("OnTransition", ctx, func(o Observer) {
		o.OnTransition(from, to, event, ctx)
	})
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager) NotifyStateEnter(state string, ctx Context) {
	om.each("OnStateEnter", ctx, func(o Observer) {
		o.OnStateEnter(state, ctx)
	})
}

// NotifyEventRejected notifies all observers of event rejection
func (om *ObserverManager) NotifyEventRejected(event string, reason string, ctx Context) {
	om.each("OnEventRejected", ctx, func(o Observer) {
		if extObs, ok := o.(ExtendedObserver); ok {
			extObs.OnEventRejected(event, reason, ctx)
		}
	})
}

// NotifyError notifies all observers of errors
func (om *ObserverManager) NotifyError(err error, ctx Context) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer func() { recover() }()
				extObs.OnError(err, ctx)
			}()
		}
	}
}
