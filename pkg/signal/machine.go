// Package signal implements the intersection's signal heads: a small fluent
// finite-state-machine engine and the traffic and pedestrian lights built on it.
package signal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// EventResult represents the result of processing an event
type EventResult struct {
	Processed       bool
	StateChanged    bool
	PreviousState   string
	CurrentState    string
	Error           error
	RejectionReason string
}

// NewEventResult creates a new event result
func NewEventResult(processed, stateChanged bool, prevState, currentState string) *EventResult {
	return &EventResult{
		Processed:     processed,
		StateChanged:  stateChanged,
		PreviousState: prevState,
		CurrentState:  currentState,
	}
}

// WithError adds an error to the event result
func (r *EventResult) WithError(err error) *EventResult {
	r.Error = err
	return r
}

// WithRejection adds a rejection reason to the event result
func (r *EventResult) WithRejection(reason string) *EventResult {
	r.RejectionReason = reason
	r.Processed = false
	return r
}

// Success returns true if the event was processed successfully
func (r *EventResult) Success() bool {
	return r.Processed && r.Error == nil
}

// Machine is a running instance of a Definition
type Machine struct {
	definition *Definition
	current    string
	started    bool
	context    *machineContext
	observers  *ObserverManager
	mutex      sync.RWMutex
}

func safeEvaluateGuard(guard GuardFunc, ctx Context) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("guard panic: %v", r)
		}
	}()

	return guard(ctx), nil
}

func safeExecuteAction(action ActionFunc, ctx Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()

	return action(ctx)
}

// Definition returns the definition the machine was created from
func (m *Machine) Definition() *Definition {
	return m.definition
}

// Start starts the machine in its initial state
func (m *Machine) Start() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.started {
		return NewMachineError(ErrCodeInvalidState, "Start", "machine is already started")
	}
	m.started = true
	m.observers.NotifyStateEnter(m.current, m.context)
	return nil
}

// Stop stops processing events; the current state is kept
func (m *Machine) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.started {
		return NewMachineNotStartedError("Stop")
	}
	m.started = false
	return nil
}

// IsStarted reports whether the machine accepts events
func (m *Machine) IsStarted() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.started
}

// Reset moves the machine back to the initial state without running actions.
// A started machine stays started.
func (m *Machine) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	previous := m.current
	m.current = m.definition.initialState
	m.context.updateCurrentState(m.current)
	if previous != m.current {
		m.observers.NotifyStateEnter(m.current, m.context)
		m.observers.NotifyTransition(previous, m.current, "", m.context)
	}
}

// CurrentState returns the current state
func (m *Machine) CurrentState() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// SetState forces the current state without evaluating guards or running actions
func (m *Machine) SetState(state string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.definition.HasState(state) {
		return NewStateNotFoundError(state)
	}

	previous := m.current
	m.current = state
	m.context.updateCurrentState(state)

	if previous != state {
		m.observers.NotifyStateEnter(state, m.context)
		m.observers.NotifyTransition(previous, state, "", m.context)
	}
	return nil
}

// Context returns the machine's context; values stored in it are visible to
// every guard and action.
func (m *Machine) Context() Context {
	return m.context
}

// AddObserver registers an observer
func (m *Machine) AddObserver(observer Observer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (m *Machine) RemoveObserver(observer Observer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.observers.RemoveObserver(observer)
}

// HandleEvent handles an event synchronously
func (m *Machine) HandleEvent(eventName string, eventData any) *EventResult {
	return m.HandleEventWithContext(context.Background(), eventName, eventData)
}

// HandleEventWithContext fires the first transition leaving the current state
// whose event matches and whose guard passes. The transition action runs before
// the state changes and a failing action aborts the transition. The target
// state's entry action runs after the change.
func (m *Machine) HandleEventWithContext(ctx context.Context, eventName string, eventData any) *EventResult {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.started {
		return NewEventResult(false, false, m.current, m.current).
			WithRejection("machine is not started").
			WithError(NewMachineNotStartedError("HandleEvent"))
	}

	if strings.TrimSpace(eventName) == "" {
		reason := "event name cannot be empty"
		m.observers.NotifyEventRejected(eventName, reason, m.context)
		return NewEventResult(false, false, m.current, m.current).
			WithRejection(reason).
			WithError(errors.New(reason))
	}

	m.context.beginEvent(ctx, eventName, eventData)

	transition, ok := m.findMatchingTransition(eventName)
	if !ok {
		err := NewNoTransitionError(m.current, eventName)
		m.observers.NotifyEventRejected(eventName, err.Reason, m.context)
		return NewEventResult(false, false, m.current, m.current).
			WithRejection(err.Reason).
			WithError(err)
	}

	previous := m.current
	m.context.updateTransition(previous, transition.TargetState)

	if transition.Action != nil {
		if err := safeExecuteAction(transition.Action, m.context); err != nil {
			actionErr := NewActionError("transition", previous, err)
			m.observers.NotifyError(actionErr, m.context)
			return NewEventResult(false, false, previous, previous).
				WithError(actionErr)
		}
	}

	m.current = transition.TargetState
	m.context.updateCurrentState(m.current)

	result := NewEventResult(true, previous != m.current, previous, m.current)
	if entry := m.definition.entry[m.current]; entry != nil {
		if err := safeExecuteAction(entry, m.context); err != nil {
			actionErr := NewActionError("entry", m.current, err)
			m.observers.NotifyError(actionErr, m.context)
			result.WithError(actionErr)
		}
	}

	m.observers.NotifyStateEnter(m.current, m.context)
	m.observers.NotifyTransition(previous, m.current, eventName, m.context)
	return result
}

func (m *Machine) findMatchingTransition(eventName string) (Transition, bool) {
	for _, t := range m.definition.transitions[m.current] {
		if t.EventName != eventName {
			continue
		}
		if t.Guard == nil {
			return t, true
		}
		passed, err := safeEvaluateGuard(t.Guard, m.context)
		if err != nil {
			m.observers.NotifyError(err, m.context)
			continue
		}
		if passed {
			return t, true
		}
	}
	return Transition{}, false
}
