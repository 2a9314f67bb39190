package signal

import (
	"fmt"
	"strings"
)

// Transition is a guarded edge between two states triggered by an event
type Transition struct {
	SourceState string
	TargetState string
	EventName   string
	Guard       GuardFunc
	Action      ActionFunc
}

// MachineBuilder is the entry point of the fluent definition API
type MachineBuilder interface {
	State(id string) StateBuilder
	Build() (*Definition, error)
}

// StateBuilder configures a single state
type StateBuilder interface {
	Initial() StateBuilder
	OnEntry(action ActionFunc) StateBuilder
	To(target string) TransitionBuilder

	State(id string) StateBuilder
	Build() (*Definition, error)
}

// TransitionBuilder configures the transition created by the last To call
type TransitionBuilder interface {
	On(event string) TransitionBuilder
	When(guard GuardFunc) TransitionBuilder
	Unless(guard GuardFunc) TransitionBuilder
	Do(action ActionFunc) TransitionBuilder

	// Another transition from the same source state
	To(target string) TransitionBuilder

	State(id string) StateBuilder
	Build() (*Definition, error)
}

type machineBuilderImpl struct {
	states      []string
	known       map[string]bool
	entry       map[string]ActionFunc
	initials    []string
	transitions []*Transition
}

// NewMachine creates a new machine builder
func NewMachine() MachineBuilder {
	return &machineBuilderImpl{
		known: make(map[string]bool),
		entry: make(map[string]ActionFunc),
	}
}

// State creates or reopens a state
func (mb *machineBuilderImpl) State(id string) StateBuilder {
	if !mb.known[id] {
		mb.known[id] = true
		mb.states = append(mb.states, id)
	}
	return &stateBuilderImpl{machineBuilder: mb, stateID: id}
}

// Build validates the configuration and freezes it into a Definition
func (mb *machineBuilderImpl) Build() (*Definition, error) {
	if err := mb.validate(); err != nil {
		return nil, err
	}

	def := &Definition{
		initialState: mb.initials[0],
		states:       append([]string(nil), mb.states...),
		entry:        make(map[string]ActionFunc, len(mb.entry)),
		transitions:  make(map[string][]Transition, len(mb.states)),
	}
	for id, action := range mb.entry {
		def.entry[id] = action
	}
	for _, t := range mb.transitions {
		def.transitions[t.SourceState] = append(def.transitions[t.SourceState], *t)
	}
	return def, nil
}

func (mb *machineBuilderImpl) validate() error {
	switch len(mb.initials) {
	case 0:
		return NewConfigurationError("StateMachine", "no initial state defined")
	case 1:
	default:
		return NewConfigurationError("StateMachine", fmt.Sprintf("multiple initial states: %s", strings.Join(mb.initials, ", ")))
	}

	for _, t := range mb.transitions {
		if !mb.known[t.TargetState] {
			return NewConfigurationError("Transition", fmt.Sprintf("target state '%s' does not exist for transition from '%s'", t.TargetState, t.SourceState))
		}
		if strings.TrimSpace(t.EventName) == "" {
			return NewConfigurationError("Transition", fmt.Sprintf("transition %s->%s has no event", t.SourceState, t.TargetState))
		}
	}
	return nil
}

type stateBuilderImpl struct {
	machineBuilder *machineBuilderImpl
	stateID        string
}

// Initial marks the state as the machine's initial state
func (sb *stateBuilderImpl) Initial() StateBuilder {
	for _, id := range sb.machineBuilder.initials {
		if id == sb.stateID {
			return sb
		}
	}
	sb.machineBuilder.initials = append(sb.machineBuilder.initials, sb.stateID)
	return sb
}

// OnEntry sets the action run after a transition enters the state
func (sb *stateBuilderImpl) OnEntry(action ActionFunc) StateBuilder {
	sb.machineBuilder.entry[sb.stateID] = action
	return sb
}

// To creates a transition to another state
func (sb *stateBuilderImpl) To(target string) TransitionBuilder {
	t := &Transition{SourceState: sb.stateID, TargetState: target}
	sb.machineBuilder.transitions = append(sb.machineBuilder.transitions, t)
	return &transitionBuilderImpl{source: sb, transition: t}
}

func (sb *stateBuilderImpl) State(id string) StateBuilder {
	return sb.machineBuilder.State(id)
}

func (sb *stateBuilderImpl) Build() (*Definition, error) {
	return sb.machineBuilder.Build()
}

type transitionBuilderImpl struct {
	source     *stateBuilderImpl
	transition *Transition
}

// On sets the event for this transition
func (tb *transitionBuilderImpl) On(event string) TransitionBuilder {
	tb.transition.EventName = event
	return tb
}

// When adds a guard condition
func (tb *transitionBuilderImpl) When(guard GuardFunc) TransitionBuilder {
	tb.transition.Guard = guard
	return tb
}

// Unless adds a negated guard condition
func (tb *transitionBuilderImpl) Unless(guard GuardFunc) TransitionBuilder {
	tb.transition.Guard = func(ctx Context) bool {
		return !guard(ctx)
	}
	return tb
}

// Do sets the action run before the state changes
func (tb *transitionBuilderImpl) Do(action ActionFunc) TransitionBuilder {
	tb.transition.Action = action
	return tb
}

func (tb *transitionBuilderImpl) To(target string) TransitionBuilder {
	return tb.source.To(target)
}

func (tb *transitionBuilderImpl) State(id string) StateBuilder {
	return tb.source.State(id)
}

func (tb *transitionBuilderImpl) Build() (*Definition, error) {
	return tb.source.Build()
}

// Definition is a validated, immutable machine configuration. Any number of
// machines can be instantiated from it.
type Definition struct {
	initialState string
	states       []string
	entry        map[string]ActionFunc
	transitions  map[string][]Transition
}

// InitialState returns the state new machines start in
func (d *Definition) InitialState() string {
	return d.initialState
}

// States returns the state ids in declaration order
func (d *Definition) States() []string {
	return append([]string(nil), d.states...)
}

// HasState reports whether id is a declared state
func (d *Definition) HasState(id string) bool {
	for _, s := range d.states {
		if s == id {
			return true
		}
	}
	return false
}

// HasEntryAction reports whether state runs an action when entered
func (d *Definition) HasEntryAction(state string) bool {
	return d.entry[state] != nil
}

// Transitions returns the transitions leaving state, in declaration order
func (d *Definition) Transitions(state string) []Transition {
	return append([]Transition(nil), d.transitions[state]...)
}

// CreateInstance creates a stopped machine from the definition
func (d *Definition) CreateInstance() *Machine {
	m := &Machine{
		definition: d,
		current:    d.initialState,
		context:    newMachineContext(),
		observers:  NewObserverManager(),
	}
	m.context.updateCurrentState(d.initialState)
	return m
}
