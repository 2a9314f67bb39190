package signal

import (
	"context"
	"sync"
)

// GuardFunc decides whether a transition may fire
type GuardFunc func(ctx Context) bool

// ActionFunc runs while a transition fires or a state is entered
type ActionFunc func(ctx Context) error

// Context gives guards and actions access to the event being handled and to
// the machine's key/value bag
type Context interface {
	context.Context

	Get(key string) (any, bool)
	Set(key string, value any)

	GetCurrentState() string
	GetSourceState() string
	GetTargetState() string

	GetEventName() string
	GetEventData() any
}

type machineContext struct {
	context.Context

	data         map[string]any
	currentState string
	sourceState  string
	targetState  string
	eventName    string
	eventData    any

	mutex sync.RWMutex
}

func newMachineContext() *machineContext {
	return &machineContext{
		Context: context.Background(),
		data:    make(map[string]any),
	}
}

// Get retrieves a value from the context
func (c *machineContext) Get(key string) (any, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	value, ok := c.data[key]
	return value, ok
}

// Set stores a value in the context
func (c *machineContext) Set(key string, value any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data[key] = value
}

func (c *machineContext) GetCurrentState() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.currentState
}

func (c *machineContext) GetSourceState() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.sourceState
}

func (c *machineContext) GetTargetState() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.targetState
}

func (c *machineContext) GetEventName() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.eventName
}

func (c *machineContext) GetEventData() any {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.eventData
}

func (c *machineContext) beginEvent(parent context.Context, name string, data any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Context = parent
	c.eventName = name
	c.eventData = data
	c.sourceState = c.currentState
	c.targetState = ""
}

func (c *machineContext) updateTransition(source, target string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sourceState = source
	c.targetState = target
}

func (c *machineContext) updateCurrentState(state string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.currentState = state
}
