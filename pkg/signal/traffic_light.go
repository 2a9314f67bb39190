package signal

import (
	"fmt"
	"math"
	"sync"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

// State is the aspect shown by a light
type State string

const (
	Red    State = "red"
	Yellow State = "yellow"
	Green  State = "green"
)

// EventTick advances a traffic light; its data is the driver's timer as float64
const EventTick = "tick"

const lightKey = "light"

// absorbs drift of timers advanced in fractional steps
const timerEpsilon = 1e-9

var (
	trafficLightOnce sync.Once
	trafficLightDef  *Definition
)

// TrafficLightDefinition returns the state machine shared by every traffic light.
//
//	red    -> yellow  active, not yet green this cycle, red time elapsed
//	yellow -> green   yellow time elapsed, coming from red
//	yellow -> red     yellow time elapsed, coming from green
//	green  -> yellow  green time elapsed; marks the light as served
func TrafficLightDefinition() *Definition {
	trafficLightOnce.Do(func() {
		def, err := NewMachine().
			State(string(Red)).Initial().OnEntry(enterPhase).
			To(string(Yellow)).On(EventTick).When(redElapsed).
			State(string(Yellow)).OnEntry(enterPhase).
			To(string(Green)).On(EventTick).When(yellowElapsedFrom(Red)).
			To(string(Red)).On(EventTick).When(yellowElapsedFrom(Green)).
			State(string(Green)).OnEntry(enterGreen).
			To(string(Yellow)).On(EventTick).When(greenElapsed).Do(markServed).
			Build()
		if err != nil {
			panic(fmt.Sprintf("traffic light definition: %v", err))
		}
		trafficLightDef = def
	})
	return trafficLightDef
}

func lightFrom(ctx Context) *TrafficLight {
	value, _ := ctx.Get(lightKey)
	light, _ := value.(*TrafficLight)
	return light
}

func timerFrom(ctx Context) float64 {
	timer, _ := ctx.GetEventData().(float64)
	return timer
}

func redElapsed(ctx Context) bool {
	l := lightFrom(ctx)
	return l.active && !l.wasGreen && l.elapsed(timerFrom(ctx), l.redTime)
}

func yellowElapsedFrom(from State) GuardFunc {
	return func(ctx Context) bool {
		l := lightFrom(ctx)
		return l.lastState == from && l.elapsed(timerFrom(ctx), l.yellowTime)
	}
}

func greenElapsed(ctx Context) bool {
	l := lightFrom(ctx)
	return l.elapsed(timerFrom(ctx), float64(l.serving))
}

func markServed(ctx Context) error {
	lightFrom(ctx).wasGreen = true
	return nil
}

func enterPhase(ctx Context) error {
	l := lightFrom(ctx)
	if l == nil {
		return fmt.Errorf("no light bound to machine")
	}
	l.lastState = State(ctx.GetSourceState())
	l.since = timerFrom(ctx)
	return nil
}

func enterGreen(ctx Context) error {
	if err := enterPhase(ctx); err != nil {
		return err
	}
	l := lightFrom(ctx)
	l.serving = l.greenTime
	return nil
}

// TrafficLight is the signal head of one approach. Its phases are driven by a
// machine created from TrafficLightDefinition; the intersection controller
// decides which light is active and feeds it the timer.
type TrafficLight struct {
	direction geometry.Direction
	position  geometry.Point
	machine   *Machine

	lastState State
	wasGreen  bool
	active    bool
	since     float64

	mode       config.TimingMode
	redTime    float64
	yellowTime float64
	greenTime  int
	serving    int

	passing int
}

// NewTrafficLight creates a started light in Red
func NewTrafficLight(d geometry.Direction, position geometry.Point, cfg config.SignalConfig) (*TrafficLight, error) {
	l := &TrafficLight{
		direction:  d,
		position:   position,
		machine:    TrafficLightDefinition().CreateInstance(),
		lastState:  Green,
		mode:       cfg.Timing,
		redTime:    cfg.RedTime,
		yellowTime: cfg.YellowTime,
		greenTime:  cfg.GreenTimes.For(d),
	}
	l.serving = l.greenTime
	l.machine.Context().Set(lightKey, l)
	if err := l.machine.Start(); err != nil {
		return nil, err
	}
	return l, nil
}

// elapsed reports whether duration has passed since the phase started. In
// the multiple mode the timer must have crossed a multiple of duration after
// the phase started instead; a zero duration fires at once in both modes.
func (l *TrafficLight) elapsed(timer, duration float64) bool {
	if l.mode != config.TimingMultiple || duration <= 0 {
		return timer-l.since >= duration
	}
	return math.Floor((timer+timerEpsilon)/duration) > math.Floor((l.since+timerEpsilon)/duration)
}

// Direction returns the approach the light controls
func (l *TrafficLight) Direction() geometry.Direction { return l.direction }

// Position returns the stop-line point of the approach
func (l *TrafficLight) Position() geometry.Point { return l.position }

// State returns the current aspect
func (l *TrafficLight) State() State { return State(l.machine.CurrentState()) }

// LastState returns the aspect shown before the current one
func (l *TrafficLight) LastState() State { return l.lastState }

// WasGreen reports whether the light has served its green in the current cycle
func (l *TrafficLight) WasGreen() bool { return l.wasGreen }

// Active reports whether the light holds the current phase of the cycle
func (l *TrafficLight) Active() bool { return l.active }

// Completed reports whether the light has served its green and is back to red
func (l *TrafficLight) Completed() bool {
	return l.wasGreen && l.State() == Red
}

// Since returns the timer value the current phase started at
func (l *TrafficLight) Since() float64 { return l.since }

// GreenTime returns the configured green duration
func (l *TrafficLight) GreenTime() int { return l.greenTime }

// RedTime returns the delay between activation and yellow
func (l *TrafficLight) RedTime() float64 { return l.redTime }

// YellowTime returns the yellow duration
func (l *TrafficLight) YellowTime() float64 { return l.yellowTime }

// PassingVehicles returns the number of vehicles counted in the current cycle
func (l *TrafficLight) PassingVehicles() int { return l.passing }

// MarkPassing counts one vehicle crossing the stop line
func (l *TrafficLight) MarkPassing() { l.passing++ }

// SetGreenTime changes the green duration. A green phase in progress keeps
// the duration it started with.
func (l *TrafficLight) SetGreenTime(seconds int) {
	l.greenTime = seconds
}

// Activate hands the current phase of the cycle to the light, starting its
// red time at timer. Activating an active light is a no-op.
func (l *TrafficLight) Activate(timer float64) {
	if l.active {
		return
	}
	l.active = true
	l.since = timer
}

// Check advances the light's machine with the timer and reports the change, if any
func (l *TrafficLight) Check(timer float64) (changed bool, from, to State) {
	result := l.machine.HandleEvent(EventTick, timer)
	if !result.StateChanged {
		return false, State(result.CurrentState), State(result.CurrentState)
	}
	return true, State(result.PreviousState), State(result.CurrentState)
}

// ForceState sets the aspect directly, bypassing guards and timing
func (l *TrafficLight) ForceState(s State) error {
	return l.machine.SetState(string(s))
}

// ResetCycle starts a new count window: the light is no longer served,
// inactive and its passing counter is zeroed.
func (l *TrafficLight) ResetCycle() {
	l.wasGreen = false
	l.active = false
	l.passing = 0
}

// Reset returns the light to its construction state, keeping the configured green time
func (l *TrafficLight) Reset() {
	l.machine.Reset()
	l.ResetCycle()
	l.lastState = Green
	l.since = 0
	l.serving = l.greenTime
}

// AddObserver attaches an observer to the light's machine
func (l *TrafficLight) AddObserver(observer Observer) {
	l.machine.AddObserver(observer)
}
