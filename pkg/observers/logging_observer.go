// Package observers provides observers for monitoring the intersection, its
// light machines and the timing optimizer
package observers

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/optimizer"
	"github.com/anggasct/crossway/pkg/signal"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// LoggingObserver logs intersection and optimizer events
type LoggingObserver struct {
	level     LogLevel
	prefix    string
	mutex     sync.RWMutex
	formatter LogFormatter
	out       io.Writer
}

// LogFormatter formats log messages
type LogFormatter func(level LogLevel, format string, args ...interface{}) string

// DefaultLogFormatter provides default log formatting
func DefaultLogFormatter(level LogLevel, format string, args ...interface{}) string {
	levelStr := "INFO"
	switch level {
	case LogError:
		levelStr = "ERROR"
	case LogWarning:
		levelStr = "WARN"
	case LogInfo:
		levelStr = "INFO"
	case LogDebug:
		levelStr = "DEBUG"
	}

	return fmt.Sprintf("[%s] %s", levelStr, fmt.Sprintf(format, args...))
}

// NewLoggingObserver creates a new logging observer writing to stdout
func NewLoggingObserver(level LogLevel, prefix string) *LoggingObserver {
	return &LoggingObserver{
		level:     level,
		prefix:    prefix,
		formatter: DefaultLogFormatter,
		out:       os.Stdout,
	}
}

// NewDefaultLoggingObserver creates a logging observer at LogInfo level
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(LogInfo, "crossway")
}

// SetFormatter sets the log formatter
func (o *LoggingObserver) SetFormatter(formatter LogFormatter) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.formatter = formatter
}

// SetOutput redirects the log lines
func (o *LoggingObserver) SetOutput(w io.Writer) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.out = w
}

// log logs a message at the specified level
func (o *LoggingObserver) log(level LogLevel, format string, args ...interface{}) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if level <= o.level {
		prefix := ""
		if o.prefix != "" {
			prefix = fmt.Sprintf("[%s] ", o.prefix)
		}

		message := ""
		if o.formatter != nil {
			message = o.formatter(level, format, args...)
		} else {
			message = fmt.Sprintf(format, args...)
		}

		fmt.Fprintf(o.out, "%s%s\n", prefix, message)
	}
}

// OnLightChange logs light aspect changes
func (o *LoggingObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	o.log(LogInfo, "Light %s: %s -> %s at %.1f", d, from, to, timer)
}

// OnCycleComplete logs the vehicles counted during a cycle
func (o *LoggingObserver) OnCycleComplete(cycle int, passing map[geometry.Direction]int) {
	o.log(LogInfo, "Cycle %d complete: N=%d S=%d E=%d W=%d",
		cycle, passing[geometry.North], passing[geometry.South], passing[geometry.East], passing[geometry.West])
}

// OnVehiclePassed logs stop-line crossings
func (o *LoggingObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	o.log(LogDebug, "Vehicle %s passed %s heading %s", v.ID, d, v.FinalDirection())
}

// OnConflict logs turning conflicts
func (o *LoggingObserver) OnConflict(a, b *actor.Vehicle, policy config.ConflictPolicy) {
	level := LogWarning
	if policy == config.ConflictIgnore {
		level = LogDebug
	}
	o.log(level, "Turning conflict between %s and %s (policy %s)", a.ID, b.ID, policy)
}

// OnGeneration logs search progress
func (o *LoggingObserver) OnGeneration(generation int, best, generationBest float64) {
	o.log(LogDebug, "Generation %d: best %.2f, generation best %.2f", generation, best, generationBest)
}

// OnApplied logs the timing written back to the lights
func (o *LoggingObserver) OnApplied(times map[geometry.Direction]int) {
	o.log(LogInfo, "Applied green times: N=%d S=%d E=%d W=%d",
		times[geometry.North], times[geometry.South], times[geometry.East], times[geometry.West])
}

// OnRepaired logs a rebuilt running timing
func (o *LoggingObserver) OnRepaired(before, after map[geometry.Direction]int) {
	o.log(LogWarning, "Running timing %v violates the constraints, repaired to %v",
		optimizer.TimingFrom(before), optimizer.TimingFrom(after))
}

// OnReport logs the summary of a closed metrics window
func (o *LoggingObserver) OnReport(r optimizer.Report) {
	o.log(LogInfo, "Optimization report: %d vehicles, %.2f avg wait, %.2f max flow, %.1f vehicles/min",
		r.TotalVehiclesPassed, r.AverageWait, r.MaxFlowRate, r.EfficiencyPerMinute)
}

// OnError logs errors
func (o *LoggingObserver) OnError(err error) {
	o.log(LogError, "Error: %v", err)
}

// Machine returns an adapter that logs the transitions of a light machine
func (o *LoggingObserver) Machine(name string) signal.ExtendedObserver {
	return &machineLogger{parent: o, name: name}
}

type machineLogger struct {
	parent *LoggingObserver
	name   string
}

func (m *machineLogger) OnTransition(from string, to string, event string, ctx signal.Context) {
	m.parent.log(LogDebug, "%s: %s -> %s on %s", m.name, from, to, event)
}

func (m *machineLogger) OnStateEnter(state string, ctx signal.Context) {
	m.parent.log(LogDebug, "%s: entering %s", m.name, state)
}

func (m *machineLogger) OnEventRejected(event string, reason string, ctx signal.Context) {
	m.parent.log(LogDebug, "%s: %s rejected: %s", m.name, event, reason)
}

func (m *machineLogger) OnError(err error, ctx signal.Context) {
	m.parent.log(LogError, "%s: %v", m.name, err)
}
