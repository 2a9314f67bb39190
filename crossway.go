// Package crossway simulates vehicle and pedestrian traffic through a four-way
// signal-controlled intersection.
//
// An Intersection owns four traffic lights, eight pedestrian lights and the
// actors moving through it. A driver advances it one frame at a time with
// Update and CheckLightsState; the optimizer package searches green-time
// allocations against the demand the intersection reports.
package crossway

import (
	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// Geometry types
type (
	// Direction is an approach or a heading
	Direction = geometry.Direction

	// Point is a position in simulation units
	Point = geometry.Point

	// Node is a point of the pedestrian network
	Node = geometry.Node
)

// Actor and light types
type (
	// Vehicle is a car crossing the intersection
	Vehicle = actor.Vehicle

	// Pedestrian walks the sidewalk network
	Pedestrian = actor.Pedestrian

	// Decision is the per-tick motion decision of an actor
	Decision = actor.Decision

	// TrafficLight is the signal head of one approach
	TrafficLight = signal.TrafficLight

	// PedestrianLight guards one crossing leg
	PedestrianLight = signal.PedestrianLight

	// LightState is the aspect shown by a light
	LightState = signal.State

	// Config is the root configuration
	Config = config.Config
)

// Directions
const (
	North = geometry.North
	South = geometry.South
	East  = geometry.East
	West  = geometry.West
)

// Light aspects
const (
	Red    = signal.Red
	Yellow = signal.Yellow
	Green  = signal.Green
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads and validates a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
