// Package geometry provides the intersection-centered spatial helpers shared by
// actors, lights and the controller, together with the pedestrian routing graph.
package geometry

import (
	"fmt"
	"strings"
)

// Direction is a compass direction. For approaches it names the heading of the
// traffic entering the intersection: North vehicles drive northwards.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// NumDirections is the number of approaches
const NumDirections = 4

// Directions lists every direction in index order
var Directions = []Direction{North, South, East, West}

// String returns the single-letter label used by the configuration surface
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	return d <= West
}

// ParseDirection accepts "N", "north", "North" and so on
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "S", "SOUTH":
		return South, nil
	case "E", "EAST":
		return East, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Vertical reports whether d lies on the north-south axis
func (d Direction) Vertical() bool {
	return d == North || d == South
}

// Perpendicular returns the two directions of the cross axis
func (d Direction) Perpendicular() [2]Direction {
	if d.Vertical() {
		return [2]Direction{East, West}
	}
	return [2]Direction{North, South}
}

// Vector returns the unit step for the heading in screen coordinates (y grows downwards)
func (d Direction) Vector() Point {
	switch d {
	case North:
		return Point{X: 0, Y: -1}
	case South:
		return Point{X: 0, Y: 1}
	case East:
		return Point{X: 1, Y: 0}
	default:
		return Point{X: -1, Y: 0}
	}
}

// Reachable returns the final directions a vehicle entering with heading d may
// leave with: straight on or either turn. U-turns are excluded.
func Reachable(d Direction) []Direction {
	reachable := make([]Direction, 0, NumDirections-1)
	for _, candidate := range Directions {
		if candidate != d.Opposite() {
			reachable = append(reachable, candidate)
		}
	}
	return reachable
}
