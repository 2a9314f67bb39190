// Package actor implements the vehicles and pedestrians moving through the
// intersection. Actors only know geometry; stop decisions are handed to them
// by the controller once per tick.
package actor

// Decision is the motion decision computed for an actor on a single tick.
// It is recomputed every tick and never carried over.
type Decision uint8

const (
	// Go lets the actor move
	Go Decision = iota
	// StopForLight holds the actor at a yellow or red light
	StopForLight
	// StopForVehicle holds a vehicle that is too close to the one ahead
	StopForVehicle
	// StopForConflict holds a turning vehicle in conflict with another one
	StopForConflict
)

// Stopped reports whether the actor must not move this tick
func (d Decision) Stopped() bool {
	return d != Go
}

// Compound merges two decisions taken on the same tick. The first stop wins.
func (d Decision) Compound(other Decision) Decision {
	if d.Stopped() {
		return d
	}
	return other
}

func (d Decision) String() string {
	switch d {
	case Go:
		return "go"
	case StopForLight:
		return "stop-for-light"
	case StopForVehicle:
		return "stop-for-vehicle"
	case StopForConflict:
		return "stop-for-conflict"
	default:
		return "unknown"
	}
}

// Mode is the motion mode of a vehicle
type Mode uint8

const (
	// ModeStraightInitial is straight motion on the initial heading
	ModeStraightInitial Mode = iota
	// ModeTurning is motion along the turn arc
	ModeTurning
	// ModeStraightFinal is straight motion on the final heading
	ModeStraightFinal
)

func (m Mode) String() string {
	switch m {
	case ModeStraightInitial:
		return "straight-initial"
	case ModeTurning:
		return "turning"
	default:
		return "straight-final"
	}
}
