package crossway

import (
	"math"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// OutcomeKind classifies the result of resolving one pair of vehicles
type OutcomeKind uint8

const (
	// NoConflict means the pair does not interact
	NoConflict OutcomeKind = iota
	// SoftStop holds one vehicle of the pair for the tick
	SoftStop
	// HardConflict records two overlapping turning vehicles under the strict policy
	HardConflict
)

func (k OutcomeKind) String() string {
	switch k {
	case NoConflict:
		return "no-conflict"
	case SoftStop:
		return "soft-stop"
	default:
		return "hard-conflict"
	}
}

// Outcome is the result of resolving a pair of vehicles. A is the stopped
// vehicle of a SoftStop; both A and B are set for a HardConflict. Turning
// marks pairs that overlapped on their turn arcs, whatever the policy did.
type Outcome struct {
	Kind    OutcomeKind
	A       *actor.Vehicle
	B       *actor.Vehicle
	Reason  actor.Decision
	Turning bool
}

// resolvePair decides whether two vehicles interfere. Same-approach vehicles
// in one lane keep the following distance; turning vehicles from different
// approaches are checked for overlap and handled per policy.
func (in *Intersection) resolvePair(a, b *actor.Vehicle) Outcome {
	if a.InitialDirection() == b.InitialDirection() {
		return in.resolveSameLane(a, b)
	}
	if a.IsTurning() && b.IsTurning() && a.Center().Distance(b.Center()) < a.Size() {
		return in.resolveTurning(a, b)
	}
	return Outcome{Kind: NoConflict}
}

// resolveSameLane stops the trailing vehicle when it is within the following
// distance of the one ahead. Progress is measured along the straight heading,
// the final one after a completed turn; vehicles on different headings have
// split and never interfere.
func (in *Intersection) resolveSameLane(a, b *actor.Vehicle) Outcome {
	heading := a.Heading()
	if heading != b.Heading() {
		return Outcome{Kind: NoConflict}
	}

	along := heading.Vector()
	across := geometry.Point{X: -along.Y, Y: along.X}
	ca, cb := a.Center(), b.Center()

	lateral := dot(cb, across) - dot(ca, across)
	if math.Abs(lateral) >= a.Size() {
		return Outcome{Kind: NoConflict}
	}

	gap := dot(cb, along) - dot(ca, along)
	if math.Abs(gap) >= in.cfg.Vehicle.FollowingDistance {
		return Outcome{Kind: NoConflict}
	}

	trailing := b
	if gap > 0 {
		trailing = a
	}
	return Outcome{Kind: SoftStop, A: trailing, Reason: actor.StopForVehicle}
}

// resolveTurning applies the turning-conflict policy. Under the stop policy
// the vehicle with less of its arc behind it yields.
func (in *Intersection) resolveTurning(a, b *actor.Vehicle) Outcome {
	in.observers.NotifyConflict(a, b, in.cfg.Signal.TurnConflict)

	switch in.cfg.Signal.TurnConflict {
	case config.ConflictStop:
		yielding := b
		if a.TurnProgress() < b.TurnProgress() {
			yielding = a
		}
		return Outcome{Kind: SoftStop, A: yielding, Reason: actor.StopForConflict, Turning: true}
	case config.ConflictStrict:
		return Outcome{Kind: HardConflict, A: a, B: b, Reason: actor.StopForConflict, Turning: true}
	default:
		return Outcome{Kind: NoConflict, A: a, B: b, Turning: true}
	}
}

// lightDecision holds a vehicle approaching a yellow or red light inside the
// stop window. Vehicles already counted, turning or turned are past the line.
func (in *Intersection) lightDecision(v *actor.Vehicle) actor.Decision {
	if v.HasCounted() || v.IsTurning() || v.HasTurned() {
		return actor.Go
	}
	light := in.lights[v.InitialDirection()]
	if light.State() == signal.Green {
		return actor.Go
	}
	distance := v.StopLineDistance(light.Position())
	if distance >= 0 && distance < in.cfg.Vehicle.StopDistance {
		return actor.StopForLight
	}
	return actor.Go
}

func dot(p, q geometry.Point) float64 {
	return p.X*q.X + p.Y*q.Y
}
