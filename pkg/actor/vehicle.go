package actor

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

// Vehicle is a car entering on one approach and leaving on a reachable heading
type Vehicle struct {
	ID uuid.UUID

	initial geometry.Direction
	final   geometry.Direction
	profile *TurnProfile

	offset     float64
	pos        geometry.Point
	speed      float64
	turnAngle  float64
	turning    bool
	hasTurned  bool
	hasMoved   bool
	hasCounted bool
	decision   Decision

	layout geometry.Layout
	params config.VehicleConfig
}

// NewVehicle creates a vehicle waiting offset units beyond the edge of its approach
func NewVehicle(cfg *config.Config, initial, final geometry.Direction, offset float64) (*Vehicle, error) {
	v := &Vehicle{
		ID:      uuid.New(),
		initial: initial,
		layout:  cfg.Layout(),
		params:  cfg.Vehicle,
	}
	if err := v.Reset(final, offset); err != nil {
		return nil, err
	}
	return v, nil
}

// RandomFinal draws a final direction reachable from initial
func RandomFinal(rng *rand.Rand, initial geometry.Direction) geometry.Direction {
	reachable := geometry.Reachable(initial)
	return reachable[rng.IntN(len(reachable))]
}

// Reset recycles the vehicle in place: new final direction, spawn position and cleared flags
func (v *Vehicle) Reset(final geometry.Direction, offset float64) error {
	profile, err := LookupTurn(v.layout, v.params.Size, v.initial, final)
	if err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}

	v.final = final
	v.profile = profile
	v.offset = offset
	v.pos = v.spawnPoint(offset)
	v.speed = v.params.Speed
	v.turnAngle = 0
	v.turning = false
	v.hasTurned = false
	v.hasMoved = false
	v.hasCounted = false
	v.decision = Go
	return nil
}

// Restart puts the vehicle back on its last spawn point with the same route
func (v *Vehicle) Restart() {
	// the current final direction was accepted by LookupTurn already
	_ = v.Reset(v.final, v.offset)
}

// SpawnOffset returns how far beyond the edge the vehicle was last spawned
func (v *Vehicle) SpawnOffset() float64 { return v.offset }

func (v *Vehicle) spawnPoint(offset float64) geometry.Point {
	size := v.params.Size
	switch v.initial {
	case geometry.North:
		return geometry.Point{X: v.layout.LaneCenter(geometry.North) - size/2, Y: v.layout.Height + offset}
	case geometry.South:
		return geometry.Point{X: v.layout.LaneCenter(geometry.South) - size/2, Y: -size - offset}
	case geometry.East:
		return geometry.Point{X: -size - offset, Y: v.layout.LaneCenter(geometry.East) - size/2}
	default:
		return geometry.Point{X: v.layout.Width + offset, Y: v.layout.LaneCenter(geometry.West) - size/2}
	}
}

// InitialDirection returns the approach the vehicle entered on
func (v *Vehicle) InitialDirection() geometry.Direction { return v.initial }

// FinalDirection returns the heading the vehicle leaves with
func (v *Vehicle) FinalDirection() geometry.Direction { return v.final }

// Position returns the top-left corner of the vehicle
func (v *Vehicle) Position() geometry.Point { return v.pos }

// Speed returns the distance covered on the last tick
func (v *Vehicle) Speed() float64 { return v.speed }

// Size returns the vehicle's side length
func (v *Vehicle) Size() float64 { return v.params.Size }

// TurnAngle returns the current arc angle; zero unless turning
func (v *Vehicle) TurnAngle() float64 { return v.turnAngle }

// TurnProgress returns the completed share of the turn arc in [0, 1]
func (v *Vehicle) TurnProgress() float64 {
	switch {
	case v.hasTurned:
		return 1
	case !v.turning:
		return 0
	}
	return (v.turnAngle - v.profile.Start) / (v.profile.End - v.profile.Start)
}

// TurnProfile returns the turn arc, nil for straight-through vehicles
func (v *Vehicle) TurnProfile() *TurnProfile { return v.profile }

// IsTurning reports whether the vehicle is on its turn arc
func (v *Vehicle) IsTurning() bool { return v.turning }

// HasTurned reports whether the turn has completed
func (v *Vehicle) HasTurned() bool { return v.hasTurned }

// HasMoved reports whether the vehicle has entered the visible area
func (v *Vehicle) HasMoved() bool { return v.hasMoved }

// HasCounted reports whether the vehicle was tallied at its stop line
func (v *Vehicle) HasCounted() bool { return v.hasCounted }

// MarkCounted records the stop-line tally
func (v *Vehicle) MarkCounted() { v.hasCounted = true }

// Decision returns the decision applied on the last tick
func (v *Vehicle) Decision() Decision { return v.decision }

// IsStopped reports whether the vehicle was held on the last tick
func (v *Vehicle) IsStopped() bool { return v.decision.Stopped() }

// Place moves the vehicle to p without advancing the simulation
func (v *Vehicle) Place(p geometry.Point) {
	v.pos = p
	v.verifyMovement()
}

// Mode returns the single active motion mode
func (v *Vehicle) Mode() Mode {
	switch {
	case v.turning:
		return ModeTurning
	case v.hasTurned:
		return ModeStraightFinal
	default:
		return ModeStraightInitial
	}
}

// Heading returns the direction of straight motion: the final direction once
// the turn is complete, the initial one before.
func (v *Vehicle) Heading() geometry.Direction {
	if v.hasTurned {
		return v.final
	}
	return v.initial
}

// Center returns the middle of the vehicle
func (v *Vehicle) Center() geometry.Point {
	half := v.params.Size / 2
	return geometry.Point{X: v.pos.X + half, Y: v.pos.Y + half}
}

// StopLineDistance returns how far the front of the vehicle is from the stop
// line through light, measured along the approach. Negative once crossed.
func (v *Vehicle) StopLineDistance(light geometry.Point) float64 {
	size := v.params.Size
	switch v.initial {
	case geometry.North:
		return v.pos.Y - light.Y
	case geometry.South:
		return light.Y - (v.pos.Y + size)
	case geometry.East:
		return light.X - (v.pos.X + size)
	default:
		return v.pos.X - light.X
	}
}

// OutOfBounds reports whether the vehicle has left the area across the edge
// its final heading points to.
func (v *Vehicle) OutOfBounds() bool {
	if !v.hasMoved {
		return false
	}
	size := v.params.Size
	switch v.final {
	case geometry.North:
		return v.pos.Y < -size
	case geometry.South:
		return v.pos.Y > v.layout.Height
	case geometry.East:
		return v.pos.X > v.layout.Width
	default:
		return v.pos.X < -size
	}
}

// Step applies the tick's decision and advances the vehicle. A stopped vehicle
// neither moves nor progresses along its turn.
func (v *Vehicle) Step(d Decision) {
	v.decision = d
	if d.Stopped() {
		v.speed = 0
		return
	}
	v.speed = v.params.Speed

	if v.profile != nil && !v.turning && !v.hasTurned && v.nearTurningLimit() {
		v.turning = true
		v.turnAngle = v.profile.Start
	}
	v.move()
	v.verifyMovement()
}

func (v *Vehicle) nearTurningLimit() bool {
	return math.Abs(v.pos.X-v.profile.Limit.X) < v.params.Spacing &&
		math.Abs(v.pos.Y-v.profile.Limit.Y) < v.params.Spacing
}

func (v *Vehicle) move() {
	if !v.turning {
		v.pos = v.pos.Add(v.Heading().Vector().Scale(v.speed))
		return
	}

	v.turnAngle += v.params.TurningSpeed
	if v.turnAngle > v.profile.End {
		v.turning = false
		v.hasTurned = true
		v.turnAngle = 0
		v.pos = geometry.Point{X: math.Round(v.pos.X), Y: math.Round(v.pos.Y)}
		v.snapToLane()
		return
	}
	v.pos = v.profile.Position(v.turnAngle)
}

func (v *Vehicle) snapToLane() {
	lane := v.layout.LaneCenter(v.final) - v.params.Size/2
	if v.final.Vertical() {
		v.pos.X = lane
	} else {
		v.pos.Y = lane
	}
}

func (v *Vehicle) verifyMovement() {
	if v.hasMoved {
		return
	}
	switch v.initial {
	case geometry.North:
		v.hasMoved = v.pos.Y < v.layout.Height
	case geometry.South:
		v.hasMoved = v.pos.Y > 0
	case geometry.East:
		v.hasMoved = v.pos.X > 0
	default:
		v.hasMoved = v.pos.X < v.layout.Width
	}
}
