package signal

import "github.com/anggasct/crossway/pkg/geometry"

// PedestrianLight guards one crossing leg. It only shows Red or Green and is
// switched by the controller together with the other leg of its group.
type PedestrianLight struct {
	leg      geometry.Node
	position geometry.Point
	state    State
}

// NewPedestrianLight creates a light showing Green
func NewPedestrianLight(leg geometry.Node, position geometry.Point) *PedestrianLight {
	return &PedestrianLight{
		leg:      leg,
		position: position,
		state:    Green,
	}
}

// Leg returns the crossing leg the light guards
func (p *PedestrianLight) Leg() geometry.Node { return p.leg }

// Position returns where the light stands
func (p *PedestrianLight) Position() geometry.Point { return p.position }

// State returns the current aspect
func (p *PedestrianLight) State() State { return p.state }

// Set switches the aspect; pedestrian lights have no yellow
func (p *PedestrianLight) Set(s State) error {
	if s != Red && s != Green {
		return NewInvalidStateError(string(s), "pedestrian lights show red or green only")
	}
	p.state = s
	return nil
}

// Reset shows Green again
func (p *PedestrianLight) Reset() {
	p.state = Green
}
