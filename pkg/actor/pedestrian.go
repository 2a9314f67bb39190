package actor

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

// Pedestrian walks the sidewalk network from one endpoint to another, turning
// at the corners of the central box.
type Pedestrian struct {
	ID uuid.UUID

	initial geometry.Node
	final   geometry.Node
	path    []geometry.Node
	index   int

	movement geometry.Direction
	pos      geometry.Point
	hasMoved bool
	decision Decision

	graph  *geometry.PedestrianGraph
	layout geometry.Layout
	params config.PedestrianConfig
}

// NewPedestrian creates a pedestrian routed from initial to final
func NewPedestrian(cfg *config.Config, graph *geometry.PedestrianGraph, initial, final geometry.Node) (*Pedestrian, error) {
	p := &Pedestrian{
		ID:      uuid.New(),
		initial: initial,
		graph:   graph,
		layout:  cfg.Layout(),
		params:  cfg.Pedestrian,
	}
	if err := p.route(final); err != nil {
		return nil, err
	}
	p.pos = p.layout.EndpointPoint(initial, p.params.Size, p.params.CornerOffset)
	return p, nil
}

// NewRandomPedestrian creates a pedestrian between two distinct random endpoints
func NewRandomPedestrian(cfg *config.Config, graph *geometry.PedestrianGraph, rng *rand.Rand) (*Pedestrian, error) {
	initial := geometry.Endpoints[rng.IntN(len(geometry.Endpoints))]
	return NewPedestrian(cfg, graph, initial, randomEndpoint(rng, initial))
}

func randomEndpoint(rng *rand.Rand, exclude geometry.Node) geometry.Node {
	for {
		n := geometry.Endpoints[rng.IntN(len(geometry.Endpoints))]
		if n != exclude {
			return n
		}
	}
}

func (p *Pedestrian) route(final geometry.Node) error {
	path, err := p.graph.ShortestPath(p.initial, final)
	if err != nil {
		return fmt.Errorf("pedestrian %s: %w", p.ID, err)
	}
	p.final = final
	p.path = path
	return p.enter(0)
}

func (p *Pedestrian) enter(index int) error {
	movement, ok := p.graph.Label(p.path[index], p.path[index+1])
	if !ok {
		return fmt.Errorf("pedestrian %s: no segment %s -> %s", p.ID, p.path[index], p.path[index+1])
	}
	p.index = index
	p.movement = movement
	return nil
}

// InitialDirection returns the endpoint the pedestrian started from
func (p *Pedestrian) InitialDirection() geometry.Node { return p.initial }

// FinalDirection returns the endpoint the pedestrian is heading to
func (p *Pedestrian) FinalDirection() geometry.Node { return p.final }

// Path returns a copy of the route, both endpoints included
func (p *Pedestrian) Path() []geometry.Node {
	path := make([]geometry.Node, len(p.path))
	copy(path, p.path)
	return path
}

// ActualNode returns the node the current segment starts at
func (p *Pedestrian) ActualNode() geometry.Node { return p.path[p.index] }

// Movement returns the label of the segment being walked
func (p *Pedestrian) Movement() geometry.Direction { return p.movement }

// Position returns the top-left corner of the pedestrian
func (p *Pedestrian) Position() geometry.Point { return p.pos }

// Size returns the pedestrian's side length
func (p *Pedestrian) Size() float64 { return p.params.Size }

// HasMoved reports whether the pedestrian has taken a step since its last reset
func (p *Pedestrian) HasMoved() bool { return p.hasMoved }

// Decision returns the decision applied on the last tick
func (p *Pedestrian) Decision() Decision { return p.decision }

// IsStopped reports whether the pedestrian was held on the last tick
func (p *Pedestrian) IsStopped() bool { return p.decision.Stopped() }

func (p *Pedestrian) next() (geometry.Node, bool) {
	if p.index+1 >= len(p.path) {
		return 0, false
	}
	return p.path[p.index+1], true
}

// reached reports whether the pedestrian is at or past the corner's turning
// point along its current movement.
func (p *Pedestrian) reached(corner geometry.Node) bool {
	limit := p.layout.CornerPoint(corner, p.params.Size, p.params.CornerOffset)
	switch p.movement {
	case geometry.North:
		return p.pos.Y <= limit.Y
	case geometry.South:
		return p.pos.Y >= limit.Y
	case geometry.East:
		return p.pos.X >= limit.X
	default:
		return p.pos.X <= limit.X
	}
}

// PendingCrossing returns the crossing leg the pedestrian is about to step on.
// ok is false unless the pedestrian stands at a corner and its next segment is
// a crosswalk.
func (p *Pedestrian) PendingCrossing() (geometry.Node, bool) {
	corner, ok := p.next()
	if !ok || !corner.IsCorner() || p.index+2 >= len(p.path) || !p.reached(corner) {
		return 0, false
	}
	return geometry.CrossingLeg(corner, p.path[p.index+2])
}

// Step applies the tick's decision: a stopped pedestrian stays in place,
// otherwise it switches segment at a reached corner or walks one step.
func (p *Pedestrian) Step(d Decision) {
	p.decision = d
	if d.Stopped() {
		return
	}

	if next, ok := p.next(); ok && next.IsCorner() && p.index+2 < len(p.path) && p.reached(next) {
		// path nodes are linked by construction; a missing label cannot happen here
		_ = p.enter(p.index + 1)
		return
	}
	p.pos = p.pos.Add(p.movement.Vector().Scale(p.params.Speed))
	p.hasMoved = true
}

// OutOfZone reports whether the pedestrian has walked out of the sidewalk zone
func (p *Pedestrian) OutOfZone() bool {
	zone := p.layout.WalkZone()
	return p.pos.X < zone.Left || p.pos.X > zone.Right || p.pos.Y < zone.Top || p.pos.Y > zone.Bottom
}

// Reset moves the pedestrian back to its starting endpoint. With reroute a
// new random final endpoint is drawn, otherwise the route restarts unchanged.
func (p *Pedestrian) Reset(rng *rand.Rand, reroute bool) error {
	p.pos = p.layout.EndpointPoint(p.initial, p.params.Size, p.params.CornerOffset)
	p.hasMoved = false
	p.decision = Go
	if reroute {
		return p.route(randomEndpoint(rng, p.initial))
	}
	return p.enter(0)
}
