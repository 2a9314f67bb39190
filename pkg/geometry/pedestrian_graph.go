package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Node is a point of the pedestrian network: one of the four sidewalk corners
// around the central box or one of the eight sidewalk endpoints. Endpoint
// labels name the arm and the side of it: NE is the east sidewalk of the arm
// northbound traffic arrives on. The same labels name the crossing legs
// guarded by pedestrian lights.
type Node int64

const (
	CornerTL Node = iota
	CornerTR
	CornerBL
	CornerBR
	NE
	SE
	NW
	SW
	EN
	WN
	ES
	WS
)

// Endpoints lists the eight sidewalk endpoints where pedestrians spawn and leave
var Endpoints = []Node{NE, SE, NW, SW, EN, WN, ES, WS}

// ID implements graph.Node
func (n Node) ID() int64 {
	return int64(n)
}

// IsCorner reports whether n is one of the four corners of the central box
func (n Node) IsCorner() bool {
	return n >= CornerTL && n <= CornerBR
}

func (n Node) String() string {
	names := [...]string{"TL", "TR", "BL", "BR", "NE", "SE", "NW", "SW", "EN", "WN", "ES", "WS"}
	if n < 0 || int(n) >= len(names) {
		return fmt.Sprintf("Node(%d)", int64(n))
	}
	return names[n]
}

// DOTID names the node in Graphviz output
func (n Node) DOTID() string { return n.String() }

// Edge is a labelled sidewalk or crosswalk segment
type Edge struct {
	From      Node
	To        Node
	Direction Direction
}

var pedestrianEdges = []Edge{
	{CornerTL, SW, North}, {CornerTL, CornerTR, East}, {CornerTL, CornerBL, South}, {CornerTL, EN, West},
	{CornerTR, SE, North}, {CornerTR, WN, East}, {CornerTR, CornerBR, South}, {CornerTR, CornerTL, West},
	{CornerBR, CornerTR, North}, {CornerBR, WS, East}, {CornerBR, NE, South}, {CornerBR, CornerBL, West},
	{CornerBL, CornerTL, North}, {CornerBL, CornerBR, East}, {CornerBL, NW, South}, {CornerBL, ES, West},
	{EN, CornerTL, East}, {SW, CornerTL, South}, {SE, CornerTR, South}, {WN, CornerTR, West},
	{WS, CornerBR, West}, {NE, CornerBR, North}, {NW, CornerBL, North}, {ES, CornerBL, East},
}

// PedestrianGraph is the directed weighted graph pedestrians route on
type PedestrianGraph struct {
	g      *simple.WeightedDirectedGraph
	labels map[[2]Node]Direction
}

// NewPedestrianGraph builds the pedestrian network; every segment weighs one road width
func NewPedestrianGraph(l Layout) *PedestrianGraph {
	pg := &PedestrianGraph{
		g:      simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		labels: make(map[[2]Node]Direction, len(pedestrianEdges)),
	}
	for _, e := range pedestrianEdges {
		pg.g.SetWeightedEdge(pg.g.NewWeightedEdge(e.From, e.To, l.RoadWidth))
		pg.labels[[2]Node{e.From, e.To}] = e.Direction
	}
	return pg
}

// Graph exposes the underlying weighted directed graph
func (pg *PedestrianGraph) Graph() graph.Directed { return pg.g }

// Edges returns every labelled edge of the network
func (pg *PedestrianGraph) Edges() []Edge {
	edges := make([]Edge, len(pedestrianEdges))
	copy(edges, pedestrianEdges)
	return edges
}

// Label returns the movement direction of the segment from -> to
func (pg *PedestrianGraph) Label(from, to Node) (Direction, bool) {
	d, ok := pg.labels[[2]Node{from, to}]
	return d, ok
}

// ShortestPath returns the node sequence of a shortest route, both ends included
func (pg *PedestrianGraph) ShortestPath(from, to Node) ([]Node, error) {
	if pg.g.Node(from.ID()) == nil || pg.g.Node(to.ID()) == nil {
		return nil, fmt.Errorf("pedestrian graph: unknown node in route %s -> %s", from, to)
	}
	if from == to {
		return nil, fmt.Errorf("pedestrian graph: empty route at %s", from)
	}

	shortest := path.DijkstraFrom(from, pg.g)
	nodes, weight := shortest.To(to.ID())
	if len(nodes) < 2 || math.IsInf(weight, 1) {
		return nil, fmt.Errorf("pedestrian graph: no route %s -> %s", from, to)
	}
	return toNodes(nodes), nil
}

func toNodes(nodes []graph.Node) []Node {
	route := make([]Node, len(nodes))
	for i, n := range nodes {
		route[i] = Node(n.ID())
	}
	return route
}

// CrossingLeg returns the pedestrian-light leg guarding the crosswalk from one
// corner to another. ok is false when the segment is not a crossing.
func CrossingLeg(from, to Node) (Node, bool) {
	switch [2]Node{from, to} {
	case [2]Node{CornerTL, CornerTR}:
		return SW, true
	case [2]Node{CornerTR, CornerTL}:
		return SE, true
	case [2]Node{CornerTL, CornerBL}:
		return EN, true
	case [2]Node{CornerBL, CornerTL}:
		return ES, true
	case [2]Node{CornerTR, CornerBR}:
		return WN, true
	case [2]Node{CornerBR, CornerTR}:
		return WS, true
	case [2]Node{CornerBL, CornerBR}:
		return NW, true
	case [2]Node{CornerBR, CornerBL}:
		return NE, true
	}
	return 0, false
}

// CrossingLegs returns the two pedestrian-light legs grouped with approach d
func CrossingLegs(d Direction) [2]Node {
	switch d {
	case North:
		return [2]Node{NE, NW}
	case South:
		return [2]Node{SE, SW}
	case East:
		return [2]Node{EN, ES}
	default:
		return [2]Node{WN, WS}
	}
}

// Approach returns the vehicle approach a crossing leg is grouped with
func (n Node) Approach() (Direction, bool) {
	switch n {
	case NE, NW:
		return North, true
	case SE, SW:
		return South, true
	case EN, ES:
		return East, true
	case WN, WS:
		return West, true
	}
	return 0, false
}

// CornerPoint returns the point a pedestrian of the given size reaches at a corner
func (l Layout) CornerPoint(n Node, size, offset float64) Point {
	lim := l.Limits()
	switch n {
	case CornerTL:
		return Point{X: lim.Left - size - offset, Y: lim.Top - size - offset}
	case CornerTR:
		return Point{X: lim.Right + offset, Y: lim.Top - size - offset}
	case CornerBL:
		return Point{X: lim.Left - size - offset, Y: lim.Bottom + offset}
	default:
		return Point{X: lim.Right + offset, Y: lim.Bottom + offset}
	}
}

// EndpointPoint returns the spawn point of a sidewalk endpoint
func (l Layout) EndpointPoint(n Node, size, offset float64) Point {
	lim := l.Limits()
	far := 3 * l.RoadWidth / 2
	switch n {
	case NE:
		return Point{X: lim.Right + offset, Y: lim.Bottom + far}
	case SE:
		return Point{X: lim.Right + offset, Y: lim.Top - far - size}
	case NW:
		return Point{X: lim.Left - size - offset, Y: lim.Bottom + far}
	case SW:
		return Point{X: lim.Left - size - offset, Y: lim.Top - far - size}
	case EN:
		return Point{X: lim.Left - far - size, Y: lim.Top - size - offset}
	case WN:
		return Point{X: lim.Right + far, Y: lim.Top - size - offset}
	case ES:
		return Point{X: lim.Left - far - size, Y: lim.Bottom + offset}
	default:
		return Point{X: lim.Right + far, Y: lim.Bottom + offset}
	}
}

// CrossingLightPosition returns where the pedestrian light of a leg stands
func (l Layout) CrossingLightPosition(leg Node, size float64) Point {
	lim := l.Limits()
	switch leg {
	case NE:
		return Point{X: lim.Right, Y: lim.Bottom - size}
	case NW:
		return Point{X: lim.Left - size, Y: lim.Bottom - size}
	case SE:
		return Point{X: lim.Right, Y: lim.Top}
	case SW:
		return Point{X: lim.Left - size, Y: lim.Top}
	case EN:
		return Point{X: lim.Left, Y: lim.Top - size}
	case ES:
		return Point{X: lim.Left, Y: lim.Bottom + size}
	case WN:
		return Point{X: lim.Right - size, Y: lim.Top - size}
	default:
		return Point{X: lim.Right - size, Y: lim.Bottom}
	}
}

// WalkZone returns the box pedestrians are kept in; leaving it recycles them
func (l Layout) WalkZone() Limits {
	lim := l.Limits()
	margin := 2 * l.RoadWidth
	return Limits{
		Top:    lim.Top - margin,
		Bottom: lim.Bottom + margin,
		Left:   lim.Left - margin,
		Right:  lim.Right + margin,
	}
}
