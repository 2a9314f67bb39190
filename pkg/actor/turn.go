package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/anggasct/crossway/pkg/geometry"
)

// ErrUndefinedTurn is returned for an (initial, final) pair outside the
// reachable set. Final directions are always drawn from geometry.Reachable, so
// hitting it is a programming error.
var ErrUndefinedTurn = errors.New("undefined turn")

// Turn is an (initial, final) heading pair
type Turn struct {
	From geometry.Direction
	To   geometry.Direction
}

func (t Turn) String() string {
	return t.From.String() + "->" + t.To.String()
}

// TurnProfile is the arc a turning vehicle follows. The vehicle starts turning
// when it comes within the spacing threshold of Limit, then its position is
// Pivot + Radius·(cos(θ·Sign), sin(θ·Sign)) while θ runs from Start to End.
type TurnProfile struct {
	Limit  geometry.Point
	Pivot  geometry.Point
	Radius float64
	Start  float64
	End    float64
	Sign   float64
}

// Position returns the point on the arc for angle theta
func (p *TurnProfile) Position(theta float64) geometry.Point {
	return geometry.Point{
		X: p.Pivot.X + p.Radius*math.Cos(theta*p.Sign),
		Y: p.Pivot.Y + p.Radius*math.Sin(theta*p.Sign),
	}
}

type angleRange struct {
	start, end, sign float64
}

var turnAngles = map[Turn]angleRange{
	{geometry.West, geometry.North}:  {math.Pi / 2, math.Pi, 1},
	{geometry.West, geometry.South}:  {math.Pi / 2, math.Pi, -1},
	{geometry.East, geometry.North}:  {3 * math.Pi / 2, 2 * math.Pi, -1},
	{geometry.East, geometry.South}:  {3 * math.Pi / 2, 2 * math.Pi, 1},
	{geometry.North, geometry.West}:  {0, math.Pi / 2, -1},
	{geometry.North, geometry.East}:  {math.Pi, 3 * math.Pi / 2, 1},
	{geometry.South, geometry.West}:  {0, math.Pi / 2, 1},
	{geometry.South, geometry.East}:  {math.Pi, 3 * math.Pi / 2, -1},
}

// LookupTurn resolves the turn profile of a vehicle of the given size.
// Straight-through pairs return a nil profile; U-turns return ErrUndefinedTurn.
func LookupTurn(l geometry.Layout, size float64, from, to geometry.Direction) (*TurnProfile, error) {
	if from == to {
		return nil, nil
	}
	turn := Turn{From: from, To: to}
	angles, ok := turnAngles[turn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedTurn, turn)
	}

	c := l.Center()
	lim := l.Limits()
	half := l.RoadWidth / 2
	quarter := l.RoadWidth / 4

	var limit, pivot geometry.Point
	switch turn {
	case Turn{geometry.North, geometry.East}:
		limit = geometry.Point{X: c.X + quarter, Y: lim.Bottom}
		pivot = geometry.Point{X: c.X + half, Y: c.Y + half}
	case Turn{geometry.North, geometry.West}:
		limit = geometry.Point{X: c.X + quarter, Y: c.Y}
		pivot = c
	case Turn{geometry.South, geometry.East}:
		limit = geometry.Point{X: c.X - quarter, Y: c.Y}
		pivot = c
	case Turn{geometry.South, geometry.West}:
		limit = geometry.Point{X: c.X - quarter, Y: lim.Top}
		pivot = geometry.Point{X: c.X - half, Y: c.Y - half}
	case Turn{geometry.East, geometry.North}:
		limit = geometry.Point{X: c.X, Y: c.Y + quarter - size/2}
		pivot = c
	case Turn{geometry.East, geometry.South}:
		limit = geometry.Point{X: lim.Left, Y: c.Y + quarter - size/2}
		pivot = geometry.Point{X: c.X - half, Y: c.Y + half}
	case Turn{geometry.West, geometry.North}:
		limit = geometry.Point{X: lim.Right, Y: c.Y - quarter - size/2}
		pivot = geometry.Point{X: c.X + half, Y: c.Y - half}
	case Turn{geometry.West, geometry.South}:
		limit = geometry.Point{X: c.X, Y: c.Y - quarter - size/2}
		pivot = c
	}

	return &TurnProfile{
		Limit:  limit,
		Pivot:  pivot,
		Radius: quarter,
		Start:  angles.start,
		End:    angles.end,
		Sign:   angles.sign,
	}, nil
}
