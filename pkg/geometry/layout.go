package geometry

import "math"

// Point is a position in simulation units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p multiplied by f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Distance returns the Euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Limits is the box where the two roads overlap
type Limits struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Layout describes the simulated area: a horizontal and a vertical road of
// equal width crossing at the center.
type Layout struct {
	Width     float64
	Height    float64
	RoadWidth float64
}

// Center returns the middle of the simulated area
func (l Layout) Center() Point {
	return Point{X: l.Width / 2, Y: l.Height / 2}
}

// Limits returns the bounds of the central box
func (l Layout) Limits() Limits {
	c := l.Center()
	half := l.RoadWidth / 2
	return Limits{
		Top:    c.Y - half,
		Bottom: c.Y + half,
		Left:   c.X - half,
		Right:  c.X + half,
	}
}

// LaneCenter returns the coordinate of the lane carrying heading d: the x
// coordinate for north/south lanes and the y coordinate for east/west lanes.
// Traffic drives on the right.
func (l Layout) LaneCenter(d Direction) float64 {
	c := l.Center()
	quarter := l.RoadWidth / 4
	switch d {
	case North:
		return c.X + quarter
	case South:
		return c.X - quarter
	case East:
		return c.Y + quarter
	default:
		return c.Y - quarter
	}
}

// LightPosition returns the stop-line point of the approach with heading d
func (l Layout) LightPosition(d Direction) Point {
	lim := l.Limits()
	switch d {
	case North:
		return Point{X: l.LaneCenter(North), Y: lim.Bottom}
	case South:
		return Point{X: l.LaneCenter(South), Y: lim.Top}
	case East:
		return Point{X: lim.Left, Y: l.LaneCenter(East)}
	default:
		return Point{X: lim.Right, Y: l.LaneCenter(West)}
	}
}

// Contains reports whether p lies inside the simulated area
func (l Layout) Contains(p Point) bool {
	return p.X >= 0 && p.X <= l.Width && p.Y >= 0 && p.Y <= l.Height
}
