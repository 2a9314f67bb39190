package optimizer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

// Timing is one candidate allocation of green seconds, indexed by direction.
type Timing [geometry.NumDirections]int

// Demand is the number of vehicles waiting on each approach.
type Demand [geometry.NumDirections]int

// TimingFrom builds a Timing from a per-direction map. Missing directions are 0.
func TimingFrom(m map[geometry.Direction]int) Timing {
	var t Timing
	for d, v := range m {
		if d.Valid() {
			t[d] = v
		}
	}
	return t
}

// DemandFrom builds a Demand from a per-direction map, ignoring negative counts.
func DemandFrom(m map[geometry.Direction]int) Demand {
	var dm Demand
	for d, v := range m {
		if d.Valid() && v > 0 {
			dm[d] = v
		}
	}
	return dm
}

func (t Timing) Sum() int { return lo.Sum(t[:]) }

func (t Timing) Map() map[geometry.Direction]int {
	return lo.SliceToMap(geometry.Directions, func(d geometry.Direction) (geometry.Direction, int) {
		return d, t[d]
	})
}

func (t Timing) String() string {
	parts := lo.Map(geometry.Directions, func(d geometry.Direction, _ int) string {
		return fmt.Sprintf("%s:%d", d, t[d])
	})
	return "{" + strings.Join(parts, " ") + "}"
}

func (d Demand) Total() int { return lo.Sum(d[:]) }

func (d Demand) Map() map[geometry.Direction]int {
	return lo.SliceToMap(geometry.Directions, func(dir geometry.Direction) (geometry.Direction, int) {
		return dir, d[dir]
	})
}

// Constraints bound every allocation the search may produce.
type Constraints struct {
	CycleTime int
	Min       int
	Max       int
	Tolerance float64
}

// ConstraintsFrom extracts the timing bounds from the optimizer configuration.
func ConstraintsFrom(cfg config.OptimizerConfig) Constraints {
	return Constraints{
		CycleTime: cfg.CycleTime,
		Min:       cfg.MinGreenTime,
		Max:       cfg.MaxGreenTime,
		Tolerance: cfg.Tolerance,
	}
}

func (c Constraints) inBounds(t Timing) bool {
	for _, g := range t {
		if g < c.Min || g > c.Max {
			return false
		}
	}
	return true
}

// Valid reports whether t sums exactly to the cycle time with every
// value inside [Min, Max]. Individuals of the population must be Valid.
func (c Constraints) Valid(t Timing) bool {
	return t.Sum() == c.CycleTime && c.inBounds(t)
}

// Acceptable is the looser check applied to the timing found on the
// intersection: the sum may differ from the cycle time by Tolerance.
func (c Constraints) Acceptable(t Timing) bool {
	return math.Abs(float64(t.Sum()-c.CycleTime)) <= c.Tolerance && c.inBounds(t)
}

func (c Constraints) clamp(g int) int {
	return max(c.Min, min(c.Max, g))
}

// Proportional allocates the minimum green to every approach and splits the
// remainder in proportion to demand. With no demand the remainder is split
// evenly. The result is always Valid.
func (c Constraints) Proportional(demand Demand, rng *rand.Rand) Timing {
	total := demand.Total()
	if total == 0 {
		return c.Uniform()
	}

	remaining := c.CycleTime - c.Min*geometry.NumDirections
	var t Timing
	for _, d := range geometry.Directions {
		extra := int(math.Round(float64(remaining) * float64(demand[d]) / float64(total)))
		t[d] = c.clamp(c.Min + extra)
	}

	// rounding leftovers go to the busiest approach first
	busiest := lo.MaxBy(geometry.Directions, func(a, b geometry.Direction) bool {
		return demand[a] > demand[b]
	})
	t[busiest] = c.clamp(t[busiest] + c.CycleTime - t.Sum())

	return c.Repair(t, rng)
}

// Uniform splits the cycle evenly. Leftover seconds go to the first
// directions in index order.
func (c Constraints) Uniform() Timing {
	var t Timing
	share := c.CycleTime / geometry.NumDirections
	rest := c.CycleTime % geometry.NumDirections
	for i := range t {
		t[i] = share
		if i < rest {
			t[i]++
		}
	}
	return t
}

// Random draws a Valid allocation by choosing each direction in turn from
// the range that keeps the remaining directions feasible.
func (c Constraints) Random(rng *rand.Rand) Timing {
	var t Timing
	remaining := c.CycleTime
	for i := range t {
		left := geometry.NumDirections - 1 - i
		lower := max(c.Min, remaining-left*c.Max)
		upper := min(c.Max, remaining-left*c.Min)
		if upper < lower {
			return c.Uniform()
		}
		t[i] = lower + rng.IntN(upper-lower+1)
		remaining -= t[i]
	}
	return t
}

// Repair clips t into bounds, rescales it towards the cycle time and then
// moves single seconds between random directions until the sum is exact.
func (c Constraints) Repair(t Timing, rng *rand.Rand) Timing {
	for i := range t {
		t[i] = c.clamp(t[i])
	}

	if sum := t.Sum(); sum != c.CycleTime && sum > 0 {
		factor := float64(c.CycleTime) / float64(sum)
		for i := range t {
			t[i] = c.clamp(int(math.Round(float64(t[i]) * factor)))
		}
	}

	for diff := c.CycleTime - t.Sum(); diff != 0; diff = c.CycleTime - t.Sum() {
		step := 1
		if diff < 0 {
			step = -1
		}
		candidates := lo.Filter(geometry.Directions, func(d geometry.Direction, _ int) bool {
			return c.Min <= t[d]+step && t[d]+step <= c.Max
		})
		if len(candidates) == 0 {
			// unreachable for a validated config
			return c.Uniform()
		}
		t[candidates[rng.IntN(len(candidates))]] += step
	}
	return t
}
