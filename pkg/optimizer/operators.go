package optimizer

import (
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"

	"github.com/anggasct/crossway/pkg/geometry"
)

// Individual is a scored allocation.
type Individual struct {
	Timing  Timing
	Fitness float64
}

// evaluate scores the population and sorts it by descending fitness. The
// sort is stable so equal scores keep their seeding order.
func evaluate(population []Timing, demand Demand, f *Fitness) []Individual {
	scored := lo.Map(population, func(t Timing, _ int) Individual {
		return Individual{Timing: t, Fitness: f.Evaluate(t, demand)}
	})
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Fitness > scored[j].Fitness
	})
	return scored
}

// tournament samples size distinct indices of the sorted population and
// returns the best ranked one, which is the lowest index.
func tournament(sorted []Individual, size int, rng *rand.Rand) Timing {
	size = min(size, len(sorted))
	winner := len(sorted)
	for _, idx := range rng.Perm(len(sorted))[:size] {
		winner = min(winner, idx)
	}
	return sorted[winner].Timing
}

// crossover takes each direction from a random parent and repairs the child.
func crossover(a, b Timing, c Constraints, rng *rand.Rand) Timing {
	var child Timing
	for i := range child {
		if rng.IntN(2) == 0 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	if c.Valid(child) {
		return child
	}
	return c.Repair(child, rng)
}

// mutate moves a random amount of green from one direction to another
// without leaving the bounds, so the sum is preserved.
func mutate(t Timing, c Constraints, rng *rand.Rand) Timing {
	perm := rng.Perm(geometry.NumDirections)
	donor, receiver := perm[0], perm[1]

	room := min(t[donor]-c.Min, c.Max-t[receiver])
	if room <= 0 {
		return t
	}
	amount := 1 + rng.IntN(room)
	t[donor] -= amount
	t[receiver] += amount
	return t
}
