// Package optimizer searches green-time allocations for the intersection
// with a genetic algorithm scored against the current queued demand.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// Intersection is the part of the controller the optimizer reads and writes
type Intersection interface {
	VehicleCounts() map[geometry.Direction]int
	GreenTimes() map[geometry.Direction]int
	ChangeLightTimes(d geometry.Direction, seconds int) error
}

// Monitor is implemented by intersections that expose live throughput.
// Without it the metrics history only records elapsed time.
type Monitor interface {
	PassingCounts() map[geometry.Direction]int
	LightStates() map[geometry.Direction]signal.State
}

// Optimizer runs the search and tracks the metrics window that follows it.
// It is not safe for concurrent use.
type Optimizer struct {
	target      Intersection
	cfg         config.OptimizerConfig
	constraints Constraints
	fitness     *Fitness
	rng         *rand.Rand
	clock       func() time.Time
	observers   []Observer

	session *session
	report  *Report
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithRand sets the random source of the search
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) {
		o.rng = rng
	}
}

// WithObserver registers an observer
func WithObserver(obs Observer) Option {
	return func(o *Optimizer) {
		o.observers = append(o.observers, obs)
	}
}

// WithClock replaces time.Now for the metrics window
func WithClock(clock func() time.Time) Option {
	return func(o *Optimizer) {
		o.clock = clock
	}
}

// New creates an optimizer for target. cfg is expected to be validated.
func New(target Intersection, cfg *config.Config, opts ...Option) *Optimizer {
	o := &Optimizer{
		target:      target,
		cfg:         cfg.Optimizer,
		constraints: ConstraintsFrom(cfg.Optimizer),
		fitness:     NewFitness(cfg.Optimizer),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// AddObserver registers an observer after construction
func (o *Optimizer) AddObserver(obs Observer) {
	o.observers = append(o.observers, obs)
}

func (o *Optimizer) Constraints() Constraints { return o.constraints }

func (o *Optimizer) Fitness() *Fitness { return o.fitness }

// Result is the outcome of one search
type Result struct {
	Best        Individual
	History     []float64
	Generations int
	Stagnated   bool
}

// StartOptimizationCycle snapshots the demand and the running timing, searches
// for a better allocation and writes it back one direction at a time. The
// returned error is non-nil only when the write-back fails, in which case the
// directions already written are rolled back. timeLimit opens the metrics
// window fed by UpdateMetrics.
func (o *Optimizer) StartOptimizationCycle(ctx context.Context, timeLimit time.Duration) (map[geometry.Direction]int, error) {
	demand := DemandFrom(o.target.VehicleCounts())
	current := TimingFrom(o.target.GreenTimes())

	if !o.constraints.Acceptable(current) {
		repaired := o.constraints.Proportional(demand, o.rng)
		o.notifyExtended("OnRepaired", func(obs ExtendedObserver) {
			obs.OnRepaired(current.Map(), repaired.Map())
		})
		current = repaired
	}

	result := o.search(ctx, demand, current)
	best := result.Best.Timing

	if err := o.apply(current, best); err != nil {
		o.notifyError(err)
		return nil, err
	}

	o.session = &session{
		started: o.clock(),
		limit:   timeLimit,
		initial: current,
		optimal: best,
		demand:  demand,
		result:  result,
		active:  true,
	}
	o.report = nil

	times := best.Map()
	o.notify("OnApplied", func(obs Observer) { obs.OnApplied(best.Map()) })
	return times, nil
}

func (o *Optimizer) apply(previous, best Timing) error {
	for i, d := range geometry.Directions {
		if err := o.target.ChangeLightTimes(d, best[d]); err != nil {
			for _, done := range geometry.Directions[:i] {
				_ = o.target.ChangeLightTimes(done, previous[done])
			}
			return fmt.Errorf("apply %s green time %d: %w", d, best[d], err)
		}
	}
	return nil
}

// Search runs the genetic algorithm against demand without touching the
// intersection. The context is checked between generations, so at least one
// generation is always scored.
func (o *Optimizer) Search(ctx context.Context, demand Demand) Result {
	return o.search(ctx, demand, o.constraints.Uniform())
}

func (o *Optimizer) search(ctx context.Context, demand Demand, current Timing) Result {
	population := o.seed(demand, current)
	size := len(population)
	elites := min(size, int(math.Ceil(o.cfg.EliteFraction*float64(size))))

	var result Result
	found := false
	stagnant := 0

	for gen := 0; gen < o.cfg.Generations; gen++ {
		sorted := evaluate(population, demand, o.fitness)
		leader := sorted[0]
		result.History = append(result.History, leader.Fitness)
		result.Generations = gen + 1

		if !found || leader.Fitness > result.Best.Fitness {
			result.Best = leader
			found = true
			stagnant = 0
		} else {
			stagnant++
		}

		bestFitness := result.Best.Fitness
		o.notify("OnGeneration", func(obs Observer) { obs.OnGeneration(gen, bestFitness, leader.Fitness) })

		if stagnant >= o.cfg.StagnationLimit {
			result.Stagnated = true
			break
		}
		if ctx.Err() != nil {
			break
		}

		population = o.breed(sorted, elites, demand)
	}
	return result
}

// seed builds the first generation: the demand-proportional allocation, the
// uniform split, the running timing and random constrained individuals. A
// running timing that is only Acceptable is repaired before it joins.
func (o *Optimizer) seed(demand Demand, current Timing) []Timing {
	if !o.constraints.Valid(current) {
		current = o.constraints.Repair(current, o.rng)
	}

	size := o.cfg.PopulationSize
	population := make([]Timing, 0, size)
	for _, t := range []Timing{o.constraints.Proportional(demand, o.rng), o.constraints.Uniform(), current} {
		if len(population) < size {
			population = append(population, t)
		}
	}
	for len(population) < size {
		population = append(population, o.randomIndividual(demand))
	}
	return population
}

func (o *Optimizer) randomIndividual(demand Demand) Timing {
	t := o.constraints.Random(o.rng)
	if !o.constraints.Valid(t) {
		return o.constraints.Proportional(demand, o.rng)
	}
	return t
}

func (o *Optimizer) breed(sorted []Individual, elites int, demand Demand) []Timing {
	next := make([]Timing, 0, len(sorted))
	for _, ind := range sorted[:elites] {
		next = append(next, ind.Timing)
	}

	for len(next) < len(sorted) {
		var child Timing
		if o.rng.Float64() < o.cfg.CrossoverRate {
			a := tournament(sorted, o.cfg.TournamentSize, o.rng)
			b := tournament(sorted, o.cfg.TournamentSize, o.rng)
			child = crossover(a, b, o.constraints, o.rng)
		} else {
			child = tournament(sorted, o.cfg.TournamentSize, o.rng)
		}
		if o.rng.Float64() < o.cfg.MutationRate {
			child = mutate(child, o.constraints, o.rng)
		}
		if !o.constraints.Valid(child) {
			child = o.constraints.Proportional(demand, o.rng)
		}
		next = append(next, child)
	}
	return next
}
