package optimizer

import (
	"math"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

// completionShare is the share of total demand that must be processed to earn
// the completion bonus.
const completionShare = 0.9

// Fitness scores allocations against a fixed demand. Higher is better.
type Fitness struct {
	constraints Constraints
	rate        float64
	buffer      float64
	penalty     float64
	weights     config.FitnessWeights
}

// NewFitness builds the fitness function from the optimizer configuration.
func NewFitness(cfg config.OptimizerConfig) *Fitness {
	return &Fitness{
		constraints: ConstraintsFrom(cfg),
		rate:        cfg.ProcessingRate,
		buffer:      cfg.WasteBuffer,
		penalty:     cfg.InvalidPenalty,
		weights:     cfg.Weights,
	}
}

// Breakdown holds the individual terms of one evaluation.
type Breakdown struct {
	Processed  float64 `json:"processed"`
	Throughput float64 `json:"throughput"`
	Unserved   float64 `json:"unserved"`
	Balance    float64 `json:"balance"`
	Waste      float64 `json:"waste"`
	Bonus      bool    `json:"bonus"`
	Score      float64 `json:"score"`
}

// Evaluate returns the invalid penalty for an invalid allocation and the
// floored weighted score otherwise.
func (f *Fitness) Evaluate(t Timing, demand Demand) float64 {
	if !f.constraints.Valid(t) {
		return f.penalty
	}
	return f.Explain(t, demand).Score
}

// Explain computes every term of the score. It does not check validity.
func (f *Fitness) Explain(t Timing, demand Demand) Breakdown {
	var b Breakdown
	total := float64(demand.Total())

	for _, d := range geometry.Directions {
		waiting := float64(demand[d])
		green := float64(t[d])
		processed := math.Min(waiting, green*f.rate)

		// processed is the served share of the queue times its length
		b.Throughput += processed
		b.Processed += processed
		b.Unserved += waiting - processed
		b.Waste += math.Max(0, green-waiting/f.rate-f.buffer)
	}

	b.Balance = balance(t, demand)
	b.Bonus = total > 0 && b.Processed > completionShare*total

	w := f.weights
	score := w.Throughput*b.Throughput +
		w.Balance*b.Balance*total -
		w.Waiting*b.Unserved -
		w.Waste*b.Waste
	if b.Bonus {
		score += w.CompletionBonus
	}
	b.Score = math.Max(0, score)
	return b
}

// balance is 1 minus half the L1 distance between the normalized demand and
// time vectors. An empty demand is treated as uniform.
func balance(t Timing, demand Demand) float64 {
	total := float64(demand.Total())
	cycle := float64(t.Sum())
	if cycle == 0 {
		return 0
	}

	distance := 0.0
	for _, d := range geometry.Directions {
		share := 1.0 / geometry.NumDirections
		if total > 0 {
			share = float64(demand[d]) / total
		}
		distance += math.Abs(share - float64(t[d])/cycle)
	}
	return 1 - distance/2
}
