package optimizer

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// minFlowInterval keeps the flow rate finite when two samples are taken
// almost at the same instant.
const minFlowInterval = 100 * time.Millisecond

type session struct {
	started time.Time
	limit   time.Duration
	initial Timing
	optimal Timing
	demand  Demand
	result  Result
	samples []Sample
	active  bool
}

// Sample is one entry of the metrics history
type Sample struct {
	Elapsed        time.Duration `json:"elapsed"`
	VehiclesPassed int           `json:"vehicles_passed"`
	AverageWait    float64       `json:"average_wait"`
	FlowRate       float64       `json:"flow_rate"`
}

// Report summarizes an optimization cycle once its time limit has passed
type Report struct {
	InitialTimes        map[geometry.Direction]int `json:"initial_times"`
	OptimalTimes        map[geometry.Direction]int `json:"optimal_times"`
	Demand              map[geometry.Direction]int `json:"demand"`
	BestFitness         float64                    `json:"best_fitness"`
	FitnessHistory      []float64                  `json:"fitness_history"`
	Generations         int                        `json:"generations"`
	Stagnated           bool                       `json:"stagnated"`
	TimeLimit           float64                    `json:"time_limit_seconds"`
	TotalVehiclesPassed int                        `json:"total_vehicles_passed"`
	AverageWait         float64                    `json:"average_wait"`
	MaxFlowRate         float64                    `json:"max_flow_rate"`
	EfficiencyPerMinute float64                    `json:"efficiency_per_minute"`
	Samples             []Sample                   `json:"samples"`
}

// JSON encodes the report with indentation
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Active reports whether a metrics window is open
func (o *Optimizer) Active() bool {
	return o.session != nil && o.session.active
}

// UpdateMetrics records one sample of the metrics history. It is a no-op
// outside a metrics window. When the time limit has passed the window is
// closed and the report is built. It returns whether the window is still open.
func (o *Optimizer) UpdateMetrics() bool {
	s := o.session
	if s == nil || !s.active {
		return false
	}

	elapsed := o.clock().Sub(s.started)
	sample := Sample{Elapsed: elapsed}

	if m, ok := o.target.(Monitor); ok {
		sample.VehiclesPassed = lo.Sum(lo.Values(m.PassingCounts()))
		sample.AverageWait = averageWait(o.target.VehicleCounts(), o.target.GreenTimes(), m.LightStates())
	}
	if n := len(s.samples); n > 0 {
		prev := s.samples[n-1]
		interval := max(minFlowInterval, elapsed-prev.Elapsed)
		sample.FlowRate = float64(sample.VehiclesPassed-prev.VehiclesPassed) / interval.Seconds()
	}
	s.samples = append(s.samples, sample)

	if elapsed >= s.limit {
		o.finalize()
	}
	return s.active
}

// averageWait estimates the mean wait of queued vehicles: half the green time
// for approaches currently held at red or yellow, zero for green ones.
func averageWait(counts, greens map[geometry.Direction]int, states map[geometry.Direction]signal.State) float64 {
	total, vehicles := 0.0, 0
	for _, d := range geometry.Directions {
		n := counts[d]
		if n <= 0 {
			continue
		}
		if states[d] != signal.Green {
			total += float64(greens[d]) / 2 * float64(n)
		}
		vehicles += n
	}
	return total / float64(max(1, vehicles))
}

func (o *Optimizer) finalize() {
	s := o.session
	s.active = false

	r := Report{
		InitialTimes:   s.initial.Map(),
		OptimalTimes:   s.optimal.Map(),
		Demand:         s.demand.Map(),
		BestFitness:    s.result.Best.Fitness,
		FitnessHistory: s.result.History,
		Generations:    s.result.Generations,
		Stagnated:      s.result.Stagnated,
		TimeLimit:      s.limit.Seconds(),
		Samples:        s.samples,
	}
	if n := len(s.samples); n > 0 {
		r.TotalVehiclesPassed = s.samples[n-1].VehiclesPassed
		r.AverageWait = lo.SumBy(s.samples, func(x Sample) float64 { return x.AverageWait }) / float64(n)
		r.MaxFlowRate = lo.MaxBy(s.samples, func(a, b Sample) bool { return a.FlowRate > b.FlowRate }).FlowRate
	}
	if minutes := s.limit.Minutes(); minutes > 0 {
		r.EfficiencyPerMinute = float64(r.TotalVehiclesPassed) / minutes
	}

	o.report = &r
	o.notifyExtended("OnReport", func(obs ExtendedObserver) { obs.OnReport(r) })
}

// Report returns the report of the last closed metrics window
func (o *Optimizer) Report() (Report, bool) {
	if o.report == nil {
		return Report{}, false
	}
	return *o.report, true
}

// Samples returns a copy of the metrics history of the current window
func (o *Optimizer) Samples() []Sample {
	if o.session == nil {
		return nil
	}
	return append([]Sample(nil), o.session.samples...)
}
