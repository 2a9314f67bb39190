package crossway

import (
	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/signal"
)

// TickResult summarizes one call to Update
type TickResult struct {
	Tick                int
	Outcomes            []Outcome
	Counted             int
	RecycledVehicles    int
	RecycledPedestrians int
	TurnConflicts       int
	err                 error
}

// Err returns a *ConflictError for the first hard conflict of the tick, nil otherwise
func (r *TickResult) Err() error {
	return r.err
}

// HardConflicts returns the hard-conflict outcomes of the tick
func (r *TickResult) HardConflicts() []Outcome {
	var conflicts []Outcome
	for _, o := range r.Outcomes {
		if o.Kind == HardConflict {
			conflicts = append(conflicts, o)
		}
	}
	return conflicts
}

// Update advances the simulation by one tick.
//
// Every unordered pair of vehicles is resolved first. Each vehicle then
// combines the pair stops with its light decision, gets counted when it
// crosses its stop line, is recycled to the back of its queue once it leaves
// the area and finally moves. Pedestrians wait at red crossings, are recycled
// when they leave the walk zone and move. Decisions only live for this tick.
func (in *Intersection) Update() *TickResult {
	in.tick++
	result := &TickResult{Tick: in.tick}

	held := make(map[*actor.Vehicle]actor.Decision)
	for i := 0; i < len(in.vehicles); i++ {
		for j := i + 1; j < len(in.vehicles); j++ {
			outcome := in.resolvePair(in.vehicles[i], in.vehicles[j])
			if outcome.Turning {
				result.TurnConflicts++
			}
			switch outcome.Kind {
			case SoftStop:
				hold(held, outcome.A, outcome.Reason)
			case HardConflict:
				hold(held, outcome.A, outcome.Reason)
				hold(held, outcome.B, outcome.Reason)
				if result.err == nil {
					result.err = NewConflictError(in.tick, outcome.A.ID, outcome.B.ID)
					in.observers.NotifyError(result.err)
				}
			default:
				continue
			}
			result.Outcomes = append(result.Outcomes, outcome)
		}
	}

	for _, v := range in.vehicles {
		decision := held[v].Compound(in.lightDecision(v))

		light := in.lights[v.InitialDirection()]
		if !v.HasCounted() && v.StopLineDistance(light.Position()) < 0 {
			v.MarkCounted()
			light.MarkPassing()
			result.Counted++
			in.observers.NotifyVehiclePassed(v, v.InitialDirection())
		}

		if v.OutOfBounds() {
			final := actor.RandomFinal(in.rng, v.InitialDirection())
			// the final direction is drawn from the reachable set
			if err := v.Reset(final, in.queueOffset(v.InitialDirection())); err != nil {
				panic(err)
			}
			decision = actor.Go
			result.RecycledVehicles++
		}

		v.Step(decision)
	}

	for _, p := range in.pedestrians {
		decision := actor.Go
		if leg, ok := p.PendingCrossing(); ok && in.pedLights[leg].State() == signal.Red {
			decision = actor.StopForLight
		}

		if p.OutOfZone() {
			if err := p.Reset(in.rng, true); err != nil {
				panic(err)
			}
			decision = actor.Go
			result.RecycledPedestrians++
		}

		p.Step(decision)
	}

	return result
}

func hold(held map[*actor.Vehicle]actor.Decision, v *actor.Vehicle, reason actor.Decision) {
	held[v] = held[v].Compound(reason)
}
