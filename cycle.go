package crossway

import (
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// CheckLightsState advances the light cycle to timer, the driver's clock in
// seconds. Lights are served one at a time in phase order: lights that have
// completed their green this cycle are skipped and the first remaining one is
// activated and ticked. When it finishes, the next light is activated at the
// same timer value. Once every light has completed, the cycle starts over.
func (in *Intersection) CheckLightsState(timer float64) {
	for i, d := range in.order {
		light := in.lights[d]
		if light.Completed() {
			continue
		}

		light.Activate(timer)
		changed, from, to := light.Check(timer)
		if !changed {
			return
		}
		in.lightChanged(d, from, to, timer)

		if light.Completed() {
			in.activateAfter(i, timer)
		}
		return
	}

	// every light was already served when the loop started
	in.completeCycle(timer)
}

// activateAfter hands the phase to the first light after position i that still
// has to be served, or closes the cycle when there is none.
func (in *Intersection) activateAfter(i int, timer float64) {
	for _, d := range in.order[i+1:] {
		if !in.lights[d].Completed() {
			in.lights[d].Activate(timer)
			return
		}
	}
	in.completeCycle(timer)
}

func (in *Intersection) completeCycle(timer float64) {
	passing := in.PassingCounts()
	for _, light := range in.lights {
		light.ResetCycle()
	}
	in.cycles++
	in.observers.NotifyCycleComplete(in.cycles, passing)
	in.lights[in.order[0]].Activate(timer)
}

// lightChanged notifies observers and keeps the pedestrian lights of the
// light's axis opposite to it: red while the axis has green, green again once
// the light is back to red.
func (in *Intersection) lightChanged(d geometry.Direction, from, to signal.State, timer float64) {
	in.observers.NotifyLightChange(d, from, to, timer)

	var walk signal.State
	switch to {
	case signal.Green:
		walk = signal.Red
	case signal.Red:
		walk = signal.Green
	default:
		return
	}
	for _, approach := range []geometry.Direction{d, d.Opposite()} {
		for _, leg := range geometry.CrossingLegs(approach) {
			// walk is red or green, the only aspects a pedestrian light accepts
			_ = in.pedLights[leg].Set(walk)
		}
	}
}
