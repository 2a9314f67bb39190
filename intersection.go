package crossway

import (
	"math"
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// Intersection is the controller owning the lights and every actor. It is
// single-threaded: callers that share it between goroutines must serialize
// access themselves.
type Intersection struct {
	cfg    *config.Config
	layout geometry.Layout
	rng    *rand.Rand
	graph  *geometry.PedestrianGraph

	lights    [geometry.NumDirections]*signal.TrafficLight
	order     []geometry.Direction
	pedLights map[geometry.Node]*signal.PedestrianLight

	vehicles    []*actor.Vehicle
	pedestrians []*actor.Pedestrian

	observers      *ObserverManager
	lightObservers []signal.Observer
	tick           int
	cycles         int
}

// Option configures an Intersection
type Option func(*Intersection)

// WithRand sets the random source used for routes and spawn jitter
func WithRand(rng *rand.Rand) Option {
	return func(in *Intersection) {
		in.rng = rng
	}
}

// WithObserver registers an observer from the start
func WithObserver(observer Observer) Option {
	return func(in *Intersection) {
		in.observers.AddObserver(observer)
	}
}

// WithLightObserver attaches an observer to the state machine of every traffic light
func WithLightObserver(observer signal.Observer) Option {
	return func(in *Intersection) {
		in.lightObservers = append(in.lightObservers, observer)
	}
}

// WithPedestrianGraph replaces the pedestrian network built from the layout
func WithPedestrianGraph(graph *geometry.PedestrianGraph) Option {
	return func(in *Intersection) {
		in.graph = graph
	}
}

// New creates an intersection with four red lights, eight green pedestrian
// lights and no actors.
func New(cfg *config.Config, opts ...Option) (*Intersection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	in := &Intersection{
		cfg:       cfg,
		layout:    cfg.Layout(),
		order:     append([]geometry.Direction(nil), cfg.Signal.PhaseOrder...),
		pedLights: make(map[geometry.Node]*signal.PedestrianLight, len(geometry.Endpoints)),
		observers: NewObserverManager(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.rng == nil {
		in.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if in.graph == nil {
		in.graph = geometry.NewPedestrianGraph(in.layout)
	}

	for _, d := range geometry.Directions {
		light, err := signal.NewTrafficLight(d, in.layout.LightPosition(d), cfg.Signal)
		if err != nil {
			return nil, err
		}
		for _, observer := range in.lightObservers {
			light.AddObserver(observer)
		}
		in.lights[d] = light
	}
	for _, leg := range geometry.Endpoints {
		in.pedLights[leg] = signal.NewPedestrianLight(leg, in.layout.CrossingLightPosition(leg, cfg.Pedestrian.LightSize))
	}
	return in, nil
}

// Config returns the configuration the intersection was built with
func (in *Intersection) Config() *config.Config { return in.cfg }

// AddObserver registers an observer
func (in *Intersection) AddObserver(observer Observer) {
	in.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (in *Intersection) RemoveObserver(observer Observer) {
	in.observers.RemoveObserver(observer)
}

// AddVehicles queues amount vehicles on approach d behind the ones already
// waiting there, each with a random reachable final direction.
func (in *Intersection) AddVehicles(amount int, d geometry.Direction) error {
	if !d.Valid() {
		return NewDirectionError(d)
	}
	if amount < 0 {
		return NewAmountError(amount)
	}

	for i := 0; i < amount; i++ {
		v, err := actor.NewVehicle(in.cfg, d, actor.RandomFinal(in.rng, d), in.queueOffset(d))
		if err != nil {
			return err
		}
		in.vehicles = append(in.vehicles, v)
	}
	return nil
}

// AddVehicle inserts a vehicle built by the caller
func (in *Intersection) AddVehicle(v *actor.Vehicle) {
	in.vehicles = append(in.vehicles, v)
}

// AddPedestrians spawns amount pedestrians between random endpoints
func (in *Intersection) AddPedestrians(amount int) error {
	if amount < 0 {
		return NewAmountError(amount)
	}

	for i := 0; i < amount; i++ {
		p, err := actor.NewRandomPedestrian(in.cfg, in.graph, in.rng)
		if err != nil {
			return err
		}
		in.pedestrians = append(in.pedestrians, p)
	}
	return nil
}

// AddPedestrian inserts a pedestrian built by the caller
func (in *Intersection) AddPedestrian(p *actor.Pedestrian) {
	in.pedestrians = append(in.pedestrians, p)
}

// PedestrianGraph returns the network pedestrians route on
func (in *Intersection) PedestrianGraph() *geometry.PedestrianGraph {
	return in.graph
}

// queueOffset returns the spawn offset placing a new vehicle behind the
// farthest vehicle still waiting beyond the edge of approach d.
func (in *Intersection) queueOffset(d geometry.Direction) float64 {
	jitter := in.rng.Float64() * in.cfg.Vehicle.SpawnJitter

	waiting := lo.Filter(in.vehicles, func(v *actor.Vehicle, _ int) bool {
		return v.InitialDirection() == d && !v.HasMoved()
	})
	if len(waiting) == 0 {
		return jitter
	}

	tail := math.Inf(-1)
	for _, v := range waiting {
		tail = math.Max(tail, in.beyondEdge(v))
	}
	return tail + in.cfg.Vehicle.QueueSpacing + jitter
}

// beyondEdge returns how far a vehicle waits outside the area on its approach
func (in *Intersection) beyondEdge(v *actor.Vehicle) float64 {
	pos, size := v.Position(), v.Size()
	switch v.InitialDirection() {
	case geometry.North:
		return pos.Y - in.layout.Height
	case geometry.South:
		return -size - pos.Y
	case geometry.East:
		return -size - pos.X
	default:
		return pos.X - in.layout.Width
	}
}

// ChangeLightTimes sets the green time of approach d. The change applies from
// the light's next green phase.
func (in *Intersection) ChangeLightTimes(d geometry.Direction, seconds int) error {
	if !d.Valid() {
		return NewDirectionError(d)
	}
	lower, upper := in.cfg.Optimizer.MinGreenTime, in.cfg.Optimizer.MaxGreenTime
	if seconds < lower || seconds > upper {
		return NewTimingError(d, seconds, lower, upper)
	}
	in.lights[d].SetGreenTime(seconds)
	return nil
}

// RestartToInitialState puts every actor and light back to where it started.
// Nothing is reallocated; vehicles keep their routes and spawn offsets.
func (in *Intersection) RestartToInitialState() {
	for _, v := range in.vehicles {
		v.Restart()
	}
	for _, p := range in.pedestrians {
		// keeping the route cannot fail: it was resolved when the pedestrian was created
		_ = p.Reset(in.rng, false)
	}
	for _, light := range in.lights {
		light.Reset()
	}
	for _, p := range in.pedLights {
		p.Reset()
	}
	in.tick = 0
	in.cycles = 0
}

// Light returns the traffic light of approach d
func (in *Intersection) Light(d geometry.Direction) *signal.TrafficLight {
	return in.lights[d]
}

// Lights returns the traffic lights in phase order
func (in *Intersection) Lights() []*signal.TrafficLight {
	return lo.Map(in.order, func(d geometry.Direction, _ int) *signal.TrafficLight {
		return in.lights[d]
	})
}

// PedestrianLights returns the pedestrian lights in endpoint order
func (in *Intersection) PedestrianLights() []*signal.PedestrianLight {
	return lo.Map(geometry.Endpoints, func(leg geometry.Node, _ int) *signal.PedestrianLight {
		return in.pedLights[leg]
	})
}

// PedestrianLight returns the light guarding crossing leg
func (in *Intersection) PedestrianLight(leg geometry.Node) (*signal.PedestrianLight, bool) {
	p, ok := in.pedLights[leg]
	return p, ok
}

// Vehicles returns a copy of the vehicle list
func (in *Intersection) Vehicles() []*actor.Vehicle {
	return append([]*actor.Vehicle(nil), in.vehicles...)
}

// Pedestrians returns a copy of the pedestrian list
func (in *Intersection) Pedestrians() []*actor.Pedestrian {
	return append([]*actor.Pedestrian(nil), in.pedestrians...)
}

// PassingCounts returns the vehicles counted per approach in the current cycle
func (in *Intersection) PassingCounts() map[geometry.Direction]int {
	return lo.SliceToMap(geometry.Directions, func(d geometry.Direction) (geometry.Direction, int) {
		return d, in.lights[d].PassingVehicles()
	})
}

// VehicleCounts returns the vehicles per approach that have not yet crossed their stop line
func (in *Intersection) VehicleCounts() map[geometry.Direction]int {
	counts := lo.SliceToMap(geometry.Directions, func(d geometry.Direction) (geometry.Direction, int) {
		return d, 0
	})
	for _, v := range in.vehicles {
		if !v.HasCounted() {
			counts[v.InitialDirection()]++
		}
	}
	return counts
}

// GreenTimes returns the configured green time per approach
func (in *Intersection) GreenTimes() map[geometry.Direction]int {
	return lo.SliceToMap(geometry.Directions, func(d geometry.Direction) (geometry.Direction, int) {
		return d, in.lights[d].GreenTime()
	})
}

// LightStates returns the current aspect of every vehicle light
func (in *Intersection) LightStates() map[geometry.Direction]signal.State {
	return lo.SliceToMap(geometry.Directions, func(d geometry.Direction) (geometry.Direction, signal.State) {
		return d, in.lights[d].State()
	})
}

// Tick returns the number of updates since creation or the last restart
func (in *Intersection) Tick() int { return in.tick }

// Cycles returns the number of completed light cycles
func (in *Intersection) Cycles() int { return in.cycles }
