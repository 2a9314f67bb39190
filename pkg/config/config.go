// Package config holds the immutable simulation and optimizer configuration.
//
// A Config is built once at startup (Default or Load) and handed to the
// intersection controller, the actor factories and the optimizer. Nothing in
// the module reads configuration from package-level state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/crossway/pkg/geometry"
)

// ConflictPolicy selects how two turning vehicles from different approaches
// that come closer than a vehicle width are handled.
type ConflictPolicy string

const (
	// ConflictIgnore evaluates the condition and reports it, nothing else.
	ConflictIgnore ConflictPolicy = "ignore"
	// ConflictStop holds the vehicle with less of its turn behind it for the tick.
	ConflictStop ConflictPolicy = "stop"
	// ConflictStrict records a hard conflict that the driver must handle.
	ConflictStrict ConflictPolicy = "strict"
)

// TimingMode selects how a light decides that a duration has elapsed.
type TimingMode string

const (
	// TimingPhase measures every duration from the start of the light's current phase.
	TimingPhase TimingMode = "phase"
	// TimingMultiple fires when the shared timer crosses a multiple of the duration.
	TimingMultiple TimingMode = "multiple"
)

// Config is the root configuration
type Config struct {
	Geometry   GeometryConfig   `yaml:"geometry"`
	Vehicle    VehicleConfig    `yaml:"vehicle"`
	Pedestrian PedestrianConfig `yaml:"pedestrian"`
	Signal     SignalConfig     `yaml:"signal"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
}

// GeometryConfig describes the simulated area
type GeometryConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	RoadWidth float64 `yaml:"road_width"`
}

// VehicleConfig holds vehicle sizes and speeds, in simulation units per tick
type VehicleConfig struct {
	Size              float64 `yaml:"size"`
	Speed             float64 `yaml:"speed"`
	TurningSpeed      float64 `yaml:"turning_speed"`
	Spacing           float64 `yaml:"spacing"`
	QueueSpacing      float64 `yaml:"queue_spacing"`
	SpawnJitter       float64 `yaml:"spawn_jitter"`
	StopDistance      float64 `yaml:"stop_distance"`
	FollowingDistance float64 `yaml:"following_distance"`
}

// PedestrianConfig holds pedestrian sizes and speeds
type PedestrianConfig struct {
	Size         float64 `yaml:"size"`
	Speed        float64 `yaml:"speed"`
	CornerOffset float64 `yaml:"corner_offset"`
	LightSize    float64 `yaml:"light_size"`
}

// GreenTimes is the per-approach green duration
type GreenTimes struct {
	North int `yaml:"north"`
	South int `yaml:"south"`
	East  int `yaml:"east"`
	West  int `yaml:"west"`
}

// For returns the green time configured for d
func (g GreenTimes) For(d geometry.Direction) int {
	switch d {
	case geometry.North:
		return g.North
	case geometry.South:
		return g.South
	case geometry.East:
		return g.East
	default:
		return g.West
	}
}

// Sum returns the total green time of the four approaches
func (g GreenTimes) Sum() int {
	return g.North + g.South + g.East + g.West
}

// SignalConfig controls the light cycle
type SignalConfig struct {
	YellowTime   float64              `yaml:"yellow_time"`
	RedTime      float64              `yaml:"red_time"`
	GreenTimes   GreenTimes           `yaml:"green_times"`
	PhaseOrder   []geometry.Direction `yaml:"phase_order"`
	TurnConflict ConflictPolicy       `yaml:"turn_conflict"`
	Timing       TimingMode           `yaml:"timing"`
}

// FitnessWeights weighs the terms of the optimizer's fitness function
type FitnessWeights struct {
	Throughput      float64 `yaml:"throughput"`
	Balance         float64 `yaml:"balance"`
	Waiting         float64 `yaml:"waiting"`
	Waste           float64 `yaml:"waste"`
	CompletionBonus float64 `yaml:"completion_bonus"`
}

// OptimizerConfig holds the timing constraints and genetic search parameters
type OptimizerConfig struct {
	CycleTime       int            `yaml:"cycle_time"`
	MinGreenTime    int            `yaml:"min_green_time"`
	MaxGreenTime    int            `yaml:"max_green_time"`
	Tolerance       float64        `yaml:"tolerance"`
	ProcessingRate  float64        `yaml:"processing_rate"`
	WasteBuffer     float64        `yaml:"waste_buffer"`
	InvalidPenalty  float64        `yaml:"invalid_penalty"`
	PopulationSize  int            `yaml:"population_size"`
	Generations     int            `yaml:"generations"`
	MutationRate    float64        `yaml:"mutation_rate"`
	CrossoverRate   float64        `yaml:"crossover_rate"`
	EliteFraction   float64        `yaml:"elite_fraction"`
	TournamentSize  int            `yaml:"tournament_size"`
	StagnationLimit int            `yaml:"stagnation_limit"`
	Weights         FitnessWeights `yaml:"weights"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Width:     900,
			Height:    800,
			RoadWidth: 160,
		},
		Vehicle: VehicleConfig{
			Size:              20,
			Speed:             2,
			TurningSpeed:      0.05,
			Spacing:           15,
			QueueSpacing:      40,
			SpawnJitter:       30,
			StopDistance:      20,
			FollowingDistance: 35,
		},
		Pedestrian: PedestrianConfig{
			Size:         8,
			Speed:        1,
			CornerOffset: 10,
			LightSize:    12,
		},
		Signal: SignalConfig{
			YellowTime:   3,
			RedTime:      0,
			GreenTimes:   GreenTimes{North: 30, South: 30, East: 30, West: 30},
			PhaseOrder:   []geometry.Direction{geometry.North, geometry.East, geometry.South, geometry.West},
			TurnConflict: ConflictIgnore,
			Timing:       TimingPhase,
		},
		Optimizer: OptimizerConfig{
			CycleTime:       120,
			MinGreenTime:    10,
			MaxGreenTime:    50,
			Tolerance:       0.5,
			ProcessingRate:  0.5,
			WasteBuffer:     5,
			InvalidPenalty:  -1e6,
			PopulationSize:  30,
			Generations:     50,
			MutationRate:    0.15,
			CrossoverRate:   0.8,
			EliteFraction:   0.1,
			TournamentSize:  3,
			StagnationLimit: 15,
			Weights: FitnessWeights{
				Throughput:      10,
				Balance:         5,
				Waiting:         2,
				Waste:           0.5,
				CompletionBonus: 25,
			},
		},
	}
}

// Load reads a YAML file on top of the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Layout returns the geometric layout shared by the geometry helpers
func (c *Config) Layout() geometry.Layout {
	return geometry.Layout{
		Width:     c.Geometry.Width,
		Height:    c.Geometry.Height,
		RoadWidth: c.Geometry.RoadWidth,
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch {
	case c.Geometry.Width <= 0 || c.Geometry.Height <= 0:
		return NewError("geometry", "width and height must be positive")
	case c.Geometry.RoadWidth <= 0 || c.Geometry.RoadWidth >= c.Geometry.Width || c.Geometry.RoadWidth >= c.Geometry.Height:
		return NewError("geometry.road_width", "must be positive and smaller than the simulated area")
	case c.Vehicle.Size <= 0 || c.Vehicle.Speed <= 0 || c.Vehicle.TurningSpeed <= 0:
		return NewError("vehicle", "size, speed and turning_speed must be positive")
	case c.Vehicle.Spacing <= c.Vehicle.Speed:
		return NewError("vehicle.spacing", "must exceed the per-tick speed so turns trigger")
	case c.Vehicle.StopDistance <= c.Vehicle.Spacing+c.Vehicle.Speed:
		return NewError("vehicle.stop_distance", "must exceed spacing plus speed so vehicles stop before a turn starts")
	case c.Vehicle.FollowingDistance < c.Vehicle.Size:
		return NewError("vehicle.following_distance", "must be at least the vehicle size")
	case c.Pedestrian.Size <= 0 || c.Pedestrian.Speed <= 0:
		return NewError("pedestrian", "size and speed must be positive")
	case c.Signal.YellowTime <= 0 || c.Signal.RedTime < 0:
		return NewError("signal", "yellow_time must be positive and red_time non-negative")
	case c.Signal.GreenTimes.North <= 0 || c.Signal.GreenTimes.South <= 0 ||
		c.Signal.GreenTimes.East <= 0 || c.Signal.GreenTimes.West <= 0:
		return NewError("signal.green_times", "every approach needs a positive green time")
	}

	if err := validatePhaseOrder(c.Signal.PhaseOrder); err != nil {
		return err
	}

	switch c.Signal.TurnConflict {
	case ConflictIgnore, ConflictStop, ConflictStrict:
	default:
		return NewError("signal.turn_conflict", fmt.Sprintf("unknown policy %q", c.Signal.TurnConflict))
	}

	switch c.Signal.Timing {
	case TimingPhase, TimingMultiple:
	default:
		return NewError("signal.timing", fmt.Sprintf("unknown timing mode %q", c.Signal.Timing))
	}

	o := c.Optimizer
	switch {
	case o.MinGreenTime <= 0 || o.MinGreenTime > o.MaxGreenTime:
		return NewError("optimizer.min_green_time", "must be positive and not above max_green_time")
	case o.CycleTime < 4*o.MinGreenTime || o.CycleTime > 4*o.MaxGreenTime:
		return NewError("optimizer.cycle_time", "must be reachable with four green times inside [min, max]")
	case o.ProcessingRate <= 0:
		return NewError("optimizer.processing_rate", "must be positive")
	case o.PopulationSize < 2 || o.Generations < 1:
		return NewError("optimizer", "population_size must be at least 2 and generations at least 1")
	case o.TournamentSize < 1:
		return NewError("optimizer.tournament_size", "must be at least 1")
	case o.EliteFraction < 0 || o.EliteFraction > 1:
		return NewError("optimizer.elite_fraction", "must lie in [0, 1]")
	case o.Tolerance < 0 || o.Tolerance >= 1:
		return NewError("optimizer.tolerance", "must lie in [0, 1)")
	case o.InvalidPenalty >= 0:
		return NewError("optimizer.invalid_penalty", "must be negative")
	}

	return nil
}

func validatePhaseOrder(order []geometry.Direction) error {
	if len(order) != len(geometry.Directions) {
		return NewError("signal.phase_order", "must list each of the four directions once")
	}
	seen := make(map[geometry.Direction]bool, len(order))
	for _, d := range order {
		if !d.Valid() || seen[d] {
			return NewError("signal.phase_order", fmt.Sprintf("invalid or repeated direction %s", d))
		}
		seen[d] = true
	}
	return nil
}
