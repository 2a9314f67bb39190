package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 120, cfg.Optimizer.CycleTime)
	assert.Equal(t, []geometry.Direction{geometry.North, geometry.East, geometry.South, geometry.West}, cfg.Signal.PhaseOrder)
	assert.Equal(t, config.ConflictIgnore, cfg.Signal.TurnConflict)
	assert.Equal(t, 120, cfg.Signal.GreenTimes.Sum())
}

func TestGreenTimesFor(t *testing.T) {
	g := config.GreenTimes{North: 1, South: 2, East: 3, West: 4}

	assert.Equal(t, 1, g.For(geometry.North))
	assert.Equal(t, 2, g.For(geometry.South))
	assert.Equal(t, 3, g.For(geometry.East))
	assert.Equal(t, 4, g.For(geometry.West))
	assert.Equal(t, 10, g.Sum())
}

func TestParse(t *testing.T) {
	t.Run("Overrides keep unspecified defaults", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
signal:
  phase_order: [E, W, N, S]
  turn_conflict: strict
optimizer:
  min_green_time: 15
  max_green_time: 60
`))
		require.NoError(t, err)

		assert.Equal(t, []geometry.Direction{geometry.East, geometry.West, geometry.North, geometry.South}, cfg.Signal.PhaseOrder)
		assert.Equal(t, config.ConflictStrict, cfg.Signal.TurnConflict)
		assert.Equal(t, 15, cfg.Optimizer.MinGreenTime)
		assert.Equal(t, 60, cfg.Optimizer.MaxGreenTime)
		assert.Equal(t, 160.0, cfg.Geometry.RoadWidth)
		assert.Equal(t, 3.0, cfg.Signal.YellowTime)
	})

	t.Run("Unknown direction is a decode error", func(t *testing.T) {
		_, err := config.Parse([]byte("signal:\n  phase_order: [N, X, S, W]\n"))
		assert.Error(t, err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := config.Parse([]byte("signal: ["))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"Repeated phase", func(c *config.Config) {
			c.Signal.PhaseOrder = []geometry.Direction{geometry.North, geometry.North, geometry.South, geometry.West}
		}, "signal.phase_order"},
		{"Short phase order", func(c *config.Config) {
			c.Signal.PhaseOrder = c.Signal.PhaseOrder[:3]
		}, "signal.phase_order"},
		{"Unknown policy", func(c *config.Config) { c.Signal.TurnConflict = "yield" }, "signal.turn_conflict"},
		{"Min above max", func(c *config.Config) { c.Optimizer.MinGreenTime = 60 }, "optimizer.min_green_time"},
		{"Unreachable cycle", func(c *config.Config) { c.Optimizer.CycleTime = 500 }, "optimizer.cycle_time"},
		{"Zero green", func(c *config.Config) { c.Signal.GreenTimes.East = 0 }, "signal.green_times"},
		{"Positive penalty", func(c *config.Config) { c.Optimizer.InvalidPenalty = 1 }, "optimizer.invalid_penalty"},
		{"Road wider than area", func(c *config.Config) { c.Geometry.RoadWidth = 2000 }, "geometry.road_width"},
		{"Unknown timing mode", func(c *config.Config) { c.Signal.Timing = "modulo" }, "signal.timing"},
		{"Tolerance of a whole second", func(c *config.Config) { c.Optimizer.Tolerance = 1 }, "optimizer.tolerance"},
		{"Negative tolerance", func(c *config.Config) { c.Optimizer.Tolerance = -0.5 }, "optimizer.tolerance"},
		{"Slow spacing", func(c *config.Config) { c.Vehicle.Spacing = 1 }, "vehicle.spacing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, config.IsError(err))

			var cfgErr *config.Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("Sample file", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join("..", "..", "configs", "intersection.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("optimizer:\n  processing_rate: 0\n"), 0o600))

		_, err := config.Load(path)
		assert.True(t, config.IsError(err))
	})
}

func TestLayout(t *testing.T) {
	layout := config.Default().Layout()

	assert.Equal(t, geometry.Point{X: 450, Y: 400}, layout.Center())
	assert.Equal(t, geometry.Limits{Top: 320, Bottom: 480, Left: 370, Right: 530}, layout.Limits())
}
