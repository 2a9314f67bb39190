package actor_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
)

func newVehicle(t *testing.T, cfg *config.Config, initial, final geometry.Direction) *actor.Vehicle {
	t.Helper()
	v, err := actor.NewVehicle(cfg, initial, final, 0)
	require.NoError(t, err)
	return v
}

func TestLookupTurn(t *testing.T) {
	layout := config.Default().Layout()

	t.Run("Straight pairs have no profile", func(t *testing.T) {
		for _, d := range geometry.Directions {
			profile, err := actor.LookupTurn(layout, 20, d, d)
			assert.NoError(t, err)
			assert.Nil(t, profile)
		}
	})

	t.Run("U-turns are undefined", func(t *testing.T) {
		for _, d := range geometry.Directions {
			_, err := actor.LookupTurn(layout, 20, d, d.Opposite())
			assert.ErrorIs(t, err, actor.ErrUndefinedTurn)
		}
	})

	t.Run("Arc joins the approach lane and the exit lane", func(t *testing.T) {
		for _, from := range geometry.Directions {
			for _, to := range from.Perpendicular() {
				profile, err := actor.LookupTurn(layout, 20, from, to)
				require.NoError(t, err)
				require.NotNil(t, profile)

				assert.Equal(t, layout.RoadWidth/4, profile.Radius)
				assert.Less(t, profile.Start, profile.End)

				end := profile.Position(profile.End)
				lane := layout.LaneCenter(to)
				if to.Vertical() {
					assert.InDelta(t, lane, end.X, 1, "%s->%s", from, to)
				} else {
					assert.InDelta(t, lane, end.Y, 1, "%s->%s", from, to)
				}
			}
		}
	})
}

func TestVehicleSpawn(t *testing.T) {
	cfg := config.Default()

	v, err := actor.NewVehicle(cfg, geometry.North, geometry.North, 50)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{X: 480, Y: 850}, v.Position())
	assert.False(t, v.HasMoved())
	assert.Equal(t, actor.ModeStraightInitial, v.Mode())
	assert.Equal(t, actor.Go, v.Decision())

	_, err = actor.NewVehicle(cfg, geometry.North, geometry.South, 0)
	assert.ErrorIs(t, err, actor.ErrUndefinedTurn)
}

func TestVehicleStep(t *testing.T) {
	cfg := config.Default()

	t.Run("Stopped vehicle does not move", func(t *testing.T) {
		v := newVehicle(t, cfg, geometry.East, geometry.East)
		before := v.Position()

		v.Step(actor.StopForLight)

		assert.Equal(t, before, v.Position())
		assert.Equal(t, 0.0, v.Speed())
		assert.True(t, v.IsStopped())
	})

	t.Run("Moving vehicle enters the area", func(t *testing.T) {
		v := newVehicle(t, cfg, geometry.South, geometry.South)
		for i := 0; i < 20 && !v.HasMoved(); i++ {
			v.Step(actor.Go)
		}
		assert.True(t, v.HasMoved())
		assert.Equal(t, cfg.Vehicle.Speed, v.Speed())
		assert.False(t, v.IsStopped())
	})

	t.Run("Straight vehicles never turn", func(t *testing.T) {
		for _, d := range geometry.Directions {
			v := newVehicle(t, cfg, d, d)
			for i := 0; i < 1000 && !v.OutOfBounds(); i++ {
				v.Step(actor.Go)
				require.Equal(t, actor.ModeStraightInitial, v.Mode())
				require.Equal(t, 0.0, v.TurnAngle())
			}
			assert.True(t, v.OutOfBounds(), "vehicle %s never left", d)
		}
	})

	t.Run("Turning vehicles pass through every mode once", func(t *testing.T) {
		for _, from := range geometry.Directions {
			for _, to := range from.Perpendicular() {
				v := newVehicle(t, cfg, from, to)
				seen := map[actor.Mode]bool{}
				last := actor.ModeStraightInitial
				for i := 0; i < 2000 && !v.OutOfBounds(); i++ {
					v.Step(actor.Go)
					mode := v.Mode()
					require.GreaterOrEqual(t, int(mode), int(last), "%s->%s went back to %s", from, to, mode)
					require.Equal(t, mode == actor.ModeTurning, v.IsTurning())
					require.Equal(t, mode == actor.ModeStraightFinal, v.HasTurned())
					seen[mode] = true
					last = mode
				}
				assert.True(t, v.OutOfBounds(), "%s->%s never left", from, to)
				assert.True(t, seen[actor.ModeTurning], "%s->%s never turned", from, to)
				assert.Equal(t, to, v.Heading())
			}
		}
	})

	t.Run("Stop freezes the turn", func(t *testing.T) {
		v := newVehicle(t, cfg, geometry.West, geometry.North)
		for i := 0; i < 2000 && !v.IsTurning(); i++ {
			v.Step(actor.Go)
		}
		require.True(t, v.IsTurning())
		v.Step(actor.Go)
		angle, pos := v.TurnAngle(), v.Position()

		v.Step(actor.StopForConflict)

		assert.Equal(t, angle, v.TurnAngle())
		assert.Equal(t, pos, v.Position())
	})
}

func TestVehicleStopLineDistance(t *testing.T) {
	cfg := config.Default()
	layout := cfg.Layout()

	for _, d := range geometry.Directions {
		v := newVehicle(t, cfg, d, d)
		light := layout.LightPosition(d)

		prev := v.StopLineDistance(light)
		assert.Greater(t, prev, 0.0)
		for i := 0; i < 500 && v.StopLineDistance(light) >= 0; i++ {
			v.Step(actor.Go)
			assert.InDelta(t, prev-cfg.Vehicle.Speed, v.StopLineDistance(light), 1e-9)
			prev = v.StopLineDistance(light)
		}
		assert.Less(t, v.StopLineDistance(light), 0.0, "vehicle %s never crossed", d)
	}
}

func TestVehicleReset(t *testing.T) {
	cfg := config.Default()
	v := newVehicle(t, cfg, geometry.North, geometry.West)
	id := v.ID
	for i := 0; i < 300; i++ {
		v.Step(actor.Go)
	}
	v.MarkCounted()

	require.NoError(t, v.Reset(geometry.East, 10))

	assert.Equal(t, id, v.ID)
	assert.Equal(t, geometry.East, v.FinalDirection())
	assert.False(t, v.HasCounted())
	assert.False(t, v.HasMoved())
	assert.False(t, v.HasTurned())
	assert.Equal(t, 810.0, v.Position().Y)
	assert.NotNil(t, v.TurnProfile())

	assert.Error(t, v.Reset(geometry.South, 0))
}

func TestVehicleRestart(t *testing.T) {
	cfg := config.Default()
	v, err := actor.NewVehicle(cfg, geometry.West, geometry.South, 25)
	require.NoError(t, err)
	spawn := v.Position()

	for i := 0; i < 400 && !v.HasTurned(); i++ {
		v.Step(actor.Go)
	}
	require.True(t, v.HasTurned())
	v.MarkCounted()

	v.Restart()
	assert.Equal(t, spawn, v.Position())
	assert.Equal(t, 25.0, v.SpawnOffset())
	assert.Equal(t, geometry.South, v.FinalDirection())
	assert.Equal(t, actor.ModeStraightInitial, v.Mode())
	assert.False(t, v.HasCounted())

	v.Restart()
	assert.Equal(t, spawn, v.Position())
}

func TestVehicleTurnProgress(t *testing.T) {
	cfg := config.Default()
	v := newVehicle(t, cfg, geometry.North, geometry.West)
	assert.Zero(t, v.TurnProgress())

	last := 0.0
	for i := 0; i < 500 && !v.HasTurned(); i++ {
		v.Step(actor.Go)
		progress := v.TurnProgress()
		assert.GreaterOrEqual(t, progress, last)
		assert.LessOrEqual(t, progress, 1.0)
		last = progress
	}
	require.True(t, v.HasTurned())
	assert.Equal(t, 1.0, v.TurnProgress())
}

func TestRandomFinal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		for _, d := range geometry.Directions {
			assert.NotEqual(t, d.Opposite(), actor.RandomFinal(rng, d))
		}
	}
}

func TestPedestrian(t *testing.T) {
	cfg := config.Default()
	graph := geometry.NewPedestrianGraph(cfg.Layout())

	t.Run("Walks its route and leaves the zone", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 4))
		for i := 0; i < 20; i++ {
			p, err := actor.NewRandomPedestrian(cfg, graph, rng)
			require.NoError(t, err)
			path := p.Path()
			require.NotEqual(t, p.InitialDirection(), p.FinalDirection())

			for step := 0; step < 5000 && !p.OutOfZone(); step++ {
				p.Step(actor.Go)
				require.Contains(t, path, p.ActualNode())
				label, ok := graph.Label(p.ActualNode(), path[indexOf(path, p.ActualNode())+1])
				require.True(t, ok)
				require.Equal(t, label, p.Movement())
			}
			assert.True(t, p.OutOfZone(), "%s -> %s never left", p.InitialDirection(), p.FinalDirection())
			assert.Equal(t, path[len(path)-2], p.ActualNode())
		}
	})

	t.Run("Reports the crossing it waits for", func(t *testing.T) {
		p, err := actor.NewPedestrian(cfg, graph, geometry.EN, geometry.WN)
		require.NoError(t, err)
		require.Equal(t, []geometry.Node{geometry.EN, geometry.CornerTL, geometry.CornerTR, geometry.WN}, p.Path())

		var leg geometry.Node
		found := false
		for step := 0; step < 1000 && !found; step++ {
			leg, found = p.PendingCrossing()
			if !found {
				p.Step(actor.Go)
			}
		}
		require.True(t, found)
		assert.Equal(t, geometry.SW, leg)

		pos := p.Position()
		p.Step(actor.StopForLight)
		assert.Equal(t, pos, p.Position())
		assert.Equal(t, geometry.EN, p.ActualNode())

		p.Step(actor.Go)
		assert.Equal(t, geometry.CornerTL, p.ActualNode())
		assert.Equal(t, geometry.East, p.Movement())
		_, found = p.PendingCrossing()
		assert.False(t, found)
	})

	t.Run("Reset restarts or reroutes", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(5, 6))
		p, err := actor.NewPedestrian(cfg, graph, geometry.NE, geometry.SE)
		require.NoError(t, err)
		start := p.Position()
		for i := 0; i < 100; i++ {
			p.Step(actor.Go)
		}
		require.True(t, p.HasMoved())

		require.NoError(t, p.Reset(rng, false))
		assert.Equal(t, start, p.Position())
		assert.Equal(t, geometry.SE, p.FinalDirection())
		assert.Equal(t, geometry.NE, p.ActualNode())
		assert.False(t, p.HasMoved())

		require.NoError(t, p.Reset(rng, true))
		assert.Equal(t, geometry.NE, p.InitialDirection())
		assert.NotEqual(t, geometry.NE, p.FinalDirection())
		assert.Equal(t, geometry.NE, p.ActualNode())
	})
}

func indexOf(path []geometry.Node, n geometry.Node) int {
	for i, node := range path {
		if node == n {
			return i
		}
	}
	return -1
}

func TestDecision(t *testing.T) {
	assert.False(t, actor.Go.Stopped())
	assert.True(t, actor.StopForVehicle.Stopped())
	assert.Equal(t, actor.StopForLight, actor.Go.Compound(actor.StopForLight))
	assert.Equal(t, actor.StopForVehicle, actor.StopForVehicle.Compound(actor.StopForLight))
	assert.Equal(t, "stop-for-conflict", actor.StopForConflict.String())
}
