package crossway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/crossway/pkg/config"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

func TestNew(t *testing.T) {
	in := CreateTestIntersection(t, nil, 1)

	lights := in.Lights()
	require.Len(t, lights, 4)
	for i, d := range []geometry.Direction{North, East, South, West} {
		assert.Equal(t, d, lights[i].Direction(), "lights follow the phase order")
		assert.Equal(t, signal.Red, lights[i].State())
	}

	pedLights := in.PedestrianLights()
	require.Len(t, pedLights, 8)
	for _, p := range pedLights {
		assert.Equal(t, signal.Green, p.State())
	}

	assert.Empty(t, in.Vehicles())
	assert.Empty(t, in.Pedestrians())
	assert.Equal(t, map[geometry.Direction]int{North: 0, South: 0, East: 0, West: 0}, in.PassingCounts())
	assert.Equal(t, map[geometry.Direction]int{North: 30, South: 30, East: 30, West: 30}, in.GreenTimes())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Signal.TurnConflict = "panic"

	_, err := New(cfg)
	assert.True(t, config.IsError(err))
}

func TestAddVehicles(t *testing.T) {
	t.Run("Queues behind waiting vehicles", func(t *testing.T) {
		in := CreateTestIntersection(t, nil, 7)
		require.NoError(t, in.AddVehicles(3, North))

		vehicles := in.Vehicles()
		require.Len(t, vehicles, 3)
		for i, v := range vehicles {
			assert.Equal(t, North, v.InitialDirection())
			assert.NotEqual(t, South, v.FinalDirection())
			assert.False(t, v.HasMoved())
			if i > 0 {
				gap := v.Position().Y - vehicles[i-1].Position().Y
				assert.GreaterOrEqual(t, gap, in.Config().Vehicle.QueueSpacing)
			}
		}
		assert.Equal(t, 3, in.VehicleCounts()[North])
	})

	t.Run("Each approach keeps its own queue", func(t *testing.T) {
		in := CreateTestIntersection(t, nil, 7)
		for _, d := range geometry.Directions {
			require.NoError(t, in.AddVehicles(2, d))
		}
		assert.Equal(t, map[geometry.Direction]int{North: 2, South: 2, East: 2, West: 2}, in.VehicleCounts())
	})

	t.Run("Invalid input", func(t *testing.T) {
		in := CreateTestIntersection(t, nil, 7)

		err := in.AddVehicles(1, geometry.Direction(9))
		assert.True(t, IsDirectionError(err))
		assert.Equal(t, ErrCodeInvalidDirection, GetErrorCode(err))

		err = in.AddVehicles(-1, North)
		assert.True(t, IsAmountError(err))
		assert.Empty(t, in.Vehicles())
	})
}

func TestAddPedestrians(t *testing.T) {
	in := CreateTestIntersection(t, nil, 3)
	require.NoError(t, in.AddPedestrians(5))

	pedestrians := in.Pedestrians()
	require.Len(t, pedestrians, 5)
	for _, p := range pedestrians {
		assert.NotEqual(t, p.InitialDirection(), p.FinalDirection())
		assert.GreaterOrEqual(t, len(p.Path()), 2)
	}

	assert.True(t, IsAmountError(in.AddPedestrians(-2)))
}

func TestChangeLightTimes(t *testing.T) {
	in := CreateTestIntersection(t, nil, 1)

	require.NoError(t, in.ChangeLightTimes(East, 45))
	assert.Equal(t, 45, in.GreenTimes()[East])
	assert.Equal(t, 45, in.Light(East).GreenTime())

	err := in.ChangeLightTimes(East, 5)
	assert.True(t, IsTimingError(err))
	assert.Equal(t, ErrCodeInvalidTiming, GetErrorCode(err))
	assert.Equal(t, 45, in.GreenTimes()[East])

	err = in.ChangeLightTimes(East, 51)
	assert.True(t, IsTimingError(err))

	err = in.ChangeLightTimes(geometry.Direction(7), 30)
	assert.True(t, IsDirectionError(err))
}

func TestRestartToInitialState(t *testing.T) {
	in := CreateTestIntersection(t, nil, 11)
	for _, d := range geometry.Directions {
		require.NoError(t, in.AddVehicles(3, d))
	}
	require.NoError(t, in.AddPedestrians(6))

	vehicles := in.Vehicles()
	pedestrians := in.Pedestrians()

	for timer := 0; timer < 400; timer++ {
		in.CheckLightsState(float64(timer) / 10)
		in.Update()
	}

	in.RestartToInitialState()
	first := in.Snapshot()

	in.RestartToInitialState()
	second := in.Snapshot()

	assert.Equal(t, first, second, "restarting twice equals restarting once")
	assert.Equal(t, 0, second.Tick)
	for _, l := range second.Lights {
		assert.Equal(t, signal.Red, l.State)
		assert.Equal(t, 0, l.Passing)
	}
	for _, p := range second.PedestrianLights {
		assert.Equal(t, signal.Green, p.State)
	}

	for i, v := range in.Vehicles() {
		assert.Same(t, vehicles[i], v, "vehicles are reset in place")
		assert.False(t, v.HasMoved())
		assert.False(t, v.HasCounted())
		assert.False(t, v.IsTurning())
		assert.False(t, v.HasTurned())
	}
	for i, p := range in.Pedestrians() {
		assert.Same(t, pedestrians[i], p)
		assert.False(t, p.HasMoved())
	}
}

func TestSnapshotJSON(t *testing.T) {
	in := CreateTestIntersection(t, nil, 5)
	require.NoError(t, in.AddVehicles(1, West))
	require.NoError(t, in.AddPedestrians(1))
	in.Update()

	data, err := json.Marshal(in.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["tick"])
	assert.Contains(t, decoded["waiting"], "W")

	vehicles := decoded["vehicles"].([]any)
	require.Len(t, vehicles, 1)
	vehicle := vehicles[0].(map[string]any)
	assert.Equal(t, "W", vehicle["initial"])
	assert.Equal(t, "straight-initial", vehicle["mode"])
}
