package crossway

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

type panickingObserver struct {
	BaseObserver
	errors []error
}

func (o *panickingObserver) OnLightChange(d geometry.Direction, from, to signal.State, timer float64) {
	panic("light change")
}

func (o *panickingObserver) OnVehiclePassed(v *actor.Vehicle, d geometry.Direction) {
	panic("vehicle passed")
}

func (o *panickingObserver) OnError(err error) {
	o.errors = append(o.errors, err)
}

func TestObserverPanicIsContained(t *testing.T) {
	bad := &panickingObserver{}
	rec := NewTestObserver()
	in := CreateTestIntersection(t, nil, 1, WithObserver(bad), WithObserver(rec))

	assert.NotPanics(t, func() {
		in.CheckLightsState(0)
	})
	assert.Equal(t, 1, rec.LightChangeCount())
	require.Len(t, bad.errors, 1)
	assert.Contains(t, bad.errors[0].Error(), "OnLightChange")

	v := CreateTestVehicle(t, in.Config(), North, North, 0)
	v.Place(geometry.Point{X: v.Position().X, Y: in.Light(North).Position().Y - 1})
	in.AddVehicle(v)
	assert.NotPanics(t, func() {
		in.Update()
	})
	assert.Len(t, rec.Passed, 1)
	assert.Len(t, bad.errors, 2)
}

func TestObserverManager(t *testing.T) {
	om := NewObserverManager()
	a := NewTestObserver()
	b := NewTestObserver()
	om.AddObserver(a)
	om.AddObserver(b)
	assert.Equal(t, 2, om.Len())

	om.NotifyLightChange(East, signal.Red, signal.Yellow, 4)
	assert.Equal(t, 1, a.LightChangeCount())
	assert.Equal(t, 1, b.LightChangeCount())

	om.RemoveObserver(a)
	om.NotifyLightChange(East, signal.Yellow, signal.Green, 7)
	assert.Equal(t, 1, a.LightChangeCount())
	assert.Equal(t, 2, b.LightChangeCount())
	assert.Equal(t, 7.0, b.LastLightChange().Timer)

	om.NotifyError(errors.New("boom"))
	assert.Len(t, b.Errors, 1)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"Conflict", NewConflictError(3, uuid.New(), uuid.New()), ErrCodeHardConflict},
		{"Direction", NewDirectionError(geometry.Direction(8)), ErrCodeInvalidDirection},
		{"Timing", NewTimingError(North, 5, 10, 50), ErrCodeInvalidTiming},
		{"Amount", NewAmountError(-1), ErrCodeInvalidAmount},
		{"Unknown", errors.New("other"), ErrCodeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.NotEmpty(t, tt.err.Error())
		})
	}

	wrapped := errors.Join(errors.New("tick failed"), NewTimingError(West, 70, 10, 50))
	assert.True(t, IsTimingError(wrapped))
	assert.False(t, IsConflictError(wrapped))
}
