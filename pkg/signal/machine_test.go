package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	BaseObserver
	transitions []string
	entered     []string
	rejected    []string
	errors      []error
}

func (o *recordingObserver) OnTransition(from, to, event string, ctx Context) {
	o.transitions = append(o.transitions, from+"->"+to+":"+event)
}

func (o *recordingObserver) OnStateEnter(state string, ctx Context) {
	o.entered = append(o.entered, state)
}

func (o *recordingObserver) OnEventRejected(event, reason string, ctx Context) {
	o.rejected = append(o.rejected, event)
}

func (o *recordingObserver) OnError(err error, ctx Context) {
	o.errors = append(o.errors, err)
}

type panickingObserver struct {
	BaseObserver
}

func (o *panickingObserver) OnTransition(from, to, event string, ctx Context) {
	panic("boom")
}

func paidEnough(ctx Context) bool {
	amount, _ := ctx.GetEventData().(int)
	return amount >= 25
}

func recordEntry(ctx Context) error {
	ctx.Set("entries", ctx.GetSourceState()+"->"+ctx.GetCurrentState())
	return nil
}

func turnstile(t *testing.T) *Definition {
	t.Helper()
	def, err := NewMachine().
		State("locked").Initial().
		To("unlocked").On("coin").When(paidEnough).
		State("unlocked").OnEntry(recordEntry).
		To("locked").On("push").
		Build()
	require.NoError(t, err)
	return def
}

func TestBuilderValidation(t *testing.T) {
	t.Run("Missing initial state", func(t *testing.T) {
		_, err := NewMachine().State("a").To("a").On("x").Build()
		assert.True(t, IsConfigurationError(err))
		assert.Equal(t, ErrCodeInvalidConfiguration, GetErrorCode(err))
	})

	t.Run("Multiple initial states", func(t *testing.T) {
		_, err := NewMachine().State("a").Initial().State("b").Initial().Build()
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("Unknown target", func(t *testing.T) {
		_, err := NewMachine().State("a").Initial().To("missing").On("x").Build()
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("Transition without event", func(t *testing.T) {
		_, err := NewMachine().State("a").Initial().To("a").Build()
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("Definition keeps declaration order", func(t *testing.T) {
		def := turnstile(t)
		assert.Equal(t, "locked", def.InitialState())
		assert.Equal(t, []string{"locked", "unlocked"}, def.States())
		require.Len(t, def.Transitions("locked"), 1)
		assert.Equal(t, "coin", def.Transitions("locked")[0].EventName)
		assert.Empty(t, def.Transitions("missing"))
	})
}

func TestMachineLifecycle(t *testing.T) {
	m := turnstile(t).CreateInstance()

	result := m.HandleEvent("coin", 25)
	assert.False(t, result.Processed)
	assert.True(t, IsMachineError(result.Error))

	require.NoError(t, m.Start())
	assert.True(t, m.IsStarted())
	assert.True(t, IsMachineError(m.Start()))

	require.NoError(t, m.Stop())
	assert.True(t, IsMachineError(m.Stop()))
}

func TestHandleEvent(t *testing.T) {
	t.Run("Guard blocks and passes", func(t *testing.T) {
		m := turnstile(t).CreateInstance()
		obs := &recordingObserver{}
		m.AddObserver(obs)
		require.NoError(t, m.Start())

		result := m.HandleEvent("coin", 10)
		assert.False(t, result.Success())
		assert.True(t, IsTransitionError(result.Error))
		assert.Equal(t, "locked", m.CurrentState())

		result = m.HandleEvent("coin", 25)
		assert.True(t, result.Success())
		assert.True(t, result.StateChanged)
		assert.Equal(t, "unlocked", m.CurrentState())

		entries, ok := m.Context().Get("entries")
		require.True(t, ok)
		assert.Equal(t, "locked->unlocked", entries)

		assert.Equal(t, []string{"locked->unlocked:coin"}, obs.transitions)
		assert.Equal(t, []string{"coin"}, obs.rejected)
	})

	t.Run("Empty event name", func(t *testing.T) {
		m := turnstile(t).CreateInstance()
		require.NoError(t, m.Start())

		result := m.HandleEvent("  ", nil)
		assert.False(t, result.Processed)
		assert.Error(t, result.Error)
	})

	t.Run("Failing action aborts the transition", func(t *testing.T) {
		def, err := NewMachine().
			State("idle").Initial().
			To("busy").On("go").Do(func(ctx Context) error { return errors.New("refused") }).
			State("busy").
			Build()
		require.NoError(t, err)

		m := def.CreateInstance()
		obs := &recordingObserver{}
		m.AddObserver(obs)
		require.NoError(t, m.Start())

		result := m.HandleEvent("go", nil)
		assert.False(t, result.Processed)
		assert.True(t, IsActionError(result.Error))
		assert.Equal(t, ErrCodeActionFailed, GetErrorCode(result.Error))
		assert.Equal(t, "idle", m.CurrentState())
		assert.Len(t, obs.errors, 1)
	})

	t.Run("Panicking guard counts as rejection", func(t *testing.T) {
		def, err := NewMachine().
			State("idle").Initial().
			To("busy").On("go").When(func(ctx Context) bool { panic("bad guard") }).
			To("done").On("go").
			State("busy").
			State("done").
			Build()
		require.NoError(t, err)

		m := def.CreateInstance()
		obs := &recordingObserver{}
		m.AddObserver(obs)
		require.NoError(t, m.Start())

		result := m.HandleEvent("go", nil)
		assert.True(t, result.Success())
		assert.Equal(t, "done", m.CurrentState())
		assert.Len(t, obs.errors, 1)
	})

	t.Run("Unless negates the guard", func(t *testing.T) {
		def, err := NewMachine().
			State("a").Initial().
			To("b").On("go").Unless(func(ctx Context) bool { return ctx.GetEventData() == "stop" }).
			State("b").
			Build()
		require.NoError(t, err)

		m := def.CreateInstance()
		require.NoError(t, m.Start())
		assert.False(t, m.HandleEvent("go", "stop").Processed)
		assert.True(t, m.HandleEvent("go", "run").StateChanged)
	})
}

func TestSetStateAndReset(t *testing.T) {
	m := turnstile(t).CreateInstance()
	obs := &recordingObserver{}
	m.AddObserver(obs)
	require.NoError(t, m.Start())

	err := m.SetState("missing")
	assert.True(t, IsStateError(err))
	assert.Equal(t, ErrCodeStateNotFound, GetErrorCode(err))

	require.NoError(t, m.SetState("unlocked"))
	assert.Equal(t, "unlocked", m.CurrentState())
	_, ok := m.Context().Get("entries")
	assert.False(t, ok, "forced states skip entry actions")

	m.Reset()
	assert.Equal(t, "locked", m.CurrentState())
	assert.True(t, m.IsStarted())
	assert.Equal(t, []string{"locked->unlocked:", "unlocked->locked:"}, obs.transitions)
}

func TestObserverPanicIsContained(t *testing.T) {
	m := turnstile(t).CreateInstance()
	rec := &recordingObserver{}
	m.AddObserver(&panickingObserver{})
	m.AddObserver(rec)
	require.NoError(t, m.Start())

	assert.NotPanics(t, func() {
		m.HandleEvent("coin", 50)
	})
	assert.Equal(t, "unlocked", m.CurrentState())
	assert.Len(t, rec.transitions, 1)

	m.RemoveObserver(rec)
	m.HandleEvent("push", nil)
	assert.Len(t, rec.transitions, 1)
}
