package timing

import (
	"testing"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/modular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decay struct {
	modular.Base
	x, xd float64
}

func (d *decay) Init(*modular.Sim) error {
	d.MakeState(&d.x, &d.xd)
	return nil
}

func (d *decay) Update(*modular.Sim) error {
	d.xd = -d.x
	return nil
}

func TestClock_TracksAdvance(t *testing.T) {
	clock := NewClock(0.1, 1)
	s := modular.New(&decay{x: 1})
	s.RunFirst(clock)

	rk4 := modular.NewRK4()
	require.NoError(t, rk4.Step(s, &clock.T, clock.Dt))

	// the final stage is evaluated at the step end, half a step after the midpoint
	assert.True(t, clock.Advanced())
	assert.InDelta(t, 0.05, clock.Delta(), 1e-15)
	assert.InDelta(t, 0.1, clock.T, 1e-15)
	assert.False(t, clock.Done())

	require.NoError(t, s.Update())
	assert.False(t, clock.Advanced())
	assert.Zero(t, clock.Delta())
}

func TestClock_Done(t *testing.T) {
	clock := NewClock(0.25, 1)
	s := modular.New(&decay{x: 1})
	s.RunFirst(clock)

	euler := modular.NewEuler()
	steps := 0
	for !clock.Done() {
		require.NoError(t, euler.Step(s, &clock.T, clock.Dt))
		steps++
	}
	assert.Equal(t, 4, steps)
}

func TestClock_ReceivesAdaptiveStep(t *testing.T) {
	clock := NewClock(0.01, Unbounded)
	s := modular.New(&decay{x: 1})
	s.RunFirst(clock)

	d := modular.NewDOPRI45()
	require.NoError(t, d.StepAdaptive(s, &clock.T, &clock.Dt, dynamo.DefaultAdaptive()))
	assert.Equal(t, clock.Dt, clock.BaseStep())
	assert.Greater(t, clock.Dt, 0.01)

	assert.False(t, clock.Event(clock.T+clock.Dt/2))
	assert.Less(t, clock.Dt, clock.BaseStep())
	clock.Reset()
	assert.Equal(t, clock.BaseStep(), clock.Dt)
}

func TestClock_StepDeltaCoversWholeStep(t *testing.T) {
	clock := NewClock(0.1, 1)
	s := modular.New(&decay{x: 1})
	s.RunFirst(clock)

	rk4 := modular.NewRK4()
	require.NoError(t, rk4.Step(s, &clock.T, clock.Dt))
	assert.InDelta(t, 0.05, clock.Delta(), 1e-15)
	assert.InDelta(t, 0.1, clock.StepDelta(), 1e-15)

	require.NoError(t, rk4.Step(s, &clock.T, 0.2))
	assert.InDelta(t, 0.2, clock.StepDelta(), 1e-15)
}

func TestClock_StepDeltaSkipsRejectedTrials(t *testing.T) {
	clock := NewClock(0.5, Unbounded)
	s := modular.New(&decay{x: 1})
	s.RunFirst(clock)

	cfg := dynamo.DefaultAdaptive()
	cfg.AbsTol, cfg.RelTol = 1e-12, 1e-12
	d := modular.NewDOPRI45()

	t0 := clock.T
	require.NoError(t, d.StepAdaptive(s, &clock.T, &clock.Dt, cfg))
	require.Positive(t, d.Stats.Rejected)
	assert.InDelta(t, clock.T-t0, clock.StepDelta(), 1e-15)
}
