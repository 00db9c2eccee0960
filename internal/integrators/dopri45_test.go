package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDOPRI45_Step(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	x := []float64{1.0, 0.0}

	tm := 0.0
	for i := 0; i < 1000; i++ {
		integrator.Step(oscillator, x, &tm, 0.01)
	}

	if !dynamo.State(x).IsValid() {
		t.Error("DOPRI45 produced invalid state")
	}
}

func TestDOPRI45_EnergyConservation(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	x := []float64{1.0, 0.0}
	initialEnergy := oscillatorEnergy(x)

	tm := 0.0
	for i := 0; i < 10000; i++ {
		integrator.Step(oscillator, x, &tm, 0.01)
	}

	drift := math.Abs(oscillatorEnergy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("DOPRI45 energy drift too high: %e", drift)
	}
}

func TestDOPRI45_AdaptiveStep(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	x := []float64{1.0, 0.0}
	tm, dt := 0.0, 0.1

	err := integrator.StepAdaptive(oscillator, x, &tm, &dt, dynamo.DefaultAdaptive())
	require.NoError(t, err)
	assert.True(t, dynamo.State(x).IsValid())
	assert.Greater(t, dt, 0.1, "a tiny error against unit tolerances grows dt")
	assert.InDelta(t, 0.1, tm, 1e-15)
}

func TestDOPRI45_AdaptiveAccuracy(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	cfg := dynamo.DefaultAdaptive()
	cfg.AbsTol = 1e-12
	cfg.RelTol = 1e-12

	x := []float64{1}
	tm, dt := 0.0, 0.5
	for tm < 1 {
		require.NoError(t, integrator.StepAdaptive(exponential, x, &tm, &dt, cfg))
	}

	assert.InDelta(t, math.Exp(tm), x[0], 1e-8)
	assert.Positive(t, integrator.Stats.Rejected, "initial dt of 0.5 is far too large for 1e-12")
	assert.Positive(t, integrator.Stats.Accepted)
}

func TestDOPRI45_FSAL(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	x := []float64{1}
	tm, dt := 0.0, 0.01
	cfg := dynamo.DefaultAdaptive()

	require.NoError(t, integrator.StepAdaptive(exponential, x, &tm, &dt, cfg))
	assert.Equal(t, 7, integrator.Stats.Evaluations)

	require.NoError(t, integrator.StepAdaptive(exponential, x, &tm, &dt, cfg))
	assert.Equal(t, 13, integrator.Stats.Evaluations, "the last stage derivative is reused")
}

func TestDOPRI45_RejectionBudget(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	cfg := dynamo.DefaultAdaptive()
	cfg.AbsTol = 1e-14
	cfg.RelTol = 0
	cfg.MaxRejections = 1

	x := []float64{1}
	tm, dt := 0.0, 5.0
	err := integrator.StepAdaptive(exponential, x, &tm, &dt, cfg)

	var rej *dynamo.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.ErrorIs(t, err, dynamo.ErrTooManyRejections)
	assert.Equal(t, 1, rej.Rejections)
	assert.Equal(t, []float64{1}, x, "x restored to the step start")
	assert.Zero(t, tm)
	assert.Less(t, dt, 5.0)
}

func TestDOPRI45_InvalidConfig(t *testing.T) {
	integrator := NewDOPRI45[float64]()
	x := []float64{1}
	tm, dt := 0.0, 0.1

	err := integrator.StepAdaptive(exponential, x, &tm, &dt, dynamo.AdaptiveConfig{})
	assert.ErrorIs(t, err, dynamo.ErrInvalidTolerance)
}

func TestDPStepFactors(t *testing.T) {
	assert.Equal(t, DPMinShrink, DPShrink(0.9, math.NaN()))
	assert.Equal(t, DPMinShrink, DPShrink(0.9, 1e9))
	assert.InDelta(t, 0.9*math.Pow(2, -1.0/3.0), DPShrink(0.9, 2), 1e-15)

	assert.Equal(t, 1.0, DPGrow(0.9, 0.7))
	assert.InDelta(t, 0.9*math.Pow(DPErrFloor, -0.2), DPGrow(0.9, 0), 1e-12)
}

func TestKuttaMerson_Adaptive(t *testing.T) {
	km := NewKuttaMerson[float64]()
	cfg := dynamo.DefaultAdaptive()
	cfg.AbsTol = 1e-10

	x := []float64{1, 0}
	tm, dt := 0.0, 0.5
	for tm < 2 {
		require.NoError(t, km.StepAdaptive(oscillator, x, &tm, &dt, cfg))
	}

	assert.InDelta(t, math.Cos(tm), x[0], 1e-6)
	assert.Positive(t, km.Stats.Rejected)
}

func TestVerletEnergy(t *testing.T) {
	for name, s := range map[string]dynamo.Stepper[float64]{
		"Verlet":   NewVerlet[float64](),
		"Leapfrog": NewLeapfrog[float64](),
	} {
		t.Run(name, func(t *testing.T) {
			x := []float64{1, 0}
			e0 := oscillatorEnergy(x)
			tm := 0.0
			for i := 0; i < 10000; i++ {
				s.Step(oscillator, x, &tm, 0.01)
			}
			if drift := math.Abs(oscillatorEnergy(x)-e0) / e0; drift > 1e-3 {
				t.Errorf("%s energy drift too high: %e", name, drift)
			}
		})
	}
}

type adaptive interface {
	dynamo.AdaptiveStepper[float64]
	dynamo.StatsReporter
}

func TestAdaptive_AcceptedErrorWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		step adaptive
	}{
		{"DOPRI45", NewDOPRI45[float64]()},
		{"KuttaMerson", NewKuttaMerson[float64]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dynamo.DefaultAdaptive()
			cfg.AbsTol, cfg.RelTol = 1e-10, 1e-10

			x := []float64{1, 0}
			tm, dt := 0.0, 0.5
			for steps := 0; tm < 3; steps++ {
				require.Less(t, steps, 100000)
				require.NoError(t, tt.step.StepAdaptive(oscillator, x, &tm, &dt, cfg))
				require.LessOrEqual(t, tt.step.Statistics().LastError, 1.0, "t=%g", tm)
			}
			assert.Positive(t, tt.step.Statistics().Rejected)
		})
	}
}
