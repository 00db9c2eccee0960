package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/models"
	"github.com/san-kum/ascent/internal/sim"
	"github.com/san-kum/ascent/internal/viz"
)

func testConfig(system, integrator string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.System = system
	cfg.Integrator = integrator
	cfg.Dt = 0.01
	cfg.Duration = 1.0
	return cfg
}

func TestRegistryModels(t *testing.T) {
	reg := NewRegistry()
	for _, name := range reg.ListModels() {
		m, err := reg.GetModel(name)
		require.NoError(t, err, name)
		assert.Len(t, m.DefaultState(), m.Dim(), name)
	}

	_, err := reg.GetModel("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownSystem)
}

func TestRegistryIntegrators(t *testing.T) {
	reg := NewRegistry()
	assert.Contains(t, reg.ListIntegrators(), "dopri45")
	for _, name := range []string{"ncrk4", "midpoint", "rtam2", "rtam3"} {
		assert.Contains(t, reg.ListIntegrators(), name)
		assert.Contains(t, reg.ListModularIntegrators(), name)
	}
	for _, name := range reg.ListIntegrators() {
		st, err := reg.GetIntegrator(name)
		require.NoError(t, err, name)
		assert.NotNil(t, st, name)
	}
	for _, name := range reg.ListModularIntegrators() {
		st, err := reg.GetModularIntegrator(name, 4)
		require.NoError(t, err, name)
		assert.NotNil(t, st, name)
	}

	_, err := reg.GetIntegrator("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownIntegrator)
	_, err = reg.GetModularIntegrator("kutta_merson", 4)
	assert.ErrorIs(t, err, ErrUnknownIntegrator)
	_, err = reg.GetModularIntegrator("vabm", 1)
	assert.Error(t, err)
}

func TestRegistrySetups(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"airy", "exponential", "spring_damper"}, reg.ListSetups())
	_, err := reg.GetSetup("lorenz")
	assert.ErrorIs(t, err, ErrUnknownSystem)
}

func TestRunDirect(t *testing.T) {
	cfg := testConfig("pendulum", "rk4")
	result, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, result.StepsTaken)
	assert.Len(t, result.States, 101)
	assert.Contains(t, result.Metrics, "stability")
	assert.Contains(t, result.Metrics, "energy_drift")
	assert.Less(t, result.Metrics["energy_drift"], 1e-6)
}

func TestRunDirectParams(t *testing.T) {
	cfg := testConfig("exponential", "rk4")
	cfg.Params = map[string]float64{"rate": -1}
	result, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)
	final := result.States[len(result.States)-1]
	assert.InDelta(t, math.Exp(-1), final[0], 1e-8)

	cfg.Params = map[string]float64{"bogus": 1}
	_, err = New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrUnknownParam)
}

func TestRunDirectDimensionMismatch(t *testing.T) {
	cfg := testConfig("lorenz", "rk4")
	cfg.InitState = []float64{1, 2}
	_, err := New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig("pendulum", "rk4")
	cfg.Dt = 0
	_, err := New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestModularMatchesDirect(t *testing.T) {
	cfg := testConfig("spring_damper", "rk4")
	cfg.Duration = 1.5
	direct, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	cfg.Modular = true
	mod, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, direct.StepsTaken, mod.StepsTaken)
	want := direct.States[len(direct.States)-1]
	got := mod.States[len(mod.States)-1]
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "state %d", i)
	}
}

func TestModularInitState(t *testing.T) {
	cfg := testConfig("exponential", "rk4")
	cfg.Modular = true
	cfg.InitState = []float64{2}
	result, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, result.States[0][0])
	final := result.States[len(result.States)-1]
	assert.InDelta(t, 2*math.E, final[0], 1e-7)

	cfg.InitState = []float64{1, 2}
	_, err = New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestModularAdaptiveVABM(t *testing.T) {
	cfg := config.GetPreset("exponential", "modular")
	cfg.Duration = 1.0
	result, err := New(cfg, NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	final := result.States[len(result.States)-1]
	assert.InDelta(t, math.E, final[0], 1e-5)
	assert.InDelta(t, 1.0, result.Times[len(result.Times)-1], 1e-7)
	assert.Positive(t, result.Stats.Accepted)
}

func TestModularNotAdaptive(t *testing.T) {
	cfg := testConfig("airy", "rk4")
	cfg.Modular = true
	cfg.Adaptive.Enabled = true
	_, err := New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, sim.ErrNotAdaptive)
}

func TestModularUnknownParam(t *testing.T) {
	cfg := testConfig("airy", "rk4")
	cfg.Modular = true
	cfg.Params = map[string]float64{"k": 1}
	_, err := New(cfg, NewRegistry()).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrUnknownParam)
}

type countObserver struct{ n int }

func (c *countObserver) OnStep(dynamo.State, float64) { c.n++ }

func TestObserversAttached(t *testing.T) {
	reg := NewRegistry()
	for _, modularForm := range []bool{false, true} {
		cfg := testConfig("airy", "euler")
		cfg.Modular = modularForm
		obs := &countObserver{}
		e := New(cfg, reg)
		e.AddObserver(obs)
		_, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 101, obs.n, "modular=%v", modularForm)
	}
}

func TestWatchDirect(t *testing.T) {
	cfg := testConfig("pendulum", "rk4")
	m, err := New(cfg, NewRegistry()).Watch()
	require.NoError(t, err)

	next, _ := m.WithStepsPerFrame(1000).Update(viz.TickMsg{})
	m = next.(viz.Model)
	assert.True(t, m.Done())
	assert.Equal(t, 100, m.Steps())
	assert.Contains(t, m.View(), "Energy")
}

func TestWatchModularAdaptive(t *testing.T) {
	cfg := config.GetPreset("exponential", "modular")
	cfg.Duration = 0.1
	m, err := New(cfg, NewRegistry()).Watch()
	require.NoError(t, err)

	next, _ := m.WithStepsPerFrame(1000).Update(viz.TickMsg{})
	m = next.(viz.Model)
	require.NoError(t, m.Err())
	assert.True(t, m.Done())
	assert.Contains(t, m.View(), "Accepted")
}

func TestWatchNotAdaptive(t *testing.T) {
	cfg := testConfig("airy", "rk4")
	cfg.Adaptive.Enabled = true
	_, err := New(cfg, NewRegistry()).Watch()
	assert.ErrorIs(t, err, sim.ErrNotAdaptive)
}

func TestEnsemble(t *testing.T) {
	cfg := testConfig("lorenz", "rk4")
	cfg.Seed = 7
	results, err := New(cfg, NewRegistry()).Ensemble(context.Background(), 4, 1e-3)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, 100, r.StepsTaken)
	}
	assert.NotEqual(t, results[0].States[0], results[1].States[0])

	again, err := New(cfg, NewRegistry()).Ensemble(context.Background(), 4, 1e-3)
	require.NoError(t, err)
	assert.Equal(t, results[2].States[0], again[2].States[0])

	cfg.Modular = true
	_, err = New(cfg, NewRegistry()).Ensemble(context.Background(), 2, 0)
	assert.ErrorIs(t, err, ErrModularEnsemble)
}
