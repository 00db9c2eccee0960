package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/integrators"
)

var decay = dynamo.SystemFunc[float64](func(x, xd []float64, _ float64) {
	xd[0] = -x[0]
})

type testIntegrator struct{}

func (testIntegrator) Step(sys dynamo.System[float64], x []float64, t *float64, dt float64) {
	xd := make([]float64, len(x))
	sys.Derive(x, xd, *t)
	for i := range x {
		x[i] += dt * xd[i]
	}
	*t += dt
}

func testConfig(dt, duration float64) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = dt
	cfg.Duration = duration
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	sim := New(decay, testIntegrator{})

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, testConfig(0.1, 1.0))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}

	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	finalState := result.States[len(result.States)-1][0]
	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(decay, testIntegrator{})

	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero dt", testConfig(0, 1.0)},
		{"negative dt", testConfig(-0.1, 1.0)},
		{"zero duration", testConfig(0.1, 0)},
		{"negative duration", testConfig(0.1, -1.0)},
		{"NaN dt", testConfig(math.NaN(), 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), dynamo.State{1.0}, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x dynamo.State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(decay, testIntegrator{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, testConfig(0.1, 1.0))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestSimulatorRecordEvery(t *testing.T) {
	cfg := testConfig(0.1, 1.0)
	cfg.RecordEvery = 3

	result, err := New(decay, testIntegrator{}).Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// t=0, steps 3, 6, 9 and the final state
	if len(result.States) != 5 {
		t.Errorf("expected 5 recorded states, got %d", len(result.States))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	blowup := dynamo.SystemFunc[float64](func(x, xd []float64, _ float64) {
		xd[0] = x[0] * x[0] * 1e300
	})

	result, err := New(blowup, integrators.NewEuler[float64]()).Run(context.Background(), dynamo.State{1.0}, testConfig(0.1, 1.0))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], dynamo.ErrInvalidState) {
		t.Fatalf("expected one invalid state error, got %v", result.Errors)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(result.Errors[0], &simErr) || simErr.Step != 1 {
		t.Errorf("expected failure at step 1, got %v", result.Errors[0])
	}
}

func TestSimulatorContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(decay, testIntegrator{}).Run(ctx, dynamo.State{1.0}, testConfig(0.1, 1.0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulatorAdaptiveDOPRI45(t *testing.T) {
	cfg := testConfig(0.1, 5.0)
	cfg.Adaptive = true
	cfg.MaxDt = 0
	cfg.Tolerances.AbsTol = 1e-10
	cfg.Tolerances.RelTol = 1e-10

	d := integrators.NewDOPRI45[float64]()
	result, err := New(decay, d).Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	last := len(result.Times) - 1
	if math.Abs(result.Times[last]-5.0) > 1e-9 {
		t.Errorf("expected run to end at t=5, got %g", result.Times[last])
	}
	if got := result.States[last][0]; math.Abs(got-math.Exp(-5)) > 1e-8 {
		t.Errorf("expected %g, got %g", math.Exp(-5), got)
	}
	if result.Stats.Accepted != result.StepsTaken {
		t.Errorf("stats report %d accepted steps, run took %d", result.Stats.Accepted, result.StepsTaken)
	}
}

func TestSimulatorAdaptiveStepDoubling(t *testing.T) {
	cfg := testConfig(0.1, 2.0)
	cfg.Adaptive = true
	cfg.Tolerances.AbsTol = 1e-8

	result, err := New(decay, integrators.NewRK4[float64]()).Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	last := len(result.States) - 1
	if got := result.States[last][0]; math.Abs(got-math.Exp(-2)) > 1e-6 {
		t.Errorf("expected %g, got %g", math.Exp(-2), got)
	}
}

func TestSimulatorAdaptiveRejectsMultistep(t *testing.T) {
	cfg := testConfig(0.1, 1.0)
	cfg.Adaptive = true

	_, err := New(decay, integrators.NewABM4[float64]()).Run(context.Background(), dynamo.State{1.0}, cfg)
	if !errors.Is(err, ErrNotAdaptive) {
		t.Errorf("expected ErrNotAdaptive, got %v", err)
	}
}

func TestSimulatorResetsHistoryBetweenRuns(t *testing.T) {
	abm := integrators.NewABM4[float64]()
	sim := New(decay, abm)
	cfg := testConfig(0.01, 1.0)

	r1, err := sim.Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	r2, err := sim.Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	a := r1.States[len(r1.States)-1][0]
	b := r2.States[len(r2.States)-1][0]
	if a != b {
		t.Errorf("repeated runs differ: %g vs %g", a, b)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(decay, testIntegrator{})
	calls := 0
	err := sim.RunWithCallback(context.Background(), dynamo.State{1.0}, testConfig(0.1, 1.0), func(x dynamo.State, tm float64) bool {
		calls++
		return tm < 0.45
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 6 {
		t.Errorf("expected 6 callbacks, got %d", calls)
	}
}
