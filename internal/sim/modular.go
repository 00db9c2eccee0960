package sim

import (
	"context"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/modular"
	"github.com/san-kum/ascent/internal/timing"
)

// ModularRunner drives a modular simulation. The clock is run first so
// that every module sees the time of the pass being evaluated.
type ModularRunner struct {
	sim       *modular.Sim
	clock     *timing.Clock
	stepper   modular.Stepper
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    kitlog.Logger
}

func NewModular(s *modular.Sim, clock *timing.Clock, stepper modular.Stepper) *ModularRunner {
	s.RunFirst(clock)
	return &ModularRunner{
		sim:     s,
		clock:   clock,
		stepper: stepper,
		logger:  kitlog.NewNopLogger(),
	}
}

func (r *ModularRunner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *ModularRunner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }
func (r *ModularRunner) SetLogger(l kitlog.Logger)     { r.logger = l }

// Snapshot copies every module state value in propagation order.
func (r *ModularRunner) Snapshot() dynamo.State {
	states := r.sim.States()
	x := make(dynamo.State, len(states))
	for i, st := range states {
		x[i] = st.X()
	}
	return x
}

// Run advances the clock by cfg.Duration from its current time.
func (r *ModularRunner) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	var adaptive modular.AdaptiveStepper
	if cfg.Adaptive {
		a, ok := r.stepper.(modular.AdaptiveStepper)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotAdaptive, r.stepper)
		}
		adaptive = a
	}
	if rs, ok := r.stepper.(dynamo.Resetter); ok {
		rs.Reset()
	}
	if err := r.sim.Start(); err != nil {
		return nil, err
	}

	clock := r.clock
	clock.TEnd = clock.T + cfg.Duration
	clock.BaseTimeStep(cfg.Dt)
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	result := &dynamo.Result{
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	x := r.Snapshot()
	level.Info(r.logger).Log("msg", "modular run start", "modules", r.sim.Len(), "states", len(x), "dt", cfg.Dt, "duration", cfg.Duration, "adaptive", cfg.Adaptive)
	r.emit(result, x, clock.T, true)

	for i := 0; ; i++ {
		if adaptive != nil && clock.Done() || adaptive == nil && i >= steps {
			break
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := r.step(adaptive, cfg); err != nil {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: clock.T, State: r.Snapshot(), Wrapped: err})
			level.Warn(r.logger).Log("msg", "step failed", "t", clock.T, "err", err)
			break
		}

		x = r.Snapshot()
		if cfg.ValidateState && !x.IsValid() {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: clock.T, State: x, Wrapped: dynamo.ErrInvalidState})
			level.Warn(r.logger).Log("msg", "invalid state", "step", i, "t", clock.T)
			break
		}

		result.StepsTaken++
		r.emit(result, x, clock.T, cfg.RecordEvery <= 1 || result.StepsTaken%cfg.RecordEvery == 0)
	}

	if n := len(result.Times); n > 0 && result.Times[n-1] != clock.T && x.IsValid() {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, clock.T)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if sr, ok := r.stepper.(dynamo.StatsReporter); ok {
		result.Stats = sr.Statistics()
	}

	level.Info(r.logger).Log("msg", "modular run done", "steps", result.StepsTaken, "t", clock.T, "rejected", result.Stats.Rejected)
	return result, nil
}

func (r *ModularRunner) step(adaptive modular.AdaptiveStepper, cfg dynamo.Config) error {
	clock := r.clock
	if adaptive == nil {
		return r.stepper.Step(r.sim, &clock.T, clock.Dt)
	}

	clock.Event(clock.TEnd)
	err := adaptive.StepAdaptive(r.sim, &clock.T, &clock.Dt, cfg.Tolerances)
	clock.Reset()
	if err != nil {
		return err
	}
	if cfg.MaxDt > 0 && clock.Dt > cfg.MaxDt {
		clock.BaseTimeStep(cfg.MaxDt)
	}
	if clock.Dt < cfg.MinDt {
		return fmt.Errorf("%w: dt=%g", dynamo.ErrStepTooSmall, clock.Dt)
	}
	return nil
}

func (r *ModularRunner) emit(result *dynamo.Result, x dynamo.State, t float64, record bool) {
	if record {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}
	for _, m := range r.metrics {
		m.Observe(x, t)
	}
	for _, obs := range r.observers {
		obs.OnStep(x, t)
	}
}
