package sim

import (
	"context"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/san-kum/ascent/internal/dynamo"
)

// Simulator drives a direct integrator over a system.
type Simulator struct {
	sys       dynamo.System[float64]
	stepper   dynamo.Stepper[float64]
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    kitlog.Logger
}

func New(sys dynamo.System[float64], stepper dynamo.Stepper[float64]) *Simulator {
	return &Simulator{
		sys:       sys,
		stepper:   stepper,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    kitlog.NewNopLogger(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l kitlog.Logger)     { s.logger = l }

// Run integrates from x0 at t=0 for cfg.Duration. Fixed-step runs take
// Duration/Dt steps. Adaptive runs shorten the last step to end on Duration.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if r, ok := s.stepper.(dynamo.Resetter); ok {
		r.Reset()
	}

	var step func(x dynamo.State, t, dt *float64) error
	if cfg.Adaptive {
		var err error
		if step, err = s.adaptive(len(x0), cfg); err != nil {
			return nil, err
		}
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, steps/max(cfg.RecordEvery, 1)+2),
		Times:   make([]float64, 0, steps/max(cfg.RecordEvery, 1)+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	level.Info(s.logger).Log("msg", "run start", "dim", len(x), "dt", dt, "duration", cfg.Duration, "adaptive", cfg.Adaptive)

	s.record(result, x, t)
	s.observe(x, t)
	initialEnergy := s.computeEnergy(x)

	for i := 0; s.running(i, steps, t, cfg); i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if cfg.Adaptive {
			if t+dt > cfg.Duration {
				dt = cfg.Duration - t
			}
			if err := step(x, &t, &dt); err != nil {
				result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err})
				level.Warn(s.logger).Log("msg", "adaptive step failed", "t", t, "err", err)
				break
			}
		} else {
			s.stepper.Step(s.sys, x, &t, dt)
		}

		if cfg.ValidateState && !x.IsValid() {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState})
			level.Warn(s.logger).Log("msg", "invalid state", "step", i, "t", t)
			break
		}

		result.StepsTaken++
		if cfg.RecordEvery <= 1 || result.StepsTaken%cfg.RecordEvery == 0 {
			s.record(result, x, t)
		}
		s.observe(x, t)
	}

	if last := len(result.Times) - 1; result.Times[last] != t && x.IsValid() {
		s.record(result, x, t)
	}

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if sr, ok := s.stepper.(dynamo.StatsReporter); ok {
		result.Stats = sr.Statistics()
	}

	level.Info(s.logger).Log("msg", "run done", "steps", result.StepsTaken, "t", t, "rejected", result.Stats.Rejected, "errors", len(result.Errors))
	return result, nil
}

func (s *Simulator) running(i, steps int, t float64, cfg dynamo.Config) bool {
	if cfg.Adaptive {
		return t < cfg.Duration-timeEps(cfg.Duration)
	}
	return i < steps
}

func timeEps(duration float64) float64 {
	return 1e-12 * math.Max(1, math.Abs(duration))
}

func (s *Simulator) record(r *dynamo.Result, x dynamo.State, t float64) {
	r.States = append(r.States, x.Clone())
	r.Times = append(r.Times, t)
}

func (s *Simulator) observe(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive {
		if err := cfg.Tolerances.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) computeEnergy(x dynamo.State) float64 {
	if ec, ok := s.sys.(dynamo.Hamiltonian); ok {
		return ec.Energy(x)
	}
	return 0
}

// adaptive picks the integrator's own error control when it has one and
// falls back to step doubling for single-step methods.
func (s *Simulator) adaptive(dim int, cfg dynamo.Config) (func(x dynamo.State, t, dt *float64) error, error) {
	clamp := func(dt *float64) error {
		if cfg.MaxDt > 0 && *dt > cfg.MaxDt {
			*dt = cfg.MaxDt
		}
		if *dt < cfg.MinDt {
			return fmt.Errorf("%w: dt=%g", dynamo.ErrStepTooSmall, *dt)
		}
		return nil
	}

	if a, ok := s.stepper.(dynamo.AdaptiveStepper[float64]); ok {
		return func(x dynamo.State, t, dt *float64) error {
			if err := a.StepAdaptive(s.sys, x, t, dt, cfg.Tolerances); err != nil {
				return err
			}
			return clamp(dt)
		}, nil
	}
	if _, ok := s.stepper.(dynamo.Resetter); ok {
		return nil, fmt.Errorf("%w: %T keeps history between steps", ErrNotAdaptive, s.stepper)
	}

	pool := NewStatePool(dim)
	return func(x dynamo.State, t, dt *float64) error {
		return s.doublingStep(pool, x, t, dt, cfg, clamp)
	}, nil
}

// doublingStep compares one full step against two half steps and keeps the
// half step result.
func (s *Simulator) doublingStep(pool *StatePool, x dynamo.State, t, dt *float64, cfg dynamo.Config, clamp func(*float64) error) error {
	tol := cfg.Tolerances.AbsTol
	x1 := pool.Get()
	x2 := pool.Get()
	defer pool.Put(x1)
	defer pool.Put(x2)

	for rejections := 0; ; {
		copy(x1, x)
		copy(x2, x)
		t1, t2 := *t, *t
		s.stepper.Step(s.sys, x1, &t1, *dt)
		s.stepper.Step(s.sys, x2, &t2, *dt/2)
		s.stepper.Step(s.sys, x2, &t2, *dt/2)

		err := dynamo.State(x1).Sub(x2).Norm()
		if !(err <= tol) && *dt > cfg.MinDt {
			rejections++
			*dt /= 2
			if cfg.Tolerances.Exhausted(rejections) {
				return &dynamo.RejectionError{Rejections: rejections, Dt: *dt, ErrMax: err / tol}
			}
			continue
		}

		copy(x, x2)
		*t = t2
		if err < tol/10 {
			*dt *= 2
		}
		return clamp(dt)
	}
}

// RunWithCallback steps until Duration or until callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if r, ok := s.stepper.(dynamo.Resetter); ok {
		r.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		s.stepper.Step(s.sys, x, &t, dt)

		if cfg.ValidateState && !x.IsValid() {
			return &dynamo.SimulationError{Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
	}

	return nil
}
