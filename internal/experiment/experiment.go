package experiment

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/kit/log"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/integrators"
	"github.com/san-kum/ascent/internal/models"
	"github.com/san-kum/ascent/internal/modular"
	"github.com/san-kum/ascent/internal/sim"
	"github.com/san-kum/ascent/internal/timing"
	"github.com/san-kum/ascent/internal/viz"
)

// Experiment resolves a config against a registry and runs it in either the
// direct or the modular form.
type Experiment struct {
	cfg       *config.Config
	reg       *Registry
	logger    kitlog.Logger
	observers []dynamo.Observer
}

func New(cfg *config.Config, reg *Registry) *Experiment {
	return &Experiment{cfg: cfg, reg: reg, logger: kitlog.NewNopLogger()}
}

func (e *Experiment) SetLogger(l kitlog.Logger)     { e.logger = l }
func (e *Experiment) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.Modular {
		return e.runModular(ctx)
	}
	return e.runDirect(ctx)
}

func (e *Experiment) direct() (models.Model, dynamo.State, dynamo.Stepper[float64], error) {
	m, err := e.reg.GetModel(e.cfg.System)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(e.cfg.Params) > 0 {
		c, ok := m.(models.Configurable)
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: %s takes no parameters", models.ErrUnknownParam, e.cfg.System)
		}
		for name, v := range e.cfg.Params {
			if err := c.SetParam(name, v); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	x0 := e.cfg.InitialState(m.DefaultState())
	if len(x0) != m.Dim() {
		return nil, nil, nil, fmt.Errorf("%w: %s has %d states, init_state has %d", dynamo.ErrDimensionMismatch, e.cfg.System, m.Dim(), len(x0))
	}

	stepper, err := e.reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, nil, nil, err
	}
	e.attachLogger(stepper)
	return m, x0, stepper, nil
}

// Simulator builds the direct simulator and its initial state without
// running it.
func (e *Experiment) Simulator() (*sim.Simulator, dynamo.State, error) {
	return e.simulator(e.observers)
}

func (e *Experiment) simulator(observers []dynamo.Observer) (*sim.Simulator, dynamo.State, error) {
	m, x0, stepper, err := e.direct()
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(m, stepper)
	s.SetLogger(e.logger)
	for _, metric := range e.reg.DefaultMetrics(m) {
		s.AddMetric(metric)
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	return s, x0, nil
}

// Ensemble runs the direct form runs times in parallel, each from x0 plus
// a seeded normal perturbation of scale perturb. Observers are not attached
// to ensemble runs.
func (e *Experiment) Ensemble(ctx context.Context, runs int, perturb float64) ([]*dynamo.Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.Modular {
		return nil, ErrModularEnsemble
	}
	_, x0, err := e.simulator(nil)
	if err != nil {
		return nil, err
	}

	ens := sim.NewEnsemble(func() *sim.Simulator {
		s, _, _ := e.simulator(nil)
		return s
	}, runs, e.cfg.Seed)
	ens.Perturb = perturb
	return ens.Run(ctx, x0, e.cfg.RunConfig())
}

func (e *Experiment) runDirect(ctx context.Context) (*dynamo.Result, error) {
	s, x0, err := e.Simulator()
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, e.cfg.RunConfig())
}

// assemble builds the modular form with the clock run first. Modules are
// started when init_state has to overwrite the values they initialized.
func (e *Experiment) assemble() (*modular.Sim, *timing.Clock, modular.Stepper, error) {
	setup, err := e.reg.GetSetup(e.cfg.System)
	if err != nil {
		return nil, nil, nil, err
	}
	clock := timing.NewClock(e.cfg.Dt, timing.Unbounded)
	mods, err := setup(clock, e.cfg.Params)
	if err != nil {
		return nil, nil, nil, err
	}

	stepper, err := e.reg.GetModularIntegrator(e.cfg.Integrator, e.cfg.Order)
	if err != nil {
		return nil, nil, nil, err
	}
	e.attachLogger(stepper)

	s := modular.New(mods...)
	s.RunFirst(clock)

	if len(e.cfg.InitState) > 0 {
		if err := s.Start(); err != nil {
			return nil, nil, nil, err
		}
		states := s.States()
		if len(states) != len(e.cfg.InitState) {
			return nil, nil, nil, fmt.Errorf("%w: %s has %d states, init_state has %d", dynamo.ErrDimensionMismatch, e.cfg.System, len(states), len(e.cfg.InitState))
		}
		for i, st := range states {
			st.SetX(e.cfg.InitState[i])
		}
	}
	return s, clock, stepper, nil
}

// Runner builds the modular runner without running it.
func (e *Experiment) Runner() (*sim.ModularRunner, error) {
	s, clock, stepper, err := e.assemble()
	if err != nil {
		return nil, err
	}
	runner := sim.NewModular(s, clock, stepper)
	runner.SetLogger(e.logger)
	for _, metric := range e.reg.DefaultMetrics(nil) {
		runner.AddMetric(metric)
	}
	for _, o := range e.observers {
		runner.AddObserver(o)
	}
	return runner, nil
}

func (e *Experiment) runModular(ctx context.Context) (*dynamo.Result, error) {
	runner, err := e.Runner()
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, e.cfg.RunConfig())
}

// Watch builds the live view of the experiment.
func (e *Experiment) Watch() (viz.Model, error) {
	if err := e.cfg.Validate(); err != nil {
		return viz.Model{}, err
	}
	var tol *dynamo.AdaptiveConfig
	if e.cfg.Adaptive.Enabled {
		c := e.cfg.AdaptiveConfig()
		tol = &c
	}

	if e.cfg.Modular {
		s, clock, stepper, err := e.assemble()
		if err != nil {
			return viz.Model{}, err
		}
		if _, ok := stepper.(modular.AdaptiveStepper); tol != nil && !ok {
			return viz.Model{}, fmt.Errorf("%w: %T", sim.ErrNotAdaptive, stepper)
		}
		src, err := viz.NewModularSource(s, clock, stepper)
		if err != nil {
			return viz.Model{}, err
		}
		src.Adaptive = tol
		return viz.NewModel(e.cfg.System, src).WithDuration(e.cfg.Duration), nil
	}

	m, x0, stepper, err := e.direct()
	if err != nil {
		return viz.Model{}, err
	}
	if _, ok := stepper.(dynamo.AdaptiveStepper[float64]); tol != nil && !ok {
		return viz.Model{}, fmt.Errorf("%w: %T", sim.ErrNotAdaptive, stepper)
	}
	src := viz.NewDirectSource(m, stepper, x0, e.cfg.Dt)
	src.Adaptive = tol
	model := viz.NewModel(e.cfg.System, src).WithDuration(e.cfg.Duration)
	if h, ok := m.(dynamo.Hamiltonian); ok {
		model = model.WithEnergy(h)
	}
	return model, nil
}

func (e *Experiment) attachLogger(stepper any) {
	switch st := stepper.(type) {
	case *integrators.DOPRI45[float64]:
		st.Logger = e.logger
	case *integrators.KuttaMerson[float64]:
		st.Logger = e.logger
	case *modular.DOPRI45:
		st.Logger = e.logger
	case *modular.VABM:
		st.Logger = e.logger
	}
}
