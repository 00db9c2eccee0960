package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/integrators"
	"github.com/san-kum/ascent/internal/metrics"
	"github.com/san-kum/ascent/internal/models"
	"github.com/san-kum/ascent/internal/modular"
	"github.com/san-kum/ascent/internal/timing"
)

var (
	ErrUnknownSystem     = errors.New("experiment: unknown system")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
	ErrModularEnsemble   = errors.New("experiment: ensembles run the direct form only")
)

// Setup builds the modules of a modular system. The clock is shared by every
// module that needs the current time.
type Setup func(clock *timing.Clock, params map[string]float64) ([]modular.Module, error)

type Registry struct {
	models      map[string]func() (models.Model, error)
	integrators map[string]func() dynamo.Stepper[float64]
	setups      map[string]Setup
	modular     map[string]func(order int) (modular.Stepper, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() (models.Model, error)),
		integrators: make(map[string]func() dynamo.Stepper[float64]),
		setups:      make(map[string]Setup),
		modular:     make(map[string]func(int) (modular.Stepper, error)),
	}

	r.models["airy"] = model(models.NewAiry)
	r.models["exponential"] = model(models.NewExponential)
	r.models["oscillator"] = model(models.NewOscillator)
	r.models["duffing"] = model(models.NewDuffing)
	r.models["pendulum"] = model(models.NewPendulum)
	r.models["double_pendulum"] = model(models.NewDoublePendulum)
	r.models["spring_mass"] = model(models.NewSpringMass)
	r.models["lorenz"] = model(models.NewLorenz)
	r.models["rossler"] = model(models.NewRossler)
	r.models["vanderpol"] = model(models.NewVanDerPol)
	r.models["nbody"] = func() (models.Model, error) { return models.NewNBody(3), nil }
	r.models["spring_damper"] = func() (models.Model, error) { return models.NewSpringDamper() }

	r.integrators["euler"] = func() dynamo.Stepper[float64] { return integrators.NewEuler[float64]() }
	r.integrators["rk2"] = func() dynamo.Stepper[float64] { return integrators.NewRK2[float64]() }
	r.integrators["heun"] = func() dynamo.Stepper[float64] { return integrators.NewHeun[float64]() }
	r.integrators["rk4"] = func() dynamo.Stepper[float64] { return integrators.NewRK4[float64]() }
	r.integrators["ralston4"] = func() dynamo.Stepper[float64] { return integrators.NewRalston4[float64]() }
	r.integrators["ncrk4"] = func() dynamo.Stepper[float64] { return integrators.NewNCRK4[float64]() }
	r.integrators["midpoint"] = func() dynamo.Stepper[float64] { return integrators.NewMidpoint[float64]() }
	r.integrators["pc233"] = func() dynamo.Stepper[float64] { return integrators.NewPC233[float64]() }
	r.integrators["abm4"] = func() dynamo.Stepper[float64] { return integrators.NewABM4[float64]() }
	r.integrators["rtam2"] = func() dynamo.Stepper[float64] { return integrators.NewRTAM2[float64]() }
	r.integrators["rtam3"] = func() dynamo.Stepper[float64] { return integrators.NewRTAM3[float64]() }
	r.integrators["rtam4"] = func() dynamo.Stepper[float64] { return integrators.NewRTAM4[float64]() }
	r.integrators["dopri45"] = func() dynamo.Stepper[float64] { return integrators.NewDOPRI45[float64]() }
	r.integrators["kutta_merson"] = func() dynamo.Stepper[float64] { return integrators.NewKuttaMerson[float64]() }
	r.integrators["verlet"] = func() dynamo.Stepper[float64] { return integrators.NewVerlet[float64]() }
	r.integrators["leapfrog"] = func() dynamo.Stepper[float64] { return integrators.NewLeapfrog[float64]() }

	r.setups["airy"] = airySetup
	r.setups["exponential"] = exponentialSetup
	r.setups["spring_damper"] = springDamperSetup

	r.modular["euler"] = fixed(func() modular.Stepper { return modular.NewEuler() })
	r.modular["rk2"] = fixed(func() modular.Stepper { return modular.NewRK2() })
	r.modular["heun"] = fixed(func() modular.Stepper { return modular.NewHeun() })
	r.modular["rk4"] = fixed(func() modular.Stepper { return modular.NewRK4() })
	r.modular["ralston4"] = fixed(func() modular.Stepper { return modular.NewRalston4() })
	r.modular["ncrk4"] = fixed(func() modular.Stepper { return modular.NewNCRK4() })
	r.modular["midpoint"] = fixed(func() modular.Stepper { return modular.NewMidpoint() })
	r.modular["pc233"] = fixed(func() modular.Stepper { return modular.NewPC233() })
	r.modular["abm4"] = fixed(func() modular.Stepper { return modular.NewABM4() })
	r.modular["rtam2"] = fixed(func() modular.Stepper { return modular.NewRTAM2() })
	r.modular["rtam3"] = fixed(func() modular.Stepper { return modular.NewRTAM3() })
	r.modular["rtam4"] = fixed(func() modular.Stepper { return modular.NewRTAM4() })
	r.modular["dopri45"] = fixed(func() modular.Stepper { return modular.NewDOPRI45() })
	r.modular["vabm"] = func(order int) (modular.Stepper, error) { return modular.NewVABM(order) }

	return r
}

func model[M models.Model](fn func() M) func() (models.Model, error) {
	return func() (models.Model, error) { return fn(), nil }
}

func fixed(fn func() modular.Stepper) func(int) (modular.Stepper, error) {
	return func(int) (modular.Stepper, error) { return fn(), nil }
}

func (r *Registry) GetModel(name string) (models.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSystem, name)
	}
	return fn()
}

func (r *Registry) GetIntegrator(name string) (dynamo.Stepper[float64], error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) GetSetup(name string) (Setup, error) {
	fn, ok := r.setups[name]
	if !ok {
		return nil, fmt.Errorf("%w: no modular form of %s", ErrUnknownSystem, name)
	}
	return fn, nil
}

// GetModularIntegrator builds a modular integrator. order is used by vabm only.
func (r *Registry) GetModularIntegrator(name string, order int) (modular.Stepper, error) {
	fn, ok := r.modular[name]
	if !ok {
		return nil, fmt.Errorf("%w: no modular form of %s", ErrUnknownIntegrator, name)
	}
	return fn(order)
}

func (r *Registry) ListModels() []string             { return sortedKeys(r.models) }
func (r *Registry) ListIntegrators() []string        { return sortedKeys(r.integrators) }
func (r *Registry) ListSetups() []string             { return sortedKeys(r.setups) }
func (r *Registry) ListModularIntegrators() []string { return sortedKeys(r.modular) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics collected on every run of sys. Energy
// is only reported for Hamiltonian systems.
func (r *Registry) DefaultMetrics(sys any) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewStability(1e6),
		metrics.NewStepSize(),
	}
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergy(h), metrics.NewEnergyDrift(h))
	}
	return ms
}

func airySetup(clock *timing.Clock, params map[string]float64) ([]modular.Module, error) {
	m := models.NewAiryModule(clock)
	if err := applyParams(nil, params); err != nil {
		return nil, err
	}
	return []modular.Module{m}, nil
}

func exponentialSetup(_ *timing.Clock, params map[string]float64) ([]modular.Module, error) {
	m := models.NewExponentialModule()
	if err := applyParams(map[string]*float64{"rate": &m.Rate}, params); err != nil {
		return nil, err
	}
	return []modular.Module{m}, nil
}

// springDamperSetup mirrors models.NewSpringDamper.
func springDamperSetup(_ *timing.Clock, params map[string]float64) ([]modular.Module, error) {
	b0 := models.NewBody(0, 0, 0)
	b1 := models.NewBody(1, 40, 1)
	spring := models.NewSpring(b0, b1, 2000)
	damper := models.NewDamper(b0, b1, 5)

	fields := map[string]*float64{"k": &spring.K, "c": &damper.C, "m": &b1.M}
	if err := applyParams(fields, params); err != nil {
		return nil, err
	}
	return []modular.Module{b0, b1, spring, damper}, nil
}

func applyParams(fields map[string]*float64, params map[string]float64) error {
	for name, v := range params {
		p, ok := fields[name]
		if !ok {
			return fmt.Errorf("%w: %q", models.ErrUnknownParam, name)
		}
		*p = v
	}
	return nil
}
