package modular

import "github.com/san-kum/ascent/internal/dynamo"

// Propagator applies one pass of an integrator's stage rule to a state.
type Propagator interface {
	Propagate(st *State, dt float64)
	SetPass(pass int)
	Pass() int
}

// TimeStepper advances time after a pass.
type TimeStepper interface {
	Advance(pass int, t *float64, dt float64)
}

// Timer is told about step size changes made by adaptive integrators.
type Timer interface {
	BaseTimeStep(dt float64)
}

type Stepper interface {
	Step(s *Sim, t *float64, dt float64) error
}

type AdaptiveStepper interface {
	Stepper
	StepAdaptive(s *Sim, t *float64, dt *float64, cfg dynamo.AdaptiveConfig) error
}

type passCounter struct {
	pass int
}

func (p *passCounter) SetPass(pass int) { p.pass = pass }
func (p *passCounter) Pass() int        { return p.pass }

// RunPasses drives s through n passes of p and ts.
func RunPasses(s *Sim, n int, p Propagator, ts TimeStepper, t *float64, dt float64) error {
	if err := s.Start(); err != nil {
		return err
	}
	for pass := 0; pass < n; pass++ {
		if err := runPass(s, pass, true, p, ts, t, dt); err != nil {
			return err
		}
	}
	return nil
}

func runPass(s *Sim, pass int, update bool, p Propagator, ts TimeStepper, t *float64, dt float64) error {
	p.SetPass(pass)
	if update {
		if err := s.Update(); err != nil {
			return err
		}
		if err := s.Apply(); err != nil {
			return err
		}
	}
	s.Propagate(p, dt)
	ts.Advance(pass, t, dt)
	return s.PostProp()
}

// evaluate brings every derivative slot up to date with the current x and t.
func evaluate(s *Sim) error {
	if err := s.Start(); err != nil {
		return err
	}
	if err := s.Update(); err != nil {
		return err
	}
	return s.Apply()
}

// noTime leaves t untouched.
type noTime struct{}

func (noTime) Advance(int, *float64, float64) {}

// recordProp appends each state's derivative to its history.
type recordProp struct{ passCounter }

func (*recordProp) Propagate(st *State, _ float64) { st.Record() }

// coldStart records the step-start derivative of every state and lets init
// take the step.
func coldStart(s *Sim, init Stepper, t *float64, dt float64) error {
	if err := evaluate(s); err != nil {
		return err
	}
	s.Propagate(&recordProp{}, dt)
	return init.Step(s, t, dt)
}
