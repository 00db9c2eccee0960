package modular

import "github.com/san-kum/ascent/internal/integrators"

// fixedStep runs the passes of a fixed-step method and closes the step.
func fixedStep(s *Sim, n int, p Propagator, ts TimeStepper, t *float64, dt float64) error {
	if err := RunPasses(s, n, p, ts, t, dt); err != nil {
		return err
	}
	return s.PostCalc()
}

type eulerProp struct{ passCounter }

func (*eulerProp) Propagate(st *State, dt float64) {
	st.SetX(st.X() + dt*st.Xd())
}

type eulerStepper struct{}

func (eulerStepper) Advance(_ int, t *float64, dt float64) { *t += dt }

type Euler struct {
	prop    eulerProp
	stepper eulerStepper
}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 1, &e.prop, e.stepper, t, dt)
}

// midStepper serves two-pass methods whose first pass ends at t0+frac*dt.
type midStepper struct {
	t0   float64
	frac float64
}

func (m *midStepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		m.t0 = *t
		*t += m.frac * dt
	case 1:
		*t = m.t0 + dt
	}
}

type rk2Prop struct{ passCounter }

func (p *rk2Prop) Propagate(st *State, dt float64) {
	m := st.Grow(1)
	switch p.pass {
	case 0:
		m[0] = st.X()
		st.SetX(m[0] + 0.5*dt*st.Xd())
	case 1:
		st.SetX(m[0] + dt*st.Xd())
	}
}

// RK2 is the explicit midpoint method.
type RK2 struct {
	prop    rk2Prop
	stepper midStepper
}

func NewRK2() *RK2 { return &RK2{stepper: midStepper{frac: 0.5}} }

func (r *RK2) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 2, &r.prop, &r.stepper, t, dt)
}

type heunProp struct{ passCounter }

func (p *heunProp) Propagate(st *State, dt float64) {
	m := st.Grow(2)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt*m[1])
	case 1:
		st.SetX(m[0] + 0.5*dt*(m[1]+st.Xd()))
	}
}

type Heun struct {
	prop    heunProp
	stepper midStepper
}

func NewHeun() *Heun { return &Heun{stepper: midStepper{frac: 1}} }

func (h *Heun) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 2, &h.prop, &h.stepper, t, dt)
}

// rk4 memory: x0, xd0, xd1, xd2
type rk4Prop struct{ passCounter }

func (p *rk4Prop) Propagate(st *State, dt float64) {
	m := st.Grow(4)
	dt2 := 0.5 * dt
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt2*m[1])
	case 1:
		m[2] = st.Xd()
		st.SetX(m[0] + dt2*m[2])
	case 2:
		m[3] = st.Xd()
		st.SetX(m[0] + dt*m[3])
	case 3:
		st.SetX(m[0] + dt/6*(m[1]+2*m[2]+2*m[3]+st.Xd()))
	}
}

type rk4Stepper struct{ t0 float64 }

func (r *rk4Stepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		r.t0 = *t
		*t += 0.5 * dt
	case 2:
		*t = r.t0 + dt
	}
}

type RK4 struct {
	prop    rk4Prop
	stepper rk4Stepper
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 4, &r.prop, &r.stepper, t, dt)
}

type ralstonProp struct{ passCounter }

func (p *ralstonProp) Propagate(st *State, dt float64) {
	m := st.Grow(4)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt*(integrators.Ral10*m[1]))
	case 1:
		m[2] = st.Xd()
		st.SetX(m[0] + dt*(integrators.Ral20*m[1]+integrators.Ral21*m[2]))
	case 2:
		m[3] = st.Xd()
		st.SetX(m[0] + dt*(integrators.Ral30*m[1]+integrators.Ral31*m[2]+integrators.Ral32*m[3]))
	case 3:
		st.SetX(m[0] + dt*(integrators.Ral40*m[1]+integrators.Ral41*m[2]+integrators.Ral42*m[3]+integrators.Ral43*st.Xd()))
	}
}

type ralstonStepper struct{ t0 float64 }

func (r *ralstonStepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		r.t0 = *t
		*t = r.t0 + integrators.RalT1*dt
	case 1:
		*t = r.t0 + integrators.RalT2*dt
	case 2:
		*t = r.t0 + dt
	}
}

// Ralston4 is the fourth order Runge-Kutta method with minimum truncation
// error bound.
type Ralston4 struct {
	prop    ralstonProp
	stepper ralstonStepper
}

func NewRalston4() *Ralston4 { return &Ralston4{} }

func (r *Ralston4) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 4, &r.prop, &r.stepper, t, dt)
}

// ncrk4 memory: x0, xd0, xd1, xd2
type ncrk4Prop struct{ passCounter }

func (p *ncrk4Prop) Propagate(st *State, dt float64) {
	m := st.Grow(4)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt/3*m[1])
	case 1:
		m[2] = st.Xd()
		st.SetX(m[0] + dt*(m[2]-m[1]/3))
	case 2:
		m[3] = st.Xd()
		st.SetX(m[0] + dt*(m[1]-m[2]+m[3]))
	case 3:
		st.SetX(m[0] + dt/8*(m[1]+3*m[2]+3*m[3]+st.Xd()))
	}
}

type ncrk4Stepper struct{ t0 float64 }

func (r *ncrk4Stepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		r.t0 = *t
		*t += dt / 3
	case 1:
		*t = r.t0 + 2*dt/3
	case 2:
		*t = r.t0 + dt
	}
}

// NCRK4 is the Runge-Kutta 3/8 rule.
type NCRK4 struct {
	prop    ncrk4Prop
	stepper ncrk4Stepper
}

func NewNCRK4() *NCRK4 { return &NCRK4{} }

func (r *NCRK4) Step(s *Sim, t *float64, dt float64) error {
	return fixedStep(s, 4, &r.prop, &r.stepper, t, dt)
}

// midpoint memory: xd_-1
type midpointProp struct {
	passCounter
	seeded bool
}

func (p *midpointProp) Propagate(st *State, dt float64) {
	m := st.Grow(1)
	xd := st.Xd()
	if !p.seeded {
		m[0] = xd
	}
	st.SetX(st.X() + 0.5*dt*(m[0]+xd))
	m[0] = xd
}

// Midpoint averages the step-start derivative with the previous step's. The
// first step after a Reset is an Euler step.
type Midpoint struct {
	prop    midpointProp
	stepper eulerStepper
}

func NewMidpoint() *Midpoint { return &Midpoint{} }

func (m *Midpoint) Reset() { m.prop.seeded = false }

func (m *Midpoint) Step(s *Sim, t *float64, dt float64) error {
	if err := fixedStep(s, 1, &m.prop, m.stepper, t, dt); err != nil {
		return err
	}
	m.prop.seeded = true
	return nil
}
