package modular

import "github.com/san-kum/ascent/internal/integrators"

// multistep tracks the cold start shared by the history-based methods.
type multistep struct {
	Initializer Stepper

	need        int
	initialized int
}

func (m *multistep) Ready() bool { return m.initialized >= m.need }

func (m *multistep) Reset() { m.initialized = 0 }

// warmup takes one cold start step. It reports true once the history is
// complete, after load has copied each state's history into its memory.
func (m *multistep) warmup(s *Sim, t *float64, dt float64, load func(st *State)) (bool, error) {
	if m.initialized == 0 {
		for _, st := range s.States() {
			st.ClearHistory()
		}
	}
	if err := coldStart(s, m.Initializer, t, dt); err != nil {
		return false, err
	}
	m.initialized++
	if !m.Ready() {
		return false, nil
	}
	for _, st := range s.States() {
		load(st)
		st.ClearHistory()
	}
	return true, nil
}

// pc233 memory: x0, xd0, xd_-1
type pc233Prop struct{ passCounter }

func (p *pc233Prop) Propagate(st *State, dt float64) {
	m := st.Grow(3)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt/18*(7*m[1]-m[2]))
	case 1:
		st.SetX(m[0] + dt/54*(39*st.Xd()-4*m[1]+m[2]))
	case 2:
		st.SetX(m[0] + dt/4*(m[1]+3*st.Xd()))
		m[2] = m[1]
	}
}

type pc233Stepper struct{ t0 float64 }

func (p *pc233Stepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		p.t0 = *t
		*t += dt / 3
	case 1:
		*t += dt / 3
	case 2:
		*t = p.t0 + dt
	}
}

// PC233 is a two-step, three-stage, third order predictor-corrector.
type PC233 struct {
	multistep
	prop    pc233Prop
	stepper pc233Stepper
}

func NewPC233() *PC233 {
	return &PC233{multistep: multistep{Initializer: NewRK4(), need: 1}}
}

func (p *PC233) Step(s *Sim, t *float64, dt float64) error {
	if !p.Ready() {
		_, err := p.warmup(s, t, dt, func(st *State) {
			st.Grow(3)[2] = st.History[0]
		})
		return err
	}
	return fixedStep(s, 3, &p.prop, &p.stepper, t, dt)
}

// loadAdams moves a three entry history into memory slots 2..4, most recent
// first.
func loadAdams(st *State) {
	m := st.Grow(5)
	for k := 0; k < integrators.HistoryLen; k++ {
		m[4-k] = st.History[k]
	}
}

func shiftAdams(m []float64) {
	m[4] = m[3]
	m[3] = m[2]
	m[2] = m[1]
}

// abm4 memory: x0, xd0, xd_-1, xd_-2, xd_-3
type abm4Prop struct{ passCounter }

func (p *abm4Prop) Propagate(st *State, dt float64) {
	m := st.Grow(5)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt/24*(55*m[1]-59*m[2]+37*m[3]-9*m[4]))
	case 1:
		st.SetX(m[0] + dt/720*(251*st.Xd()+646*m[1]-264*m[2]+106*m[3]-19*m[4]))
		shiftAdams(m)
	}
}

// ABM4 is the fourth order Adams-Bashforth-Moulton predictor-corrector. The
// first three steps are taken by Initializer.
type ABM4 struct {
	multistep
	prop    abm4Prop
	stepper midStepper
}

func NewABM4() *ABM4 {
	return &ABM4{
		multistep: multistep{Initializer: NewRK4(), need: integrators.HistoryLen},
		stepper:   midStepper{frac: 1},
	}
}

func (a *ABM4) Step(s *Sim, t *float64, dt float64) error {
	if !a.Ready() {
		_, err := a.warmup(s, t, dt, loadAdams)
		return err
	}
	return fixedStep(s, 2, &a.prop, &a.stepper, t, dt)
}

type rtam4Prop struct{ passCounter }

func (p *rtam4Prop) Propagate(st *State, dt float64) {
	m := st.Grow(5)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt/384*(297*m[1]-187*m[2]+107*m[3]-25*m[4]))
	case 1:
		st.SetX(m[0] + dt/30*(36*st.Xd()-10*m[1]+5*m[2]-m[3]))
		shiftAdams(m)
	}
}

// RTAM4 predicts to the step midpoint and corrects to the step end.
type RTAM4 struct {
	multistep
	prop    rtam4Prop
	stepper midStepper
}

func NewRTAM4() *RTAM4 {
	return &RTAM4{
		multistep: multistep{Initializer: NewRK4(), need: integrators.HistoryLen},
		stepper:   midStepper{frac: 0.5},
	}
}

func (r *RTAM4) Step(s *Sim, t *float64, dt float64) error {
	if !r.Ready() {
		_, err := r.warmup(s, t, dt, loadAdams)
		return err
	}
	return fixedStep(s, 2, &r.prop, &r.stepper, t, dt)
}

// rtam2 memory: x0, xd_-1
type rtam2Prop struct{ passCounter }

func (p *rtam2Prop) Propagate(st *State, dt float64) {
	m := st.Grow(2)
	switch p.pass {
	case 0:
		m[0] = st.X()
		xd0 := st.Xd()
		st.SetX(m[0] + dt/8*(5*xd0-m[1]))
		m[1] = xd0
	case 1:
		st.SetX(m[0] + dt*st.Xd())
	}
}

// RTAM2 is the second order real-time Adams method.
type RTAM2 struct {
	multistep
	prop    rtam2Prop
	stepper midStepper
}

func NewRTAM2() *RTAM2 {
	return &RTAM2{
		multistep: multistep{Initializer: NewRK4(), need: 1},
		stepper:   midStepper{frac: 0.5},
	}
}

func (r *RTAM2) Step(s *Sim, t *float64, dt float64) error {
	if !r.Ready() {
		_, err := r.warmup(s, t, dt, func(st *State) {
			st.Grow(2)[1] = st.History[0]
		})
		return err
	}
	return fixedStep(s, 2, &r.prop, &r.stepper, t, dt)
}

// rtam3 memory: x0, xd0, xd_-1, xd_-2
type rtam3Prop struct{ passCounter }

func (p *rtam3Prop) Propagate(st *State, dt float64) {
	m := st.Grow(4)
	switch p.pass {
	case 0:
		m[0] = st.X()
		m[1] = st.Xd()
		st.SetX(m[0] + dt/24*(17*m[1]-7*m[2]+2*m[3]))
	case 1:
		st.SetX(m[0] + dt/18*(20*st.Xd()-3*m[1]+m[2]))
		m[3] = m[2]
		m[2] = m[1]
	}
}

// RTAM3 is the third order real-time Adams method. Its first two steps are
// taken by Initializer.
type RTAM3 struct {
	multistep
	prop    rtam3Prop
	stepper midStepper
}

func NewRTAM3() *RTAM3 {
	return &RTAM3{
		multistep: multistep{Initializer: NewRK4(), need: 2},
		stepper:   midStepper{frac: 0.5},
	}
}

func (r *RTAM3) Step(s *Sim, t *float64, dt float64) error {
	if !r.Ready() {
		_, err := r.warmup(s, t, dt, func(st *State) {
			m := st.Grow(4)
			m[2] = st.History[1]
			m[3] = st.History[0]
		})
		return err
	}
	return fixedStep(s, 2, &r.prop, &r.stepper, t, dt)
}
