package modular

import (
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/integrators"
)

const (
	dpStages = 6

	// passes past the stages, run through Sim.Propagate without time advance
	dpErrorPass   = 6
	dpRestorePass = 7
	dpAcceptPass  = 8
)

// dopri45 memory: x0, xd0, xd1, xd2, xd3, xd4, xd5
type dopri45Prop struct {
	passCounter
	fsal           bool
	absTol, relTol float64
	eMax           float64
}

func (p *dopri45Prop) Propagate(st *State, dt float64) {
	m := st.Grow(7)
	switch p.pass {
	case 0:
		m[0] = st.X()
		if !p.fsal {
			m[1] = st.Xd()
		}
		st.SetX(m[0] + integrators.DPT1*dt*m[1])
	case 1:
		m[2] = st.Xd()
		st.SetX(m[0] + dt*(integrators.DP10*m[1]+integrators.DP11*m[2]))
	case 2:
		m[3] = st.Xd()
		st.SetX(m[0] + dt*(integrators.DP20*m[1]+integrators.DP21*m[2]+integrators.DP22*m[3]))
	case 3:
		m[4] = st.Xd()
		st.SetX(m[0] + dt*(integrators.DP30*m[1]+integrators.DP31*m[2]+integrators.DP32*m[3]+integrators.DP33*m[4]))
	case 4:
		m[5] = st.Xd()
		st.SetX(m[0] + dt*(integrators.DP40*m[1]+integrators.DP41*m[2]+integrators.DP42*m[3]+integrators.DP43*m[4]+integrators.DP44*m[5]))
	case 5:
		m[6] = st.Xd()
		st.SetX(m[0] + dt*(integrators.DP50*m[1]+integrators.DP52*m[3]+integrators.DP53*m[4]+integrators.DP54*m[5]+integrators.DP55*m[6]))
	case dpErrorPass:
		x4 := m[0] + dt*(integrators.DPE0*m[1]+integrators.DPE2*m[3]+integrators.DPE3*m[4]+integrators.DPE4*m[5]+integrators.DPE5*m[6]+integrators.DPE6*st.Xd())
		e := math.Abs(x4-st.X()) / (p.absTol + p.relTol*(math.Abs(m[0])+integrators.DPDerivScaling*math.Abs(m[1])))
		if e > p.eMax || math.IsNaN(e) {
			p.eMax = e
		}
	case dpRestorePass:
		st.SetX(m[0])
	case dpAcceptPass:
		m[1] = st.Xd()
	}
}

type dopri45Stepper struct{ t0 float64 }

func (d *dopri45Stepper) Advance(pass int, t *float64, dt float64) {
	switch pass {
	case 0:
		d.t0 = *t
		*t += integrators.DPT1 * dt
	case 1:
		*t = d.t0 + integrators.DPT2*dt
	case 2:
		*t = d.t0 + integrators.DPT3*dt
	case 3:
		*t = d.t0 + integrators.DPT4*dt
	case 4:
		*t = d.t0 + dt
	}
}

// DOPRI45 is the Dormand-Prince 5(4) pair. After an accepted adaptive step
// the derivatives left in the modules are reused as the next first stage.
// Call Reset after changing module values between steps.
type DOPRI45 struct {
	Logger kitlog.Logger
	Stats  dynamo.AdaptiveStats

	fsal    bool
	prop    dopri45Prop
	stepper dopri45Stepper
}

func NewDOPRI45() *DOPRI45 { return &DOPRI45{} }

func (d *DOPRI45) Reset() {
	d.fsal = false
	d.Stats.Reset()
}

func (d *DOPRI45) Statistics() dynamo.AdaptiveStats { return d.Stats }

func (d *DOPRI45) trial(s *Sim, t *float64, dt float64) error {
	d.prop.fsal = d.fsal
	d.Stats.Evaluations += dpStages
	if d.fsal {
		d.Stats.Evaluations--
	}
	for pass := 0; pass < dpStages; pass++ {
		if err := runPass(s, pass, pass > 0 || !d.fsal, &d.prop, &d.stepper, t, dt); err != nil {
			return err
		}
	}
	return nil
}

func (d *DOPRI45) Step(s *Sim, t *float64, dt float64) error {
	if err := s.Start(); err != nil {
		return err
	}
	err := d.trial(s, t, dt)
	d.fsal = false
	if err != nil {
		return err
	}
	return s.PostCalc()
}

func (d *DOPRI45) StepAdaptive(s *Sim, t *float64, dt *float64, cfg dynamo.AdaptiveConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	d.prop.absTol, d.prop.relTol = cfg.AbsTol, cfg.RelTol
	timer := s.Timer()
	t0 := *t

	for rejections := 0; ; {
		if err := d.trial(s, t, *dt); err != nil {
			d.fsal = false
			return err
		}
		if err := evaluate(s); err != nil {
			d.fsal = false
			return err
		}
		d.Stats.Evaluations++
		d.prop.eMax = 0
		d.prop.SetPass(dpErrorPass)
		s.Propagate(&d.prop, *dt)
		eMax := d.prop.eMax
		d.Stats.LastError = eMax

		if !(eMax <= integrators.DPRejectAbove) {
			rejections++
			d.Stats.Rejected++
			*dt *= integrators.DPShrink(cfg.SafetyFactor, eMax)
			*t = t0
			d.prop.SetPass(dpRestorePass)
			s.Propagate(&d.prop, *dt)
			// xd0 in memory still belongs to the restored x
			d.fsal = true
			if timer != nil {
				timer.BaseTimeStep(*dt)
			}
			if d.Logger != nil {
				level.Debug(d.Logger).Log("msg", "step rejected", "t", t0, "err", eMax, "dt", *dt)
			}
			if cfg.Exhausted(rejections) {
				return &dynamo.RejectionError{Rejections: rejections, Dt: *dt, ErrMax: eMax}
			}
			continue
		}

		if grow := integrators.DPGrow(cfg.SafetyFactor, eMax); grow != 1 {
			*dt *= grow
			if timer != nil {
				timer.BaseTimeStep(*dt)
			}
		}
		d.prop.SetPass(dpAcceptPass)
		s.Propagate(&d.prop, *dt)
		d.fsal = true
		d.Stats.Accepted++
		d.Stats.LastDt = *dt
		return s.PostCalc()
	}
}
