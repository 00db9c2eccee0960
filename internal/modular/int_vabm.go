package modular

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ascent/internal/dynamo"
)

// vabm memory offsets; the phi arrays follow xp
const (
	vabmX0 = iota
	vabmXd0
	vabmXp
	vabmPhiN
)

const (
	vabmErrorPass   = 2
	vabmRestorePass = 3

	vabmMaxShrink = 0.5
	vabmMaxGrow   = 1.5
	vabmGrowBelow = 0.25
	vabmErrFloor  = 1e-7
)

// vabmProp keeps the modified divided difference coefficients of Krogh's
// variable step Adams formulas. dt[0] is the most recent step.
type vabmProp struct {
	passCounter
	order int
	dt    []float64
	beta  []float64
	g     []float64
	c     [][]float64

	phiStarN, phiStarNm1, phiNp1, size int

	absTol, relTol float64
	eMax           float64
}

func newVABMProp(order int) vabmProp {
	k1 := order + 1
	p := vabmProp{
		order: order,
		dt:    make([]float64, order),
		beta:  make([]float64, order),
		g:     make([]float64, k1),
		c:     make([][]float64, k1),
	}
	for i := range p.c {
		p.c[i] = make([]float64, k1)
	}
	p.phiStarN = vabmPhiN + order
	p.phiStarNm1 = p.phiStarN + order
	p.phiNp1 = p.phiStarNm1 + order
	p.size = p.phiNp1 + k1
	return p
}

func (p *vabmProp) calcBeta(k int) {
	xi := p.dt[0]
	xi0 := 0.0
	p.beta[0] = 1
	for i := 1; i < k; i++ {
		xi0 += p.dt[i]
		p.beta[i] = p.beta[i-1] * xi / xi0
		xi += p.dt[i]
	}
}

func (p *vabmProp) calcPhi(m []float64, dx float64, k int) {
	phiN := m[vabmPhiN : vabmPhiN+p.order]
	phiStarN := m[p.phiStarN : p.phiStarN+p.order]
	phiStarNm1 := m[p.phiStarNm1 : p.phiStarNm1+p.order]
	phiN[0] = dx
	phiStarN[0] = dx
	for i := 1; i < k; i++ {
		phiN[i] = phiN[i-1] - phiStarNm1[i-1]
		phiStarN[i] = p.beta[i] * phiN[i]
	}
}

func (p *vabmProp) calcPhiNp1(m []float64, dx float64, k int) {
	phiStarN := m[p.phiStarN : p.phiStarN+p.order]
	phiNp1 := m[p.phiNp1 : p.phiNp1+p.order+1]
	phiNp1[0] = dx
	for i := 1; i < k; i++ {
		phiNp1[i] = phiNp1[i-1] - phiStarN[i-1]
	}
}

func (p *vabmProp) calcG(k int) {
	xi := 0.0
	for i := 0; i < k; i++ {
		if i > 0 {
			xi += p.dt[i-1]
		}
		for j := 0; j < k-i; j++ {
			q := float64(j + 1)
			switch i {
			case 0:
				p.c[i][j] = 1 / q
			case 1:
				p.c[i][j] = 1 / (q * (q + 1))
			default:
				p.c[i][j] = (-p.dt[0]/xi)*p.c[i-1][j+1] + p.c[i-1][j]
			}
		}
		p.g[i] = p.c[i][0] * p.dt[0]
	}
}

func (p *vabmProp) swapPhiStar(m []float64) {
	for i := 0; i < p.order; i++ {
		a, b := p.phiStarN+i, p.phiStarNm1+i
		m[a], m[b] = m[b], m[a]
	}
}

func (p *vabmProp) Propagate(st *State, _ float64) {
	m := st.Grow(p.size)
	switch p.pass {
	case 0:
		m[vabmX0] = st.X()
		p.calcPhi(m, st.Xd(), p.order)
		x := st.X()
		for i := 0; i < p.order; i++ {
			x += p.g[i] * m[p.phiStarN+i]
		}
		st.SetX(x)
		m[vabmXd0] = st.Xd()
		m[vabmXp] = x
	case 1:
		p.calcPhiNp1(m, st.Xd(), p.order+1)
		st.SetX(st.X() + p.g[p.order]*m[p.phiNp1+p.order])
		p.swapPhiStar(m)
	case vabmErrorPass:
		lte := math.Abs((p.g[p.order] - p.g[p.order-1]) * m[p.phiNp1+p.order])
		e := lte / (p.absTol + p.relTol*math.Abs(m[vabmX0]))
		if e > p.eMax || math.IsNaN(e) {
			p.eMax = e
		}
	case vabmRestorePass:
		st.SetX(m[vabmX0])
		p.swapPhiStar(m)
	}
}

type vabmStepper struct{}

func (vabmStepper) Advance(pass int, t *float64, dt float64) {
	if pass == 0 {
		*t += dt
	}
}

// VABM is a variable step Adams-Bashforth-Moulton predictor-corrector of
// configurable order. The first order-1 steps are taken by Initializer.
type VABM struct {
	Initializer Stepper
	Logger      kitlog.Logger
	Stats       dynamo.AdaptiveStats

	order       int
	initialized int
	prop        vabmProp
	stepper     vabmStepper
}

// NewVABM returns a VABM integrator of the given order (at least 2).
func NewVABM(order int) (*VABM, error) {
	if order < 2 {
		return nil, fmt.Errorf("%w: VABM order must be at least 2, got %d", ErrInvalidOrder, order)
	}
	return &VABM{
		Initializer: NewRK4(),
		order:       order,
		prop:        newVABMProp(order),
	}, nil
}

func (v *VABM) Order() int  { return v.order }
func (v *VABM) Ready() bool { return v.initialized >= v.order-1 }

func (v *VABM) Statistics() dynamo.AdaptiveStats { return v.Stats }

func (v *VABM) Reset() {
	v.initialized = 0
	for i := range v.prop.dt {
		v.prop.dt[i] = 0
	}
	v.Stats.Reset()
}

func (v *VABM) warmup(s *Sim, t *float64, dt float64) error {
	if v.initialized == 0 {
		for _, st := range s.States() {
			st.ClearHistory()
		}
	}
	cycles := s.Cycles()
	err := coldStart(s, v.Initializer, t, dt)
	v.Stats.Evaluations += int(s.Cycles() - cycles)
	if err != nil {
		return err
	}
	v.prop.dt[(v.order-2)-v.initialized] = dt
	v.initialized++
	if !v.Ready() {
		return nil
	}

	v.prop.calcBeta(v.order)
	for _, st := range s.States() {
		m := st.Grow(v.prop.size)
		for k := 0; k < v.order-1; k++ {
			v.prop.calcPhi(m, st.History[k], k+1)
			v.prop.swapPhiStar(m)
		}
		st.ClearHistory()
	}
	return nil
}

// advance takes one predictor-corrector step and returns the step size that
// fell out of the history.
func (v *VABM) advance(s *Sim, t *float64, dt float64) (float64, error) {
	dts := v.prop.dt
	dropped := dts[len(dts)-1]
	for i := len(dts) - 1; i > 0; i-- {
		dts[i] = dts[i-1]
	}
	dts[0] = dt
	v.prop.calcG(v.order + 1)
	v.prop.calcBeta(v.order)
	v.Stats.Evaluations += 2
	return dropped, RunPasses(s, 2, &v.prop, v.stepper, t, dt)
}

func (v *VABM) Step(s *Sim, t *float64, dt float64) error {
	if err := s.Start(); err != nil {
		return err
	}
	if !v.Ready() {
		return v.warmup(s, t, dt)
	}
	if _, err := v.advance(s, t, dt); err != nil {
		return err
	}
	return s.PostCalc()
}

func (v *VABM) StepAdaptive(s *Sim, t *float64, dt *float64, cfg dynamo.AdaptiveConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	if !v.Ready() {
		return v.warmup(s, t, *dt)
	}
	v.prop.absTol, v.prop.relTol = cfg.AbsTol, cfg.RelTol
	timer := s.Timer()
	expo := -1 / float64(v.order+1)
	t0 := *t

	for rejections := 0; ; {
		dropped, err := v.advance(s, t, *dt)
		if err != nil {
			return err
		}
		v.prop.eMax = 0
		v.prop.SetPass(vabmErrorPass)
		s.Propagate(&v.prop, *dt)
		eMax := v.prop.eMax
		v.Stats.LastError = eMax

		if !(eMax <= 1) {
			rejections++
			v.Stats.Rejected++
			shrink := vabmMaxShrink
			if !math.IsNaN(eMax) {
				shrink = math.Max(math.Pow(2*eMax, expo), vabmMaxShrink)
			}
			*dt *= shrink
			*t = t0
			dts := v.prop.dt
			copy(dts, dts[1:])
			dts[len(dts)-1] = dropped
			v.prop.SetPass(vabmRestorePass)
			s.Propagate(&v.prop, *dt)
			if timer != nil {
				timer.BaseTimeStep(*dt)
			}
			if v.Logger != nil {
				level.Debug(v.Logger).Log("msg", "step rejected", "t", t0, "err", eMax, "dt", *dt, "order", v.order)
			}
			if cfg.Exhausted(rejections) {
				return &dynamo.RejectionError{Rejections: rejections, Dt: *dt, ErrMax: eMax}
			}
			continue
		}

		if eMax < vabmGrowBelow {
			e := math.Max(vabmErrFloor, eMax)
			*dt *= math.Min(math.Pow(2*e, expo), vabmMaxGrow)
			if timer != nil {
				timer.BaseTimeStep(*dt)
			}
		}
		v.Stats.Accepted++
		v.Stats.LastDt = *dt
		return s.PostCalc()
	}
}
