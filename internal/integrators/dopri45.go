package integrators

import (
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// Dormand-Prince tableau (RK45). The modular drivers use the same constants.
const (
	DPT1 = 1.0 / 5.0
	DPT2 = 3.0 / 10.0
	DPT3 = 4.0 / 5.0
	DPT4 = 8.0 / 9.0

	DP10 = 3.0 / 40.0
	DP11 = 9.0 / 40.0
	DP20 = 44.0 / 45.0
	DP21 = -56.0 / 15.0
	DP22 = 32.0 / 9.0
	DP30 = 19372.0 / 6561.0
	DP31 = -25360.0 / 2187.0
	DP32 = 64448.0 / 6561.0
	DP33 = -212.0 / 729.0
	DP40 = 9017.0 / 3168.0
	DP41 = -355.0 / 33.0
	DP42 = 46732.0 / 5247.0
	DP43 = 49.0 / 176.0
	DP44 = -5103.0 / 18656.0
	DP50 = 35.0 / 384.0
	DP52 = 500.0 / 1113.0
	DP53 = 125.0 / 192.0
	DP54 = -2187.0 / 6784.0
	DP55 = 11.0 / 84.0

	// fourth order solution weights, compared against the fifth order result
	DPE0 = 5179.0 / 57600.0
	DPE2 = 7571.0 / 16695.0
	DPE3 = 393.0 / 640.0
	DPE4 = -92097.0 / 339200.0
	DPE5 = 187.0 / 2100.0
	DPE6 = 1.0 / 40.0
)

// Step size control constants shared by the Dormand-Prince drivers.
const (
	DPMinShrink    = 0.2
	DPGrowBelow    = 0.5
	DPErrFloor     = 3.2e-4 // 5^-5
	DPShrinkExpo   = -1.0 / 3.0
	DPGrowExpo     = -0.2
	DPRejectAbove  = 1.0
	DPDerivScaling = 0.01
)

// DPShrink returns the factor applied to dt after a rejected step.
func DPShrink(safety, eMax float64) float64 {
	if math.IsNaN(eMax) || math.IsInf(eMax, 0) {
		return DPMinShrink
	}
	return math.Max(safety*math.Pow(eMax, DPShrinkExpo), DPMinShrink)
}

// DPGrow returns the factor applied to dt after an accepted step.
func DPGrow(safety, eMax float64) float64 {
	if eMax >= DPGrowBelow {
		return 1
	}
	return safety * math.Pow(math.Max(DPErrFloor, eMax), DPGrowExpo)
}

// DOPRI45 is the Dormand-Prince 5(4) embedded pair. The derivative at the end
// of an accepted adaptive step is reused as the first stage of the next one.
// Call Reset after modifying x between steps.
type DOPRI45[T constraints.Float] struct {
	Logger kitlog.Logger
	Stats  dynamo.AdaptiveStats

	fsal                        bool
	x0, xd0, xd1, xd2, xd3, xd4 []T
	xd5, xd6                    []T
}

func NewDOPRI45[T constraints.Float]() *DOPRI45[T] {
	return &DOPRI45[T]{}
}

func (d *DOPRI45[T]) Reset() {
	d.fsal = false
	d.Stats.Reset()
}

func (d *DOPRI45[T]) Statistics() dynamo.AdaptiveStats { return d.Stats }

func (d *DOPRI45[T]) ensureScratch(n int) {
	if len(d.x0) != n {
		d.fsal = false
	}
	d.x0 = grow(d.x0, n)
	d.xd0 = grow(d.xd0, n)
	d.xd1 = grow(d.xd1, n)
	d.xd2 = grow(d.xd2, n)
	d.xd3 = grow(d.xd3, n)
	d.xd4 = grow(d.xd4, n)
	d.xd5 = grow(d.xd5, n)
	d.xd6 = grow(d.xd6, n)
}

func (d *DOPRI45[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	d.ensureScratch(len(x))
	copy(d.x0, x)
	if !d.fsal {
		sys.Derive(d.x0, d.xd0, *t)
		d.Stats.Evaluations++
	}
	d.fsal = false
	d.stages(sys, x, t, dt)
}

// stages computes the fifth order solution from x0 and xd0.
func (d *DOPRI45[T]) stages(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	t0 := *t
	x0, xd0, xd1, xd2, xd3, xd4, xd5 := d.x0, d.xd0, d.xd1, d.xd2, d.xd3, d.xd4, d.xd5

	dt5 := DPT1 * dt
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt5*xd0[i]
	}
	*t += dt5

	sys.Derive(x, xd1, *t)
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt*(DP10*xd0[i]+DP11*xd1[i])
	}
	*t = t0 + DPT2*dt

	sys.Derive(x, xd2, *t)
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt*(DP20*xd0[i]+DP21*xd1[i]+DP22*xd2[i])
	}
	*t = t0 + DPT3*dt

	sys.Derive(x, xd3, *t)
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt*(DP30*xd0[i]+DP31*xd1[i]+DP32*xd2[i]+DP33*xd3[i])
	}
	*t = t0 + DPT4*dt

	sys.Derive(x, xd4, *t)
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt*(DP40*xd0[i]+DP41*xd1[i]+DP42*xd2[i]+DP43*xd3[i]+DP44*xd4[i])
	}
	*t = t0 + dt

	sys.Derive(x, xd5, *t)
	for i := 0; i < n; i++ {
		x[i] = x0[i] + dt*(DP50*xd0[i]+DP52*xd2[i]+DP53*xd3[i]+DP54*xd4[i]+DP55*xd5[i])
	}
	d.Stats.Evaluations += 5
}

// errMax returns the largest scaled difference between the embedded fourth
// order solution and x.
func (d *DOPRI45[T]) errMax(x []T, dt T, cfg dynamo.AdaptiveConfig) float64 {
	absTol, relTol := T(cfg.AbsTol), T(cfg.RelTol)
	var eMax T
	for i := range x {
		x4 := d.x0[i] + dt*(DPE0*d.xd0[i]+DPE2*d.xd2[i]+DPE3*d.xd3[i]+DPE4*d.xd4[i]+DPE5*d.xd5[i]+DPE6*d.xd6[i])
		e := abs(x4-x[i]) / (absTol + relTol*(abs(d.x0[i])+DPDerivScaling*abs(d.xd0[i])))
		if e > eMax || e != e {
			eMax = e
		}
	}
	return float64(eMax)
}

func (d *DOPRI45[T]) StepAdaptive(sys dynamo.System[T], x []T, t *T, dt *T, cfg dynamo.AdaptiveConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.ensureScratch(len(x))

	t0 := *t
	copy(d.x0, x)
	if !d.fsal {
		sys.Derive(d.x0, d.xd0, t0)
		d.Stats.Evaluations++
		d.fsal = true
	}

	for rejections := 0; ; {
		d.stages(sys, x, t, *dt)
		sys.Derive(x, d.xd6, *t)
		d.Stats.Evaluations++

		eMax := d.errMax(x, *dt, cfg)
		d.Stats.LastError = eMax
		if !(eMax <= DPRejectAbove) {
			rejections++
			d.Stats.Rejected++
			*dt *= T(DPShrink(cfg.SafetyFactor, eMax))
			*t = t0
			copy(x, d.x0)
			if d.Logger != nil {
				level.Debug(d.Logger).Log("msg", "step rejected", "t", float64(t0), "err", eMax, "dt", float64(*dt))
			}
			if cfg.Exhausted(rejections) {
				return &dynamo.RejectionError{Rejections: rejections, Dt: float64(*dt), ErrMax: eMax}
			}
			continue
		}

		*dt *= T(DPGrow(cfg.SafetyFactor, eMax))
		copy(d.xd0, d.xd6)
		d.Stats.Accepted++
		d.Stats.LastDt = float64(*dt)
		return nil
	}
}
