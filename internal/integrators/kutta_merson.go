package integrators

import (
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// KuttaMerson is the five stage Runge-Kutta-Merson method. Its adaptive form
// compares the third and fourth order solutions against cfg.AbsTol: the step
// is halved while the estimate exceeds it and doubled once the estimate falls
// below AbsTol/64.
type KuttaMerson[T constraints.Float] struct {
	Logger kitlog.Logger
	Stats  dynamo.AdaptiveStats

	x0, x3            []T
	xd0, xd, xd2, xd3 []T
}

func NewKuttaMerson[T constraints.Float]() *KuttaMerson[T] {
	return &KuttaMerson[T]{}
}

func (k *KuttaMerson[T]) Reset() { k.Stats.Reset() }

func (k *KuttaMerson[T]) Statistics() dynamo.AdaptiveStats { return k.Stats }

func (k *KuttaMerson[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	k.stages(sys, x, t, dt)
}

// stages returns the error estimate R of the step it took.
func (k *KuttaMerson[T]) stages(sys dynamo.System[T], x []T, t *T, dt T) T {
	n := len(x)
	k.x0 = grow(k.x0, n)
	k.x3 = grow(k.x3, n)
	k.xd0 = grow(k.xd0, n)
	k.xd = grow(k.xd, n)
	k.xd2 = grow(k.xd2, n)
	k.xd3 = grow(k.xd3, n)

	t0 := *t
	dt2 := 0.5 * dt
	dt3 := dt / 3
	dt6 := dt / 6
	dt8 := dt / 8
	copy(k.x0, x)

	sys.Derive(k.x0, k.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = k.x0[i] + dt3*k.xd0[i]
	}
	*t += dt3

	sys.Derive(x, k.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = k.x0[i] + dt6*(k.xd0[i]+k.xd[i])
	}

	sys.Derive(x, k.xd2, *t)
	for i := 0; i < n; i++ {
		k.xd2[i] *= 3
		x[i] = k.x0[i] + dt8*(k.xd0[i]+k.xd2[i])
	}
	*t = t0 + dt2

	sys.Derive(x, k.xd3, *t)
	for i := 0; i < n; i++ {
		k.xd3[i] *= 4
		x[i] = k.x0[i] + dt2*(k.xd0[i]-k.xd2[i]+k.xd3[i])
	}
	copy(k.x3, x)
	*t = t0 + dt

	sys.Derive(x, k.xd, *t)
	var maxDiff T
	for i := 0; i < n; i++ {
		x[i] = k.x0[i] + dt6*(k.xd0[i]+k.xd3[i]+k.xd[i])
		if d := abs(k.x3[i] - x[i]); d > maxDiff || d != d {
			maxDiff = d
		}
	}
	k.Stats.Evaluations += 5
	return 0.2 * maxDiff
}

func (k *KuttaMerson[T]) StepAdaptive(sys dynamo.System[T], x []T, t *T, dt *T, cfg dynamo.AdaptiveConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	eps := T(cfg.AbsTol)
	t0 := *t

	for rejections := 0; ; {
		r := k.stages(sys, x, t, *dt)
		k.Stats.LastError = float64(r / eps)
		if !(r <= eps) {
			rejections++
			k.Stats.Rejected++
			*dt *= 0.5
			*t = t0
			copy(x, k.x0)
			if k.Logger != nil {
				level.Debug(k.Logger).Log("msg", "step rejected", "t", float64(t0), "r", float64(r), "dt", float64(*dt))
			}
			if cfg.Exhausted(rejections) {
				return &dynamo.RejectionError{Rejections: rejections, Dt: float64(*dt), ErrMax: float64(r / eps)}
			}
			continue
		}
		if r <= eps/64 {
			*dt *= 2
		}
		k.Stats.Accepted++
		k.Stats.LastDt = float64(*dt)
		return nil
	}
}
