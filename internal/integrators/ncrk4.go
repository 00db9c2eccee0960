package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// NCRK4 is the fourth order Runge-Kutta 3/8 rule. Its stages sit at thirds
// of the step, so no two evaluations share a time.
type NCRK4[T constraints.Float] struct {
	x0                 []T
	xd0, xd1, xd2, xd3 []T
}

func NewNCRK4[T constraints.Float]() *NCRK4[T] {
	return &NCRK4[T]{}
}

func (r *NCRK4[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.x0 = grow(r.x0, n)
	r.xd0 = grow(r.xd0, n)
	r.xd1 = grow(r.xd1, n)
	r.xd2 = grow(r.xd2, n)
	r.xd3 = grow(r.xd3, n)

	t0 := *t
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt/3*r.xd0[i]
	}
	*t += dt / 3

	sys.Derive(x, r.xd1, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*(r.xd1[i]-r.xd0[i]/3)
	}
	*t = t0 + 2*dt/3

	sys.Derive(x, r.xd2, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*(r.xd0[i]-r.xd1[i]+r.xd2[i])
	}
	*t = t0 + dt

	sys.Derive(x, r.xd3, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt/8*(r.xd0[i]+3*r.xd1[i]+3*r.xd2[i]+r.xd3[i])
	}
}
