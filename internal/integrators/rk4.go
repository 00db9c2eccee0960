package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

type RK4[T constraints.Float] struct {
	x0                 []T
	xd0, xd1, xd2, xd3 []T
}

func NewRK4[T constraints.Float]() *RK4[T] {
	return &RK4[T]{}
}

func (r *RK4[T]) ensureScratch(n int) {
	r.x0 = grow(r.x0, n)
	r.xd0 = grow(r.xd0, n)
	r.xd1 = grow(r.xd1, n)
	r.xd2 = grow(r.xd2, n)
	r.xd3 = grow(r.xd3, n)
}

func (r *RK4[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.ensureScratch(n)

	t0 := *t
	dt2 := 0.5 * dt
	dt6 := dt / 6
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt2*r.xd0[i]
	}
	*t += dt2

	sys.Derive(x, r.xd1, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt2*r.xd1[i]
	}

	sys.Derive(x, r.xd2, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*r.xd2[i]
	}
	*t = t0 + dt

	sys.Derive(x, r.xd3, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt6*(r.xd0[i]+2*r.xd1[i]+2*r.xd2[i]+r.xd3[i])
	}
}

// Ralston's minimum truncation error fourth order coefficients.
const (
	Ral10 = 0.4
	Ral20 = 0.29697761
	Ral21 = 0.15875964
	Ral30 = 0.21810040
	Ral31 = -3.05096516
	Ral32 = 3.83286476
	Ral40 = 0.17476028
	Ral41 = -0.55148066
	Ral42 = 1.20553560
	Ral43 = 0.17118478

	RalT1 = 0.4
	RalT2 = 0.45573725
)

type Ralston4[T constraints.Float] struct {
	x0                 []T
	xd0, xd1, xd2, xd3 []T
}

func NewRalston4[T constraints.Float]() *Ralston4[T] {
	return &Ralston4[T]{}
}

func (r *Ralston4[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
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
		x[i] = r.x0[i] + dt*(Ral10*r.xd0[i])
	}
	*t = t0 + RalT1*dt

	sys.Derive(x, r.xd1, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*(Ral20*r.xd0[i]+Ral21*r.xd1[i])
	}
	*t = t0 + RalT2*dt

	sys.Derive(x, r.xd2, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*(Ral30*r.xd0[i]+Ral31*r.xd1[i]+Ral32*r.xd2[i])
	}
	*t = t0 + dt

	sys.Derive(x, r.xd3, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*(Ral40*r.xd0[i]+Ral41*r.xd1[i]+Ral42*r.xd2[i]+Ral43*r.xd3[i])
	}
}
