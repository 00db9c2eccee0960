package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// RK2 is the explicit midpoint method.
type RK2[T constraints.Float] struct {
	x0, xd []T
}

func NewRK2[T constraints.Float]() *RK2[T] {
	return &RK2[T]{}
}

func (r *RK2[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.x0 = grow(r.x0, n)
	r.xd = grow(r.xd, n)

	t0 := *t
	dt2 := 0.5 * dt
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt2*r.xd[i]
	}
	*t += dt2

	sys.Derive(x, r.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*r.xd[i]
	}
	*t = t0 + dt
}

// Heun is the trapezoidal predictor-corrector.
type Heun[T constraints.Float] struct {
	x0, xd0, xd []T
}

func NewHeun[T constraints.Float]() *Heun[T] {
	return &Heun[T]{}
}

func (h *Heun[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	h.x0 = grow(h.x0, n)
	h.xd0 = grow(h.xd0, n)
	h.xd = grow(h.xd, n)

	t0 := *t
	dt2 := 0.5 * dt
	copy(h.x0, x)

	sys.Derive(h.x0, h.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = h.x0[i] + dt*h.xd0[i]
	}
	*t += dt

	sys.Derive(x, h.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = h.x0[i] + dt2*(h.xd0[i]+h.xd[i])
	}
	*t = t0 + dt
}

// Midpoint averages the derivative at the step start with the one from the
// previous step, one evaluation per step. The first step after a Reset has
// no previous derivative and reduces to Euler.
type Midpoint[T constraints.Float] struct {
	xd, xdNew []T
	seeded    bool
}

func NewMidpoint[T constraints.Float]() *Midpoint[T] {
	return &Midpoint[T]{}
}

func (m *Midpoint[T]) Reset() { m.seeded = false }

func (m *Midpoint[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	m.xd = grow(m.xd, n)
	m.xdNew = grow(m.xdNew, n)

	sys.Derive(x, m.xdNew, *t)
	if !m.seeded {
		copy(m.xd, m.xdNew)
		m.seeded = true
	}
	for i := 0; i < n; i++ {
		x[i] = x[i] + 0.5*dt*(m.xd[i]+m.xdNew[i])
	}
	m.xd, m.xdNew = m.xdNew, m.xd
	*t += dt
}
