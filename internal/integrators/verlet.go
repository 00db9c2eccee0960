package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// Verlet expects x laid out as positions followed by velocities, with the
// accelerations in the velocity half of the derivative.
type Verlet[T constraints.Float] struct {
	a0, a1 []T
}

func NewVerlet[T constraints.Float]() *Verlet[T] {
	return &Verlet[T]{}
}

func (v *Verlet[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	half := n / 2
	v.a0 = grow(v.a0, n)
	v.a1 = grow(v.a1, n)

	sys.Derive(x, v.a0, *t)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		x[i] = x[i] + x[half+i]*dt + 0.5*v.a0[half+i]*dt2
	}

	sys.Derive(x, v.a1, *t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		x[half+i] = x[half+i] + (v.a0[half+i]+v.a1[half+i])*halfDt
	}
	*t += dt
}

type Leapfrog[T constraints.Float] struct {
	a []T
}

func NewLeapfrog[T constraints.Float]() *Leapfrog[T] {
	return &Leapfrog[T]{}
}

func (l *Leapfrog[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	half := n / 2
	l.a = grow(l.a, n)

	sys.Derive(x, l.a, *t)
	halfDt := dt * 0.5

	for i := 0; i < half; i++ {
		x[half+i] += l.a[half+i] * halfDt
	}
	for i := 0; i < half; i++ {
		x[i] += x[half+i] * dt
	}

	sys.Derive(x, l.a, *t+dt)

	for i := 0; i < half; i++ {
		x[half+i] += l.a[half+i] * halfDt
	}
	*t += dt
}
