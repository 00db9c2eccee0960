package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

type Euler[T constraints.Float] struct {
	xd []T
}

func NewEuler[T constraints.Float]() *Euler[T] {
	return &Euler[T]{}
}

func (e *Euler[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	e.xd = grow(e.xd, len(x))
	sys.Derive(x, e.xd, *t)
	for i := range x {
		x[i] += dt * e.xd[i]
	}
	*t += dt
}
