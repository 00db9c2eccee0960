package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// PC233 is a two-step, three-stage, third order predictor-corrector. The
// first step is delegated to Initializer while the step-start derivative is
// recorded as history.
type PC233[T constraints.Float] struct {
	Initializer dynamo.Stepper[T]

	initialized  bool
	x0, xd0, xdT []T
	xdPrev       []T
}

func NewPC233[T constraints.Float]() *PC233[T] {
	return &PC233[T]{Initializer: NewRK4[T]()}
}

func (p *PC233[T]) Reset() { p.initialized = false }

func (p *PC233[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	p.xdPrev = grow(p.xdPrev, n)
	if !p.initialized {
		sys.Derive(x, p.xdPrev, *t)
		p.Initializer.Step(sys, x, t, dt)
		p.initialized = true
		return
	}
	p.x0 = grow(p.x0, n)
	p.xd0 = grow(p.xd0, n)
	p.xdT = grow(p.xdT, n)

	t0 := *t
	dt3 := dt / 3
	c0 := dt / 18
	c1 := dt / 54
	c2 := dt / 4
	copy(p.x0, x)

	sys.Derive(p.x0, p.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = p.x0[i] + c0*(7*p.xd0[i]-p.xdPrev[i])
	}
	*t += dt3

	sys.Derive(x, p.xdT, *t)
	for i := 0; i < n; i++ {
		x[i] = p.x0[i] + c1*(39*p.xdT[i]-4*p.xd0[i]+p.xdPrev[i])
	}
	*t += dt3

	sys.Derive(x, p.xdT, *t)
	for i := 0; i < n; i++ {
		x[i] = p.x0[i] + c2*(p.xd0[i]+3*p.xdT[i])
	}
	copy(p.xdPrev, p.xd0)
	*t = t0 + dt
}
