package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// RTAM2 is the second order real-time Adams method: an explicit predictor
// to the step midpoint and a midpoint corrector. The first step is
// delegated to Initializer while its start derivative is kept as history.
type RTAM2[T constraints.Float] struct {
	Initializer dynamo.Stepper[T]

	initialized bool
	x0, xd0, xd []T
	xdPrev      []T
}

func NewRTAM2[T constraints.Float]() *RTAM2[T] {
	return &RTAM2[T]{Initializer: NewRK4[T]()}
}

func (r *RTAM2[T]) Ready() bool { return r.initialized }

func (r *RTAM2[T]) Reset() { r.initialized = false }

func (r *RTAM2[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.xdPrev = grow(r.xdPrev, n)
	if !r.initialized {
		sys.Derive(x, r.xdPrev, *t)
		r.Initializer.Step(sys, x, t, dt)
		r.initialized = true
		return
	}
	r.x0 = grow(r.x0, n)
	r.xd0 = grow(r.xd0, n)
	r.xd = grow(r.xd, n)

	t0 := *t
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt/8*(5*r.xd0[i]-r.xdPrev[i])
	}
	*t += 0.5 * dt

	sys.Derive(x, r.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt*r.xd[i]
	}
	r.xd0, r.xdPrev = r.xdPrev, r.xd0
	*t = t0 + dt
}

// RTAM3 is the third order real-time Adams method. It keeps two past
// step-start derivatives and takes its first two steps with Initializer.
type RTAM3[T constraints.Float] struct {
	Initializer dynamo.Stepper[T]

	initialized int
	x0, xd0, xd []T
	// prev[0] is one step back, prev[1] two.
	prev [2][]T
}

func NewRTAM3[T constraints.Float]() *RTAM3[T] {
	return &RTAM3[T]{Initializer: NewRK4[T]()}
}

func (r *RTAM3[T]) Ready() bool { return r.initialized >= len(r.prev) }

func (r *RTAM3[T]) Reset() { r.initialized = 0 }

func (r *RTAM3[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.prev[0] = grow(r.prev[0], n)
	r.prev[1] = grow(r.prev[1], n)
	if !r.Ready() {
		sys.Derive(x, r.prev[len(r.prev)-1-r.initialized], *t)
		r.Initializer.Step(sys, x, t, dt)
		r.initialized++
		return
	}
	r.x0 = grow(r.x0, n)
	r.xd0 = grow(r.xd0, n)
	r.xd = grow(r.xd, n)

	t0 := *t
	h1, h2 := r.prev[0], r.prev[1]
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt/24*(17*r.xd0[i]-7*h1[i]+2*h2[i])
	}
	*t += 0.5 * dt

	sys.Derive(x, r.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + dt/18*(20*r.xd[i]-3*r.xd0[i]+h1[i])
	}
	// rotate: xd0 becomes one step back, the old h1 two, h2 is recycled
	r.prev[0], r.prev[1], r.xd0 = r.xd0, h1, h2
	*t = t0 + dt
}
