package integrators

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"golang.org/x/exp/constraints"
)

// HistoryLen is the number of past derivatives the fourth order Adams
// methods need before they can take a step of their own.
const HistoryLen = 3

// history holds past step-start derivatives, most recent first.
type history[T constraints.Float] struct {
	xd          [HistoryLen][]T
	initialized int
}

func (h *history[T]) ensure(n int) {
	for i := range h.xd {
		h.xd[i] = grow(h.xd[i], n)
	}
}

// coldStep records the derivative at the current point and lets init take
// the step.
func (h *history[T]) coldStep(init dynamo.Stepper[T], sys dynamo.System[T], x []T, t *T, dt T) {
	sys.Derive(x, h.xd[HistoryLen-1-h.initialized], *t)
	init.Step(sys, x, t, dt)
	h.initialized++
}

func (h *history[T]) ready() bool { return h.initialized >= HistoryLen }

// push makes xd the most recent entry and drops the oldest.
func (h *history[T]) push(xd []T) {
	oldest := h.xd[HistoryLen-1]
	copy(h.xd[1:], h.xd[:HistoryLen-1])
	copy(oldest, xd)
	h.xd[0] = oldest
}

// ABM4 is the fourth order Adams-Bashforth predictor with an Adams-Moulton
// corrector. The first HistoryLen steps use Initializer.
type ABM4[T constraints.Float] struct {
	Initializer dynamo.Stepper[T]

	hist         history[T]
	x0, xd0, xdP []T
}

func NewABM4[T constraints.Float]() *ABM4[T] {
	return &ABM4[T]{Initializer: NewRK4[T]()}
}

// Ready reports whether the cold start is over.
func (a *ABM4[T]) Ready() bool { return a.hist.ready() }

func (a *ABM4[T]) Reset() { a.hist.initialized = 0 }

func (a *ABM4[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	a.hist.ensure(n)
	if !a.hist.ready() {
		a.hist.coldStep(a.Initializer, sys, x, t, dt)
		return
	}
	a.x0 = grow(a.x0, n)
	a.xd0 = grow(a.xd0, n)
	a.xdP = grow(a.xdP, n)

	t0 := *t
	cp := dt / 24
	cc := dt / 720
	h1, h2, h3 := a.hist.xd[0], a.hist.xd[1], a.hist.xd[2]
	copy(a.x0, x)

	sys.Derive(a.x0, a.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = a.x0[i] + cp*(55*a.xd0[i]-59*h1[i]+37*h2[i]-9*h3[i])
	}
	*t += dt

	sys.Derive(x, a.xdP, *t)
	for i := 0; i < n; i++ {
		x[i] = a.x0[i] + cc*(251*a.xdP[i]+646*a.xd0[i]-264*h1[i]+106*h2[i]-19*h3[i])
	}
	a.hist.push(a.xd0)
	*t = t0 + dt
}

// RTAM4 is a fourth order half-step Adams method: an explicit predictor to
// the step midpoint followed by a corrector to the step end.
type RTAM4[T constraints.Float] struct {
	Initializer dynamo.Stepper[T]

	hist        history[T]
	x0, xd0, xd []T
}

func NewRTAM4[T constraints.Float]() *RTAM4[T] {
	return &RTAM4[T]{Initializer: NewRK4[T]()}
}

func (r *RTAM4[T]) Ready() bool { return r.hist.ready() }

func (r *RTAM4[T]) Reset() { r.hist.initialized = 0 }

func (r *RTAM4[T]) Step(sys dynamo.System[T], x []T, t *T, dt T) {
	n := len(x)
	r.hist.ensure(n)
	if !r.hist.ready() {
		r.hist.coldStep(r.Initializer, sys, x, t, dt)
		return
	}
	r.x0 = grow(r.x0, n)
	r.xd0 = grow(r.xd0, n)
	r.xd = grow(r.xd, n)

	t0 := *t
	cp := dt / 384
	cc := dt / 30
	h1, h2, h3 := r.hist.xd[0], r.hist.xd[1], r.hist.xd[2]
	copy(r.x0, x)

	sys.Derive(r.x0, r.xd0, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + cp*(297*r.xd0[i]-187*h1[i]+107*h2[i]-25*h3[i])
	}
	*t += 0.5 * dt

	sys.Derive(x, r.xd, *t)
	for i := 0; i < n; i++ {
		x[i] = r.x0[i] + cc*(36*r.xd[i]-10*r.xd0[i]+5*h1[i]-h2[i])
	}
	r.hist.push(r.xd0)
	*t = t0 + dt
}
