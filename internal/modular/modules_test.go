package modular

import "github.com/san-kum/ascent/internal/dynamo"

// airyModule models x” = -t x as two first order states.
type airyModule struct {
	Base
	t     *float64
	a, ad float64
	b, bd float64
}

func newAiry(t *float64) *airyModule {
	return &airyModule{t: t, a: 1}
}

func (m *airyModule) Init(*Sim) error {
	m.MakeState(&m.a, &m.ad)
	m.MakeState(&m.b, &m.bd)
	return nil
}

func (m *airyModule) Update(*Sim) error {
	m.ad = m.b
	m.bd = -*m.t * m.a
	return nil
}

type expModule struct {
	Base
	x, xd float64
}

func (m *expModule) Init(*Sim) error {
	m.MakeState(&m.x, &m.xd)
	return nil
}

func (m *expModule) Update(*Sim) error {
	m.xd = m.x
	return nil
}

type oscModule struct {
	Base
	x  [2]float64
	xd [2]float64
}

func (m *oscModule) Init(*Sim) error {
	m.MakeStates(m.x[:], m.xd[:])
	return nil
}

func (m *oscModule) Update(*Sim) error {
	m.xd[0] = m.x[1]
	m.xd[1] = -m.x[0]
	return nil
}

var directAiry = dynamo.SystemFunc[float64](func(x, xd []float64, t float64) {
	xd[0] = x[1]
	xd[1] = -t * x[0]
})

var directExp = dynamo.SystemFunc[float64](func(x, xd []float64, _ float64) {
	xd[0] = x[0]
})

func runAiry(step Stepper, dt, tEnd float64) (*airyModule, float64, error) {
	t := 0.0
	m := newAiry(&t)
	s := New(m)
	for t < tEnd {
		if err := step.Step(s, &t, dt); err != nil {
			return nil, t, err
		}
	}
	return m, t, nil
}
