package models

import (
	"github.com/san-kum/ascent/internal/modular"
	"github.com/san-kum/ascent/internal/timing"
)

// AiryModule is the modular form of Airy. It reads time from a clock.
type AiryModule struct {
	modular.Base
	Clock modular.Link[*timing.Clock]

	A, B   float64
	ad, bd float64
}

func NewAiryModule(clock *timing.Clock) *AiryModule {
	return &AiryModule{Clock: modular.NewLink(clock), A: 1}
}

func (m *AiryModule) Name() string { return "airy" }

func (m *AiryModule) Init(*modular.Sim) error {
	m.MakeState(&m.A, &m.ad)
	m.MakeState(&m.B, &m.bd)
	return nil
}

func (m *AiryModule) Update(s *modular.Sim) error {
	clock, err := m.Clock.Get(s)
	if err != nil {
		return err
	}
	m.ad = m.B
	m.bd = -clock.T * m.A
	return nil
}

type ExponentialModule struct {
	modular.Base
	X, Rate float64
	xd      float64
}

func NewExponentialModule() *ExponentialModule {
	return &ExponentialModule{X: 1, Rate: 1}
}

func (m *ExponentialModule) Name() string { return "exponential" }

func (m *ExponentialModule) Init(*modular.Sim) error {
	m.MakeState(&m.X, &m.xd)
	return nil
}

func (m *ExponentialModule) Update(*modular.Sim) error {
	m.xd = m.Rate * m.X
	return nil
}

// Body is a point mass. Force elements linked to it add into F during their
// update; Apply turns the total into acceleration.
type Body struct {
	modular.Base
	S, V, M, F float64

	sd, vd float64
}

func NewBody(s, v, m float64) *Body {
	return &Body{S: s, V: v, M: m}
}

func (b *Body) Init(*modular.Sim) error {
	b.MakeState(&b.S, &b.sd)
	b.MakeState(&b.V, &b.vd)
	return nil
}

func (b *Body) Update(*modular.Sim) error {
	b.F = 0
	b.sd = b.V
	return nil
}

func (b *Body) Apply(*modular.Sim) error {
	if b.M > 0 {
		b.vd = b.F / b.M
	} else {
		b.vd = 0
	}
	return nil
}

type Spring struct {
	modular.Base
	B0, B1 modular.Link[*Body]
	K, L0  float64
	Ds, F  float64
}

func NewSpring(b0, b1 *Body, k float64) *Spring {
	return &Spring{B0: modular.NewLink(b0), B1: modular.NewLink(b1), K: k}
}

func (sp *Spring) Name() string { return "spring" }

func (sp *Spring) Init(s *modular.Sim) error {
	b0, b1, err := bodies(s, sp.B0, sp.B1)
	if err != nil {
		return err
	}
	sp.L0 = b1.S - b0.S
	return nil
}

func (sp *Spring) Update(s *modular.Sim) error {
	b0, b1, err := bodies(s, sp.B0, sp.B1)
	if err != nil {
		return err
	}
	sp.Ds = sp.L0 + b0.S - b1.S
	sp.F = sp.K * sp.Ds
	b0.F -= sp.F
	b1.F += sp.F
	return nil
}

type Damper struct {
	modular.Base
	B0, B1 modular.Link[*Body]
	C      float64
	Dv, F  float64
}

func NewDamper(b0, b1 *Body, c float64) *Damper {
	return &Damper{B0: modular.NewLink(b0), B1: modular.NewLink(b1), C: c}
}

func (d *Damper) Name() string { return "damper" }

func (d *Damper) Update(s *modular.Sim) error {
	b0, b1, err := bodies(s, d.B0, d.B1)
	if err != nil {
		return err
	}
	d.Dv = b0.V - b1.V
	d.F = d.C * d.Dv
	b0.F -= d.F
	b1.F += d.F
	return nil
}

func bodies(s *modular.Sim, l0, l1 modular.Link[*Body]) (*Body, *Body, error) {
	b0, err := l0.Get(s)
	if err != nil {
		return nil, nil, err
	}
	b1, err := l1.Get(s)
	if err != nil {
		return nil, nil, err
	}
	return b0, b1, nil
}
