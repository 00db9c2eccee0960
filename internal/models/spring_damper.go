package models

import "github.com/san-kum/ascent/internal/dynamo"

// PointMass is a body whose position and velocity live in a parameter arena.
// Forces are accumulated into F by the elements attached to it and cleared
// once the body has consumed them.
type PointMass struct {
	S, V dynamo.Param
	M, F float64
}

func NewPointMass(a *dynamo.Arena, s, v, m float64) (*PointMass, error) {
	ps, err := a.Alloc(s)
	if err != nil {
		return nil, err
	}
	pv, err := a.Alloc(v)
	if err != nil {
		return nil, err
	}
	return &PointMass{S: ps, V: pv, M: m}, nil
}

func (b *PointMass) Derive(x, xd []float64, _ float64) {
	b.S.SetD(xd, b.V.Get(x))
	if b.M > 0 {
		b.V.SetD(xd, b.F/b.M)
	} else {
		b.V.SetD(xd, 0)
	}
	b.F = 0
}

// LinearSpring pushes its bodies back toward their initial separation.
type LinearSpring struct {
	B0, B1 *PointMass
	K, L0  float64
	Ds, F  float64
}

func NewLinearSpring(b0, b1 *PointMass, x []float64, k float64) *LinearSpring {
	return &LinearSpring{B0: b0, B1: b1, K: k, L0: b1.S.Get(x) - b0.S.Get(x)}
}

func (sp *LinearSpring) Derive(x, _ []float64, _ float64) {
	sp.Ds = sp.L0 + sp.B0.S.Get(x) - sp.B1.S.Get(x)
	sp.F = sp.K * sp.Ds
	sp.B0.F -= sp.F
	sp.B1.F += sp.F
}

// LinearDamper opposes the relative velocity of its bodies.
type LinearDamper struct {
	B0, B1 *PointMass
	C      float64
	Dv, F  float64
}

func (d *LinearDamper) Derive(x, _ []float64, _ float64) {
	d.Dv = d.B0.V.Get(x) - d.B1.V.Get(x)
	d.F = d.C * d.Dv
	d.B0.F -= d.F
	d.B1.F += d.F
}

// SpringDamper is a massless anchor b0 tied to a body b1 by a spring and a
// damper in parallel. The state vector is the arena itself.
type SpringDamper struct {
	Arena  *dynamo.Arena
	B0, B1 *PointMass
	Spring *LinearSpring
	Damper *LinearDamper

	system dynamo.System[float64]
}

// NewSpringDamper builds the system with b1 one unit from the anchor and
// moving away from it at 40 units per second.
func NewSpringDamper() (*SpringDamper, error) {
	a := dynamo.NewArena(4)
	b0, err := NewPointMass(a, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	b1, err := NewPointMass(a, 1, 40, 1)
	if err != nil {
		return nil, err
	}

	sd := &SpringDamper{
		Arena:  a,
		B0:     b0,
		B1:     b1,
		Spring: NewLinearSpring(b0, b1, a.Values(), 2000),
		Damper: &LinearDamper{B0: b0, B1: b1, C: 5},
	}
	// force elements run before the bodies that consume the force
	sd.system = dynamo.Compose[float64](sd.Spring, sd.Damper, b0, b1)
	return sd, nil
}

func (sd *SpringDamper) Dim() int                   { return sd.Arena.Len() }
func (sd *SpringDamper) DefaultState() dynamo.State { return dynamo.State(sd.Arena.Values()).Clone() }

func (sd *SpringDamper) Derive(x, xd []float64, t float64) {
	sd.system.Derive(x, xd, t)
}

func (sd *SpringDamper) Energy(x dynamo.State) float64 {
	ds := sd.Spring.L0 + sd.B0.S.Get(x) - sd.B1.S.Get(x)
	v := sd.B1.V.Get(x)
	return 0.5*sd.B1.M*v*v + 0.5*sd.Spring.K*ds*ds
}

func (sd *SpringDamper) Params() map[string]float64 {
	return map[string]float64{"k": sd.Spring.K, "c": sd.Damper.C, "m": sd.B1.M}
}

func (sd *SpringDamper) SetParam(name string, value float64) error {
	return setParam(map[string]*float64{"k": &sd.Spring.K, "c": &sd.Damper.C, "m": &sd.B1.M}, name, value)
}
