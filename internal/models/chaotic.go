package models

import "github.com/san-kum/ascent/internal/dynamo"

type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

func (*Lorenz) Dim() int                   { return 3 }
func (*Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (l *Lorenz) Derive(s, xd []float64, _ float64) {
	xd[0] = l.Sigma * (s[1] - s[0])
	xd[1] = s[0]*(l.Rho-s[2]) - s[1]
	xd[2] = s[0]*s[1] - l.Beta*s[2]
}

func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	return setParam(map[string]*float64{"sigma": &l.Sigma, "rho": &l.Rho, "beta": &l.Beta}, n, v)
}

type Rossler struct{ A, B, C float64 }

func NewRossler() *Rossler { return &Rossler{0.2, 0.2, 5.7} }

func (*Rossler) Dim() int                   { return 3 }
func (*Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (r *Rossler) Derive(s, xd []float64, _ float64) {
	xd[0] = -s[1] - s[2]
	xd[1] = s[0] + r.A*s[1]
	xd[2] = r.B + s[2]*(s[0]-r.C)
}

func (r *Rossler) Params() map[string]float64 {
	return map[string]float64{"a": r.A, "b": r.B, "c": r.C}
}

func (r *Rossler) SetParam(n string, v float64) error {
	return setParam(map[string]*float64{"a": &r.A, "b": &r.B, "c": &r.C}, n, v)
}

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol { return &VanDerPol{Mu: 1.0} }

func (*VanDerPol) Dim() int                   { return 2 }
func (*VanDerPol) DefaultState() dynamo.State { return dynamo.State{2.0, 0.0} }

func (v *VanDerPol) Derive(s, xd []float64, _ float64) {
	x, y := s[0], s[1]
	xd[0] = y
	xd[1] = v.Mu*(1-x*x)*y - x
}

func (v *VanDerPol) Params() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(n string, value float64) error {
	return setParam(map[string]*float64{"mu": &v.Mu}, n, value)
}
