package models

import (
	"math"

	"github.com/san-kum/ascent/internal/dynamo"
)

const (
	DefaultMass      = 1.0
	DefaultLength    = 1.0
	DefaultGravity   = 9.81
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// Oscillator is the undamped harmonic oscillator m x” = -k x.
type Oscillator struct {
	Mass, Stiffness float64
}

func NewOscillator() *Oscillator { return &Oscillator{Mass: 1, Stiffness: 1} }

func (*Oscillator) Dim() int                   { return 2 }
func (*Oscillator) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (o *Oscillator) Derive(x, xd []float64, _ float64) {
	xd[0] = x[1]
	xd[1] = -o.Stiffness / o.Mass * x[0]
}

func (o *Oscillator) Energy(x dynamo.State) float64 {
	return 0.5*o.Mass*x[1]*x[1] + 0.5*o.Stiffness*x[0]*x[0]
}

func (o *Oscillator) Params() map[string]float64 {
	return map[string]float64{"mass": o.Mass, "stiffness": o.Stiffness}
}

func (o *Oscillator) SetParam(n string, v float64) error {
	return setParam(map[string]*float64{"mass": &o.Mass, "stiffness": &o.Stiffness}, n, v)
}

// Duffing implements a nonlinear forced oscillator. The forcing phase is
// carried as a third state so the system stays autonomous.
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 0.5, 1.2}
}

func (*Duffing) Dim() int                   { return 3 }
func (*Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0, 0.0} }

func (d *Duffing) Derive(s, xd []float64, _ float64) {
	x, v, phi := s[0], s[1], s[2]
	xd[0] = v
	xd[1] = -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(phi)
	xd[2] = d.Omega
}

func (d *Duffing) Params() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(n string, v float64) error {
	return setParam(map[string]*float64{
		"alpha": &d.Alpha, "beta": &d.Beta, "delta": &d.Delta, "gamma": &d.Gamma, "omega": &d.Omega,
	}, n, v)
}
