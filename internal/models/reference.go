package models

import "github.com/san-kum/ascent/internal/dynamo"

// Airy is x” = -t x written as x0' = x1, x1' = -t x0.
type Airy struct{}

func NewAiry() *Airy { return &Airy{} }

func (*Airy) Dim() int                   { return 2 }
func (*Airy) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (*Airy) Derive(x, xd []float64, t float64) {
	xd[0] = x[1]
	xd[1] = -t * x[0]
}

// Exponential is x' = Rate x.
type Exponential struct {
	Rate float64
}

func NewExponential() *Exponential { return &Exponential{Rate: 1} }

func (*Exponential) Dim() int                   { return 1 }
func (*Exponential) DefaultState() dynamo.State { return dynamo.State{1} }

func (e *Exponential) Derive(x, xd []float64, _ float64) {
	xd[0] = e.Rate * x[0]
}

func (e *Exponential) Params() map[string]float64 {
	return map[string]float64{"rate": e.Rate}
}

func (e *Exponential) SetParam(name string, value float64) error {
	return setParam(map[string]*float64{"rate": &e.Rate}, name, value)
}
