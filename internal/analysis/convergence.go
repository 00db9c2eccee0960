package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/ascent/internal/dynamo"
)

var ErrTooFewSteps = errors.New("analysis: need at least two step sizes")

// Convergence is the global error of one integrator at a series of step
// sizes, measured against a reference solution at tEnd.
type Convergence struct {
	Dts    []float64
	Errors []float64
}

// MeasureConvergence integrates from x0 to tEnd at every dt in dts with a
// fresh stepper and records the max-norm error against exact.
func MeasureConvergence(
	sys dynamo.System[float64],
	newStepper func() dynamo.Stepper[float64],
	x0, exact dynamo.State,
	tEnd float64,
	dts []float64,
) Convergence {
	c := Convergence{Dts: dts, Errors: make([]float64, len(dts))}
	for i, dt := range dts {
		x := x0.Clone()
		t := 0.0
		st := newStepper()
		steps := int(math.Round(tEnd / dt))
		for n := 0; n < steps; n++ {
			st.Step(sys, x, &t, dt)
		}

		worst := 0.0
		for j := range x {
			worst = math.Max(worst, math.Abs(x[j]-exact[j]))
		}
		c.Errors[i] = worst
	}
	return c
}

// Order is the least-squares slope of log(error) against log(dt).
func (c Convergence) Order() (float64, error) {
	var sx, sy, sxx, sxy float64
	n := 0
	for i, dt := range c.Dts {
		e := c.Errors[i]
		if !(e > 0) || math.IsInf(e, 0) {
			continue
		}
		lx, ly := math.Log(dt), math.Log(e)
		sx += lx
		sy += ly
		sxx += lx * lx
		sxy += lx * ly
		n++
	}
	if n < 2 {
		return 0, ErrTooFewSteps
	}
	fn := float64(n)
	return (fn*sxy - sx*sy) / (fn*sxx - sx*sx), nil
}
