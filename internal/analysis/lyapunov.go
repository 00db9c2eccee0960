package analysis

import (
	"math"

	"github.com/san-kum/ascent/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent by following a
// reference trajectory and a neighbour started d0 away along x[0]. The
// neighbour is pulled back to distance d0 after every step. A positive
// value indicates chaos.
//
// newStepper is called twice so that integrators carrying history never
// share it between the two trajectories.
func LyapunovExponent(
	sys dynamo.System[float64],
	newStepper func() dynamo.Stepper[float64],
	x0 dynamo.State,
	dt, duration, d0 float64,
) float64 {
	if len(x0) == 0 || !(d0 > 0) {
		return 0
	}
	xp := x0.Clone()
	xp[0] += d0
	return separationRate(sys, newStepper, x0, xp, dt, duration, d0)
}

// LyapunovSpectrum repeats the estimate with the perturbation applied to
// each state component in turn.
func LyapunovSpectrum(
	sys dynamo.System[float64],
	newStepper func() dynamo.Stepper[float64],
	x0 dynamo.State,
	dt, duration, d0 float64,
) []float64 {
	spectrum := make([]float64, len(x0))
	for i := range x0 {
		xp := x0.Clone()
		xp[i] += d0
		spectrum[i] = separationRate(sys, newStepper, x0, xp, dt, duration, d0)
	}
	return spectrum
}

func separationRate(
	sys dynamo.System[float64],
	newStepper func() dynamo.Stepper[float64],
	x0, x0p dynamo.State,
	dt, duration, d0 float64,
) float64 {
	x, xp := x0.Clone(), x0p.Clone()
	a, b := newStepper(), newStepper()
	steps := int(math.Round(duration / dt))

	t, tp := 0.0, 0.0
	sumLog := 0.0
	count := 0
	for i := 0; i < steps; i++ {
		a.Step(sys, x, &t, dt)
		b.Step(sys, xp, &tp, dt)

		sep := xp.Sub(x).Norm()
		if !(sep > 0) || math.IsInf(sep, 0) {
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
