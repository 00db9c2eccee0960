package integrators

import "github.com/san-kum/ascent/internal/dynamo"

var (
	oscillator = dynamo.SystemFunc[float64](func(x, xd []float64, _ float64) {
		xd[0] = x[1]
		xd[1] = -x[0]
	})

	airy = dynamo.SystemFunc[float64](func(x, xd []float64, t float64) {
		xd[0] = x[1]
		xd[1] = -t * x[0]
	})

	exponential = dynamo.SystemFunc[float64](func(x, xd []float64, _ float64) {
		xd[0] = x[0]
	})
)

func oscillatorEnergy(x []float64) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// run steps until t reaches tEnd and returns the final time.
func run(s dynamo.Stepper[float64], sys dynamo.System[float64], x []float64, dt, tEnd float64) float64 {
	t := 0.0
	for t < tEnd {
		s.Step(sys, x, &t, dt)
	}
	return t
}
