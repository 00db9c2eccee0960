package integrators

import (
	"testing"

	"github.com/san-kum/ascent/internal/dynamo"
)

func benchStepper(b *testing.B, s dynamo.Stepper[float64], sys dynamo.System[float64], x []float64, dt float64) {
	t := 0.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(sys, x, &t, dt)
	}
}

func BenchmarkEuler(b *testing.B) {
	benchStepper(b, NewEuler[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

func BenchmarkRK4(b *testing.B) {
	benchStepper(b, NewRK4[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

func BenchmarkDOPRI45(b *testing.B) {
	benchStepper(b, NewDOPRI45[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

func BenchmarkABM4(b *testing.B) {
	benchStepper(b, NewABM4[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

func BenchmarkVerlet(b *testing.B) {
	benchStepper(b, NewVerlet[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

func BenchmarkLeapfrog(b *testing.B) {
	benchStepper(b, NewLeapfrog[float64](), oscillator, []float64{1.0, 0.0}, 0.01)
}

var benchNBody = dynamo.SystemFunc[float64](func(x, dx []float64, _ float64) {
	for i := 0; i < 5; i++ {
		dx[i*4] = x[i*4+2]
		dx[i*4+1] = x[i*4+3]
		dx[i*4+2] = -x[i*4] * 0.1
		dx[i*4+3] = -x[i*4+1] * 0.1
	}
})

func nbodyState() []float64 {
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(i) * 0.1
	}
	return x
}

func BenchmarkRK4_NBody5(b *testing.B) {
	benchStepper(b, NewRK4[float64](), benchNBody, nbodyState(), 0.001)
}

func BenchmarkDOPRI45Adaptive_NBody5(b *testing.B) {
	s := NewDOPRI45[float64]()
	x := nbodyState()
	cfg := dynamo.DefaultAdaptive()
	cfg.AbsTol, cfg.RelTol = 1e-9, 1e-9
	t, dt := 0.0, 0.001

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.StepAdaptive(benchNBody, x, &t, &dt, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
