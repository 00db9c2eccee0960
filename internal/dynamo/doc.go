// Package dynamo provides core primitives shared by the direct and modular
// integrator families.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: flat vector representing system state
//   - [System]: interface for ODE systems (dx/dt = f(x, t)) written into xd
//   - [Stepper]: fixed-step numerical integrator interface
//   - [AdaptiveStepper]: error-controlled integrator interface
//   - [AdaptiveConfig]: tolerances and safety factor for adaptive stepping
//   - [Arena], [Param]: stable index handles into fixed-capacity buffers
//
// # Example
//
//	sys := dynamo.SystemFunc[float64](func(x, xd []float64, t float64) {
//	    xd[0] = x[1]
//	    xd[1] = -t * x[0]
//	})
//	rk4 := integrators.NewRK4[float64]()
//	x, t := dynamo.State{1, 0}, 0.0
//	for t < 10 {
//	    rk4.Step(sys, x, &t, 0.001)
//	}
//
// # Thread Safety
//
// Integrators keep scratch buffers between calls and are NOT thread-safe.
// Replicate integrator instances per goroutine; see sim.Ensemble.
package dynamo
