// Package modular integrates systems assembled from independent modules.
//
// A module embeds [Base], registers its (value, derivative) pairs as
// [State] entries during Init, and computes its derivatives in Update. Modules
// reference each other through [Link] handles; reading a Link during a phase
// first completes the target's Init or Update, so modules may be listed in
// any order. A cycle between Links within one phase is reported as
// [ErrCircularDependency].
//
// Integrators drive a [Sim] through a fixed number of passes per step. Every
// pass runs Update, Apply, the integrator's [Propagator] over every state,
// its [TimeStepper], then PostProp. PostCalc runs once per completed step.
//
// # Example
//
//	clock := timing.NewClock(0.01, 1.5)
//	b0, b1 := models.NewBody(0), models.NewBody(1)
//	spring := models.NewSpring(b0, b1, 2000)
//	s := modular.New(b0, b1, spring)
//	s.RunFirst(clock)
//	rk4 := modular.NewRK4()
//	for clock.T < clock.TEnd {
//	    if err := rk4.Step(s, &clock.T, clock.Dt); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// A Sim, its modules and the integrator stepping it belong to one goroutine.
package modular
