// Package models provides dynamical systems for simulation.
//
// Direct systems implement [dynamo.System] over a flat state vector and
// [Model] for use by the registry:
//
//   - [Airy], [Exponential]: reference problems with known solutions
//   - [Oscillator], [Pendulum], [DoublePendulum], [SpringMass]: mechanical
//     systems that also implement [dynamo.Hamiltonian]
//   - [Lorenz], [Rossler], [VanDerPol], [Duffing]: nonlinear and chaotic systems
//   - [SpringDamper]: a composed system built from [dynamo.Param] handles
//
// Modular counterparts ([AiryModule], [ExponentialModule], [Body], [Spring],
// [Damper]) are modules for a [modular.Sim].
//
// # Energy Conservation
//
// For Hamiltonian systems, use [dynamo.Hamiltonian] to monitor energy drift:
//
//	m := models.NewPendulum()
//	if h, ok := m.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package models
