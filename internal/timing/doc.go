// Package timing provides the simulation clock module and step samplers.
//
// A [Clock] is meant to be registered with [modular.Sim.RunFirst] so that it
// observes time before any other module updates and learns about step size
// changes made by adaptive integrators. A [Sampler] shortens the current
// step so that a run lands exactly on sample instants or one-off events.
package timing
