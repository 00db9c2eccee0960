// Package analysis characterizes trajectories and integrators.
//
//   - [PowerSpectrum], [DominantFrequency]: frequency content of a recorded signal
//   - [LyapunovExponent], [LyapunovSpectrum]: separation rate of nearby trajectories
//   - [MeasureConvergence]: empirical order of accuracy of an integrator
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda := analysis.LyapunovExponent(sys, newRK4, x0, 0.01, 50, 1e-8)
//	if lambda > 0 {
//	    // chaotic
//	}
package analysis
