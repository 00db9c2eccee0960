package timing

import "math"

// DefaultEps is the tolerance used to decide that two instants coincide.
const DefaultEps = 1e-8

// Sampler shortens *dt so that the next step ends on a sample or event time.
// Reset must be called once the step has been taken to restore the base
// step size.
type Sampler struct {
	t, dt *float64
	base  float64
	Eps   float64
}

func NewSampler(t, dt *float64) *Sampler {
	return &Sampler{t: t, dt: dt, base: *dt, Eps: DefaultEps}
}

// Sample reports whether t is a multiple of rate, and shortens dt when the
// next multiple falls inside the current step.
func (s *Sampler) Sample(rate float64) bool {
	t := *s.t
	n := math.Floor((t + s.Eps) / rate)
	next := (n + 1) * rate
	if next < t+*s.dt-s.Eps {
		*s.dt = next - t
	}
	return t-next+rate < s.Eps
}

// Event reports whether t is at the given instant, and shortens dt when the
// instant falls inside the current step.
func (s *Sampler) Event(at float64) bool {
	t := *s.t
	if at < t+*s.dt-s.Eps && at >= t+s.Eps {
		*s.dt = at - t
	}
	return math.Abs(at-t) < s.Eps
}

func (s *Sampler) Reset() { *s.dt = s.base }

func (s *Sampler) BaseTimeStep() float64 { return s.base }

// SetBaseTimeStep changes both the base and the current step.
func (s *Sampler) SetBaseTimeStep(dt float64) {
	s.base = dt
	*s.dt = dt
}
