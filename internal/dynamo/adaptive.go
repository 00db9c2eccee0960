package dynamo

import (
	"fmt"
	"math"
)

// AdaptiveConfig controls error-driven step size selection. The zero value
// is not usable; start from DefaultAdaptive.
type AdaptiveConfig struct {
	AbsTol float64
	RelTol float64
	// SafetyFactor scales DOPRI45 step size updates. Kutta-Merson and VABM
	// use their own fixed factors.
	SafetyFactor float64
	// MaxRejections bounds consecutive rejections of a single step.
	// Zero retries until a step is accepted.
	MaxRejections int
}

func DefaultAdaptive() AdaptiveConfig {
	return AdaptiveConfig{
		AbsTol:       1,
		RelTol:       1,
		SafetyFactor: 0.9,
	}
}

func (c AdaptiveConfig) Validate() error {
	switch {
	case !(c.AbsTol > 0) || math.IsInf(c.AbsTol, 0):
		return fmt.Errorf("%w: abs_tol must be positive, got %g", ErrInvalidTolerance, c.AbsTol)
	case !(c.RelTol >= 0) || math.IsInf(c.RelTol, 0):
		return fmt.Errorf("%w: rel_tol must be non-negative, got %g", ErrInvalidTolerance, c.RelTol)
	case !(c.SafetyFactor > 0) || c.SafetyFactor > 1:
		return fmt.Errorf("%w: safety_factor must be in (0, 1], got %g", ErrInvalidTolerance, c.SafetyFactor)
	case c.MaxRejections < 0:
		return fmt.Errorf("%w: max_rejections must be non-negative, got %d", ErrInvalidTolerance, c.MaxRejections)
	}
	return nil
}

// Exhausted reports whether n consecutive rejections hit the budget.
func (c AdaptiveConfig) Exhausted(n int) bool {
	return c.MaxRejections > 0 && n >= c.MaxRejections
}

// AdaptiveStats accumulates over the lifetime of an adaptive integrator.
type AdaptiveStats struct {
	Accepted    int
	Rejected    int
	Evaluations int
	LastError   float64
	LastDt      float64
}

func (s *AdaptiveStats) Reset() {
	*s = AdaptiveStats{}
}
