package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrTooManyRejections indicates an adaptive step exhausted its rejection budget.
	ErrTooManyRejections = errors.New("dynamo: too many consecutive step rejections")

	// ErrInvalidTolerance indicates a non-positive tolerance or safety factor.
	ErrInvalidTolerance = errors.New("dynamo: invalid adaptive tolerance")

	// ErrArenaFull indicates a parameter arena has no free slot left.
	ErrArenaFull = errors.New("dynamo: parameter arena is full")

	// ErrStaleParam indicates a parameter handle outlived an arena reset.
	ErrStaleParam = errors.New("dynamo: stale parameter handle")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// RejectionError reports the adaptive step that ran out of retries. x and t
// are restored to the step start when it is returned.
type RejectionError struct {
	Rejections int
	Dt         float64
	ErrMax     float64
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %d rejections, dt=%g, err=%g", ErrTooManyRejections, e.Rejections, e.Dt, e.ErrMax)
}

func (e *RejectionError) Unwrap() error {
	return ErrTooManyRejections
}
