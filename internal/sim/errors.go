package sim

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive step or duration.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrNotAdaptive indicates adaptive mode was requested for an integrator
	// that can neither control its own step nor be step-doubled.
	ErrNotAdaptive = errors.New("sim: integrator does not support adaptive stepping")
)
