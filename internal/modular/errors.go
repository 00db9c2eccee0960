package modular

import (
	"errors"
	"fmt"
)

var (
	// ErrCircularDependency indicates Links that form a cycle within one phase.
	ErrCircularDependency = errors.New("modular: circular dependency")

	// ErrNilLink indicates a Link read before it was bound to a module.
	ErrNilLink = errors.New("modular: nil link")

	// ErrInvalidOrder indicates an unsupported multistep order.
	ErrInvalidOrder = errors.New("modular: invalid integrator order")
)

// DependencyError reports the module and phase where dependency resolution
// failed.
type DependencyError struct {
	Module string
	Phase  Phase
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%v: module %s during %s", e.Err, e.Module, e.Phase)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
