package models

import (
	"errors"
	"fmt"

	"github.com/san-kum/ascent/internal/dynamo"
)

// ErrUnknownParam is returned by SetParam for a name the model lacks.
var ErrUnknownParam = errors.New("models: unknown parameter")

// Model is a direct system with a fixed dimension and a natural start state.
type Model interface {
	dynamo.System[float64]
	Dim() int
	DefaultState() dynamo.State
}

// Configurable models expose their parameters by name.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

func unknownParam(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownParam, name)
}

// setParam assigns value to the field registered under name.
func setParam(fields map[string]*float64, name string, value float64) error {
	p, ok := fields[name]
	if !ok {
		return unknownParam(name)
	}
	*p = value
	return nil
}
