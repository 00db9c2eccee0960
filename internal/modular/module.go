package modular

import "fmt"

// Module is satisfied by any struct embedding Base. Behaviour is opted into
// by implementing the hook interfaces below.
type Module interface {
	base() *Base
}

// Base carries the states and scheduling flags of a module.
type Base struct {
	States []State

	linkDone      bool
	initDone      bool
	initRunning   bool
	updateCycle   uint64
	updateRunning bool
}

func (b *Base) base() *Base { return b }

// MakeState registers x and its derivative xd.
func (b *Base) MakeState(x, xd *float64) {
	b.States = append(b.States, NewState(x, xd))
}

// MakeStates registers x[i] with xd[i] for every i.
func (b *Base) MakeStates(x, xd []float64) {
	for i := range x {
		b.MakeState(&x[i], &xd[i])
	}
}

type Linker interface {
	Link(s *Sim) error
}

type Initializer interface {
	Init(s *Sim) error
}

type Updater interface {
	Update(s *Sim) error
}

type Applier interface {
	Apply(s *Sim) error
}

// Propagating replaces the default propagation over every owned state.
type Propagating interface {
	Propagate(p Propagator, dt float64)
}

type PostPropagator interface {
	PostProp(s *Sim) error
}

type PostCalculator interface {
	PostCalc(s *Sim) error
}

// Named modules report Name in dependency errors instead of their type.
type Named interface {
	Name() string
}

func moduleName(m Module) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}
