package dynamo

import (
	"math"

	"golang.org/x/exp/constraints"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System writes the derivative of x at time t into xd. It may be called
// several times per step and must not mutate anything but xd.
type System[T constraints.Float] interface {
	Derive(x, xd []T, t T)
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc[T constraints.Float] func(x, xd []T, t T)

func (f SystemFunc[T]) Derive(x, xd []T, t T) { f(x, xd, t) }

// Compose evaluates systems in order on the same buffers. Later systems see
// the derivative slots written by earlier ones, which lets force producers
// run before the bodies that consume the accumulated force.
func Compose[T constraints.Float](systems ...System[T]) System[T] {
	return SystemFunc[T](func(x, xd []T, t T) {
		for _, s := range systems {
			s.Derive(x, xd, t)
		}
	})
}

// Stepper advances x in place by one step of size dt and advances *t.
type Stepper[T constraints.Float] interface {
	Step(sys System[T], x []T, t *T, dt T)
}

// AdaptiveStepper advances x by one accepted step. *dt is rewritten both on
// rejection (immediate correction) and on acceptance (hint for the next step).
type AdaptiveStepper[T constraints.Float] interface {
	Stepper[T]
	StepAdaptive(sys System[T], x []T, t *T, dt *T, cfg AdaptiveConfig) error
}

// Resetter is implemented by integrators carrying history between steps
// (FSAL derivatives, multistep histories). Reset forgets it.
type Resetter interface {
	Reset()
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	Seed          int64
	Adaptive      bool
	Tolerances    AdaptiveConfig
	MaxDt         float64
	MinDt         float64
	ValidateState bool
	RecordEvery   int
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerances:    DefaultAdaptive(),
		MaxDt:         0.1,
		MinDt:         1e-12,
		Adaptive:      false,
		ValidateState: true,
		RecordEvery:   1,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Stats       AdaptiveStats
	Errors      []error
}

// StatsReporter is implemented by adaptive integrators.
type StatsReporter interface {
	Statistics() AdaptiveStats
}
