package timing

import (
	"math"

	"github.com/san-kum/ascent/internal/modular"
)

// Unbounded is a TEnd that never ends a run.
const Unbounded = math.MaxFloat64

// Clock owns the simulation time and step size. Integrators advance T
// through a pointer. Update runs once per integrator pass, so Delta and
// Advanced describe the move since the previous pass; StepDelta covers the
// whole step and is measured at PostCalc.
type Clock struct {
	modular.Base

	T    float64
	Dt   float64
	TEnd float64
	Eps  float64

	previous  float64
	delta     float64
	advanced  bool
	stepStart float64
	stepDelta float64
	sampler   *Sampler
}

func NewClock(dt, tEnd float64) *Clock {
	c := &Clock{Dt: dt, TEnd: tEnd, Eps: DefaultEps}
	c.sampler = NewSampler(&c.T, &c.Dt)
	return c
}

func (c *Clock) Name() string { return "clock" }

func (c *Clock) Init(*modular.Sim) error {
	c.previous = c.T
	c.stepStart = c.T
	return nil
}

func (c *Clock) Update(*modular.Sim) error {
	c.advanced = c.T > c.previous+c.Eps
	c.delta = c.T - c.previous
	c.previous = c.T
	return nil
}

func (c *Clock) PostCalc(*modular.Sim) error {
	c.stepDelta = c.T - c.stepStart
	c.stepStart = c.T
	return nil
}

// Delta is the time advance seen by the latest update sweep. Multi-stage
// integrators sweep once per pass, so this is a fraction of the step.
func (c *Clock) Delta() float64 { return c.delta }

// Advanced reports whether the latest update sweep saw time move forward.
func (c *Clock) Advanced() bool { return c.advanced }

// StepDelta is the length of the latest completed step. Rejected adaptive
// trials do not count.
func (c *Clock) StepDelta() float64 { return c.stepDelta }

// Done reports whether T has reached TEnd.
func (c *Clock) Done() bool { return c.T >= c.TEnd-c.Eps }

func (c *Clock) Sample(rate float64) bool { return c.sampler.Sample(rate) }
func (c *Clock) Event(at float64) bool    { return c.sampler.Event(at) }

// Reset restores Dt to the base step after sampling shortened it.
func (c *Clock) Reset() { c.sampler.Reset() }

// BaseTimeStep records a step size chosen by an adaptive integrator.
func (c *Clock) BaseTimeStep(dt float64) { c.sampler.SetBaseTimeStep(dt) }

// BaseStep is the step size Dt returns to on Reset.
func (c *Clock) BaseStep() float64 { return c.sampler.BaseTimeStep() }
