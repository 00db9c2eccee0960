package viz

import (
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/modular"
	"github.com/san-kum/ascent/internal/timing"
)

// Source advances a simulation one step per call.
type Source interface {
	Step() error
	State() dynamo.State
	Time() float64
	Dt() float64
	Reset() error
}

// DirectSource steps a flat-vector system. A non-nil Adaptive config selects
// StepAdaptive when the stepper supports it.
type DirectSource struct {
	sys      dynamo.System[float64]
	stepper  dynamo.Stepper[float64]
	x0, x    dynamo.State
	t        float64
	dt, dt0  float64
	Adaptive *dynamo.AdaptiveConfig
}

func NewDirectSource(sys dynamo.System[float64], stepper dynamo.Stepper[float64], x0 dynamo.State, dt float64) *DirectSource {
	return &DirectSource{sys: sys, stepper: stepper, x0: x0.Clone(), x: x0.Clone(), dt: dt, dt0: dt}
}

func (d *DirectSource) Step() error {
	if a, ok := d.stepper.(dynamo.AdaptiveStepper[float64]); ok && d.Adaptive != nil {
		return a.StepAdaptive(d.sys, d.x, &d.t, &d.dt, *d.Adaptive)
	}
	d.stepper.Step(d.sys, d.x, &d.t, d.dt)
	return nil
}

func (d *DirectSource) State() dynamo.State { return d.x }
func (d *DirectSource) Time() float64       { return d.t }
func (d *DirectSource) Dt() float64         { return d.dt }

// System exposes the stepped system so views can query energy.
func (d *DirectSource) System() dynamo.System[float64] { return d.sys }

func (d *DirectSource) Reset() error {
	copy(d.x, d.x0)
	d.t = 0
	d.dt = d.dt0
	if r, ok := d.stepper.(dynamo.Resetter); ok {
		r.Reset()
	}
	return nil
}

// ModularSource steps a modular simulation whose time lives in clock.
type ModularSource struct {
	sim      *modular.Sim
	clock    *timing.Clock
	stepper  modular.Stepper
	x0       []float64
	t0, dt0  float64
	x        dynamo.State
	Adaptive *dynamo.AdaptiveConfig
}

// NewModularSource starts s and remembers its initial values for Reset.
// clock must already be registered with s.RunFirst.
func NewModularSource(s *modular.Sim, clock *timing.Clock, stepper modular.Stepper) (*ModularSource, error) {
	if err := s.Start(); err != nil {
		return nil, err
	}
	m := &ModularSource{sim: s, clock: clock, stepper: stepper, t0: clock.T, dt0: clock.Dt}
	m.x0 = m.snapshot(nil)
	m.x = m.snapshot(nil)
	return m, nil
}

func (m *ModularSource) snapshot(dst []float64) []float64 {
	states := m.sim.States()
	dst = dst[:0]
	for _, st := range states {
		dst = append(dst, st.X())
	}
	return dst
}

func (m *ModularSource) Step() error {
	var err error
	if a, ok := m.stepper.(modular.AdaptiveStepper); ok && m.Adaptive != nil {
		err = a.StepAdaptive(m.sim, &m.clock.T, &m.clock.Dt, *m.Adaptive)
	} else {
		err = m.stepper.Step(m.sim, &m.clock.T, m.clock.Dt)
	}
	m.x = m.snapshot(m.x)
	return err
}

func (m *ModularSource) State() dynamo.State { return m.x }
func (m *ModularSource) Time() float64       { return m.clock.T }
func (m *ModularSource) Dt() float64         { return m.clock.Dt }

func (m *ModularSource) Reset() error {
	for i, st := range m.sim.States() {
		st.SetX(m.x0[i])
	}
	m.clock.T = m.t0
	m.clock.BaseTimeStep(m.dt0)
	if r, ok := m.stepper.(dynamo.Resetter); ok {
		r.Reset()
	}
	m.x = m.snapshot(m.x)
	return nil
}

func (d *DirectSource) Stats() (dynamo.AdaptiveStats, bool) {
	if sr, ok := d.stepper.(dynamo.StatsReporter); ok {
		return sr.Statistics(), true
	}
	return dynamo.AdaptiveStats{}, false
}

func (m *ModularSource) Stats() (dynamo.AdaptiveStats, bool) {
	if sr, ok := m.stepper.(dynamo.StatsReporter); ok {
		return sr.Statistics(), true
	}
	return dynamo.AdaptiveStats{}, false
}
