package modular

// Sim holds modules in evaluation order and the phase currently running.
// Hooks receive the Sim so that Links can resolve dependencies for that phase.
type Sim struct {
	modules []Module
	first   Module
	phase   Phase
	cycle   uint64
}

func New(modules ...Module) *Sim {
	return &Sim{modules: modules}
}

func (s *Sim) Add(modules ...Module) {
	s.modules = append(s.modules, modules...)
}

// RunFirst registers m to be updated before every other module. m is added
// to the Sim if it is not already part of it. A first module implementing
// Timer is told about step size changes made by adaptive integrators.
func (s *Sim) RunFirst(m Module) {
	s.first = m
	for _, mod := range s.modules {
		if mod == m {
			return
		}
	}
	s.modules = append([]Module{m}, s.modules...)
}

func (s *Sim) Len() int          { return len(s.modules) }
func (s *Sim) Modules() []Module { return s.modules }
func (s *Sim) Phase() Phase      { return s.phase }

// Cycles reports how many update cycles have been started.
func (s *Sim) Cycles() uint64 { return s.cycle }

// States returns every state in propagation order.
func (s *Sim) States() []*State {
	var out []*State
	for _, m := range s.modules {
		b := m.base()
		for i := range b.States {
			out = append(out, &b.States[i])
		}
	}
	return out
}

// Timer returns the first-run module when it implements Timer.
func (s *Sim) Timer() Timer {
	if tm, ok := s.first.(Timer); ok {
		return tm
	}
	return nil
}

// Start links and initializes every module that has not been linked or
// initialized yet, so modules added between steps join the run.
func (s *Sim) Start() error {
	if err := s.Link(); err != nil {
		return err
	}
	return s.Init()
}

// Link runs the Link hook of each module at most once.
func (s *Sim) Link() error {
	s.phase = PhaseLink
	defer s.idle()
	for _, m := range s.modules {
		b := m.base()
		if b.linkDone {
			continue
		}
		if l, ok := m.(Linker); ok {
			if err := l.Link(s); err != nil {
				return err
			}
		}
		b.linkDone = true
	}
	return nil
}

func (s *Sim) Init() error {
	s.phase = PhaseInit
	defer s.idle()
	for _, m := range s.modules {
		if err := s.ensureInit(m); err != nil {
			return err
		}
	}
	return nil
}

// Update starts a new update cycle and evaluates every module once.
func (s *Sim) Update() error {
	s.cycle++
	s.phase = PhaseUpdate
	defer s.idle()
	if s.first != nil {
		if err := s.ensureUpdate(s.first); err != nil {
			return err
		}
	}
	for _, m := range s.modules {
		if err := s.ensureUpdate(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sim) Apply() error {
	s.phase = PhaseApply
	defer s.idle()
	for _, m := range s.modules {
		if a, ok := m.(Applier); ok {
			if err := a.Apply(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Propagate runs p over every state of every module.
func (s *Sim) Propagate(p Propagator, dt float64) {
	s.phase = PhasePropagate
	defer s.idle()
	for _, m := range s.modules {
		if pm, ok := m.(Propagating); ok {
			pm.Propagate(p, dt)
			continue
		}
		b := m.base()
		for i := range b.States {
			p.Propagate(&b.States[i], dt)
		}
	}
}

func (s *Sim) PostProp() error {
	s.phase = PhasePostprop
	defer s.idle()
	for _, m := range s.modules {
		if pp, ok := m.(PostPropagator); ok {
			if err := pp.PostProp(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Sim) PostCalc() error {
	s.phase = PhasePostcalc
	defer s.idle()
	for _, m := range s.modules {
		if pc, ok := m.(PostCalculator); ok {
			if err := pc.PostCalc(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Sim) idle() { s.phase = PhaseIdle }

func (s *Sim) ensureInit(m Module) error {
	b := m.base()
	if b.initDone {
		return nil
	}
	if b.initRunning {
		return &DependencyError{Module: moduleName(m), Phase: PhaseInit, Err: ErrCircularDependency}
	}
	b.initRunning = true
	defer func() { b.initRunning = false }()

	if in, ok := m.(Initializer); ok {
		if err := in.Init(s); err != nil {
			return err
		}
	}
	b.initDone = true
	return nil
}

func (s *Sim) ensureUpdate(m Module) error {
	if err := s.ensureInit(m); err != nil {
		return err
	}
	b := m.base()
	if b.updateCycle == s.cycle {
		return nil
	}
	if b.updateRunning {
		return &DependencyError{Module: moduleName(m), Phase: PhaseUpdate, Err: ErrCircularDependency}
	}
	b.updateRunning = true
	defer func() { b.updateRunning = false }()

	if u, ok := m.(Updater); ok {
		if err := u.Update(s); err != nil {
			return err
		}
	}
	b.updateCycle = s.cycle
	return nil
}
