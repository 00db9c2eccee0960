package modular

// State binds one scalar owned by a module to its derivative. Memory is
// integrator scratch that grows on demand and is never shrunk. History holds
// step-start derivatives recorded during a multistep cold start, oldest first.
type State struct {
	x, xd   *float64
	Memory  []float64
	History []float64
}

func NewState(x, xd *float64) State {
	return State{x: x, xd: xd}
}

func (s *State) X() float64      { return *s.x }
func (s *State) SetX(v float64)  { *s.x = v }
func (s *State) Xd() float64     { return *s.xd }
func (s *State) SetXd(v float64) { *s.xd = v }

// Grow makes Memory at least n long and returns it.
func (s *State) Grow(n int) []float64 {
	if len(s.Memory) < n {
		s.Memory = append(s.Memory, make([]float64, n-len(s.Memory))...)
	}
	return s.Memory
}

// Record appends the current derivative to History.
func (s *State) Record() {
	s.History = append(s.History, *s.xd)
}

func (s *State) ClearHistory() {
	s.History = s.History[:0]
}
