package dynamo

// Arena hands out stable slots in a fixed-capacity value buffer. The buffer
// never reallocates, so a Param stays valid until the arena is Reset.
type Arena struct {
	values     []float64
	used       int
	generation uint32
}

// Param is an index into an Arena (or into a caller vector laid out the same
// way) tagged with the arena generation it was issued under.
type Param struct {
	Index      int
	generation uint32
}

func NewArena(capacity int) *Arena {
	return &Arena{values: make([]float64, capacity), generation: 1}
}

// Alloc reserves a slot initialized to v.
func (a *Arena) Alloc(v float64) (Param, error) {
	if a.used >= len(a.values) {
		return Param{}, ErrArenaFull
	}
	p := Param{Index: a.used, generation: a.generation}
	a.values[a.used] = v
	a.used++
	return p, nil
}

func (a *Arena) Len() int { return a.used }
func (a *Arena) Cap() int { return len(a.values) }

// Values exposes the live prefix of the buffer. Integrators operate on it
// directly as the state vector.
func (a *Arena) Values() []float64 { return a.values[:a.used] }

// Reset invalidates every Param issued so far.
func (a *Arena) Reset() {
	for i := range a.values[:a.used] {
		a.values[i] = 0
	}
	a.used = 0
	a.generation++
}

func (a *Arena) Valid(p Param) bool {
	return p.generation == a.generation && p.Index < a.used
}

func (a *Arena) Get(p Param) (float64, error) {
	if !a.Valid(p) {
		return 0, ErrStaleParam
	}
	return a.values[p.Index], nil
}

func (a *Arena) Set(p Param, v float64) error {
	if !a.Valid(p) {
		return ErrStaleParam
	}
	a.values[p.Index] = v
	return nil
}

// Get reads the parameter from a state vector.
func (p Param) Get(x []float64) float64 { return x[p.Index] }

// D reads the parameter's derivative slot.
func (p Param) D(xd []float64) float64 { return xd[p.Index] }

// SetD writes the parameter's derivative slot.
func (p Param) SetD(xd []float64, v float64) { xd[p.Index] = v }
