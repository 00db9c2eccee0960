package metrics

import "github.com/san-kum/ascent/internal/dynamo"

// StepSize reports the mean time between observations, which is the mean
// accepted step size of an adaptive run.
type StepSize struct {
	name    string
	first   float64
	last    float64
	samples int
}

func NewStepSize() *StepSize {
	return &StepSize{
		name: "mean_dt",
	}
}

func (s *StepSize) Name() string {
	return s.name
}

func (s *StepSize) Observe(_ dynamo.State, t float64) {
	if s.samples == 0 {
		s.first = t
	}
	s.last = t
	s.samples++
}

func (s *StepSize) Value() float64 {
	if s.samples < 2 {
		return 0
	}
	return (s.last - s.first) / float64(s.samples-1)
}

func (s *StepSize) Reset() {
	s.first, s.last = 0, 0
	s.samples = 0
}
