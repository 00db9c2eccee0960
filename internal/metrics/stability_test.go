package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ascent/internal/dynamo"
)

func TestStability(t *testing.T) {
	s := NewStability(10)
	if s.Value() != 1 {
		t.Errorf("expected 1 with no samples, got %f", s.Value())
	}

	s.Observe(dynamo.State{1, 2}, 0)
	s.Observe(dynamo.State{1, 20}, 1)
	s.Observe(dynamo.State{math.NaN(), 0}, 2)
	s.Observe(dynamo.State{0, 0}, 3)

	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
}

func TestStepSize(t *testing.T) {
	s := NewStepSize()
	for _, tm := range []float64{0, 0.1, 0.3, 0.6} {
		s.Observe(nil, tm)
	}
	if math.Abs(s.Value()-0.2) > 1e-12 {
		t.Errorf("expected mean step 0.2, got %f", s.Value())
	}
	s.Reset()
	if s.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", s.Value())
	}
}
