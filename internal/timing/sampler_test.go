package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Sample(t *testing.T) {
	tm, dt := 0.0, 0.1
	s := NewSampler(&tm, &dt)

	assert.True(t, s.Sample(0.25), "t=0 is a sample instant")
	assert.Equal(t, 0.1, dt)

	tm = 0.2
	assert.False(t, s.Sample(0.25))
	assert.InDelta(t, 0.05, dt, 1e-15)

	tm += dt
	s.Reset()
	assert.Equal(t, 0.1, dt)
	assert.True(t, s.Sample(0.25))
}

func TestSampler_Event(t *testing.T) {
	tm, dt := 0.5, 0.1
	s := NewSampler(&tm, &dt)

	assert.False(t, s.Event(0.617))
	assert.Equal(t, 0.1, dt, "event beyond the step leaves dt alone")

	tm = 0.6
	assert.False(t, s.Event(0.617))
	assert.InDelta(t, 0.017, dt, 1e-12)

	tm += dt
	s.Reset()
	assert.True(t, s.Event(0.617))
	assert.False(t, s.Event(0.3), "past events never shorten the step")
	assert.Equal(t, 0.1, dt)
}

func TestSampler_LandsOnEverySample(t *testing.T) {
	tm, dt := 0.0, 0.1
	s := NewSampler(&tm, &dt)

	var hits []float64
	for tm < 1-1e-12 {
		if s.Sample(0.33) {
			hits = append(hits, tm)
		}
		tm += dt
		s.Reset()
	}
	require.Len(t, hits, 4)
	for i, h := range hits {
		assert.InDelta(t, float64(i)*0.33, h, 1e-9)
	}
}

func TestSampler_SetBaseTimeStep(t *testing.T) {
	tm, dt := 0.0, 0.1
	s := NewSampler(&tm, &dt)
	s.SetBaseTimeStep(0.02)
	assert.Equal(t, 0.02, dt)
	assert.Equal(t, 0.02, s.BaseTimeStep())
}
