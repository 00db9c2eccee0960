package dynamo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAdaptive(t *testing.T) {
	cfg := DefaultAdaptive()
	assert.Equal(t, 1.0, cfg.AbsTol)
	assert.Equal(t, 1.0, cfg.RelTol)
	assert.Equal(t, 0.9, cfg.SafetyFactor)
	assert.Zero(t, cfg.MaxRejections)
	require.NoError(t, cfg.Validate())
}

func TestAdaptiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AdaptiveConfig)
	}{
		{"zero abs_tol", func(c *AdaptiveConfig) { c.AbsTol = 0 }},
		{"NaN abs_tol", func(c *AdaptiveConfig) { c.AbsTol = math.NaN() }},
		{"negative rel_tol", func(c *AdaptiveConfig) { c.RelTol = -1 }},
		{"zero safety", func(c *AdaptiveConfig) { c.SafetyFactor = 0 }},
		{"safety above one", func(c *AdaptiveConfig) { c.SafetyFactor = 1.5 }},
		{"negative budget", func(c *AdaptiveConfig) { c.MaxRejections = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAdaptive()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTolerance))
		})
	}
}

func TestAdaptiveConfig_Exhausted(t *testing.T) {
	cfg := DefaultAdaptive()
	assert.False(t, cfg.Exhausted(1_000_000))

	cfg.MaxRejections = 3
	assert.False(t, cfg.Exhausted(2))
	assert.True(t, cfg.Exhausted(3))
}

func TestRejectionError(t *testing.T) {
	var err error = &RejectionError{Rejections: 4, Dt: 1e-3, ErrMax: 2.5}
	assert.ErrorIs(t, err, ErrTooManyRejections)
	assert.Contains(t, err.Error(), "4 rejections")
}
