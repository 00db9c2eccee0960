package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ascent/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System != "pendulum" {
		t.Errorf("expected system pendulum, got %s", cfg.System)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.InitState[0] != 0.2 {
		t.Errorf("expected theta 0.2, got %f", cfg.InitState[0])
	}

	cfg.InitState[0] = 9
	if GetPreset("pendulum", "small").InitState[0] != 0.2 {
		t.Error("GetPreset must return an independent copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("pendulum", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "small")
	if cfg != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("pendulum")
	assert.Equal(t, []string{"large", "small", "spinning"}, presets)

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestAllPresetsValidate(t *testing.T) {
	for _, sys := range Systems() {
		for _, name := range ListPresets(sys) {
			cfg := GetPreset(sys, name)
			assert.NoError(t, cfg.Validate(), "%s/%s", sys, name)
			assert.Equal(t, sys, cfg.System)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no system", func(c *Config) { c.System = "" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"bad tolerance", func(c *Config) {
			c.Adaptive.Enabled = true
			c.Adaptive.AbsTol = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	cfg := DefaultConfig()
	cfg.Adaptive.Enabled = true
	cfg.Adaptive.SafetyFactor = 2
	assert.True(t, errors.Is(cfg.Validate(), dynamo.ErrInvalidTolerance))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("lorenz", "tight")
	cfg.Params = map[string]float64{"rho": 14}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "system: airy\nintegrator: dopri45\nadaptive:\n  enabled: true\n  abs_tol: 1e-9\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "airy", cfg.System)
	assert.Equal(t, DefaultDt, cfg.Dt)
	assert.Equal(t, 1e-9, cfg.Adaptive.AbsTol)
	assert.Equal(t, 0.9, cfg.Adaptive.SafetyFactor, "unset keys keep their defaults")

	rc := cfg.RunConfig()
	assert.True(t, rc.Adaptive)
	assert.Equal(t, 1e-9, rc.Tolerances.AbsTol)
}

func TestInitialState(t *testing.T) {
	cfg := DefaultConfig()
	fallback := dynamo.State{1, 2}
	x := cfg.InitialState(fallback)
	assert.Equal(t, fallback, x)
	x[0] = 5
	assert.Equal(t, 1.0, fallback[0])

	cfg.InitState = []float64{3}
	assert.Equal(t, dynamo.State{3}, cfg.InitialState(fallback))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCloneIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitState = []float64{1, 2}
	cfg.Params = map[string]float64{"length": 1}

	c := cfg.Clone()
	c.InitState[0] = 5
	c.Params["length"] = 2

	assert.Equal(t, 1.0, cfg.InitState[0])
	assert.Equal(t, 1.0, cfg.Params["length"])
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Set("dt", 0.5)
	cfg.Set("abs_tol", 1e-9)
	cfg.Set("rel_tol", 1e-7)
	cfg.Set("damping", 0.3)

	assert.Equal(t, 0.5, cfg.Dt)
	assert.Equal(t, 1e-9, cfg.Adaptive.AbsTol)
	assert.Equal(t, 1e-7, cfg.Adaptive.RelTol)
	assert.Equal(t, map[string]float64{"damping": 0.3}, cfg.Params)
}
