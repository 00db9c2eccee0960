package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ascent/internal/dynamo"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultOrder    = 4
)

// ErrInvalid indicates a configuration that cannot be run.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	System      string             `yaml:"system"`
	Integrator  string             `yaml:"integrator"`
	Modular     bool               `yaml:"modular"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Seed        int64              `yaml:"seed"`
	Order       int                `yaml:"order,omitempty"`
	RecordEvery int                `yaml:"record_every,omitempty"`
	InitState   []float64          `yaml:"init_state,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Adaptive    AdaptiveSettings   `yaml:"adaptive"`
}

type AdaptiveSettings struct {
	Enabled       bool    `yaml:"enabled"`
	AbsTol        float64 `yaml:"abs_tol"`
	RelTol        float64 `yaml:"rel_tol"`
	SafetyFactor  float64 `yaml:"safety_factor"`
	MaxRejections int     `yaml:"max_rejections"`
	MinDt         float64 `yaml:"min_dt"`
	MaxDt         float64 `yaml:"max_dt"`
}

func DefaultConfig() *Config {
	tol := dynamo.DefaultAdaptive()
	return &Config{
		System:      "pendulum",
		Integrator:  "rk4",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Order:       DefaultOrder,
		RecordEvery: 1,
		Adaptive: AdaptiveSettings{
			AbsTol:       tol.AbsTol,
			RelTol:       tol.RelTol,
			SafetyFactor: tol.SafetyFactor,
			MinDt:        1e-12,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.System == "":
		return fmt.Errorf("%w: system is required", ErrInvalid)
	case c.Integrator == "":
		return fmt.Errorf("%w: integrator is required", ErrInvalid)
	case !(c.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	case !(c.Duration > 0):
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	case c.RecordEvery < 0:
		return fmt.Errorf("%w: record_every must be non-negative, got %d", ErrInvalid, c.RecordEvery)
	}
	if c.Adaptive.Enabled {
		if err := c.AdaptiveConfig().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (c *Config) AdaptiveConfig() dynamo.AdaptiveConfig {
	return dynamo.AdaptiveConfig{
		AbsTol:        c.Adaptive.AbsTol,
		RelTol:        c.Adaptive.RelTol,
		SafetyFactor:  c.Adaptive.SafetyFactor,
		MaxRejections: c.Adaptive.MaxRejections,
	}
}

// RunConfig converts the file settings into the simulator's run settings.
func (c *Config) RunConfig() dynamo.Config {
	rc := dynamo.DefaultConfig()
	rc.Dt = c.Dt
	rc.Duration = c.Duration
	rc.Seed = c.Seed
	rc.Adaptive = c.Adaptive.Enabled
	rc.Tolerances = c.AdaptiveConfig()
	rc.MinDt = c.Adaptive.MinDt
	rc.MaxDt = c.Adaptive.MaxDt
	if c.RecordEvery > 0 {
		rc.RecordEvery = c.RecordEvery
	}
	return rc
}

// InitialState returns InitState when set and fallback otherwise.
func (c *Config) InitialState(fallback dynamo.State) dynamo.State {
	if len(c.InitState) == 0 {
		return fallback.Clone()
	}
	return dynamo.State(c.InitState).Clone()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = append([]float64(nil), c.InitState...)
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

// Set assigns a numeric knob by name. Run settings (dt, duration, abs_tol,
// rel_tol, safety_factor) are recognised; any other name becomes a system
// parameter.
func (c *Config) Set(name string, v float64) {
	switch name {
	case "dt":
		c.Dt = v
	case "duration":
		c.Duration = v
	case "abs_tol":
		c.Adaptive.AbsTol = v
	case "rel_tol":
		c.Adaptive.RelTol = v
	case "safety_factor":
		c.Adaptive.SafetyFactor = v
	default:
		if c.Params == nil {
			c.Params = make(map[string]float64)
		}
		c.Params[name] = v
	}
}
