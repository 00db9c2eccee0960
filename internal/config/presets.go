package config

import "sort"

var Presets = map[string]map[string]*Config{
	"airy": {
		"reference": {
			System: "airy", Integrator: "rk4", Dt: 0.001, Duration: 10.0,
		},
		"adaptive": {
			System: "airy", Integrator: "dopri45", Dt: 0.01, Duration: 10.0,
			Adaptive: AdaptiveSettings{Enabled: true, AbsTol: 1e-10, RelTol: 1e-10, SafetyFactor: 0.9},
		},
	},
	"exponential": {
		"modular": {
			System: "exponential", Integrator: "vabm", Modular: true, Order: 6, Dt: 0.001, Duration: 5.0,
			Adaptive: AdaptiveSettings{Enabled: true, AbsTol: 1e-10, RelTol: 1e-10, SafetyFactor: 0.9},
		},
	},
	"pendulum": {
		"small": {
			System: "pendulum", Integrator: "rk4", Dt: 0.01, Duration: 20.0,
			InitState: []float64{0.2, 0.0},
		},
		"large": {
			System: "pendulum", Integrator: "rk4", Dt: 0.01, Duration: 20.0,
			InitState: []float64{2.5, 0.0},
		},
		"spinning": {
			System: "pendulum", Integrator: "ralston4", Dt: 0.01, Duration: 30.0,
			InitState: []float64{0.1, 8.0},
		},
	},
	"double_pendulum": {
		"symmetric": {
			System: "double_pendulum", Integrator: "rk4", Dt: 0.005, Duration: 30.0,
			InitState: []float64{1.5, 1.5, 0.0, 0.0},
		},
		"chaos": {
			System: "double_pendulum", Integrator: "dopri45", Dt: 0.005, Duration: 60.0,
			InitState: []float64{3.0, 3.0, 0.0, 0.0},
			Adaptive:  AdaptiveSettings{Enabled: true, AbsTol: 1e-9, RelTol: 1e-9, SafetyFactor: 0.9},
		},
		"gentle": {
			System: "double_pendulum", Integrator: "abm4", Dt: 0.01, Duration: 30.0,
			InitState: []float64{0.3, 0.3, 0.0, 0.0},
		},
	},
	"lorenz": {
		"classic": {
			System: "lorenz", Integrator: "rk4", Dt: 0.01, Duration: 40.0,
		},
		"tight": {
			System: "lorenz", Integrator: "dopri45", Dt: 0.01, Duration: 40.0,
			Adaptive: AdaptiveSettings{Enabled: true, AbsTol: 1e-8, RelTol: 1e-8, SafetyFactor: 0.9, MaxRejections: 50},
		},
	},
	"spring_damper": {
		"direct": {
			System: "spring_damper", Integrator: "rk4", Dt: 0.01, Duration: 1.5,
		},
		"modular": {
			System: "spring_damper", Integrator: "rk4", Modular: true, Dt: 0.01, Duration: 1.5,
		},
	},
	"nbody": {
		"ring": {
			System: "nbody", Integrator: "leapfrog", Dt: 0.001, Duration: 20.0,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}

	out := DefaultConfig()
	out.System = cfg.System
	out.Integrator = cfg.Integrator
	out.Modular = cfg.Modular
	out.Dt = cfg.Dt
	out.Duration = cfg.Duration
	if cfg.Order > 0 {
		out.Order = cfg.Order
	}
	out.InitState = append([]float64(nil), cfg.InitState...)
	if cfg.Adaptive.Enabled {
		out.Adaptive = cfg.Adaptive
		out.Adaptive.MinDt = DefaultConfig().Adaptive.MinDt
	}
	return out
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Systems lists every system that has presets.
func Systems() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
