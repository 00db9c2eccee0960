// Package automation runs scripted batches of experiments: scenarios read
// from YAML and one-dimensional parameter sweeps.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/experiment"
	"github.com/san-kum/ascent/internal/storage"
)

var ErrEmptySweep = errors.New("automation: sweep needs at least two points")

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. It starts from the defaults, or from a
// preset when one is named, and the remaining keys override the start.
type Step struct {
	Label  string
	Preset string
	Config *config.Config
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Label  string `yaml:"label"`
		Preset string `yaml:"preset"`
		System string `yaml:"system"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		system := head.System
		if system == "" {
			system = cfg.System
		}
		cfg = config.GetPreset(system, head.Preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset %s for %s", head.Preset, system)
		}
	}
	if err := n.Decode(cfg); err != nil {
		return err
	}

	s.Label, s.Preset, s.Config = head.Label, head.Preset, cfg
	if s.Label == "" {
		s.Label = cfg.System + "/" + cfg.Integrator
	}
	return nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("automation: parse scenario: %w", err)
	}
	return &sc, nil
}

// Outcome is the result of one scenario step. RunID is empty when the
// runner has no store.
type Outcome struct {
	Label  string
	RunID  string
	Result *dynamo.Result
}

type Runner struct {
	reg    *experiment.Registry
	store  *storage.Store
	logger kitlog.Logger

	// Limit bounds concurrent sweep points; zero or less means no limit.
	Limit int
}

// NewRunner returns a runner saving scenario results into store, which may
// be nil.
func NewRunner(reg *experiment.Registry, store *storage.Store) *Runner {
	return &Runner{reg: reg, store: store, logger: kitlog.NewNopLogger()}
}

func (r *Runner) SetLogger(l kitlog.Logger) { r.logger = l }

// RunScenario runs the steps in order and stops at the first failure,
// returning the outcomes completed so far.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		level.Info(r.logger).Log("msg", "scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Steps), "label", step.Label)

		cfg := step.Config
		exp := experiment.New(cfg, r.reg)
		exp.SetLogger(r.logger)
		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Label, err)
		}

		out := Outcome{Label: step.Label, Result: result}
		if r.store != nil {
			out.RunID, err = r.store.Save(storage.RunMetadata{
				System:     cfg.System,
				Seed:       cfg.Seed,
				Dt:         cfg.Dt,
				Duration:   cfg.Duration,
				Integrator: cfg.Integrator,
				Modular:    cfg.Modular,
				Adaptive:   cfg.Adaptive.Enabled,
			}, result)
			if err != nil {
				return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Label, err)
			}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Sweep varies one knob (see config.Config.Set) linearly over Points
// values from From to To.
type Sweep struct {
	Base   *config.Config
	Param  string
	From   float64
	To     float64
	Points int
}

type SweepPoint struct {
	Value   float64
	Final   dynamo.State
	Steps   int
	Metrics map[string]float64
}

// RunSweep runs every point of the sweep in parallel and returns them in
// sweep order.
func (r *Runner) RunSweep(ctx context.Context, sw Sweep) ([]SweepPoint, error) {
	if sw.Points < 2 {
		return nil, ErrEmptySweep
	}
	points := make([]SweepPoint, sw.Points)
	step := (sw.To - sw.From) / float64(sw.Points-1)

	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	for i := range points {
		idx := i
		g.Go(func() error {
			value := sw.From + float64(idx)*step
			cfg := sw.Base.Clone()
			cfg.Set(sw.Param, value)

			result, err := experiment.New(cfg, r.reg).Run(ctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sw.Param, value, err)
			}

			p := SweepPoint{Value: value, Steps: result.StepsTaken, Metrics: result.Metrics}
			if n := len(result.States); n > 0 {
				p.Final = result.States[n-1]
			}
			points[idx] = p
			level.Debug(r.logger).Log("msg", "sweep point", "param", sw.Param, "value", value, "steps", p.Steps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
