package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/ascent/internal/analysis"
	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/experiment"
	"github.com/san-kum/ascent/internal/logging"
	"github.com/san-kum/ascent/internal/models"
	"github.com/san-kum/ascent/internal/storage"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()

	st := storage.New(dataDir)
	st.SetLogger(logging.Component(logger, "storage"))
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(logging.Component(logger, "sim"))

	form := "direct"
	if cfg.Modular {
		form = "modular"
	}
	fmt.Printf("running %s (%s, %s)...\n", cfg.System, cfg.Integrator, form)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		System:     cfg.System,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Modular:    cfg.Modular,
		Adaptive:   cfg.Adaptive.Enabled,
	}, result)
	if err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if cfg.Adaptive.Enabled {
		fmt.Printf("accepted: %d  rejected: %d  evaluations: %d\n", result.Stats.Accepted, result.Stats.Rejected, result.Stats.Evaluations)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func watchSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	model, err := experiment.New(cfg, experiment.NewRegistry()).Watch()
	if err != nil {
		return err
	}
	model = model.WithStepsPerFrame(stepsFPS).WithTheme(theme)

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()

	fmt.Printf("comparing integrators for %s (dt=%.4g, duration=%.1fs)\n\n", base.System, base.Dt, base.Duration)
	fmt.Printf("%-12s  %12s  %12s  %8s  %8s  %10s\n", "integrator", "final_x0", "energy_drift", "steps", "rejected", "time_ms")
	fmt.Println(strings.Repeat("-", 72))

	for _, name := range args[1:] {
		cfg := *base
		cfg.Integrator = name

		start := time.Now()
		result, err := experiment.New(&cfg, reg).Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		finalX0 := math.NaN()
		if n := len(result.States); n > 0 && len(result.States[n-1]) > 0 {
			finalX0 = result.States[n-1][0]
		}
		fmt.Printf("%-12s  %12.6f  %12.2e  %8d  %8d  %10.2f\n",
			name, finalX0, result.EnergyDrift, result.StepsTaken, result.Stats.Rejected, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func benchSystem(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()

	fmt.Printf("benchmarking %s with %s\n\n", base.System, base.Integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range []float64{1.0, 5.0, 10.0} {
		for _, h := range []float64{0.001, 0.01, 0.1} {
			cfg := *base
			cfg.Dt = h
			cfg.Duration = dur

			start := time.Now()
			result, err := experiment.New(&cfg, reg).Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, h, result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds())
		}
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(logging.Component(newLogger(), "ensemble"))

	start := time.Now()
	results, err := exp.Ensemble(context.Background(), runs, perturb)
	if err != nil {
		return err
	}

	finals := make([]float64, 0, len(results))
	for _, r := range results {
		if n := len(r.States); n > 0 && len(r.States[n-1]) > 0 {
			finals = append(finals, r.States[n-1][0])
		}
	}
	mean, std := meanStd(finals)

	fmt.Printf("%d runs of %s in %v (perturbation %.2g)\n", len(results), cfg.System, time.Since(start), perturb)
	fmt.Printf("final x0: mean %.6g  std %.3g\n", mean, std)
	return nil
}

func meanStd(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	variance := 0.0
	for _, x := range v {
		variance += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(variance / float64(len(v)))
}

func configuredModel(reg *experiment.Registry, cfg *config.Config) (models.Model, error) {
	m, err := reg.GetModel(cfg.System)
	if err != nil {
		return nil, err
	}
	if len(cfg.Params) > 0 {
		c, ok := m.(models.Configurable)
		if !ok {
			return nil, fmt.Errorf("%s takes no parameters", cfg.System)
		}
		for name, v := range cfg.Params {
			if err := c.SetParam(name, v); err != nil {
				return nil, err
			}
		}
	}
	if len(cfg.InitState) > 0 && len(cfg.InitState) != m.Dim() {
		return nil, fmt.Errorf("%w: init state has %d values, %s needs %d", dynamo.ErrDimensionMismatch, len(cfg.InitState), cfg.System, m.Dim())
	}
	return m, nil
}

// stepperFactory checks name once and returns a constructor for it.
func stepperFactory(reg *experiment.Registry, name string) (func() dynamo.Stepper[float64], error) {
	if _, err := reg.GetIntegrator(name); err != nil {
		return nil, err
	}
	return func() dynamo.Stepper[float64] {
		st, _ := reg.GetIntegrator(name)
		return st
	}, nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	m, err := configuredModel(reg, cfg)
	if err != nil {
		return err
	}
	newStepper, err := stepperFactory(reg, cfg.Integrator)
	if err != nil {
		return err
	}

	x0 := cfg.InitialState(m.DefaultState())
	spectrum := analysis.LyapunovSpectrum(m, newStepper, x0, cfg.Dt, cfg.Duration, 1e-8)
	largest := math.Inf(-1)
	for _, v := range spectrum {
		largest = math.Max(largest, v)
	}

	fmt.Printf("lyapunov estimate for %s (%s, dt=%.4g, duration=%.1fs)\n", cfg.System, cfg.Integrator, cfg.Dt, cfg.Duration)
	for i, v := range spectrum {
		fmt.Printf("  perturb x%d: %+.4f\n", i, v)
	}
	verdict := "regular"
	if largest > 0.01 {
		verdict = "chaotic"
	}
	fmt.Printf("largest: %+.4f (%s)\n", largest, verdict)
	return nil
}

func convergenceOrder(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	m, err := configuredModel(reg, cfg)
	if err != nil {
		return err
	}
	newStepper, err := stepperFactory(reg, cfg.Integrator)
	if err != nil {
		return err
	}

	dts := []float64{cfg.Dt, cfg.Dt / 2, cfg.Dt / 4, cfg.Dt / 8}
	x0 := cfg.InitialState(m.DefaultState())

	// reference: RK4 at a sixteenth of the finest step
	exact := x0.Clone()
	rk4, err := reg.GetIntegrator("rk4")
	if err != nil {
		return err
	}
	t, h := 0.0, dts[len(dts)-1]/16
	for n := int(math.Round(cfg.Duration / h)); n > 0; n-- {
		rk4.Step(m, exact, &t, h)
	}

	c := analysis.MeasureConvergence(m, newStepper, x0, exact, cfg.Duration, dts)
	fmt.Printf("convergence of %s on %s to t=%.3g\n\n", cfg.Integrator, cfg.System, cfg.Duration)
	fmt.Printf("%12s  %12s\n", "dt", "error")
	for i, h := range c.Dts {
		fmt.Printf("%12.4g  %12.3e\n", h, c.Errors[i])
	}
	p, err := c.Order()
	if err != nil {
		return err
	}
	fmt.Printf("\nobserved order: %.2f\n", p)
	return nil
}
