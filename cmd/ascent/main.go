package main

import (
	"fmt"
	"os"
	"strconv"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/logging"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	saveConfig string

	dt         float64
	duration   float64
	seed       int64
	integrator string
	modularRun bool
	adaptive   bool
	absTol     float64
	relTol     float64
	maxReject  int
	order      int
	initState  []float64
	params     map[string]string

	xAxis    int
	yAxis    int
	outPath  string
	runs     int
	perturb  float64
	stepsFPS int
	theme    string

	svgSeries   bool
	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	gridAxes    map[string]string
	tuneMetric  string
	tunePenalty float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ascent",
		Short:         "ODE integration lab: direct and modular integrators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ascent", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "run simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	watchCmd := &cobra.Command{
		Use:   "watch [system]",
		Short: "step a simulation in a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchSimulation,
	}
	simFlags(watchCmd)
	watchCmd.Flags().IntVar(&stepsFPS, "steps", 1, "steps per frame")
	watchCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")

	compareCmd := &cobra.Command{
		Use:   "compare [system] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same system",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	simFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [system]",
		Short: "benchmark an integrator over several step sizes",
		Args:  cobra.ExactArgs(1),
		RunE:  benchSystem,
	}
	simFlags(benchCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [system]",
		Short: "run perturbed copies of a simulation in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	simFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of runs")
	ensembleCmd.Flags().Float64Var(&perturb, "perturb", 1e-6, "scale of the initial state perturbation")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	simFlags(lyapunovCmd)

	orderCmd := &cobra.Command{
		Use:   "order [system]",
		Short: "measure the convergence order of an integrator",
		Args:  cobra.MaximumNArgs(1),
		RunE:  convergenceOrder,
	}
	simFlags(orderCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of x0",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	exportSVGCmd.Flags().BoolVar(&svgSeries, "series", false, "plot components against time instead of a phase portrait")
	exportSVGCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario and store the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "sweep one parameter or run setting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "name", "", "parameter or run setting to vary")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 11, "number of values")
	_ = sweepCmd.MarkFlagRequired("name")

	tuneCmd := &cobra.Command{
		Use:   "tune [system]",
		Short: "grid search for the settings minimising a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneSystem,
	}
	simFlags(tuneCmd)
	tuneCmd.Flags().StringToStringVar(&gridAxes, "grid", nil, "axis values, e.g. dt=0.1:0.05:0.01")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimise")
	tuneCmd.Flags().Float64Var(&tunePenalty, "step-penalty", 0, "cost added per step taken")
	_ = tuneCmd.MarkFlagRequired("grid")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list systems and integrators",
		RunE:  listSystems,
	}

	rootCmd.AddCommand(runCmd, watchCmd, compareCmd, benchCmd, ensembleCmd, lyapunovCmd, orderCmd,
		listCmd, plotCmd, phaseCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		scenarioCmd, sweepCmd, tuneCmd, presetsCmd, systemsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func simFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.BoolVar(&modularRun, "modular", false, "use the modular form of the system")
	f.BoolVar(&adaptive, "adaptive", false, "adaptive step size control")
	f.Float64Var(&absTol, "abs-tol", 1e-8, "absolute tolerance (adaptive)")
	f.Float64Var(&relTol, "rel-tol", 1e-8, "relative tolerance (adaptive)")
	f.IntVar(&maxReject, "max-rejections", 0, "rejections allowed per step, 0 for unbounded")
	f.IntVar(&order, "order", config.DefaultOrder, "vabm order")
	f.Float64SliceVar(&initState, "init", nil, "initial state")
	f.StringToStringVar(&params, "param", nil, "system parameter name=value")
}

// resolveConfig layers defaults, a preset, a config file and finally the
// flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.System = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.System, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.System))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.System = args[0]
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("modular") {
		cfg.Modular = modularRun
	}
	if f.Changed("adaptive") {
		cfg.Adaptive.Enabled = adaptive
	}
	if f.Changed("abs-tol") {
		cfg.Adaptive.AbsTol = absTol
	}
	if f.Changed("rel-tol") {
		cfg.Adaptive.RelTol = relTol
	}
	if f.Changed("max-rejections") {
		cfg.Adaptive.MaxRejections = maxReject
	}
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("init") {
		cfg.InitState = initState
	}
	if f.Changed("param") {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for name, raw := range params {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", name, err)
			}
			cfg.Params[name] = v
		}
	}

	return cfg, cfg.Validate()
}

func newLogger() kitlog.Logger {
	return logging.New(os.Stderr, verbose)
}
