package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/ascent/internal/automation"
	"github.com/san-kum/ascent/internal/experiment"
	"github.com/san-kum/ascent/internal/export"
	"github.com/san-kum/ascent/internal/logging"
	"github.com/san-kum/ascent/internal/optim"
	"github.com/san-kum/ascent/internal/viz"
)

func exportSVG(cmd *cobra.Command, args []string) error {
	states, times, err := openStore().LoadStates(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	opts := export.ThemeOptions(viz.GetTheme(theme))
	if svgSeries {
		vars := make([]int, 0, maxPlotVars)
		for i := 0; len(states) > 0 && i < min(len(states[0]), maxPlotVars); i++ {
			vars = append(vars, i)
		}
		err = export.Series(out, times, states, vars, opts)
	} else {
		err = export.Phase(out, states, xAxis, yAxis, opts)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported to %s\n", outPath)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger := newLogger()
	st := openStore()
	if err := st.Init(); err != nil {
		return err
	}

	runner := automation.NewRunner(experiment.NewRegistry(), st)
	runner.SetLogger(logging.Component(logger, "scenario"))

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	outcomes, err := runner.RunScenario(context.Background(), sc)
	for _, o := range outcomes {
		fmt.Printf("  %-30s %s (%d steps)\n", o.Label, o.RunID, o.Result.StepsTaken)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	runner := automation.NewRunner(experiment.NewRegistry(), nil)
	runner.SetLogger(logging.Component(newLogger(), "sweep"))

	points, err := runner.RunSweep(context.Background(), automation.Sweep{
		Base:   cfg,
		Param:  sweepParam,
		From:   sweepFrom,
		To:     sweepTo,
		Points: sweepPoints,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_X0\tSTEPS\tENERGY_DRIFT\n", strings.ToUpper(sweepParam))
	for _, p := range points {
		x0 := 0.0
		if len(p.Final) > 0 {
			x0 = p.Final[0]
		}
		fmt.Fprintf(w, "%.4g\t%.6g\t%d\t%.3e\n", p.Value, x0, p.Steps, p.Metrics["energy_drift"])
	}
	return w.Flush()
}

// parseGrid reads axis specs of the form name=v1:v2:v3.
func parseGrid(raw map[string]string) (*optim.GridSearch, error) {
	axes := make(map[string][]float64, len(raw))
	for name, values := range raw {
		for _, field := range strings.Split(values, ":") {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("grid %s: %w", name, err)
			}
			axes[name] = append(axes[name], v)
		}
	}
	return optim.ParseAxes(axes)
}

func tuneSystem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	g, err := parseGrid(gridAxes)
	if err != nil {
		return err
	}

	fmt.Printf("searching %d grid points on %s for minimal %s\n\n", g.Size(), cfg.System, tuneMetric)
	best, all, err := g.Search(context.Background(), experiment.NewRegistry(), cfg, optim.MetricCost(tuneMetric, tunePenalty))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tCOST")
	for _, p := range all {
		if p.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", formatPoint(p.Params), p.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.4e\n", formatPoint(p.Params), p.Cost)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: %s (cost %.4e)\n", formatPoint(best.Params), best.Cost)
	return nil
}

func formatPoint(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for name, v := range params {
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
