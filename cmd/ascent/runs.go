package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/ascent/internal/analysis"
	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/experiment"
	"github.com/san-kum/ascent/internal/recorder"
	"github.com/san-kum/ascent/internal/storage"
	"github.com/san-kum/ascent/internal/viz"
)

const maxPlotVars = 6

func openStore() *storage.Store {
	st := storage.New(dataDir)
	st.SetLogger(newLogger())
	return st
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := openStore().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tINTEGRATOR\tFORM\tDT\tDURATION\tSTEPS\tREJECTED\tTIMESTAMP")
	for _, r := range runs {
		form := "direct"
		if r.Modular {
			form = "modular"
		}
		if r.Adaptive {
			form += "+adaptive"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4g\t%.1f\t%d\t%d\t%s\n",
			r.ID, r.System, r.Integrator, form, r.Dt, r.Duration, r.Steps, r.Rejected,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("run %s has no states", runID)
	}

	fmt.Printf("run: %s (%s, %s)\n\n", runID, meta.System, meta.Integrator)
	nvars := min(len(states[0]), maxPlotVars)
	for v := 0; v < nvars; v++ {
		fmt.Println(asciigraph.Plot(column(states, v),
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("x[%d]", v))))
		fmt.Println()
	}
	return nil
}

func column(states [][]float64, i int) []float64 {
	out := make([]float64, len(states))
	for k, s := range states {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]
	states, _, err := openStore().LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("run %s has no states", runID)
	}
	dim := len(states[0])
	if xAxis < 0 || xAxis >= dim || yAxis < 0 || yAxis >= dim {
		return fmt.Errorf("axis out of range: state has %d components", dim)
	}

	b := viz.NewBounds()
	for _, s := range states {
		b.Fit(s[xAxis], s[yAxis])
	}
	c := viz.NewCanvas(60, 20)
	w, h := c.Pixels()
	px, py := b.Project(states[0][xAxis], states[0][yAxis], w, h)
	for _, s := range states[1:] {
		nx, ny := b.Project(s[xAxis], s[yAxis], w, h)
		c.DrawLine(px, py, nx, ny)
		px, py = nx, ny
	}

	fmt.Printf("phase portrait: x[%d] vs x[%d] (%s)\n\n", xAxis, yAxis, runID)
	fmt.Println(c.String())
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("run %s has too few samples", runID)
	}

	// adaptive runs are unevenly spaced; the mean spacing is close enough
	// for a frequency estimate
	spacing := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	fmt.Printf("analysis of %s (%s, %s)\n\n", runID, meta.System, meta.Integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VAR\tMIN\tMAX\tMEAN\tFREQ")
	for v := 0; v < min(len(states[0]), maxPlotVars); v++ {
		col := column(states, v)
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, x := range col {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
			sum += x
		}
		fmt.Fprintf(w, "x[%d]\t%.4g\t%.4g\t%.4g\t%.4g\n", v, lo, hi, sum/float64(len(col)), analysis.DominantFrequency(col, spacing))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	spectrum := analysis.PowerSpectrum(column(states, 0))
	if len(spectrum) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(spectrum[1:],
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("power spectrum of x[0]")))
	}

	if len(meta.Metrics) > 0 {
		fmt.Println("\nstored metrics:")
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6g\n", name, meta.Metrics[name])
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	states, times, err := openStore().LoadStates(args[0])
	if err != nil {
		return err
	}

	rec := recorder.New()
	titles := []string{"time"}
	if len(states) > 0 {
		for i := range states[0] {
			titles = append(titles, fmt.Sprintf("x%d", i))
		}
	}
	for i, s := range states {
		rec.Push(times[i])
		if err := rec.Add(s...); err != nil {
			return err
		}
	}
	return rec.CSV(os.Stdout, titles...)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := openStore()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &dynamo.Result{
		States:     make([]dynamo.State, len(states)),
		Times:      times,
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
	}
	for i, s := range states {
		result.States[i] = s
	}
	if meta.Adaptive {
		result.Stats = dynamo.AdaptiveStats{Accepted: meta.Accepted, Rejected: meta.Rejected}
	}

	data := storage.NewExport(meta.System, meta.Integrator, meta.Dt, meta.Duration, result)
	if outPath != "" {
		if err := storage.ExportJSON(outPath, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outPath)
		return nil
	}
	return storage.ExportJSONStdout(data)
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("systems with presets:")
		for _, s := range config.Systems() {
			fmt.Printf("  %s\n", s)
		}
		return nil
	}

	names := config.ListPresets(args[0])
	if len(names) == 0 {
		return fmt.Errorf("no presets for %s", args[0])
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, name := range names {
		cfg := config.GetPreset(args[0], name)
		form := cfg.Integrator
		if cfg.Modular {
			form += " (modular)"
		}
		fmt.Printf("  %-10s %s dt=%.4g duration=%.1f\n", name, form, cfg.Dt, cfg.Duration)
	}
	return nil
}

func listSystems(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	section := func(title string, names []string) {
		fmt.Printf("%s:\n  %s\n", title, strings.Join(names, ", "))
	}
	section("direct systems", reg.ListModels())
	section("direct integrators", reg.ListIntegrators())
	section("modular setups", reg.ListSetups())
	section("modular integrators", reg.ListModularIntegrators())
	return nil
}
