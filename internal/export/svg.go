// Package export renders stored trajectories as standalone SVG documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/ascent/internal/viz"
)

var (
	ErrTooFewPoints = errors.New("export: need at least two samples")
	ErrAxis         = errors.New("export: component out of range")
)

// Options sets the document size and colours. Palette is cycled across
// the curves of a time series.
type Options struct {
	Width, Height int
	Background    string
	Palette       []string
}

// ThemeOptions takes the colours of a live view theme.
func ThemeOptions(t viz.Theme) Options {
	return Options{
		Width:      800,
		Height:     600,
		Background: "#0a0a0a",
		Palette:    []string{string(t.Primary), string(t.Accent), string(t.Good), string(t.Warn), string(t.Bad), string(t.Text)},
	}
}

func (o Options) colour(i int) string {
	if len(o.Palette) == 0 {
		return "#00ff00"
	}
	return o.Palette[i%len(o.Palette)]
}

func header(sb *strings.Builder, o Options) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, o.Width, o.Height, o.Width, o.Height, o.Background)
}

// path appends one polyline. Points outside the bounds (NaN, Inf) break
// the line.
func path(sb *strings.Builder, b viz.Bounds, xs, ys []float64, o Options, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	move := true
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			move = true
			continue
		}
		px, py := b.Project(xs[i], ys[i], o.Width, o.Height)
		if move {
			fmt.Fprintf(sb, "M%d,%d", px, py)
			move = false
		} else {
			fmt.Fprintf(sb, " L%d,%d", px, py)
		}
	}
	sb.WriteString("\"/>\n")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Phase writes component yi against component xi.
func Phase(w io.Writer, states [][]float64, xi, yi int, o Options) error {
	if len(states) < 2 {
		return ErrTooFewPoints
	}
	dim := len(states[0])
	if xi < 0 || xi >= dim || yi < 0 || yi >= dim {
		return fmt.Errorf("%w: state has %d components", ErrAxis, dim)
	}

	xs, ys := make([]float64, len(states)), make([]float64, len(states))
	b := viz.NewBounds()
	for i, s := range states {
		xs[i], ys[i] = s[xi], s[yi]
		b.Fit(xs[i], ys[i])
	}

	var sb strings.Builder
	header(&sb, o)
	path(&sb, b, xs, ys, o, o.colour(0))
	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Series writes the listed components against time on shared axes.
func Series(w io.Writer, times []float64, states [][]float64, vars []int, o Options) error {
	if len(states) < 2 || len(times) != len(states) {
		return ErrTooFewPoints
	}
	dim := len(states[0])
	b := viz.NewBounds()
	for _, v := range vars {
		if v < 0 || v >= dim {
			return fmt.Errorf("%w: state has %d components", ErrAxis, dim)
		}
		for i, s := range states {
			b.Fit(times[i], s[v])
		}
	}

	var sb strings.Builder
	header(&sb, o)
	ys := make([]float64, len(states))
	for k, v := range vars {
		for i, s := range states {
			ys[i] = s[v]
		}
		path(&sb, b, times, ys, o, o.colour(k))
	}
	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Canvas writes every lit braille dot as a circle of the given scale.
func Canvas(w io.Writer, c *viz.Canvas, scale float64, o Options) error {
	pw, ph := c.Pixels()
	o.Width, o.Height = int(float64(pw)*scale), int(float64(ph)*scale)

	var sb strings.Builder
	header(&sb, o)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", o.colour(0))
	r := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
