// Package optim searches run settings and system parameters for the
// combination that minimises a result metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/experiment"
)

var (
	ErrNoCandidates = errors.New("optim: no grid point produced the metric")
	ErrEmptyGrid    = errors.New("optim: grid axis has no values")
)

// Cost reduces a finished run to the value being minimised.
type Cost func(result *dynamo.Result) (float64, bool)

// MetricCost reads a named metric. When penalty is positive the step
// count times penalty is added, which trades accuracy against work.
func MetricCost(name string, penalty float64) Cost {
	return func(r *dynamo.Result) (float64, bool) {
		v, ok := r.Metrics[name]
		if !ok || math.IsNaN(v) {
			return 0, false
		}
		return math.Abs(v) + penalty*float64(r.StepsTaken), true
	}
}

// GridSearch evaluates every combination of the axis values. Axis names
// follow config.Config.Set.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ParseAxes builds a grid from name -> values, sorted by name.
func ParseAxes(axes map[string][]float64) (*GridSearch, error) {
	names := make([]string, 0, len(axes))
	for name := range axes {
		names = append(names, name)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, name := range names {
		if len(axes[name]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyGrid, name)
		}
		ranges[i] = axes[name]
	}
	return NewGridSearch(names, ranges), nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Point is one evaluated combination. Err is set for runs that failed or
// did not yield the cost.
type Point struct {
	Params map[string]float64
	Cost   float64
	Err    error
}

// Search runs base with every grid point applied and returns the cheapest
// point together with every evaluation in grid order. Failed runs are
// recorded and skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	reg *experiment.Registry,
	base *config.Config,
	cost Cost,
) (Point, []Point, error) {
	best := Point{Cost: math.Inf(1)}
	var all []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(current map[string]float64) {
		p := Point{Params: current}
		cfg := base.Clone()
		for name, v := range current {
			cfg.Set(name, v)
		}

		result, err := experiment.New(cfg, reg).Run(ctx)
		switch {
		case err != nil:
			p.Err = err
		case len(result.Errors) > 0:
			p.Err = result.Errors[0]
		default:
			c, ok := cost(result)
			if !ok {
				p.Err = ErrNoCandidates
			} else {
				p.Cost = c
				if c < best.Cost {
					best = p
				}
			}
		}
		all = append(all, p)
	})
	if err != nil {
		return Point{}, all, err
	}
	if best.Params == nil {
		return Point{}, all, ErrNoCandidates
	}
	return best, all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
