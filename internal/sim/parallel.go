package sim

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ascent/internal/dynamo"
)

// Ensemble runs independent simulations in parallel. Integrators keep
// scratch state, so every run gets its own Simulator from factory.
type Ensemble struct {
	factory   func() *Simulator
	numRuns   int
	seedStart int64

	// Perturb scales a seeded normal perturbation added to x0 per run.
	Perturb float64
	// Limit bounds concurrent runs; zero or less means no limit.
	Limit int
}

func NewEnsemble(factory func() *Simulator, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per run in run order. The first failing run
// cancels the others.
func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.Limit > 0 {
		g.SetLimit(e.Limit)
	}

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			x := x0.Clone()
			if e.Perturb != 0 {
				rng := rand.New(rand.NewSource(cfgCopy.Seed))
				for j := range x {
					x[j] += e.Perturb * rng.NormFloat64()
				}
			}

			res, err := e.factory().Run(ctx, x, cfgCopy)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
