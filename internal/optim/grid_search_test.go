package optim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ascent/internal/config"
	"github.com/san-kum/ascent/internal/experiment"
)

func pendulum() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Duration = 2
	cfg.Params = map[string]float64{"damping": 0}
	return cfg
}

func TestParseAxes(t *testing.T) {
	g, err := ParseAxes(map[string][]float64{"dt": {0.1, 0.01}, "damping": {0, 0.1, 0.2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"damping", "dt"}, g.paramNames)
	assert.Equal(t, 6, g.Size())

	_, err = ParseAxes(map[string][]float64{"dt": nil})
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestSearchSmallestDriftWins(t *testing.T) {
	g := NewGridSearch([]string{"dt"}, [][]float64{{0.1, 0.05, 0.01}})
	best, all, err := g.Search(context.Background(), experiment.NewRegistry(), pendulum(), MetricCost("energy_drift", 0))
	require.NoError(t, err)

	assert.Len(t, all, 3)
	assert.Equal(t, 0.01, best.Params["dt"])
	for _, p := range all {
		assert.NoError(t, p.Err)
		assert.GreaterOrEqual(t, p.Cost, best.Cost)
	}
}

func TestSearchPenaltyPrefersFewerSteps(t *testing.T) {
	g := NewGridSearch([]string{"dt"}, [][]float64{{0.1, 0.01}})
	best, _, err := g.Search(context.Background(), experiment.NewRegistry(), pendulum(), MetricCost("energy_drift", 1))
	require.NoError(t, err)
	assert.Equal(t, 0.1, best.Params["dt"])
}

func TestSearchRecordsFailures(t *testing.T) {
	g := NewGridSearch([]string{"bogus"}, [][]float64{{1}})
	_, all, err := g.Search(context.Background(), experiment.NewRegistry(), pendulum(), MetricCost("energy_drift", 0))
	assert.ErrorIs(t, err, ErrNoCandidates)
	require.Len(t, all, 1)
	assert.Error(t, all[0].Err)
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"dt"}, [][]float64{{0.1}})
	_, _, err := g.Search(ctx, experiment.NewRegistry(), pendulum(), MetricCost("energy_drift", 0))
	assert.ErrorIs(t, err, context.Canceled)
}
