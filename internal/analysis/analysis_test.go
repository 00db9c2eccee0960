package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ascent/internal/dynamo"
	"github.com/san-kum/ascent/internal/integrators"
	"github.com/san-kum/ascent/internal/models"
)

func newRK4() dynamo.Stepper[float64]   { return integrators.NewRK4[float64]() }
func newEuler() dynamo.Stepper[float64] { return integrators.NewEuler[float64]() }

func TestFFT(t *testing.T) {
	_, err := FFT([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	out, err := FFT([]float64{1, 0, 0, 0})
	require.NoError(t, err)
	for _, c := range out {
		assert.InDelta(t, 1.0, real(c), 1e-12)
		assert.InDelta(t, 0.0, imag(c), 1e-12)
	}
}

func TestDominantFrequency(t *testing.T) {
	const dt = 1.0 / 64
	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = 3 + math.Sin(2*math.Pi*2*float64(i)*dt)
	}
	assert.InDelta(t, 2.0, DominantFrequency(samples, dt), 1e-9)
	assert.Equal(t, 0.0, DominantFrequency(samples[:1], dt))
	assert.Len(t, PowerSpectrum(samples[:100]), 64)
}

func TestLyapunovLorenzIsChaotic(t *testing.T) {
	l := models.NewLorenz()
	lambda := LyapunovExponent(l, newRK4, l.DefaultState(), 0.01, 50, 1e-8)
	assert.Greater(t, lambda, 0.3)
	assert.Less(t, lambda, 2.0)
}

func TestLyapunovDecay(t *testing.T) {
	e := models.NewExponential()
	e.Rate = -1
	lambda := LyapunovExponent(e, newRK4, dynamo.State{1}, 0.01, 10, 1e-8)
	assert.InDelta(t, -1.0, lambda, 1e-4)
}

func TestLyapunovSpectrumOscillator(t *testing.T) {
	o := models.NewOscillator()
	spectrum := LyapunovSpectrum(o, newRK4, o.DefaultState(), 0.01, 10, 1e-8)
	require.Len(t, spectrum, 2)
	for _, v := range spectrum {
		assert.InDelta(t, 0.0, v, 1e-3)
	}
	assert.Equal(t, 0.0, LyapunovExponent(o, newRK4, dynamo.State{}, 0.01, 1, 1e-8))
}

func TestConvergenceOrder(t *testing.T) {
	sys := models.NewExponential()
	exact := dynamo.State{math.E}

	rk4 := MeasureConvergence(sys, newRK4, dynamo.State{1}, exact, 1, []float64{0.1, 0.05, 0.025})
	order, err := rk4.Order()
	require.NoError(t, err)
	assert.InDelta(t, 4.0, order, 0.2)

	euler := MeasureConvergence(sys, newEuler, dynamo.State{1}, exact, 1, []float64{0.01, 0.005, 0.0025})
	order, err = euler.Order()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, order, 0.05)
}

func TestConvergenceTooFewSteps(t *testing.T) {
	_, err := Convergence{Dts: []float64{0.1}, Errors: []float64{1e-3}}.Order()
	assert.ErrorIs(t, err, ErrTooFewSteps)
}
