package analysis

import (
	"errors"
	"math"
	"math/cmplx"
)

var ErrNotPowerOfTwo = errors.New("analysis: fft length must be a power of two")

// FFT is a recursive radix-2 transform.
func FFT(data []float64) ([]complex128, error) {
	n := len(data)
	if n&(n-1) != 0 {
		return nil, ErrNotPowerOfTwo
	}
	in := make([]complex128, n)
	for i, v := range data {
		in[i] = complex(v, 0)
	}
	return fft(in), nil
}

func fft(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		return data
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum zero-pads data to a power of two and returns the magnitude
// of the non-negative frequency bins.
func PowerSpectrum(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)

	spectrum, _ := FFT(padded)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// of samples taken every dt. The mean is removed first.
func DominantFrequency(samples []float64, dt float64) float64 {
	if len(samples) < 2 || !(dt > 0) {
		return 0
	}
	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))

	centred := make([]float64, len(samples))
	for i, v := range samples {
		centred[i] = v - mean
	}

	ps := PowerSpectrum(centred)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	n := 2 * len(ps)
	return float64(best) / (float64(n) * dt)
}
