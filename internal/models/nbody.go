package models

import (
	"math"

	"github.com/san-kum/ascent/internal/dynamo"
)

// NBody is planar gravity. Each body occupies [x, y, vx, vy].
type NBody struct {
	NumBodies int
	Masses    []float64
	G         float64
	// Softening keeps close encounters finite.
	Softening float64
}

func NewNBody(n int) *NBody {
	masses := make([]float64, n)
	for i := range masses {
		masses[i] = 1.0
	}
	return &NBody{
		NumBodies: n,
		Masses:    masses,
		G:         1.0,
		Softening: 1e-6,
	}
}

func (nb *NBody) Dim() int { return nb.NumBodies * 4 }

// DefaultState places the bodies on a unit ring with circular velocities.
func (nb *NBody) DefaultState() dynamo.State {
	n := nb.NumBodies
	x := make(dynamo.State, n*4)
	v := math.Sqrt(nb.G * float64(n) / 4)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x[i*4] = math.Cos(a)
		x[i*4+1] = math.Sin(a)
		x[i*4+2] = -v * math.Sin(a)
		x[i*4+3] = v * math.Cos(a)
	}
	return x
}

func (nb *NBody) Derive(x, dx []float64, _ float64) {
	n := nb.NumBodies
	for i := 0; i < n; i++ {
		dx[i*4] = x[i*4+2]
		dx[i*4+1] = x[i*4+3]

		ax, ay := 0.0, 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			rx := x[j*4] - x[i*4]
			ry := x[j*4+1] - x[i*4+1]
			r := math.Sqrt(rx*rx + ry*ry + nb.Softening*nb.Softening)

			f := nb.G * nb.Masses[j] / (r * r * r)
			ax += f * rx
			ay += f * ry
		}

		dx[i*4+2] = ax
		dx[i*4+3] = ay
	}
}

func (nb *NBody) Energy(x dynamo.State) float64 {
	n := nb.NumBodies
	e := 0.0
	for i := 0; i < n; i++ {
		vx, vy := x[i*4+2], x[i*4+3]
		e += 0.5 * nb.Masses[i] * (vx*vx + vy*vy)
		for j := i + 1; j < n; j++ {
			rx := x[j*4] - x[i*4]
			ry := x[j*4+1] - x[i*4+1]
			r := math.Sqrt(rx*rx + ry*ry + nb.Softening*nb.Softening)
			e -= nb.G * nb.Masses[i] * nb.Masses[j] / r
		}
	}
	return e
}
