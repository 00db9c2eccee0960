package integrators

import "golang.org/x/exp/constraints"

// grow returns buf resized to n, reallocating only when capacity is short.
func grow[T constraints.Float](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}

func abs[T constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
