// Package easing converts a segment's easing bias into a time-warping
// function over a normalized fraction. A bias of 0.5 is linear; values
// above blend toward an exponential ease-out, values below toward an
// exponential ease-in. Both ease formulas are exact at the endpoints, so
// segment boundaries are preserved for any bias.
package easing

import "math"

// expOut is the exponential ease-out curve. Exact at t == 1.
func expOut(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

// expIn is the exponential ease-in curve. Exact at t == 0.
func expIn(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}

// Warp maps a normalized fraction in [0,1] through the easing curve
// selected by bias in [0,1]. The result is clamped to [0,1].
func Warp(fraction, bias float64) float64 {
	var out float64
	switch {
	case bias == 0.5:
		out = fraction
	case bias > 0.5:
		w := (bias - 0.5) * 2
		out = fraction + w*(expOut(fraction)-fraction)
	default:
		w := (0.5 - bias) * 2
		out = fraction + w*(expIn(fraction)-fraction)
	}

	if out < 0 {
		return 0
	}
	if out > 1 {
		return 1
	}
	return out
}

// WarpAll applies Warp to every fraction with a shared bias, writing into
// a new slice. It holds no state between elements, so recomputes over
// thousands of samples stay a single flat pass.
func WarpAll(fractions []float64, bias float64) []float64 {
	out := make([]float64, len(fractions))
	for i, f := range fractions {
		out[i] = Warp(f, bias)
	}
	return out
}
