package kpm

import "math"

// domainEpsilon keeps clamped Chebyshev coordinates strictly inside the
// open interval (-1, 1) so the 1/sqrt(1-x^2) density factor never divides
// by zero.
const domainEpsilon = 1e-10

// reconstructDensity evaluates the damped moment expansion as a spectral
// density on the caller's energy grid:
//
//	rho(E) = 2/(pi·a·sqrt(1-x^2)) · sum_n g_n·mu_n·cos(n·arccos x)
//
// with x = (E-b)/a and mu_0 stored pre-halved. The Chebyshev sum runs
// through the T_n three-term recurrence on the scalar x, O(N) per grid
// point and numerically stable. Energies outside the expansion domain carry
// no spectral weight and reconstruct to exactly zero. Output order matches
// the input grid order; the grid need not be sorted.
func reconstructDensity(moments []float64, energies []float64, scale ScaleFactors) []float64 {
	out := make([]float64, len(energies))
	for i, e := range energies {
		x := scale.Rescale(e)
		if x <= -1 || x >= 1 {
			continue // outside the scaled spectrum: zero density
		}
		// Chebyshev sum via T_0 = 1, T_1 = x, T_n+1 = 2x·T_n - T_n-1.
		t0, t1 := 1.0, x
		sum := moments[0]
		if len(moments) > 1 {
			sum += moments[1] * x
		}
		for n := 2; n < len(moments); n++ {
			t0, t1 = t1, 2*x*t1-t0
			sum += moments[n] * t1
		}
		out[i] = 2 / (math.Pi * scale.A * math.Sqrt(1-x*x)) * sum
	}
	return out
}

// reconstructGreens evaluates the damped moment expansion as a retarded
// Green's function on the energy grid:
//
//	G(E) = -2i/(a·sqrt(1-x^2)) · sum_n g_n·mu_n·e^{-i·n·arccos x}
//
// the analytic continuation through the upper half-plane, with mu_0 stored
// pre-halved. The unit-phase factor e^{-i·arccos x} = x - i·sqrt(1-x^2) is
// raised by repeated multiplication, which is exact up to rounding since
// its magnitude is one. Coordinates outside the open domain are clamped to
// the boundary rather than rejected, keeping the output finite everywhere.
func reconstructGreens(moments []complex128, energies []float64, scale ScaleFactors) []complex128 {
	out := make([]complex128, len(energies))
	for i, e := range energies {
		x := scale.Rescale(e)
		if x >= 1 {
			x = 1 - domainEpsilon
		} else if x <= -1 {
			x = -1 + domainEpsilon
		}
		w := math.Sqrt(1 - x*x)
		z := complex(x, -w) // e^{-i·arccos x}
		zn := complex(1, 0)
		var sum complex128
		for _, m := range moments {
			sum += m * zn
			zn *= z
		}
		out[i] = sum * complex(0, -2) / complex(scale.A*w, 0)
	}
	return out
}
