package kpm

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/integrate"
)

// deltaMoments returns the damped Chebyshev moments of a single eigenvalue
// at the rescaled position x0, mu_0 pre-halved.
func deltaMoments(x0 float64, numMoments int, k Kernel) []float64 {
	moments := make([]float64, numMoments)
	moments[0] = 0.5
	for n := 1; n < numMoments; n++ {
		moments[n] = chebyshevT(n, x0)
	}
	applyDamping(moments, k.DampingCoefficients(numMoments))
	return moments
}

// linspace builds an evenly spaced grid, the reconstruction fixture.
func linspace(min, max float64, count int) []float64 {
	out := make([]float64, count)
	step := (max - min) / float64(count-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

func TestReconstructDensityDelta(t *testing.T) {
	t.Parallel()
	const x0 = 0.3
	const numMoments = 64
	unit := ScaleFactors{A: 1, B: 0}
	moments := deltaMoments(x0, numMoments, JacksonKernel())
	grid := linspace(-0.999, 0.999, 2001)

	density := reconstructDensity(moments, grid, unit)

	// The Jackson kernel guarantees a non-negative density.
	peakAt, peakVal := 0.0, math.Inf(-1)
	for i, rho := range density {
		if rho < -1e-9 {
			t.Fatalf("negative density %g at E=%g under the Jackson kernel", rho, grid[i])
		}
		if rho > peakVal {
			peakAt, peakVal = grid[i], rho
		}
	}

	// The smeared delta peaks at its eigenvalue and integrates to one.
	if math.Abs(peakAt-x0) > 0.01 {
		t.Errorf("density peaks at %g, want %g", peakAt, x0)
	}
	weight := integrate.Trapezoidal(grid, density)
	if math.Abs(weight-1) > 0.02 {
		t.Errorf("integrated weight = %g, want 1", weight)
	}
}

func TestReconstructDensityOutsideDomain(t *testing.T) {
	t.Parallel()
	moments := deltaMoments(0, 32, JacksonKernel())
	scale := ScaleFactors{A: 2, B: 0}

	// Energies at or beyond the scaled spectrum edge carry no weight.
	out := reconstructDensity(moments, []float64{-5, -2, 2, 7}, scale)
	for i, rho := range out {
		if rho != 0 {
			t.Errorf("out[%d] = %g, want exactly 0 outside the domain", i, rho)
		}
	}
}

func TestReconstructDensityGridOrder(t *testing.T) {
	t.Parallel()
	moments := deltaMoments(0.1, 32, JacksonKernel())
	unit := ScaleFactors{A: 1, B: 0}

	forward := reconstructDensity(moments, []float64{-0.5, 0.1, 0.5}, unit)
	reversed := reconstructDensity(moments, []float64{0.5, 0.1, -0.5}, unit)
	for i := range forward {
		if forward[i] != reversed[len(reversed)-1-i] {
			t.Error("output order does not follow input grid order")
		}
	}
}

func TestReconstructGreensSingleEigenvalue(t *testing.T) {
	t.Parallel()
	const x0 = -0.2
	const numMoments = 128
	unit := ScaleFactors{A: 1, B: 0}

	k := LorentzKernel(4)
	momentsC := make([]complex128, numMoments)
	momentsC[0] = complex(0.5, 0)
	for n := 1; n < numMoments; n++ {
		momentsC[n] = complex(chebyshevT(n, x0), 0)
	}
	dampingR := k.DampingCoefficients(numMoments)
	for n := range momentsC {
		momentsC[n] *= complex(dampingR[n], 0)
	}

	grid := linspace(-0.9, 0.9, 181)
	g := reconstructGreens(momentsC, grid, unit)

	peakAt, peakVal := 0.0, math.Inf(-1)
	for i, z := range g {
		// Retarded: the spectral function -Im(G) stays non-negative up
		// to the truncation residue.
		if imag(z) > 1e-3 {
			t.Fatalf("Im G = %g > 0 at E=%g", imag(z), grid[i])
		}
		if a := -imag(z); a > peakVal {
			peakAt, peakVal = grid[i], a
		}
	}
	if math.Abs(peakAt-x0) > 0.02 {
		t.Errorf("spectral peak at %g, want %g", peakAt, x0)
	}

	// Re(G) changes sign across the eigenvalue, as 1/(E-x0) does.
	var below, above complex128
	for i, e := range grid {
		if e < x0-0.2 {
			below = g[i]
		}
		if above == 0 && e > x0+0.2 {
			above = g[i]
		}
	}
	if real(below) >= 0 || real(above) <= 0 {
		t.Errorf("Re G does not change sign across the pole: below=%g above=%g",
			real(below), real(above))
	}
}

func TestReconstructGreensFiniteAtBoundary(t *testing.T) {
	t.Parallel()
	momentsC := []complex128{complex(0.5, 0), complex(0.3, 0)}
	unit := ScaleFactors{A: 1, B: 0}

	// Coordinates at and beyond the domain edge are clamped, never NaN.
	g := reconstructGreens(momentsC, []float64{-1.5, -1, 1, 1.5}, unit)
	for i, z := range g {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			t.Errorf("g[%d] = %v, want a finite value at the clamped boundary", i, z)
		}
	}
}
