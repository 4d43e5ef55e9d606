// Package lattice builds tight-binding Hamiltonians on regular lattices.
//
// The builders exist for the CLI, the HTTP demo endpoints and the test
// suites: they produce small, well-understood Hermitian operators whose
// spectra have closed-form properties (bandwidth, symmetry, van Hove
// singularities) against which the spectral engine can be checked.
package lattice

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// Chain builds a one-dimensional nearest-neighbor chain of n sites with
// hopping amplitude t and uniform onsite energy. The spectrum lies in
// [onsite-2|t|, onsite+2|t|].
func Chain(n int, t, onsite float64) (*sparse.CSR[float64], error) {
	if n < 1 {
		return nil, apperrors.NewConfigError("chain requires at least 1 site, got %d", n)
	}
	entries := make([]sparse.Triplet[float64], 0, 3*n)
	for i := 0; i < n; i++ {
		if onsite != 0 {
			entries = append(entries, sparse.Triplet[float64]{Row: i, Col: i, Val: onsite})
		}
		if i+1 < n {
			entries = append(entries,
				sparse.Triplet[float64]{Row: i, Col: i + 1, Val: t},
				sparse.Triplet[float64]{Row: i + 1, Col: i, Val: t})
		}
	}
	return sparse.FromTriplets(n, entries)
}

// Square builds an nx by ny square lattice with nearest-neighbor hopping t
// and open boundaries. Sites are labeled row-major. The spectrum lies in
// [-4|t|, 4|t|] and its density of states has a logarithmic peak at zero.
func Square(nx, ny int, t float64) (*sparse.CSR[float64], error) {
	if nx < 1 || ny < 1 {
		return nil, apperrors.NewConfigError("square lattice requires positive extents, got %dx%d", nx, ny)
	}
	n := nx * ny
	entries := make([]sparse.Triplet[float64], 0, 4*n)
	idx := func(x, y int) int { return y*nx + x }
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := idx(x, y)
			if x+1 < nx {
				j := idx(x+1, y)
				entries = append(entries,
					sparse.Triplet[float64]{Row: i, Col: j, Val: t},
					sparse.Triplet[float64]{Row: j, Col: i, Val: t})
			}
			if y+1 < ny {
				j := idx(x, y+1)
				entries = append(entries,
					sparse.Triplet[float64]{Row: i, Col: j, Val: t},
					sparse.Triplet[float64]{Row: j, Col: i, Val: t})
			}
		}
	}
	return sparse.FromTriplets(n, entries)
}

// ChainWithFlux builds a chain threaded by a Peierls phase: each hop picks
// up e^{i·phi}, making the Hamiltonian genuinely complex while staying
// Hermitian. Used to exercise the complex scalar field.
func ChainWithFlux(n int, t, phi float64) (*sparse.CSR[complex128], error) {
	if n < 1 {
		return nil, apperrors.NewConfigError("chain requires at least 1 site, got %d", n)
	}
	hop := complex(t, 0) * cmplx.Exp(complex(0, phi))
	entries := make([]sparse.Triplet[complex128], 0, 2*n)
	for i := 0; i+1 < n; i++ {
		entries = append(entries,
			sparse.Triplet[complex128]{Row: i, Col: i + 1, Val: hop},
			sparse.Triplet[complex128]{Row: i + 1, Col: i, Val: scalar.Conj(hop)})
	}
	return sparse.FromTriplets(n, entries)
}

// Disordered builds a chain with Anderson disorder: uniform random onsite
// energies in [-w/2, w/2] drawn from the supplied generator. The rand
// signature matches math/rand.Rand.Float64.
func Disordered(n int, t, w float64, uniform func() float64) (*sparse.CSR[float64], error) {
	if n < 1 {
		return nil, apperrors.NewConfigError("chain requires at least 1 site, got %d", n)
	}
	entries := make([]sparse.Triplet[float64], 0, 3*n)
	for i := 0; i < n; i++ {
		entries = append(entries, sparse.Triplet[float64]{Row: i, Col: i, Val: w * (uniform() - 0.5)})
		if i+1 < n {
			entries = append(entries,
				sparse.Triplet[float64]{Row: i, Col: i + 1, Val: t},
				sparse.Triplet[float64]{Row: i + 1, Col: i, Val: t})
		}
	}
	return sparse.FromTriplets(n, entries)
}

// EnergyGrid returns count evenly spaced energies spanning [min, max]
// inclusive. A single-point grid collapses to min.
func EnergyGrid(min, max float64, count int) []float64 {
	if count < 1 {
		return nil
	}
	out := make([]float64, count)
	if count == 1 {
		out[0] = min
		return out
	}
	return floats.Span(out, min, max)
}

// Bandwidth returns the half-bandwidth 2|t| of a nearest-neighbor chain,
// handy for choosing energy grids in examples and tests.
func Bandwidth(t float64) float64 { return 2 * math.Abs(t) }
