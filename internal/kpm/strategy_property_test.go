package kpm

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestLDOSProperties checks invariants of the density reconstruction over
// randomly sized chains: Jackson-damped densities never go negative, and
// repeating a query is bit-for-bit stable.
func TestLDOSProperties(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	query := func(sites, site int, seed int64) ([]float64, error) {
		cfg := DefaultConfig()
		cfg.MinEnergy, cfg.MaxEnergy = -2.5, 2.5
		cfg.Kernel = JacksonKernel()
		cfg.Seed = seed
		s, err := New(testChain(sites), cfg)
		if err != nil {
			return nil, err
		}
		return s.LDOS(site, linspace(-2.4, 2.4, 101), 0.15)
	}

	properties.Property("Jackson LDOS is non-negative", prop.ForAll(
		func(sites int, seed int64) bool {
			ldos, err := query(sites, sites/2, seed)
			if err != nil {
				return false
			}
			for _, v := range ldos {
				if v < -1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 64),
		gen.Int64(),
	))

	properties.Property("repeated queries are bit-identical", prop.ForAll(
		func(sites int, seed int64) bool {
			first, err := query(sites, 0, seed)
			if err != nil {
				return false
			}
			second, err := query(sites, 0, seed)
			if err != nil {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 32),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestLDOSScaleInvariance checks that the affine rescaling is an internal
// detail: two explicit energy ranges that both cover the chain spectrum must
// reconstruct the same density. The moment count is derived from the scaled
// broadening, so the effective resolution differs slightly between the two
// scalings and agreement is to a loose tolerance, not bitwise.
func TestLDOSScaleInvariance(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	query := func(sites int, min, max float64) ([]float64, error) {
		cfg := DefaultConfig()
		cfg.MinEnergy, cfg.MaxEnergy = min, max
		cfg.Kernel = JacksonKernel()
		cfg.Seed = 1
		s, err := New(testChain(sites), cfg)
		if err != nil {
			return nil, err
		}
		return s.LDOS(sites/2, linspace(-2, 2, 81), 0.25)
	}

	properties.Property("covering bounds do not change the density", prop.ForAll(
		func(sites int) bool {
			tight, err := query(sites, -2.5, 2.5)
			if err != nil {
				return false
			}
			wide, err := query(sites, -3.5, 3)
			if err != nil {
				return false
			}
			peak := 0.0
			for i := range tight {
				if math.Abs(tight[i]-wide[i]) > 0.1 {
					return false
				}
				peak = math.Max(peak, tight[i])
			}
			// A vanishing curve would make the comparison vacuous.
			return peak > 0.01
		},
		gen.IntRange(8, 48),
	))

	properties.TestingRun(t)
}

// TestGreensIndexSymmetry checks that for a real symmetric operator the
// off-diagonal retarded elements satisfy G(i,j) = G(j,i) as full complex
// equality. The moment sequences <i|T_n(H)|j> and <j|T_n(H)|i> coincide for
// a real symmetric H, so swapping the indices changes nothing; conjugating
// instead would flip the sign of Im G and break the retarded structure,
// where Im G stays non-positive on the whole grid.
func TestGreensIndexSymmetry(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	grid := linspace(-2, 2, 61)

	properties.Property("G(i,j) equals G(j,i)", prop.ForAll(
		func(sites int) bool {
			cfg := DefaultConfig()
			cfg.MinEnergy, cfg.MaxEnergy = -2.5, 2.5
			cfg.Kernel = LorentzKernel(4)
			cfg.Seed = 1
			s, err := New(testChain(sites), cfg)
			if err != nil {
				return false
			}
			i, j := sites/3, (2*sites)/3
			if i == j {
				j++
			}
			forward, err := s.Greens(i, j, grid, 0.2)
			if err != nil {
				return false
			}
			reverse, err := s.Greens(j, i, grid, 0.2)
			if err != nil {
				return false
			}
			for k := range forward {
				if cmplx.Abs(forward[k]-reverse[k]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(6, 32),
	))

	properties.TestingRun(t)
}
