package sparse

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomBanded builds a random banded symmetric test matrix.
func randomBanded(dim, bandwidth int, rng *rand.Rand) *CSR[float64] {
	var entries []Triplet[float64]
	for i := 0; i < dim; i++ {
		for d := 0; d <= bandwidth; d++ {
			j := i + d
			if j >= dim {
				break
			}
			v := rng.NormFloat64()
			entries = append(entries, Triplet[float64]{Row: i, Col: j, Val: v})
			if j != i {
				entries = append(entries, Triplet[float64]{Row: j, Col: i, Val: v})
			}
		}
	}
	m, err := FromTriplets(dim, entries)
	if err != nil {
		panic(err)
	}
	return m
}

func TestToELLGeometry(t *testing.T) {
	t.Parallel()
	m, err := FromTriplets(3, []Triplet[float64]{
		{Row: 0, Col: 0, Val: 1},
		{Row: 0, Col: 1, Val: 2},
		{Row: 2, Col: 2, Val: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := ToELL(m)
	if e.Dim() != 3 {
		t.Errorf("Dim = %d, want 3", e.Dim())
	}
	if e.Width() != 2 {
		t.Errorf("Width = %d, want 2 (the widest row)", e.Width())
	}
}

func TestToELLEmptyRows(t *testing.T) {
	t.Parallel()
	// A matrix with only one entry still needs width >= 1 and in-bounds
	// padding columns for all empty rows.
	m, err := FromTriplets(4, []Triplet[float64]{{Row: 1, Col: 2, Val: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := ToELL(m)
	src := []float64{1, 1, 1, 1}
	dst := make([]float64, 4)
	e.MatVec(dst, src, 0)
	want := []float64{0, 5, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %g, want %g", i, dst[i], want[i])
		}
	}
}

// TestELLMatchesCSR_PropertyBased verifies that the padded layout computes
// exactly the same products as the compressed layout on random banded
// matrices, for both the plain and the fused kernel. The two layouts sum
// each row in the same column order, so the results must agree bitwise.
func TestELLMatchesCSR_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("ELL and CSR kernels agree", prop.ForAll(
		func(dim int, seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			m := randomBanded(dim, 2, rng)
			e := ToELL(m)

			src := make([]float64, dim)
			for i := range src {
				src[i] = rng.NormFloat64()
			}

			dstCSR := make([]float64, dim)
			dstELL := make([]float64, dim)
			m.MatVec(dstCSR, src, 0)
			e.MatVec(dstELL, src, 0)
			for i := range dstCSR {
				if dstCSR[i] != dstELL[i] {
					return false
				}
			}

			m.FusedMatVec(dstCSR, src, 0)
			e.FusedMatVec(dstELL, src, 0)
			for i := range dstCSR {
				if dstCSR[i] != dstELL[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestELLMemoryFootprint(t *testing.T) {
	t.Parallel()
	m := randomBanded(16, 1, rand.New(rand.NewSource(1)))
	e := ToELL(m)
	// dim*width entries at 8 bytes for indices plus 8 for float64 values.
	want := int64(16*e.Width()) * 16
	if got := e.MemoryFootprint(); got != want {
		t.Errorf("MemoryFootprint = %d, want %d", got, want)
	}
	if math.Signbit(float64(m.MemoryFootprint())) || m.MemoryFootprint() == 0 {
		t.Error("CSR footprint should be positive")
	}
}
