package lattice

import (
	"math"
	"math/rand"
	"testing"

	"github.com/spectralgo/kpmcalc/internal/scalar"
)

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("Structure", func(t *testing.T) {
		t.Parallel()
		h, err := Chain(5, -1, 0.25)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Dim() != 5 {
			t.Fatalf("Dim = %d, want 5", h.Dim())
		}
		// 5 onsite entries plus 4 bonds in both directions.
		if h.NNZ() != 5+2*4 {
			t.Errorf("NNZ = %d, want 13", h.NNZ())
		}
		if got := h.At(2, 2); got != 0.25 {
			t.Errorf("onsite = %g, want 0.25", got)
		}
		if got := h.At(1, 2); got != -1 {
			t.Errorf("hop = %g, want -1", got)
		}
		if got := h.At(0, 2); got != 0 {
			t.Errorf("next-nearest element = %g, want 0", got)
		}
	})

	t.Run("ZeroOnsiteOmitted", func(t *testing.T) {
		t.Parallel()
		h, err := Chain(4, 1, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.NNZ() != 2*3 {
			t.Errorf("NNZ = %d, want the 6 bond entries only", h.NNZ())
		}
	})

	t.Run("SingleSite", func(t *testing.T) {
		t.Parallel()
		h, err := Chain(1, 1, -0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Dim() != 1 || h.At(0, 0) != -0.5 {
			t.Errorf("single site = %g of dim %d", h.At(0, 0), h.Dim())
		}
	})

	t.Run("RejectsEmpty", func(t *testing.T) {
		t.Parallel()
		if _, err := Chain(0, 1, 0); err == nil {
			t.Error("zero-site chain accepted")
		}
	})
}

func TestSquare(t *testing.T) {
	t.Parallel()

	t.Run("NeighborCount", func(t *testing.T) {
		t.Parallel()
		h, err := Square(4, 3, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Dim() != 12 {
			t.Fatalf("Dim = %d, want 12", h.Dim())
		}
		// Open boundaries: bond count is ny(nx-1) + nx(ny-1), stored twice.
		wantNNZ := 2 * (3*3 + 4*2)
		if h.NNZ() != wantNNZ {
			t.Errorf("NNZ = %d, want %d", h.NNZ(), wantNNZ)
		}
		// Row-major labeling: site (1,1) = index 5 touches 4, 6, 1 and 9.
		for _, j := range []int{4, 6, 1, 9} {
			if h.At(5, j) != 1 {
				t.Errorf("missing neighbor bond 5-%d", j)
			}
		}
		if h.At(5, 0) != 0 {
			t.Error("diagonal neighbor bond present")
		}
	})

	t.Run("RejectsBadExtents", func(t *testing.T) {
		t.Parallel()
		if _, err := Square(0, 3, 1); err == nil {
			t.Error("zero extent accepted")
		}
	})
}

func TestChainWithFlux(t *testing.T) {
	t.Parallel()
	h, err := ChainWithFlux(6, 1, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := complex(math.Cos(0.4), math.Sin(0.4))
	if got := h.At(0, 1); scalar.AbsSq(got-want) > 1e-24 {
		t.Errorf("forward hop = %v, want %v", got, want)
	}
	// Hermiticity: the reverse hop carries the conjugate phase.
	for i := 0; i+1 < 6; i++ {
		fwd, bwd := h.At(i, i+1), h.At(i+1, i)
		if scalar.AbsSq(bwd-scalar.Conj(fwd)) > 1e-24 {
			t.Errorf("bond %d: %v vs conj %v", i, bwd, fwd)
		}
	}
}

func TestDisordered(t *testing.T) {
	t.Parallel()
	const w = 2.0
	rng := rand.New(rand.NewSource(42))
	h, err := Disordered(64, 1, w, rng.Float64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 64; i++ {
		if e := h.At(i, i); e < -w/2 || e > w/2 {
			t.Errorf("onsite[%d] = %g outside [-1, 1]", i, e)
		}
	}
	// The disorder must actually vary.
	if h.At(0, 0) == h.At(1, 1) && h.At(1, 1) == h.At(2, 2) {
		t.Error("onsite energies look constant")
	}
	if h.At(3, 4) != 1 || h.At(4, 3) != 1 {
		t.Error("hopping structure damaged by disorder")
	}
}

func TestEnergyGrid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		min, max float64
		count    int
		want     []float64
	}{
		{"Standard", -1, 1, 5, []float64{-1, -0.5, 0, 0.5, 1}},
		{"SinglePoint", 3, 7, 1, []float64{3}},
		{"Empty", 0, 1, 0, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := EnergyGrid(tc.min, tc.max, tc.count)
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("grid[%d] = %g, want %g", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBandwidth(t *testing.T) {
	t.Parallel()
	if got := Bandwidth(-1.5); got != 3 {
		t.Errorf("Bandwidth(-1.5) = %g, want 3", got)
	}
}
