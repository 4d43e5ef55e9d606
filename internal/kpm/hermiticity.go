package kpm

import (
	"math"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// hermiticitySampleRows bounds the number of rows the sampled symmetry
// check reads, keeping construction cost independent of operator size.
const hermiticitySampleRows = 64

// hermiticityTolerance is the relative mismatch tolerated between an entry
// and the conjugate of its transpose partner.
const hermiticityTolerance = 1e-12

// sampleHermiticity spot-checks H[i][j] == conj(H[j][i]) on a strided row
// sample. It cannot prove Hermiticity; it exists because a non-Hermitian
// operator produces silently wrong spectra, and the common builder bugs
// (missing conjugate hop, one-sided entry) show up on any row.
func sampleHermiticity[T scalar.Scalar](h *sparse.CSR[T]) error {
	stride := h.Dim() / hermiticitySampleRows
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < h.Dim(); i += stride {
		cols, vals := h.Row(i)
		for k, j := range cols {
			mirror := scalar.Conj(h.At(j, i))
			diff := scalar.AbsSq(vals[k] - mirror)
			norm := scalar.AbsSq(vals[k]) + scalar.AbsSq(mirror)
			if diff > hermiticityTolerance*math.Max(norm, 1) {
				return apperrors.NewConfigError(
					"operator failed sampled Hermiticity check at (%d, %d): entry does not match conjugate transpose", i, j)
			}
		}
	}
	return nil
}
