// Package calibration provides performance calibration for the spectral
// engine. This file implements heuristic layout selection for machines
// without a calibration profile.
package calibration

// ELLPaddingLimit is the largest acceptable padding ratio for the ELL
// layout. ELL stores every row at the width of the widest one; beyond this
// ratio the padded zeros cost more memory bandwidth than the regular
// access pattern saves.
const ELLPaddingLimit = 1.5

// PaddingRatio returns the storage overhead factor of the ELL layout for
// an operator with the given shape: padded entries divided by actual
// nonzeros. A perfectly uniform operator has ratio 1.
func PaddingRatio(dim, nnz, maxRowWidth int) float64 {
	if nnz <= 0 || dim <= 0 {
		return 1
	}
	return float64(dim*maxRowWidth) / float64(nnz)
}

// EstimateFormat heuristically picks a sparse layout from the operator
// shape alone. Regular operators (uniform row widths, as produced by
// translation-invariant lattices) favor ELL; irregular ones favor CSR,
// whose storage tracks the actual fill.
//
// Parameters:
//   - dim: The operator dimension.
//   - nnz: The number of stored nonzeros.
//   - maxRowWidth: The widest row's nonzero count.
//
// Returns:
//   - string: The estimated layout, "csr" or "ell".
func EstimateFormat(dim, nnz, maxRowWidth int) string {
	if PaddingRatio(dim, nnz, maxRowWidth) <= ELLPaddingLimit {
		return "ell"
	}
	return "csr"
}
