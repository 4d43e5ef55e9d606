// Package sparse provides the compressed sparse matrix representations and
// multiply kernels that the spectral engine runs on. The package is generic
// over the scalar field so a real symmetric and a complex Hermitian operator
// share one implementation.
//
// Matrices are immutable once built: every construction path goes through
// coordinate triplets, and derived layouts (permuted, rescaled, ELLPACK) are
// new values rather than in-place mutations.
package sparse

import (
	"fmt"
	"sort"

	"github.com/spectralgo/kpmcalc/internal/scalar"
)

// Triplet is a single coordinate-format matrix entry used during assembly.
type Triplet[T scalar.Scalar] struct {
	Row, Col int
	Val      T
}

// CSR is a square sparse matrix in compressed sparse row format.
//
// The zero value is not usable; build instances with FromTriplets. Rows are
// stored in ascending column order with duplicate coordinates summed, which
// the multiply kernels rely on for cache-friendly streaming access.
type CSR[T scalar.Scalar] struct {
	dim    int
	rowPtr []int
	colIdx []int
	vals   []T
}

// FromTriplets assembles a dim×dim CSR matrix from coordinate entries.
// Entries may arrive in any order; duplicates are summed. Out-of-range
// coordinates indicate a broken builder upstream and cause an error rather
// than silent truncation.
func FromTriplets[T scalar.Scalar](dim int, entries []Triplet[T]) (*CSR[T], error) {
	if dim <= 0 {
		return nil, fmt.Errorf("sparse: matrix dimension must be positive, got %d", dim)
	}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= dim || e.Col < 0 || e.Col >= dim {
			return nil, fmt.Errorf("sparse: entry (%d, %d) outside %dx%d matrix", e.Row, e.Col, dim, dim)
		}
	}

	sorted := make([]Triplet[T], len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &CSR[T]{
		dim:    dim,
		rowPtr: make([]int, dim+1),
		colIdx: make([]int, 0, len(sorted)),
		vals:   make([]T, 0, len(sorted)),
	}
	prevRow, prevCol := -1, -1
	for _, e := range sorted {
		if e.Row == prevRow && e.Col == prevCol {
			m.vals[len(m.vals)-1] += e.Val
			continue
		}
		m.colIdx = append(m.colIdx, e.Col)
		m.vals = append(m.vals, e.Val)
		m.rowPtr[e.Row+1]++
		prevRow, prevCol = e.Row, e.Col
	}
	for i := 0; i < dim; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m, nil
}

// Dim returns the matrix dimension.
func (m *CSR[T]) Dim() int { return m.dim }

// NNZ returns the number of stored entries.
func (m *CSR[T]) NNZ() int { return len(m.vals) }

// Row returns the column indices and values of row i as read-only views.
func (m *CSR[T]) Row(i int) (cols []int, vals []T) {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	return m.colIdx[lo:hi], m.vals[lo:hi]
}

// At returns the entry at (i, j), or zero when the coordinate is not stored.
// Intended for tests and diagnostics, not hot paths.
func (m *CSR[T]) At(i, j int) T {
	cols, vals := m.Row(i)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}
	var zero T
	return zero
}

// Triplets returns a fresh coordinate-format copy of the matrix, the common
// currency for building derived (permuted, rescaled) matrices.
func (m *CSR[T]) Triplets() []Triplet[T] {
	out := make([]Triplet[T], 0, m.NNZ())
	for i := 0; i < m.dim; i++ {
		cols, vals := m.Row(i)
		for k, j := range cols {
			out = append(out, Triplet[T]{Row: i, Col: j, Val: vals[k]})
		}
	}
	return out
}

// MatVec computes dst = M·src over the leading rows-by-rows block.
// Rows at and beyond the limit are left untouched; a non-positive or
// oversized limit means the full dimension. The prefix form is what the
// light-cone truncated Chebyshev recursion consumes.
func (m *CSR[T]) MatVec(dst, src []T, rows int) {
	if rows <= 0 || rows > m.dim {
		rows = m.dim
	}
	for i := 0; i < rows; i++ {
		lo, hi := m.rowPtr[i], m.rowPtr[i+1]
		var sum T
		for k := lo; k < hi; k++ {
			sum += m.vals[k] * src[m.colIdx[k]]
		}
		dst[i] = sum
	}
}

// FusedMatVec computes dst = 2·M·src − dst over the leading rows-by-rows
// block, the fused update at the heart of the three-term Chebyshev
// recurrence. Fusing the scale and subtraction into the multiply pass keeps
// the recursion at one read and one write per vector element.
func (m *CSR[T]) FusedMatVec(dst, src []T, rows int) {
	if rows <= 0 || rows > m.dim {
		rows = m.dim
	}
	two := scalar.FromReal[T](2)
	for i := 0; i < rows; i++ {
		lo, hi := m.rowPtr[i], m.rowPtr[i+1]
		var sum T
		for k := lo; k < hi; k++ {
			sum += m.vals[k] * src[m.colIdx[k]]
		}
		dst[i] = two*sum - dst[i]
	}
}

// MemoryFootprint returns the storage size of the matrix in bytes.
func (m *CSR[T]) MemoryFootprint() int64 {
	const intSize = 8
	var elem T
	elemSize := int64(8)
	if _, ok := any(elem).(complex128); ok {
		elemSize = 16
	}
	return int64(len(m.rowPtr)+len(m.colIdx))*intSize + int64(len(m.vals))*elemSize
}

// MaxRowWidth returns the largest number of stored entries in any row,
// which is the padded width of the equivalent ELLPACK layout.
func (m *CSR[T]) MaxRowWidth() int {
	w := 0
	for i := 0; i < m.dim; i++ {
		if n := m.rowPtr[i+1] - m.rowPtr[i]; n > w {
			w = n
		}
	}
	return w
}
