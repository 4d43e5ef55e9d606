package sparse

import "github.com/spectralgo/kpmcalc/internal/scalar"

// ELL is a square sparse matrix in ELLPACK format: every row is padded to a
// fixed width, giving a dense, vectorization-friendly column-index and value
// layout. This is the representation used by accelerator-style moment
// backends, where a fixed stride per row maps directly onto SIMD lanes or
// device threads. Padding entries point at the row's own index with a zero
// value so gathers stay in bounds without branching.
type ELL[T scalar.Scalar] struct {
	dim   int
	width int
	cols  []int // dim*width, row-major
	vals  []T   // dim*width, row-major
}

// ToELL converts a CSR matrix into ELLPACK layout. The padded width is the
// widest CSR row, so conversion is only economical for matrices with fairly
// uniform row occupancy, which is exactly the shape lattice Hamiltonians have.
func ToELL[T scalar.Scalar](m *CSR[T]) *ELL[T] {
	width := m.MaxRowWidth()
	if width == 0 {
		width = 1
	}
	e := &ELL[T]{
		dim:   m.Dim(),
		width: width,
		cols:  make([]int, m.Dim()*width),
		vals:  make([]T, m.Dim()*width),
	}
	for i := 0; i < m.Dim(); i++ {
		cols, vals := m.Row(i)
		base := i * width
		for k := 0; k < width; k++ {
			if k < len(cols) {
				e.cols[base+k] = cols[k]
				e.vals[base+k] = vals[k]
			} else {
				e.cols[base+k] = i // self-pointing zero pad
			}
		}
	}
	return e
}

// Dim returns the matrix dimension.
func (e *ELL[T]) Dim() int { return e.dim }

// Width returns the padded row width.
func (e *ELL[T]) Width() int { return e.width }

// MatVec computes dst = M·src over the leading rows-by-rows block.
func (e *ELL[T]) MatVec(dst, src []T, rows int) {
	if rows <= 0 || rows > e.dim {
		rows = e.dim
	}
	for i := 0; i < rows; i++ {
		base := i * e.width
		var sum T
		for k := 0; k < e.width; k++ {
			sum += e.vals[base+k] * src[e.cols[base+k]]
		}
		dst[i] = sum
	}
}

// FusedMatVec computes dst = 2·M·src − dst over the leading rows-by-rows
// block, mirroring CSR.FusedMatVec on the padded layout.
func (e *ELL[T]) FusedMatVec(dst, src []T, rows int) {
	if rows <= 0 || rows > e.dim {
		rows = e.dim
	}
	two := scalar.FromReal[T](2)
	for i := 0; i < rows; i++ {
		base := i * e.width
		var sum T
		for k := 0; k < e.width; k++ {
			sum += e.vals[base+k] * src[e.cols[base+k]]
		}
		dst[i] = two*sum - dst[i]
	}
}

// MemoryFootprint returns the storage size of the matrix in bytes.
func (e *ELL[T]) MemoryFootprint() int64 {
	const intSize = 8
	var elem T
	elemSize := int64(8)
	if _, ok := any(elem).(complex128); ok {
		elemSize = 16
	}
	return int64(len(e.cols))*intSize + int64(len(e.vals))*elemSize
}
