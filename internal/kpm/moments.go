package kpm

import (
	"github.com/spectralgo/kpmcalc/internal/scalar"
)

// Moment sequences follow the half-mu-zero convention used throughout the
// reconstruction formulas: the n = 0 moment is stored pre-multiplied by 1/2,
// which absorbs the 1/(1+delta_n0) weight of the Chebyshev series and lets
// every summation loop treat all orders uniformly.

// computeDiagonalMoments runs the expectation-value recursion for a target
// identical to the starter: mu_n = <r|T_n(H')|r>. The doubling identities
//
//	mu_2n   = 2(<r_n|r_n> - mu_0)
//	mu_2n+1 = 2<r_n+1|r_n> - mu_1
//
// yield two moments per operator application, halving the recursion depth.
// numMoments must be even (the kernels guarantee it). The row limits
// truncate each step to the light-cone prefix when optimal sizing is on.
func computeDiagonalMoments[T scalar.Scalar](op *OptimizedOperator[T], kern matvecKernel[T], starter []T, numMoments int) []T {
	dim := op.Dim()
	r0 := make([]T, dim)
	copy(r0, starter)
	r1 := make([]T, dim)
	kern.MatVec(r1, r0, op.rowLimit(1))

	moments := make([]T, numMoments)
	moments[0] = scalar.Dot(r0, r0) * scalar.FromReal[T](0.5)
	moments[1] = scalar.Dot(r1, r0)

	two := scalar.FromReal[T](2)
	for n := 1; n < numMoments/2; n++ {
		// r0 <- 2·H'·r1 - r0, then swap so r0 = r_n, r1 = r_n+1.
		kern.FusedMatVec(r0, r1, op.rowLimit(n+1))
		r0, r1 = r1, r0
		moments[2*n] = two * (scalar.Dot(r0, r0) - moments[0])
		moments[2*n+1] = two*scalar.Dot(r1, r0) - moments[1]
	}
	return moments
}

// computeOffDiagonalMoments runs the full-depth recursion for one row
// against many columns. All columns share the alpha vectors, so the cost of
// a multi-column Green's query is one recursion regardless of column count;
// each column's moment is a single vector element in the optimized labeling.
func computeOffDiagonalMoments[T scalar.Scalar](op *OptimizedOperator[T], kern matvecKernel[T], starter []T, numMoments int) [][]T {
	dim := op.Dim()
	cols := op.MappedCols()

	r0 := make([]T, dim)
	copy(r0, starter)
	r1 := make([]T, dim)
	kern.MatVec(r1, r0, op.rowLimit(1))

	moments := make([][]T, len(cols))
	for c := range cols {
		moments[c] = make([]T, numMoments)
		moments[c][0] = r0[cols[c]] * scalar.FromReal[T](0.5)
		if numMoments > 1 {
			moments[c][1] = r1[cols[c]]
		}
	}

	for n := 2; n < numMoments; n++ {
		kern.FusedMatVec(r0, r1, op.rowLimit(n))
		r0, r1 = r1, r0 // r1 = alpha_n
		for c := range cols {
			moments[c][n] = r1[cols[c]]
		}
	}
	return moments
}

// realParts extracts the real components of a moment sequence. Complex
// operators carry complex moments through damping; the imaginary part is
// discarded only here, on the way into a real-valued reconstruction.
func realParts[T scalar.Scalar](moments []T) []float64 {
	out := make([]float64, len(moments))
	for i, m := range moments {
		out[i] = scalar.RealPart(m)
	}
	return out
}

// toComplex widens a moment sequence into complex128 for the Green's
// function reconstruction, which is complex for either scalar field.
func toComplex[T scalar.Scalar](moments []T) []complex128 {
	out := make([]complex128, len(moments))
	for i, m := range moments {
		switch v := any(m).(type) {
		case float64:
			out[i] = complex(v, 0)
		case complex128:
			out[i] = v
		}
	}
	return out
}
