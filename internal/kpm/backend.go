package kpm

import "github.com/spectralgo/kpmcalc/internal/scalar"

// MomentBackend computes raw Chebyshev moment sequences from an optimized
// operator view. The orchestration layer is indifferent to which backend
// produced the moments: all backends consume the identical OptimizedOperator
// representation and honor the same light-cone row limits.
//
// Backends are stateless; concurrent calls against a read-only operator
// view are safe (each call owns its recursion vectors).
type MomentBackend[T scalar.Scalar] interface {
	// Name identifies the backend in reports and comparisons.
	Name() string
	// Diagonal computes numMoments expectation-value moments
	// mu_n = <starter|T_n(H')|starter>.
	Diagonal(op *OptimizedOperator[T], starter []T, numMoments int) []T
	// OffDiagonal computes one numMoments-long sequence per mapped query
	// column from a single shared recursion.
	OffDiagonal(op *OptimizedOperator[T], starter []T, numMoments int) [][]T
}

// csrBackend runs the recursion on the compressed sparse row layout, the
// default cache-streaming CPU path.
type csrBackend[T scalar.Scalar] struct{}

func (csrBackend[T]) Name() string { return "cpu-csr" }

func (csrBackend[T]) Diagonal(op *OptimizedOperator[T], starter []T, numMoments int) []T {
	return computeDiagonalMoments(op, op.kernelFor(FormatCSR), starter, numMoments)
}

func (csrBackend[T]) OffDiagonal(op *OptimizedOperator[T], starter []T, numMoments int) [][]T {
	return computeOffDiagonalMoments(op, op.kernelFor(FormatCSR), starter, numMoments)
}

// ellBackend runs the recursion on the padded ELLPACK layout. The fixed row
// stride is the representation accelerator offload uses: the same layout
// transfers to a device untouched, and on the host it trades padding waste
// for branch-free, vectorizable inner loops on uniform-degree lattices.
type ellBackend[T scalar.Scalar] struct{}

func (ellBackend[T]) Name() string { return "cpu-ell" }

func (ellBackend[T]) Diagonal(op *OptimizedOperator[T], starter []T, numMoments int) []T {
	return computeDiagonalMoments(op, op.kernelFor(FormatELL), starter, numMoments)
}

func (ellBackend[T]) OffDiagonal(op *OptimizedOperator[T], starter []T, numMoments int) [][]T {
	return computeOffDiagonalMoments(op, op.kernelFor(FormatELL), starter, numMoments)
}

// backendFor returns the moment backend matching a layout choice.
func backendFor[T scalar.Scalar](format MatrixFormat) MomentBackend[T] {
	if format == FormatELL {
		return ellBackend[T]{}
	}
	return csrBackend[T]{}
}
