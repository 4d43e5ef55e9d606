package kpm

import (
	"math/rand"

	"github.com/spectralgo/kpmcalc/internal/scalar"
)

// unitStarter returns the indicator vector e_index in the optimized
// labeling, the starting vector of every expectation-value recursion.
func unitStarter[T scalar.Scalar](dim, index int) []T {
	r := make([]T, dim)
	r[index] = scalar.FromReal[T](1)
	return r
}

// randomPhaseStarter returns a vector of independent unit-magnitude entries
// with uniformly random phase (signs for the real field), the unbiased
// stochastic trace estimator's starting vector. Accuracy of the averaged
// estimate improves as 1/sqrt(numRandom · dim).
func randomPhaseStarter[T scalar.Scalar](dim int, rng *rand.Rand) []T {
	r := make([]T, dim)
	for i := range r {
		r[i] = scalar.RandomPhase[T](rng)
	}
	return r
}
