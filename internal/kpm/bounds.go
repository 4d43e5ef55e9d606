package kpm

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// scalingTolerance is the safety margin applied to the estimated spectral
// half-width. It keeps the rescaled spectrum strictly inside (-1, 1): a
// rescaled eigenvalue on the boundary makes the Chebyshev recursion diverge.
const scalingTolerance = 0.01

// ScaleFactors is the affine transform (a, b) mapping the operator spectrum
// into the Chebyshev domain: H' = (H - b·I)/a. Invariant: A > 0.
type ScaleFactors struct {
	A, B float64
}

// Rescale maps a physical energy onto the Chebyshev coordinate x = (E-b)/a.
func (s ScaleFactors) Rescale(energy float64) float64 {
	return (energy - s.B) / s.A
}

// fromRange derives scale factors from a spectral range, widening the
// half-width by the safety margin. A degenerate range (single spectral
// point) gets a unit half-width so the invariant A > 0 always holds.
func fromRange(min, max float64) ScaleFactors {
	a := 0.5 * (max - min) * (1 + scalingTolerance)
	if a <= 0 {
		a = 1
	}
	return ScaleFactors{A: a, B: 0.5 * (max + min)}
}

// Bounds estimates or holds the spectral extrema of an operator and derives
// the affine rescaling from them. User-supplied bounds are taken as-is;
// otherwise a Lanczos procedure estimates the extremal eigenvalues to the
// configured relative precision on first use, and the result is cached until
// the operator changes.
type Bounds[T scalar.Scalar] struct {
	op        *sparse.CSR[T]
	min, max  float64
	precision float64
	computed  bool
	elapsed   time.Duration
}

// newAutoBounds creates bounds that will be estimated from the operator on
// first use, to the given relative precision.
func newAutoBounds[T scalar.Scalar](op *sparse.CSR[T], precision float64) *Bounds[T] {
	if precision <= 0 {
		precision = defaultLanczosPrecision
	}
	return &Bounds[T]{op: op, precision: precision}
}

// newFixedBounds creates bounds from a user-supplied energy range. The range
// is trusted; an overestimated range only costs resolution, while an
// underestimated one produces garbage, which is the caller's bargain.
func newFixedBounds[T scalar.Scalar](min, max float64) *Bounds[T] {
	return &Bounds[T]{min: min, max: max, computed: true}
}

// ScalingFactors returns the affine rescaling, running the Lanczos estimate
// if the bounds are not known yet. The random generator seeds the Lanczos
// starting vector; it is owned by the calling Strategy, never global.
func (b *Bounds[T]) ScalingFactors(rng *rand.Rand) (ScaleFactors, error) {
	if !b.computed {
		start := time.Now()
		min, max, err := lanczosBounds(b.op, b.precision, rng)
		b.elapsed = time.Since(start)
		if err != nil {
			return ScaleFactors{}, err
		}
		b.min, b.max = min, max
		b.computed = true
	}
	return fromRange(b.min, b.max), nil
}

// Report renders the spectral-bounds summary: compact "min, max [time]" for
// the one-line form, a labeled block otherwise. Unestimated bounds render as
// placeholders; estimation is lazy and a report may precede any query.
func (b *Bounds[T]) Report(shortform bool) string {
	if !b.computed {
		if shortform {
			return "?, ? [n/a]|"
		}
		return "Spectral bounds: not yet estimated\n"
	}
	if shortform {
		return fmt.Sprintf("%.2f, %.2f [%s]|", b.min, b.max, prettyDuration(b.elapsed))
	}
	return fmt.Sprintf("Spectral bounds: [%.4f, %.4f] (estimated in %s)\n",
		b.min, b.max, prettyDuration(b.elapsed))
}

// lanczosIterationCap bounds the Krylov subspace size. Extremal eigenvalues
// of lattice Hamiltonians converge in a few dozen iterations; the cap only
// guards pathological inputs.
const lanczosIterationCap = 256

// lanczosBounds estimates the extremal eigenvalues of the operator with the
// Lanczos algorithm, iterating until both extrema are stable to the given
// relative precision. No reorthogonalization is performed: ghost eigenvalues
// duplicate converged extrema without moving them, which is harmless for
// bound estimation.
func lanczosBounds[T scalar.Scalar](op *sparse.CSR[T], precision float64, rng *rand.Rand) (min, max float64, err error) {
	dim := op.Dim()
	if dim == 0 {
		return 0, 0, apperrors.NewInvariantError("operator reduced to zero usable sites")
	}
	if dim == 1 {
		e := scalar.RealPart(op.At(0, 0))
		return e, e, nil
	}

	// Random unit starting vector in the operator's field.
	q := make([]T, dim)
	for i := range q {
		q[i] = scalar.FromReal[T](rng.NormFloat64())
	}
	norm := scalar.Norm(q)
	for i := range q {
		q[i] *= scalar.FromReal[T](1 / norm)
	}

	qPrev := make([]T, dim)
	w := make([]T, dim)
	var alphas, betas []float64
	prevMin, prevMax := math.Inf(1), math.Inf(-1)

	steps := dim
	if steps > lanczosIterationCap {
		steps = lanczosIterationCap
	}
	for j := 0; j < steps; j++ {
		// w = H·q - beta_{j-1}·q_{j-1}
		op.MatVec(w, q, 0)
		if j > 0 {
			beta := scalar.FromReal[T](betas[j-1])
			for i := range w {
				w[i] -= beta * qPrev[i]
			}
		}
		alpha := scalar.RealPart(scalar.Dot(q, w))
		alphas = append(alphas, alpha)
		af := scalar.FromReal[T](alpha)
		for i := range w {
			w[i] -= af * q[i]
		}
		beta := scalar.Norm(w)

		lo, hi, ok := tridiagExtrema(alphas, betas)
		if !ok {
			return 0, 0, apperrors.NewInvariantError("Lanczos tridiagonal eigensolve failed")
		}
		if j > 0 {
			span := hi - lo
			if span == 0 {
				span = math.Max(math.Abs(hi), 1)
			}
			if math.Abs(lo-prevMin) < precision*span && math.Abs(hi-prevMax) < precision*span {
				return lo, hi, nil
			}
		}
		prevMin, prevMax = lo, hi

		if beta < 1e-14 {
			// Exact invariant subspace: the tridiagonal spectrum is exact.
			return lo, hi, nil
		}
		betas = append(betas, beta)
		inv := scalar.FromReal[T](1 / beta)
		copy(qPrev, q)
		for i := range q {
			q[i] = w[i] * inv
		}
	}
	return prevMin, prevMax, nil
}

// tridiagExtrema returns the extreme eigenvalues of the symmetric
// tridiagonal matrix with the given diagonal and off-diagonal entries.
func tridiagExtrema(alphas, betas []float64) (min, max float64, ok bool) {
	k := len(alphas)
	t := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		t.SetSym(i, i, alphas[i])
		if i+1 < k {
			t.SetSym(i, i+1, betas[i])
		}
	}
	var es mat.EigenSym
	if !es.Factorize(t, false) {
		return 0, 0, false
	}
	vals := es.Values(nil)
	return vals[0], vals[len(vals)-1], true
}
