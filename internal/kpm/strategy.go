package kpm

import (
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// Strategy orchestrates the KPM pipeline for one Hermitian operator: it
// owns the spectral bounds, the per-query optimized operator view, the
// moment backend, the accumulated statistics and the random generator for
// stochastic estimation.
//
// A Strategy is generic over the scalar field and intended for single-owner,
// sequential use: mutating calls (queries, ChangeHamiltonian, ResetStats)
// must not race. Construct one Strategy per operator per goroutine, or
// guard externally.
type Strategy[T scalar.Scalar] struct {
	h       *sparse.CSR[T]
	cfg     Config
	bounds  *Bounds[T]
	oh      *OptimizedOperator[T]
	backend MomentBackend[T]
	stats   Stats
	rng     *rand.Rand

	logger   zerolog.Logger
	observer ProgressObserver

	totalElapsed time.Duration
}

// Option customizes a Strategy at construction.
type Option[T scalar.Scalar] func(*Strategy[T])

// WithLogger attaches a zerolog logger; per-phase debug events are emitted
// through it. The default logger discards everything.
func WithLogger[T scalar.Scalar](logger zerolog.Logger) Option[T] {
	return func(s *Strategy[T]) { s.logger = logger }
}

// WithObserver attaches a progress observer for stochastic computations.
func WithObserver[T scalar.Scalar](obs ProgressObserver) Option[T] {
	return func(s *Strategy[T]) { s.observer = obs }
}

// WithBackend overrides the moment backend chosen from the configured
// matrix format. Intended for backend comparisons and tests.
func WithBackend[T scalar.Scalar](b MomentBackend[T]) Option[T] {
	return func(s *Strategy[T]) { s.backend = b }
}

// New constructs a Strategy for the given operator.
//
// Construction fails eagerly on configuration errors: an explicit energy
// range with min > max, or (when enabled) an operator sample failing the
// Hermiticity check. An empty operator is a structural impossibility and
// also fails.
func New[T scalar.Scalar](h *sparse.CSR[T], cfg Config, opts ...Option[T]) (*Strategy[T], error) {
	if h == nil || h.Dim() == 0 {
		return nil, apperrors.NewInvariantError("operator reduced to zero usable sites")
	}
	if cfg.MinEnergy > cfg.MaxEnergy {
		return nil, apperrors.NewConfigError(
			"invalid energy range specified (min %g > max %g)", cfg.MinEnergy, cfg.MaxEnergy)
	}
	if cfg.Kernel.DampingCoefficients == nil {
		cfg.Kernel = LorentzKernel(DefaultLorentzLambda)
	}
	if cfg.NumRandom < 1 {
		cfg.NumRandom = 1
	}
	if cfg.VerifyHermiticity {
		if err := sampleHermiticity(h); err != nil {
			return nil, err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Strategy[T]{
		h:        h,
		cfg:      cfg,
		oh:       newOptimizedOperator(h, cfg.Algorithm),
		backend:  backendFor[T](cfg.Algorithm.Format),
		rng:      rand.New(rand.NewSource(seed)),
		logger:   zerolog.Nop(),
		observer: NoOpObserver{},
	}
	s.bounds = s.resetBounds(h)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// resetBounds builds the bounds object for an operator: user-defined when
// an explicit range is configured, Lanczos-estimated otherwise. Equal min
// and max (including the zero value) mean auto-detect.
func (s *Strategy[T]) resetBounds(h *sparse.CSR[T]) *Bounds[T] {
	if s.cfg.MinEnergy == s.cfg.MaxEnergy {
		return newAutoBounds(h, s.cfg.LanczosPrecision)
	}
	return newFixedBounds[T](s.cfg.MinEnergy, s.cfg.MaxEnergy)
}

// Dim returns the operator dimension.
func (s *Strategy[T]) Dim() int { return s.h.Dim() }

// Stats returns a copy of the accumulated statistics.
func (s *Strategy[T]) Stats() Stats { return s.stats }

// ResetStats zeroes the accumulated statistics and total time.
func (s *Strategy[T]) ResetStats() {
	s.stats.Reset()
	s.totalElapsed = 0
}

// validateQuery checks the shared query preconditions.
func (s *Strategy[T]) validateQuery(indices []int, broadening float64) error {
	for _, i := range indices {
		if i < 0 || i >= s.h.Dim() {
			return apperrors.NewValidationError("index",
				"site index outside operator dimension", i)
		}
	}
	if broadening <= 0 {
		return apperrors.NewValidationError("broadening", "must be positive", broadening)
	}
	return nil
}

// prepare resolves scale factors and the required moment count for a query.
func (s *Strategy[T]) prepare(broadening float64) (ScaleFactors, int, error) {
	scale, err := s.bounds.ScalingFactors(s.rng)
	if err != nil {
		return ScaleFactors{}, 0, err
	}
	numMoments := s.cfg.Kernel.RequiredNumMoments(broadening / scale.A)
	return scale, numMoments, nil
}

// LDOS computes the local density of states at a single site, one real
// value per energy-grid entry, in grid order. Repeated calls with identical
// arguments on an unchanged Strategy produce bit-identical results.
func (s *Strategy[T]) LDOS(index int, energies []float64, broadening float64) ([]float64, error) {
	if err := s.validateQuery([]int{index}, broadening); err != nil {
		return nil, err
	}
	start := time.Now()
	scale, numMoments, err := s.prepare(broadening)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("index", index).Int("moments", numMoments).
		Float64("a", scale.A).Float64("b", scale.B).Msg("ldos query")

	if err := s.oh.OptimizeFor(DiagonalQuery(index), scale, numMoments); err != nil {
		return nil, err
	}
	s.oh.PopulateStats(&s.stats, numMoments, s.cfg.Algorithm)
	s.stats.Multiplier = 1

	ticMoments := time.Now()
	moments := s.backend.Diagonal(s.oh, unitStarter[T](s.oh.Dim(), s.oh.MappedRow()), numMoments)
	s.stats.MomentsElapsed += time.Since(ticMoments)

	applyDamping(moments, s.cfg.Kernel.DampingCoefficients(numMoments))

	ticRecon := time.Now()
	out := reconstructDensity(realParts(moments), energies, scale)
	s.stats.ReconstructElapsed += time.Since(ticRecon)

	s.finishQuery("ldos", numMoments, start)
	return out, nil
}

// Greens computes the retarded Green's function of a single operator
// element, one complex value per energy-grid entry. It is a convenience
// wrapper around GreensVector with a single column.
func (s *Strategy[T]) Greens(row, col int, energies []float64, broadening float64) ([]complex128, error) {
	v, err := s.GreensVector(row, []int{col}, energies, broadening)
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

// GreensVector computes Green's functions of one row against several
// columns from a single shared recursion, returning one complex array per
// requested column, in column order. The column set must be non-empty.
func (s *Strategy[T]) GreensVector(row int, cols []int, energies []float64, broadening float64) ([][]complex128, error) {
	if len(cols) == 0 {
		return nil, apperrors.NewValidationError("cols", "column set is empty for off-diagonal query", cols)
	}
	if err := s.validateQuery(append([]int{row}, cols...), broadening); err != nil {
		return nil, err
	}
	start := time.Now()
	scale, numMoments, err := s.prepare(broadening)
	if err != nil {
		return nil, err
	}
	q := OffDiagonalQuery(row, cols)
	s.logger.Debug().Int("row", row).Ints("cols", cols).Int("moments", numMoments).
		Bool("diagonal", q.IsDiagonal()).Msg("greens query")

	if err := s.oh.OptimizeFor(q, scale, numMoments); err != nil {
		return nil, err
	}
	s.oh.PopulateStats(&s.stats, numMoments, s.cfg.Algorithm)
	s.stats.Multiplier = 1

	damping := s.cfg.Kernel.DampingCoefficients(numMoments)
	starter := unitStarter[T](s.oh.Dim(), s.oh.MappedRow())

	var out [][]complex128
	if q.IsDiagonal() {
		ticMoments := time.Now()
		moments := s.backend.Diagonal(s.oh, starter, numMoments)
		s.stats.MomentsElapsed += time.Since(ticMoments)

		applyDamping(moments, damping)
		ticRecon := time.Now()
		out = [][]complex128{reconstructGreens(toComplex(moments), energies, scale)}
		s.stats.ReconstructElapsed += time.Since(ticRecon)
	} else {
		ticMoments := time.Now()
		momentsVector := s.backend.OffDiagonal(s.oh, starter, numMoments)
		s.stats.MomentsElapsed += time.Since(ticMoments)

		ticRecon := time.Now()
		out = make([][]complex128, len(momentsVector))
		for c, moments := range momentsVector {
			applyDamping(moments, damping)
			out[c] = reconstructGreens(toComplex(moments), energies, scale)
		}
		s.stats.ReconstructElapsed += time.Since(ticRecon)
	}

	s.finishQuery("greens", numMoments, start)
	return out, nil
}

// DOS computes the total density of states by stochastic trace estimation:
// NumRandom independent random-phase realizations averaged together. The
// realizations run sequentially by default, or concurrently when
// ParallelStochastic is set; only the final averaging is serialized either
// way, and the starters are always drawn sequentially from the
// Strategy-owned generator so results do not depend on scheduling.
func (s *Strategy[T]) DOS(energies []float64, broadening float64) ([]float64, error) {
	if broadening <= 0 {
		return nil, apperrors.NewValidationError("broadening", "must be positive", broadening)
	}
	start := time.Now()
	scale, numMoments, err := s.prepare(broadening)
	if err != nil {
		return nil, err
	}
	numRandom := s.cfg.NumRandom
	s.logger.Debug().Int("moments", numMoments).Int("num_random", numRandom).Msg("dos query")

	// Light-cone truncation does not apply to a whole-system trace.
	if err := s.oh.OptimizeForTrace(scale, numMoments); err != nil {
		return nil, err
	}
	traceAlg := s.cfg.Algorithm
	traceAlg.OptimalSize = false
	s.oh.PopulateStats(&s.stats, numMoments, traceAlg)
	s.stats.Multiplier = numRandom

	starters := make([][]T, numRandom)
	for j := range starters {
		starters[j] = randomPhaseStarter[T](s.oh.Dim(), s.rng)
	}

	ticMoments := time.Now()
	partial := make([][]T, numRandom)
	if s.cfg.ParallelStochastic && numRandom > 1 {
		g := new(errgroup.Group)
		g.SetLimit(runtime.NumCPU())
		for j := range starters {
			j := j
			g.Go(func() error {
				partial[j] = s.backend.Diagonal(s.oh, starters[j], numMoments)
				return nil
			})
		}
		g.Wait()
		s.observer.Update(numRandom, numRandom)
	} else {
		for j := range starters {
			partial[j] = s.backend.Diagonal(s.oh, starters[j], numMoments)
			s.observer.Update(j+1, numRandom)
		}
	}

	total := make([]T, numMoments)
	for _, p := range partial {
		for n := range total {
			total[n] += p[n]
		}
	}
	inv := scalar.FromReal[T](1 / float64(numRandom))
	for n := range total {
		total[n] *= inv
	}
	s.stats.MomentsElapsed += time.Since(ticMoments)

	applyDamping(total, s.cfg.Kernel.DampingCoefficients(numMoments))

	ticRecon := time.Now()
	out := reconstructDensity(realParts(total), energies, scale)
	s.stats.ReconstructElapsed += time.Since(ticRecon)

	s.finishQuery("dos", numMoments, start)
	return out, nil
}

// ChangeHamiltonian hot-swaps the operator. It succeeds only when the new
// operator matches the Strategy's compiled scalar field and passes the same
// sampled Hermiticity check applied at construction (when enabled); a
// rejection is an expected, checkable condition reported through the return
// value, and on rejection the held operator, bounds and statistics are left
// completely unchanged. On success the optimized-view cache is invalidated
// and the spectral bounds are re-estimated, unless an explicit energy range
// was configured, in which case that range is preserved.
func (s *Strategy[T]) ChangeHamiltonian(h any) bool {
	nh, ok := h.(*sparse.CSR[T])
	if !ok || nh == nil || nh.Dim() == 0 {
		return false
	}
	if s.cfg.VerifyHermiticity {
		if err := sampleHermiticity(nh); err != nil {
			s.logger.Debug().Err(err).Msg("replacement hamiltonian rejected")
			return false
		}
	}
	s.h = nh
	s.oh = newOptimizedOperator(nh, s.cfg.Algorithm)
	s.bounds = s.resetBounds(nh)
	s.logger.Debug().Int("dim", nh.Dim()).Msg("hamiltonian replaced")
	return true
}

// Report renders the spectral-bounds summary and accumulated statistics,
// compact (pipe-delimited one-liner) or verbose (multi-line).
func (s *Strategy[T]) Report(shortform bool) string {
	report := s.bounds.Report(shortform) + s.stats.Report(shortform)
	if shortform {
		return report + "| " + prettyDuration(s.totalElapsed)
	}
	return report + "Total time: " + prettyDuration(s.totalElapsed) + "\n"
}

// finishQuery folds one answered query into the totals and metrics.
func (s *Strategy[T]) finishQuery(queryType string, numMoments int, start time.Time) {
	elapsed := time.Since(start)
	s.totalElapsed += elapsed
	observeQuery(queryType, numMoments, elapsed)
	s.logger.Debug().Str("type", queryType).Dur("elapsed", elapsed).Msg("query answered")
}
