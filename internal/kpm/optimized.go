package kpm

import (
	"time"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// Query names the operator elements a computation targets: a single
// diagonal element (LDOS, stochastic DOS) or one row against a set of
// columns (Green's function vector). The column set of an off-diagonal
// query is never empty.
type Query struct {
	Row  int
	Cols []int
}

// DiagonalQuery targets the (i, i) element.
func DiagonalQuery(i int) Query {
	return Query{Row: i, Cols: []int{i}}
}

// OffDiagonalQuery targets row against every listed column.
func OffDiagonalQuery(row int, cols []int) Query {
	return Query{Row: row, Cols: cols}
}

// IsDiagonal reports whether the query reduces to a single diagonal element.
func (q Query) IsDiagonal() bool {
	return len(q.Cols) == 1 && q.Cols[0] == q.Row
}

// sources returns the distinct starting indices of the query's light cone.
func (q Query) sources() []int {
	out := []int{q.Row}
	for _, c := range q.Cols {
		if c != q.Row {
			out = append(out, c)
		}
	}
	return out
}

// equal reports whether two queries are identical, including column order
// (column order determines output order, so it is part of the identity).
func (q Query) equal(o Query) bool {
	if q.Row != o.Row || len(q.Cols) != len(o.Cols) {
		return false
	}
	for i := range q.Cols {
		if q.Cols[i] != o.Cols[i] {
			return false
		}
	}
	return true
}

// matvecKernel is the layout-independent contract of the multiply kernels
// the moment recursion consumes. Both sparse layouts satisfy it.
type matvecKernel[T scalar.Scalar] interface {
	MatVec(dst, src []T, rows int)
	FusedMatVec(dst, src []T, rows int)
	MemoryFootprint() int64
}

// OptimizedOperator is the per-query sparse view of the rescaled operator:
// restricted to the query's light cone, optionally permuted into BFS order,
// with the affine rescaling baked into the entries so the recursion runs on
// H' directly.
//
// It is a pure function of (source operator, query, scale factors, recursion
// depth, algorithm flags): OptimizeFor with identical arguments is a no-op,
// and any changed argument rebuilds the view atomically. It is not safe for
// concurrent mutation; the owning Strategy serializes access.
type OptimizedOperator[T scalar.Scalar] struct {
	source *sparse.CSR[T]
	cfg    AlgorithmConfig

	// Cache key of the current view.
	query      Query
	scale      ScaleFactors
	numMoments int
	valid      bool

	// Derived view.
	csr        *sparse.CSR[T]
	ell        *sparse.ELL[T]
	frontier   sparse.Frontier
	mappedRow  int
	mappedCols []int
	elapsed    time.Duration
	// unbilled marks a rebuild whose optimization time has not yet been
	// added to the stats; cached no-op reuses must not double-count it.
	unbilled bool
}

// newOptimizedOperator wraps a source operator. No work happens until the
// first OptimizeFor call.
func newOptimizedOperator[T scalar.Scalar](source *sparse.CSR[T], cfg AlgorithmConfig) *OptimizedOperator[T] {
	return &OptimizedOperator[T]{source: source, cfg: cfg}
}

// OptimizeFor builds (or reuses) the query-shaped view for the given scale
// factors and recursion depth. Out-of-range query indices are a programming
// error upstream and surface as an invariant violation.
func (o *OptimizedOperator[T]) OptimizeFor(q Query, scale ScaleFactors, numMoments int) error {
	if o.valid && o.query.equal(q) && o.scale == scale && o.numMoments == numMoments {
		return nil
	}
	for _, i := range q.sources() {
		if i < 0 || i >= o.source.Dim() {
			return apperrors.NewInvariantError("query index %d outside operator dimension %d", i, o.source.Dim())
		}
	}

	start := time.Now()
	o.valid = false

	var oldToNew map[int]int
	var err error
	if o.cfg.Reorder || o.cfg.OptimalSize {
		oldToNew, err = o.buildReordered(q, scale, numMoments)
	} else {
		oldToNew, err = o.buildPlain(scale)
	}
	if err != nil {
		return err
	}
	if err := o.mapQuery(q, oldToNew); err != nil {
		return err
	}
	o.finish(q, scale, numMoments, start)
	return nil
}

// OptimizeForTrace builds the untruncated rescaled view consumed by
// stochastic trace estimation. Light-cone truncation does not apply: the
// random starter has support on every site, so the whole operator is the
// working set and the original labeling is kept.
func (o *OptimizedOperator[T]) OptimizeForTrace(scale ScaleFactors, numMoments int) error {
	trace := Query{Row: -1}
	if o.valid && o.query.equal(trace) && o.scale == scale && o.numMoments == numMoments {
		return nil
	}

	start := time.Now()
	o.valid = false
	if _, err := o.buildPlain(scale); err != nil {
		return err
	}
	o.mappedRow = -1
	o.mappedCols = nil
	o.finish(trace, scale, numMoments, start)
	return nil
}

// finish commits the cache key of a freshly built view.
func (o *OptimizedOperator[T]) finish(q Query, scale ScaleFactors, numMoments int, start time.Time) {
	if o.cfg.Format == FormatELL {
		o.ell = sparse.ToELL(o.csr)
	} else {
		o.ell = nil
	}
	o.query = q
	o.scale = scale
	o.numMoments = numMoments
	o.valid = true
	o.elapsed = time.Since(start)
	o.unbilled = true
}

// buildReordered restricts the operator to the light cone reachable within
// numMoments hops of the query sources, relabels it into BFS discovery
// order and rescales the entries.
func (o *OptimizedOperator[T]) buildReordered(q Query, scale ScaleFactors, numMoments int) (map[int]int, error) {
	frontier := sparse.BFS(o.source, q.sources())

	// The recursion applies the operator numMoments-1 times, so vertices
	// beyond that hop distance are unreachable and dropped.
	depth := numMoments - 1
	keep := frontier.SizeAt(depth)
	order := frontier.Order[:keep]
	if len(frontier.Sizes) > depth+1 {
		frontier.Sizes = frontier.Sizes[:depth+1]
	}

	oldToNew := make(map[int]int, len(order))
	for newIdx, oldIdx := range order {
		oldToNew[oldIdx] = newIdx
	}

	entries := rescaledTriplets(o.source, order, oldToNew, scale)
	m, err := sparse.FromTriplets(len(order), entries)
	if err != nil {
		return nil, apperrors.NewInvariantError("optimized submatrix assembly failed: %v", err)
	}

	o.csr = m
	o.frontier = frontier
	return oldToNew, nil
}

// buildPlain rescales the full operator without truncation or reordering.
func (o *OptimizedOperator[T]) buildPlain(scale ScaleFactors) (map[int]int, error) {
	dim := o.source.Dim()
	identity := make([]int, dim)
	oldToNew := make(map[int]int, dim)
	for i := 0; i < dim; i++ {
		identity[i] = i
		oldToNew[i] = i
	}

	entries := rescaledTriplets(o.source, identity, oldToNew, scale)
	m, err := sparse.FromTriplets(dim, entries)
	if err != nil {
		return nil, apperrors.NewInvariantError("rescaled operator assembly failed: %v", err)
	}

	o.csr = m
	o.frontier = sparse.Frontier{Order: identity, Sizes: []int{dim}}
	return oldToNew, nil
}

// rescaledTriplets gathers the induced submatrix on the kept vertices as
// coordinate entries of H' = (H - b·I)/a. The diagonal shift is emitted as
// separate entries and merged during assembly, which also covers
// Hamiltonians that store no explicit zero diagonal.
func rescaledTriplets[T scalar.Scalar](source *sparse.CSR[T], order []int, oldToNew map[int]int, scale ScaleFactors) []sparse.Triplet[T] {
	invA := scalar.FromReal[T](1 / scale.A)
	entries := make([]sparse.Triplet[T], 0, source.NNZ()+len(order))
	for newRow, oldRow := range order {
		cols, vals := source.Row(oldRow)
		for k, oldCol := range cols {
			newCol, ok := oldToNew[oldCol]
			if !ok {
				continue // outside the light cone
			}
			entries = append(entries, sparse.Triplet[T]{Row: newRow, Col: newCol, Val: vals[k] * invA})
		}
	}
	if scale.B != 0 {
		shift := scalar.FromReal[T](-scale.B / scale.A)
		for i := range order {
			entries = append(entries, sparse.Triplet[T]{Row: i, Col: i, Val: shift})
		}
	}
	return entries
}

// mapQuery translates the query indices into the optimized labeling.
func (o *OptimizedOperator[T]) mapQuery(q Query, oldToNew map[int]int) error {
	row, ok := oldToNew[q.Row]
	if !ok {
		return apperrors.NewInvariantError("query row %d missing from optimized view", q.Row)
	}
	cols := make([]int, len(q.Cols))
	for i, c := range q.Cols {
		mc, ok := oldToNew[c]
		if !ok {
			return apperrors.NewInvariantError("query column %d missing from optimized view", c)
		}
		cols[i] = mc
	}
	o.mappedRow = row
	o.mappedCols = cols
	return nil
}

// Dim returns the dimension of the optimized view.
func (o *OptimizedOperator[T]) Dim() int { return o.csr.Dim() }

// MappedRow returns the query row in the optimized labeling.
func (o *OptimizedOperator[T]) MappedRow() int { return o.mappedRow }

// MappedCols returns the query columns in the optimized labeling.
func (o *OptimizedOperator[T]) MappedCols() []int { return o.mappedCols }

// kernelFor returns the multiply kernel for the configured layout.
func (o *OptimizedOperator[T]) kernelFor(format MatrixFormat) matvecKernel[T] {
	if format == FormatELL && o.ell != nil {
		return o.ell
	}
	return o.csr
}

// rowLimit returns the number of rows the recursion must update at the
// given step: the light-cone prefix when optimal sizing is on, the full
// view otherwise.
func (o *OptimizedOperator[T]) rowLimit(step int) int {
	if !o.cfg.OptimalSize {
		return o.csr.Dim()
	}
	return o.frontier.SizeAt(step)
}

// PopulateStats records the per-query cost accounting: optimized size,
// nonzero throughput, layout memory, optimization time.
func (o *OptimizedOperator[T]) PopulateStats(stats *Stats, numMoments int, cfg AlgorithmConfig) {
	if o.unbilled {
		stats.OptimizeElapsed += o.elapsed
		o.unbilled = false
	}
	stats.FullSize = o.source.Dim()
	stats.OptimizedSize = o.csr.Dim()
	stats.NumMoments = numMoments

	// Diagonal recursions visit the matrix once per moment pair.
	ops := int64(o.csr.NNZ()) * int64(numMoments)
	if o.query.IsDiagonal() || o.query.Row < 0 {
		ops /= 2 // the diagonal recursion yields two moments per pass
	}
	stats.MatrixOps = ops

	layout := o.kernelFor(cfg.Format)
	stats.MatrixMemory = layout.MemoryFootprint()
	var elem T
	elemSize := int64(8)
	if _, ok := any(elem).(complex128); ok {
		elemSize = 16
	}
	stats.VectorMemory = 2 * int64(o.csr.Dim()) * elemSize
}
