// Package calibration provides performance calibration for the spectral
// engine. This file implements fast micro-benchmarks comparing the sparse
// layouts on the multiply kernel that dominates every query.
package calibration

import (
	"context"
	"time"

	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// ─────────────────────────────────────────────────────────────────────────────
// Micro-benchmark Configuration
// ─────────────────────────────────────────────────────────────────────────────

const (
	// MicroBenchIterations is the number of fused multiplies per test for
	// averaging.
	MicroBenchIterations = 50

	// MicroBenchTimeout is the maximum time for the entire micro-benchmark
	// suite.
	MicroBenchTimeout = 2 * time.Second

	// microBenchBandwidth is the hop range of the synthetic banded operator
	// the benchmark multiplies. Five neighbors per row approximates the
	// fill of typical tight-binding Hamiltonians.
	microBenchBandwidth = 2
)

// MicroBenchDims defines the operator dimensions to benchmark. The sizes
// span the cache-residency regimes where the layout preference can flip.
var MicroBenchDims = []int{512, 4096, 32768}

// ─────────────────────────────────────────────────────────────────────────────
// Micro-benchmark Types
// ─────────────────────────────────────────────────────────────────────────────

// MicroBenchmark performs fast tests to determine the preferred sparse
// layout per operator size.
type MicroBenchmark struct {
	// Dims are the operator dimensions to test (default: MicroBenchDims)
	Dims []int
	// Iterations is the number of multiplies per test (default: MicroBenchIterations)
	Iterations int
	// Timeout is the maximum duration for the entire benchmark
	Timeout time.Duration
}

// FormatResults contains the measured layout preferences from the
// micro-benchmarks.
type FormatResults struct {
	// PreferredFormat is the overall winner ("csr" or "ell")
	PreferredFormat string
	// BySize holds the per-dimension preferences
	BySize []SizeFormat
	// Confidence is a score from 0-1 indicating result reliability
	Confidence float64
	// Duration is how long the micro-benchmark took
	Duration time.Duration
}

// benchResult holds timing data for a single layout test.
type benchResult struct {
	dim      int
	format   string
	duration time.Duration
	err      error
}

// ─────────────────────────────────────────────────────────────────────────────
// Micro-benchmark Implementation
// ─────────────────────────────────────────────────────────────────────────────

// NewMicroBenchmark creates a new MicroBenchmark with default settings.
func NewMicroBenchmark() *MicroBenchmark {
	return &MicroBenchmark{
		Dims:       MicroBenchDims,
		Iterations: MicroBenchIterations,
		Timeout:    MicroBenchTimeout,
	}
}

// RunQuick performs rapid micro-benchmarks to determine the preferred
// sparse layout. It times the fused multiply kernel of every layout at
// several operator sizes and derives per-size preferences.
//
// Returns:
//   - FormatResults: The measured layout preferences
//   - error: An error if the benchmark failed critically
func (mb *MicroBenchmark) RunQuick(ctx context.Context) (FormatResults, error) {
	start := time.Now()

	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, mb.Timeout)
	defer cancel()

	results := mb.runTests(ctx)

	// Analyze results to determine per-size preferences
	fr := mb.analyzeResults(results)
	fr.Duration = time.Since(start)

	return fr, nil
}

// runTests executes the multiply kernel tests. The tests run sequentially:
// timing a memory-bound kernel while a sibling test saturates the same
// memory bus would skew both measurements.
func (mb *MicroBenchmark) runTests(ctx context.Context) []benchResult {
	results := make([]benchResult, 0, len(mb.Dims)*2)
	for _, dim := range mb.Dims {
		for _, format := range []string{"csr", "ell"} {
			dur, err := mb.runSingleTest(ctx, dim, format)
			results = append(results, benchResult{dim: dim, format: format, duration: dur, err: err})
			if err != nil && ctx.Err() != nil {
				return results
			}
		}
	}
	return results
}

// runSingleTest times the fused multiply kernel for one layout at one size.
func (mb *MicroBenchmark) runSingleTest(ctx context.Context, dim int, format string) (time.Duration, error) {
	m, err := benchOperator(dim)
	if err != nil {
		return 0, err
	}

	var kernel interface {
		FusedMatVec(dst, src []float64, rows int)
	} = m
	if format == "ell" {
		kernel = sparse.ToELL(m)
	}

	src := make([]float64, dim)
	dst := make([]float64, dim)
	for i := range src {
		src[i] = 1.0 / float64(i+1)
	}

	// Warm up
	kernel.FusedMatVec(dst, src, dim)

	start := time.Now()
	for i := 0; i < mb.Iterations; i++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		kernel.FusedMatVec(dst, src, dim)
		dst, src = src, dst
	}
	return time.Since(start) / time.Duration(mb.Iterations), nil
}

// benchOperator builds a deterministic banded test operator with the
// benchmark bandwidth. The values follow a non-uniform pattern so the
// multiply cannot be optimized away by value caching.
func benchOperator(dim int) (*sparse.CSR[float64], error) {
	entries := make([]sparse.Triplet[float64], 0, dim*(2*microBenchBandwidth+1))
	for i := 0; i < dim; i++ {
		for d := -microBenchBandwidth; d <= microBenchBandwidth; d++ {
			j := i + d
			if j < 0 || j >= dim {
				continue
			}
			entries = append(entries, sparse.Triplet[float64]{
				Row: i, Col: j, Val: 1.0 / float64(1+((i+j)&7)),
			})
		}
	}
	return sparse.FromTriplets(dim, entries)
}

// analyzeResults examines the timings to determine layout preferences.
func (mb *MicroBenchmark) analyzeResults(results []benchResult) FormatResults {
	fr := FormatResults{
		// Conservative default: CSR wastes no memory on padding
		PreferredFormat: "csr",
		Confidence:      0.5,
	}

	// Group timings by dimension
	byDim := make(map[int]map[string]time.Duration)
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if byDim[r.dim] == nil {
			byDim[r.dim] = make(map[string]time.Duration)
		}
		byDim[r.dim][r.format] = r.duration
	}
	if len(byDim) == 0 {
		fr.Confidence = 0.0
		return fr
	}

	ellWins := 0
	for _, dim := range mb.Dims {
		timings := byDim[dim]
		csrDur, haveCSR := timings["csr"]
		ellDur, haveELL := timings["ell"]
		if !haveCSR || !haveELL || csrDur == 0 || ellDur == 0 {
			continue
		}

		winner, speedup := "csr", float64(ellDur)/float64(csrDur)
		if ellDur < csrDur {
			winner, speedup = "ell", float64(csrDur)/float64(ellDur)
		}
		if winner == "ell" {
			ellWins++
		}

		// A sub-5% margin is noise at these iteration counts.
		confidence := 0.9
		if speedup < 1.05 {
			confidence = 0.4
		}
		fr.BySize = append(fr.BySize, SizeFormat{
			MinDim:           rangeFor(dim).MinDim,
			MaxDim:           rangeFor(dim).MaxDim,
			Format:           winner,
			Speedup:          speedup,
			ConfidenceScore:  confidence,
			MeasurementCount: mb.Iterations,
		})
		fr.Confidence += 0.1
	}

	if ellWins*2 > len(fr.BySize) {
		fr.PreferredFormat = "ell"
	}
	if fr.Confidence > 1.0 {
		fr.Confidence = 1.0
	}
	return fr
}

// rangeFor maps a benchmark dimension onto its profile range.
func rangeFor(dim int) SizeFormat {
	for _, r := range DefaultDimRanges {
		if dim >= r.MinDim && dim <= r.MaxDim {
			return SizeFormat{MinDim: r.MinDim, MaxDim: r.MaxDim}
		}
	}
	return SizeFormat{MinDim: 0, MaxDim: 1 << 31}
}

// ─────────────────────────────────────────────────────────────────────────────
// Quick Calibration Function
// ─────────────────────────────────────────────────────────────────────────────

// QuickCalibrate performs a fast calibration using micro-benchmarks.
// This is designed to run in about a second and provide reliable layout
// preferences.
//
// Parameters:
//   - ctx: The context for cancellation
//
// Returns:
//   - FormatResults: The measured layout preferences
//   - error: An error if calibration failed
func QuickCalibrate(ctx context.Context) (FormatResults, error) {
	mb := NewMicroBenchmark()
	return mb.RunQuick(ctx)
}
