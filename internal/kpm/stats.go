package kpm

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Stats accumulates the cost accounting of every query answered by a
// Strategy instance: phase timings, optimized-view geometry and nonzero
// throughput. Values add up across queries until an explicit Reset; failure
// paths never touch them.
type Stats struct {
	// OptimizeElapsed is the accumulated operator-optimization time.
	OptimizeElapsed time.Duration
	// MomentsElapsed is the accumulated moment-recursion time.
	MomentsElapsed time.Duration
	// ReconstructElapsed is the accumulated reconstruction time.
	ReconstructElapsed time.Duration

	// FullSize and OptimizedSize record the operator dimension and the
	// light-cone submatrix dimension of the last query.
	FullSize      int
	OptimizedSize int
	// NumMoments is the expansion order of the last query.
	NumMoments int
	// MatrixOps counts sparse-element operations of the last query
	// (nnz x recursion passes), the numerator of the throughput figure.
	MatrixOps int64
	// MatrixMemory and VectorMemory are the working-set sizes in bytes of
	// the last query's layout and recursion vectors.
	MatrixMemory int64
	VectorMemory int64
	// Multiplier is the number of stochastic realizations folded into the
	// last moment timing (1 for deterministic queries).
	Multiplier int
}

// Reset zeroes all accumulated counters and timers.
func (s *Stats) Reset() {
	*s = Stats{}
}

// throughput returns sparse operations per second of the accumulated moment
// time, or 0 when nothing has been timed yet.
func (s *Stats) throughput() float64 {
	if s.MomentsElapsed <= 0 {
		return 0
	}
	ops := s.MatrixOps
	if s.Multiplier > 1 {
		ops *= int64(s.Multiplier)
	}
	return float64(ops) / s.MomentsElapsed.Seconds()
}

// Report renders the accumulated statistics. The compact form is a
// pipe-delimited one-liner meant to be concatenated with the bounds report;
// the verbose form is a labeled multi-line table. Diagnostics only, not
// machine-parsed.
func (s *Stats) Report(shortform bool) string {
	if shortform {
		report := fmt.Sprintf("%v/%v [%s]|%s @ %seps [%s]|[%s]",
			s.OptimizedSize, s.FullSize, prettyDuration(s.OptimizeElapsed),
			withSuffix(float64(s.NumMoments)), withSuffix(s.throughput()),
			prettyDuration(s.MomentsElapsed), prettyDuration(s.ReconstructElapsed))
		if s.Multiplier > 1 {
			report += fmt.Sprintf("|x%d", s.Multiplier)
		}
		return report
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Optimized size:\t%d of %d\n", s.OptimizedSize, s.FullSize)
	fmt.Fprintf(tw, "Moments:\t%d\n", s.NumMoments)
	if s.Multiplier > 1 {
		fmt.Fprintf(tw, "Random realizations:\t%d\n", s.Multiplier)
	}
	fmt.Fprintf(tw, "Matrix memory:\t%s\n", formatBytes(s.MatrixMemory))
	fmt.Fprintf(tw, "Vector memory:\t%s\n", formatBytes(s.VectorMemory))
	fmt.Fprintf(tw, "Optimization time:\t%s\n", prettyDuration(s.OptimizeElapsed))
	fmt.Fprintf(tw, "Moments time:\t%s (%seps)\n", prettyDuration(s.MomentsElapsed), withSuffix(s.throughput()))
	fmt.Fprintf(tw, "Reconstruction time:\t%s\n", prettyDuration(s.ReconstructElapsed))
	tw.Flush()
	return b.String()
}

// withSuffix formats a count with a metric suffix (12.3k, 4.56M, 7.89G).
func withSuffix(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fG", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// formatBytes renders a byte count in a human unit.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// prettyDuration rounds a duration to a readable precision.
func prettyDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.Round(10 * time.Nanosecond).String()
	}
}
