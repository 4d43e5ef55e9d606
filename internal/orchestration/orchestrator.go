// Package orchestration coordinates the execution of spectral queries
// across one or more sparse-layout backends and compares their results.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spectralgo/kpmcalc/internal/cli"
	"github.com/spectralgo/kpmcalc/internal/config"
	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/kpm"
	"github.com/spectralgo/kpmcalc/internal/lattice"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
	"github.com/spectralgo/kpmcalc/internal/ui"
)

// QueryResult encapsulates the outcome of a single spectral query on one
// backend. It serves as a standardized container for results from different
// sparse layouts, facilitating comparison and reporting.
type QueryResult struct {
	// Name is the identifier of the sparse layout used (e.g., "csr").
	Name string
	// Res is the computed spectrum. Its slices are nil if an error occurred.
	Res cli.Result
	// Duration is the time taken to complete the query.
	Duration time.Duration
	// Err contains any error that occurred during the query.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the
// progress channel. A larger buffer reduces the likelihood of blocking
// computation goroutines when the UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// MismatchTolerance is the relative deviation allowed between backends
// before their results are declared inconsistent. The layouts accumulate
// the same sums in different orders, so bit-identity cannot be expected.
const MismatchTolerance = 1e-9

// ExecuteQueries orchestrates the execution of the configured spectral
// query against each requested sparse layout.
//
// Every backend receives its own engine instance seeded identically, so
// stochastic queries draw the same random starters and the comparison is
// meaningful. Backends run concurrently; progress updates are multiplexed
// onto a single display goroutine.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - h: The operator to query.
//   - cfg: The application configuration (query, grid, kernel, etc.).
//   - formats: The sparse layouts to execute.
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []QueryResult: A slice containing the result from each backend.
func ExecuteQueries[T scalar.Scalar](ctx context.Context, h *sparse.CSR[T], cfg config.AppConfig, formats []kpm.MatrixFormat, out io.Writer) []QueryResult {
	results := make([]QueryResult, len(formats))
	progressChan := make(chan kpm.ProgressUpdate, len(formats)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, out)

	// A shared seed keeps the stochastic starters identical across
	// backends. Zero means the engine would derive one per instance.
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := new(errgroup.Group)
	for i, format := range formats {
		i, format := i, format
		g.Go(func() error {
			startTime := time.Now()
			res, err := runQuery(ctx, h, cfg, format, seed, kpm.NewChannelObserver(progressChan))
			results[i] = QueryResult{
				Name: format.String(), Res: res, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// runQuery builds an engine for one backend and answers the configured
// query. Cancellation is honored between pipeline stages: the engine
// itself runs to completion, but an expired context aborts before its
// result is committed.
func runQuery[T scalar.Scalar](ctx context.Context, h *sparse.CSR[T], cfg config.AppConfig, format kpm.MatrixFormat, seed int64, observer kpm.ProgressObserver) (cli.Result, error) {
	engineCfg := cfg.ToEngineConfig(format)
	engineCfg.Seed = seed

	eng, err := kpm.New(h, engineCfg, kpm.WithObserver[T](observer))
	if err != nil {
		return cli.Result{}, err
	}

	energies := lattice.EnergyGrid(cfg.GridMin, cfg.GridMax, cfg.Points)
	res := cli.Result{
		Query:    cfg.Query,
		Label:    cli.DescribeQuery(cfg, h.Dim()),
		Backend:  format.String(),
		Energies: energies,
	}

	type answer struct {
		values  []float64
		complx  []complex128
		report  string
		elapsed time.Duration
		err     error
	}
	done := make(chan answer, 1)
	go func() {
		start := time.Now()
		var a answer
		switch cfg.Query {
		case "dos":
			a.values, a.err = eng.DOS(energies, cfg.Broadening)
		case "greens":
			a.complx, a.err = eng.Greens(cfg.Row, cfg.Col, energies, cfg.Broadening)
		default:
			site := cfg.Site
			if site < 0 {
				site = h.Dim() / 2
			}
			a.values, a.err = eng.LDOS(site, energies, cfg.Broadening)
		}
		a.report = eng.Report(!cfg.Details)
		a.elapsed = time.Since(start)
		done <- a
	}()

	select {
	case <-ctx.Done():
		return cli.Result{}, ctx.Err()
	case a := <-done:
		if a.err != nil {
			return cli.Result{}, a.err
		}
		res.Values = a.values
		res.Complex = a.complx
		res.Report = a.report
		res.Elapsed = a.elapsed
		return res, nil
	}
}

// AnalyzeComparisonResults processes the results from multiple backends and
// generates a summary report.
//
// It sorts the results by execution time, validates consistency across
// successful queries within MismatchTolerance, and displays a comparative
// table. It handles the logic for determining global success or failure
// based on the individual outcomes.
//
// Parameters:
//   - results: The slice of query results to analyze.
//   - cfg: The application configuration.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []QueryResult, cfg config.AppConfig, out io.Writer) int {
	sort.Slice(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstValid *QueryResult
	var firstError error
	successCount := 0

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sLayout%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())

	for i := range results {
		res := &results[i]
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			if firstError == nil {
				firstError = res.Err
			}
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			successCount++
			if firstValid == nil {
				firstValid = res
			}
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No backend could complete the query.\n")
		return apperrors.HandleComputeError(firstError, 0, out, cli.CLIColorProvider{})
	}

	mismatch := false
	for i := range results {
		if results[i].Err == nil && !resultsAgree(firstValid.Res, results[i].Res) {
			mismatch = true
			break
		}
	}
	if mismatch {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! An inconsistency was detected between the backend results.")
		return apperrors.ExitErrorMismatch
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.")
	cli.DisplaySpectrum(firstValid.Res, cfg.Details, out)
	return apperrors.ExitSuccess
}

// resultsAgree compares two spectra point by point within the relative
// mismatch tolerance.
func resultsAgree(a, b cli.Result) bool {
	if len(a.Values) != len(b.Values) || len(a.Complex) != len(b.Complex) {
		return false
	}
	for i := range a.Values {
		if !closeEnough(a.Values[i], b.Values[i]) {
			return false
		}
	}
	for i := range a.Complex {
		if !closeEnough(real(a.Complex[i]), real(b.Complex[i])) ||
			!closeEnough(imag(a.Complex[i]), imag(b.Complex[i])) {
			return false
		}
	}
	return true
}

func closeEnough(x, y float64) bool {
	diff := math.Abs(x - y)
	scale := math.Max(math.Abs(x), math.Abs(y))
	return diff <= MismatchTolerance*math.Max(scale, 1)
}

// BestResult returns the fastest successful result, or nil when every
// backend failed.
func BestResult(results []QueryResult) *QueryResult {
	var best *QueryResult
	for i := range results {
		if results[i].Err == nil {
			if best == nil || results[i].Duration < best.Duration {
				best = &results[i]
			}
		}
	}
	return best
}
