package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spectralgo/kpmcalc/internal/calibration"
	"github.com/spectralgo/kpmcalc/internal/cli"
	"github.com/spectralgo/kpmcalc/internal/config"
	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/kpm"
	"github.com/spectralgo/kpmcalc/internal/lattice"
	"github.com/spectralgo/kpmcalc/internal/orchestration"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/server"
	"github.com/spectralgo/kpmcalc/internal/sparse"
	"github.com/spectralgo/kpmcalc/internal/ui"
)

// Application represents the kpmcalc application instance.
// It encapsulates the configuration and provides methods to run
// the application in various modes (CLI, server, calibration).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	// args[0] is program name, args[1:] are the actual arguments
	programName := "kpmcalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
// It dispatches to the appropriate handler (completion, server, calibration
// or CLI query).
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Handle completion script generation
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)

	// Server mode
	if a.Config.ServerMode {
		return a.runServer()
	}

	// Calibration mode
	if a.Config.Calibrate {
		return calibration.RunCalibration(ctx, out, a.Config.CalibrationProfile)
	}

	// Standard CLI query mode
	return a.runQuery(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	srv := server.NewServer(a.Config)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runQuery builds the configured operator and answers the configured query.
// The flux lattice produces a complex operator; every other model is real.
// The scalar type is fixed here so the rest of the pipeline stays generic.
func (a *Application) runQuery(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	if a.Config.Lattice == "flux" {
		h, err := lattice.ChainWithFlux(a.Config.Sites, a.Config.Hopping, a.Config.Flux)
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		return executeQuery(ctx, a, h, out)
	}

	h, err := a.buildRealOperator()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return executeQuery(ctx, a, h, out)
}

// buildRealOperator constructs the real-valued model Hamiltonians.
func (a *Application) buildRealOperator() (*sparse.CSR[float64], error) {
	cfg := a.Config
	switch cfg.Lattice {
	case "square":
		width := cfg.Width
		if width == 0 {
			width = cfg.Sites
		}
		return lattice.Square(cfg.Sites, width, cfg.Hopping)
	case "disordered":
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		return lattice.Disordered(cfg.Sites, cfg.Hopping, cfg.Disorder, rng.Float64)
	default:
		return lattice.Chain(cfg.Sites, cfg.Hopping, cfg.Onsite)
	}
}

// executeQuery runs the configured query on the given operator and renders
// the outcome according to the output options.
func executeQuery[T scalar.Scalar](ctx context.Context, a *Application, h *sparse.CSR[T], out io.Writer) int {
	cfg := a.Config

	formats := resolveFormats(cfg, h.Dim(), h.NNZ(), h.MaxRowWidth())

	// Skip verbose output in quiet and JSON modes
	if !cfg.JSONOutput && !cfg.Quiet {
		cli.PrintExecutionConfig(cfg, h.Dim(), out)
		names := make([]string, len(formats))
		for i, f := range formats {
			names[i] = f.String()
		}
		cli.PrintExecutionMode(names, out)
	}

	// In quiet and JSON modes, use a discard writer for progress display
	progressOut := out
	if cfg.Quiet || cfg.JSONOutput {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteQueries(ctx, h, cfg, formats, progressOut)

	best := orchestration.BestResult(results)
	if best == nil {
		var firstErr error
		for i := range results {
			if results[i].Err != nil {
				firstErr = results[i].Err
				break
			}
		}
		return apperrors.HandleComputeError(firstErr, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	// Handle JSON output
	if cfg.JSONOutput {
		if err := cli.PrintJSONResult(out, best.Res); err != nil {
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}

	// Comparison mode cross-checks the backends before displaying
	if cfg.Compare {
		exitCode := orchestration.AnalyzeComparisonResults(results, cfg, out)
		if exitCode != apperrors.ExitSuccess {
			return exitCode
		}
		return a.saveIfRequested(best.Res, out)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: cfg.OutputFile,
		Quiet:      cfg.Quiet,
		Details:    cfg.Details,
	}
	if err := cli.DisplayResultWithConfig(out, best.Res, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// saveIfRequested writes the best result to the output file after a
// successful comparison run.
func (a *Application) saveIfRequested(res cli.Result, out io.Writer) int {
	if a.Config.OutputFile == "" {
		return apperrors.ExitSuccess
	}
	outputCfg := cli.OutputConfig{OutputFile: a.Config.OutputFile, Details: a.Config.Details}
	if err := cli.WriteResultToFile(res, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
		cli.ColorGreen(), cli.ColorCyan(), a.Config.OutputFile, cli.ColorReset())
	return apperrors.ExitSuccess
}

// resolveFormats maps the configured layout choice onto the backends to run.
// Comparison mode always runs both layouts; otherwise "auto" consults the
// calibration profile, falling back to the shape heuristic.
func resolveFormats(cfg config.AppConfig, dim, nnz, maxRowWidth int) []kpm.MatrixFormat {
	if cfg.Compare {
		return []kpm.MatrixFormat{kpm.FormatCSR, kpm.FormatELL}
	}
	return []kpm.MatrixFormat{
		calibration.ResolveFormat(cfg.Format, cfg.CalibrationProfile, dim, nnz, maxRowWidth),
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
