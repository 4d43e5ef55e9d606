package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spectralgo/kpmcalc/internal/cli"
	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/kpm"
)

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is the path to save/load the calibration profile.
	// If empty, uses the default path.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
	// LoadProfile indicates whether to try loading an existing profile.
	LoadProfile bool
}

// RunCalibration executes the layout micro-benchmark suite to determine the
// preferred sparse layout for the current hardware.
//
// It times the fused multiply kernel of every layout at several operator
// sizes, records the per-size winners and writes them to the calibration
// profile, which "auto" format selection consults on later runs.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//   - profilePath: The profile path ("" for the default).
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func RunCalibration(ctx context.Context, out io.Writer, profilePath string) int {
	return RunCalibrationWithOptions(ctx, out, CalibrationOptions{
		ProfilePath: profilePath,
		SaveProfile: true,
		LoadProfile: false, // Full calibration should run fresh
	})
}

// RunCalibrationWithOptions executes calibration with the specified options.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Preferred Sparse Layout ---\n")

	// Try to load existing profile if requested
	if opts.LoadProfile {
		profile, loaded := LoadOrCreateProfile(opts.ProfilePath)
		if loaded && profile.IsValid() {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				cli.ColorGreen(), GetDefaultProfilePath(), cli.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			fmt.Fprintf(out, "\n%s✅ Using cached calibration: %s--format %s%s\n",
				cli.ColorGreen(), cli.ColorYellow(), profile.PreferredFormat, cli.ColorReset())
			return apperrors.ExitSuccess
		}
	}

	calibrationStart := time.Now()
	results, err := QuickCalibrate(ctx)
	if err != nil {
		fmt.Fprintf(out, "%s❌ Calibration failed: %v%s\n", cli.ColorRed(), err, cli.ColorReset())
		return apperrors.HandleComputeError(err, time.Since(calibrationStart), out, cli.CLIColorProvider{})
	}
	if results.Confidence == 0 || len(results.BySize) == 0 {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid measurements obtained.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	// Print results table
	printCalibrationResults(out, results)

	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s--format %s%s\n",
		cli.ColorGreen(), cli.ColorYellow(), results.PreferredFormat, cli.ColorReset())

	// Save profile if requested
	if opts.SaveProfile {
		profile := NewProfile()
		profile.PreferredFormat = results.PreferredFormat
		for _, r := range results.BySize {
			profile.AddSizeFormat(r)
		}
		profile.CalibrationTime = time.Since(calibrationStart).String()

		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n",
				cli.ColorYellow(), err, cli.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n",
				cli.ColorGreen(), GetDefaultProfilePath(), cli.ColorReset())
		}
	}

	return apperrors.ExitSuccess
}

// ResolveFormat turns the configured layout choice into a concrete format.
// Explicit choices pass through; "auto" consults the calibration profile
// when a valid one exists and falls back to the shape heuristic otherwise.
//
// Parameters:
//   - choice: The configured layout ("csr", "ell" or "auto").
//   - profilePath: The calibration profile path ("" for the default).
//   - dim, nnz, maxRowWidth: The operator shape for the heuristic fallback.
//
// Returns:
//   - kpm.MatrixFormat: The resolved concrete layout.
func ResolveFormat(choice, profilePath string, dim, nnz, maxRowWidth int) kpm.MatrixFormat {
	name := choice
	if choice == "auto" {
		if profile, loaded := LoadOrCreateProfile(profilePath); loaded && profile.IsValid() {
			name = profile.FormatForDim(dim)
		}
		if name == "auto" || name == "" {
			name = EstimateFormat(dim, nnz, maxRowWidth)
		}
	}
	if name == "ell" {
		return kpm.FormatELL
	}
	return kpm.FormatCSR
}
