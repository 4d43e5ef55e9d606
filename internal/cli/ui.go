// The cli package provides functions for building a command-line interface
// (CLI) for the spectral calculation application. It handles the
// asynchronous display of stochastic progress and formats the computed
// spectra for a clear and readable presentation.
package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/spectralgo/kpmcalc/internal/kpm"
	"github.com/spectralgo/kpmcalc/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds
// for durations less than a second, and the default string representation
// otherwise. This approach provides a more human-readable output for short
// durations.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
	// SparklineWidth is the character width of the spectrum preview.
	SparklineWidth = 64
)

// Color functions return ANSI escape codes from the current theme.
// They delegate to the ui package to reduce coupling.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return ui.GetCurrentTheme().Underline }

// CLIColorProvider adapts the theme colors to the apperrors.ColorProvider
// interface used by the error handler.
type CLIColorProvider struct{}

// Yellow returns the warning color from the current theme.
func (CLIColorProvider) Yellow() string { return ColorYellow() }

// Reset returns the reset escape code from the current theme.
func (CLIColorProvider) Reset() string { return ColorReset() }

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of the `DisplayProgress` function from a
// specific spinner implementation, facilitating easier testing and
// maintenance. It defines the essential controls for a spinner: starting,
// stopping, and updating its status message.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface. This adapter allows the `spinner` library to be used
// within the application's CLI framework.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
//
// Parameters:
//   - suffix: The string to display.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(progress float64, length int) string {
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0.0 {
		progress = 0.0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress manages the asynchronous display of a spinner and progress
// bar while stochastic realizations run. It is designed to run in a
// dedicated goroutine and shuts down gracefully when the progress channel is
// closed.
//
// Deterministic queries emit no updates, so the spinner simply animates
// until the channel closes.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving realization progress updates.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan kpm.ProgressUpdate, out io.Writer) {
	defer wg.Done()

	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last kpm.ProgressUpdate
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				if !spinnerStopped {
					s.Stop()
					spinnerStopped = true
				}
				if last.Total > 1 {
					bar := progressBar(1.0, ProgressBarWidth)
					fmt.Fprintf(out, "Realizations: %d/%d [%s]\n", last.Total, last.Total, bar)
				}
				return
			}
			last = update
		case <-ticker.C:
			if last.Total > 1 {
				frac := float64(last.Completed) / float64(last.Total)
				bar := progressBar(frac, ProgressBarWidth)
				s.UpdateSuffix(fmt.Sprintf(" Realizations: %d/%d [%s]", last.Completed, last.Total, bar))
			} else {
				s.UpdateSuffix(" computing spectrum...")
			}
		}
	}
}

// sparklineLevels are the block characters used to preview a spectrum.
var sparklineLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a compact single-line preview of a sampled curve,
// resampled to the given character width. Non-finite samples render as
// spaces. An empty or all-zero curve renders flat.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return ""
	}
	max := 0.0
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v > max {
			max = v
		}
	}
	var builder strings.Builder
	builder.Grow(width)
	for i := 0; i < width; i++ {
		v := values[i*len(values)/width]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			builder.WriteRune(' ')
			continue
		}
		level := 0
		if max > 0 {
			level = int(v / max * float64(len(sparklineLevels)-1))
		}
		if level < 0 {
			level = 0
		}
		builder.WriteRune(sparklineLevels[level])
	}
	return builder.String()
}

// DisplaySpectrum formats and prints a computed spectrum: a sparkline
// preview, the peak location and, with details enabled, the integrated
// weight and grid metadata.
//
// Parameters:
//   - res: The computed result to display.
//   - details: If true, prints detailed curve metrics.
//   - out: The io.Writer for the output.
func DisplaySpectrum(res Result, details bool, out io.Writer) {
	values := res.Magnitudes()
	fmt.Fprintf(out, "\n%s--- %s ---%s\n", ColorBold(), res.Title(), ColorReset())
	fmt.Fprintf(out, "  %s%s%s\n", ColorGreen(), Sparkline(values, SparklineWidth), ColorReset())
	fmt.Fprintf(out, "  E ∈ [%s%.4g%s, %s%.4g%s], %s%d%s points\n",
		ColorCyan(), res.Energies[0], ColorReset(),
		ColorCyan(), res.Energies[len(res.Energies)-1], ColorReset(),
		ColorCyan(), len(res.Energies), ColorReset())

	peakIdx := 0
	for i, v := range values {
		if v > values[peakIdx] {
			peakIdx = i
		}
	}
	fmt.Fprintf(out, "  Peak: %s%.6g%s at E = %s%.4g%s\n",
		ColorGreen(), values[peakIdx], ColorReset(),
		ColorMagenta(), res.Energies[peakIdx], ColorReset())

	if details {
		fmt.Fprintf(out, "\n%s--- Detailed result analysis ---%s\n", ColorBold(), ColorReset())
		durationStr := FormatExecutionDuration(res.Elapsed)
		if res.Elapsed == 0 {
			durationStr = "< 1µs"
		}
		fmt.Fprintf(out, "Computation time     : %s%s%s\n", ColorGreen(), durationStr, ColorReset())
		fmt.Fprintf(out, "Integrated weight    : %s%.6g%s\n", ColorCyan(), res.IntegratedWeight(), ColorReset())
		if len(res.Complex) > 0 {
			fmt.Fprintf(out, "Values               : complex (retarded Green's function)\n")
		}
	}
}
