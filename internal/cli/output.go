// Package cli provides output utilities for exporting computed spectra.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/integrate"
)

// Result is the presentation-layer container for one answered spectral
// query: the energy grid plus either a real curve (densities) or a complex
// one (Green's functions), never both.
type Result struct {
	// Query names the computed quantity ("ldos", "dos" or "greens").
	Query string
	// Label describes the target, e.g. "site 42" or "element (3, 7)".
	Label string
	// Backend names the sparse layout that answered the query.
	Backend string
	// Energies is the output energy grid, in input order.
	Energies []float64
	// Values holds the real curve of density queries.
	Values []float64
	// Complex holds the complex curve of Green's function queries.
	Complex []complex128
	// Elapsed is the wall-clock duration of the query.
	Elapsed time.Duration
	// Report is the engine's rendered bounds-and-statistics summary.
	Report string
}

// Title renders a human-readable heading for the result.
func (r Result) Title() string {
	switch r.Query {
	case "ldos":
		return "Local density of states, " + r.Label
	case "dos":
		return "Density of states"
	case "greens":
		return "Green's function, " + r.Label
	default:
		return r.Query
	}
}

// Magnitudes returns the displayable real curve: the values themselves for
// density queries, the negative imaginary part (the spectral function, up
// to a factor of pi) for Green's functions.
func (r Result) Magnitudes() []float64 {
	if len(r.Complex) == 0 {
		return r.Values
	}
	out := make([]float64, len(r.Complex))
	for i, z := range r.Complex {
		out[i] = -imag(z)
	}
	return out
}

// IntegratedWeight returns the trapezoidal integral of the real curve over
// the energy grid. For a full-range DOS grid this approximates the operator
// dimension; for an LDOS it approximates one.
func (r Result) IntegratedWeight() float64 {
	m := r.Magnitudes()
	if len(m) < 2 || len(m) != len(r.Energies) {
		return 0
	}
	return integrate.Trapezoidal(r.Energies, m)
}

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// Quiet mode suppresses verbose output.
	Quiet bool
	// Details shows detailed curve metrics.
	Details bool
}

// WriteResultToFile writes a computed spectrum to a file as commented
// columnar data: energy and value(s), one grid point per line.
//
// Parameters:
//   - res: The computed result.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(res Result, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	// Write header
	fmt.Fprintf(file, "# %s\n", res.Title())
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Backend: %s\n", res.Backend)
	fmt.Fprintf(file, "# Duration: %s\n", res.Elapsed)
	fmt.Fprintf(file, "# Points: %d\n", len(res.Energies))
	if len(res.Complex) > 0 {
		fmt.Fprintf(file, "# Columns: energy re(G) im(G)\n\n")
		for i, e := range res.Energies {
			fmt.Fprintf(file, "%.12g %.12g %.12g\n", e, real(res.Complex[i]), imag(res.Complex[i]))
		}
		return nil
	}
	fmt.Fprintf(file, "# Columns: energy value\n\n")
	for i, e := range res.Energies {
		fmt.Fprintf(file, "%.12g %.12g\n", e, res.Values[i])
	}
	return nil
}

// DisplayQuietResult outputs a result in quiet mode: bare columnar data
// suitable for piping into plotting tools.
//
// Parameters:
//   - out: The output writer.
//   - res: The computed result.
func DisplayQuietResult(out io.Writer, res Result) {
	if len(res.Complex) > 0 {
		for i, e := range res.Energies {
			fmt.Fprintf(out, "%.12g %.12g %.12g\n", e, real(res.Complex[i]), imag(res.Complex[i]))
		}
		return
	}
	for i, e := range res.Energies {
		fmt.Fprintf(out, "%.12g %.12g\n", e, res.Values[i])
	}
}

// jsonResult is the JSON wire shape of a computed spectrum.
type jsonResult struct {
	Query    string       `json:"query"`
	Label    string       `json:"label,omitempty"`
	Backend  string       `json:"backend,omitempty"`
	Duration string       `json:"duration"`
	Energies []float64    `json:"energies"`
	Values   []float64    `json:"values,omitempty"`
	Real     []float64    `json:"greens_real,omitempty"`
	Imag     []float64    `json:"greens_imag,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// PrintJSONResult formats a computed spectrum as indented JSON.
//
// Parameters:
//   - out: The output writer.
//   - res: The computed result.
//
// Returns:
//   - error: An error if encoding fails.
func PrintJSONResult(out io.Writer, res Result) error {
	jr := jsonResult{
		Query:    res.Query,
		Label:    res.Label,
		Backend:  res.Backend,
		Duration: res.Elapsed.String(),
		Energies: res.Energies,
		Values:   res.Values,
	}
	if len(res.Complex) > 0 {
		jr.Real = make([]float64, len(res.Complex))
		jr.Imag = make([]float64, len(res.Complex))
		for i, z := range res.Complex {
			jr.Real[i] = real(z)
			jr.Imag[i] = imag(z)
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}

// DisplayResultWithConfig displays a result with the given output
// configuration. This is a unified function that handles all output modes.
//
// Parameters:
//   - out: The output writer.
//   - res: The computed result.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultWithConfig(out io.Writer, res Result, config OutputConfig) error {
	if config.Quiet {
		DisplayQuietResult(out, res)
	} else {
		DisplaySpectrum(res, config.Details, out)
	}

	// Save to file if requested
	if config.OutputFile != "" {
		if err := WriteResultToFile(res, config); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
				ColorGreen(), ColorCyan(), config.OutputFile, ColorReset())
		}
	}

	return nil
}
