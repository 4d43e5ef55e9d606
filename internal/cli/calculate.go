package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spectralgo/kpmcalc/internal/config"
)

// DescribeQuery renders the human-readable target of the configured query,
// used in headings and result labels.
//
// Parameters:
//   - cfg: The application configuration.
//   - dim: The operator dimension (resolves the default LDOS site).
//
// Returns:
//   - string: A short description like "site 42" or "element (3, 7)".
func DescribeQuery(cfg config.AppConfig, dim int) string {
	switch cfg.Query {
	case "ldos":
		site := cfg.Site
		if site < 0 {
			site = dim / 2
		}
		return fmt.Sprintf("site %d", site)
	case "greens":
		return fmt.Sprintf("element (%d, %d)", cfg.Row, cfg.Col)
	default:
		return fmt.Sprintf("%d random realizations", cfg.NumRandom)
	}
}

// PrintExecutionConfig displays the current execution configuration to the
// user. It shows the model, the spectral query, the kernel settings and
// environment details.
//
// Parameters:
//   - cfg: The application configuration.
//   - dim: The dimension of the constructed operator.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, dim int, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Model: %s%s%s lattice with %s%d%s sites.\n",
		ColorMagenta(), cfg.Lattice, ColorReset(), ColorCyan(), dim, ColorReset())
	writeOut(out, "Query: %s%s%s (%s) with broadening %s%g%s and the %s%s%s kernel.\n",
		ColorMagenta(), cfg.Query, ColorReset(), DescribeQuery(cfg, dim),
		ColorYellow(), cfg.Broadening, ColorReset(),
		ColorGreen(), cfg.Kernel, ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s, timeout %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(),
		ColorCyan(), runtime.Version(), ColorReset(),
		ColorYellow(), cfg.Timeout, ColorReset())
}

// PrintExecutionMode displays the execution mode (single backend vs
// comparison of all sparse layouts).
//
// Parameters:
//   - backends: The names of the backends that will be executed.
//   - out: The writer for standard output.
func PrintExecutionMode(backends []string, out io.Writer) {
	var modeDesc string
	if len(backends) > 1 {
		modeDesc = "Cross-checked comparison of all sparse layouts"
	} else {
		modeDesc = fmt.Sprintf("Single computation with the %s%s%s layout",
			ColorGreen(), backends[0], ColorReset())
	}
	writeOut(out, "Execution mode: %s.\n", modeDesc)
	writeOut(out, "\n--- Starting Execution ---\n")
}

// writeOut writes a formatted string to the output writer.
//
// Parameters:
//   - out: The destination writer.
//   - format: The format string (see fmt.Printf).
//   - a: Arguments for the format string.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
