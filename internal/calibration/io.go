package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spectralgo/kpmcalc/internal/cli"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results FormatResults) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sDimension Range%s    │ %sLayout%s\t%sSpeedup%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 20), strings.Repeat("─", 22))
	for _, r := range results.BySize {
		rangeLabel := fmt.Sprintf("%d-%d", r.MinDim, r.MaxDim)
		highlight := ""
		if r.Format == results.PreferredFormat {
			highlight = fmt.Sprintf(" %s(Preferred)%s", cli.ColorGreen(), cli.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-18s%s │ %s%s%s\t%s%.2fx%s%s\n",
			cli.ColorCyan(), rangeLabel, cli.ColorReset(),
			cli.ColorYellow(), r.Format, cli.ColorReset(),
			cli.ColorGreen(), r.Speedup, cli.ColorReset(), highlight)
	}
	tw.Flush()
	fmt.Fprintf(out, "\nConfidence: %.0f%%, total time: %s\n",
		results.Confidence*100, results.Duration.Round(time.Millisecond))
}
