// Command kpmcalc computes spectral properties of sparse Hermitian
// operators: local and total densities of states and Green's function
// matrix elements, via Chebyshev polynomial expansion.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spectralgo/kpmcalc/internal/app"
	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	// --version works in any position and short-circuits everything else
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	return application.Run(context.Background(), os.Stdout)
}
