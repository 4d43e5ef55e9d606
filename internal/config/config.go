// Package config provides the configuration management for the kpmcalc
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, environment variables and YAML
// preset files, and performs validation on the configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
	"github.com/spectralgo/kpmcalc/internal/kpm"
)

const (
	// EnvPrefix is the prefix for all environment variables used by kpmcalc.
	// Environment variables provide an alternative to CLI flags for
	// configuration, following the 12-Factor App methodology.
	EnvPrefix = "KPMCALC_"
)

// Default configuration values.
// These can be overridden via command-line flags, environment variables or
// a YAML preset file.
const (
	// DefaultQuery is the spectral quantity computed when none is chosen.
	DefaultQuery = "ldos"
	// DefaultLattice is the model Hamiltonian built when none is chosen.
	DefaultLattice = "chain"
	// DefaultSites is the default number of lattice sites.
	DefaultSites = 512
	// DefaultHopping is the default nearest-neighbor hopping amplitude.
	DefaultHopping = 1.0
	// DefaultPoints is the default number of energy-grid points.
	DefaultPoints = 200
	// DefaultBroadening is the default energy broadening.
	DefaultBroadening = 0.05
	// DefaultKernel is the default damping kernel.
	DefaultKernel = "jackson"
	// DefaultTimeout is the default computation timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultFormat selects the sparse layout ("auto" consults the
	// calibration profile and falls back to CSR).
	DefaultFormat = "auto"
)

// AppConfig aggregates the application's configuration parameters, parsed
// from command-line flags. It encapsulates all settings that control the
// execution, from the model Hamiltonian to build, to the spectral query to
// answer, to performance-tuning parameters of the engine.
type AppConfig struct {
	// Query selects the spectral quantity: "ldos", "dos" or "greens".
	Query string
	// Lattice selects the model Hamiltonian: "chain", "square", "flux"
	// or "disordered".
	Lattice string
	// Sites is the number of lattice sites (chain length, or the x extent
	// of the square lattice).
	Sites int
	// Width is the y extent of the square lattice; ignored by chains.
	Width int
	// Hopping is the nearest-neighbor hopping amplitude.
	Hopping float64
	// Onsite is the uniform onsite energy of the chain model.
	Onsite float64
	// Flux is the Peierls phase per hop of the "flux" model, in radians.
	Flux float64
	// Disorder is the Anderson disorder strength of the "disordered" model.
	Disorder float64
	// Site is the site index for LDOS queries; -1 selects the center site.
	Site int
	// Row and Col name the Green's function element for "greens" queries.
	Row, Col int
	// GridMin, GridMax and Points define the energy grid of the output.
	GridMin, GridMax float64
	Points           int
	// Broadening is the requested energy resolution.
	Broadening float64
	// Kernel selects the damping kernel: "jackson" or "lorentz".
	Kernel string
	// Lambda tunes the Lorentz kernel; ignored by Jackson.
	Lambda float64
	// NumRandom is the number of random realizations for DOS estimation.
	NumRandom int
	// Seed seeds the stochastic starters; 0 derives a seed from the clock.
	Seed int64
	// Parallel enables concurrent stochastic realizations.
	Parallel bool
	// MinEnergy and MaxEnergy fix the spectral bounds; leaving both at
	// zero enables automatic Lanczos detection.
	MinEnergy, MaxEnergy float64
	// LanczosPrecision is the relative tolerance of bounds detection.
	LanczosPrecision float64
	// Format selects the sparse layout: "csr", "ell" or "auto".
	Format string
	// NoReorder disables the light-cone reordering optimization.
	NoReorder bool
	// SkipHermiticityCheck disables the sampled symmetry check performed
	// on the operator at engine construction.
	SkipHermiticityCheck bool
	// Timeout sets the maximum duration for the computation.
	Timeout time.Duration
	// Compare, if true, runs every backend and cross-checks the results.
	Compare bool
	// Calibrate, if true, runs the layout micro-benchmark and saves the
	// resulting profile.
	Calibrate bool
	// CalibrationProfile is the path to a calibration profile file.
	// If empty, uses the default path (~/.kpmcalc_calibration.json).
	CalibrationProfile string
	// Preset is the path to a YAML preset file applied below CLI flags
	// and environment variables.
	Preset string
	// JSONOutput, if true, outputs the result in JSON format.
	JSONOutput bool
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// OutputFile, if specified, saves the result to this file path.
	OutputFile string
	// Completion, if set, generates a shell completion script for the
	// specified shell. Valid values are: "bash", "zsh", "fish", "powershell".
	Completion string
	// Quiet mode - minimal output for scripting purposes.
	// Suppresses progress bars, banners, and informational messages.
	Quiet bool
	// Details, if true, renders the verbose multi-line engine report
	// instead of the compact one-liner.
	Details bool
}

// queryNames lists the recognized spectral queries.
var queryNames = []string{"ldos", "dos", "greens"}

// latticeNames lists the recognized model Hamiltonians.
var latticeNames = []string{"chain", "square", "flux", "disordered"}

// ToEngineConfig converts the application configuration into the engine's
// kpm.Config. The concrete sparse layout must already be resolved by the
// caller (the "auto" choice consults the calibration profile).
func (c AppConfig) ToEngineConfig(format kpm.MatrixFormat) kpm.Config {
	cfg := kpm.DefaultConfig()
	cfg.MinEnergy = c.MinEnergy
	cfg.MaxEnergy = c.MaxEnergy
	if c.LanczosPrecision > 0 {
		cfg.LanczosPrecision = c.LanczosPrecision
	}
	// Validate already vetted the kernel name, so the error is impossible
	// here and the default kernel is a safe fallback.
	if kernel, err := kpm.KernelByName(c.Kernel, c.Lambda); err == nil {
		cfg.Kernel = kernel
	}
	cfg.NumRandom = c.NumRandom
	cfg.Seed = c.Seed
	cfg.ParallelStochastic = c.Parallel
	cfg.VerifyHermiticity = !c.SkipHermiticityCheck
	cfg.Algorithm.Format = format
	if c.NoReorder {
		cfg.Algorithm.Reorder = false
		cfg.Algorithm.OptimalSize = false
	}
	return cfg
}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures that numerical values are within valid ranges and that the
// chosen query, lattice, kernel and layout are supported.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate() error {
	if !contains(queryNames, c.Query) {
		return apperrors.NewConfigError("unrecognized query: '%s'. Valid queries are: [%s]",
			c.Query, strings.Join(queryNames, ", "))
	}
	if !contains(latticeNames, c.Lattice) {
		return apperrors.NewConfigError("unrecognized lattice: '%s'. Valid lattices are: [%s]",
			c.Lattice, strings.Join(latticeNames, ", "))
	}
	if c.Sites < 1 {
		return apperrors.NewConfigError("lattice needs at least one site: %d", c.Sites)
	}
	if c.Lattice == "square" && c.Width < 1 {
		return apperrors.NewConfigError("square lattice width must be positive: %d", c.Width)
	}
	if c.Points < 1 {
		return apperrors.NewConfigError("energy grid needs at least one point: %d", c.Points)
	}
	if c.Broadening <= 0 {
		return apperrors.NewConfigError("broadening must be strictly positive: %g", c.Broadening)
	}
	if c.Kernel != "jackson" && c.Kernel != "lorentz" {
		return apperrors.NewConfigError("unrecognized kernel: '%s'. Valid kernels are: [jackson, lorentz]", c.Kernel)
	}
	if c.Kernel == "lorentz" && c.Lambda <= 0 {
		return apperrors.NewConfigError("lorentz lambda must be strictly positive: %g", c.Lambda)
	}
	if c.NumRandom < 1 {
		return apperrors.NewConfigError("number of random realizations must be at least 1: %d", c.NumRandom)
	}
	if c.MinEnergy > c.MaxEnergy {
		return apperrors.NewConfigError("invalid energy range: min %g > max %g", c.MinEnergy, c.MaxEnergy)
	}
	if c.Format != "csr" && c.Format != "ell" && c.Format != "auto" {
		return apperrors.NewConfigError("unrecognized matrix format: '%s'. Valid formats are: [csr, ell, auto]", c.Format)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values,
// and handles the parsing process. After parsing, environment variables and
// an optional YAML preset file fill in values not set on the command line,
// and the resulting configuration is validated.
//
// The function is designed to be testable by allowing the input arguments
// and output writer to be specified.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: A slice of strings representing the command-line arguments
//     (typically os.Args[1:]).
//   - errorWriter: An io.Writer where parsing errors and usage information
//     will be printed.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing, preset loading or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.StringVar(&config.Query, "query", DefaultQuery, fmt.Sprintf("Spectral quantity to compute: one of [%s].", strings.Join(queryNames, ", ")))
	fs.StringVar(&config.Lattice, "lattice", DefaultLattice, fmt.Sprintf("Model Hamiltonian: one of [%s].", strings.Join(latticeNames, ", ")))
	fs.IntVar(&config.Sites, "sites", DefaultSites, "Number of lattice sites (x extent for the square lattice).")
	fs.IntVar(&config.Width, "width", 32, "y extent of the square lattice.")
	fs.Float64Var(&config.Hopping, "hopping", DefaultHopping, "Nearest-neighbor hopping amplitude.")
	fs.Float64Var(&config.Onsite, "onsite", 0, "Uniform onsite energy of the chain model.")
	fs.Float64Var(&config.Flux, "flux", 0.5, "Peierls phase per hop of the flux model, in radians.")
	fs.Float64Var(&config.Disorder, "disorder", 1.0, "Anderson disorder strength of the disordered model.")
	fs.IntVar(&config.Site, "site", -1, "Site index for LDOS queries (-1 selects the center site).")
	fs.IntVar(&config.Row, "row", 0, "Row index of the Green's function element.")
	fs.IntVar(&config.Col, "col", 0, "Column index of the Green's function element.")
	fs.Float64Var(&config.GridMin, "emin", -2.5, "Lower edge of the output energy grid.")
	fs.Float64Var(&config.GridMax, "emax", 2.5, "Upper edge of the output energy grid.")
	fs.IntVar(&config.Points, "points", DefaultPoints, "Number of energy-grid points.")
	fs.Float64Var(&config.Broadening, "broadening", DefaultBroadening, "Requested energy resolution.")
	fs.StringVar(&config.Kernel, "kernel", DefaultKernel, "Damping kernel: 'jackson' or 'lorentz'.")
	fs.Float64Var(&config.Lambda, "lambda", kpm.DefaultLorentzLambda, "Lorentz kernel parameter (ignored by Jackson).")
	fs.IntVar(&config.NumRandom, "num-random", kpm.DefaultNumRandom, "Number of random realizations for DOS estimation.")
	fs.Int64Var(&config.Seed, "seed", 0, "Random seed for stochastic starters (0 = derive from clock).")
	fs.BoolVar(&config.Parallel, "parallel", false, "Run stochastic realizations concurrently.")
	fs.Float64Var(&config.MinEnergy, "min-energy", 0, "Fixed lower spectral bound (leave min == max for auto-detection).")
	fs.Float64Var(&config.MaxEnergy, "max-energy", 0, "Fixed upper spectral bound (leave min == max for auto-detection).")
	fs.Float64Var(&config.LanczosPrecision, "lanczos-precision", 0, "Relative tolerance of automatic bounds detection (0 = engine default).")
	fs.StringVar(&config.Format, "format", DefaultFormat, "Sparse layout: 'csr', 'ell' or 'auto' (auto consults the calibration profile).")
	fs.BoolVar(&config.NoReorder, "no-reorder", false, "Disable the light-cone reordering optimization.")
	fs.BoolVar(&config.SkipHermiticityCheck, "skip-hermiticity-check", false, "Skip the sampled operator symmetry check.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the computation.")
	fs.BoolVar(&config.Compare, "compare", false, "Run every sparse layout and cross-check the results.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Run the layout micro-benchmark and save the resulting profile.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to calibration profile file (default: ~/.kpmcalc_calibration.json).")
	fs.StringVar(&config.Preset, "preset", "", "Path to a YAML preset file applied below flags and environment.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the result.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Details, "d", false, "Display the verbose engine report.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	// The preset file sits below both flags and environment.
	if config.Preset != "" {
		if err := applyPreset(&config, fs); err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, errors.New("invalid configuration")
		}
	}

	config.Query = strings.ToLower(config.Query)
	config.Lattice = strings.ToLower(config.Lattice)
	config.Kernel = strings.ToLower(config.Kernel)
	config.Format = strings.ToLower(config.Format)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}
