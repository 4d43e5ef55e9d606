package kpm

// Default algorithm and estimation parameters.
const (
	// defaultLanczosPrecision is the relative precision of the automatic
	// spectral-bound estimation.
	defaultLanczosPrecision = 0.002
	// DefaultNumRandom is the default number of random realizations for
	// stochastic density-of-states estimation.
	DefaultNumRandom = 1
	// DefaultLorentzLambda tunes the default Lorentz kernel.
	DefaultLorentzLambda = 4.0
)

// MatrixFormat selects the sparse layout the moment recursion runs on.
type MatrixFormat int

const (
	// FormatCSR runs the recursion on the compressed sparse row layout.
	FormatCSR MatrixFormat = iota
	// FormatELL runs it on the padded ELLPACK layout, the accelerator-style
	// data path.
	FormatELL
)

// String returns the configuration name of the format.
func (f MatrixFormat) String() string {
	if f == FormatELL {
		return "ell"
	}
	return "csr"
}

// AlgorithmConfig holds the performance knobs of the moment computation.
// They change cost, never results (beyond floating-point noise).
type AlgorithmConfig struct {
	// Reorder permutes the per-query submatrix into breadth-first discovery
	// order for cache locality. The relabeling is inverted when results are
	// reported, so it is invisible to callers.
	Reorder bool
	// OptimalSize truncates each recursion step to the light-cone prefix
	// actually reachable at that step.
	OptimalSize bool
	// Format is the sparse layout hint for the recursion.
	Format MatrixFormat
}

// DefaultAlgorithm returns the algorithm configuration used when the caller
// has no opinion: reordered, light-cone truncated, CSR.
func DefaultAlgorithm() AlgorithmConfig {
	return AlgorithmConfig{Reorder: true, OptimalSize: true, Format: FormatCSR}
}

// Config collects the per-Strategy settings consumed at construction.
type Config struct {
	// MinEnergy and MaxEnergy override the automatic spectral-bound
	// estimation. Equal values (the zero value included) mean auto-detect.
	// MinEnergy > MaxEnergy is a configuration error caught at construction.
	MinEnergy, MaxEnergy float64
	// LanczosPrecision is the relative precision of automatic bound
	// estimation; zero means the default.
	LanczosPrecision float64
	// Kernel is the damping kernel; a zero value means Lorentz(4).
	Kernel Kernel
	// NumRandom is the number of random-vector realizations averaged by
	// stochastic DOS estimation; values < 1 mean 1.
	NumRandom int
	// Seed seeds the Strategy-owned random generator. Zero derives a seed
	// from the clock: repeated DOS runs are reproducible within a Strategy
	// instance but deliberately not across runs.
	Seed int64
	// ParallelStochastic runs DOS realizations concurrently. Each
	// realization is independent; only the final averaging is serialized.
	ParallelStochastic bool
	// VerifyHermiticity enables the sampled symmetry check at construction.
	// The check reads a bounded sample of rows, so it is cheap even for
	// very large operators; it cannot prove Hermiticity, only catch the
	// common builder mistakes that would otherwise corrupt results silently.
	VerifyHermiticity bool
	// Algorithm holds the moment-computation performance knobs.
	Algorithm AlgorithmConfig
}

// DefaultConfig returns the construction defaults: auto bounds, Lorentz(4)
// kernel, one random realization, sampled Hermiticity check on.
func DefaultConfig() Config {
	return Config{
		LanczosPrecision:  defaultLanczosPrecision,
		Kernel:            LorentzKernel(DefaultLorentzLambda),
		NumRandom:         DefaultNumRandom,
		VerifyHermiticity: true,
		Algorithm:         DefaultAlgorithm(),
	}
}
