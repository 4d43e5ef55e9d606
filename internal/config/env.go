// Package config provides the configuration management for the kpmcalc
// application. This file contains environment variable utilities for
// configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given
// key (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt64 returns the value of the environment variable with the given
// key (prefixed with EnvPrefix) parsed as int64, or the default value if not
// set or invalid.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns the value of the environment variable with the given
// key (prefixed with EnvPrefix) parsed as float64, or the default value if
// not set or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given
// key (prefixed with EnvPrefix) parsed as bool, or the default value if not
// set. Accepts "true", "1", "yes" as true; "false", "0", "no" as false
// (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the
// given key (prefixed with EnvPrefix) parsed as time.Duration, or the
// default value if not set or invalid. Accepts formats like "5m", "30s".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Preset
// file > Defaults.
//
// Supported environment variables:
//   - KPMCALC_QUERY: Spectral quantity to compute (ldos, dos, greens)
//   - KPMCALC_LATTICE: Model Hamiltonian (chain, square, flux, disordered)
//   - KPMCALC_SITES: Number of lattice sites (int)
//   - KPMCALC_BROADENING: Requested energy resolution (float)
//   - KPMCALC_KERNEL: Damping kernel (jackson, lorentz)
//   - KPMCALC_NUM_RANDOM: Random realizations for DOS estimation (int)
//   - KPMCALC_SEED: Random seed (int64)
//   - KPMCALC_FORMAT: Sparse layout (csr, ell, auto)
//   - KPMCALC_TIMEOUT: Computation timeout (duration: "5m", "30s")
//   - KPMCALC_PARALLEL: Concurrent stochastic realizations (bool)
//   - KPMCALC_SERVER: Enable server mode (bool)
//   - KPMCALC_PORT: Port for server mode (string)
//   - KPMCALC_JSON: Enable JSON output (bool)
//   - KPMCALC_QUIET: Enable quiet mode (bool)
//   - KPMCALC_NO_COLOR: Disable colored output (bool)
//   - KPMCALC_OUTPUT: Output file path (string)
//   - KPMCALC_PRESET: Path to YAML preset file (string)
//   - KPMCALC_CALIBRATION_PROFILE: Path to calibration profile (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "sites") {
		config.Sites = getEnvInt("SITES", config.Sites)
	}
	if !isFlagSet(fs, "points") {
		config.Points = getEnvInt("POINTS", config.Points)
	}
	if !isFlagSet(fs, "broadening") {
		config.Broadening = getEnvFloat("BROADENING", config.Broadening)
	}
	if !isFlagSet(fs, "num-random") {
		config.NumRandom = getEnvInt("NUM_RANDOM", config.NumRandom)
	}
	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvInt64("SEED", config.Seed)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "query") {
		config.Query = getEnvString("QUERY", config.Query)
	}
	if !isFlagSet(fs, "lattice") {
		config.Lattice = getEnvString("LATTICE", config.Lattice)
	}
	if !isFlagSet(fs, "kernel") {
		config.Kernel = getEnvString("KERNEL", config.Kernel)
	}
	if !isFlagSet(fs, "format") {
		config.Format = getEnvString("FORMAT", config.Format)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "output") && !isFlagSet(fs, "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "preset") {
		config.Preset = getEnvString("PRESET", config.Preset)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "parallel") {
		config.Parallel = getEnvBool("PARALLEL", config.Parallel)
	}
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "d") && !isFlagSet(fs, "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "compare") {
		config.Compare = getEnvBool("COMPARE", config.Compare)
	}
	if !isFlagSet(fs, "calibrate") {
		config.Calibrate = getEnvBool("CALIBRATE", config.Calibrate)
	}
	if !isFlagSet(fs, "skip-hermiticity-check") {
		config.SkipHermiticityCheck = getEnvBool("SKIP_HERMITICITY_CHECK", config.SkipHermiticityCheck)
	}
}
