// Package calibration provides performance calibration for the spectral
// engine. This file implements calibration profile persistence.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CalibrationProfile stores the results of a calibration run.
// It captures both the preferred sparse layouts and the hardware context
// to allow validation of cached results.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel  string `json:"cpu_model"`
	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"` // 32 or 64

	// Calibrated preference (default/fallback value)
	PreferredFormat string `json:"preferred_format"`

	// Preferences by operator dimension for more accurate selection
	FormatsBySize []SizeFormat `json:"formats_by_size,omitempty"`

	// Calibration metadata
	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	// Version for forward compatibility
	ProfileVersion int `json:"profile_version"`
}

// SizeFormat stores the preferred sparse layout for a specific range of
// operator dimensions. Matrix-vector throughput crosses over between
// layouts as the working set outgrows the caches, so the preference is
// dimension-dependent.
type SizeFormat struct {
	// MinDim is the minimum operator dimension (inclusive) for this range
	MinDim int `json:"min_dim"`
	// MaxDim is the maximum operator dimension (inclusive) for this range
	MaxDim int `json:"max_dim"`
	// Format is the preferred sparse layout for this range ("csr" or "ell")
	Format string `json:"format"`
	// Speedup is the measured throughput ratio of the preferred layout
	// over the alternative (1.0 means no measured difference)
	Speedup float64 `json:"speedup"`
	// ConfidenceScore indicates the reliability of this preference (0-1)
	ConfidenceScore float64 `json:"confidence_score"`
	// MeasurementCount is the number of measurements behind this preference
	MeasurementCount int `json:"measurement_count"`
}

const (
	// CurrentProfileVersion is the current version of the profile format.
	// Increment this when making breaking changes to the profile structure.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the default name for the calibration profile file.
	DefaultProfileFileName = ".kpmcalc_calibration.json"
)

// DefaultDimRanges are the predefined operator-dimension ranges for calibration.
var DefaultDimRanges = []struct {
	MinDim, MaxDim int
	Label          string
}{
	{0, 1023, "small"},            // fits in L2
	{1024, 16383, "medium"},       // fits in L3
	{16384, 262143, "large"},      // main memory bound
	{262144, 1 << 31, "huge"},     // streaming
}

// GetDefaultProfilePath returns the default path for the calibration profile.
// It uses the user's home directory if available, otherwise the current directory.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates a new CalibrationProfile with current hardware info.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:       getCPUModel(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63), // 32 or 64
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// getCPUModel attempts to get a CPU model identifier.
// This is platform-specific and may return a generic value.
func getCPUModel() string {
	// On most systems, GOARCH + NumCPU is a reasonable identifier.
	// A more sophisticated implementation could read /proc/cpuinfo on Linux
	// or use syscalls on other platforms
	return fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU())
}

// LoadProfile loads a calibration profile from the specified path.
// Returns nil and an error if the file doesn't exist or can't be parsed.
func LoadProfile(path string) (*CalibrationProfile, error) {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}

// SaveProfile saves the calibration profile to the specified path.
// If path is empty, uses the default profile path.
func (p *CalibrationProfile) SaveProfile(path string) error {
	if path == "" {
		path = GetDefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}

// IsValid checks if the profile is valid for the current hardware.
// A profile is considered valid if:
// - The profile version matches
// - The number of CPUs matches
// - The architecture matches
// - The word size matches
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}

	// Check version compatibility
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}

	// Check hardware compatibility
	if p.NumCPU != runtime.NumCPU() {
		return false
	}

	if p.GOARCH != runtime.GOARCH {
		return false
	}

	wordSize := 32 << (^uint(0) >> 63)
	if p.WordSize != wordSize {
		return false
	}

	return true
}

// IsStale checks if the profile is older than the given duration.
// This can be used to trigger re-calibration after a certain period.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// String returns a human-readable summary of the profile.
func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}

	rangeInfo := ""
	if len(p.FormatsBySize) > 0 {
		rangeInfo = fmt.Sprintf(", Ranges: %d", len(p.FormatsBySize))
	}

	return fmt.Sprintf(
		"CalibrationProfile{CPU: %s, Preferred: %s%s, Calibrated: %s}",
		p.CPUModel,
		p.PreferredFormat,
		rangeInfo,
		p.CalibratedAt.Format(time.RFC3339),
	)
}

// FormatForDim returns the preferred sparse layout for a given operator
// dimension. If a matching range is found with sufficient confidence, that
// preference is returned. Otherwise, the default preference is returned.
func (p *CalibrationProfile) FormatForDim(dim int) string {
	if p == nil {
		return ""
	}

	// Search for a matching range with good confidence
	for _, r := range p.FormatsBySize {
		if dim >= r.MinDim && dim <= r.MaxDim && r.ConfidenceScore >= 0.5 {
			return r.Format
		}
	}

	// Fall back to the default preference
	return p.PreferredFormat
}

// AddSizeFormat adds or updates the preference for a specific dimension
// range. If a range with the same bounds exists, it is updated with the new
// values, keeping the measurement with higher confidence.
func (p *CalibrationProfile) AddSizeFormat(r SizeFormat) {
	for i, existing := range p.FormatsBySize {
		if existing.MinDim == r.MinDim && existing.MaxDim == r.MaxDim {
			if r.ConfidenceScore >= existing.ConfidenceScore {
				r.MeasurementCount += existing.MeasurementCount
				p.FormatsBySize[i] = r
			} else {
				p.FormatsBySize[i].MeasurementCount += r.MeasurementCount
			}
			return
		}
	}

	// Add new range
	p.FormatsBySize = append(p.FormatsBySize, r)
}

// LoadOrCreateProfile loads an existing profile or creates a new one if not
// found. If the existing profile is invalid for the current hardware,
// returns a new profile.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil {
		// File doesn't exist or can't be read - create new
		return NewProfile(), false
	}

	if !profile.IsValid() {
		// Profile is incompatible with current hardware - create new
		return NewProfile(), false
	}

	return profile, true
}

// ProfileExists checks if a calibration profile exists at the given path.
func ProfileExists(path string) bool {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	_, err := os.Stat(path)
	return err == nil
}
