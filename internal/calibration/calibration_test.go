package calibration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spectralgo/kpmcalc/internal/kpm"
)

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")

	p := NewProfile()
	p.PreferredFormat = "ell"
	p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 1023, Format: "csr",
		Speedup: 1.2, ConfidenceScore: 0.9, MeasurementCount: 3})
	if err := p.SaveProfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.PreferredFormat != "ell" {
		t.Errorf("PreferredFormat = %q", loaded.PreferredFormat)
	}
	if len(loaded.FormatsBySize) != 1 || loaded.FormatsBySize[0].Format != "csr" {
		t.Errorf("FormatsBySize = %+v", loaded.FormatsBySize)
	}
	if !loaded.IsValid() {
		t.Error("freshly saved profile invalid on the same hardware")
	}
}

func TestLoadProfileMissing(t *testing.T) {
	t.Parallel()
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing profile loaded")
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()

	t.Run("Nil", func(t *testing.T) {
		t.Parallel()
		var p *CalibrationProfile
		if p.IsValid() {
			t.Error("nil profile valid")
		}
	})

	t.Run("VersionMismatch", func(t *testing.T) {
		t.Parallel()
		p := NewProfile()
		p.ProfileVersion = CurrentProfileVersion + 1
		if p.IsValid() {
			t.Error("future profile version accepted")
		}
	})

	t.Run("HardwareMismatch", func(t *testing.T) {
		t.Parallel()
		p := NewProfile()
		p.NumCPU++
		if p.IsValid() {
			t.Error("different CPU count accepted")
		}
	})
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	if p.IsStale(time.Hour) {
		t.Error("fresh profile reported stale")
	}
	p.CalibratedAt = time.Now().Add(-48 * time.Hour)
	if !p.IsStale(24 * time.Hour) {
		t.Error("two-day-old profile reported fresh")
	}
	var nilProfile *CalibrationProfile
	if !nilProfile.IsStale(time.Hour) {
		t.Error("nil profile reported fresh")
	}
}

func TestFormatForDim(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	p.PreferredFormat = "csr"
	p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 1023, Format: "ell", ConfidenceScore: 0.9})
	p.AddSizeFormat(SizeFormat{MinDim: 1024, MaxDim: 16383, Format: "ell", ConfidenceScore: 0.2})

	if got := p.FormatForDim(512); got != "ell" {
		t.Errorf("FormatForDim(512) = %q, want the confident range preference", got)
	}
	// Low-confidence ranges fall through to the default.
	if got := p.FormatForDim(2048); got != "csr" {
		t.Errorf("FormatForDim(2048) = %q, want the fallback csr", got)
	}
	if got := p.FormatForDim(1 << 20); got != "csr" {
		t.Errorf("FormatForDim outside all ranges = %q", got)
	}
}

func TestAddSizeFormat(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 100, Format: "csr",
		ConfidenceScore: 0.5, MeasurementCount: 2})

	t.Run("HigherConfidenceReplaces", func(t *testing.T) {
		p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 100, Format: "ell",
			ConfidenceScore: 0.8, MeasurementCount: 1})
		if len(p.FormatsBySize) != 1 {
			t.Fatalf("ranges = %d, want the update in place", len(p.FormatsBySize))
		}
		got := p.FormatsBySize[0]
		if got.Format != "ell" || got.MeasurementCount != 3 {
			t.Errorf("merged range = %+v", got)
		}
	})

	t.Run("LowerConfidenceOnlyCounts", func(t *testing.T) {
		p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 100, Format: "csr",
			ConfidenceScore: 0.1, MeasurementCount: 5})
		got := p.FormatsBySize[0]
		if got.Format != "ell" || got.MeasurementCount != 8 {
			t.Errorf("merged range = %+v", got)
		}
	})
}

func TestPaddingRatio(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name              string
		dim, nnz, maxRow  int
		want              float64
	}{
		{"Uniform", 100, 300, 3, 1},
		{"OneWideRow", 100, 103, 4, 400.0 / 103},
		{"DegenerateEmpty", 100, 0, 0, 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PaddingRatio(tc.dim, tc.nnz, tc.maxRow); got != tc.want {
				t.Errorf("PaddingRatio = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestEstimateFormat(t *testing.T) {
	t.Parallel()
	// A uniform chain pads perfectly and favors ELL.
	if got := EstimateFormat(1000, 3000, 3); got != "ell" {
		t.Errorf("uniform operator = %q, want ell", got)
	}
	// A single dense row blows the padding limit.
	if got := EstimateFormat(1000, 1100, 100); got != "csr" {
		t.Errorf("irregular operator = %q, want csr", got)
	}
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent.json")

	t.Run("ExplicitChoices", func(t *testing.T) {
		t.Parallel()
		if got := ResolveFormat("csr", missing, 100, 300, 3); got != kpm.FormatCSR {
			t.Errorf("csr resolved to %v", got)
		}
		if got := ResolveFormat("ell", missing, 100, 300, 3); got != kpm.FormatELL {
			t.Errorf("ell resolved to %v", got)
		}
	})

	t.Run("AutoWithoutProfile", func(t *testing.T) {
		t.Parallel()
		// No profile: the shape heuristic decides.
		if got := ResolveFormat("auto", missing, 1000, 3000, 3); got != kpm.FormatELL {
			t.Errorf("uniform auto = %v, want ELL", got)
		}
		if got := ResolveFormat("auto", missing, 1000, 1100, 100); got != kpm.FormatCSR {
			t.Errorf("irregular auto = %v, want CSR", got)
		}
	})

	t.Run("AutoWithProfile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profile.json")
		p := NewProfile()
		p.PreferredFormat = "csr"
		p.AddSizeFormat(SizeFormat{MinDim: 0, MaxDim: 1 << 20, Format: "csr", ConfidenceScore: 1})
		if err := p.SaveProfile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The profile overrides the heuristic even for a uniform operator.
		if got := ResolveFormat("auto", path, 1000, 3000, 3); got != kpm.FormatCSR {
			t.Errorf("profiled auto = %v, want CSR", got)
		}
	})
}
