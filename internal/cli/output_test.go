package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func densityResult() Result {
	return Result{
		Query:    "dos",
		Backend:  "csr",
		Energies: []float64{-1, 0, 1},
		Values:   []float64{0.25, 0.5, 0.25},
		Elapsed:  10 * time.Millisecond,
	}
}

func greensResult() Result {
	return Result{
		Query:    "greens",
		Label:    "element (3, 7)",
		Backend:  "ell",
		Energies: []float64{-1, 1},
		Complex:  []complex128{complex(0.2, -0.4), complex(-0.2, -0.1)},
	}
}

func TestResultTitle(t *testing.T) {
	t.Parallel()
	cases := []struct {
		res  Result
		want string
	}{
		{Result{Query: "ldos", Label: "site 42"}, "Local density of states, site 42"},
		{Result{Query: "dos"}, "Density of states"},
		{Result{Query: "greens", Label: "element (3, 7)"}, "Green's function, element (3, 7)"},
		{Result{Query: "custom"}, "custom"},
	}
	for _, tc := range cases {
		if got := tc.res.Title(); got != tc.want {
			t.Errorf("Title() = %q, want %q", got, tc.want)
		}
	}
}

func TestResultMagnitudes(t *testing.T) {
	t.Parallel()
	if got := densityResult().Magnitudes(); got[1] != 0.5 {
		t.Errorf("density magnitudes = %v", got)
	}
	// Green's functions display as the spectral function -Im(G).
	got := greensResult().Magnitudes()
	if got[0] != 0.4 || got[1] != 0.1 {
		t.Errorf("greens magnitudes = %v, want [0.4 0.1]", got)
	}
}

func TestIntegratedWeight(t *testing.T) {
	t.Parallel()
	// Trapezoid over {-1, 0, 1} with values {0.25, 0.5, 0.25}.
	if got := densityResult().IntegratedWeight(); math.Abs(got-0.75) > 1e-14 {
		t.Errorf("IntegratedWeight = %g, want 0.75", got)
	}
	// Degenerate grids report zero rather than guessing.
	short := Result{Energies: []float64{0}, Values: []float64{1}}
	if got := short.IntegratedWeight(); got != 0 {
		t.Errorf("single-point weight = %g, want 0", got)
	}
}

func TestWriteResultToFile(t *testing.T) {
	t.Parallel()

	t.Run("Density", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out", "dos.dat")
		err := WriteResultToFile(densityResult(), OutputConfig{OutputFile: path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := string(data)
		if !strings.Contains(out, "# Density of states") {
			t.Errorf("header missing: %q", out)
		}
		if !strings.Contains(out, "# Columns: energy value") {
			t.Errorf("column comment missing: %q", out)
		}
		if !strings.Contains(out, "0 0.5") {
			t.Errorf("data row missing: %q", out)
		}
	})

	t.Run("Greens", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "greens.dat")
		if err := WriteResultToFile(greensResult(), OutputConfig{OutputFile: path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "# Columns: energy re(G) im(G)") {
			t.Errorf("complex columns missing: %q", string(data))
		}
		if !strings.Contains(string(data), "-1 0.2 -0.4") {
			t.Errorf("complex row missing: %q", string(data))
		}
	})

	t.Run("NoPathIsNoOp", func(t *testing.T) {
		t.Parallel()
		if err := WriteResultToFile(densityResult(), OutputConfig{}); err != nil {
			t.Errorf("empty path errored: %v", err)
		}
	})
}

func TestDisplayQuietResult(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayQuietResult(&buf, densityResult())
	want := "-1 0.25\n0 0.5\n1 0.25\n"
	if buf.String() != want {
		t.Errorf("quiet output = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	DisplayQuietResult(&buf, greensResult())
	if !strings.HasPrefix(buf.String(), "-1 0.2 -0.4\n") {
		t.Errorf("quiet greens output = %q", buf.String())
	}
}

func TestPrintJSONResult(t *testing.T) {
	t.Parallel()

	t.Run("Density", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := PrintJSONResult(&buf, densityResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["query"] != "dos" || decoded["backend"] != "csr" {
			t.Errorf("decoded = %v", decoded)
		}
		if _, present := decoded["greens_real"]; present {
			t.Error("density result carries greens columns")
		}
	})

	t.Run("Greens", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := PrintJSONResult(&buf, greensResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded struct {
			Real []float64 `json:"greens_real"`
			Imag []float64 `json:"greens_imag"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Real) != 2 || decoded.Imag[0] != -0.4 {
			t.Errorf("decoded greens = %+v", decoded)
		}
	})
}

func TestDisplayResultWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("QuietSkipsBanner", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := DisplayResultWithConfig(&buf, densityResult(), OutputConfig{Quiet: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "---") {
			t.Errorf("banner printed in quiet mode: %q", buf.String())
		}
	})

	t.Run("SavesAndConfirms", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "dos.dat")
		var buf bytes.Buffer
		err := DisplayResultWithConfig(&buf, densityResult(), OutputConfig{OutputFile: path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output file not written: %v", err)
		}
		if !strings.Contains(buf.String(), "Result saved to") {
			t.Errorf("confirmation missing: %q", buf.String())
		}
	})
}
