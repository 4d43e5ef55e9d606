package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spectralgo/kpmcalc/internal/kpm"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("kpmcalc", nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Query != "ldos" || cfg.Lattice != "chain" {
		t.Errorf("defaults = %s/%s, want ldos/chain", cfg.Query, cfg.Lattice)
	}
	if cfg.Sites != DefaultSites || cfg.Points != DefaultPoints {
		t.Errorf("sites/points = %d/%d", cfg.Sites, cfg.Points)
	}
	if cfg.Broadening != DefaultBroadening || cfg.Kernel != DefaultKernel {
		t.Errorf("broadening/kernel = %g/%s", cfg.Broadening, cfg.Kernel)
	}
	if cfg.Site != -1 {
		t.Errorf("site = %d, want the center marker -1", cfg.Site)
	}
	if cfg.Timeout != DefaultTimeout || cfg.Format != "auto" {
		t.Errorf("timeout/format = %s/%s", cfg.Timeout, cfg.Format)
	}
}

func TestParseConfigFlags(t *testing.T) {
	args := []string{
		"-query", "DOS", "-lattice", "square", "-sites", "64", "-width", "8",
		"-kernel", "LORENTZ", "-lambda", "3", "-num-random", "16",
		"-format", "ELL", "-seed", "99", "-parallel", "-q",
	}
	cfg, err := ParseConfig("kpmcalc", args, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Selector values are folded to lowercase after parsing.
	if cfg.Query != "dos" || cfg.Lattice != "square" || cfg.Kernel != "lorentz" || cfg.Format != "ell" {
		t.Errorf("selectors = %s/%s/%s/%s", cfg.Query, cfg.Lattice, cfg.Kernel, cfg.Format)
	}
	if cfg.Sites != 64 || cfg.Width != 8 || cfg.NumRandom != 16 || cfg.Seed != 99 {
		t.Errorf("numerics = %d/%d/%d/%d", cfg.Sites, cfg.Width, cfg.NumRandom, cfg.Seed)
	}
	if !cfg.Parallel || !cfg.Quiet {
		t.Error("boolean flags not applied")
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	cases := [][]string{
		{"-query", "spectrum"},
		{"-lattice", "honeycomb"},
		{"-sites", "0"},
		{"-lattice", "square", "-width", "0"},
		{"-points", "0"},
		{"-broadening", "-0.1"},
		{"-kernel", "fejer"},
		{"-kernel", "lorentz", "-lambda", "0"},
		{"-num-random", "0"},
		{"-min-energy", "2", "-max-energy", "-2"},
		{"-format", "coo"},
		{"-timeout", "0s"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := ParseConfig("kpmcalc", args, io.Discard); err == nil {
				t.Error("invalid configuration accepted")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KPMCALC_QUERY", "dos")
	t.Setenv("KPMCALC_SITES", "77")
	t.Setenv("KPMCALC_PARALLEL", "yes")
	t.Setenv("KPMCALC_TIMEOUT", "90s")

	cfg, err := ParseConfig("kpmcalc", nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Query != "dos" || cfg.Sites != 77 || !cfg.Parallel {
		t.Errorf("env not applied: %s/%d/%v", cfg.Query, cfg.Sites, cfg.Parallel)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("timeout = %s, want 90s", cfg.Timeout)
	}

	// Explicit flags always outrank the environment.
	cfg, err = ParseConfig("kpmcalc", []string{"-query", "greens", "-sites", "12"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Query != "greens" || cfg.Sites != 12 {
		t.Errorf("flags overridden by env: %s/%d", cfg.Query, cfg.Sites)
	}
}

func TestPresetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	body := "query: dos\nsites: 256\nbroadening: 0.02\nkernel: lorentz\nlambda: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("AppliedBelowFlags", func(t *testing.T) {
		cfg, err := ParseConfig("kpmcalc", []string{"-preset", path, "-sites", "32"}, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Query != "dos" || cfg.Broadening != 0.02 || cfg.Kernel != "lorentz" {
			t.Errorf("preset not applied: %s/%g/%s", cfg.Query, cfg.Broadening, cfg.Kernel)
		}
		if cfg.Sites != 32 {
			t.Errorf("sites = %d, the explicit flag must win over the preset", cfg.Sites)
		}
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		bad := filepath.Join(dir, "typo.yaml")
		if err := os.WriteFile(bad, []byte("querry: dos\n"), 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := LoadPreset(bad); err == nil {
			t.Error("unknown preset key accepted")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ParseConfig("kpmcalc", []string{"-preset", filepath.Join(dir, "absent.yaml")}, io.Discard); err == nil {
			t.Error("missing preset file accepted")
		}
	})
}

func TestToEngineConfig(t *testing.T) {
	t.Parallel()
	base := AppConfig{
		Kernel:     "jackson",
		NumRandom:  8,
		Seed:       42,
		Parallel:   true,
		MinEnergy:  -3,
		MaxEnergy:  3,
		LanczosPrecision: 1e-4,
	}

	cfg := base.ToEngineConfig(kpm.FormatELL)
	if cfg.MinEnergy != -3 || cfg.MaxEnergy != 3 || cfg.LanczosPrecision != 1e-4 {
		t.Errorf("bounds = [%g, %g] @ %g", cfg.MinEnergy, cfg.MaxEnergy, cfg.LanczosPrecision)
	}
	if cfg.Kernel.Name != "jackson" {
		t.Errorf("kernel = %s, want jackson", cfg.Kernel.Name)
	}
	if cfg.NumRandom != 8 || cfg.Seed != 42 || !cfg.ParallelStochastic {
		t.Error("stochastic settings not forwarded")
	}
	if !cfg.VerifyHermiticity {
		t.Error("hermiticity check disabled by default")
	}
	if cfg.Algorithm.Format != kpm.FormatELL || !cfg.Algorithm.Reorder || !cfg.Algorithm.OptimalSize {
		t.Error("algorithm config not forwarded")
	}

	t.Run("NoReorder", func(t *testing.T) {
		c := base
		c.NoReorder = true
		alg := c.ToEngineConfig(kpm.FormatCSR).Algorithm
		// Optimal sizing depends on the light-cone ordering, so it goes too.
		if alg.Reorder || alg.OptimalSize {
			t.Error("reorder optimizations still enabled")
		}
	})

	t.Run("SkipHermiticityCheck", func(t *testing.T) {
		c := base
		c.SkipHermiticityCheck = true
		if c.ToEngineConfig(kpm.FormatCSR).VerifyHermiticity {
			t.Error("hermiticity check still enabled")
		}
	})
}
