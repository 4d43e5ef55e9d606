package cli

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/spectralgo/kpmcalc/internal/kpm"
	"github.com/spectralgo/kpmcalc/internal/testutil"
)

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"Microseconds", 450 * time.Microsecond, "450µs"},
		{"Milliseconds", 120 * time.Millisecond, "120ms"},
		{"Seconds", 2500 * time.Millisecond, "2.5s"},
		{"Zero", 0, "0µs"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatExecutionDuration(tc.in); got != tc.want {
				t.Errorf("FormatExecutionDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		progress float64
		length   int
		filled   int
	}{
		{"Empty", 0, 10, 0},
		{"Half", 0.5, 10, 5},
		{"Full", 1, 10, 10},
		{"ClampsAboveOne", 3.7, 10, 10},
		{"ClampsBelowZero", -1, 10, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			bar := progressBar(tc.progress, tc.length)
			if n := strings.Count(bar, "█"); n != tc.filled {
				t.Errorf("filled cells = %d, want %d", n, tc.filled)
			}
			if n := len([]rune(bar)); n != tc.length {
				t.Errorf("bar width = %d, want %d", n, tc.length)
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	t.Parallel()

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		if got := Sparkline(nil, 10); got != "" {
			t.Errorf("Sparkline(nil) = %q", got)
		}
		if got := Sparkline([]float64{1, 2}, 0); got != "" {
			t.Errorf("zero width = %q", got)
		}
	})

	t.Run("FlatZero", func(t *testing.T) {
		t.Parallel()
		got := Sparkline([]float64{0, 0, 0, 0}, 4)
		if got != "▁▁▁▁" {
			t.Errorf("flat curve = %q", got)
		}
	})

	t.Run("PeakUsesTopLevel", func(t *testing.T) {
		t.Parallel()
		got := []rune(Sparkline([]float64{0, 1, 0, 0}, 4))
		if got[1] != '█' {
			t.Errorf("peak cell = %q, want the full block", got[1])
		}
		if got[0] != '▁' {
			t.Errorf("zero cell = %q, want the lowest block", got[0])
		}
	})

	t.Run("NonFiniteRendersBlank", func(t *testing.T) {
		t.Parallel()
		got := []rune(Sparkline([]float64{1, math.NaN(), math.Inf(1), 1}, 4))
		if got[1] != ' ' || got[2] != ' ' {
			t.Errorf("non-finite cells = %q", string(got))
		}
	})
}

// fakeSpinner records spinner control calls without touching the terminal.
type fakeSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (f *fakeSpinner) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeSpinner) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeSpinner) UpdateSuffix(suffix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suffixes = append(f.suffixes, suffix)
}

func TestDisplayProgress(t *testing.T) {
	fake := &fakeSpinner{}
	orig := newSpinner
	newSpinner = func(options ...spinner.Option) Spinner { return fake }
	defer func() { newSpinner = orig }()

	var buf bytes.Buffer
	progress := make(chan kpm.ProgressUpdate, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progress, &buf)

	progress <- kpm.ProgressUpdate{Completed: 2, Total: 8}
	progress <- kpm.ProgressUpdate{Completed: 8, Total: 8}
	close(progress)
	wg.Wait()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !fake.started || !fake.stopped {
		t.Errorf("spinner lifecycle: started=%v stopped=%v", fake.started, fake.stopped)
	}
	out := testutil.StripAnsiCodes(buf.String())
	if !strings.Contains(out, "Realizations: 8/8") {
		t.Errorf("final bar missing: %q", out)
	}
}

func TestDisplayProgressDeterministic(t *testing.T) {
	fake := &fakeSpinner{}
	orig := newSpinner
	newSpinner = func(options ...spinner.Option) Spinner { return fake }
	defer func() { newSpinner = orig }()

	var buf bytes.Buffer
	progress := make(chan kpm.ProgressUpdate)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progress, &buf)
	close(progress)
	wg.Wait()

	// No realizations reported: no final bar either.
	if strings.Contains(buf.String(), "Realizations") {
		t.Errorf("unexpected bar for a deterministic query: %q", buf.String())
	}
}

func TestDisplaySpectrum(t *testing.T) {
	t.Parallel()
	res := Result{
		Query:    "ldos",
		Label:    "site 3",
		Energies: []float64{-1, 0, 1},
		Values:   []float64{0.1, 0.8, 0.1},
		Elapsed:  42 * time.Millisecond,
	}

	var buf bytes.Buffer
	DisplaySpectrum(res, false, &buf)
	out := testutil.StripAnsiCodes(buf.String())
	if !strings.Contains(out, "Local density of states, site 3") {
		t.Errorf("title missing: %q", out)
	}
	if !strings.Contains(out, "Peak: 0.8 at E = 0") {
		t.Errorf("peak line missing: %q", out)
	}
	if strings.Contains(out, "Integrated weight") {
		t.Error("details printed without the details flag")
	}

	buf.Reset()
	DisplaySpectrum(res, true, &buf)
	out = testutil.StripAnsiCodes(buf.String())
	if !strings.Contains(out, "Integrated weight") || !strings.Contains(out, "42ms") {
		t.Errorf("details missing: %q", out)
	}
}
