package app

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"testing"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
)

func TestNew(t *testing.T) {
	t.Run("ValidArguments", func(t *testing.T) {
		application, err := New([]string{"kpmcalc", "-sites", "16", "-q"}, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if application.Config.Sites != 16 || !application.Config.Quiet {
			t.Errorf("config = %+v", application.Config)
		}
	})

	t.Run("InvalidConfiguration", func(t *testing.T) {
		if _, err := New([]string{"kpmcalc", "-kernel", "fejer"}, io.Discard); err == nil {
			t.Error("invalid kernel accepted")
		}
	})

	t.Run("UnknownFlag", func(t *testing.T) {
		if _, err := New([]string{"kpmcalc", "-bogus"}, io.Discard); err == nil {
			t.Error("unknown flag accepted")
		}
	})

	t.Run("HelpRequest", func(t *testing.T) {
		_, err := New([]string{"kpmcalc", "-h"}, io.Discard)
		if !IsHelpError(err) {
			t.Errorf("-h error = %v, want flag.ErrHelp", err)
		}
	})
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if !IsHelpError(flag.ErrHelp) {
		t.Error("bare flag.ErrHelp not recognized")
	}
	if !IsHelpError(fmt.Errorf("wrapped: %w", flag.ErrHelp)) {
		t.Error("wrapped flag.ErrHelp not recognized")
	}
	if IsHelpError(errors.New("boom")) || IsHelpError(nil) {
		t.Error("non-help error recognized")
	}
}

func TestRunQuery(t *testing.T) {
	application, err := New([]string{
		"kpmcalc", "-sites", "32", "-points", "51", "-seed", "3",
		"-min-energy", "-2.5", "-max-energy", "2.5", "-q", "-no-color",
	}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	application.ErrWriter = io.Discard

	var out bytes.Buffer
	code := application.Run(context.Background(), &out)
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want success", code)
	}
	// Quiet mode emits bare columnar data, one line per grid point.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 51 {
		t.Errorf("got %d output lines, want 51", len(lines))
	}
}

func TestRunQueryJSON(t *testing.T) {
	application, err := New([]string{
		"kpmcalc", "-sites", "16", "-points", "21", "-seed", "3", "-json", "-no-color",
	}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	application.ErrWriter = io.Discard

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want success", code)
	}
	if !strings.Contains(out.String(), `"query": "ldos"`) {
		t.Errorf("JSON output missing query field: %q", out.String())
	}
}

func TestRunCompletion(t *testing.T) {
	application, err := New([]string{"kpmcalc", "-completion", "bash"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want success", code)
	}
	if !strings.Contains(out.String(), "kpmcalc") {
		t.Error("completion script does not mention the command")
	}

	bad, err := New([]string{"kpmcalc", "-completion", "tcsh"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad.ErrWriter = io.Discard
	if code := bad.Run(context.Background(), io.Discard); code != apperrors.ExitErrorConfig {
		t.Errorf("unsupported shell exit code = %d, want config error", code)
	}
}

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	cases := []struct {
		args []string
		want bool
	}{
		{[]string{"--version"}, true},
		{[]string{"-version"}, true},
		{[]string{"-V"}, true},
		{[]string{"-server", "--version"}, true},
		{[]string{"-v"}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := HasVersionFlag(tc.args); got != tc.want {
			t.Errorf("HasVersionFlag(%v) = %v, want %v", tc.args, got, tc.want)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)
	out := buf.String()
	for _, want := range []string{"kpmcalc", "Commit:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()
	info := GetVersionInfo()
	if info.Version == "" || info.GoVersion == "" || info.Arch == "" {
		t.Errorf("incomplete version info: %+v", info)
	}
}
