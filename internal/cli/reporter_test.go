package cli_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/cli"
	"github.com/kunitoki/etch-sub002/internal/token"
)

func TestReportFormatsTypecheckError(t *testing.T) {
	var buf bytes.Buffer
	r := &cli.Reporter{Out: &buf}
	err := cerrs.NewTypecheckError(token.Pos{File: "main.etch", Line: 3, Col: 5}, "undeclared variable %q", "x")

	if code := r.Report(err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "error[typecheck]:") {
		t.Errorf("output = %q, want it to contain 'error[typecheck]:'", buf.String())
	}
}

func TestReportUnwrapsWrappedStageError(t *testing.T) {
	var buf bytes.Buffer
	r := &cli.Reporter{Out: &buf}
	inner := cerrs.NewProverError(token.Pos{File: "main.etch", Line: 1, Col: 1}, cerrs.ReasonDivideByZero, "division by a constant zero")
	wrapped := fmt.Errorf("prove: %w", inner)

	r.Report(wrapped)
	out := buf.String()
	if !strings.Contains(out, "error[prover]:") {
		t.Errorf("output = %q, want a prover-formatted line even though the error was wrapped", out)
	}
	if !strings.Contains(out, string(cerrs.ReasonDivideByZero)) {
		t.Errorf("output = %q, want it to mention the prover reason", out)
	}
}

func TestReportFormatsRuntimeErrorWithoutDebugInfo(t *testing.T) {
	var buf bytes.Buffer
	r := &cli.Reporter{Out: &buf}
	err := cerrs.NewRuntimeError(42, token.Pos{}, "division by zero")

	r.Report(err)
	if !strings.Contains(buf.String(), "pc=42") {
		t.Errorf("output = %q, want it to fall back to a pc= marker with no debug position", buf.String())
	}
}

func TestReportFormatsGenericError(t *testing.T) {
	var buf bytes.Buffer
	r := &cli.Reporter{Out: &buf}

	r.Report(fmt.Errorf("no frontend registered"))
	if !strings.Contains(buf.String(), "error:") || !strings.Contains(buf.String(), "no frontend registered") {
		t.Errorf("output = %q, want a generic error: line", buf.String())
	}
}

func TestReportNeverColorizesWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	r := &cli.Reporter{Out: &buf, Color: false}

	r.Report(cerrs.NewTypecheckError(token.Pos{}, "boom"))
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("output = %q, want no ANSI escapes when Color is false", buf.String())
	}
}
