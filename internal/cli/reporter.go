// Package cli implements the driver-facing diagnostic reporter: it prints
// the four E-* error kinds (spec §7) to a writer, colorized when that
// writer is a terminal. Grounded on
// funvibe-funxy/internal/evaluator/builtins_term.go's
// github.com/mattn/go-isatty TTY-gated ANSI color convention, narrowed from
// general terminal styling down to just the error-kind palette this driver
// needs.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/kunitoki/etch-sub002/internal/cerrs"
)

// Reporter writes position-tagged diagnostics to Out.
type Reporter struct {
	Out   io.Writer
	Color bool
}

// NewReporter builds a Reporter for w, auto-detecting color support the
// same way the teacher's term builtins do: only colorize when w is backed
// by a terminal file descriptor and NO_COLOR isn't set.
func NewReporter(w io.Writer) *Reporter {
	color := false
	if os.Getenv("NO_COLOR") == "" {
		if f, ok := w.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	return &Reporter{Out: w, Color: color}
}

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiReset  = "\033[0m"
)

func (r *Reporter) colorize(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + ansiReset
}

// Report prints err in the format appropriate to its E-* kind, returning
// the exit code the driver should use (spec §7: E-Runtime terminates with
// a non-zero exit code; E-Typecheck and E-Prover abort compilation the same
// way). errors.As unwraps the stage-name wrapper pipeline.Run adds, so a
// typecheck or prover error still prints with its specific formatting
// instead of falling through to the generic branch.
func (r *Reporter) Report(err error) int {
	var typeErr *cerrs.TypecheckError
	var proverErr *cerrs.ProverError
	var runtimeErr *cerrs.RuntimeError
	var parseErr *cerrs.ParseError

	switch {
	case errors.As(err, &typeErr):
		fmt.Fprintf(r.Out, "%s %s: %s\n", r.colorize(ansiRed, "error[typecheck]:"), typeErr.Pos, typeErr.Msg)
	case errors.As(err, &proverErr):
		fmt.Fprintf(r.Out, "%s %s: %s: %s\n", r.colorize(ansiYellow, "error[prover]:"), proverErr.Pos, proverErr.Reason, proverErr.Msg)
	case errors.As(err, &runtimeErr):
		if runtimeErr.Pos.IsZero() {
			fmt.Fprintf(r.Out, "%s pc=%d: %s\n", r.colorize(ansiCyan, "error[runtime]:"), runtimeErr.PC, runtimeErr.Msg)
		} else {
			fmt.Fprintf(r.Out, "%s %s: %s\n", r.colorize(ansiCyan, "error[runtime]:"), runtimeErr.Pos, runtimeErr.Msg)
		}
	case errors.As(err, &parseErr):
		fmt.Fprintf(r.Out, "%s %s: %s\n", r.colorize(ansiRed, "error[parse]:"), parseErr.Pos, parseErr.Msg)
	default:
		fmt.Fprintf(r.Out, "%s %s\n", r.colorize(ansiRed, "error:"), err.Error())
	}
	return 1
}
