package cerrs_test

import (
	"strings"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/token"
)

func TestTypecheckErrorFormatsPositionAndMessage(t *testing.T) {
	err := cerrs.NewTypecheckError(token.Pos{File: "a.etch", Line: 1, Col: 2}, "want %s, got %s", "int", "string")
	if got := err.Error(); !strings.Contains(got, "a.etch:1:2") || !strings.Contains(got, "want int, got string") {
		t.Errorf("Error() = %q, missing position or message", got)
	}
}

func TestProverErrorIncludesReason(t *testing.T) {
	err := cerrs.NewProverError(token.Pos{Line: 4, Col: 1}, cerrs.ReasonDivideByZero, "divisor may be zero")
	if got := err.Error(); !strings.Contains(got, string(cerrs.ReasonDivideByZero)) {
		t.Errorf("Error() = %q, want it to mention reason %q", got, cerrs.ReasonDivideByZero)
	}
}

func TestRuntimeErrorFallsBackToPCWithoutDebugInfo(t *testing.T) {
	err := cerrs.NewRuntimeError(17, token.Pos{}, "division by zero")
	if got := err.Error(); !strings.Contains(got, "pc=17") {
		t.Errorf("Error() = %q, want it to fall back to pc=17 when Pos is zero", got)
	}
}

func TestRuntimeErrorPrefersPositionWhenAvailable(t *testing.T) {
	err := cerrs.NewRuntimeError(17, token.Pos{File: "a.etch", Line: 5, Col: 3}, "division by zero")
	if got := err.Error(); strings.Contains(got, "pc=") || !strings.Contains(got, "a.etch:5:3") {
		t.Errorf("Error() = %q, want position rather than pc fallback", got)
	}
}
