// Package cerrs defines the four disjoint error kinds the core surfaces
// (spec §7). Each is a small struct with an Error() string method and a
// New* constructor, following the teacher's
// funvibe-funxy/internal/typesystem/error.go convention.
package cerrs

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/token"
)

// TypecheckError is E-Typecheck: a rule violation during §4.2. Aborts
// compilation.
type TypecheckError struct {
	Pos token.Pos
	Msg string
}

func (e *TypecheckError) Error() string {
	return fmt.Sprintf("%s: typecheck error: %s", e.Pos, e.Msg)
}

func NewTypecheckError(pos token.Pos, format string, args ...interface{}) *TypecheckError {
	return &TypecheckError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ProverReason enumerates the safety-violation categories spec §7 names.
type ProverReason string

const (
	ReasonOverflow        ProverReason = "overflow"
	ReasonDivideByZero    ProverReason = "divide-by-zero"
	ReasonNilDeref        ProverReason = "nil-deref"
	ReasonOutOfBounds     ProverReason = "out-of-bounds"
	ReasonUninitialized   ProverReason = "uninitialized-use"
	ReasonUnreachableCode ProverReason = "unreachable-code"
)

// ProverError is E-Prover: a safety violation during §4.4. Aborts compilation.
type ProverError struct {
	Pos    token.Pos
	Reason ProverReason
	Msg    string
}

func (e *ProverError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Reason, e.Msg)
}

func NewProverError(pos token.Pos, reason ProverReason, format string, args ...interface{}) *ProverError {
	return &ProverError{Pos: pos, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// RuntimeError is E-Runtime: produced by the VM during §4.6. Terminates the
// run with a non-zero exit code.
type RuntimeError struct {
	PC  int
	Pos token.Pos // zero value if debug info isn't available
	Msg string
}

func (e *RuntimeError) Error() string {
	if e.Pos.IsZero() {
		return fmt.Sprintf("runtime error at pc=%d: %s", e.PC, e.Msg)
	}
	return fmt.Sprintf("%s: runtime error: %s", e.Pos, e.Msg)
}

func NewRuntimeError(pc int, pos token.Pos, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{PC: pc, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ParseError is E-Parse: produced outside the core (spec §1 scopes the
// lexer/parser out). It is represented here only so the driver can handle
// all four kinds uniformly; the core never constructs one.
type ParseError struct {
	Pos token.Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Msg)
}
