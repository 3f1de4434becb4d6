package prover_test

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/prover"
)

func intLit(n int64) *ast.Expr { return &ast.Expr{Kind: ast.EInt, IntVal: n} }

func proverErr(t *testing.T, err error) *cerrs.ProverError {
	t.Helper()
	pe, ok := err.(*cerrs.ProverError)
	if !ok {
		t.Fatalf("error = %T(%v), want *cerrs.ProverError", err, err)
	}
	return pe
}

func TestProveRejectsConstantDivideByZero(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "/", X: intLit(10), Y: intLit(0),
			}},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected a divide-by-zero prover error")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonDivideByZero {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonDivideByZero)
	}
}

func TestProveRejectsOutOfBoundsConstantIndex(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "xs", Init: &ast.Expr{
				Kind: ast.EArray, Elems: []*ast.Expr{intLit(1), intLit(2)},
			}},
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EIndex,
				X:    &ast.Expr{Kind: ast.EVar, Name: "xs"},
				Y:    intLit(5),
			}},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an out-of-bounds prover error")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonOutOfBounds {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonOutOfBounds)
	}
}

func TestProveRejectsUseBeforeInitialization(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "x", DeclaredType: nil}, // no Init: declared but unset
			{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "x"}},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an uninitialized-use prover error")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonUninitialized {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonUninitialized)
	}
}

func TestProveAcceptsSafeProgram(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "xs", Init: &ast.Expr{
				Kind: ast.EArray, Elems: []*ast.Expr{intLit(1), intLit(2), intLit(3)},
			}},
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EIndex,
				X:    &ast.Expr{Kind: ast.EVar, Name: "xs"},
				Y:    intLit(1),
			}},
		},
	}

	if err := prover.Prove(prog); err != nil {
		t.Fatalf("Prove rejected a safe program: %v", err)
	}
}

func TestProveRejectsDeadElseUnderConstantTrueCondition(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{
				Kind: ast.SIf,
				Cond: &ast.Expr{Kind: ast.EBool, BoolVal: true},
				Then: []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(1)}},
				Else: []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(2)}},
			},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an unreachable-code prover error for a dead else branch")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonUnreachableCode {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonUnreachableCode)
	}
}

func TestProveRejectsDeadThenUnderConstantFalseCondition(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{
				Kind: ast.SIf,
				Cond: &ast.Expr{Kind: ast.EBool, BoolVal: false},
				Then: []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(1)}},
			},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an unreachable-code prover error for a dead then branch")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonUnreachableCode {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonUnreachableCode)
	}
}

func TestProveRejectsWhileWithConstantFalseConditionAndNonEmptyBody(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{
				Kind: ast.SWhile,
				Cond: &ast.Expr{Kind: ast.EBool, BoolVal: false},
				Body: []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(1)}},
			},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an unreachable-code prover error for a while(false) body")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonUnreachableCode {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonUnreachableCode)
	}
}

func TestProveRejectsForOverProvablyEmptyExclusiveRange(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{
				Kind:      ast.SFor,
				ForVar:    "i",
				Start:     intLit(5),
				End:       intLit(5),
				Inclusive: false,
				Body:      []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(1)}},
			},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}

	err := prover.Prove(prog)
	if err == nil {
		t.Fatal("expected an unreachable-code prover error for `for i in 5..5` (exclusive)")
	}
	if pe := proverErr(t, err); pe.Reason != cerrs.ReasonUnreachableCode {
		t.Fatalf("Reason = %s, want %s", pe.Reason, cerrs.ReasonUnreachableCode)
	}
}

func TestProveAcceptsForOverNonEmptyRange(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{
				Kind:      ast.SFor,
				ForVar:    "i",
				Start:     intLit(0),
				End:       intLit(5),
				Inclusive: false,
				Body:      []ast.Stmt{{Kind: ast.SDiscard, Value: intLit(1)}},
			},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}

	if err := prover.Prove(prog); err != nil {
		t.Fatalf("Prove rejected a for-loop over a non-empty range: %v", err)
	}
}

func TestProveAcceptsProgramWithNoMain(t *testing.T) {
	prog := ast.NewProgram()
	prog.FunInstances["helper"] = &ast.FunDecl{Name: "helper", Body: []ast.Stmt{
		{Kind: ast.SReturn, Value: intLit(0)},
	}}

	if err := prover.Prove(prog); err != nil {
		t.Fatalf("Prove should be a no-op with no main: %v", err)
	}
}
