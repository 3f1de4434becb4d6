package prover_test

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/prover"
)

func TestPureEvalSimpleArithmetic(t *testing.T) {
	double := &ast.FunDecl{
		Name:   "double",
		Params: []ast.Param{{Name: "n"}},
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "*",
				X: &ast.Expr{Kind: ast.EVar, Name: "n"},
				Y: &ast.Expr{Kind: ast.EInt, IntVal: 2},
			}},
		},
	}

	v, ok := prover.PureEval(double, []int64{21}, 0)
	if !ok || v != 42 {
		t.Fatalf("PureEval(double, [21]) = (%d, %v), want (42, true)", v, ok)
	}
}

func TestPureEvalBoundedWhileLoop(t *testing.T) {
	sumTo := &ast.FunDecl{
		Name:   "sumTo",
		Params: []ast.Param{{Name: "n"}},
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "i", Init: &ast.Expr{Kind: ast.EInt, IntVal: 0}},
			{Kind: ast.SVar, Name: "acc", Init: &ast.Expr{Kind: ast.EInt, IntVal: 0}},
			{Kind: ast.SWhile,
				Cond: &ast.Expr{Kind: ast.EBinary, Op: "<",
					X: &ast.Expr{Kind: ast.EVar, Name: "i"}, Y: &ast.Expr{Kind: ast.EVar, Name: "n"}},
				Body: []ast.Stmt{
					{Kind: ast.SAssign, Name: "acc", Value: &ast.Expr{
						Kind: ast.EBinary, Op: "+",
						X:    &ast.Expr{Kind: ast.EVar, Name: "acc"},
						Y:    &ast.Expr{Kind: ast.EVar, Name: "i"},
					}},
					{Kind: ast.SAssign, Name: "i", Value: &ast.Expr{
						Kind: ast.EBinary, Op: "+",
						X:    &ast.Expr{Kind: ast.EVar, Name: "i"},
						Y:    &ast.Expr{Kind: ast.EInt, IntVal: 1},
					}},
				},
			},
			{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "acc"}},
		},
	}

	v, ok := prover.PureEval(sumTo, []int64{5}, 0)
	if !ok || v != 10 {
		t.Fatalf("PureEval(sumTo, [5]) = (%d, %v), want (10, true) (0+1+2+3+4)", v, ok)
	}
}

func TestPureEvalFailsOnDivideByZero(t *testing.T) {
	divZero := &ast.FunDecl{
		Name: "divZero",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "/",
				X: &ast.Expr{Kind: ast.EInt, IntVal: 1},
				Y: &ast.Expr{Kind: ast.EInt, IntVal: 0},
			}},
		},
	}

	if _, ok := prover.PureEval(divZero, nil, 0); ok {
		t.Fatal("PureEval should report \"cannot evaluate\" for a division by zero, not a panic or wrong value")
	}
}

func TestPureEvalFailsWhenArgumentsMissing(t *testing.T) {
	needsArg := &ast.FunDecl{
		Name:   "needsArg",
		Params: []ast.Param{{Name: "n"}},
		Body:   []ast.Stmt{{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "n"}}},
	}

	if _, ok := prover.PureEval(needsArg, nil, 0); ok {
		t.Fatal("PureEval should fail cleanly when fewer args are supplied than params")
	}
}
