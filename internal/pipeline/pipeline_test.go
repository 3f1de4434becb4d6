package pipeline_test

import (
	"errors"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/driverconfig"
	"github.com/kunitoki/etch-sub002/internal/pipeline"
	"github.com/kunitoki/etch-sub002/internal/types"
)

func intLit(n int64) *ast.Expr { return &ast.Expr{Kind: ast.EInt, IntVal: n} }

func TestCompileRunsFullPipelineAndLowersToBytecode(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "+", X: intLit(2), Y: intLit(3),
			}},
		},
	}}

	out, err := pipeline.Compile(prog, driverconfig.Default("main.etch"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := out.Functions["main"]; !ok {
		t.Fatal("compiled program has no main entry point")
	}
}

func TestCompileStopsAtFirstFailingStageAndWrapsTypecheckError(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "undeclared"}},
		},
	}}

	_, err := pipeline.Compile(prog, driverconfig.Default("main.etch"))
	if err == nil {
		t.Fatal("expected a typecheck failure")
	}
	var typeErr *cerrs.TypecheckError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error = %v (%T), want one that unwraps to *cerrs.TypecheckError", err, err)
	}
}

func TestCompileStopsAtProverStageForUnsafeProgram(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name:       "main",
		ReturnType: types.TInt(),
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "/", X: intLit(1), Y: intLit(0),
			}},
		},
	}}

	_, err := pipeline.Compile(prog, driverconfig.Default("main.etch"))
	if err == nil {
		t.Fatal("expected the prover stage to reject division by a constant zero")
	}
	var proverErr *cerrs.ProverError
	if !errors.As(err, &proverErr) {
		t.Fatalf("error = %v (%T), want one that unwraps to *cerrs.ProverError", err, err)
	}
}
