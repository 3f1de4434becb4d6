package checker_test

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/checker"
	"github.com/kunitoki/etch-sub002/internal/types"
)

func intLit(n int64) *ast.Expr { return &ast.Expr{Kind: ast.EInt, IntVal: n} }

func TestCheckProgramInfersVarTypeFromInit(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "x", Init: intLit(3)},
			{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "x"}},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err != nil {
		t.Fatalf("CheckProgram: %v", err)
	}
	inst := prog.FunInstances["main"]
	if inst.Body[0].DeclaredType.Kind != types.Int {
		t.Fatalf("inferred type = %v, want Int", inst.Body[0].DeclaredType.Kind)
	}
	if inst.ReturnType.Kind != types.Int {
		t.Fatalf("inferred return type = %v, want Int", inst.ReturnType.Kind)
	}
}

func TestCheckProgramRejectsAssignToImmutable(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "x", IsLet: true, Init: intLit(1)},
			{Kind: ast.SAssign, Name: "x", Value: intLit(2)},
			{Kind: ast.SReturn, Value: intLit(0)},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err == nil {
		t.Fatal("expected an error assigning to a let-bound variable")
	}
}

func TestCheckProgramRejectsMismatchedReturnType(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name:       "main",
		ReturnType: types.TBool(),
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: intLit(1)},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err == nil {
		t.Fatal("expected a return-type mismatch error")
	}
}

func TestCheckProgramRejectsUndeclaredVariable(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EVar, Name: "nope"}},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err == nil {
		t.Fatal("expected an error referencing an undeclared variable")
	}
}

func TestCheckProgramRejectsOperatorTypeMismatch(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "+",
				X:    intLit(1),
				Y:    &ast.Expr{Kind: ast.EBool, BoolVal: true},
			}},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err == nil {
		t.Fatal("expected an error adding int and bool")
	}
}

func TestCheckProgramAcceptsArrayIndexing(t *testing.T) {
	prog := ast.NewProgram()
	prog.Funs["main"] = []*ast.FunDecl{{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "xs", Init: &ast.Expr{
				Kind: ast.EArray, Elems: []*ast.Expr{intLit(1), intLit(2), intLit(3)},
			}},
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EIndex,
				X:    &ast.Expr{Kind: ast.EVar, Name: "xs"},
				Y:    intLit(0),
			}},
		},
	}}

	if err := checker.New(prog).CheckProgram(); err != nil {
		t.Fatalf("CheckProgram: %v", err)
	}
}
