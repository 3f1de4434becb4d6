package comptime

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

func intExpr(n int64) *ast.Expr { return &ast.Expr{Kind: ast.EInt, IntVal: n, Typ: types.TInt()} }

func TestFoldComptimeExprReplacesWithLiteral(t *testing.T) {
	prog := ast.NewProgram()
	sum := &ast.Expr{Kind: ast.EBinary, Op: "+", X: intExpr(2), Y: intExpr(3), Typ: types.TInt()}
	comptimeExpr := &ast.Expr{Kind: ast.EComptime, Inner: sum, Typ: types.TInt()}

	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "x", DeclaredType: types.TInt(), Init: comptimeExpr},
			{Kind: ast.SReturn, Value: intExpr(0)},
		},
	}

	if err := Fold(prog); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	init := prog.FunInstances["main"].Body[0].Init
	if init.Kind != ast.EInt || init.IntVal != 5 {
		t.Fatalf("comptime(2+3) folded to %+v, want EInt 5", init)
	}
}

func TestFoldPureCallFoldsIntFunction(t *testing.T) {
	prog := ast.NewProgram()
	double := &ast.FunDecl{
		Name:   "double",
		Params: []ast.Param{{Name: "n", Type: types.TInt()}},
		Body: []ast.Stmt{
			{Kind: ast.SReturn, Value: &ast.Expr{
				Kind: ast.EBinary, Op: "*",
				X: &ast.Expr{Kind: ast.EVar, Name: "n", Typ: types.TInt()},
				Y: intExpr(2), Typ: types.TInt(),
			}},
		},
	}
	call := &ast.Expr{Kind: ast.ECall, FName: "double", Args: []*ast.Expr{intExpr(21)}, Typ: types.TInt()}
	prog.FunInstances["double"] = double
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SVar, Name: "x", DeclaredType: types.TInt(), Init: call},
			{Kind: ast.SReturn, Value: intExpr(0)},
		},
	}

	if err := Fold(prog); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	init := prog.FunInstances["main"].Body[0].Init
	if init.Kind != ast.EInt || init.IntVal != 42 {
		t.Fatalf("double(21) folded to %+v, want EInt 42", init)
	}
}

func TestFoldComptimeBlockInjectsVarDecl(t *testing.T) {
	prog := ast.NewProgram()
	block := []ast.Stmt{
		{Kind: ast.SVar, Name: "n", DeclaredType: types.TInt(), Init: intExpr(10)},
		{Kind: ast.SExpr, Value: &ast.Expr{
			Kind: ast.ECall, FName: "inject",
			Args: []*ast.Expr{
				{Kind: ast.EString, StringVal: "answer"},
				{Kind: ast.EString, StringVal: "int"},
				{Kind: ast.EVar, Name: "n", Typ: types.TInt()},
			},
		}},
	}
	prog.FunInstances["main"] = &ast.FunDecl{
		Name: "main",
		Body: []ast.Stmt{
			{Kind: ast.SComptime, Body: block},
			{Kind: ast.SReturn, Value: intExpr(0)},
		},
	}

	if err := Fold(prog); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	body := prog.FunInstances["main"].Body
	if len(body) != 2 {
		t.Fatalf("expected comptime block to collapse to exactly one var decl, got %d statements", len(body))
	}
	injected := body[0]
	if injected.Kind != ast.SVar || injected.Name != "answer" {
		t.Fatalf("injected statement = %+v, want SVar named 'answer'", injected)
	}
	if injected.Init == nil || injected.Init.Kind != ast.EInt || injected.Init.IntVal != 10 {
		t.Fatalf("injected value = %+v, want EInt 10", injected.Init)
	}
}
