package comptime

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
)

func newCallExpr(fname string, args ...*ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ECall, FName: fname, Args: args}
}

func newIntLit(n int64) *ast.Expr {
	return &ast.Expr{Kind: ast.EInt, IntVal: n}
}

func TestPurityOfBuiltins(t *testing.T) {
	prog := ast.NewProgram()
	pc := newPurityCache(prog)

	for _, name := range []string{"print", "println", "rand", "seed", "readFile"} {
		e := newCallExpr(name, newIntLit(1))
		if pc.exprPure(e) {
			t.Errorf("exprPure(%s(...)) = true, want false", name)
		}
	}
	for _, name := range []string{"toString", "parseInt", "new", "deref", "assumeNonZero"} {
		e := newCallExpr(name, newIntLit(1))
		if !pc.exprPure(e) {
			t.Errorf("exprPure(%s(...)) = false, want true", name)
		}
	}
}

func TestPurityIsTransitive(t *testing.T) {
	prog := ast.NewProgram()

	// impureFn calls print; pureFn calls impureFn and so is impure too.
	impureFn := &ast.FunDecl{Name: "impureFn", Body: []ast.Stmt{
		{Kind: ast.SExpr, Value: newCallExpr("print", newIntLit(1))},
		{Kind: ast.SReturn, Value: newIntLit(0)},
	}}
	callerFn := &ast.FunDecl{Name: "callerFn", Body: []ast.Stmt{
		{Kind: ast.SReturn, Value: newCallExpr("impureFn")},
	}}
	leafFn := &ast.FunDecl{Name: "leafFn", Body: []ast.Stmt{
		{Kind: ast.SReturn, Value: &ast.Expr{Kind: ast.EBinary, Op: "+", X: newIntLit(1), Y: newIntLit(2)}},
	}}
	prog.FunInstances["impureFn"] = impureFn
	prog.FunInstances["callerFn"] = callerFn
	prog.FunInstances["leafFn"] = leafFn

	pc := newPurityCache(prog)
	if pc.funcIsPure("impureFn") {
		t.Error("impureFn should be impure (calls print directly)")
	}
	if pc.funcIsPure("callerFn") {
		t.Error("callerFn should be impure (transitively calls print via impureFn)")
	}
	if !pc.funcIsPure("leafFn") {
		t.Error("leafFn should be pure (pure arithmetic only)")
	}
}

func TestPurityHandlesRecursionWithoutInfiniteLoop(t *testing.T) {
	prog := ast.NewProgram()
	recFn := &ast.FunDecl{Name: "recFn", Body: []ast.Stmt{
		{Kind: ast.SReturn, Value: newCallExpr("recFn")},
	}}
	prog.FunInstances["recFn"] = recFn

	pc := newPurityCache(prog)
	if !pc.funcIsPure("recFn") {
		t.Error("a purely-recursive function (no impure builtin anywhere) should be treated as pure")
	}
}
