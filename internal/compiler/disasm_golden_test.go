package compiler_test

import (
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/compiler"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// Golden fixtures bundle a tiny Etch-shaped AST description (built in Go,
// since no lexer/parser exists in this module's scope) alongside its
// expected disassembly in one txtar archive, the way the broader example
// pack bundles multi-section test data with golang.org/x/tools/txtar.
func TestDisassembleMatchesGoldenFixtures(t *testing.T) {
	cases := []struct {
		fixture string
		build   func() *ast.Program
	}{
		{
			fixture: "testdata/add.txtar",
			build: func() *ast.Program {
				prog := ast.NewProgram()
				prog.FunInstances["main"] = &ast.FunDecl{
					Name:       "main",
					ReturnType: types.TInt(),
					Body: []ast.Stmt{
						{Kind: ast.SReturn, Value: &ast.Expr{
							Kind: ast.EBinary, Op: "+", X: intLit(2), Y: intLit(3), Typ: types.TInt(),
						}},
					},
				}
				return prog
			},
		},
		{
			fixture: "testdata/call.txtar",
			build: func() *ast.Program {
				prog := ast.NewProgram()
				prog.FunInstances["double"] = &ast.FunDecl{
					Name:       "double",
					ReturnType: types.TInt(),
					Params:     []ast.Param{{Name: "n", Type: types.TInt()}},
					Body: []ast.Stmt{
						{Kind: ast.SReturn, Value: &ast.Expr{
							Kind: ast.EBinary, Op: "*",
							X:    &ast.Expr{Kind: ast.EVar, Name: "n", Typ: types.TInt()},
							Y:    intLit(2),
							Typ:  types.TInt(),
						}},
					},
				}
				prog.FunInstances["main"] = &ast.FunDecl{
					Name:       "main",
					ReturnType: types.TInt(),
					Body: []ast.Stmt{
						{Kind: ast.SReturn, Value: &ast.Expr{
							Kind: ast.ECall, FName: "double", Args: []*ast.Expr{intLit(21)}, Typ: types.TInt(),
						}},
					},
				}
				return prog
			},
		},
	}

	for _, c := range cases {
		t.Run(c.fixture, func(t *testing.T) {
			ar, err := txtar.ParseFile(filepath.FromSlash(c.fixture))
			if err != nil {
				t.Fatalf("txtar.ParseFile: %v", err)
			}
			var want string
			for _, f := range ar.Files {
				if f.Name == "disasm" {
					want = string(f.Data)
				}
			}
			if want == "" {
				t.Fatalf("fixture %s has no \"disasm\" section", c.fixture)
			}

			compiled, err := compiler.Compile(c.build(), false)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}

			if got := compiler.Disassemble(compiled.Chunk); got != want {
				t.Errorf("Disassemble mismatch\n got:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}
