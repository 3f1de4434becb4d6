package comptime

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/compiler"
	"github.com/kunitoki/etch-sub002/internal/prover"
	"github.com/kunitoki/etch-sub002/internal/token"
	"github.com/kunitoki/etch-sub002/internal/types"
	"github.com/kunitoki/etch-sub002/internal/vm"
)

// Fold implements spec §4.3: it eliminates every `comptime` node from prog
// in place, folds simple pure calls, and rewrites `comptime { ... }` blocks
// into the `var` declarations their inject(...) calls describe. The
// guarantee after Fold returns successfully is the one spec §4.3 states:
// the AST has zero comptime nodes, and every injected declaration is an
// ordinary var statement ready for the pipeline's second typecheck pass.
func Fold(prog *ast.Program) error {
	f := &folder{prog: prog, purity: newPurityCache(prog)}

	out, err := f.foldStmts(prog.Globals)
	if err != nil {
		return err
	}
	prog.Globals = out

	for _, fd := range prog.FunInstances {
		body, err := f.foldStmts(fd.Body)
		if err != nil {
			return err
		}
		fd.Body = body
	}
	return nil
}

type folder struct {
	prog   *ast.Program
	purity *purityCache
}

// foldStmts folds every statement in ss and returns the replacement slice.
// Most statements fold 1:1; an SComptime block folds to zero or more
// synthesized var declarations (spec §4.3's inject-to-var rewrite).
func (f *folder) foldStmts(ss []ast.Stmt) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(ss))
	for i := range ss {
		replaced, err := f.foldStmt(&ss[i])
		if err != nil {
			return nil, err
		}
		out = append(out, replaced...)
	}
	return out, nil
}

func (f *folder) foldStmt(s *ast.Stmt) ([]ast.Stmt, error) {
	switch s.Kind {
	case ast.SVar:
		if s.Init != nil {
			if err := f.foldExpr(s.Init); err != nil {
				return nil, err
			}
		}
		// spec §4.3 rule 4: variables declared `generic("__comptime_infer__")`
		// have their type finalized from the (now-folded) initializer.
		if s.DeclaredType != nil && s.DeclaredType.Kind == types.Generic &&
			s.DeclaredType.Name == "__comptime_infer__" && s.Init != nil && s.Init.Typ != nil {
			s.DeclaredType = s.Init.Typ
		}
		return []ast.Stmt{*s}, nil

	case ast.SAssign, ast.SReturn, ast.SExpr, ast.SDiscard:
		if s.Value != nil {
			if err := f.foldExpr(s.Value); err != nil {
				return nil, err
			}
		}
		return []ast.Stmt{*s}, nil

	case ast.SFieldAssign:
		if s.Index != nil {
			if err := f.foldExpr(s.Index); err != nil {
				return nil, err
			}
		}
		if err := f.foldExpr(s.Value); err != nil {
			return nil, err
		}
		return []ast.Stmt{*s}, nil

	case ast.SIf:
		if err := f.foldExpr(s.Cond); err != nil {
			return nil, err
		}
		var err error
		if s.Then, err = f.foldStmts(s.Then); err != nil {
			return nil, err
		}
		if s.Else, err = f.foldStmts(s.Else); err != nil {
			return nil, err
		}
		for i := range s.Elifs {
			if err := f.foldExpr(s.Elifs[i].Cond); err != nil {
				return nil, err
			}
			if s.Elifs[i].Body, err = f.foldStmts(s.Elifs[i].Body); err != nil {
				return nil, err
			}
		}
		return []ast.Stmt{*s}, nil

	case ast.SWhile:
		if err := f.foldExpr(s.Cond); err != nil {
			return nil, err
		}
		body, err := f.foldStmts(s.Body)
		if err != nil {
			return nil, err
		}
		s.Body = body
		return []ast.Stmt{*s}, nil

	case ast.SFor:
		if s.ForArray != nil {
			if err := f.foldExpr(s.ForArray); err != nil {
				return nil, err
			}
		}
		if s.Start != nil {
			if err := f.foldExpr(s.Start); err != nil {
				return nil, err
			}
		}
		if s.End != nil {
			if err := f.foldExpr(s.End); err != nil {
				return nil, err
			}
		}
		body, err := f.foldStmts(s.Body)
		if err != nil {
			return nil, err
		}
		s.Body = body
		return []ast.Stmt{*s}, nil

	case ast.SDefer:
		if s.DeferBody != nil {
			replaced, err := f.foldStmt(s.DeferBody)
			if err != nil {
				return nil, err
			}
			if len(replaced) != 1 {
				return nil, fmt.Errorf("defer at %s: deferred statement must not expand to a block", s.Pos)
			}
			s.DeferBody = &replaced[0]
		}
		return []ast.Stmt{*s}, nil

	case ast.SComptime:
		return f.foldComptimeBlock(s)

	default: // SBreak, STypeDecl, SImport
		return []ast.Stmt{*s}, nil
	}
}

// foldExpr folds e in place, bottom-up: subexpressions fold first, so a
// comptime(expr) wrapping a pure call sees that call already reduced to a
// literal.
func (f *folder) foldExpr(e *ast.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EUnary, ast.ENewRef, ast.EDeref, ast.EArrayLen, ast.ECast,
		ast.EOptionSome, ast.EResultOk, ast.EResultErr:
		if err := f.foldExpr(e.X); err != nil {
			return err
		}
	case ast.EBinary, ast.EIndex:
		if err := f.foldExpr(e.X); err != nil {
			return err
		}
		if err := f.foldExpr(e.Y); err != nil {
			return err
		}
	case ast.EArray:
		for _, el := range e.Elems {
			if err := f.foldExpr(el); err != nil {
				return err
			}
		}
	case ast.ESlice:
		if err := f.foldExpr(e.X); err != nil {
			return err
		}
		if err := f.foldExpr(e.Lo); err != nil {
			return err
		}
		if err := f.foldExpr(e.Hi); err != nil {
			return err
		}
	case ast.EIf:
		if err := f.foldExpr(e.Cond); err != nil {
			return err
		}
		if err := f.foldExpr(e.Then); err != nil {
			return err
		}
		if err := f.foldExpr(e.Else); err != nil {
			return err
		}
	case ast.EMatch:
		if err := f.foldExpr(e.Scrutinee); err != nil {
			return err
		}
		for i := range e.Cases {
			if err := f.foldExpr(e.Cases[i].Body); err != nil {
				return err
			}
		}
	case ast.ECall:
		for _, a := range e.Args {
			if err := f.foldExpr(a); err != nil {
				return err
			}
		}
		f.foldPureCall(e)
	case ast.EComptime:
		return f.foldComptimeExpr(e)
	}
	return nil
}

// foldPureCall implements spec §4.3/§4.4's "fold simple pure calls": when e
// is a call to a pure, int-returning user function whose arguments have all
// folded down to int literals, run it through the shared prover.PureEval
// interpreter and replace the call with its result. Anything PureEval can't
// handle (spec's "cannot evaluate") is left as an ordinary call — this is
// the local-recovery rule of spec line 238, not a user-visible error.
func (f *folder) foldPureCall(e *ast.Expr) {
	if e.Typ == nil || e.Typ.Kind != types.Int {
		return
	}
	fd, ok := f.prog.FunInstances[e.FName]
	if !ok || !f.purity.funcIsPure(e.FName) {
		return
	}
	args := make([]int64, len(e.Args))
	for i, a := range e.Args {
		if a.Kind != ast.EInt {
			return
		}
		args[i] = a.IntVal
	}
	v, ok := prover.PureEval(fd, args, 0)
	if !ok {
		return
	}
	*e = ast.Expr{Kind: ast.EInt, Pos: e.Pos, Typ: e.Typ, IntVal: v}
}

// foldComptimeExpr implements the `comptime(e)` form (spec §4.3): compile a
// synthetic single-expression program and run it on a fresh VM, then splice
// the result back in as a literal.
func (f *folder) foldComptimeExpr(e *ast.Expr) error {
	if err := f.foldExpr(e.Inner); err != nil {
		return err
	}
	result, err := f.runSynthetic(e.Pos, []ast.Stmt{{Kind: ast.SReturn, Pos: e.Pos, Value: e.Inner}})
	if err != nil {
		return fmt.Errorf("comptime(...) at %s: %w", e.Pos, err)
	}
	lit, err := valueToLiteral(e.Pos, e.Typ, result)
	if err != nil {
		return err
	}
	*e = *lit
	return nil
}

// foldComptimeBlock implements the `comptime { ... }` form (spec §4.3): run
// the block's statements on a fresh VM, collect every inject(name, type,
// value) call, and replace the whole SComptime statement with the ordinary
// var declarations those calls describe.
func (f *folder) foldComptimeBlock(s *ast.Stmt) ([]ast.Stmt, error) {
	body, err := f.foldStmts(s.Body)
	if err != nil {
		return nil, err
	}

	injects := collectInjects(body)
	// inject(...) itself is a compile-time pseudo-builtin (spec §4.3); it
	// has no runtime meaning and the real VM treats reaching it as a bug
	// (internal/vm/builtins.go), so the statements actually executed here
	// must skip top-level inject(...) call statements.
	runnable := stripTopLevelInjectCalls(body)

	if len(injects) == 0 {
		if _, err := f.runSynthetic(s.Pos, append(append([]ast.Stmt{}, runnable...), ast.Stmt{
			Kind: ast.SReturn, Pos: s.Pos, Value: &ast.Expr{Kind: ast.EInt, Pos: s.Pos, Typ: types.TInt()},
		})); err != nil {
			return nil, fmt.Errorf("comptime block at %s: %w", s.Pos, err)
		}
		return nil, nil
	}

	values := make([]*ast.Expr, len(injects))
	for i, inj := range injects {
		values[i] = inj.value
	}
	tail := append(append([]ast.Stmt{}, runnable...), ast.Stmt{
		Kind:  ast.SReturn,
		Pos:   s.Pos,
		Value: &ast.Expr{Kind: ast.EArray, Pos: s.Pos, Elems: values},
	})
	result, err := f.runSynthetic(s.Pos, tail)
	if err != nil {
		return nil, fmt.Errorf("comptime block at %s: %w", s.Pos, err)
	}
	if result.Kind != compiler.KindArray || len(result.Array) != len(injects) {
		return nil, fmt.Errorf("comptime block at %s: internal error collecting inject() results", s.Pos)
	}

	out := make([]ast.Stmt, len(injects))
	for i, inj := range injects {
		declType, err := parseTypeName(inj.typeName)
		if err != nil {
			return nil, fmt.Errorf("inject(...) at %s: %w", s.Pos, err)
		}
		lit, err := valueToLiteral(s.Pos, declType, result.Array[i])
		if err != nil {
			return nil, err
		}
		out[i] = ast.Stmt{Kind: ast.SVar, Pos: s.Pos, Name: inj.name, DeclaredType: declType, Init: lit}
	}
	return out, nil
}

type injectCall struct {
	name     string
	typeName string
	value    *ast.Expr
}

// collectInjects walks body (including nested control-flow blocks) looking
// for inject("name", "type", value) pseudo-builtin calls, in occurrence
// order, per spec §4.3.
func collectInjects(body []ast.Stmt) []injectCall {
	var out []injectCall
	var walkExpr func(e *ast.Expr)
	var walkStmts func(ss []ast.Stmt)

	walkExpr = func(e *ast.Expr) {
		if e == nil {
			return
		}
		if e.Kind == ast.ECall && e.FName == "inject" && len(e.Args) == 3 &&
			e.Args[0].Kind == ast.EString && e.Args[1].Kind == ast.EString {
			out = append(out, injectCall{name: e.Args[0].StringVal, typeName: e.Args[1].StringVal, value: e.Args[2]})
			return
		}
		for _, a := range e.Args {
			walkExpr(a)
		}
		walkExpr(e.X)
		walkExpr(e.Y)
		walkExpr(e.Lo)
		walkExpr(e.Hi)
		for _, el := range e.Elems {
			walkExpr(el)
		}
		walkExpr(e.Cond)
		walkExpr(e.Then)
		walkExpr(e.Else)
		walkExpr(e.Scrutinee)
		for _, c := range e.Cases {
			walkExpr(c.Body)
		}
	}
	walkStmts = func(ss []ast.Stmt) {
		for i := range ss {
			s := &ss[i]
			walkExpr(s.Init)
			walkExpr(s.Value)
			walkExpr(s.Index)
			walkExpr(s.Cond)
			walkExpr(s.Start)
			walkExpr(s.End)
			walkExpr(s.ForArray)
			walkStmts(s.Then)
			walkStmts(s.Else)
			walkStmts(s.Body)
			for _, el := range s.Elifs {
				walkExpr(el.Cond)
				walkStmts(el.Body)
			}
			if s.DeferBody != nil {
				walkStmts([]ast.Stmt{*s.DeferBody})
			}
		}
	}
	walkStmts(body)
	return out
}

// stripTopLevelInjectCalls drops top-level `inject(...)` expression
// statements from body, leaving every other statement (including nested
// blocks) untouched. Used to build the statement list that is actually
// executed, since inject's runtime meaning is "none" — it is purely a
// marker collectInjects scans for.
func stripTopLevelInjectCalls(body []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(body))
	for _, s := range body {
		if s.Kind == ast.SExpr && isInjectCall(s.Value) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isInjectCall(e *ast.Expr) bool {
	return e != nil && e.Kind == ast.ECall && e.FName == "inject" && len(e.Args) == 3
}

func parseTypeName(name string) (*types.Type, error) {
	switch name {
	case "int":
		return types.TInt(), nil
	case "float":
		return types.TFloat(), nil
	case "bool":
		return types.TBool(), nil
	case "string":
		return types.TString(), nil
	case "char":
		return types.TChar(), nil
	}
	return nil, fmt.Errorf("unsupported inject() type name %q", name)
}

// runSynthetic compiles a throwaway program whose sole function is `main`
// with the given body, sharing prog's globals and a shallow copy of its
// instantiated functions (spec §4.3: "a fresh VM whose function table is a
// shallow copy of all instantiated functions"), and runs it to completion.
//
// This VM is a distinct value from the pipeline's eventual runtime VM
// (spec §9 "Comptime VM re-entrancy": treat it as a separate value type so
// the two never share mutable state) — vm.New always constructs a fresh
// VM with its own stack, frames and heap, and nothing here retains a
// reference to it past this call.
func (f *folder) runSynthetic(pos token.Pos, body []ast.Stmt) (compiler.Value, error) {
	synthetic := ast.NewProgram()
	synthetic.Globals = f.prog.Globals
	for k, v := range f.prog.FunInstances {
		synthetic.FunInstances[k] = v
	}
	// The compiler requires a function named exactly "main" as the entry
	// point; this throwaway program's body runs as that entry point.
	synthetic.FunInstances["main"] = &ast.FunDecl{
		Pos: pos, Name: "main", MangledKey: "main", Body: body,
	}

	compiled, err := compiler.Compile(synthetic, false)
	if err != nil {
		return compiler.Value{}, err
	}
	return vm.New(compiled).Run()
}

func valueToLiteral(pos token.Pos, typ *types.Type, v compiler.Value) (*ast.Expr, error) {
	e := &ast.Expr{Pos: pos, Typ: typ}
	switch v.Kind {
	case compiler.KindInt:
		e.Kind, e.IntVal = ast.EInt, v.Int
	case compiler.KindFloat:
		e.Kind, e.FloatVal = ast.EFloat, v.Float
	case compiler.KindBool:
		e.Kind, e.BoolVal = ast.EBool, v.Bool
	case compiler.KindString:
		e.Kind, e.StringVal = ast.EString, v.Str
	case compiler.KindChar:
		e.Kind, e.CharVal = ast.EChar, v.Char
	case compiler.KindNil:
		e.Kind = ast.ENil
	case compiler.KindArray:
		elems := make([]*ast.Expr, len(v.Array))
		var elemType *types.Type
		if typ != nil {
			elemType = typ.Inner
		}
		for i, el := range v.Array {
			sub, err := valueToLiteral(pos, elemType, el)
			if err != nil {
				return nil, err
			}
			elems[i] = sub
		}
		e.Kind, e.Elems = ast.EArray, elems
	default:
		return nil, fmt.Errorf("comptime result at %s has no literal form (kind %v)", pos, v.Kind)
	}
	return e, nil
}
