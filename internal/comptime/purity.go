// Package comptime implements Etch's compile-time evaluation and code
// injection pass (spec §4.3). Grounded structurally on
// funvibe-funxy/internal/evaluator's tree-walking approach to embedded
// evaluation, but Etch's comptime model is narrower and spec-mandated: fold
// pure calls via the shared PureEval interpreter (internal/prover), and run
// `comptime` blocks/expressions by compiling a throwaway program and
// executing it on a fresh internal/vm.VM (spec §9 "Comptime VM
// re-entrancy": a separate VM value so compile-time and run-time execution
// never share mutable state).
package comptime

import "github.com/kunitoki/etch-sub002/internal/ast"

// impureBuiltins is the exact set spec §4.3 names: "a call is impure if it
// names a builtin in {print, readFile, rand, println, seed}". Every other
// builtin (new, deref, inject, toString, parseInt, assumeNonZero,
// assumeNonNil) is pure by the letter of that rule.
var impureBuiltins = map[string]bool{
	"print": true, "readFile": true, "rand": true, "println": true, "seed": true,
}

// purityCache memoizes per-function purity (spec §4.3: "for user functions,
// the body transitively contains an impure call").
type purityCache struct {
	prog       *ast.Program
	memo       map[string]bool
	inProgress map[string]bool
}

func newPurityCache(prog *ast.Program) *purityCache {
	return &purityCache{prog: prog, memo: map[string]bool{}, inProgress: map[string]bool{}}
}

func (pc *purityCache) funcIsPure(name string) bool {
	if v, ok := pc.memo[name]; ok {
		return v
	}
	if pc.inProgress[name] {
		// A call cycle never resolves to an impure builtin on its own; the
		// other participants in the cycle decide purity.
		return true
	}
	fd, ok := pc.prog.FunInstances[name]
	if !ok {
		return true
	}
	pc.inProgress[name] = true
	pure := pc.stmtsPure(fd.Body)
	delete(pc.inProgress, name)
	pc.memo[name] = pure
	return pure
}

func (pc *purityCache) stmtsPure(ss []ast.Stmt) bool {
	for i := range ss {
		if !pc.stmtPure(&ss[i]) {
			return false
		}
	}
	return true
}

func (pc *purityCache) stmtPure(s *ast.Stmt) bool {
	switch s.Kind {
	case ast.SVar:
		return s.Init == nil || pc.exprPure(s.Init)
	case ast.SAssign, ast.SReturn, ast.SExpr, ast.SDiscard:
		return s.Value == nil || pc.exprPure(s.Value)
	case ast.SFieldAssign:
		return (s.Index == nil || pc.exprPure(s.Index)) && pc.exprPure(s.Value)
	case ast.SIf:
		if !pc.exprPure(s.Cond) || !pc.stmtsPure(s.Then) || !pc.stmtsPure(s.Else) {
			return false
		}
		for _, el := range s.Elifs {
			if !pc.exprPure(el.Cond) || !pc.stmtsPure(el.Body) {
				return false
			}
		}
		return true
	case ast.SWhile:
		return pc.exprPure(s.Cond) && pc.stmtsPure(s.Body)
	case ast.SFor:
		if s.ForArray != nil && !pc.exprPure(s.ForArray) {
			return false
		}
		if s.Start != nil && !pc.exprPure(s.Start) {
			return false
		}
		if s.End != nil && !pc.exprPure(s.End) {
			return false
		}
		return pc.stmtsPure(s.Body)
	case ast.SComptime:
		return pc.stmtsPure(s.Body)
	case ast.SDefer:
		return s.DeferBody == nil || pc.stmtPure(s.DeferBody)
	default: // SBreak, STypeDecl, SImport
		return true
	}
}

func (pc *purityCache) exprPure(e *ast.Expr) bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case ast.ECall:
		if impureBuiltins[e.FName] {
			return false
		}
		for _, a := range e.Args {
			if !pc.exprPure(a) {
				return false
			}
		}
		if _, isUser := pc.prog.FunInstances[e.FName]; isUser {
			return pc.funcIsPure(e.FName)
		}
		return true
	case ast.EUnary, ast.ENewRef, ast.EDeref, ast.EArrayLen, ast.ECast,
		ast.EOptionSome, ast.EResultOk, ast.EResultErr:
		return pc.exprPure(e.X)
	case ast.EBinary, ast.EIndex:
		return pc.exprPure(e.X) && pc.exprPure(e.Y)
	case ast.EArray:
		for _, el := range e.Elems {
			if !pc.exprPure(el) {
				return false
			}
		}
		return true
	case ast.ESlice:
		if !pc.exprPure(e.X) {
			return false
		}
		if e.Lo != nil && !pc.exprPure(e.Lo) {
			return false
		}
		if e.Hi != nil && !pc.exprPure(e.Hi) {
			return false
		}
		return true
	case ast.EComptime:
		if e.Inner != nil {
			return pc.exprPure(e.Inner)
		}
		return pc.stmtsPure(e.Block)
	case ast.EIf:
		return pc.exprPure(e.Cond) && pc.exprPure(e.Then) && pc.exprPure(e.Else)
	case ast.EMatch:
		if !pc.exprPure(e.Scrutinee) {
			return false
		}
		for _, c := range e.Cases {
			if !pc.exprPure(c.Body) {
				return false
			}
		}
		return true
	default: // literals, EVar, EOptionNone
		return true
	}
}
