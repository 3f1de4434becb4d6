// Package checker implements Etch's type checker and monomorphizer
// (spec §4.2). It is grounded on the teacher's walker-over-AST structure
// (funvibe-funxy/internal/analyzer/inference.go) and its trait/"instance"
// system (funvibe-funxy/internal/analyzer/declarations_instances*.go,
// internal/symbols/symbol_table_traits.go), generalized from method
// dispatch to the spec's simpler bounded-parameter (concept) predicates.
package checker

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// Checker assigns a type to every reachable expression in a Program and
// populates Program.FunInstances with one monomorphic copy per instantiated
// (template, resolved-type-tuple) pair (spec §4.2 contract).
type Checker struct {
	Prog  *ast.Program
	scope *Scope

	// curReturnType is the enclosing function's declared/inferred return
	// type, used to validate `return` statements.
	curReturnType *types.Type
	curIsVoid     bool

	// inferring tracks function instances whose return type is mid-inference
	// to give a clear error instead of infinite recursion when a function's
	// own (directly or mutually) recursive call needs its own not-yet-known
	// inferred return type (such a function needs an explicit return type).
	inferring map[string]bool
}

// New returns a Checker over prog.
func New(prog *ast.Program) *Checker {
	return &Checker{Prog: prog, scope: NewScope(nil), inferring: make(map[string]bool)}
}

// CheckProgram runs the full §4.2 contract over c.Prog. It stops and
// returns the first error encountered (spec §4.2 "Failure semantics": no
// partial-typed AST is handed to later stages).
func (c *Checker) CheckProgram() error {
	// Non-generic templates are unconditionally instantiated once, under
	// their own bare name as the mangled key, since there is no call site
	// needed to discover their type arguments (there are none).
	for name, overloads := range c.Prog.Funs {
		for _, f := range overloads {
			if f.IsTemplate() {
				continue
			}
			if _, exists := c.Prog.FunInstances[name]; exists {
				continue
			}
			inst := cloneFunDecl(f, map[string]*types.Type{})
			inst.MangledKey = name
			c.Prog.FunInstances[name] = inst
			if err := c.checkFunctionBody(inst); err != nil {
				return err
			}
		}
	}

	for i := range c.Prog.Globals {
		if err := c.checkStmt(&c.Prog.Globals[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkFunctionBody typechecks f.Body in a fresh scope with its parameters
// bound, resolving an absent ReturnType by inference over its `return`
// statements (spec §4.2, "Return-type inference").
func (c *Checker) checkFunctionBody(f *ast.FunDecl) error {
	outerScope, outerRet, outerVoid := c.scope, c.curReturnType, c.curIsVoid
	defer func() { c.scope, c.curReturnType, c.curIsVoid = outerScope, outerRet, outerVoid }()

	c.scope = NewScope(nil)
	for _, p := range f.Params {
		c.scope.Declare(p.Name, p.Type, true)
	}

	if f.ReturnType == nil {
		if c.inferring[f.MangledKey] {
			return fmt.Errorf("%s: cannot infer return type of %q recursively; add an explicit return type", f.Pos, f.Name)
		}
		c.inferring[f.MangledKey] = true
		inferred, err := c.inferReturnType(f)
		delete(c.inferring, f.MangledKey)
		if err != nil {
			return err
		}
		f.ReturnType = inferred
	}
	c.curReturnType = f.ReturnType
	c.curIsVoid = f.ReturnType.Kind == types.Void

	return c.checkStmts(f.Body)
}

// inferReturnType collects every reachable `return e` expression (descending
// into if/while/for/comptime/match case bodies per spec §4.2) and requires
// all of their types to agree.
func (c *Checker) inferReturnType(f *ast.FunDecl) (*types.Type, error) {
	// Locals declared along the walk go into a scratch scope nested in the
	// function scope, so the full check of the body afterwards starts clean.
	saved := c.scope
	c.scope = NewScope(saved)
	defer func() { c.scope = saved }()

	var found *types.Type
	var walkErr error
	var visitStmts func([]ast.Stmt)
	var visitExpr func(*ast.Expr)

	visitExpr = func(e *ast.Expr) {
		if e == nil || walkErr != nil {
			return
		}
		if e.Block != nil {
			visitStmts(e.Block)
		}
		if e.Cases != nil {
			for _, mc := range e.Cases {
				visitExpr(mc.Body)
			}
		}
	}

	visitStmts = func(ss []ast.Stmt) {
		for i := range ss {
			if walkErr != nil {
				return
			}
			s := &ss[i]
			switch s.Kind {
			case ast.SReturn:
				var t *types.Type
				if s.Value == nil {
					t = types.TVoid()
				} else {
					var err error
					// Params and the locals declared earlier in this walk
					// are bound in the scratch scope.
					t, err = c.typeOfExpr(s.Value)
					if err != nil {
						walkErr = err
						return
					}
				}
				if found == nil {
					found = t
				} else if !types.Equal(found, t) {
					walkErr = fmt.Errorf("%s: conflicting inferred return types %s and %s", s.Pos, found.String(), t.String())
				}
			case ast.SVar:
				// Bind the local so later return expressions can use it; a
				// local whose initializer does not type here stays unbound.
				_ = c.checkVarStmt(s)
			case ast.SIf:
				visitStmts(s.Then)
				for _, el := range s.Elifs {
					visitStmts(el.Body)
				}
				visitStmts(s.Else)
			case ast.SWhile, ast.SFor:
				visitStmts(s.Body)
			case ast.SComptime:
				visitStmts(s.Body)
			}
		}
	}

	visitStmts(f.Body)
	if walkErr != nil {
		return nil, walkErr
	}
	if found == nil {
		return types.TVoid(), nil
	}
	return found, nil
}

// typeOfExpr types e without requiring the enclosing checkStmt bookkeeping;
// used by return-type inference, which runs before curReturnType is set.
func (c *Checker) typeOfExpr(e *ast.Expr) (*types.Type, error) {
	return c.checkExpr(e)
}
