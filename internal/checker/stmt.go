package checker

import (
	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/types"
)

func (c *Checker) checkStmts(ss []ast.Stmt) error {
	for i := range ss {
		if err := c.checkStmt(&ss[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkStmt implements spec §4.2 "Statement rules".
func (c *Checker) checkStmt(s *ast.Stmt) error {
	switch s.Kind {
	case ast.SVar:
		return c.checkVarStmt(s)

	case ast.SAssign:
		b, ok := c.scope.Lookup(s.Name)
		if !ok {
			return cerrs.NewTypecheckError(s.Pos, "assignment to undeclared variable %q", s.Name)
		}
		if !b.Mutable {
			return cerrs.NewTypecheckError(s.Pos, "cannot assign to immutable binding %q", s.Name)
		}
		rt, err := c.checkExpr(s.Value)
		if err != nil {
			return err
		}
		if !types.Equal(b.Type, rt) {
			return cerrs.NewTypecheckError(s.Pos, "cannot assign %s to %q of type %s", rt.String(), s.Name, b.Type.String())
		}
		return nil

	case ast.SFieldAssign:
		if _, err := c.checkExpr(s.Target); err != nil {
			return err
		}
		if s.Index != nil {
			if _, err := c.checkExpr(s.Index); err != nil {
				return err
			}
		}
		_, err := c.checkExpr(s.Value)
		return err

	case ast.SIf:
		condT, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if condT.Kind != types.Bool {
			return cerrs.NewTypecheckError(s.Cond.Pos, "if condition must be bool, got %s", condT.String())
		}
		if err := c.checkBlock(s.Then); err != nil {
			return err
		}
		for _, el := range s.Elifs {
			ct, err := c.checkExpr(el.Cond)
			if err != nil {
				return err
			}
			if ct.Kind != types.Bool {
				return cerrs.NewTypecheckError(el.Cond.Pos, "elif condition must be bool, got %s", ct.String())
			}
			if err := c.checkBlock(el.Body); err != nil {
				return err
			}
		}
		return c.checkBlock(s.Else)

	case ast.SWhile:
		condT, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if condT.Kind != types.Bool {
			return cerrs.NewTypecheckError(s.Cond.Pos, "while condition must be bool, got %s", condT.String())
		}
		return c.checkBlock(s.Body)

	case ast.SFor:
		return c.checkFor(s)

	case ast.SBreak:
		return nil

	case ast.SExpr:
		_, err := c.checkExpr(s.Value)
		return err

	case ast.SReturn:
		if s.Value == nil {
			if !c.curIsVoid {
				return cerrs.NewTypecheckError(s.Pos, "missing return value in non-void function")
			}
			return nil
		}
		if c.curIsVoid {
			return cerrs.NewTypecheckError(s.Pos, "unexpected return value in void function")
		}
		rt, err := c.checkExpr(s.Value)
		if err != nil {
			return err
		}
		if !types.Equal(rt, c.curReturnType) {
			return cerrs.NewTypecheckError(s.Pos, "return type mismatch: expected %s, got %s", c.curReturnType.String(), rt.String())
		}
		return nil

	case ast.SComptime:
		return c.checkBlock(s.Body)

	case ast.SDefer:
		if s.DeferBody == nil {
			return nil
		}
		return c.checkStmt(s.DeferBody)

	case ast.SDiscard:
		_, err := c.checkExpr(s.Value)
		return err

	case ast.STypeDecl:
		c.Prog.Types[s.TypeName] = s.TypeDef
		return nil

	case ast.SImport:
		return nil
	}
	return cerrs.NewTypecheckError(s.Pos, "unhandled statement kind %d", s.Kind)
}

func (c *Checker) checkBlock(ss []ast.Stmt) error {
	saved := c.scope
	c.scope = NewScope(saved)
	err := c.checkStmts(ss)
	c.scope = saved
	return err
}

func (c *Checker) checkVarStmt(s *ast.Stmt) error {
	if s.Init == nil {
		if s.DeclaredType == nil {
			return cerrs.NewTypecheckError(s.Pos, "variable %q needs a type annotation or an initializer", s.Name)
		}
		c.scope.Declare(s.Name, s.DeclaredType, !s.IsLet)
		return nil
	}
	initT, err := c.checkExpr(s.Init)
	if err != nil {
		return err
	}
	declared := s.DeclaredType
	if declared == nil {
		declared = initT
		s.DeclaredType = declared
	} else if !types.Equal(declared, initT) {
		return cerrs.NewTypecheckError(s.Pos, "cannot initialize %q of type %s with %s", s.Name, declared.String(), initT.String())
	}
	c.scope.Declare(s.Name, declared, !s.IsLet)
	return nil
}

// checkFor implements spec §4.2's range/array for-loop. The loop variable
// lives only in the body's scope and the outer scope is restored on exit,
// matching the prover's scoping discipline (spec §4.4).
func (c *Checker) checkFor(s *ast.Stmt) error {
	saved := c.scope
	defer func() { c.scope = saved }()
	c.scope = NewScope(saved)

	if s.ForArray != nil {
		arrT, err := c.checkExpr(s.ForArray)
		if err != nil {
			return err
		}
		if arrT.Kind != types.Array {
			return cerrs.NewTypecheckError(s.Pos, "for-in requires an array, got %s", arrT.String())
		}
		c.scope.Declare(s.ForVar, arrT.Inner, false)
		return c.checkStmts(s.Body)
	}

	startT, err := c.checkExpr(s.Start)
	if err != nil {
		return err
	}
	endT, err := c.checkExpr(s.End)
	if err != nil {
		return err
	}
	if startT.Kind != types.Int || endT.Kind != types.Int {
		return cerrs.NewTypecheckError(s.Pos, "for range bounds must be int")
	}
	c.scope.Declare(s.ForVar, types.TInt(), false)
	return c.checkStmts(s.Body)
}
