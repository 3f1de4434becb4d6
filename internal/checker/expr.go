package checker

import (
	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// checkExpr assigns and returns e.Typ per spec §4.2's expression rules,
// failing with a position-tagged TypecheckError.
func (c *Checker) checkExpr(e *ast.Expr) (*types.Type, error) {
	if e == nil {
		return nil, nil
	}
	t, err := c.checkExprKind(e)
	if err != nil {
		return nil, err
	}
	e.Typ = t
	return t, nil
}

func (c *Checker) checkExprKind(e *ast.Expr) (*types.Type, error) {
	switch e.Kind {
	case ast.EInt:
		return types.TInt(), nil
	case ast.EFloat:
		return types.TFloat(), nil
	case ast.EString:
		return types.TString(), nil
	case ast.EChar:
		return types.TChar(), nil
	case ast.EBool:
		return types.TBool(), nil
	case ast.ENil:
		return types.NilType(), nil

	case ast.EVar:
		b, ok := c.scope.Lookup(e.Name)
		if !ok {
			return nil, cerrs.NewTypecheckError(e.Pos, "undeclared variable %q", e.Name)
		}
		return b.Type, nil

	case ast.EUnary:
		return c.checkUnary(e)
	case ast.EBinary:
		return c.checkBinary(e)

	case ast.ECall:
		return c.checkCall(e)

	case ast.ENewRef:
		inner, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		return types.TRef(inner), nil

	case ast.EDeref:
		t, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		if t.Kind != types.Ref {
			return nil, cerrs.NewTypecheckError(e.Pos, "cannot deref non-reference type %s", t.String())
		}
		return t.Inner, nil

	case ast.EArray:
		return c.checkArrayLiteral(e)

	case ast.EIndex:
		return c.checkIndex(e)
	case ast.ESlice:
		return c.checkSlice(e)
	case ast.EArrayLen:
		return c.checkArrayLen(e)
	case ast.ECast:
		return c.checkCast(e)

	case ast.EComptime:
		// The comptime expression's own type is the type of its folded
		// payload; before folding runs, typecheck the inner expression as
		// an ordinary expression so later re-typechecking after folding has
		// something consistent to compare against.
		if e.Inner != nil {
			return c.checkExpr(e.Inner)
		}
		return types.TVoid(), nil

	case ast.EIf:
		condT, err := c.checkExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		if condT.Kind != types.Bool {
			return nil, cerrs.NewTypecheckError(e.Cond.Pos, "if condition must be bool, got %s", condT.String())
		}
		thenT, err := c.checkExpr(e.Then)
		if err != nil {
			return nil, err
		}
		elseT, err := c.checkExpr(e.Else)
		if err != nil {
			return nil, err
		}
		if !types.Equal(thenT, elseT) {
			return nil, cerrs.NewTypecheckError(e.Pos, "if-expression branches disagree: %s vs %s", thenT.String(), elseT.String())
		}
		return thenT, nil

	case ast.EOptionSome:
		inner, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		return types.TOption(inner), nil
	case ast.EOptionNone:
		return types.TOption(types.TInferred()), nil
	case ast.EResultOk:
		inner, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		return types.TResult(inner, types.TInferred()), nil
	case ast.EResultErr:
		inner, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		return types.TResult(types.TInferred(), inner), nil

	case ast.EMatch:
		return c.checkMatch(e)
	}
	return nil, cerrs.NewTypecheckError(e.Pos, "unhandled expression kind %d", e.Kind)
}

func (c *Checker) checkUnary(e *ast.Expr) (*types.Type, error) {
	t, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "-":
		if !types.IsNumeric(t) {
			return nil, cerrs.NewTypecheckError(e.Pos, "unary - requires numeric operand, got %s", t.String())
		}
		return t, nil
	case "!":
		if t.Kind != types.Bool {
			return nil, cerrs.NewTypecheckError(e.Pos, "unary ! requires bool operand, got %s", t.String())
		}
		return types.TBool(), nil
	}
	return nil, cerrs.NewTypecheckError(e.Pos, "unknown unary operator %q", e.Op)
}

func isRefOrNil(t *types.Type) bool { return t != nil && t.Kind == types.Ref }

func (c *Checker) checkBinary(e *ast.Expr) (*types.Type, error) {
	lt, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	rt, err := c.checkExpr(e.Y)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%":
		if e.Op == "+" && lt.Kind == types.String && rt.Kind == types.String {
			return types.TString(), nil
		}
		if e.Op == "+" && lt.Kind == types.Array && rt.Kind == types.Array && types.Equal(lt.Inner, rt.Inner) {
			return lt, nil
		}
		if !types.IsNumeric(lt) || !types.Equal(lt, rt) {
			return nil, cerrs.NewTypecheckError(e.Pos, "operator %s requires matching numeric operands, got %s and %s", e.Op, lt.String(), rt.String())
		}
		return lt, nil

	case "==", "!=":
		if isRefOrNil(lt) && isRefOrNil(rt) {
			if types.IsNilType(lt) || types.IsNilType(rt) || types.Equal(lt, rt) {
				return types.TBool(), nil
			}
			return nil, cerrs.NewTypecheckError(e.Pos, "cannot compare unrelated reference types %s and %s", lt.String(), rt.String())
		}
		if !types.Equal(lt, rt) {
			return nil, cerrs.NewTypecheckError(e.Pos, "cannot compare %s and %s", lt.String(), rt.String())
		}
		return types.TBool(), nil

	case "<", "<=", ">", ">=":
		if isRefOrNil(lt) || isRefOrNil(rt) {
			return nil, cerrs.NewTypecheckError(e.Pos, "ordering comparison %s rejects reference operands", e.Op)
		}
		if lt.Kind == types.String && rt.Kind == types.String {
			return types.TBool(), nil
		}
		if !types.IsNumeric(lt) || !types.Equal(lt, rt) {
			return nil, cerrs.NewTypecheckError(e.Pos, "operator %s requires matching numeric or string operands, got %s and %s", e.Op, lt.String(), rt.String())
		}
		return types.TBool(), nil

	case "and", "or":
		if lt.Kind != types.Bool || rt.Kind != types.Bool {
			return nil, cerrs.NewTypecheckError(e.Pos, "operator %s requires bool operands, got %s and %s", e.Op, lt.String(), rt.String())
		}
		return types.TBool(), nil
	}
	return nil, cerrs.NewTypecheckError(e.Pos, "unknown binary operator %q", e.Op)
}

func (c *Checker) checkArrayLiteral(e *ast.Expr) (*types.Type, error) {
	if len(e.Elems) == 0 {
		return nil, cerrs.NewTypecheckError(e.Pos, "cannot infer element type of empty array literal")
	}
	var elemT *types.Type
	for i, el := range e.Elems {
		t, err := c.checkExpr(el)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elemT = t
		} else if !types.Equal(elemT, t) {
			return nil, cerrs.NewTypecheckError(el.Pos, "array literal element type mismatch: expected %s, got %s", elemT.String(), t.String())
		}
	}
	return types.TArray(elemT), nil
}

func (c *Checker) checkIndex(e *ast.Expr) (*types.Type, error) {
	arrT, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	if arrT.Kind != types.Array {
		return nil, cerrs.NewTypecheckError(e.Pos, "cannot index non-array type %s", arrT.String())
	}
	idxT, err := c.checkExpr(e.Y)
	if err != nil {
		return nil, err
	}
	if idxT.Kind != types.Int {
		return nil, cerrs.NewTypecheckError(e.Pos, "array index must be int, got %s", idxT.String())
	}
	return arrT.Inner, nil
}

func (c *Checker) checkSlice(e *ast.Expr) (*types.Type, error) {
	arrT, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	if arrT.Kind != types.Array {
		return nil, cerrs.NewTypecheckError(e.Pos, "cannot slice non-array type %s", arrT.String())
	}
	for _, bound := range []*ast.Expr{e.Lo, e.Hi} {
		if bound == nil {
			continue
		}
		bt, err := c.checkExpr(bound)
		if err != nil {
			return nil, err
		}
		if bt.Kind != types.Int {
			return nil, cerrs.NewTypecheckError(bound.Pos, "slice bound must be int, got %s", bt.String())
		}
	}
	return arrT, nil
}

func (c *Checker) checkArrayLen(e *ast.Expr) (*types.Type, error) {
	t, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	if t.Kind != types.Array && t.Kind != types.String {
		return nil, cerrs.NewTypecheckError(e.Pos, "# requires array or string operand, got %s", t.String())
	}
	return types.TInt(), nil
}

func (c *Checker) checkCast(e *ast.Expr) (*types.Type, error) {
	srcT, err := c.checkExpr(e.X)
	if err != nil {
		return nil, err
	}
	dst := e.CastType
	ok := (srcT.Kind == types.Int && dst.Kind == types.Float) ||
		(srcT.Kind == types.Float && dst.Kind == types.Int) ||
		(srcT.Kind == types.Int && dst.Kind == types.String) ||
		(srcT.Kind == types.Float && dst.Kind == types.String)
	if !ok {
		return nil, cerrs.NewTypecheckError(e.Pos, "invalid cast from %s to %s", srcT.String(), dst.String())
	}
	return dst, nil
}

func (c *Checker) checkMatch(e *ast.Expr) (*types.Type, error) {
	_, err := c.checkExpr(e.Scrutinee)
	if err != nil {
		return nil, err
	}
	var result *types.Type
	for i := range e.Cases {
		mc := &e.Cases[i]
		caseScope := NewScope(c.scope)
		savedScope := c.scope
		c.scope = caseScope
		if mc.Pattern.Kind == ast.PTag && mc.Pattern.Sub != nil && mc.Pattern.Sub.Kind == ast.PBinding {
			// The payload binder's type can't be known without the
			// scrutinee's concrete Option/Result inner type; callers that
			// need it should have already monomorphized the scrutinee.
			if st := e.Scrutinee.Typ; st != nil && st.Inner != nil {
				caseScope.Declare(mc.Pattern.Sub.Name, st.Inner, false)
			}
		} else if mc.Pattern.Kind == ast.PBinding {
			if st := e.Scrutinee.Typ; st != nil {
				caseScope.Declare(mc.Pattern.Name, st, false)
			}
		}
		t, err := c.checkExpr(mc.Body)
		c.scope = savedScope
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = t
		} else if !types.Equal(result, t) {
			return nil, cerrs.NewTypecheckError(mc.Body.Pos, "match arms disagree: %s vs %s", result.String(), t.String())
		}
	}
	return result, nil
}
