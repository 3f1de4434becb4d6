package checker

import (
	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// cloneFunDecl deep-copies a template FunDecl, substituting every generic
// type-variable occurrence (parameter types, return type, declared types,
// cast targets inside the body) per subst, and strips TypeParams — the
// result is a concrete, monomorphic instance ready to be installed into
// Program.FunInstances (spec §4.2 step 5). Expression trees are copied
// rather than shared so each instantiation gets its own Expr.Typ slots.
func cloneFunDecl(f *ast.FunDecl, subst map[string]*types.Type) *ast.FunDecl {
	out := &ast.FunDecl{
		Pos:        f.Pos,
		Name:       f.Name,
		ReturnType: types.Resolve(f.ReturnType, subst),
		IsExported: f.IsExported,
		IsCFFI:     f.IsCFFI,
	}
	out.Params = make([]ast.Param, len(f.Params))
	for i, p := range f.Params {
		out.Params[i] = ast.Param{
			Name:    p.Name,
			Type:    types.Resolve(p.Type, subst),
			Default: cloneExpr(p.Default, subst),
		}
	}
	out.Body = cloneStmts(f.Body, subst)
	return out
}

func cloneExpr(e *ast.Expr, subst map[string]*types.Type) *ast.Expr {
	if e == nil {
		return nil
	}
	out := *e
	out.Typ = nil // re-typed by the second pass over this clone
	out.X = cloneExpr(e.X, subst)
	out.Y = cloneExpr(e.Y, subst)
	out.Lo = cloneExpr(e.Lo, subst)
	out.Hi = cloneExpr(e.Hi, subst)
	out.Inner = cloneExpr(e.Inner, subst)
	out.Cond = cloneExpr(e.Cond, subst)
	out.Then = cloneExpr(e.Then, subst)
	out.Else = cloneExpr(e.Else, subst)
	out.Scrutinee = cloneExpr(e.Scrutinee, subst)
	out.CastType = types.Resolve(e.CastType, subst)
	if e.Args != nil {
		out.Args = make([]*ast.Expr, len(e.Args))
		for i, a := range e.Args {
			out.Args[i] = cloneExpr(a, subst)
		}
	}
	if e.Elems != nil {
		out.Elems = make([]*ast.Expr, len(e.Elems))
		for i, a := range e.Elems {
			out.Elems[i] = cloneExpr(a, subst)
		}
	}
	if e.InstTypes != nil {
		out.InstTypes = make([]*types.Type, len(e.InstTypes))
		for i, t := range e.InstTypes {
			out.InstTypes[i] = types.Resolve(t, subst)
		}
	}
	if e.Block != nil {
		out.Block = cloneStmts(e.Block, subst)
	}
	if e.Cases != nil {
		out.Cases = make([]ast.MatchCase, len(e.Cases))
		for i, c := range e.Cases {
			out.Cases[i] = ast.MatchCase{Pattern: c.Pattern, Body: cloneExpr(c.Body, subst)}
		}
	}
	return &out
}

func cloneStmts(ss []ast.Stmt, subst map[string]*types.Type) []ast.Stmt {
	if ss == nil {
		return nil
	}
	out := make([]ast.Stmt, len(ss))
	for i, s := range ss {
		out[i] = cloneStmt(s, subst)
	}
	return out
}

func cloneStmt(s ast.Stmt, subst map[string]*types.Type) ast.Stmt {
	out := s
	out.DeclaredType = types.Resolve(s.DeclaredType, subst)
	out.TypeDef = types.Resolve(s.TypeDef, subst)
	out.Init = cloneExpr(s.Init, subst)
	out.Value = cloneExpr(s.Value, subst)
	out.Target = cloneExpr(s.Target, subst)
	out.Index = cloneExpr(s.Index, subst)
	out.Cond = cloneExpr(s.Cond, subst)
	out.Then = cloneStmts(s.Then, subst)
	out.Else = cloneStmts(s.Else, subst)
	out.Body = cloneStmts(s.Body, subst)
	out.Start = cloneExpr(s.Start, subst)
	out.End = cloneExpr(s.End, subst)
	out.ForArray = cloneExpr(s.ForArray, subst)
	if s.Elifs != nil {
		out.Elifs = make([]ast.ElifClause, len(s.Elifs))
		for i, el := range s.Elifs {
			out.Elifs[i] = ast.ElifClause{Cond: cloneExpr(el.Cond, subst), Body: cloneStmts(el.Body, subst)}
		}
	}
	if s.DeferBody != nil {
		cloned := cloneStmt(*s.DeferBody, subst)
		out.DeferBody = &cloned
	}
	return out
}
