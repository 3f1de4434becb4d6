package ast

import (
	"github.com/kunitoki/etch-sub002/internal/token"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// TypeParam is one entry of a function's ordered type-parameter list
// (spec §3, "Function declaration"). Bound, when non-empty, names a concept
// this parameter must satisfy once resolved (spec §4.2 step 4).
type TypeParam struct {
	Name  string
	Bound string
}

// Param is one entry of a function's ordered parameter list.
type Param struct {
	Name    string
	Type    *types.Type
	Default *Expr // nil if the parameter has no default
}

// FunDecl is a function declaration or (post-monomorphization) a concrete
// instance (spec §3, "Function declaration").
type FunDecl struct {
	Pos        token.Pos
	Name       string
	TypeParams []TypeParam
	Params     []Param
	ReturnType *types.Type // nil => must be inferred from returns (spec §4.2)
	Body       []Stmt
	IsExported bool
	IsCFFI     bool

	// MangledKey is set once this FunDecl is installed into
	// Program.FunInstances; empty on templates still in Program.Funs.
	MangledKey string
}

// IsTemplate reports whether f still has unresolved type parameters.
func (f *FunDecl) IsTemplate() bool { return len(f.TypeParams) > 0 }
