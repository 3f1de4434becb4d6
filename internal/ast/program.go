package ast

import "github.com/kunitoki/etch-sub002/internal/types"

// Program is the root AST node (spec §3, "Program"). FunInstances is
// written only during typechecking (spec §5 "Shared resources"); every
// later pass treats it as an immutable snapshot.
type Program struct {
	Funs         map[string][]*FunDecl  // template name -> overload set
	FunInstances map[string]*FunDecl    // mangled key -> monomorphic instance
	Types        map[string]*types.Type // user type table
	Concepts     map[string]*types.Concept
	Globals      []Stmt
}

// NewProgram returns an empty Program with the built-in concept table
// installed (spec §3).
func NewProgram() *Program {
	return &Program{
		Funs:         make(map[string][]*FunDecl),
		FunInstances: make(map[string]*FunDecl),
		Types:        make(map[string]*types.Type),
		Concepts:     types.BuiltinConcepts(),
	}
}

// AddFun registers a template overload under its declared name.
func (p *Program) AddFun(f *FunDecl) {
	p.Funs[f.Name] = append(p.Funs[f.Name], f)
}
