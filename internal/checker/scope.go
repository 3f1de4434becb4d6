package checker

import "github.com/kunitoki/etch-sub002/internal/types"

// Binding is what a scope maps a name to: a type plus a mutability flag
// (spec §4.2, "Scopes").
type Binding struct {
	Type    *types.Type
	Mutable bool
}

// Scope is a parent-chained name->Binding map. Scopes nest but are never
// deep-copied for branches (spec §4.2: "the checker is functional over
// substitutions") — the checker doesn't need control-flow-sensitive
// narrowing the way the prover does, so a simple chain suffices.
type Scope struct {
	vars   map[string]Binding
	parent *Scope
}

// NewScope returns a fresh scope nested inside parent (nil for the
// outermost/global scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]Binding), parent: parent}
}

// Declare binds name in s, shadowing any outer binding of the same name.
func (s *Scope) Declare(name string, t *types.Type, mutable bool) {
	s.vars[name] = Binding{Type: t, Mutable: mutable}
}

// Lookup searches s and its ancestors for name.
func (s *Scope) Lookup(name string) (Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}
