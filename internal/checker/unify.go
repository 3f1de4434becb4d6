package checker

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/types"
)

// unify performs structural unification of a (possibly generic) parameter
// pattern against a concrete argument type, binding type-variables into
// subst left-to-right (spec §4.2 step 3). A second, conflicting binding for
// the same type-variable is an error.
func unify(pattern, arg *types.Type, subst map[string]*types.Type) error {
	if pattern == nil || arg == nil {
		return fmt.Errorf("cannot unify nil type")
	}
	if pattern.Kind == types.Generic {
		if existing, ok := subst[pattern.Name]; ok {
			if !types.Equal(existing, arg) {
				return fmt.Errorf("conflicting binding for type parameter %q: %s vs %s",
					pattern.Name, existing.String(), arg.String())
			}
			return nil
		}
		subst[pattern.Name] = arg
		return nil
	}
	if pattern.Kind != arg.Kind {
		return fmt.Errorf("cannot unify %s with %s", pattern.String(), arg.String())
	}
	switch pattern.Kind {
	case types.UserDefined, types.Distinct, types.Enum:
		if pattern.Name != arg.Name {
			return fmt.Errorf("cannot unify %s with %s", pattern.String(), arg.String())
		}
	}
	if pattern.Inner != nil {
		if err := unify(pattern.Inner, arg.Inner, subst); err != nil {
			return err
		}
	}
	if pattern.Err != nil {
		if err := unify(pattern.Err, arg.Err, subst); err != nil {
			return err
		}
	}
	if pattern.Return != nil {
		if err := unify(pattern.Return, arg.Return, subst); err != nil {
			return err
		}
	}
	if len(pattern.Elems) != len(arg.Elems) {
		return fmt.Errorf("cannot unify %s with %s: element count mismatch", pattern.String(), arg.String())
	}
	for i := range pattern.Elems {
		if err := unify(pattern.Elems[i], arg.Elems[i], subst); err != nil {
			return err
		}
	}
	if len(pattern.Params) != len(arg.Params) {
		return fmt.Errorf("cannot unify %s with %s: parameter count mismatch", pattern.String(), arg.String())
	}
	for i := range pattern.Params {
		if err := unify(pattern.Params[i], arg.Params[i], subst); err != nil {
			return err
		}
	}
	return nil
}
