package checker

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// checkCall implements spec §4.2 "Call resolution and monomorphization".
func (c *Checker) checkCall(e *ast.Expr) (*types.Type, error) {
	argTypes := make([]*types.Type, len(e.Args))
	for i, a := range e.Args {
		t, err := c.checkExpr(a)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	if t, handled, err := c.checkBuiltinCall(e, argTypes); handled {
		return t, err
	}

	overloads, ok := c.Prog.Funs[e.FName]
	if !ok {
		return nil, cerrs.NewTypecheckError(e.Pos, "call to undeclared function %q", e.FName)
	}

	overload, subst, err := resolveOverload(overloads, argTypes)
	if err != nil {
		return nil, cerrs.NewTypecheckError(e.Pos, "%s", err.Error())
	}

	// Step 4: verify bounded-parameter constraints.
	typeArgs := make([]*types.Type, len(overload.TypeParams))
	for i, tp := range overload.TypeParams {
		resolved, ok := subst[tp.Name]
		if !ok {
			return nil, cerrs.NewTypecheckError(e.Pos, "cannot infer type parameter %q of %q from arguments", tp.Name, e.FName)
		}
		typeArgs[i] = resolved
		if tp.Bound != "" {
			concept, ok := c.Prog.Concepts[tp.Bound]
			if !ok {
				return nil, cerrs.NewTypecheckError(e.Pos, "unknown bounded-parameter constraint %q", tp.Bound)
			}
			if !concept.Satisfies(resolved) {
				return nil, cerrs.NewTypecheckError(e.Pos, "type %s does not satisfy constraint %s", resolved.String(), tp.Bound)
			}
		}
	}

	mangledKey := ast.MangledKey(e.FName, typeArgs)
	e.FName = mangledKey // invariant I2: rewrite call target to the instance

	inst, exists := c.Prog.FunInstances[mangledKey]
	if !exists {
		inst = cloneFunDecl(overload, subst)
		inst.MangledKey = mangledKey
		c.Prog.FunInstances[mangledKey] = inst
		if err := c.checkFunctionBody(inst); err != nil {
			return nil, err
		}
	}
	return inst.ReturnType, nil
}

// resolveOverload implements spec §4.2 steps 2-3: pick the overload whose
// arity (counting defaults) admits the argument count and whose parameter
// pattern unifies, rejecting ambiguity or no match.
func resolveOverload(overloads []*ast.FunDecl, argTypes []*types.Type) (*ast.FunDecl, map[string]*types.Type, error) {
	type candidate struct {
		f     *ast.FunDecl
		subst map[string]*types.Type
	}
	var candidates []candidate

	for _, f := range overloads {
		minArity, maxArity := 0, len(f.Params)
		for _, p := range f.Params {
			if p.Default == nil {
				minArity++
			}
		}
		if len(argTypes) < minArity || len(argTypes) > maxArity {
			continue
		}
		subst := map[string]*types.Type{}
		ok := true
		for i, at := range argTypes {
			if err := unify(f.Params[i].Type, at, subst); err != nil {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, candidate{f, subst})
		}
	}

	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("no overload of %q matches the given argument types", overloads[0].Name)
	}
	if len(candidates) > 1 {
		return nil, nil, fmt.Errorf("ambiguous call to %q: %d overloads match", overloads[0].Name, len(candidates))
	}
	return candidates[0].f, candidates[0].subst, nil
}

// checkBuiltinCall handles the fixed built-in surface (spec §4.2 step 1,
// spec §6 "Built-in function surface"). handled is false when e.FName does
// not name a builtin, in which case the caller proceeds to user-function
// resolution.
func (c *Checker) checkBuiltinCall(e *ast.Expr, argTypes []*types.Type) (*types.Type, bool, error) {
	switch e.FName {
	case "print", "println":
		return types.TVoid(), true, nil
	case "new":
		if len(argTypes) != 1 {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "new expects 1 argument, got %d", len(argTypes))
		}
		return types.TRef(argTypes[0]), true, nil
	case "deref":
		if len(argTypes) != 1 || argTypes[0].Kind != types.Ref {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "deref expects 1 reference argument")
		}
		return argTypes[0].Inner, true, nil
	case "rand":
		if len(argTypes) != 1 && len(argTypes) != 2 {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "rand expects 1 or 2 arguments, got %d", len(argTypes))
		}
		for _, t := range argTypes {
			if t.Kind != types.Int {
				return nil, true, cerrs.NewTypecheckError(e.Pos, "rand arguments must be int")
			}
		}
		return types.TInt(), true, nil
	case "seed":
		if len(argTypes) != 1 || argTypes[0].Kind != types.Int {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "seed expects 1 int argument")
		}
		return types.TVoid(), true, nil
	case "readFile":
		if len(argTypes) != 1 || argTypes[0].Kind != types.String {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "readFile expects 1 string argument")
		}
		return types.TResult(types.TString(), types.TString()), true, nil
	case "inject":
		if len(argTypes) != 3 || argTypes[0].Kind != types.String || argTypes[1].Kind != types.String {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "inject expects (string, string, value)")
		}
		return types.TVoid(), true, nil
	case "toString":
		if len(argTypes) != 1 || argTypes[0].Kind != types.Int {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "toString expects 1 int argument")
		}
		return types.TString(), true, nil
	case "parseInt":
		if len(argTypes) != 1 || argTypes[0].Kind != types.String {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "parseInt expects 1 string argument")
		}
		return types.TInt(), true, nil
	case "assumeNonZero", "assumeNonNil":
		if len(argTypes) != 1 {
			return nil, true, cerrs.NewTypecheckError(e.Pos, "%s expects 1 argument", e.FName)
		}
		return argTypes[0], true, nil
	}
	return nil, false, nil
}
