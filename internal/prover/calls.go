package prover

import (
	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// call implements spec §4.4's function-call handling: arguments' abstract
// Info is bound to the callee's parameters and the callee's body is
// re-analyzed at this call site, so call-site-specific facts (a literal
// divisor, a provably non-nil argument) can prove safety a context-free
// pass over the callee in isolation could not, and so call-site-specific
// argument combinations that the callee cannot safely handle are still
// caught where they're reachable.
func (p *Prover) call(e *ast.Expr, env Env) (Info, error) {
	args := make([]Info, len(e.Args))
	for i, a := range e.Args {
		info, err := p.expr(a, env)
		if err != nil {
			return Info{}, err
		}
		args[i] = info
	}

	if info, handled, err := p.builtinCall(e, args); handled {
		return info, err
	}

	inst, ok := p.Prog.FunInstances[e.FName]
	if !ok {
		out := Unknown()
		out.Initialized = true
		return out, nil
	}

	if allKnownInt(inst, args) {
		if v, ok := tryPureEval(p, inst, args); ok {
			return KnownInt(v), nil
		}
	}

	if p.depth >= MaxRecursionDepth {
		return paramInfo(inst.ReturnType), nil
	}

	callEnv := Env{}
	for i, prm := range inst.Params {
		if i < len(args) {
			callEnv[prm.Name] = args[i]
			continue
		}
		defInfo, err := p.expr(prm.Default, env)
		if err != nil {
			return Info{}, err
		}
		callEnv[prm.Name] = defInfo
	}

	p.depth++
	_, rets, _, err := p.stmts(inst.Body, callEnv)
	p.depth--
	if err != nil {
		return Info{}, err
	}
	if len(rets) == 0 {
		return Info{Initialized: true, ArraySize: -1}, nil
	}
	result := rets[0]
	for _, r := range rets[1:] {
		result = union(result, r)
	}
	return result, nil
}

func allKnownInt(f *ast.FunDecl, args []Info) bool {
	if f.ReturnType == nil || f.ReturnType.Kind != types.Int {
		return false
	}
	for i, prm := range f.Params {
		if prm.Type == nil || prm.Type.Kind != types.Int {
			return false
		}
		if i >= len(args) || !args[i].Known {
			return false
		}
	}
	return len(args) == len(f.Params)
}

func tryPureEval(p *Prover, f *ast.FunDecl, args []Info) (int64, bool) {
	ivals := make([]int64, len(args))
	for i, a := range args {
		ivals[i] = a.CVal
	}
	return PureEval(f, ivals, p.depth)
}

// builtinCall mirrors checker.checkBuiltinCall's dispatch (spec §6).
// handled is false when e.FName is not one of the fixed builtins.
func (p *Prover) builtinCall(e *ast.Expr, args []Info) (Info, bool, error) {
	switch e.FName {
	case "print", "println", "seed", "inject":
		return Info{Initialized: true}, true, nil

	case "new":
		return Info{Initialized: true, NonNil: true, ArraySize: -1}, true, nil

	case "deref":
		if len(args) == 1 && !args[0].NonNil {
			return Info{}, true, cerrs.NewProverError(e.Pos, cerrs.ReasonNilDeref, "deref argument is not provably non-nil")
		}
		return Info{Initialized: true, ArraySize: -1}, true, nil

	case "rand":
		// A documented over-approximation (DESIGN.md Open Question
		// decision): a constant bound widens the provable range to
		// [0,hi] rather than the true [0,hi), trading a little precision
		// for a simple, always-sound bound.
		out := Info{Initialized: true, ArraySize: -1}
		switch len(args) {
		case 1:
			out.Min = 0
			out.Max = args[0].Max
		case 2:
			out.Min = args[0].Min
			out.Max = args[1].Max
		}
		return out, true, nil

	case "readFile":
		return Info{Initialized: true, ArraySize: -1}, true, nil

	case "toString":
		return Info{Initialized: true, IsString: true, NonNil: true, ArraySize: -1}, true, nil

	case "parseInt":
		out := Unknown()
		out.Initialized = true
		return out, true, nil

	case "assumeNonZero":
		if len(args) != 1 {
			return Info{}, true, nil
		}
		out := args[0]
		out.NonZero = true
		return out, true, nil

	case "assumeNonNil":
		if len(args) != 1 {
			return Info{}, true, nil
		}
		out := args[0]
		out.NonNil = true
		return out, true, nil
	}
	return Info{}, false, nil
}
