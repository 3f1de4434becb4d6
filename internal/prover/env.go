package prover

import "github.com/kunitoki/etch-sub002/internal/types"

// Env maps variable names to their current abstract Info. It is flat across
// nested blocks: the checker already rejects redeclaration conflicts within
// overlapping scopes, so a single map per function is sound, if slightly
// less precise than a scope-chained one for shadowed names.
type Env map[string]Info

func copyEnv(e Env) Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// unionEnv merges two envs produced by sibling control-flow branches,
// widening the Info of any variable present on both sides and carrying
// through variables local to just one side unchanged.
func unionEnv(a, b Env) Env {
	out := make(Env, len(a))
	for k, av := range a {
		if bv, ok := b[k]; ok {
			out[k] = union(av, bv)
		} else {
			out[k] = av
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			out[k] = bv
		}
	}
	return out
}

// infoEqual compares two Info values field-by-field, skipping Disjunct
// (immaterial to loop fixed-point detection in practice) and Used.
func infoEqual(a, b Info) bool {
	return a.Known == b.Known && a.CVal == b.CVal && a.Min == b.Min && a.Max == b.Max &&
		a.NonZero == b.NonZero && a.NonNil == b.NonNil && a.IsBool == b.IsBool &&
		a.Initialized == b.Initialized && a.IsArray == b.IsArray && a.IsString == b.IsString &&
		a.ArraySizeKnown == b.ArraySizeKnown && a.ArraySize == b.ArraySize
}

// envEqual reports whether two loop-iteration envs agree on every variable,
// the fixed-point test driving analyzeWhile (spec §4.4, §5).
func envEqual(a, b Env) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !infoEqual(av, bv) {
			return false
		}
	}
	return true
}

// widenEnv drops precision to Unknown for any variable the loop body
// touched without reaching its pre-loop value, once MAX_LOOP_ITERATIONS is
// hit without finding a fixed point (spec §5, "Recursion/iteration is
// bounded... to guarantee termination").
func widenEnv(orig, cur Env) Env {
	out := make(Env, len(cur))
	for k, cv := range cur {
		if ov, existed := orig[k]; existed && infoEqual(ov, cv) {
			out[k] = cv
			continue
		}
		w := Unknown()
		w.Initialized = true
		w.IsArray = cv.IsArray
		w.IsString = cv.IsString
		w.IsBool = cv.IsBool
		if w.IsBool {
			w.Min, w.Max = 0, 1
		}
		out[k] = w
	}
	return out
}

// paramInfo is the conservative Info bound to a function parameter at the
// start of a call-site-independent analysis pass (spec §4.4): parameters
// are definitely initialized but otherwise carry no more than their static
// type implies.
func paramInfo(t *types.Type) Info {
	info := Unknown()
	info.Initialized = true
	if t == nil {
		return info
	}
	switch t.Kind {
	case types.Bool:
		info.IsBool = true
		info.Min, info.Max = 0, 1
	case types.Ref:
		info.NonNil = false
	case types.Array:
		info.IsArray = true
		info.ArraySizeKnown = false
	case types.String:
		info.IsString = true
	}
	return info
}
