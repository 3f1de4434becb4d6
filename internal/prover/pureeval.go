package prover

import (
	"math"

	"github.com/kunitoki/etch-sub002/internal/ast"
)

// MaxLoopIterations bounds symbolic/pure-eval while-loop execution
// (spec §5, §4.4).
const MaxLoopIterations = 1000

// MaxRecursionDepth bounds recursive descent in the prover and the pure
// evaluator (spec §5).
const MaxRecursionDepth = 32

// pureEvalState is the mutable interpreter state for PureEval.
type pureEvalState struct {
	vars  map[string]int64
	depth int
}

// PureEval is the utility spec §4.4 names as shared by the comptime folder
// and the prover: given a function whose body contains only variable
// declarations, assignments, conditionals and bounded while-loops over
// int64 locals, with all arguments known, execute it in a plain int64
// interpreter with overflow detection, returning (value, true) on success
// or (0, false) ("cannot evaluate") on any deviation: an unsupported
// statement, an unknown value, overflow, or a bound hit.
func PureEval(f *ast.FunDecl, args []int64, depth int) (int64, bool) {
	if depth > MaxRecursionDepth {
		return 0, false
	}
	st := &pureEvalState{vars: make(map[string]int64), depth: depth}
	for i, p := range f.Params {
		if i >= len(args) {
			return 0, false
		}
		st.vars[p.Name] = args[i]
	}
	val, ok, returned := st.execBlock(f.Body)
	if !returned {
		return 0, false
	}
	return val, ok
}

// execBlock runs ss, returning (value, ok, returned) where returned is true
// only if a `return` statement fired (ok accompanies it).
func (st *pureEvalState) execBlock(ss []ast.Stmt) (int64, bool, bool) {
	for i := range ss {
		v, ok, returned := st.execStmt(&ss[i])
		if returned {
			return v, ok, true
		}
		if !ok {
			return 0, false, false
		}
	}
	return 0, true, false
}

func (st *pureEvalState) execStmt(s *ast.Stmt) (int64, bool, bool) {
	switch s.Kind {
	case ast.SVar:
		if s.Init == nil {
			return 0, false, false
		}
		v, ok := st.eval(s.Init)
		if !ok {
			return 0, false, false
		}
		st.vars[s.Name] = v
		return 0, true, false

	case ast.SAssign:
		v, ok := st.eval(s.Value)
		if !ok {
			return 0, false, false
		}
		st.vars[s.Name] = v
		return 0, true, false

	case ast.SIf:
		cv, ok := st.eval(s.Cond)
		if !ok {
			return 0, false, false
		}
		if cv != 0 {
			return st.execBlock(s.Then)
		}
		for _, el := range s.Elifs {
			ev, ok := st.eval(el.Cond)
			if !ok {
				return 0, false, false
			}
			if ev != 0 {
				return st.execBlock(el.Body)
			}
		}
		return st.execBlock(s.Else)

	case ast.SWhile:
		for i := 0; i < MaxLoopIterations; i++ {
			cv, ok := st.eval(s.Cond)
			if !ok {
				return 0, false, false
			}
			if cv == 0 {
				return 0, true, false
			}
			v, ok, returned := st.execBlock(s.Body)
			if returned {
				return v, ok, true
			}
			if !ok {
				return 0, false, false
			}
		}
		return 0, false, false // iteration cap hit: cannot evaluate

	case ast.SReturn:
		if s.Value == nil {
			return 0, true, true
		}
		v, ok := st.eval(s.Value)
		return v, ok, true

	case ast.SExpr, ast.SDiscard:
		_, ok := st.eval(s.Value)
		return 0, ok, false

	default:
		return 0, false, false
	}
}

func (st *pureEvalState) eval(e *ast.Expr) (int64, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.EInt:
		return e.IntVal, true
	case ast.EBool:
		if e.BoolVal {
			return 1, true
		}
		return 0, true
	case ast.EVar:
		v, ok := st.vars[e.Name]
		return v, ok
	case ast.EUnary:
		x, ok := st.eval(e.X)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "-":
			if x == math.MinInt64 {
				return 0, false
			}
			return -x, true
		case "!":
			if x == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case ast.EBinary:
		x, ok := st.eval(e.X)
		if !ok {
			return 0, false
		}
		y, ok := st.eval(e.Y)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "+":
			if addOverflows(x, y) {
				return 0, false
			}
			return x + y, true
		case "-":
			if subOverflows(x, y) {
				return 0, false
			}
			return x - y, true
		case "*":
			if mulOverflows(x, y) {
				return 0, false
			}
			return x * y, true
		case "/":
			if y == 0 || (x == math.MinInt64 && y == -1) {
				return 0, false
			}
			return x / y, true
		case "%":
			if y == 0 {
				return 0, false
			}
			return x % y, true
		case "==":
			return boolToInt(x == y), true
		case "!=":
			return boolToInt(x != y), true
		case "<":
			return boolToInt(x < y), true
		case "<=":
			return boolToInt(x <= y), true
		case ">":
			return boolToInt(x > y), true
		case ">=":
			return boolToInt(x >= y), true
		case "and":
			return boolToInt(x != 0 && y != 0), true
		case "or":
			return boolToInt(x != 0 || y != 0), true
		}
	}
	return 0, false
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
