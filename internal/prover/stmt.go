package prover

import (
	"math"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
)

// stmts walks a statement list, threading env forward and collecting every
// return-value Info reached along any path. terminated reports whether
// control never falls off the end of the list (a return or break fired),
// which the caller uses to flag dead code (spec §4.4 edge case P6).
func (p *Prover) stmts(ss []ast.Stmt, env Env) (Env, []Info, bool, error) {
	var returns []Info
	terminated := false
	for i := range ss {
		if terminated {
			return env, returns, true, cerrs.NewProverError(ss[i].Pos, cerrs.ReasonUnreachableCode, "statement is unreachable")
		}
		newEnv, rets, term, err := p.stmt(&ss[i], env)
		if err != nil {
			return env, returns, terminated, err
		}
		env = newEnv
		returns = append(returns, rets...)
		terminated = term
	}
	return env, returns, terminated, nil
}

func (p *Prover) stmt(s *ast.Stmt, env Env) (Env, []Info, bool, error) {
	switch s.Kind {
	case ast.SVar:
		out := copyEnv(env)
		if s.Init == nil {
			info := Unknown()
			info.Initialized = false
			out[s.Name] = info
			return out, nil, false, nil
		}
		info, err := p.expr(s.Init, env)
		if err != nil {
			return env, nil, false, err
		}
		info.Initialized = true
		out[s.Name] = info
		return out, nil, false, nil

	case ast.SAssign:
		info, err := p.expr(s.Value, env)
		if err != nil {
			return env, nil, false, err
		}
		info.Initialized = true
		out := copyEnv(env)
		out[s.Name] = info
		return out, nil, false, nil

	case ast.SFieldAssign:
		if _, err := p.expr(s.Target, env); err != nil {
			return env, nil, false, err
		}
		if s.Index != nil {
			if _, err := p.expr(s.Index, env); err != nil {
				return env, nil, false, err
			}
		}
		if _, err := p.expr(s.Value, env); err != nil {
			return env, nil, false, err
		}
		return env, nil, false, nil

	case ast.SIf:
		return p.ifStmt(s, env)

	case ast.SWhile:
		out, rets, err := p.analyzeWhile(s, env)
		if err != nil {
			return env, nil, false, err
		}
		return out, rets, false, nil

	case ast.SFor:
		return p.forStmt(s, env)

	case ast.SBreak:
		return env, nil, true, nil

	case ast.SExpr:
		if _, err := p.expr(s.Value, env); err != nil {
			return env, nil, false, err
		}
		return env, nil, false, nil

	case ast.SReturn:
		if s.Value == nil {
			return env, []Info{{}}, true, nil
		}
		info, err := p.expr(s.Value, env)
		if err != nil {
			return env, nil, false, err
		}
		return env, []Info{info}, true, nil

	case ast.SComptime:
		// Ordinarily folded away before the prover runs (spec §5 pipeline
		// order); analyzed defensively in case it survives unexpanded.
		return p.stmts(s.Body, env)

	case ast.SDefer:
		if s.DeferBody == nil {
			return env, nil, false, nil
		}
		if _, _, _, err := p.stmt(s.DeferBody, env); err != nil {
			return env, nil, false, err
		}
		return env, nil, false, nil

	case ast.SDiscard:
		if _, err := p.expr(s.Value, env); err != nil {
			return env, nil, false, err
		}
		return env, nil, false, nil

	case ast.STypeDecl, ast.SImport:
		return env, nil, false, nil
	}
	return env, nil, false, nil
}

func (p *Prover) ifStmt(s *ast.Stmt, env Env) (Env, []Info, bool, error) {
	condInfo, err := p.expr(s.Cond, env)
	if err != nil {
		return env, nil, false, err
	}
	// spec §4.4 P6: a condition that reduces to a known constant makes
	// whichever arm can never run dead code, not merely unreached.
	if condInfo.Known {
		if condInfo.CVal != 0 && (len(s.Elifs) > 0 || len(s.Else) > 0) {
			return env, nil, false, cerrs.NewProverError(s.Pos, cerrs.ReasonUnreachableCode, "condition is always true: else branch is unreachable")
		}
		if condInfo.CVal == 0 && len(s.Then) > 0 {
			return env, nil, false, cerrs.NewProverError(s.Pos, cerrs.ReasonUnreachableCode, "condition is always false: then branch is unreachable")
		}
	}

	thenEnv := p.refineEnv(env, s.Cond, true)
	thenOut, thenRets, thenTerm, err := p.stmts(s.Then, thenEnv)
	if err != nil {
		return env, nil, false, err
	}
	branches := []Env{thenOut}
	allRets := append([]Info{}, thenRets...)
	allTerm := thenTerm

	cur := p.refineEnv(env, s.Cond, false)
	for i := range s.Elifs {
		el := &s.Elifs[i]
		if _, err := p.expr(el.Cond, cur); err != nil {
			return env, nil, false, err
		}
		bodyEnv := p.refineEnv(cur, el.Cond, true)
		bodyOut, bodyRets, bodyTerm, err := p.stmts(el.Body, bodyEnv)
		if err != nil {
			return env, nil, false, err
		}
		branches = append(branches, bodyOut)
		allRets = append(allRets, bodyRets...)
		allTerm = allTerm && bodyTerm
		cur = p.refineEnv(cur, el.Cond, false)
	}

	elseOut, elseRets, elseTerm, err := p.stmts(s.Else, cur)
	if err != nil {
		return env, nil, false, err
	}
	branches = append(branches, elseOut)
	allRets = append(allRets, elseRets...)
	allTerm = allTerm && elseTerm

	merged := branches[0]
	for _, b := range branches[1:] {
		merged = unionEnv(merged, b)
	}
	return merged, allRets, allTerm, nil
}

func (p *Prover) forStmt(s *ast.Stmt, env Env) (Env, []Info, bool, error) {
	bodyEnv := copyEnv(env)
	if s.ForArray != nil {
		arrInfo, err := p.expr(s.ForArray, env)
		if err != nil {
			return env, nil, false, err
		}
		// spec §4.4 P6: iterating a provably empty array can never run the
		// body.
		if arrInfo.ArraySizeKnown && arrInfo.ArraySize == 0 && len(s.Body) > 0 {
			return env, nil, false, cerrs.NewProverError(s.Pos, cerrs.ReasonUnreachableCode, "range is provably empty: body is unreachable")
		}
		elemInfo := Unknown()
		elemInfo.Initialized = true
		bodyEnv[s.ForVar] = elemInfo
	} else {
		start, err := p.expr(s.Start, env)
		if err != nil {
			return env, nil, false, err
		}
		end, err := p.expr(s.End, env)
		if err != nil {
			return env, nil, false, err
		}
		hi := end.Max
		if !s.Inclusive && hi != math.MaxInt64 {
			hi--
		}
		lo := start.Min
		// spec §4.4 P6 / §8: a provably empty range (e.g. `5..5` exclusive)
		// can never run a non-empty body.
		if lo > hi && len(s.Body) > 0 {
			return env, nil, false, cerrs.NewProverError(s.Pos, cerrs.ReasonUnreachableCode, "range is provably empty: body is unreachable")
		}
		info := Info{Initialized: true, Min: lo, Max: hi, ArraySize: -1}
		info.NonZero = info.Min > 0 || info.Max < 0
		bodyEnv[s.ForVar] = info
	}
	_, rets, _, err := p.stmts(s.Body, bodyEnv)
	if err != nil {
		return env, nil, false, err
	}
	// The loop variable and any body-local mutation go out of scope; a
	// for-loop over a structurally bounded range never narrows the outer
	// env (spec §4.4 treats it more simply than the while symbolic pass).
	return env, rets, false, nil
}

// refineEnv narrows env along the branch where cond evaluates to positive
// (true for the "then" edge, false for the complementary edge), implementing
// the meet-driven condition refinement spec §4.4 names. Only the `var OP
// const-or-var` comparison forms (and `and`/`or` compositions of them) are
// refined; anything else leaves env unchanged, which is always sound
// (merely less precise).
func (p *Prover) refineEnv(env Env, cond *ast.Expr, positive bool) Env {
	if cond == nil || cond.Kind != ast.EBinary {
		return copyEnv(env)
	}
	switch cond.Op {
	case "and":
		if positive {
			mid := p.refineEnv(env, cond.X, true)
			return p.refineEnv(mid, cond.Y, true)
		}
		return copyEnv(env)
	case "or":
		if !positive {
			mid := p.refineEnv(env, cond.X, false)
			return p.refineEnv(mid, cond.Y, false)
		}
		return copyEnv(env)
	}

	name, otherExpr, op, ok := varConstForm(cond)
	if !ok {
		return copyEnv(env)
	}
	cur, exists := env[name]
	if !exists {
		return copyEnv(env)
	}
	other, err := p.expr(otherExpr, env)
	if err != nil {
		return copyEnv(env)
	}
	effOp := op
	if !positive {
		effOp = negateOp(op)
	}
	out := copyEnv(env)
	out[name] = applyComparisonRefine(cur, effOp, other)
	return out
}

// varConstForm recognizes `var OP expr` or `expr OP var`, returning the
// variable name, the other operand, and the comparison operator oriented
// so it reads "var OP other".
func varConstForm(cond *ast.Expr) (name string, other *ast.Expr, op string, ok bool) {
	switch cond.Op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return "", nil, "", false
	}
	if cond.X.Kind == ast.EVar {
		return cond.X.Name, cond.Y, cond.Op, true
	}
	if cond.Y.Kind == ast.EVar {
		return cond.Y.Name, cond.X, flipSide(cond.Op), true
	}
	return "", nil, "", false
}

func flipSide(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op // == and != are symmetric
	}
}

func negateOp(op string) string {
	switch op {
	case "<":
		return ">="
	case "<=":
		return ">"
	case ">":
		return "<="
	case ">=":
		return "<"
	case "==":
		return "!="
	case "!=":
		return "=="
	default:
		return op
	}
}

func applyComparisonRefine(cur Info, op string, c Info) Info {
	out := cur
	switch op {
	case "<":
		if c.Max != math.MaxInt64 {
			out.Max = minI64(out.Max, c.Max-1)
		}
	case "<=":
		out.Max = minI64(out.Max, c.Max)
	case ">":
		if c.Min != math.MinInt64 {
			out.Min = maxI64(out.Min, c.Min+1)
		}
	case ">=":
		out.Min = maxI64(out.Min, c.Min)
	case "==":
		out.Min = maxI64(out.Min, c.Min)
		out.Max = minI64(out.Max, c.Max)
		if c.Known {
			out.Known = true
			out.CVal = c.CVal
		}
	case "!=":
		if c.Known && c.CVal == 0 {
			out.NonZero = true
		}
	}
	if out.Min > out.Max {
		out.Min, out.Max = cur.Min, cur.Min
	}
	if out.Min > 0 || out.Max < 0 {
		out.NonZero = true
	}
	return out
}
