package prover

import (
	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
)

// analyzeWhile performs bounded symbolic execution of a while loop (spec
// §4.4, §5): it re-analyzes the body against progressively widened envs
// until two consecutive iterations agree (a fixed point, at which point the
// loop invariant is known precisely) or MAX_LOOP_ITERATIONS is exhausted, in
// which case it falls back to a conservative widening that drops precision
// on every variable the body touched rather than rejecting the program.
func (p *Prover) analyzeWhile(s *ast.Stmt, env Env) (Env, []Info, error) {
	cur := copyEnv(env)
	var allReturns []Info

	for i := 0; i < MaxLoopIterations; i++ {
		condInfo, err := p.expr(s.Cond, cur)
		if err != nil {
			return env, nil, err
		}
		// spec §4.4 P6: a condition that is the literal false with a
		// non-empty body can never execute it even once.
		if i == 0 && condInfo.Known && condInfo.CVal == 0 && len(s.Body) > 0 {
			return env, nil, cerrs.NewProverError(s.Pos, cerrs.ReasonUnreachableCode, "loop condition is always false: body is unreachable")
		}
		bodyEnv := p.refineEnv(cur, s.Cond, true)
		newEnv, rets, _, err := p.stmts(s.Body, bodyEnv)
		if err != nil {
			return env, nil, err
		}
		allReturns = append(allReturns, rets...)

		merged := unionEnv(cur, newEnv)
		if envEqual(merged, cur) {
			exitEnv := p.refineEnv(merged, s.Cond, false)
			return unionEnv(env, exitEnv), allReturns, nil
		}
		cur = merged
	}

	widened := widenEnv(env, cur)
	return widened, allReturns, nil
}
