package prover

import "github.com/kunitoki/etch-sub002/internal/ast"

// Prover holds the mutable state threaded through one safety-proving pass
// (spec §4.4). depth bounds call-site re-analysis recursion (spec §5).
type Prover struct {
	Prog  *ast.Program
	depth int
}

// Prove is the safety prover's entry point: it checks every global
// initializer in declaration order (invariant I4: globals initialize
// top-to-bottom, each seeing only the ones before it) and then analyzes the
// reachable program starting at main, the VM's only entry point (spec
// §4.6). Code no call graph reaches from main is never executed by the VM
// and so is not proven here either — it is simply dead, not unsafe.
func Prove(prog *ast.Program) error {
	p := &Prover{Prog: prog}

	globalEnv := Env{}
	var err error
	globalEnv, _, _, err = p.stmts(prog.Globals, globalEnv)
	if err != nil {
		return err
	}

	main, ok := prog.FunInstances["main"]
	if !ok {
		// No entry point to prove; the compiler's later stage rejects a
		// program with no main before it would ever reach the VM.
		return nil
	}

	env := copyEnv(globalEnv)
	for _, prm := range main.Params {
		env[prm.Name] = paramInfo(prm.Type)
	}
	_, _, _, err = p.stmts(main.Body, env)
	return err
}
