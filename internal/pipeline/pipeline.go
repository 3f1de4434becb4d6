// Package pipeline orchestrates the core's fixed stage sequence (spec §1:
// "Parse-AST → typecheck+instantiate → comptime fold+inject → re-typecheck
// injected code → safety prove → lower to bytecode → serialize/execute").
// Grounded on funvibe-funxy/internal/pipeline.Pipeline's ordered
// Processor-list shape, adapted from that teacher's "continue on error to
// collect every stage's diagnostics" LSP-oriented behavior to this core's
// spec §7 contract instead: E-Typecheck and E-Prover each abort compilation
// outright, so Run stops at the first failing stage rather than collecting
// further diagnostics past it.
package pipeline

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/checker"
	"github.com/kunitoki/etch-sub002/internal/comptime"
	"github.com/kunitoki/etch-sub002/internal/compiler"
	"github.com/kunitoki/etch-sub002/internal/driverconfig"
	"github.com/kunitoki/etch-sub002/internal/prover"
)

// Stage is one named step of the pipeline.
type Stage interface {
	Name() string
	Run(prog *ast.Program) error
}

// Pipeline runs an ordered list of stages over one Program.
type Pipeline struct {
	stages []Stage
}

// New builds the standard stage sequence. No stage reads cfg; its Debug
// flag (spec §6's release flag: "turns off debug-info emission") is applied
// by Compile when it lowers to bytecode.
func New(cfg *driverconfig.Config) *Pipeline {
	return &Pipeline{stages: []Stage{
		typecheckStage{},
		foldStage{},
		retypecheckStage{},
		proveStage{},
	}}
}

// Run executes every stage in order against prog, stopping at (and
// returning) the first stage error — the two fixed points (typecheck,
// re-typecheck after folding) and the prover all abort compilation per
// spec §7, unlike the teacher's LSP pipeline which pushes through every
// stage to gather all diagnostics at once.
func (p *Pipeline) Run(prog *ast.Program) error {
	for _, s := range p.stages {
		if err := s.Run(prog); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}

// Compile runs the full pipeline (typecheck, fold+inject, re-typecheck,
// prove) and then lowers the proven-safe program to bytecode (spec §4.5),
// returning a ready-to-serialize-or-execute compiler.Program.
func Compile(prog *ast.Program, cfg *driverconfig.Config) (*compiler.Program, error) {
	if err := New(cfg).Run(prog); err != nil {
		return nil, err
	}
	return compiler.Compile(prog, cfg.Debug)
}

type typecheckStage struct{}

func (typecheckStage) Name() string { return "typecheck" }
func (typecheckStage) Run(prog *ast.Program) error {
	return checker.New(prog).CheckProgram()
}

type foldStage struct{}

func (foldStage) Name() string { return "comptime-fold" }
func (foldStage) Run(prog *ast.Program) error {
	return comptime.Fold(prog)
}

// retypecheckStage is the second of the pipeline's two fixed points (spec
// §4.3: "re-typechecked by a second typecheck pass" after comptime
// injection). Re-running the same checker over the now-comptime-free AST
// is sufficient — injected declarations are ordinary `var` statements, and
// the checker has no stage-local state that would make a second pass
// behave differently from the first given the same input shape.
type retypecheckStage struct{}

func (retypecheckStage) Name() string { return "retypecheck" }
func (retypecheckStage) Run(prog *ast.Program) error {
	return checker.New(prog).CheckProgram()
}

type proveStage struct{}

func (proveStage) Name() string { return "prove" }
func (proveStage) Run(prog *ast.Program) error {
	return prover.Prove(prog)
}
