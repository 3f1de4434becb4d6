// Package vm implements Etch's bytecode virtual machine (spec §4.6):
// "Single-threaded, strictly sequential. The VM owns an operand stack of
// values, a call stack of frames, a reference heap of cells, and a globals
// table." Grounded on funvibe-funxy/internal/vm/{vm.go,vm_exec.go,
// vm_calls.go,vm_builtins.go}'s frame/stack/step-loop shape, stripped of
// everything the teacher supports that this language doesn't have (traits,
// closures, upvalues, async tasks, modules) — Etch's VM only ever runs one
// compiled Program to completion.
package vm

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/compiler"
	"github.com/kunitoki/etch-sub002/internal/token"
)

// MaxFrameCount bounds recursion to a reportable runtime error instead of a
// host stack overflow, mirroring funvibe-funxy's MaxFrameCount guard.
const MaxFrameCount = 4096

// VM executes one compiler.Program.
type VM struct {
	prog    *compiler.Program
	stack   []compiler.Value
	frames  []*Frame
	frame   *Frame
	globals map[string]compiler.Value
	heap    *Heap
	rng     *rand.Rand
	out     io.Writer
}

// New builds a VM ready to run prog. Globals are seeded from the baked
// values the compiler produced (spec §6: globals are values, not
// instructions).
func New(prog *compiler.Program) *VM {
	vm := &VM{
		prog:    prog,
		globals: make(map[string]compiler.Value, len(prog.GlobalNames)),
		heap:    NewHeap(),
		rng:     rand.New(rand.NewSource(1)),
		out:     os.Stdout,
	}
	for i, name := range prog.GlobalNames {
		vm.globals[name] = prog.GlobalVals[i]
	}
	return vm
}

// SetOutput redirects `print`/`println` output (tests replace os.Stdout).
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Run executes prog.Functions["main"] to completion and returns its result
// value (spec §4.6's sole entry point) or the first E-Runtime error.
func (vm *VM) Run() (compiler.Value, error) {
	entry, ok := vm.prog.Functions["main"]
	if !ok {
		return compiler.Value{}, fmt.Errorf("program has no main function")
	}
	vm.frame = newFrame("main", entry, -1)
	vm.frames = []*Frame{vm.frame}
	return vm.execute()
}

func (vm *VM) push(v compiler.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() compiler.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

// runtimeErr builds an E-Runtime error tagged with the failing instruction's
// debug position, when the program carries debug info.
func (vm *VM) runtimeErr(instr compiler.Instruction, format string, args ...interface{}) error {
	var pos token.Pos
	if instr.HasDebug {
		pos = token.Pos{Line: int(instr.Line), Col: int(instr.Col)}
	}
	return cerrs.NewRuntimeError(vm.frame.pc-1, pos, format, args...)
}
