package vm

import "github.com/kunitoki/etch-sub002/internal/compiler"

// Frame is one call-stack entry: a local-variable map plus a return program
// counter (spec §4.6: "Each frame has a local-variable map and a return
// program-counter"). Grounded on funvibe-funxy/internal/vm.CallFrame's
// shape, simplified to this language's closed feature set — no upvalues,
// no trait dispatch context, since Etch has no closures or traits.
type Frame struct {
	fn      string
	pc      int
	locals  map[string]compiler.Value
	retAddr int // pc in the caller's frame to resume at
}

func newFrame(fn string, entry int, retAddr int) *Frame {
	return &Frame{fn: fn, pc: entry, locals: make(map[string]compiler.Value), retAddr: retAddr}
}
