package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders chunk's instruction stream as one line per
// instruction, index-prefixed, in the form opcode.go's own opcodeNames
// table already names each op by: "0000 LoadInt 2". String operands are
// quoted; instructions with no operand print the index and mnemonic alone.
// Used by this package's golden fixtures (disasm_golden_test.go) to pin the
// compiler's lowering output independently of the binary cache format.
func Disassemble(chunk *Chunk) string {
	var b strings.Builder
	for i, instr := range chunk.Code {
		fmt.Fprintf(&b, "%04d %s", i, instr.Op)
		switch {
		case instr.Op == OpCall:
			fmt.Fprintf(&b, " %q %d", instr.StrArg, instr.IntArg)
		case instr.StrArg != "":
			fmt.Fprintf(&b, " %q", instr.StrArg)
		case operandMatters(instr.Op):
			fmt.Fprintf(&b, " %d", instr.IntArg)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// operandMatters reports whether op's IntArg is meaningful to print. A few
// ops (Return, Not, Neg, Pop, Dup, array ops with no count) ignore IntArg.
func operandMatters(op Opcode) bool {
	switch op {
	case OpReturn, OpNot, OpNeg, OpPop, OpDup, OpArrayGet, OpArraySet, OpArraySlice, OpArrayLen, OpDeref, OpNewRef,
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr:
		return false
	default:
		return true
	}
}
