// Package compiler implements Etch's bytecode compiler (spec §4.5): lowering
// of the typed, folded AST to the closed, minimal instruction set, plus the
// Value representation and constant-pool/Chunk types the VM (internal/vm)
// executes. Grounded on funvibe-funxy/internal/vm/{opcodes.go,chunk.go,
// compiler.go}: opcode-as-byte-constant catalogue, a Chunk holding
// Code/Constants/Lines/Columns, and jump-patching by absolute index — but
// Etch's instruction set is the closed list spec §4.5 names rather than the
// teacher's ~90-opcode surface (no traits, closures, records, pattern
// extraction: none of those are in this language).
package compiler

// Opcode is a single VM instruction tag.
type Opcode byte

const (
	OpLoadInt Opcode = iota
	OpLoadFloat
	OpLoadString
	OpLoadBool
	OpLoadNil
	OpLoadVar
	OpStoreVar

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot

	OpJump
	OpJumpIfFalse
	OpCall
	OpReturn

	OpNewRef
	OpDeref

	OpMakeArray
	OpArrayGet
	OpArraySet
	OpArraySlice
	OpArrayLen

	OpPop
	OpDup
	OpCast
)

var opcodeNames = map[Opcode]string{
	OpLoadInt: "LoadInt", OpLoadFloat: "LoadFloat", OpLoadString: "LoadString",
	OpLoadBool: "LoadBool", OpLoadNil: "LoadNil", OpLoadVar: "LoadVar", OpStoreVar: "StoreVar",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpNeg: "Neg",
	OpEq: "Eq", OpNe: "Ne", OpLt: "Lt", OpLe: "Le", OpGt: "Gt", OpGe: "Ge",
	OpAnd: "And", OpOr: "Or", OpNot: "Not",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpCall: "Call", OpReturn: "Return",
	OpNewRef: "NewRef", OpDeref: "Deref",
	OpMakeArray: "MakeArray", OpArrayGet: "ArrayGet", OpArraySet: "ArraySet",
	OpArraySlice: "ArraySlice", OpArrayLen: "ArrayLen",
	OpPop: "Pop", OpDup: "Dup", OpCast: "Cast",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// Cast type codes (spec §4.5: "Casts emit Cast with a fixed type code").
const (
	CastInt    int64 = 1
	CastFloat  int64 = 2
	CastString int64 = 3
)
