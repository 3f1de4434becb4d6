package compiler

// ValueKind tags the VM's tagged-variant runtime value (spec §4.6, "Value
// representation").
type ValueKind byte

const (
	KindVoid ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindChar
	KindRef
	KindArray
	KindNil
)

// Value is the VM's runtime value: one tagged variant rather than a
// per-kind Go type, matching the AST/Type design (spec §9).
type Value struct {
	Kind ValueKind

	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Char   rune
	RefID  int64 // index into the VM heap; meaningful only when Kind == KindRef
	RefGen int64 // generation counter captured at NewRef time
	Array  []Value
}

func VInt(n int64) Value      { return Value{Kind: KindInt, Int: n} }
func VFloat(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func VBool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func VString(s string) Value  { return Value{Kind: KindString, Str: s} }
func VChar(r rune) Value      { return Value{Kind: KindChar, Char: r} }
func VNil() Value             { return Value{Kind: KindNil} }
func VVoid() Value            { return Value{Kind: KindVoid} }
func VArray(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }
func VRef(id, gen int64) Value {
	return Value{Kind: KindRef, RefID: id, RefGen: gen}
}

// Truthy implements spec §4.5/§4.6's falsy rule for JumpIfFalse: boolean
// false, integer zero, and float zero are falsy; everything else (including
// an empty string or array) is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	default:
		return true
	}
}
