package vm

import (
	"fmt"
	"strconv"

	"github.com/kunitoki/etch-sub002/internal/compiler"
)

func constFloat(c *compiler.Chunk, idx int) (float64, error) {
	if idx < 0 || idx >= len(c.Constants) {
		return 0, fmt.Errorf("invalid constant index %d", idx)
	}
	return strconv.ParseFloat(c.Constants[idx], 64)
}

// arith implements spec §4.6's arithmetic opcodes. Overflow is not
// re-checked here — the prover already rejects any program where it cannot
// prove no overflow occurs (spec §4.4) — so int64 wraps the same way Go's
// native arithmetic does, matching "the VM must not UB if invoked with an
// unverified program" without duplicating the prover's interval analysis.
func (vm *VM) arith(instr compiler.Instruction, x, y compiler.Value) (compiler.Value, error) {
	if x.Kind == compiler.KindString && y.Kind == compiler.KindString && instr.Op == compiler.OpAdd {
		return compiler.VString(x.Str + y.Str), nil
	}
	if x.Kind == compiler.KindArray && y.Kind == compiler.KindArray && instr.Op == compiler.OpAdd {
		out := append(append([]compiler.Value{}, x.Array...), y.Array...)
		return compiler.VArray(out), nil
	}
	if x.Kind == compiler.KindFloat || y.Kind == compiler.KindFloat {
		a, b := x.Float, y.Float
		switch instr.Op {
		case compiler.OpAdd:
			return compiler.VFloat(a + b), nil
		case compiler.OpSub:
			return compiler.VFloat(a - b), nil
		case compiler.OpMul:
			return compiler.VFloat(a * b), nil
		case compiler.OpDiv:
			if b == 0 {
				return compiler.Value{}, vm.runtimeErr(instr, "division by zero")
			}
			return compiler.VFloat(a / b), nil
		}
		return compiler.Value{}, vm.runtimeErr(instr, "modulo is not defined for float")
	}

	a, b := x.Int, y.Int
	switch instr.Op {
	case compiler.OpAdd:
		return compiler.VInt(a + b), nil
	case compiler.OpSub:
		return compiler.VInt(a - b), nil
	case compiler.OpMul:
		return compiler.VInt(a * b), nil
	case compiler.OpDiv:
		if b == 0 {
			return compiler.Value{}, vm.runtimeErr(instr, "division by zero")
		}
		return compiler.VInt(a / b), nil
	case compiler.OpMod:
		if b == 0 {
			return compiler.Value{}, vm.runtimeErr(instr, "modulo by zero")
		}
		return compiler.VInt(a % b), nil
	}
	return compiler.Value{}, vm.runtimeErr(instr, "unknown arithmetic opcode %s", instr.Op)
}

func valuesEqual(x, y compiler.Value) bool {
	if x.Kind == compiler.KindNil || y.Kind == compiler.KindNil {
		// nil compares equal only to nil, never to a ref value; spec §4.1
		// treats ref[void] (nil's type) as a bottom for reference
		// comparisons.
		if x.Kind == compiler.KindRef || y.Kind == compiler.KindRef {
			return false
		}
		return x.Kind == compiler.KindNil && y.Kind == compiler.KindNil
	}
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case compiler.KindInt:
		return x.Int == y.Int
	case compiler.KindFloat:
		return x.Float == y.Float
	case compiler.KindBool:
		return x.Bool == y.Bool
	case compiler.KindString:
		return x.Str == y.Str
	case compiler.KindChar:
		return x.Char == y.Char
	case compiler.KindRef:
		return x.RefID == y.RefID && x.RefGen == y.RefGen
	default:
		return false
	}
}

func compareValues(op compiler.Opcode, x, y compiler.Value) (bool, error) {
	var lt, eq bool
	switch {
	case x.Kind == compiler.KindInt && y.Kind == compiler.KindInt:
		lt, eq = x.Int < y.Int, x.Int == y.Int
	case (x.Kind == compiler.KindFloat || x.Kind == compiler.KindInt) &&
		(y.Kind == compiler.KindFloat || y.Kind == compiler.KindInt):
		af, bf := x.Float, y.Float
		if x.Kind == compiler.KindInt {
			af = float64(x.Int)
		}
		if y.Kind == compiler.KindInt {
			bf = float64(y.Int)
		}
		lt, eq = af < bf, af == bf
	case x.Kind == compiler.KindString && y.Kind == compiler.KindString:
		lt, eq = x.Str < y.Str, x.Str == y.Str
	default:
		return false, fmt.Errorf("ordering comparison requires numeric or string operands")
	}
	switch op {
	case compiler.OpLt:
		return lt, nil
	case compiler.OpLe:
		return lt || eq, nil
	case compiler.OpGt:
		return !lt && !eq, nil
	case compiler.OpGe:
		return !lt, nil
	}
	return false, fmt.Errorf("unknown comparison opcode %s", op)
}

func castValue(v compiler.Value, code int64) compiler.Value {
	switch code {
	case compiler.CastInt:
		switch v.Kind {
		case compiler.KindFloat:
			return compiler.VInt(int64(v.Float))
		case compiler.KindChar:
			return compiler.VInt(int64(v.Char))
		case compiler.KindBool:
			if v.Bool {
				return compiler.VInt(1)
			}
			return compiler.VInt(0)
		default:
			return v
		}
	case compiler.CastFloat:
		if v.Kind == compiler.KindInt {
			return compiler.VFloat(float64(v.Int))
		}
		return v
	case compiler.CastString:
		switch v.Kind {
		case compiler.KindInt:
			return compiler.VString(strconv.FormatInt(v.Int, 10))
		case compiler.KindFloat:
			return compiler.VString(strconv.FormatFloat(v.Float, 'g', -1, 64))
		case compiler.KindBool:
			return compiler.VString(strconv.FormatBool(v.Bool))
		default:
			return v
		}
	}
	return v
}
