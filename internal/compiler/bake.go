package compiler

import (
	"fmt"

	"github.com/kunitoki/etch-sub002/internal/ast"
)

// BakeGlobal evaluates a global's initializer to a concrete Value at compile
// time. The cache format (spec §6) stores globals as baked name+kind+payload
// entries rather than as instructions, so every global initializer must be
// constant-foldable: literal arithmetic over int/float/bool/string/array
// literals and previously-baked globals (DESIGN.md Open Question decision).
func BakeGlobal(e *ast.Expr, globals map[string]Value) (Value, error) {
	v, ok := bake(e, globals)
	if !ok {
		return Value{}, fmt.Errorf("global initializer at %s is not constant-foldable", e.Pos)
	}
	return v, nil
}

func bake(e *ast.Expr, globals map[string]Value) (Value, bool) {
	if e == nil {
		return Value{}, false
	}
	switch e.Kind {
	case ast.EInt:
		return VInt(e.IntVal), true
	case ast.EFloat:
		return VFloat(e.FloatVal), true
	case ast.EString:
		return VString(e.StringVal), true
	case ast.EChar:
		return VChar(e.CharVal), true
	case ast.EBool:
		return VBool(e.BoolVal), true
	case ast.ENil:
		return VNil(), true

	case ast.EVar:
		v, ok := globals[e.Name]
		return v, ok

	case ast.EUnary:
		x, ok := bake(e.X, globals)
		if !ok {
			return Value{}, false
		}
		switch e.Op {
		case "-":
			if x.Kind == KindInt {
				return VInt(-x.Int), true
			}
			if x.Kind == KindFloat {
				return VFloat(-x.Float), true
			}
		case "!":
			if x.Kind == KindBool {
				return VBool(!x.Bool), true
			}
		}
		return Value{}, false

	case ast.EBinary:
		x, ok := bake(e.X, globals)
		if !ok {
			return Value{}, false
		}
		y, ok := bake(e.Y, globals)
		if !ok {
			return Value{}, false
		}
		return bakeBinary(e.Op, x, y)

	case ast.EArray:
		vals := make([]Value, len(e.Elems))
		for i, el := range e.Elems {
			v, ok := bake(el, globals)
			if !ok {
				return Value{}, false
			}
			vals[i] = v
		}
		return VArray(vals), true
	}
	return Value{}, false
}

func bakeBinary(op string, x, y Value) (Value, bool) {
	switch op {
	case "+":
		if x.Kind == KindString && y.Kind == KindString {
			return VString(x.Str + y.Str), true
		}
		if x.Kind == KindArray && y.Kind == KindArray {
			out := append(append([]Value{}, x.Array...), y.Array...)
			return VArray(out), true
		}
		if x.Kind == KindInt && y.Kind == KindInt {
			if addOverflows(x.Int, y.Int) {
				return Value{}, false
			}
			return VInt(x.Int + y.Int), true
		}
		if x.Kind == KindFloat && y.Kind == KindFloat {
			return VFloat(x.Float + y.Float), true
		}
	case "-":
		if x.Kind == KindInt && y.Kind == KindInt {
			if subOverflows(x.Int, y.Int) {
				return Value{}, false
			}
			return VInt(x.Int - y.Int), true
		}
		if x.Kind == KindFloat && y.Kind == KindFloat {
			return VFloat(x.Float - y.Float), true
		}
	case "*":
		if x.Kind == KindInt && y.Kind == KindInt {
			if mulOverflows(x.Int, y.Int) {
				return Value{}, false
			}
			return VInt(x.Int * y.Int), true
		}
		if x.Kind == KindFloat && y.Kind == KindFloat {
			return VFloat(x.Float * y.Float), true
		}
	case "/":
		if x.Kind == KindInt && y.Kind == KindInt && y.Int != 0 {
			return VInt(x.Int / y.Int), true
		}
		if x.Kind == KindFloat && y.Kind == KindFloat && y.Float != 0 {
			return VFloat(x.Float / y.Float), true
		}
	case "%":
		if x.Kind == KindInt && y.Kind == KindInt && y.Int != 0 {
			return VInt(x.Int % y.Int), true
		}
	case "==":
		return VBool(valueEqual(x, y)), true
	case "!=":
		return VBool(!valueEqual(x, y)), true
	case "<", "<=", ">", ">=":
		return bakeCompare(op, x, y)
	case "and":
		if x.Kind == KindBool && y.Kind == KindBool {
			return VBool(x.Bool && y.Bool), true
		}
	case "or":
		if x.Kind == KindBool && y.Kind == KindBool {
			return VBool(x.Bool || y.Bool), true
		}
	}
	return Value{}, false
}

func bakeCompare(op string, x, y Value) (Value, bool) {
	var lt, eq bool
	switch {
	case x.Kind == KindInt && y.Kind == KindInt:
		lt, eq = x.Int < y.Int, x.Int == y.Int
	case x.Kind == KindFloat && y.Kind == KindFloat:
		lt, eq = x.Float < y.Float, x.Float == y.Float
	case x.Kind == KindString && y.Kind == KindString:
		lt, eq = x.Str < y.Str, x.Str == y.Str
	default:
		return Value{}, false
	}
	switch op {
	case "<":
		return VBool(lt), true
	case "<=":
		return VBool(lt || eq), true
	case ">":
		return VBool(!lt && !eq), true
	case ">=":
		return VBool(!lt), true
	}
	return Value{}, false
}

func valueEqual(x, y Value) bool {
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case KindInt:
		return x.Int == y.Int
	case KindFloat:
		return x.Float == y.Float
	case KindBool:
		return x.Bool == y.Bool
	case KindString:
		return x.Str == y.Str
	case KindChar:
		return x.Char == y.Char
	case KindNil:
		return true
	default:
		return false
	}
}

func addOverflows(a, b int64) bool {
	if b > 0 {
		return a > maxInt64-b
	}
	return a < minInt64-b
}

func subOverflows(a, b int64) bool {
	if b < 0 {
		return a > maxInt64+b
	}
	return a < minInt64+b
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	r := a * b
	return r/b != a
}

const (
	maxInt64 = 1<<63 - 1
	minInt64 = -1 << 63
)
