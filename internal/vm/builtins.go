package vm

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kunitoki/etch-sub002/internal/compiler"
)

// callBuiltin implements spec §6's built-in function surface. It runs ahead
// of Program.Functions lookup (spec §4.6), matching checker.checkBuiltinCall
// dispatching on the same name set before user-overload resolution.
func (vm *VM) callBuiltin(instr compiler.Instruction, args []compiler.Value) (compiler.Value, bool, error) {
	switch instr.StrArg {
	case "print":
		vm.printArgs(args, "")
		return compiler.VVoid(), true, nil
	case "println":
		vm.printArgs(args, "\n")
		return compiler.VVoid(), true, nil

	case "new":
		return vm.heap.Alloc(args[0]), true, nil

	case "deref":
		r := args[0]
		v, ok := vm.heap.Get(r.RefID, r.RefGen)
		if !ok {
			return compiler.Value{}, true, vm.runtimeErr(instr, "deref of invalid or released reference")
		}
		return v, true, nil

	case "rand":
		lo, hi := int64(0), args[0].Int
		if len(args) == 2 {
			lo, hi = args[0].Int, args[1].Int
		}
		if hi <= lo {
			return compiler.Value{}, true, vm.runtimeErr(instr, "rand range is empty (%d, %d)", lo, hi)
		}
		return compiler.VInt(lo + vm.rng.Int63n(hi-lo)), true, nil

	case "seed":
		vm.rng.Seed(args[0].Int)
		return compiler.VVoid(), true, nil

	case "readFile":
		data, err := os.ReadFile(args[0].Str)
		if err != nil {
			return compiler.VArray([]compiler.Value{compiler.VBool(false), compiler.VString(err.Error())}), true, nil
		}
		return compiler.VArray([]compiler.Value{compiler.VBool(true), compiler.VString(string(data))}), true, nil

	case "inject":
		// inject() is expanded at compile time by the comptime folder (spec
		// §4.3); a call surviving to the VM means codegen injection failed to
		// eliminate it.
		return compiler.Value{}, true, vm.runtimeErr(instr, "inject() reached the VM unexpanded")

	case "toString":
		return compiler.VString(strconv.FormatInt(args[0].Int, 10)), true, nil

	case "parseInt":
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
		if err != nil {
			return compiler.Value{}, true, vm.runtimeErr(instr, "parseInt: %q is not a valid integer", args[0].Str)
		}
		return compiler.VInt(n), true, nil

	case "assumeNonZero", "assumeNonNil":
		return args[0], true, nil
	}
	return compiler.Value{}, false, nil
}

func (vm *VM) printArgs(args []compiler.Value, suffix string) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = displayValue(a)
	}
	fmt.Fprint(vm.out, strings.Join(parts, "")+suffix)
}

func displayValue(v compiler.Value) string {
	switch v.Kind {
	case compiler.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case compiler.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case compiler.KindBool:
		return strconv.FormatBool(v.Bool)
	case compiler.KindString:
		return v.Str
	case compiler.KindChar:
		return string(v.Char)
	case compiler.KindNil:
		return "nil"
	case compiler.KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = displayValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}
