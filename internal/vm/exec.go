package vm

import (
	"github.com/kunitoki/etch-sub002/internal/compiler"
)

// execute is the main interpreter loop (spec §4.6 "Instruction semantics").
func (vm *VM) execute() (compiler.Value, error) {
	chunk := vm.prog.Chunk
	for {
		if vm.frame.pc >= len(chunk.Code) {
			return compiler.Value{}, vm.runtimeErr(compiler.Instruction{}, "fell off the end of %q without returning", vm.frame.fn)
		}
		instr := chunk.Code[vm.frame.pc]
		vm.frame.pc++

		switch instr.Op {
		case compiler.OpJump:
			vm.frame.pc = int(instr.IntArg)

		case compiler.OpJumpIfFalse:
			if !vm.pop().Truthy() {
				vm.frame.pc = int(instr.IntArg)
			}

		case compiler.OpCall:
			if done, result, err := vm.execCall(instr); err != nil {
				return compiler.Value{}, err
			} else if done {
				vm.push(result)
			}

		case compiler.OpReturn:
			result := vm.pop()
			retAddr := vm.frame.retAddr
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return result, nil
			}
			vm.frame = vm.frames[len(vm.frames)-1]
			vm.frame.pc = retAddr
			vm.push(result)

		default:
			if err := vm.execOp(instr); err != nil {
				return compiler.Value{}, err
			}
		}
	}
}

// execCall dispatches a Call instruction: builtins first, then user
// functions, per spec §4.6's built-in-surface note (builtins are part of
// "the set the typechecker and VM both recognize", checked ahead of
// Program.Functions). done is true when the call resolved to a builtin
// (whose result is already computed); false when a new Frame was pushed and
// the interpreter loop should resume there instead of pushing anything.
func (vm *VM) execCall(instr compiler.Instruction) (done bool, result compiler.Value, err error) {
	n := int(instr.IntArg)
	args := make([]compiler.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}

	if v, handled, berr := vm.callBuiltin(instr, args); handled {
		return true, v, berr
	}

	entry, ok := vm.prog.Functions[instr.StrArg]
	if !ok {
		return false, compiler.Value{}, vm.runtimeErr(instr, "call to undefined function %q", instr.StrArg)
	}
	if len(vm.frames) >= MaxFrameCount {
		return false, compiler.Value{}, vm.runtimeErr(instr, "call stack overflow calling %q", instr.StrArg)
	}

	fd := vm.prog.FuncDebug[instr.StrArg]
	nf := newFrame(instr.StrArg, entry, vm.frame.pc)
	for i, pname := range fd.Params {
		if i < len(args) {
			nf.locals[pname] = args[i]
		}
	}
	vm.frames = append(vm.frames, nf)
	vm.frame = nf
	return false, compiler.Value{}, nil
}

// execOp handles every opcode that is a pure stack transformation (no
// control-flow or frame change).
func (vm *VM) execOp(instr compiler.Instruction) error {
	switch instr.Op {
	case compiler.OpLoadInt:
		vm.push(compiler.VInt(instr.IntArg))
	case compiler.OpLoadFloat:
		f, err := constFloat(vm.prog.Chunk, int(instr.IntArg))
		if err != nil {
			return vm.runtimeErr(instr, "%s", err)
		}
		vm.push(compiler.VFloat(f))
	case compiler.OpLoadString:
		if int(instr.IntArg) >= len(vm.prog.Chunk.Constants) {
			return vm.runtimeErr(instr, "invalid constant index %d", instr.IntArg)
		}
		vm.push(compiler.VString(vm.prog.Chunk.Constants[instr.IntArg]))
	case compiler.OpLoadBool:
		vm.push(compiler.VBool(instr.IntArg != 0))
	case compiler.OpLoadNil:
		vm.push(compiler.VNil())
	case compiler.OpLoadVar:
		vm.push(vm.loadVar(instr.StrArg))
	case compiler.OpStoreVar:
		vm.storeVar(instr.StrArg, vm.pop())

	case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod:
		y := vm.pop()
		x := vm.pop()
		v, err := vm.arith(instr, x, y)
		if err != nil {
			return err
		}
		vm.push(v)
	case compiler.OpNeg:
		x := vm.pop()
		if x.Kind == compiler.KindFloat {
			vm.push(compiler.VFloat(-x.Float))
		} else {
			vm.push(compiler.VInt(-x.Int))
		}

	case compiler.OpEq:
		y, x := vm.pop(), vm.pop()
		vm.push(compiler.VBool(valuesEqual(x, y)))
	case compiler.OpNe:
		y, x := vm.pop(), vm.pop()
		vm.push(compiler.VBool(!valuesEqual(x, y)))
	case compiler.OpLt, compiler.OpLe, compiler.OpGt, compiler.OpGe:
		y, x := vm.pop(), vm.pop()
		v, err := compareValues(instr.Op, x, y)
		if err != nil {
			return vm.runtimeErr(instr, "%s", err)
		}
		vm.push(compiler.VBool(v))
	case compiler.OpAnd:
		y, x := vm.pop(), vm.pop()
		vm.push(compiler.VBool(x.Bool && y.Bool))
	case compiler.OpOr:
		y, x := vm.pop(), vm.pop()
		vm.push(compiler.VBool(x.Bool || y.Bool))
	case compiler.OpNot:
		x := vm.pop()
		vm.push(compiler.VBool(!x.Bool))

	case compiler.OpNewRef:
		vm.push(vm.heap.Alloc(vm.pop()))
	case compiler.OpDeref:
		r := vm.pop()
		v, ok := vm.heap.Get(r.RefID, r.RefGen)
		if !ok {
			return vm.runtimeErr(instr, "deref of invalid or released reference")
		}
		vm.push(v)

	case compiler.OpMakeArray:
		n := int(instr.IntArg)
		elems := make([]compiler.Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = vm.pop()
		}
		vm.push(compiler.VArray(elems))
	case compiler.OpArrayGet:
		idx, arr := vm.pop(), vm.pop()
		i := idx.Int
		if i < 0 || int(i) >= len(arr.Array) {
			return vm.runtimeErr(instr, "array index %d out of bounds (len %d)", i, len(arr.Array))
		}
		vm.push(arr.Array[i])
	case compiler.OpArraySet:
		val, idx := vm.pop(), vm.pop()
		arr := vm.loadVar(instr.StrArg)
		i := idx.Int
		if i < 0 || int(i) >= len(arr.Array) {
			return vm.runtimeErr(instr, "array index %d out of bounds (len %d)", i, len(arr.Array))
		}
		arr.Array[i] = val
		vm.storeVar(instr.StrArg, arr)
	case compiler.OpArraySlice:
		hi, lo, arr := vm.pop(), vm.pop(), vm.pop()
		loI, hiI := lo.Int, hi.Int
		if hiI < 0 {
			hiI = int64(len(arr.Array))
		}
		if loI < 0 || hiI > int64(len(arr.Array)) || loI > hiI {
			return vm.runtimeErr(instr, "array slice [%d:%d] out of bounds (len %d)", loI, hiI, len(arr.Array))
		}
		out := make([]compiler.Value, hiI-loI)
		copy(out, arr.Array[loI:hiI])
		vm.push(compiler.VArray(out))
	case compiler.OpArrayLen:
		arr := vm.pop()
		vm.push(compiler.VInt(int64(len(arr.Array))))

	case compiler.OpPop:
		vm.pop()
	case compiler.OpDup:
		v := vm.pop()
		vm.push(v)
		vm.push(v)

	case compiler.OpCast:
		vm.push(castValue(vm.pop(), instr.IntArg))

	default:
		return vm.runtimeErr(instr, "unimplemented opcode %s", instr.Op)
	}
	return nil
}

func (vm *VM) loadVar(name string) compiler.Value {
	if v, ok := vm.frame.locals[name]; ok {
		return v
	}
	return vm.globals[name]
}

func (vm *VM) storeVar(name string, v compiler.Value) {
	if _, ok := vm.frame.locals[name]; ok {
		vm.frame.locals[name] = v
		return
	}
	if _, ok := vm.globals[name]; ok {
		vm.globals[name] = v
		return
	}
	vm.frame.locals[name] = v
}
