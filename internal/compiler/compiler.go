package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// Compiler lowers a typechecked, folded, proven-safe ast.Program to a
// compiler.Program (spec §4.5). Grounded on
// funvibe-funxy/internal/vm/{compiler.go,compiler_expressions.go,
// compiler_statements.go,compiler_loops.go}'s single-pass emit-then-patch
// structure.
type Compiler struct {
	prog    *ast.Program
	chunk   *Chunk
	globals map[string]Value

	breakTargets [][]int
	deferred     []*ast.Stmt
	tempCounter  int
}

// Option and Result values have no dedicated runtime tag in spec §4.6's
// Value kind list ({int,float,bool,string,char,ref,array,nil,void}); Etch
// represents both as a 2-element array [tagBool, payload] (tagBool true for
// Some/Ok, false for None/Err) built by MakeArray, so `match` can test the
// tag with an ordinary ArrayGet instead of needing a new Value kind
// (DESIGN.md Open Question decision).

// Compile lowers prog to a ready-to-serialize Program. debugInfo controls
// whether line/column debug info is attached to emitted instructions (spec
// §4.5, conditional on a compile flag).
func Compile(prog *ast.Program, debugInfo bool) (*Program, error) {
	c := &Compiler{prog: prog, chunk: NewChunk(), globals: map[string]Value{}}

	out := &Program{
		Chunk:     c.chunk,
		Functions: map[string]int{},
		FuncDebug: map[string]FuncDebug{},
		DebugInfo: debugInfo,
	}

	for i := range prog.Globals {
		s := &prog.Globals[i]
		if s.Kind != ast.SVar {
			continue
		}
		var v Value
		if s.Init != nil {
			baked, err := BakeGlobal(s.Init, c.globals)
			if err != nil {
				return nil, err
			}
			v = baked
		} else {
			v = zeroValue(s.DeclaredType)
		}
		c.globals[s.Name] = v
		out.GlobalNames = append(out.GlobalNames, s.Name)
		out.GlobalVals = append(out.GlobalVals, v)
	}

	keys := make([]string, 0, len(prog.FunInstances))
	for k := range prog.FunInstances {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic emission order, required by invariant I6

	for _, k := range keys {
		inst := prog.FunInstances[k]
		entry := c.chunk.Here()
		out.Functions[k] = entry
		params := make([]string, len(inst.Params))
		for i, p := range inst.Params {
			params[i] = p.Name
		}
		out.FuncDebug[k] = FuncDebug{Name: inst.Name, Params: params}

		c.deferred = nil
		if err := c.lowerStmts(inst.Body); err != nil {
			return nil, fmt.Errorf("compiling %s: %w", k, err)
		}
		if inst.ReturnType == nil || inst.ReturnType.Kind == types.Void {
			if err := c.emitReturn(true); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := out.Functions["main"]; !ok {
		return nil, fmt.Errorf("no entry point: program defines no main function")
	}
	return out, nil
}

func zeroValue(t *types.Type) Value {
	if t == nil {
		return VNil()
	}
	switch t.Kind {
	case types.Int:
		return VInt(0)
	case types.Float:
		return VFloat(0)
	case types.Bool:
		return VBool(false)
	case types.String:
		return VString("")
	case types.Array:
		return VArray(nil)
	default:
		return VNil()
	}
}

func (c *Compiler) freshTemp() string {
	c.tempCounter++
	return fmt.Sprintf("__tmp%d__", c.tempCounter)
}

func (c *Compiler) lowerStmts(ss []ast.Stmt) error {
	for i := range ss {
		if err := c.lowerStmt(&ss[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) lowerStmt(s *ast.Stmt) error {
	switch s.Kind {
	case ast.SVar:
		if s.Init == nil {
			return nil
		}
		if err := c.lowerExpr(s.Init); err != nil {
			return err
		}
		c.chunk.Emit(OpStoreVar, 0, s.Name)
		return nil

	case ast.SAssign:
		if err := c.lowerExpr(s.Value); err != nil {
			return err
		}
		c.chunk.Emit(OpStoreVar, 0, s.Name)
		return nil

	case ast.SFieldAssign:
		return c.lowerIndexAssign(s)

	case ast.SIf:
		return c.lowerIfChain(s.Cond, s.Then, s.Elifs, s.Else)

	case ast.SWhile:
		return c.lowerWhile(s)

	case ast.SFor:
		return c.lowerFor(s)

	case ast.SBreak:
		j := c.chunk.Emit(OpJump, 0, "")
		if len(c.breakTargets) > 0 {
			top := len(c.breakTargets) - 1
			c.breakTargets[top] = append(c.breakTargets[top], j)
		}
		return nil

	case ast.SExpr:
		if err := c.lowerExpr(s.Value); err != nil {
			return err
		}
		c.chunk.Emit(OpPop, 0, "")
		return nil

	case ast.SReturn:
		if s.Value != nil {
			if err := c.lowerExpr(s.Value); err != nil {
				return err
			}
			return c.emitReturn(false)
		}
		return c.emitReturn(true)

	case ast.SComptime:
		// Folded away before lowering runs (spec §5 pipeline order);
		// handled defensively in case one survives unexpanded.
		return c.lowerStmts(s.Body)

	case ast.SDefer:
		if s.DeferBody != nil {
			c.deferred = append(c.deferred, s.DeferBody)
		}
		return nil

	case ast.SDiscard:
		if err := c.lowerExpr(s.Value); err != nil {
			return err
		}
		c.chunk.Emit(OpPop, 0, "")
		return nil

	case ast.STypeDecl, ast.SImport:
		return nil
	}
	return fmt.Errorf("unhandled statement kind %d", s.Kind)
}

// emitReturn replays deferred statements in reverse declaration order
// (SPEC_FULL.md §C) and then emits Return; withZero prepends LoadInt 0 for
// a bare `return` (spec §4.5's implicit void tail).
func (c *Compiler) emitReturn(withZero bool) error {
	for i := len(c.deferred) - 1; i >= 0; i-- {
		if err := c.lowerStmt(c.deferred[i]); err != nil {
			return err
		}
	}
	if withZero {
		c.chunk.Emit(OpLoadInt, 0, "")
	}
	c.chunk.Emit(OpReturn, 0, "")
	return nil
}

func (c *Compiler) lowerIndexAssign(s *ast.Stmt) error {
	if s.Target == nil || s.Target.Kind != ast.EVar || s.Index == nil {
		return fmt.Errorf("field assignment at %s: only array[index] = value is supported", s.Pos)
	}
	if err := c.lowerExpr(s.Index); err != nil {
		return err
	}
	if err := c.lowerExpr(s.Value); err != nil {
		return err
	}
	c.chunk.Emit(OpArraySet, 0, s.Target.Name)
	return nil
}

func (c *Compiler) lowerIfChain(cond *ast.Expr, then []ast.Stmt, elifs []ast.ElifClause, els []ast.Stmt) error {
	if err := c.lowerExpr(cond); err != nil {
		return err
	}
	jf := c.chunk.Emit(OpJumpIfFalse, 0, "")
	if err := c.lowerStmts(then); err != nil {
		return err
	}
	j := c.chunk.Emit(OpJump, 0, "")
	c.chunk.Patch(jf, int64(c.chunk.Here()))
	if len(elifs) > 0 {
		if err := c.lowerIfChain(elifs[0].Cond, elifs[0].Body, elifs[1:], els); err != nil {
			return err
		}
	} else if err := c.lowerStmts(els); err != nil {
		return err
	}
	c.chunk.Patch(j, int64(c.chunk.Here()))
	return nil
}

func (c *Compiler) lowerWhile(s *ast.Stmt) error {
	c.breakTargets = append(c.breakTargets, nil)
	top := s.Pos
	_ = top
	loopStart := c.chunk.Here()
	if err := c.lowerExpr(s.Cond); err != nil {
		return err
	}
	jf := c.chunk.Emit(OpJumpIfFalse, 0, "")
	if err := c.lowerStmts(s.Body); err != nil {
		return err
	}
	c.chunk.Emit(OpJump, int64(loopStart), "")
	end := c.chunk.Here()
	c.chunk.Patch(jf, int64(end))
	c.patchBreaks(end)
	return nil
}

func (c *Compiler) lowerFor(s *ast.Stmt) error {
	c.breakTargets = append(c.breakTargets, nil)

	if s.ForArray != nil {
		arrTemp := c.freshTemp()
		idxTemp := c.freshTemp()
		if err := c.lowerExpr(s.ForArray); err != nil {
			return err
		}
		c.chunk.Emit(OpStoreVar, 0, arrTemp)
		c.chunk.Emit(OpLoadInt, 0, "")
		c.chunk.Emit(OpStoreVar, 0, idxTemp)

		loopStart := c.chunk.Here()
		c.chunk.Emit(OpLoadVar, 0, idxTemp)
		c.chunk.Emit(OpLoadVar, 0, arrTemp)
		c.chunk.Emit(OpArrayLen, 0, "")
		c.chunk.Emit(OpLt, 0, "")
		jf := c.chunk.Emit(OpJumpIfFalse, 0, "")

		c.chunk.Emit(OpLoadVar, 0, arrTemp)
		c.chunk.Emit(OpLoadVar, 0, idxTemp)
		c.chunk.Emit(OpArrayGet, 0, "")
		c.chunk.Emit(OpStoreVar, 0, s.ForVar)

		if err := c.lowerStmts(s.Body); err != nil {
			return err
		}

		c.chunk.Emit(OpLoadVar, 0, idxTemp)
		c.chunk.Emit(OpLoadInt, 1, "")
		c.chunk.Emit(OpAdd, 0, "")
		c.chunk.Emit(OpStoreVar, 0, idxTemp)
		c.chunk.Emit(OpJump, int64(loopStart), "")

		end := c.chunk.Here()
		c.chunk.Patch(jf, int64(end))
		c.patchBreaks(end)
		return nil
	}

	if err := c.lowerExpr(s.Start); err != nil {
		return err
	}
	c.chunk.Emit(OpStoreVar, 0, s.ForVar)
	endTemp := c.freshTemp()
	if err := c.lowerExpr(s.End); err != nil {
		return err
	}
	c.chunk.Emit(OpStoreVar, 0, endTemp)

	loopStart := c.chunk.Here()
	c.chunk.Emit(OpLoadVar, 0, s.ForVar)
	c.chunk.Emit(OpLoadVar, 0, endTemp)
	if s.Inclusive {
		c.chunk.Emit(OpLe, 0, "")
	} else {
		c.chunk.Emit(OpLt, 0, "")
	}
	jf := c.chunk.Emit(OpJumpIfFalse, 0, "")

	if err := c.lowerStmts(s.Body); err != nil {
		return err
	}

	c.chunk.Emit(OpLoadVar, 0, s.ForVar)
	c.chunk.Emit(OpLoadInt, 1, "")
	c.chunk.Emit(OpAdd, 0, "")
	c.chunk.Emit(OpStoreVar, 0, s.ForVar)
	c.chunk.Emit(OpJump, int64(loopStart), "")

	end := c.chunk.Here()
	c.chunk.Patch(jf, int64(end))
	c.patchBreaks(end)
	return nil
}

func (c *Compiler) patchBreaks(target int) {
	top := len(c.breakTargets) - 1
	for _, j := range c.breakTargets[top] {
		c.chunk.Patch(j, int64(target))
	}
	c.breakTargets = c.breakTargets[:top]
}

func (c *Compiler) lowerExpr(e *ast.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EInt:
		c.chunk.Emit(OpLoadInt, e.IntVal, "")
	case ast.EChar:
		// Chars collapse to their codepoint at the VM value level (spec
		// §4.6's Value list keeps Char only as a static-type distinction
		// here; LoadInt doubles for both, DESIGN.md decision).
		c.chunk.Emit(OpLoadInt, int64(e.CharVal), "")
	case ast.EFloat:
		idx := c.chunk.AddConstant(strconv.FormatFloat(e.FloatVal, 'g', -1, 64))
		c.chunk.Emit(OpLoadFloat, int64(idx), "")
	case ast.EString:
		idx := c.chunk.AddConstant(e.StringVal)
		c.chunk.Emit(OpLoadString, int64(idx), "")
	case ast.EBool:
		v := int64(0)
		if e.BoolVal {
			v = 1
		}
		c.chunk.Emit(OpLoadBool, v, "")
	case ast.ENil:
		c.chunk.Emit(OpLoadNil, 0, "")
	case ast.EVar:
		c.chunk.Emit(OpLoadVar, 0, e.Name)

	case ast.EUnary:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		if e.Op == "-" {
			c.chunk.Emit(OpNeg, 0, "")
		} else {
			c.chunk.Emit(OpNot, 0, "")
		}

	case ast.EBinary:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		if err := c.lowerExpr(e.Y); err != nil {
			return err
		}
		op, ok := binaryOpcodes[e.Op]
		if !ok {
			return fmt.Errorf("unknown binary operator %q", e.Op)
		}
		c.chunk.Emit(op, 0, "")

	case ast.ECall:
		return c.lowerCall(e)

	case ast.ENewRef:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		c.chunk.Emit(OpNewRef, 0, "")

	case ast.EDeref:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		c.chunk.Emit(OpDeref, 0, "")

	case ast.EArray:
		for _, el := range e.Elems {
			if err := c.lowerExpr(el); err != nil {
				return err
			}
		}
		c.chunk.Emit(OpMakeArray, int64(len(e.Elems)), "")

	case ast.EIndex:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		if err := c.lowerExpr(e.Y); err != nil {
			return err
		}
		c.chunk.Emit(OpArrayGet, 0, "")

	case ast.ESlice:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		if e.Lo != nil {
			if err := c.lowerExpr(e.Lo); err != nil {
				return err
			}
		} else {
			c.chunk.Emit(OpLoadInt, 0, "")
		}
		if e.Hi != nil {
			if err := c.lowerExpr(e.Hi); err != nil {
				return err
			}
		} else {
			c.chunk.Emit(OpLoadInt, -1, "") // VM: negative hi means "to array length"
		}
		c.chunk.Emit(OpArraySlice, 0, "")

	case ast.EArrayLen:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		c.chunk.Emit(OpArrayLen, 0, "")

	case ast.ECast:
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		code := CastInt
		if e.CastType != nil {
			switch e.CastType.Kind {
			case types.Float:
				code = CastFloat
			case types.String:
				code = CastString
			}
		}
		c.chunk.Emit(OpCast, code, "")

	case ast.EComptime:
		if e.Inner != nil {
			return c.lowerExpr(e.Inner)
		}
		c.chunk.Emit(OpLoadNil, 0, "")

	case ast.EIf:
		if err := c.lowerExpr(e.Cond); err != nil {
			return err
		}
		jf := c.chunk.Emit(OpJumpIfFalse, 0, "")
		if err := c.lowerExpr(e.Then); err != nil {
			return err
		}
		j := c.chunk.Emit(OpJump, 0, "")
		c.chunk.Patch(jf, int64(c.chunk.Here()))
		if err := c.lowerExpr(e.Else); err != nil {
			return err
		}
		c.chunk.Patch(j, int64(c.chunk.Here()))

	case ast.EOptionSome, ast.EResultOk:
		c.chunk.Emit(OpLoadBool, 1, "")
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		c.chunk.Emit(OpMakeArray, 2, "")

	case ast.EOptionNone:
		c.chunk.Emit(OpLoadBool, 0, "")
		c.chunk.Emit(OpLoadNil, 0, "")
		c.chunk.Emit(OpMakeArray, 2, "")

	case ast.EResultErr:
		c.chunk.Emit(OpLoadBool, 0, "")
		if err := c.lowerExpr(e.X); err != nil {
			return err
		}
		c.chunk.Emit(OpMakeArray, 2, "")

	case ast.EMatch:
		return c.lowerMatch(e)

	default:
		return fmt.Errorf("unhandled expression kind %d", e.Kind)
	}
	return nil
}

var binaryOpcodes = map[string]Opcode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"and": OpAnd, "or": OpOr,
}

func (c *Compiler) lowerCall(e *ast.Expr) error {
	inst, isUser := c.prog.FunInstances[e.FName]
	total := len(e.Args)
	var argExprs []*ast.Expr
	if isUser {
		total = len(inst.Params)
		argExprs = make([]*ast.Expr, total)
		for i := 0; i < total; i++ {
			if i < len(e.Args) {
				argExprs[i] = e.Args[i]
			} else {
				argExprs[i] = inst.Params[i].Default
			}
		}
	} else {
		argExprs = e.Args
	}
	for i := len(argExprs) - 1; i >= 0; i-- {
		if err := c.lowerExpr(argExprs[i]); err != nil {
			return err
		}
	}
	c.chunk.Emit(OpCall, int64(len(argExprs)), e.FName)
	return nil
}

func (c *Compiler) lowerMatch(e *ast.Expr) error {
	if err := c.lowerExpr(e.Scrutinee); err != nil {
		return err
	}
	tmp := c.freshTemp()
	c.chunk.Emit(OpStoreVar, 0, tmp)

	var endJumps []int
	for i := range e.Cases {
		mc := &e.Cases[i]
		jf := -1
		switch mc.Pattern.Kind {
		case ast.PWildcard:
			// always matches, no test emitted

		case ast.PBinding:
			c.chunk.Emit(OpLoadVar, 0, tmp)
			c.chunk.Emit(OpStoreVar, 0, mc.Pattern.Name)

		case ast.PLiteral:
			c.chunk.Emit(OpLoadVar, 0, tmp)
			if err := c.lowerExpr(mc.Pattern.Lit); err != nil {
				return err
			}
			c.chunk.Emit(OpEq, 0, "")
			jf = c.chunk.Emit(OpJumpIfFalse, 0, "")

		case ast.PTag:
			c.chunk.Emit(OpLoadVar, 0, tmp)
			c.chunk.Emit(OpLoadInt, 0, "")
			c.chunk.Emit(OpArrayGet, 0, "")
			if mc.Pattern.Tag == "None" || mc.Pattern.Tag == "Err" {
				c.chunk.Emit(OpNot, 0, "")
			}
			jf = c.chunk.Emit(OpJumpIfFalse, 0, "")
			if mc.Pattern.Sub != nil && mc.Pattern.Sub.Kind == ast.PBinding {
				c.chunk.Emit(OpLoadVar, 0, tmp)
				c.chunk.Emit(OpLoadInt, 1, "")
				c.chunk.Emit(OpArrayGet, 0, "")
				c.chunk.Emit(OpStoreVar, 0, mc.Pattern.Sub.Name)
			}
		}

		if err := c.lowerExpr(mc.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.chunk.Emit(OpJump, 0, ""))
		if jf >= 0 {
			c.chunk.Patch(jf, int64(c.chunk.Here()))
		}
	}

	// Reached only when no arm matches (the checker does not check
	// exhaustiveness); the match then yields nil.
	c.chunk.Emit(OpLoadNil, 0, "")
	end := c.chunk.Here()
	for _, j := range endJumps {
		c.chunk.Patch(j, int64(end))
	}
	return nil
}
