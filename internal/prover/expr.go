package prover

import (
	"math"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cerrs"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// expr implements spec §4.4's per-expression-kind abstraction rules,
// returning the Info the expression evaluates to or a *cerrs.ProverError if
// the expression is not provably safe.
func (p *Prover) expr(e *ast.Expr, env Env) (Info, error) {
	if e == nil {
		return Unknown(), nil
	}
	switch e.Kind {
	case ast.EInt:
		return KnownInt(e.IntVal), nil
	case ast.EFloat:
		// Float overflow is unchecked (DESIGN.md Open Question decision);
		// floats never participate in the integer interval domain.
		return Info{Initialized: true, ArraySize: -1}, nil
	case ast.EString:
		return Info{IsString: true, Initialized: true, NonNil: true, ArraySize: -1}, nil
	case ast.EChar:
		return Info{Initialized: true, ArraySize: -1}, nil
	case ast.EBool:
		return KnownBool(e.BoolVal), nil
	case ast.ENil:
		return Info{Initialized: true, NonNil: false, ArraySize: -1}, nil

	case ast.EVar:
		info, ok := env[e.Name]
		if !ok {
			return Unknown(), nil
		}
		if !info.Initialized {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonUninitialized, "use of %q before initialization", e.Name)
		}
		return info, nil

	case ast.EUnary:
		return p.unary(e, env)
	case ast.EBinary:
		return p.binary(e, env)

	case ast.ECall:
		return p.call(e, env)

	case ast.ENewRef:
		if _, err := p.expr(e.X, env); err != nil {
			return Info{}, err
		}
		return Info{Initialized: true, NonNil: true, ArraySize: -1}, nil

	case ast.EDeref:
		x, err := p.expr(e.X, env)
		if err != nil {
			return Info{}, err
		}
		if !x.NonNil {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonNilDeref, "dereference target is not provably non-nil")
		}
		return Info{Initialized: true, ArraySize: -1}, nil

	case ast.EArray:
		for _, el := range e.Elems {
			if _, err := p.expr(el, env); err != nil {
				return Info{}, err
			}
		}
		return Info{Initialized: true, IsArray: true, ArraySizeKnown: true, ArraySize: int64(len(e.Elems))}, nil

	case ast.EIndex:
		return p.index(e, env)
	case ast.ESlice:
		return p.slice(e, env)
	case ast.EArrayLen:
		return p.arrayLen(e, env)
	case ast.ECast:
		return p.cast(e, env)

	case ast.EComptime:
		if e.Inner != nil {
			return p.expr(e.Inner, env)
		}
		if _, _, _, err := p.stmts(e.Block, copyEnv(env)); err != nil {
			return Info{}, err
		}
		return Info{Initialized: true, ArraySize: -1}, nil

	case ast.EIf:
		cond, err := p.expr(e.Cond, env)
		if err != nil {
			return Info{}, err
		}
		thenEnv := p.refineEnv(env, e.Cond, true)
		elseEnv := p.refineEnv(env, e.Cond, false)
		thenInfo, err := p.expr(e.Then, thenEnv)
		if err != nil {
			return Info{}, err
		}
		elseInfo, err := p.expr(e.Else, elseEnv)
		if err != nil {
			return Info{}, err
		}
		if cond.Known {
			if cond.CVal != 0 {
				return thenInfo, nil
			}
			return elseInfo, nil
		}
		return union(thenInfo, elseInfo), nil

	case ast.EOptionSome, ast.EResultOk, ast.EResultErr:
		if _, err := p.expr(e.X, env); err != nil {
			return Info{}, err
		}
		return Info{Initialized: true, NonNil: true, ArraySize: -1}, nil
	case ast.EOptionNone:
		return Info{Initialized: true, NonNil: false, ArraySize: -1}, nil

	case ast.EMatch:
		return p.match(e, env)
	}
	return Unknown(), nil
}

func (p *Prover) unary(e *ast.Expr, env Env) (Info, error) {
	x, err := p.expr(e.X, env)
	if err != nil {
		return Info{}, err
	}
	switch e.Op {
	case "!":
		if x.Known {
			return KnownBool(x.CVal == 0), nil
		}
		return Info{Initialized: true, IsBool: true, Min: 0, Max: 1}, nil
	case "-":
		lo, hi, overflow := boundsForSub(0, 0, x.Min, x.Max)
		if overflow {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonOverflow, "negation may overflow")
		}
		out := Info{Initialized: true, Min: lo, Max: hi, ArraySize: -1}
		if x.Known {
			out.Known = true
			out.CVal = -x.CVal
		}
		out.NonZero = out.Min > 0 || out.Max < 0
		return out, nil
	}
	return Unknown(), nil
}

func (p *Prover) binary(e *ast.Expr, env Env) (Info, error) {
	x, err := p.expr(e.X, env)
	if err != nil {
		return Info{}, err
	}
	y, err := p.expr(e.Y, env)
	if err != nil {
		return Info{}, err
	}

	// Non-numeric overloads of the arithmetic operators (spec §4.2): string
	// concatenation and array concatenation carry no interval information.
	if e.Op == "+" && e.X.Typ != nil && (e.X.Typ.Kind == types.String || e.X.Typ.Kind == types.Array) {
		if e.X.Typ.Kind == types.String {
			return Info{Initialized: true, IsString: true, NonNil: true, ArraySize: -1}, nil
		}
		return Info{Initialized: true, IsArray: true, ArraySize: -1}, nil
	}

	switch e.Op {
	case "+", "-", "*":
		lo, hi, overflow, cval, known := arithBounds(e.Op, x, y)
		if overflow {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonOverflow, "%s may overflow", e.Op)
		}
		out := Info{Initialized: true, Min: lo, Max: hi, ArraySize: -1}
		out.Known = known
		out.CVal = cval
		out.NonZero = out.Min > 0 || out.Max < 0
		return out, nil

	case "/", "%":
		if y.Known && y.CVal == 0 {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonDivideByZero, "division by a constant zero")
		}
		if !y.NonZero {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonDivideByZero, "divisor not provably non-zero")
		}
		if e.Op == "/" && x.Known && y.Known {
			return KnownInt(x.CVal / y.CVal), nil
		}
		if e.Op == "%" && x.Known && y.Known {
			return KnownInt(x.CVal % y.CVal), nil
		}
		out := Unknown()
		out.Initialized = true
		return out, nil

	case "==", "!=", "<", "<=", ">", ">=":
		return compareInfo(e.Op, x, y), nil

	case "and":
		if x.Known && x.CVal == 0 {
			return KnownBool(false), nil
		}
		if x.Known && y.Known {
			return KnownBool(x.CVal != 0 && y.CVal != 0), nil
		}
		return Info{Initialized: true, IsBool: true, Min: 0, Max: 1}, nil

	case "or":
		if x.Known && x.CVal != 0 {
			return KnownBool(true), nil
		}
		if x.Known && y.Known {
			return KnownBool(x.CVal != 0 || y.CVal != 0), nil
		}
		return Info{Initialized: true, IsBool: true, Min: 0, Max: 1}, nil
	}
	return Unknown(), nil
}

// arithBounds dispatches +, -, * to the corresponding overflow-checked
// interval helper (overflow.go) and additionally tracks a concrete value
// when both operands are Known.
func arithBounds(op string, x, y Info) (lo, hi int64, overflow bool, cval int64, known bool) {
	switch op {
	case "+":
		lo, hi, overflow = boundsForAdd(x.Min, x.Max, y.Min, y.Max)
	case "-":
		lo, hi, overflow = boundsForSub(x.Min, x.Max, y.Min, y.Max)
	case "*":
		lo, hi, overflow = boundsForMul(x.Min, x.Max, y.Min, y.Max)
	}
	if overflow {
		return 0, 0, true, 0, false
	}
	if x.Known && y.Known {
		known = true
		cval = lo // lo == hi whenever both operands are singleton intervals
	}
	return lo, hi, false, cval, known
}

func compareInfo(op string, x, y Info) Info {
	out := Info{Initialized: true, IsBool: true, Min: 0, Max: 1, ArraySize: -1}
	switch op {
	case "==":
		if x.Known && y.Known {
			return KnownBool(x.CVal == y.CVal)
		}
		if x.Max < y.Min || x.Min > y.Max {
			return KnownBool(false)
		}
	case "!=":
		if x.Known && y.Known {
			return KnownBool(x.CVal != y.CVal)
		}
		if x.Max < y.Min || x.Min > y.Max {
			return KnownBool(true)
		}
	case "<":
		if x.Max < y.Min {
			return KnownBool(true)
		}
		if x.Min >= y.Max {
			return KnownBool(false)
		}
	case "<=":
		if x.Max <= y.Min {
			return KnownBool(true)
		}
		if x.Min > y.Max {
			return KnownBool(false)
		}
	case ">":
		if x.Min > y.Max {
			return KnownBool(true)
		}
		if x.Max <= y.Min {
			return KnownBool(false)
		}
	case ">=":
		if x.Min >= y.Max {
			return KnownBool(true)
		}
		if x.Max < y.Min {
			return KnownBool(false)
		}
	}
	return out
}

func (p *Prover) index(e *ast.Expr, env Env) (Info, error) {
	arr, err := p.expr(e.X, env)
	if err != nil {
		return Info{}, err
	}
	idx, err := p.expr(e.Y, env)
	if err != nil {
		return Info{}, err
	}
	if arr.ArraySizeKnown {
		if idx.Known && (idx.CVal < 0 || idx.CVal >= arr.ArraySize) {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonOutOfBounds, "index %d out of bounds for array of size %d", idx.CVal, arr.ArraySize)
		}
		if !idx.Known && (idx.Min < 0 || idx.Max >= arr.ArraySize) {
			return Info{}, cerrs.NewProverError(e.Pos, cerrs.ReasonOutOfBounds, "index range [%d,%d] not provably within [0,%d)", idx.Min, idx.Max, arr.ArraySize)
		}
	}
	return Info{Initialized: true, ArraySize: -1}, nil
}

func (p *Prover) slice(e *ast.Expr, env Env) (Info, error) {
	arr, err := p.expr(e.X, env)
	if err != nil {
		return Info{}, err
	}
	for _, bound := range []*ast.Expr{e.Lo, e.Hi} {
		if bound == nil {
			continue
		}
		b, err := p.expr(bound, env)
		if err != nil {
			return Info{}, err
		}
		if arr.ArraySizeKnown && b.Known && (b.CVal < 0 || b.CVal > arr.ArraySize) {
			return Info{}, cerrs.NewProverError(bound.Pos, cerrs.ReasonOutOfBounds, "slice bound %d out of range for array of size %d", b.CVal, arr.ArraySize)
		}
	}
	return Info{Initialized: true, IsArray: true, ArraySize: -1}, nil
}

func (p *Prover) arrayLen(e *ast.Expr, env Env) (Info, error) {
	x, err := p.expr(e.X, env)
	if err != nil {
		return Info{}, err
	}
	if x.ArraySizeKnown {
		return KnownInt(x.ArraySize), nil
	}
	return Info{Initialized: true, Min: 0, Max: math.MaxInt64, ArraySize: -1}, nil
}

func (p *Prover) cast(e *ast.Expr, env Env) (Info, error) {
	if _, err := p.expr(e.X, env); err != nil {
		return Info{}, err
	}
	if e.CastType != nil && e.CastType.Kind == types.String {
		return Info{Initialized: true, IsString: true, NonNil: true, ArraySize: -1}, nil
	}
	out := Unknown()
	out.Initialized = true
	return out, nil
}

func (p *Prover) match(e *ast.Expr, env Env) (Info, error) {
	if _, err := p.expr(e.Scrutinee, env); err != nil {
		return Info{}, err
	}
	var result Info
	first := true
	for i := range e.Cases {
		caseEnv := copyEnv(env)
		mc := &e.Cases[i]
		if mc.Pattern.Kind == ast.PBinding {
			caseEnv[mc.Pattern.Name] = Unknown()
			bi := caseEnv[mc.Pattern.Name]
			bi.Initialized = true
			caseEnv[mc.Pattern.Name] = bi
		}
		if mc.Pattern.Kind == ast.PTag && mc.Pattern.Sub != nil && mc.Pattern.Sub.Kind == ast.PBinding {
			bi := Unknown()
			bi.Initialized = true
			caseEnv[mc.Pattern.Sub.Name] = bi
		}
		info, err := p.expr(mc.Body, caseEnv)
		if err != nil {
			return Info{}, err
		}
		if first {
			result = info
			first = false
		} else {
			result = union(result, info)
		}
	}
	return result, nil
}
