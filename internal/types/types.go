// Package types implements Etch's closed algebraic type representation
// (spec §3, "Type"). A Type is a single tagged struct rather than an
// interface hierarchy: the Design Notes (spec §9) call for tagged unions
// over class hierarchies, so every variant lives as optional fields on one
// struct switched on Kind, mirroring the teacher's typesystem.Type catalogue
// (funvibe-funxy/internal/typesystem/types.go) but collapsed into one node
// kind instead of one Go type per variant.
package types

import "strings"

// Kind tags which alternative of the Type sum a value represents.
type Kind int

const (
	Void Kind = iota
	Bool
	Int
	Float
	String
	Char
	Array
	Ref
	Weak
	Generic
	Option
	Result
	UserDefined
	Distinct
	Inferred
	Tuple
	Channel
	Enum
	Function
	TypeDesc
)

var kindNames = map[Kind]string{
	Void: "void", Bool: "bool", Int: "int", Float: "float", String: "string",
	Char: "char", Array: "array", Ref: "ref", Weak: "weak", Generic: "generic",
	Option: "option", Result: "result", UserDefined: "userDefined",
	Distinct: "distinct", Inferred: "inferred", Tuple: "tuple",
	Channel: "channel", Enum: "enum", Function: "function", TypeDesc: "typeDesc",
}

func (k Kind) String() string { return kindNames[k] }

// Type is Etch's closed algebraic type. Composite kinds (array, ref, weak,
// option, distinct, channel, typeDesc) carry Inner. Result carries Inner as
// its Ok payload and Err as its error payload. Generic carries Name as the
// type-variable name; UserDefined, Distinct and Enum carry Name resolvable
// against Program.Types. Tuple carries Elems. Function carries Params and
// Return.
type Type struct {
	Kind   Kind
	Name   string
	Inner  *Type
	Err    *Type
	Elems  []*Type
	Params []*Type
	Return *Type
}

func TVoid() *Type   { return &Type{Kind: Void} }
func TBool() *Type   { return &Type{Kind: Bool} }
func TInt() *Type    { return &Type{Kind: Int} }
func TFloat() *Type  { return &Type{Kind: Float} }
func TString() *Type { return &Type{Kind: String} }
func TChar() *Type   { return &Type{Kind: Char} }

func TArray(inner *Type) *Type   { return &Type{Kind: Array, Inner: inner} }
func TRef(inner *Type) *Type     { return &Type{Kind: Ref, Inner: inner} }
func TWeak(inner *Type) *Type    { return &Type{Kind: Weak, Inner: inner} }
func TGeneric(name string) *Type { return &Type{Kind: Generic, Name: name} }
func TOption(inner *Type) *Type  { return &Type{Kind: Option, Inner: inner} }

func TResult(ok, err *Type) *Type { return &Type{Kind: Result, Inner: ok, Err: err} }

func TUserDefined(name string) *Type { return &Type{Kind: UserDefined, Name: name} }
func TDistinct(name string, inner *Type) *Type {
	return &Type{Kind: Distinct, Name: name, Inner: inner}
}
func TInferred() *Type       { return &Type{Kind: Inferred} }
func TTuple(elems []*Type) *Type { return &Type{Kind: Tuple, Elems: elems} }
func TChannel(inner *Type) *Type { return &Type{Kind: Channel, Inner: inner} }
func TEnum(name string) *Type    { return &Type{Kind: Enum, Name: name} }
func TFunction(params []*Type, ret *Type) *Type {
	return &Type{Kind: Function, Params: params, Return: ret}
}
func TTypeDesc(inner *Type) *Type { return &Type{Kind: TypeDesc, Inner: inner} }

// NilType is the bottom type assigned to the `nil` literal: ref[void].
func NilType() *Type { return TRef(TVoid()) }

// IsNilType reports whether t is exactly ref[void], the type `nil` resolves to.
func IsNilType(t *Type) bool {
	return t != nil && t.Kind == Ref && t.Inner != nil && t.Inner.Kind == Void
}

// Equal reports structural equality, ignoring source positions (Type itself
// never carries one).
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Generic, UserDefined, Distinct, Enum:
		if a.Name != b.Name {
			return false
		}
	}
	if !Equal(a.Inner, b.Inner) || !Equal(a.Err, b.Err) || !Equal(a.Return, b.Return) {
		return false
	}
	if len(a.Elems) != len(b.Elems) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	for i := range a.Params {
		if !Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// IsGeneric reports whether t contains any generic type-variable node
// anywhere in its structure (spec invariant I1: after typecheck no reachable
// Expr.typ may contain a generic kind node).
func IsGeneric(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Kind == Generic {
		return true
	}
	if IsGeneric(t.Inner) || IsGeneric(t.Err) || IsGeneric(t.Return) {
		return true
	}
	for _, e := range t.Elems {
		if IsGeneric(e) {
			return true
		}
	}
	for _, p := range t.Params {
		if IsGeneric(p) {
			return true
		}
	}
	return false
}

// Resolve substitutes every Generic(name) node reachable in t according to
// subst, returning a fresh Type tree. Names absent from subst are left as-is
// (this happens for concept-bound params resolved by an outer call site).
func Resolve(t *Type, subst map[string]*Type) *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case Generic:
		if r, ok := subst[t.Name]; ok {
			return r
		}
		return t
	default:
		out := &Type{Kind: t.Kind, Name: t.Name}
		out.Inner = Resolve(t.Inner, subst)
		out.Err = Resolve(t.Err, subst)
		out.Return = Resolve(t.Return, subst)
		if t.Elems != nil {
			out.Elems = make([]*Type, len(t.Elems))
			for i, e := range t.Elems {
				out.Elems[i] = Resolve(e, subst)
			}
		}
		if t.Params != nil {
			out.Params = make([]*Type, len(t.Params))
			for i, p := range t.Params {
				out.Params[i] = Resolve(p, subst)
			}
		}
		return out
	}
}

// String renders a type in Etch surface syntax, also used as the
// deterministic, injective-over-distinct-types mangle fragment for
// generateOverloadSignature (spec §4.1).
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Void, Bool, Int, Float, String, Char, Inferred:
		return t.Kind.String()
	case Array:
		return "array[" + t.Inner.String() + "]"
	case Ref:
		return "ref[" + t.Inner.String() + "]"
	case Weak:
		return "weak[" + t.Inner.String() + "]"
	case Generic:
		return "generic(" + t.Name + ")"
	case Option:
		return "option[" + t.Inner.String() + "]"
	case Result:
		return "result[" + t.Inner.String() + "," + t.Err.String() + "]"
	case UserDefined:
		return t.Name
	case Distinct:
		return "distinct(" + t.Name + "," + t.Inner.String() + ")"
	case Enum:
		return "enum(" + t.Name + ")"
	case Tuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "tuple[" + strings.Join(parts, ",") + "]"
	case Channel:
		return "channel[" + t.Inner.String() + "]"
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "fn(" + strings.Join(parts, ",") + ")->" + t.Return.String()
	case TypeDesc:
		return "typeDesc[" + t.Inner.String() + "]"
	default:
		return "?"
	}
}

// IsNumeric reports whether t is int or float.
func IsNumeric(t *Type) bool {
	return t != nil && (t.Kind == Int || t.Kind == Float)
}
