// Package ast implements Etch's closed AST node families (spec §3, §4.1).
// Expr, Stmt and Type are each a single tagged struct rather than an
// interface-per-kind hierarchy, per the Design Notes in spec §9 ("avoid
// class hierarchies or dynamic dispatch"; "prefer ... a new overlay mapping
// rather than mutating shared structure"). We keep in-place mutation of
// Expr.Typ and Expr.FName for the checker and comptime folder, since both
// passes run single-threaded and sequentially (spec §5) and the spec's own
// invariants (I1-I3) are phrased in terms of the node being mutated in
// place; an overlay map is offered as an alternative by spec §9 but not
// mandated, and the teacher's own analyzer mutates the AST in place too
// (funvibe-funxy/internal/analyzer writes into ast.Node via a shared
// TypeMap — here we fold that TypeMap directly onto the node for locality).
package ast

import (
	"github.com/kunitoki/etch-sub002/internal/token"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// ExprKind tags which alternative of the Expression sum a node represents.
type ExprKind int

const (
	EInt ExprKind = iota
	EFloat
	EString
	EChar
	EBool
	ENil
	EVar
	EUnary
	EBinary
	ECall
	ENewRef
	EDeref
	EArray
	EIndex
	ESlice
	EArrayLen
	ECast
	EComptime
	EIf
	EOptionSome
	EOptionNone
	EResultOk
	EResultErr
	EMatch
)

// PatternKind tags a match-arm pattern alternative.
type PatternKind int

const (
	PWildcard PatternKind = iota
	PBinding
	PLiteral
	PTag // constructor tag: Some/None/Ok/Err, with an optional Sub binder
)

// Pattern is a match-arm pattern.
type Pattern struct {
	Kind PatternKind
	Name string // PBinding, or PTag binder name when Sub == nil
	Tag  string // PTag: "Some" | "None" | "Ok" | "Err"
	Sub  *Pattern
	Lit  *Expr
}

// MatchCase is one arm of a `match` expression.
type MatchCase struct {
	Pattern Pattern
	Body    *Expr
}

// Expr is the closed Expression sum (spec §3). Every node carries Pos and,
// after the checker runs, a non-nil concrete Typ (invariant I1). Kind
// selects which of the payload fields below are meaningful; unused fields
// are zero.
type Expr struct {
	Kind ExprKind
	Pos  token.Pos
	Typ  *types.Type

	// Literal payloads.
	IntVal    int64
	FloatVal  float64
	StringVal string
	CharVal   rune
	BoolVal   bool

	// EVar.
	Name string

	// EUnary ("-", "!"), EBinary (+ - * / % == != < <= > >= and or).
	Op   string
	X, Y *Expr

	// ESlice optional bounds (both may be nil).
	Lo, Hi *Expr

	// ECall.
	FName     string // mutated to the monomorphic key by the checker (invariant I2)
	Args      []*Expr
	InstTypes []*types.Type

	// EArray.
	Elems []*Expr

	// ECast target type.
	CastType *types.Type

	// EComptime: exactly one of Block/Inner is set depending on surface form.
	Block []Stmt
	Inner *Expr

	// EIf (expression form): Cond ? Then : Else.
	Cond, Then, Else *Expr

	// EMatch.
	Scrutinee *Expr
	Cases     []MatchCase
}

func (e *Expr) Accept(v Visitor) { v.VisitExpr(e) }
