package ast

import (
	"fmt"
	"strings"
)

// Printer renders an Expr/Stmt tree as an s-expression-like trace, grounded
// on the teacher's internal/ast/printer.go debug-dump convention.
type Printer struct {
	buf strings.Builder
}

func (p *Printer) VisitExpr(e *Expr) {
	if e == nil {
		p.buf.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case EInt:
		fmt.Fprintf(&p.buf, "%d", e.IntVal)
	case EFloat:
		fmt.Fprintf(&p.buf, "%g", e.FloatVal)
	case EString:
		fmt.Fprintf(&p.buf, "%q", e.StringVal)
	case EBool:
		fmt.Fprintf(&p.buf, "%v", e.BoolVal)
	case ENil:
		p.buf.WriteString("nil")
	case EVar:
		p.buf.WriteString(e.Name)
	case EUnary:
		fmt.Fprintf(&p.buf, "(%s ", e.Op)
		p.VisitExpr(e.X)
		p.buf.WriteString(")")
	case EBinary:
		p.buf.WriteString("(")
		p.VisitExpr(e.X)
		fmt.Fprintf(&p.buf, " %s ", e.Op)
		p.VisitExpr(e.Y)
		p.buf.WriteString(")")
	case ECall:
		fmt.Fprintf(&p.buf, "%s(", e.FName)
		for i, a := range e.Args {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.VisitExpr(a)
		}
		p.buf.WriteString(")")
	default:
		fmt.Fprintf(&p.buf, "<expr kind=%d>", e.Kind)
	}
}

func (p *Printer) VisitStmt(s *Stmt) {
	if s == nil {
		p.buf.WriteString("<nil>")
		return
	}
	switch s.Kind {
	case SExpr:
		p.VisitExpr(s.Value)
	case SReturn:
		p.buf.WriteString("return ")
		p.VisitExpr(s.Value)
	default:
		fmt.Fprintf(&p.buf, "<stmt kind=%d>", s.Kind)
	}
}

// Dump renders e as a one-line trace string.
func Dump(e *Expr) string {
	p := &Printer{}
	p.VisitExpr(e)
	return p.buf.String()
}
