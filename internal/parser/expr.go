package parser

import (
	"fmt"

	"github.com/yuin/gopher-lua/ast"
)

// Expr is a closed union of the expression kinds the shapes dialect uses.
// The set is sealed by the unexported marker method; every walker switches
// on the concrete types below and sends anything else to UnsupportedExpr.
type Expr interface {
	exprNode()
	Line() int
}

// NumberExpr is a numeric literal kept in its source form.
type NumberExpr struct {
	Raw     string
	SrcLine int
}

// UnaryMinusExpr is '-' applied to an operand, e.g. the -5 in {-5, 3.5}.
type UnaryMinusExpr struct {
	Operand Expr
	SrcLine int
}

// TableExpr is a table constructor.
type TableExpr struct {
	Fields  []Field
	SrcLine int
}

// Field is one table entry. Positional entries have Keyed == false.
// Keyed entries with a non-name key (e.g. [1] = x) have an empty Key.
type Field struct {
	Key   string
	Keyed bool
	Value Expr
}

// IdentExpr is a bare identifier such as THRUSTER_OUT.
type IdentExpr struct {
	Name    string
	SrcLine int
}

// BoolExpr is the literal true or false.
type BoolExpr struct {
	Value   bool
	SrcLine int
}

// StringExpr is a quoted string literal.
type StringExpr struct {
	Value   string
	SrcLine int
}

// UnsupportedExpr stands in for any grammar node the dialect ignores
// (calls, operators, functions, nil, ...).
type UnsupportedExpr struct {
	Kind    string
	SrcLine int
}

func (*NumberExpr) exprNode()      {}
func (*UnaryMinusExpr) exprNode()  {}
func (*TableExpr) exprNode()       {}
func (*IdentExpr) exprNode()       {}
func (*BoolExpr) exprNode()        {}
func (*StringExpr) exprNode()      {}
func (*UnsupportedExpr) exprNode() {}

func (e *NumberExpr) Line() int      { return e.SrcLine }
func (e *UnaryMinusExpr) Line() int  { return e.SrcLine }
func (e *TableExpr) Line() int       { return e.SrcLine }
func (e *IdentExpr) Line() int       { return e.SrcLine }
func (e *BoolExpr) Line() int        { return e.SrcLine }
func (e *StringExpr) Line() int      { return e.SrcLine }
func (e *UnsupportedExpr) Line() int { return e.SrcLine }

// Positional returns the unkeyed entries in order.
func (t *TableExpr) Positional() []Expr {
	var out []Expr
	for _, f := range t.Fields {
		if !f.Keyed {
			out = append(out, f.Value)
		}
	}
	return out
}

// Named returns the last entry with the given name key.
func (t *TableExpr) Named(key string) (Expr, bool) {
	for i := len(t.Fields) - 1; i >= 0; i-- {
		if t.Fields[i].Keyed && t.Fields[i].Key == key {
			return t.Fields[i].Value, true
		}
	}
	return nil, false
}

// lowerExpr converts a gopher-lua expression node into the closed union.
func lowerExpr(e ast.Expr) Expr {
	if e == nil {
		return &UnsupportedExpr{Kind: "nil"}
	}
	line := e.Line()

	switch n := e.(type) {
	case *ast.NumberExpr:
		return &NumberExpr{Raw: n.Value, SrcLine: line}
	case *ast.UnaryMinusOpExpr:
		return &UnaryMinusExpr{Operand: lowerExpr(n.Expr), SrcLine: line}
	case *ast.TableExpr:
		t := &TableExpr{Fields: make([]Field, 0, len(n.Fields)), SrcLine: line}
		for _, f := range n.Fields {
			t.Fields = append(t.Fields, lowerField(f))
		}
		return t
	case *ast.IdentExpr:
		return &IdentExpr{Name: n.Value, SrcLine: line}
	case *ast.TrueExpr:
		return &BoolExpr{Value: true, SrcLine: line}
	case *ast.FalseExpr:
		return &BoolExpr{Value: false, SrcLine: line}
	case *ast.StringExpr:
		return &StringExpr{Value: n.Value, SrcLine: line}
	default:
		return &UnsupportedExpr{Kind: fmt.Sprintf("%T", e), SrcLine: line}
	}
}

func lowerField(f *ast.Field) Field {
	if f.Key == nil {
		return Field{Value: lowerExpr(f.Value)}
	}
	if k, ok := f.Key.(*ast.StringExpr); ok {
		return Field{Key: k.Value, Keyed: true, Value: lowerExpr(f.Value)}
	}
	return Field{Keyed: true, Value: lowerExpr(f.Value)}
}

// numberValue evaluates a literal number or a negated literal number.
func numberValue(e Expr) (float64, bool) {
	return numberValueBits(e, 64)
}

// float32Value is numberValue rounded once, directly to float32.
func float32Value(e Expr) (float32, bool) {
	v, ok := numberValueBits(e, 32)
	return float32(v), ok
}

func numberValueBits(e Expr, bitSize int) (float64, bool) {
	switch n := e.(type) {
	case *NumberExpr:
		return parseNumber(n.Raw, bitSize)
	case *UnaryMinusExpr:
		v, ok := numberValueBits(n.Operand, bitSize)
		if !ok {
			return 0, false
		}
		return -v, true
	default:
		return 0, false
	}
}

// integerValue evaluates a literal integer or a negated literal integer.
func integerValue(e Expr) (int64, bool) {
	switch n := e.(type) {
	case *NumberExpr:
		return parseInteger(n.Raw)
	case *UnaryMinusExpr:
		v, ok := integerValue(n.Operand)
		if !ok {
			return 0, false
		}
		return -v, true
	default:
		return 0, false
	}
}

// tokenValue returns the text of an identifier or string used as an enum tag.
func tokenValue(e Expr) (string, bool) {
	switch n := e.(type) {
	case *IdentExpr:
		return n.Name, true
	case *StringExpr:
		return n.Value, true
	default:
		return "", false
	}
}
