package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sambeau/felisp/pkg/felisp/table"
)

// ExpressionType names the variant of an expression
type ExpressionType string

const (
	BOOLEAN_EXPR  = "BOOLEAN"
	SYMBOL_EXPR   = "SYMBOL"
	NUMBER_EXPR   = "NUMBER"
	LIST_EXPR     = "LIST"
	FUNCTION_EXPR = "FUNCTION"
	LAMBDA_EXPR   = "LAMBDA"
	TABLE_EXPR    = "TABLE"
)

// Expression is the closed set of values and forms the interpreter works
// on. Parsed source and evaluation results share this representation.
// Expressions are never mutated after construction.
type Expression interface {
	Type() ExpressionType
	String() string
	expressionNode()
}

// Boolean is a literal true or false
type Boolean struct {
	Value bool
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) Type() ExpressionType { return BOOLEAN_EXPR }
func (b *Boolean) String() string       { return strconv.FormatBool(b.Value) }

// Symbol is an unresolved identifier
type Symbol struct {
	Name string
}

func (s *Symbol) expressionNode()      {}
func (s *Symbol) Type() ExpressionType { return SYMBOL_EXPR }
func (s *Symbol) String() string       { return s.Name }

// Number is a numeric atom
type Number struct {
	Value float64
}

func (n *Number) expressionNode()      {}
func (n *Number) Type() ExpressionType { return NUMBER_EXPR }
func (n *Number) String() string       { return FormatNumber(n.Value) }

// FormatNumber renders a float without exponent and without a trailing ".0".
// Infinities print as inf and -inf.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// List is a parenthesized form
type List struct {
	Elements []Expression
}

func (l *List) expressionNode()      {}
func (l *List) Type() ExpressionType { return LIST_EXPR }

// String joins the elements with commas: (+,1,2). insert relies on this
// rendering when it stores unevaluated forms.
func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Head returns the first element and the rest; ok is false for an empty list
func (l *List) Head() (first Expression, rest []Expression, ok bool) {
	if len(l.Elements) == 0 {
		return nil, nil, false
	}
	return l.Elements[0], l.Elements[1:], true
}

// NativeFunc is the signature of built-in operators
type NativeFunc func(args []Expression) (Expression, error)

// NativeFunction is a built-in operator
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

func (f *NativeFunction) expressionNode()      {}
func (f *NativeFunction) Type() ExpressionType { return FUNCTION_EXPR }
func (f *NativeFunction) String() string       { return "Function {}" }

// Scope is the environment a lambda was created in. It is opaque to this
// package; the evaluator decides whether to use it.
type Scope interface{}

// Lambda is a user-defined function. Params must be a List of Symbols when
// the lambda is applied. Params and Body are shared between copies.
type Lambda struct {
	Params Expression
	Body   Expression
	Scope  Scope
}

func (l *Lambda) expressionNode()      {}
func (l *Lambda) Type() ExpressionType { return LAMBDA_EXPR }
func (l *Lambda) String() string       { return "Lambda {}" }

// Table is a handle to a catalog-owned table. Copying the handle never
// copies rows.
type Table struct {
	Store *table.Table
}

func (t *Table) expressionNode()      {}
func (t *Table) Type() ExpressionType { return TABLE_EXPR }
func (t *Table) String() string {
	return fmt.Sprintf("Table: Name: %s Rows: %d", t.Store.Name, t.Store.RowCount)
}

// Convenience constructors

func NewBoolean(b bool) *Boolean        { return &Boolean{Value: b} }
func NewSymbol(name string) *Symbol     { return &Symbol{Name: name} }
func NewNumber(f float64) *Number       { return &Number{Value: f} }
func NewList(elems ...Expression) *List { return &List{Elements: elems} }
