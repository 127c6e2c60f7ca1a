package parser

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
	"github.com/sambeau/felisp/pkg/felisp/lexer"
)

func sym(name string) *ast.Symbol { return ast.NewSymbol(name) }
func num(f float64) *ast.Number   { return ast.NewNumber(f) }

func TestParseSimpleCall(t *testing.T) {
	expr, rest, err := Parse(lexer.Tokenize("(+ 1 2)"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("expected no remaining tokens, got %v", lexer.Literals(rest))
	}

	want := ast.NewList(sym("+"), num(1), num(2))
	if diff := cmp.Diff(want, expr); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Expression
	}{
		{"42", num(42)},
		{"-2.5", num(-2.5)},
		{"1e3", num(1000)},
		{".5", num(0.5)},
		{"true", ast.NewBoolean(true)},
		{"false", ast.NewBoolean(false)},
		{"True", sym("True")},
		{"mytable1", sym("mytable1")},
		{"bob@example.com", sym("bob@example.com")},
		{"0x10", sym("0x10")},
		{"1_000", sym("1_000")},
		{"()", ast.NewList()},
		{
			"(defn lam (fn (a b) (+ a b)))",
			ast.NewList(sym("defn"), sym("lam"),
				ast.NewList(sym("fn"), ast.NewList(sym("a"), sym("b")), ast.NewList(sym("+"), sym("a"), sym("b")))),
		},
		{
			"(if (< 1 2) true false)",
			ast.NewList(sym("if"), ast.NewList(sym("<"), num(1), num(2)), ast.NewBoolean(true), ast.NewBoolean(false)),
		},
		{"((()))", ast.NewList(ast.NewList(ast.NewList()))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseString(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLeavesTrailingTokens(t *testing.T) {
	expr, rest, err := Parse(lexer.Tokenize("(+ 1 2) (- 3 4) x"))
	if err != nil {
		t.Fatal(err)
	}
	if expr.String() != "(+,1,2)" {
		t.Errorf("expected first form, got %s", expr)
	}
	if got := strings.Join(lexer.Literals(rest), " "); got != "( - 3 4 ) x" {
		t.Errorf("remaining tokens = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
		line    int
		column  int
	}{
		{"(+ 1", "could not find closing )", 1, 1},
		{"(+ 1 (- 2", "could not find closing )", 1, 6},
		{"\n  (a", "could not find closing )", 2, 3},
		{")", "unexpected )", 1, 1},
		{"(+ 1 ))", "", 0, 0}, // the first form is complete; the stray ) is left over
		{"", "could not get token", 0, 0},
		{"   ", "could not get token", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if tt.message == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected error %q", tt.message)
			}
			perr, ok := err.(*perrors.FelispError)
			if !ok {
				t.Fatalf("expected *FelispError, got %T", err)
			}
			if perr.Message != tt.message {
				t.Errorf("message = %q, want %q", perr.Message, tt.message)
			}
			if perr.Class != perrors.ClassParse {
				t.Errorf("class = %q, want parse", perr.Class)
			}
			if perr.Line != tt.line || perr.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", perr.Line, perr.Column, tt.line, tt.column)
			}
		})
	}
}

func TestUnclosedHintCountsDepth(t *testing.T) {
	tests := []struct {
		input string
		hint  string
	}{
		{"(a", "1 unclosed ( remaining"},
		{"(a (b (c", "3 unclosed ( remaining"},
		{"(+ 1 (- 2", "2 unclosed ( remaining"},
		{"(a (b) (c (d)", "2 unclosed ( remaining"},
		{"((((", "4 unclosed ( remaining"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseString(tt.input)
			perr, ok := err.(*perrors.FelispError)
			if !ok {
				t.Fatalf("expected a FelispError, got %v", err)
			}
			if len(perr.Hints) != 1 || perr.Hints[0] != tt.hint {
				t.Errorf("hints = %v, want [%s]", perr.Hints, tt.hint)
			}
		})
	}
}

func TestParseAtomNumbers(t *testing.T) {
	tests := []struct {
		literal string
		check   func(float64) bool
	}{
		{"inf", func(f float64) bool { return math.IsInf(f, 1) }},
		{"-inf", func(f float64) bool { return math.IsInf(f, -1) }},
		{"NaN", math.IsNaN},
		{"1e400", func(f float64) bool { return math.IsInf(f, 1) }},
		{"+3", func(f float64) bool { return f == 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			n, ok := ParseAtom(tt.literal).(*ast.Number)
			if !ok {
				t.Fatalf("expected a number for %q", tt.literal)
			}
			if !tt.check(n.Value) {
				t.Errorf("unexpected value %v", n.Value)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	forms, err := ParseAll(lexer.Tokenize("(defn x 5)\n(+ x 1)\nx"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range forms {
		got = append(got, f.String())
	}
	if strings.Join(got, " ") != "(defn,x,5) (+,x,1) x" {
		t.Errorf("forms = %v", got)
	}

	forms, err = ParseAll(lexer.Tokenize("(a) )"))
	if err == nil || err.Error() != "unexpected )" {
		t.Errorf("expected unexpected ) error, got %v", err)
	}
	if len(forms) != 1 {
		t.Errorf("expected the forms before the error, got %d", len(forms))
	}

	forms, err = ParseAll(nil)
	if err != nil || len(forms) != 0 {
		t.Errorf("ParseAll(nil) = %v, %v", forms, err)
	}
}
