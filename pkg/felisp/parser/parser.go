// Package parser turns Felisp tokens into expression trees.
//
// The grammar is the usual s-expression one: a form is either an atom or a
// parenthesized sequence of forms. Parse reads exactly one form and hands
// back the tokens it did not consume.
package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
	"github.com/sambeau/felisp/pkg/felisp/lexer"
)

// Parse reads the first complete form from tokens and returns it together
// with the remaining, unconsumed tokens.
func Parse(tokens []lexer.Token) (ast.Expression, []lexer.Token, error) {
	return parse(tokens, 0)
}

// parse reads one form; depth counts the lists already open around it
func parse(tokens []lexer.Token, depth int) (ast.Expression, []lexer.Token, error) {
	if len(tokens) == 0 {
		return nil, nil, perrors.New("PARSE-0001", nil)
	}

	token, rest := tokens[0], tokens[1:]
	switch token.Type {
	case lexer.LPAREN:
		return readSeq(token, rest, depth+1)
	case lexer.RPAREN:
		return nil, nil, perrors.NewWithPosition("PARSE-0002", token.Line, token.Column, nil)
	default:
		return ParseAtom(token.Literal), rest, nil
	}
}

// readSeq reads forms up to the ")" matching open. depth includes open.
func readSeq(open lexer.Token, tokens []lexer.Token, depth int) (ast.Expression, []lexer.Token, error) {
	elements := []ast.Expression{}
	xs := tokens
	for {
		if len(xs) == 0 {
			return nil, nil, perrors.NewWithPosition("PARSE-0003", open.Line, open.Column, map[string]any{"Open": depth})
		}
		if xs[0].Type == lexer.RPAREN {
			return &ast.List{Elements: elements}, xs[1:], nil
		}

		expr, rest, err := parse(xs, depth)
		if err != nil {
			return nil, nil, err
		}
		elements = append(elements, expr)
		xs = rest
	}
}

// ParseAtom converts a token literal into a Boolean, Number or Symbol
func ParseAtom(literal string) ast.Expression {
	switch literal {
	case "true":
		return &ast.Boolean{Value: true}
	case "false":
		return &ast.Boolean{Value: false}
	}

	if f, ok := parseNumber(literal); ok {
		return &ast.Number{Value: f}
	}
	return &ast.Symbol{Name: literal}
}

// parseNumber accepts decimal float syntax. Hexadecimal literals and
// underscores are symbols. Out-of-range values become ±Inf or 0.
func parseNumber(literal string) (float64, bool) {
	if strings.ContainsAny(literal, "xX_") {
		return 0, false
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// ParseString tokenizes src and parses its first form. Trailing tokens are
// ignored.
func ParseString(src string) (ast.Expression, error) {
	expr, _, err := Parse(lexer.Tokenize(src))
	return expr, err
}

// ParseAll parses every form in the token stream in order. It stops at the
// first error.
func ParseAll(tokens []lexer.Token) ([]ast.Expression, error) {
	var forms []ast.Expression
	for len(tokens) > 0 {
		expr, rest, err := Parse(tokens)
		if err != nil {
			return forms, err
		}
		forms = append(forms, expr)
		tokens = rest
	}
	return forms, nil
}
