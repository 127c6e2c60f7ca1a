package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	ILLEGAL TokenType = iota
	LPAREN            // (
	RPAREN            // )
	ATOM              // anything else: true, 1.5, +, mytable1, bob@example.com
)

// Token represents a lexical token with its position in the source
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based
	Column  int // 1-based, counted in runes
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}

func (tt TokenType) String() string {
	switch tt {
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case ATOM:
		return "ATOM"
	default:
		return "ILLEGAL"
	}
}

// Lexer splits source text into tokens. Parentheses always stand alone;
// every other run of non-whitespace characters is a single atom. There are
// no strings, comments or escapes.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// New creates a lexer for the input
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// NextToken returns the next token and false once the input is exhausted
func (l *Lexer) NextToken() (Token, bool) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{}, false
	}

	line, column := l.line, l.column
	switch l.input[l.pos] {
	case '(':
		l.advance()
		return Token{Type: LPAREN, Literal: "(", Line: line, Column: column}, true
	case ')':
		l.advance()
		return Token{Type: RPAREN, Literal: ")", Line: line, Column: column}, true
	}

	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '(' || ch == ')' {
			break
		}
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) {
			break
		}
		l.advance()
	}
	return Token{Type: ATOM, Literal: l.input[start:l.pos], Line: line, Column: column}, true
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.advance()
	}
}

// advance moves past one rune, keeping line and column up to date
func (l *Lexer) advance() {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// Tokenize splits the whole input. It never fails; empty input yields no tokens.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok, ok := l.NextToken()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Literals returns the literal text of each token
func Literals(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Literal
	}
	return out
}
