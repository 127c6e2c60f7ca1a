// Package felisp provides a public API for embedding the Felisp interpreter.
//
// An Interpreter owns one root environment and its table catalog. State
// persists between calls, so a REPL or host program can feed it one line at
// a time:
//
//	interp, err := felisp.New(felisp.Options{Logger: felisp.NullLogger()})
//	interp.EvalString("(defn x 5)")
//	val, err := interp.EvalString("(+ x 1)") // 6
package felisp

import (
	"os"

	"github.com/sambeau/felisp/pkg/felisp/ast"
	"github.com/sambeau/felisp/pkg/felisp/evaluator"
	"github.com/sambeau/felisp/pkg/felisp/lexer"
	"github.com/sambeau/felisp/pkg/felisp/parser"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

// Version of the language and tools
const Version = "0.3.0"

// Options configure a new Interpreter. The zero value gives the default
// environment writing to stdout.
type Options struct {
	Logger  Logger            // select/insert output; nil means stdout
	Trace   Logger            // evaluator trace; nil disables
	Scoping evaluator.Scoping // lambda call scope policy
	Style   table.Style       // select rendering; "" means debug
	Tables  []string          // tables to seed; nil means the default table
}

// Interpreter evaluates Felisp source against a persistent environment
type Interpreter struct {
	opts Options
	env  *evaluator.Environment
}

// New creates an interpreter. It fails when a seed table name repeats.
func New(opts Options) (*Interpreter, error) {
	i := &Interpreter{opts: opts}
	if err := i.Reset(); err != nil {
		return nil, err
	}
	return i, nil
}

// Reset discards every binding and table and rebuilds the root environment
// from the interpreter's options
func (i *Interpreter) Reset() error {
	env := evaluator.NewBuiltinEnvironment()
	if i.opts.Logger != nil {
		env.Logger = i.opts.Logger
	}
	env.Trace = i.opts.Trace
	env.Scoping = i.opts.Scoping
	if i.opts.Style != "" {
		env.Style = i.opts.Style
	}

	seeds := i.opts.Tables
	if seeds == nil {
		seeds = []string{evaluator.DefaultTable}
	}
	for _, name := range seeds {
		if err := env.SeedTable(name); err != nil {
			return err
		}
	}

	i.env = env
	return nil
}

// Attach adds a table to the catalog and binds it under its name. A table
// already in the catalog under that name is overwritten in place, so
// existing bindings to it see the attached rows.
func (i *Interpreter) Attach(t *table.Table) {
	owned := i.env.Tables.Attach(t)
	i.env.Set(t.Name, &ast.Table{Store: owned})
}

// Env returns the root environment
func (i *Interpreter) Env() *evaluator.Environment {
	return i.env
}

// Tables returns the catalog that owns every table
func (i *Interpreter) Tables() *table.Catalog {
	return i.env.Tables
}

// EvalString parses the first form in src and evaluates it. Anything after
// the first form is ignored.
func (i *Interpreter) EvalString(src string) (ast.Expression, error) {
	expr, err := parser.ParseString(src)
	if err != nil {
		return nil, err
	}
	return evaluator.Eval(expr, i.env)
}

// RunScript parses every form in src and evaluates them in order, returning
// the value of the last one. Nothing is evaluated when any form fails to
// parse.
func (i *Interpreter) RunScript(src string) (ast.Expression, error) {
	forms, err := parser.ParseAll(lexer.Tokenize(src))
	if err != nil {
		return nil, err
	}
	return evaluator.EvalAll(forms, i.env)
}

// RunFile reads a script from disk and runs it
func (i *Interpreter) RunFile(path string) (ast.Expression, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return i.RunScript(string(src))
}

// Check parses src without evaluating it and returns the number of forms
func Check(src string) (int, error) {
	forms, err := parser.ParseAll(lexer.Tokenize(src))
	return len(forms), err
}
