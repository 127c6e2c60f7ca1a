package evaluator

import (
	"fmt"
	"sort"

	"github.com/sambeau/felisp/pkg/felisp/ast"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

// DefaultTable is the table every default environment starts with
const DefaultTable = "mytable1"

// Logger interface for select/insert output
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// Scoping decides which environment a lambda call scope links to
type Scoping int

const (
	// ScopeDynamic links the call scope to the caller's environment
	ScopeDynamic Scoping = iota
	// ScopeLexical links the call scope to the environment the lambda was made in
	ScopeLexical
)

func (s Scoping) String() string {
	if s == ScopeLexical {
		return "lexical"
	}
	return "dynamic"
}

// ParseScoping converts a config value to a Scoping
func ParseScoping(s string) (Scoping, error) {
	switch s {
	case "", "dynamic":
		return ScopeDynamic, nil
	case "lexical":
		return ScopeLexical, nil
	default:
		return ScopeDynamic, fmt.Errorf("unknown scoping %q (supported: dynamic, lexical)", s)
	}
}

// Environment represents the environment for variable bindings
type Environment struct {
	store   map[string]ast.Expression
	outer   *Environment
	Tables  *table.Catalog // Owner of every table reachable from this environment
	Logger  Logger         // Logger for select/insert output
	Trace   Logger         // Evaluator trace lines (nil disables)
	Style   table.Style    // How select renders rows
	Scoping Scoping
}

// NewEnvironment creates a new, empty root environment with its own catalog
func NewEnvironment() *Environment {
	return &Environment{
		store:  make(map[string]ast.Expression),
		Tables: table.NewCatalog(),
		Logger: DefaultLogger,
		Style:  table.StyleDebug,
	}
}

// NewBuiltinEnvironment creates a root environment holding the built-in
// operators and no tables
func NewBuiltinEnvironment() *Environment {
	env := NewEnvironment()
	registerBuiltins(env)
	return env
}

// NewDefaultEnvironment creates a root environment holding the built-in
// operators and the default table
func NewDefaultEnvironment() *Environment {
	env := NewBuiltinEnvironment()
	// A fresh catalog cannot already hold the default table
	_ = env.SeedTable(DefaultTable)
	return env
}

// NewEnclosedEnvironment creates a new environment with outer reference.
// The child shares the outer catalog, loggers and policies.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := &Environment{
		store: make(map[string]ast.Expression),
		outer: outer,
	}
	if outer != nil {
		env.Tables = outer.Tables
		env.Logger = outer.Logger
		env.Trace = outer.Trace
		env.Style = outer.Style
		env.Scoping = outer.Scoping
	} else {
		env.Tables = table.NewCatalog()
		env.Logger = DefaultLogger
		env.Style = table.StyleDebug
	}
	return env
}

// SeedTable creates an empty table in the catalog and binds a handle to it
// under its own name
func (e *Environment) SeedTable(name string) error {
	t, err := e.Tables.Create(name)
	if err != nil {
		return err
	}
	e.Set(name, &ast.Table{Store: t})
	return nil
}

// Get retrieves a value from the environment
func (e *Environment) Get(name string) (ast.Expression, bool) {
	value, ok := e.store[name]
	if !ok && e.outer != nil {
		value, ok = e.outer.Get(name)
	}
	return value, ok
}

// Set stores a value in the environment. Outer scopes are never written.
func (e *Environment) Set(name string, val ast.Expression) ast.Expression {
	e.store[name] = val
	return val
}

// Outer returns the parent environment, nil for a root
func (e *Environment) Outer() *Environment {
	return e.outer
}

// UserVariables returns the local bindings that are not built-in functions,
// sorted by name
func (e *Environment) UserVariables() []string {
	var names []string
	for name, val := range e.store {
		if _, native := val.(*ast.NativeFunction); native {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllIdentifiers returns all identifiers available in this environment and its outer scopes.
// This is used for fuzzy matching in error messages.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var result []string

	// Walk through all scopes
	env := e
	for env != nil {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
		env = env.outer
	}

	// Add special forms
	for _, name := range SpecialForms {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}

func (e *Environment) trace(format string, args ...interface{}) {
	if e.Trace != nil {
		e.Trace.LogLine(fmt.Sprintf(format, args...))
	}
}
