package evaluator

import (
	"sort"
	"strings"
	"testing"

	"github.com/sambeau/felisp/pkg/felisp/ast"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

func TestGetWalksOuter(t *testing.T) {
	root := NewEnvironment()
	root.Set("x", ast.NewNumber(1))
	child := NewEnclosedEnvironment(root)
	grandchild := NewEnclosedEnvironment(child)

	val, ok := grandchild.Get("x")
	if !ok || val.String() != "1" {
		t.Errorf("expected x from the root, got %v, %v", val, ok)
	}
	if _, ok := grandchild.Get("missing"); ok {
		t.Error("expected missing to be unbound")
	}
	if grandchild.Outer() != child || child.Outer() != root || root.Outer() != nil {
		t.Error("outer links are wrong")
	}
}

func TestSetIsLocal(t *testing.T) {
	root := NewEnvironment()
	root.Set("x", ast.NewNumber(1))
	child := NewEnclosedEnvironment(root)
	child.Set("x", ast.NewNumber(2))

	if val, _ := child.Get("x"); val.String() != "2" {
		t.Errorf("child sees %v, want 2", val)
	}
	if val, _ := root.Get("x"); val.String() != "1" {
		t.Errorf("root sees %v, want 1", val)
	}

	root.Set("x", ast.NewNumber(3))
	if val, _ := child.Get("x"); val.String() != "2" {
		t.Error("local binding should shadow the outer one")
	}
}

func TestEnclosedInheritsState(t *testing.T) {
	root := NewDefaultEnvironment()
	log := &recordLogger{}
	root.Logger = log
	root.Trace = log
	root.Style = table.StyleGrid
	root.Scoping = ScopeLexical

	child := NewEnclosedEnvironment(root)
	if child.Tables != root.Tables {
		t.Error("child should share the catalog")
	}
	if child.Logger != root.Logger || child.Trace != root.Trace {
		t.Error("child should share the loggers")
	}
	if child.Style != table.StyleGrid || child.Scoping != ScopeLexical {
		t.Error("child should inherit policies")
	}

	orphan := NewEnclosedEnvironment(nil)
	if orphan.Tables == nil || orphan.Logger == nil {
		t.Error("an environment without outer still needs a catalog and logger")
	}
}

func TestDefaultEnvironment(t *testing.T) {
	env := NewDefaultEnvironment()

	h, ok := env.Get(DefaultTable)
	if !ok {
		t.Fatal("expected the default table to be bound")
	}
	th, ok := h.(*ast.Table)
	if !ok {
		t.Fatalf("expected a table, got %T", h)
	}
	store, _ := env.Tables.Get(DefaultTable)
	if th.Store != store {
		t.Error("binding and catalog disagree")
	}
	if th.Store.RowCount != 0 || th.Store.PageCount != 0 {
		t.Error("default table should start empty")
	}

	if err := env.SeedTable(DefaultTable); err == nil {
		t.Error("expected a duplicate table error")
	}

	bare := NewBuiltinEnvironment()
	if bare.Tables.Len() != 0 {
		t.Errorf("builtin environment has %d tables", bare.Tables.Len())
	}
	if _, ok := bare.Get("+"); !ok {
		t.Error("builtin environment lacks +")
	}
}

func TestUserVariables(t *testing.T) {
	env := NewDefaultEnvironment()
	env.Set("b", ast.NewNumber(1))
	env.Set("a", ast.NewBoolean(true))

	if got := strings.Join(env.UserVariables(), ","); got != "a,b,mytable1" {
		t.Errorf("UserVariables() = %s", got)
	}
}

func TestAllIdentifiers(t *testing.T) {
	root := NewDefaultEnvironment()
	child := NewEnclosedEnvironment(root)
	child.Set("local", ast.NewNumber(1))
	child.Set("+", ast.NewNumber(2))

	ids := child.AllIdentifiers()
	sort.Strings(ids)

	seen := map[string]int{}
	for _, id := range ids {
		seen[id]++
	}
	for _, want := range []string{"local", "+", "-", "<=", "mytable1", "if", "defn", "fn", "select", "insert", "exit"} {
		if seen[want] != 1 {
			t.Errorf("expected %q exactly once, got %d", want, seen[want])
		}
	}
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	sort.Strings(names)
	if got := strings.Join(names, " "); got != "+ - < <= = > >=" {
		t.Errorf("BuiltinNames() = %s", got)
	}
}
