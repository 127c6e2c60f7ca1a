package evaluator

import (
	"bytes"
	"strings"

	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

// (if test then else)
func evalIf(argForms []ast.Expression, env *Environment) (ast.Expression, error) {
	if len(argForms) == 0 {
		return nil, perrors.New("IF-0001", nil)
	}
	testForm := argForms[0]

	test, err := Eval(testForm, env)
	if err != nil {
		return nil, err
	}
	b, ok := test.(*ast.Boolean)
	if !ok {
		return nil, perrors.New("IF-0002", map[string]any{"Form": testForm.String()})
	}

	idx := 2
	if b.Value {
		idx = 1
	}
	if idx >= len(argForms) {
		return nil, perrors.New("IF-0003", map[string]any{"Index": idx})
	}
	return Eval(argForms[idx], env)
}

// (defn name value) binds in the current scope and returns the name form
func evalDefn(argForms []ast.Expression, env *Environment) (ast.Expression, error) {
	if len(argForms) == 0 {
		return nil, perrors.New("SPECIAL-0001", nil)
	}
	name, ok := argForms[0].(*ast.Symbol)
	if !ok {
		return nil, perrors.New("DEFN-0001", nil)
	}
	if len(argForms) < 2 {
		return nil, perrors.New("SPECIAL-0002", nil)
	}
	if len(argForms) > 2 {
		return nil, perrors.New("DEFN-0002", nil)
	}

	val, err := Eval(argForms[1], env)
	if err != nil {
		return nil, err
	}
	env.Set(name.Name, val)
	return argForms[0], nil
}

// (fn params body) builds a lambda without evaluating either form
func evalFn(argForms []ast.Expression, env *Environment) (ast.Expression, error) {
	if len(argForms) == 0 {
		return nil, perrors.New("FN-0001", nil)
	}
	if len(argForms) < 2 {
		return nil, perrors.New("SPECIAL-0002", nil)
	}
	if len(argForms) > 2 {
		return nil, perrors.New("FN-0002", nil)
	}
	return &ast.Lambda{Params: argForms[0], Body: argForms[1], Scope: env}, nil
}

// (select table) displays every row and returns the table form
func evalSelect(argForms []ast.Expression, env *Environment) (ast.Expression, error) {
	if len(argForms) == 0 {
		return nil, perrors.New("SPECIAL-0001", nil)
	}
	tableForm := argForms[0]

	t, err := resolveTable(tableForm, env)
	if err != nil {
		return nil, err
	}
	if t == nil {
		env.trace("select on %s: not a table", tableForm)
		return tableForm, nil
	}

	env.trace("select on %s", t.Name)
	if err := displayTable(t, env); err != nil {
		return nil, err
	}
	return tableForm, nil
}

// (insert table username email) appends a row with id 1. The username and
// email are the unevaluated forms as text.
func evalInsert(argForms []ast.Expression, env *Environment) (ast.Expression, error) {
	if len(argForms) == 0 {
		return nil, perrors.New("SPECIAL-0001", nil)
	}
	if len(argForms) < 2 {
		return nil, perrors.New("SPECIAL-0002", nil)
	}
	if len(argForms) < 3 {
		return nil, perrors.New("SPECIAL-0003", nil)
	}
	tableForm, username, email := argForms[0], argForms[1].String(), argForms[2].String()

	t, err := resolveTable(tableForm, env)
	if err != nil {
		return nil, err
	}
	if t == nil {
		env.trace("insert into %s: not a table", tableForm)
		return tableForm, nil
	}

	env.trace("insert into %s [%s %s]", t.Name, username, email)
	t.Insert(1, username, email)
	if err := displayTable(t, env); err != nil {
		return nil, err
	}
	env.Set(tableForm.String(), &ast.Table{Store: t})
	return tableForm, nil
}

// (exit ...) halts evaluation; its arguments are never evaluated
func evalExit(_ []ast.Expression, env *Environment) (ast.Expression, error) {
	env.trace("exit")
	return nil, &Halt{Status: ExitStatus}
}

// resolveTable finds the store a select or insert form refers to. A bare
// symbol naming a catalog table is used directly; anything else is
// evaluated. A nil table with a nil error means the form is not a table.
func resolveTable(form ast.Expression, env *Environment) (*table.Table, error) {
	if sym, ok := form.(*ast.Symbol); ok && env.Tables != nil {
		if t, ok := env.Tables.Get(sym.Name); ok {
			return t, nil
		}
	}

	val, err := Eval(form, env)
	if err != nil {
		return nil, err
	}
	if h, ok := val.(*ast.Table); ok && h.Store != nil {
		return h.Store, nil
	}
	return nil, nil
}

// displayTable writes the table through the environment logger, one line
// per call
func displayTable(t *table.Table, env *Environment) error {
	if env.Logger == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := t.Display(&buf, env.Style); err != nil {
		return err
	}
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		env.Logger.LogLine(line)
	}
	return nil
}
