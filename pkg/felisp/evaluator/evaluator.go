// Package evaluator evaluates Felisp expressions.
//
// Eval walks an expression tree against an Environment. Lists are calls:
// the reserved special forms (if, defn, fn, select, insert, exit) are
// recognised by name before anything else, so they cannot be shadowed by a
// binding. Any other head is evaluated and applied when it is a native
// function or a lambda.
package evaluator

import (
	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
)

// SpecialForms lists the reserved head symbols
var SpecialForms = []string{"if", "defn", "fn", "select", "insert", "exit"}

// Eval evaluates expr in env. A *Halt error means the program asked to stop.
func Eval(expr ast.Expression, env *Environment) (ast.Expression, error) {
	switch node := expr.(type) {
	case *ast.Number, *ast.Boolean, *ast.Table:
		return expr, nil

	case *ast.Symbol:
		if val, ok := env.Get(node.Name); ok {
			return val, nil
		}
		return nil, perrors.NewUndefinedSymbol(node.Name, env.AllIdentifiers())

	case *ast.List:
		return evalList(node, env)

	case *ast.NativeFunction:
		return nil, perrors.New("FORM-0003", nil)

	case *ast.Lambda:
		return nil, perrors.New("FORM-0004", nil)
	}

	return nil, perrors.New("FORM-0003", nil)
}

// EvalAll evaluates forms in order and returns the last value. It stops at
// the first error, including a halt.
func EvalAll(forms []ast.Expression, env *Environment) (ast.Expression, error) {
	var result ast.Expression
	for _, form := range forms {
		val, err := Eval(form, env)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

func evalList(list *ast.List, env *Environment) (ast.Expression, error) {
	first, argForms, ok := list.Head()
	if !ok {
		return nil, perrors.New("FORM-0001", nil)
	}

	if res, handled, err := evalSpecialForm(first, argForms, env); handled {
		return res, err
	}

	head, err := Eval(first, env)
	if err != nil {
		return nil, err
	}

	switch fn := head.(type) {
	case *ast.NativeFunction:
		args, err := evalForms(argForms, env)
		if err != nil {
			return nil, err
		}
		return fn.Fn(args)

	case *ast.Lambda:
		callEnv, err := envForLambda(fn, argForms, env)
		if err != nil {
			return nil, err
		}
		return Eval(fn.Body, callEnv)
	}

	return nil, perrors.New("FORM-0002", nil)
}

// evalSpecialForm runs a special form; handled is false when first is not
// one of the reserved symbols
func evalSpecialForm(first ast.Expression, argForms []ast.Expression, env *Environment) (res ast.Expression, handled bool, err error) {
	sym, ok := first.(*ast.Symbol)
	if !ok {
		return nil, false, nil
	}

	switch sym.Name {
	case "if":
		res, err = evalIf(argForms, env)
	case "defn":
		res, err = evalDefn(argForms, env)
	case "fn":
		res, err = evalFn(argForms, env)
	case "select":
		res, err = evalSelect(argForms, env)
	case "insert":
		res, err = evalInsert(argForms, env)
	case "exit":
		res, err = evalExit(argForms, env)
	default:
		return nil, false, nil
	}
	return res, true, err
}

func evalForms(forms []ast.Expression, env *Environment) ([]ast.Expression, error) {
	result := make([]ast.Expression, 0, len(forms))
	for _, form := range forms {
		val, err := Eval(form, env)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

// envForLambda checks arity, evaluates the arguments in the caller's
// environment and binds them in a fresh call scope
func envForLambda(lambda *ast.Lambda, argForms []ast.Expression, env *Environment) (*Environment, error) {
	names, err := parseListOfSymbolStrings(lambda.Params)
	if err != nil {
		return nil, err
	}
	if len(names) != len(argForms) {
		return nil, perrors.New("ARITY-0002", map[string]any{"Expected": len(names), "Got": len(argForms)})
	}

	args, err := evalForms(argForms, env)
	if err != nil {
		return nil, err
	}

	outer := env
	if env.Scoping == ScopeLexical {
		if defining, ok := lambda.Scope.(*Environment); ok && defining != nil {
			outer = defining
		}
	}

	callEnv := NewEnclosedEnvironment(outer)
	// Loggers and policies follow the caller, not the defining scope
	callEnv.Logger = env.Logger
	callEnv.Trace = env.Trace
	callEnv.Style = env.Style
	callEnv.Scoping = env.Scoping
	for i, name := range names {
		callEnv.Set(name, args[i])
	}
	return callEnv, nil
}

func parseListOfSymbolStrings(params ast.Expression) ([]string, error) {
	list, ok := params.(*ast.List)
	if !ok {
		return nil, perrors.New("TYPE-0002", nil)
	}
	names := make([]string, 0, len(list.Elements))
	for _, elem := range list.Elements {
		sym, ok := elem.(*ast.Symbol)
		if !ok {
			return nil, perrors.New("TYPE-0003", nil)
		}
		names = append(names, sym.Name)
	}
	return names, nil
}
