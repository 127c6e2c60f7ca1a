package evaluator

import (
	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
)

// builtins are bound in every default environment
var builtins = map[string]ast.NativeFunc{
	"+":  add,
	"-":  subtract,
	"=":  tonicity(func(a, b float64) bool { return a == b }),
	">":  tonicity(func(a, b float64) bool { return a > b }),
	">=": tonicity(func(a, b float64) bool { return a >= b }),
	"<":  tonicity(func(a, b float64) bool { return a < b }),
	"<=": tonicity(func(a, b float64) bool { return a <= b }),
}

// BuiltinNames returns the names of the built-in operators
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}

func registerBuiltins(env *Environment) {
	for name, fn := range builtins {
		env.Set(name, &ast.NativeFunction{Name: name, Fn: fn})
	}
}

func add(args []ast.Expression) (ast.Expression, error) {
	floats, err := parseListOfFloats(args)
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, f := range floats {
		sum += f
	}
	return &ast.Number{Value: sum}, nil
}

// subtract returns the first number minus the sum of the rest
func subtract(args []ast.Expression) (ast.Expression, error) {
	floats, err := parseListOfFloats(args)
	if err != nil {
		return nil, err
	}
	if len(floats) == 0 {
		return nil, perrors.New("ARITY-0001", nil)
	}
	rest := 0.0
	for _, f := range floats[1:] {
		rest += f
	}
	return &ast.Number{Value: floats[0] - rest}, nil
}

// tonicity builds a comparison that holds when check holds for every
// adjacent pair of its numeric arguments
func tonicity(check func(a, b float64) bool) ast.NativeFunc {
	return func(args []ast.Expression) (ast.Expression, error) {
		floats, err := parseListOfFloats(args)
		if err != nil {
			return nil, err
		}
		if len(floats) == 0 {
			return nil, perrors.New("ARITY-0001", nil)
		}
		return &ast.Boolean{Value: monotonic(check, floats[0], floats[1:])}, nil
	}
}

func monotonic(check func(a, b float64) bool, prev float64, xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	return check(prev, xs[0]) && monotonic(check, xs[0], xs[1:])
}

func parseListOfFloats(args []ast.Expression) ([]float64, error) {
	floats := make([]float64, 0, len(args))
	for _, arg := range args {
		n, ok := arg.(*ast.Number)
		if !ok {
			return nil, perrors.New("TYPE-0001", nil)
		}
		floats = append(floats, n.Value)
	}
	return floats, nil
}
