package filter

import (
	"strings"

	"github.com/expr-lang/expr"

	"github.com/s0up4200/discovergy/discovergy"
)

var defaultCompiler = NewExprCompiler()

// Match evaluates the filter against a meter
func (f *exprFilter) Match(meter discovergy.Meter) (bool, error) {
	result, err := expr.Run(f.program, f.env(meter))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MeterID:    meter.ID(),
			Err:        err,
		}
	}
	// AsBool guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

type matchAll struct{}

func (matchAll) Match(discovergy.Meter) (bool, error) { return true, nil }

func (matchAll) Expression() string { return "" }

// CompileFilter compiles expression with the shared caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// Parse is CompileFilter, except that a blank expression matches every meter
func Parse(expression string) (CompiledFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return matchAll{}, nil
	}
	return CompileFilter(expression)
}

// Select returns the meters matched by f, preserving order. The first
// evaluation error aborts the selection.
func Select(f Filter, meters []discovergy.Meter) ([]discovergy.Meter, error) {
	selected := make([]discovergy.Meter, 0, len(meters))
	for _, m := range meters {
		ok, err := f.Match(m)
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, m)
		}
	}
	return selected, nil
}
