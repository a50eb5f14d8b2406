package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/discovergy/discovergy"
)

// DefaultCacheSize is the number of compiled expressions kept by NewExprCompiler
// when WithCache is not given.
const DefaultCacheSize = 64

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	env        func(discovergy.Meter) map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache sets the compiled filter cache size. Zero disables caching.
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = newLRUCache[CompiledFilter](size)
	}
}

// WithCustomFunctions adds helper functions available to every expression
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: helperFunctions(),
		cache:       newLRUCache[CompiledFilter](DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.environment(discovergy.Meter{})),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
		env:        c.environment,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}
	return f, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// environment builds the variables and functions visible to an expression
// evaluated against meter.
func (c *exprCompiler) environment(meter discovergy.Meter) map[string]any {
	env := make(map[string]any, len(c.helperFuncs)+24)
	maps.Copy(env, c.helperFuncs)

	first, last := meter.MeasurementSpan()

	env["Meter"] = map[string]any(meter)
	env["MeterID"] = meter.ID()
	env["ManufacturerID"] = meter.Field("manufacturerId")
	env["SerialNumber"] = meter.Field("serialNumber")
	env["FullSerialNumber"] = meter.Field("fullSerialNumber")
	env["AdministrationNumber"] = meter.Field("administrationNumber")
	env["Type"] = meter.Type()
	env["MeasurementType"] = meter.Field("measurementType")
	env["LoadProfileType"] = meter.Field("loadProfileType")
	env["FirstMeasurement"] = first
	env["LastMeasurement"] = last

	env["Street"] = meter.LocationField("street")
	env["StreetNumber"] = meter.LocationField("streetNumber")
	env["Zip"] = meter.LocationField("zip")
	env["City"] = meter.LocationField("city")
	env["Country"] = meter.LocationField("country")

	env["field"] = meter.Field
	env["hasField"] = func(key string) bool {
		_, ok := meter[key]
		return ok
	}
	return env
}

// helperFunctions returns the meter independent helpers
func helperFunctions() map[string]any {
	return map[string]any{
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"parseDate": func(s string) time.Time {
			t, _ := time.Parse("2006-01-02", s)
			return t
		},
		"icontains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
	}
}
