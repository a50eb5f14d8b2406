package filter

import (
	"github.com/s0up4200/discovergy/discovergy"
)

// Filter decides whether a meter should be included
type Filter interface {
	// Match reports whether the meter satisfies the filter
	Match(meter discovergy.Meter) (bool, error)
}

// CompiledFilter is a filter expression compiled and ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the source expression
	Expression() string
}

// Compiler compiles filter expressions
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler is a Compiler that keeps compiled programs around
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
