package filter

// CompiledFilter is a pre-compiled expression ready to match activity records
type CompiledFilter interface {
	// Match reports whether the record satisfies the expression
	Match(record map[string]any) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}
