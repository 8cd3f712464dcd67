package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithClock sets the time source used by date helpers
func WithClock(now func() time.Time) ExprCompilerOption {
	return func(c *exprCompiler) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.extra, funcs)
	}
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	now     func() time.Time
	extra   map[string]any
	helpers map[string]any
	cache   *lruCache
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{
		now:   time.Now,
		extra: make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.helpers = helperFunctions(c.now)
	maps.Copy(c.helpers, c.extra)

	return c
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
		expr.Env(c.helpers),
		expr.AllowUndefinedVariables(), // activity fields vary by sport
		expr.AsBool(),
		// Activity and wellness records use these names as fields
		expr.DisableBuiltin("type"),
		expr.DisableBuiltin("date"),
		expr.DisableBuiltin("duration"),
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
		helpers:    c.helpers,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Match evaluates the filter with the record's fields as variables
func (f *exprFilter) Match(record map[string]any) (bool, error) {
	env := make(map[string]any, len(record)+len(f.helpers))
	maps.Copy(env, record)
	maps.Copy(env, f.helpers)

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			RecordID:   fmt.Sprint(record["id"]),
			Err:        err,
		}
	}

	matched, _ := out.(bool)
	return matched, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// Apply returns the items that are JSON objects matching f. Records that
// cannot be evaluated are left out and their errors returned.
func Apply(f CompiledFilter, items []any) ([]any, []error) {
	matched := make([]any, 0, len(items))
	var errs []error

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ok, err := f.Match(record)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			matched = append(matched, item)
		}
	}

	return matched, errs
}

// helperFunctions creates the helper functions available to expressions
func helperFunctions(now func() time.Time) map[string]any {
	funcs := make(map[string]any, 16)

	// Unit helpers; intervals.icu reports metres and seconds
	funcs["km"] = func(meters any) float64 {
		return cast.ToFloat64(meters) / 1000
	}
	funcs["hours"] = func(seconds any) float64 {
		return cast.ToFloat64(seconds) / 3600
	}
	funcs["minutes"] = func(seconds any) float64 {
		return cast.ToFloat64(seconds) / 60
	}

	// Date helpers
	funcs["daysAgo"] = func(days int) time.Time {
		return now().AddDate(0, 0, -days)
	}
	funcs["parseDate"] = func(value any) time.Time {
		return parseDate(cast.ToString(value))
	}
	funcs["now"] = now

	// Case-insensitive string helpers. The plain contains and startsWith
	// operators stay available for exact matching.
	funcs["icontains"] = func(str any, substr string) bool {
		return strings.Contains(strings.ToLower(cast.ToString(str)), strings.ToLower(substr))
	}
	funcs["istartsWith"] = func(str any, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(cast.ToString(str)), strings.ToLower(prefix))
	}
	funcs["lower"] = func(str any) string {
		return strings.ToLower(cast.ToString(str))
	}
	funcs["upper"] = func(str any) string {
		return strings.ToUpper(cast.ToString(str))
	}

	return funcs
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts the date formats intervals.icu uses; unparseable
// values yield the zero time.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
