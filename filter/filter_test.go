package filter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)

func testActivities() []any {
	return []any{
		map[string]any{
			"id":               "i1",
			"name":             "Morning Ride",
			"type":             "Ride",
			"distance":         42000.0,
			"moving_time":      5400.0,
			"start_date_local": "2025-10-24T07:30:00",
		},
		map[string]any{
			"id":               "i2",
			"name":             "Easy Tempo Run",
			"type":             "Run",
			"distance":         8000.0,
			"moving_time":      2700.0,
			"start_date_local": "2025-10-10T18:00:00",
		},
		map[string]any{
			"id":               "i3",
			"name":             "Pool Swim",
			"type":             "Swim",
			"distance":         2000.0,
			"moving_time":      2400.0,
			"start_date_local": "2025-10-23T06:00:00",
		},
	}
}

func ids(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]any)["id"].(string))
	}
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `type == "Ride"`,
			wantErr:    false,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `name == "unclosed`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `km(distance) > 10 and hours(moving_time) < 2 and icontains(name, "ride")`,
			wantErr:    false,
		},
		{
			name:       "wrong helper arity",
			expression: `km(distance, 2) > 1`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `len(name)`,
			wantErr:    true,
		},
	}

	compiler := NewExprCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.True(t, errors.As(err, &compErr))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, strings.TrimSpace(tt.expression), f.Expression())
		})
	}
}

func TestFieldNamesShadowBuiltins(t *testing.T) {
	compiler := NewExprCompiler()

	tests := []struct {
		expression string
		record     map[string]any
	}{
		{expression: `type == "Ride"`, record: map[string]any{"type": "Ride"}},
		{expression: `date == "2025-10-24"`, record: map[string]any{"date": "2025-10-24"}},
		{expression: `duration > 3000`, record: map[string]any{"duration": 3600.0}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			require.NoError(t, err)

			ok, err := f.Match(tt.record)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestApply(t *testing.T) {
	compiler := NewExprCompiler(WithClock(func() time.Time { return fixedNow }))

	tests := []struct {
		name       string
		expression string
		want       []string
	}{
		{name: "by type", expression: `type == "Ride"`, want: []string{"i1"}},
		{name: "by distance", expression: `km(distance) >= 8`, want: []string{"i1", "i2"}},
		{name: "by duration", expression: `minutes(moving_time) > 44`, want: []string{"i1", "i2"}},
		{name: "case insensitive name", expression: `icontains(name, "TEMPO")`, want: []string{"i2"}},
		{name: "name prefix", expression: `istartsWith(name, "pool")`, want: []string{"i3"}},
		{name: "exact operator", expression: `name contains "Ride"`, want: []string{"i1"}},
		{name: "recent", expression: `parseDate(start_date_local) > daysAgo(7)`, want: []string{"i1", "i3"}},
		{name: "missing field", expression: `icu_training_load == 50`, want: []string{}},
		{name: "membership", expression: `type in ["Run", "Swim"]`, want: []string{"i2", "i3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			require.NoError(t, err)

			matched, errs := Apply(f, testActivities())
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, ids(matched))
		})
	}
}

func TestApplySkipsNonObjects(t *testing.T) {
	f, err := NewExprCompiler().Compile(`true`)
	require.NoError(t, err)

	items := []any{"text", 12.0, nil, map[string]any{"id": "i9"}}
	matched, errs := Apply(f, items)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"i9"}, ids(matched))
}

func TestApplyCollectsEvaluationErrors(t *testing.T) {
	f, err := NewExprCompiler().Compile(`name > 5`)
	require.NoError(t, err)

	matched, errs := Apply(f, []any{
		map[string]any{"id": "i1", "name": "Ride"},
		map[string]any{"id": "i2", "name": 9.0},
	})

	assert.Equal(t, []string{"i2"}, ids(matched))
	require.Len(t, errs, 1)

	var evalErr *EvaluationError
	require.ErrorAs(t, errs[0], &evalErr)
	assert.Equal(t, "i1", evalErr.RecordID)
	assert.Equal(t, "name > 5", evalErr.Expression)
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isLong": func(seconds any) bool {
			s, _ := seconds.(float64)
			return s >= 3600
		},
	}))

	f, err := compiler.Compile(`isLong(moving_time)`)
	require.NoError(t, err)

	matched, errs := Apply(f, testActivities())
	assert.Empty(t, errs)
	assert.Equal(t, []string{"i1"}, ids(matched))
}

func TestHelpersOverrideRecordFields(t *testing.T) {
	f, err := NewExprCompiler().Compile(`km(1000) == 1`)
	require.NoError(t, err)

	ok, err := f.Match(map[string]any{"km": "not a function"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2025-10-24", want: time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC)},
		{input: "2025-10-24T07:30:00", want: time.Date(2025, 10, 24, 7, 30, 0, 0, time.UTC)},
		{input: "2025-10-24T07:30:00Z", want: time.Date(2025, 10, 24, 7, 30, 0, 0, time.UTC)},
		{input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseDate(tt.input)), "got %s", parseDate(tt.input))
		})
	}
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))
	c := compiler.(*exprCompiler)

	first, err := compiler.Compile(`type == "Ride"`)
	require.NoError(t, err)
	again, err := compiler.Compile(`  type == "Ride"  `)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = compiler.Compile(`type == "Run"`)
	require.NoError(t, err)
	_, err = compiler.Compile(`type == "Swim"`)
	require.NoError(t, err)
	assert.Equal(t, 2, c.cache.Len())

	// The oldest entry was evicted
	evicted, err := compiler.Compile(`type == "Ride"`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)
}

func TestCompilerWithoutCache(t *testing.T) {
	compiler := NewExprCompiler()

	first, err := compiler.Compile(`type == "Ride"`)
	require.NoError(t, err)
	second, err := compiler.Compile(`type == "Ride"`)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
