package tools

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/s0up4200/intervals-mcp/athlete"
	"github.com/s0up4200/intervals-mcp/intervals"
)

// DateLayout is the only date format intervals.icu accepts for ranges
const DateLayout = "2006-01-02"

// arguments wraps the raw tool call arguments. Values arrive as decoded
// JSON, so numbers are float64 and ids may be either strings or numbers.
type arguments map[string]any

func argsOf(request mcp.CallToolRequest) arguments {
	return arguments(request.GetArguments())
}

// str returns the trimmed string form of key, or "" when absent
func (a arguments) str(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// requiredID returns key as a path segment
func (a arguments) requiredID(key string) (string, *intervals.Failure) {
	id := a.str(key)
	if id == "" {
		return "", intervals.InvalidInput("%s is required", key)
	}
	// PathEscape leaves dot segments alone and they would change the path
	if id == "." || id == ".." {
		return "", intervals.InvalidInput("%s %q is not a valid id", key, id)
	}
	return url.PathEscape(id), nil
}

func (a arguments) integer(key string, def int) (int, *intervals.Failure) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	var (
		n   int
		err error
	)
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > math.MaxInt32 {
			err = strconv.ErrSyntax
		}
		n = int(val)
	case string:
		// Base 10 only; "010" is ten, not an octal eight
		n, err = strconv.Atoi(strings.TrimSpace(val))
	default:
		n, err = cast.ToIntE(v)
	}
	if err != nil {
		return 0, intervals.InvalidInput("%s must be a whole number", key)
	}
	return n, nil
}

func (a arguments) boolean(key string, def bool) (bool, *intervals.Failure) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, intervals.InvalidInput("%s must be true or false", key)
	}
	return b, nil
}

func (a arguments) object(key string) (map[string]any, *intervals.Failure) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, intervals.InvalidInput("%s must be an object", key)
	}
	return m, nil
}

// date returns key as YYYY-MM-DD, or def formatted the same way when absent
func (a arguments) date(key string, def time.Time) (string, *intervals.Failure) {
	s := a.str(key)
	if s == "" {
		return def.Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", intervals.InvalidInput("%s must be a date in YYYY-MM-DD format, got %q", key, s)
	}
	return s, nil
}

// dateRange resolves start_date and end_date with defaults
func (a arguments) dateRange(defStart, defEnd time.Time) (string, string, *intervals.Failure) {
	start, f := a.date("start_date", defStart)
	if f != nil {
		return "", "", f
	}
	end, f := a.date("end_date", defEnd)
	if f != nil {
		return "", "", f
	}
	// Lexical order matches chronological order for YYYY-MM-DD
	if start > end {
		return "", "", intervals.InvalidInput("start_date %s is after end_date %s", start, end)
	}
	return start, end, nil
}

// athleteID resolves the athlete for a call against the configured default
func (tb *Toolbox) athleteID(args arguments) (string, *intervals.Failure) {
	id := tb.normalizer.Normalize(args.str("athlete_id"), tb.cfg.Intervals.AthleteID)
	if !athlete.Valid(id) {
		return "", intervals.InvalidInput(
			"athlete_id must be all digits (e.g. 123456) or start with 'i' followed by digits (e.g. i123456), got %q", id)
	}
	return id, nil
}

// athletePath builds /athlete/{id}/... for the resolved athlete
func athletePath(id string, segments ...string) string {
	return "/" + strings.Join(append([]string{"athlete", id}, segments...), "/")
}
