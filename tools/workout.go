package tools

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// DefaultWorkoutType is used when neither the caller nor the name says otherwise
const DefaultWorkoutType = "Run"

// workoutKeywords are matched as whole words against the workout name, in
// order. "Strides" or "Pride" must not read as a ride.
var workoutKeywords = []struct {
	pattern *regexp.Regexp
	sport   string
}{
	{pattern: regexp.MustCompile(`(?i)\bswim\w*`), sport: "Swim"},
	{pattern: regexp.MustCompile(`(?i)\b(bike\w*|biking|ride|rides|riding|cycl\w*)\b`), sport: "Ride"},
	{pattern: regexp.MustCompile(`(?i)\brun\w*`), sport: "Run"},
}

// DetectWorkoutType picks the intervals.icu sport for a planned workout. An
// explicit type wins; otherwise the name is searched for sport keywords.
func DetectWorkoutType(name, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}

	for _, kw := range workoutKeywords {
		if kw.pattern.MatchString(name) {
			return kw.sport
		}
	}
	return DefaultWorkoutType
}

// RenderSteps writes workout steps in the intervals.icu workout text
// format, one "- " line per step. A step with "reps" and nested "steps"
// becomes a repeat block.
func RenderSteps(steps []any) (string, error) {
	var b strings.Builder
	if err := renderSteps(&b, steps, 0); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

func renderSteps(b *strings.Builder, steps []any, depth int) error {
	for i, raw := range steps {
		step, err := cast.ToStringMapE(raw)
		if err != nil {
			return fmt.Errorf("step %d is not an object", i+1)
		}

		if nested, ok := step["steps"]; ok {
			if depth > 0 {
				return fmt.Errorf("step %d: repeats cannot be nested", i+1)
			}
			children, err := cast.ToSliceE(nested)
			if err != nil {
				return fmt.Errorf("step %d: steps must be a list", i+1)
			}
			reps := cast.ToInt(step["reps"])
			if reps < 1 {
				reps = 1
			}

			fmt.Fprintf(b, "\n%dx", reps)
			if text := cast.ToString(step["description"]); text != "" {
				b.WriteString(" " + text)
			}
			b.WriteByte('\n')
			if err := renderSteps(b, children, depth+1); err != nil {
				return err
			}
			b.WriteByte('\n')
			continue
		}

		line := stepLine(step)
		if line == "" {
			return fmt.Errorf("step %d has no duration, distance or target", i+1)
		}
		b.WriteString("- " + line + "\n")
	}
	return nil
}

// stepLine renders cue text, length and target of a single step
func stepLine(step map[string]any) string {
	var parts []string

	if text := cast.ToString(step["description"]); text != "" {
		parts = append(parts, text)
	}
	for _, key := range []string{"duration", "distance"} {
		if v := cast.ToString(step[key]); v != "" {
			parts = append(parts, v)
		}
	}

	if v := cast.ToString(step["power"]); v != "" {
		parts = append(parts, v)
	}
	if v := cast.ToString(step["hr"]); v != "" {
		parts = append(parts, withSuffix(v, "HR"))
	}
	if v := cast.ToString(step["pace"]); v != "" {
		parts = append(parts, withSuffix(v, "Pace"))
	}
	if v := cast.ToString(step["cadence"]); v != "" {
		if !strings.HasSuffix(v, "rpm") {
			v += "rpm"
		}
		parts = append(parts, v)
	}

	// Cue text alone is not a step
	if len(parts) == 0 || (len(parts) == 1 && cast.ToString(step["description"]) != "") {
		return ""
	}
	return strings.Join(parts, " ")
}

func withSuffix(v, suffix string) string {
	if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
		return v
	}
	return v + " " + suffix
}
