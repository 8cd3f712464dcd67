// Package athlete reconciles caller-supplied athlete ids with the
// configured default.
//
// intervals.icu accepts athlete ids either as bare digits ("123456") or with
// an "i" prefix ("i123456"). Callers frequently copy example values such as
// "your_athlete_id_here" from documentation; those are detected as
// placeholders and replaced with the configured athlete id so they are never
// sent to the API.
package athlete

import (
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^i?\d+$`)

// DefaultPlaceholders are the tokens recognised as unfilled athlete ids.
var DefaultPlaceholders = []string{
	"your_athlete_id_here",
	"your_athlete_id",
	"your-athlete-id",
	"yourathleteid",
	"athlete_id",
	"athlete-id",
	"athleteid",
	"athlete_id_here",
	"placeholder",
	"none",
	"null",
	"undefined",
}

// Valid reports whether id is a bare numeric or "i"-prefixed athlete id.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Normalizer replaces placeholder athlete ids with a default.
type Normalizer struct {
	tokens map[string]struct{}
}

// NewNormalizer creates a normalizer that recognises DefaultPlaceholders plus extra.
func NewNormalizer(extra ...string) *Normalizer {
	n := &Normalizer{tokens: make(map[string]struct{}, len(DefaultPlaceholders)+len(extra))}
	for _, t := range DefaultPlaceholders {
		n.tokens[t] = struct{}{}
	}
	for _, t := range extra {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			n.tokens[t] = struct{}{}
		}
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize returns configuredDefault when candidate is empty or a
// placeholder, and candidate unchanged otherwise.
func Normalize(candidate, configuredDefault string) string {
	return defaultNormalizer.Normalize(candidate, configuredDefault)
}

// Normalize returns configuredDefault when candidate is empty or a
// placeholder, and candidate unchanged otherwise.
func (n *Normalizer) Normalize(candidate, configuredDefault string) string {
	if n.IsPlaceholder(candidate) {
		return configuredDefault
	}
	return candidate
}

// IsPlaceholder reports whether candidate is empty, a known placeholder
// token or a bracketed template value like "<athlete_id>".
func (n *Normalizer) IsPlaceholder(candidate string) bool {
	v := strings.TrimSpace(candidate)
	if v == "" {
		return true
	}
	if bracketed(v) {
		return true
	}
	_, ok := n.tokens[strings.ToLower(v)]
	return ok
}

func bracketed(v string) bool {
	if len(v) < 2 {
		return false
	}
	switch {
	case v[0] == '<' && v[len(v)-1] == '>':
		return true
	case v[0] == '{' && v[len(v)-1] == '}':
		return true
	case v[0] == '[' && v[len(v)-1] == ']':
		return true
	}
	return false
}
