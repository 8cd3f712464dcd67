package intervals

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// RequestSpec describes one API call relative to the configured base URL.
type RequestSpec struct {
	// Method defaults to GET.
	Method string
	// Path is relative to the API root, e.g. /athlete/i123/activities.
	Path string
	// Query holds scalar query parameters. Nil values are skipped.
	Query map[string]any
	// Body is JSON encoded when non-nil.
	Body any
	// APIKey overrides the configured key when non-blank.
	APIKey string
}

func (s RequestSpec) method() string {
	if s.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(s.Method)
}

// buildURL joins baseURL and path and appends the query parameters
func buildURL(baseURL, path string, query map[string]any) (string, error) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "", fmt.Errorf("%w: %q must start with a single '/'", ErrInvalidPath, path)
	}
	rel, err := url.Parse(path)
	if err != nil || rel.Scheme != "" || rel.Host != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/") + rel.EscapedPath())
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	params := rel.Query()
	for key, value := range query {
		if value == nil {
			continue
		}
		s, err := cast.ToStringE(value)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		params.Set(key, s)
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}
