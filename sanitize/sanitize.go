// Package sanitize strips markup from source values before normalization.
// The engine indexes plain text only; one strict pass replaces the legacy
// clean / strip-all / strip-tags cascade.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes all HTML elements (scripts included) and resolves entities,
// leaving trimmed plain text.
func (s *Sanitizer) Clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// CleanValue cleans scalar string values and the elements of string slices;
// non-string values pass through untouched.
func (s *Sanitizer) CleanValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.Clean(val)
	case []string:
		out := make([]string, len(val))
		for i, e := range val {
			out[i] = s.Clean(e)
		}
		return out
	default:
		return v
	}
}
