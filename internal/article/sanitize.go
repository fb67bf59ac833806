package article

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer limits extracted markup to safe user-content elements before it is rendered.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer built on the UGC policy.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns markup with disallowed elements and attributes removed.
func (s *Sanitizer) Sanitize(markup string) string {
	if s == nil || s.policy == nil {
		return markup
	}
	return strings.TrimSpace(s.policy.Sanitize(markup))
}
