package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer runs content HTML through an allow-list that keeps the
// renderer's vocabulary: feishu-* classes, data-* attributes, alignment
// and colour styles, figures, callouts and disabled todo checkboxes.
type Sanitizer struct {
	policy *bluemonday.Policy
}

var (
	gridTemplate = regexp.MustCompile(`^(?:\s*[0-9.]+(?:%|fr|px)\s*)+$`)
	cssColor     = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)
	cssLength    = regexp.MustCompile(`^[0-9.]+(?:%|px|em)?$`)
	cssKeyword   = regexp.MustCompile(`^(?:left|center|right|justify|fixed|auto)$`)
)

// NewSanitizer builds the policy. Data URL images are allowed so inlined
// media survives a later pass.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowElements("figure", "figcaption", "aside", "mark", "label", "colgroup", "col", "s", "u")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("disabled", "checked").OnElements("input")
	p.AllowElements("input")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowDataURIImages()
	p.RequireNoReferrerOnLinks(true)

	p.AllowStyles("text-align", "table-layout").MatchingEnum("left", "center", "right", "justify", "fixed", "auto").Globally()
	p.AllowStyles("color").Matching(cssColor).Globally()
	p.AllowStyles("width").Matching(cssLength).Globally()
	p.AllowStyles("grid-template-columns").Matching(gridTemplate).OnElements("div")
	p.AllowStyles("--ratio").Matching(cssLength).OnElements("div")

	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned fragment.
func (s *Sanitizer) Sanitize(htmlContent string) string {
	return s.policy.Sanitize(htmlContent)
}
