package markup

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// editableStyles are the CSS properties the importer understands.
var editableStyles = []string{
	"color", "background", "background-color",
	"font-weight", "font-style", "font-size", "font-family", "font-variant",
	"text-decoration", "text-decoration-line", "text-decoration-style", "text-transform",
	"vertical-align", "text-align", "text-indent", "line-height",
	"margin-top", "margin-bottom", "margin-left", "margin-right",
	"border", "border-top", "border-right", "border-bottom", "border-left",
	"padding", "width", "height", "page-break-before", "break-before",
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// editingPolicy extends the UGC policy with the renderer's vocabulary:
// inline styles, data URI images, cell spans and the page scaffolding
// classes.
func editingPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("header", "footer", "mark", "u", "s", "strike", "del", "sub", "sup", "code", "span", "div")
		p.AllowStyles(editableStyles...).MatchingHandler(safeStyleValue).Globally()
		p.AllowDataURIImages()
		p.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(px)?$`)).OnElements("img")
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
		p.AllowAttrs("bgcolor").Matching(regexp.MustCompile(`^#?[0-9a-fA-F]{3,6}$`)).OnElements("td", "th")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^(page|page-container|page-header|page-footer|list-marker)$`)).
			OnElements("div", "header", "footer", "span")
		p.AllowAttrs("data-header").Matching(regexp.MustCompile(`^true$`)).OnElements("td", "th")
		p.AllowAttrs("data-page-break").Matching(regexp.MustCompile(`^before$`)).Globally()
		p.AllowAttrs("align").Matching(regexp.MustCompile(`^(?i)(left|center|right|justify)$`)).Globally()
		policy = p
	})
	return policy
}

// safeStyleValue rejects values that could load resources or run script.
func safeStyleValue(v string) bool {
	v = strings.ToLower(v)
	return !strings.Contains(v, "url(") && !strings.Contains(v, "expression(") && !strings.Contains(v, "javascript:")
}

// Sanitize strips markup outside the editing vocabulary.
func Sanitize(data []byte) []byte {
	return editingPolicy().SanitizeBytes(data)
}
