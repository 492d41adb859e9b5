package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// maxTextSegments bounds the last-resort concatenation of nested text nodes.
const maxTextSegments = 10

// runText extracts a run's text. Packages in the wild put run text in
// several places, so three strategies are tried in order:
//
//  1. the run's direct w:t, w:tab, w:br, w:cr and w:noBreakHyphen children;
//  2. the first nested w:t anywhere below the run (alternate content, text boxes);
//  3. up to maxTextSegments nested w:t values concatenated.
//
// The fallbacks are skipped for picture runs. pageBreak reports a
// w:br w:type="page" among the direct children.
func runText(r *etree.Element) (text string, pageBreak bool) {
	var sb strings.Builder
	for _, c := range r.ChildElements() {
		switch c.Tag {
		case "t":
			sb.WriteString(c.Text())
		case "tab", "ptab":
			sb.WriteByte('\t')
		case "br":
			switch attr(c, "type") {
			case "page":
				pageBreak = true
			case "column":
			default:
				sb.WriteByte('\n')
			}
		case "cr":
			sb.WriteByte('\n')
		case "noBreakHyphen":
			sb.WriteString("‑")
		case "sym":
			// Symbol-font glyphs have no portable text form.
		}
	}
	if sb.Len() > 0 || hasPicture(r) {
		return sb.String(), pageBreak
	}

	nested := nestedText(r, maxTextSegments)
	if len(nested) == 0 {
		return "", pageBreak
	}
	if nested[0] != "" {
		return nested[0], pageBreak
	}
	return strings.Join(nested, ""), pageBreak
}

// nestedText collects the values of w:t elements below el, excluding its
// direct children, stopping after limit elements.
func nestedText(el *etree.Element, limit int) []string {
	var out []string
	var walk func(e *etree.Element, depth int)
	walk = func(e *etree.Element, depth int) {
		for _, c := range e.ChildElements() {
			if len(out) >= limit {
				return
			}
			if c.Tag == "t" && depth > 0 {
				out = append(out, c.Text())
				continue
			}
			walk(c, depth+1)
		}
	}
	walk(el, 0)
	return out
}

func hasPicture(r *etree.Element) bool {
	return findFirst(r, "blip") != nil || findFirst(r, "imagedata") != nil
}

// findFirst returns the first descendant of el with the given local name.
func findFirst(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
