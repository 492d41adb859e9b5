package markup

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

var (
	errMalformedDecl = errors.New("malformed declaration")
	errBadValue      = errors.New("unsupported value")
)

// decl is one property:value pair of an inline style attribute.
type decl struct {
	prop  string
	value string
}

type warnFunc func(element string, err error)

// parseDecls splits a style attribute into declarations. Segments without a
// property or value are reported and skipped; the rest still apply.
func parseDecls(style string, warn warnFunc) []decl {
	var out []decl
	for _, seg := range strings.Split(style, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		prop, value, ok := strings.Cut(seg, ":")
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if !ok || prop == "" || value == "" {
			warn("style "+strconv.Quote(seg), errMalformedDecl)
			continue
		}
		out = append(out, decl{prop: prop, value: value})
	}
	return out
}

func badValue(warn warnFunc, d decl) {
	warn("style "+d.prop, fmt.Errorf("%w %q", errBadValue, d.value))
}

// length parses a CSS length given in pt or px. A bare zero is accepted.
// px reports whether the value was in pixels.
func length(v string) (f float64, px bool, ok bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "0":
		return 0, false, true
	case strings.HasSuffix(v, "pt"):
		v = v[:len(v)-2]
	case strings.HasSuffix(v, "px"):
		v = v[:len(v)-2]
		px = true
	default:
		return 0, false, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, false
	}
	return f, px, true
}

func points(v string) (float64, bool) {
	f, px, ok := length(v)
	if px {
		f /= units.PixelsPerPoint
	}
	return f, ok
}

func twips(v string) (int, bool) {
	f, px, ok := length(v)
	switch {
	case !ok:
		return 0, false
	case px:
		return units.PixelsToTwips(f), true
	}
	return units.PointsToTwips(f), true
}

// eighths converts a border width to eighths of a point, never below one.
func eighths(v string) (int, bool) {
	f, px, ok := length(v)
	switch {
	case !ok:
		return 0, false
	case px:
		return max(units.PixelsToEighths(f), 1), true
	}
	return max(int(math.Round(f*8)), 1), true
}

// cssColor accepts only the #rgb and #rrggbb forms; bare hex words such
// as "add" are not CSS colors.
func cssColor(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "#") {
		return "", false
	}
	return docmodel.ParseHex(v)
}

// applyRunDecls maps run-level declarations onto run. sized is set when a
// font size was given explicitly. Inline elements also map background-color
// to a highlight name; blocks and cells use it as a fill instead.
func applyRunDecls(run *docmodel.Run, sized *bool, decls []decl, inline bool, warn warnFunc) {
	for _, d := range decls {
		v := strings.ToLower(d.value)
		switch d.prop {
		case "color":
			if hex, ok := cssColor(d.value); ok {
				run.Color = hex
			}
		case "font-weight":
			switch v {
			case "bold", "bolder":
				run.Bold = true
			case "normal", "lighter":
				run.Bold = false
			default:
				n, err := strconv.Atoi(v)
				if err != nil {
					badValue(warn, d)
					continue
				}
				run.Bold = n >= 600
			}
		case "font-style":
			run.Italic = strings.Contains(v, "italic") || strings.Contains(v, "oblique")
		case "font-size":
			pt, ok := points(v)
			if !ok || pt <= 0 {
				badValue(warn, d)
				continue
			}
			run.SizeHalfPt = units.PointsToHalfPoints(pt)
			*sized = true
		case "font-family":
			first, _, _ := strings.Cut(d.value, ",")
			if name := strings.Trim(strings.TrimSpace(first), `'"`); name != "" {
				run.Font = name
			}
		case "text-decoration", "text-decoration-line":
			if strings.Contains(v, "none") {
				run.Underline, run.Strike, run.DoubleStrike = false, false, false
			}
			if strings.Contains(v, "underline") {
				run.Underline = true
			}
			if strings.Contains(v, "line-through") {
				if strings.Contains(v, "double") || run.DoubleStrike {
					run.DoubleStrike, run.Strike = true, false
				} else {
					run.Strike = true
				}
			}
		case "text-decoration-style":
			if v == "double" && (run.Strike || run.DoubleStrike) {
				run.DoubleStrike, run.Strike = true, false
			}
		case "vertical-align":
			switch v {
			case "super":
				run.Superscript, run.Subscript = true, false
			case "sub":
				run.Superscript, run.Subscript = false, true
			case "baseline":
				run.Superscript, run.Subscript = false, false
			}
		case "font-variant":
			run.SmallCaps = strings.Contains(v, "small-caps")
		case "text-transform":
			run.AllCaps = v == "uppercase"
		case "background-color", "background":
			if !inline {
				continue
			}
			if hex, ok := cssColor(d.value); ok {
				if name, ok := docmodel.HighlightFor(hex); ok {
					run.Highlight = name
				}
			}
		}
	}
}

// applyParaDecls maps block-level declarations onto p.
func applyParaDecls(p *docmodel.Paragraph, decls []decl, warn warnFunc) {
	for _, d := range decls {
		v := strings.ToLower(d.value)
		switch d.prop {
		case "text-align":
			if a, ok := parseAlign(v); ok {
				p.Align = a
			}
		case "margin-top", "margin-bottom", "margin-left", "margin-right":
			tw, ok := twips(v)
			if !ok {
				if v != "auto" {
					badValue(warn, d)
				}
				continue
			}
			switch d.prop {
			case "margin-top":
				p.SpacingBefore = max(tw, 0)
			case "margin-bottom":
				p.SpacingAfter = max(tw, 0)
			case "margin-left":
				p.IndentLeft = max(tw, 0)
			default:
				p.IndentRight = max(tw, 0)
			}
		case "text-indent":
			tw, ok := twips(v)
			if !ok {
				badValue(warn, d)
				continue
			}
			p.IndentFirstLine, p.IndentHanging = 0, 0
			if tw < 0 {
				p.IndentHanging = -tw
			} else {
				p.IndentFirstLine = tw
			}
		case "line-height":
			if !applyLineHeight(p, v) {
				badValue(warn, d)
			}
		case "background-color", "background":
			if hex, ok := cssColor(d.value); ok {
				p.Shading = hex
			}
		case "border", "border-top", "border-right", "border-bottom", "border-left":
			b, ok := parseBorder(v)
			if !ok {
				badValue(warn, d)
				continue
			}
			if p.Borders == nil {
				p.Borders = &docmodel.BorderSet{}
			}
			setBorder(p.Borders, d.prop, b)
		case "page-break-before", "break-before":
			if v == "always" || v == "page" {
				p.PageBreakBefore = true
			}
		}
	}
}

func applyLineHeight(p *docmodel.Paragraph, v string) bool {
	if v == "normal" {
		p.LineSpacing, p.LineRule = 0, docmodel.LineAuto
		return true
	}
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(pct, 64)
		if err != nil || f <= 0 {
			return false
		}
		p.LineSpacing, p.LineRule = int(math.Round(f/100*240)), docmodel.LineAuto
		return true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f <= 0 || math.IsInf(f, 0) {
			return false
		}
		p.LineSpacing, p.LineRule = int(math.Round(f*240)), docmodel.LineAuto
		return true
	}
	if tw, ok := twips(v); ok && tw > 0 {
		p.LineSpacing, p.LineRule = tw, docmodel.LineExact
		return true
	}
	return false
}

// applyCellDecls maps declarations that only make sense on a cell.
func applyCellDecls(c *docmodel.Cell, decls []decl, warn warnFunc) {
	for _, d := range decls {
		v := strings.ToLower(d.value)
		switch d.prop {
		case "background-color", "background":
			if hex, ok := cssColor(d.value); ok {
				c.Fill = hex
			}
		case "width":
			if tw, ok := twips(v); ok && tw > 0 {
				c.WidthTwips = tw
			}
		case "vertical-align":
			switch v {
			case "top":
				c.VAlign = docmodel.VAlignTop
			case "middle", "center":
				c.VAlign = docmodel.VAlignCenter
			case "bottom":
				c.VAlign = docmodel.VAlignBottom
			}
		case "border", "border-top", "border-right", "border-bottom", "border-left":
			b, ok := parseBorder(v)
			if !ok {
				badValue(warn, d)
				continue
			}
			if c.Borders == nil {
				c.Borders = &docmodel.BorderSet{}
			}
			setBorder(c.Borders, d.prop, b)
		case "padding":
			m, ok := parsePadding(v)
			if !ok {
				badValue(warn, d)
				continue
			}
			c.Margins = m
		}
	}
}

func applyTableDecls(t *docmodel.Table, decls []decl) {
	var leftAuto, rightAuto bool
	for _, d := range decls {
		v := strings.ToLower(d.value)
		switch d.prop {
		case "width":
			if tw, ok := twips(v); ok && tw > 0 {
				t.WidthTwips = tw
			}
		case "margin-left":
			if v == "auto" {
				leftAuto = true
			} else if tw, ok := twips(v); ok && tw > 0 {
				t.IndentTwips = tw
			}
		case "margin-right":
			rightAuto = v == "auto"
		}
	}
	switch {
	case leftAuto && rightAuto:
		t.Align = docmodel.AlignCenter
	case leftAuto:
		t.Align = docmodel.AlignEnd
	}
}

func parseAlign(v string) (docmodel.Alignment, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return docmodel.AlignStart, true
	case "center":
		return docmodel.AlignCenter, true
	case "right", "end":
		return docmodel.AlignEnd, true
	case "justify":
		return docmodel.AlignJustify, true
	}
	return docmodel.AlignStart, false
}

// parseBorder reads a "width style color" shorthand in any order. A nil
// border with ok=true means the side is explicitly absent.
func parseBorder(v string) (*docmodel.Border, bool) {
	var (
		size  = 4
		style = "single"
		color = ""
	)
	for _, tok := range strings.Fields(v) {
		if n, ok := eighths(tok); ok {
			size = n
			continue
		}
		if hex, ok := cssColor(tok); ok {
			color = hex
			continue
		}
		switch tok {
		case "none", "hidden":
			return nil, true
		case "solid":
			style = "single"
		case "double", "dotted", "dashed", "inset", "outset":
			style = tok
		case "thin":
			size = 4
		case "medium":
			size = 12
		case "thick":
			size = 24
		default:
			return nil, false
		}
	}
	return docmodel.NewBorder(size, color, style), true
}

func setBorder(set *docmodel.BorderSet, prop string, b *docmodel.Border) {
	switch prop {
	case "border-top":
		set.Top = b
	case "border-right":
		set.Right = b
	case "border-bottom":
		set.Bottom = b
	case "border-left":
		set.Left = b
	default:
		set.Top, set.Right, set.Bottom, set.Left = b, b, b, b
	}
}

// parsePadding accepts the one to four value CSS shorthand.
func parsePadding(v string) (*docmodel.CellMargins, bool) {
	fields := strings.Fields(v)
	if len(fields) == 0 || len(fields) > 4 {
		return nil, false
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		tw, ok := twips(f)
		if !ok {
			return nil, false
		}
		vals[i] = max(tw, 0)
	}
	var top, right, bottom, left int
	switch len(vals) {
	case 1:
		top, right, bottom, left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		top, right, bottom, left = vals[0], vals[1], vals[0], vals[1]
	case 3:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[1]
	default:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[3]
	}
	return &docmodel.CellMargins{Top: top, Right: right, Bottom: bottom, Left: left}, true
}
