package render

import (
	"strings"

	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

// ParseColor validates a package color token. "auto", empty and non-hex
// values are not colors and yield ok=false; the caller renders the default.
func ParseColor(s string) (hex string, ok bool) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return "", false
	}
	return docmodel.ParseHex(s)
}

// HighlightColor maps a highlight name to display RGB. Unknown names are
// not highlighted.
func HighlightColor(name string) (hex string, ok bool) {
	hex, ok = docmodel.Highlights[name]
	return hex, ok
}

// decls accumulates CSS declarations for one style attribute.
type decls struct {
	sb strings.Builder
}

func (d *decls) add(prop, value string) {
	if d.sb.Len() > 0 {
		d.sb.WriteByte(';')
	}
	d.sb.WriteString(prop)
	d.sb.WriteByte(':')
	d.sb.WriteString(value)
}

func (d *decls) String() string { return d.sb.String() }

func pt(v float64) string { return units.FormatNumber(v) + "pt" }

func px(v float64) string { return units.FormatNumber(v) + "px" }

func paragraphCSS(p *docmodel.Paragraph) string {
	var d decls
	switch p.Align {
	case docmodel.AlignCenter:
		d.add("text-align", "center")
	case docmodel.AlignEnd:
		d.add("text-align", "right")
	case docmodel.AlignJustify:
		d.add("text-align", "justify")
	}
	d.add("margin-top", pt(units.TwipsToPointsLayout(p.SpacingBefore)))
	d.add("margin-bottom", pt(units.TwipsToPointsLayout(p.SpacingAfter)))

	left := p.IndentLeft
	if p.List != nil {
		left = listIndentTwips * (p.List.Level + 1)
	}
	if left > 0 {
		d.add("margin-left", pt(units.TwipsToPointsLayout(left)))
	}
	if p.IndentRight > 0 {
		d.add("margin-right", pt(units.TwipsToPointsLayout(p.IndentRight)))
	}
	switch {
	case p.IndentHanging > 0:
		d.add("text-indent", pt(-units.TwipsToPoints(p.IndentHanging)))
	case p.IndentFirstLine > 0:
		d.add("text-indent", pt(units.TwipsToPoints(p.IndentFirstLine)))
	}
	if p.LineSpacing > 0 {
		if p.LineRule == docmodel.LineAuto {
			d.add("line-height", units.FormatNumber(float64(p.LineSpacing)/240))
		} else {
			d.add("line-height", pt(units.TwipsToPoints(p.LineSpacing)))
		}
	}
	if hex, ok := ParseColor(p.Shading); ok {
		d.add("background-color", "#"+hex)
	}
	if b := p.Borders; b != nil {
		borderDecl(&d, "border-top", b.Top)
		borderDecl(&d, "border-right", b.Right)
		borderDecl(&d, "border-bottom", b.Bottom)
		borderDecl(&d, "border-left", b.Left)
	}
	return d.String()
}

func borderDecl(d *decls, prop string, b *docmodel.Border) {
	if b == nil {
		return
	}
	width := units.EighthsToPixelsLayout(b.Size)
	if width < 1 {
		width = 1
	}
	color, ok := ParseColor(b.Color)
	if !ok {
		color = "000000"
	}
	d.add(prop, px(width)+" "+cssBorderStyle(b.Style)+" #"+color)
}

func cssBorderStyle(style string) string {
	switch style {
	case "double", "triple":
		return "double"
	case "dotted", "dotDash", "dotDotDash":
		return "dotted"
	case "dashed", "dashSmallGap", "dashDotStroked":
		return "dashed"
	case "inset", "outset":
		return style
	}
	return "solid"
}

func runCSS(r *docmodel.Run) string {
	var d decls
	if r.SizeHalfPt > 0 {
		d.add("font-size", pt(units.HalfPointsToPoints(r.SizeHalfPt)))
	}
	if r.Font != "" {
		d.add("font-family", "'"+strings.ReplaceAll(r.Font, "'", "")+"'")
	}
	if hex, ok := ParseColor(r.Color); ok {
		d.add("color", "#"+hex)
	}
	if hex, ok := HighlightColor(r.Highlight); ok {
		d.add("background-color", "#"+hex)
	}
	if r.SmallCaps {
		d.add("font-variant", "small-caps")
	}
	if r.AllCaps {
		d.add("text-transform", "uppercase")
	}
	return d.String()
}

func cellCSS(c *docmodel.Cell, b cellBorders) string {
	var d decls
	if c.WidthTwips > 0 {
		d.add("width", px(units.TwipsToPixelsLayout(c.WidthTwips)))
	}
	if hex, ok := ParseColor(c.Fill); ok {
		d.add("background-color", "#"+hex)
	}
	borderDecl(&d, "border-top", b.top)
	borderDecl(&d, "border-right", b.right)
	borderDecl(&d, "border-bottom", b.bottom)
	borderDecl(&d, "border-left", b.left)
	switch c.VAlign {
	case docmodel.VAlignCenter:
		d.add("vertical-align", "middle")
	case docmodel.VAlignBottom:
		d.add("vertical-align", "bottom")
	default:
		d.add("vertical-align", "top")
	}
	if m := c.Margins; m != nil {
		d.add("padding", strings.Join([]string{
			px(units.TwipsToPixelsLayout(m.Top)),
			px(units.TwipsToPixelsLayout(m.Right)),
			px(units.TwipsToPixelsLayout(m.Bottom)),
			px(units.TwipsToPixelsLayout(m.Left)),
		}, " "))
	}
	return d.String()
}

// cellBorders are the effective sides of one cell after falling back to
// the table's outer and inside borders.
type cellBorders struct {
	top, right, bottom, left *docmodel.Border
}

func resolveBorders(t *docmodel.Table, c *docmodel.Cell, row, col, lastRow, lastCol bool) cellBorders {
	var cb cellBorders
	if tb := t.Borders; tb != nil {
		cb.top = pick(row, tb.Top, tb.InsideH)
		cb.bottom = pick(lastRow, tb.Bottom, tb.InsideH)
		cb.left = pick(col, tb.Left, tb.InsideV)
		cb.right = pick(lastCol, tb.Right, tb.InsideV)
	}
	if b := c.Borders; b != nil {
		if b.Top != nil {
			cb.top = b.Top
		}
		if b.Bottom != nil {
			cb.bottom = b.Bottom
		}
		if b.Left != nil {
			cb.left = b.Left
		}
		if b.Right != nil {
			cb.right = b.Right
		}
	}
	return cb
}

func pick(edge bool, outer, inside *docmodel.Border) *docmodel.Border {
	if edge {
		return outer
	}
	return inside
}

func tableCSS(t *docmodel.Table) string {
	var d decls
	d.add("border-collapse", "collapse")
	if t.WidthTwips > 0 {
		d.add("width", px(units.TwipsToPixelsLayout(t.WidthTwips)))
	}
	switch t.Align {
	case docmodel.AlignCenter:
		d.add("margin-left", "auto")
		d.add("margin-right", "auto")
	case docmodel.AlignEnd:
		d.add("margin-left", "auto")
	default:
		if t.IndentTwips > 0 {
			d.add("margin-left", px(units.TwipsToPixelsLayout(t.IndentTwips)))
		}
	}
	return d.String()
}
