package docx

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/docxedit/internal/docmodel"
)

// styleSheet resolves word/styles.xml definitions.
type styleSheet struct {
	styles      map[string]*etree.Element
	defaultPara string
	defaultsRPr *etree.Element
	defaultsPPr *etree.Element
}

func newStyleSheet(doc *etree.Document) *styleSheet {
	ss := &styleSheet{styles: make(map[string]*etree.Element)}
	if doc == nil || doc.Root() == nil {
		return ss
	}
	root := doc.Root()
	if defaults := child(root, "docDefaults"); defaults != nil {
		ss.defaultsRPr = child(child(defaults, "rPrDefault"), "rPr")
		ss.defaultsPPr = child(child(defaults, "pPrDefault"), "pPr")
	}
	for _, st := range root.ChildElements() {
		if st.Tag != "style" {
			continue
		}
		id := attr(st, "styleId")
		if id == "" {
			continue
		}
		ss.styles[id] = st
		if attr(st, "type") == "paragraph" && onOffAttr(attr(st, "default")) {
			ss.defaultPara = id
		}
	}
	return ss
}

func onOffAttr(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on":
		return true
	}
	return false
}

// chain returns the style elements from the root-most basedOn ancestor down
// to id. Cycles and overlong chains are cut.
func (ss *styleSheet) chain(id string) []*etree.Element {
	var out []*etree.Element
	seen := make(map[string]bool)
	for id != "" && !seen[id] && len(out) < docmodel.MaxDepth {
		st, ok := ss.styles[id]
		if !ok {
			break
		}
		seen[id] = true
		out = append(out, st)
		id = attr(child(st, "basedOn"), "val")
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// paragraphStyle returns the effective paragraph style id.
func (ss *styleSheet) paragraphStyle(pPr *etree.Element) string {
	if id := attr(child(pPr, "pStyle"), "val"); id != "" {
		return id
	}
	return ss.defaultPara
}

// headingLevel derives a heading level from the style id, its name, or an
// ancestor in the basedOn chain.
func (ss *styleSheet) headingLevel(id string) int {
	if lvl := docmodel.HeadingLevelForStyle(id); lvl > 0 {
		return lvl
	}
	chain := ss.chain(id)
	for i := len(chain) - 1; i >= 0; i-- {
		st := chain[i]
		if lvl := docmodel.HeadingLevelForStyle(attr(child(st, "name"), "val")); lvl > 0 {
			return lvl
		}
		if lvl := docmodel.HeadingLevelForStyle(attr(st, "styleId")); lvl > 0 {
			return lvl
		}
	}
	return 0
}

// applyParagraphStyle layers defaults and the style chain onto p.
func (ss *styleSheet) applyParagraphStyle(p *docmodel.Paragraph, id string) {
	applyPPr(p, ss.defaultsPPr)
	for _, st := range ss.chain(id) {
		applyPPr(p, child(st, "pPr"))
	}
}

// baseRun returns the run formatting inherited from defaults, the paragraph
// style chain and the character style chain.
func (ss *styleSheet) baseRun(paraStyle string, rPr *etree.Element) docmodel.Run {
	var r docmodel.Run
	applyRPr(&r, ss.defaultsRPr)
	for _, st := range ss.chain(paraStyle) {
		applyRPr(&r, child(st, "rPr"))
	}
	if cs := attr(child(rPr, "rStyle"), "val"); cs != "" {
		for _, st := range ss.chain(cs) {
			applyRPr(&r, child(st, "rPr"))
		}
	}
	return r
}

// applyPPr overwrites the paragraph fields that pPr sets.
func applyPPr(p *docmodel.Paragraph, pPr *etree.Element) {
	if pPr == nil {
		return
	}
	for _, el := range pPr.ChildElements() {
		switch el.Tag {
		case "jc":
			p.Align = parseAlignment(attr(el, "val"))
		case "spacing":
			if v, ok := intAttr(el, "before"); ok {
				p.SpacingBefore = v
			}
			if v, ok := intAttr(el, "after"); ok {
				p.SpacingAfter = v
			}
			if v, ok := intAttr(el, "line"); ok {
				p.LineSpacing = v
				p.LineRule = parseLineRule(attr(el, "lineRule"))
			}
		case "ind":
			if v, ok := intAttr(el, "left"); ok {
				p.IndentLeft = v
			} else if v, ok := intAttr(el, "start"); ok {
				p.IndentLeft = v
			}
			if v, ok := intAttr(el, "right"); ok {
				p.IndentRight = v
			} else if v, ok := intAttr(el, "end"); ok {
				p.IndentRight = v
			}
			if v, ok := intAttr(el, "firstLine"); ok {
				p.IndentFirstLine = v
				p.IndentHanging = 0
			}
			if v, ok := intAttr(el, "hanging"); ok {
				p.IndentHanging = v
				p.IndentFirstLine = 0
			}
		case "numPr":
			numID := attr(child(el, "numId"), "val")
			if numID == "" {
				continue
			}
			if numID == "0" {
				p.List = nil
				continue
			}
			lvl, _ := intAttr(child(el, "ilvl"), "val")
			p.List = &docmodel.ListRef{NumID: numID, Level: lvl}
		case "pageBreakBefore":
			p.PageBreakBefore = onOff(el)
		case "shd":
			if fill := attr(el, "fill"); fill != "" && !strings.EqualFold(fill, "auto") {
				p.Shading = fill
			}
		case "pBdr":
			p.Borders = parseBorderSet(el)
		}
	}
}

// applyRPr overwrites the run fields that rPr sets.
func applyRPr(r *docmodel.Run, rPr *etree.Element) {
	if rPr == nil {
		return
	}
	for _, el := range rPr.ChildElements() {
		switch el.Tag {
		case "b":
			r.Bold = onOff(el)
		case "i":
			r.Italic = onOff(el)
		case "u":
			v := strings.ToLower(attr(el, "val"))
			r.Underline = v != "none" && v != "0" && v != "false"
		case "strike":
			r.Strike = onOff(el)
		case "dstrike":
			r.DoubleStrike = onOff(el)
		case "smallCaps":
			r.SmallCaps = onOff(el)
		case "caps":
			r.AllCaps = onOff(el)
		case "vertAlign":
			switch attr(el, "val") {
			case "superscript":
				r.Superscript, r.Subscript = true, false
			case "subscript":
				r.Superscript, r.Subscript = false, true
			default:
				r.Superscript, r.Subscript = false, false
			}
		case "rFonts":
			for _, key := range []string{"ascii", "hAnsi", "eastAsia", "cs"} {
				if f := attr(el, key); f != "" {
					r.Font = f
					break
				}
			}
		case "sz":
			if v, ok := intAttr(el, "val"); ok && v > 0 {
				r.SizeHalfPt = v
			}
		case "color":
			if v := attr(el, "val"); v != "" {
				r.Color = v
			}
		case "highlight":
			if v := attr(el, "val"); v != "" && v != "none" {
				r.Highlight = v
			} else {
				r.Highlight = ""
			}
		}
	}
}

func parseAlignment(v string) docmodel.Alignment {
	switch v {
	case "center":
		return docmodel.AlignCenter
	case "right", "end":
		return docmodel.AlignEnd
	case "both", "distribute", "justify":
		return docmodel.AlignJustify
	}
	return docmodel.AlignStart
}

func parseLineRule(v string) docmodel.LineRule {
	switch v {
	case "exact":
		return docmodel.LineExact
	case "atLeast":
		return docmodel.LineAtLeast
	}
	return docmodel.LineAuto
}

func parseVAlign(v string) docmodel.VAlign {
	switch v {
	case "center":
		return docmodel.VAlignCenter
	case "bottom":
		return docmodel.VAlignBottom
	}
	return docmodel.VAlignTop
}

func parseBorder(el *etree.Element) *docmodel.Border {
	if el == nil {
		return nil
	}
	style := attr(el, "val")
	if style == "nil" || style == "none" {
		return nil
	}
	size, _ := intAttr(el, "sz")
	return docmodel.NewBorder(size, attr(el, "color"), style)
}

func parseBorderSet(el *etree.Element) *docmodel.BorderSet {
	if el == nil {
		return nil
	}
	bs := &docmodel.BorderSet{
		Top:     parseBorder(child(el, "top")),
		Bottom:  parseBorder(child(el, "bottom")),
		InsideH: parseBorder(child(el, "insideH")),
		InsideV: parseBorder(child(el, "insideV")),
	}
	bs.Left = parseBorder(child(el, "left"))
	if bs.Left == nil {
		bs.Left = parseBorder(child(el, "start"))
	}
	bs.Right = parseBorder(child(el, "right"))
	if bs.Right == nil {
		bs.Right = parseBorder(child(el, "end"))
	}
	if bs.Top == nil && bs.Bottom == nil && bs.Left == nil && bs.Right == nil && bs.InsideH == nil && bs.InsideV == nil {
		return nil
	}
	return bs
}

// numbering maps numId -> level -> ordered, from a shallow read of
// word/numbering.xml. Formats beyond bullet/ordinal are not resolved.
type numbering map[string]map[int]bool

func newNumbering(doc *etree.Document) numbering {
	out := make(numbering)
	if doc == nil || doc.Root() == nil {
		return out
	}
	abstract := make(map[string]map[int]bool)
	for _, el := range doc.Root().ChildElements() {
		if el.Tag != "abstractNum" {
			continue
		}
		levels := make(map[int]bool)
		for _, lvl := range el.ChildElements() {
			if lvl.Tag != "lvl" {
				continue
			}
			n, _ := intAttr(lvl, "ilvl")
			fmtVal := attr(child(lvl, "numFmt"), "val")
			levels[n] = fmtVal != "" && fmtVal != "bullet" && fmtVal != "none"
		}
		abstract[attr(el, "abstractNumId")] = levels
	}
	for _, el := range doc.Root().ChildElements() {
		if el.Tag != "num" {
			continue
		}
		id := attr(el, "numId")
		if levels, ok := abstract[attr(child(el, "abstractNumId"), "val")]; ok {
			out[id] = levels
		}
	}
	return out
}

func (n numbering) ordered(numID string, level int) bool {
	return n[numID][level]
}
