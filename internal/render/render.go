// Package render turns a Document into styled, editable HTML, either as one
// flowing page (optionally paginated in the browser) or split into host-side
// pages.
package render

import (
	"encoding/base64"
	"errors"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

const renderComponent = "renderer"

// Pagination defaults. These are display heuristics, not layout.
const (
	DefaultMaxElementsPerPage = 40
	DefaultPageHeightPx       = 1123
	DefaultOverflowMarginPx   = 100
)

// listIndentTwips is the indentation step per list level.
const listIndentTwips = 720

// Mode selects how pages are produced.
type Mode int

const (
	// ModeFlow emits a single page; the optional script splits it in the
	// browser by measured height.
	ModeFlow Mode = iota
	// ModePaged splits the body on the host with Paginate.
	ModePaged
)

// ParseMode maps "flow" and "paged" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(s) {
	case "", "flow":
		return ModeFlow, true
	case "paged", "pages":
		return ModePaged, true
	}
	return ModeFlow, false
}

// Options configures one render.
type Options struct {
	Mode               Mode
	MaxElementsPerPage int
	PageHeightPx       int
	OverflowMarginPx   int
	// Script appends the client-side pagination script in flow mode.
	Script bool
	// Fragment omits the html/head/body scaffolding.
	Fragment bool
	Title    string
	Sink     diag.Sink
}

func (o *Options) defaults() {
	if o.MaxElementsPerPage <= 0 {
		o.MaxElementsPerPage = DefaultMaxElementsPerPage
	}
	if o.PageHeightPx <= 0 {
		o.PageHeightPx = DefaultPageHeightPx
	}
	if o.OverflowMarginPx < 0 {
		o.OverflowMarginPx = 0
	} else if o.OverflowMarginPx == 0 {
		o.OverflowMarginPx = DefaultOverflowMarginPx
	}
}

// Output is the rendered markup plus the host-side page partition of the
// body.
type Output struct {
	HTML  []byte
	Pages []Page
}

// Render converts doc to HTML.
func Render(doc *docmodel.Document, opts Options) (*Output, error) {
	if doc == nil {
		return nil, errors.New("render: nil document")
	}
	opts.defaults()
	r := &renderer{doc: doc, sink: opts.Sink, counters: make(map[string][]int)}
	pages := Paginate(doc, doc.Body, opts.MaxElementsPerPage)

	if !opts.Fragment {
		r.sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
		if opts.Title != "" {
			r.sb.WriteString("<title>" + html.EscapeString(opts.Title) + "</title>")
		}
		r.sb.WriteString("<style>" + pageCSS(doc.Page) + "</style></head><body>")
	}
	r.sb.WriteString(`<div class="page-container" data-page-height="` + strconv.Itoa(opts.PageHeightPx) +
		`" data-overflow-margin="` + strconv.Itoa(opts.OverflowMarginPx) + `">`)

	switch opts.Mode {
	case ModePaged:
		if len(pages) == 0 {
			r.page(doc.Header, nil, doc.Footer)
		}
		for i, pg := range pages {
			var header, footer []docmodel.BlockRef
			if i == 0 {
				header = doc.Header
			}
			if i == len(pages)-1 {
				footer = doc.Footer
			}
			r.page(header, pg.Blocks, footer)
		}
	default:
		r.page(doc.Header, doc.Body, doc.Footer)
	}
	r.sb.WriteString("</div>")

	if opts.Script && opts.Mode == ModeFlow {
		r.sb.WriteString("<script>" + paginationScript + "</script>")
	}
	if !opts.Fragment {
		r.sb.WriteString("</body></html>")
	}
	return &Output{HTML: []byte(r.sb.String()), Pages: pages}, nil
}

// renderer holds the state of one Render call.
type renderer struct {
	doc  *docmodel.Document
	sink diag.Sink
	sb   strings.Builder

	// counters tracks list ordinals per NumID and level.
	counters map[string][]int
}

func (r *renderer) warn(element string, err error) {
	r.sink.Emit(renderComponent, element, err)
}

func (r *renderer) page(header, body, footer []docmodel.BlockRef) {
	r.sb.WriteString(`<div class="page">`)
	if len(header) > 0 {
		r.sb.WriteString(`<header class="page-header">`)
		r.blocks(header, 0)
		r.sb.WriteString(`</header>`)
	}
	r.blocks(body, 0)
	if len(footer) > 0 {
		r.sb.WriteString(`<footer class="page-footer">`)
		r.blocks(footer, 0)
		r.sb.WriteString(`</footer>`)
	}
	r.sb.WriteString(`</div>`)
}

func (r *renderer) blocks(refs []docmodel.BlockRef, depth int) {
	for _, ref := range refs {
		if p := r.doc.Paragraph(ref); p != nil {
			r.paragraph(p)
			continue
		}
		t := r.doc.Table(ref)
		if t == nil {
			continue
		}
		if depth >= docmodel.MaxDepth {
			r.warn("table", docmodel.ErrTooDeep)
			continue
		}
		r.table(t, depth)
	}
}

func (r *renderer) paragraph(p *docmodel.Paragraph) {
	tag := "p"
	if p.HeadingLevel >= 1 && p.HeadingLevel <= 6 {
		tag = "h" + strconv.Itoa(p.HeadingLevel)
	}
	r.sb.WriteString("<" + tag + ` style="` + html.EscapeString(paragraphCSS(p)) + `"`)
	if p.PageBreakBefore {
		r.sb.WriteString(` data-page-break="before"`)
	}
	r.sb.WriteByte('>')
	if p.List != nil {
		r.sb.WriteString(`<span class="list-marker">` + html.EscapeString(r.marker(p.List)) + "</span>")
	}
	for i := range p.Runs {
		r.run(&p.Runs[i])
	}
	r.sb.WriteString("</" + tag + ">")
}

// marker returns the generic list marker: a bullet, or the 1-based ordinal
// of the item within its list and level.
func (r *renderer) marker(l *docmodel.ListRef) string {
	level := max(l.Level, 0)
	c := r.counters[l.NumID]
	if len(c) < level+1 {
		c = append(c, make([]int, level+1-len(c))...)
	}
	c = c[:level+1]
	c[level]++
	r.counters[l.NumID] = c
	if !l.Ordered {
		return "• "
	}
	return strconv.Itoa(c[level]) + ". "
}

func (r *renderer) run(run *docmodel.Run) {
	if run.Image != nil {
		r.image(run.Image)
		if run.Text == "" {
			return
		}
	}
	if run.Text == "" {
		return
	}

	var open, closing []string
	wrap := func(tag, attrs string) {
		open = append(open, "<"+tag+attrs+">")
		closing = append(closing, "</"+tag+">")
	}
	if css := runCSS(run); css != "" {
		wrap("span", ` style="`+html.EscapeString(css)+`"`)
	}
	if run.Bold {
		wrap("b", "")
	}
	if run.Italic {
		wrap("i", "")
	}
	if run.Underline {
		wrap("u", "")
	}
	switch {
	case run.DoubleStrike:
		wrap("s", ` style="text-decoration-style:double"`)
	case run.Strike:
		wrap("s", "")
	}
	switch {
	case run.Superscript:
		wrap("sup", "")
	case run.Subscript:
		wrap("sub", "")
	}

	for _, o := range open {
		r.sb.WriteString(o)
	}
	r.sb.WriteString(escapeText(run.Text))
	for i := len(closing) - 1; i >= 0; i-- {
		r.sb.WriteString(closing[i])
	}
}

// escapeText escapes s for element content, rendering line breaks and tabs.
func escapeText(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "<br/>")
	return strings.ReplaceAll(s, "\t", "&nbsp;&nbsp;&nbsp;&nbsp;")
}

func (r *renderer) image(img *docmodel.Image) {
	if len(img.Data) == 0 {
		r.warn("picture", errors.New("image has no data"))
		return
	}
	w := int(math.Round(units.EMUToPixelsLayout(img.WidthEMU)))
	h := int(math.Round(units.EMUToPixelsLayout(img.HeightEMU)))
	r.sb.WriteString(`<img src="data:` + img.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(img.Data) + `"`)
	if w > 0 && h > 0 {
		r.sb.WriteString(` width="` + strconv.Itoa(w) + `" height="` + strconv.Itoa(h) +
			`" style="width:` + strconv.Itoa(w) + "px;height:" + strconv.Itoa(h) + `px"`)
	}
	r.sb.WriteString(">")
}

func (r *renderer) table(t *docmodel.Table, depth int) {
	r.sb.WriteString(`<table style="` + html.EscapeString(tableCSS(t)) + `">`)
	for ri := range t.Rows {
		row := &t.Rows[ri]
		r.sb.WriteString("<tr")
		if row.HeightTwips > 0 {
			r.sb.WriteString(` style="height:` + px(units.TwipsToPixelsLayout(row.HeightTwips)) + `"`)
		}
		r.sb.WriteByte('>')
		for ci := range row.Cells {
			c := &row.Cells[ci]
			b := resolveBorders(t, c, ri == 0, ci == 0, ri == len(t.Rows)-1, ci == len(row.Cells)-1)
			// Header rows render as td; the flag rides on data-header.
			r.sb.WriteString("<td")
			if row.Header {
				r.sb.WriteString(` data-header="true"`)
			}
			if c.Span() > 1 {
				r.sb.WriteString(` colspan="` + strconv.Itoa(c.Span()) + `"`)
			}
			r.sb.WriteString(` style="` + html.EscapeString(cellCSS(c, b)) + `">`)
			r.blocks(c.Content, depth+1)
			r.sb.WriteString("</td>")
		}
		r.sb.WriteString("</tr>")
	}
	r.sb.WriteString("</table>")
}

// pageCSS sizes the page boxes from the document geometry.
func pageCSS(g docmodel.PageGeometry) string {
	if g.IsZero() {
		g = docmodel.A4()
	}
	pad := strings.Join([]string{
		px(units.TwipsToPixelsLayout(g.MarginTop)),
		px(units.TwipsToPixelsLayout(g.MarginRight)),
		px(units.TwipsToPixelsLayout(g.MarginBottom)),
		px(units.TwipsToPixelsLayout(g.MarginLeft)),
	}, " ")
	return "body{background:#e8e8e8;margin:0}" +
		".page{position:relative;box-sizing:border-box;background:#fff;margin:16px auto;" +
		"width:" + px(units.TwipsToPixelsLayout(g.Width)) + ";min-height:" + px(units.TwipsToPixelsLayout(g.Height)) +
		";padding:" + pad + ";box-shadow:0 1px 4px rgba(0,0,0,.3)}" +
		".page p:empty,.page h1:empty,.page h2:empty,.page h3:empty{min-height:1em}" +
		".page table{border-collapse:collapse}.page td{border:1px dotted #ccc;text-align:left}"
}
