// Package markup imports edited HTML (and Markdown, through HTML) into a
// docmodel.Document ready for the package exporter.
package markup

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
)

const markupComponent = "markup"

// maxNesting bounds element recursion independently of table depth.
const maxNesting = 512

// listIndentTwips is the indentation added per list level.
const listIndentTwips = 720

// headingSizes are the forced point sizes for h1 through h6.
var headingSizes = [6]float64{22, 18, 16, 14, 12, 10}

// Options configures one markup import.
type Options struct {
	// Sanitize runs the markup through the editing policy before import.
	Sanitize bool
	Sink     diag.Sink
}

// Import builds a Document from the markup read from r. It fails only when
// r fails or ctx is cancelled; problems with single declarations, images
// or cells are reported to opts.Sink.
func Import(ctx context.Context, r io.Reader, opts Options) (*docmodel.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.IO("read markup", err)
	}
	if opts.Sanitize {
		data = Sanitize(data)
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, diag.IO("parse markup", err)
	}

	doc := docmodel.New()
	b := &builder{
		ctx:    ctx,
		doc:    doc,
		sink:   opts.Sink,
		body:   newFlow(doc),
		header: newFlow(doc),
		footer: newFlow(doc),
	}
	if err := b.node(root, scope{flow: b.body}); err != nil {
		return nil, err
	}
	b.body.close()
	b.header.close()
	b.footer.close()
	doc.Body = b.body.refs
	doc.Header = b.header.refs
	doc.Footer = b.footer.refs
	return doc, nil
}

// ImportString is Import over an in-memory string.
func ImportString(ctx context.Context, s string, opts Options) (*docmodel.Document, error) {
	return Import(ctx, strings.NewReader(s), opts)
}

// kind is the closed classification of markup nodes.
type kind int

const (
	kindSkip kind = iota
	kindText
	kindTransparent
	kindRegion
	kindBlock
	kindInline
	kindImage
	kindBreak
	kindRule
	kindList
	kindListItem
	kindTable
)

// classify assigns every node exactly one kind. Unknown elements are
// treated as inline so their text stays in the surrounding paragraph.
func classify(n *html.Node) kind {
	switch n.Type {
	case html.TextNode:
		return kindText
	case html.DocumentNode:
		return kindTransparent
	case html.ElementNode:
	default:
		return kindSkip
	}
	if hasClass(n, "page") || hasClass(n, "page-container") {
		return kindTransparent
	}
	switch n.DataAtom {
	case atom.Html, atom.Body:
		return kindTransparent
	case atom.Script, atom.Style, atom.Head, atom.Title, atom.Template, atom.Noscript,
		atom.Iframe, atom.Object, atom.Svg, atom.Math, atom.Input, atom.Select, atom.Textarea, atom.Button:
		return kindSkip
	case atom.Header, atom.Footer:
		if hasClass(n, "page-header") || hasClass(n, "page-footer") {
			return kindRegion
		}
		return kindBlock
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Div, atom.Blockquote,
		atom.Pre, atom.Section, atom.Article, atom.Main, atom.Nav, atom.Aside, atom.Figure,
		atom.Figcaption, atom.Address, atom.Dl, atom.Dt, atom.Dd, atom.Center, atom.Caption,
		atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr, atom.Td, atom.Th:
		return kindBlock
	case atom.Ul, atom.Ol:
		return kindList
	case atom.Li:
		return kindListItem
	case atom.Table:
		return kindTable
	case atom.Img:
		return kindImage
	case atom.Br:
		return kindBreak
	case atom.Hr:
		return kindRule
	}
	return kindInline
}

// scope is the recursion context. It is passed by value: a child call
// receives a modified copy and the caller's scope is never touched.
type scope struct {
	run     docmodel.Run       // formatting for new runs; Text and Image unused
	sized   bool               // run size came from an explicit declaration
	para    docmodel.Paragraph // properties for paragraphs opened here; Runs unused
	heading int
	list    int // list nesting, 0 outside lists
	ordered bool
	pre     bool
	flow    *flow
	tables  int // table nesting
	nest    int // element nesting
}

// builder holds the output of one Import call.
type builder struct {
	ctx    context.Context
	doc    *docmodel.Document
	sink   diag.Sink
	body   *flow
	header *flow
	footer *flow
}

func (b *builder) warn(element string, err error) {
	b.sink.Emit(markupComponent, element, err)
}

// node is the single dispatch over node kinds.
func (b *builder) node(n *html.Node, sc scope) error {
	k := classify(n)
	if k != kindText && k != kindSkip {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		if sc.nest >= maxNesting {
			b.warn(n.Data, docmodel.ErrTooDeep)
			return nil
		}
		sc.nest++
	}
	switch k {
	case kindSkip:
		return nil
	case kindText:
		b.text(n.Data, sc)
		return nil
	case kindTransparent:
		return b.children(n, sc)
	case kindRegion:
		return b.region(n, sc)
	case kindBlock:
		return b.block(n, sc)
	case kindInline:
		return b.inline(n, sc)
	case kindImage:
		b.image(n, sc)
		return nil
	case kindBreak:
		b.lineBreak(sc)
		return nil
	case kindRule:
		b.rule(sc)
		return nil
	case kindList:
		return b.list(n, sc)
	case kindListItem:
		return b.listItem(n, sc)
	case kindTable:
		return b.table(n, sc)
	}
	return nil
}

func (b *builder) children(n *html.Node, sc scope) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := b.node(c, sc); err != nil {
			return err
		}
	}
	return nil
}

// region routes page header or footer markup to the document's header or
// footer content.
func (b *builder) region(n *html.Node, sc scope) error {
	target := b.header
	if hasClass(n, "page-footer") {
		target = b.footer
	}
	sc.flow.close()
	child := scope{flow: target, nest: sc.nest}
	err := b.children(n, child)
	target.close()
	return err
}

// paragraphScope derives the scope for a block element: inherited alignment
// and line spacing carry over, the element's own declarations apply on top.
func (b *builder) paragraphScope(n *html.Node, sc scope) scope {
	child := sc
	child.para = docmodel.Paragraph{
		Align:       sc.para.Align,
		LineSpacing: sc.para.LineSpacing,
		LineRule:    sc.para.LineRule,
		IndentLeft:  sc.para.IndentLeft,
	}
	if a, ok := parseAlign(attr(n, "align")); ok {
		child.para.Align = a
	}
	if attr(n, "data-page-break") == "before" {
		child.para.PageBreakBefore = true
	}
	decls := parseDecls(attr(n, "style"), b.warn)
	applyParaDecls(&child.para, decls, b.warn)
	applyRunDecls(&child.run, &child.sized, decls, false, b.warn)
	return child
}

func (b *builder) block(n *html.Node, sc scope) error {
	if n.DataAtom == atom.P && sc.flow.marker {
		// A list item's first paragraph continues after its marker.
		err := b.children(n, b.paragraphScope(n, sc))
		sc.flow.close()
		return err
	}
	sc.flow.close()
	child := b.paragraphScope(n, sc)
	eager := false
	switch n.DataAtom {
	case atom.P:
		eager = true
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		child.heading = int(n.Data[1] - '0')
		child.para.HeadingLevel = child.heading
		eager = true
	case atom.Blockquote:
		child.para.IndentLeft += listIndentTwips
		if child.para.Borders == nil {
			child.para.Borders = &docmodel.BorderSet{}
		}
		child.para.Borders.Left = docmodel.NewBorder(4, "", "single")
	case atom.Pre:
		child.pre = true
		child.run.Font = "Courier New"
	}
	if eager {
		sc.flow.start(child.para)
	}
	err := b.children(n, child)
	sc.flow.close()
	return err
}

func (b *builder) inline(n *html.Node, sc scope) error {
	child := sc
	switch n.DataAtom {
	case atom.B, atom.Strong:
		child.run.Bold = true
	case atom.I, atom.Em, atom.Cite, atom.Dfn, atom.Var:
		child.run.Italic = true
	case atom.U, atom.Ins:
		child.run.Underline = true
	case atom.S, atom.Strike, atom.Del:
		if !child.run.DoubleStrike {
			child.run.Strike = true
		}
	case atom.Sub:
		child.run.Subscript, child.run.Superscript = true, false
	case atom.Sup:
		child.run.Superscript, child.run.Subscript = true, false
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		child.run.Font = "Courier New"
		if !child.sized {
			child.run.SizeHalfPt = 20
			child.sized = true
		}
	case atom.Mark:
		child.run.Highlight = "yellow"
	}
	if c, ok := docmodel.ParseHex(attr(n, "color")); ok {
		child.run.Color = c
	}
	applyRunDecls(&child.run, &child.sized, parseDecls(attr(n, "style"), b.warn), true, b.warn)
	return b.children(n, child)
}

// text appends collapsed, NFC-normalized text to the open paragraph.
// Whitespace-only text never opens a paragraph.
func (b *builder) text(s string, sc scope) {
	if !sc.pre {
		s = collapseSpace(s)
		if s == " " && sc.flow.open < 0 {
			return
		}
		if c := sc.flow.lastChar(); c == 0 || c == ' ' || c == '\n' {
			s = strings.TrimLeft(s, " ")
		}
	}
	// The renderer writes a tab as four non-breaking spaces.
	s = strings.ReplaceAll(s, "\u00a0\u00a0\u00a0\u00a0", "\t")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = norm.NFC.String(s)
	if s == "" {
		return
	}
	b.appendRun(sc, docmodel.Run{Text: s})
}

// appendRun adds a run carrying the scope's formatting to the open
// paragraph.
func (b *builder) appendRun(sc scope, r docmodel.Run) {
	run := sc.run
	run.Text, run.Image = r.Text, r.Image
	if sc.heading > 0 {
		run.Bold = true
		if !sc.sized {
			run.SizeHalfPt = int(headingSizes[sc.heading-1] * 2)
		}
	}
	idx := sc.flow.ensure(sc.para)
	p := sc.flow.para(idx)
	p.Runs = append(p.Runs, run)
	sc.flow.marker = false
}

// collapseSpace folds runs of HTML whitespace into single spaces. Non-breaking
// spaces are content and survive.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteByte(s[i])
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (b *builder) lineBreak(sc scope) {
	b.appendRun(sc, docmodel.Run{Text: "\n"})
}

// rule emits an empty paragraph with a bottom border.
func (b *builder) rule(sc scope) {
	p := docmodel.Paragraph{Borders: &docmodel.BorderSet{Bottom: docmodel.NewBorder(6, "", "single")}}
	sc.flow.start(p)
	sc.flow.close()
}

func (b *builder) image(n *html.Node, sc scope) {
	img, err := decodeDataURI(attr(n, "src"))
	if err != nil {
		b.warn("img", err)
		return
	}
	sizeImage(img, attr(n, "width"), attr(n, "height"))
	b.appendRun(sc, docmodel.Run{Image: img})
}

func (b *builder) list(n *html.Node, sc scope) error {
	sc.flow.close()
	child := sc
	child.list++
	child.ordered = n.DataAtom == atom.Ol
	err := b.children(n, child)
	sc.flow.close()
	return err
}

// listItem opens a paragraph indented by level and starts it with a
// literal marker run, since no numbering definitions are written.
func (b *builder) listItem(n *html.Node, sc scope) error {
	level := max(sc.list, 1)
	child := b.paragraphScope(n, sc)
	child.para.IndentLeft = listIndentTwips * level
	sc.flow.start(child.para)

	marker := "• "
	if sc.ordered {
		marker = strconv.Itoa(level) + ". "
	}
	b.appendRun(child, docmodel.Run{Text: marker})
	sc.flow.marker = true

	// Nested lists and blocks inside the item indent from the item.
	err := b.children(n, child)
	sc.flow.close()
	return err
}

func (b *builder) table(n *html.Node, sc scope) error {
	sc.flow.close()
	if sc.tables >= docmodel.MaxDepth {
		b.warn("table", docmodel.ErrTooDeep)
		return nil
	}
	trs := tableRows(n)
	if len(trs) == 0 {
		return nil
	}

	var t docmodel.Table
	applyTableDecls(&t, parseDecls(attr(n, "style"), b.warn))
	cols := 0
	for i, tr := range trs {
		var row docmodel.Row
		if decls := parseDecls(attr(tr, "style"), b.warn); len(decls) > 0 {
			for _, d := range decls {
				if d.prop == "height" {
					if tw, ok := twips(d.value); ok && tw > 0 {
						row.HeightTwips = tw
					}
				}
			}
		}
		allHeader := true
		for _, td := range rowCells(tr) {
			if td.DataAtom != atom.Th && attr(td, "data-header") != "true" {
				allHeader = false
			}
			c, err := b.cell(td, sc)
			if err != nil {
				return err
			}
			row.Cells = append(row.Cells, c)
		}
		if i == 0 {
			cols = row.GridColumns()
			row.Header = allHeader && len(row.Cells) > 0
		}
		for row.GridColumns() < cols {
			row.Cells = append(row.Cells, docmodel.Cell{
				Content: []docmodel.BlockRef{b.doc.AddParagraph(docmodel.Paragraph{})},
			})
		}
		t.Rows = append(t.Rows, row)
	}
	sc.flow.add(b.doc.AddTable(t))
	return nil
}

// cell imports one td or th with a fresh scope targeting the cell's own
// content list.
func (b *builder) cell(td *html.Node, sc scope) (docmodel.Cell, error) {
	f := newFlow(b.doc)
	child := scope{flow: f, tables: sc.tables + 1, nest: sc.nest}
	if td.DataAtom == atom.Th {
		child.run.Bold = true
	}

	var c docmodel.Cell
	if span, err := strconv.Atoi(strings.TrimSpace(attr(td, "colspan"))); err == nil && span > 1 {
		c.GridSpan = span
	}
	if fill, ok := docmodel.ParseHex(attr(td, "bgcolor")); ok {
		c.Fill = fill
	}
	decls := parseDecls(attr(td, "style"), b.warn)
	applyCellDecls(&c, decls, b.warn)
	applyRunDecls(&child.run, &child.sized, decls, false, b.warn)
	for _, d := range decls {
		if d.prop == "text-align" {
			if a, ok := parseAlign(d.value); ok {
				child.para.Align = a
			}
		}
	}

	if err := b.children(td, child); err != nil {
		return c, err
	}
	f.close()
	if !f.endsWithParagraph() {
		f.refs = append(f.refs, b.doc.AddParagraph(docmodel.Paragraph{}))
	}
	c.Content = f.refs
	return c, nil
}

// tableRows collects the rows of n without descending into nested tables.
func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			rows = append(rows, tableRows(c)...)
		}
	}
	return rows
}

func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, c)
		}
	}
	return cells
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
