package docx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
)

const importComponent = "importer"

// ImportOptions configures one import.
type ImportOptions struct {
	Sink diag.Sink
}

// importer holds the state of a single Import call.
type importer struct {
	pkg       *pkg
	doc       *docmodel.Document
	styles    *styleSheet
	numbering numbering
	sink      diag.Sink

	// pendingBreak is set by a page break inside a run and consumed by the
	// next paragraph.
	pendingBreak bool
}

// partContext is the part whose content is being read; relationship ids
// resolve against it.
type partContext struct {
	name string
	rels map[string]relationship
}

// ImportFile opens path and imports it.
func ImportFile(ctx context.Context, name string, opts ImportOptions) (*docmodel.Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, diag.IO("open package", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, diag.IO("stat package", err)
	}
	return Import(ctx, f, info.Size(), opts)
}

// ImportBytes imports a package held in memory.
func ImportBytes(ctx context.Context, data []byte, opts ImportOptions) (*docmodel.Document, error) {
	return Import(ctx, bytes.NewReader(data), int64(len(data)), opts)
}

// Import reads a word-processing package and builds a Document. Only a
// package that cannot be opened or has no readable main document fails;
// everything below that is reported through opts.Sink.
func Import(ctx context.Context, r io.ReaderAt, size int64, opts ImportOptions) (*docmodel.Document, error) {
	p, err := openPackage(r, size)
	if err != nil {
		return nil, diag.Format("open package", err)
	}
	main := p.mainPart()
	if !p.has(main) {
		return nil, diag.Format("open package", fmt.Errorf("main document part %s not found", main))
	}
	xdoc, err := p.xml(main)
	if err != nil {
		return nil, diag.Format("parse document", err)
	}
	body := child(xdoc.Root(), "body")
	if body == nil {
		return nil, diag.Format("parse document", errors.New("document has no body"))
	}

	im := &importer{pkg: p, doc: docmodel.New(), sink: opts.Sink}
	rels, err := p.rels(main)
	if err != nil {
		im.warn("relationships of "+main, err)
	}
	im.styles = newStyleSheet(im.optionalPart(rels, relStyles))
	im.numbering = newNumbering(im.optionalPart(rels, relNumbering))

	pc := partContext{name: main, rels: rels}
	refs, err := im.blocks(ctx, body, pc, 0)
	if err != nil {
		return nil, err
	}
	im.doc.Body = refs

	if sect := lastSectPr(body); sect != nil {
		im.doc.Page = pageGeometry(sect)
		im.doc.Header, err = im.headerFooter(ctx, sect, pc, "headerReference")
		if err != nil {
			return nil, err
		}
		im.doc.Footer, err = im.headerFooter(ctx, sect, pc, "footerReference")
		if err != nil {
			return nil, err
		}
	}
	return im.doc, nil
}

func (im *importer) warn(element string, err error) {
	im.sink.Emit(importComponent, element, err)
}

// optionalPart parses the first part related by typ. A missing part is
// normal; an unreadable one is reported.
func (im *importer) optionalPart(rels map[string]relationship, typ string) *etree.Document {
	target := firstTarget(rels, typ)
	if target == "" || !im.pkg.has(target) {
		return nil
	}
	doc, err := im.pkg.xml(target)
	if err != nil {
		im.warn(target, err)
		return nil
	}
	return doc
}

// blocks converts the block-level children of parent. ctx is checked
// between top-level elements only.
func (im *importer) blocks(ctx context.Context, parent *etree.Element, pc partContext, depth int) ([]docmodel.BlockRef, error) {
	if parent == nil {
		return nil, nil
	}
	var refs []docmodel.BlockRef
	for _, el := range parent.ChildElements() {
		if depth == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		switch el.Tag {
		case "p":
			refs = append(refs, im.paragraph(el, pc))
		case "tbl":
			if depth >= docmodel.MaxDepth {
				im.warn("table", docmodel.ErrTooDeep)
				continue
			}
			ref, err := im.table(ctx, el, pc, depth)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		case "sdt":
			inner, err := im.blocks(ctx, child(el, "sdtContent"), pc, depth)
			if err != nil {
				return nil, err
			}
			refs = append(refs, inner...)
		case "customXml", "ins", "moveTo":
			inner, err := im.blocks(ctx, el, pc, depth)
			if err != nil {
				return nil, err
			}
			refs = append(refs, inner...)
		}
	}
	return refs, nil
}

func (im *importer) paragraph(el *etree.Element, pc partContext) docmodel.BlockRef {
	pPr := child(el, "pPr")
	styleID := im.styles.paragraphStyle(pPr)

	var p docmodel.Paragraph
	im.styles.applyParagraphStyle(&p, styleID)
	applyPPr(&p, pPr)
	p.StyleID = attr(child(pPr, "pStyle"), "val")
	p.HeadingLevel = im.styles.headingLevel(styleID)
	if p.List != nil {
		p.List.Ordered = im.numbering.ordered(p.List.NumID, p.List.Level)
	}
	if im.pendingBreak {
		p.PageBreakBefore = true
		im.pendingBreak = false
	}
	im.inline(el, &p, pc, styleID, 0)
	return im.doc.AddParagraph(p)
}

// inline collects runs from a paragraph, descending into the wrappers that
// carry runs (hyperlinks, smart tags, insertions, content controls, fields).
func (im *importer) inline(parent *etree.Element, p *docmodel.Paragraph, pc partContext, styleID string, depth int) {
	if parent == nil || depth > docmodel.MaxDepth {
		return
	}
	for _, el := range parent.ChildElements() {
		switch el.Tag {
		case "r":
			im.run(el, p, pc, styleID)
		case "hyperlink", "smartTag", "ins", "fldSimple", "customXml", "moveTo", "dir", "bdo":
			im.inline(el, p, pc, styleID, depth+1)
		case "sdt":
			im.inline(child(el, "sdtContent"), p, pc, styleID, depth+1)
		case "AlternateContent":
			branch := child(el, "Choice")
			if branch == nil {
				branch = child(el, "Fallback")
			}
			im.inline(branch, p, pc, styleID, depth+1)
		}
	}
}

func (im *importer) run(el *etree.Element, p *docmodel.Paragraph, pc partContext, styleID string) {
	rPr := child(el, "rPr")
	base := im.styles.baseRun(styleID, rPr)
	applyRPr(&base, rPr)

	text, pageBreak := runText(el)
	if pageBreak {
		im.pendingBreak = true
	}
	if text != "" {
		r := base
		r.Text = text
		p.Runs = append(p.Runs, r)
	}
	for _, img := range im.runPictures(el, pc) {
		r := base
		r.Image = img
		p.Runs = append(p.Runs, r)
	}
}

// table converts a w:tbl found among content at depth; its cells hold
// content at depth+1.
func (im *importer) table(ctx context.Context, el *etree.Element, pc partContext, depth int) (docmodel.BlockRef, error) {
	var t docmodel.Table
	if tblPr := child(el, "tblPr"); tblPr != nil {
		t.Borders = parseBorderSet(child(tblPr, "tblBorders"))
		if w, ok := intAttr(child(tblPr, "tblW"), "w"); ok && attr(child(tblPr, "tblW"), "type") != "pct" {
			t.WidthTwips = w
		}
		if jc := child(tblPr, "jc"); jc != nil {
			t.Align = parseAlignment(attr(jc, "val"))
		}
		if ind, ok := intAttr(child(tblPr, "tblInd"), "w"); ok {
			t.IndentTwips = ind
		}
	}

	for _, tr := range el.ChildElements() {
		if tr.Tag != "tr" {
			continue
		}
		row := docmodel.Row{Header: len(t.Rows) == 0}
		if h, ok := intAttr(child(child(tr, "trPr"), "trHeight"), "val"); ok {
			row.HeightTwips = h
		}
		for _, tc := range cellElements(tr) {
			cell, err := im.cell(ctx, tc, pc, depth+1)
			if err != nil {
				return docmodel.BlockRef{}, err
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return im.doc.AddTable(t), nil
}

// cellElements returns the w:tc elements of a row, unwrapping content
// controls and custom XML around cells.
func cellElements(tr *etree.Element) []*etree.Element {
	if tr == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range tr.ChildElements() {
		switch c.Tag {
		case "tc":
			out = append(out, c)
		case "sdt":
			out = append(out, cellElements(child(c, "sdtContent"))...)
		case "customXml":
			out = append(out, cellElements(c)...)
		}
	}
	return out
}

func (im *importer) cell(ctx context.Context, tc *etree.Element, pc partContext, depth int) (docmodel.Cell, error) {
	var cell docmodel.Cell
	if tcPr := child(tc, "tcPr"); tcPr != nil {
		if w, ok := intAttr(child(tcPr, "tcW"), "w"); ok && attr(child(tcPr, "tcW"), "type") != "pct" {
			cell.WidthTwips = w
		}
		if fill := attr(child(tcPr, "shd"), "fill"); fill != "" && fill != "auto" {
			cell.Fill = fill
		}
		cell.Borders = parseBorderSet(child(tcPr, "tcBorders"))
		if span, ok := intAttr(child(tcPr, "gridSpan"), "val"); ok && span > 1 {
			cell.GridSpan = span
		}
		if va := child(tcPr, "vAlign"); va != nil {
			cell.VAlign = parseVAlign(attr(va, "val"))
		}
		if mar := child(tcPr, "tcMar"); mar != nil {
			cell.Margins = parseCellMargins(mar)
		}
	}
	content, err := im.blocks(ctx, tc, pc, depth)
	if err != nil {
		return cell, err
	}
	cell.Content = content
	return cell, nil
}

func parseCellMargins(el *etree.Element) *docmodel.CellMargins {
	side := func(names ...string) int {
		for _, n := range names {
			if v, ok := intAttr(child(el, n), "w"); ok {
				return v
			}
		}
		return 0
	}
	return &docmodel.CellMargins{
		Top:    side("top"),
		Left:   side("left", "start"),
		Bottom: side("bottom"),
		Right:  side("right", "end"),
	}
}

// lastSectPr returns the body-level section properties, which describe the
// final section.
func lastSectPr(body *etree.Element) *etree.Element {
	children := body.ChildElements()
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Tag == "sectPr" {
			return children[i]
		}
	}
	return nil
}

// pageGeometry reads pgSz and pgMar; anything missing keeps the A4 value.
func pageGeometry(sect *etree.Element) docmodel.PageGeometry {
	g := docmodel.A4()
	if sz := child(sect, "pgSz"); sz != nil {
		if v, ok := intAttr(sz, "w"); ok && v > 0 {
			g.Width = v
		}
		if v, ok := intAttr(sz, "h"); ok && v > 0 {
			g.Height = v
		}
	}
	if mar := child(sect, "pgMar"); mar != nil {
		if v, ok := intAttr(mar, "top"); ok {
			g.MarginTop = v
		}
		if v, ok := intAttr(mar, "right"); ok {
			g.MarginRight = v
		}
		if v, ok := intAttr(mar, "bottom"); ok {
			g.MarginBottom = v
		}
		if v, ok := intAttr(mar, "left"); ok {
			g.MarginLeft = v
		}
	}
	return g
}

// headerFooter imports the first-page variant followed by the default
// variant of the header or footer referenced by sect.
func (im *importer) headerFooter(ctx context.Context, sect *etree.Element, pc partContext, refTag string) ([]docmodel.BlockRef, error) {
	ids := make(map[string]string)
	for _, ref := range sect.ChildElements() {
		if ref.Tag != refTag {
			continue
		}
		typ := attr(ref, "type")
		if typ == "" {
			typ = "default"
		}
		ids[typ] = ref.SelectAttrValue("r:id", attr(ref, "id"))
	}

	var out []docmodel.BlockRef
	seen := make(map[string]bool)
	for _, typ := range []string{"first", "default"} {
		id, ok := ids[typ]
		if !ok || id == "" {
			continue
		}
		rel, ok := pc.rels[id]
		if !ok || rel.External {
			im.warn(refTag+" "+id, errors.New("relationship not found"))
			continue
		}
		if seen[rel.Target] {
			continue
		}
		seen[rel.Target] = true

		part, err := im.pkg.xml(rel.Target)
		if err != nil {
			im.warn(rel.Target, err)
			continue
		}
		partRels, err := im.pkg.rels(rel.Target)
		if err != nil {
			im.warn("relationships of "+rel.Target, err)
		}
		saved := im.pendingBreak
		im.pendingBreak = false
		refs, err := im.blocks(ctx, part.Root(), partContext{name: rel.Target, rels: partRels}, 0)
		im.pendingBreak = saved
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}
