package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

const exportComponent = "exporter"

const (
	ctMain     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles   = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctSettings = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	ctHeader   = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ctFooter   = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ctCore     = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp      = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels     = "application/vnd.openxmlformats-package.relationships+xml"
	uriPicture = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	appName    = "docxedit"
)

// headingSizes are the heading style font sizes in points, h1..h6.
var headingSizes = [6]float64{22, 18, 16, 14, 12, 10}

// ExportOptions configures one export.
type ExportOptions struct {
	// Page overrides the page geometry. Nil means A4.
	Page *docmodel.PageGeometry
	// KeepPage writes the document's own geometry when it has one.
	KeepPage bool
	// Title is stored in the core properties.
	Title string
	Sink  diag.Sink
}

// Export repairs doc, serializes it, and writes the package to w with a
// single Write call. Nothing is written when serialization fails.
func Export(ctx context.Context, doc *docmodel.Document, w io.Writer, opts ExportOptions) error {
	data, err := ExportBytes(ctx, doc, opts)
	if err != nil {
		return err
	}
	n, err := w.Write(data)
	if err != nil {
		return diag.IO("write package", err)
	}
	if n != len(data) {
		return diag.IO("write package", io.ErrShortWrite)
	}
	return nil
}

// ExportFile writes the package next to name and renames it into place, so
// an existing file is either kept or fully replaced.
func ExportFile(ctx context.Context, doc *docmodel.Document, name string, opts ExportOptions) error {
	data, err := ExportBytes(ctx, doc, opts)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".docxedit-*.tmp")
	if err != nil {
		return diag.IO("create temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return diag.IO("write package", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return diag.IO("write package", err)
	}
	if err := os.Rename(tmpPath, name); err != nil {
		os.Remove(tmpPath)
		return diag.IO("rename package", err)
	}
	return nil
}

// ExportBytes repairs doc and returns the serialized package.
func ExportBytes(ctx context.Context, doc *docmodel.Document, opts ExportOptions) ([]byte, error) {
	if doc == nil {
		doc = docmodel.New()
	}
	Repair(doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := docmodel.A4()
	switch {
	case opts.Page != nil:
		page = *opts.Page
	case opts.KeepPage && !doc.Page.IsZero():
		page = doc.Page
	}

	e := &exporter{doc: doc, sink: opts.Sink, images: make(map[*docmodel.Image]string)}
	parts, err := e.build(ctx, page, opts.Title)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, pt := range parts {
		fw, err := zw.Create(pt.name)
		if err != nil {
			return nil, diag.IO("serialize package", fmt.Errorf("create %s: %w", pt.name, err))
		}
		if _, err := fw.Write(pt.data); err != nil {
			return nil, diag.IO("serialize package", fmt.Errorf("write %s: %w", pt.name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, diag.IO("serialize package", err)
	}
	return buf.Bytes(), nil
}

type part struct {
	name string
	data []byte
}

// partRels accumulates the relationships of one part.
type partRels struct {
	list []relationship
}

func (pr *partRels) add(typ, target string) string {
	id := "rId" + strconv.Itoa(len(pr.list)+1)
	pr.list = append(pr.list, relationship{ID: id, Type: typ, Target: target})
	return id
}

func (pr *partRels) xml() ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRel)
	for _, rel := range pr.list {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.ID)
		el.CreateAttr("Type", rel.Type)
		el.CreateAttr("Target", rel.Target)
	}
	return doc.WriteToBytes()
}

type mediaPart struct {
	name string // word/media/imageN.ext
	ext  string
	mime string
	data []byte
}

// exporter holds the state of one export.
type exporter struct {
	doc   *docmodel.Document
	sink  diag.Sink
	media []mediaPart

	// images dedupes media parts per image within the package.
	images  map[*docmodel.Image]string
	drawing int
}

func (e *exporter) warn(element string, err error) {
	e.sink.Emit(exportComponent, element, err)
}

func newXML() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func (e *exporter) build(ctx context.Context, page docmodel.PageGeometry, title string) ([]part, error) {
	var parts []part
	docRels := &partRels{}
	docRels.add(relStyles, "styles.xml")
	docRels.add(relSettings, "settings.xml")

	var headerID, footerID string
	var headerPart, footerPart []byte
	var headerRels, footerRels *partRels
	var err error
	if len(e.doc.Header) > 0 {
		headerRels = &partRels{}
		headerPart, err = e.storyPart("w:hdr", e.doc.Header, headerRels)
		if err != nil {
			return nil, diag.IO("serialize header", err)
		}
		headerID = docRels.add(relHeader, "header1.xml")
	}
	if len(e.doc.Footer) > 0 {
		footerRels = &partRels{}
		footerPart, err = e.storyPart("w:ftr", e.doc.Footer, footerRels)
		if err != nil {
			return nil, diag.IO("serialize footer", err)
		}
		footerID = docRels.add(relFooter, "footer1.xml")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	main, err := e.documentPart(page, docRels, headerID, footerID)
	if err != nil {
		return nil, diag.IO("serialize document", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ct, err := e.contentTypes(headerPart != nil, footerPart != nil)
	if err != nil {
		return nil, diag.IO("serialize content types", err)
	}
	parts = append(parts, part{"[Content_Types].xml", ct})

	rootRels := &partRels{}
	rootRels.add(relOfficeDocument, "word/document.xml")
	rootRels.add(relCoreProps, "docProps/core.xml")
	rootRels.add(relExtendedProps, "docProps/app.xml")

	fixed := []struct {
		name string
		gen  func() ([]byte, error)
	}{
		{"_rels/.rels", rootRels.xml},
		{"word/_rels/document.xml.rels", docRels.xml},
		{"word/styles.xml", stylesPart},
		{"word/settings.xml", settingsPart},
		{"docProps/core.xml", func() ([]byte, error) { return corePart(title, time.Now().UTC()) }},
		{"docProps/app.xml", appPart},
	}
	for _, f := range fixed {
		data, err := f.gen()
		if err != nil {
			return nil, diag.IO("serialize "+f.name, err)
		}
		parts = append(parts, part{f.name, data})
	}
	parts = append(parts, part{"word/document.xml", main})

	if headerPart != nil {
		parts = append(parts, part{"word/header1.xml", headerPart})
		if len(headerRels.list) > 0 {
			data, err := headerRels.xml()
			if err != nil {
				return nil, diag.IO("serialize header relationships", err)
			}
			parts = append(parts, part{"word/_rels/header1.xml.rels", data})
		}
	}
	if footerPart != nil {
		parts = append(parts, part{"word/footer1.xml", footerPart})
		if len(footerRels.list) > 0 {
			data, err := footerRels.xml()
			if err != nil {
				return nil, diag.IO("serialize footer relationships", err)
			}
			parts = append(parts, part{"word/_rels/footer1.xml.rels", data})
		}
	}
	for _, m := range e.media {
		parts = append(parts, part{m.name, m.data})
	}
	return parts, nil
}

func setNamespaces(root *etree.Element) {
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)
}

func (e *exporter) documentPart(page docmodel.PageGeometry, rels *partRels, headerID, footerID string) ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("w:document")
	setNamespaces(root)
	body := root.CreateElement("w:body")
	e.blocks(body, e.doc.Body, rels, 0)

	sect := body.CreateElement("w:sectPr")
	if headerID != "" {
		ref := sect.CreateElement("w:headerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", headerID)
	}
	if footerID != "" {
		ref := sect.CreateElement("w:footerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", footerID)
	}
	sz := sect.CreateElement("w:pgSz")
	setInt(sz, "w:w", page.Width)
	setInt(sz, "w:h", page.Height)
	if page.Width > page.Height {
		sz.CreateAttr("w:orient", "landscape")
	}
	mar := sect.CreateElement("w:pgMar")
	setInt(mar, "w:top", page.MarginTop)
	setInt(mar, "w:right", page.MarginRight)
	setInt(mar, "w:bottom", page.MarginBottom)
	setInt(mar, "w:left", page.MarginLeft)
	setInt(mar, "w:header", 720)
	setInt(mar, "w:footer", 720)
	setInt(mar, "w:gutter", 0)
	return doc.WriteToBytes()
}

// storyPart serializes header or footer content.
func (e *exporter) storyPart(tag string, refs []docmodel.BlockRef, rels *partRels) ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement(tag)
	setNamespaces(root)
	e.blocks(root, refs, rels, 0)
	if last := root.ChildElements(); len(last) == 0 || last[len(last)-1].Tag != "p" {
		root.CreateElement("w:p")
	}
	return doc.WriteToBytes()
}

func (e *exporter) blocks(parent *etree.Element, refs []docmodel.BlockRef, rels *partRels, depth int) {
	for _, ref := range refs {
		switch ref.Kind {
		case docmodel.KindParagraph:
			if p := e.doc.Paragraph(ref); p != nil {
				e.paragraph(parent, p, rels)
			}
		case docmodel.KindTable:
			t := e.doc.Table(ref)
			if t == nil {
				continue
			}
			if depth >= docmodel.MaxDepth {
				e.warn("table", docmodel.ErrTooDeep)
				continue
			}
			e.table(parent, t, rels, depth)
		}
	}
}

func (e *exporter) paragraph(parent *etree.Element, p *docmodel.Paragraph, rels *partRels) {
	wp := parent.CreateElement("w:p")
	if pPr := paragraphProps(p); pPr != nil {
		wp.AddChild(pPr)
	}
	for i := range p.Runs {
		e.run(wp, &p.Runs[i], rels)
	}
}

// paragraphProps builds w:pPr in schema order, or nil when nothing is set.
func paragraphProps(p *docmodel.Paragraph) *etree.Element {
	pPr := etree.NewElement("w:pPr")
	style := p.StyleID
	if style == "" && p.HeadingLevel >= 1 && p.HeadingLevel <= 6 {
		style = "Heading" + strconv.Itoa(p.HeadingLevel)
	}
	if style = xmlSafe(style); style != "" {
		pPr.CreateElement("w:pStyle").CreateAttr("w:val", style)
	}
	if p.PageBreakBefore {
		pPr.CreateElement("w:pageBreakBefore")
	}
	if p.Borders != nil {
		if bdr := borderSet("w:pBdr", p.Borders, false); bdr != nil {
			pPr.AddChild(bdr)
		}
	}
	if fill, ok := docmodel.ParseHex(p.Shading); ok {
		shading(pPr, fill)
	}
	if p.SpacingBefore != 0 || p.SpacingAfter != 0 || p.LineSpacing != 0 {
		sp := pPr.CreateElement("w:spacing")
		if p.SpacingBefore != 0 {
			setInt(sp, "w:before", max(p.SpacingBefore, 0))
		}
		if p.SpacingAfter != 0 {
			setInt(sp, "w:after", max(p.SpacingAfter, 0))
		}
		if p.LineSpacing != 0 {
			setInt(sp, "w:line", p.LineSpacing)
			sp.CreateAttr("w:lineRule", lineRuleName(p.LineRule))
		}
	}
	if p.IndentLeft != 0 || p.IndentRight != 0 || p.IndentFirstLine != 0 || p.IndentHanging != 0 {
		ind := pPr.CreateElement("w:ind")
		if p.IndentLeft != 0 {
			setInt(ind, "w:left", p.IndentLeft)
		}
		if p.IndentRight != 0 {
			setInt(ind, "w:right", p.IndentRight)
		}
		switch {
		case p.IndentHanging > 0:
			setInt(ind, "w:hanging", p.IndentHanging)
		case p.IndentFirstLine != 0:
			setInt(ind, "w:firstLine", p.IndentFirstLine)
		}
	}
	if p.Align != docmodel.AlignStart {
		pPr.CreateElement("w:jc").CreateAttr("w:val", alignmentName(p.Align))
	}
	if len(pPr.ChildElements()) == 0 {
		return nil
	}
	return pPr
}

func (e *exporter) run(wp *etree.Element, r *docmodel.Run, rels *partRels) {
	if r.Image != nil {
		if len(r.Image.Data) == 0 {
			e.warn("picture", errors.New("image has no data"))
		} else {
			wr := wp.CreateElement("w:r")
			if rPr := e.runProps(r); rPr != nil {
				wr.AddChild(rPr)
			}
			e.drawingElement(wr, r.Image, rels)
		}
		if r.Text == "" {
			return
		}
	}
	wr := wp.CreateElement("w:r")
	if rPr := e.runProps(r); rPr != nil {
		wr.AddChild(rPr)
	}
	writeText(wr, r.Text)
}

// writeText emits text, turning newlines into w:br and tabs into w:tab.
func writeText(wr *etree.Element, text string) {
	var sb strings.Builder
	wrote := false
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		t := wr.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(sb.String())
		sb.Reset()
		wrote = true
	}
	for _, ch := range text {
		switch ch {
		case '\n':
			flush()
			wr.CreateElement("w:br")
			wrote = true
		case '\t':
			flush()
			wr.CreateElement("w:tab")
			wrote = true
		case '\r':
		default:
			if isXMLChar(ch) {
				sb.WriteRune(ch)
			}
		}
	}
	flush()
	if !wrote {
		wr.CreateElement("w:t").CreateAttr("xml:space", "preserve")
	}
}

// runProps builds w:rPr in schema order, or nil when nothing is set.
func (e *exporter) runProps(r *docmodel.Run) *etree.Element {
	rPr := etree.NewElement("w:rPr")
	if font := xmlSafe(r.Font); font != "" {
		f := rPr.CreateElement("w:rFonts")
		for _, key := range []string{"w:ascii", "w:hAnsi", "w:eastAsia", "w:cs"} {
			f.CreateAttr(key, font)
		}
	}
	toggles := []struct {
		on  bool
		tag string
	}{
		{r.Bold, "w:b"},
		{r.Italic, "w:i"},
		{r.AllCaps, "w:caps"},
		{r.SmallCaps, "w:smallCaps"},
		{r.Strike && !r.DoubleStrike, "w:strike"},
		{r.DoubleStrike, "w:dstrike"},
	}
	for _, t := range toggles {
		if t.on {
			rPr.CreateElement(t.tag)
		}
	}
	if r.Color != "" {
		if c, ok := docmodel.ParseHex(r.Color); ok {
			rPr.CreateElement("w:color").CreateAttr("w:val", c)
		} else if !strings.EqualFold(r.Color, "auto") {
			e.warn("run color "+r.Color, errors.New("not a hex color"))
		}
	}
	if r.SizeHalfPt > 0 {
		setInt(rPr.CreateElement("w:sz"), "w:val", r.SizeHalfPt)
		setInt(rPr.CreateElement("w:szCs"), "w:val", r.SizeHalfPt)
	}
	if r.Highlight != "" {
		if _, ok := docmodel.Highlights[r.Highlight]; ok {
			rPr.CreateElement("w:highlight").CreateAttr("w:val", r.Highlight)
		} else {
			e.warn("run highlight "+r.Highlight, errors.New("unknown highlight name"))
		}
	}
	if r.Underline {
		rPr.CreateElement("w:u").CreateAttr("w:val", "single")
	}
	switch {
	case r.Superscript:
		rPr.CreateElement("w:vertAlign").CreateAttr("w:val", "superscript")
	case r.Subscript:
		rPr.CreateElement("w:vertAlign").CreateAttr("w:val", "subscript")
	}
	if len(rPr.ChildElements()) == 0 {
		return nil
	}
	return rPr
}

// drawingElement embeds img as an inline DrawingML picture.
func (e *exporter) drawingElement(wr *etree.Element, img *docmodel.Image, rels *partRels) {
	name, ok := e.images[img]
	if !ok {
		n := len(e.media) + 1
		name = fmt.Sprintf("word/media/image%d.%s", n, img.Extension())
		e.media = append(e.media, mediaPart{name: name, ext: img.Extension(), mime: img.MIMEType(), data: img.Data})
		e.images[img] = name
	}
	id := rels.add(relImage, "media/"+filepath.Base(name))

	cx, cy := img.WidthEMU, img.HeightEMU
	if cx <= 0 || cy <= 0 {
		cx = units.PixelsToEMU(defaultPictureWidthPx)
		cy = units.PixelsToEMU(defaultPictureHeightPx)
	}
	e.drawing++
	docPrID := strconv.Itoa(e.drawing)
	picName := "Picture " + docPrID

	inline := wr.CreateElement("w:drawing").CreateElement("wp:inline")
	for _, k := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(k, "0")
	}
	ext := inline.CreateElement("wp:extent")
	ext.CreateAttr("cx", strconv.FormatInt(cx, 10))
	ext.CreateAttr("cy", strconv.FormatInt(cy, 10))
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", docPrID)
	docPr.CreateAttr("name", picName)
	inline.CreateElement("wp:cNvGraphicFramePr").CreateElement("a:graphicFrameLocks").CreateAttr("noChangeAspect", "1")

	data := inline.CreateElement("a:graphic").CreateElement("a:graphicData")
	data.CreateAttr("uri", uriPicture)
	pic := data.CreateElement("pic:pic")
	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", filepath.Base(name))
	nv.CreateElement("pic:cNvPicPr")
	fill := pic.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", id)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")
	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	aext := xfrm.CreateElement("a:ext")
	aext.CreateAttr("cx", strconv.FormatInt(cx, 10))
	aext.CreateAttr("cy", strconv.FormatInt(cy, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
}

func (e *exporter) table(parent *etree.Element, t *docmodel.Table, rels *partRels, depth int) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	tbl := parent.CreateElement("w:tbl")
	tblPr := tbl.CreateElement("w:tblPr")
	tblW := tblPr.CreateElement("w:tblW")
	if t.WidthTwips > 0 {
		setInt(tblW, "w:w", t.WidthTwips)
		tblW.CreateAttr("w:type", "dxa")
	} else {
		tblW.CreateAttr("w:w", "0")
		tblW.CreateAttr("w:type", "auto")
	}
	if t.Align != docmodel.AlignStart {
		tblPr.CreateElement("w:jc").CreateAttr("w:val", alignmentName(t.Align))
	}
	if t.IndentTwips != 0 {
		ind := tblPr.CreateElement("w:tblInd")
		setInt(ind, "w:w", t.IndentTwips)
		ind.CreateAttr("w:type", "dxa")
	}
	if t.Borders != nil {
		if bdr := borderSet("w:tblBorders", t.Borders, true); bdr != nil {
			tblPr.AddChild(bdr)
		}
	}

	width := t.WidthTwips
	if width <= 0 {
		width = docmodel.A4().Width - 2*1440
	}
	grid := tbl.CreateElement("w:tblGrid")
	for i := 0; i < cols; i++ {
		setInt(grid.CreateElement("w:gridCol"), "w:w", width/cols)
	}

	for ri := range t.Rows {
		row := &t.Rows[ri]
		tr := tbl.CreateElement("w:tr")
		if row.HeightTwips > 0 || row.Header {
			trPr := tr.CreateElement("w:trPr")
			if row.HeightTwips > 0 {
				setInt(trPr.CreateElement("w:trHeight"), "w:val", row.HeightTwips)
			}
			if row.Header {
				trPr.CreateElement("w:tblHeader")
			}
		}
		for ci := range row.Cells {
			e.cell(tr, &row.Cells[ci], rels, depth)
		}
		if len(row.Cells) == 0 {
			tr.CreateElement("w:tc").CreateElement("w:p")
		}
	}
}

func (e *exporter) cell(tr *etree.Element, c *docmodel.Cell, rels *partRels, depth int) {
	tc := tr.CreateElement("w:tc")
	tcPr := tc.CreateElement("w:tcPr")
	tcW := tcPr.CreateElement("w:tcW")
	if c.WidthTwips > 0 {
		setInt(tcW, "w:w", c.WidthTwips)
		tcW.CreateAttr("w:type", "dxa")
	} else {
		tcW.CreateAttr("w:w", "0")
		tcW.CreateAttr("w:type", "auto")
	}
	if c.GridSpan > 1 {
		setInt(tcPr.CreateElement("w:gridSpan"), "w:val", c.GridSpan)
	}
	if c.Borders != nil {
		if bdr := borderSet("w:tcBorders", c.Borders, true); bdr != nil {
			tcPr.AddChild(bdr)
		}
	}
	if fill, ok := docmodel.ParseHex(c.Fill); ok {
		shading(tcPr, fill)
	}
	if m := c.Margins; m != nil {
		mar := tcPr.CreateElement("w:tcMar")
		for _, side := range []struct {
			tag string
			v   int
		}{{"w:top", m.Top}, {"w:left", m.Left}, {"w:bottom", m.Bottom}, {"w:right", m.Right}} {
			el := mar.CreateElement(side.tag)
			setInt(el, "w:w", max(side.v, 0))
			el.CreateAttr("w:type", "dxa")
		}
	}
	if c.VAlign != docmodel.VAlignTop {
		tcPr.CreateElement("w:vAlign").CreateAttr("w:val", vAlignName(c.VAlign))
	}

	e.blocks(tc, c.Content, rels, depth+1)
	if kids := tc.ChildElements(); kids[len(kids)-1].Tag != "p" {
		tc.CreateElement("w:p")
	}
}

type borderSide struct {
	tag string
	b   *docmodel.Border
}

func borderSet(tag string, bs *docmodel.BorderSet, inside bool) *etree.Element {
	el := etree.NewElement(tag)
	sides := []borderSide{{"w:top", bs.Top}, {"w:left", bs.Left}, {"w:bottom", bs.Bottom}, {"w:right", bs.Right}}
	if inside {
		sides = append(sides, borderSide{"w:insideH", bs.InsideH}, borderSide{"w:insideV", bs.InsideV})
	}
	for _, s := range sides {
		if s.b == nil {
			continue
		}
		side := el.CreateElement(s.tag)
		side.CreateAttr("w:val", borderStyle(s.b.Style))
		setInt(side, "w:sz", max(s.b.Size, 0))
		side.CreateAttr("w:space", "0")
		color, ok := docmodel.ParseHex(s.b.Color)
		if !ok {
			color = "000000"
		}
		side.CreateAttr("w:color", color)
	}
	if len(el.ChildElements()) == 0 {
		return nil
	}
	return el
}

func borderStyle(s string) string {
	s = xmlSafe(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return "single"
	}
	return s
}

func shading(parent *etree.Element, fill string) {
	shd := parent.CreateElement("w:shd")
	shd.CreateAttr("w:val", "clear")
	shd.CreateAttr("w:color", "auto")
	shd.CreateAttr("w:fill", fill)
}

func setInt(el *etree.Element, key string, v int) {
	el.CreateAttr(key, strconv.Itoa(v))
}

func alignmentName(a docmodel.Alignment) string {
	switch a {
	case docmodel.AlignCenter:
		return "center"
	case docmodel.AlignEnd:
		return "right"
	case docmodel.AlignJustify:
		return "both"
	}
	return "left"
}

func lineRuleName(r docmodel.LineRule) string {
	switch r {
	case docmodel.LineExact:
		return "exact"
	case docmodel.LineAtLeast:
		return "atLeast"
	}
	return "auto"
}

func vAlignName(v docmodel.VAlign) string {
	switch v {
	case docmodel.VAlignCenter:
		return "center"
	case docmodel.VAlignBottom:
		return "bottom"
	}
	return "top"
}

// isXMLChar reports whether r may appear in XML 1.0 content.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// xmlSafe drops characters that cannot be serialized.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func (e *exporter) contentTypes(header, footer bool) ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", nsCT)
	def := func(ext, ct string) {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", ct)
	}
	def("rels", ctRels)
	def("xml", "application/xml")
	seen := make(map[string]bool)
	for _, m := range e.media {
		if seen[m.ext] {
			continue
		}
		seen[m.ext] = true
		def(m.ext, m.mime)
	}
	override := func(name, ct string) {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", name)
		el.CreateAttr("ContentType", ct)
	}
	override("/word/document.xml", ctMain)
	override("/word/styles.xml", ctStyles)
	override("/word/settings.xml", ctSettings)
	if header {
		override("/word/header1.xml", ctHeader)
	}
	if footer {
		override("/word/footer1.xml", ctFooter)
	}
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctApp)
	return doc.WriteToBytes()
}

// stylesPart writes Normal and Heading1..Heading6.
func stylesPart() ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsW)

	defaults := root.CreateElement("w:docDefaults")
	rPr := defaults.CreateElement("w:rPrDefault").CreateElement("w:rPr")
	fonts := rPr.CreateElement("w:rFonts")
	for _, k := range []string{"w:ascii", "w:hAnsi", "w:eastAsia", "w:cs"} {
		fonts.CreateAttr(k, "Calibri")
	}
	setInt(rPr.CreateElement("w:sz"), "w:val", 22)
	setInt(rPr.CreateElement("w:szCs"), "w:val", 22)
	spacing := defaults.CreateElement("w:pPrDefault").CreateElement("w:pPr").CreateElement("w:spacing")
	setInt(spacing, "w:after", 0)
	setInt(spacing, "w:line", 240)
	spacing.CreateAttr("w:lineRule", "auto")

	normal := root.CreateElement("w:style")
	normal.CreateAttr("w:type", "paragraph")
	normal.CreateAttr("w:default", "1")
	normal.CreateAttr("w:styleId", "Normal")
	normal.CreateElement("w:name").CreateAttr("w:val", "Normal")
	normal.CreateElement("w:qFormat")

	for i, size := range headingSizes {
		level := strconv.Itoa(i + 1)
		st := root.CreateElement("w:style")
		st.CreateAttr("w:type", "paragraph")
		st.CreateAttr("w:styleId", "Heading"+level)
		st.CreateElement("w:name").CreateAttr("w:val", "heading "+level)
		st.CreateElement("w:basedOn").CreateAttr("w:val", "Normal")
		st.CreateElement("w:next").CreateAttr("w:val", "Normal")
		st.CreateElement("w:qFormat")
		pPr := st.CreateElement("w:pPr")
		pPr.CreateElement("w:keepNext")
		sp := pPr.CreateElement("w:spacing")
		setInt(sp, "w:before", 240)
		setInt(sp, "w:after", 60)
		setInt(pPr.CreateElement("w:outlineLvl"), "w:val", i)
		r := st.CreateElement("w:rPr")
		r.CreateElement("w:b")
		setInt(r.CreateElement("w:sz"), "w:val", units.PointsToHalfPoints(size))
		setInt(r.CreateElement("w:szCs"), "w:val", units.PointsToHalfPoints(size))
	}
	return doc.WriteToBytes()
}

func settingsPart() ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("w:settings")
	root.CreateAttr("xmlns:w", nsW)
	setInt(root.CreateElement("w:defaultTabStop"), "w:val", 720)
	root.CreateElement("w:characterSpacingControl").CreateAttr("w:val", "doNotCompress")
	compat := root.CreateElement("w:compat").CreateElement("w:compatSetting")
	compat.CreateAttr("w:name", "compatibilityMode")
	compat.CreateAttr("w:uri", "http://schemas.microsoft.com/office/word")
	compat.CreateAttr("w:val", "15")
	return doc.WriteToBytes()
}

func corePart(title string, now time.Time) ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	root.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	root.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	if title = xmlSafe(title); title != "" {
		root.CreateElement("dc:title").SetText(title)
	}
	root.CreateElement("dc:creator").SetText(appName)
	stamp := now.Format(time.RFC3339)
	for _, tag := range []string{"dcterms:created", "dcterms:modified"} {
		el := root.CreateElement(tag)
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(stamp)
	}
	return doc.WriteToBytes()
}

func appPart() ([]byte, error) {
	doc := newXML()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	root.CreateElement("Application").SetText(appName)
	return doc.WriteToBytes()
}
