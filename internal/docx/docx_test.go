package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

const docHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
 xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
 xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"
 xmlns:v="urn:schemas-microsoft-com:vml"><w:body>`

const docTail = `</w:body></w:document>`

const rootRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// buildPackage zips files into a package held in memory.
func buildPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func documentRels(rels ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		strings.Join(rels, "") + `</Relationships>`
}

func rel(id, typ, target string) string {
	return `<Relationship Id="` + id + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/` + typ + `" Target="` + target + `"/>`
}

func importString(t *testing.T, body string, extra map[string]string) (*docmodel.Document, *diag.Collector) {
	t.Helper()
	files := map[string]string{
		"_rels/.rels":       rootRels,
		"word/document.xml": docHead + body + docTail,
	}
	for k, v := range extra {
		files[k] = v
	}
	var c diag.Collector
	doc, err := ImportBytes(context.Background(), buildPackage(t, files), ImportOptions{Sink: c.Sink()})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	return doc, &c
}

func textPara(text string) docmodel.Paragraph {
	return docmodel.Paragraph{Runs: []docmodel.Run{{Text: text}}}
}

func TestRoundTripText(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "Hello ", Bold: true}, {Text: "World", Italic: true}}})
	doc.AppendParagraph(textPara("line one\nline two\tafter tab"))
	doc.AppendParagraph(textPara("  padded  "))

	inner := doc.AddTable(docmodel.Table{Rows: []docmodel.Row{{Cells: []docmodel.Cell{
		{Content: []docmodel.BlockRef{doc.AddParagraph(textPara("deep"))}},
	}}}})
	outer := doc.AddTable(docmodel.Table{Rows: []docmodel.Row{
		{Cells: []docmodel.Cell{
			{Content: []docmodel.BlockRef{doc.AddParagraph(textPara("a1"))}},
			{Content: []docmodel.BlockRef{doc.AddParagraph(textPara("b1")), inner}},
		}},
		{Cells: []docmodel.Cell{
			{GridSpan: 2, Content: []docmodel.BlockRef{doc.AddParagraph(textPara("spanned"))}},
		}},
	}})
	doc.Body = append(doc.Body, outer)
	doc.AppendParagraph(textPara("Ünïcödé & <markup>"))
	doc.Header = []docmodel.BlockRef{doc.AddParagraph(textPara("HEAD"))}
	doc.Footer = []docmodel.BlockRef{doc.AddParagraph(textPara("FOOT"))}

	want := doc.Text()
	data, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Text() != want {
		t.Errorf("expected %q, got %q", want, got.Text())
	}

	first := got.Paragraph(got.Body[0])
	if len(first.Runs) != 2 || !first.Runs[0].Bold || !first.Runs[1].Italic {
		t.Errorf("expected bold then italic run, got %+v", first.Runs)
	}
	tbl := got.Table(got.Body[3])
	if tbl == nil {
		t.Fatalf("expected table at body index 3, got %+v", got.Body[3])
	}
	if span := tbl.Rows[1].Cells[0].GridSpan; span != 2 {
		t.Errorf("expected gridSpan 2, got %d", span)
	}
	if !tbl.Rows[0].Header || tbl.Rows[1].Header {
		t.Error("expected only the first row to be a header row")
	}
}

func TestRoundTripTableOnlyText(t *testing.T) {
	doc := docmodel.New()
	doc.Body = append(doc.Body, doc.AddTable(docmodel.Table{Rows: []docmodel.Row{{Cells: []docmodel.Cell{
		{Content: []docmodel.BlockRef{doc.AddParagraph(textPara("x"))}},
	}}}}))

	data, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Text() != "x" {
		t.Errorf("expected %q, got %q", "x", got.Text())
	}
	if n := len(got.Body); n != 2 || got.Body[1].Kind != docmodel.KindParagraph {
		t.Fatalf("expected table then trailing paragraph, got %d blocks", n)
	}
	if rep := Repair(doc); rep.Changed() {
		t.Errorf("expected second repair to be a no-op, got %+v", rep)
	}
	data, err = ExportBytes(context.Background(), got, ExportOptions{})
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	again, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(again.Body) != 2 || again.Text() != "x" {
		t.Errorf("expected stable table and trailing paragraph, got %d blocks text %q", len(again.Body), again.Text())
	}

	bare := docmodel.New()
	bare.Body = append(bare.Body, bare.AddTable(docmodel.Table{}))
	if rep := Repair(bare); !rep.AddedPlaceholder || rep.TrailingParagraph {
		t.Errorf("expected placeholder for a table with no cells, got %+v", rep)
	}
}

func TestRepairLineSpacingIdempotent(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "a"}}, LineSpacing: -10})
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "b"}}, LineSpacing: -300, LineRule: docmodel.LineExact})

	rep := Repair(doc)
	if rep.LineSpacingFixed != 2 {
		t.Errorf("expected 2 fixes, got %d", rep.LineSpacingFixed)
	}
	if got := doc.Paragraphs[0].LineSpacing; got != MinLineSpacing {
		t.Errorf("expected %d, got %d", MinLineSpacing, got)
	}
	if got := doc.Paragraphs[1].LineSpacing; got != 300 {
		t.Errorf("expected 300, got %d", got)
	}
	if again := Repair(doc); again.Changed() {
		t.Errorf("expected second repair to be a no-op, got %+v", again)
	}

	data, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for i, p := range got.Paragraphs {
		if p.LineSpacing < 0 {
			t.Errorf("paragraph %d: negative line spacing %d survived export", i, p.LineSpacing)
		}
	}
}

func TestRepairDropsOnlyArtifactParagraph(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{})
	doc.AppendParagraph(textPara("content"))
	rep := Repair(doc)
	if !rep.DroppedLeadingEmpty || len(doc.Body) != 1 {
		t.Fatalf("expected leading empty paragraph dropped, got %d blocks", len(doc.Body))
	}

	lone := docmodel.New()
	lone.AppendParagraph(docmodel.Paragraph{})
	Repair(lone)
	if len(lone.Body) != 1 {
		t.Errorf("expected the only paragraph to survive, got %d blocks", len(lone.Body))
	}

	rule := docmodel.New()
	rule.AppendParagraph(docmodel.Paragraph{Borders: &docmodel.BorderSet{Bottom: docmodel.NewBorder(6, "", "")}})
	rule.AppendParagraph(textPara("after rule"))
	Repair(rule)
	if len(rule.Body) != 2 {
		t.Errorf("expected bordered paragraph to be kept, got %d blocks", len(rule.Body))
	}
}

func TestRepairFillsCells(t *testing.T) {
	doc := docmodel.New()
	nested := doc.AddTable(docmodel.Table{Rows: []docmodel.Row{{Cells: []docmodel.Cell{{}}}}})
	doc.Body = append(doc.Body, doc.AddTable(docmodel.Table{Rows: []docmodel.Row{{Cells: []docmodel.Cell{
		{},
		{Content: []docmodel.BlockRef{nested}},
	}}}}))
	rep := Repair(doc)
	if rep.CellsFilled != 3 {
		t.Errorf("expected 3 cells filled, got %d", rep.CellsFilled)
	}
	for _, tbl := range doc.Tables {
		for _, row := range tbl.Rows {
			for _, c := range row.Cells {
				last := c.Content[len(c.Content)-1]
				if p := doc.Paragraph(last); p == nil || len(p.Runs) == 0 {
					t.Errorf("expected cell to end in a paragraph with a run, got %+v", last)
				}
			}
		}
	}
}

func TestExportEmptyDocument(t *testing.T) {
	data, err := ExportBytes(context.Background(), docmodel.New(), ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got.Body) != 1 {
		t.Fatalf("expected 1 paragraph, got %d blocks", len(got.Body))
	}
	p := got.Paragraph(got.Body[0])
	if p == nil || len(p.Runs) != 1 {
		t.Fatalf("expected one run, got %+v", p)
	}
	if txt := p.Runs[0].Text; txt == "" || strings.TrimSpace(txt) != "" {
		t.Errorf("expected non-empty whitespace text, got %q", txt)
	}
}

func TestExportWritesA4ByDefault(t *testing.T) {
	doc := docmodel.New()
	doc.Page = docmodel.PageGeometry{Width: 12240, Height: 15840, MarginTop: 720, MarginRight: 720, MarginBottom: 720, MarginLeft: 720}
	doc.AppendParagraph(textPara("page"))

	data, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), data, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Page != docmodel.A4() {
		t.Errorf("expected A4, got %+v", got.Page)
	}

	kept, err := ExportBytes(context.Background(), doc, ExportOptions{KeepPage: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err = ImportBytes(context.Background(), kept, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Page != doc.Page {
		t.Errorf("expected kept geometry %+v, got %+v", doc.Page, got.Page)
	}
}

func TestImportGarbageIsFormatError(t *testing.T) {
	_, err := ImportBytes(context.Background(), []byte("definitely not a zip"), ImportOptions{})
	if !diag.IsFormat(err) {
		t.Errorf("expected FormatError, got %v", err)
	}

	noMain := buildPackage(t, map[string]string{"hello.txt": "hi"})
	_, err = ImportBytes(context.Background(), noMain, ImportOptions{})
	if !diag.IsFormat(err) {
		t.Errorf("expected FormatError for missing main part, got %v", err)
	}

	badXML := buildPackage(t, map[string]string{"word/document.xml": "<w:document><w:body><w:p w:x=></w:body>"})
	_, err = ImportBytes(context.Background(), badXML, ImportOptions{})
	if !diag.IsFormat(err) {
		t.Errorf("expected FormatError for broken xml, got %v", err)
	}
}

type failingWriter struct {
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("disk full")
}

func TestExportFailingWriterIsIOError(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(textPara("x"))
	w := &failingWriter{}
	err := Export(context.Background(), doc, w, ExportOptions{})
	if !diag.IsIO(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if w.calls != 1 {
		t.Errorf("expected exactly one write, got %d", w.calls)
	}
}

func TestExportCancelledWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := Export(ctx, docmodel.New(), &buf, ExportOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %d bytes", buf.Len())
	}
}

func TestImportStylesAndDirectFormatting(t *testing.T) {
	styles := `<?xml version="1.0" encoding="UTF-8"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:sz w:val="24"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Base"><w:name w:val="Base"/><w:basedOn w:val="Loop"/><w:rPr><w:color w:val="112233"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Loop"><w:name w:val="Loop"/><w:basedOn w:val="Base"/></w:style>
<w:style w:type="paragraph" w:styleId="Title1"><w:name w:val="heading 2"/><w:basedOn w:val="Base"/><w:pPr><w:jc w:val="center"/></w:pPr><w:rPr><w:b/></w:rPr></w:style>
</w:styles>`
	body := `<w:p><w:pPr><w:pStyle w:val="Title1"/></w:pPr><w:r><w:t>Heading</w:t></w:r></w:p>
<w:p><w:pPr><w:jc w:val="both"/><w:spacing w:before="120" w:after="240" w:line="360" w:lineRule="auto"/><w:ind w:left="720" w:hanging="360"/></w:pPr>
<w:r><w:rPr><w:i/><w:u w:val="single"/><w:vertAlign w:val="superscript"/><w:highlight w:val="yellow"/><w:rFonts w:ascii="Arial"/></w:rPr><w:t>styled</w:t></w:r>
<w:r><w:rPr><w:u w:val="none"/><w:b w:val="0"/></w:rPr><w:t xml:space="preserve"> plain</w:t></w:r></w:p>`
	doc, _ := importString(t, body, map[string]string{
		"word/_rels/document.xml.rels": documentRels(rel("rId1", "styles", "styles.xml")),
		"word/styles.xml":              styles,
	})

	if len(doc.Body) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Body))
	}
	h := doc.Paragraph(doc.Body[0])
	if h.HeadingLevel != 2 || h.Align != docmodel.AlignCenter {
		t.Errorf("expected centered level-2 heading, got level %d align %d", h.HeadingLevel, h.Align)
	}
	hr := h.Runs[0]
	if !hr.Bold || hr.Color != "112233" || hr.SizeHalfPt != 24 {
		t.Errorf("expected inherited bold/color/size, got %+v", hr)
	}

	p := doc.Paragraph(doc.Body[1])
	if p.Align != docmodel.AlignJustify || p.SpacingBefore != 120 || p.SpacingAfter != 240 || p.LineSpacing != 360 {
		t.Errorf("unexpected paragraph properties %+v", p)
	}
	if p.IndentLeft != 720 || p.IndentHanging != 360 {
		t.Errorf("expected left 720 hanging 360, got %d/%d", p.IndentLeft, p.IndentHanging)
	}
	r := p.Runs[0]
	if !r.Italic || !r.Underline || !r.Superscript || r.Highlight != "yellow" || r.Font != "Arial" {
		t.Errorf("unexpected run properties %+v", r)
	}
	if p.Runs[1].Underline || p.Runs[1].Bold || p.Runs[1].Text != " plain" {
		t.Errorf("expected plain second run, got %+v", p.Runs[1])
	}
}

func TestImportNumberingAndPageBreak(t *testing.T) {
	numbering := `<?xml version="1.0" encoding="UTF-8"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:numFmt w:val="decimal"/></w:lvl><w:lvl w:ilvl="1"><w:numFmt w:val="bullet"/></w:lvl></w:abstractNum>
<w:num w:numId="5"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`
	body := `<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="5"/></w:numPr></w:pPr><w:r><w:t>one</w:t><w:br w:type="page"/></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="1"/><w:numId w:val="5"/></w:numPr></w:pPr><w:r><w:t>two</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="0"/></w:numPr></w:pPr><w:r><w:t>none</w:t></w:r></w:p>`
	doc, _ := importString(t, body, map[string]string{
		"word/_rels/document.xml.rels": documentRels(rel("rId1", "numbering", "numbering.xml")),
		"word/numbering.xml":           numbering,
	})

	one, two, none := doc.Paragraph(doc.Body[0]), doc.Paragraph(doc.Body[1]), doc.Paragraph(doc.Body[2])
	if one.List == nil || !one.List.Ordered || one.List.NumID != "5" {
		t.Errorf("expected ordered list on first paragraph, got %+v", one.List)
	}
	if two.List == nil || two.List.Ordered || two.List.Level != 1 {
		t.Errorf("expected bullet level 1, got %+v", two.List)
	}
	if none.List != nil {
		t.Errorf("expected numId 0 to clear the list, got %+v", none.List)
	}
	if one.PageBreakBefore || !two.PageBreakBefore {
		t.Error("expected the page break to mark the following paragraph")
	}
}

func TestImportHeadersAndFooters(t *testing.T) {
	part := func(tag, text string) string {
		return `<?xml version="1.0" encoding="UTF-8"?><w:` + tag + ` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:` + tag + `>`
	}
	body := `<w:p><w:r><w:t>body</w:t></w:r></w:p>
<w:sectPr><w:headerReference w:type="default" r:id="rId2"/><w:headerReference w:type="first" r:id="rId3"/>
<w:footerReference w:type="default" r:id="rId4"/><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720"/></w:sectPr>`
	doc, _ := importString(t, body, map[string]string{
		"word/_rels/document.xml.rels": documentRels(
			rel("rId2", "header", "header1.xml"),
			rel("rId3", "header", "header2.xml"),
			rel("rId4", "footer", "footer1.xml"),
		),
		"word/header1.xml": part("hdr", "default header"),
		"word/header2.xml": part("hdr", "first header"),
		"word/footer1.xml": part("ftr", "footer"),
	})

	if got := doc.ParagraphTexts(); strings.Join(got, "|") != "first header|default header|body|footer" {
		t.Errorf("unexpected presentation order %q", got)
	}
	if doc.Page.Width != 12240 || doc.Page.MarginLeft != 720 {
		t.Errorf("expected letter geometry, got %+v", doc.Page)
	}
}

func TestRunTextFallbacks(t *testing.T) {
	body := `<w:p><w:r><mc:AlternateContent><mc:Choice><w:t>from choice</w:t></mc:Choice></mc:AlternateContent></w:r></w:p>
<w:p><w:r><w:x><w:t></w:t><w:t>seg1</w:t><w:t>seg2</w:t></w:x></w:r></w:p>
<w:p><w:r><w:t>direct</w:t><w:tab/><w:t>x</w:t><w:noBreakHyphen/></w:r></w:p>
<w:p><w:r><w:t></w:t></w:r></w:p>`
	doc, _ := importString(t, body, nil)

	want := []string{"from choice", "seg1seg2", "direct\tx‑", ""}
	for i, w := range want {
		p := doc.Paragraph(doc.Body[i])
		if got := p.Text(); got != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, got)
		}
	}
	if n := len(doc.Paragraph(doc.Body[3]).Runs); n != 0 {
		t.Errorf("expected empty run to be dropped, got %d runs", n)
	}
}

func TestPictureMissingRelationshipWarns(t *testing.T) {
	body := `<w:p><w:r><w:t>caption</w:t><w:drawing><wp:inline><wp:extent cx="9525" cy="9525"/><a:graphic><a:graphicData><a:blip r:embed="rId9"/></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`
	doc, c := importString(t, body, nil)

	p := doc.Paragraph(doc.Body[0])
	if len(p.Runs) != 1 || p.Runs[0].Text != "caption" || p.Runs[0].Image != nil {
		t.Errorf("expected text run without image, got %+v", p.Runs)
	}
	ws := c.Warnings()
	if len(ws) != 1 || ws[0].Component != importComponent || !strings.Contains(ws[0].Element, "rId9") {
		t.Errorf("expected one picture warning, got %v", c.Strings())
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPictureIntrinsicSize(t *testing.T) {
	body := `<w:p><w:r><w:pict><v:shape><v:imagedata r:id="rId7"/></v:shape></w:pict></w:r></w:p>`
	doc, c := importString(t, body, map[string]string{
		"word/_rels/document.xml.rels": documentRels(rel("rId7", "image", "media/pic.png")),
		"word/media/pic.png":           string(pngBytes(t, 3, 2)),
	})
	if len(c.Warnings()) != 0 {
		t.Fatalf("unexpected warnings %v", c.Strings())
	}
	p := doc.Paragraph(doc.Body[0])
	if len(p.Runs) != 1 || p.Runs[0].Image == nil {
		t.Fatalf("expected one image run, got %+v", p.Runs)
	}
	img := p.Runs[0].Image
	if img.Format != "png" || img.WidthEMU != 3*units.EMUPerPixel || img.HeightEMU != 2*units.EMUPerPixel {
		t.Errorf("unexpected image %s %dx%d", img.Format, img.WidthEMU, img.HeightEMU)
	}
}

func TestPictureRoundTrip(t *testing.T) {
	data := pngBytes(t, 4, 4)
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Image: &docmodel.Image{
		Data: data, Format: "png", WidthEMU: units.PixelsToEMU(100), HeightEMU: units.PixelsToEMU(50),
	}}}})
	out, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportBytes(context.Background(), out, ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	img := got.Paragraph(got.Body[0]).Runs[0].Image
	if img == nil || !bytes.Equal(img.Data, data) {
		t.Fatal("expected image bytes to survive export")
	}
	if units.EMUToPixels(img.WidthEMU) != 100 || units.EMUToPixels(img.HeightEMU) != 50 {
		t.Errorf("expected 100x50 px, got %dx%d EMU", img.WidthEMU, img.HeightEMU)
	}
}

func TestImportCancelled(t *testing.T) {
	files := map[string]string{"word/document.xml": docHead + `<w:p/>` + docTail}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ImportBytes(ctx, buildPackage(t, files), ImportOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestImportDepthCap(t *testing.T) {
	var sb strings.Builder
	levels := docmodel.MaxDepth + 3
	for i := 0; i < levels; i++ {
		sb.WriteString("<w:tbl><w:tr><w:tc>")
	}
	sb.WriteString("<w:p><w:r><w:t>bottom</w:t></w:r></w:p>")
	for i := 0; i < levels; i++ {
		sb.WriteString("</w:tc></w:tr></w:tbl>")
	}
	doc, c := importString(t, sb.String(), nil)
	if len(c.Warnings()) == 0 {
		t.Error("expected a depth warning")
	}
	if err := doc.Walk(doc.Body, func(docmodel.BlockRef, int) error { return nil }); err != nil {
		t.Errorf("expected imported tree within depth cap, got %v", err)
	}
}

func TestProbeAndPlainText(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{HeadingLevel: 1, Runs: []docmodel.Run{{Text: "Title"}}})
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "quiet "}, {Text: "loud", AllCaps: true}}})
	data, err := ExportBytes(context.Background(), doc, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	res, err := Probe(data)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(res.Paragraphs) < 2 || res.Paragraphs[0] != "Title" || res.Paragraphs[1] != "quiet loud" {
		t.Errorf("unexpected probe paragraphs %q", res.Paragraphs)
	}

	if got := PlainText(doc); got != "Title\nquiet LOUD" {
		t.Errorf("expected %q, got %q", "Title\nquiet LOUD", got)
	}

	if _, err := Probe([]byte("nope")); !diag.IsFormat(err) {
		t.Errorf("expected FormatError, got %v", err)
	}
}
