package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/units"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"auto", "", false},
		{"", "", false},
		{"#ZZZZZZ", "", false},
		{"#abcdef", "ABCDEF", true},
		{"FF0000", "FF0000", true},
		{"#fff", "FFFFFF", true},
		{"12345", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseColor(%q): expected %q/%v, got %q/%v", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}

func TestInvalidColorsRenderAsDefault(t *testing.T) {
	doc := docmodel.New()
	for _, c := range []string{"auto", "", "#ZZZZZZ"} {
		doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "x", Color: c, Highlight: "chartreuse"}}})
	}
	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if s := string(out.HTML); strings.Contains(s, "color:") {
		t.Errorf("expected no color declarations, got %s", s)
	}
}

func TestPaginateOrderAndCoverage(t *testing.T) {
	tests := []struct {
		name    string
		breaks  []bool
		perPage int
		sizes   []int
	}{
		{"empty", nil, 3, nil},
		{"fits", []bool{false, false}, 3, []int{2}},
		{"cap", []bool{false, false, false, false, false, false, false}, 3, []int{3, 3, 1}},
		{"breaks", []bool{true, false, true, true, false}, 40, []int{1, 1, 2}},
		{"break on full page", []bool{false, false, false, true}, 3, []int{3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docmodel.New()
			for _, b := range tt.breaks {
				doc.AppendParagraph(docmodel.Paragraph{PageBreakBefore: b})
			}
			pages := Paginate(doc, doc.Body, tt.perPage)
			if len(pages) != len(tt.sizes) {
				t.Fatalf("expected %d pages, got %d", len(tt.sizes), len(pages))
			}
			var flat []docmodel.BlockRef
			for i, pg := range pages {
				if len(pg.Blocks) != tt.sizes[i] {
					t.Errorf("page %d: expected %d blocks, got %d", i, tt.sizes[i], len(pg.Blocks))
				}
				for j, ref := range pg.Blocks {
					if j > 0 && doc.Paragraph(ref).PageBreakBefore {
						t.Errorf("page %d: break paragraph at position %d", i, j)
					}
				}
				flat = append(flat, pg.Blocks...)
			}
			if len(flat) != len(doc.Body) {
				t.Fatalf("expected %d blocks total, got %d", len(doc.Body), len(flat))
			}
			for i := range flat {
				if flat[i] != doc.Body[i] {
					t.Errorf("position %d: expected %+v, got %+v", i, doc.Body[i], flat[i])
				}
			}
		})
	}
}

func TestRenderSimpleParagraph(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Align: docmodel.AlignCenter, Runs: []docmodel.Run{
		{Text: "Hello "},
		{Text: "World", Bold: true},
	}})
	out, err := Render(doc, Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	if !strings.Contains(s, "text-align:center") {
		t.Errorf("expected center alignment in %s", s)
	}
	if !strings.Contains(s, "Hello <b>World</b></p>") {
		t.Errorf("expected two-run markup in %s", s)
	}
	if !strings.HasPrefix(s, "<!DOCTYPE html>") || strings.Contains(s, "<script>") {
		t.Error("expected a full document without script")
	}
}

func TestRenderImage(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Image: &docmodel.Image{
		Data:      []byte{0, 0, 0},
		Format:    "png",
		WidthEMU:  units.PixelsToEMU(100),
		HeightEMU: units.PixelsToEMU(50),
	}}}})
	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<img src="data:image/png;base64,AAAA" width="100" height="50"`
	if !strings.Contains(string(out.HTML), want) {
		t.Errorf("expected %s in %s", want, out.HTML)
	}
}

func TestRenderRunFormatting(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{
		Text: "a<b>\tc\nd", Italic: true, Underline: true, DoubleStrike: true, Subscript: true,
		SizeHalfPt: 28, Font: "Times New Roman", Color: "00ff00", Highlight: "yellow", SmallCaps: true,
	}}})
	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	for _, want := range []string{
		"font-size:14pt", "font-family:&#39;Times New Roman&#39;", "color:#00FF00", "background-color:#FFFF00",
		"font-variant:small-caps", "<i><u><s style=\"text-decoration-style:double\"><sub>",
		"a&lt;b&gt;&nbsp;&nbsp;&nbsp;&nbsp;c<br/>d",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %s", want, s)
		}
	}
}

func TestRenderParagraphCSS(t *testing.T) {
	p := &docmodel.Paragraph{
		SpacingBefore: 240, SpacingAfter: -40, IndentLeft: 1440, IndentHanging: 360,
		LineSpacing: 360, Shading: "auto",
		Borders: &docmodel.BorderSet{Bottom: docmodel.NewBorder(8, "FF0000", "double")},
	}
	got := paragraphCSS(p)
	want := "margin-top:12pt;margin-bottom:0pt;margin-left:72pt;text-indent:-18pt;line-height:1.5;border-bottom:1.33px double #FF0000"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderListMarkers(t *testing.T) {
	doc := docmodel.New()
	for _, text := range []string{"one", "two", "three"} {
		doc.AppendParagraph(docmodel.Paragraph{List: &docmodel.ListRef{NumID: "1", Ordered: true}, Runs: []docmodel.Run{{Text: text}}})
	}
	doc.AppendParagraph(docmodel.Paragraph{List: &docmodel.ListRef{NumID: "2", Level: 1}, Runs: []docmodel.Run{{Text: "dot"}}})

	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	for _, want := range []string{">1. </span>one", ">2. </span>two", ">3. </span>three", ">• </span>dot", "margin-left:72pt"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %s", want, s)
		}
	}
}

func TestRenderPagedWithHeaderFooter(t *testing.T) {
	doc := docmodel.New()
	for _, text := range []string{"b1", "b2", "b3"} {
		doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: text}}})
	}
	doc.Header = []docmodel.BlockRef{doc.AddParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "HEAD"}}})}
	doc.Footer = []docmodel.BlockRef{doc.AddParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "FOOT"}}})}

	out, err := Render(doc, Options{Mode: ModePaged, MaxElementsPerPage: 2, Script: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	if n := strings.Count(s, `<div class="page">`); n != 2 {
		t.Errorf("expected 2 pages, got %d", n)
	}
	if len(out.Pages) != 2 {
		t.Errorf("expected 2 host pages, got %d", len(out.Pages))
	}
	if strings.Count(s, "HEAD") != 1 || strings.Count(s, "FOOT") != 1 {
		t.Error("expected header and footer exactly once")
	}
	order := []string{"HEAD", "b1", "b2", `<div class="page">`, "b3", "FOOT"}
	last := -1
	for _, w := range order {
		i := strings.Index(s[last+1:], w)
		if i < 0 {
			t.Fatalf("expected %q after position %d", w, last)
		}
		last += i + 1
	}
	if strings.Contains(s, "<script>") {
		t.Error("paged mode must not carry the pagination script")
	}
}

func TestRenderFlowScript(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{PageBreakBefore: true, Runs: []docmodel.Run{{Text: "x"}}})
	out, err := Render(doc, Options{Script: true, PageHeightPx: 900, OverflowMarginPx: 50})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	for _, want := range []string{`data-page-height="900"`, `data-overflow-margin="50"`, `data-page-break="before"`, "window.docxeditPaginate"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestRenderTables(t *testing.T) {
	doc := docmodel.New()
	inner := doc.AddTable(docmodel.Table{Rows: []docmodel.Row{{Cells: []docmodel.Cell{
		{Content: []docmodel.BlockRef{doc.AddParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "inner"}}})}},
	}}}})
	doc.Body = append(doc.Body, doc.AddTable(docmodel.Table{
		Borders: &docmodel.BorderSet{InsideH: docmodel.NewBorder(4, "", "")},
		Rows: []docmodel.Row{
			{Header: true, Cells: []docmodel.Cell{{GridSpan: 2, Fill: "EEEEEE", VAlign: docmodel.VAlignCenter}}},
			{Cells: []docmodel.Cell{{Content: []docmodel.BlockRef{inner}}, {}}},
		},
	}))
	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out.HTML)
	for _, want := range []string{`<td data-header="true" colspan="2"`, "background-color:#EEEEEE", "vertical-align:middle", "<td", "inner</p></td></tr></table>"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %s", want, s)
		}
	}
	if strings.Count(s, "<table") != 2 {
		t.Errorf("expected nested table, got %s", s)
	}
}

func TestRenderEmptyImageWarns(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Image: &docmodel.Image{}}}})
	var c diag.Collector
	if _, err := Render(doc, Options{Sink: c.Sink()}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(c.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", c.Strings())
	}
}

func TestMarkdown(t *testing.T) {
	doc := docmodel.New()
	doc.AppendParagraph(docmodel.Paragraph{HeadingLevel: 1, Runs: []docmodel.Run{{Text: "Title"}}})
	doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: "some "}, {Text: "bold", Bold: true}}})
	md, err := Markdown(doc)
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if !strings.Contains(md, "# Title") || !strings.Contains(md, "**bold**") {
		t.Errorf("unexpected markdown %q", md)
	}
}
