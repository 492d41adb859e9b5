package docmodel

import (
	"errors"
	"testing"
)

func TestWalkVisitsNestedCellsInOrder(t *testing.T) {
	d := New()
	d.AppendParagraph(Paragraph{Runs: []Run{{Text: "a"}}})

	inner := d.AddParagraph(Paragraph{Runs: []Run{{Text: "c"}}})
	nested := d.AddTable(Table{Rows: []Row{{Cells: []Cell{{Content: []BlockRef{inner}}}}}})
	cellPara := d.AddParagraph(Paragraph{Runs: []Run{{Text: "b"}}})
	outer := d.AddTable(Table{Rows: []Row{{Cells: []Cell{{Content: []BlockRef{cellPara, nested}}}}}})
	d.Body = append(d.Body, outer)
	d.AppendParagraph(Paragraph{Runs: []Run{{Text: "d"}}})

	d.Header = []BlockRef{d.AddParagraph(Paragraph{Runs: []Run{{Text: "H"}}})}
	d.Footer = []BlockRef{d.AddParagraph(Paragraph{Runs: []Run{{Text: "F"}}})}

	if got := d.Text(); got != "HabcdF" {
		t.Errorf("expected %q, got %q", "HabcdF", got)
	}

	var depths []int
	_ = d.Walk(d.Body, func(ref BlockRef, depth int) error {
		if ref.Kind == KindParagraph {
			depths = append(depths, depth)
		}
		return nil
	})
	want := []int{0, 1, 2, 0}
	if len(depths) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(depths))
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Errorf("paragraph %d: expected depth %d, got %d", i, want[i], depths[i])
		}
	}
}

func TestWalkDepthCap(t *testing.T) {
	d := New()
	ref := d.AddParagraph(Paragraph{})
	for i := 0; i < MaxDepth+2; i++ {
		ref = d.AddTable(Table{Rows: []Row{{Cells: []Cell{{Content: []BlockRef{ref}}}}}})
	}
	d.Body = []BlockRef{ref}
	err := d.Walk(d.Body, func(BlockRef, int) error { return nil })
	if !errors.Is(err, ErrTooDeep) {
		t.Errorf("expected ErrTooDeep, got %v", err)
	}
}

func TestAccessorsRejectBadRefs(t *testing.T) {
	d := New()
	p := d.AddParagraph(Paragraph{})
	if d.Table(p) != nil {
		t.Error("expected nil table for paragraph ref")
	}
	if d.Paragraph(BlockRef{Kind: KindParagraph, Index: 5}) != nil {
		t.Error("expected nil for out-of-range ref")
	}
}

func TestTableColumnsHonorSpan(t *testing.T) {
	tbl := Table{Rows: []Row{
		{Cells: []Cell{{GridSpan: 2}, {}}},
		{Cells: []Cell{{}, {}, {}, {GridSpan: 0}}},
	}}
	if got := tbl.Columns(); got != 4 {
		t.Errorf("expected 4 columns, got %d", got)
	}
	if got := tbl.Rows[0].GridColumns(); got != 3 {
		t.Errorf("expected first row to span 3 columns, got %d", got)
	}
}

func TestParagraphIsEmpty(t *testing.T) {
	if !(&Paragraph{Runs: []Run{{Text: ""}}}).IsEmpty() {
		t.Error("expected paragraph with empty run to be empty")
	}
	if (&Paragraph{Runs: []Run{{Image: &Image{Data: []byte{1}}}}}).IsEmpty() {
		t.Error("expected image paragraph to be non-empty")
	}
}

func TestHeadingLevelForStyle(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading 3", 3},
		{"Title", 1},
		{"Heading7", 0},
		{"Normal", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := HeadingLevelForStyle(tt.style); got != tt.want {
			t.Errorf("style=%q: expected %d, got %d", tt.style, tt.want, got)
		}
	}
}

func TestNewBorderDefaults(t *testing.T) {
	b := NewBorder(4, "auto", "")
	if b.Color != "000000" || b.Style != "single" {
		t.Errorf("expected black single border, got %+v", b)
	}
}

func TestImageMIME(t *testing.T) {
	tests := []struct{ format, mime, ext string }{
		{"png", "image/png", "png"},
		{"jpeg", "image/jpeg", "jpeg"},
		{"jpg", "image/jpeg", "jpeg"},
		{"tif", "image/tiff", "tiff"},
		{"", "image/png", "png"},
	}
	for _, tt := range tests {
		img := &Image{Format: tt.format}
		if img.MIMEType() != tt.mime || img.Extension() != tt.ext {
			t.Errorf("format=%q: expected %s/%s, got %s/%s", tt.format, tt.mime, tt.ext, img.MIMEType(), img.Extension())
		}
	}
}
