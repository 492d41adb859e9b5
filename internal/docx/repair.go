package docx

import "github.com/dgallion1/docxedit/internal/docmodel"

// MinLineSpacing is the smallest line spacing a repaired paragraph carries.
const MinLineSpacing = 24

// RepairReport counts what Repair changed.
type RepairReport struct {
	LineSpacingFixed    int
	DroppedLeadingEmpty bool
	AddedPlaceholder    bool
	TrailingParagraph   bool
	RunsSynthesized     int
	CellsFilled         int
}

// Changed reports whether Repair modified the document.
func (r RepairReport) Changed() bool {
	return r != RepairReport{}
}

// Repair fixes the invariant violations that make package readers reject a
// document. Running it on a repaired document changes nothing.
func Repair(doc *docmodel.Document) RepairReport {
	var rep RepairReport

	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		if p.LineSpacing < 0 {
			p.LineSpacing = max(-p.LineSpacing, MinLineSpacing)
			rep.LineSpacingFixed++
		}
	}

	// A conversion artifact: an empty paragraph opened before the first
	// real content. Only dropped when real content follows it directly.
	if len(doc.Body) > 1 && isBlank(doc, doc.Body[0]) && !isBlank(doc, doc.Body[1]) {
		doc.Body = doc.Body[1:]
		rep.DroppedLeadingEmpty = true
	}

	for ti := range doc.Tables {
		for ri := range doc.Tables[ti].Rows {
			for ci := range doc.Tables[ti].Rows[ri].Cells {
				c := &doc.Tables[ti].Rows[ri].Cells[ci]
				if n := len(c.Content); n == 0 || c.Content[n-1].Kind != docmodel.KindParagraph {
					ref := doc.AddParagraph(docmodel.Paragraph{})
					c = &doc.Tables[ti].Rows[ri].Cells[ci]
					c.Content = append(c.Content, ref)
					rep.CellsFilled++
				}
			}
		}
	}

	// Packages need a paragraph somewhere, and the body may not end in a
	// table. Cell paragraphs count; the space placeholder is only for a
	// document with none at all.
	hasParagraph := false
	_ = doc.Walk(doc.Body, func(ref docmodel.BlockRef, _ int) error {
		if doc.Paragraph(ref) != nil {
			hasParagraph = true
		}
		return nil
	})
	switch {
	case !hasParagraph:
		doc.AppendParagraph(docmodel.Paragraph{Runs: []docmodel.Run{{Text: " "}}})
		rep.AddedPlaceholder = true
	case doc.Body[len(doc.Body)-1].Kind != docmodel.KindParagraph:
		doc.AppendParagraph(docmodel.Paragraph{})
		rep.TrailingParagraph = true
	}

	for i := range doc.Paragraphs {
		if len(doc.Paragraphs[i].Runs) == 0 {
			doc.Paragraphs[i].Runs = []docmodel.Run{{}}
			rep.RunsSynthesized++
		}
	}
	return rep
}

// isBlank reports a paragraph with no text, no picture and no visible
// decoration.
func isBlank(doc *docmodel.Document, ref docmodel.BlockRef) bool {
	p := doc.Paragraph(ref)
	if p == nil || !p.IsEmpty() {
		return false
	}
	return p.Borders == nil && p.Shading == "" && !p.PageBreakBefore && p.List == nil
}
