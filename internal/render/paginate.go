package render

import "github.com/dgallion1/docxedit/internal/docmodel"

// Page is one host-side page: a contiguous slice of the input blocks.
type Page struct {
	Blocks []docmodel.BlockRef
}

// Paginate partitions refs into pages greedily. A paragraph flagged
// page-break-before closes a non-empty page; otherwise a page closes once
// it holds perPage blocks. Pages concatenate back to refs exactly.
func Paginate(doc *docmodel.Document, refs []docmodel.BlockRef, perPage int) []Page {
	if perPage <= 0 {
		perPage = DefaultMaxElementsPerPage
	}
	var pages []Page
	var cur []docmodel.BlockRef
	for _, ref := range refs {
		if p := doc.Paragraph(ref); p != nil && p.PageBreakBefore && len(cur) > 0 {
			pages = append(pages, Page{Blocks: cur})
			cur = nil
		}
		cur = append(cur, ref)
		if len(cur) >= perPage {
			pages = append(pages, Page{Blocks: cur})
			cur = nil
		}
	}
	if len(cur) > 0 {
		pages = append(pages, Page{Blocks: cur})
	}
	return pages
}
