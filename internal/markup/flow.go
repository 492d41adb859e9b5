package markup

import (
	"strings"

	"github.com/dgallion1/docxedit/internal/docmodel"
)

// flow is one content list under construction: the document body, header
// or footer, or a single table cell. At most one paragraph is open at a
// time; text lands in it until a block boundary closes it.
type flow struct {
	doc  *docmodel.Document
	refs []docmodel.BlockRef
	open int // index into doc.Paragraphs, -1 when closed

	// marker is set while the open paragraph holds only a list marker.
	marker bool
}

func newFlow(doc *docmodel.Document) *flow {
	return &flow{doc: doc, open: -1}
}

// start closes any open paragraph and opens a new one from tpl.
func (f *flow) start(tpl docmodel.Paragraph) int {
	f.close()
	if tpl.Borders != nil {
		b := *tpl.Borders
		tpl.Borders = &b
	}
	tpl.Runs = nil
	ref := f.doc.AddParagraph(tpl)
	f.refs = append(f.refs, ref)
	f.open = ref.Index
	f.marker = false
	return ref.Index
}

// ensure returns the open paragraph, opening one from tpl if needed.
func (f *flow) ensure(tpl docmodel.Paragraph) int {
	if f.open >= 0 {
		return f.open
	}
	return f.start(tpl)
}

func (f *flow) para(idx int) *docmodel.Paragraph {
	return &f.doc.Paragraphs[idx]
}

// close ends the open paragraph, dropping whitespace left at its end by
// collapsing.
func (f *flow) close() {
	if f.open < 0 {
		return
	}
	p := f.para(f.open)
	for i := len(p.Runs) - 1; i >= 0; i-- {
		r := &p.Runs[i]
		if r.Image != nil {
			break
		}
		r.Text = strings.TrimRight(r.Text, " ")
		if r.Text != "" {
			break
		}
		p.Runs = append(p.Runs[:i], p.Runs[i+1:]...)
	}
	f.open = -1
	f.marker = false
}

// add appends a finished block after closing the open paragraph.
func (f *flow) add(ref docmodel.BlockRef) {
	f.close()
	f.refs = append(f.refs, ref)
}

// endsWithParagraph reports whether the list ends in a paragraph.
func (f *flow) endsWithParagraph() bool {
	return len(f.refs) > 0 && f.refs[len(f.refs)-1].Kind == docmodel.KindParagraph
}

// lastChar returns the final character of the open paragraph's text, or 0
// when nothing has been written yet.
func (f *flow) lastChar() byte {
	if f.open < 0 {
		return 0
	}
	p := f.para(f.open)
	for i := len(p.Runs) - 1; i >= 0; i-- {
		if p.Runs[i].Image != nil {
			return 'x'
		}
		if t := p.Runs[i].Text; t != "" {
			return t[len(t)-1]
		}
	}
	return 0
}
