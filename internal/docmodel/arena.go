package docmodel

import (
	"errors"
	"strings"
)

// ErrTooDeep is returned by Walk when nesting exceeds MaxDepth.
var ErrTooDeep = errors.New("content nested deeper than the supported depth")

// AddParagraph stores p in the arena and returns its reference. The
// reference is not attached to any content list.
func (d *Document) AddParagraph(p Paragraph) BlockRef {
	d.Paragraphs = append(d.Paragraphs, p)
	return BlockRef{Kind: KindParagraph, Index: len(d.Paragraphs) - 1}
}

// AddTable stores t in the arena and returns its reference.
func (d *Document) AddTable(t Table) BlockRef {
	d.Tables = append(d.Tables, t)
	return BlockRef{Kind: KindTable, Index: len(d.Tables) - 1}
}

// AppendParagraph adds p to the arena and to the end of the body.
func (d *Document) AppendParagraph(p Paragraph) BlockRef {
	ref := d.AddParagraph(p)
	d.Body = append(d.Body, ref)
	return ref
}

// Paragraph returns the paragraph ref points to, or nil.
func (d *Document) Paragraph(ref BlockRef) *Paragraph {
	if ref.Kind != KindParagraph || ref.Index < 0 || ref.Index >= len(d.Paragraphs) {
		return nil
	}
	return &d.Paragraphs[ref.Index]
}

// Table returns the table ref points to, or nil.
func (d *Document) Table(ref BlockRef) *Table {
	if ref.Kind != KindTable || ref.Index < 0 || ref.Index >= len(d.Tables) {
		return nil
	}
	return &d.Tables[ref.Index]
}

// Visitor is called for every block reached by Walk. depth is 0 for the
// list passed to Walk and grows by one per table cell level.
type Visitor func(ref BlockRef, depth int) error

// Walk visits refs depth-first in document order, descending into table
// cells. It stops at the first visitor error and refuses to go deeper than
// MaxDepth.
func (d *Document) Walk(refs []BlockRef, fn Visitor) error {
	return d.walk(refs, 0, fn)
}

func (d *Document) walk(refs []BlockRef, depth int, fn Visitor) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	for _, ref := range refs {
		if err := fn(ref, depth); err != nil {
			return err
		}
		t := d.Table(ref)
		if t == nil {
			continue
		}
		for ri := range t.Rows {
			for ci := range t.Rows[ri].Cells {
				if err := d.walk(t.Rows[ri].Cells[ci].Content, depth+1, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Presentation returns header, body and footer references in the order
// they are presented.
func (d *Document) Presentation() []BlockRef {
	out := make([]BlockRef, 0, len(d.Header)+len(d.Body)+len(d.Footer))
	out = append(out, d.Header...)
	out = append(out, d.Body...)
	out = append(out, d.Footer...)
	return out
}

// Text concatenates every paragraph's text in presentation order, cells
// included, without separators.
func (d *Document) Text() string {
	var sb strings.Builder
	_ = d.Walk(d.Presentation(), func(ref BlockRef, _ int) error {
		if p := d.Paragraph(ref); p != nil {
			sb.WriteString(p.Text())
		}
		return nil
	})
	return sb.String()
}

// ParagraphTexts lists paragraph texts in presentation order.
func (d *Document) ParagraphTexts() []string {
	var out []string
	_ = d.Walk(d.Presentation(), func(ref BlockRef, _ int) error {
		if p := d.Paragraph(ref); p != nil {
			out = append(out, p.Text())
		}
		return nil
	})
	return out
}

// EachParagraph calls fn for every reachable paragraph: header, body,
// footer and all cell content.
func (d *Document) EachParagraph(fn func(p *Paragraph)) {
	_ = d.Walk(d.Presentation(), func(ref BlockRef, _ int) error {
		if p := d.Paragraph(ref); p != nil {
			fn(p)
		}
		return nil
	})
}

// HeadingLevelForStyle derives a heading level from a style id or name:
// "Heading2", "heading 2" and "Title" are recognized.
func HeadingLevelForStyle(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	rest := s[len("heading"):]
	if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}
