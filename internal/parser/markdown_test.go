package parser

import (
	"context"
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader(input), "doc.md", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		text  string
		level int
	}{
		{"Title", 1},
		{"Intro text.", 0},
		{"Section A", 2},
		{"Section A content.", 0},
		{"Subsection A1", 3},
		{"Subsection A1 content.", 0},
	}
	if len(doc.Body) != len(want) {
		t.Fatalf("expected %d paragraphs, got %v", len(want), doc.ParagraphTexts())
	}
	for i, w := range want {
		p := doc.Paragraph(doc.Body[i])
		if p.Text() != w.text || p.HeadingLevel != w.level {
			t.Errorf("paragraph[%d]: expected %q level %d, got %q level %d", i, w.text, w.level, p.Text(), p.HeadingLevel)
		}
	}
}

func TestMarkdownParser_InlineFormatting(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader("plain *em* `code`"), "inline.md", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := doc.Paragraph(doc.Body[0]).Runs
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %+v", runs)
	}
	if !runs[1].Italic || runs[1].Text != "em" {
		t.Errorf("expected italic %q, got %+v", "em", runs[1])
	}
	if runs[3].Font != "Courier New" || runs[3].Text != "code" {
		t.Errorf("expected monospace %q, got %+v", "code", runs[3])
	}
}
