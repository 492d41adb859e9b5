package parser

import (
	"context"
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader(input), "notes.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	got := doc.ParagraphTexts()
	if len(got) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, got[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader(""), "empty.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Body) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(doc.Body))
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader("Hello world"), "single.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Body) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(doc.Body))
	}
	if got := doc.Text(); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader(input), "gaps.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Body) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Body))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\r\n   \r\nPara two.\r\n"
	p := &TextParser{}
	doc, err := p.Parse(context.Background(), strings.NewReader(input), "ws.txt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(doc.ParagraphTexts(), "|"); got != "Para one.|Para two." {
		t.Errorf("expected %q, got %q", "Para one.|Para two.", got)
	}
}
