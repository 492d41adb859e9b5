package parser

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
)

// TextParser handles plain text files. Blank lines separate paragraphs;
// line breaks inside a paragraph are kept as breaks.
type TextParser struct{}

func (p *TextParser) Parse(ctx context.Context, r io.Reader, filename string, sink diag.Sink) (*docmodel.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, diag.IO("read text", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := docmodel.New()
	for _, para := range paragraphs {
		doc.AppendParagraph(textParagraph(para))
	}
	return doc, nil
}
