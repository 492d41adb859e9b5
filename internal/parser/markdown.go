package parser

import (
	"context"
	"io"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/markup"
)

// MarkdownParser handles Markdown files. goldmark renders GFM to HTML and
// the markup importer builds the document from that.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader, filename string, sink diag.Sink) (*docmodel.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.IO("read markdown", err)
	}
	return markup.ImportMarkdown(ctx, src, markup.Options{Sink: sink})
}
