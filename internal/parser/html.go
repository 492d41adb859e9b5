package parser

import (
	"context"
	"io"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/markup"
)

// HTMLParser handles HTML files with the markup importer.
type HTMLParser struct {
	// Sanitize strips markup outside the editing vocabulary first.
	Sanitize bool
}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader, filename string, sink diag.Sink) (*docmodel.Document, error) {
	return markup.Import(ctx, r, markup.Options{Sanitize: p.Sanitize, Sink: sink})
}
