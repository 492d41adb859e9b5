package parser

import (
	"context"
	"io"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
	"github.com/dgallion1/docxedit/internal/docx"
)

// DOCXParser handles .docx packages with the package importer.
type DOCXParser struct{}

func (p *DOCXParser) Parse(ctx context.Context, r io.Reader, filename string, sink diag.Sink) (*docmodel.Document, error) {
	// The package reader needs random access, so the stream is buffered.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.IO("read package", err)
	}
	return docx.ImportBytes(ctx, data, docx.ImportOptions{Sink: sink})
}
