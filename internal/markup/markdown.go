package markup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/docxedit/internal/docmodel"
)

// ImportMarkdown converts GitHub-flavored Markdown to HTML and imports the
// result. Raw HTML embedded in the source is dropped.
func ImportMarkdown(ctx context.Context, src []byte, opts Options) (*docmodel.Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return Import(ctx, &buf, opts)
}
