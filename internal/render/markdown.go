package render

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/dgallion1/docxedit/internal/docmodel"
)

// Markdown renders doc as a flow fragment and converts it to Markdown.
// Styling that Markdown cannot express is dropped.
func Markdown(doc *docmodel.Document) (string, error) {
	out, err := Render(doc, Options{Fragment: true})
	if err != nil {
		return "", err
	}
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(string(out.HTML))
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return md, nil
}
