package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
)

// CSVParser handles CSV files as a single table whose first record is the
// header row. Ragged records are padded to the header width.
type CSVParser struct{}

func (p *CSVParser) Parse(ctx context.Context, r io.Reader, filename string, sink diag.Sink) (*docmodel.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, diag.Format("parse csv", err)
		}
		return nil, diag.IO("read csv", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := docmodel.New()
	if len(records) == 0 {
		return doc, nil
	}

	cols := len(records[0])
	var t docmodel.Table
	for i, record := range records {
		row := docmodel.Row{Header: i == 0}
		for j := 0; j < max(cols, len(record)); j++ {
			var text string
			if j < len(record) {
				text = record[j]
			}
			para := textParagraph(text)
			if row.Header {
				para.Runs[0].Bold = true
			}
			row.Cells = append(row.Cells, docmodel.Cell{
				Content: []docmodel.BlockRef{doc.AddParagraph(para)},
			})
		}
		t.Rows = append(t.Rows, row)
	}
	doc.Body = append(doc.Body, doc.AddTable(t))
	return doc, nil
}
