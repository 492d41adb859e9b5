package docx

import (
	"bytes"
	"fmt"
	"strings"

	godocx "github.com/fumiama/go-docx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/docxedit/internal/diag"
	"github.com/dgallion1/docxedit/internal/docmodel"
)

// ProbeResult describes a package as read by an independent parser.
type ProbeResult struct {
	Paragraphs []string `json:"paragraphs"`
	Headings   int      `json:"headings"`
	Tables     int      `json:"tables"`
}

// Probe checks that data is a readable package and lists its top-level
// paragraph texts. It does not build a Document and is used to answer "can
// this be opened" cheaply, and to cross-check exported packages.
func Probe(data []byte) (res *ProbeResult, err error) {
	defer func() {
		// go-docx panics on some malformed part layouts.
		if r := recover(); r != nil {
			res, err = nil, diag.Format("probe package", fmt.Errorf("%v", r))
		}
	}()

	doc, err := godocx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, diag.Format("probe package", err)
	}
	res = &ProbeResult{}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *godocx.Paragraph:
			if probeHeading(it) > 0 {
				res.Headings++
			}
			res.Paragraphs = append(res.Paragraphs, probeText(it))
		case *godocx.Table:
			res.Tables++
		}
	}
	return res, nil
}

func probeHeading(para *godocx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return docmodel.HeadingLevelForStyle(para.Properties.Style.Val)
}

func probeText(para *godocx.Paragraph) string {
	var buf strings.Builder
	for _, c := range para.Children {
		run, ok := c.(*godocx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*godocx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}

// PlainText renders doc as newline-separated paragraph text in
// presentation order. All-caps runs are upper-cased the way they display.
func PlainText(doc *docmodel.Document) string {
	upper := cases.Upper(language.Und)
	var sb strings.Builder
	first := true
	doc.EachParagraph(func(p *docmodel.Paragraph) {
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		for _, r := range p.Runs {
			if r.AllCaps || r.SmallCaps {
				sb.WriteString(upper.String(r.Text))
			} else {
				sb.WriteString(r.Text)
			}
		}
	})
	return sb.String()
}
