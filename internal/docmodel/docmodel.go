// Package docmodel is the format-neutral document representation shared by
// the package importer, markup renderer, markup importer and exporter.
//
// Paragraphs and tables live in two arenas owned by the Document. Every
// content list (body, header, footer, table cell) is a slice of BlockRef
// indexes into those arenas, so nesting never requires pointers between
// blocks.
package docmodel

import "strings"

// MaxDepth bounds table-in-cell nesting for every walker and importer.
const MaxDepth = 32

// BlockKind discriminates the arena a BlockRef points into.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindTable
)

// BlockRef addresses a paragraph or table in a Document's arenas.
type BlockRef struct {
	Kind  BlockKind
	Index int
}

// Alignment is a paragraph's horizontal alignment.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
	AlignJustify
)

// LineRule says how Paragraph.LineSpacing is interpreted.
type LineRule int

const (
	// LineAuto measures spacing in 240ths of a line (240 = single).
	LineAuto LineRule = iota
	// LineExact measures spacing in twips.
	LineExact
	// LineAtLeast measures a minimum spacing in twips.
	LineAtLeast
)

// VAlign is a cell's vertical alignment.
type VAlign int

const (
	VAlignTop VAlign = iota
	VAlignCenter
	VAlignBottom
)

// Document is one conversion's in-memory representation.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table

	Header []BlockRef
	Body   []BlockRef
	Footer []BlockRef

	Page PageGeometry
}

// New returns an empty document with A4 page geometry.
func New() *Document {
	return &Document{Page: A4()}
}

// Paragraph is a block of runs.
type Paragraph struct {
	Runs []Run

	Align         Alignment
	SpacingBefore int // twips
	SpacingAfter  int // twips
	LineSpacing   int
	LineRule      LineRule

	IndentLeft      int // twips
	IndentRight     int // twips
	IndentFirstLine int // twips
	IndentHanging   int // twips

	List            *ListRef
	PageBreakBefore bool
	Shading         string // hex RGB fill, empty for none
	Borders         *BorderSet
	StyleID         string
	HeadingLevel    int // 1-6, 0 for body text
}

// ListRef is an opaque numbering association.
type ListRef struct {
	NumID   string
	Level   int
	Ordered bool
}

// Text concatenates the paragraph's run texts.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for i := range p.Runs {
		sb.WriteString(p.Runs[i].Text)
	}
	return sb.String()
}

// IsEmpty reports whether the paragraph has no visible content.
func (p *Paragraph) IsEmpty() bool {
	for i := range p.Runs {
		if p.Runs[i].Text != "" || p.Runs[i].Image != nil {
			return false
		}
	}
	return true
}

// Run is the smallest styled unit: text or a single image.
type Run struct {
	Text string

	Bold         bool
	Italic       bool
	Underline    bool
	Strike       bool
	DoubleStrike bool
	Superscript  bool
	Subscript    bool
	SmallCaps    bool
	AllCaps      bool

	Font       string
	SizeHalfPt int    // 0 when unset
	Color      string // hex RGB without '#', empty when unset
	Highlight  string // highlight name, empty when unset

	Image *Image
}

// IsEmpty reports a run with neither text nor image.
func (r *Run) IsEmpty() bool {
	return r.Text == "" && r.Image == nil
}

// Image is an embedded picture.
type Image struct {
	Data      []byte
	Format    string // png, jpeg, gif, bmp, tiff, webp, emf, wmf, svg
	WidthEMU  int64
	HeightEMU int64
}

// MIMEType returns the image's media type.
func (i *Image) MIMEType() string {
	switch i.Format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff", "tif":
		return "image/tiff"
	case "webp":
		return "image/webp"
	case "emf":
		return "image/x-emf"
	case "wmf":
		return "image/x-wmf"
	case "svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// Extension returns the file extension used for the image part.
func (i *Image) Extension() string {
	switch i.Format {
	case "jpeg", "jpg":
		return "jpeg"
	case "gif", "bmp", "webp", "emf", "wmf", "svg":
		return i.Format
	case "tiff", "tif":
		return "tiff"
	default:
		return "png"
	}
}

// Table is a grid of rows.
type Table struct {
	Rows        []Row
	Borders     *BorderSet
	WidthTwips  int
	Align       Alignment
	IndentTwips int
}

// Columns returns the grid column count of the widest row, honoring spans.
func (t *Table) Columns() int {
	max := 0
	for _, row := range t.Rows {
		n := row.GridColumns()
		if n > max {
			max = n
		}
	}
	return max
}

// Row is one table row.
type Row struct {
	Cells       []Cell
	HeightTwips int
	Header      bool
}

// GridColumns counts the grid columns the row consumes.
func (r *Row) GridColumns() int {
	n := 0
	for _, c := range r.Cells {
		n += c.Span()
	}
	return n
}

// Cell holds block content.
type Cell struct {
	Content    []BlockRef
	WidthTwips int
	Fill       string
	Borders    *BorderSet
	GridSpan   int
	VAlign     VAlign
	Margins    *CellMargins
}

// Span returns the cell's grid span, at least 1.
func (c *Cell) Span() int {
	if c.GridSpan < 1 {
		return 1
	}
	return c.GridSpan
}

// CellMargins overrides a cell's padding, in twips.
type CellMargins struct {
	Top, Left, Bottom, Right int
}

// Border is one side of a box.
type Border struct {
	Size  int    // eighths of a point
	Color string // hex RGB
	Style string
}

// BorderSet groups per-side borders. Nil sides are absent.
type BorderSet struct {
	Top, Left, Bottom, Right *Border
	InsideH, InsideV         *Border
}

// NewBorder returns a border with the format's defaults filled in.
func NewBorder(size int, color, style string) *Border {
	if color == "" || strings.EqualFold(color, "auto") {
		color = "000000"
	}
	if style == "" {
		style = "single"
	}
	return &Border{Size: size, Color: color, Style: style}
}

// PageGeometry is measured in twips.
type PageGeometry struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
}

// A4 is the only page size this engine writes by default.
func A4() PageGeometry {
	return PageGeometry{
		Width:        11906,
		Height:       16838,
		MarginTop:    1440,
		MarginRight:  1440,
		MarginBottom: 1440,
		MarginLeft:   1440,
	}
}

// IsZero reports geometry that was never set.
func (g PageGeometry) IsZero() bool {
	return g == PageGeometry{}
}
