package domain

// Glyph is a single positioned character from a PDF page. X is the left edge
// of the glyph box, Top the distance from the top of the page.
type Glyph struct {
	Text string
	X    float64
	Top  float64
}

// BBox is a table bounding box in page coordinates: (X0, Y0) top-left,
// (X1, Y1) bottom-right.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the anchor point (x, top) falls inside the box.
// Bounds are inclusive; there is no tolerance.
func (b BBox) Contains(x, top float64) bool {
	return b.X0 <= x && x <= b.X1 && b.Y0 <= top && top <= b.Y1
}

// PageTable is a geometrically detected table: its bounding box and the raw
// cell grid as reported by the geometry source.
type PageTable struct {
	BBox BBox
	Rows [][]string
}

// PageRecord is the ordered text of one PDF page. Immutable once produced.
type PageRecord struct {
	Content    string
	PageNumber int
	SourcePath string
}

// PageRange maps a page number onto an offset interval [Start, End) of the
// assembled full-document text. Ranges are contiguous, non-overlapping and
// tile the whole text.
type PageRange struct {
	Page  int
	Start int
	End   int
}

// TableBlock is a markdown table stripped out of the assembled text, together
// with the byte offset where it began in the original text.
type TableBlock struct {
	Markdown    string
	StartOffset int
	TableIndex  int
}
