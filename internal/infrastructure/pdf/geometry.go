package pdf

import (
	"fmt"
	"os"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/model"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// GeometrySource reads glyph positions through ledongthuc/pdf and table
// regions through tabula's lattice analysis. Pages are addressed 1-based.
type GeometrySource struct{}

func NewGeometrySource() *GeometrySource {
	return &GeometrySource{}
}

func (GeometrySource) Open(path string) (ports.PageGeometryDocument, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	// Table analysis is best effort: a document tabula cannot lay out is
	// still extracted glyph-only.
	var tablesByPage map[int][]domain.PageTable
	if doc, _, derr := tabula.Open(path).Document(); derr == nil && doc != nil {
		tablesByPage = collectTables(doc)
	}

	return &geometryDocument{
		file:         f,
		reader:       reader,
		tablesByPage: tablesByPage,
	}, nil
}

type geometryDocument struct {
	file         *os.File
	reader       *pdflib.Reader
	tablesByPage map[int][]domain.PageTable
}

func (d *geometryDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *geometryDocument) Glyphs(page int) ([]domain.Glyph, error) {
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	// Content streams report y from the bottom edge; the pipeline works in
	// top-down coordinates like the table analysis does.
	height := pageHeight(p)
	content := p.Content()
	glyphs := make([]domain.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, domain.Glyph{
			Text: t.S,
			X:    t.X,
			Top:  height - t.Y,
		})
	}
	return glyphs, nil
}

func (d *geometryDocument) Tables(page int) ([]domain.PageTable, error) {
	return d.tablesByPage[page], nil
}

func (d *geometryDocument) Close() error {
	return d.file.Close()
}

const defaultPageHeight = 792 // US Letter in points

func pageHeight(p pdflib.Page) float64 {
	mb := p.V.Key("MediaBox")
	if mb.Kind() != pdflib.Array || mb.Len() != 4 {
		return defaultPageHeight
	}
	h := mb.Index(3).Float64() - mb.Index(1).Float64()
	if h <= 0 {
		return defaultPageHeight
	}
	return h
}

func collectTables(doc *model.Document) map[int][]domain.PageTable {
	out := make(map[int][]domain.PageTable, len(doc.Pages))
	for _, page := range doc.Pages {
		for _, table := range page.ExtractTables() {
			rows := make([][]string, 0, len(table.Rows))
			for _, row := range table.Rows {
				cells := make([]string, 0, len(row))
				for _, cell := range row {
					cells = append(cells, cell.Text)
				}
				rows = append(rows, cells)
			}
			out[page.Number] = append(out[page.Number], domain.PageTable{
				BBox: toTopOrigin(table.BBox, page.Height),
				Rows: rows,
			})
		}
	}
	return out
}

// toTopOrigin flips a bottom-origin PDF box into top-down coordinates.
func toTopOrigin(b model.BBox, pageHeight float64) domain.BBox {
	return domain.BBox{
		X0: b.X,
		Y0: pageHeight - (b.Y + b.Height),
		X1: b.X + b.Width,
		Y1: pageHeight - b.Y,
	}
}
