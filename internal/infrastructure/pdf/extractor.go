package pdf

import (
	"fmt"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// Extractor converts PDF files into per-page text records using a geometry
// source. Tables detected on a page are rendered as markdown and merged with
// the surrounding prose in reading order.
type Extractor struct {
	geometry ports.PageGeometry
}

func NewExtractor(geometry ports.PageGeometry) *Extractor {
	return &Extractor{geometry: geometry}
}

func (e *Extractor) ExtractFile(path string) ([]domain.PageRecord, error) {
	doc, err := e.geometry.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf geometry: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPages()
	records := make([]domain.PageRecord, 0, numPages)
	for page := 1; page <= numPages; page++ {
		content, err := e.extractPage(doc, page)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", page, err)
		}
		records = append(records, domain.PageRecord{
			Content:    content,
			PageNumber: page,
			SourcePath: path,
		})
	}
	return records, nil
}

func (e *Extractor) extractPage(doc ports.PageGeometryDocument, page int) (string, error) {
	glyphs, err := doc.Glyphs(page)
	if err != nil {
		return "", fmt.Errorf("page glyphs: %w", err)
	}
	tables, err := doc.Tables(page)
	if err != nil {
		return "", fmt.Errorf("page tables: %w", err)
	}

	if len(tables) == 0 {
		return strings.TrimSpace(ExtractPageText(glyphs)), nil
	}

	prose := strings.TrimSpace(ExtractPageText(glyphsOutsideTables(glyphs, tables)))
	return mergeByPosition(prose, tables), nil
}
