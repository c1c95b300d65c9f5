package pdf

import (
	"sort"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

// TableToMarkdown renders a detected cell grid as a markdown table: header
// row, a "---" delimiter row at header width, then data rows padded or
// truncated to the header width. Returns "" for empty grids.
func TableToMarkdown(rows [][]string) string {
	cleaned := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cleanCell(cell)
		}
		cleaned = append(cleaned, cells)
	}
	if len(cleaned) == 0 {
		return ""
	}

	width := len(cleaned[0])
	if width == 0 {
		return ""
	}

	lines := make([]string, 0, len(cleaned)+1)
	lines = append(lines, "| "+strings.Join(cleaned[0], " | ")+" |")

	delims := make([]string, width)
	for i := range delims {
		delims[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(delims, " | ")+" |")

	for _, row := range cleaned[1:] {
		for len(row) < width {
			row = append(row, "")
		}
		lines = append(lines, "| "+strings.Join(row[:width], " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

func cleanCell(cell string) string {
	text := strings.TrimSpace(cell)
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = CollapseRepeatedRuns(text)
	// Pipes are the markdown column delimiter.
	return strings.ReplaceAll(text, "|", "\\|")
}

type pageElement struct {
	y       float64
	content string
}

// mergeByPosition interleaves the prose block with rendered tables in
// reading order. Prose is anchored at y=0, i.e. assumed to precede tables on
// a mixed page; tables sort by the top edge of their bounding box.
func mergeByPosition(prose string, tables []domain.PageTable) string {
	elements := make([]pageElement, 0, len(tables)+1)
	for _, t := range tables {
		md := TableToMarkdown(t.Rows)
		if md == "" {
			continue
		}
		elements = append(elements, pageElement{y: t.BBox.Y0, content: md})
	}
	if prose != "" {
		elements = append(elements, pageElement{y: 0, content: prose})
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].y < elements[j].y
	})

	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		parts = append(parts, e.content)
	}
	return strings.Join(parts, "\n\n")
}

// glyphsOutsideTables filters out glyphs whose anchor point falls inside any
// table bounding box.
func glyphsOutsideTables(glyphs []domain.Glyph, tables []domain.PageTable) []domain.Glyph {
	if len(tables) == 0 {
		return glyphs
	}
	out := make([]domain.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		inside := false
		for _, t := range tables {
			if t.BBox.Contains(g.X, g.Top) {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, g)
		}
	}
	return out
}
