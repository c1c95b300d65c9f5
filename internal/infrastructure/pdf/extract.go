package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

const (
	// Some producers emit the same glyph several times at near-identical
	// coordinates to fake bold weight. Glyphs whose rounded position and
	// literal text match within this tolerance collapse into one.
	positionTolerance = 2.0

	// Glyphs whose vertical distance from a line's anchor glyph stays
	// within this tolerance belong to the same line.
	lineTolerance = 5.0
)

// ExtractPageText reconstructs ordered text from positioned glyphs and then
// applies the repeated-run collapse pass per line.
func ExtractPageText(glyphs []domain.Glyph) string {
	lines := AssembleLines(glyphs)
	for i, line := range lines {
		lines[i] = CollapseRepeatedRuns(line)
	}
	return strings.Join(lines, "\n")
}

// AssembleLines performs position dedup, top-down line grouping and
// left-to-right ordering inside a line. It does not run the lossy
// repeated-run collapse.
func AssembleLines(glyphs []domain.Glyph) []string {
	glyphs = dedupeByPosition(glyphs)
	if len(glyphs) == 0 {
		return nil
	}

	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Top < glyphs[j].Top
	})

	var lines [][]domain.Glyph
	current := []domain.Glyph{glyphs[0]}
	for _, g := range glyphs[1:] {
		if math.Abs(g.Top-current[0].Top) <= lineTolerance {
			current = append(current, g)
		} else {
			lines = append(lines, current)
			current = []domain.Glyph{g}
		}
	}
	lines = append(lines, current)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		// Hebrew is stored in visual order already, so a plain
		// left-to-right sort yields correct RTL text on screen.
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})
		var b strings.Builder
		for _, g := range line {
			b.WriteString(g.Text)
		}
		out = append(out, b.String())
	}
	return out
}

func dedupeByPosition(glyphs []domain.Glyph) []domain.Glyph {
	type posKey struct {
		x, top int
		text   string
	}
	seen := make(map[posKey]struct{}, len(glyphs))
	out := make([]domain.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		key := posKey{
			x:    int(math.Floor(g.X / positionTolerance)),
			top:  int(math.Floor(g.Top / positionTolerance)),
			text: g.Text,
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}

// CollapseRepeatedRuns removes character runs left over from the bold-glyph
// duplication defect. Hebrew-block runes collapse at 2+ repeats; anything
// else only at 4+, so legitimate digit runs like "2,000,000" survive.
// The thresholds were tuned against observed producer defects; do not adjust
// them without new evidence.
func CollapseRepeatedRuns(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		r := runes[i]
		runLen := 1
		for i+runLen < len(runes) && runes[i+runLen] == r {
			runLen++
		}
		keep := runLen
		if isHebrew(r) {
			if runLen >= 2 {
				keep = 1
			}
		} else if runLen >= 4 {
			keep = 1
		}
		for k := 0; k < keep; k++ {
			b.WriteRune(r)
		}
		i += runLen
	}
	return b.String()
}

func isHebrew(r rune) bool {
	return r >= 0x0590 && r <= 0x05FF
}
