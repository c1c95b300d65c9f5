package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

const tablePlaceholderPrefix = "__TABLE_"

// tableDelimiterRow matches the markdown header/data separator line:
// a pipe followed by a run of dashes, colons, pipes and spaces.
var tableDelimiterRow = regexp.MustCompile(`^\|[\s\-:|]+$`)

func tablePlaceholder(index int) string {
	return fmt.Sprintf("%s%d__", tablePlaceholderPrefix, index)
}

// SplitTables strips markdown tables out of the assembled text, replacing
// each with a placeholder carrying the table's ordinal index (1-based). A
// table starts at a pipe-prefixed line whose next line is a delimiter row,
// and extends over every following pipe-prefixed line. Each TableBlock
// records the byte offset of the table's first line in the ORIGINAL text,
// not the placeholder's offset, so page attribution stays exact.
//
// Text containing no tables is returned unchanged with no blocks.
func SplitTables(text string) (string, []domain.TableBlock) {
	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + 1
	}

	var blocks []domain.TableBlock
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if !startsTable(lines, i) {
			out = append(out, lines[i])
			continue
		}

		start := i
		for i < len(lines) && isTableLine(lines[i]) {
			i++
		}

		index := len(blocks) + 1
		blocks = append(blocks, domain.TableBlock{
			Markdown:    strings.Join(lines[start:i], "\n"),
			StartOffset: offsets[start],
			TableIndex:  index,
		})
		out = append(out, tablePlaceholder(index))
		i--
	}

	if len(blocks) == 0 {
		return text, nil
	}
	return strings.Join(out, "\n"), blocks
}

func startsTable(lines []string, i int) bool {
	if !isTableLine(lines[i]) || i+1 >= len(lines) {
		return false
	}
	return tableDelimiterRow.MatchString(strings.TrimSpace(lines[i+1]))
}

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}
