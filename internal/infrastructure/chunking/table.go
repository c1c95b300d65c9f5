package chunking

import "strings"

// SplitTable splits a markdown table that exceeds the table token budget
// into row-aligned sub-chunks. Every sub-chunk starts with the header and
// delimiter rows; a data row is never split across chunks. A table fitting
// the budget whole is returned unchanged.
func (s *Splitter) SplitTable(markdown string) []string {
	lines := strings.Split(markdown, "\n")
	if len(lines) < 2 {
		return []string{markdown}
	}

	header := strings.Join(lines[:2], "\n")
	dataRows := lines[2:]
	if len(dataRows) == 0 {
		return []string{markdown}
	}

	if s.tokenizer.CountTokens(markdown) <= s.tableTokens {
		return []string{markdown}
	}

	headerTokens := s.tokenizer.CountTokens(header)
	if headerTokens >= s.tableTokens {
		// Header alone blows the budget; truncation is the only option.
		return []string{s.tokenizer.TruncateToTokens(markdown, s.tableTokens)}
	}

	var chunks []string
	var currentRows []string
	currentTokens := headerTokens

	for _, row := range dataRows {
		rowTokens := s.tokenizer.CountTokens(row)
		if currentTokens+rowTokens > s.tableTokens && len(currentRows) > 0 {
			chunks = append(chunks, header+"\n"+strings.Join(currentRows, "\n"))
			currentRows = []string{row}
			currentTokens = headerTokens + rowTokens
		} else {
			currentRows = append(currentRows, row)
			currentTokens += rowTokens
		}
	}
	if len(currentRows) > 0 {
		chunks = append(chunks, header+"\n"+strings.Join(currentRows, "\n"))
	}

	if len(chunks) == 0 {
		return []string{markdown}
	}
	return chunks
}
