package chunking

import (
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// Separator cascade for policy documents: paragraph breaks first, then line
// breaks, sentence endings, the colon common in coverage clauses, word
// boundaries, and finally single characters.
var defaultSeparators = []string{"\n\n", "\n", ".", ":", " ", ""}

const (
	DefaultMaxTokens     = 450
	DefaultOverlapTokens = 50
	DefaultTableTokens   = 400
)

// Splitter chunks prose and tables under a token budget. Lengths are token
// counts from the embedding model's tokenizer, never characters: the model
// truncates at a fixed token window and a character heuristic would cut
// semantically mid-sentence.
type Splitter struct {
	tokenizer   ports.Tokenizer
	maxTokens   int
	overlap     int
	tableTokens int
	separators  []string
}

func NewSplitter(tokenizer ports.Tokenizer, maxTokens, overlapTokens, tableTokens int) *Splitter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 4
	}
	if tableTokens <= 0 {
		tableTokens = DefaultTableTokens
	}
	return &Splitter{
		tokenizer:   tokenizer,
		maxTokens:   maxTokens,
		overlap:     overlapTokens,
		tableTokens: tableTokens,
		separators:  defaultSeparators,
	}
}

// SplitText applies the separator cascade recursively: split on the
// highest-priority separator present, recurse only into pieces that still
// exceed the budget, and join adjacent undersized pieces with an
// overlap-token carryover into the next chunk.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	pieces := splitKeepingSeparator(text, sep)

	var out []string
	var pending []string
	for _, piece := range pieces {
		if s.tokenizer.CountTokens(piece) < s.maxTokens {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.mergePieces(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			// Atomic unit the cascade cannot split further.
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		out = append(out, s.mergePieces(pending)...)
	}
	return out
}

// splitKeepingSeparator splits text on sep, keeping each separator attached
// to the start of the following piece so joins reconstruct the original.
// An empty separator splits into single runes.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		runes := []rune(text)
		out := make([]string, 0, len(runes))
		for _, r := range runes {
			out = append(out, string(r))
		}
		return out
	}

	raw := strings.Split(text, sep)
	out := make([]string, 0, len(raw))
	for i, piece := range raw {
		if i > 0 {
			piece = sep + piece
		}
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// mergePieces joins adjacent undersized pieces to approach the budget
// without exceeding it, keeping up to overlap tokens of trailing pieces
// duplicated into the next chunk's head.
func (s *Splitter) mergePieces(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, ""))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		n := s.tokenizer.CountTokens(piece)
		if total+n > s.maxTokens && len(current) > 0 {
			flush()
			for total > s.overlap || (total+n > s.maxTokens && total > 0) {
				total -= s.tokenizer.CountTokens(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	flush()
	return chunks
}
