package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// mergeCandidates concatenates dense results then lexical results and
// deduplicates by exact chunk text, keeping first-seen order so dense
// results win ties.
func mergeCandidates(dense, lexical []domain.Chunk) []domain.Chunk {
	seen := make(map[string]struct{}, len(dense)+len(lexical))
	out := make([]domain.Chunk, 0, len(dense)+len(lexical))

	add := func(chunks []domain.Chunk) {
		for _, c := range chunks {
			if _, ok := seen[c.Text]; ok {
				continue
			}
			seen[c.Text] = struct{}{}
			out = append(out, c)
		}
	}

	add(dense)
	add(lexical)
	return out
}

// rerankCandidates scores every (query, candidate) pair and sorts descending
// by score. The sort is stable, so candidates the model ties keep their
// merged order. Any scoring error aborts the whole pass; the caller degrades.
func rerankCandidates(ctx context.Context, reranker ports.Reranker, query string, chunks []domain.Chunk) ([]domain.Chunk, error) {
	scored := make([]domain.RetrievalCandidate, len(chunks))
	for i, c := range chunks {
		score, err := reranker.Score(ctx, query, c.Text)
		if err != nil {
			return nil, fmt.Errorf("score candidate %d: %w", i, err)
		}
		scored[i] = domain.RetrievalCandidate{Chunk: c, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]domain.Chunk, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk
	}
	return out, nil
}

func trimChunks(chunks []domain.Chunk, limit int) []domain.Chunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
