package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

const (
	// DefaultTopK is the result count when the caller passes k <= 0.
	DefaultTopK = 5
	// rerankFanOut widens the candidate pool when reranking is on, so the
	// pairwise model has more than k candidates to reorder.
	rerankFanOut = 4
)

type RetrieveUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	lexical   ports.LexicalIndex
	reranker  ports.Reranker
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewRetrieveUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
	reranker ports.Reranker,
	generator ports.AnswerGenerator,
	logger *slog.Logger,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		lexical:   lexical,
		reranker:  reranker,
		generator: generator,
		logger:    logger,
	}
}

// Search runs hybrid retrieval: dense and lexical candidates are merged and
// deduplicated, then optionally reordered by the pairwise reranker. An empty
// query or an empty corpus yields an empty result, never an error, and a
// reranker failure degrades to the merged order instead of failing the call.
func (uc *RetrieveUseCase) Search(ctx context.Context, query string, k int, useRerank bool) ([]domain.Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	initialK := k
	if useRerank {
		initialK = k * rerankFanOut
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	dense, err := uc.vectorDB.SimilaritySearch(ctx, queryVector, initialK)
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}

	lexical, err := uc.lexical.TopK(query, initialK)
	if err != nil {
		return nil, fmt.Errorf("search lexical index: %w", err)
	}

	merged := mergeCandidates(dense, lexical)
	if len(merged) == 0 {
		return nil, nil
	}

	if !useRerank || uc.reranker == nil {
		return trimChunks(merged, k), nil
	}

	reranked, err := rerankCandidates(ctx, uc.reranker, query, merged)
	if err != nil {
		uc.logger.WarnContext(ctx, "reranker unavailable, keeping merged order", "error", err)
		return trimChunks(merged, k), nil
	}
	return trimChunks(reranked, k), nil
}

func (uc *RetrieveUseCase) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	chunks, err := uc.Search(ctx, question, k, true)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: chunks,
	}, nil
}
