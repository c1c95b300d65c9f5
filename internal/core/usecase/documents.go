package usecase

import (
	"context"
	"fmt"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// DocumentQueryUseCase is the read model for document state and corpus
// statistics, plus corpus maintenance.
type DocumentQueryUseCase struct {
	repo     ports.DocumentRepository
	vectorDB ports.VectorStore
	lexical  ports.LexicalIndex
}

func NewDocumentQueryUseCase(
	repo ports.DocumentRepository,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
) *DocumentQueryUseCase {
	return &DocumentQueryUseCase{
		repo:     repo,
		vectorDB: vectorDB,
		lexical:  lexical,
	}
}

func (uc *DocumentQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

// Stats reports chunk counts from the document records, with the total
// replaced by the live vector index count when that is reachable.
func (uc *DocumentQueryUseCase) Stats(ctx context.Context) (domain.CorpusStats, error) {
	stats, err := uc.repo.Stats(ctx)
	if err != nil {
		return domain.CorpusStats{}, fmt.Errorf("read corpus stats: %w", err)
	}

	if uc.vectorDB != nil {
		if count, countErr := uc.vectorDB.Count(ctx); countErr == nil {
			stats.TotalChunks = count
		}
	}

	return stats, nil
}

// ResetCorpus drops the vector collection, the lexical corpus and its
// snapshot. Document records are kept: re-ingestion reuses the stored PDFs.
func (uc *DocumentQueryUseCase) ResetCorpus(ctx context.Context) error {
	if err := uc.vectorDB.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	if err := uc.lexical.Reset(); err != nil {
		return fmt.Errorf("reset lexical index: %w", err)
	}
	return nil
}
