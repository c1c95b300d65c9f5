package ports

import (
	"context"
	"io"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

// DocumentIngestor is the inbound contract for getting PDFs into the pipeline.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
	IngestDirectory(ctx context.Context, dir string) ([]domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous segmentation of
// one uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// RetrievalService is the inbound contract for hybrid retrieval and answering.
type RetrievalService interface {
	Search(ctx context.Context, query string, k int, useRerank bool) ([]domain.Chunk, error)
	Answer(ctx context.Context, question string, k int) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// StatsReader reports corpus-wide chunk statistics.
type StatsReader interface {
	Stats(ctx context.Context) (domain.CorpusStats, error)
}

// CorpusMaintainer drops the retrieval corpus so it can be rebuilt from the
// stored documents.
type CorpusMaintainer interface {
	ResetCorpus(ctx context.Context) error
}

// DocumentService aggregates the document read and corpus maintenance
// surface the API exposes.
type DocumentService interface {
	DocumentReader
	StatsReader
	CorpusMaintainer
}
