package ports

import (
	"context"
	"io"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

// PageGeometry is the PDF geometry source: per-page positioned glyphs and
// geometrically detected tables. Implementations never reorder glyphs.
type PageGeometry interface {
	Open(path string) (PageGeometryDocument, error)
}

type PageGeometryDocument interface {
	NumPages() int
	// Glyphs returns every character glyph on the page (1-based) with its
	// anchor coordinates.
	Glyphs(page int) ([]domain.Glyph, error)
	// Tables returns detected table regions with their cell grids, in
	// top-to-bottom order. An empty slice means the page has no tables.
	Tables(page int) ([]domain.PageTable, error)
	Close() error
}

// PageExtractor turns one PDF page into ordered text, tables included in
// reading order.
type PageExtractor interface {
	ExtractFile(path string) ([]domain.PageRecord, error)
}

// Tokenizer measures and truncates text in the embedding model's vocabulary.
// Token counts, not character counts, bound chunk sizes.
type Tokenizer interface {
	CountTokens(text string) int
	TruncateToTokens(text string, maxTokens int) string
}

// Chunker splits placeholder-bearing prose and extracted tables into
// budget-bounded chunks.
type Chunker interface {
	SplitText(text string) []string
	SplitTable(markdown string) []string
}

// Embedder builds vectors for chunks and query text. Implementations must
// honor the asymmetric prefixing convention of the embedding model
// ("passage: " for documents, "query: " for queries).
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs dense similarity search.
type VectorStore interface {
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]domain.Chunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// LexicalIndex is a term-matching retriever over the same chunk corpus.
// Implementations are lazily built and must be invalidated after every
// successful add so stale state is never served.
type LexicalIndex interface {
	Add(chunks []domain.Chunk) error
	TopK(query string, k int) ([]domain.Chunk, error)
	Invalidate()
	// Reset drops the corpus and any snapshot backing it.
	Reset() error
}

// Reranker scores a single (query, candidate) pair; higher is more relevant.
// It is an optional collaborator: callers must degrade, not fail, when it
// errors.
type Reranker interface {
	Score(ctx context.Context, query, candidate string) (float64, error)
}

// AnswerGenerator creates the final user-facing answer from retrieved context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.Chunk) (string, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveSegmentation(ctx context.Context, id string, totalPages, textChunks, tableChunks int) error
	Stats(ctx context.Context) (domain.CorpusStats, error)
}

// ObjectStorage stores source PDFs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}
