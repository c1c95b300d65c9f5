package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/ports"
)

// attributionPrefixRunes bounds the chunk prefix searched in the assembled
// text when resolving a text chunk's source page.
const attributionPrefixRunes = 50

var leadingPlaceholders = regexp.MustCompile(`^(?:\s*__TABLE_\d+__)+\s*`)

type SegmentDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.PageExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	lexical   ports.LexicalIndex
}

func NewSegmentDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.PageExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	lexical ports.LexicalIndex,
) *SegmentDocumentUseCase {
	return &SegmentDocumentUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		lexical:   lexical,
	}
}

type segmentation struct {
	totalPages  int
	textChunks  int
	tableChunks int
}

func (uc *SegmentDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.segmentPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveSegmentation(ctx, documentID, result.totalPages, result.textChunks, result.tableChunks); err != nil {
		err = fmt.Errorf("save segmentation counts: %w", err)
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *SegmentDocumentUseCase) segmentPipeline(ctx context.Context, documentID string) (segmentation, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return segmentation{}, err
	}

	pages, err := uc.extractPages(doc)
	if err != nil {
		return segmentation{}, err
	}

	fullText, ranges := AssemblePages(pages)
	prose, tables := SplitTables(fullText)

	chunks, result, err := uc.buildChunks(doc, fullText, ranges, prose, tables)
	if err != nil {
		return segmentation{}, err
	}
	result.totalPages = len(pages)

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return segmentation{}, err
	}

	if err := uc.index(ctx, chunks, vectors); err != nil {
		return segmentation{}, err
	}

	return result, nil
}

func (uc *SegmentDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *SegmentDocumentUseCase) extractPages(doc *domain.Document) ([]domain.PageRecord, error) {
	pages, err := uc.extractor.ExtractFile(uc.storage.Path(doc.StoragePath))
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages", errors.New("document has no pages"))
	}
	return pages, nil
}

// buildChunks turns the placeholder-bearing prose and the stripped tables
// into retrievable chunk records. Text chunks get best-effort page
// attribution by prefix search; table chunks use the table's recorded start
// offset and are therefore exact.
func (uc *SegmentDocumentUseCase) buildChunks(
	doc *domain.Document,
	fullText string,
	ranges []domain.PageRange,
	prose string,
	tables []domain.TableBlock,
) ([]domain.Chunk, segmentation, error) {
	totalPages := len(ranges)
	var chunks []domain.Chunk
	var result segmentation

	for _, piece := range uc.chunker.SplitText(prose) {
		chunks = append(chunks, domain.Chunk{
			Text: piece,
			Metadata: domain.ChunkMetadata{
				Source:      doc.Filename,
				TotalPages:  totalPages,
				ContentType: domain.ContentTypeText,
				Page:        attributePage(fullText, ranges, piece),
			},
		})
		result.textChunks++
	}

	for _, table := range tables {
		page := PageForOffset(ranges, table.StartOffset)
		subChunks := uc.chunker.SplitTable(table.Markdown)
		for i, sub := range subChunks {
			chunks = append(chunks, domain.Chunk{
				Text: sub,
				Metadata: domain.ChunkMetadata{
					Source:           doc.Filename,
					TotalPages:       totalPages,
					ContentType:      domain.ContentTypeTable,
					Page:             page,
					TableIndex:       table.TableIndex,
					TableChunk:       i + 1,
					TableTotalChunks: len(subChunks),
				},
			})
			result.tableChunks++
		}
	}

	if len(chunks) == 0 {
		return nil, segmentation{}, domain.WrapError(domain.ErrInvalidInput, "build chunks", errors.New("segmentation produced zero chunks"))
	}
	return chunks, result, nil
}

func (uc *SegmentDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := uc.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *SegmentDocumentUseCase) index(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := uc.vectorDB.Add(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	if err := uc.lexical.Add(chunks); err != nil {
		return fmt.Errorf("add chunks to lexical corpus: %w", err)
	}
	// The cached lexical index must never serve state older than this add.
	uc.lexical.Invalidate()
	return nil
}

func (uc *SegmentDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *SegmentDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

// attributePage resolves a text chunk's source page by locating a short
// prefix of it in the assembled text. Leading table placeholders are
// skipped and the prefix is cut before any embedded placeholder, since
// placeholders never occur in the assembled text. Returns 0 when the
// prefix cannot be found; attribution is best-effort.
func attributePage(fullText string, ranges []domain.PageRange, chunkText string) int {
	prefix := leadingPlaceholders.ReplaceAllString(chunkText, "")
	if i := strings.Index(prefix, tablePlaceholderPrefix); i >= 0 {
		prefix = prefix[:i]
	}
	if runes := []rune(prefix); len(runes) > attributionPrefixRunes {
		prefix = string(runes[:attributionPrefixRunes])
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return 0
	}

	offset := strings.Index(fullText, prefix)
	if offset < 0 {
		return 0
	}
	return PageForOffset(ranges, offset)
}
