package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type segmentationCall struct {
	totalPages  int
	textChunks  int
	tableChunks int
}

type repoFake struct {
	doc          *domain.Document
	getErr       error
	statusErr    error
	segErr       error
	statsOut     domain.CorpusStats
	statsErr     error
	statusCalls  []statusCall
	segmentation *segmentationCall
}

func (f *repoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *repoFake) SaveSegmentation(_ context.Context, _ string, totalPages, textChunks, tableChunks int) error {
	if f.segErr != nil {
		return f.segErr
	}
	f.segmentation = &segmentationCall{totalPages: totalPages, textChunks: textChunks, tableChunks: tableChunks}
	return nil
}

func (f *repoFake) Stats(context.Context) (domain.CorpusStats, error) {
	return f.statsOut, f.statsErr
}

type storageFake struct{}

func (storageFake) Save(context.Context, string, io.Reader) error { return nil }
func (storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (storageFake) Path(key string) string { return "/data/" + key }

type pageExtractorFake struct {
	pages []domain.PageRecord
	err   error
	path  string
}

func (f *pageExtractorFake) ExtractFile(path string) ([]domain.PageRecord, error) {
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// paragraphChunker splits prose on blank lines and leaves tables whole,
// which keeps chunk boundaries predictable in tests.
type paragraphChunker struct{}

func (paragraphChunker) SplitText(text string) []string {
	var out []string
	for _, piece := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
	}
	return out
}

func (paragraphChunker) SplitTable(markdown string) []string { return []string{markdown} }

type embedderFake struct {
	texts    []string
	err      error
	queryErr error
}

func (f *embedderFake) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = texts
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{1}, nil
}

type vectorFake struct {
	added      []domain.Chunk
	addErr     error
	searchOut  []domain.Chunk
	searchErr  error
	requestedK int
	count      int
	cleared    int
	clearErr   error
}

func (f *vectorFake) Add(_ context.Context, chunks []domain.Chunk, _ [][]float32) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks...)
	return nil
}

func (f *vectorFake) SimilaritySearch(_ context.Context, _ []float32, k int) ([]domain.Chunk, error) {
	f.requestedK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchOut, nil
}

func (f *vectorFake) Count(context.Context) (int, error) { return f.count, nil }

func (f *vectorFake) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	return nil
}

type lexicalFake struct {
	added         []domain.Chunk
	topKOut       []domain.Chunk
	topKErr       error
	invalidations int
	resets        int
}

func (f *lexicalFake) Add(chunks []domain.Chunk) error {
	f.added = append(f.added, chunks...)
	return nil
}

func (f *lexicalFake) TopK(string, int) ([]domain.Chunk, error) {
	if f.topKErr != nil {
		return nil, f.topKErr
	}
	return f.topKOut, nil
}

func (f *lexicalFake) Invalidate() { f.invalidations++ }

func (f *lexicalFake) Reset() error {
	f.added = nil
	f.resets++
	return nil
}

func TestProcessByIDSegmentsDocument(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Filename: "policy.pdf", StoragePath: "key.pdf"}}
	vectorDB := &vectorFake{}
	lexical := &lexicalFake{}
	extractor := &pageExtractorFake{pages: []domain.PageRecord{
		{Content: "Intro text", PageNumber: 1},
		{Content: "Coverage details\n\n| A | B |\n| --- | --- |\n| 1 | 2 |", PageNumber: 2},
	}}

	uc := NewSegmentDocumentUseCase(repo, storageFake{}, extractor, paragraphChunker{}, &embedderFake{}, vectorDB, lexical)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID failed: %v", err)
	}

	if extractor.path != "/data/key.pdf" {
		t.Fatalf("extractor got path %q", extractor.path)
	}

	wantStatuses := []statusCall{
		{status: domain.StatusProcessing},
		{status: domain.StatusReady},
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[0] != wantStatuses[0] || repo.statusCalls[1] != wantStatuses[1] {
		t.Fatalf("unexpected status transitions: %v", repo.statusCalls)
	}

	// Three prose paragraphs (the placeholder counts as a text chunk) plus
	// one table chunk.
	if repo.segmentation == nil {
		t.Fatal("SaveSegmentation not called")
	}
	if got := *repo.segmentation; got != (segmentationCall{totalPages: 2, textChunks: 3, tableChunks: 1}) {
		t.Fatalf("unexpected segmentation counts: %+v", got)
	}

	if len(vectorDB.added) != 4 || len(lexical.added) != 4 {
		t.Fatalf("expected 4 chunks indexed, got vector=%d lexical=%d", len(vectorDB.added), len(lexical.added))
	}
	if lexical.invalidations != 1 {
		t.Fatalf("lexical index must be invalidated exactly once, got %d", lexical.invalidations)
	}
}

func TestProcessByIDPageAttribution(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Filename: "policy.pdf", StoragePath: "key.pdf"}}
	vectorDB := &vectorFake{}
	extractor := &pageExtractorFake{pages: []domain.PageRecord{
		{Content: "Intro text", PageNumber: 1},
		{Content: "Coverage details\n\n| A | B |\n| --- | --- |\n| 1 | 2 |", PageNumber: 2},
	}}

	uc := NewSegmentDocumentUseCase(repo, storageFake{}, extractor, paragraphChunker{}, &embedderFake{}, vectorDB, &lexicalFake{})
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID failed: %v", err)
	}

	byText := make(map[string]domain.Chunk, len(vectorDB.added))
	for _, c := range vectorDB.added {
		byText[c.Text] = c
	}

	if got := byText["Intro text"].Metadata.Page; got != 1 {
		t.Fatalf("intro chunk page: got %d, want 1", got)
	}
	if got := byText["Coverage details"].Metadata.Page; got != 2 {
		t.Fatalf("coverage chunk page: got %d, want 2", got)
	}

	table := byText["| A | B |\n| --- | --- |\n| 1 | 2 |"]
	if table.Metadata.ContentType != domain.ContentTypeTable {
		t.Fatalf("expected table content type, got %q", table.Metadata.ContentType)
	}
	if table.Metadata.Page != 2 {
		t.Fatalf("table chunk page: got %d, want 2", table.Metadata.Page)
	}
	if table.Metadata.TableIndex != 1 || table.Metadata.TableChunk != 1 || table.Metadata.TableTotalChunks != 1 {
		t.Fatalf("unexpected table metadata: %+v", table.Metadata)
	}

	// The bare placeholder has no locatable prefix: page stays 0.
	if got := byText["__TABLE_1__"].Metadata.Page; got != 0 {
		t.Fatalf("placeholder chunk page: got %d, want 0", got)
	}
}

func TestProcessByIDExtractionFailureMarksFailed(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "key.pdf"}}
	extractor := &pageExtractorFake{err: errors.New("corrupt xref")}

	uc := NewSegmentDocumentUseCase(repo, storageFake{}, extractor, paragraphChunker{}, &embedderFake{}, &vectorFake{}, &lexicalFake{})
	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatal("expected error")
	}

	if len(repo.statusCalls) != 2 {
		t.Fatalf("unexpected status transitions: %v", repo.statusCalls)
	}
	last := repo.statusCalls[1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, "corrupt xref") {
		t.Fatalf("expected failed status with cause, got %+v", last)
	}
	if repo.segmentation != nil {
		t.Fatal("SaveSegmentation must not run after a pipeline failure")
	}
}

func TestProcessByIDEmptyDocumentFails(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "key.pdf"}}
	extractor := &pageExtractorFake{pages: nil}

	uc := NewSegmentDocumentUseCase(repo, storageFake{}, extractor, paragraphChunker{}, &embedderFake{}, &vectorFake{}, &lexicalFake{})
	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}
