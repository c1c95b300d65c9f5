package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/idanlevi/policy-rag/internal/core/domain"
	"github.com/idanlevi/policy-rag/internal/core/usecase"
	"github.com/idanlevi/policy-rag/internal/observability/metrics"
)

type repoStub struct {
	doc    *domain.Document
	getErr error
	stats  domain.CorpusStats
}

func (s *repoStub) Create(context.Context, *domain.Document) error { return nil }

func (s *repoStub) GetByID(context.Context, string) (*domain.Document, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.doc, nil
}

func (s *repoStub) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

func (s *repoStub) SaveSegmentation(context.Context, string, int, int, int) error { return nil }

func (s *repoStub) Stats(context.Context) (domain.CorpusStats, error) { return s.stats, nil }

type storageStub struct{}

func (storageStub) Save(context.Context, string, io.Reader) error { return nil }
func (storageStub) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (storageStub) Path(key string) string { return key }

type queueStub struct {
	published []string
}

func (s *queueStub) PublishDocumentIngested(_ context.Context, documentID string) error {
	s.published = append(s.published, documentID)
	return nil
}

func (s *queueStub) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type embedderStub struct{}

func (embedderStub) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (embedderStub) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

type vectorStub struct {
	chunks  []domain.Chunk
	cleared int
}

func (s *vectorStub) Add(context.Context, []domain.Chunk, [][]float32) error { return nil }
func (s *vectorStub) SimilaritySearch(context.Context, []float32, int) ([]domain.Chunk, error) {
	return s.chunks, nil
}
func (s *vectorStub) Count(context.Context) (int, error) { return len(s.chunks), nil }

func (s *vectorStub) Clear(context.Context) error {
	s.cleared++
	return nil
}

type lexicalStub struct{}

func (lexicalStub) Add([]domain.Chunk) error                 { return nil }
func (lexicalStub) TopK(string, int) ([]domain.Chunk, error) { return nil, nil }
func (lexicalStub) Invalidate()                              {}
func (lexicalStub) Reset() error                             { return nil }

type generatorStub struct{}

func (generatorStub) GenerateAnswer(context.Context, string, []domain.Chunk) (string, error) {
	return "generated answer", nil
}

func newTestRouter(repo *repoStub, vectorDB *vectorStub, queue *queueStub) *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storageStub{}, queue, logger)
	retrieveUC := usecase.NewRetrieveUseCase(embedderStub{}, vectorDB, lexicalStub{}, nil, generatorStub{}, logger)
	documents := usecase.NewDocumentQueryUseCase(repo, vectorDB, lexicalStub{})
	return NewRouter("api-test", ingestUC, retrieveUC, documents, metrics.NewHTTPServerMetrics("api-test"))
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&repoStub{}, &vectorStub{}, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUploadDocumentAccepted(t *testing.T) {
	queue := &queueStub{}
	handler := newTestRouter(&repoStub{}, &vectorStub{}, queue).Handler()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "policy.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.7")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.Filename != "policy.pdf" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected ingestion event, got %v", queue.published)
	}
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	handler := newTestRouter(&repoStub{}, &vectorStub{}, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("not multipart")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetDocumentNotFoundMapsTo404(t *testing.T) {
	repo := &repoStub{getErr: domain.WrapError(domain.ErrDocumentNotFound, "get document", io.EOF)}
	handler := newTestRouter(repo, &vectorStub{}, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSearchReturnsChunks(t *testing.T) {
	vectorDB := &vectorStub{chunks: []domain.Chunk{
		{Text: "deductible clause", Metadata: domain.ChunkMetadata{Source: "policy.pdf", Page: 2, ContentType: domain.ContentTypeText}},
	}}
	handler := newTestRouter(&repoStub{}, vectorDB, &queueStub{}).Handler()

	body := strings.NewReader(`{"query":"deductible","k":3,"rerank":false}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/search", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []domain.Chunk `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Text != "deductible clause" {
		t.Fatalf("unexpected results %+v", resp.Results)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	handler := newTestRouter(&repoStub{}, &vectorStub{}, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnswerReturnsSources(t *testing.T) {
	vectorDB := &vectorStub{chunks: []domain.Chunk{
		{Text: "clause", Metadata: domain.ChunkMetadata{Source: "policy.pdf", Page: 1}},
	}}
	handler := newTestRouter(&repoStub{}, vectorDB, &queueStub{}).Handler()

	body := strings.NewReader(`{"question":"what is covered?","k":3}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/answer", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer domain.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.Text != "generated answer" || len(answer.Sources) != 1 {
		t.Fatalf("unexpected answer %+v", answer)
	}
}

func TestStatsUsesLiveIndexCount(t *testing.T) {
	repo := &repoStub{stats: domain.CorpusStats{TotalChunks: 10, TextChunks: 8, TableChunks: 2, Sources: 1}}
	vectorDB := &vectorStub{chunks: []domain.Chunk{{Text: "a"}, {Text: "b"}}}
	handler := newTestRouter(repo, vectorDB, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats domain.CorpusStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalChunks != 2 {
		t.Fatalf("expected live index count 2, got %+v", stats)
	}
}

func TestResetCorpus(t *testing.T) {
	vectorDB := &vectorStub{chunks: []domain.Chunk{{Text: "a"}}}
	handler := newTestRouter(&repoStub{}, vectorDB, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/corpus/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if vectorDB.cleared != 1 {
		t.Fatalf("expected vector store clear, got %d", vectorDB.cleared)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&repoStub{}, &vectorStub{}, &queueStub{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
