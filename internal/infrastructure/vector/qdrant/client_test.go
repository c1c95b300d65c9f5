package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

func tableChunk(text string) domain.Chunk {
	return domain.Chunk{
		Text: text,
		Metadata: domain.ChunkMetadata{
			Source:           "policy.pdf",
			TotalPages:       3,
			ContentType:      domain.ContentTypeTable,
			Page:             2,
			TableIndex:       1,
			TableChunk:       1,
			TableTotalChunks: 2,
		},
	}
}

func TestAddEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks := []domain.Chunk{tableChunk("a"), tableChunk("b")}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	if err := client.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("second Add() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestAddSendsChunkProvenancePayload(t *testing.T) {
	var upsert struct {
		Points []struct {
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			if err := json.NewDecoder(r.Body).Decode(&upsert); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if err := client.Add(context.Background(), []domain.Chunk{tableChunk("| A |")}, [][]float32{{0.1}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if len(upsert.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(upsert.Points))
	}
	payload := upsert.Points[0].Payload
	if payload["text"] != "| A |" || payload["source"] != "policy.pdf" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["content_type"] != "table" || payload["page"] != float64(2) {
		t.Fatalf("unexpected provenance %v", payload)
	}
	if payload["table_index"] != float64(1) || payload["table_total_chunks"] != float64(2) {
		t.Fatalf("unexpected table provenance %v", payload)
	}
}

func TestSimilaritySearchRebuildsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/chunks/points/search" {
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.9,"payload":{"text":"clause","source":"policy.pdf","content_type":"text","page":1,"total_pages":3}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	got, err := client.SimilaritySearch(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	chunk := got[0]
	if chunk.Text != "clause" || chunk.Metadata.Page != 1 || chunk.Metadata.ContentType != domain.ContentTypeText {
		t.Fatalf("unexpected chunk %+v", chunk)
	}
}

func TestSimilaritySearchMissingCollectionIsEmptyCorpus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	got, err := client.SimilaritySearch(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("missing collection must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/chunks/points/count" {
			_, _ = w.Write([]byte(`{"result":{"count":42}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	got, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.Add(context.Background(), []domain.Chunk{tableChunk("a")}, [][]float32{{0.1}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
