package config

import "testing"

func TestLoadIncludesChunkingDefaults(t *testing.T) {
	t.Setenv("TOKENIZER_ENCODING", "")
	t.Setenv("OLLAMA_EMBED_MODEL", "")
	t.Setenv("CHUNK_MAX_TOKENS", "")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "")
	t.Setenv("TABLE_CHUNK_MAX_TOKENS", "")
	t.Setenv("RAG_TOP_K", "")

	cfg := Load()
	if cfg.TokenizerEncoding != "cl100k_base" {
		t.Fatalf("expected default tokenizer encoding cl100k_base, got %q", cfg.TokenizerEncoding)
	}
	// The budgets assume cl100k over-counts relative to the E5 embedder's
	// own tokenizer; pin the pairing so one default is not changed alone.
	if cfg.OllamaEmbedModel != "intfloat/multilingual-e5-large" {
		t.Fatalf("tokenizer encoding is tuned for the E5 embedder, got model %q", cfg.OllamaEmbedModel)
	}
	if cfg.ChunkMaxTokens != 450 {
		t.Fatalf("expected default chunk budget 450, got %d", cfg.ChunkMaxTokens)
	}
	if cfg.ChunkOverlapTokens != 50 {
		t.Fatalf("expected default chunk overlap 50, got %d", cfg.ChunkOverlapTokens)
	}
	if cfg.TableChunkMaxTokens != 400 {
		t.Fatalf("expected default table chunk budget 400, got %d", cfg.TableChunkMaxTokens)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CHUNK_MAX_TOKENS", "300")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "30")
	t.Setenv("RERANK_ENABLED", "false")
	t.Setenv("QDRANT_COLLECTION", "staging_chunks")

	cfg := Load()
	if cfg.ChunkMaxTokens != 300 {
		t.Fatalf("expected chunk budget 300, got %d", cfg.ChunkMaxTokens)
	}
	if cfg.ChunkOverlapTokens != 30 {
		t.Fatalf("expected chunk overlap 30, got %d", cfg.ChunkOverlapTokens)
	}
	if cfg.RerankEnabled {
		t.Fatalf("expected rerank disabled")
	}
	if cfg.QdrantCollection != "staging_chunks" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CHUNK_MAX_TOKENS", "not-a-number")

	cfg := Load()
	if cfg.ChunkMaxTokens != 450 {
		t.Fatalf("expected fallback chunk budget 450, got %d", cfg.ChunkMaxTokens)
	}
}
