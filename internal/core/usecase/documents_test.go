package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

func TestStatsPrefersLiveVectorCount(t *testing.T) {
	repo := &repoFake{statsOut: domain.CorpusStats{TotalChunks: 10, TextChunks: 8, TableChunks: 2, Sources: 3}}
	uc := NewDocumentQueryUseCase(repo, &vectorFake{count: 7}, &lexicalFake{})

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != 7 {
		t.Fatalf("expected live count 7, got %d", stats.TotalChunks)
	}
	if stats.TextChunks != 8 || stats.TableChunks != 2 || stats.Sources != 3 {
		t.Fatalf("repo-derived fields must survive: %+v", stats)
	}
}

func TestResetCorpusClearsBothIndexes(t *testing.T) {
	vectorDB := &vectorFake{}
	lexical := &lexicalFake{}
	uc := NewDocumentQueryUseCase(&repoFake{}, vectorDB, lexical)

	if err := uc.ResetCorpus(context.Background()); err != nil {
		t.Fatalf("reset corpus: %v", err)
	}
	if vectorDB.cleared != 1 {
		t.Fatalf("expected vector clear, got %d", vectorDB.cleared)
	}
	if lexical.resets != 1 {
		t.Fatalf("expected lexical reset, got %d", lexical.resets)
	}
}

func TestResetCorpusKeepsLexicalOnVectorFailure(t *testing.T) {
	vectorDB := &vectorFake{clearErr: errors.New("qdrant unreachable")}
	lexical := &lexicalFake{}
	uc := NewDocumentQueryUseCase(&repoFake{}, vectorDB, lexical)

	err := uc.ResetCorpus(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if lexical.resets != 0 {
		t.Fatalf("lexical index must not be reset when the vector clear fails")
	}
}
