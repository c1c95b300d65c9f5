package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/idanlevi/policy-rag/internal/config"
	"github.com/idanlevi/policy-rag/internal/core/ports"
	"github.com/idanlevi/policy-rag/internal/core/usecase"
	"github.com/idanlevi/policy-rag/internal/infrastructure/chunking"
	"github.com/idanlevi/policy-rag/internal/infrastructure/lexical"
	"github.com/idanlevi/policy-rag/internal/infrastructure/llm/ollama"
	"github.com/idanlevi/policy-rag/internal/infrastructure/pdf"
	"github.com/idanlevi/policy-rag/internal/infrastructure/queue/nats"
	"github.com/idanlevi/policy-rag/internal/infrastructure/repository/postgres"
	"github.com/idanlevi/policy-rag/internal/infrastructure/rerank"
	"github.com/idanlevi/policy-rag/internal/infrastructure/resilience"
	"github.com/idanlevi/policy-rag/internal/infrastructure/storage/localfs"
	"github.com/idanlevi/policy-rag/internal/infrastructure/tokenizer/tiktoken"
	"github.com/idanlevi/policy-rag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC   ports.DocumentIngestor
	SegmentUC  ports.DocumentProcessor
	RetrieveUC ports.RetrievalService
	Documents  ports.DocumentService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	lexicalIndex, err := lexical.NewPersistent(cfg.LexicalSnapshotPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load lexical corpus: %w", err)
	}

	var reranker ports.Reranker
	if cfg.RerankEnabled {
		reranker = rerank.New(cfg.RerankURL, cfg.RerankModel)
	}

	tok := tiktoken.New(cfg.TokenizerEncoding)
	chunker := chunking.NewSplitter(tok, cfg.ChunkMaxTokens, cfg.ChunkOverlapTokens, cfg.TableChunkMaxTokens)
	extractor := pdf.NewExtractor(pdf.NewGeometrySource())

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, logger)
	segmentUC := usecase.NewSegmentDocumentUseCase(repo, storage, extractor, chunker, embedder, vectorDB, lexicalIndex)
	retrieveUC := usecase.NewRetrieveUseCase(embedder, vectorDB, lexicalIndex, reranker, generator, logger)
	documents := usecase.NewDocumentQueryUseCase(repo, vectorDB, lexicalIndex)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Repo:  repo,

		IngestUC:   ingestUC,
		SegmentUC:  segmentUC,
		RetrieveUC: retrieveUC,
		Documents:  documents,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
