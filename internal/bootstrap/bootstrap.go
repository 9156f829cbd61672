package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/antonvels/edu-rag-chat/internal/config"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
	"github.com/antonvels/edu-rag-chat/internal/core/usecase"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/chunking"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/extractor"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/extractor/pdf"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/extractor/plaintext"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/extractor/xlsx"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/llm/ollama"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/queue/nats"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/repository/postgres"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/resilience"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/storage/localfs"
	"github.com/antonvels/edu-rag-chat/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	ChatUC    *usecase.ChatUseCase
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	conversations := postgres.NewConversationRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ruleset := rules.Default()
	if cfg.RulesPath != "" {
		ruleset, err = rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load chat rules: %w", err)
		}
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorClient := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunkStore := qdrant.NewStore(embedder, vectorClient)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	textExtractor := extractor.NewRouter(plaintext.NewExtractor(storage)).
		Register("pdf", pdf.NewExtractor(storage)).
		Register("xlsx", xlsx.NewExtractor(storage))

	normalizer := usecase.NewQueryNormalizer(ruleset)
	detector := usecase.NewFollowUpDetector(ruleset)
	retrieval := usecase.NewRetrievalEngine(chunkStore, ruleset, usecase.RetrievalCaps{
		Simple:   cfg.ChatCapSimple,
		Moderate: cfg.ChatCapModerate,
		Complex:  cfg.ChatCapComplex,
	}, logger)
	composer := usecase.NewContextComposer(cfg.ChatContextBudget)
	synthesizer := usecase.NewResponseSynthesizer(generator, ruleset, logger)

	chatUC := usecase.NewChatUseCase(
		normalizer,
		detector,
		retrieval,
		composer,
		synthesizer,
		conversations,
		ruleset,
		cfg.ChatMemoryCap,
		cfg.OllamaGenModel,
		logger,
	).WithHistorySeed(cfg.ChatHistorySeedMsgs)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, textExtractor, chunker, embedder, vectorClient)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,
		Repo:   repo,

		ChatUC:    chatUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

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
