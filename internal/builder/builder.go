package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/api"
	documentapi "github.com/sgultrafix/trafix-rag-agent/internal/api/document"
	schemaapi "github.com/sgultrafix/trafix-rag-agent/internal/api/schema"
	"github.com/sgultrafix/trafix-rag-agent/internal/chunker"
	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/corpus"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/embedder"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/generator"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/validator"
	"github.com/sgultrafix/trafix-rag-agent/internal/qa"
	"github.com/sgultrafix/trafix-rag-agent/internal/repository"
	schemapkg "github.com/sgultrafix/trafix-rag-agent/internal/schema"
	"github.com/sgultrafix/trafix-rag-agent/internal/usecase/document"
	schemauc "github.com/sgultrafix/trafix-rag-agent/internal/usecase/schema"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore/memory"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore/postgres"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("vector_store", cfg.VectorStore),
	)

	// Setup vector indexes (memory by default, postgres when configured)
	var (
		db            *pgxpool.Pool
		documentIndex vectorstore.Index
		schemaIndex   vectorstore.Index
	)
	if cfg.VectorStore == config.VectorStorePostgres {
		db, err = setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		documentIndex = postgres.New(db, entity.ModalityDocument)
		schemaIndex = postgres.New(db, entity.ModalitySchema)
	} else {
		documentIndex = memory.New()
		schemaIndex = memory.New()
	}
	logger.Info("Vector indexes initialized")

	corpusManager := corpus.NewManager(documentIndex, schemaIndex, logger)

	// Initialize external service connectors (with mock support)
	var embedderConn document.Embedder
	var generatorConn qa.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedderConn = embedder.NewMockConnector(logger)
		generatorConn = generator.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedderConn = embedder.NewConnector(cfg.EmbedderCfg, logger)
		generatorConn = generator.NewConnector(cfg.GeneratorCfg, logger)
	}

	// Initialize pipeline components
	textChunker, err := chunker.New(cfg.ChunkingCfg.Size, cfg.ChunkingCfg.Overlap)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}
	normalizer := schemapkg.NewNormalizer(cfg.SchemaCfg.MaxDepth, cfg.SchemaCfg.DepthPenalty)

	orchestrator := qa.NewOrchestrator(corpusManager, embedderConn, generatorConn, qa.Config{
		TopK:            cfg.RetrievalCfg.TopK,
		MaxContextChars: cfg.RetrievalCfg.MaxContextChars,
	})

	// Initialize validators
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	logger.Info("Validators initialized")

	// Initialize use cases
	documentUC := document.NewUsecase(
		textChunker,
		embedderConn,
		corpusManager,
		orchestrator,
		logger,
	)

	schemaUC := schemauc.NewUsecase(
		normalizer,
		embedderConn,
		corpusManager,
		orchestrator,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(documentUC, cfg.FileUploadCfg, fileValidator)
	schemaHandler := schemaapi.NewHandler(schemaUC, cfg.FileUploadCfg, fileValidator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, schemaHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
