// Package app wires configuration into the running components shared by the
// HTTP server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/index"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/service"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/uploads"
	"portfolio-rag/internal/vectorstore"
)

// App holds the assembled components.
type App struct {
	Config        *config.Config
	Index         *index.Index
	Pipeline      *indexer.Pipeline
	Engine        rag.Engine
	QueryService  service.QueryService
	IngestService service.IngestService

	db    *sql.DB
	store vectorstore.VectorStore
}

// New opens storage and builds the index, ingestion pipeline and query engine.
// No model or vector store request is made until the first ingestion or query.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.Default()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	store, err := newVectorStore(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.InfoContext(ctx, "vector store ready", "kind", cfg.VectorStore, "collection", cfg.QdrantCollection)

	chat, embedder, err := llm.NewFromConfig(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ix := index.New(embedder, store, storage.NewDocumentRepo(db), storage.NewChunkRepo(db), cfg.QdrantCollection)

	pipeline, err := indexer.NewPipeline(ix, cfg.UploadsDir, cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinDocumentChars)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	engine := rag.NewEngine(ix, pipeline, chat, rag.SettingsFromConfig(cfg))
	logger.InfoContext(ctx, "RAG engine initialized",
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModelName,
		"embedding_model", cfg.EmbeddingModelName,
	)

	return &App{
		Config:        cfg,
		Index:         ix,
		Pipeline:      pipeline,
		Engine:        engine,
		QueryService:  service.NewQueryService(engine, cfg.LLMAPIKey),
		IngestService: service.NewIngestService(pipeline),
		db:            db,
		store:         store,
	}, nil
}

// Watcher returns an uploads watcher that runs incremental ingestion on change.
func (a *App) Watcher() *uploads.Watcher {
	return uploads.NewWatcher(a.Config.UploadsDir, func(ctx context.Context) error {
		_, err := a.Pipeline.Ingest(ctx, false)
		return err
	})
}

// Close releases the database and the vector store connection.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

func newVectorStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorStore {
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	case "qdrant":
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}
