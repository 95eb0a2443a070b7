package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks portfolio-rag/internal/service Ingester
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingest_service.go -package=mocks -mock_names=IngestService=MockIngestService portfolio-rag/internal/service IngestService

import (
	"context"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/indexer"
)

// Ingester indexes the uploads directory.
type Ingester interface {
	Ingest(ctx context.Context, reset bool) (indexer.Stats, error)
}

// IngestService triggers corpus ingestion.
type IngestService interface {
	// Ingest indexes the uploads. With reset the collection is rebuilt from scratch.
	Ingest(ctx context.Context, reset bool) (indexer.Stats, error)
}

type ingestService struct {
	ingester Ingester
}

// NewIngestService creates a new IngestService.
func NewIngestService(ingester Ingester) IngestService {
	return &ingestService{ingester: ingester}
}

func (s *ingestService) Ingest(ctx context.Context, reset bool) (indexer.Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stats, err := s.ingester.Ingest(ctx, reset)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "reset", reset, "error", err)
		return indexer.Stats{}, WrapError(err, "ingestion failed")
	}
	return stats, nil
}
