package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_engine.go -package=mocks portfolio-rag/internal/service QueryEngine
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks -mock_names=QueryService=MockQueryService portfolio-rag/internal/service QueryService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/rag"
)

// MaxMessageChars is the longest question accepted.
const MaxMessageChars = 4000

// QueryEngine answers questions over the indexed corpus.
// This interface is defined from the service layer's perspective (consumer-first).
type QueryEngine interface {
	Query(ctx context.Context, req rag.Request) (rag.Response, error)
}

// QueryRequest represents a question in the domain layer.
type QueryRequest struct {
	Message string `validate:"required"`
	// TopK is the number of retrieved chunks to use. Zero selects rag.DefaultTopK.
	TopK int
}

// QueryResponse represents an answer in the domain layer.
type QueryResponse struct {
	Answer  string       `json:"answer"`
	Sources []rag.Source `json:"sources"`
}

// QueryService provides the portfolio question-answering operation.
type QueryService interface {
	// Query validates the request and answers it.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

// queryService implements QueryService.
type queryService struct {
	engine QueryEngine
	apiKey string
}

// NewQueryService creates a new QueryService. apiKey is the chat model credential; requests
// are refused with ErrConfig while it is missing or a placeholder.
func NewQueryService(engine QueryEngine, apiKey string) QueryService {
	return &queryService{
		engine: engine,
		apiKey: apiKey,
	}
}

// Query processes a question.
func (s *queryService) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in query request")
		return QueryResponse{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		return QueryResponse{}, &ValidationError{
			Field:   "message",
			Message: fmt.Sprintf("must be at most %d characters", MaxMessageChars),
		}
	}
	topK := req.TopK
	if topK == 0 {
		topK = rag.DefaultTopK
	}
	if topK < 1 || topK > rag.MaxTopK {
		return QueryResponse{}, &ValidationError{
			Field:   "top_k",
			Message: fmt.Sprintf("must be between 1 and %d", rag.MaxTopK),
		}
	}

	if !config.IsUsableAPIKey(s.apiKey) {
		logger.WarnContext(ctx, "chat API key missing or placeholder")
		return QueryResponse{}, fmt.Errorf("%w: chat model API key not configured or still using placeholder value", ErrConfig)
	}

	resp, err := s.engine.Query(ctx, rag.Request{Message: message, TopK: topK})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer query", "error", err)
		if errors.Is(err, rag.ErrIndexRecovery) {
			return QueryResponse{}, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return QueryResponse{}, fmt.Errorf("%w: retrieval failed: %w", ErrExternalService, err)
	}

	logger.InfoContext(ctx, "query processed successfully", "message_length", len(message), "answer_length", len(resp.Answer), "sources", len(resp.Sources))
	return QueryResponse{
		Answer:  resp.Answer,
		Sources: resp.Sources,
	}, nil
}
