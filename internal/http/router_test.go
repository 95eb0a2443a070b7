package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"portfolio-rag/internal/index"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/service"
	"portfolio-rag/internal/service/mocks"
)

type fixedStatus struct{}

func (fixedStatus) Status(ctx context.Context) (index.Status, error) {
	return index.Status{Collection: "test", Exists: true, Points: 4, Documents: 1}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockQueryService, *mocks.MockIngestService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	query := mocks.NewMockQueryService(ctrl)
	ingest := mocks.NewMockIngestService(ctrl)

	router := NewRouter(&Deps{
		QueryService:  query,
		IngestService: ingest,
		IndexStatus:   fixedStatus{},
		LLMAPIKey:     "sk-test",
	})
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
	return router, query, ingest
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(*mocks.MockQueryService, *mocks.MockIngestService)
		wantStatus int
	}{
		{
			name:       "POST /rag/chat exists",
			method:     http.MethodPost,
			path:       "/rag/chat",
			body:       "",
			wantStatus: http.StatusBadRequest, // Bad request due to invalid body, but route exists
		},
		{
			name:   "POST /rag/chat answers",
			method: http.MethodPost,
			path:   "/rag/chat",
			body:   `{"message":"hi"}`,
			setup: func(q *mocks.MockQueryService, _ *mocks.MockIngestService) {
				q.EXPECT().Query(gomock.Any(), service.QueryRequest{Message: "hi"}).
					Return(service.QueryResponse{Answer: "hello"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /rag/chat method not allowed",
			method:     http.MethodGet,
			path:       "/rag/chat",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "POST /rag/ingest",
			method: http.MethodPost,
			path:   "/rag/ingest?reset=true",
			setup: func(_ *mocks.MockQueryService, i *mocks.MockIngestService) {
				i.EXPECT().Ingest(gomock.Any(), true).Return(indexer.Stats{Documents: 1, Chunks: 2}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /metrics",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, query, ingest := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(query, ingest)
			}

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/rag/chat", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Router should apply logger middleware")
	}
}
