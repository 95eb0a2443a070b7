package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"portfolio-rag/internal/handlers"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/service/mocks"
)

func TestIngestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		mockSetup  func(*mocks.MockIngestService)
		wantStatus int
		wantStats  *handlers.IngestResponse
	}{
		{
			name:   "incremental",
			method: http.MethodPost,
			target: "/rag/ingest",
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().Ingest(gomock.Any(), false).
					Return(indexer.Stats{Documents: 2, Chunks: 5, Unchanged: 1}, nil)
			},
			wantStatus: http.StatusOK,
			wantStats:  &handlers.IngestResponse{Documents: 2, Chunks: 5, Unchanged: 1},
		},
		{
			name:   "reset",
			method: http.MethodPost,
			target: "/rag/ingest?reset=true",
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().Ingest(gomock.Any(), true).
					Return(indexer.Stats{Documents: 3, Chunks: 9, SkippedTooSmall: 1}, nil)
			},
			wantStatus: http.StatusOK,
			wantStats:  &handlers.IngestResponse{Documents: 3, Chunks: 9, SkippedTooSmall: 1},
		},
		{
			name:       "bad reset value",
			method:     http.MethodPost,
			target:     "/rag/ingest?reset=perhaps",
			mockSetup:  func(m *mocks.MockIngestService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid method",
			method:     http.MethodGet,
			target:     "/rag/ingest",
			mockSetup:  func(m *mocks.MockIngestService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "ingestion failure",
			method: http.MethodPost,
			target: "/rag/ingest",
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().Ingest(gomock.Any(), false).Return(indexer.Stats{}, errors.New("embedding failed"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockIngestService(ctrl)
			tt.mockSetup(mockService)

			handler := handlers.NewIngestHandler(mockService)
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStats != nil {
				var got handlers.IngestResponse
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if got != *tt.wantStats {
					t.Errorf("response = %+v, want %+v", got, *tt.wantStats)
				}
			}
		})
	}
}
