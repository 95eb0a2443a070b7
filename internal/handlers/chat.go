package handlers

import (
	"encoding/json"
	"net/http"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/service"
)

// ChatHandler handles HTTP requests for portfolio questions.
type ChatHandler struct {
	queryService service.QueryService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(queryService service.QueryService) *ChatHandler {
	return &ChatHandler{
		queryService: queryService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	// The question, 1 to 4000 characters
	Message string `json:"message"`
	// Number of retrieved chunks to use, 1 to 10 (default 4)
	TopK *int `json:"top_k,omitempty"`
}

// SourceResponse describes one chunk the answer was grounded on.
type SourceResponse struct {
	SourceName string  `json:"source_name"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
}

// ServeHTTP handles HTTP requests for chat.
//
// swagger:route POST /rag/chat ragChat
//
// # Ask a question about the portfolio
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Invalid request or missing API key
//	'500':
//	  description: Index recovery failed
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request; an explicit top_k of 0 is out of range
	svcReq := service.QueryRequest{Message: req.Message}
	if req.TopK != nil {
		if *req.TopK == 0 {
			handleServiceError(w, ctx, &service.ValidationError{Field: "top_k", Message: "must be between 1 and 10"}, "")
			return
		}
		svcReq.TopK = *req.TopK
	}

	svcResp, err := h.queryService.Query(ctx, svcReq)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, ctx, http.StatusOK, ChatResponse{
		Answer:  svcResp.Answer,
		Sources: toSourceResponses(svcResp.Sources),
	})
}

func toSourceResponses(sources []rag.Source) []SourceResponse {
	out := make([]SourceResponse, len(sources))
	for i, s := range sources {
		out[i] = SourceResponse{
			SourceName: s.SourceName,
			Score:      s.Score,
			Excerpt:    s.Excerpt,
		}
	}
	return out
}
