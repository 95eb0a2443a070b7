package handlers

import (
	"net/http"
	"strconv"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/service"
)

// IngestHandler handles HTTP requests for indexing the uploads directory.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
	}
}

// IngestResponse represents the response from the ingest endpoint.
//
// swagger:model IngestResponse
type IngestResponse struct {
	Documents       int `json:"documents"`
	Chunks          int `json:"chunks"`
	SkippedTooSmall int `json:"skipped_too_small"`
	Unchanged       int `json:"unchanged"`
	Removed         int `json:"removed"`
}

// ServeHTTP runs ingestion synchronously and returns its counts.
//
// swagger:route POST /rag/ingest ragIngest
//
// # Index the uploads directory
//
// Pass reset=true to drop the collection and rebuild it from scratch.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/IngestResponse"
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reset := false
	if v := r.URL.Query().Get("reset"); v != "" {
		var err error
		if reset, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "reset must be true or false")
			return
		}
	}

	logger.InfoContext(ctx, "ingestion triggered via API", "reset", reset)
	stats, err := h.ingestService.Ingest(ctx, reset)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest uploads")
		return
	}

	writeJSON(w, ctx, http.StatusOK, IngestResponse{
		Documents:       stats.Documents,
		Chunks:          stats.Chunks,
		SkippedTooSmall: stats.SkippedTooSmall,
		Unchanged:       stats.Unchanged,
		Removed:         stats.Removed,
	})
}
