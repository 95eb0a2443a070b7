package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/index"
)

// StatusReporter reports the state of the vector index.
type StatusReporter interface {
	Status(ctx context.Context) (index.Status, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	status             StatusReporter
	apiKey             string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(status StatusReporter, apiKey string) *HealthHandler {
	return &HealthHandler{
		status:             status,
		apiKey:             apiKey,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 when healthy or degraded (empty index, missing API key)
// and 503 when the vector store cannot be reached.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Vector store unreachable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}

	st, err := h.status.Status(checkCtx)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "vector store health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Checks["vector_store"] = "unhealthy"
		resp.Issues = append(resp.Issues, fmt.Sprintf("vector store unreachable: %v", err))
	case !st.Exists:
		resp.Status = "degraded"
		resp.Checks["vector_store"] = "healthy"
		resp.Checks["index"] = "empty"
		resp.Issues = append(resp.Issues, fmt.Sprintf("collection %s does not exist; run ingestion", st.Collection))
	case st.Points == 0:
		resp.Status = "degraded"
		resp.Checks["vector_store"] = "healthy"
		resp.Checks["index"] = "empty"
		resp.Issues = append(resp.Issues, fmt.Sprintf("collection %s has no points; run ingestion", st.Collection))
	default:
		resp.Checks["vector_store"] = "healthy"
		resp.Checks["index"] = fmt.Sprintf("%d points, %d documents", st.Points, st.Documents)
	}

	if config.IsUsableAPIKey(h.apiKey) {
		resp.Checks["llm"] = "configured"
	} else {
		resp.Checks["llm"] = "missing_api_key"
		if resp.Status == "healthy" {
			resp.Status = "degraded"
		}
		resp.Issues = append(resp.Issues, "API key not configured or still using placeholder value")
	}

	statusCode := http.StatusOK
	if resp.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, ctx, statusCode, resp)
}
