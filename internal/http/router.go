package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-rag/internal/handlers"
	"portfolio-rag/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService  service.QueryService
	IngestService service.IngestService
	IndexStatus   handlers.StatusReporter
	LLMAPIKey     string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.QueryService)
	ingestHandler := handlers.NewIngestHandler(deps.IngestService)
	healthHandler := handlers.NewHealthHandler(deps.IndexStatus, deps.LLMAPIKey)

	r.Route("/rag", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodPost, "/ingest", ingestHandler)
	})

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
