package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-rag/internal/app"
	"portfolio-rag/internal/config"
	"portfolio-rag/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about a personal portfolio using documents uploaded to the server.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Portfolio RAG API
//   description: |
//     Retrieval-augmented question answering over portfolio documents (CV, projects, articles).
//     Questions may be asked in Portuguese or English; answers follow the question's language.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	if !cfg.HasUsableAPIKey() {
		slog.Warn("LLM API key not configured; chat requests will be rejected until it is set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		_ = application.Close()
	}()

	router := http.NewRouter(&http.Deps{
		QueryService:  application.QueryService,
		IngestService: application.IngestService,
		IndexStatus:   application.Index,
		LLMAPIKey:     cfg.LLMAPIKey,
	})

	if cfg.WatchUploads {
		watcher := application.Watcher()
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Uploads watcher stopped", "error", err)
			}
		}()
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
