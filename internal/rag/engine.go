package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/contextutil"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_model.go -package=mocks portfolio-rag/internal/rag ChatModel

const (
	// DefaultTopK is used when a request leaves TopK unset.
	DefaultTopK = 4
	// MaxTopK is the largest TopK a request may ask for.
	MaxTopK = 10
	// searchMultiplier over-fetches candidates to make up for threshold rejections.
	searchMultiplier = 3
)

// ErrEmptyMessage is returned for a question that is blank after trimming.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ChatModel is a single-prompt chat completion.
type ChatModel interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Settings are the engine knobs, taken once from the loaded configuration.
type Settings struct {
	ShowSources        bool
	RetrievalMinScore  float64
	BackgroundDir      string
	BackgroundFilename string
	BackgroundMaxChars int
}

// SettingsFromConfig extracts the engine settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ShowSources:        cfg.ShowSources,
		RetrievalMinScore:  cfg.RetrievalMinScore,
		BackgroundDir:      cfg.UploadsDir,
		BackgroundFilename: cfg.FixedResumeFilename,
		BackgroundMaxChars: cfg.FixedResumeMaxChars,
	}
}

// Engine answers portfolio questions.
type Engine interface {
	// Query classifies, retrieves, generates and gates one answer.
	Query(ctx context.Context, req Request) (Response, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	retriever  *Retriever
	chat       ChatModel
	gate       qualityGate
	background backgroundLoader
	settings   Settings
}

// NewEngine creates a new RAG engine.
func NewEngine(ix VectorIndex, ingester Ingester, chat ChatModel, settings Settings) Engine {
	return &ragEngine{
		retriever: NewRetriever(ix, ingester),
		chat:      chat,
		gate:      qualityGate{chat: chat},
		background: backgroundLoader{
			dir:      settings.BackgroundDir,
			filename: settings.BackgroundFilename,
			maxChars: settings.BackgroundMaxChars,
		},
		settings: settings,
	}
}

// Query answers req.Message.
//
// Errors are returned only before any context exists: a blank message, or a retrieval
// failure the retriever could not heal. Generation and rewrite failures are absorbed
// into a localized fallback answer.
func (e *ragEngine) Query(ctx context.Context, req Request) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	question := strings.TrimSpace(req.Message)
	if question == "" {
		return Response{}, ErrEmptyMessage
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	intent := Classify(question)
	logger.InfoContext(ctx, "RAG query started",
		"question_length", len(question),
		"top_k", topK,
		"language", intent.Language,
		"list_intent", intent.ListIntent,
		"requested_count", intent.RequestedCount,
		"project_intent", intent.ProjectIntent,
	)

	retrieved, err := e.retriever.Search(ctx, question, max(searchMultiplier*topK, topK))
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return Response{}, err
	}

	chunks := assembleContext(retrieved, intent, topK, e.settings.RetrievalMinScore)
	logger.InfoContext(ctx, "context assembled", "retrieved", len(retrieved), "kept", len(chunks))

	if bg, ok := e.background.load(ctx); ok {
		chunks = append(chunks, bg)
	}

	if len(chunks) == 0 {
		fallbacksTotal.WithLabelValues("no_context").Inc()
		logger.InfoContext(ctx, "no reliable context, returning canned answer")
		return Response{Answer: NoReliableInfoMessage(intent.Language), Sources: []Source{}}, nil
	}

	sources := buildSources(chunks)
	answer := e.generate(ctx, question, intent, chunks)

	if !e.settings.ShowSources {
		sources = []Source{}
	}
	queryDuration.Observe(time.Since(start).Seconds())
	logger.InfoContext(ctx, "RAG query completed", "answer_length", len(answer), "context_chunks", len(chunks))

	return Response{Answer: answer, Sources: sources}, nil
}

// generate calls the model once and runs the quality gate. Any failure yields the fallback answer.
func (e *ragEngine) generate(ctx context.Context, question string, intent Intent, chunks []ContextChunk) string {
	logger := contextutil.LoggerFromContext(ctx)
	prompt := buildAnswerPrompt(question, intent, chunks)
	logger.DebugContext(ctx, "sending prompt to LLM", "prompt_length", len(prompt))

	answer, err := e.chat.Chat(ctx, prompt)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty completion")
	}
	if err == nil {
		answer, err = e.gate.apply(ctx, question, answer, intent, contextTexts(chunks))
	}
	if err != nil {
		fallbacksTotal.WithLabelValues("generation").Inc()
		logger.ErrorContext(ctx, "answer generation failed, using fallback", "error", err)
		return fallbackAnswer(intent.Language, len(chunks) > 0)
	}
	return answer
}
