package llm

import (
	"context"
	"fmt"

	"portfolio-rag/internal/config"
)

// ChatCompleter generates a reply for a single prompt.
type ChatCompleter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// NewFromConfig builds the chat and embedding clients selected by the configured providers.
// No network call is made here.
func NewFromConfig(cfg *config.Config) (ChatCompleter, Embedder, error) {
	var chat ChatCompleter
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		chat = NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTemperature)
	case config.ProviderGenAI:
		chat = NewGenAIClient(cfg.LLMAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, cfg.LLMTemperature)
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	var embedder Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		embedder = NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, 0)
	case config.ProviderGenAI:
		if g, ok := chat.(*GenAIClient); ok && g.APIKey == cfg.EmbeddingAPIKey {
			embedder = g
		} else {
			embedder = NewGenAIClient(cfg.EmbeddingAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, cfg.LLMTemperature)
		}
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	return chat, embedder, nil
}
