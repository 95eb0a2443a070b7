package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GenAIClient talks to Google's Gemini API for both chat and embeddings.
// The SDK client is created on first use so a missing key surfaces per call, not at startup.
type GenAIClient struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32

	mu     sync.Mutex
	client *genai.Client
}

// NewGenAIClient creates a GenAI-backed client.
func NewGenAIClient(apiKey, model, embeddingModel string, temperature float32) *GenAIClient {
	return &GenAIClient{
		APIKey:         apiKey,
		Model:          model,
		EmbeddingModel: embeddingModel,
		Temperature:    temperature,
	}
}

func (c *GenAIClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	return client, nil
}

// Chat sends a single prompt and returns the generated text.
func (c *GenAIClient) Chat(ctx context.Context, prompt string) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no text returned")
	}
	return text, nil
}

// EmbedTexts embeds documents and queries with the retrieval task type.
func (c *GenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := client.Models.EmbedContent(ctx, c.EmbeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
