package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by LLM_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGenAI  = "genai"
)

// Config holds all configuration for the application.
type Config struct {
	LLMProvider    string
	LLMBaseURL     string
	LLMModelName   string
	LLMAPIKey      string
	LLMTemperature float32

	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	DBPath           string
	UploadsDir       string
	WatchUploads     bool
	VectorStore      string // "qdrant" or "memory"
	QdrantURL        string
	QdrantCollection string

	APIPort   string
	LogLevel  string
	LogFormat string

	Tuning
}

// Tuning holds the retrieval and ingestion knobs. They can be overridden
// from a YAML file named by RAG_TUNING_FILE; environment variables win over the file.
type Tuning struct {
	ShowSources         bool    `yaml:"show_sources"`
	RetrievalMinScore   float64 `yaml:"retrieval_min_score"`
	MinDocumentChars    int     `yaml:"min_document_chars"`
	FixedResumeFilename string  `yaml:"fixed_resume_filename"`
	FixedResumeMaxChars int     `yaml:"fixed_resume_max_chars"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
}

// DefaultTuning returns the tuning values used when nothing overrides them.
func DefaultTuning() Tuning {
	return Tuning{
		ShowSources:         false,
		RetrievalMinScore:   0.22,
		MinDocumentChars:    120,
		FixedResumeFilename: "Curriculo.txt",
		FixedResumeMaxChars: 1600,
		ChunkSize:           900,
		ChunkOverlap:        180,
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	tuning := DefaultTuning()
	if path := getEnv("RAG_TUNING_FILE", ""); path != "" {
		if err := loadTuningFile(path, &tuning); err != nil {
			return nil, err
		}
	}

	llmProvider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		LLMProvider:        llmProvider,
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModelName:       getEnv("LLM_MODEL", defaultChatModel(llmProvider)),
		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", llmProvider)),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", ""),
		DBPath:             getEnv("DB_PATH", "./data/portfolio-rag.db"),
		UploadsDir:         getEnv("UPLOADS_DIR", "./data/uploads"),
		VectorStore:        strings.ToLower(getEnv("VECTOR_STORE", "qdrant")),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", ""),
		APIPort:            getEnv("API_PORT", "9000"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		cfg.LLMAPIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", ""))
	case ProviderGenAI:
		cfg.LLMAPIKey = getEnv("LLM_API_KEY", getEnv("GENAI_API_KEY", ""))
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGenAI, cfg.LLMProvider)
	}

	switch cfg.EmbeddingProvider {
	case ProviderOpenAI:
		cfg.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", cfg.LLMAPIKey))
		if cfg.EmbeddingModelName == "" {
			cfg.EmbeddingModelName = "text-embedding-3-small"
		}
	case ProviderGenAI:
		cfg.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", getEnv("GENAI_API_KEY", cfg.LLMAPIKey))
		if cfg.EmbeddingModelName == "" {
			cfg.EmbeddingModelName = "gemini-embedding-001"
		}
	default:
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGenAI, cfg.EmbeddingProvider)
	}
	if cfg.VectorStore != "qdrant" && cfg.VectorStore != "memory" {
		return nil, fmt.Errorf("VECTOR_STORE must be \"qdrant\" or \"memory\", got %q", cfg.VectorStore)
	}

	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.LLMBaseURL
	}

	temp, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 32)
	if err != nil {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be a valid number: %w", err)
	}
	cfg.LLMTemperature = float32(temp)

	if cfg.WatchUploads, err = parseBool("WATCH_UPLOADS", false); err != nil {
		return nil, err
	}

	if err := applyTuningEnv(&tuning); err != nil {
		return nil, err
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	cfg.Tuning = tuning

	if cfg.QdrantCollection == "" {
		cfg.QdrantCollection = CollectionName(cfg.EmbeddingProvider, cfg.EmbeddingModelName)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return cfg, nil
}

// Validate checks the tuning values for consistency.
func (t Tuning) Validate() error {
	if t.RetrievalMinScore < 0 || t.RetrievalMinScore > 1 {
		return fmt.Errorf("RETRIEVAL_MIN_SCORE must be between 0 and 1")
	}
	if t.MinDocumentChars < 0 {
		return fmt.Errorf("MIN_DOCUMENT_CHARS must not be negative")
	}
	if t.FixedResumeMaxChars <= 0 {
		return fmt.Errorf("FIXED_RESUME_MAX_CHARS must be greater than 0")
	}
	if t.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if t.ChunkOverlap < 0 || t.ChunkOverlap >= t.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be >= 0 and smaller than CHUNK_SIZE")
	}
	return nil
}

// HasUsableAPIKey reports whether the chat credential is present and not a template placeholder.
func (c *Config) HasUsableAPIKey() bool {
	return IsUsableAPIKey(c.LLMAPIKey)
}

// IsUsableAPIKey rejects empty keys and placeholders such as YOUR_OPENAI_API_KEY.
func IsUsableAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToUpper(key), "YOUR_")
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CollectionName derives a collection name from the embedding profile so that
// switching provider or model never writes vectors of a new size into an old collection.
func CollectionName(provider, model string) string {
	profile := provider + ":" + model
	sum := sha1.Sum([]byte(profile))
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(profile), "_"), "_")
	if len(slug) > 32 {
		slug = strings.TrimRight(slug[:32], "_")
	}
	if slug == "" {
		slug = "default"
	}
	return fmt.Sprintf("portfolio_rag_%s_%s", slug, hex.EncodeToString(sum[:])[:8])
}

func defaultChatModel(provider string) string {
	if provider == ProviderGenAI {
		return "gemini-2.5-flash"
	}
	return "gpt-4o-mini"
}

func loadTuningFile(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return nil
}

func applyTuningEnv(t *Tuning) error {
	var err error
	if t.ShowSources, err = parseBool("SHOW_SOURCES", t.ShowSources); err != nil {
		return err
	}
	if v := os.Getenv("RETRIEVAL_MIN_SCORE"); v != "" {
		if t.RetrievalMinScore, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("RETRIEVAL_MIN_SCORE must be a valid number: %w", err)
		}
	}
	if t.MinDocumentChars, err = parseInt("MIN_DOCUMENT_CHARS", t.MinDocumentChars); err != nil {
		return err
	}
	t.FixedResumeFilename = getEnv("FIXED_RESUME_FILENAME", t.FixedResumeFilename)
	if t.FixedResumeMaxChars, err = parseInt("FIXED_RESUME_MAX_CHARS", t.FixedResumeMaxChars); err != nil {
		return err
	}
	if t.ChunkSize, err = parseInt("CHUNK_SIZE", t.ChunkSize); err != nil {
		return err
	}
	if t.ChunkOverlap, err = parseInt("CHUNK_OVERLAP", t.ChunkOverlap); err != nil {
		return err
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
