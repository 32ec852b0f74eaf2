package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/jurnalcek/internal/types"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	// DefaultOllamaModel is the Ollama packaging of all-MiniLM-L6-v2.
	DefaultOllamaModel = "all-minilm"
	DefaultOllamaURL   = "http://localhost:11434"
)

// EmbedderConfig selects and configures the sentence-embedding backend.
type EmbedderConfig struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string // openai only
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NewEmbedderWithConfig builds the embedder named by config.Provider.
// Scope vectors and query vectors must come from the same instance.
func NewEmbedderWithConfig(config EmbedderConfig) (types.Embedder, error) {
	switch config.Provider {
	case "", ProviderOllama:
		emb, err := NewOllamaEmbedder(config)
		if err != nil {
			return nil, err
		}
		return emb, nil
	case ProviderOpenAI:
		emb, err := NewOpenAIEmbedder(config)
		if err != nil {
			return nil, err
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}

// OllamaEmbedder embeds text through a local Ollama server.
type OllamaEmbedder struct {
	Config EmbedderConfig
	impl   *embeddings.EmbedderImpl
}

func NewOllamaEmbedder(config EmbedderConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultOllamaURL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}

	client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}

	impl, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(config.BatchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &OllamaEmbedder{
		Config: config,
		impl:   impl,
	}, nil
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed documents: %w", err)
	}
	return vectors, nil
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed query: %w", err)
	}
	return vector, nil
}
