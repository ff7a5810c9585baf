package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/metrics"
)

// OpenAIEmbedder produces embeddings through an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	maxRetries int
}

// OpenAIConfig configures the embedding client. BaseURL may point at any
// OpenAI-compatible server.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding provider: missing API key")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		maxRetries: 3,
	}, nil
}

// Embed returns one vector per input text, in input order. Transient API
// failures are retried with exponential backoff before giving up.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoffDelay(attempt)):
			}
			logging.Warn("Retrying embedding request", "attempt", attempt)
		}

		start := time.Now()
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: e.model,
		})
		metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			lastErr = err
			continue
		}

		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrUnavailable, len(resp.Data), len(texts))
		}

		vectors := make([][]float32, len(texts))
		for _, d := range resp.Data {
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
