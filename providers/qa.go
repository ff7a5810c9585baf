package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPAnswerExtractor calls a hosted extractive question-answering model
// (HuggingFace inference style: question + context in, answer span out).
type HTTPAnswerExtractor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type ExtractorConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

func NewHTTPAnswerExtractor(cfg ExtractorConfig) *HTTPAnswerExtractor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAnswerExtractor{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *HTTPAnswerExtractor) Answer(ctx context.Context, question, passage string) (ExtractedAnswer, error) {
	var answer ExtractedAnswer

	body, err := json.Marshal(map[string]any{
		"inputs": map[string]string{
			"question": question,
			"context":  passage,
		},
	})
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return answer, fmt.Errorf("%w: qa model returned %s", ErrUnavailable, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := json.Unmarshal(payload, &answer); err != nil {
		return answer, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if answer.Text == "" {
		return answer, fmt.Errorf("%w: empty answer", ErrUnavailable)
	}

	return answer, nil
}
