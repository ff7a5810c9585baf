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

// HTTPTranslator talks to a LibreTranslate-compatible endpoint.
type HTTPTranslator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type TranslatorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPTranslator(cfg TranslatorConfig) *HTTPTranslator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTranslator{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Translate translates text from source to target language. The caller is
// responsible for falling back to the original text on error.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if text == "" || source == target {
		return text, nil
	}

	body, err := json.Marshal(map[string]string{
		"q":       text,
		"source":  source,
		"target":  target,
		"format":  "text",
		"api_key": t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: translate returned %s", ErrUnavailable, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("%w: empty translation", ErrUnavailable)
	}

	return out.TranslatedText, nil
}
