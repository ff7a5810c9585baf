// Package providers defines the external capabilities the retrieval core
// depends on but does not implement: dense text embedding, translation and
// extractive question answering. Each provider is injected where needed so
// tests can substitute deterministic fakes.
package providers

import (
	"context"
	"errors"
)

// ErrUnavailable marks a provider call that failed or timed out. Callers use
// errors.Is to tell a broken provider apart from an empty result.
var ErrUnavailable = errors.New("provider unavailable")

// Embedder converts texts into fixed-length dense vectors. All vectors in one
// index must come from the same embedder configuration.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Translator translates text between languages. Callers are expected to fall
// back to the original text when translation fails.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ExtractedAnswer is a span extracted from a context passage.
type ExtractedAnswer struct {
	Text  string  `json:"answer"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// AnswerExtractor runs extractive question answering over a context passage.
type AnswerExtractor interface {
	Answer(ctx context.Context, question, passage string) (ExtractedAnswer, error)
}
