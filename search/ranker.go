// Package search scores documents against a free-text query by cosine
// similarity over their embeddings.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/providers"
)

var (
	// ErrInvalidArgument rejects malformed caller input: empty query or
	// non-positive k. Input is never silently coerced.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyCorpus means the index holds zero documents; no embedding is
	// attempted in that case.
	ErrEmptyCorpus = errors.New("empty corpus")
)

// Match pairs a document with its relevance score.
type Match struct {
	Document index.Document
	Score    float64
}

// Ranker returns the top-k documents for a query. The brute-force cosine
// ranker can be swapped for a sub-linear index without changing callers.
type Ranker interface {
	Rank(ctx context.Context, query string, idx *index.DocumentIndex, k int) ([]Match, error)
}

// CosineRanker embeds the query and scans every document. O(n*d) per query,
// which is fine at corpus sizes of tens to low hundreds of medicines.
type CosineRanker struct {
	embedder providers.Embedder
}

func NewCosineRanker(embedder providers.Embedder) *CosineRanker {
	return &CosineRanker{embedder: embedder}
}

// Rank returns min(k, corpus size) matches ordered by descending score.
// Equal scores are broken by ascending owner id so results are deterministic.
func (r *CosineRanker) Rank(ctx context.Context, query string, idx *index.DocumentIndex, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	if idx.Len() == 0 {
		return nil, ErrEmptyCorpus
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding query: %w: got %d vectors", providers.ErrUnavailable, len(vectors))
	}
	queryVector := vectors[0]

	documents := idx.All()
	matches := make([]Match, 0, len(documents))
	for _, doc := range documents {
		matches = append(matches, Match{
			Document: doc,
			Score:    Cosine(queryVector, doc.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Document.OwnerID < matches[j].Document.OwnerID
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Cosine computes dot(a,b)/(||a||*||b||), or 0 when either vector has zero
// norm. The result is always in [-1, 1].
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp float rounding so callers can rely on the [-1, 1] bound.
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score
}
