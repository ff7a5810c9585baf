package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/providers"
)

// queueEmbedder pops pre-scripted vectors in call order, so tests control
// exactly which vector each text receives.
type queueEmbedder struct {
	queue [][]float32
	fail  bool
	calls int
}

func (q *queueEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	q.calls++
	if q.fail {
		return nil, fmt.Errorf("%w: scripted failure", providers.ErrUnavailable)
	}
	if len(q.queue) < len(texts) {
		return nil, fmt.Errorf("queueEmbedder: out of vectors (%d left, %d wanted)", len(q.queue), len(texts))
	}
	out := q.queue[:len(texts)]
	q.queue = q.queue[len(texts):]
	return out, nil
}

// buildIndex embeds three medicines with the given vectors, in id order.
func buildIndex(t *testing.T, vectors ...[]float32) *index.DocumentIndex {
	t.Helper()

	meds := make([]entities.Medicine, len(vectors))
	for i := range vectors {
		meds[i] = entities.Medicine{ID: i + 1, Uses: fmt.Sprintf("uses %d", i+1)}
	}

	idx, err := index.NewBuilder(&queueEmbedder{queue: vectors}).Build(context.Background(), meds)
	if err != nil {
		t.Fatalf("building test index: %v", err)
	}
	return idx
}

func emptyIndex(t *testing.T) *index.DocumentIndex {
	t.Helper()
	idx, err := index.NewBuilder(&queueEmbedder{}).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("building empty index: %v", err)
	}
	return idx
}

func TestRankOrdersByScore(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1, 0, 0}, // id 1
		[]float32{0, 1, 0}, // id 2
		[]float32{0.9, 0.1, 0}, // id 3
	)

	ranker := NewCosineRanker(&queueEmbedder{queue: [][]float32{{1, 0, 0}}})

	matches, err := ranker.Rank(context.Background(), "pain", idx, 3)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}
	if matches[0].Document.OwnerID != 1 {
		t.Errorf("Expected medicine 1 first, got %d", matches[0].Document.OwnerID)
	}
	if matches[1].Document.OwnerID != 3 {
		t.Errorf("Expected medicine 3 second, got %d", matches[1].Document.OwnerID)
	}
	if matches[2].Document.OwnerID != 2 {
		t.Errorf("Expected medicine 2 last, got %d", matches[2].Document.OwnerID)
	}
}

func TestRankTieBreaksByAscendingOwnerID(t *testing.T) {
	// Identical vectors: identical scores for every document.
	idx := buildIndex(t,
		[]float32{1, 1, 0},
		[]float32{1, 1, 0},
		[]float32{1, 1, 0},
	)

	ranker := NewCosineRanker(&queueEmbedder{queue: [][]float32{{1, 1, 0}}})

	matches, err := ranker.Rank(context.Background(), "anything", idx, 3)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	for i, m := range matches {
		if m.Document.OwnerID != i+1 {
			t.Errorf("Position %d: expected medicine %d, got %d", i, i+1, m.Document.OwnerID)
		}
	}
}

func TestRankIsDeterministic(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1, 1, 0},
		[]float32{1, 1, 0},
		[]float32{0, 0, 1},
	)

	embedder := &queueEmbedder{queue: [][]float32{{1, 1, 0}, {1, 1, 0}}}
	ranker := NewCosineRanker(embedder)

	first, err := ranker.Rank(context.Background(), "same query", idx, 3)
	if err != nil {
		t.Fatalf("First rank failed: %v", err)
	}
	second, err := ranker.Rank(context.Background(), "same query", idx, 3)
	if err != nil {
		t.Fatalf("Second rank failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Document.OwnerID != second[i].Document.OwnerID {
			t.Errorf("Position %d differs: %d vs %d", i, first[i].Document.OwnerID, second[i].Document.OwnerID)
		}
		if first[i].Score != second[i].Score {
			t.Errorf("Score at %d differs: %v vs %v", i, first[i].Score, second[i].Score)
		}
	}
}

func TestRankTopKBound(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1, 0, 0},
		[]float32{0, 1, 0},
		[]float32{0, 0, 1},
	)

	tests := []struct {
		k    int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 3},
		{10, 3}, // k beyond corpus size returns the whole corpus ranked
	}

	for _, tc := range tests {
		ranker := NewCosineRanker(&queueEmbedder{queue: [][]float32{{1, 0, 0}}})
		matches, err := ranker.Rank(context.Background(), "q", idx, tc.k)
		if err != nil {
			t.Fatalf("Rank with k=%d failed: %v", tc.k, err)
		}
		if len(matches) != tc.want {
			t.Errorf("k=%d: expected %d matches, got %d", tc.k, tc.want, len(matches))
		}
	}
}

func TestRankScoreBounds(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1, 2, 3},
		[]float32{-1, -2, -3},
		[]float32{0, 0, 0}, // zero vector scores 0
	)

	ranker := NewCosineRanker(&queueEmbedder{queue: [][]float32{{1, 2, 3}}})

	matches, err := ranker.Rank(context.Background(), "q", idx, 3)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	for _, m := range matches {
		if m.Score < -1 || m.Score > 1 {
			t.Errorf("Score %v out of [-1, 1] for medicine %d", m.Score, m.Document.OwnerID)
		}
	}
}

func TestRankInvalidArguments(t *testing.T) {
	idx := buildIndex(t, []float32{1, 0, 0})

	tests := []struct {
		name  string
		query string
		k     int
	}{
		{"zero k", "valid query", 0},
		{"negative k", "valid query", -2},
		{"empty query", "", 3},
		{"blank query", "   ", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ranker := NewCosineRanker(&queueEmbedder{})
			_, err := ranker.Rank(context.Background(), tc.query, idx, tc.k)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRankEmptyCorpus(t *testing.T) {
	embedder := &queueEmbedder{}
	ranker := NewCosineRanker(embedder)

	_, err := ranker.Rank(context.Background(), "query", emptyIndex(t), 3)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Expected ErrEmptyCorpus, got %v", err)
	}
	if embedder.calls != 0 {
		t.Error("Embedder must not be called for an empty corpus")
	}
}

func TestRankProviderFailure(t *testing.T) {
	idx := buildIndex(t, []float32{1, 0, 0})

	ranker := NewCosineRanker(&queueEmbedder{fail: true})

	_, err := ranker.Rank(context.Background(), "query", idx, 3)
	if !errors.Is(err, providers.ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero right", []float32{1, 1}, []float32{0, 0}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
