package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/providers"
	"github.com/medinfo/medicines-api/search"
	"github.com/medinfo/medicines-api/shortcut"
)

type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

// countingRanker serves scripted matches and records how often it was asked.
type countingRanker struct {
	matches []search.Match
	err     error
	calls   int
}

func (r *countingRanker) Rank(ctx context.Context, query string, idx *index.DocumentIndex, k int) ([]search.Match, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if k < len(r.matches) {
		return r.matches[:k], nil
	}
	return r.matches, nil
}

type fakeStore struct {
	idx *index.DocumentIndex
}

func (s *fakeStore) GetDocumentIndex() *index.DocumentIndex { return s.idx }

type fakeTranslator struct {
	prefix string
	err    error
}

func (t *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.prefix + text, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) Answer(ctx context.Context, question, passage string) (providers.ExtractedAnswer, error) {
	if e.err != nil {
		return providers.ExtractedAnswer{}, e.err
	}
	return providers.ExtractedAnswer{Text: e.text, Score: 0.9}, nil
}

func testCorpus(t *testing.T) *index.DocumentIndex {
	t.Helper()

	meds := []entities.Medicine{
		{
			ID:           1,
			GenericNames: []entities.GenericName{{ID: 10, Name: "Paracetamol", NameLocalized: "ပါရာစီတမော"}},
			Brands:       []entities.BrandRef{{Brand: entities.BrandName{ID: 20, Name: "Panadol"}}},
			Uses:         "pain and fever",
			SideEffects:  entities.SideEffects{Common: []string{"nausea"}},
		},
		{
			ID:           2,
			GenericNames: []entities.GenericName{{ID: 11, Name: "Ibuprofen"}},
			Brands: []entities.BrandRef{
				{Brand: entities.BrandName{ID: 21, Name: "Advil"}},
				{Brand: entities.BrandName{ID: 22, Name: "Motrin"}},
				{Brand: entities.BrandName{ID: 23, Name: "Nurofen"}},
			},
			Uses: "pain and inflammation",
		},
	}

	idx, err := index.NewBuilder(constEmbedder{}).Build(context.Background(), meds)
	if err != nil {
		t.Fatalf("building test corpus: %v", err)
	}
	return idx
}

func rankedMatches(t *testing.T, idx *index.DocumentIndex, ids ...int) []search.Match {
	t.Helper()

	matches := make([]search.Match, 0, len(ids))
	for i, id := range ids {
		doc, ok := idx.ByOwnerID(id)
		if !ok {
			t.Fatalf("no document for medicine %d", id)
		}
		matches = append(matches, search.Match{Document: *doc, Score: 0.9 - 0.1*float64(i)})
	}
	return matches
}

func TestAskShortcutBypassesRanker(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3)

	answer, err := orch.Ask(context.Background(), Question{Text: "What is Paracetamol used for?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.State != StateDelivered {
		t.Errorf("Expected DELIVERED, got %s", answer.State)
	}
	if answer.Source != SourceShortcut {
		t.Errorf("Expected shortcut source, got %s", answer.Source)
	}
	if answer.Text != "pain and fever" {
		t.Errorf("Expected uses text, got %q", answer.Text)
	}
	if ranker.calls != 0 {
		t.Errorf("Ranker must not be invoked on a shortcut hit, got %d calls", ranker.calls)
	}
	if answer.QueryID == "" {
		t.Error("Expected a query id")
	}
}

func TestAskShortcutBrandNames(t *testing.T) {
	idx := testCorpus(t)
	orch := New(&fakeStore{idx: idx}, &countingRanker{}, shortcut.NewMatcher(), 3)

	answer, err := orch.Ask(context.Background(), Question{Text: "brand names for Ibuprofen"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.Source != SourceShortcut {
		t.Fatalf("Expected shortcut source, got %s", answer.Source)
	}
	if answer.Text != "Advil, Motrin, Nurofen" {
		t.Errorf("Expected joined brand names, got %q", answer.Text)
	}
	if len(answer.Matches) != 1 || answer.Matches[0].MedicineID != 2 {
		t.Errorf("Expected the matched medicine in the answer, got %+v", answer.Matches)
	}
	// Name-matched, not ranked: no similarity score to report.
	if answer.Matches[0].Score != 0 {
		t.Errorf("Shortcut match should carry no score, got %v", answer.Matches[0].Score)
	}
}

func TestAskBurmeseShortcut(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{}
	translator := &fakeTranslator{err: errors.New("translate backend down")}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3, WithTranslator(translator))

	// Translation fails, so the Burmese text flows through unchanged. The
	// localized medicine name and Burmese trigger still resolve the shortcut.
	answer, err := orch.Ask(context.Background(), Question{Text: "ပါရာစီတမော ဘာအတွက်လဲ", Language: "my"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.Source != SourceShortcut {
		t.Errorf("Expected shortcut source, got %s", answer.Source)
	}
	if answer.Text != "pain and fever" {
		t.Errorf("Expected uses text, got %q", answer.Text)
	}
	if ranker.calls != 0 {
		t.Errorf("Ranker must not be invoked, got %d calls", ranker.calls)
	}
}

func TestAskRankedFallback(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{matches: rankedMatches(t, idx, 2, 1)}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3)

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.State != StateDelivered {
		t.Errorf("Expected DELIVERED, got %s (reason %s)", answer.State, answer.Reason)
	}
	if answer.Source != SourceRanked {
		t.Errorf("Expected ranked source, got %s", answer.Source)
	}
	if len(answer.Matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(answer.Matches))
	}
	if answer.Matches[0].MedicineID != 2 {
		t.Errorf("Expected medicine 2 first, got %d", answer.Matches[0].MedicineID)
	}
	if answer.DetailedText == "" {
		t.Error("Expected detailed text from the top document")
	}
}

func TestAskEmptyCorpus(t *testing.T) {
	tests := []struct {
		name string
		idx  *index.DocumentIndex
	}{
		{"nil index before first load", nil},
		{"zero documents", mustEmptyIndex(t)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ranker := &countingRanker{}
			orch := New(&fakeStore{idx: tc.idx}, ranker, shortcut.NewMatcher(), 3)

			answer, err := orch.Ask(context.Background(), Question{Text: "What is Paracetamol used for?"})
			if err != nil {
				t.Fatalf("Expected NO_MATCH answer, not error: %v", err)
			}
			if answer.State != StateNoMatch {
				t.Errorf("Expected NO_MATCH, got %s", answer.State)
			}
			if answer.Reason != ReasonEmptyCorpus {
				t.Errorf("Expected empty_corpus reason, got %s", answer.Reason)
			}
			if ranker.calls != 0 {
				t.Errorf("Ranker must not be invoked for an empty corpus, got %d calls", ranker.calls)
			}
		})
	}
}

func mustEmptyIndex(t *testing.T) *index.DocumentIndex {
	t.Helper()
	idx, err := index.NewBuilder(constEmbedder{}).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("building empty index: %v", err)
	}
	return idx
}

func TestAskProviderUnavailable(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{err: fmt.Errorf("embedding query: %w", providers.ErrUnavailable)}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3)

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Expected NO_MATCH answer, not error: %v", err)
	}

	if answer.State != StateNoMatch {
		t.Errorf("Expected NO_MATCH, got %s", answer.State)
	}
	if answer.Reason != ReasonProviderUnavailable {
		t.Errorf("Expected provider_unavailable reason, got %s", answer.Reason)
	}
}

func TestAskNoResults(t *testing.T) {
	idx := testCorpus(t)
	orch := New(&fakeStore{idx: idx}, &countingRanker{}, shortcut.NewMatcher(), 3)

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.State != StateNoMatch || answer.Reason != ReasonNoResults {
		t.Errorf("Expected NO_MATCH/no_results, got %s/%s", answer.State, answer.Reason)
	}
}

func TestAskBelowThreshold(t *testing.T) {
	idx := testCorpus(t)
	matches := rankedMatches(t, idx, 2)
	matches[0].Score = 0.1
	orch := New(&fakeStore{idx: idx}, &countingRanker{matches: matches}, shortcut.NewMatcher(), 3, WithMinScore(0.5))

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.State != StateNoMatch || answer.Reason != ReasonBelowThreshold {
		t.Errorf("Expected NO_MATCH/below_threshold, got %s/%s", answer.State, answer.Reason)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	orch := New(&fakeStore{idx: testCorpus(t)}, &countingRanker{}, shortcut.NewMatcher(), 3)

	for _, text := range []string{"", "   "} {
		_, err := orch.Ask(context.Background(), Question{Text: text})
		if !errors.Is(err, search.ErrInvalidArgument) {
			t.Errorf("Question %q: expected ErrInvalidArgument, got %v", text, err)
		}
	}
}

func TestAskTranslatesAnswer(t *testing.T) {
	idx := testCorpus(t)
	orch := New(&fakeStore{idx: idx}, &countingRanker{}, shortcut.NewMatcher(), 3,
		WithTranslator(&fakeTranslator{prefix: "my:"}))

	answer, err := orch.Ask(context.Background(), Question{Text: "What is Paracetamol used for?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.TextLocalized != "my:pain and fever" {
		t.Errorf("Expected translated text, got %q", answer.TextLocalized)
	}
}

func TestAskTranslationFailureDegrades(t *testing.T) {
	idx := testCorpus(t)
	orch := New(&fakeStore{idx: idx}, &countingRanker{}, shortcut.NewMatcher(), 3,
		WithTranslator(&fakeTranslator{err: errors.New("backend down")}))

	answer, err := orch.Ask(context.Background(), Question{Text: "What is Paracetamol used for?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.TextLocalized != answer.Text {
		t.Errorf("Expected fallback to original text, got %q", answer.TextLocalized)
	}
}

func TestAskExtractorEnrichesAnswer(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{matches: rankedMatches(t, idx, 2)}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3,
		WithExtractor(&fakeExtractor{text: "Ibuprofen treats pain and inflammation."}))

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.Source != SourceQA {
		t.Errorf("Expected qa source, got %s", answer.Source)
	}
	if answer.Text != "Ibuprofen treats pain and inflammation." {
		t.Errorf("Expected extracted answer, got %q", answer.Text)
	}
}

func TestAskExtractorFailureFallsBack(t *testing.T) {
	idx := testCorpus(t)
	ranker := &countingRanker{matches: rankedMatches(t, idx, 2)}
	orch := New(&fakeStore{idx: idx}, ranker, shortcut.NewMatcher(), 3,
		WithExtractor(&fakeExtractor{err: fmt.Errorf("%w: qa backend down", providers.ErrUnavailable)}))

	answer, err := orch.Ask(context.Background(), Question{Text: "what helps with inflammation"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if answer.Source != SourceRanked {
		t.Errorf("Expected fallback to ranked source, got %s", answer.Source)
	}
	if answer.State != StateDelivered {
		t.Errorf("Expected DELIVERED, got %s", answer.State)
	}
}
