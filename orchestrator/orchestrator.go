// Package orchestrator drives one question end-to-end: language handling,
// best-medicine selection, the shortcut table, the ranker, and optional
// extractive-QA and translation enrichment.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/metrics"
	"github.com/medinfo/medicines-api/providers"
	"github.com/medinfo/medicines-api/search"
	"github.com/medinfo/medicines-api/shortcut"
)

// State of one query in the retrieval state machine.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateShortcutHit  State = "SHORTCUT_HIT"
	StateShortcutMiss State = "SHORTCUT_MISS"
	StateResolved     State = "RESOLVED"
	StateDelivered    State = "DELIVERED"
	StateNoMatch      State = "NO_MATCH"
)

// Source tells which path produced the answer text.
type Source string

const (
	SourceShortcut Source = "shortcut"
	SourceQA       Source = "qa"
	SourceRanked   Source = "ranked"
)

// Reasons a query ends in NO_MATCH. An unavailable ranker is reported
// distinctly from an empty corpus so callers can tell them apart.
const (
	ReasonEmptyCorpus         = "empty_corpus"
	ReasonProviderUnavailable = "provider_unavailable"
	ReasonNoResults           = "no_results"
	ReasonBelowThreshold      = "below_threshold"
)

const (
	languageEnglish = "en"
	languageBurmese = "my"
)

// Question is one incoming query.
type Question struct {
	Text     string `json:"question"`
	Language string `json:"language"`
	TopK     int    `json:"topK,omitempty"`
}

// Match is one matched medicine in an answer. Score is the cosine score for
// ranked matches; shortcut matches are selected by name, not similarity, and
// carry no score.
type Match struct {
	MedicineID int      `json:"medicineId"`
	Score      float64  `json:"score,omitempty"`
	Names      []string `json:"names"`
}

// Answer is the resolved result handed to the presentation layer. A query
// that cannot be answered still produces an Answer in NO_MATCH state; only
// malformed input is an error.
type Answer struct {
	QueryID       string  `json:"queryId"`
	State         State   `json:"state"`
	Source        Source  `json:"source,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	Text          string  `json:"text,omitempty"`
	TextLocalized string  `json:"textLocalized,omitempty"`
	DetailedText  string  `json:"detailedText,omitempty"`
	Matches       []Match `json:"matches,omitempty"`
}

// IndexStore supplies the current document index snapshot.
type IndexStore interface {
	GetDocumentIndex() *index.DocumentIndex
}

// Orchestrator answers questions against the corpus held by the store.
// Translator and extractor are optional; without them answers stay English
// and un-enriched.
type Orchestrator struct {
	store      IndexStore
	ranker     search.Ranker
	matcher    *shortcut.Matcher
	translator providers.Translator
	extractor  providers.AnswerExtractor

	topK     int
	minScore float64
	folder   cases.Caser
}

type Option func(*Orchestrator)

// WithTranslator enables Burmese question handling and bilingual answers.
func WithTranslator(t providers.Translator) Option {
	return func(o *Orchestrator) { o.translator = t }
}

// WithExtractor enables extractive QA over the top-ranked document.
func WithExtractor(e providers.AnswerExtractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithMinScore rejects ranked answers below the threshold. Zero disables the
// check, matching the observed default behavior.
func WithMinScore(threshold float64) Option {
	return func(o *Orchestrator) { o.minScore = threshold }
}

func New(store IndexStore, ranker search.Ranker, matcher *shortcut.Matcher, topK int, opts ...Option) *Orchestrator {
	if topK <= 0 {
		topK = 3
	}
	o := &Orchestrator{
		store:   store,
		ranker:  ranker,
		matcher: matcher,
		topK:    topK,
		folder:  cases.Fold(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask runs the state machine for one question:
// RECEIVED -> (SHORTCUT_HIT | SHORTCUT_MISS) -> [RANK] -> RESOLVED ->
// (DELIVERED | NO_MATCH).
func (o *Orchestrator) Ask(ctx context.Context, q Question) (Answer, error) {
	answer := Answer{QueryID: uuid.NewString(), State: StateReceived}

	if strings.TrimSpace(q.Text) == "" {
		return answer, fmt.Errorf("%w: empty question", search.ErrInvalidArgument)
	}

	k := q.TopK
	if k <= 0 {
		k = o.topK
	}

	// Burmese questions are matched and ranked in English. A failed
	// translation degrades to the original text instead of failing the query.
	query := q.Text
	if q.Language == languageBurmese {
		query = o.translateOrOriginal(ctx, q.Text, languageBurmese, languageEnglish)
	}

	idx := o.store.GetDocumentIndex()
	if idx == nil || idx.Len() == 0 {
		return o.noMatch(answer, ReasonEmptyCorpus), nil
	}

	if best := o.bestDocument(ctx, query, idx); best != nil {
		if text, ok := o.matcher.Answer(query, best); ok {
			answer.State = StateShortcutHit
			metrics.ShortcutHitsTotal.Inc()
			// A name-matched shortcut answer has no cosine score; the match
			// carries the document only.
			return o.deliver(ctx, answer, SourceShortcut, text, best, []search.Match{{Document: *best}}), nil
		}
	}
	answer.State = StateShortcutMiss

	matches, err := o.ranker.Rank(ctx, query, idx, k)
	switch {
	case err == nil:
	case errors.Is(err, search.ErrEmptyCorpus):
		return o.noMatch(answer, ReasonEmptyCorpus), nil
	case errors.Is(err, providers.ErrUnavailable):
		logging.Error("Ranker unavailable", "error", err, "query_id", answer.QueryID)
		return o.noMatch(answer, ReasonProviderUnavailable), nil
	default:
		return answer, err
	}

	if len(matches) == 0 {
		return o.noMatch(answer, ReasonNoResults), nil
	}
	if o.minScore > 0 && matches[0].Score < o.minScore {
		return o.noMatch(answer, ReasonBelowThreshold), nil
	}

	answer.State = StateResolved
	top := matches[0].Document

	source := SourceRanked
	text := top.Text
	if o.extractor != nil {
		extracted, err := o.extractor.Answer(ctx, query, top.Text)
		if err != nil {
			logging.Warn("Answer extraction failed, returning ranked text", "error", err, "query_id", answer.QueryID)
		} else {
			source = SourceQA
			text = extracted.Text
		}
	}

	return o.deliver(ctx, answer, source, text, &top, matches), nil
}

// bestDocument picks the most relevant medicine to consult the shortcut
// table against: a name-substring scan first (free), then the ranker at k=1.
func (o *Orchestrator) bestDocument(ctx context.Context, query string, idx *index.DocumentIndex) *index.Document {
	folded := o.folder.String(query)

	for _, doc := range idx.All() {
		for _, name := range documentNames(doc) {
			if name != "" && strings.Contains(folded, o.folder.String(name)) {
				match := doc
				return &match
			}
		}
	}

	matches, err := o.ranker.Rank(ctx, query, idx, 1)
	if err != nil || len(matches) == 0 {
		return nil
	}
	return &matches[0].Document
}

func documentNames(doc index.Document) []string {
	var names []string
	for _, g := range doc.Medicine.GenericNames {
		names = append(names, g.Name, g.NameLocalized)
	}
	for _, b := range doc.Medicine.Brands {
		names = append(names, b.Brand.Name, b.Brand.NameLocalized)
	}
	return names
}

func (o *Orchestrator) deliver(ctx context.Context, answer Answer, source Source, text string, top *index.Document, matches []search.Match) Answer {
	answer.Source = source
	answer.Text = text
	answer.DetailedText = top.Text
	answer.TextLocalized = o.translateOrOriginal(ctx, text, languageEnglish, languageBurmese)

	answer.Matches = make([]Match, 0, len(matches))
	for _, m := range matches {
		answer.Matches = append(answer.Matches, Match{
			MedicineID: m.Document.OwnerID,
			Score:      m.Score,
			Names:      englishNames(m.Document),
		})
	}

	answer.State = StateDelivered
	metrics.QueriesTotal.WithLabelValues(string(StateDelivered), string(source)).Inc()
	return answer
}

func englishNames(doc index.Document) []string {
	var names []string
	for _, g := range doc.Medicine.GenericNames {
		names = append(names, g.Name)
	}
	return names
}

func (o *Orchestrator) noMatch(answer Answer, reason string) Answer {
	answer.State = StateNoMatch
	answer.Reason = reason
	answer.Text = "No relevant information found."
	metrics.QueriesTotal.WithLabelValues(string(StateNoMatch), reason).Inc()
	return answer
}

// translateOrOriginal never fails: a provider error is logged and the
// original text is returned unchanged.
func (o *Orchestrator) translateOrOriginal(ctx context.Context, text, source, target string) string {
	if o.translator == nil || text == "" {
		return text
	}

	translated, err := o.translator.Translate(ctx, text, source, target)
	if err != nil {
		logging.Warn("Translation failed, using original text", "error", err, "source", source, "target", target)
		return text
	}
	return translated
}
