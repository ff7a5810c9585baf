package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/providers"
)

// DocumentIndex is the immutable set of embedded documents for one corpus
// load. It is safe for unlimited concurrent readers; a rebuild produces a new
// index that replaces this one atomically.
type DocumentIndex struct {
	documents []Document
	byOwner   map[int]*Document
	dimension int
}

// All returns the documents ordered by ascending owner id.
func (idx *DocumentIndex) All() []Document {
	return idx.documents
}

// ByOwnerID returns the document derived from the given medicine.
func (idx *DocumentIndex) ByOwnerID(id int) (*Document, bool) {
	doc, ok := idx.byOwner[id]
	return doc, ok
}

func (idx *DocumentIndex) Len() int {
	return len(idx.documents)
}

// Dimension is the vector length shared by every document in this index.
func (idx *DocumentIndex) Dimension() int {
	return idx.dimension
}

// Builder embeds medicine documents in parallel batches.
type Builder struct {
	embedder  providers.Embedder
	batchSize int
	workers   int
}

func NewBuilder(embedder providers.Embedder) *Builder {
	return &Builder{
		embedder:  embedder,
		batchSize: 16,
		workers:   4,
	}
}

// Build derives and embeds a document for every medicine. The build is
// all-or-nothing: any embedding failure fails the whole index so a partially
// embedded corpus is never served.
func (b *Builder) Build(ctx context.Context, meds []entities.Medicine) (*DocumentIndex, error) {
	documents := make([]Document, len(meds))
	texts := make([]string, len(meds))

	for i, med := range meds {
		documents[i] = Document{
			OwnerID:    med.ID,
			Text:       BuildText(med),
			FieldIndex: BuildFieldIndex(med),
			Medicine:   med,
		}
		texts[i] = documents[i].Text
	}

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	dimension := 0
	for i := range documents {
		documents[i].Vector = vectors[i]
		if dimension == 0 && len(vectors[i]) > 0 {
			dimension = len(vectors[i])
		}
	}

	// One embedder per index: a vector of a different length means the
	// provider configuration changed mid-build.
	for i := range documents {
		if len(documents[i].Vector) == 0 {
			documents[i].Vector = make([]float32, dimension)
		} else if len(documents[i].Vector) != dimension {
			return nil, fmt.Errorf("inconsistent vector dimension for medicine %d: got %d, want %d",
				documents[i].OwnerID, len(documents[i].Vector), dimension)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].OwnerID < documents[j].OwnerID
	})

	byOwner := make(map[int]*Document, len(documents))
	for i := range documents {
		byOwner[documents[i].OwnerID] = &documents[i]
	}

	logging.Info("Document index built", "documents", len(documents), "dimension", dimension)

	return &DocumentIndex{
		documents: documents,
		byOwner:   byOwner,
		dimension: dimension,
	}, nil
}

// embedAll fans batches out to a bounded set of workers. Empty texts are
// assigned zero vectors without hitting the provider.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	// Positions of texts that actually need embedding.
	positions := make([]int, 0, len(texts))
	for i, t := range texts {
		if t != "" {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return vectors, nil
	}

	type batch struct {
		positions []int
	}

	batches := make([]batch, 0, (len(positions)+b.batchSize-1)/b.batchSize)
	for start := 0; start < len(positions); start += b.batchSize {
		end := start + b.batchSize
		if end > len(positions) {
			end = len(positions)
		}
		batches = append(batches, batch{positions: positions[start:end]})
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, b.workers)
	errs := make([]error, len(batches))

	for bi, bt := range batches {
		wg.Add(1)
		go func(bi int, bt batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			batchTexts := make([]string, len(bt.positions))
			for i, pos := range bt.positions {
				batchTexts[i] = texts[pos]
			}

			embedded, err := b.embedder.Embed(ctx, batchTexts)
			if err != nil {
				errs[bi] = err
				return
			}
			if len(embedded) != len(batchTexts) {
				errs[bi] = fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(batchTexts))
				return
			}
			for i, pos := range bt.positions {
				vectors[pos] = embedded[i]
			}
		}(bi, bt)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("embedding corpus: %w", err)
		}
	}

	return vectors, nil
}
