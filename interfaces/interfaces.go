// Package interfaces defines the core abstractions of the service so the
// scheduler, handlers and tests can work against injected implementations.
package interfaces

import (
	"context"
	"time"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/medicines/entities"
)

// DataStore is the contract for corpus storage: thread-safe reads and an
// atomic whole-corpus replace.
type DataStore interface {
	GetMedicines() []entities.Medicine
	GetMedicinesMap() map[int]entities.Medicine
	GetDocumentIndex() *index.DocumentIndex
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateCorpus(medicines []entities.Medicine, medicinesMap map[int]entities.Medicine, idx *index.DocumentIndex)
	BeginUpdate() bool
	EndUpdate()
}

// CorpusLoader normalizes the raw tables and builds the document index.
type CorpusLoader interface {
	LoadCorpus(ctx context.Context) ([]entities.Medicine, *index.DocumentIndex, error)
}

// Scheduler manages periodic corpus reloads and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
}
