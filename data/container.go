// Package data provides thread-safe storage for the loaded corpus. The
// container swaps whole snapshots atomically so queries running during a
// reload see either the old corpus or the new one, never a partial build.
package data

import (
	"sync/atomic"
	"time"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/interfaces"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
)

// Compile-time check to ensure Container implements DataStore
var _ interfaces.DataStore = (*Container)(nil)

// Container holds the corpus with atomic pointers for zero-downtime reloads.
type Container struct {
	medicines       atomic.Value // []entities.Medicine
	medicinesMap    atomic.Value // map[int]entities.Medicine
	documentIndex   atomic.Value // *index.DocumentIndex
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewContainer creates a container with empty data.
func NewContainer() *Container {
	c := &Container{}
	c.medicines.Store(make([]entities.Medicine, 0))
	c.medicinesMap.Store(make(map[int]entities.Medicine))
	c.documentIndex.Store((*index.DocumentIndex)(nil))
	c.lastUpdated.Store(time.Time{})
	c.serverStartTime.Store(time.Time{})
	return c
}

// Thread-safe getters with type check

// GetMedicines returns the normalized medicine list.
func (c *Container) GetMedicines() []entities.Medicine {
	if v := c.medicines.Load(); v != nil {
		if medicines, ok := v.([]entities.Medicine); ok {
			return medicines
		}
	}

	logging.Warn("Medicine list is empty or invalid")
	return []entities.Medicine{}
}

// GetMedicinesMap returns the medicines map for O(1) lookups.
func (c *Container) GetMedicinesMap() map[int]entities.Medicine {
	if v := c.medicinesMap.Load(); v != nil {
		if medicinesMap, ok := v.(map[int]entities.Medicine); ok {
			return medicinesMap
		}
	}

	logging.Warn("Medicines map is empty or invalid")
	return make(map[int]entities.Medicine)
}

// GetDocumentIndex returns the current document index, or nil before the
// first successful load.
func (c *Container) GetDocumentIndex() *index.DocumentIndex {
	if v := c.documentIndex.Load(); v != nil {
		if idx, ok := v.(*index.DocumentIndex); ok {
			return idx
		}
	}

	return nil
}

// GetLastUpdated returns the timestamp of the last corpus load.
func (c *Container) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true while a corpus reload is in progress.
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// SetServerStartTime sets the server start time.
func (c *Container) SetServerStartTime(startTime time.Time) {
	c.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time.
func (c *Container) GetServerStartTime() time.Time {
	if v := c.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCorpus atomically replaces the corpus and its document index.
func (c *Container) UpdateCorpus(medicines []entities.Medicine, medicinesMap map[int]entities.Medicine, idx *index.DocumentIndex) {
	c.medicines.Store(medicines)
	c.medicinesMap.Store(medicinesMap)
	c.documentIndex.Store(idx)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a corpus reload.
// Returns false when another reload is already running.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a corpus reload.
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}
