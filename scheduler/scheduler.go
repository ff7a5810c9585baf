// Package scheduler coordinates corpus reloads: an initial load at startup,
// twice-daily refreshes, and a staleness watchdog.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medinfo/medicines-api/interfaces"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/metrics"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles corpus reloads and health monitoring using dependency
// injection.
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.CorpusLoader
	scheduler *gocron.Scheduler
	stopCh    chan struct{}
}

// NewScheduler creates a scheduler with injected dependencies.
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.CorpusLoader) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		loader:    loader,
		scheduler: gocron.NewScheduler(time.Local),
		stopCh:    make(chan struct{}),
	}
}

// Start performs the initial corpus load, then schedules refreshes at 06:00
// and 18:00 and a staleness watchdog.
func (s *Scheduler) Start() error {
	if err := s.reload(); err != nil {
		logging.Error("Failed to perform initial corpus load", "error", err)
		return fmt.Errorf("initial corpus load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to reload corpus", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule corpus reloads: %w", err)
	}

	s.scheduler.StartAsync()

	go s.watchStaleness()

	return nil
}

// Stop halts the scheduler and the watchdog.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.scheduler.Stop()
}

// reload runs one full corpus load and swaps it in atomically. Only one
// reload runs at a time; overlapping triggers are skipped.
func (s *Scheduler) reload() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Corpus reload already in progress, skipping")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()
	logging.Info("Starting corpus reload")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	medicines, idx, err := s.loader.LoadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	medicinesMap := make(map[int]entities.Medicine, len(medicines))
	for i := range medicines {
		medicinesMap[medicines[i].ID] = medicines[i]
	}

	s.dataStore.UpdateCorpus(medicines, medicinesMap, idx)
	metrics.CorpusMedicines.Set(float64(len(medicines)))

	logging.Info("Corpus reload completed",
		"duration", time.Since(start).String(),
		"medicine_count", len(medicines),
		"index_dimension", idx.Dimension(),
	)

	return nil
}

// watchStaleness warns when the corpus has not been refreshed in over a day.
func (s *Scheduler) watchStaleness() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			lastUpdate := s.dataStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Corpus hasn't been updated in over 25 hours")
			}
		}
	}
}

// CalculateNextUpdate returns the next scheduled reload time.
func CalculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}
	if now.Before(sixPM) {
		return sixPM
	}

	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 6, 0, 0, 0, tomorrow.Location())
}
