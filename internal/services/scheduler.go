package services

import (
	"log"
	"sync"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/store"
)

// RetentionScheduler periodically prunes readings, events, and reports
// older than the configured retention horizon.
type RetentionScheduler struct {
	store         store.DataStore
	retentionDays int
	checkInterval time.Duration

	ticker    *time.Ticker
	stopChan  chan struct{}
	mu        sync.Mutex
	isRunning bool
}

// NewRetentionScheduler creates a scheduler that keeps retentionDays of history
func NewRetentionScheduler(dataStore store.DataStore, retentionDays int) *RetentionScheduler {
	if retentionDays <= 0 {
		retentionDays = 365
	}
	return &RetentionScheduler{
		store:         dataStore,
		retentionDays: retentionDays,
		checkInterval: 1 * time.Hour,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic retention checks
func (s *RetentionScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		log.Println("⚠️ Retention scheduler is already running")
		return
	}

	s.ticker = time.NewTicker(s.checkInterval)
	s.isRunning = true

	go s.run()

	log.Printf("🕐 Retention scheduler started (keeping %d days, checking every %v)", s.retentionDays, s.checkInterval)
}

// Stop halts the scheduler
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.ticker.Stop()
	close(s.stopChan)
	s.isRunning = false

	log.Println("🛑 Retention scheduler stopped")
}

// IsRunning returns whether the scheduler is currently active
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *RetentionScheduler) run() {
	// Prune once at startup so a long-stopped instance catches up
	s.PruneExpired()

	for {
		select {
		case <-s.ticker.C:
			s.PruneExpired()
		case <-s.stopChan:
			return
		}
	}
}

// PruneExpired removes all data older than the retention horizon and
// reports what was deleted.
func (s *RetentionScheduler) PruneExpired() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	readings, events, reports := s.store.PruneBefore(cutoff)
	if readings+events+reports == 0 {
		return
	}

	log.Printf("💾 Retention pass pruned %d readings, %d events, %d reports older than %s",
		readings, events, reports, cutoff.Format("2006-01-02"))
}
