package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// Store is the in-memory implementation of DataStore. It keeps a bounded
// window of readings per tank and is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	tanks       map[string]models.Tank
	readings    map[string][]models.Reading      // per tank, insertion order
	latest      map[string]*models.Reading       // latest reading per tank
	events      map[string][]models.Event        // per tank, insertion order
	reports     map[string][]models.HealthReport // per tank, insertion order
	maxReadings int
}

// NewStore creates a new in-memory store. maxReadings bounds how many
// readings are retained per tank before the oldest are evicted.
func NewStore(maxReadings int) *Store {
	if maxReadings <= 0 {
		maxReadings = 1000 // Default to store last 1000 readings per tank
	}

	return &Store{
		tanks:       make(map[string]models.Tank),
		readings:    make(map[string][]models.Reading),
		latest:      make(map[string]*models.Reading),
		events:      make(map[string][]models.Event),
		reports:     make(map[string][]models.HealthReport),
		maxReadings: maxReadings,
	}
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping() error {
	return nil
}

// === Tank Management ===

// CreateTank registers a new tank
func (s *Store) CreateTank(tank models.Tank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tanks[tank.ID]; exists {
		return fmt.Errorf("tank %s already exists", tank.ID)
	}

	s.tanks[tank.ID] = tank
	return nil
}

// GetTank returns the tank with the given ID
func (s *Store) GetTank(tankID string) (*models.Tank, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tank, exists := s.tanks[tankID]
	if !exists {
		return nil, false
	}

	// Return a copy to avoid race conditions
	tankCopy := tank
	return &tankCopy, true
}

// GetAllTanks returns all registered tanks, oldest first
func (s *Store) GetAllTanks() []models.Tank {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tanks := make([]models.Tank, 0, len(s.tanks))
	for _, tank := range s.tanks {
		tanks = append(tanks, tank)
	}

	sort.Slice(tanks, func(i, j int) bool {
		if tanks[i].CreatedAt.Equal(tanks[j].CreatedAt) {
			return tanks[i].Name < tanks[j].Name
		}
		return tanks[i].CreatedAt.Before(tanks[j].CreatedAt)
	})

	return tanks
}

// UpdateTank replaces an existing tank's details. The creation time of the
// stored tank is preserved.
func (s *Store) UpdateTank(tank models.Tank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.tanks[tank.ID]
	if !exists {
		return fmt.Errorf("tank %s not found", tank.ID)
	}

	tank.CreatedAt = existing.CreatedAt
	s.tanks[tank.ID] = tank
	return nil
}

// DeleteTank removes a tank along with its readings, events and reports
func (s *Store) DeleteTank(tankID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tanks[tankID]; !exists {
		return fmt.Errorf("tank %s not found", tankID)
	}

	delete(s.tanks, tankID)
	delete(s.readings, tankID)
	delete(s.latest, tankID)
	delete(s.events, tankID)
	delete(s.reports, tankID)
	return nil
}

// === Reading Storage ===

// AddReading stores a new reading. Readings are accepted for unregistered
// tanks so ingest never drops data while tank registration lags the probes.
func (s *Store) AddReading(reading models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep copy so callers cannot mutate the stored parameter map
	s.readings[reading.TankID] = append(s.readings[reading.TankID], reading.Clone())

	// Maintain maximum size by removing oldest entries
	if len(s.readings[reading.TankID]) > s.maxReadings {
		s.readings[reading.TankID] = s.readings[reading.TankID][1:]
	}

	// Backfilled history must not clobber the live latest pointer
	if current, exists := s.latest[reading.TankID]; !exists || !reading.Timestamp.Before(current.Timestamp) {
		latestCopy := reading.Clone()
		s.latest[reading.TankID] = &latestCopy
	}
}

// GetLatestReading returns the most recent reading for a tank
func (s *Store) GetLatestReading(tankID string) (*models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, exists := s.latest[tankID]
	if !exists || reading == nil {
		return nil, false
	}

	// Return a copy to avoid race conditions
	readingCopy := reading.Clone()
	return &readingCopy, true
}

// GetRecentReadings returns the most recent N readings for a tank,
// newest first
func (s *Store) GetRecentReadings(tankID string, limit int) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.readings[tankID]
	readings := make([]models.Reading, 0, len(stored))
	for _, reading := range stored {
		readings = append(readings, reading.Clone())
	}

	// Sort by timestamp descending (most recent first)
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})

	// Limit results
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}

	return readings
}

// GetReadingsInRange returns a tank's readings with start <= timestamp < end,
// oldest first
func (s *Store) GetReadingsInRange(tankID string, start, end time.Time) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Reading
	for _, reading := range s.readings[tankID] {
		if !reading.Timestamp.Before(start) && reading.Timestamp.Before(end) {
			result = append(result, reading.Clone())
		}
	}

	models.SortReadingsAsc(result)
	return result
}

// GetReadingCount returns the number of stored readings for a tank
func (s *Store) GetReadingCount(tankID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.readings[tankID])
}

// === Event Journal ===

// CreateEvent records a husbandry event. Unlike readings, events reference
// a registered tank.
func (s *Store) CreateEvent(event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tanks[event.TankID]; !exists {
		return fmt.Errorf("tank %s not found", event.TankID)
	}

	s.events[event.TankID] = append(s.events[event.TankID], event)
	return nil
}

// GetEventsSince returns a tank's events at or after the given time,
// oldest first
func (s *Store) GetEventsSince(tankID string, since time.Time) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Event
	for _, event := range s.events[tankID] {
		if !event.Timestamp.Before(since) {
			result = append(result, event)
		}
	}

	models.SortEventsAsc(result)
	return result
}

// GetRecentEvents returns the most recent N events for a tank, newest first
func (s *Store) GetRecentEvents(tankID string, limit int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[tankID]
	events := make([]models.Event, len(stored))
	copy(events, stored)

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	return events
}

// === Health Reports ===

// SaveHealthReport stores a generated health report. Report history is
// bounded the same way readings are.
func (s *Store) SaveHealthReport(report models.HealthReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[report.TankID] = append(s.reports[report.TankID], report.Clone())

	if len(s.reports[report.TankID]) > s.maxReadings {
		s.reports[report.TankID] = s.reports[report.TankID][1:]
	}
}

// GetLatestHealthReport returns the most recently generated report for a tank
func (s *Store) GetLatestHealthReport(tankID string) (*models.HealthReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.reports[tankID]
	if len(reports) == 0 {
		return nil, false
	}

	latest := reports[0]
	for _, report := range reports[1:] {
		if report.GeneratedAt.After(latest.GeneratedAt) {
			latest = report
		}
	}

	reportCopy := latest.Clone()
	return &reportCopy, true
}

// GetHealthReportHistory returns the most recent N reports for a tank,
// newest first
func (s *Store) GetHealthReportHistory(tankID string, limit int) []models.HealthReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.reports[tankID]
	reports := make([]models.HealthReport, 0, len(stored))
	for _, report := range stored {
		reports = append(reports, report.Clone())
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}

	return reports
}

// === Retention ===

// PruneBefore drops readings, events and reports older than cutoff across
// all tanks. The per-tank latest pointers are left untouched so dashboards
// never go blank on quiet tanks.
func (s *Store) PruneBefore(cutoff time.Time) (readings, events, reports int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tankID, list := range s.readings {
		kept := list[:0]
		for _, r := range list {
			if r.Timestamp.Before(cutoff) {
				readings++
				continue
			}
			kept = append(kept, r)
		}
		s.readings[tankID] = kept
	}

	for tankID, list := range s.events {
		kept := list[:0]
		for _, e := range list {
			if e.Timestamp.Before(cutoff) {
				events++
				continue
			}
			kept = append(kept, e)
		}
		s.events[tankID] = kept
	}

	for tankID, list := range s.reports {
		kept := list[:0]
		for _, r := range list {
			if r.GeneratedAt.Before(cutoff) {
				reports++
				continue
			}
			kept = append(kept, r)
		}
		s.reports[tankID] = kept
	}

	return readings, events, reports
}
