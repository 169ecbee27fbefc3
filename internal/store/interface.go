package store

import (
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// DataStore defines the interface for tank data storage operations.
// Both the in-memory store and the PostgreSQL store implement it, so
// handlers and background services never know which one is wired in.
type DataStore interface {
	// Health check
	Ping() error

	// Tank management
	CreateTank(tank models.Tank) error
	GetTank(tankID string) (*models.Tank, bool)
	GetAllTanks() []models.Tank
	UpdateTank(tank models.Tank) error
	DeleteTank(tankID string) error

	// Reading storage and retrieval
	AddReading(reading models.Reading)
	GetLatestReading(tankID string) (*models.Reading, bool)
	GetRecentReadings(tankID string, limit int) []models.Reading
	GetReadingsInRange(tankID string, start, end time.Time) []models.Reading
	GetReadingCount(tankID string) int

	// Husbandry event journal
	CreateEvent(event models.Event) error
	GetEventsSince(tankID string, since time.Time) []models.Event
	GetRecentEvents(tankID string, limit int) []models.Event

	// Health reports
	SaveHealthReport(report models.HealthReport)
	GetLatestHealthReport(tankID string) (*models.HealthReport, bool)
	GetHealthReportHistory(tankID string, limit int) []models.HealthReport

	// Retention
	PruneBefore(cutoff time.Time) (readings, events, reports int)
}
