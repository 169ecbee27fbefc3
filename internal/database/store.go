package database

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// DatabaseStore implements persistent storage using PostgreSQL.
// Read failures log and return empty results so the HTTP layer degrades
// instead of erroring; write failures log and drop.
type DatabaseStore struct {
	db *sql.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(db *sql.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Ping checks database connectivity
func (s *DatabaseStore) Ping() error {
	return s.db.Ping()
}

// CreateTank registers a new tank
func (s *DatabaseStore) CreateTank(tank models.Tank) error {
	query := `
		INSERT INTO tanks (id, name, volume_liters, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(query, tank.ID, tank.Name, tank.VolumeLiters, tank.Description, tank.CreatedAt)
	if err != nil {
		log.Printf("❌ Error creating tank: %v", err)
		return err
	}
	return nil
}

// GetTank returns one tank by id
func (s *DatabaseStore) GetTank(tankID string) (*models.Tank, bool) {
	query := `
		SELECT id, name, volume_liters, description, created_at
		FROM tanks
		WHERE id = $1`

	var tank models.Tank
	err := s.db.QueryRow(query, tankID).Scan(
		&tank.ID, &tank.Name, &tank.VolumeLiters, &tank.Description, &tank.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("❌ Error getting tank: %v", err)
		return nil, false
	}
	return &tank, true
}

// GetAllTanks returns every registered tank, oldest first
func (s *DatabaseStore) GetAllTanks() []models.Tank {
	query := `
		SELECT id, name, volume_liters, description, created_at
		FROM tanks
		ORDER BY created_at ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		log.Printf("❌ Error getting tanks: %v", err)
		return []models.Tank{}
	}
	defer rows.Close()

	var tanks []models.Tank
	for rows.Next() {
		var tank models.Tank
		if err := rows.Scan(&tank.ID, &tank.Name, &tank.VolumeLiters, &tank.Description, &tank.CreatedAt); err != nil {
			log.Printf("❌ Error scanning tank: %v", err)
			continue
		}
		tanks = append(tanks, tank)
	}
	if tanks == nil {
		tanks = []models.Tank{}
	}
	return tanks
}

// UpdateTank updates a tank's mutable fields
func (s *DatabaseStore) UpdateTank(tank models.Tank) error {
	query := `
		UPDATE tanks
		SET name = $2, volume_liters = $3, description = $4
		WHERE id = $1`

	result, err := s.db.Exec(query, tank.ID, tank.Name, tank.VolumeLiters, tank.Description)
	if err != nil {
		log.Printf("❌ Error updating tank: %v", err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTank removes a tank and, via cascade, its readings, events,
// and reports.
func (s *DatabaseStore) DeleteTank(tankID string) error {
	result, err := s.db.Exec(`DELETE FROM tanks WHERE id = $1`, tankID)
	if err != nil {
		log.Printf("❌ Error deleting tank: %v", err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddReading stores a water chemistry reading
func (s *DatabaseStore) AddReading(reading models.Reading) {
	values, err := json.Marshal(reading.Values)
	if err != nil {
		log.Printf("❌ Error marshaling reading values: %v", err)
		return
	}

	query := `
		INSERT INTO readings (tank_id, timestamp, source, values_json)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tank_id, timestamp) DO UPDATE SET
			source = EXCLUDED.source,
			values_json = EXCLUDED.values_json`

	if _, err := s.db.Exec(query, reading.TankID, reading.Timestamp, reading.Source, values); err != nil {
		log.Printf("❌ Error storing reading: %v", err)
	}
}

func scanReading(scan func(dest ...interface{}) error) (models.Reading, error) {
	var reading models.Reading
	var values []byte
	if err := scan(&reading.TankID, &reading.Timestamp, &reading.Source, &values); err != nil {
		return reading, err
	}
	if err := json.Unmarshal(values, &reading.Values); err != nil {
		return reading, err
	}
	return reading, nil
}

// GetLatestReading returns the most recent reading for a tank
func (s *DatabaseStore) GetLatestReading(tankID string) (*models.Reading, bool) {
	query := `
		SELECT tank_id, timestamp, source, values_json
		FROM readings
		WHERE tank_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	reading, err := scanReading(s.db.QueryRow(query, tankID).Scan)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("❌ Error getting latest reading: %v", err)
		return nil, false
	}
	return &reading, true
}

// GetRecentReadings returns up to limit readings for a tank, newest first
func (s *DatabaseStore) GetRecentReadings(tankID string, limit int) []models.Reading {
	query := `
		SELECT tank_id, timestamp, source, values_json
		FROM readings
		WHERE tank_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	return s.queryReadings(query, tankID, limit)
}

// GetReadingsInRange returns readings within [start, end], oldest first
func (s *DatabaseStore) GetReadingsInRange(tankID string, start, end time.Time) []models.Reading {
	query := `
		SELECT tank_id, timestamp, source, values_json
		FROM readings
		WHERE tank_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC`

	return s.queryReadings(query, tankID, start, end)
}

func (s *DatabaseStore) queryReadings(query string, args ...interface{}) []models.Reading {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("❌ Error querying readings: %v", err)
		return []models.Reading{}
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		reading, err := scanReading(rows.Scan)
		if err != nil {
			log.Printf("❌ Error scanning reading: %v", err)
			continue
		}
		readings = append(readings, reading)
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	return readings
}

// GetReadingCount returns the number of stored readings for a tank
func (s *DatabaseStore) GetReadingCount(tankID string) int {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM readings WHERE tank_id = $1`, tankID).Scan(&count)
	if err != nil {
		log.Printf("❌ Error counting readings: %v", err)
		return 0
	}
	return count
}

// CreateEvent records a husbandry event
func (s *DatabaseStore) CreateEvent(event models.Event) error {
	query := `
		INSERT INTO events (id, tank_id, timestamp, category, title, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(query, event.ID, event.TankID, event.Timestamp, event.Category, event.Title, event.Detail)
	if err != nil {
		log.Printf("❌ Error creating event: %v", err)
		return err
	}
	return nil
}

func (s *DatabaseStore) queryEvents(query string, args ...interface{}) []models.Event {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("❌ Error querying events: %v", err)
		return []models.Event{}
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.TankID, &event.Timestamp, &event.Category, &event.Title, &event.Detail); err != nil {
			log.Printf("❌ Error scanning event: %v", err)
			continue
		}
		events = append(events, event)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events
}

// GetEventsSince returns events at or after since, oldest first
func (s *DatabaseStore) GetEventsSince(tankID string, since time.Time) []models.Event {
	query := `
		SELECT id, tank_id, timestamp, category, title, detail
		FROM events
		WHERE tank_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC`

	return s.queryEvents(query, tankID, since)
}

// GetRecentEvents returns up to limit events, newest first
func (s *DatabaseStore) GetRecentEvents(tankID string, limit int) []models.Event {
	query := `
		SELECT id, tank_id, timestamp, category, title, detail
		FROM events
		WHERE tank_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	return s.queryEvents(query, tankID, limit)
}

// SaveHealthReport stores a generated health report
func (s *DatabaseStore) SaveHealthReport(report models.HealthReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		log.Printf("❌ Error marshaling health report: %v", err)
		return
	}

	query := `
		INSERT INTO health_reports (id, tank_id, generated_at, payload)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.Exec(query, report.ID, report.TankID, report.GeneratedAt, payload); err != nil {
		log.Printf("❌ Error storing health report: %v", err)
	}
}

// GetLatestHealthReport returns the most recent report for a tank
func (s *DatabaseStore) GetLatestHealthReport(tankID string) (*models.HealthReport, bool) {
	query := `
		SELECT payload
		FROM health_reports
		WHERE tank_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	var payload []byte
	err := s.db.QueryRow(query, tankID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("❌ Error getting latest health report: %v", err)
		return nil, false
	}

	var report models.HealthReport
	if err := json.Unmarshal(payload, &report); err != nil {
		log.Printf("❌ Error unmarshaling health report: %v", err)
		return nil, false
	}
	return &report, true
}

// GetHealthReportHistory returns up to limit reports, newest first
func (s *DatabaseStore) GetHealthReportHistory(tankID string, limit int) []models.HealthReport {
	query := `
		SELECT payload
		FROM health_reports
		WHERE tank_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`

	rows, err := s.db.Query(query, tankID, limit)
	if err != nil {
		log.Printf("❌ Error querying health reports: %v", err)
		return []models.HealthReport{}
	}
	defer rows.Close()

	var reports []models.HealthReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			log.Printf("❌ Error scanning health report: %v", err)
			continue
		}
		var report models.HealthReport
		if err := json.Unmarshal(payload, &report); err != nil {
			log.Printf("❌ Error unmarshaling health report: %v", err)
			continue
		}
		reports = append(reports, report)
	}
	if reports == nil {
		reports = []models.HealthReport{}
	}
	return reports
}

// PruneBefore deletes readings, events, and reports older than cutoff
// and returns how many rows of each were removed.
func (s *DatabaseStore) PruneBefore(cutoff time.Time) (readings, events, reports int) {
	prune := func(query string) int {
		result, err := s.db.Exec(query, cutoff)
		if err != nil {
			log.Printf("❌ Error pruning: %v", err)
			return 0
		}
		n, _ := result.RowsAffected()
		return int(n)
	}

	readings = prune(`DELETE FROM readings WHERE timestamp < $1`)
	events = prune(`DELETE FROM events WHERE timestamp < $1`)
	reports = prune(`DELETE FROM health_reports WHERE generated_at < $1`)
	return readings, events, reports
}
